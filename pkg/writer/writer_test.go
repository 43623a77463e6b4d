package writer

import (
	"context"
	"net/http"
	"net/http/httptest"
	"net/url"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/sirupsen/logrus/hooks/test"
	"github.com/stretchr/testify/require"
)

func newTestWriter(t *testing.T, handler http.HandlerFunc) *Client {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)
	log, _ := test.NewNullLogger()
	return NewClient(srv.Client(), srv.URL+"/exec?deployment=1", log)
}

func TestWriteEncodesPayload(t *testing.T) {
	var got url.Values
	client := newTestWriter(t, func(w http.ResponseWriter, r *http.Request) {
		got = r.URL.Query()
		w.Write([]byte(`{"success":true,"meetingId":"M-20240305-001"}`))
	})

	payload := NewMeeting{Title: "預算審查", AssignDate: "2024-03-05", Assignee: "王小明"}.Payload()
	result := client.Write(context.Background(), ActionAddMeeting, payload)

	require.True(t, result.Success, "result: %s", result)
	if result.CreatedID != "M-20240305-001" {
		t.Errorf("Expected created id, got %q", result.CreatedID)
	}
	if got.Get("action") != ActionAddMeeting {
		t.Errorf("Expected action param, got %q", got.Get("action"))
	}
	if got.Get("deployment") != "1" {
		t.Error("Expected existing endpoint query to be preserved")
	}
	if got.Get("title") != "預算審查" || got.Get("status") != "待處理" || got.Get("note") != "" {
		t.Errorf("Unexpected payload params %v", got)
	}
	if _, ok := got["note"]; !ok {
		t.Error("Expected empty note to still be sent")
	}
}

func TestWriteFailuresNeverError(t *testing.T) {
	cases := []struct {
		name    string
		handler http.HandlerFunc
		reason  string
	}{
		{
			name: "remote failure",
			handler: func(w http.ResponseWriter, r *http.Request) {
				w.Write([]byte(`{"success":false,"error":"找不到工作表"}`))
			},
			reason: "找不到工作表",
		},
		{
			name: "failure without reason",
			handler: func(w http.ResponseWriter, r *http.Request) {
				w.Write([]byte(`{"success":false}`))
			},
			reason: "remote reported failure",
		},
		{
			name: "html body",
			handler: func(w http.ResponseWriter, r *http.Request) {
				w.Write([]byte(`<html>error</html>`))
			},
		},
		{
			name: "server error",
			handler: func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(http.StatusBadGateway)
			},
		},
	}

	for _, tc := range cases {
		client := newTestWriter(t, tc.handler)
		result := client.Write(context.Background(), ActionAddTodo, NewTodo{Task: "x"}.Payload())
		if result.Success {
			t.Errorf("%s: expected failure", tc.name)
			continue
		}
		if result.Reason == "" {
			t.Errorf("%s: expected a reason", tc.name)
		}
		if tc.reason != "" && result.Reason != tc.reason {
			t.Errorf("%s: expected reason %q, got %q", tc.name, tc.reason, result.Reason)
		}
	}
}

func TestWriteUnreachableEndpoint(t *testing.T) {
	srv := httptest.NewServer(http.NotFoundHandler())
	endpoint := srv.URL
	srv.Close()

	result := NewClient(nil, endpoint, nil).Write(context.Background(), ActionUpdateStatus, StatusUpdate{ID: "T1", Status: "已完成", Sheet: "05_待辦追蹤"}.Payload())
	if result.Success || result.Reason == "" {
		t.Errorf("Expected failure with reason, got %+v", result)
	}

	result = NewClient(nil, "", nil).Write(context.Background(), ActionUpdateStatus, nil)
	if result.Success {
		t.Error("Expected failure for unconfigured endpoint")
	}
}

func TestCreatedID(t *testing.T) {
	cases := []struct {
		raw  map[string]interface{}
		want string
	}{
		{map[string]interface{}{"success": true, "todoId": "T9"}, "T9"},
		{map[string]interface{}{"success": true, "rowId": "R2"}, "R2"},
		{map[string]interface{}{"success": true}, ""},
	}
	for _, tc := range cases {
		if got := createdID(tc.raw); got != tc.want {
			t.Errorf("createdID(%v): expected %q, got %q", tc.raw, tc.want, got)
		}
	}
}

func TestPayloadDefaults(t *testing.T) {
	got := NewTodo{MeetingID: "M1", Task: "寄送會議紀錄"}.Payload()
	want := map[string]string{
		"meetingId": "M1",
		"task":      "寄送會議紀錄",
		"assignee":  "",
		"assigner":  "",
		"dueDate":   "",
		"priority":  "中",
		"status":    "待處理",
	}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("NewTodo payload mismatch (-want +got):\n%s", diff)
	}
}
