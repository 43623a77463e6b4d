package sheets

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/sirupsen/logrus"
	"github.com/sirupsen/logrus/hooks/test"

	"github.com/harrisonrobin/taskboard/pkg/model"
)

const meetingsBlob = `/*O_o*/
google.visualization.Query.setResponse({"version":"0.6","reqId":"0","status":"ok","sig":"1","table":{"cols":[{"id":"A","label":"編號","type":"string"},{"id":"B","label":"主題","type":"string"},{"id":"C","label":"","type":"string"},{"id":"D","label":"指派日期","type":"date"},{"id":"E","label":"份數","type":"number"}],"rows":[{"c":[{"v":"M001"},{"v":"預算審查會議"},{"v":"ignored"},{"v":"Date(2024,2,5)","f":"2024/3/5"},{"v":3.0,"f":"3"}]},{"c":[{"v":"M002"},null,null]}],"parsedNumHeaders":1}});`

func newTestClient(t *testing.T, handler http.HandlerFunc) *Client {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)
	log, _ := test.NewNullLogger()
	return NewClient(srv.Client(), srv.URL, "sheet-123", log)
}

func TestParse(t *testing.T) {
	records, err := Parse([]byte(meetingsBlob))
	if err != nil {
		t.Fatalf("Parse failed: %v", err)
	}

	want := []model.Record{
		{"編號": "M001", "主題": "預算審查會議", "指派日期": "Date(2024,2,5)", "份數": "3"},
		{"編號": "M002", "主題": "", "指派日期": "", "份數": ""},
	}
	if diff := cmp.Diff(want, records); diff != "" {
		t.Errorf("Parse mismatch (-want +got):\n%s", diff)
	}
}

func TestParseTimeOfDay(t *testing.T) {
	blob := `/*O_o*/
google.visualization.Query.setResponse({"status":"ok","table":{"cols":[{"label":"時間","type":"timeofday"}],"rows":[{"c":[{"v":[9,30,0,0],"f":"上午9:30:00"}]}]}});`
	records, err := Parse([]byte(blob))
	if err != nil {
		t.Fatalf("Parse failed: %v", err)
	}
	want := []model.Record{{"時間": "09:30"}}
	if diff := cmp.Diff(want, records); diff != "" {
		t.Errorf("Parse mismatch (-want +got):\n%s", diff)
	}
}

func TestParseEmptyTable(t *testing.T) {
	blob := `google.visualization.Query.setResponse({"status":"ok","table":{"cols":[{"label":"姓名"}],"rows":[]}});`
	records, err := Parse([]byte(blob))
	if err != nil {
		t.Fatalf("Parse failed: %v", err)
	}
	if records == nil || len(records) != 0 {
		t.Errorf("Expected empty non-nil slice, got %#v", records)
	}
}

func TestParseErrors(t *testing.T) {
	cases := map[string]string{
		"no json":      "<html>sign in</html>",
		"bad json":     "setResponse({\"table\": [}",
		"status error": `setResponse({"status":"error","errors":[{"reason":"invalid_query","message":"bad sheet"}]});`,
		"no table":     `setResponse({"status":"ok"});`,
	}
	for name, blob := range cases {
		if _, err := Parse([]byte(blob)); err == nil {
			t.Errorf("%s: expected error", name)
		}
	}
}

func TestFetch(t *testing.T) {
	var gotSheet, gotTqx, gotPath string
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		gotPath = r.URL.Path
		gotSheet = r.URL.Query().Get("sheet")
		gotTqx = r.URL.Query().Get("tqx")
		w.Write([]byte(meetingsBlob))
	})

	records, err := client.Fetch(context.Background(), "01_會議工作清單")
	if err != nil {
		t.Fatalf("Fetch failed: %v", err)
	}
	if len(records) != 2 {
		t.Errorf("Expected 2 records, got %d", len(records))
	}
	if gotPath != "/spreadsheets/d/sheet-123/gviz/tq" {
		t.Errorf("Unexpected path %s", gotPath)
	}
	if gotSheet != "01_會議工作清單" {
		t.Errorf("Expected sheet query param to round-trip, got %q", gotSheet)
	}
	if gotTqx != "out:json" {
		t.Errorf("Expected tqx=out:json, got %q", gotTqx)
	}
}

func TestFetchFailuresWrapErrFetch(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "boom", http.StatusInternalServerError)
	})
	if _, err := client.Fetch(context.Background(), "02_分類設定"); !errors.Is(err, ErrFetch) {
		t.Errorf("Expected ErrFetch on 500, got %v", err)
	}

	client = newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte("not a payload"))
	})
	if _, err := client.Fetch(context.Background(), "02_分類設定"); !errors.Is(err, ErrFetch) {
		t.Errorf("Expected ErrFetch on unparsable body, got %v", err)
	}

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	if _, err := client.Fetch(ctx, "02_分類設定"); !errors.Is(err, ErrFetch) {
		t.Errorf("Expected ErrFetch on cancelled context, got %v", err)
	}
}

func TestNewClientDefaults(t *testing.T) {
	c := NewClient(nil, "", "abc", nil)
	if c.baseURL != DefaultBaseURL {
		t.Errorf("Expected default base URL, got %s", c.baseURL)
	}
	if c.httpClient != http.DefaultClient {
		t.Error("Expected default HTTP client")
	}
	if _, ok := c.log.(*logrus.Logger); !ok {
		t.Error("Expected standard logger fallback")
	}
}
