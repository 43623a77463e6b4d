// Package writer sends mutations to the spreadsheet's Apps Script endpoint.
package writer

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"sort"
	"strings"

	"github.com/bytedance/sonic"
	"github.com/sirupsen/logrus"
)

// Action names accepted by the write endpoint.
const (
	ActionAddMeeting   = "addMeeting"
	ActionAddTodo      = "addTodo"
	ActionUpdateStatus = "updateStatus"
)

// maxResponseBytes bounds how much of a response body is decoded.
const maxResponseBytes = 1 << 20

// Result is the outcome of one write. Exactly one of the two shapes holds:
// Success with an optional CreatedID, or failure with a Reason.
type Result struct {
	Success   bool   `json:"success"`
	CreatedID string `json:"createdId,omitempty"`
	Reason    string `json:"reason,omitempty"`
}

// Succeeded builds a successful Result.
func Succeeded(createdID string) Result {
	return Result{Success: true, CreatedID: createdID}
}

// Failed builds a failed Result.
func Failed(reason string) Result {
	return Result{Reason: reason}
}

func (r Result) String() string {
	if r.Success {
		if r.CreatedID != "" {
			return "success: " + r.CreatedID
		}
		return "success"
	}
	return "failure: " + r.Reason
}

// Client calls the write endpoint. It holds no state besides its transport.
type Client struct {
	httpClient *http.Client
	endpoint   string
	log        logrus.FieldLogger
}

// NewClient returns a Client for the given endpoint URL.
func NewClient(httpClient *http.Client, endpoint string, log logrus.FieldLogger) *Client {
	if httpClient == nil {
		httpClient = http.DefaultClient
	}
	if log == nil {
		log = logrus.StandardLogger()
	}
	return &Client{httpClient: httpClient, endpoint: endpoint, log: log}
}

// Write sends action with payload as query parameters. Transport, status and
// decode errors come back as a failed Result; Write never returns an error.
func (c *Client) Write(ctx context.Context, action string, payload map[string]string) Result {
	log := c.log.WithField("action", action)

	target, err := c.buildURL(action, payload)
	if err != nil {
		log.WithError(err).Error("invalid write endpoint")
		return Failed(err.Error())
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, target, nil)
	if err != nil {
		return Failed(err.Error())
	}
	resp, err := c.httpClient.Do(req)
	if err != nil {
		log.WithError(err).Warn("write request failed")
		return Failed(err.Error())
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		log.WithField("status", resp.StatusCode).Warn("write endpoint returned error status")
		return Failed(fmt.Sprintf("unexpected status %s", resp.Status))
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseBytes))
	if err != nil {
		return Failed(fmt.Sprintf("reading response: %v", err))
	}
	result := decodeResult(body)
	if result.Success {
		log.WithField("id", result.CreatedID).Info("write accepted")
	} else {
		log.WithField("reason", result.Reason).Warn("write rejected")
	}
	return result
}

func (c *Client) buildURL(action string, payload map[string]string) (string, error) {
	if c.endpoint == "" {
		return "", fmt.Errorf("write endpoint not configured")
	}
	u, err := url.Parse(c.endpoint)
	if err != nil {
		return "", fmt.Errorf("parsing write endpoint: %w", err)
	}
	q := u.Query()
	q.Set("action", action)
	for k, v := range payload {
		if k == "action" {
			continue
		}
		q.Set(k, v)
	}
	u.RawQuery = q.Encode()
	return u.String(), nil
}

// decodeResult reads {success, <entity>Id?, error?}.
func decodeResult(body []byte) Result {
	var raw map[string]interface{}
	if err := sonic.Unmarshal(body, &raw); err != nil {
		return Failed(fmt.Sprintf("decoding response: %v", err))
	}

	ok, _ := raw["success"].(bool)
	if !ok {
		reason, _ := raw["error"].(string)
		if reason == "" {
			reason = "remote reported failure"
		}
		return Failed(reason)
	}
	return Succeeded(createdID(raw))
}

// createdID picks the entity id from a success response: meetingId, todoId,
// or any other *Id field, in that order.
func createdID(raw map[string]interface{}) string {
	for _, k := range []string{"meetingId", "todoId", "id"} {
		if v, ok := raw[k].(string); ok && v != "" {
			return v
		}
	}
	keys := make([]string, 0, len(raw))
	for k := range raw {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	for _, k := range keys {
		if strings.HasSuffix(k, "Id") {
			if v, ok := raw[k].(string); ok && v != "" {
				return v
			}
		}
	}
	return ""
}
