// Package extract asks Gemini to read a meeting document or screenshot and
// suggest values for the new-meeting form.
package extract

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/bytedance/sonic"
	"github.com/sirupsen/logrus"
	"google.golang.org/genai"

	"github.com/harrisonrobin/taskboard/pkg/util"
)

var (
	// ErrUnavailable means no API key is configured. It is returned before any
	// request is made; the caller should prompt for a key.
	ErrUnavailable = errors.New("extraction unavailable: no API key configured")

	// ErrNoSuggestion means the model answered without a usable suggestion;
	// the caller falls back to manual entry.
	ErrNoSuggestion = errors.New("no suggestion in model response")
)

// DefaultPrompt asks for the form fields as a bare JSON object.
const DefaultPrompt = `請分析這份文件/截圖，提取以下資訊並以 JSON 格式回傳：
{
    "title": "會議或工作主題",
    "date": "日期（格式：YYYY-MM-DD）",
    "time": "時間（格式：HH:MM，若無則留空）",
    "category": "分類（計畫類/預算類/租稅優惠/國際人才/AI產業人才認定指引/其他）",
    "organization": "相關單位全銜（如：國家發展委員會、勞動部勞動力發展署）",
    "assignee": "負責人或承辦人姓名",
    "dueDate": "截止日期（格式：YYYY-MM-DD，若無則留空）",
    "summary": "簡短摘要（50字內）"
}
請只回傳 JSON，不要有其他文字。若無法辨識某欄位請填空字串。`

const defaultMimeType = "image/png"

// KeySource supplies the API key. An empty key disables extraction.
type KeySource interface {
	APIKey() string
}

// Suggestion holds the extracted fields. Any field may be empty.
type Suggestion struct {
	Title        string `json:"title"`
	Date         string `json:"date"`
	Time         string `json:"time"`
	Category     string `json:"category"`
	Organization string `json:"organization"`
	Assignee     string `json:"assignee"`
	DueDate      string `json:"dueDate"`
	Summary      string `json:"summary"`
}

func (s Suggestion) empty() bool {
	return s == Suggestion{}
}

// Client calls the Gemini generateContent method.
type Client struct {
	keys     KeySource
	model    string
	endpoint string
	log      logrus.FieldLogger
}

// NewClient returns a Client using the given model, e.g. "gemini-2.5-flash".
func NewClient(keys KeySource, model string, log logrus.FieldLogger) *Client {
	if log == nil {
		log = logrus.StandardLogger()
	}
	return &Client{keys: keys, model: model, log: log}
}

// WithEndpoint points the client at a different API root.
func (c *Client) WithEndpoint(endpoint string) *Client {
	c.endpoint = endpoint
	return c
}

// Available reports whether an API key is configured.
func (c *Client) Available() bool {
	return c.keys != nil && c.keys.APIKey() != ""
}

// Extract sends file with instruction (DefaultPrompt when empty) and parses
// the model's answer.
func (c *Client) Extract(ctx context.Context, file []byte, mimeType, instruction string) (*Suggestion, error) {
	if !c.Available() {
		return nil, ErrUnavailable
	}
	if instruction == "" {
		instruction = DefaultPrompt
	}
	if mimeType == "" {
		mimeType = defaultMimeType
	}

	cfg := &genai.ClientConfig{
		APIKey:  c.keys.APIKey(),
		Backend: genai.BackendGeminiAPI,
	}
	if c.endpoint != "" {
		cfg.HTTPOptions.BaseURL = c.endpoint
	}
	client, err := genai.NewClient(ctx, cfg)
	if err != nil {
		return nil, fmt.Errorf("creating gemini client: %w", err)
	}

	contents := []*genai.Content{
		genai.NewContentFromParts([]*genai.Part{
			genai.NewPartFromText(instruction),
			genai.NewPartFromBytes(file, mimeType),
		}, genai.RoleUser),
	}
	resp, err := client.Models.GenerateContent(ctx, c.model, contents, nil)
	if err != nil {
		c.log.WithError(err).Warn("gemini request failed")
		return nil, fmt.Errorf("gemini request: %w", err)
	}

	suggestion, err := ParseSuggestion(responseText(resp))
	if err != nil {
		c.log.Info("gemini returned no usable suggestion")
		return nil, err
	}
	return suggestion, nil
}

func responseText(resp *genai.GenerateContentResponse) string {
	if resp == nil || len(resp.Candidates) == 0 {
		return ""
	}
	cand := resp.Candidates[0]
	if cand == nil || cand.Content == nil {
		return ""
	}
	var b strings.Builder
	for _, p := range cand.Content.Parts {
		if p != nil && !p.Thought {
			b.WriteString(p.Text)
		}
	}
	return b.String()
}

// ParseSuggestion finds the JSON object in a model answer. Values that are not
// strings are stringified, dates are normalized to YYYY-MM-DD and malformed
// dates or times are dropped.
func ParseSuggestion(text string) (*Suggestion, error) {
	payload, err := util.ExtractJSONObject(text)
	if err != nil {
		return nil, ErrNoSuggestion
	}
	var raw map[string]interface{}
	if err := sonic.UnmarshalString(payload, &raw); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrNoSuggestion, err)
	}

	field := func(k string) string {
		return strings.TrimSpace(util.CellString(raw[k]))
	}
	s := &Suggestion{
		Title:        field("title"),
		Date:         normalizeDate(field("date")),
		Time:         normalizeClock(field("time")),
		Category:     field("category"),
		Organization: field("organization"),
		Assignee:     field("assignee"),
		DueDate:      normalizeDate(field("dueDate")),
		Summary:      field("summary"),
	}
	if s.empty() {
		return nil, ErrNoSuggestion
	}
	return s, nil
}
