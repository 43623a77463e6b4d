// Package sheets reads tables from a Google spreadsheet through the public
// gviz query endpoint.
package sheets

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"

	"github.com/bytedance/sonic"
	"github.com/sirupsen/logrus"

	"github.com/harrisonrobin/taskboard/pkg/model"
	"github.com/harrisonrobin/taskboard/pkg/util"
)

// DefaultBaseURL is the host serving spreadsheet gviz queries.
const DefaultBaseURL = "https://docs.google.com"

// ErrFetch marks a failure to read or parse one table.
var ErrFetch = errors.New("fetch table")

type gvizResponse struct {
	Status string      `json:"status"`
	Errors []gvizError `json:"errors"`
	Table  *gvizTable  `json:"table"`
}

type gvizError struct {
	Reason          string `json:"reason"`
	Message         string `json:"message"`
	DetailedMessage string `json:"detailed_message"`
}

type gvizTable struct {
	Cols []gvizCol `json:"cols"`
	Rows []gvizRow `json:"rows"`
}

type gvizCol struct {
	ID    string `json:"id"`
	Label string `json:"label"`
	Type  string `json:"type"`
}

type gvizRow struct {
	C []*gvizCell `json:"c"`
}

type gvizCell struct {
	V interface{} `json:"v"`
	F string      `json:"f,omitempty"`
}

// Client fetches sheets of one spreadsheet.
type Client struct {
	httpClient    *http.Client
	baseURL       string
	spreadsheetID string
	log           logrus.FieldLogger
}

// NewClient creates a gviz client. A nil httpClient uses http.DefaultClient and
// an empty baseURL uses DefaultBaseURL.
func NewClient(httpClient *http.Client, baseURL, spreadsheetID string, log logrus.FieldLogger) *Client {
	if httpClient == nil {
		httpClient = http.DefaultClient
	}
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}
	if log == nil {
		log = logrus.StandardLogger()
	}
	return &Client{
		httpClient:    httpClient,
		baseURL:       strings.TrimRight(baseURL, "/"),
		spreadsheetID: spreadsheetID,
		log:           log,
	}
}

// Fetch reads the sheet named sheetName. Every error wraps ErrFetch. An empty
// sheet yields an empty slice.
func (c *Client) Fetch(ctx context.Context, sheetName string) ([]model.Record, error) {
	endpoint := fmt.Sprintf("%s/spreadsheets/d/%s/gviz/tq?tqx=out:json&sheet=%s",
		c.baseURL, url.PathEscape(c.spreadsheetID), url.QueryEscape(sheetName))

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return nil, fmt.Errorf("%w %q: %w", ErrFetch, sheetName, err)
	}
	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%w %q: %w", ErrFetch, sheetName, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, fmt.Errorf("%w %q: unexpected status %s", ErrFetch, sheetName, resp.Status)
	}
	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("%w %q: reading body: %w", ErrFetch, sheetName, err)
	}

	records, err := Parse(body)
	if err != nil {
		return nil, fmt.Errorf("%w %q: %w", ErrFetch, sheetName, err)
	}
	c.log.WithFields(logrus.Fields{"sheet": sheetName, "rows": len(records)}).Debug("fetched sheet")
	return records, nil
}

// Parse decodes a gviz response body, framing included, into records keyed
// by column label. Columns with an empty label are skipped and missing cells
// read as "".
func Parse(body []byte) ([]model.Record, error) {
	payload, err := util.ExtractJSONObject(string(body))
	if err != nil {
		return nil, err
	}

	var resp gvizResponse
	if err := sonic.UnmarshalString(payload, &resp); err != nil {
		return nil, fmt.Errorf("failed to decode gviz payload: %w", err)
	}
	if resp.Status == "error" {
		msg := "query failed"
		if len(resp.Errors) > 0 {
			msg = resp.Errors[0].Reason + ": " + resp.Errors[0].Message
		}
		return nil, fmt.Errorf("gviz error: %s", msg)
	}
	if resp.Table == nil {
		return nil, fmt.Errorf("gviz payload has no table")
	}

	headers := make([]string, len(resp.Table.Cols))
	for i, col := range resp.Table.Cols {
		headers[i] = strings.TrimSpace(col.Label)
	}

	records := make([]model.Record, 0, len(resp.Table.Rows))
	for _, row := range resp.Table.Rows {
		rec := make(model.Record, len(headers))
		for i, h := range headers {
			if h == "" {
				continue
			}
			val := ""
			if i < len(row.C) && row.C[i] != nil {
				val = util.CellString(row.C[i].V)
			}
			rec[h] = val
		}
		records = append(records, rec)
	}
	return records, nil
}
