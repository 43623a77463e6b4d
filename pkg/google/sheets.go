package google

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/sirupsen/logrus"
	"google.golang.org/api/sheets/v4"

	"github.com/harrisonrobin/taskboard/pkg/model"
	"github.com/harrisonrobin/taskboard/pkg/util"
)

// ErrFetch marks a failure to read one sheet through the Sheets API.
var ErrFetch = errors.New("fetch sheet via api")

// SheetsClient reads whole sheets of one spreadsheet with the Sheets API.
type SheetsClient struct {
	srv           *sheets.Service
	spreadsheetID string
	log           logrus.FieldLogger
}

// NewSheetsClient wraps an authenticated Sheets service.
func NewSheetsClient(srv *sheets.Service, spreadsheetID string, log logrus.FieldLogger) *SheetsClient {
	if log == nil {
		log = logrus.StandardLogger()
	}
	return &SheetsClient{srv: srv, spreadsheetID: spreadsheetID, log: log}
}

// Fetch reads the sheet named sheetName. The first row supplies the field
// names; rows shorter than the header are padded with "".
func (c *SheetsClient) Fetch(ctx context.Context, sheetName string) ([]model.Record, error) {
	resp, err := c.srv.Spreadsheets.Values.Get(c.spreadsheetID, sheetRange(sheetName)).
		ValueRenderOption("FORMATTED_VALUE").
		DateTimeRenderOption("FORMATTED_STRING").
		Context(ctx).
		Do()
	if err != nil {
		return nil, fmt.Errorf("%w %q: %w", ErrFetch, sheetName, err)
	}

	records := recordsFromValues(resp.Values)
	c.log.WithFields(logrus.Fields{"sheet": sheetName, "rows": len(records)}).Debug("fetched sheet via api")
	return records, nil
}

// sheetRange quotes a sheet title for A1 notation.
func sheetRange(name string) string {
	return "'" + strings.ReplaceAll(name, "'", "''") + "'"
}

func recordsFromValues(values [][]interface{}) []model.Record {
	records := []model.Record{}
	if len(values) == 0 {
		return records
	}

	headers := make([]string, len(values[0]))
	for i, v := range values[0] {
		headers[i] = strings.TrimSpace(util.CellString(v))
	}

	for _, row := range values[1:] {
		rec := make(model.Record, len(headers))
		for i, h := range headers {
			if h == "" {
				continue
			}
			val := ""
			if i < len(row) {
				val = util.CellString(row[i])
			}
			rec[h] = val
		}
		records = append(records, rec)
	}
	return records
}
