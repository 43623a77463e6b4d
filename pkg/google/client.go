// Package google reads the dashboard spreadsheet through the authenticated
// Google Sheets API, as an alternative to the public gviz endpoint.
package google

import (
	"context"
	"fmt"

	"github.com/sirupsen/logrus"
	"google.golang.org/api/option"
	"google.golang.org/api/sheets/v4"

	"github.com/harrisonrobin/taskboard/pkg/auth"
)

// NewClient creates a Sheets API client authorized with the OAuth token kept
// by authn.
func NewClient(ctx context.Context, authn *auth.Authenticator, spreadsheetID string, log logrus.FieldLogger) (*SheetsClient, error) {
	httpClient, err := authn.Client(ctx, auth.SheetsScopes)
	if err != nil {
		return nil, fmt.Errorf("failed to get authenticated client for Sheets API: %w", err)
	}

	srv, err := sheets.NewService(ctx, option.WithHTTPClient(httpClient))
	if err != nil {
		return nil, fmt.Errorf("unable to create Sheets service: %w", err)
	}

	// Confirm the spreadsheet is reachable before handing the client out.
	if _, err := srv.Spreadsheets.Get(spreadsheetID).Fields("spreadsheetId").Context(ctx).Do(); err != nil {
		return nil, fmt.Errorf("spreadsheet %s not accessible: %w", spreadsheetID, err)
	}

	return NewSheetsClient(srv, spreadsheetID, log), nil
}
