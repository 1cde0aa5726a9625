package sheets

import (
	"context"
	stderrors "errors"
	"fmt"
	"os"
	"strings"

	"golang.org/x/oauth2/google"
	"google.golang.org/api/googleapi"
	"google.golang.org/api/option"
	sheetsapi "google.golang.org/api/sheets/v4"

	"mail-autoreply/internal/common/errors"
	"mail-autoreply/internal/common/logger"
)

var scopes = []string{
	"https://www.googleapis.com/auth/spreadsheets",
	"https://www.googleapis.com/auth/drive",
}

// GoogleClient implements Service against the Google Sheets API.
type GoogleClient struct {
	svc    *sheetsapi.Service
	logger logger.Logger
}

// NewGoogleClient authenticates with a service account. Credential sources,
// in priority order: the credentials file if it exists, then the
// GOOGLE_CREDENTIALS environment variable holding the JSON key.
func NewGoogleClient(ctx context.Context, credentialsFile string, log logger.Logger) (*GoogleClient, error) {
	var opts []option.ClientOption

	if _, err := os.Stat(credentialsFile); err == nil {
		log.Info("sheets auth: using credentials file", map[string]interface{}{"path": credentialsFile})
		opts = append(opts, option.WithCredentialsFile(credentialsFile), option.WithScopes(scopes...))
	} else if credsJSON := os.Getenv("GOOGLE_CREDENTIALS"); credsJSON != "" {
		creds, err := google.CredentialsFromJSON(ctx, []byte(credsJSON), scopes...)
		if err != nil {
			return nil, fmt.Errorf("parse GOOGLE_CREDENTIALS: %w", err)
		}
		log.Info("sheets auth: using GOOGLE_CREDENTIALS environment variable", nil)
		opts = append(opts, option.WithCredentials(creds))
	} else {
		return nil, fmt.Errorf("no Google credentials: place %s or set GOOGLE_CREDENTIALS", credentialsFile)
	}

	svc, err := sheetsapi.NewService(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("create sheets service: %w", err)
	}

	return &GoogleClient{svc: svc, logger: log}, nil
}

func (c *GoogleClient) Open(ctx context.Context, spreadsheetID string) (*Handle, error) {
	ss, err := c.svc.Spreadsheets.Get(spreadsheetID).Fields("properties.title").Context(ctx).Do()
	if err != nil {
		return nil, errors.NewSheetsReadFailedError(spreadsheetID, "", err)
	}

	title := ""
	if ss.Properties != nil {
		title = ss.Properties.Title
	}
	return &Handle{SpreadsheetID: spreadsheetID, Title: title}, nil
}

func (c *GoogleClient) ReadAll(ctx context.Context, h *Handle, sheetName string) ([][]string, error) {
	resp, err := c.svc.Spreadsheets.Values.Get(h.SpreadsheetID, quoteSheetName(sheetName)).
		ValueRenderOption("FORMATTED_VALUE").
		Context(ctx).
		Do()
	if err != nil {
		if isRateLimited(err) {
			return nil, errors.NewSheetsRateLimitedError(err)
		}
		return nil, errors.NewSheetsReadFailedError(h.SpreadsheetID, sheetName, err)
	}

	rows := make([][]string, 0, len(resp.Values))
	for _, raw := range resp.Values {
		row := make([]string, 0, len(raw))
		for _, cell := range raw {
			row = append(row, fmt.Sprint(cell))
		}
		rows = append(rows, row)
	}
	return rows, nil
}

func (c *GoogleClient) UpdateCell(ctx context.Context, h *Handle, sheetName string, row, col int, value string) error {
	rangeA1 := fmt.Sprintf("%s!%s%d", quoteSheetName(sheetName), columnLetter(col), row)
	body := &sheetsapi.ValueRange{Values: [][]interface{}{{value}}}

	_, err := c.svc.Spreadsheets.Values.Update(h.SpreadsheetID, rangeA1, body).
		ValueInputOption("USER_ENTERED").
		Context(ctx).
		Do()
	if err != nil {
		if isRateLimited(err) {
			return errors.NewSheetsRateLimitedError(err)
		}
		return errors.NewSheetsUpdateFailedError(row, col, err)
	}
	return nil
}

// quoteSheetName wraps the sheet name in single quotes for A1 notation, so
// names with spaces or non-ASCII characters address correctly.
func quoteSheetName(name string) string {
	return "'" + strings.ReplaceAll(name, "'", "''") + "'"
}

// columnLetter converts a 1-indexed column number to its A1 letter form.
func columnLetter(col int) string {
	letters := ""
	for col > 0 {
		col--
		letters = string(rune('A'+col%26)) + letters
		col /= 26
	}
	return letters
}

// isRateLimited reports whether err is a rate-limit-class API error.
func isRateLimited(err error) bool {
	var apiErr *googleapi.Error
	if stderrors.As(err, &apiErr) {
		if apiErr.Code == 429 {
			return true
		}
	}
	return strings.Contains(strings.ToUpper(err.Error()), "RATE_LIMIT")
}
