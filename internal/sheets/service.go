// Package sheets provides the narrow spreadsheet contract the pipeline
// consumes: open a spreadsheet, read a whole sheet, write one cell.
package sheets

import "context"

// Handle identifies an opened spreadsheet. Opaque to callers; they pass it
// back for reads and the sent-marker write.
type Handle struct {
	SpreadsheetID string
	Title         string
}

// Service is the spreadsheet backend contract.
type Service interface {
	// Open validates that the spreadsheet exists and returns a handle.
	Open(ctx context.Context, spreadsheetID string) (*Handle, error)

	// ReadAll returns every cell of the named sheet as rows of strings.
	// Row 1 may or may not be a header; that is the caller's concern.
	ReadAll(ctx context.Context, h *Handle, sheetName string) ([][]string, error)

	// UpdateCell writes value into the cell at the 1-indexed row and column.
	// Rate-limit failures are returned as retryable errors for the caller's
	// retry policy.
	UpdateCell(ctx context.Context, h *Handle, sheetName string, row, col int, value string) error
}
