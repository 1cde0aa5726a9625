package models

// Account is one sending identity from the account registry sheet.
// Immutable for the duration of a run.
type Account struct {
	Email                 string
	Password              string
	FallbackPassword      string
	DisplayName           string
	ClientName            string // normalized
	TemplateSpreadsheetID string
	SMTPHost              string
	SMTPPort              int
}
