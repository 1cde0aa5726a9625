package models

import "strconv"

// Applicant is one eligible applicant row, materialized fresh each run.
type Applicant struct {
	// RowIndex is the 1-based sheet row (header is row 1, first data row 2),
	// used for the sent-marker write-back.
	RowIndex int

	Name         string
	Age          *int // nil when blank or unparsable
	EmailAddress string
	ClientName   string // normalized
	Title        string
	// ApplicationDate keeps the raw timestamp cell for logging.
	ApplicationDate string

	// Columns maps every header label to the row's raw cell value, for
	// column-reference placeholders in templates.
	Columns map[string]string
}

// AgeString renders the age for placeholder substitution: the number, or
// empty when unknown.
func (a Applicant) AgeString() string {
	if a.Age == nil {
		return ""
	}
	return strconv.Itoa(*a.Age)
}

// RenderContext is the set of substitution values derived from one applicant.
type RenderContext struct {
	Name       string
	Title      string
	Age        string
	ClientName string
	Columns    map[string]string
}

// NewRenderContext builds the substitution context for an applicant.
func NewRenderContext(a Applicant) RenderContext {
	return RenderContext{
		Name:       a.Name,
		Title:      a.Title,
		Age:        a.AgeString(),
		ClientName: a.ClientName,
		Columns:    a.Columns,
	}
}
