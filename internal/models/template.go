package models

// ClientTemplateSet holds one client's reply templates, keyed by age bracket.
// Field names follow the sheet columns: 34歳以下 and 35歳以上.
type ClientTemplateSet struct {
	Subject string // optional subject template; empty means use the default
	Under35 string // body for applicants aged 34 and under
	Over35  string // body for applicants aged 35 and over
}
