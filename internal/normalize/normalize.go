// Package normalize canonicalizes free-text client names so that records can
// be joined across independently maintained sheets.
package normalize

import (
	"regexp"
	"strings"
)

var whitespaceRun = regexp.MustCompile(`\s+`)

// Name replaces full-width spaces with regular spaces, collapses whitespace
// runs to a single space and trims the result. Applied identically to client
// names from the account registry, the applicant sheet and the template
// sheet.
func Name(name string) string {
	name = strings.ReplaceAll(name, "　", " ")
	name = whitespaceRun.ReplaceAllString(name, " ")
	return strings.TrimSpace(name)
}
