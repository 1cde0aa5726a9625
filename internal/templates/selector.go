package templates

import "mail-autoreply/internal/models"

// Bracket is the age bracket a template body belongs to.
type Bracket string

const (
	BracketUnder35 Bracket = "34歳以下"
	BracketOver35  Bracket = "35歳以上"
)

// bracketBoundary is the first age that falls into the upper bracket.
const bracketBoundary = 35

// BracketFor maps an applicant age to its template bracket. An unknown age
// gets the under-35 template; most applicants without a stated age are young.
func BracketFor(age *int) Bracket {
	if age != nil && *age >= bracketBoundary {
		return BracketOver35
	}
	return BracketUnder35
}

// SelectBody picks the template body for the applicant's bracket. When the
// chosen bracket's cell is empty the applicant has no template; the other
// bracket is never used as a substitute.
func SelectBody(age *int, set models.ClientTemplateSet) (string, Bracket, bool) {
	bracket := BracketFor(age)
	var body string
	switch bracket {
	case BracketOver35:
		body = set.Over35
	default:
		body = set.Under35
	}
	if body == "" {
		return "", bracket, false
	}
	return body, bracket, true
}
