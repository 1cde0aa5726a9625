package normalize

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestName(t *testing.T) {
	tests := []struct {
		name     string
		input    string
		expected string
	}{
		{"plain name unchanged", "Acme Co", "Acme Co"},
		{"full-width space becomes regular", "Acme　Co", "Acme Co"},
		{"whitespace runs collapse", "Acme   Co", "Acme Co"},
		{"leading and trailing trimmed", "  Acme Co  ", "Acme Co"},
		{"mixed full-width and padding", " Acme　Co ", "Acme Co"},
		{"tabs and newlines collapse", "Acme\t\nCo", "Acme Co"},
		{"empty stays empty", "", ""},
		{"only whitespace becomes empty", " 　 ", ""},
		{"japanese name", "株式会社　テスト", "株式会社 テスト"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, Name(tt.input))
		})
	}
}

func TestName_CrossSheetMatching(t *testing.T) {
	// The same client written with incidental formatting differences must
	// produce identical keys.
	assert.Equal(t, Name(" Acme　Co "), Name("Acme Co"))
	// Matching stays case-sensitive.
	assert.NotEqual(t, Name("acme co"), Name("Acme Co"))
}
