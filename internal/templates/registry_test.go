package templates

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"mail-autoreply/internal/common/logger"
	"mail-autoreply/internal/models"
)

func TestParseRegistry(t *testing.T) {
	rows := [][]string{
		{"クライアント名", "件名", "34歳以下", "35歳以上"},
		{"Acme　Co", "【$title】応募受付", "若年向け本文", "中堅向け本文"},
		{"Beta", "", "本文のみ", ""},
		{"", "件名だけ", "無視される行", ""},
	}

	registry := ParseRegistry(rows, logger.NewTestLogger(t))
	require.Len(t, registry, 2)

	acme, ok := registry.Lookup("Acme Co")
	require.True(t, ok)
	assert.Equal(t, "【$title】応募受付", acme.Subject)
	assert.Equal(t, "若年向け本文", acme.Under35)
	assert.Equal(t, "中堅向け本文", acme.Over35)

	_, ok = registry.Lookup("Acme　Co")
	assert.True(t, ok, "lookup normalizes full-width spacing")

	beta, ok := registry.Lookup("Beta")
	require.True(t, ok)
	assert.Empty(t, beta.Subject)
	assert.Empty(t, beta.Over35)
}

func TestParseRegistry_HeaderBelowNotes(t *testing.T) {
	rows := [][]string{
		{"※ このシートは編集しないでください"},
		{},
		{"クライアント名", "件名", "34歳以下", "35歳以上"},
		{"Acme", "", "本文", ""},
	}

	registry := ParseRegistry(rows, logger.NewNoOpLogger())
	_, ok := registry.Lookup("Acme")
	assert.True(t, ok)
}

func TestParseRegistry_HeaderNotFound(t *testing.T) {
	rows := [][]string{
		{"メモ"}, {"メモ"}, {"メモ"}, {"メモ"}, {"メモ"},
		{"クライアント名", "件名", "34歳以下", "35歳以上"},
		{"Acme", "", "本文", ""},
	}

	registry := ParseRegistry(rows, logger.NewNoOpLogger())
	assert.Empty(t, registry, "header outside the scan window is not found")
}

func TestParseRegistry_LastRowWins(t *testing.T) {
	rows := [][]string{
		{"クライアント名", "件名", "34歳以下", "35歳以上"},
		{"Acme", "", "旧本文", ""},
		{"Acme", "", "新本文", ""},
	}

	registry := ParseRegistry(rows, logger.NewNoOpLogger())
	acme, ok := registry.Lookup("Acme")
	require.True(t, ok)
	assert.Equal(t, "新本文", acme.Under35)
}

func TestSelectBody(t *testing.T) {
	set := models.ClientTemplateSet{Under35: "若年向け", Over35: "中堅向け"}

	tests := []struct {
		name            string
		age             *int
		expectedBody    string
		expectedBracket Bracket
	}{
		{"age 28", intPtr(28), "若年向け", BracketUnder35},
		{"age 34 boundary", intPtr(34), "若年向け", BracketUnder35},
		{"age 35 boundary", intPtr(35), "中堅向け", BracketOver35},
		{"age 60", intPtr(60), "中堅向け", BracketOver35},
		{"unknown age", nil, "若年向け", BracketUnder35},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			body, bracket, ok := SelectBody(tt.age, set)
			require.True(t, ok)
			assert.Equal(t, tt.expectedBody, body)
			assert.Equal(t, tt.expectedBracket, bracket)
		})
	}
}

func TestSelectBody_EmptyBracketIsNotSubstituted(t *testing.T) {
	set := models.ClientTemplateSet{Under35: "若年向け", Over35: ""}

	body, bracket, ok := SelectBody(intPtr(40), set)
	assert.False(t, ok, "an empty bracket never falls back to the other one")
	assert.Empty(t, body)
	assert.Equal(t, BracketOver35, bracket)
}

func intPtr(v int) *int { return &v }
