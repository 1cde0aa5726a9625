// Package accounts loads the sending identities from the ユーザ sheet of the
// configuration spreadsheet.
package accounts

import (
	"regexp"
	"strings"

	"mail-autoreply/internal/common/logger"
	"mail-autoreply/internal/mailer"
	"mail-autoreply/internal/models"
	"mail-autoreply/internal/normalize"
)

// Column labels in the account registry sheet.
const (
	colSendEnabled      = "メール送信"
	colEmail            = "メール"
	colPassword         = "パス"
	colFallbackPassword = "パス2"
	colDisplayName      = "差出人名"
	colClientName       = "クライアント名"
	colTemplateSheet    = "メール文面"
	colIMAPHint         = "IMAP"
)

var spreadsheetIDPattern = regexp.MustCompile(`/spreadsheets/d/([a-zA-Z0-9_-]+)`)

// Parse builds the send-enabled accounts from the registry sheet's raw rows
// (row 1 is the header). Rows with missing credentials or an unresolvable
// template spreadsheet reference are skipped with a warning; they are data
// errors, not run failures.
func Parse(rows [][]string, defaultEndpoint mailer.Endpoint, log logger.Logger) []models.Account {
	if len(rows) < 2 {
		log.Warn("account registry: no data rows", nil)
		return nil
	}

	header := rows[0]
	cols := map[string]int{}
	for i, label := range header {
		cols[strings.TrimSpace(label)] = i
	}

	get := func(row []string, label string) string {
		i, ok := cols[label]
		if !ok || i >= len(row) {
			return ""
		}
		return strings.TrimSpace(row[i])
	}

	var accounts []models.Account
	for _, row := range rows[1:] {
		if !strings.EqualFold(get(row, colSendEnabled), "TRUE") {
			continue
		}

		email := get(row, colEmail)
		password := get(row, colPassword)
		clientName := normalize.Name(get(row, colClientName))

		if email == "" || password == "" {
			log.Warn("account registry: email or password missing, skipping", map[string]interface{}{
				"clientName": clientName,
			})
			continue
		}

		templateSpreadsheetID := ExtractSpreadsheetID(get(row, colTemplateSheet))
		if templateSpreadsheetID == "" {
			log.Warn("account registry: template spreadsheet reference missing, skipping", map[string]interface{}{
				"clientName": clientName,
			})
			continue
		}

		endpoint := mailer.ResolveSMTP(get(row, colIMAPHint), email, defaultEndpoint)

		accounts = append(accounts, models.Account{
			Email:                 email,
			Password:              password,
			FallbackPassword:      get(row, colFallbackPassword),
			DisplayName:           get(row, colDisplayName),
			ClientName:            clientName,
			TemplateSpreadsheetID: templateSpreadsheetID,
			SMTPHost:              endpoint.Host,
			SMTPPort:              endpoint.Port,
		})
	}

	log.Info("account registry loaded", map[string]interface{}{"accounts": len(accounts)})
	for i, acc := range accounts {
		log.Info("account", map[string]interface{}{
			"index":      i + 1,
			"clientName": acc.ClientName,
			"email":      acc.Email,
			"smtp":       acc.SMTPHost,
			"port":       acc.SMTPPort,
		})
	}

	return accounts
}

// ExtractSpreadsheetID accepts either a bare spreadsheet ID or a full URL and
// returns the ID. URLs are recognized by their /spreadsheets/d/<id> segment.
func ExtractSpreadsheetID(value string) string {
	value = strings.TrimSpace(value)
	if value == "" {
		return ""
	}
	if match := spreadsheetIDPattern.FindStringSubmatch(value); match != nil {
		return match[1]
	}
	return value
}
