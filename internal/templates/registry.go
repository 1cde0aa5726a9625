// Package templates loads per-client reply templates from a template
// spreadsheet, picks the age-bracket body, and renders placeholders.
package templates

import (
	"strings"

	"mail-autoreply/internal/common/logger"
	"mail-autoreply/internal/models"
	"mail-autoreply/internal/normalize"
)

// Column labels in the template sheet.
const (
	colClientName = "クライアント名"
	colSubject    = "件名"
	colUnder35    = "34歳以下"
	colOver35     = "35歳以上"
)

// headerScanWindow is how many leading rows are searched for the header.
// Template sheets sometimes carry notes above it.
const headerScanWindow = 5

// Registry maps normalized client names to their template sets.
type Registry map[string]models.ClientTemplateSet

// ParseRegistry builds the template registry from the sheet's raw rows. The
// header row is auto-detected within the first few rows by its クライアント名
// label. Rows with an empty client name are ignored; when the same client
// appears twice the later row wins.
func ParseRegistry(rows [][]string, log logger.Logger) Registry {
	headerIdx := -1
	var cols map[string]int
	for i := 0; i < len(rows) && i < headerScanWindow; i++ {
		candidate := map[string]int{}
		for j, label := range rows[i] {
			candidate[strings.TrimSpace(label)] = j
		}
		if _, ok := candidate[colClientName]; ok {
			headerIdx = i
			cols = candidate
			break
		}
	}
	if headerIdx < 0 {
		log.Warn("template sheet: header row not found", map[string]interface{}{
			"scannedRows": min(len(rows), headerScanWindow),
		})
		return Registry{}
	}

	get := func(row []string, label string) string {
		i, ok := cols[label]
		if !ok || i >= len(row) {
			return ""
		}
		return row[i]
	}

	registry := Registry{}
	for _, row := range rows[headerIdx+1:] {
		clientName := normalize.Name(get(row, colClientName))
		if clientName == "" {
			continue
		}
		registry[clientName] = models.ClientTemplateSet{
			Subject: strings.TrimSpace(get(row, colSubject)),
			Under35: get(row, colUnder35),
			Over35:  get(row, colOver35),
		}
	}

	log.Info("template registry loaded", map[string]interface{}{"clients": len(registry)})
	return registry
}

// Lookup finds the template set for a client name, normalizing before the
// match so spacing differences between sheets do not break it.
func (r Registry) Lookup(clientName string) (models.ClientTemplateSet, bool) {
	set, ok := r[normalize.Name(clientName)]
	return set, ok
}
