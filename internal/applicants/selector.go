// Package applicants selects the unsent, recent applicant rows from the
// applicant sheet.
package applicants

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"mail-autoreply/internal/common/logger"
	"mail-autoreply/internal/models"
	"mail-autoreply/internal/normalize"
)

// Column labels in the applicant sheet. SentMarkerColumn is exported because
// the pipeline locates it again for the write-back.
const (
	ColSentMarker = "メール送信済"
	colAppliedAt  = "応募日時"
	colName       = "名前"
	colAge        = "年齢"
	colEmail      = "メールアドレス"
	colClientName = "クライアント名"
	colClientAlt  = "クライアント"
	colTitle      = "タイトル"
)

// dateFormats are the accepted timestamp layouts, tried in order.
var dateFormats = []string{
	"2006/01/02 15:04:05",
	"2006/01/02 15:04",
	"2006-01-02 15:04:05",
	"2006-01-02 15:04",
	"2006/01/02",
	"2006-01-02",
}

// SkipStats counts rows excluded from the candidate set, by reason.
type SkipStats struct {
	AlreadySent int
	OutOfWindow int
	NoEmail     int
}

// Select returns the eligible applicants from the sheet's raw rows (row 1 is
// the header), preserving row order. A row is eligible iff its sent marker
// is empty, its timestamp parses and falls within the window ending at now,
// and it has a destination address. A missing email-address column is the
// one fatal layout error; other missing columns degrade to empty values.
func Select(rows [][]string, now time.Time, searchDays int, log logger.Logger) ([]models.Applicant, SkipStats, error) {
	var stats SkipStats

	if len(rows) < 2 {
		log.Info("applicant sheet: no data rows", nil)
		return nil, stats, nil
	}

	header := rows[0]
	cols := map[string]int{}
	for i, label := range header {
		cols[strings.TrimSpace(label)] = i
	}

	if _, ok := cols[colEmail]; !ok {
		return nil, stats, fmt.Errorf("applicant sheet: column %q not found in header", colEmail)
	}

	get := func(row []string, label string) string {
		i, ok := cols[label]
		if !ok || i >= len(row) {
			return ""
		}
		return strings.TrimSpace(row[i])
	}

	// The window is anchored to today's midnight, not to the run time, so a
	// run at 09:00 and a rerun at 23:00 see the same candidate set.
	todayStart := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, now.Location())
	cutoff := todayStart.AddDate(0, 0, -searchDays)

	var result []models.Applicant
	for i, row := range rows[1:] {
		rowIndex := i + 2 // header row (1) + 0-indexed offset

		if get(row, ColSentMarker) != "" {
			stats.AlreadySent++
			continue
		}

		dateStr := get(row, colAppliedAt)
		if dateStr == "" {
			stats.OutOfWindow++
			continue
		}
		appliedAt, ok := ParseDate(dateStr, now.Location())
		if !ok {
			log.Warn("applicant sheet: unparsable application timestamp", map[string]interface{}{
				"row":   rowIndex,
				"value": dateStr,
			})
			stats.OutOfWindow++
			continue
		}
		if appliedAt.Before(cutoff) {
			stats.OutOfWindow++
			continue
		}

		emailAddress := get(row, colEmail)
		if emailAddress == "" {
			log.Warn("applicant sheet: email address empty, skipping", map[string]interface{}{
				"row":  rowIndex,
				"name": get(row, colName),
			})
			stats.NoEmail++
			continue
		}

		clientName := get(row, colClientName)
		if clientName == "" {
			clientName = get(row, colClientAlt)
		}

		// Columns keeps the cells untrimmed; {ラベル} substitution must see
		// the value exactly as it appears in the sheet.
		columns := make(map[string]string, len(header))
		for j, label := range header {
			var value string
			if j < len(row) {
				value = row[j]
			}
			columns[strings.TrimSpace(label)] = value
		}

		result = append(result, models.Applicant{
			RowIndex:        rowIndex,
			Name:            get(row, colName),
			Age:             ParseAge(get(row, colAge)),
			EmailAddress:    emailAddress,
			ClientName:      normalize.Name(clientName),
			Title:           get(row, colTitle),
			ApplicationDate: dateStr,
			Columns:         columns,
		})
	}

	log.Info("applicant sheet loaded", map[string]interface{}{
		"totalRows":   len(rows) - 1,
		"candidates":  len(result),
		"alreadySent": stats.AlreadySent,
		"outOfWindow": stats.OutOfWindow,
		"noEmail":     stats.NoEmail,
	})

	return result, stats, nil
}

// SentMarkerColumn locates the sent-marker column in the header and returns
// its 1-based index for the cell write-back.
func SentMarkerColumn(header []string) (int, error) {
	for i, label := range header {
		if strings.TrimSpace(label) == ColSentMarker {
			return i + 1, nil
		}
	}
	return 0, fmt.Errorf("column %q not found in header", ColSentMarker)
}

// ParseDate parses a timestamp cell against the accepted layouts, in order,
// interpreting it in loc.
func ParseDate(value string, loc *time.Location) (time.Time, bool) {
	for _, layout := range dateFormats {
		if t, err := time.ParseInLocation(layout, value, loc); err == nil {
			return t, true
		}
	}
	return time.Time{}, false
}

// ParseAge parses an age cell to an integer, truncating decimals. Blank or
// unparsable values yield nil: unknown, not an error.
func ParseAge(value string) *int {
	value = strings.TrimSpace(value)
	if value == "" {
		return nil
	}
	f, err := strconv.ParseFloat(value, 64)
	if err != nil {
		return nil
	}
	age := int(f)
	return &age
}
