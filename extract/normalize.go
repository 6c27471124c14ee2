/*
Package extract normalizes raw upload content into engine records.

PURPOSE:
  The upstream exports are messy: cells carry non-breaking spaces and
  control characters, dates arrive as spreadsheet serial numbers, and
  sheets prepend metadata columns. This package owns all of that
  cleanup so the engine only ever sees typed, cleaned records. The
  positional column schemas live here and nowhere else.

KEY CONCEPTS:
  - CleanCell / SentenceCase: cell-level text cleanup
  - NormalizeCell: serial-date detection and conversion
  - DecodeWorkbook: per-sheet grid -> typed record decoding (schema.go)
  - ParseCSOCSV / ParseTrackingCSV: external CSV extracts (csv.go)
  - file-name validation for the three upload kinds (files.go)
*/
package extract

import (
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"github.com/suchithrkar/kci-upload-creation-tool/engine"
)

// CleanCell normalizes one raw cell: non-breaking spaces become plain
// spaces, control characters are stripped, surrounding space trimmed.
func CleanCell(value string) string {
	var b strings.Builder
	b.Grow(len(value))
	for _, r := range value {
		switch {
		case r == '\u00a0':
			b.WriteRune(' ')
		case r < 0x20 || r == 0x7F:
			// dropped
		default:
			b.WriteRune(r)
		}
	}
	return strings.TrimSpace(b.String())
}

// SentenceCase lowercases a value and capitalizes its first letter,
// matching how CSO statuses are displayed and compared downstream.
func SentenceCase(value string) string {
	s := strings.ToLower(strings.TrimSpace(value))
	if s == "" {
		return ""
	}
	return strings.ToUpper(s[:1]) + s[1:]
}

// Spreadsheet date serials: day count since the 1900 epoch, fraction
// of day as time. Only values in this window are treated as dates
// (roughly 2009..2064); anything else is kept as text.
var (
	serialMin = decimal.NewFromInt(40000)
	serialMax = decimal.NewFromInt(60000)

	// unixEpochSerial is the serial value of 1970-01-01.
	unixEpochSerial = int64(25569)

	// serialGuard absorbs float representation drift just below a whole
	// second before truncation.
	serialGuard = decimal.RequireFromString("0.0000001")

	secondsPerDay = decimal.NewFromInt(86400)
)

// NormalizeCell cleans one cell, converting spreadsheet date serials
// to the canonical timestamp format. Non-serial values pass through
// CleanCell unchanged.
func NormalizeCell(value string) string {
	cleaned := CleanCell(value)
	if d, err := decimal.NewFromString(cleaned); err == nil {
		if d.GreaterThan(serialMin) && d.LessThan(serialMax) {
			return serialToTimestamp(d)
		}
	}
	return cleaned
}

// serialToTimestamp converts a spreadsheet serial to the canonical
// "2006-01-02 15:04" timestamp. Day and fraction are split with exact
// decimal arithmetic so 17:00 never drifts to 16:59.
func serialToTimestamp(serial decimal.Decimal) string {
	days := serial.Floor().IntPart()
	midnight := time.Unix((days-unixEpochSerial)*86400, 0).UTC()

	fraction := serial.Sub(serial.Floor()).Add(serialGuard)
	seconds := fraction.Mul(secondsPerDay).Floor().IntPart()

	return midnight.Add(time.Duration(seconds) * time.Second).Format(engine.TimeLayout)
}
