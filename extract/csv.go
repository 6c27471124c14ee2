/*
csv.go - External CSV extract parsing

PURPOSE:
  Parses the two externally produced CSV extracts: the GNPro CSO
  status export and the carrier tracking results export. Both are
  keyed by case id in the first column with a header row to skip.
  The exports are not strictly RFC 4180, so parsing is lenient:
  ragged rows and loose quoting are accepted.
*/
package extract

import (
	"encoding/csv"
	"fmt"
	"strings"

	"github.com/suchithrkar/kci-upload-creation-tool/engine"
)

// parseCSV reads the whole document leniently.
func parseCSV(text string) ([][]string, error) {
	r := csv.NewReader(strings.NewReader(text))
	r.FieldsPerRecord = -1
	r.LazyQuotes = true

	rows, err := r.ReadAll()
	if err != nil {
		return nil, fmt.Errorf("parse csv: %w", err)
	}
	return rows, nil
}

func cell(row []string, i int) string {
	if i >= len(row) {
		return ""
	}
	return CleanCell(row[i])
}

// ParseCSOCSV parses a GNPro CSO status export into per-case rows.
// Columns: case id, CSO, status, tracking number, repair status.
// Statuses are sentence-cased at ingest so later comparisons and
// display agree on one form.
func ParseCSOCSV(text string) (map[string]engine.CSOExtractRow, error) {
	rows, err := parseCSV(text)
	if err != nil {
		return nil, err
	}

	out := make(map[string]engine.CSOExtractRow)
	for i, row := range rows {
		if i == 0 {
			continue
		}
		caseID := cell(row, 0)
		if caseID == "" {
			continue
		}
		out[caseID] = engine.CSOExtractRow{
			Status:         SentenceCase(cell(row, 2)),
			TrackingNumber: cell(row, 3),
			RepairStatus:   cell(row, 4),
		}
	}
	return out, nil
}

// ParseTrackingCSV parses a tracking results export into case id ->
// current status. Columns: case id, current status.
func ParseTrackingCSV(text string) (map[string]string, error) {
	rows, err := parseCSV(text)
	if err != nil {
		return nil, err
	}

	out := make(map[string]string)
	for i, row := range rows {
		if i == 0 {
			continue
		}
		caseID := cell(row, 0)
		if caseID == "" {
			continue
		}
		out[caseID] = cell(row, 1)
	}
	return out, nil
}
