/*
files.go - Upload file-name validation

PURPOSE:
  Each upload kind has a fixed export naming convention; anything else
  is almost certainly the wrong file dropped in the wrong slot, so it
  is rejected before any content is parsed.
*/
package extract

import (
	"regexp"
	"strings"

	"github.com/suchithrkar/kci-upload-creation-tool/engine"
)

// workbookPrefix is the fixed prefix of the primary case-data export.
const workbookPrefix = "KCI - Open Repair Case Data"

var (
	csoNameRe      = regexp.MustCompile(`^GNPro_Case_CSO_Status_\d{4}-\d{2}-\d{2}`)
	trackingNameRe = regexp.MustCompile(`^Tracking_Results_\d{4}-\d{2}-\d{2}`)
)

// ValidateWorkbookName rejects primary extracts whose file name does
// not carry the export prefix.
func ValidateWorkbookName(filename string) error {
	if !strings.HasPrefix(filename, workbookPrefix) {
		return &engine.UploadError{Filename: filename, Reason: "expected a file named " + workbookPrefix + "*"}
	}
	return nil
}

// ValidateCSOName rejects CSO extracts with an unexpected file name.
func ValidateCSOName(filename string) error {
	if !csoNameRe.MatchString(filename) {
		return &engine.UploadError{Filename: filename, Reason: "expected GNPro_Case_CSO_Status_YYYY-MM-DD*"}
	}
	return nil
}

// ValidateTrackingName rejects tracking extracts with an unexpected
// file name.
func ValidateTrackingName(filename string) error {
	if !trackingNameRe.MatchString(filename) {
		return &engine.UploadError{Filename: filename, Reason: "expected Tracking_Results_YYYY-MM-DD*"}
	}
	return nil
}
