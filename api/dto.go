/*
dto.go - Data Transfer Objects for API requests and responses

PURPOSE:
  Defines the JSON structures for API communication. These types
  decouple the engine's records from the external API contract.

NAMING CONVENTION:
  - *Request: Request body types from clients
  - *DTO / *Response: Types returned to clients

VALIDATION:
  Validation is done in handlers (and engine/extract), not in DTOs.
  DTOs are pure data carriers.

SEE ALSO:
  - handlers.go: Uses these types
  - extract/: File-name and content validation
*/
package api

import (
	"encoding/json"
	"time"

	"github.com/suchithrkar/kci-upload-creation-tool/engine"
)

// =============================================================================
// UPLOAD REQUESTS
// =============================================================================

// ExtractUploadRequest carries a pre-parsed primary workbook: per-sheet
// cell grids keyed by sheet name.
type ExtractUploadRequest struct {
	Filename string                `json:"filename"`
	Sheets   map[string][][]string `json:"sheets"`
}

// CSVUploadRequest carries an external CSV extract as raw text.
type CSVUploadRequest struct {
	Filename string `json:"filename"`
	Content  string `json:"content"`
}

// =============================================================================
// CONFIG PAYLOADS
// =============================================================================

// TLMapDTO is the agent -> team-lead mapping editor payload.
type TLMapDTO struct {
	Mappings []engine.TLMapping `json:"mappings"`
}

// MarketMapDTO is the country -> market mapping editor payload.
type MarketMapDTO struct {
	Mappings []engine.MarketMapping `json:"mappings"`
}

// SBDConfigDTO is the SBD cut-off editor payload.
type SBDConfigDTO struct {
	Periods []engine.SBDPeriod `json:"periods"`
}

// =============================================================================
// RESPONSES
// =============================================================================

// TableDTO is one table snapshot for rendering.
type TableDTO struct {
	Name      string          `json:"name"`
	Rows      json.RawMessage `json:"rows"`
	UpdatedAt string          `json:"updatedAt"`
}

// CopyDTO is a clipboard export: the joined text plus its line count.
type CopyDTO struct {
	Text  string `json:"text"`
	Lines int    `json:"lines"`
}

// StatusDTO is the generic "it worked" response.
type StatusDTO struct {
	Status string `json:"status"`
}

func toTableDTO(snap engine.Snapshot) TableDTO {
	return TableDTO{
		Name:      snap.Name,
		Rows:      snap.Data,
		UpdatedAt: snap.UpdatedAt.UTC().Format(time.RFC3339),
	}
}
