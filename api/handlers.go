/*
handlers.go - HTTP API handlers for the reconciliation engine

PURPOSE:
  Exposes the engine via REST API. Handles HTTP request/response, JSON
  serialization, and delegates to the engine.

ENDPOINTS:
  Uploads:
    POST /api/teams/{team}/extract    Replace the six workbook tables
    POST /api/teams/{team}/cso        Apply a GNPro CSO extract
    POST /api/teams/{team}/tracking   Apply a tracking-results extract

  Reconciliation:
    POST /api/teams/{team}/process    Full reconciliation run

  Tables:
    GET  /api/teams/{team}/tables/{name}  Snapshot read for rendering

  Config:
    GET/PUT /api/teams/{team}/config/tl
    GET/PUT /api/teams/{team}/config/market
    GET/PUT /api/teams/{team}/config/sbd

  Exports:
    GET  /api/teams/{team}/copy/so        Offsite chase list
    GET  /api/teams/{team}/copy/tracking  Manual tracking list

ERROR HANDLING:
  Errors are returned as JSON with appropriate HTTP status:
  - 400: Bad file name, invalid body, overlapping SBD periods
  - 404: Unknown table
  - 409: Run already in progress
  - 500: Internal errors

SEE ALSO:
  - dto.go: Request/response data structures
  - server.go: Router setup and middleware
*/
package api

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/suchithrkar/kci-upload-creation-tool/engine"
	"github.com/suchithrkar/kci-upload-creation-tool/extract"
)

// =============================================================================
// HANDLER CONTEXT
// =============================================================================

// Handler holds all dependencies for HTTP handlers.
type Handler struct {
	Reconciler *engine.Reconciler
}

// NewHandler creates a new handler around a reconciler.
func NewHandler(reconciler *engine.Reconciler) *Handler {
	return &Handler{Reconciler: reconciler}
}

func team(r *http.Request) string {
	return chi.URLParam(r, "team")
}

// =============================================================================
// UPLOADS
// =============================================================================

// UploadExtract replaces the six workbook tables from pre-parsed
// sheet grids.
func (h *Handler) UploadExtract(w http.ResponseWriter, r *http.Request) {
	var req ExtractUploadRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body", err)
		return
	}
	if err := extract.ValidateWorkbookName(req.Filename); err != nil {
		writeEngineError(w, err)
		return
	}

	data := extract.DecodeWorkbook(req.Sheets)
	if err := h.Reconciler.ReplaceExtract(r.Context(), team(r), data); err != nil {
		writeEngineError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, StatusDTO{Status: "extract replaced"})
}

// UploadCSO applies a GNPro CSO status CSV.
func (h *Handler) UploadCSO(w http.ResponseWriter, r *http.Request) {
	var req CSVUploadRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body", err)
		return
	}
	if err := extract.ValidateCSOName(req.Filename); err != nil {
		writeEngineError(w, err)
		return
	}

	rows, err := extract.ParseCSOCSV(req.Content)
	if err != nil {
		writeError(w, http.StatusBadRequest, "Unreadable CSV content", err)
		return
	}
	if err := h.Reconciler.IngestCSO(r.Context(), team(r), rows); err != nil {
		writeEngineError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, StatusDTO{Status: "cso applied"})
}

// UploadTracking applies a tracking-results CSV.
func (h *Handler) UploadTracking(w http.ResponseWriter, r *http.Request) {
	var req CSVUploadRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body", err)
		return
	}
	if err := extract.ValidateTrackingName(req.Filename); err != nil {
		writeEngineError(w, err)
		return
	}

	statuses, err := extract.ParseTrackingCSV(req.Content)
	if err != nil {
		writeError(w, http.StatusBadRequest, "Unreadable CSV content", err)
		return
	}
	if err := h.Reconciler.IngestTracking(r.Context(), team(r), statuses); err != nil {
		writeEngineError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, StatusDTO{Status: "tracking applied"})
}

// =============================================================================
// RECONCILIATION
// =============================================================================

// Process runs a full reconciliation for the team.
func (h *Handler) Process(w http.ResponseWriter, r *http.Request) {
	summary, err := h.Reconciler.Process(r.Context(), team(r))
	if err != nil {
		writeEngineError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, summary)
}

// =============================================================================
// TABLES
// =============================================================================

// GetTable returns one table snapshot for rendering.
func (h *Handler) GetTable(w http.ResponseWriter, r *http.Request) {
	snap, err := h.Reconciler.Table(r.Context(), team(r), chi.URLParam(r, "name"))
	if err != nil {
		writeEngineError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, toTableDTO(snap))
}

// =============================================================================
// CONFIG
// =============================================================================

// GetTLMap returns the agent -> team-lead mapping.
func (h *Handler) GetTLMap(w http.ResponseWriter, r *http.Request) {
	mappings, err := h.Reconciler.LoadTLMap(r.Context(), team(r))
	if err != nil {
		writeEngineError(w, err)
		return
	}
	if mappings == nil {
		mappings = []engine.TLMapping{}
	}
	writeJSON(w, http.StatusOK, TLMapDTO{Mappings: mappings})
}

// PutTLMap replaces the agent -> team-lead mapping.
func (h *Handler) PutTLMap(w http.ResponseWriter, r *http.Request) {
	var req TLMapDTO
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body", err)
		return
	}
	if err := h.Reconciler.SaveTLMap(r.Context(), team(r), req.Mappings); err != nil {
		writeEngineError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, StatusDTO{Status: "tl map saved"})
}

// GetMarketMap returns the country -> market mapping.
func (h *Handler) GetMarketMap(w http.ResponseWriter, r *http.Request) {
	mappings, err := h.Reconciler.LoadMarketMap(r.Context(), team(r))
	if err != nil {
		writeEngineError(w, err)
		return
	}
	if mappings == nil {
		mappings = []engine.MarketMapping{}
	}
	writeJSON(w, http.StatusOK, MarketMapDTO{Mappings: mappings})
}

// PutMarketMap replaces the country -> market mapping.
func (h *Handler) PutMarketMap(w http.ResponseWriter, r *http.Request) {
	var req MarketMapDTO
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body", err)
		return
	}
	if err := h.Reconciler.SaveMarketMap(r.Context(), team(r), req.Mappings); err != nil {
		writeEngineError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, StatusDTO{Status: "market map saved"})
}

// GetSBDConfig returns the SBD cut-off configuration.
func (h *Handler) GetSBDConfig(w http.ResponseWriter, r *http.Request) {
	cfg, err := h.Reconciler.LoadSBDConfig(r.Context(), team(r))
	if err != nil {
		writeEngineError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, SBDConfigDTO{Periods: cfg.Periods})
}

// PutSBDConfig validates and replaces the SBD cut-off configuration.
func (h *Handler) PutSBDConfig(w http.ResponseWriter, r *http.Request) {
	var req SBDConfigDTO
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body", err)
		return
	}
	cfg := engine.SBDConfig{Periods: req.Periods}
	if err := h.Reconciler.SaveSBDConfig(r.Context(), team(r), cfg); err != nil {
		writeEngineError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, StatusDTO{Status: "sbd config saved"})
}

// =============================================================================
// EXPORTS
// =============================================================================

// CopySOOrders returns the offsite chase list as clipboard text.
func (h *Handler) CopySOOrders(w http.ResponseWriter, r *http.Request) {
	lines, err := h.Reconciler.CopySOOrders(r.Context(), team(r))
	if err != nil {
		writeEngineError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, CopyDTO{Text: engine.JoinLines(lines), Lines: len(lines)})
}

// CopyTrackingURLs returns the manual tracking list as clipboard text.
func (h *Handler) CopyTrackingURLs(w http.ResponseWriter, r *http.Request) {
	lines, err := h.Reconciler.CopyTrackingURLs(r.Context(), team(r))
	if err != nil {
		writeEngineError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, CopyDTO{Text: engine.JoinLines(lines), Lines: len(lines)})
}

// =============================================================================
// RESPONSE HELPERS
// =============================================================================

func writeJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(data)
}

func writeError(w http.ResponseWriter, status int, message string, err error) {
	body := map[string]string{"error": message}
	if err != nil {
		body["detail"] = err.Error()
	}
	writeJSON(w, status, body)
}

// writeEngineError maps engine errors onto HTTP statuses.
func writeEngineError(w http.ResponseWriter, err error) {
	switch {
	case engine.IsConflict(err):
		writeError(w, http.StatusConflict, "Run already in progress", err)
	case engine.IsClientError(err):
		status := http.StatusBadRequest
		if errors.Is(err, engine.ErrTableNotFound) {
			status = http.StatusNotFound
		}
		writeError(w, status, "Invalid request", err)
	default:
		writeError(w, http.StatusInternalServerError, "Internal error", err)
	}
}
