package server

import (
	"context"
	"encoding/json"
	"net/http"

	"github.com/rs/zerolog/log"

	"dealcheck/internal/analysis"
	"dealcheck/internal/listing"
	"dealcheck/internal/storage"
)

// Analyzer runs the analysis pipeline for one listing.
type Analyzer interface {
	Analyze(ctx context.Context, l *listing.Listing) (*listing.AnalysisResult, error)
}

// AnalysisHandler handles analysis requests.
type AnalysisHandler struct {
	analyzer Analyzer
	store    storage.Store
}

// NewAnalysisHandler creates the handler. The store may be nil.
func NewAnalysisHandler(analyzer Analyzer, store storage.Store) *AnalysisHandler {
	return &AnalysisHandler{analyzer: analyzer, store: store}
}

type analyzeRequest struct {
	Listing *listing.Listing `json:"listing"`
}

// Analyze handles POST /analyze. A missing listing is a client error and
// never reaches the pipeline; pipeline failure returns success=false with
// a diagnostic message.
func (h *AnalysisHandler) Analyze(w http.ResponseWriter, r *http.Request) {
	var req analyzeRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil || req.Listing == nil {
		writeJSON(w, http.StatusBadRequest, listing.AnalysisResult{
			Success: false,
			Error:   "No listing data provided",
		})
		return
	}

	result, err := h.analyzer.Analyze(r.Context(), req.Listing)
	if err != nil {
		status := http.StatusInternalServerError
		if err == analysis.ErrNoListing {
			status = http.StatusBadRequest
		}
		writeJSON(w, status, listing.AnalysisResult{
			Success: false,
			Error:   err.Error(),
		})
		return
	}

	if h.store != nil {
		if err := h.store.LogAnalysis(storage.RecordFromResult(req.Listing, result)); err != nil {
			log.Warn().Err(err).Str("listingId", req.Listing.ID).Msg("failed to log analysis")
		}
	}

	writeJSON(w, http.StatusOK, result)
}

func writeJSON(w http.ResponseWriter, status int, body any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(body); err != nil {
		log.Error().Err(err).Msg("failed to encode response")
	}
}
