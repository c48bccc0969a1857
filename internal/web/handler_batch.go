package web

import (
	"encoding/json"
	"net/http"

	"binventory/internal/ai"
)

// handleBatch is the structured entry point into the executor. Operations
// are validated strictly against the same action grammar as model output:
// one malformed operation rejects the whole request before anything runs.
func (s *Server) handleBatch(w http.ResponseWriter, r *http.Request) {
	locationID := r.PathValue("id")

	var req struct {
		LocationID string            `json:"locationId"`
		Operations []json.RawMessage `json:"operations"`
	}
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "VALIDATION_ERROR", "invalid request body")
		return
	}

	loc, err := s.locations.GetByID(r.Context(), locationID)
	if err != nil {
		writeServiceError(w, err)
		return
	}
	if loc == nil {
		writeError(w, http.StatusNotFound, "NOT_FOUND", "location not found")
		return
	}

	known, err := s.batch.KnownBinIDs(r.Context(), locationID)
	if err != nil {
		writeServiceError(w, err)
		return
	}

	actions, err := ai.ValidateStrict(req.Operations, known)
	if err != nil {
		writeServiceError(w, err)
		return
	}

	summary, err := s.batch.Execute(r.Context(), locationID, actions, actorFrom(r, "api"))
	if err != nil {
		writeServiceError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, summary)
}
