package web

import (
	"fmt"
	"net/http"
	"strings"

	"binventory/internal/ai"
	"binventory/internal/service"
)

func (s *Server) handleListBins(w http.ResponseWriter, r *http.Request) {
	bins, err := s.bins.ListByLocation(r.Context(), r.PathValue("id"))
	if err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, toBinResponses(bins))
}

func (s *Server) handleListTrash(w http.ResponseWriter, r *http.Request) {
	bins, err := s.bins.ListTrash(r.Context(), r.PathValue("id"))
	if err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, toBinResponses(bins))
}

// handleGetBin serves single-bin lookup; QR labels encode this URL.
func (s *Server) handleGetBin(w http.ResponseWriter, r *http.Request) {
	bin, err := s.bins.GetByID(r.Context(), r.PathValue("id"))
	if err != nil {
		writeServiceError(w, err)
		return
	}
	if bin == nil {
		writeError(w, http.StatusNotFound, "NOT_FOUND", "bin not found")
		return
	}
	writeJSON(w, http.StatusOK, toBinResponse(bin))
}

// Bin mutations go through the batch executor as single-action batches so
// that CRUD and AI edits share one set of semantics and one activity trail.

func (s *Server) handleCreateBin(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Name     string   `json:"name"`
		AreaName string   `json:"area_name"`
		Items    []string `json:"items"`
		Tags     []string `json:"tags"`
		Notes    string   `json:"notes"`
		Icon     string   `json:"icon"`
		Color    string   `json:"color"`
	}
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "VALIDATION_ERROR", "invalid request body")
		return
	}
	if strings.TrimSpace(req.Name) == "" {
		writeError(w, http.StatusBadRequest, "VALIDATION_ERROR", "name is required")
		return
	}

	action := ai.Action{
		Type:     ai.ActionCreateBin,
		Name:     strings.TrimSpace(req.Name),
		AreaName: strings.TrimSpace(req.AreaName),
		Items:    req.Items,
		Tags:     req.Tags,
		Notes:    req.Notes,
		Icon:     req.Icon,
		Color:    req.Color,
	}

	result, err := s.executeOne(r, r.PathValue("id"), action)
	if err != nil {
		writeServiceError(w, err)
		return
	}
	if !result.Success {
		writeError(w, http.StatusBadRequest, "VALIDATION_ERROR", result.Error)
		return
	}

	bin, err := s.bins.GetByID(r.Context(), result.BinID)
	if err != nil || bin == nil {
		writeServiceError(w, fmt.Errorf("failed to load created bin: %w", err))
		return
	}
	writeJSON(w, http.StatusCreated, toBinResponse(bin))
}

func (s *Server) handleTrashBin(w http.ResponseWriter, r *http.Request) {
	s.mutateBin(w, r, ai.ActionDeleteBin)
}

func (s *Server) handleRestoreBin(w http.ResponseWriter, r *http.Request) {
	s.mutateBin(w, r, ai.ActionRestoreBin)
}

func (s *Server) mutateBin(w http.ResponseWriter, r *http.Request, actionType string) {
	binID := r.PathValue("id")

	bin, err := s.bins.GetByID(r.Context(), binID)
	if err != nil {
		writeServiceError(w, err)
		return
	}
	if bin == nil {
		writeError(w, http.StatusNotFound, "NOT_FOUND", "bin not found")
		return
	}

	result, err := s.executeOne(r, bin.LocationID, ai.Action{Type: actionType, BinID: binID})
	if err != nil {
		writeServiceError(w, err)
		return
	}
	if !result.Success {
		writeError(w, http.StatusConflict, "VALIDATION_ERROR", result.Error)
		return
	}

	writeJSON(w, http.StatusOK, result)
}

func (s *Server) executeOne(r *http.Request, locationID string, action ai.Action) (service.ActionResult, error) {
	summary, err := s.batch.Execute(r.Context(), locationID, []ai.Action{action}, actorFrom(r, "api"))
	if err != nil {
		return service.ActionResult{}, err
	}
	return summary.Results[0], nil
}
