package web

import (
	"net/http"
	"strings"

	"binventory/internal/ai"
)

// handleAICommand is the command-parse path: natural language in, validated
// actions plus the model's interpretation out. Nothing is executed here;
// clients confirm and submit the actions through the batch endpoint.
func (s *Server) handleAICommand(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Text    string       `json:"text"`
		Context *ai.Snapshot `json:"context"`
	}
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "VALIDATION_ERROR", "invalid request body")
		return
	}

	req.Text = strings.TrimSpace(req.Text)
	if req.Text == "" {
		writeError(w, http.StatusBadRequest, "VALIDATION_ERROR", "text is required")
		return
	}

	parsed, err := s.command.ParseCommand(r.Context(), r.PathValue("id"), req.Text, req.Context)
	if err != nil {
		writeServiceError(w, err)
		return
	}

	actions := parsed.Actions
	if actions == nil {
		actions = []ai.Action{}
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"actions":        actions,
		"interpretation": parsed.Interpretation,
	})
}

func (s *Server) handleAITest(w http.ResponseWriter, r *http.Request) {
	if err := s.command.TestProvider(r.Context(), r.PathValue("id")); err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]bool{"ok": true})
}
