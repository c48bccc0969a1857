package web

import (
	"net/http"
	"strconv"
	"strings"
	"time"

	"binventory/internal/domain"
)

type locationResponse struct {
	ID                    string    `json:"id"`
	Name                  string    `json:"name"`
	ActivityRetentionDays int       `json:"activity_retention_days"`
	AIProvider            string    `json:"ai_provider,omitempty"`
	AIModel               string    `json:"ai_model,omitempty"`
	AIEndpointURL         string    `json:"ai_endpoint_url,omitempty"`
	AIConfigured          bool      `json:"ai_configured"`
	CreatedAt             time.Time `json:"created_at"`
}

// toLocationResponse never exposes the stored API key.
func toLocationResponse(loc *domain.Location) locationResponse {
	return locationResponse{
		ID:                    loc.ID,
		Name:                  loc.Name,
		ActivityRetentionDays: loc.ActivityRetentionDays,
		AIProvider:            loc.AIProvider,
		AIModel:               loc.AIModel,
		AIEndpointURL:         loc.AIEndpointURL,
		AIConfigured:          loc.AIProvider != "" && loc.AIAPIKey != "",
		CreatedAt:             loc.CreatedAt,
	}
}

func (s *Server) handleCreateLocation(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Name string `json:"name"`
	}
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "VALIDATION_ERROR", "invalid request body")
		return
	}

	req.Name = strings.TrimSpace(req.Name)
	if req.Name == "" {
		writeError(w, http.StatusBadRequest, "VALIDATION_ERROR", "name is required")
		return
	}

	loc, err := s.locations.Create(r.Context(), req.Name)
	if err != nil {
		writeServiceError(w, err)
		return
	}

	writeJSON(w, http.StatusCreated, toLocationResponse(loc))
}

func (s *Server) handleListLocations(w http.ResponseWriter, r *http.Request) {
	locations, err := s.locations.List(r.Context())
	if err != nil {
		writeServiceError(w, err)
		return
	}

	out := make([]locationResponse, 0, len(locations))
	for _, loc := range locations {
		out = append(out, toLocationResponse(loc))
	}
	writeJSON(w, http.StatusOK, out)
}

func (s *Server) handleGetLocation(w http.ResponseWriter, r *http.Request) {
	loc, err := s.locations.GetByID(r.Context(), r.PathValue("id"))
	if err != nil {
		writeServiceError(w, err)
		return
	}
	if loc == nil {
		writeError(w, http.StatusNotFound, "NOT_FOUND", "location not found")
		return
	}

	writeJSON(w, http.StatusOK, toLocationResponse(loc))
}

func (s *Server) handleUpdateSettings(w http.ResponseWriter, r *http.Request) {
	locationID := r.PathValue("id")

	var req struct {
		ActivityRetentionDays int    `json:"activity_retention_days"`
		AIProvider            string `json:"ai_provider"`
		AIAPIKey              string `json:"ai_api_key"`
		AIModel               string `json:"ai_model"`
		AIEndpointURL         string `json:"ai_endpoint_url"`
	}
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "VALIDATION_ERROR", "invalid request body")
		return
	}
	if req.ActivityRetentionDays < 0 {
		writeError(w, http.StatusBadRequest, "VALIDATION_ERROR", "activity_retention_days must not be negative")
		return
	}

	if err := s.locations.UpdateSettings(r.Context(), locationID,
		req.ActivityRetentionDays, req.AIProvider, req.AIAPIKey, req.AIModel, req.AIEndpointURL); err != nil {
		writeServiceError(w, err)
		return
	}

	loc, err := s.locations.GetByID(r.Context(), locationID)
	if err != nil {
		writeServiceError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, toLocationResponse(loc))
}

type activityResponse struct {
	ID         string                        `json:"id"`
	UserID     string                        `json:"user_id"`
	UserName   string                        `json:"user_name,omitempty"`
	Action     string                        `json:"action"`
	EntityType string                        `json:"entity_type"`
	EntityID   string                        `json:"entity_id"`
	EntityName string                        `json:"entity_name,omitempty"`
	Changes    map[string]domain.FieldChange `json:"changes"`
	AuthMethod string                        `json:"auth_method,omitempty"`
	CreatedAt  time.Time                     `json:"created_at"`
}

func (s *Server) handleListActivity(w http.ResponseWriter, r *http.Request) {
	limit := 50
	if raw := r.URL.Query().Get("limit"); raw != "" {
		parsed, err := strconv.Atoi(raw)
		if err != nil || parsed <= 0 {
			writeError(w, http.StatusBadRequest, "VALIDATION_ERROR", "limit must be a positive integer")
			return
		}
		limit = parsed
	}

	entries, err := s.activity.ListByLocation(r.Context(), r.PathValue("id"), limit)
	if err != nil {
		writeServiceError(w, err)
		return
	}

	out := make([]activityResponse, 0, len(entries))
	for _, entry := range entries {
		out = append(out, activityResponse{
			ID:         entry.ID,
			UserID:     entry.UserID,
			UserName:   entry.UserName,
			Action:     entry.Action,
			EntityType: entry.EntityType,
			EntityID:   entry.EntityID,
			EntityName: entry.EntityName,
			Changes:    entry.Changes,
			AuthMethod: entry.AuthMethod,
			CreatedAt:  entry.CreatedAt,
		})
	}
	writeJSON(w, http.StatusOK, out)
}
