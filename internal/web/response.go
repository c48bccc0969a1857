package web

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	"binventory/internal/ai"
	"binventory/internal/ai/provider"
	"binventory/internal/service"
)

type errorBody struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

type errorResponse struct {
	Error errorBody `json:"error"`
}

func writeJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(payload); err != nil {
		slog.Error("failed to encode response", "error", err)
	}
}

func writeError(w http.ResponseWriter, status int, code, message string) {
	writeJSON(w, status, errorResponse{Error: errorBody{Code: code, Message: message}})
}

// writeServiceError maps pipeline errors onto the API's closed error codes.
// Provider and validation errors carry their own taxonomy; everything else
// is an opaque internal error.
func writeServiceError(w http.ResponseWriter, err error) {
	var provErr *provider.Error
	if errors.As(err, &provErr) {
		writeError(w, statusForProviderCode(provErr.Code), string(provErr.Code), provErr.Message)
		return
	}

	var valErr *ai.ValidationError
	if errors.As(err, &valErr) {
		writeError(w, http.StatusBadRequest, "VALIDATION_ERROR", valErr.Error())
		return
	}

	if errors.Is(err, service.ErrLocationNotFound) {
		writeError(w, http.StatusNotFound, "NOT_FOUND", err.Error())
		return
	}
	if errors.Is(err, service.ErrAINotConfigured) {
		writeError(w, http.StatusBadRequest, "VALIDATION_ERROR", err.Error())
		return
	}

	slog.Error("request failed", "error", err)
	writeError(w, http.StatusInternalServerError, "INTERNAL", "internal error")
}

func statusForProviderCode(code provider.Code) int {
	switch code {
	case provider.CodeInvalidKey:
		return http.StatusUnauthorized
	case provider.CodeRateLimited:
		return http.StatusTooManyRequests
	case provider.CodeModelNotFound:
		return http.StatusNotFound
	default:
		// NETWORK_ERROR, PROVIDER_ERROR, INVALID_RESPONSE: the upstream,
		// not the caller, is at fault.
		return http.StatusBadGateway
	}
}

func decodeJSON(r *http.Request, dst any) error {
	dec := json.NewDecoder(r.Body)
	dec.DisallowUnknownFields()
	return dec.Decode(dst)
}
