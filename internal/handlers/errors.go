package handlers

import (
	"encoding/json"
	"net/http"

	"github.com/pkg/errors"

	"github.com/alumnet/alumnet-api/internal/faults"
	"github.com/alumnet/alumnet-api/internal/models"
)

func writeJSON(w http.ResponseWriter, status int, payload interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(payload)
}

type errorResponse struct {
	Error string `json:"error"`
	Kind  string `json:"kind,omitempty"`
}

// writeError maps the tagged outcome set onto HTTP statuses. Business
// rejections keep their messages; anything else is an opaque store fault.
func writeError(w http.ResponseWriter, err error) {
	var validationErr *models.ValidationError
	switch {
	case errors.As(err, &validationErr):
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: validationErr.Error(), Kind: "validation"})
	case errors.Is(err, faults.ErrNotFound):
		writeJSON(w, http.StatusNotFound, errorResponse{Error: err.Error(), Kind: "not_found"})
	case errors.Is(err, faults.ErrQuotaExceeded):
		writeJSON(w, http.StatusForbidden, errorResponse{Error: err.Error(), Kind: "quota_exceeded"})
	case errors.Is(err, faults.ErrEmailTaken):
		writeJSON(w, http.StatusConflict, errorResponse{Error: err.Error(), Kind: "email_taken"})
	case errors.Is(err, faults.ErrAlreadyProcessed):
		writeJSON(w, http.StatusConflict, errorResponse{Error: err.Error(), Kind: "already_processed"})
	case errors.Is(err, faults.ErrExpired):
		writeJSON(w, http.StatusUnprocessableEntity, errorResponse{Error: err.Error(), Kind: "expired"})
	case errors.Is(err, faults.ErrQuotaExhausted):
		writeJSON(w, http.StatusUnprocessableEntity, errorResponse{Error: err.Error(), Kind: "quota_exhausted"})
	case errors.Is(err, faults.ErrScopeMismatch):
		writeJSON(w, http.StatusUnprocessableEntity, errorResponse{Error: err.Error(), Kind: "scope_mismatch"})
	default:
		writeJSON(w, http.StatusInternalServerError, errorResponse{Error: "internal error"})
	}
}
