package handlers

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/pkg/errors"

	"github.com/alumnet/alumnet-api/internal/faults"
	"github.com/alumnet/alumnet-api/internal/models"
)

func TestWriteErrorStatusMapping(t *testing.T) {
	tests := []struct {
		name       string
		err        error
		wantStatus int
		wantKind   string
	}{
		{"validation", &models.ValidationError{Field: "email", Reason: "bad"}, http.StatusBadRequest, "validation"},
		{"not found", faults.ErrNotFound, http.StatusNotFound, "not_found"},
		{"issuance quota", faults.ErrQuotaExceeded, http.StatusForbidden, "quota_exceeded"},
		{"email taken", faults.ErrEmailTaken, http.StatusConflict, "email_taken"},
		{"already processed", faults.ErrAlreadyProcessed, http.StatusConflict, "already_processed"},
		{"expired", faults.ErrExpired, http.StatusUnprocessableEntity, "expired"},
		{"exhausted", faults.ErrQuotaExhausted, http.StatusUnprocessableEntity, "quota_exhausted"},
		{"scope mismatch", faults.ErrScopeMismatch, http.StatusUnprocessableEntity, "scope_mismatch"},
		{"store fault", errors.New("pq: connection refused"), http.StatusInternalServerError, ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			recorder := httptest.NewRecorder()
			writeError(recorder, tt.err)

			if recorder.Code != tt.wantStatus {
				t.Errorf("status = %d, want %d", recorder.Code, tt.wantStatus)
			}
			var body errorResponse
			if err := json.NewDecoder(recorder.Body).Decode(&body); err != nil {
				t.Fatalf("decode body: %v", err)
			}
			if body.Kind != tt.wantKind {
				t.Errorf("kind = %q, want %q", body.Kind, tt.wantKind)
			}
			if body.Error == "" {
				t.Error("error message should not be empty")
			}
		})
	}
}

func TestWriteErrorWrappedErrorsKeepTheirKind(t *testing.T) {
	recorder := httptest.NewRecorder()
	writeError(recorder, errors.Wrap(faults.ErrQuotaExceeded, "you have reached your limit of 3 codes"))

	if recorder.Code != http.StatusForbidden {
		t.Errorf("status = %d, want %d", recorder.Code, http.StatusForbidden)
	}
}

func TestWriteErrorHidesInternalDetails(t *testing.T) {
	recorder := httptest.NewRecorder()
	writeError(recorder, errors.New("pq: duplicate key value violates unique constraint"))

	var body errorResponse
	if err := json.NewDecoder(recorder.Body).Decode(&body); err != nil {
		t.Fatalf("decode body: %v", err)
	}
	if body.Error != "internal error" {
		t.Errorf("store faults must be opaque, got %q", body.Error)
	}
}
