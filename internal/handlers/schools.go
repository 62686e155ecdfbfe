package handlers

import (
	"net/http"

	"github.com/gorilla/mux"
	"github.com/rs/zerolog"

	"github.com/alumnet/alumnet-api/internal/repository"
)

type SchoolsHandler struct {
	schools repository.SchoolRepository
	logger  zerolog.Logger
}

func NewSchoolsHandler(schools repository.SchoolRepository, logger zerolog.Logger) *SchoolsHandler {
	return &SchoolsHandler{schools: schools, logger: logger}
}

// ListSchools returns the active schools, for the signup flow's picker.
func (h *SchoolsHandler) ListSchools(w http.ResponseWriter, r *http.Request) {
	schools, err := h.schools.ListSchools(r.Context())
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{
		"schools": schools,
		"total":   len(schools),
	})
}

func (h *SchoolsHandler) GetSchool(w http.ResponseWriter, r *http.Request) {
	schoolID := mux.Vars(r)["schoolID"]

	school, err := h.schools.GetSchoolByID(r.Context(), schoolID)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, school)
}
