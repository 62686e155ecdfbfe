package handlers

import (
	"encoding/json"
	"net/http"

	"github.com/rs/zerolog"

	"github.com/alumnet/alumnet-api/internal/codes"
	"github.com/alumnet/alumnet-api/internal/models"
	"github.com/alumnet/alumnet-api/internal/registration"
)

type RegistrationHandler struct {
	service *registration.Service
	codes   *codes.Service
	logger  zerolog.Logger
}

func NewRegistrationHandler(service *registration.Service, codeService *codes.Service, logger zerolog.Logger) *RegistrationHandler {
	return &RegistrationHandler{service: service, codes: codeService, logger: logger}
}

func (h *RegistrationHandler) CheckSchoolPromo(w http.ResponseWriter, r *http.Request) {
	var req struct {
		SchoolID  string `json:"school_id"`
		EntryYear string `json:"entry_year"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "invalid request payload", http.StatusBadRequest)
		return
	}

	summary, err := h.service.CheckCohort(r.Context(), req.SchoolID, req.EntryYear)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, summary)
}

func (h *RegistrationHandler) SubmitAccessRequest(w http.ResponseWriter, r *http.Request) {
	var params registration.SubmitAccessRequestParams
	if err := json.NewDecoder(r.Body).Decode(&params); err != nil {
		http.Error(w, "invalid request payload", http.StatusBadRequest)
		return
	}

	request, err := h.service.SubmitAccessRequest(r.Context(), params)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, map[string]string{"request_id": request.ID})
}

func (h *RegistrationHandler) VerifyCode(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Code      string `json:"code"`
		SchoolID  string `json:"school_id"`
		EntryYear string `json:"entry_year"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "invalid request payload", http.StatusBadRequest)
		return
	}
	if err := models.ValidateCodeToken(req.Code); err != nil {
		writeError(w, err)
		return
	}

	outcome, err := h.codes.VerifyToken(r.Context(), req.Code, models.CohortScope(req.SchoolID, req.EntryYear))
	if err != nil {
		writeError(w, err)
		return
	}

	// Rejections are regular outcomes here; the response always carries the
	// reason so the UI can guide the user.
	writeJSON(w, http.StatusOK, outcome)
}

func (h *RegistrationHandler) CompleteRegistration(w http.ResponseWriter, r *http.Request) {
	var params registration.CompleteRegistrationParams
	if err := json.NewDecoder(r.Body).Decode(&params); err != nil {
		http.Error(w, "invalid request payload", http.StatusBadRequest)
		return
	}

	user, err := h.service.CompleteRegistration(r.Context(), params)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, map[string]string{"user_id": user.ID})
}

func (h *RegistrationHandler) RequestCodeFromPeer(w http.ResponseWriter, r *http.Request) {
	var params registration.PeerCodeRequestParams
	if err := json.NewDecoder(r.Body).Decode(&params); err != nil {
		http.Error(w, "invalid request payload", http.StatusBadRequest)
		return
	}

	recipientName, err := h.service.RequestCodeFromPeer(r.Context(), params)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"recipient_name": recipientName})
}
