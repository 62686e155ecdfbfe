package handlers

import (
	"encoding/json"
	"net/http"
	"strconv"
	"time"

	"github.com/gorilla/mux"
	"github.com/rs/zerolog"

	"github.com/alumnet/alumnet-api/internal/admin"
	"github.com/alumnet/alumnet-api/internal/codes"
	"github.com/alumnet/alumnet-api/internal/models"
	"github.com/alumnet/alumnet-api/internal/notification"
	"github.com/alumnet/alumnet-api/internal/repository"
)

type AdminHandler struct {
	service       *admin.Service
	codes         *codes.Service
	notifications notification.Service
	logger        zerolog.Logger
}

func NewAdminHandler(service *admin.Service, codeService *codes.Service, notifications notification.Service, logger zerolog.Logger) *AdminHandler {
	return &AdminHandler{service: service, codes: codeService, notifications: notifications, logger: logger}
}

func (h *AdminHandler) ListAccessRequests(w http.ResponseWriter, r *http.Request) {
	query := r.URL.Query()
	var filters repository.AccessRequestFilters

	if statusStr := query.Get("status"); statusStr != "" {
		status := models.AccessRequestStatus(statusStr)
		filters.Status = &status
	}
	if schoolID := query.Get("school_id"); schoolID != "" {
		filters.SchoolID = &schoolID
	}
	if from := query.Get("date_from"); from != "" {
		if parsed, err := time.Parse(time.RFC3339, from); err == nil {
			filters.DateFrom = &parsed
		}
	}
	if to := query.Get("date_to"); to != "" {
		if parsed, err := time.Parse(time.RFC3339, to); err == nil {
			filters.DateTo = &parsed
		}
	}
	filters.Limit, _ = strconv.Atoi(query.Get("limit"))
	filters.Offset, _ = strconv.Atoi(query.Get("offset"))

	requests, err := h.service.ListRequests(r.Context(), filters)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{
		"requests": requests,
		"total":    len(requests),
	})
}

func (h *AdminHandler) ApproveAccessRequest(w http.ResponseWriter, r *http.Request) {
	requestID := mux.Vars(r)["requestID"]

	result, err := h.service.ApproveRequest(r.Context(), requestID)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{
		"user_id":       result.User.ID,
		"temp_password": result.TempPassword,
	})
}

func (h *AdminHandler) RejectAccessRequest(w http.ResponseWriter, r *http.Request) {
	requestID := mux.Vars(r)["requestID"]

	if err := h.service.RejectRequest(r.Context(), requestID); err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "rejected"})
}

func (h *AdminHandler) ListUsers(w http.ResponseWriter, r *http.Request) {
	query := r.URL.Query()
	var filters repository.UserFilters

	if roleStr := query.Get("role"); roleStr != "" {
		role := models.UserRole(roleStr)
		filters.Role = &role
	}
	if schoolID := query.Get("school_id"); schoolID != "" {
		filters.SchoolID = &schoolID
	}
	if activeStr := query.Get("is_active"); activeStr != "" {
		if active, err := strconv.ParseBool(activeStr); err == nil {
			filters.IsActive = &active
		}
	}
	if ambassadorStr := query.Get("is_ambassador"); ambassadorStr != "" {
		if ambassador, err := strconv.ParseBool(ambassadorStr); err == nil {
			filters.IsAmbassador = &ambassador
		}
	}
	filters.Search = query.Get("search")
	filters.Limit, _ = strconv.Atoi(query.Get("limit"))
	filters.Offset, _ = strconv.Atoi(query.Get("offset"))

	users, err := h.service.ListUsers(r.Context(), filters)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{
		"users": users,
		"total": len(users),
	})
}

func (h *AdminHandler) SetAmbassador(w http.ResponseWriter, r *http.Request) {
	userID := mux.Vars(r)["userID"]

	var req struct {
		IsAmbassador bool `json:"is_ambassador"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "invalid request payload", http.StatusBadRequest)
		return
	}

	user, err := h.service.SetAmbassador(r.Context(), userID, req.IsAmbassador)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, user)
}

func (h *AdminHandler) IncreaseCodeLimit(w http.ResponseWriter, r *http.Request) {
	userID := mux.Vars(r)["userID"]

	var req struct {
		NewLimit int `json:"new_limit"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "invalid request payload", http.StatusBadRequest)
		return
	}

	user, err := h.service.IncreaseCodeLimit(r.Context(), userID, req.NewLimit)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, user)
}

func (h *AdminHandler) DeactivateUser(w http.ResponseWriter, r *http.Request) {
	userID := mux.Vars(r)["userID"]

	if err := h.service.DeactivateUser(r.Context(), userID); err != nil {
		writeError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *AdminHandler) CreateUniversalCode(w http.ResponseWriter, r *http.Request) {
	var req struct {
		MaxUses int `json:"max_uses"`
	}
	if r.Body != nil {
		// body optional; defaults apply
		json.NewDecoder(r.Body).Decode(&req)
	}

	code, err := h.codes.CreateUniversal(r.Context(), req.MaxUses)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, code)
}

func (h *AdminHandler) DeactivateCode(w http.ResponseWriter, r *http.Request) {
	codeID := mux.Vars(r)["codeID"]

	if err := h.codes.Deactivate(r.Context(), codeID); err != nil {
		writeError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *AdminHandler) Stats(w http.ResponseWriter, r *http.Request) {
	stats, err := h.service.Stats(r.Context())
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, stats)
}

func (h *AdminHandler) ListNotifications(w http.ResponseWriter, r *http.Request) {
	limit, _ := strconv.Atoi(r.URL.Query().Get("limit"))

	notifications, err := h.notifications.ListRecent(r.Context(), limit)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{
		"notifications": notifications,
		"total":         len(notifications),
	})
}

func (h *AdminHandler) MarkNotificationRead(w http.ResponseWriter, r *http.Request) {
	notificationID := mux.Vars(r)["notificationID"]

	notif, err := h.notifications.MarkRead(r.Context(), notificationID)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, notif)
}
