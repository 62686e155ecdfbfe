package handlers

import (
	"net/http"

	"github.com/rs/zerolog"

	"github.com/alumnet/alumnet-api/internal/authz"
	"github.com/alumnet/alumnet-api/internal/codes"
)

type CodesHandler struct {
	service *codes.Service
	logger  zerolog.Logger
}

func NewCodesHandler(service *codes.Service, logger zerolog.Logger) *CodesHandler {
	return &CodesHandler{service: service, logger: logger}
}

// GenerateCode issues a new invitation code for the authenticated member,
// scoped to their own school and entry year.
func (h *CodesHandler) GenerateCode(w http.ResponseWriter, r *http.Request) {
	actorID, ok := authz.UserIDFromRequest(r)
	if !ok {
		http.Error(w, "authentication required", http.StatusUnauthorized)
		return
	}

	issued, err := h.service.Issue(r.Context(), actorID)
	if err != nil {
		writeError(w, err)
		return
	}

	writeJSON(w, http.StatusCreated, map[string]interface{}{
		"code":            issued.Code.Code,
		"codes_remaining": issued.CodesRemaining,
	})
}

// MyCodes lists the codes the authenticated member has issued.
func (h *CodesHandler) MyCodes(w http.ResponseWriter, r *http.Request) {
	actorID, ok := authz.UserIDFromRequest(r)
	if !ok {
		http.Error(w, "authentication required", http.StatusUnauthorized)
		return
	}

	list, err := h.service.ListMine(r.Context(), actorID)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{
		"codes": list,
		"total": len(list),
	})
}
