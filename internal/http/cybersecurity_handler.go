package http

import (
	"errors"
	"net/http"

	"github.com/google/uuid"

	"github.com/safeher/platform/internal/service"
	"github.com/safeher/platform/internal/util"
)

// CybersecurityHandler serves usage monitoring and flag-user reports.
type CybersecurityHandler struct {
	moderation *service.ModerationService
}

// NewCybersecurityHandler creates the handler.
func NewCybersecurityHandler(moderation *service.ModerationService) *CybersecurityHandler {
	return &CybersecurityHandler{moderation: moderation}
}

// Monitoring returns SOS and fake-call usage counters per woman account.
func (h *CybersecurityHandler) Monitoring(w http.ResponseWriter, r *http.Request) {
	records, err := h.moderation.AbuseRecords(r.Context())
	if err != nil {
		WriteError(w, http.StatusInternalServerError, "INTERNAL", "internal error")
		return
	}
	WriteJSON(w, http.StatusOK, abuseRecordsToView(records))
}

type flagUserRequest struct {
	UserID string `json:"user_id"`
	Reason string `json:"reason"`
}

// FlagUser files a misuse report for admin review.
func (h *CybersecurityHandler) FlagUser(w http.ResponseWriter, r *http.Request) {
	reporterID, ok := subjectID(w, r)
	if !ok {
		return
	}

	var req flagUserRequest
	if err := decodeJSON(r, &req); err != nil {
		WriteError(w, http.StatusBadRequest, "VALIDATION", "invalid body")
		return
	}
	userID, err := uuid.Parse(req.UserID)
	if err != nil {
		WriteValidation(w, map[string]string{"user_id": "invalid user id"})
		return
	}
	if err := util.RequireString(req.Reason, "reason"); err != nil {
		WriteValidation(w, map[string]string{"reason": err.Error()})
		return
	}

	report, err := h.moderation.FlagUser(r.Context(), userID, reporterID, req.Reason)
	if err != nil {
		switch {
		case errors.Is(err, service.ErrUserNotFound):
			WriteError(w, http.StatusNotFound, "NOT_FOUND", err.Error())
		case errors.Is(err, service.ErrAlreadyFlagged):
			WriteError(w, http.StatusConflict, "CONFLICT", err.Error())
		default:
			WriteError(w, http.StatusInternalServerError, "INTERNAL", "internal error")
		}
		return
	}
	WriteJSON(w, http.StatusCreated, flaggedUserToView(report))
}

// FlaggedUsers returns every report.
func (h *CybersecurityHandler) FlaggedUsers(w http.ResponseWriter, r *http.Request) {
	reports, err := h.moderation.FlaggedUsers(r.Context())
	if err != nil {
		WriteError(w, http.StatusInternalServerError, "INTERNAL", "internal error")
		return
	}
	WriteJSON(w, http.StatusOK, flaggedUsersToView(reports))
}
