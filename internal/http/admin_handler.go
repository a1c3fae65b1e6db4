package http

import (
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/safeher/platform/internal/service"
)

// AdminHandler serves account review: approvals, suspensions and the
// user directory.
type AdminHandler struct {
	moderation *service.ModerationService
}

// NewAdminHandler creates the handler.
func NewAdminHandler(moderation *service.ModerationService) *AdminHandler {
	return &AdminHandler{moderation: moderation}
}

// PendingApprovals returns community accounts awaiting review.
func (h *AdminHandler) PendingApprovals(w http.ResponseWriter, r *http.Request) {
	users, err := h.moderation.PendingApprovals(r.Context())
	if err != nil {
		WriteError(w, http.StatusInternalServerError, "INTERNAL", "internal error")
		return
	}
	WriteJSON(w, http.StatusOK, usersToView(users))
}

// Approve activates a pending community account.
func (h *AdminHandler) Approve(w http.ResponseWriter, r *http.Request) {
	userID, ok := userIDParam(w, r)
	if !ok {
		return
	}

	user, err := h.moderation.Approve(r.Context(), userID)
	if err != nil {
		h.writeModerationError(w, err)
		return
	}
	WriteJSON(w, http.StatusOK, userToView(user))
}

// Reject deletes a pending registration.
func (h *AdminHandler) Reject(w http.ResponseWriter, r *http.Request) {
	userID, ok := userIDParam(w, r)
	if !ok {
		return
	}

	if err := h.moderation.Reject(r.Context(), userID); err != nil {
		h.writeModerationError(w, err)
		return
	}
	WriteJSON(w, http.StatusOK, map[string]string{"status": "rejected"})
}

// Suspend blocks an account.
func (h *AdminHandler) Suspend(w http.ResponseWriter, r *http.Request) {
	userID, ok := userIDParam(w, r)
	if !ok {
		return
	}

	user, err := h.moderation.Suspend(r.Context(), userID)
	if err != nil {
		h.writeModerationError(w, err)
		return
	}
	WriteJSON(w, http.StatusOK, userToView(user))
}

// Unsuspend restores a suspended account.
func (h *AdminHandler) Unsuspend(w http.ResponseWriter, r *http.Request) {
	userID, ok := userIDParam(w, r)
	if !ok {
		return
	}

	user, err := h.moderation.Unsuspend(r.Context(), userID)
	if err != nil {
		h.writeModerationError(w, err)
		return
	}
	WriteJSON(w, http.StatusOK, userToView(user))
}

// FlaggedUsers returns every misuse report.
func (h *AdminHandler) FlaggedUsers(w http.ResponseWriter, r *http.Request) {
	reports, err := h.moderation.FlaggedUsers(r.Context())
	if err != nil {
		WriteError(w, http.StatusInternalServerError, "INTERNAL", "internal error")
		return
	}
	WriteJSON(w, http.StatusOK, flaggedUsersToView(reports))
}

// Users returns the whole account directory.
func (h *AdminHandler) Users(w http.ResponseWriter, r *http.Request) {
	users, err := h.moderation.Users(r.Context())
	if err != nil {
		WriteError(w, http.StatusInternalServerError, "INTERNAL", "internal error")
		return
	}
	WriteJSON(w, http.StatusOK, usersToView(users))
}

func (h *AdminHandler) writeModerationError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, service.ErrUserNotFound):
		WriteError(w, http.StatusNotFound, "NOT_FOUND", err.Error())
	case errors.Is(err, service.ErrNotPending),
		errors.Is(err, service.ErrAlreadySuspended),
		errors.Is(err, service.ErrNotSuspended):
		WriteError(w, http.StatusConflict, "CONFLICT", err.Error())
	default:
		WriteError(w, http.StatusInternalServerError, "INTERNAL", "internal error")
	}
}

func userIDParam(w http.ResponseWriter, r *http.Request) (uuid.UUID, bool) {
	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		WriteError(w, http.StatusBadRequest, "VALIDATION", "invalid user id")
		return uuid.Nil, false
	}
	return id, true
}
