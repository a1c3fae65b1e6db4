package http

import (
	"errors"
	"net/http"
	"strings"

	"github.com/safeher/platform/internal/repo"
	"github.com/safeher/platform/internal/service"
)

// EmergencyHandler serves the emergency-services surface: the event log and
// the broadcast channel.
type EmergencyHandler struct {
	sos  *service.SOSService
	chat *service.ChatService
}

// NewEmergencyHandler creates the handler.
func NewEmergencyHandler(sos *service.SOSService, chat *service.ChatService) *EmergencyHandler {
	return &EmergencyHandler{sos: sos, chat: chat}
}

// SOSEvents returns the event log, optionally filtered by ?status=.
func (h *EmergencyHandler) SOSEvents(w http.ResponseWriter, r *http.Request) {
	status := strings.ToUpper(strings.TrimSpace(r.URL.Query().Get("status")))

	events, err := h.sos.AllEvents(r.Context(), status)
	if err != nil {
		WriteError(w, http.StatusInternalServerError, "INTERNAL", "internal error")
		return
	}
	WriteJSON(w, http.StatusOK, incidentsToView(events))
}

// Broadcast posts to the emergency broadcast channel.
func (h *EmergencyHandler) Broadcast(w http.ResponseWriter, r *http.Request) {
	senderID, ok := subjectID(w, r)
	if !ok {
		return
	}

	var req chatMessageRequest
	if err := decodeJSON(r, &req); err != nil {
		WriteError(w, http.StatusBadRequest, "VALIDATION", "invalid body")
		return
	}

	message, err := h.chat.Send(r.Context(), senderID, req.Text, repo.ChatEmergencyBroadcast)
	if err != nil {
		if errors.Is(err, service.ErrEmptyMessage) {
			WriteValidation(w, map[string]string{"text": err.Error()})
			return
		}
		WriteError(w, http.StatusInternalServerError, "INTERNAL", "internal error")
		return
	}
	WriteJSON(w, http.StatusCreated, chatMessageToView(message))
}

// BroadcastHistory returns the latest broadcast messages.
func (h *EmergencyHandler) BroadcastHistory(w http.ResponseWriter, r *http.Request) {
	messages, err := h.chat.History(r.Context(), repo.ChatEmergencyBroadcast)
	if err != nil {
		WriteError(w, http.StatusInternalServerError, "INTERNAL", "internal error")
		return
	}
	WriteJSON(w, http.StatusOK, chatMessagesToView(messages))
}
