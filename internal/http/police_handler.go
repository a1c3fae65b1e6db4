package http

import (
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/safeher/platform/internal/feed"
	"github.com/safeher/platform/internal/http/middleware"
	"github.com/safeher/platform/internal/repo"
	"github.com/safeher/platform/internal/service"
	"github.com/safeher/platform/internal/util"
)

// PoliceHandler serves the police surface: the live SOS feed snapshot,
// resolution, high-risk zones, the police chat and issue reporting.
type PoliceHandler struct {
	sos    *service.SOSService
	zones  *service.ZoneService
	chat   *service.ChatService
	issues *service.IssueService
}

// NewPoliceHandler creates the handler.
func NewPoliceHandler(sos *service.SOSService, zones *service.ZoneService, chat *service.ChatService, issues *service.IssueService) *PoliceHandler {
	return &PoliceHandler{sos: sos, zones: zones, chat: chat, issues: issues}
}

// SOSFeed returns the active-incidents snapshot. Live deltas arrive over SSE.
func (h *PoliceHandler) SOSFeed(w http.ResponseWriter, r *http.Request) {
	events, err := h.sos.ActiveFeed(r.Context())
	if err != nil {
		WriteError(w, http.StatusInternalServerError, "INTERNAL", "internal error")
		return
	}
	WriteJSON(w, http.StatusOK, incidentsToView(events))
}

// SOSDetails returns one event with its location history.
func (h *PoliceHandler) SOSDetails(w http.ResponseWriter, r *http.Request) {
	sosID, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		WriteError(w, http.StatusBadRequest, "VALIDATION", "invalid sos id")
		return
	}

	event, updates, err := h.sos.Details(r.Context(), sosID)
	if err != nil {
		if errors.Is(err, service.ErrSOSNotFound) {
			WriteError(w, http.StatusNotFound, "NOT_FOUND", err.Error())
			return
		}
		WriteError(w, http.StatusInternalServerError, "INTERNAL", "internal error")
		return
	}

	WriteJSON(w, http.StatusOK, map[string]any{
		"event":     feed.IncidentFromRecord(event),
		"locations": locationsToView(updates),
	})
}

// ResolveSOS closes an active event.
func (h *PoliceHandler) ResolveSOS(w http.ResponseWriter, r *http.Request) {
	sosID, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		WriteError(w, http.StatusBadRequest, "VALIDATION", "invalid sos id")
		return
	}

	if err := h.sos.Resolve(r.Context(), sosID); err != nil {
		if errors.Is(err, service.ErrSOSNotFound) {
			WriteError(w, http.StatusNotFound, "NOT_FOUND", err.Error())
			return
		}
		WriteError(w, http.StatusInternalServerError, "INTERNAL", "internal error")
		return
	}
	WriteJSON(w, http.StatusOK, map[string]string{"status": "resolved"})
}

type markZoneRequest struct {
	Latitude    float64 `json:"latitude"`
	Longitude   float64 `json:"longitude"`
	RiskLevel   string  `json:"risk_level"`
	Reason      string  `json:"reason"`
	Description string  `json:"description"`
}

// MarkZone flags a high-risk zone.
func (h *PoliceHandler) MarkZone(w http.ResponseWriter, r *http.Request) {
	policeID, ok := subjectID(w, r)
	if !ok {
		return
	}

	var req markZoneRequest
	if err := decodeJSON(r, &req); err != nil {
		WriteError(w, http.StatusBadRequest, "VALIDATION", "invalid body")
		return
	}
	details := map[string]string{}
	if err := util.ValidateCoordinates(req.Latitude, req.Longitude); err != nil {
		details["coordinates"] = err.Error()
	}
	if err := util.RequireString(req.Reason, "reason"); err != nil {
		details["reason"] = err.Error()
	}
	if len(details) > 0 {
		WriteValidation(w, details)
		return
	}

	zone, err := h.zones.Mark(r.Context(), policeID, req.Latitude, req.Longitude, req.RiskLevel, req.Reason, req.Description)
	if err != nil {
		if errors.Is(err, service.ErrInvalidRiskLevel) {
			WriteValidation(w, map[string]string{"risk_level": err.Error()})
			return
		}
		WriteError(w, http.StatusInternalServerError, "INTERNAL", "internal error")
		return
	}
	WriteJSON(w, http.StatusCreated, zoneToView(zone))
}

// ListZones returns every flagged zone.
func (h *PoliceHandler) ListZones(w http.ResponseWriter, r *http.Request) {
	zones, err := h.zones.List(r.Context())
	if err != nil {
		WriteError(w, http.StatusInternalServerError, "INTERNAL", "internal error")
		return
	}
	WriteJSON(w, http.StatusOK, zonesToView(zones))
}

// UnmarkZone deactivates a zone marked by the caller.
func (h *PoliceHandler) UnmarkZone(w http.ResponseWriter, r *http.Request) {
	callerID, ok := subjectID(w, r)
	if !ok {
		return
	}
	zoneID, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		WriteError(w, http.StatusBadRequest, "VALIDATION", "invalid zone id")
		return
	}

	err = h.zones.Unmark(r.Context(), zoneID, callerID, middleware.GetRole(r.Context()))
	if err != nil {
		switch {
		case errors.Is(err, service.ErrZoneNotFound):
			WriteError(w, http.StatusNotFound, "NOT_FOUND", err.Error())
		case errors.Is(err, service.ErrZoneForbidden):
			WriteError(w, http.StatusForbidden, "FORBIDDEN", err.Error())
		default:
			WriteError(w, http.StatusInternalServerError, "INTERNAL", "internal error")
		}
		return
	}
	WriteJSON(w, http.StatusOK, map[string]string{"status": "unmarked"})
}

type chatMessageRequest struct {
	Text string `json:"text"`
}

// SendChat posts to the police chat.
func (h *PoliceHandler) SendChat(w http.ResponseWriter, r *http.Request) {
	senderID, ok := subjectID(w, r)
	if !ok {
		return
	}

	var req chatMessageRequest
	if err := decodeJSON(r, &req); err != nil {
		WriteError(w, http.StatusBadRequest, "VALIDATION", "invalid body")
		return
	}

	message, err := h.chat.Send(r.Context(), senderID, req.Text, repo.ChatPolice)
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

// ChatHistory returns the latest police-chat messages.
func (h *PoliceHandler) ChatHistory(w http.ResponseWriter, r *http.Request) {
	messages, err := h.chat.History(r.Context(), repo.ChatPolice)
	if err != nil {
		WriteError(w, http.StatusInternalServerError, "INTERNAL", "internal error")
		return
	}
	WriteJSON(w, http.StatusOK, chatMessagesToView(messages))
}

type reportIssueRequest struct {
	Description string   `json:"description"`
	Location    string   `json:"location"`
	Latitude    *float64 `json:"latitude"`
	Longitude   *float64 `json:"longitude"`
}

// ReportIssue files an infrastructure issue.
func (h *PoliceHandler) ReportIssue(w http.ResponseWriter, r *http.Request) {
	reporterID, ok := subjectID(w, r)
	if !ok {
		return
	}

	var req reportIssueRequest
	if err := decodeJSON(r, &req); err != nil {
		WriteError(w, http.StatusBadRequest, "VALIDATION", "invalid body")
		return
	}
	details := map[string]string{}
	if err := util.RequireString(req.Description, "description"); err != nil {
		details["description"] = err.Error()
	}
	if err := util.RequireString(req.Location, "location"); err != nil {
		details["location"] = err.Error()
	}
	if req.Latitude != nil && req.Longitude != nil {
		if err := util.ValidateCoordinates(*req.Latitude, *req.Longitude); err != nil {
			details["coordinates"] = err.Error()
		}
	}
	if len(details) > 0 {
		WriteValidation(w, details)
		return
	}

	issue, err := h.issues.Report(r.Context(), reporterID, req.Description, req.Location, req.Latitude, req.Longitude)
	if err != nil {
		WriteError(w, http.StatusInternalServerError, "INTERNAL", "internal error")
		return
	}
	WriteJSON(w, http.StatusCreated, issueToView(issue))
}
