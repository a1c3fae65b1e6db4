package http

import (
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/safeher/platform/internal/feed"
	"github.com/safeher/platform/internal/http/middleware"
	"github.com/safeher/platform/internal/service"
	"github.com/safeher/platform/internal/util"
)

// WomenHandler serves the woman-role surface: emergency contacts, the SOS
// lifecycle and the fake-call counter.
type WomenHandler struct {
	contacts   *service.ContactService
	sos        *service.SOSService
	moderation *service.ModerationService
}

// NewWomenHandler creates the handler.
func NewWomenHandler(contacts *service.ContactService, sos *service.SOSService, moderation *service.ModerationService) *WomenHandler {
	return &WomenHandler{contacts: contacts, sos: sos, moderation: moderation}
}

// ListContacts returns the caller's emergency contacts.
func (h *WomenHandler) ListContacts(w http.ResponseWriter, r *http.Request) {
	womanID, ok := subjectID(w, r)
	if !ok {
		return
	}

	contacts, err := h.contacts.List(r.Context(), womanID)
	if err != nil {
		WriteError(w, http.StatusInternalServerError, "INTERNAL", "internal error")
		return
	}
	WriteJSON(w, http.StatusOK, contactsToView(contacts))
}

type contactRequest struct {
	Name  string `json:"name"`
	Phone string `json:"phone"`
}

// AddContact creates an emergency contact.
func (h *WomenHandler) AddContact(w http.ResponseWriter, r *http.Request) {
	womanID, ok := subjectID(w, r)
	if !ok {
		return
	}

	var req contactRequest
	if err := decodeJSON(r, &req); err != nil {
		WriteError(w, http.StatusBadRequest, "VALIDATION", "invalid body")
		return
	}
	if details := validateContact(req); len(details) > 0 {
		WriteValidation(w, details)
		return
	}

	contact, err := h.contacts.Add(r.Context(), womanID, req.Name, req.Phone)
	if err != nil {
		WriteError(w, http.StatusInternalServerError, "INTERNAL", "internal error")
		return
	}
	WriteJSON(w, http.StatusCreated, contactToView(contact))
}

// UpdateContact edits an emergency contact owned by the caller.
func (h *WomenHandler) UpdateContact(w http.ResponseWriter, r *http.Request) {
	womanID, ok := subjectID(w, r)
	if !ok {
		return
	}
	contactID, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		WriteError(w, http.StatusBadRequest, "VALIDATION", "invalid contact id")
		return
	}

	var req contactRequest
	if err := decodeJSON(r, &req); err != nil {
		WriteError(w, http.StatusBadRequest, "VALIDATION", "invalid body")
		return
	}
	if details := validateContact(req); len(details) > 0 {
		WriteValidation(w, details)
		return
	}

	contact, err := h.contacts.Update(r.Context(), contactID, womanID, req.Name, req.Phone)
	if err != nil {
		if errors.Is(err, service.ErrContactNotFound) {
			WriteError(w, http.StatusNotFound, "NOT_FOUND", err.Error())
			return
		}
		WriteError(w, http.StatusInternalServerError, "INTERNAL", "internal error")
		return
	}
	WriteJSON(w, http.StatusOK, contactToView(contact))
}

// DeleteContact removes an emergency contact owned by the caller.
func (h *WomenHandler) DeleteContact(w http.ResponseWriter, r *http.Request) {
	womanID, ok := subjectID(w, r)
	if !ok {
		return
	}
	contactID, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		WriteError(w, http.StatusBadRequest, "VALIDATION", "invalid contact id")
		return
	}

	if err := h.contacts.Remove(r.Context(), contactID, womanID); err != nil {
		if errors.Is(err, service.ErrContactNotFound) {
			WriteError(w, http.StatusNotFound, "NOT_FOUND", err.Error())
			return
		}
		WriteError(w, http.StatusInternalServerError, "INTERNAL", "internal error")
		return
	}
	WriteJSON(w, http.StatusOK, map[string]string{"status": "deleted"})
}

type triggerSOSRequest struct {
	Latitude  float64 `json:"latitude"`
	Longitude float64 `json:"longitude"`
	Battery   int     `json:"battery"`
}

// TriggerSOS opens a new SOS event for the caller.
func (h *WomenHandler) TriggerSOS(w http.ResponseWriter, r *http.Request) {
	womanID, ok := subjectID(w, r)
	if !ok {
		return
	}

	var req triggerSOSRequest
	if err := decodeJSON(r, &req); err != nil {
		WriteError(w, http.StatusBadRequest, "VALIDATION", "invalid body")
		return
	}
	if err := util.ValidateCoordinates(req.Latitude, req.Longitude); err != nil {
		WriteValidation(w, map[string]string{"coordinates": err.Error()})
		return
	}

	event, err := h.sos.Trigger(r.Context(), womanID, req.Latitude, req.Longitude, req.Battery)
	if err != nil {
		if errors.Is(err, service.ErrNoEmergencyContacts) {
			WriteError(w, http.StatusUnprocessableEntity, "VALIDATION", err.Error())
			return
		}
		WriteError(w, http.StatusInternalServerError, "INTERNAL", "internal error")
		return
	}
	WriteJSON(w, http.StatusCreated, feed.IncidentFromRecord(event))
}

type locationUpdateRequest struct {
	Latitude  float64 `json:"latitude"`
	Longitude float64 `json:"longitude"`
	Battery   int     `json:"battery"`
}

// UpdateLocation appends a live position report to the caller's active SOS.
func (h *WomenHandler) UpdateLocation(w http.ResponseWriter, r *http.Request) {
	womanID, ok := subjectID(w, r)
	if !ok {
		return
	}
	sosID, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		WriteError(w, http.StatusBadRequest, "VALIDATION", "invalid sos id")
		return
	}

	var req locationUpdateRequest
	if err := decodeJSON(r, &req); err != nil {
		WriteError(w, http.StatusBadRequest, "VALIDATION", "invalid body")
		return
	}
	if err := util.ValidateCoordinates(req.Latitude, req.Longitude); err != nil {
		WriteValidation(w, map[string]string{"coordinates": err.Error()})
		return
	}

	update, err := h.sos.UpdateLocation(r.Context(), womanID, sosID, req.Latitude, req.Longitude, req.Battery)
	if err != nil {
		if errors.Is(err, service.ErrSOSNotFound) {
			WriteError(w, http.StatusNotFound, "NOT_FOUND", err.Error())
			return
		}
		WriteError(w, http.StatusInternalServerError, "INTERNAL", "internal error")
		return
	}
	WriteJSON(w, http.StatusCreated, locationToView(update))
}

// CancelSOS closes the caller's own active event.
func (h *WomenHandler) CancelSOS(w http.ResponseWriter, r *http.Request) {
	womanID, ok := subjectID(w, r)
	if !ok {
		return
	}
	sosID, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		WriteError(w, http.StatusBadRequest, "VALIDATION", "invalid sos id")
		return
	}

	if err := h.sos.Cancel(r.Context(), womanID, sosID); err != nil {
		if errors.Is(err, service.ErrSOSNotFound) {
			WriteError(w, http.StatusNotFound, "NOT_FOUND", err.Error())
			return
		}
		WriteError(w, http.StatusInternalServerError, "INTERNAL", "internal error")
		return
	}
	WriteJSON(w, http.StatusOK, map[string]string{"status": "resolved"})
}

// ActiveSOS returns the caller's active event, if any.
func (h *WomenHandler) ActiveSOS(w http.ResponseWriter, r *http.Request) {
	womanID, ok := subjectID(w, r)
	if !ok {
		return
	}

	event, err := h.sos.ActiveForWoman(r.Context(), womanID)
	if err != nil {
		if errors.Is(err, service.ErrSOSNotFound) {
			WriteJSON(w, http.StatusOK, nil)
			return
		}
		WriteError(w, http.StatusInternalServerError, "INTERNAL", "internal error")
		return
	}
	WriteJSON(w, http.StatusOK, feed.IncidentFromRecord(event))
}

// FakeCall records one fake-call use for abuse monitoring.
func (h *WomenHandler) FakeCall(w http.ResponseWriter, r *http.Request) {
	womanID, ok := subjectID(w, r)
	if !ok {
		return
	}

	if err := h.moderation.RecordFakeCall(r.Context(), womanID); err != nil {
		WriteError(w, http.StatusInternalServerError, "INTERNAL", "internal error")
		return
	}
	WriteJSON(w, http.StatusOK, map[string]string{"status": "recorded"})
}

func validateContact(req contactRequest) map[string]string {
	details := map[string]string{}
	if err := util.RequireString(req.Name, "name"); err != nil {
		details["name"] = err.Error()
	}
	if err := util.ValidatePhone(req.Phone); err != nil {
		details["phone"] = err.Error()
	}
	return details
}

// subjectID parses the authenticated subject as a UUID, writing the error
// response itself when the token subject is malformed.
func subjectID(w http.ResponseWriter, r *http.Request) (uuid.UUID, bool) {
	id, err := uuid.Parse(middleware.GetSubject(r.Context()))
	if err != nil {
		WriteError(w, http.StatusUnauthorized, "AUTH", "invalid token")
		return uuid.Nil, false
	}
	return id, true
}
