package service

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"

	"github.com/safeher/platform/internal/alert"
	"github.com/safeher/platform/internal/feed"
	"github.com/safeher/platform/internal/repo"
	"github.com/safeher/platform/internal/util"
)

var (
	// ErrNoEmergencyContacts blocks an SOS without anyone to alert.
	ErrNoEmergencyContacts = errors.New("add emergency contacts before triggering SOS")
	// ErrSOSNotFound signals an unknown or already closed event.
	ErrSOSNotFound = errors.New("sos event not found")
)

type sosRepository interface {
	CreateSOSEvent(ctx context.Context, womanID uuid.UUID, lat, lng float64, battery int) (repo.SOSEvent, error)
	GetSOSEvent(ctx context.Context, id uuid.UUID) (repo.SOSEvent, error)
	ListActiveSOSEvents(ctx context.Context) ([]repo.SOSEvent, error)
	ListSOSEvents(ctx context.Context) ([]repo.SOSEvent, error)
	GetActiveSOSByWoman(ctx context.Context, womanID uuid.UUID) (repo.SOSEvent, error)
	CloseSOSEvent(ctx context.Context, id uuid.UUID, status string, at time.Time) error
	InsertLocationUpdate(ctx context.Context, sosID uuid.UUID, lat, lng float64, battery int) (repo.LocationUpdate, error)
	ListLocationUpdates(ctx context.Context, sosID uuid.UUID) ([]repo.LocationUpdate, error)
	ListContactsByWoman(ctx context.Context, womanID uuid.UUID) ([]repo.EmergencyContact, error)
	IncrementSOSCount(ctx context.Context, womanID uuid.UUID) error
}

type publisher interface {
	Publish(ctx context.Context, event feed.Event) error
}

// SOSService owns the SOS lifecycle: trigger, live location, resolution, and
// fan-out to the live feed and emergency contacts.
type SOSService struct {
	repo     sosRepository
	hub      publisher
	notifier alert.Notifier
}

// NewSOSService creates the service. notifier may be nil (alerts disabled).
func NewSOSService(r sosRepository, hub publisher, notifier alert.Notifier) *SOSService {
	return &SOSService{repo: r, hub: hub, notifier: notifier}
}

// Trigger creates an active SOS event. It requires at least one emergency
// contact, bumps the abuse counter, pushes NEW_SOS to the live feed and
// alerts every contact.
func (s *SOSService) Trigger(ctx context.Context, womanID uuid.UUID, lat, lng float64, battery int) (repo.SOSEvent, error) {
	contacts, err := s.repo.ListContactsByWoman(ctx, womanID)
	if err != nil {
		return repo.SOSEvent{}, err
	}
	if len(contacts) == 0 {
		return repo.SOSEvent{}, ErrNoEmergencyContacts
	}

	event, err := s.repo.CreateSOSEvent(ctx, womanID, lat, lng, battery)
	if err != nil {
		return repo.SOSEvent{}, err
	}

	if err := s.repo.IncrementSOSCount(ctx, womanID); err != nil {
		log.Warn().Err(err).Msg("sos: abuse counter update failed")
	}

	s.publishIncident(ctx, feed.EventNewSOS, event)
	s.alertContacts(ctx, event, contacts)

	return event, nil
}

// UpdateLocation appends a position report to the caller's event and pushes
// LOCATION_UPDATE to the live feed.
func (s *SOSService) UpdateLocation(ctx context.Context, womanID, sosID uuid.UUID, lat, lng float64, battery int) (repo.LocationUpdate, error) {
	event, err := s.repo.GetSOSEvent(ctx, sosID)
	if err != nil {
		if errors.Is(err, repo.ErrNotFound) {
			return repo.LocationUpdate{}, ErrSOSNotFound
		}
		return repo.LocationUpdate{}, err
	}
	if event.WomanID != womanID || event.Status != repo.SOSActive {
		return repo.LocationUpdate{}, ErrSOSNotFound
	}

	update, err := s.repo.InsertLocationUpdate(ctx, sosID, lat, lng, battery)
	if err != nil {
		if errors.Is(err, repo.ErrNotFound) {
			return repo.LocationUpdate{}, ErrSOSNotFound
		}
		return repo.LocationUpdate{}, err
	}

	patch, err := feed.NewLocationEvent(feed.LocationPatch{
		SOSID:     sosID.String(),
		Latitude:  lat,
		Longitude: lng,
		Battery:   battery,
		Timestamp: update.CreatedAt,
	})
	if err == nil {
		if err := s.hub.Publish(ctx, patch); err != nil {
			log.Warn().Err(err).Msg("sos: publish location update failed")
		}
	}

	return update, nil
}

// Cancel resolves the caller's own active event.
func (s *SOSService) Cancel(ctx context.Context, womanID, sosID uuid.UUID) error {
	event, err := s.repo.GetSOSEvent(ctx, sosID)
	if err != nil || event.WomanID != womanID {
		return ErrSOSNotFound
	}
	return s.close(ctx, event, repo.SOSResolved)
}

// Resolve closes any active event; used by responder roles.
func (s *SOSService) Resolve(ctx context.Context, sosID uuid.UUID) error {
	event, err := s.repo.GetSOSEvent(ctx, sosID)
	if err != nil {
		return ErrSOSNotFound
	}
	return s.close(ctx, event, repo.SOSResolved)
}

func (s *SOSService) close(ctx context.Context, event repo.SOSEvent, status string) error {
	now := util.Now()
	if err := s.repo.CloseSOSEvent(ctx, event.ID, status, now); err != nil {
		if errors.Is(err, repo.ErrNotFound) {
			return ErrSOSNotFound
		}
		return err
	}

	event.Status = status
	event.ResolvedAt = &now
	s.publishIncident(ctx, feed.EventSOSResolved, event)
	return nil
}

// ActiveFeed returns the active events snapshot for responder dashboards.
func (s *SOSService) ActiveFeed(ctx context.Context) ([]repo.SOSEvent, error) {
	return s.repo.ListActiveSOSEvents(ctx)
}

// AllEvents returns every event, optionally filtered by status.
func (s *SOSService) AllEvents(ctx context.Context, status string) ([]repo.SOSEvent, error) {
	events, err := s.repo.ListSOSEvents(ctx)
	if err != nil {
		return nil, err
	}
	if status == "" {
		return events, nil
	}
	filtered := make([]repo.SOSEvent, 0, len(events))
	for _, e := range events {
		if e.Status == status {
			filtered = append(filtered, e)
		}
	}
	return filtered, nil
}

// Details returns one event with its location history.
func (s *SOSService) Details(ctx context.Context, sosID uuid.UUID) (repo.SOSEvent, []repo.LocationUpdate, error) {
	event, err := s.repo.GetSOSEvent(ctx, sosID)
	if err != nil {
		if errors.Is(err, repo.ErrNotFound) {
			return repo.SOSEvent{}, nil, ErrSOSNotFound
		}
		return repo.SOSEvent{}, nil, err
	}

	updates, err := s.repo.ListLocationUpdates(ctx, sosID)
	if err != nil {
		return repo.SOSEvent{}, nil, err
	}
	return event, updates, nil
}

// ActiveForWoman returns the caller's active event, if any.
func (s *SOSService) ActiveForWoman(ctx context.Context, womanID uuid.UUID) (repo.SOSEvent, error) {
	event, err := s.repo.GetActiveSOSByWoman(ctx, womanID)
	if err != nil {
		if errors.Is(err, repo.ErrNotFound) {
			return repo.SOSEvent{}, ErrSOSNotFound
		}
		return repo.SOSEvent{}, err
	}
	return event, nil
}

func (s *SOSService) publishIncident(ctx context.Context, eventType string, record repo.SOSEvent) {
	event, err := feed.NewIncidentEvent(eventType, feed.IncidentFromRecord(record))
	if err != nil {
		log.Warn().Err(err).Msg("sos: encode incident failed")
		return
	}
	if err := s.hub.Publish(ctx, event); err != nil {
		log.Warn().Err(err).Str("type", eventType).Msg("sos: publish failed")
	}
}

// alertContacts notifies each contact. Failures are logged, never fatal: the
// SOS itself is already persisted and on the feed.
func (s *SOSService) alertContacts(ctx context.Context, event repo.SOSEvent, contacts []repo.EmergencyContact) {
	if s.notifier == nil {
		return
	}
	for _, contact := range contacts {
		msg := alert.Message{
			RecipientName:  contact.Name,
			RecipientPhone: contact.Phone,
			WomanName:      event.WomanName,
			Latitude:       event.Latitude,
			Longitude:      event.Longitude,
			Battery:        event.Battery,
		}
		if err := s.notifier.Notify(ctx, msg); err != nil {
			log.Warn().Err(err).Str("contact", contact.Name).Msg("sos: contact alert failed")
		}
	}
}
