package service

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/google/uuid"

	"github.com/safeher/platform/internal/alert"
	"github.com/safeher/platform/internal/feed"
	"github.com/safeher/platform/internal/repo"
)

type stubSOSRepo struct {
	events   map[uuid.UUID]repo.SOSEvent
	contacts []repo.EmergencyContact
	updates  []repo.LocationUpdate

	sosCountCalls int
}

func newStubSOSRepo() *stubSOSRepo {
	return &stubSOSRepo{events: make(map[uuid.UUID]repo.SOSEvent)}
}

func (s *stubSOSRepo) CreateSOSEvent(ctx context.Context, womanID uuid.UUID, lat, lng float64, battery int) (repo.SOSEvent, error) {
	event := repo.SOSEvent{
		ID:        uuid.New(),
		WomanID:   womanID,
		WomanName: "Ana",
		Latitude:  lat,
		Longitude: lng,
		Battery:   battery,
		Status:    repo.SOSActive,
		CreatedAt: time.Now().UTC(),
	}
	s.events[event.ID] = event
	return event, nil
}

func (s *stubSOSRepo) GetSOSEvent(ctx context.Context, id uuid.UUID) (repo.SOSEvent, error) {
	if event, ok := s.events[id]; ok {
		return event, nil
	}
	return repo.SOSEvent{}, repo.ErrNotFound
}

func (s *stubSOSRepo) ListActiveSOSEvents(ctx context.Context) ([]repo.SOSEvent, error) {
	var out []repo.SOSEvent
	for _, event := range s.events {
		if event.Status == repo.SOSActive {
			out = append(out, event)
		}
	}
	return out, nil
}

func (s *stubSOSRepo) ListSOSEvents(ctx context.Context) ([]repo.SOSEvent, error) {
	var out []repo.SOSEvent
	for _, event := range s.events {
		out = append(out, event)
	}
	return out, nil
}

func (s *stubSOSRepo) GetActiveSOSByWoman(ctx context.Context, womanID uuid.UUID) (repo.SOSEvent, error) {
	for _, event := range s.events {
		if event.WomanID == womanID && event.Status == repo.SOSActive {
			return event, nil
		}
	}
	return repo.SOSEvent{}, repo.ErrNotFound
}

func (s *stubSOSRepo) CloseSOSEvent(ctx context.Context, id uuid.UUID, status string, at time.Time) error {
	event, ok := s.events[id]
	if !ok || event.Status != repo.SOSActive {
		return repo.ErrNotFound
	}
	event.Status = status
	event.ResolvedAt = &at
	s.events[id] = event
	return nil
}

func (s *stubSOSRepo) InsertLocationUpdate(ctx context.Context, sosID uuid.UUID, lat, lng float64, battery int) (repo.LocationUpdate, error) {
	event, ok := s.events[sosID]
	if !ok {
		return repo.LocationUpdate{}, repo.ErrNotFound
	}
	event.Latitude = lat
	event.Longitude = lng
	event.Battery = battery
	s.events[sosID] = event

	update := repo.LocationUpdate{
		ID:        uuid.New(),
		SOSID:     sosID,
		Latitude:  lat,
		Longitude: lng,
		Battery:   battery,
		CreatedAt: time.Now().UTC(),
	}
	s.updates = append(s.updates, update)
	return update, nil
}

func (s *stubSOSRepo) ListLocationUpdates(ctx context.Context, sosID uuid.UUID) ([]repo.LocationUpdate, error) {
	var out []repo.LocationUpdate
	for _, update := range s.updates {
		if update.SOSID == sosID {
			out = append(out, update)
		}
	}
	return out, nil
}

func (s *stubSOSRepo) ListContactsByWoman(ctx context.Context, womanID uuid.UUID) ([]repo.EmergencyContact, error) {
	return s.contacts, nil
}

func (s *stubSOSRepo) IncrementSOSCount(ctx context.Context, womanID uuid.UUID) error {
	s.sosCountCalls++
	return nil
}

type stubPublisher struct {
	events []feed.Event
}

func (p *stubPublisher) Publish(ctx context.Context, event feed.Event) error {
	p.events = append(p.events, event)
	return nil
}

type stubNotifier struct {
	messages []alert.Message
}

func (n *stubNotifier) Notify(ctx context.Context, msg alert.Message) error {
	n.messages = append(n.messages, msg)
	return nil
}

func TestTriggerRequiresEmergencyContacts(t *testing.T) {
	svc := NewSOSService(newStubSOSRepo(), &stubPublisher{}, nil)

	_, err := svc.Trigger(context.Background(), uuid.New(), -23.5, -46.6, 80)
	if !errors.Is(err, ErrNoEmergencyContacts) {
		t.Fatalf("expected ErrNoEmergencyContacts, got %v", err)
	}
}

func TestTriggerPublishesAndAlertsContacts(t *testing.T) {
	repoStub := newStubSOSRepo()
	repoStub.contacts = []repo.EmergencyContact{
		{ID: uuid.New(), Name: "Mãe", Phone: "+5511988887777"},
		{ID: uuid.New(), Name: "Irmã", Phone: "+5511977776666"},
	}
	hub := &stubPublisher{}
	notifier := &stubNotifier{}
	svc := NewSOSService(repoStub, hub, notifier)

	event, err := svc.Trigger(context.Background(), uuid.New(), -23.5, -46.6, 80)
	if err != nil {
		t.Fatalf("trigger failed: %v", err)
	}
	if event.Status != repo.SOSActive {
		t.Fatalf("expected ACTIVE event, got %s", event.Status)
	}

	if len(hub.events) != 1 || hub.events[0].Type != feed.EventNewSOS {
		t.Fatalf("expected one NEW_SOS publication, got %+v", hub.events)
	}
	if len(notifier.messages) != 2 {
		t.Fatalf("expected 2 contact alerts, got %d", len(notifier.messages))
	}
	if repoStub.sosCountCalls != 1 {
		t.Fatalf("expected sos counter bump, got %d", repoStub.sosCountCalls)
	}
}

func TestUpdateLocationPublishesPatch(t *testing.T) {
	repoStub := newStubSOSRepo()
	repoStub.contacts = []repo.EmergencyContact{{Name: "Mãe", Phone: "+5511988887777"}}
	hub := &stubPublisher{}
	svc := NewSOSService(repoStub, hub, nil)

	womanID := uuid.New()
	event, err := svc.Trigger(context.Background(), womanID, -23.5, -46.6, 80)
	if err != nil {
		t.Fatalf("trigger failed: %v", err)
	}

	update, err := svc.UpdateLocation(context.Background(), womanID, event.ID, -23.6, -46.7, 75)
	if err != nil {
		t.Fatalf("update location failed: %v", err)
	}
	if update.Latitude != -23.6 {
		t.Fatalf("unexpected latitude %f", update.Latitude)
	}

	if len(hub.events) != 2 || hub.events[1].Type != feed.EventLocationUpdate {
		t.Fatalf("expected LOCATION_UPDATE publication, got %+v", hub.events)
	}
}

func TestUpdateLocationRejectsForeignEvent(t *testing.T) {
	repoStub := newStubSOSRepo()
	repoStub.contacts = []repo.EmergencyContact{{Name: "Mãe", Phone: "+5511988887777"}}
	svc := NewSOSService(repoStub, &stubPublisher{}, nil)

	event, err := svc.Trigger(context.Background(), uuid.New(), -23.5, -46.6, 80)
	if err != nil {
		t.Fatalf("trigger failed: %v", err)
	}

	_, err = svc.UpdateLocation(context.Background(), uuid.New(), event.ID, -23.6, -46.7, 75)
	if !errors.Is(err, ErrSOSNotFound) {
		t.Fatalf("expected ErrSOSNotFound for another woman's event, got %v", err)
	}
}

func TestCancelOnlyOwnEvent(t *testing.T) {
	repoStub := newStubSOSRepo()
	repoStub.contacts = []repo.EmergencyContact{{Name: "Mãe", Phone: "+5511988887777"}}
	svc := NewSOSService(repoStub, &stubPublisher{}, nil)

	womanID := uuid.New()
	event, err := svc.Trigger(context.Background(), womanID, -23.5, -46.6, 80)
	if err != nil {
		t.Fatalf("trigger failed: %v", err)
	}

	if err := svc.Cancel(context.Background(), uuid.New(), event.ID); !errors.Is(err, ErrSOSNotFound) {
		t.Fatalf("expected ErrSOSNotFound for foreign cancel, got %v", err)
	}
	if err := svc.Cancel(context.Background(), womanID, event.ID); err != nil {
		t.Fatalf("cancel failed: %v", err)
	}
}

func TestResolvePublishesSOSResolved(t *testing.T) {
	repoStub := newStubSOSRepo()
	repoStub.contacts = []repo.EmergencyContact{{Name: "Mãe", Phone: "+5511988887777"}}
	hub := &stubPublisher{}
	svc := NewSOSService(repoStub, hub, nil)

	event, err := svc.Trigger(context.Background(), uuid.New(), -23.5, -46.6, 80)
	if err != nil {
		t.Fatalf("trigger failed: %v", err)
	}

	if err := svc.Resolve(context.Background(), event.ID); err != nil {
		t.Fatalf("resolve failed: %v", err)
	}

	last := hub.events[len(hub.events)-1]
	if last.Type != feed.EventSOSResolved {
		t.Fatalf("expected SOS_RESOLVED publication, got %s", last.Type)
	}

	stored, _ := repoStub.GetSOSEvent(context.Background(), event.ID)
	if stored.Status != repo.SOSResolved || stored.ResolvedAt == nil {
		t.Fatalf("expected resolved event, got %+v", stored)
	}

	// Resolving twice hits the ACTIVE guard.
	if err := svc.Resolve(context.Background(), event.ID); !errors.Is(err, ErrSOSNotFound) {
		t.Fatalf("expected ErrSOSNotFound on double resolve, got %v", err)
	}
}
