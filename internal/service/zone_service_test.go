package service

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/google/uuid"

	"github.com/safeher/platform/internal/repo"
)

type stubZoneRepo struct {
	zones map[uuid.UUID]repo.FlaggedZone
}

func newStubZoneRepo() *stubZoneRepo {
	return &stubZoneRepo{zones: make(map[uuid.UUID]repo.FlaggedZone)}
}

func (s *stubZoneRepo) CreateFlaggedZone(ctx context.Context, policeID uuid.UUID, lat, lng float64, riskLevel, reason, description string) (repo.FlaggedZone, error) {
	zone := repo.FlaggedZone{
		ID:        uuid.New(),
		PoliceID:  policeID,
		Latitude:  lat,
		Longitude: lng,
		RiskLevel: riskLevel,
		Reason:    reason,
		Active:    true,
	}
	s.zones[zone.ID] = zone
	return zone, nil
}

func (s *stubZoneRepo) GetFlaggedZone(ctx context.Context, id uuid.UUID) (repo.FlaggedZone, error) {
	if zone, ok := s.zones[id]; ok {
		return zone, nil
	}
	return repo.FlaggedZone{}, repo.ErrNotFound
}

func (s *stubZoneRepo) ListFlaggedZones(ctx context.Context) ([]repo.FlaggedZone, error) {
	var out []repo.FlaggedZone
	for _, zone := range s.zones {
		out = append(out, zone)
	}
	return out, nil
}

func (s *stubZoneRepo) UnmarkFlaggedZone(ctx context.Context, id uuid.UUID, at time.Time) error {
	zone, ok := s.zones[id]
	if !ok || !zone.Active {
		return repo.ErrNotFound
	}
	zone.Active = false
	zone.UnmarkedAt = &at
	s.zones[id] = zone
	return nil
}

func TestMarkRejectsUnknownRiskLevel(t *testing.T) {
	svc := NewZoneService(newStubZoneRepo())

	_, err := svc.Mark(context.Background(), uuid.New(), -23.5, -46.6, "EXTREME", "robberies", "")
	if !errors.Is(err, ErrInvalidRiskLevel) {
		t.Fatalf("expected ErrInvalidRiskLevel, got %v", err)
	}
}

func TestUnmarkAllowsCreatorAndAdminOnly(t *testing.T) {
	repoStub := newStubZoneRepo()
	svc := NewZoneService(repoStub)

	officer := uuid.New()
	zone, err := svc.Mark(context.Background(), officer, -23.5, -46.6, "HIGH", "robberies", "")
	if err != nil {
		t.Fatalf("mark failed: %v", err)
	}

	otherOfficer := uuid.New()
	if err := svc.Unmark(context.Background(), zone.ID, otherOfficer, repo.RolePolice); !errors.Is(err, ErrZoneForbidden) {
		t.Fatalf("expected ErrZoneForbidden, got %v", err)
	}

	if err := svc.Unmark(context.Background(), zone.ID, otherOfficer, repo.RoleAdmin); err != nil {
		t.Fatalf("admin unmark failed: %v", err)
	}
	if repoStub.zones[zone.ID].Active {
		t.Fatal("expected zone deactivated")
	}
}

func TestUnmarkUnknownZone(t *testing.T) {
	svc := NewZoneService(newStubZoneRepo())

	if err := svc.Unmark(context.Background(), uuid.New(), uuid.New(), repo.RoleAdmin); !errors.Is(err, ErrZoneNotFound) {
		t.Fatalf("expected ErrZoneNotFound, got %v", err)
	}
}
