package service

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"

	"github.com/safeher/platform/internal/repo"
	"github.com/safeher/platform/internal/util"
)

var (
	// ErrZoneNotFound signals an unknown or already unmarked zone.
	ErrZoneNotFound = errors.New("zone not found")
	// ErrInvalidRiskLevel rejects risk levels outside the known set.
	ErrInvalidRiskLevel = errors.New("invalid risk level")
	// ErrZoneForbidden rejects unmarking a zone the caller does not own.
	ErrZoneForbidden = errors.New("only the creator or an admin can unmark a zone")
)

type zoneRepository interface {
	CreateFlaggedZone(ctx context.Context, policeID uuid.UUID, lat, lng float64, riskLevel, reason, description string) (repo.FlaggedZone, error)
	GetFlaggedZone(ctx context.Context, id uuid.UUID) (repo.FlaggedZone, error)
	ListFlaggedZones(ctx context.Context) ([]repo.FlaggedZone, error)
	UnmarkFlaggedZone(ctx context.Context, id uuid.UUID, at time.Time) error
}

// ZoneService manages high-risk zones marked by police.
type ZoneService struct {
	repo zoneRepository
}

// NewZoneService creates the service.
func NewZoneService(r zoneRepository) *ZoneService {
	return &ZoneService{repo: r}
}

// Mark flags a new high-risk zone.
func (s *ZoneService) Mark(ctx context.Context, policeID uuid.UUID, lat, lng float64, riskLevel, reason, description string) (repo.FlaggedZone, error) {
	valid := false
	for _, level := range repo.RiskLevels {
		if level == riskLevel {
			valid = true
			break
		}
	}
	if !valid {
		return repo.FlaggedZone{}, ErrInvalidRiskLevel
	}

	return s.repo.CreateFlaggedZone(ctx, policeID, lat, lng, riskLevel, reason, description)
}

// List returns every zone; women dashboards filter to active client-side.
func (s *ZoneService) List(ctx context.Context) ([]repo.FlaggedZone, error) {
	return s.repo.ListFlaggedZones(ctx)
}

// Unmark deactivates a zone. Only the creating officer or an admin may do it.
func (s *ZoneService) Unmark(ctx context.Context, id, callerID uuid.UUID, callerRole string) error {
	zone, err := s.repo.GetFlaggedZone(ctx, id)
	if err != nil {
		if errors.Is(err, repo.ErrNotFound) {
			return ErrZoneNotFound
		}
		return err
	}

	if zone.PoliceID != callerID && callerRole != repo.RoleAdmin {
		return ErrZoneForbidden
	}

	if err := s.repo.UnmarkFlaggedZone(ctx, id, util.Now()); err != nil {
		if errors.Is(err, repo.ErrNotFound) {
			return ErrZoneNotFound
		}
		return err
	}
	return nil
}
