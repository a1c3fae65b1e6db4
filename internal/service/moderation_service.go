package service

import (
	"context"
	"errors"
	"strings"

	"github.com/google/uuid"

	"github.com/safeher/platform/internal/repo"
)

var (
	// ErrUserNotFound signals an unknown account id.
	ErrUserNotFound = errors.New("user not found")
	// ErrAlreadyFlagged rejects a duplicate pending report for the same user.
	ErrAlreadyFlagged = errors.New("user already flagged for review")
	// ErrAlreadySuspended rejects suspending a suspended account.
	ErrAlreadySuspended = errors.New("user already suspended")
	// ErrNotSuspended rejects unsuspending an active account.
	ErrNotSuspended = errors.New("user is not suspended")
	// ErrNotPending rejects approval actions on accounts not awaiting review.
	ErrNotPending = errors.New("user is not pending approval")
)

type moderationRepository interface {
	GetUserByID(ctx context.Context, id uuid.UUID) (repo.User, error)
	ListUsers(ctx context.Context) ([]repo.User, error)
	ListPendingUsers(ctx context.Context) ([]repo.User, error)
	ApproveUser(ctx context.Context, id uuid.UUID) error
	DeleteUser(ctx context.Context, id uuid.UUID) error
	SetUserSuspended(ctx context.Context, id uuid.UUID, suspended bool) error
	ListAbuseRecords(ctx context.Context) ([]repo.AbuseRecord, error)
	IncrementFakeCallCount(ctx context.Context, womanID uuid.UUID) error
	CreateFlaggedUser(ctx context.Context, userID, flaggedByID uuid.UUID, reason string) (repo.FlaggedUser, error)
	ListFlaggedUsers(ctx context.Context) ([]repo.FlaggedUser, error)
	UpdateFlaggedUserStatusByUser(ctx context.Context, userID uuid.UUID, status string) error
}

// ModerationService covers cybersecurity monitoring and admin account review.
type ModerationService struct {
	repo moderationRepository
}

// NewModerationService creates the service.
func NewModerationService(r moderationRepository) *ModerationService {
	return &ModerationService{repo: r}
}

// AbuseRecords returns usage counters for cybersecurity monitoring.
func (s *ModerationService) AbuseRecords(ctx context.Context) ([]repo.AbuseRecord, error) {
	return s.repo.ListAbuseRecords(ctx)
}

// RecordFakeCall bumps the fake-call counter for a woman account.
func (s *ModerationService) RecordFakeCall(ctx context.Context, womanID uuid.UUID) error {
	return s.repo.IncrementFakeCallCount(ctx, womanID)
}

// FlagUser files a report for admin review. At most one pending report may
// exist per target.
func (s *ModerationService) FlagUser(ctx context.Context, userID, flaggedByID uuid.UUID, reason string) (repo.FlaggedUser, error) {
	if strings.TrimSpace(reason) == "" {
		return repo.FlaggedUser{}, errors.New("reason is required")
	}

	if _, err := s.repo.GetUserByID(ctx, userID); err != nil {
		if errors.Is(err, repo.ErrNotFound) {
			return repo.FlaggedUser{}, ErrUserNotFound
		}
		return repo.FlaggedUser{}, err
	}

	reports, err := s.repo.ListFlaggedUsers(ctx)
	if err != nil {
		return repo.FlaggedUser{}, err
	}
	for _, r := range reports {
		if r.UserID == userID && r.Status == repo.FlagPending {
			return repo.FlaggedUser{}, ErrAlreadyFlagged
		}
	}

	return s.repo.CreateFlaggedUser(ctx, userID, flaggedByID, reason)
}

// FlaggedUsers returns every report for cybersecurity and admin screens.
func (s *ModerationService) FlaggedUsers(ctx context.Context) ([]repo.FlaggedUser, error) {
	return s.repo.ListFlaggedUsers(ctx)
}

// PendingApprovals returns community accounts awaiting review.
func (s *ModerationService) PendingApprovals(ctx context.Context) ([]repo.User, error) {
	return s.repo.ListPendingUsers(ctx)
}

// Users returns every account for the admin directory.
func (s *ModerationService) Users(ctx context.Context) ([]repo.User, error) {
	return s.repo.ListUsers(ctx)
}

// Approve activates a pending community account.
func (s *ModerationService) Approve(ctx context.Context, userID uuid.UUID) (repo.User, error) {
	user, err := s.repo.GetUserByID(ctx, userID)
	if err != nil {
		if errors.Is(err, repo.ErrNotFound) {
			return repo.User{}, ErrUserNotFound
		}
		return repo.User{}, err
	}
	if user.Approved || user.Role == repo.RoleWoman || user.Role == repo.RoleAdmin {
		return repo.User{}, ErrNotPending
	}

	if err := s.repo.ApproveUser(ctx, userID); err != nil {
		return repo.User{}, err
	}
	user.Approved = true
	return user, nil
}

// Reject removes a pending registration entirely.
func (s *ModerationService) Reject(ctx context.Context, userID uuid.UUID) error {
	user, err := s.repo.GetUserByID(ctx, userID)
	if err != nil {
		if errors.Is(err, repo.ErrNotFound) {
			return ErrUserNotFound
		}
		return err
	}
	if user.Approved || user.Role == repo.RoleWoman || user.Role == repo.RoleAdmin {
		return ErrNotPending
	}
	return s.repo.DeleteUser(ctx, userID)
}

// Suspend blocks an account and marks its pending reports reviewed.
func (s *ModerationService) Suspend(ctx context.Context, userID uuid.UUID) (repo.User, error) {
	user, err := s.repo.GetUserByID(ctx, userID)
	if err != nil {
		if errors.Is(err, repo.ErrNotFound) {
			return repo.User{}, ErrUserNotFound
		}
		return repo.User{}, err
	}
	if user.Suspended {
		return repo.User{}, ErrAlreadySuspended
	}

	if err := s.repo.SetUserSuspended(ctx, userID, true); err != nil {
		return repo.User{}, err
	}
	if err := s.repo.UpdateFlaggedUserStatusByUser(ctx, userID, repo.FlagReviewed); err != nil {
		return repo.User{}, err
	}

	user.Suspended = true
	return user, nil
}

// Unsuspend restores a suspended account.
func (s *ModerationService) Unsuspend(ctx context.Context, userID uuid.UUID) (repo.User, error) {
	user, err := s.repo.GetUserByID(ctx, userID)
	if err != nil {
		if errors.Is(err, repo.ErrNotFound) {
			return repo.User{}, ErrUserNotFound
		}
		return repo.User{}, err
	}
	if !user.Suspended {
		return repo.User{}, ErrNotSuspended
	}

	if err := s.repo.SetUserSuspended(ctx, userID, false); err != nil {
		return repo.User{}, err
	}
	user.Suspended = false
	return user, nil
}
