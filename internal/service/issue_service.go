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
	// ErrIssueNotFound signals an unknown issue or an invalid transition.
	ErrIssueNotFound = errors.New("issue not found")
)

type issueRepository interface {
	CreateIssue(ctx context.Context, reporterID uuid.UUID, description, location string, lat, lng *float64) (repo.Issue, error)
	GetIssue(ctx context.Context, id uuid.UUID) (repo.Issue, error)
	ListIssues(ctx context.Context) ([]repo.Issue, error)
	ListIssuesByAssignee(ctx context.Context, assigneeID uuid.UUID) ([]repo.Issue, error)
	AcceptIssue(ctx context.Context, id, assigneeID uuid.UUID, at time.Time) error
	CompleteIssue(ctx context.Context, id, assigneeID uuid.UUID, at time.Time) error
}

// IssueService routes infrastructure problems reported by police.
type IssueService struct {
	repo issueRepository
}

// NewIssueService creates the service.
func NewIssueService(r issueRepository) *IssueService {
	return &IssueService{repo: r}
}

// Report files a new issue on behalf of a police account.
func (s *IssueService) Report(ctx context.Context, reporterID uuid.UUID, description, location string, lat, lng *float64) (repo.Issue, error) {
	return s.repo.CreateIssue(ctx, reporterID, description, location, lat, lng)
}

// List returns every issue for the infrastructure dashboard.
func (s *IssueService) List(ctx context.Context) ([]repo.Issue, error) {
	return s.repo.ListIssues(ctx)
}

// ListMine returns issues accepted by the caller.
func (s *IssueService) ListMine(ctx context.Context, assigneeID uuid.UUID) ([]repo.Issue, error) {
	return s.repo.ListIssuesByAssignee(ctx, assigneeID)
}

// Accept assigns a pending issue to the caller and returns the new state.
func (s *IssueService) Accept(ctx context.Context, id, assigneeID uuid.UUID) (repo.Issue, error) {
	if err := s.repo.AcceptIssue(ctx, id, assigneeID, util.Now()); err != nil {
		if errors.Is(err, repo.ErrNotFound) {
			return repo.Issue{}, ErrIssueNotFound
		}
		return repo.Issue{}, err
	}
	return s.get(ctx, id)
}

// Complete closes an issue held by the caller and returns the new state.
func (s *IssueService) Complete(ctx context.Context, id, assigneeID uuid.UUID) (repo.Issue, error) {
	if err := s.repo.CompleteIssue(ctx, id, assigneeID, util.Now()); err != nil {
		if errors.Is(err, repo.ErrNotFound) {
			return repo.Issue{}, ErrIssueNotFound
		}
		return repo.Issue{}, err
	}
	return s.get(ctx, id)
}

func (s *IssueService) get(ctx context.Context, id uuid.UUID) (repo.Issue, error) {
	issue, err := s.repo.GetIssue(ctx, id)
	if err != nil {
		if errors.Is(err, repo.ErrNotFound) {
			return repo.Issue{}, ErrIssueNotFound
		}
		return repo.Issue{}, err
	}
	return issue, nil
}
