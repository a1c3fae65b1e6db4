package service

import (
	"context"
	"errors"
	"testing"

	"github.com/google/uuid"

	"github.com/safeher/platform/internal/repo"
)

type stubModerationRepo struct {
	users   map[uuid.UUID]repo.User
	flags   []repo.FlaggedUser
	records []repo.AbuseRecord

	fakeCallCalls int
}

func newStubModerationRepo(users ...repo.User) *stubModerationRepo {
	s := &stubModerationRepo{users: make(map[uuid.UUID]repo.User)}
	for _, u := range users {
		s.users[u.ID] = u
	}
	return s
}

func (s *stubModerationRepo) GetUserByID(ctx context.Context, id uuid.UUID) (repo.User, error) {
	if u, ok := s.users[id]; ok {
		return u, nil
	}
	return repo.User{}, repo.ErrNotFound
}

func (s *stubModerationRepo) ListUsers(ctx context.Context) ([]repo.User, error) {
	var out []repo.User
	for _, u := range s.users {
		out = append(out, u)
	}
	return out, nil
}

func (s *stubModerationRepo) ListPendingUsers(ctx context.Context) ([]repo.User, error) {
	var out []repo.User
	for _, u := range s.users {
		if !u.Approved && u.Role != repo.RoleWoman && u.Role != repo.RoleAdmin {
			out = append(out, u)
		}
	}
	return out, nil
}

func (s *stubModerationRepo) ApproveUser(ctx context.Context, id uuid.UUID) error {
	u, ok := s.users[id]
	if !ok {
		return repo.ErrNotFound
	}
	u.Approved = true
	s.users[id] = u
	return nil
}

func (s *stubModerationRepo) DeleteUser(ctx context.Context, id uuid.UUID) error {
	if _, ok := s.users[id]; !ok {
		return repo.ErrNotFound
	}
	delete(s.users, id)
	return nil
}

func (s *stubModerationRepo) SetUserSuspended(ctx context.Context, id uuid.UUID, suspended bool) error {
	u, ok := s.users[id]
	if !ok {
		return repo.ErrNotFound
	}
	u.Suspended = suspended
	s.users[id] = u
	return nil
}

func (s *stubModerationRepo) ListAbuseRecords(ctx context.Context) ([]repo.AbuseRecord, error) {
	return s.records, nil
}

func (s *stubModerationRepo) IncrementFakeCallCount(ctx context.Context, womanID uuid.UUID) error {
	s.fakeCallCalls++
	return nil
}

func (s *stubModerationRepo) CreateFlaggedUser(ctx context.Context, userID, flaggedByID uuid.UUID, reason string) (repo.FlaggedUser, error) {
	flag := repo.FlaggedUser{
		ID:          uuid.New(),
		UserID:      userID,
		FlaggedByID: flaggedByID,
		Reason:      reason,
		Status:      repo.FlagPending,
	}
	s.flags = append(s.flags, flag)
	return flag, nil
}

func (s *stubModerationRepo) ListFlaggedUsers(ctx context.Context) ([]repo.FlaggedUser, error) {
	return s.flags, nil
}

func (s *stubModerationRepo) UpdateFlaggedUserStatusByUser(ctx context.Context, userID uuid.UUID, status string) error {
	for i := range s.flags {
		if s.flags[i].UserID == userID && s.flags[i].Status == repo.FlagPending {
			s.flags[i].Status = status
		}
	}
	return nil
}

func pendingOfficer() repo.User {
	return repo.User{ID: uuid.New(), Name: "Officer", Role: repo.RolePolice, Approved: false}
}

func TestFlagUserRejectsDuplicatePendingReport(t *testing.T) {
	target := repo.User{ID: uuid.New(), Name: "Ana", Role: repo.RoleWoman, Approved: true}
	svc := NewModerationService(newStubModerationRepo(target))
	reporter := uuid.New()

	if _, err := svc.FlagUser(context.Background(), target.ID, reporter, "excessive fake calls"); err != nil {
		t.Fatalf("first flag failed: %v", err)
	}
	if _, err := svc.FlagUser(context.Background(), target.ID, reporter, "again"); !errors.Is(err, ErrAlreadyFlagged) {
		t.Fatalf("expected ErrAlreadyFlagged, got %v", err)
	}
}

func TestFlagUserRejectsUnknownTarget(t *testing.T) {
	svc := NewModerationService(newStubModerationRepo())

	_, err := svc.FlagUser(context.Background(), uuid.New(), uuid.New(), "reason")
	if !errors.Is(err, ErrUserNotFound) {
		t.Fatalf("expected ErrUserNotFound, got %v", err)
	}
}

func TestApproveActivatesPendingAccount(t *testing.T) {
	officer := pendingOfficer()
	repoStub := newStubModerationRepo(officer)
	svc := NewModerationService(repoStub)

	approved, err := svc.Approve(context.Background(), officer.ID)
	if err != nil {
		t.Fatalf("approve failed: %v", err)
	}
	if !approved.Approved {
		t.Fatal("expected account to be approved")
	}

	// Approving again is a conflict, not a silent success.
	if _, err := svc.Approve(context.Background(), officer.ID); !errors.Is(err, ErrNotPending) {
		t.Fatalf("expected ErrNotPending, got %v", err)
	}
}

func TestApproveRejectsWomanAccounts(t *testing.T) {
	woman := repo.User{ID: uuid.New(), Role: repo.RoleWoman, Approved: true}
	svc := NewModerationService(newStubModerationRepo(woman))

	if _, err := svc.Approve(context.Background(), woman.ID); !errors.Is(err, ErrNotPending) {
		t.Fatalf("expected ErrNotPending for WOMAN account, got %v", err)
	}
}

func TestRejectDeletesPendingAccount(t *testing.T) {
	officer := pendingOfficer()
	repoStub := newStubModerationRepo(officer)
	svc := NewModerationService(repoStub)

	if err := svc.Reject(context.Background(), officer.ID); err != nil {
		t.Fatalf("reject failed: %v", err)
	}
	if _, ok := repoStub.users[officer.ID]; ok {
		t.Fatal("expected rejected account to be deleted")
	}
}

func TestSuspendMarksPendingFlagsReviewed(t *testing.T) {
	target := repo.User{ID: uuid.New(), Role: repo.RoleWoman, Approved: true}
	repoStub := newStubModerationRepo(target)
	svc := NewModerationService(repoStub)

	if _, err := svc.FlagUser(context.Background(), target.ID, uuid.New(), "misuse"); err != nil {
		t.Fatalf("flag failed: %v", err)
	}
	suspended, err := svc.Suspend(context.Background(), target.ID)
	if err != nil {
		t.Fatalf("suspend failed: %v", err)
	}
	if !suspended.Suspended {
		t.Fatal("expected suspended account")
	}
	if repoStub.flags[0].Status != repo.FlagReviewed {
		t.Fatalf("expected flag marked REVIEWED, got %s", repoStub.flags[0].Status)
	}

	if _, err := svc.Suspend(context.Background(), target.ID); !errors.Is(err, ErrAlreadySuspended) {
		t.Fatalf("expected ErrAlreadySuspended, got %v", err)
	}
}

func TestUnsuspendRequiresSuspendedAccount(t *testing.T) {
	target := repo.User{ID: uuid.New(), Role: repo.RoleWoman, Approved: true}
	repoStub := newStubModerationRepo(target)
	svc := NewModerationService(repoStub)

	if _, err := svc.Unsuspend(context.Background(), target.ID); !errors.Is(err, ErrNotSuspended) {
		t.Fatalf("expected ErrNotSuspended, got %v", err)
	}

	if _, err := svc.Suspend(context.Background(), target.ID); err != nil {
		t.Fatalf("suspend failed: %v", err)
	}
	restored, err := svc.Unsuspend(context.Background(), target.ID)
	if err != nil {
		t.Fatalf("unsuspend failed: %v", err)
	}
	if restored.Suspended {
		t.Fatal("expected account restored")
	}
}
