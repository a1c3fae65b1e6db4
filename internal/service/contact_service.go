package service

import (
	"context"
	"errors"

	"github.com/google/uuid"

	"github.com/safeher/platform/internal/repo"
)

var (
	// ErrContactNotFound signals a contact outside the caller's list.
	ErrContactNotFound = errors.New("contact not found")
)

type contactRepository interface {
	ListContactsByWoman(ctx context.Context, womanID uuid.UUID) ([]repo.EmergencyContact, error)
	CreateContact(ctx context.Context, womanID uuid.UUID, name, phone string) (repo.EmergencyContact, error)
	UpdateContact(ctx context.Context, id, womanID uuid.UUID, name, phone string) (repo.EmergencyContact, error)
	DeleteContact(ctx context.Context, id, womanID uuid.UUID) error
}

// ContactService manages a woman's emergency contact list.
type ContactService struct {
	repo contactRepository
}

// NewContactService creates the service.
func NewContactService(r contactRepository) *ContactService {
	return &ContactService{repo: r}
}

// List returns the caller's contacts.
func (s *ContactService) List(ctx context.Context, womanID uuid.UUID) ([]repo.EmergencyContact, error) {
	return s.repo.ListContactsByWoman(ctx, womanID)
}

// Add creates a contact.
func (s *ContactService) Add(ctx context.Context, womanID uuid.UUID, name, phone string) (repo.EmergencyContact, error) {
	return s.repo.CreateContact(ctx, womanID, name, phone)
}

// Update edits a contact owned by the caller.
func (s *ContactService) Update(ctx context.Context, id, womanID uuid.UUID, name, phone string) (repo.EmergencyContact, error) {
	contact, err := s.repo.UpdateContact(ctx, id, womanID, name, phone)
	if err != nil {
		if errors.Is(err, repo.ErrNotFound) {
			return repo.EmergencyContact{}, ErrContactNotFound
		}
		return repo.EmergencyContact{}, err
	}
	return contact, nil
}

// Remove deletes a contact owned by the caller.
func (s *ContactService) Remove(ctx context.Context, id, womanID uuid.UUID) error {
	if err := s.repo.DeleteContact(ctx, id, womanID); err != nil {
		if errors.Is(err, repo.ErrNotFound) {
			return ErrContactNotFound
		}
		return err
	}
	return nil
}
