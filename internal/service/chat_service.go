package service

import (
	"context"
	"errors"
	"strings"

	"github.com/google/uuid"

	"github.com/safeher/platform/internal/repo"
)

// chatHistoryLimit bounds how many messages a dashboard loads at once.
const chatHistoryLimit = 100

var (
	// ErrEmptyMessage rejects blank chat messages.
	ErrEmptyMessage = errors.New("message is required")
)

type chatRepository interface {
	InsertChatMessage(ctx context.Context, senderID uuid.UUID, text, chatType string) (repo.ChatMessage, error)
	ListChatMessages(ctx context.Context, chatType string, limit int) ([]repo.ChatMessage, error)
}

// ChatService backs the police chat and the emergency broadcast channel.
type ChatService struct {
	repo chatRepository
}

// NewChatService creates the service.
func NewChatService(r chatRepository) *ChatService {
	return &ChatService{repo: r}
}

// Send stores one message in the given chat.
func (s *ChatService) Send(ctx context.Context, senderID uuid.UUID, text, chatType string) (repo.ChatMessage, error) {
	if strings.TrimSpace(text) == "" {
		return repo.ChatMessage{}, ErrEmptyMessage
	}
	return s.repo.InsertChatMessage(ctx, senderID, text, chatType)
}

// History returns the latest messages of a chat in chronological order.
func (s *ChatService) History(ctx context.Context, chatType string) ([]repo.ChatMessage, error) {
	return s.repo.ListChatMessages(ctx, chatType, chatHistoryLimit)
}
