package repo

import (
	"context"

	"github.com/google/uuid"
)

// InsertChatMessage stores one message in the given chat.
func (q *Queries) InsertChatMessage(ctx context.Context, senderID uuid.UUID, text, chatType string) (ChatMessage, error) {
	const query = `
        WITH inserted AS (
            INSERT INTO chat_messages (id, sender_id, text, chat_type)
            VALUES ($1, $2, $3, $4)
            RETURNING id, sender_id, text, chat_type, created_at
        )
        SELECT m.id, m.sender_id, u.name, u.role, m.text, m.chat_type, m.created_at
        FROM inserted m JOIN users u ON u.id = m.sender_id`

	var m ChatMessage
	err := q.pool.QueryRow(ctx, query, uuid.New(), senderID, text, chatType).
		Scan(&m.ID, &m.SenderID, &m.SenderName, &m.SenderRole, &m.Text, &m.ChatType, &m.CreatedAt)
	return m, mapErr(err)
}

// ListChatMessages returns the latest messages of a chat in chronological order.
func (q *Queries) ListChatMessages(ctx context.Context, chatType string, limit int) ([]ChatMessage, error) {
	const query = `
        SELECT m.id, m.sender_id, u.name, u.role, m.text, m.chat_type, m.created_at
        FROM (
            SELECT id, sender_id, text, chat_type, created_at
            FROM chat_messages
            WHERE chat_type = $1
            ORDER BY created_at DESC
            LIMIT $2
        ) m
        JOIN users u ON u.id = m.sender_id
        ORDER BY m.created_at ASC`

	rows, err := q.pool.Query(ctx, query, chatType, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var messages []ChatMessage
	for rows.Next() {
		var m ChatMessage
		if err := rows.Scan(&m.ID, &m.SenderID, &m.SenderName, &m.SenderRole, &m.Text, &m.ChatType, &m.CreatedAt); err != nil {
			return nil, err
		}
		messages = append(messages, m)
	}
	return messages, rows.Err()
}
