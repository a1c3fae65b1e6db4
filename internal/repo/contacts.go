package repo

import (
	"context"

	"github.com/google/uuid"
)

// ListContactsByWoman returns the caller's emergency contacts, oldest first.
func (q *Queries) ListContactsByWoman(ctx context.Context, womanID uuid.UUID) ([]EmergencyContact, error) {
	const query = `
        SELECT id, woman_id, name, phone, created_at
        FROM emergency_contacts
        WHERE woman_id = $1
        ORDER BY created_at ASC`

	rows, err := q.pool.Query(ctx, query, womanID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var contacts []EmergencyContact
	for rows.Next() {
		var c EmergencyContact
		if err := rows.Scan(&c.ID, &c.WomanID, &c.Name, &c.Phone, &c.CreatedAt); err != nil {
			return nil, err
		}
		contacts = append(contacts, c)
	}
	return contacts, rows.Err()
}

// CreateContact inserts an emergency contact.
func (q *Queries) CreateContact(ctx context.Context, womanID uuid.UUID, name, phone string) (EmergencyContact, error) {
	const query = `
        INSERT INTO emergency_contacts (id, woman_id, name, phone)
        VALUES ($1, $2, $3, $4)
        RETURNING id, woman_id, name, phone, created_at`

	var c EmergencyContact
	err := q.pool.QueryRow(ctx, query, uuid.New(), womanID, name, phone).
		Scan(&c.ID, &c.WomanID, &c.Name, &c.Phone, &c.CreatedAt)
	return c, mapErr(err)
}

// UpdateContact rewrites name and phone for a contact owned by the caller.
func (q *Queries) UpdateContact(ctx context.Context, id, womanID uuid.UUID, name, phone string) (EmergencyContact, error) {
	const query = `
        UPDATE emergency_contacts SET name = $3, phone = $4
        WHERE id = $1 AND woman_id = $2
        RETURNING id, woman_id, name, phone, created_at`

	var c EmergencyContact
	err := q.pool.QueryRow(ctx, query, id, womanID, name, phone).
		Scan(&c.ID, &c.WomanID, &c.Name, &c.Phone, &c.CreatedAt)
	return c, mapErr(err)
}

// DeleteContact removes a contact owned by the caller.
func (q *Queries) DeleteContact(ctx context.Context, id, womanID uuid.UUID) error {
	cmd, err := q.pool.Exec(ctx, `DELETE FROM emergency_contacts WHERE id = $1 AND woman_id = $2`, id, womanID)
	if err != nil {
		return err
	}
	if cmd.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}
