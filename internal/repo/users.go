package repo

import (
	"context"

	"github.com/google/uuid"
)

const userColumns = `id, name, phone, email, password_hash, role, approved, suspended, document_url, created_at`

func (q *Queries) scanUser(row interface{ Scan(...any) error }) (User, error) {
	var u User
	err := row.Scan(&u.ID, &u.Name, &u.Phone, &u.Email, &u.PasswordHash, &u.Role, &u.Approved, &u.Suspended, &u.DocumentURL, &u.CreatedAt)
	return u, mapErr(err)
}

// CreateUser inserts a new account and returns the persisted row.
func (q *Queries) CreateUser(ctx context.Context, u User) (User, error) {
	const query = `
        INSERT INTO users (id, name, phone, email, password_hash, role, approved, suspended, document_url)
        VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
        RETURNING ` + userColumns

	row := q.pool.QueryRow(ctx, query, u.ID, u.Name, u.Phone, u.Email, u.PasswordHash, u.Role, u.Approved, u.Suspended, u.DocumentURL)
	return q.scanUser(row)
}

// GetUserByEmail finds an account by normalized e-mail.
func (q *Queries) GetUserByEmail(ctx context.Context, email string) (User, error) {
	const query = `SELECT ` + userColumns + ` FROM users WHERE lower(email) = lower($1)`
	return q.scanUser(q.pool.QueryRow(ctx, query, email))
}

// GetUserByID finds an account by identifier.
func (q *Queries) GetUserByID(ctx context.Context, id uuid.UUID) (User, error) {
	const query = `SELECT ` + userColumns + ` FROM users WHERE id = $1`
	return q.scanUser(q.pool.QueryRow(ctx, query, id))
}

// GetUserByPhone finds an account by phone number.
func (q *Queries) GetUserByPhone(ctx context.Context, phone string) (User, error) {
	const query = `SELECT ` + userColumns + ` FROM users WHERE phone = $1`
	return q.scanUser(q.pool.QueryRow(ctx, query, phone))
}

// ListUsers returns every account, newest first.
func (q *Queries) ListUsers(ctx context.Context) ([]User, error) {
	const query = `SELECT ` + userColumns + ` FROM users ORDER BY created_at DESC`

	rows, err := q.pool.Query(ctx, query)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var users []User
	for rows.Next() {
		u, err := q.scanUser(rows)
		if err != nil {
			return nil, err
		}
		users = append(users, u)
	}
	return users, rows.Err()
}

// ListPendingUsers returns community accounts awaiting approval.
func (q *Queries) ListPendingUsers(ctx context.Context) ([]User, error) {
	const query = `
        SELECT ` + userColumns + `
        FROM users
        WHERE approved = FALSE AND role NOT IN ('WOMAN', 'ADMIN')
        ORDER BY created_at ASC`

	rows, err := q.pool.Query(ctx, query)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var users []User
	for rows.Next() {
		u, err := q.scanUser(rows)
		if err != nil {
			return nil, err
		}
		users = append(users, u)
	}
	return users, rows.Err()
}

// ApproveUser marks a community account as approved.
func (q *Queries) ApproveUser(ctx context.Context, id uuid.UUID) error {
	cmd, err := q.pool.Exec(ctx, `UPDATE users SET approved = TRUE WHERE id = $1`, id)
	if err != nil {
		return err
	}
	if cmd.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

// DeleteUser removes a rejected registration.
func (q *Queries) DeleteUser(ctx context.Context, id uuid.UUID) error {
	cmd, err := q.pool.Exec(ctx, `DELETE FROM users WHERE id = $1`, id)
	if err != nil {
		return err
	}
	if cmd.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

// SetUserSuspended flips the suspension flag.
func (q *Queries) SetUserSuspended(ctx context.Context, id uuid.UUID, suspended bool) error {
	cmd, err := q.pool.Exec(ctx, `UPDATE users SET suspended = $2 WHERE id = $1`, id, suspended)
	if err != nil {
		return err
	}
	if cmd.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}
