package repo

import (
	"context"

	"github.com/google/uuid"
)

// IncrementSOSCount bumps the SOS usage counter for abuse monitoring.
func (q *Queries) IncrementSOSCount(ctx context.Context, womanID uuid.UUID) error {
	const query = `
        INSERT INTO abuse_records (id, woman_id, sos_count, fake_call_count)
        VALUES ($1, $2, 1, 0)
        ON CONFLICT (woman_id)
        DO UPDATE SET sos_count = abuse_records.sos_count + 1, updated_at = now()`

	_, err := q.pool.Exec(ctx, query, uuid.New(), womanID)
	return err
}

// IncrementFakeCallCount bumps the fake-call usage counter.
func (q *Queries) IncrementFakeCallCount(ctx context.Context, womanID uuid.UUID) error {
	const query = `
        INSERT INTO abuse_records (id, woman_id, sos_count, fake_call_count)
        VALUES ($1, $2, 0, 1)
        ON CONFLICT (woman_id)
        DO UPDATE SET fake_call_count = abuse_records.fake_call_count + 1, updated_at = now()`

	_, err := q.pool.Exec(ctx, query, uuid.New(), womanID)
	return err
}

// ListAbuseRecords returns usage counters for every woman account with activity.
func (q *Queries) ListAbuseRecords(ctx context.Context) ([]AbuseRecord, error) {
	const query = `
        SELECT a.id, a.woman_id, u.name, u.phone, a.sos_count, a.fake_call_count, a.flagged, a.flagged_reason, a.updated_at
        FROM abuse_records a JOIN users u ON u.id = a.woman_id
        ORDER BY a.updated_at DESC`

	rows, err := q.pool.Query(ctx, query)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var records []AbuseRecord
	for rows.Next() {
		var a AbuseRecord
		if err := rows.Scan(&a.ID, &a.WomanID, &a.WomanName, &a.WomanPhone, &a.SOSCount, &a.FakeCallCount, &a.Flagged, &a.FlaggedReason, &a.UpdatedAt); err != nil {
			return nil, err
		}
		records = append(records, a)
	}
	return records, rows.Err()
}

const flaggedUserColumns = `f.id, f.user_id, u.name, u.phone, f.flagged_by, b.name, f.reason, f.status, f.created_at`

const flaggedUserJoins = `
        FROM flagged_users f
        JOIN users u ON u.id = f.user_id
        JOIN users b ON b.id = f.flagged_by`

func scanFlaggedUser(row interface{ Scan(...any) error }) (FlaggedUser, error) {
	var f FlaggedUser
	err := row.Scan(&f.ID, &f.UserID, &f.UserName, &f.UserPhone, &f.FlaggedByID, &f.FlaggedByName, &f.Reason, &f.Status, &f.CreatedAt)
	return f, mapErr(err)
}

// CreateFlaggedUser files a report for admin review.
func (q *Queries) CreateFlaggedUser(ctx context.Context, userID, flaggedByID uuid.UUID, reason string) (FlaggedUser, error) {
	const query = `
        WITH inserted AS (
            INSERT INTO flagged_users (id, user_id, flagged_by, reason, status)
            VALUES ($1, $2, $3, $4, 'PENDING')
            RETURNING id, user_id, flagged_by, reason, status, created_at
        )
        SELECT f.id, f.user_id, u.name, u.phone, f.flagged_by, b.name, f.reason, f.status, f.created_at
        FROM inserted f
        JOIN users u ON u.id = f.user_id
        JOIN users b ON b.id = f.flagged_by`

	return scanFlaggedUser(q.pool.QueryRow(ctx, query, uuid.New(), userID, flaggedByID, reason))
}

// ListFlaggedUsers returns reports, newest first.
func (q *Queries) ListFlaggedUsers(ctx context.Context) ([]FlaggedUser, error) {
	const query = `SELECT ` + flaggedUserColumns + flaggedUserJoins + ` ORDER BY f.created_at DESC`

	rows, err := q.pool.Query(ctx, query)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var reports []FlaggedUser
	for rows.Next() {
		f, err := scanFlaggedUser(rows)
		if err != nil {
			return nil, err
		}
		reports = append(reports, f)
	}
	return reports, rows.Err()
}

// UpdateFlaggedUserStatus transitions a report after admin action.
func (q *Queries) UpdateFlaggedUserStatus(ctx context.Context, id uuid.UUID, status string) error {
	cmd, err := q.pool.Exec(ctx, `UPDATE flagged_users SET status = $2 WHERE id = $1`, id, status)
	if err != nil {
		return err
	}
	if cmd.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

// UpdateFlaggedUserStatusByUser transitions every report that targets a user.
func (q *Queries) UpdateFlaggedUserStatusByUser(ctx context.Context, userID uuid.UUID, status string) error {
	_, err := q.pool.Exec(ctx, `UPDATE flagged_users SET status = $2 WHERE user_id = $1`, userID, status)
	return err
}
