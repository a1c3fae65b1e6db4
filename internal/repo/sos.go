package repo

import (
	"context"
	"time"

	"github.com/google/uuid"
)

const sosColumns = `s.id, s.woman_id, u.name, u.phone, s.latitude, s.longitude, s.battery, s.status, s.created_at, s.resolved_at`

func scanSOS(row interface{ Scan(...any) error }) (SOSEvent, error) {
	var e SOSEvent
	err := row.Scan(&e.ID, &e.WomanID, &e.WomanName, &e.WomanPhone, &e.Latitude, &e.Longitude, &e.Battery, &e.Status, &e.CreatedAt, &e.ResolvedAt)
	return e, mapErr(err)
}

// CreateSOSEvent inserts a new active SOS event.
func (q *Queries) CreateSOSEvent(ctx context.Context, womanID uuid.UUID, lat, lng float64, battery int) (SOSEvent, error) {
	const query = `
        WITH inserted AS (
            INSERT INTO sos_events (id, woman_id, latitude, longitude, battery, status)
            VALUES ($1, $2, $3, $4, $5, 'ACTIVE')
            RETURNING id, woman_id, latitude, longitude, battery, status, created_at, resolved_at
        )
        SELECT s.id, s.woman_id, u.name, u.phone, s.latitude, s.longitude, s.battery, s.status, s.created_at, s.resolved_at
        FROM inserted s JOIN users u ON u.id = s.woman_id`

	return scanSOS(q.pool.QueryRow(ctx, query, uuid.New(), womanID, lat, lng, battery))
}

// GetSOSEvent returns one SOS event with the owner's name and phone.
func (q *Queries) GetSOSEvent(ctx context.Context, id uuid.UUID) (SOSEvent, error) {
	const query = `
        SELECT ` + sosColumns + `
        FROM sos_events s JOIN users u ON u.id = s.woman_id
        WHERE s.id = $1`

	return scanSOS(q.pool.QueryRow(ctx, query, id))
}

// ListActiveSOSEvents returns every active event, newest first.
func (q *Queries) ListActiveSOSEvents(ctx context.Context) ([]SOSEvent, error) {
	const query = `
        SELECT ` + sosColumns + `
        FROM sos_events s JOIN users u ON u.id = s.woman_id
        WHERE s.status = 'ACTIVE'
        ORDER BY s.created_at DESC`

	rows, err := q.pool.Query(ctx, query)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var events []SOSEvent
	for rows.Next() {
		e, err := scanSOS(rows)
		if err != nil {
			return nil, err
		}
		events = append(events, e)
	}
	return events, rows.Err()
}

// ListSOSEvents returns all events regardless of status, newest first.
func (q *Queries) ListSOSEvents(ctx context.Context) ([]SOSEvent, error) {
	const query = `
        SELECT ` + sosColumns + `
        FROM sos_events s JOIN users u ON u.id = s.woman_id
        ORDER BY s.created_at DESC`

	rows, err := q.pool.Query(ctx, query)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var events []SOSEvent
	for rows.Next() {
		e, err := scanSOS(rows)
		if err != nil {
			return nil, err
		}
		events = append(events, e)
	}
	return events, rows.Err()
}

// GetActiveSOSByWoman returns the caller's currently active event, if any.
func (q *Queries) GetActiveSOSByWoman(ctx context.Context, womanID uuid.UUID) (SOSEvent, error) {
	const query = `
        SELECT ` + sosColumns + `
        FROM sos_events s JOIN users u ON u.id = s.woman_id
        WHERE s.woman_id = $1 AND s.status = 'ACTIVE'
        ORDER BY s.created_at DESC
        LIMIT 1`

	return scanSOS(q.pool.QueryRow(ctx, query, womanID))
}

// CloseSOSEvent sets a terminal status and the resolution timestamp.
func (q *Queries) CloseSOSEvent(ctx context.Context, id uuid.UUID, status string, at time.Time) error {
	const query = `
        UPDATE sos_events SET status = $2, resolved_at = $3
        WHERE id = $1 AND status = 'ACTIVE'`

	cmd, err := q.pool.Exec(ctx, query, id, status, at)
	if err != nil {
		return err
	}
	if cmd.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

// InsertLocationUpdate appends a position report and refreshes the event's
// current coordinates in the same statement batch.
func (q *Queries) InsertLocationUpdate(ctx context.Context, sosID uuid.UUID, lat, lng float64, battery int) (LocationUpdate, error) {
	const update = `
        UPDATE sos_events SET latitude = $2, longitude = $3, battery = $4
        WHERE id = $1 AND status = 'ACTIVE'`

	cmd, err := q.pool.Exec(ctx, update, sosID, lat, lng, battery)
	if err != nil {
		return LocationUpdate{}, err
	}
	if cmd.RowsAffected() == 0 {
		return LocationUpdate{}, ErrNotFound
	}

	const insert = `
        INSERT INTO location_updates (id, sos_event_id, latitude, longitude, battery)
        VALUES ($1, $2, $3, $4, $5)
        RETURNING id, sos_event_id, latitude, longitude, battery, created_at`

	var lu LocationUpdate
	err = q.pool.QueryRow(ctx, insert, uuid.New(), sosID, lat, lng, battery).
		Scan(&lu.ID, &lu.SOSID, &lu.Latitude, &lu.Longitude, &lu.Battery, &lu.CreatedAt)
	return lu, mapErr(err)
}

// ListLocationUpdates returns position history for one event, oldest first.
func (q *Queries) ListLocationUpdates(ctx context.Context, sosID uuid.UUID) ([]LocationUpdate, error) {
	const query = `
        SELECT id, sos_event_id, latitude, longitude, battery, created_at
        FROM location_updates
        WHERE sos_event_id = $1
        ORDER BY created_at ASC`

	rows, err := q.pool.Query(ctx, query, sosID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var updates []LocationUpdate
	for rows.Next() {
		var lu LocationUpdate
		if err := rows.Scan(&lu.ID, &lu.SOSID, &lu.Latitude, &lu.Longitude, &lu.Battery, &lu.CreatedAt); err != nil {
			return nil, err
		}
		updates = append(updates, lu)
	}
	return updates, rows.Err()
}
