package repo

import (
	"context"
	"time"

	"github.com/google/uuid"
)

const zoneColumns = `z.id, z.police_id, u.name, z.latitude, z.longitude, z.risk_level, z.reason, z.description, z.active, z.created_at, z.unmarked_at`

func scanZone(row interface{ Scan(...any) error }) (FlaggedZone, error) {
	var z FlaggedZone
	err := row.Scan(&z.ID, &z.PoliceID, &z.PoliceName, &z.Latitude, &z.Longitude, &z.RiskLevel, &z.Reason, &z.Description, &z.Active, &z.CreatedAt, &z.UnmarkedAt)
	return z, mapErr(err)
}

// CreateFlaggedZone marks a high-risk area.
func (q *Queries) CreateFlaggedZone(ctx context.Context, policeID uuid.UUID, lat, lng float64, riskLevel, reason, description string) (FlaggedZone, error) {
	const query = `
        WITH inserted AS (
            INSERT INTO flagged_zones (id, police_id, latitude, longitude, risk_level, reason, description, active)
            VALUES ($1, $2, $3, $4, $5, $6, $7, TRUE)
            RETURNING id, police_id, latitude, longitude, risk_level, reason, description, active, created_at, unmarked_at
        )
        SELECT z.id, z.police_id, u.name, z.latitude, z.longitude, z.risk_level, z.reason, z.description, z.active, z.created_at, z.unmarked_at
        FROM inserted z JOIN users u ON u.id = z.police_id`

	return scanZone(q.pool.QueryRow(ctx, query, uuid.New(), policeID, lat, lng, riskLevel, reason, description))
}

// GetFlaggedZone returns one zone.
func (q *Queries) GetFlaggedZone(ctx context.Context, id uuid.UUID) (FlaggedZone, error) {
	const query = `
        SELECT ` + zoneColumns + `
        FROM flagged_zones z JOIN users u ON u.id = z.police_id
        WHERE z.id = $1`

	return scanZone(q.pool.QueryRow(ctx, query, id))
}

// ListFlaggedZones returns every zone, newest first.
func (q *Queries) ListFlaggedZones(ctx context.Context) ([]FlaggedZone, error) {
	const query = `
        SELECT ` + zoneColumns + `
        FROM flagged_zones z JOIN users u ON u.id = z.police_id
        ORDER BY z.created_at DESC`

	rows, err := q.pool.Query(ctx, query)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var zones []FlaggedZone
	for rows.Next() {
		z, err := scanZone(rows)
		if err != nil {
			return nil, err
		}
		zones = append(zones, z)
	}
	return zones, rows.Err()
}

// UnmarkFlaggedZone deactivates a zone instead of deleting its history.
func (q *Queries) UnmarkFlaggedZone(ctx context.Context, id uuid.UUID, at time.Time) error {
	const query = `
        UPDATE flagged_zones SET active = FALSE, unmarked_at = $2
        WHERE id = $1 AND active = TRUE`

	cmd, err := q.pool.Exec(ctx, query, id, at)
	if err != nil {
		return err
	}
	if cmd.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}
