package repo

import (
	"context"
	"time"

	"github.com/google/uuid"
)

const issueColumns = `i.id, i.reported_by, r.name, i.assigned_to, a.name, i.description, i.location, i.latitude, i.longitude, i.status, i.created_at, i.accepted_at, i.completed_at`

const issueJoins = `
        FROM issues i
        JOIN users r ON r.id = i.reported_by
        LEFT JOIN users a ON a.id = i.assigned_to`

func scanIssue(row interface{ Scan(...any) error }) (Issue, error) {
	var i Issue
	err := row.Scan(&i.ID, &i.ReporterID, &i.ReporterName, &i.AssigneeID, &i.AssigneeName, &i.Description, &i.Location, &i.Latitude, &i.Longitude, &i.Status, &i.CreatedAt, &i.AcceptedAt, &i.CompletedAt)
	return i, mapErr(err)
}

// CreateIssue records a problem reported by police.
func (q *Queries) CreateIssue(ctx context.Context, reporterID uuid.UUID, description, location string, lat, lng *float64) (Issue, error) {
	const query = `
        WITH inserted AS (
            INSERT INTO issues (id, reported_by, description, location, latitude, longitude, status)
            VALUES ($1, $2, $3, $4, $5, $6, 'PENDING')
            RETURNING id, reported_by, assigned_to, description, location, latitude, longitude, status, created_at, accepted_at, completed_at
        )
        SELECT i.id, i.reported_by, r.name, i.assigned_to, NULL::text, i.description, i.location, i.latitude, i.longitude, i.status, i.created_at, i.accepted_at, i.completed_at
        FROM inserted i JOIN users r ON r.id = i.reported_by`

	return scanIssue(q.pool.QueryRow(ctx, query, uuid.New(), reporterID, description, location, lat, lng))
}

// GetIssue returns one issue with reporter and assignee names.
func (q *Queries) GetIssue(ctx context.Context, id uuid.UUID) (Issue, error) {
	const query = `SELECT ` + issueColumns + issueJoins + ` WHERE i.id = $1`
	return scanIssue(q.pool.QueryRow(ctx, query, id))
}

// ListIssues returns every issue, newest first.
func (q *Queries) ListIssues(ctx context.Context) ([]Issue, error) {
	const query = `SELECT ` + issueColumns + issueJoins + ` ORDER BY i.created_at DESC`

	rows, err := q.pool.Query(ctx, query)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var issues []Issue
	for rows.Next() {
		i, err := scanIssue(rows)
		if err != nil {
			return nil, err
		}
		issues = append(issues, i)
	}
	return issues, rows.Err()
}

// ListIssuesByAssignee returns issues accepted by one infrastructure account.
func (q *Queries) ListIssuesByAssignee(ctx context.Context, assigneeID uuid.UUID) ([]Issue, error) {
	const query = `SELECT ` + issueColumns + issueJoins + ` WHERE i.assigned_to = $1 ORDER BY i.created_at DESC`

	rows, err := q.pool.Query(ctx, query, assigneeID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var issues []Issue
	for rows.Next() {
		i, err := scanIssue(rows)
		if err != nil {
			return nil, err
		}
		issues = append(issues, i)
	}
	return issues, rows.Err()
}

// AcceptIssue assigns a pending issue to an infrastructure account. The status
// guard makes retries and races lose cleanly.
func (q *Queries) AcceptIssue(ctx context.Context, id, assigneeID uuid.UUID, at time.Time) error {
	const query = `
        UPDATE issues SET assigned_to = $2, status = 'ACCEPTED', accepted_at = $3
        WHERE id = $1 AND status = 'PENDING'`

	cmd, err := q.pool.Exec(ctx, query, id, assigneeID, at)
	if err != nil {
		return err
	}
	if cmd.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

// CompleteIssue closes an accepted issue held by the caller.
func (q *Queries) CompleteIssue(ctx context.Context, id, assigneeID uuid.UUID, at time.Time) error {
	const query = `
        UPDATE issues SET status = 'COMPLETED', completed_at = $3
        WHERE id = $1 AND assigned_to = $2 AND status = 'ACCEPTED'`

	cmd, err := q.pool.Exec(ctx, query, id, assigneeID, at)
	if err != nil {
		return err
	}
	if cmd.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}
