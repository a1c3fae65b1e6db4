package repo

import (
	"context"

	"github.com/google/uuid"
)

// InsertRefreshToken stores a new refresh-token hash.
func (q *Queries) InsertRefreshToken(ctx context.Context, arg InsertRefreshTokenParams) (RefreshToken, error) {
	const query = `
        INSERT INTO refresh_tokens (id, subject, token_hash, expires_at, created_at, revoked)
        VALUES ($1, $2, $3, $4, $5, FALSE)
        RETURNING id, subject, token_hash, expires_at, created_at, revoked`

	var t RefreshToken
	err := q.pool.QueryRow(ctx, query, arg.ID, arg.Subject, arg.TokenHash, arg.ExpiresAt, arg.CreatedAt).
		Scan(&t.ID, &t.Subject, &t.TokenHash, &t.ExpiresAt, &t.CreatedAt, &t.Revoked)
	return t, mapErr(err)
}

// GetRefreshTokenByHash looks up a refresh token.
func (q *Queries) GetRefreshTokenByHash(ctx context.Context, tokenHash string) (RefreshToken, error) {
	const query = `
        SELECT id, subject, token_hash, expires_at, created_at, revoked
        FROM refresh_tokens
        WHERE token_hash = $1`

	var t RefreshToken
	err := q.pool.QueryRow(ctx, query, tokenHash).
		Scan(&t.ID, &t.Subject, &t.TokenHash, &t.ExpiresAt, &t.CreatedAt, &t.Revoked)
	return t, mapErr(err)
}

// RevokeRefreshToken marks one token as revoked.
func (q *Queries) RevokeRefreshToken(ctx context.Context, tokenHash string) error {
	cmd, err := q.pool.Exec(ctx, `UPDATE refresh_tokens SET revoked = TRUE WHERE token_hash = $1`, tokenHash)
	if err != nil {
		return err
	}
	if cmd.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

// InvalidateOtherRefreshTokens revokes every token of a subject except the
// one just issued, enforcing a single active session per account.
func (q *Queries) InvalidateOtherRefreshTokens(ctx context.Context, subject uuid.UUID, keepHash string) error {
	const query = `
        UPDATE refresh_tokens SET revoked = TRUE
        WHERE subject = $1 AND token_hash <> $2 AND revoked = FALSE`

	_, err := q.pool.Exec(ctx, query, subject, keepHash)
	return err
}
