package repository

import (
	"context"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgtype"
)

const insertRefreshToken = `
INSERT INTO refresh_token (id, user_id, expires_at)
VALUES ($1, $2, $3)
`

type InsertRefreshTokenParams struct {
	ID        pgtype.UUID
	UserID    pgtype.UUID
	ExpiresAt pgtype.Timestamptz
}

func (q *Queries) InsertRefreshToken(ctx context.Context, arg InsertRefreshTokenParams) error {
	_, err := q.db.Exec(ctx, insertRefreshToken, arg.ID, arg.UserID, arg.ExpiresAt)
	return err
}

const selectRefreshTokenById = `
SELECT id, user_id, expires_at, revoked
FROM refresh_token
WHERE id = $1
`

func (q *Queries) SelectRefreshTokenById(ctx context.Context, id pgtype.UUID) (RefreshToken, error) {
	row := q.db.QueryRow(ctx, selectRefreshTokenById, id)
	var refreshToken RefreshToken
	err := row.Scan(
		&refreshToken.ID,
		&refreshToken.UserID,
		&refreshToken.ExpiresAt,
		&refreshToken.Revoked,
	)
	return refreshToken, err
}

const revokeRefreshToken = `
UPDATE refresh_token
SET revoked = TRUE
WHERE id = $1 AND user_id = $2 AND revoked = FALSE
`

type RevokeRefreshTokenParams struct {
	ID     pgtype.UUID
	UserID pgtype.UUID
}

func (q *Queries) RevokeRefreshToken(ctx context.Context, arg RevokeRefreshTokenParams) error {
	cmdTag, err := q.db.Exec(ctx, revokeRefreshToken, arg.ID, arg.UserID)
	if err != nil {
		return err
	}

	if cmdTag.RowsAffected() == 0 {
		return pgx.ErrNoRows
	}

	return nil
}
