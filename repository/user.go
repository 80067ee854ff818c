package repository

import (
	"context"

	"github.com/jackc/pgx/v5/pgtype"
)

const insertUser = `
INSERT INTO "user" (id, email, name, password_hash, roles)
VALUES ($1, $2, $3, $4, $5)
RETURNING id, email, name, password_hash, roles, two_factor_enabled, created_at
`

type InsertUserParams struct {
	ID           pgtype.UUID
	Email        string
	Name         string
	PasswordHash string
	Roles        []string
}

func (q *Queries) InsertUser(ctx context.Context, arg InsertUserParams) (User, error) {
	row := q.db.QueryRow(ctx, insertUser, arg.ID, arg.Email, arg.Name, arg.PasswordHash, arg.Roles)
	var user User
	err := row.Scan(
		&user.ID,
		&user.Email,
		&user.Name,
		&user.PasswordHash,
		&user.Roles,
		&user.TwoFactorEnabled,
		&user.CreatedAt,
	)
	return user, err
}

const selectUserById = `
SELECT id, email, name, password_hash, roles, two_factor_enabled, created_at
FROM "user"
WHERE id = $1
`

func (q *Queries) SelectUserById(ctx context.Context, id pgtype.UUID) (User, error) {
	row := q.db.QueryRow(ctx, selectUserById, id)
	var user User
	err := row.Scan(
		&user.ID,
		&user.Email,
		&user.Name,
		&user.PasswordHash,
		&user.Roles,
		&user.TwoFactorEnabled,
		&user.CreatedAt,
	)
	return user, err
}

const selectUserByEmail = `
SELECT id, email, name, password_hash, roles, two_factor_enabled, created_at
FROM "user"
WHERE email = $1
`

func (q *Queries) SelectUserByEmail(ctx context.Context, email string) (User, error) {
	row := q.db.QueryRow(ctx, selectUserByEmail, email)
	var user User
	err := row.Scan(
		&user.ID,
		&user.Email,
		&user.Name,
		&user.PasswordHash,
		&user.Roles,
		&user.TwoFactorEnabled,
		&user.CreatedAt,
	)
	return user, err
}

const updateUserTwoFactor = `
UPDATE "user"
SET two_factor_enabled = $2
WHERE id = $1
RETURNING id, email, name, password_hash, roles, two_factor_enabled, created_at
`

type UpdateUserTwoFactorParams struct {
	ID               pgtype.UUID
	TwoFactorEnabled bool
}

func (q *Queries) UpdateUserTwoFactor(ctx context.Context, arg UpdateUserTwoFactorParams) (User, error) {
	row := q.db.QueryRow(ctx, updateUserTwoFactor, arg.ID, arg.TwoFactorEnabled)
	var user User
	err := row.Scan(
		&user.ID,
		&user.Email,
		&user.Name,
		&user.PasswordHash,
		&user.Roles,
		&user.TwoFactorEnabled,
		&user.CreatedAt,
	)
	return user, err
}
