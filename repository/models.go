package repository

import "github.com/jackc/pgx/v5/pgtype"

type User struct {
	ID               pgtype.UUID
	Email            string
	Name             string
	PasswordHash     string
	Roles            []string
	TwoFactorEnabled bool
	CreatedAt        pgtype.Timestamptz
}

type RefreshToken struct {
	ID        pgtype.UUID
	UserID    pgtype.UUID
	ExpiresAt pgtype.Timestamptz
	Revoked   bool
}
