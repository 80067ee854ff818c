package configs

import (
	"context"
	"fmt"

	"github.com/IhorD12/authcore-backend-service/repository"
	"github.com/jackc/pgx/v5/pgxpool"
)

type Db struct {
	Conn    *pgxpool.Pool
	Queries *repository.Queries
}

func NewDb(ctx context.Context, databaseURL string) (Db, error) {
	conn, err := pgxpool.New(ctx, databaseURL)
	if err != nil {
		return Db{}, fmt.Errorf("failed to create database connection pool: %w", err)
	}

	if err := conn.Ping(ctx); err != nil {
		return Db{}, fmt.Errorf("failed to ping database: %w", err)
	}

	db := Db{
		Conn:    conn,
		Queries: repository.New(conn),
	}

	return db, nil
}
