package main

import (
	"context"
	"path/filepath"
	"strconv"
	"time"

	"github.com/alexedwards/argon2id"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgtype"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"github.com/IhorD12/authcore-backend-service/configs"
	"github.com/IhorD12/authcore-backend-service/internal/retryutil"
	"github.com/IhorD12/authcore-backend-service/repository"
)

func main() {
	zerolog.TimeFieldFormat = zerolog.TimeFormatUnix
	zerolog.CallerMarshalFunc = func(_ uintptr, file string, line int) string {
		return filepath.Base(file) + ":" + strconv.Itoa(line)
	}
	logger := log.With().Caller().Logger()

	env, err := configs.LoadEnv()
	if err != nil {
		logger.Fatal().Err(err).Send()
	}

	ctx, cancel := context.WithTimeout(context.Background(), time.Second*10)
	defer cancel()

	db, err := configs.NewDb(ctx, env.DatabaseURL)
	if err != nil {
		logger.Fatal().Err(err).Send()
	}

	passwordHash, err := argon2id.CreateHash("admin12345", argon2id.DefaultParams)
	if err != nil {
		logger.Fatal().Err(err).Msg("failed to hash admin password")
	}

	admin, err := retryutil.RetryWithData(func() (repository.User, error) {
		return db.Queries.InsertUser(ctx, repository.InsertUserParams{
			ID:           pgtype.UUID{Bytes: uuid.New(), Valid: true},
			Email:        "admin@example.com",
			Name:         "admin",
			PasswordHash: passwordHash,
			Roles:        []string{"user", "admin"},
		})
	})

	if err != nil {
		logger.Fatal().Err(err).Msg("failed to seed admin user")
	}

	logger.Info().Str("user_id", admin.ID.String()).Msg("successfully seeded admin user")
}
