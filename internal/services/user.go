package services

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgtype"

	"github.com/IhorD12/authcore-backend-service/configs"
	"github.com/IhorD12/authcore-backend-service/internal/retryutil"
	"github.com/IhorD12/authcore-backend-service/repository"
)

type UserServicer interface {
	SelectUserById(ctx context.Context, userId string) (repository.User, error)
	SelectUserByEmail(ctx context.Context, email string) (repository.User, error)
	UpdateUserTwoFactor(ctx context.Context, userId string, enabled bool) (repository.User, error)
}

type user struct {
	configs configs.Configs
}

func NewUserService(configs configs.Configs) UserServicer {
	return &user{
		configs: configs,
	}
}

func (u user) SelectUserById(ctx context.Context, userId string) (repository.User, error) {
	return retryutil.RetryWithData(func() (repository.User, error) {
		userUUID, err := uuid.Parse(userId)
		if err != nil {
			return repository.User{}, fmt.Errorf("failed to parse user Id to UUID: %w", err)
		}

		return u.configs.Db.Queries.SelectUserById(ctx, pgtype.UUID{Bytes: userUUID, Valid: true})
	})
}

func (u user) SelectUserByEmail(ctx context.Context, email string) (repository.User, error) {
	return retryutil.RetryWithData(func() (repository.User, error) {
		return u.configs.Db.Queries.SelectUserByEmail(ctx, email)
	})
}

func (u user) UpdateUserTwoFactor(ctx context.Context, userId string, enabled bool) (repository.User, error) {
	return retryutil.RetryWithData(func() (repository.User, error) {
		userUUID, err := uuid.Parse(userId)
		if err != nil {
			return repository.User{}, fmt.Errorf("failed to parse user Id to UUID: %w", err)
		}

		return u.configs.Db.Queries.UpdateUserTwoFactor(ctx, repository.UpdateUserTwoFactorParams{
			ID:               pgtype.UUID{Bytes: userUUID, Valid: true},
			TwoFactorEnabled: enabled,
		})
	})
}
