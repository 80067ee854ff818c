package services

import (
	"context"
	"crypto/rand"
	"errors"
	"fmt"
	"math/big"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/IhorD12/authcore-backend-service/configs"
)

const twoFactorCodeDuration = 5 * time.Minute

var (
	ErrTwoFactorCodeExpired  = errors.New("two-factor code has expired or was never issued")
	ErrTwoFactorCodeMismatch = errors.New("two-factor code does not match")
)

type TwoFactorServicer interface {
	IssueCode(ctx context.Context, userId string) (string, error)
	VerifyCode(ctx context.Context, userId string, code string) error
}

type twoFactor struct {
	configs configs.Configs
}

func NewTwoFactorService(configs configs.Configs) TwoFactorServicer {
	return &twoFactor{
		configs: configs,
	}
}

func twoFactorCodeKey(userId string) string {
	return fmt.Sprintf("twofa:%s", userId)
}

func (t twoFactor) IssueCode(ctx context.Context, userId string) (string, error) {
	n, err := rand.Int(rand.Reader, big.NewInt(1000000))
	if err != nil {
		return "", fmt.Errorf("failed to generate two-factor code: %w", err)
	}

	code := fmt.Sprintf("%06d", n.Int64())
	if err := t.configs.Redis.Set(ctx, twoFactorCodeKey(userId), code, twoFactorCodeDuration).Err(); err != nil {
		return "", fmt.Errorf("failed to store two-factor code: %w", err)
	}

	return code, nil
}

// VerifyCode consumes the stored code: a second verification attempt with the
// same code fails regardless of its value.
func (t twoFactor) VerifyCode(ctx context.Context, userId string, code string) error {
	storedCode, err := t.configs.Redis.GetDel(ctx, twoFactorCodeKey(userId)).Result()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return ErrTwoFactorCodeExpired
		}
		return fmt.Errorf("failed to get two-factor code: %w", err)
	}

	if storedCode != code {
		return ErrTwoFactorCodeMismatch
	}

	return nil
}
