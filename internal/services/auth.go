package services

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/alexedwards/argon2id"
	"github.com/avast/retry-go/v4"
	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"github.com/jackc/pgerrcode"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgtype"

	"github.com/IhorD12/authcore-backend-service/configs"
	"github.com/IhorD12/authcore-backend-service/internal/dbutil"
	"github.com/IhorD12/authcore-backend-service/internal/retryutil"
	"github.com/IhorD12/authcore-backend-service/repository"
	"google.golang.org/api/idtoken"
)

const (
	refreshTokenDuration   = 30 * 24 * time.Hour
	accessTokenDuration    = 5 * time.Minute
	twoFactorTokenDuration = 5 * time.Minute
)

// ErrRefreshTokenReused marks a rotation attempt with a token that was
// already rotated or logged out, which suggests the token leaked.
var ErrRefreshTokenReused = errors.New("refresh token has already been used")

type AuthServicer interface {
	ValidateIDToken(ctx context.Context, idToken string) (validateIDTokenResult, error)
	CreateRefreshToken(claims RefreshTokenClaims) (string, error)
	ValidateRefreshToken(tokenString string) (*RefreshTokenClaims, error)
	CreateAccessToken(claims AccessTokenClaims) (string, error)
	ValidateAccessToken(tokenString string) (*AccessTokenClaims, error)
	CreateTwoFactorToken(claims TwoFactorTokenClaims) (string, error)
	ValidateTwoFactorToken(tokenString string) (*TwoFactorTokenClaims, error)
	RotateRefreshToken(ctx context.Context, arg RotateRefreshTokenParams) (rotateRefreshTokenResult, error)
	RevokeRefreshToken(ctx context.Context, arg RevokeRefreshTokenParams) error
	RegisterUser(ctx context.Context, arg RegisterUserParams) (registerUserResult, error)
	AuthenticateUser(ctx context.Context, user repository.User) (authenticateUserResult, error)
}

type auth struct {
	configs configs.Configs
}

func NewAuthService(configs configs.Configs) AuthServicer {
	return &auth{
		configs: configs,
	}
}

type validateIDTokenResult struct {
	Subject string
	Email   string
	Name    string
}

func (a auth) ValidateIDToken(ctx context.Context, idToken string) (validateIDTokenResult, error) {
	validator, err := idtoken.NewValidator(ctx)
	if err != nil {
		return validateIDTokenResult{}, err
	}

	payload, err := validator.Validate(ctx, idToken, a.configs.Env.ClientId)
	if err != nil {
		return validateIDTokenResult{}, fmt.Errorf("failed to validate Id token: %w", err)
	}

	emailRaw, exists := payload.Claims["email"]
	if !exists {
		return validateIDTokenResult{}, errors.New("email claim is missing")
	}

	email, ok := emailRaw.(string)
	if !ok {
		return validateIDTokenResult{}, errors.New("email claim is not a string")
	}

	nameRaw, exists := payload.Claims["name"]
	if !exists {
		return validateIDTokenResult{}, errors.New("name claim is missing")
	}

	name, ok := nameRaw.(string)
	if !ok {
		return validateIDTokenResult{}, errors.New("name claim is not a string")
	}

	validateIDTokenResult := validateIDTokenResult{
		Subject: payload.Subject,
		Email:   email,
		Name:    name,
	}

	return validateIDTokenResult, nil
}

type TokenType int

const (
	Refresh TokenType = iota
	Access
	TwoFactor
)

type RefreshTokenClaims struct {
	Type TokenType `json:"type"`
	jwt.RegisteredClaims
}

func (a auth) CreateRefreshToken(claims RefreshTokenClaims) (string, error) {
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString([]byte(a.configs.Env.SecretKey))
}

func (a auth) ValidateRefreshToken(tokenString string) (*RefreshTokenClaims, error) {
	token, err := jwt.ParseWithClaims(
		tokenString,
		&RefreshTokenClaims{},
		func(_ *jwt.Token) (interface{}, error) {
			return []byte(a.configs.Env.SecretKey), nil
		},
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Name}),
		jwt.WithIssuer(a.configs.Env.OriginURL),
		jwt.WithIssuedAt(),
		jwt.WithExpirationRequired(),
	)

	if err != nil || !token.Valid {
		return nil, fmt.Errorf("invalid refresh token: %w", err)
	}

	claims, ok := token.Claims.(*RefreshTokenClaims)
	if !ok {
		return nil, errors.New("invalid refresh token claims")
	}

	if claims.Type != Refresh {
		return nil, errors.New("invalid refresh token type")
	}

	return claims, nil
}

// AccessTokenClaims carry the identity the request guards need so that
// authenticating a request never hits the user store.
type AccessTokenClaims struct {
	Type  TokenType `json:"type"`
	Email string    `json:"email"`
	Roles []string  `json:"roles"`
	jwt.RegisteredClaims
}

func (a auth) CreateAccessToken(claims AccessTokenClaims) (string, error) {
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString([]byte(a.configs.Env.SecretKey))
}

func (a auth) ValidateAccessToken(tokenString string) (*AccessTokenClaims, error) {
	token, err := jwt.ParseWithClaims(
		tokenString,
		&AccessTokenClaims{},
		func(_ *jwt.Token) (interface{}, error) {
			return []byte(a.configs.Env.SecretKey), nil
		},
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Name}),
		jwt.WithIssuer(a.configs.Env.OriginURL),
		jwt.WithIssuedAt(),
		jwt.WithExpirationRequired(),
	)

	if err != nil || !token.Valid {
		return nil, fmt.Errorf("invalid access token: %w", err)
	}

	claims, ok := token.Claims.(*AccessTokenClaims)
	if !ok {
		return nil, errors.New("invalid access token claims")
	}

	if claims.Type != Access {
		return nil, errors.New("invalid access token type")
	}

	return claims, nil
}

// TwoFactorTokenClaims are the short-lived pending tokens issued after a
// password login on an account with 2FA enabled. They grant access to the
// code-verification endpoint only.
type TwoFactorTokenClaims struct {
	Type TokenType `json:"type"`
	jwt.RegisteredClaims
}

func NewTwoFactorTokenClaims(issuer string, userId string) TwoFactorTokenClaims {
	now := time.Now()
	return TwoFactorTokenClaims{
		Type: TwoFactor,
		RegisteredClaims: jwt.RegisteredClaims{
			ExpiresAt: jwt.NewNumericDate(now.Add(twoFactorTokenDuration)),
			IssuedAt:  jwt.NewNumericDate(now),
			Issuer:    issuer,
			Subject:   userId,
		},
	}
}

func (a auth) CreateTwoFactorToken(claims TwoFactorTokenClaims) (string, error) {
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString([]byte(a.configs.Env.SecretKey))
}

func (a auth) ValidateTwoFactorToken(tokenString string) (*TwoFactorTokenClaims, error) {
	token, err := jwt.ParseWithClaims(
		tokenString,
		&TwoFactorTokenClaims{},
		func(_ *jwt.Token) (interface{}, error) {
			return []byte(a.configs.Env.SecretKey), nil
		},
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Name}),
		jwt.WithIssuer(a.configs.Env.OriginURL),
		jwt.WithIssuedAt(),
		jwt.WithExpirationRequired(),
	)

	if err != nil || !token.Valid {
		return nil, fmt.Errorf("invalid two-factor token: %w", err)
	}

	claims, ok := token.Claims.(*TwoFactorTokenClaims)
	if !ok {
		return nil, errors.New("invalid two-factor token claims")
	}

	if claims.Type != TwoFactor {
		return nil, errors.New("invalid two-factor token type")
	}

	return claims, nil
}

func (a auth) newRefreshTokenClaims(now time.Time, userId string, expiresAt time.Time) RefreshTokenClaims {
	return RefreshTokenClaims{
		Type: Refresh,
		RegisteredClaims: jwt.RegisteredClaims{
			ID:        uuid.NewString(),
			ExpiresAt: jwt.NewNumericDate(expiresAt),
			IssuedAt:  jwt.NewNumericDate(now),
			Issuer:    a.configs.Env.OriginURL,
			Subject:   userId,
		},
	}
}

func (a auth) newAccessTokenClaims(now time.Time, user repository.User) AccessTokenClaims {
	return AccessTokenClaims{
		Type:  Access,
		Email: user.Email,
		Roles: user.Roles,
		RegisteredClaims: jwt.RegisteredClaims{
			ExpiresAt: jwt.NewNumericDate(now.Add(accessTokenDuration)),
			IssuedAt:  jwt.NewNumericDate(now),
			Issuer:    a.configs.Env.OriginURL,
			Subject:   user.ID.String(),
		},
	}
}

type RotateRefreshTokenParams struct {
	Jti       string
	UserId    string
	ExpiresAt time.Time
}

type rotateRefreshTokenResult struct {
	RefreshToken string
	AccessToken  string
}

func (a auth) RotateRefreshToken(ctx context.Context, arg RotateRefreshTokenParams) (rotateRefreshTokenResult, error) {
	retryableFunc := func(qtx *repository.Queries) (rotateRefreshTokenResult, error) {
		oldRefreshTokenId, err := uuid.Parse(arg.Jti)
		if err != nil {
			return rotateRefreshTokenResult{}, fmt.Errorf("failed to parse old JTI to UUID: %w", err)
		}

		userUUID, err := uuid.Parse(arg.UserId)
		if err != nil {
			return rotateRefreshTokenResult{}, fmt.Errorf("failed to parse user Id to UUID: %w", err)
		}

		err = qtx.RevokeRefreshToken(ctx, repository.RevokeRefreshTokenParams{
			ID:     pgtype.UUID{Bytes: oldRefreshTokenId, Valid: true},
			UserID: pgtype.UUID{Bytes: userUUID, Valid: true},
		})

		if err != nil {
			// a missing or already-revoked row is a final verdict, retrying
			// the transaction cannot change it
			if errors.Is(err, pgx.ErrNoRows) {
				storedToken, selectErr := qtx.SelectRefreshTokenById(ctx, pgtype.UUID{Bytes: oldRefreshTokenId, Valid: true})
				if selectErr == nil && storedToken.Revoked {
					return rotateRefreshTokenResult{}, retry.Unrecoverable(ErrRefreshTokenReused)
				}
				return rotateRefreshTokenResult{}, retry.Unrecoverable(fmt.Errorf("failed to revoke refresh token: %w", err))
			}
			return rotateRefreshTokenResult{}, fmt.Errorf("failed to revoke refresh token: %w", err)
		}

		user, err := qtx.SelectUserById(ctx, pgtype.UUID{Bytes: userUUID, Valid: true})
		if err != nil {
			if errors.Is(err, pgx.ErrNoRows) {
				return rotateRefreshTokenResult{}, retry.Unrecoverable(fmt.Errorf("failed to select user: %w", err))
			}
			return rotateRefreshTokenResult{}, fmt.Errorf("failed to select user: %w", err)
		}

		// the rotated token inherits the remaining lifetime of the old one
		now := time.Now()
		refreshTokenClaims := a.newRefreshTokenClaims(now, arg.UserId, arg.ExpiresAt)

		refreshToken, err := a.CreateRefreshToken(refreshTokenClaims)
		if err != nil {
			return rotateRefreshTokenResult{}, fmt.Errorf("failed to create refresh token: %w", err)
		}

		accessToken, err := a.CreateAccessToken(a.newAccessTokenClaims(now, user))
		if err != nil {
			return rotateRefreshTokenResult{}, fmt.Errorf("failed to create access token: %w", err)
		}

		newRefreshTokenId, err := uuid.Parse(refreshTokenClaims.ID)
		if err != nil {
			return rotateRefreshTokenResult{}, fmt.Errorf("failed to parse new JTI to UUID: %w", err)
		}

		err = qtx.InsertRefreshToken(ctx, repository.InsertRefreshTokenParams{
			ID:        pgtype.UUID{Bytes: newRefreshTokenId, Valid: true},
			UserID:    pgtype.UUID{Bytes: userUUID, Valid: true},
			ExpiresAt: pgtype.Timestamptz{Time: refreshTokenClaims.ExpiresAt.Time, Valid: true},
		})

		if err != nil {
			return rotateRefreshTokenResult{}, fmt.Errorf("failed to insert refresh token: %w", err)
		}

		rotateRefreshTokenResult := rotateRefreshTokenResult{
			RefreshToken: refreshToken,
			AccessToken:  accessToken,
		}

		return rotateRefreshTokenResult, nil
	}

	return dbutil.RetryableTxWithData(ctx, a.configs.Db.Conn, a.configs.Db.Queries, retryableFunc)
}

type RevokeRefreshTokenParams struct {
	Jti    string
	UserId string
}

func (a auth) RevokeRefreshToken(ctx context.Context, arg RevokeRefreshTokenParams) error {
	refreshTokenId, err := uuid.Parse(arg.Jti)
	if err != nil {
		return fmt.Errorf("failed to parse JTI to UUID: %w", err)
	}

	userUUID, err := uuid.Parse(arg.UserId)
	if err != nil {
		return fmt.Errorf("failed to parse user Id to UUID: %w", err)
	}

	return retryutil.RetryWithoutData(func() error {
		err := a.configs.Db.Queries.RevokeRefreshToken(ctx, repository.RevokeRefreshTokenParams{
			ID:     pgtype.UUID{Bytes: refreshTokenId, Valid: true},
			UserID: pgtype.UUID{Bytes: userUUID, Valid: true},
		})

		if errors.Is(err, pgx.ErrNoRows) {
			return retry.Unrecoverable(err)
		}

		return err
	})
}

type RegisterUserParams struct {
	Email    string
	Name     string
	Password string
}

type registerUserResult struct {
	User         repository.User
	RefreshToken string
	AccessToken  string
}

func (a auth) RegisterUser(ctx context.Context, arg RegisterUserParams) (registerUserResult, error) {
	passwordHash := ""
	if arg.Password != "" {
		hash, err := argon2id.CreateHash(arg.Password, argon2id.DefaultParams)
		if err != nil {
			return registerUserResult{}, fmt.Errorf("failed to hash password: %w", err)
		}
		passwordHash = hash
	}

	retryableFunc := func(qtx *repository.Queries) (registerUserResult, error) {
		user, err := qtx.InsertUser(ctx, repository.InsertUserParams{
			ID:           pgtype.UUID{Bytes: uuid.New(), Valid: true},
			Email:        arg.Email,
			Name:         arg.Name,
			PasswordHash: passwordHash,
			Roles:        []string{"user"},
		})

		if err != nil {
			var pgErr *pgconn.PgError
			if errors.As(err, &pgErr) && pgErr.Code == pgerrcode.UniqueViolation {
				return registerUserResult{}, retry.Unrecoverable(fmt.Errorf("failed to insert user: %w", err))
			}
			return registerUserResult{}, fmt.Errorf("failed to insert user: %w", err)
		}

		now := time.Now()
		refreshTokenClaims := a.newRefreshTokenClaims(now, user.ID.String(), now.Add(refreshTokenDuration))

		refreshToken, err := a.CreateRefreshToken(refreshTokenClaims)
		if err != nil {
			return registerUserResult{}, fmt.Errorf("failed to create refresh token: %w", err)
		}

		accessToken, err := a.CreateAccessToken(a.newAccessTokenClaims(now, user))
		if err != nil {
			return registerUserResult{}, fmt.Errorf("failed to create access token: %w", err)
		}

		refreshTokenUUID, err := uuid.Parse(refreshTokenClaims.ID)
		if err != nil {
			return registerUserResult{}, fmt.Errorf("failed to parse JTI to UUID: %w", err)
		}

		err = qtx.InsertRefreshToken(ctx, repository.InsertRefreshTokenParams{
			ID:        pgtype.UUID{Bytes: refreshTokenUUID, Valid: true},
			UserID:    user.ID,
			ExpiresAt: pgtype.Timestamptz{Time: refreshTokenClaims.ExpiresAt.Time, Valid: true},
		})

		if err != nil {
			return registerUserResult{}, fmt.Errorf("failed to insert refresh token: %w", err)
		}

		registerUserResult := registerUserResult{
			User:         user,
			RefreshToken: refreshToken,
			AccessToken:  accessToken,
		}

		return registerUserResult, nil
	}

	return dbutil.RetryableTxWithData(ctx, a.configs.Db.Conn, a.configs.Db.Queries, retryableFunc)
}

type authenticateUserResult struct {
	RefreshToken string
	AccessToken  string
}

func (a auth) AuthenticateUser(ctx context.Context, user repository.User) (authenticateUserResult, error) {
	now := time.Now()
	refreshTokenClaims := a.newRefreshTokenClaims(now, user.ID.String(), now.Add(refreshTokenDuration))

	refreshToken, err := a.CreateRefreshToken(refreshTokenClaims)
	if err != nil {
		return authenticateUserResult{}, fmt.Errorf("failed to create refresh token: %w", err)
	}

	accessToken, err := a.CreateAccessToken(a.newAccessTokenClaims(now, user))
	if err != nil {
		return authenticateUserResult{}, fmt.Errorf("failed to create access token: %w", err)
	}

	refreshTokenUUID, err := uuid.Parse(refreshTokenClaims.ID)
	if err != nil {
		return authenticateUserResult{}, fmt.Errorf("failed to parse JTI to UUID: %w", err)
	}

	err = retryutil.RetryWithoutData(func() error {
		return a.configs.Db.Queries.InsertRefreshToken(ctx, repository.InsertRefreshTokenParams{
			ID:        pgtype.UUID{Bytes: refreshTokenUUID, Valid: true},
			UserID:    user.ID,
			ExpiresAt: pgtype.Timestamptz{Time: refreshTokenClaims.ExpiresAt.Time, Valid: true},
		})
	})

	if err != nil {
		return authenticateUserResult{}, fmt.Errorf("failed to insert refresh token: %w", err)
	}

	authenticateUserResult := authenticateUserResult{
		RefreshToken: refreshToken,
		AccessToken:  accessToken,
	}

	return authenticateUserResult, nil
}
