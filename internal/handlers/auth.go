package handlers

import (
	"errors"
	"net/http"
	"strings"

	"github.com/alexedwards/argon2id"
	"github.com/jackc/pgerrcode"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/rs/zerolog/log"

	"github.com/IhorD12/authcore-backend-service/configs"
	"github.com/IhorD12/authcore-backend-service/internal/dtos"
	"github.com/IhorD12/authcore-backend-service/internal/httputil"
	"github.com/IhorD12/authcore-backend-service/internal/services"
	"github.com/IhorD12/authcore-backend-service/repository"
)

type AuthHandler interface {
	Register(res http.ResponseWriter, req *http.Request)
	Login(res http.ResponseWriter, req *http.Request)
	LoginWithGoogle(res http.ResponseWriter, req *http.Request)
	Refresh(res http.ResponseWriter, req *http.Request)
	Logout(res http.ResponseWriter, req *http.Request)
	VerifyTwoFactor(res http.ResponseWriter, req *http.Request)
}

type auth struct {
	configs          configs.Configs
	authService      services.AuthServicer
	userService      services.UserServicer
	twoFactorService services.TwoFactorServicer
}

func NewAuthHandler(
	configs configs.Configs,
	authService services.AuthServicer,
	userService services.UserServicer,
	twoFactorService services.TwoFactorServicer,
) AuthHandler {
	return &auth{
		configs:          configs,
		authService:      authService,
		userService:      userService,
		twoFactorService: twoFactorService,
	}
}

func newUserResponse(user repository.User) dtos.UserResponse {
	return dtos.UserResponse{
		Id:    user.ID.String(),
		Email: user.Email,
		Name:  user.Name,
		Roles: user.Roles,
	}
}

func (a auth) Register(res http.ResponseWriter, req *http.Request) {
	ctx := req.Context()
	logger := log.Ctx(ctx).With().Logger()

	var reqBody dtos.RegisterRequest
	if err := httputil.DecodeAndValidate(req, a.configs.Validate, &reqBody); err != nil {
		logger.Error().Err(err).Caller().Int("status_code", http.StatusBadRequest).Msg("invalid request body")
		if err := httputil.SendValidationErrorResponse(res, err); err != nil {
			logger.Error().Err(err).Caller().Int("status_code", http.StatusInternalServerError).Msg("failed to send validation error response")
			http.Error(res, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
		}
		return
	}

	result, err := a.authService.RegisterUser(ctx, services.RegisterUserParams{
		Email:    reqBody.Email,
		Name:     reqBody.Name,
		Password: reqBody.Password,
	})

	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == pgerrcode.UniqueViolation {
			logger.Error().Err(err).Caller().Int("status_code", http.StatusConflict).Msg("email is already registered")
			http.Error(res, http.StatusText(http.StatusConflict), http.StatusConflict)
		} else {
			logger.Error().Err(err).Caller().Int("status_code", http.StatusInternalServerError).Msg("failed to register user")
			http.Error(res, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
		}
		return
	}

	resBody := dtos.AuthResponse{
		RefreshToken: result.RefreshToken,
		AccessToken:  result.AccessToken,
		User:         newUserResponse(result.User),
	}

	params := httputil.SendSuccessResponseParams{
		StatusCode: http.StatusCreated,
		ResBody:    resBody,
	}

	if err := httputil.SendSuccessResponse(res, params); err != nil {
		logger.Error().Err(err).Caller().Int("status_code", http.StatusInternalServerError).Msg("failed to send success response")
		http.Error(res, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
		return
	}

	logger.Info().Int("status_code", http.StatusCreated).Msg("successfully registered user")
}

func (a auth) Login(res http.ResponseWriter, req *http.Request) {
	ctx := req.Context()
	logger := log.Ctx(ctx).With().Logger()

	var reqBody dtos.LoginRequest
	if err := httputil.DecodeAndValidate(req, a.configs.Validate, &reqBody); err != nil {
		logger.Error().Err(err).Caller().Int("status_code", http.StatusBadRequest).Msg("invalid request body")
		if err := httputil.SendValidationErrorResponse(res, err); err != nil {
			logger.Error().Err(err).Caller().Int("status_code", http.StatusInternalServerError).Msg("failed to send validation error response")
			http.Error(res, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
		}
		return
	}

	user, err := a.userService.SelectUserByEmail(ctx, reqBody.Email)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			logger.Error().Err(err).Caller().Int("status_code", http.StatusUnauthorized).Msg("invalid credentials")
			http.Error(res, http.StatusText(http.StatusUnauthorized), http.StatusUnauthorized)
		} else {
			logger.Error().Err(err).Caller().Int("status_code", http.StatusInternalServerError).Msg("failed to select user")
			http.Error(res, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
		}
		return
	}

	// accounts created through Google sign-in have no password
	if user.PasswordHash == "" {
		logger.Error().Err(errors.New("account has no password")).Caller().Int("status_code", http.StatusUnauthorized).Msg("invalid credentials")
		http.Error(res, http.StatusText(http.StatusUnauthorized), http.StatusUnauthorized)
		return
	}

	match, err := argon2id.ComparePasswordAndHash(reqBody.Password, user.PasswordHash)
	if err != nil {
		logger.Error().Err(err).Caller().Int("status_code", http.StatusInternalServerError).Msg("failed to compare password and hash")
		http.Error(res, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
		return
	}

	if !match {
		logger.Error().Err(errors.New("password does not match")).Caller().Int("status_code", http.StatusUnauthorized).Msg("invalid credentials")
		http.Error(res, http.StatusText(http.StatusUnauthorized), http.StatusUnauthorized)
		return
	}

	if user.TwoFactorEnabled {
		a.sendTwoFactorChallenge(res, req, user)
		return
	}

	result, err := a.authService.AuthenticateUser(ctx, user)
	if err != nil {
		logger.Error().Err(err).Caller().Int("status_code", http.StatusInternalServerError).Msg("failed to authenticate user")
		http.Error(res, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
		return
	}

	resBody := dtos.AuthResponse{
		RefreshToken: result.RefreshToken,
		AccessToken:  result.AccessToken,
		User:         newUserResponse(user),
	}

	params := httputil.SendSuccessResponseParams{
		StatusCode: http.StatusOK,
		ResBody:    resBody,
	}

	if err := httputil.SendSuccessResponse(res, params); err != nil {
		logger.Error().Err(err).Caller().Int("status_code", http.StatusInternalServerError).Msg("failed to send success response")
		http.Error(res, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
		return
	}

	logger.Info().Int("status_code", http.StatusOK).Msg("successfully logged in user")
}

func (a auth) sendTwoFactorChallenge(res http.ResponseWriter, req *http.Request, user repository.User) {
	ctx := req.Context()
	logger := log.Ctx(ctx).With().Logger()

	code, err := a.twoFactorService.IssueCode(ctx, user.ID.String())
	if err != nil {
		logger.Error().Err(err).Caller().Int("status_code", http.StatusInternalServerError).Msg("failed to issue two-factor code")
		http.Error(res, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
		return
	}

	// TODO: deliver the code through a real channel once an email/SMS sender
	// is wired up; until then operators read it from the debug log
	logger.Debug().Str("two_factor_code", code).Msg("issued two-factor code")

	pendingToken, err := a.authService.CreateTwoFactorToken(services.NewTwoFactorTokenClaims(a.configs.Env.OriginURL, user.ID.String()))
	if err != nil {
		logger.Error().Err(err).Caller().Int("status_code", http.StatusInternalServerError).Msg("failed to create two-factor token")
		http.Error(res, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
		return
	}

	resBody := dtos.TwoFactorChallengeResponse{
		TwoFactorRequired: true,
		PendingToken:      pendingToken,
	}

	params := httputil.SendSuccessResponseParams{
		StatusCode: http.StatusOK,
		ResBody:    resBody,
	}

	if err := httputil.SendSuccessResponse(res, params); err != nil {
		logger.Error().Err(err).Caller().Int("status_code", http.StatusInternalServerError).Msg("failed to send success response")
		http.Error(res, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
		return
	}

	logger.Info().Int("status_code", http.StatusOK).Msg("successfully sent two-factor challenge")
}

func (a auth) LoginWithGoogle(res http.ResponseWriter, req *http.Request) {
	ctx := req.Context()
	logger := log.Ctx(ctx).With().Logger()

	var reqBody dtos.GoogleLoginRequest
	if err := httputil.DecodeAndValidate(req, a.configs.Validate, &reqBody); err != nil {
		logger.Error().Err(err).Caller().Int("status_code", http.StatusBadRequest).Msg("invalid request body")
		if err := httputil.SendValidationErrorResponse(res, err); err != nil {
			logger.Error().Err(err).Caller().Int("status_code", http.StatusInternalServerError).Msg("failed to send validation error response")
			http.Error(res, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
		}
		return
	}

	idTokenResult, err := a.authService.ValidateIDToken(ctx, reqBody.IdToken)
	if err != nil {
		logger.Error().Err(err).Caller().Int("status_code", http.StatusUnauthorized).Msg("invalid Id token")
		http.Error(res, http.StatusText(http.StatusUnauthorized), http.StatusUnauthorized)
		return
	}

	user, err := a.userService.SelectUserByEmail(ctx, idTokenResult.Email)
	if err != nil && !errors.Is(err, pgx.ErrNoRows) {
		logger.Error().Err(err).Caller().Int("status_code", http.StatusInternalServerError).Msg("failed to select user")
		http.Error(res, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
		return
	}

	var resBody dtos.AuthResponse
	if errors.Is(err, pgx.ErrNoRows) {
		result, err := a.authService.RegisterUser(ctx, services.RegisterUserParams{
			Email: idTokenResult.Email,
			Name:  idTokenResult.Name,
		})

		if err != nil {
			logger.Error().Err(err).Caller().Int("status_code", http.StatusInternalServerError).Msg("failed to register user")
			http.Error(res, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
			return
		}

		resBody = dtos.AuthResponse{
			RefreshToken: result.RefreshToken,
			AccessToken:  result.AccessToken,
			User:         newUserResponse(result.User),
		}
	} else {
		result, err := a.authService.AuthenticateUser(ctx, user)
		if err != nil {
			logger.Error().Err(err).Caller().Int("status_code", http.StatusInternalServerError).Msg("failed to authenticate user")
			http.Error(res, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
			return
		}

		resBody = dtos.AuthResponse{
			RefreshToken: result.RefreshToken,
			AccessToken:  result.AccessToken,
			User:         newUserResponse(user),
		}
	}

	params := httputil.SendSuccessResponseParams{
		StatusCode: http.StatusOK,
		ResBody:    resBody,
	}

	if err := httputil.SendSuccessResponse(res, params); err != nil {
		logger.Error().Err(err).Caller().Int("status_code", http.StatusInternalServerError).Msg("failed to send success response")
		http.Error(res, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
		return
	}

	logger.Info().Int("status_code", http.StatusOK).Msg("successfully logged in user with Google")
}

func (a auth) Refresh(res http.ResponseWriter, req *http.Request) {
	ctx := req.Context()
	logger := log.Ctx(ctx).With().Logger()

	var reqBody dtos.RefreshTokenRequest
	if err := httputil.DecodeAndValidate(req, a.configs.Validate, &reqBody); err != nil {
		logger.Error().Err(err).Caller().Int("status_code", http.StatusBadRequest).Msg("invalid request body")
		if err := httputil.SendValidationErrorResponse(res, err); err != nil {
			logger.Error().Err(err).Caller().Int("status_code", http.StatusInternalServerError).Msg("failed to send validation error response")
			http.Error(res, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
		}
		return
	}

	claims, err := a.authService.ValidateRefreshToken(strings.TrimSpace(reqBody.RefreshToken))
	if err != nil {
		logger.Error().Err(err).Caller().Int("status_code", http.StatusUnauthorized).Msg("invalid refresh token")
		http.Error(res, http.StatusText(http.StatusUnauthorized), http.StatusUnauthorized)
		return
	}

	result, err := a.authService.RotateRefreshToken(ctx, services.RotateRefreshTokenParams{
		Jti:       claims.ID,
		UserId:    claims.Subject,
		ExpiresAt: claims.ExpiresAt.Time,
	})

	if err != nil {
		switch {
		case errors.Is(err, services.ErrRefreshTokenReused):
			logger.Warn().Err(err).Caller().Int("status_code", http.StatusUnauthorized).Str("user_id", claims.Subject).Msg("refresh token reuse detected")
			http.Error(res, http.StatusText(http.StatusUnauthorized), http.StatusUnauthorized)
		case errors.Is(err, pgx.ErrNoRows):
			logger.Error().Err(err).Caller().Int("status_code", http.StatusUnauthorized).Msg("refresh token is revoked or unknown")
			http.Error(res, http.StatusText(http.StatusUnauthorized), http.StatusUnauthorized)
		default:
			logger.Error().Err(err).Caller().Int("status_code", http.StatusInternalServerError).Msg("failed to rotate refresh token")
			http.Error(res, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
		}
		return
	}

	resBody := dtos.RefreshResponse{
		RefreshToken: result.RefreshToken,
		AccessToken:  result.AccessToken,
	}

	params := httputil.SendSuccessResponseParams{
		StatusCode: http.StatusOK,
		ResBody:    resBody,
	}

	if err := httputil.SendSuccessResponse(res, params); err != nil {
		logger.Error().Err(err).Caller().Int("status_code", http.StatusInternalServerError).Msg("failed to send success response")
		http.Error(res, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
		return
	}

	logger.Info().Int("status_code", http.StatusOK).Msg("successfully rotated refresh token")
}

func (a auth) Logout(res http.ResponseWriter, req *http.Request) {
	ctx := req.Context()
	logger := log.Ctx(ctx).With().Logger()

	var reqBody dtos.LogoutRequest
	if err := httputil.DecodeAndValidate(req, a.configs.Validate, &reqBody); err != nil {
		logger.Error().Err(err).Caller().Int("status_code", http.StatusBadRequest).Msg("invalid request body")
		if err := httputil.SendValidationErrorResponse(res, err); err != nil {
			logger.Error().Err(err).Caller().Int("status_code", http.StatusInternalServerError).Msg("failed to send validation error response")
			http.Error(res, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
		}
		return
	}

	claims, err := a.authService.ValidateRefreshToken(strings.TrimSpace(reqBody.RefreshToken))
	if err != nil {
		logger.Error().Err(err).Caller().Int("status_code", http.StatusUnauthorized).Msg("invalid refresh token")
		http.Error(res, http.StatusText(http.StatusUnauthorized), http.StatusUnauthorized)
		return
	}

	err = a.authService.RevokeRefreshToken(ctx, services.RevokeRefreshTokenParams{
		Jti:    claims.ID,
		UserId: claims.Subject,
	})

	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			logger.Error().Err(err).Caller().Int("status_code", http.StatusUnauthorized).Msg("refresh token is revoked or unknown")
			http.Error(res, http.StatusText(http.StatusUnauthorized), http.StatusUnauthorized)
		} else {
			logger.Error().Err(err).Caller().Int("status_code", http.StatusInternalServerError).Msg("failed to revoke refresh token")
			http.Error(res, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
		}
		return
	}

	resBody := dtos.LogoutResponse{
		Message: "Successfully logged out",
	}

	params := httputil.SendSuccessResponseParams{
		StatusCode: http.StatusOK,
		ResBody:    resBody,
	}

	if err := httputil.SendSuccessResponse(res, params); err != nil {
		logger.Error().Err(err).Caller().Int("status_code", http.StatusInternalServerError).Msg("failed to send success response")
		http.Error(res, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
		return
	}

	logger.Info().Int("status_code", http.StatusOK).Msg("successfully logged out user")
}

func (a auth) VerifyTwoFactor(res http.ResponseWriter, req *http.Request) {
	ctx := req.Context()
	logger := log.Ctx(ctx).With().Logger()

	bearerToken := req.Header.Get("Authorization")
	pendingToken, found := strings.CutPrefix(bearerToken, "Bearer ")
	if !found || pendingToken == "" {
		logger.Error().Err(errors.New("invalid authorization header")).Caller().Int("status_code", http.StatusUnauthorized).Send()
		http.Error(res, http.StatusText(http.StatusUnauthorized), http.StatusUnauthorized)
		return
	}

	claims, err := a.authService.ValidateTwoFactorToken(pendingToken)
	if err != nil {
		logger.Error().Err(err).Caller().Int("status_code", http.StatusUnauthorized).Msg("invalid two-factor token")
		http.Error(res, http.StatusText(http.StatusUnauthorized), http.StatusUnauthorized)
		return
	}

	var reqBody dtos.TwoFactorVerifyRequest
	if err := httputil.DecodeAndValidate(req, a.configs.Validate, &reqBody); err != nil {
		logger.Error().Err(err).Caller().Int("status_code", http.StatusBadRequest).Msg("invalid request body")
		if err := httputil.SendValidationErrorResponse(res, err); err != nil {
			logger.Error().Err(err).Caller().Int("status_code", http.StatusInternalServerError).Msg("failed to send validation error response")
			http.Error(res, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
		}
		return
	}

	err = a.twoFactorService.VerifyCode(ctx, claims.Subject, reqBody.Token)
	if err != nil {
		if errors.Is(err, services.ErrTwoFactorCodeExpired) || errors.Is(err, services.ErrTwoFactorCodeMismatch) {
			logger.Error().Err(err).Caller().Int("status_code", http.StatusUnauthorized).Msg("two-factor verification failed")
			http.Error(res, http.StatusText(http.StatusUnauthorized), http.StatusUnauthorized)
		} else {
			logger.Error().Err(err).Caller().Int("status_code", http.StatusInternalServerError).Msg("failed to verify two-factor code")
			http.Error(res, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
		}
		return
	}

	user, err := a.userService.SelectUserById(ctx, claims.Subject)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			logger.Error().Err(err).Caller().Int("status_code", http.StatusUnauthorized).Msg("user not found")
			http.Error(res, http.StatusText(http.StatusUnauthorized), http.StatusUnauthorized)
		} else {
			logger.Error().Err(err).Caller().Int("status_code", http.StatusInternalServerError).Msg("failed to select user")
			http.Error(res, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
		}
		return
	}

	result, err := a.authService.AuthenticateUser(ctx, user)
	if err != nil {
		logger.Error().Err(err).Caller().Int("status_code", http.StatusInternalServerError).Msg("failed to authenticate user")
		http.Error(res, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
		return
	}

	resBody := dtos.AuthResponse{
		RefreshToken: result.RefreshToken,
		AccessToken:  result.AccessToken,
		User:         newUserResponse(user),
	}

	params := httputil.SendSuccessResponseParams{
		StatusCode: http.StatusOK,
		ResBody:    resBody,
	}

	if err := httputil.SendSuccessResponse(res, params); err != nil {
		logger.Error().Err(err).Caller().Int("status_code", http.StatusInternalServerError).Msg("failed to send success response")
		http.Error(res, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
		return
	}

	logger.Info().Int("status_code", http.StatusOK).Msg("successfully verified two-factor code")
}
