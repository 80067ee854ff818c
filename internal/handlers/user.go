package handlers

import (
	"errors"
	"net/http"

	"github.com/jackc/pgx/v5"
	"github.com/rs/zerolog/log"

	"github.com/IhorD12/authcore-backend-service/configs"
	"github.com/IhorD12/authcore-backend-service/internal/dtos"
	"github.com/IhorD12/authcore-backend-service/internal/httputil"
	"github.com/IhorD12/authcore-backend-service/internal/services"
)

type UserHandler interface {
	GetProfile(res http.ResponseWriter, req *http.Request)
	GetAdminDashboard(res http.ResponseWriter, req *http.Request)
	UpdateTwoFactorSettings(res http.ResponseWriter, req *http.Request)
}

type user struct {
	configs     configs.Configs
	userService services.UserServicer
}

func NewUserHandler(configs configs.Configs, userService services.UserServicer) UserHandler {
	return &user{
		configs:     configs,
		userService: userService,
	}
}

func (u user) GetProfile(res http.ResponseWriter, req *http.Request) {
	ctx := req.Context()
	logger := log.Ctx(ctx).With().Logger()

	// Authenticate already rejects unauthenticated requests, this only guards
	// against the route being mounted without the middleware
	authUser, ok := AuthUserFromContext(ctx)
	if !ok || authUser.Id == "" {
		logger.Error().Err(errors.New("no authenticated user attached to request")).Caller().Int("status_code", http.StatusUnauthorized).Send()
		http.Error(res, http.StatusText(http.StatusUnauthorized), http.StatusUnauthorized)
		return
	}

	resBody := dtos.ProfileResponse{
		Message: "Profile fetched successfully",
		User: dtos.UserResponse{
			Id:    authUser.Id,
			Email: authUser.Email,
			Roles: authUser.Roles,
		},
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

	logger.Info().Int("status_code", http.StatusOK).Msg("successfully got profile")
}

func (u user) GetAdminDashboard(res http.ResponseWriter, req *http.Request) {
	ctx := req.Context()
	logger := log.Ctx(ctx).With().Logger()

	authUser, ok := AuthUserFromContext(ctx)
	if !ok || authUser.Id == "" {
		logger.Error().Err(errors.New("no authenticated user attached to request")).Caller().Int("status_code", http.StatusUnauthorized).Send()
		http.Error(res, http.StatusText(http.StatusUnauthorized), http.StatusUnauthorized)
		return
	}

	resBody := dtos.AdminDashboardResponse{
		Message: "Welcome to the admin dashboard",
		AdminDetails: dtos.AdminDetails{
			UserId: authUser.Id,
			Email:  authUser.Email,
			Roles:  authUser.Roles,
		},
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

	logger.Info().Int("status_code", http.StatusOK).Msg("successfully got admin dashboard")
}

func (u user) UpdateTwoFactorSettings(res http.ResponseWriter, req *http.Request) {
	ctx := req.Context()
	logger := log.Ctx(ctx).With().Logger()

	authUser, ok := AuthUserFromContext(ctx)
	if !ok || authUser.Id == "" {
		logger.Error().Err(errors.New("no authenticated user attached to request")).Caller().Int("status_code", http.StatusUnauthorized).Send()
		http.Error(res, http.StatusText(http.StatusUnauthorized), http.StatusUnauthorized)
		return
	}

	var reqBody dtos.TwoFactorSettingsRequest
	if err := httputil.DecodeAndValidate(req, u.configs.Validate, &reqBody); err != nil {
		logger.Error().Err(err).Caller().Int("status_code", http.StatusBadRequest).Msg("invalid request body")
		if err := httputil.SendValidationErrorResponse(res, err); err != nil {
			logger.Error().Err(err).Caller().Int("status_code", http.StatusInternalServerError).Msg("failed to send validation error response")
			http.Error(res, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
		}
		return
	}

	updatedUser, err := u.userService.UpdateUserTwoFactor(ctx, authUser.Id, *reqBody.Enabled)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			logger.Error().Err(err).Caller().Int("status_code", http.StatusNotFound).Msg("user not found")
			http.Error(res, http.StatusText(http.StatusNotFound), http.StatusNotFound)
		} else {
			logger.Error().Err(err).Caller().Int("status_code", http.StatusInternalServerError).Msg("failed to update two-factor settings")
			http.Error(res, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
		}
		return
	}

	resBody := dtos.TwoFactorSettingsResponse{
		Message:          "Two-factor settings updated successfully",
		TwoFactorEnabled: updatedUser.TwoFactorEnabled,
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

	logger.Info().Int("status_code", http.StatusOK).Msg("successfully updated two-factor settings")
}
