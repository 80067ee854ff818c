package handlers

import (
	"context"
	"errors"
	"net/http"
	"strings"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"
)

type MiddlewareHandler interface {
	Logger(next http.Handler) http.Handler
	Authenticate(next http.Handler) http.Handler
	AuthorizeRoles(roles ...string) func(next http.Handler) http.Handler
}

type middleware struct {
	authenticator Authenticator
}

func NewMiddlewareHandler(authenticator Authenticator) MiddlewareHandler {
	return &middleware{
		authenticator: authenticator,
	}
}

func (m middleware) Logger(next http.Handler) http.Handler {
	return http.HandlerFunc(func(res http.ResponseWriter, req *http.Request) {
		subLogger := log.
			With().
			Str("request_id", uuid.New().String()).
			Str("method", req.Method).
			Str("path", req.URL.Path).
			Str("client_ip", req.RemoteAddr).
			Logger()

		req = req.WithContext(subLogger.WithContext(req.Context()))
		next.ServeHTTP(res, req)
	})
}

// AuthenticatedUser is the identity a successful guard attaches to the request
// context. Handlers read it through AuthUserFromContext instead of an untyped
// property bag.
type AuthenticatedUser struct {
	Id    string
	Email string
	Roles []string
}

func (u AuthenticatedUser) HasRole(role string) bool {
	for _, r := range u.Roles {
		if r == role {
			return true
		}
	}
	return false
}

type authUserKey struct{}

func AuthUserFromContext(ctx context.Context) (AuthenticatedUser, bool) {
	authUser, ok := ctx.Value(authUserKey{}).(AuthenticatedUser)
	return authUser, ok
}

func (m middleware) Authenticate(next http.Handler) http.Handler {
	return http.HandlerFunc(func(res http.ResponseWriter, req *http.Request) {
		ctx := req.Context()
		logger := log.Ctx(ctx).With().Logger()

		bearerToken := req.Header.Get("Authorization")
		accessToken, found := strings.CutPrefix(bearerToken, "Bearer ")
		if !found || accessToken == "" {
			logger.Error().Err(errors.New("invalid authorization header")).Caller().Int("status_code", http.StatusUnauthorized).Send()
			http.Error(res, http.StatusText(http.StatusUnauthorized), http.StatusUnauthorized)
			return
		}

		authUser, err := m.authenticator.AuthenticateBearer(ctx, accessToken)
		if err != nil {
			logger.Error().Err(err).Caller().Int("status_code", http.StatusUnauthorized).Msg("invalid access token")
			http.Error(res, http.StatusText(http.StatusUnauthorized), http.StatusUnauthorized)
			return
		}

		req = req.WithContext(context.WithValue(req.Context(), authUserKey{}, authUser))
		next.ServeHTTP(res, req)
	})
}

// AuthorizeRoles rejects authenticated requests whose identity carries none of
// the given roles. It must run after Authenticate.
func (m middleware) AuthorizeRoles(roles ...string) func(next http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(res http.ResponseWriter, req *http.Request) {
			ctx := req.Context()
			logger := log.Ctx(ctx).With().Logger()

			authUser, ok := AuthUserFromContext(ctx)
			if !ok {
				logger.Error().Err(errors.New("no authenticated user attached to request")).Caller().Int("status_code", http.StatusUnauthorized).Send()
				http.Error(res, http.StatusText(http.StatusUnauthorized), http.StatusUnauthorized)
				return
			}

			hasRole := false
			for _, role := range roles {
				if authUser.HasRole(role) {
					hasRole = true
					break
				}
			}

			if !hasRole {
				logger.Error().Err(errors.New("insufficient permissions")).Caller().Int("status_code", http.StatusForbidden).Send()
				http.Error(res, http.StatusText(http.StatusForbidden), http.StatusForbidden)
				return
			}

			next.ServeHTTP(res, req)
		})
	}
}
