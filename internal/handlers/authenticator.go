package handlers

import (
	"context"
	"errors"

	"github.com/IhorD12/authcore-backend-service/internal/services"
)

// Authenticator turns a bearer token into an authenticated identity or a
// rejection. The production implementation validates signed access tokens;
// tests swap in a fixture-backed one.
type Authenticator interface {
	AuthenticateBearer(ctx context.Context, token string) (AuthenticatedUser, error)
}

type prodAuthenticator struct {
	authService services.AuthServicer
}

func NewProdAuthenticator(authService services.AuthServicer) Authenticator {
	return &prodAuthenticator{
		authService: authService,
	}
}

func (a prodAuthenticator) AuthenticateBearer(_ context.Context, token string) (AuthenticatedUser, error) {
	claims, err := a.authService.ValidateAccessToken(token)
	if err != nil {
		return AuthenticatedUser{}, err
	}

	authUser := AuthenticatedUser{
		Id:    claims.Subject,
		Email: claims.Email,
		Roles: claims.Roles,
	}

	return authUser, nil
}

type testAuthenticator struct {
	users map[string]AuthenticatedUser
}

// NewTestAuthenticator resolves bearer tokens against a fixed token-to-identity
// table, so handler tests can exercise guarded routes without minting JWTs.
func NewTestAuthenticator(users map[string]AuthenticatedUser) Authenticator {
	return &testAuthenticator{
		users: users,
	}
}

func (a testAuthenticator) AuthenticateBearer(_ context.Context, token string) (AuthenticatedUser, error) {
	authUser, ok := a.users[token]
	if !ok {
		return AuthenticatedUser{}, errors.New("unknown test token")
	}

	return authUser, nil
}
