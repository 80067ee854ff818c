package handlers

import (
	"bytes"
	"context"
	"fmt"
	"net/http"
	"testing"
	"time"

	"github.com/goccy/go-json"
	"github.com/google/go-cmp/cmp"
	"github.com/google/uuid"

	"github.com/IhorD12/authcore-backend-service/internal/dtos"
	"github.com/IhorD12/authcore-backend-service/internal/httputil"
	"github.com/IhorD12/authcore-backend-service/internal/services"
)

func doPost(t *testing.T, path string, bearerToken string, reqBody string) *http.Response {
	t.Helper()

	url := fmt.Sprintf("%s%s", testServer.URL, path)
	req, err := http.NewRequestWithContext(context.TODO(), http.MethodPost, url, bytes.NewBuffer([]byte(reqBody)))
	if err != nil {
		t.Fatalf("wasn't expecting error, got: %v", err)
	}

	req.Header.Set("Content-Type", "application/json")
	if bearerToken != "" {
		req.Header.Set("Authorization", fmt.Sprintf("Bearer %s", bearerToken))
	}

	res, err := testClient.Do(req)
	if err != nil {
		t.Fatalf("wasn't expecting error, got: %v", err)
	}

	return res
}

func TestRefreshValidation(t *testing.T) {
	refreshTable := []struct {
		name           string
		reqBody        string
		expectedStatus int
	}{
		{
			name:           "Refresh/Bad Request (missing refreshToken)",
			reqBody:        `{}`,
			expectedStatus: http.StatusBadRequest,
		},
		{
			name:           "Refresh/Bad Request (empty refreshToken)",
			reqBody:        `{"refreshToken": ""}`,
			expectedStatus: http.StatusBadRequest,
		},
		{
			name:           "Refresh/Bad Request (blank refreshToken)",
			reqBody:        `{"refreshToken": "   "}`,
			expectedStatus: http.StatusBadRequest,
		},
		{
			name:           "Refresh/Bad Request (non-string refreshToken)",
			reqBody:        `{"refreshToken": 42}`,
			expectedStatus: http.StatusBadRequest,
		},
		{
			// unknown fields are tolerated, so validation passes and the
			// garbage token is rejected by the signature check instead
			name:           "Refresh/Unauthorized (extra fields, bogus token)",
			reqBody:        `{"refreshToken": "not-a-jwt", "device": "ios", "extra": 1}`,
			expectedStatus: http.StatusUnauthorized,
		},
	}

	for _, v := range refreshTable {
		t.Run(v.name, func(t *testing.T) {
			res := doPost(t, "/auth/refresh", "", v.reqBody)
			defer res.Body.Close()

			if res.StatusCode != v.expectedStatus {
				t.Fatalf("expected status %d, got %d", v.expectedStatus, res.StatusCode)
			}
		})
	}

	t.Run("Refresh/Bad Request (violation details)", func(t *testing.T) {
		res := doPost(t, "/auth/refresh", "", `{}`)
		defer res.Body.Close()

		var resBody struct {
			Message    string                    `json:"message"`
			Violations []httputil.FieldViolation `json:"violations"`
		}
		if err := json.NewDecoder(res.Body).Decode(&resBody); err != nil {
			t.Fatalf("unexpected response body: %v", res)
		}

		expectedViolations := []httputil.FieldViolation{
			{
				Field:   "refreshToken",
				Rule:    "required",
				Message: "refreshToken is required",
			},
		}

		if diff := cmp.Diff(expectedViolations, resBody.Violations); diff != "" {
			t.Error(diff)
		}
	})
}

func TestLogoutValidation(t *testing.T) {
	logoutTable := []struct {
		name           string
		reqBody        string
		expectedStatus int
	}{
		{
			name:           "Logout/Bad Request (missing refreshToken)",
			reqBody:        `{}`,
			expectedStatus: http.StatusBadRequest,
		},
		{
			name:           "Logout/Bad Request (blank refreshToken)",
			reqBody:        `{"refreshToken": " "}`,
			expectedStatus: http.StatusBadRequest,
		},
		{
			name:           "Logout/Unauthorized (extra fields, bogus token)",
			reqBody:        `{"refreshToken": "not-a-jwt", "reason": "user action"}`,
			expectedStatus: http.StatusUnauthorized,
		},
	}

	for _, v := range logoutTable {
		t.Run(v.name, func(t *testing.T) {
			res := doPost(t, "/auth/logout", "", v.reqBody)
			defer res.Body.Close()

			if res.StatusCode != v.expectedStatus {
				t.Fatalf("expected status %d, got %d", v.expectedStatus, res.StatusCode)
			}
		})
	}
}

func TestVerifyTwoFactorValidation(t *testing.T) {
	authService := services.NewAuthService(testConfigs)
	pendingToken, err := authService.CreateTwoFactorToken(
		services.NewTwoFactorTokenClaims(testConfigs.Env.OriginURL, testUser.Id),
	)
	if err != nil {
		t.Fatalf("wasn't expecting error, got: %v", err)
	}

	verifyTable := []struct {
		name           string
		bearerToken    string
		reqBody        string
		expectedStatus int
	}{
		{
			name:           "VerifyTwoFactor/Unauthorized (no pending token)",
			bearerToken:    "",
			reqBody:        `{"token": "123456"}`,
			expectedStatus: http.StatusUnauthorized,
		},
		{
			name:           "VerifyTwoFactor/Unauthorized (access token instead of pending token)",
			bearerToken:    testUserToken,
			reqBody:        `{"token": "123456"}`,
			expectedStatus: http.StatusUnauthorized,
		},
		{
			name:           "VerifyTwoFactor/Bad Request (missing token)",
			bearerToken:    pendingToken,
			reqBody:        `{}`,
			expectedStatus: http.StatusBadRequest,
		},
		{
			name:           "VerifyTwoFactor/Bad Request (too short)",
			bearerToken:    pendingToken,
			reqBody:        `{"token": "12345"}`,
			expectedStatus: http.StatusBadRequest,
		},
		{
			name:           "VerifyTwoFactor/Bad Request (too long)",
			bearerToken:    pendingToken,
			reqBody:        `{"token": "1234567"}`,
			expectedStatus: http.StatusBadRequest,
		},
		{
			name:           "VerifyTwoFactor/Bad Request (non-digit characters)",
			bearerToken:    pendingToken,
			reqBody:        `{"token": "12a456"}`,
			expectedStatus: http.StatusBadRequest,
		},
	}

	for _, v := range verifyTable {
		t.Run(v.name, func(t *testing.T) {
			res := doPost(t, "/auth/2fa/verify", v.bearerToken, v.reqBody)
			defer res.Body.Close()

			if res.StatusCode != v.expectedStatus {
				t.Fatalf("expected status %d, got %d", v.expectedStatus, res.StatusCode)
			}
		})
	}
}

func registerTestAccount(t *testing.T, email string, password string) dtos.AuthResponse {
	t.Helper()

	reqBody := fmt.Sprintf(`{"email": %q, "name": "someone", "password": %q}`, email, password)
	res := doPost(t, "/auth/register", "", reqBody)
	defer res.Body.Close()

	if res.StatusCode != http.StatusCreated {
		t.Fatalf("expected status %d, got %d", http.StatusCreated, res.StatusCode)
	}

	var registered dtos.AuthResponse
	if err := json.NewDecoder(res.Body).Decode(&registered); err != nil {
		t.Fatalf("unexpected response body: %v", res)
	}

	return registered
}

func TestRefreshTokenLifecycle(t *testing.T) {
	email := fmt.Sprintf("%s@example.com", uuid.NewString())
	registered := registerTestAccount(t, email, "password123")

	var rotated dtos.RefreshResponse
	t.Run("Refresh/Success", func(t *testing.T) {
		res := doPost(t, "/auth/refresh", "", fmt.Sprintf(`{"refreshToken": %q}`, registered.RefreshToken))
		defer res.Body.Close()

		if res.StatusCode != http.StatusOK {
			t.Fatalf("expected status %d, got %d", http.StatusOK, res.StatusCode)
		}

		if err := json.NewDecoder(res.Body).Decode(&rotated); err != nil {
			t.Fatalf("unexpected response body: %v", res)
		}

		if rotated.RefreshToken == registered.RefreshToken {
			t.Error("expected rotation to mint a new refresh token")
		}

		if rotated.AccessToken == "" {
			t.Error("expected rotation to mint an access token")
		}
	})

	t.Run("Refresh/Success (remaining lifetime preserved)", func(t *testing.T) {
		authService := services.NewAuthService(testConfigs)

		oldClaims, err := authService.ValidateRefreshToken(registered.RefreshToken)
		if err != nil {
			t.Fatalf("wasn't expecting error, got: %v", err)
		}

		newClaims, err := authService.ValidateRefreshToken(rotated.RefreshToken)
		if err != nil {
			t.Fatalf("wasn't expecting error, got: %v", err)
		}

		delta := newClaims.ExpiresAt.Time.Sub(oldClaims.ExpiresAt.Time)
		if delta < -time.Second || delta > time.Second {
			t.Errorf("expected rotated token to keep the old expiry, got a %s difference", delta)
		}
	})

	t.Run("Refresh/Unauthorized (reused refresh token)", func(t *testing.T) {
		res := doPost(t, "/auth/refresh", "", fmt.Sprintf(`{"refreshToken": %q}`, registered.RefreshToken))
		defer res.Body.Close()

		if res.StatusCode != http.StatusUnauthorized {
			t.Fatalf("expected status %d, got %d", http.StatusUnauthorized, res.StatusCode)
		}
	})

	t.Run("Logout/Success", func(t *testing.T) {
		res := doPost(t, "/auth/logout", "", fmt.Sprintf(`{"refreshToken": %q}`, rotated.RefreshToken))
		defer res.Body.Close()

		if res.StatusCode != http.StatusOK {
			t.Fatalf("expected status %d, got %d", http.StatusOK, res.StatusCode)
		}

		var resBody dtos.LogoutResponse
		if err := json.NewDecoder(res.Body).Decode(&resBody); err != nil {
			t.Fatalf("unexpected response body: %v", res)
		}

		if resBody.Message != "Successfully logged out" {
			t.Errorf("expected logout message, got %q", resBody.Message)
		}
	})

	t.Run("Logout/Unauthorized (already revoked)", func(t *testing.T) {
		res := doPost(t, "/auth/logout", "", fmt.Sprintf(`{"refreshToken": %q}`, rotated.RefreshToken))
		defer res.Body.Close()

		if res.StatusCode != http.StatusUnauthorized {
			t.Fatalf("expected status %d, got %d", http.StatusUnauthorized, res.StatusCode)
		}
	})

	t.Run("Refresh/Unauthorized (revoked refresh token)", func(t *testing.T) {
		res := doPost(t, "/auth/refresh", "", fmt.Sprintf(`{"refreshToken": %q}`, rotated.RefreshToken))
		defer res.Body.Close()

		if res.StatusCode != http.StatusUnauthorized {
			t.Fatalf("expected status %d, got %d", http.StatusUnauthorized, res.StatusCode)
		}
	})
}

func TestVerifyTwoFactorLifecycle(t *testing.T) {
	ctx := context.TODO()
	email := fmt.Sprintf("%s@example.com", uuid.NewString())
	registered := registerTestAccount(t, email, "password123")

	userService := services.NewUserService(testConfigs)
	if _, err := userService.UpdateUserTwoFactor(ctx, registered.User.Id, true); err != nil {
		t.Fatalf("wasn't expecting error, got: %v", err)
	}

	var challenge dtos.TwoFactorChallengeResponse
	t.Run("Login/Success (two-factor challenge)", func(t *testing.T) {
		res := doPost(t, "/auth/login", "", fmt.Sprintf(`{"email": %q, "password": "password123"}`, email))
		defer res.Body.Close()

		if res.StatusCode != http.StatusOK {
			t.Fatalf("expected status %d, got %d", http.StatusOK, res.StatusCode)
		}

		if err := json.NewDecoder(res.Body).Decode(&challenge); err != nil {
			t.Fatalf("unexpected response body: %v", res)
		}

		if !challenge.TwoFactorRequired {
			t.Error("expected a two-factor challenge")
		}

		if challenge.PendingToken == "" {
			t.Error("expected a pending token")
		}
	})

	code, err := testConfigs.Redis.Get(ctx, fmt.Sprintf("twofa:%s", registered.User.Id)).Result()
	if err != nil {
		t.Fatalf("wasn't expecting error, got: %v", err)
	}

	verifyBody := fmt.Sprintf(`{"token": %q}`, code)
	t.Run("VerifyTwoFactor/Success", func(t *testing.T) {
		res := doPost(t, "/auth/2fa/verify", challenge.PendingToken, verifyBody)
		defer res.Body.Close()

		if res.StatusCode != http.StatusOK {
			t.Fatalf("expected status %d, got %d", http.StatusOK, res.StatusCode)
		}

		var resBody dtos.AuthResponse
		if err := json.NewDecoder(res.Body).Decode(&resBody); err != nil {
			t.Fatalf("unexpected response body: %v", res)
		}

		if resBody.AccessToken == "" || resBody.RefreshToken == "" {
			t.Error("expected a full token pair after verification")
		}

		if resBody.User.Id != registered.User.Id {
			t.Errorf("expected user %s, got %s", registered.User.Id, resBody.User.Id)
		}
	})

	t.Run("VerifyTwoFactor/Unauthorized (code already consumed)", func(t *testing.T) {
		res := doPost(t, "/auth/2fa/verify", challenge.PendingToken, verifyBody)
		defer res.Body.Close()

		if res.StatusCode != http.StatusUnauthorized {
			t.Fatalf("expected status %d, got %d", http.StatusUnauthorized, res.StatusCode)
		}
	})
}

func TestRegisterValidation(t *testing.T) {
	registerTable := []struct {
		name           string
		reqBody        string
		expectedStatus int
	}{
		{
			name:           "Register/Bad Request (invalid email)",
			reqBody:        `{"email": "not-an-email", "name": "someone", "password": "password123"}`,
			expectedStatus: http.StatusBadRequest,
		},
		{
			name:           "Register/Bad Request (short password)",
			reqBody:        `{"email": "someone@example.com", "name": "someone", "password": "short"}`,
			expectedStatus: http.StatusBadRequest,
		},
		{
			name:           "Register/Bad Request (missing name)",
			reqBody:        `{"email": "someone@example.com", "password": "password123"}`,
			expectedStatus: http.StatusBadRequest,
		},
	}

	for _, v := range registerTable {
		t.Run(v.name, func(t *testing.T) {
			res := doPost(t, "/auth/register", "", v.reqBody)
			defer res.Body.Close()

			if res.StatusCode != v.expectedStatus {
				t.Fatalf("expected status %d, got %d", v.expectedStatus, res.StatusCode)
			}
		})
	}
}
