package handlers

import (
	"context"
	"fmt"
	"net/http"
	"strings"
	"testing"

	"github.com/goccy/go-json"
	"github.com/google/go-cmp/cmp"

	"github.com/IhorD12/authcore-backend-service/internal/dtos"
)

func doGet(t *testing.T, path string, bearerToken string) *http.Response {
	t.Helper()

	url := fmt.Sprintf("%s%s", testServer.URL, path)
	req, err := http.NewRequestWithContext(context.TODO(), http.MethodGet, url, nil)
	if err != nil {
		t.Fatalf("wasn't expecting error, got: %v", err)
	}

	if bearerToken != "" {
		req.Header.Set("Authorization", fmt.Sprintf("Bearer %s", bearerToken))
	}

	res, err := testClient.Do(req)
	if err != nil {
		t.Fatalf("wasn't expecting error, got: %v", err)
	}

	return res
}

func TestGetProfile(t *testing.T) {
	profileTable := []struct {
		name           string
		bearerToken    string
		expectedStatus int
	}{
		{
			name:           "GetProfile/Success",
			bearerToken:    testUserToken,
			expectedStatus: http.StatusOK,
		},
		{
			name:           "GetProfile/Unauthorized (no token)",
			bearerToken:    "",
			expectedStatus: http.StatusUnauthorized,
		},
		{
			name:           "GetProfile/Unauthorized (unknown token)",
			bearerToken:    "not-a-real-token",
			expectedStatus: http.StatusUnauthorized,
		},
	}

	for _, v := range profileTable {
		t.Run(v.name, func(t *testing.T) {
			res := doGet(t, "/profile", v.bearerToken)
			defer res.Body.Close()

			if res.StatusCode != v.expectedStatus {
				t.Fatalf("expected status %d, got %d", v.expectedStatus, res.StatusCode)
			}

			if v.expectedStatus == http.StatusOK {
				var resBody dtos.ProfileResponse
				if err := json.NewDecoder(res.Body).Decode(&resBody); err != nil {
					t.Fatalf("unexpected response body: %v", res)
				}

				expectedUser := dtos.UserResponse{
					Id:    testUser.Id,
					Email: testUser.Email,
					Roles: testUser.Roles,
				}

				if diff := cmp.Diff(expectedUser, resBody.User); diff != "" {
					t.Error(diff)
				}
			}
		})
	}
}

func TestUpdateTwoFactorSettingsValidation(t *testing.T) {
	twoFactorSettingsTable := []struct {
		name           string
		bearerToken    string
		reqBody        string
		expectedStatus int
	}{
		{
			name:           "UpdateTwoFactorSettings/Unauthorized (no token)",
			bearerToken:    "",
			reqBody:        `{"enabled": true}`,
			expectedStatus: http.StatusUnauthorized,
		},
		{
			name:           "UpdateTwoFactorSettings/Bad Request (missing enabled)",
			bearerToken:    testUserToken,
			reqBody:        `{}`,
			expectedStatus: http.StatusBadRequest,
		},
		{
			name:           "UpdateTwoFactorSettings/Bad Request (non-boolean enabled)",
			bearerToken:    testUserToken,
			reqBody:        `{"enabled": "yes"}`,
			expectedStatus: http.StatusBadRequest,
		},
	}

	for _, v := range twoFactorSettingsTable {
		t.Run(v.name, func(t *testing.T) {
			url := fmt.Sprintf("%s/profile/2fa", testServer.URL)
			req, err := http.NewRequestWithContext(context.TODO(), http.MethodPut, url, strings.NewReader(v.reqBody))
			if err != nil {
				t.Fatalf("wasn't expecting error, got: %v", err)
			}

			req.Header.Set("Content-Type", "application/json")
			if v.bearerToken != "" {
				req.Header.Set("Authorization", fmt.Sprintf("Bearer %s", v.bearerToken))
			}

			res, err := testClient.Do(req)
			if err != nil {
				t.Fatalf("wasn't expecting error, got: %v", err)
			}
			defer res.Body.Close()

			if res.StatusCode != v.expectedStatus {
				t.Errorf("expected status %d, got %d", v.expectedStatus, res.StatusCode)
			}
		})
	}
}

func TestGetAdminDashboard(t *testing.T) {
	adminDashboardTable := []struct {
		name           string
		bearerToken    string
		expectedStatus int
	}{
		{
			name:           "GetAdminDashboard/Success",
			bearerToken:    testAdminToken,
			expectedStatus: http.StatusOK,
		},
		{
			name:           "GetAdminDashboard/Forbidden (non-admin)",
			bearerToken:    testUserToken,
			expectedStatus: http.StatusForbidden,
		},
		{
			name:           "GetAdminDashboard/Unauthorized (no token)",
			bearerToken:    "",
			expectedStatus: http.StatusUnauthorized,
		},
	}

	for _, v := range adminDashboardTable {
		t.Run(v.name, func(t *testing.T) {
			res := doGet(t, "/admin/dashboard", v.bearerToken)
			defer res.Body.Close()

			if res.StatusCode != v.expectedStatus {
				t.Fatalf("expected status %d, got %d", v.expectedStatus, res.StatusCode)
			}

			if v.expectedStatus == http.StatusOK {
				var resBody dtos.AdminDashboardResponse
				if err := json.NewDecoder(res.Body).Decode(&resBody); err != nil {
					t.Fatalf("unexpected response body: %v", res)
				}

				expectedDetails := dtos.AdminDetails{
					UserId: testAdmin.Id,
					Email:  testAdmin.Email,
					Roles:  testAdmin.Roles,
				}

				if diff := cmp.Diff(expectedDetails, resBody.AdminDetails); diff != "" {
					t.Error(diff)
				}
			}
		})
	}
}
