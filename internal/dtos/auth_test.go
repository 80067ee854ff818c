package dtos

import (
	"testing"

	"github.com/IhorD12/authcore-backend-service/configs"
)

func TestRefreshTokenRequestValidation(t *testing.T) {
	validate := configs.NewValidate()

	refreshTokenTable := []struct {
		name        string
		reqBody     RefreshTokenRequest
		expectValid bool
	}{
		{
			name:        "non-empty token",
			reqBody:     RefreshTokenRequest{RefreshToken: "eyJhbGciOiJIUzI1NiJ9.payload.signature"},
			expectValid: true,
		},
		{
			name:        "missing token",
			reqBody:     RefreshTokenRequest{},
			expectValid: false,
		},
		{
			name:        "blank token",
			reqBody:     RefreshTokenRequest{RefreshToken: "   "},
			expectValid: false,
		},
	}

	for _, v := range refreshTokenTable {
		t.Run(v.name, func(t *testing.T) {
			err := validate.Struct(v.reqBody)
			if v.expectValid && err != nil {
				t.Errorf("expected valid request body, got: %v", err)
			}
			if !v.expectValid && err == nil {
				t.Error("expected validation error, got none")
			}
		})
	}
}

func TestLogoutRequestValidation(t *testing.T) {
	validate := configs.NewValidate()

	if err := validate.Struct(LogoutRequest{RefreshToken: "sometoken"}); err != nil {
		t.Errorf("expected valid request body, got: %v", err)
	}

	if err := validate.Struct(LogoutRequest{}); err == nil {
		t.Error("expected validation error, got none")
	}
}

func TestTwoFactorVerifyRequestValidation(t *testing.T) {
	validate := configs.NewValidate()

	twoFactorTable := []struct {
		name        string
		token       string
		expectValid bool
	}{
		{
			name:        "six digits",
			token:       "123456",
			expectValid: true,
		},
		{
			name:        "leading zeros",
			token:       "000042",
			expectValid: true,
		},
		{
			name:        "too short",
			token:       "12345",
			expectValid: false,
		},
		{
			name:        "too long",
			token:       "1234567",
			expectValid: false,
		},
		{
			name:        "non-digit characters",
			token:       "12a456",
			expectValid: false,
		},
		{
			name:        "signed number",
			token:       "+23456",
			expectValid: false,
		},
		{
			name:        "missing token",
			token:       "",
			expectValid: false,
		},
	}

	for _, v := range twoFactorTable {
		t.Run(v.name, func(t *testing.T) {
			err := validate.Struct(TwoFactorVerifyRequest{Token: v.token})
			if v.expectValid && err != nil {
				t.Errorf("expected valid request body, got: %v", err)
			}
			if !v.expectValid && err == nil {
				t.Error("expected validation error, got none")
			}
		})
	}
}
