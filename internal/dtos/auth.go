package dtos

type RegisterRequest struct {
	Email    string `json:"email" validate:"required,email"`
	Name     string `json:"name" validate:"required,min=2"`
	Password string `json:"password" validate:"required,min=8"`
}

type LoginRequest struct {
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required"`
}

type GoogleLoginRequest struct {
	IdToken string `json:"idToken" validate:"required,notblank"`
}

type RefreshTokenRequest struct {
	RefreshToken string `json:"refreshToken" validate:"required,notblank"`
}

type LogoutRequest struct {
	RefreshToken string `json:"refreshToken" validate:"required,notblank"`
}

type TwoFactorVerifyRequest struct {
	Token string `json:"token" validate:"required,len=6,number"`
}

type AuthResponse struct {
	RefreshToken string       `json:"refreshToken"`
	AccessToken  string       `json:"accessToken"`
	User         UserResponse `json:"user"`
}

type RefreshResponse struct {
	RefreshToken string `json:"refreshToken"`
	AccessToken  string `json:"accessToken"`
}

type TwoFactorChallengeResponse struct {
	TwoFactorRequired bool   `json:"twoFactorRequired"`
	PendingToken      string `json:"pendingToken"`
}

type LogoutResponse struct {
	Message string `json:"message"`
}

type TwoFactorSettingsRequest struct {
	Enabled *bool `json:"enabled" validate:"required"`
}

type TwoFactorSettingsResponse struct {
	Message          string `json:"message"`
	TwoFactorEnabled bool   `json:"twoFactorEnabled"`
}
