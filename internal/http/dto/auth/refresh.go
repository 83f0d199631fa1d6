package auth

// RefreshRequest es el body de POST /auth/refresh.
type RefreshRequest struct {
	RefreshToken string `json:"refresh_token"`
}

// RefreshResponse devuelve el nuevo access token y, con rotación activada,
// un refresh token nuevo (el anterior queda revocado).
type RefreshResponse struct {
	AccessToken  string `json:"access_token"`
	RefreshToken string `json:"refresh_token,omitempty"`
	TokenType    string `json:"token_type"`
	ExpiresIn    int64  `json:"expires_in"`
}

// LogoutRequest es el body (opcional) de POST /auth/logout.
type LogoutRequest struct {
	RefreshToken string `json:"refresh_token,omitempty"`
}
