// Package auth contiene los DTOs del API de autenticación.
package auth

// RegisterRequest es el body de POST /auth/register.
type RegisterRequest struct {
	Email      string `json:"email"`
	Password   string `json:"password"`
	GivenName  string `json:"given_name"`
	FamilyName string `json:"family_name"`
}

// RegisterResponse devuelve el usuario creado y sus tokens iniciales.
// El registro autentica de entrada: la verificación de email solo gatea
// los flujos que la requieren, no el login.
type RegisterResponse struct {
	User         UserView `json:"user"`
	AccessToken  string   `json:"access_token"`
	RefreshToken string   `json:"refresh_token"`
	TokenType    string   `json:"token_type"`
	ExpiresIn    int64    `json:"expires_in"`
}
