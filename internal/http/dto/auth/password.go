package auth

// VerifyEmailRequest es el body de POST /auth/verify-email.
type VerifyEmailRequest struct {
	Token string `json:"token"`
}

// ForgotPasswordRequest es el body de POST /auth/forgot-password.
type ForgotPasswordRequest struct {
	Email string `json:"email"`
}

// ResetPasswordRequest es el body de POST /auth/reset-password.
type ResetPasswordRequest struct {
	Token       string `json:"token"`
	NewPassword string `json:"new_password"`
}

// ChangePasswordRequest es el body de POST /auth/change-password.
type ChangePasswordRequest struct {
	CurrentPassword string `json:"current_password"`
	NewPassword     string `json:"new_password"`
}
