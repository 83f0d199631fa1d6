package auth

import (
	"net/http"

	dto "github.com/dropDatabas3/authcore/internal/http/dto/auth"
	httperrors "github.com/dropDatabas3/authcore/internal/http/errors"
	"github.com/dropDatabas3/authcore/internal/http/helpers"
	"github.com/dropDatabas3/authcore/internal/http/middlewares"
)

// VerifyEmail maneja POST /auth/verify-email.
func (c *Controller) VerifyEmail(w http.ResponseWriter, r *http.Request) {
	var req dto.VerifyEmailRequest
	if !helpers.ReadJSON(w, r, &req) {
		return
	}
	if err := c.Svc.VerifyEmail(r.Context(), req.Token); err != nil {
		c.handleError(w, r, err)
		return
	}
	helpers.WriteJSON(w, http.StatusOK, map[string]string{"status": "verified"})
}

// ForgotPassword maneja POST /auth/forgot-password. Responde 200 tanto si
// el email existe como si no.
func (c *Controller) ForgotPassword(w http.ResponseWriter, r *http.Request) {
	var req dto.ForgotPasswordRequest
	if !helpers.ReadJSON(w, r, &req) {
		return
	}
	if err := c.Svc.ForgotPassword(r.Context(), req.Email); err != nil {
		c.handleError(w, r, err)
		return
	}
	helpers.WriteJSON(w, http.StatusOK, map[string]string{"status": "reset_requested"})
}

// ResetPassword maneja POST /auth/reset-password.
func (c *Controller) ResetPassword(w http.ResponseWriter, r *http.Request) {
	var req dto.ResetPasswordRequest
	if !helpers.ReadJSON(w, r, &req) {
		return
	}
	if err := c.Svc.ResetPassword(r.Context(), req.Token, req.NewPassword); err != nil {
		c.handleError(w, r, err)
		return
	}
	helpers.WriteJSON(w, http.StatusOK, map[string]string{"status": "password_reset"})
}

// ChangePassword maneja POST /auth/change-password (requiere access token).
func (c *Controller) ChangePassword(w http.ResponseWriter, r *http.Request) {
	claims, ok := middlewares.ClaimsFrom(r.Context())
	if !ok {
		httperrors.WriteError(w, httperrors.ErrUnauthorized)
		return
	}
	var req dto.ChangePasswordRequest
	if !helpers.ReadJSON(w, r, &req) {
		return
	}
	if err := c.Svc.ChangePassword(r.Context(), claims.Subject, req.CurrentPassword, req.NewPassword); err != nil {
		c.handleError(w, r, err)
		return
	}
	helpers.WriteJSON(w, http.StatusOK, map[string]string{"status": "password_changed"})
}
