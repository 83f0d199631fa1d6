package auth

import (
	"net/http"

	dto "github.com/dropDatabas3/authcore/internal/http/dto/auth"
	httperrors "github.com/dropDatabas3/authcore/internal/http/errors"
	"github.com/dropDatabas3/authcore/internal/http/helpers"
	"github.com/dropDatabas3/authcore/internal/http/middlewares"
)

// Refresh maneja POST /auth/refresh.
func (c *Controller) Refresh(w http.ResponseWriter, r *http.Request) {
	var req dto.RefreshRequest
	if !helpers.ReadJSON(w, r, &req) {
		return
	}
	resp, err := c.Svc.Refresh(r.Context(), req)
	if err != nil {
		c.handleError(w, r, err)
		return
	}
	helpers.WriteJSON(w, http.StatusOK, resp)
}

// Logout maneja POST /auth/logout. Idempotente: siempre 200 para requests
// bien formados.
func (c *Controller) Logout(w http.ResponseWriter, r *http.Request) {
	var req dto.LogoutRequest
	if r.ContentLength > 0 {
		if !helpers.ReadJSON(w, r, &req) {
			return
		}
	}
	if err := c.Svc.Logout(r.Context(), req); err != nil {
		c.handleError(w, r, err)
		return
	}
	helpers.WriteJSON(w, http.StatusOK, map[string]string{"status": "logged_out"})
}

// Me maneja GET /auth/me.
func (c *Controller) Me(w http.ResponseWriter, r *http.Request) {
	claims, ok := middlewares.ClaimsFrom(r.Context())
	if !ok {
		httperrors.WriteError(w, httperrors.ErrUnauthorized)
		return
	}
	view, err := c.Svc.Me(r.Context(), claims.Subject)
	if err != nil {
		c.handleError(w, r, err)
		return
	}
	helpers.WriteJSON(w, http.StatusOK, view)
}
