// Package admin expone los handlers HTTP de administración de cuentas.
package admin

import (
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/dropDatabas3/authcore/internal/domain/repository"
	"github.com/dropDatabas3/authcore/internal/domain/types"
	httperrors "github.com/dropDatabas3/authcore/internal/http/errors"
	"github.com/dropDatabas3/authcore/internal/http/helpers"
	"github.com/dropDatabas3/authcore/internal/http/middlewares"
	adminsvc "github.com/dropDatabas3/authcore/internal/http/services/admin"
	"github.com/dropDatabas3/authcore/internal/observability/logger"
)

type Controller struct {
	Svc *adminsvc.Service
}

func New(svc *adminsvc.Service) *Controller {
	return &Controller{Svc: svc}
}

type changeRoleRequest struct {
	Role string `json:"role"`
}

// Deactivate maneja POST /admin/users/{id}/deactivate.
func (c *Controller) Deactivate(w http.ResponseWriter, r *http.Request) {
	claims, ok := middlewares.ClaimsFrom(r.Context())
	if !ok {
		httperrors.WriteError(w, httperrors.ErrUnauthorized)
		return
	}
	targetID := chi.URLParam(r, "id")
	if err := c.Svc.Deactivate(r.Context(), claims.Subject, targetID); err != nil {
		c.handleError(w, r, err)
		return
	}
	helpers.WriteJSON(w, http.StatusOK, map[string]string{"status": "deactivated"})
}

// ChangeRole maneja PUT /admin/users/{id}/role.
func (c *Controller) ChangeRole(w http.ResponseWriter, r *http.Request) {
	claims, ok := middlewares.ClaimsFrom(r.Context())
	if !ok {
		httperrors.WriteError(w, httperrors.ErrUnauthorized)
		return
	}
	targetID := chi.URLParam(r, "id")
	var req changeRoleRequest
	if !helpers.ReadJSON(w, r, &req) {
		return
	}
	role, ok := types.ParseRole(req.Role)
	if !ok {
		httperrors.WriteError(w, httperrors.ErrBadRequest.WithDetail("rol desconocido"))
		return
	}
	view, err := c.Svc.ChangeRole(r.Context(), claims.Subject, targetID, role)
	if err != nil {
		c.handleError(w, r, err)
		return
	}
	helpers.WriteJSON(w, http.StatusOK, view)
}

func (c *Controller) handleError(w http.ResponseWriter, r *http.Request, err error) {
	switch {
	case errors.Is(err, adminsvc.ErrInvalidRole):
		httperrors.WriteError(w, httperrors.ErrBadRequest.WithDetail("rol desconocido"))
	case errors.Is(err, adminsvc.ErrSelfDemote):
		httperrors.WriteError(w, httperrors.ErrConflict.WithDetail("no podés cambiar tu propio rol"))
	case repository.IsNotFound(err):
		httperrors.WriteError(w, httperrors.ErrNotFound)
	default:
		logger.From(r.Context()).Error("unhandled admin error", logger.Err(err))
		httperrors.WriteError(w, httperrors.ErrInternal)
	}
}
