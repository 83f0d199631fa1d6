// Package auth expone los handlers HTTP de autenticación. Los controllers
// sólo parsean, delegan al servicio y traducen errores: cero reglas de
// negocio acá.
package auth

import (
	"errors"
	"math"
	"net/http"
	"strings"

	"github.com/dropDatabas3/authcore/internal/domain/repository"
	httperrors "github.com/dropDatabas3/authcore/internal/http/errors"
	authsvc "github.com/dropDatabas3/authcore/internal/http/services/auth"
	"github.com/dropDatabas3/authcore/internal/observability/logger"
)

type Controller struct {
	Svc *authsvc.Service
}

func New(svc *authsvc.Service) *Controller {
	return &Controller{Svc: svc}
}

// handleError traduce errores del servicio al catálogo HTTP. El default es
// 500 sin detalle: los errores internos se loguean, no se exponen.
func (c *Controller) handleError(w http.ResponseWriter, r *http.Request, err error) {
	var lockErr *authsvc.LockedOutError
	var weakErr *authsvc.WeakPasswordError

	switch {
	case errors.Is(err, authsvc.ErrMissingFields):
		httperrors.WriteError(w, httperrors.ErrBadRequest)
	case errors.As(err, &weakErr):
		httperrors.WriteError(w, httperrors.ErrWeakPassword.WithDetail(strings.Join(weakErr.Reasons, ", ")))
	case errors.Is(err, authsvc.ErrEmailTaken):
		httperrors.WriteError(w, httperrors.ErrEmailTaken)
	case errors.As(err, &lockErr):
		httperrors.WriteError(w, httperrors.ErrLockedOut.WithRetryAfter(ceilSeconds(lockErr.RetryAfter.Seconds())))
	case errors.Is(err, authsvc.ErrInvalidCredentials), errors.Is(err, authsvc.ErrUserDisabled):
		// disabled se colapsa en el genérico: no se revela el estado de la cuenta
		httperrors.WriteError(w, httperrors.ErrInvalidCredentials)
	case errors.Is(err, authsvc.ErrInvalidToken):
		httperrors.WriteError(w, httperrors.ErrInvalidToken)
	case errors.Is(err, authsvc.ErrRefreshRejected):
		// un refresh inválido/expirado/revocado es falla de autenticación,
		// no un problema de formato como en verify-email o reset-password
		httperrors.WriteError(w, httperrors.ErrUnauthorized)
	case errors.Is(err, authsvc.ErrConflictRetry):
		httperrors.WriteError(w, httperrors.ErrConflict)
	case repository.IsNotFound(err):
		httperrors.WriteError(w, httperrors.ErrNotFound)
	default:
		logger.From(r.Context()).Error("unhandled service error", logger.Err(err))
		httperrors.WriteError(w, httperrors.ErrInternal)
	}
}

func ceilSeconds(s float64) int {
	return int(math.Ceil(s))
}
