// Package http arma el router, el server y las métricas HTTP del servicio.
package http

import (
	"context"
	stdhttp "net/http"

	"github.com/go-chi/chi/v5"

	"github.com/dropDatabas3/authcore/internal/domain/types"
	adminctrl "github.com/dropDatabas3/authcore/internal/http/controllers/admin"
	authctrl "github.com/dropDatabas3/authcore/internal/http/controllers/auth"
	"github.com/dropDatabas3/authcore/internal/http/helpers"
	"github.com/dropDatabas3/authcore/internal/http/middlewares"
	jwtx "github.com/dropDatabas3/authcore/internal/jwt"
	"github.com/dropDatabas3/authcore/internal/rate"
)

// RouterDeps agrupa todo lo que el router necesita para montar rutas.
type RouterDeps struct {
	Auth    *authctrl.Controller
	Admin   *adminctrl.Controller
	Issuer  *jwtx.Issuer
	Revoker jwtx.Revoker
	Limiter rate.Limiter // nil = sin rate limiting
	Metrics stdhttp.Handler
	Ready   func(ctx context.Context) error // nil = siempre ready
}

// NewRouter construye el árbol de rutas completo.
func NewRouter(deps RouterDeps) stdhttp.Handler {
	r := chi.NewRouter()

	r.Use(middlewares.Recover)
	r.Use(middlewares.RequestLogger)
	r.Use(instrument)
	if deps.Limiter != nil {
		r.Use(middlewares.RateLimit(deps.Limiter))
	}

	// Operacionales, fuera de auth
	r.Get("/healthz", func(w stdhttp.ResponseWriter, _ *stdhttp.Request) {
		helpers.WriteJSON(w, stdhttp.StatusOK, map[string]string{"status": "ok"})
	})
	r.Get("/readyz", func(w stdhttp.ResponseWriter, req *stdhttp.Request) {
		if deps.Ready != nil {
			if err := deps.Ready(req.Context()); err != nil {
				helpers.WriteJSON(w, stdhttp.StatusServiceUnavailable, map[string]string{"status": "unavailable"})
				return
			}
		}
		helpers.WriteJSON(w, stdhttp.StatusOK, map[string]string{"status": "ready"})
	})
	if deps.Metrics != nil {
		r.Method(stdhttp.MethodGet, "/metrics", deps.Metrics)
	}

	// Superficie pública de auth
	r.Route("/auth", func(r chi.Router) {
		r.Post("/register", deps.Auth.Register)
		r.Post("/login", deps.Auth.Login)
		r.Post("/verify-email", deps.Auth.VerifyEmail)
		r.Post("/forgot-password", deps.Auth.ForgotPassword)
		r.Post("/reset-password", deps.Auth.ResetPassword)
		r.Post("/refresh", deps.Auth.Refresh)
		r.Post("/logout", deps.Auth.Logout)

		// Requieren access token
		r.Group(func(r chi.Router) {
			r.Use(middlewares.Auth(deps.Issuer, deps.Revoker))
			r.Get("/me", deps.Auth.Me)
			r.Post("/change-password", deps.Auth.ChangePassword)
		})
	})

	// Administración: sólo administradores
	r.Route("/admin", func(r chi.Router) {
		r.Use(middlewares.Auth(deps.Issuer, deps.Revoker))
		r.Use(middlewares.RequireRole(types.RoleAdministrator))
		r.Post("/users/{id}/deactivate", deps.Admin.Deactivate)
		r.Put("/users/{id}/role", deps.Admin.ChangeRole)
	})

	return r
}
