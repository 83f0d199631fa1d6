// Package metrics expone los contadores Prometheus del dominio de auth.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// LoginsTotal cuenta logins por resultado: ok | invalid | locked | disabled.
	LoginsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "auth_logins_total",
		Help: "Intentos de login por resultado",
	}, []string{"result"})

	// LockoutsTriggered cuenta cuántas veces una clave cruzó el umbral.
	LockoutsTriggered = promauto.NewCounter(prometheus.CounterOpts{
		Name: "auth_lockouts_triggered_total",
		Help: "Lockouts disparados por intentos fallidos",
	})

	// RateLimitedTotal cuenta requests rechazadas por rate limit.
	RateLimitedTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "auth_rate_limited_total",
		Help: "Requests rechazadas por rate limiting",
	})

	// TokenVerifyFailures cuenta fallas de verificación de JWT por motivo:
	// expired | malformed | signature | audience | revoked.
	TokenVerifyFailures = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "auth_token_verify_failures_total",
		Help: "Fallas de verificación de tokens por motivo",
	}, []string{"reason"})

	// SecretTokensConsumed cuenta consumos de secret tokens por propósito y resultado.
	SecretTokensConsumed = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "auth_secret_tokens_consumed_total",
		Help: "Consumos de secret tokens por propósito y resultado",
	}, []string{"purpose", "result"})
)
