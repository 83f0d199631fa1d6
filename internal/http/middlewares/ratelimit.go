package middlewares

import (
	"math"
	"net/http"
	"strconv"

	httperrors "github.com/dropDatabas3/authcore/internal/http/errors"
	"github.com/dropDatabas3/authcore/internal/http/helpers"
	"github.com/dropDatabas3/authcore/internal/metrics"
	"github.com/dropDatabas3/authcore/internal/observability/logger"
	"github.com/dropDatabas3/authcore/internal/rate"
)

// RateLimit aplica el límite por IP de cliente sobre todo lo que cuelga
// debajo. Si el backend del limiter está caído el request pasa: el rate
// limit es protección de capacidad, no una barrera de seguridad, y preferimos
// degradar a dejar el servicio entero en 500.
func RateLimit(limiter rate.Limiter) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			res, err := limiter.Allow(r.Context(), helpers.ClientIP(r))
			if err != nil {
				logger.From(r.Context()).Warn("rate limiter unavailable", logger.Err(err))
				next.ServeHTTP(w, r)
				return
			}
			w.Header().Set("X-RateLimit-Remaining", strconv.FormatInt(res.Remaining, 10))
			if !res.Allowed {
				metrics.RateLimitedTotal.Inc()
				httperrors.WriteError(w, httperrors.ErrRateLimited.WithRetryAfter(int(math.Ceil(res.RetryAfter.Seconds()))))
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}
