package middlewares

import (
	"fmt"
	"net/http"
	"time"

	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/google/uuid"

	httperrors "github.com/dropDatabas3/authcore/internal/http/errors"
	"github.com/dropDatabas3/authcore/internal/http/helpers"
	"github.com/dropDatabas3/authcore/internal/observability/logger"
)

// RequestLogger asigna un request ID, deja un logger contextualizado en el
// contexto y loguea una línea por request al terminar.
func RequestLogger(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		reqID := r.Header.Get("X-Request-ID")
		if reqID == "" {
			reqID = uuid.NewString()
		}
		w.Header().Set("X-Request-ID", reqID)

		log := logger.With(
			logger.RequestID(reqID),
			logger.Method(r.Method),
			logger.Path(r.URL.Path),
			logger.ClientIP(helpers.ClientIP(r)),
		)
		ww := chimw.NewWrapResponseWriter(w, r.ProtoMajor)
		start := time.Now()

		next.ServeHTTP(ww, r.WithContext(logger.ToContext(r.Context(), log)))

		log.Info("http request",
			logger.Status(ww.Status()),
			logger.Duration(time.Since(start)),
		)
	})
}

// Recover convierte panics en 500 sin tirar abajo el proceso.
func Recover(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		defer func() {
			if rec := recover(); rec != nil {
				logger.From(r.Context()).Error("panic recovered",
					logger.String("panic", fmt.Sprint(rec)),
				)
				httperrors.WriteError(w, httperrors.ErrInternal)
			}
		}()
		next.ServeHTTP(w, r)
	})
}
