package middleware

import (
	"net/http"
	"time"

	chimw "github.com/go-chi/chi/v5/middleware"
	"go.uber.org/zap"

	apperrors "github.com/3leaps/gofirehose/internal/errors"
	"github.com/3leaps/gofirehose/internal/observability"
)

// Logging logs one line per request once the response is written.
func Logging(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		ww := chimw.NewWrapResponseWriter(w, r.ProtoMajor)

		next.ServeHTTP(ww, r)

		status := ww.Status()
		if status == 0 {
			status = http.StatusOK
		}
		fields := []zap.Field{
			zap.String("method", r.Method),
			zap.String("path", r.URL.Path),
			zap.Int("status", status),
			zap.Int("bytes", ww.BytesWritten()),
			zap.Duration("duration", time.Since(start)),
			zap.String("request_id", apperrors.CorrelationID(r.Context())),
		}
		if status >= http.StatusInternalServerError {
			observability.CLILogger.Warn("Request failed", fields...)
			return
		}
		observability.CLILogger.Debug("Request served", fields...)
	})
}
