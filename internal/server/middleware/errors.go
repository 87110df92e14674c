package middleware

import (
	"fmt"
	"net/http"

	gferrors "github.com/fulmenhq/gofulmen/errors"
	"go.uber.org/zap"

	apperrors "github.com/3leaps/gofirehose/internal/errors"
	"github.com/3leaps/gofirehose/internal/observability"
)

// ErrorResponse is the JSON body written for recovered panics.
type ErrorResponse = apperrors.ErrorResponse

// Recovery converts panics in downstream handlers into 500 INTERNAL_ERROR responses.
func Recovery(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		defer func() {
			rec := recover()
			if rec == nil {
				return
			}
			if rec == http.ErrAbortHandler {
				panic(rec)
			}

			requestID := apperrors.CorrelationID(r.Context())
			observability.CLILogger.Error("Handler panicked",
				zap.Any("panic", rec),
				zap.String("method", r.Method),
				zap.String("path", r.URL.Path),
				zap.String("request_id", requestID),
			)

			envelope := apperrors.NewEnvelope(r, apperrors.CodeInternalError, fmt.Sprintf("panic: %v", rec))
			if err, ok := rec.(error); ok {
				envelope = envelope.WithOriginal(err)
			}
			writeErrorResponse(w, envelope, http.StatusInternalServerError)
		}()

		next.ServeHTTP(w, r)
	})
}

// ErrorHandler is an alias for Recovery.
var ErrorHandler = Recovery

func writeErrorResponse(w http.ResponseWriter, envelope *gferrors.ErrorEnvelope, status int) {
	apperrors.WriteEnvelope(w, status, envelope)
}
