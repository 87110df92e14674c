package middleware

import (
	"net/http"

	gferrors "github.com/fulmenhq/gofulmen/errors"

	apperrors "github.com/3leaps/gofirehose/internal/errors"
)

// RequestIDHeader carries the request correlation ID in both directions.
const RequestIDHeader = "X-Request-ID"

// RequestID propagates the caller's X-Request-ID, or generates one, and stores it
// as the correlation ID of the request context.
func RequestID(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		id := r.Header.Get(RequestIDHeader)
		if id == "" {
			id = gferrors.GenerateCorrelationID()
		}
		w.Header().Set(RequestIDHeader, id)
		next.ServeHTTP(w, r.WithContext(apperrors.WithCorrelationID(r.Context(), id)))
	})
}
