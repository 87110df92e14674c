package middleware

import (
	"net/http"

	apperrors "github.com/3leaps/gofirehose/internal/errors"
)

// ReadOnly rejects every request that is not GET or HEAD with 403 READONLY when enabled.
func ReadOnly(enabled bool) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		if !enabled {
			return next
		}
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			switch r.Method {
			case http.MethodGet, http.MethodHead:
				next.ServeHTTP(w, r)
			default:
				apperrors.RespondWithError(w, r, apperrors.NewReadOnlyError(r.Method+" "+r.URL.Path))
			}
		})
	}
}
