package chi

import (
	"context"
	"errors"
	"net/http"

	"go.uber.org/zap"

	"github.com/kailas-cloud/movierec/internal/domain"
	"github.com/kailas-cloud/movierec/internal/domain/credential"
	"github.com/kailas-cloud/movierec/internal/logger"
)

const basicAuthRealm = `Basic realm="movierec admin", charset="UTF-8"`

// AdminAuthenticator verifies admin credentials.
type AdminAuthenticator interface {
	AuthenticateAdmin(ctx context.Context, username, password string) (credential.Credential, error)
}

// AdminBasicAuthMiddleware returns a middleware that admits only the admin account via HTTP Basic auth.
func AdminBasicAuthMiddleware(auth AdminAuthenticator) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			username, password, ok := r.BasicAuth()
			if !ok {
				w.Header().Set("WWW-Authenticate", basicAuthRealm)
				writeError(w, http.StatusUnauthorized, codeUnauthorized, "missing basic authorization")
				return
			}

			if _, err := auth.AuthenticateAdmin(r.Context(), username, password); err != nil {
				if errors.Is(err, domain.ErrStorageUnavailable) {
					logger.FromContext(r.Context()).Error("admin authentication failed", zap.Error(err))
					writeError(w, http.StatusServiceUnavailable, codeStorageUnavailable,
						domain.ErrStorageUnavailable.Error())
					return
				}
				w.Header().Set("WWW-Authenticate", basicAuthRealm)
				writeError(w, http.StatusUnauthorized, codeInvalidCredentials, "invalid admin credentials")
				return
			}

			ctx := logger.With(r.Context(), zap.String("admin", username))
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}
