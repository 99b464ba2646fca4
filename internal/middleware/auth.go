package middleware

import (
	"net/http"
	"strings"

	"github.com/gorilla/mux"
	"github.com/rs/zerolog"

	inErrors "github.com/Alturino/storefront/internal/errors"
	inHttp "github.com/Alturino/storefront/internal/http"
	"github.com/Alturino/storefront/internal/log"
	"github.com/Alturino/storefront/internal/token"
)

// Auth verifies the bearer token against secret and attaches it to the
// request context. Tokens minted by any of issuers for any of audiences are
// accepted.
func Auth(secret string, issuers []string, audiences ...string) mux.MiddlewareFunc {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			logger := zerolog.Ctx(r.Context()).With().Str(log.KeyTag, "middleware Auth").Logger()
			c := logger.WithContext(r.Context())

			authorization := r.Header.Get(inHttp.HeaderAuthorization)
			if len(authorization) < len("bearer ") ||
				!strings.EqualFold(authorization[:len("bearer ")], "bearer ") {
				logger.Error().Err(inErrors.ErrEmptyAuth).Msg(inErrors.ErrEmptyAuth.Error())
				inHttp.WriteJsonResponse(c, w, map[string]string{}, map[string]interface{}{
					"status":     inHttp.StatusFailed,
					"statusCode": http.StatusUnauthorized,
					"message":    inErrors.ErrEmptyAuth.Error(),
				})
				return
			}

			raw := authorization[len("bearer "):]
			for _, issuer := range issuers {
				for _, audience := range audiences {
					jwtToken, err := token.VerifyToken(c, secret, raw, issuer, audience)
					if err != nil {
						continue
					}
					c = token.AttachJwtToken(c, jwtToken)
					next.ServeHTTP(w, r.WithContext(c))
					return
				}
			}

			logger.Error().Err(inErrors.ErrTokenInvalid).Msg(inErrors.ErrTokenInvalid.Error())
			inHttp.WriteJsonResponse(c, w, map[string]string{}, map[string]interface{}{
				"status":     inHttp.StatusFailed,
				"statusCode": http.StatusUnauthorized,
				"message":    inErrors.ErrTokenInvalid.Error(),
			})
		})
	}
}
