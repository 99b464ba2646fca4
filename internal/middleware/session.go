package middleware

import (
	"context"
	"net/http"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	inHttp "github.com/Alturino/storefront/internal/http"
	"github.com/Alturino/storefront/internal/log"
)

type sessionID struct{}

func SessionIDFromContext(c context.Context) string {
	id, _ := c.Value(sessionID{}).(string)
	return id
}

func AttachSessionIDToContext(c context.Context, id string) context.Context {
	return context.WithValue(c, sessionID{}, id)
}

// Session resolves the browser session from the X-Session-Id header or the
// session cookie, issuing a fresh one when neither is a valid uuid.
func Session(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		id := r.Header.Get(inHttp.HeaderSessionID)
		if id == "" {
			if cookie, err := r.Cookie(inHttp.CookieSessionID); err == nil {
				id = cookie.Value
			}
		}
		if _, err := uuid.Parse(id); err != nil {
			id = uuid.NewString()
			http.SetCookie(w, &http.Cookie{
				Name:     inHttp.CookieSessionID,
				Value:    id,
				Path:     "/",
				HttpOnly: true,
				SameSite: http.SameSiteLaxMode,
			})
		}
		w.Header().Set(inHttp.HeaderSessionID, id)

		logger := zerolog.Ctx(r.Context()).With().Str(log.KeySessionID, id).Logger()
		c := logger.WithContext(r.Context())
		c = AttachSessionIDToContext(c, id)

		next.ServeHTTP(w, r.WithContext(c))
	})
}
