package middleware

import (
	"context"
	"net/http"
	"time"

	"github.com/google/uuid"

	"github.com/ideaboard/api/internal/observability"
)

// AnonIDCookieName is the cookie carrying the caller's anonymous identity.
const AnonIDCookieName = "anon_id"

const anonIDCookieMaxAge = 365 * 24 * 60 * 60 // one year in seconds

// AnonID assigns every caller a stable anonymous identity. A valid UUID
// cookie is reused; anything else (absent, malformed) gets a fresh one,
// re-issued on the response. Downstream handlers read it with AnonIDFromContext.
func AnonID(secure bool) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			anonID := ""

			if cookie, err := r.Cookie(AnonIDCookieName); err == nil {
				if parsed, err := uuid.Parse(cookie.Value); err == nil {
					anonID = parsed.String()
				}
			}

			if anonID == "" {
				anonID = uuid.New().String()

				http.SetCookie(w, &http.Cookie{
					Name:     AnonIDCookieName,
					Value:    anonID,
					Path:     "/",
					MaxAge:   anonIDCookieMaxAge,
					Expires:  time.Now().Add(anonIDCookieMaxAge * time.Second),
					HttpOnly: true,
					Secure:   secure,
					SameSite: http.SameSiteLaxMode,
				})
			}

			ctx := context.WithValue(r.Context(), observability.AnonIDKey, anonID)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// AnonIDFromContext returns the anon ID set by the AnonID middleware, or ""
// when the middleware did not run.
func AnonIDFromContext(ctx context.Context) string {
	if id, ok := ctx.Value(observability.AnonIDKey).(string); ok {
		return id
	}

	return ""
}
