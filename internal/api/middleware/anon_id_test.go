package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAnonID(t *testing.T) {
	echoAnonID := func(captured *string) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			*captured = AnonIDFromContext(r.Context())
			w.WriteHeader(http.StatusOK)
		})
	}

	t.Run("issues a cookie to new callers", func(t *testing.T) {
		var seen string

		handler := AnonID(false)(echoAnonID(&seen))

		rec := httptest.NewRecorder()
		handler.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/v1/ideas", nil))

		res := rec.Result()
		defer res.Body.Close()

		cookies := res.Cookies()
		require.Len(t, cookies, 1)

		cookie := cookies[0]
		assert.Equal(t, AnonIDCookieName, cookie.Name)
		assert.True(t, cookie.HttpOnly)
		assert.Equal(t, http.SameSiteLaxMode, cookie.SameSite)
		assert.Equal(t, anonIDCookieMaxAge, cookie.MaxAge)

		_, err := uuid.Parse(cookie.Value)
		require.NoError(t, err)
		assert.Equal(t, cookie.Value, seen)
	})

	t.Run("reuses a valid cookie", func(t *testing.T) {
		var seen string

		handler := AnonID(false)(echoAnonID(&seen))
		existing := uuid.New().String()

		req := httptest.NewRequest(http.MethodGet, "/v1/ideas", nil)
		req.AddCookie(&http.Cookie{Name: AnonIDCookieName, Value: existing})

		rec := httptest.NewRecorder()
		handler.ServeHTTP(rec, req)

		res := rec.Result()
		defer res.Body.Close()

		assert.Empty(t, res.Cookies())
		assert.Equal(t, existing, seen)
	})

	t.Run("replaces a malformed cookie", func(t *testing.T) {
		var seen string

		handler := AnonID(false)(echoAnonID(&seen))

		req := httptest.NewRequest(http.MethodGet, "/v1/ideas", nil)
		req.AddCookie(&http.Cookie{Name: AnonIDCookieName, Value: "not-a-uuid"})

		rec := httptest.NewRecorder()
		handler.ServeHTTP(rec, req)

		res := rec.Result()
		defer res.Body.Close()

		cookies := res.Cookies()
		require.Len(t, cookies, 1)
		assert.NotEqual(t, "not-a-uuid", cookies[0].Value)
		assert.Equal(t, cookies[0].Value, seen)
	})

	t.Run("secure flag follows configuration", func(t *testing.T) {
		var seen string

		handler := AnonID(true)(echoAnonID(&seen))

		rec := httptest.NewRecorder()
		handler.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/", nil))

		res := rec.Result()
		defer res.Body.Close()

		require.Len(t, res.Cookies(), 1)
		assert.True(t, res.Cookies()[0].Secure)
	})
}
