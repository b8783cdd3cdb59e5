package auth

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestCookieWriteIssuesRefreshAndCSRF(t *testing.T) {
	cfg := &CookieConfig{Secure: true, SameSite: http.SameSiteLaxMode, TTL: time.Hour}
	rr := httptest.NewRecorder()
	cfg.write(rr, "tok-abc", time.Now().Add(time.Hour))

	cookies := rr.Result().Cookies()
	require.Len(t, cookies, 2)

	byName := map[string]*http.Cookie{}
	for _, c := range cookies {
		byName[c.Name] = c
	}

	refresh := byName["refresh_token"]
	require.NotNil(t, refresh)
	require.Equal(t, "tok-abc", refresh.Value)
	require.True(t, refresh.HttpOnly)
	require.True(t, refresh.Secure)
	require.Equal(t, "/api/v1/auth", refresh.Path)

	csrf := byName["X-CSRF-Token"]
	require.NotNil(t, csrf)
	require.NotEmpty(t, csrf.Value)
	require.False(t, csrf.HttpOnly)
}

func TestCookieWriteNilConfigIsNoop(t *testing.T) {
	var cfg *CookieConfig
	rr := httptest.NewRecorder()
	cfg.write(rr, "tok-abc", time.Now().Add(time.Hour))
	require.Empty(t, rr.Result().Cookies())
}

func TestCookieClearExpiresBoth(t *testing.T) {
	cfg := &CookieConfig{}
	rr := httptest.NewRecorder()
	cfg.clear(rr)

	cookies := rr.Result().Cookies()
	require.Len(t, cookies, 2)
	for _, c := range cookies {
		require.Less(t, c.MaxAge, 0)
		require.Empty(t, c.Value)
	}
}

func TestRefreshTokenFromPrefersBody(t *testing.T) {
	req := httptest.NewRequest(http.MethodPost, "/api/v1/auth/refresh", nil)
	req.AddCookie(&http.Cookie{Name: "refresh_token", Value: "cookie-tok"})

	require.Equal(t, "body-tok", refreshTokenFrom(req, "body-tok"))
	require.Equal(t, "cookie-tok", refreshTokenFrom(req, ""))

	bare := httptest.NewRequest(http.MethodPost, "/api/v1/auth/refresh", nil)
	require.Empty(t, refreshTokenFrom(bare, ""))
}
