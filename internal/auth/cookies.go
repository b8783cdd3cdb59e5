package auth

import (
	"net/http"
	"strings"
	"time"

	"github.com/google/uuid"
)

const (
	refreshCookieName = "refresh_token"
	csrfCookieName    = "X-CSRF-Token"
)

// CookieConfig controls the browser-session cookies issued alongside the
// token pair. When nil, tokens are delivered in the response body only.
type CookieConfig struct {
	Domain   string
	Secure   bool
	SameSite http.SameSite
	TTL      time.Duration
}

// write sets the httpOnly refresh cookie plus a readable CSRF cookie that
// browser clients echo back in the X-CSRF-Token header.
func (c *CookieConfig) write(w http.ResponseWriter, refreshToken string, expiry time.Time) {
	if c == nil || refreshToken == "" {
		return
	}
	maxAge := int(time.Until(expiry).Seconds())
	if c.TTL > 0 {
		maxAge = int(c.TTL.Seconds())
	}
	http.SetCookie(w, &http.Cookie{
		Name:     refreshCookieName,
		Value:    refreshToken,
		Path:     "/api/v1/auth",
		Domain:   c.Domain,
		MaxAge:   maxAge,
		Secure:   c.Secure,
		HttpOnly: true,
		SameSite: c.SameSite,
	})
	http.SetCookie(w, &http.Cookie{
		Name:     csrfCookieName,
		Value:    uuid.NewString(),
		Path:     "/",
		Domain:   c.Domain,
		MaxAge:   maxAge,
		Secure:   c.Secure,
		HttpOnly: false,
		SameSite: c.SameSite,
	})
}

func (c *CookieConfig) clear(w http.ResponseWriter) {
	if c == nil {
		return
	}
	http.SetCookie(w, &http.Cookie{
		Name:     refreshCookieName,
		Value:    "",
		Path:     "/api/v1/auth",
		Domain:   c.Domain,
		MaxAge:   -1,
		Secure:   c.Secure,
		HttpOnly: true,
		SameSite: c.SameSite,
	})
	http.SetCookie(w, &http.Cookie{
		Name:   csrfCookieName,
		Value:  "",
		Path:   "/",
		Domain: c.Domain,
		MaxAge: -1,
		Secure: c.Secure,
	})
}

// refreshTokenFrom resolves the refresh token from the request body value
// or, for browser sessions, the httpOnly cookie.
func refreshTokenFrom(r *http.Request, bodyToken string) string {
	if token := strings.TrimSpace(bodyToken); token != "" {
		return token
	}
	cookie, err := r.Cookie(refreshCookieName)
	if err != nil {
		return ""
	}
	return strings.TrimSpace(cookie.Value)
}
