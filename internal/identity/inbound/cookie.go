package inbound

import (
	"net/http"
	"time"

	"github.com/shandysiswandi/supavault/internal/pkg/router"
)

// CookieConfig shapes the session cookie.
type CookieConfig struct {
	Name string
	// Secure is set in production so the cookie only travels over HTTPS.
	Secure bool
	Domain string
}

func (c CookieConfig) withDefaults() CookieConfig {
	if c.Name == "" {
		c.Name = router.DefaultCookieName
	}
	return c
}

func (c CookieConfig) session(token string, ttl time.Duration) *http.Cookie {
	return &http.Cookie{
		Name:     c.Name,
		Value:    token,
		Path:     "/",
		Domain:   c.Domain,
		MaxAge:   int(ttl / time.Second),
		HttpOnly: true,
		Secure:   c.Secure,
		SameSite: http.SameSiteLaxMode,
	}
}

// cleared expires the session cookie immediately.
func (c CookieConfig) cleared() *http.Cookie {
	return &http.Cookie{
		Name:     c.Name,
		Value:    "",
		Path:     "/",
		Domain:   c.Domain,
		MaxAge:   -1,
		HttpOnly: true,
		Secure:   c.Secure,
		SameSite: http.SameSiteLaxMode,
	}
}
