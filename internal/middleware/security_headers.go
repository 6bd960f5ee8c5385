package middleware

import (
	"net/url"
	"strings"

	"github.com/labstack/echo/v4"
)

// SecurityHeaders sets browser hardening headers. storeOrigins are the
// origins signed URLs point at: the page previews from them and uploads to
// them directly, so they are added to img, media, frame and connect sources.
// With no origins any https source is allowed.
func SecurityHeaders(storeOrigins ...string) echo.MiddlewareFunc {
	csp := contentSecurityPolicy(storeOrigins)

	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			headers := c.Response().Header()
			headers.Set("X-Frame-Options", "DENY")
			headers.Set("X-Content-Type-Options", "nosniff")
			headers.Set("Referrer-Policy", "strict-origin-when-cross-origin")
			headers.Set("Permissions-Policy", "geolocation=(), microphone=(), camera=()")
			headers.Set("Content-Security-Policy", csp)

			if isSecureRequest(c) {
				headers.Set("Strict-Transport-Security", "max-age=31536000; includeSubDomains")
			}

			return next(c)
		}
	}
}

func contentSecurityPolicy(storeOrigins []string) string {
	store := "https:"
	if len(storeOrigins) > 0 {
		store = strings.Join(storeOrigins, " ")
	}
	sources := "'self' " + store

	return strings.Join([]string{
		"default-src 'self'",
		"script-src 'self' 'unsafe-inline' https://cdn.tailwindcss.com",
		"style-src 'self' 'unsafe-inline'",
		"img-src " + sources + " data:",
		"media-src " + sources,
		"frame-src " + sources,
		"connect-src " + sources,
		"frame-ancestors 'none'",
		"base-uri 'self'",
		"form-action 'self'",
	}, "; ")
}

// StoreOrigins reduces endpoint URLs or bare hosts to scheme://host origins.
// Empty and unparseable values are skipped.
func StoreOrigins(endpoints ...string) []string {
	var origins []string
	seen := make(map[string]bool)
	for _, raw := range endpoints {
		if raw == "" {
			continue
		}
		if !strings.Contains(raw, "://") {
			raw = "https://" + raw
		}
		u, err := url.Parse(raw)
		if err != nil || u.Host == "" {
			continue
		}
		origin := u.Scheme + "://" + u.Host
		if !seen[origin] {
			seen[origin] = true
			origins = append(origins, origin)
		}
	}
	return origins
}

func isSecureRequest(c echo.Context) bool {
	req := c.Request()
	if req.TLS != nil {
		return true
	}

	return strings.EqualFold(req.Header.Get("X-Forwarded-Proto"), "https")
}
