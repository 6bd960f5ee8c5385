package middleware

import (
	"context"
	"net"
	"net/http"
	"strings"

	"github.com/damacus/r2-manager/internal/logger"
	"github.com/damacus/r2-manager/internal/services"
	"github.com/damacus/r2-manager/internal/utils"
	"github.com/labstack/echo/v4"
)

// TokenVerifier validates an access token and returns the caller.
type TokenVerifier interface {
	Verify(ctx context.Context, token string) (*services.AccessIdentity, error)
}

// AccessConfig configures the Cloudflare Access gate.
type AccessConfig struct {
	Verifier TokenVerifier
	// BypassLocalhost lets requests addressed to localhost or 127.0.0.1
	// through unverified. Development only: the Host header is client
	// controlled.
	BypassLocalhost bool
	// PublicPaths are served without a token.
	PublicPaths []string
	Log         *logger.Logger
}

type accessError struct {
	Error   string `json:"error"`
	Message string `json:"message"`
}

// Access rejects requests without a valid Cloudflare Access token with 403.
// On success the caller email is stored under utils.ContextKeyUserEmail and
// echoed in X-User-Email.
func Access(cfg AccessConfig) echo.MiddlewareFunc {
	public := make(map[string]bool, len(cfg.PublicPaths))
	for _, p := range cfg.PublicPaths {
		public[p] = true
	}

	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			req := c.Request()
			if public[req.URL.Path] {
				return next(c)
			}
			if cfg.BypassLocalhost && isLocalhost(req.Host) {
				return next(c)
			}

			token := req.Header.Get(utils.AccessHeaderName)
			if token == "" {
				if cookie, err := c.Cookie(utils.AccessCookieName); err == nil {
					token = cookie.Value
				}
			}
			if token == "" {
				cfg.Log.Warn().Str("path", req.URL.Path).Msg("no cloudflare access token")
				return c.JSON(http.StatusForbidden, accessError{
					Error:   "Unauthorized",
					Message: "Missing Cloudflare Access token. Please access via the protected domain.",
				})
			}

			identity, err := cfg.Verifier.Verify(req.Context(), token)
			if err != nil {
				cfg.Log.Warn().Err(err).Str("path", req.URL.Path).Msg("access token verification failed")
				return c.JSON(http.StatusForbidden, accessError{
					Error:   "Unauthorized",
					Message: "Invalid Cloudflare Access token",
				})
			}

			c.Set(utils.ContextKeyUserEmail, identity.Email)
			c.Response().Header().Set("X-User-Email", identity.Email)
			return next(c)
		}
	}
}

func isLocalhost(hostport string) bool {
	host := hostport
	if h, _, err := net.SplitHostPort(hostport); err == nil {
		host = h
	}
	host = strings.Trim(host, "[]")
	return host == "localhost" || host == "127.0.0.1"
}
