package middleware

import (
	"net/http"

	"github.com/damacus/r2-manager/internal/utils"
	"github.com/labstack/echo/v4"
	echoMiddleware "github.com/labstack/echo/v4/middleware"
)

// CSRFContextKey holds the token the browser page must echo back.
const CSRFContextKey = utils.ContextKeyCSRF

// CSRF protects cookie-authenticated requests. Callers that authenticate
// with the Access header alone carry no ambient credentials and are skipped.
func CSRF() echo.MiddlewareFunc {
	return echoMiddleware.CSRFWithConfig(echoMiddleware.CSRFConfig{
		TokenLookup:    "header:X-CSRF-Token",
		ContextKey:     CSRFContextKey,
		CookieName:     "csrf",
		CookiePath:     "/",
		CookieSameSite: http.SameSiteStrictMode,
		Skipper: func(c echo.Context) bool {
			switch c.Request().Method {
			case http.MethodGet, http.MethodHead, http.MethodOptions, http.MethodTrace:
				return false
			}

			_, err := c.Cookie(utils.AccessCookieName)
			return err != nil
		},
	})
}
