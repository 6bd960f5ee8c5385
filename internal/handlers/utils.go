package handlers

import (
	"net/http"
	"strconv"

	"github.com/damacus/r2-manager/internal/errs"
	"github.com/damacus/r2-manager/internal/logger"
	"github.com/damacus/r2-manager/internal/utils"
	"github.com/labstack/echo/v4"
)

// CurrentUserEmail returns the verified caller email, or "" when the access
// gate was bypassed.
func CurrentUserEmail(c echo.Context) string {
	email, _ := c.Get(utils.ContextKeyUserEmail).(string)
	return email
}

// statusFor maps an error kind to an HTTP status.
func statusFor(err error) int {
	if errs.IsInvalidArgument(err) {
		return http.StatusBadRequest
	}
	return http.StatusInternalServerError
}

// respondError writes {"error": message}. Backend messages pass through
// unchanged.
func respondError(c echo.Context, log *logger.Logger, err error) error {
	status := statusFor(err)
	if status >= http.StatusInternalServerError {
		log.Error().Err(err).
			Str("method", c.Request().Method).
			Str("path", c.Path()).
			Msg("storage request failed")
	}
	return c.JSON(status, map[string]string{"error": errs.PublicMessage(err)})
}

// parsePage reads a 1-indexed page number. Missing, unparseable and zero
// values mean the first page.
func parsePage(raw string) int {
	page, err := strconv.Atoi(raw)
	if err != nil || page == 0 {
		return 1
	}
	return page
}

// parseLimit reads a page size, falling back to def and capping at max.
func parseLimit(raw string, def, maxLimit int) int {
	limit, err := strconv.Atoi(raw)
	if err != nil || limit < 1 {
		limit = def
	}
	if maxLimit > 0 && limit > maxLimit {
		limit = maxLimit
	}
	return limit
}
