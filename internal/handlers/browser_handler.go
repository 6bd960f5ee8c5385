package handlers

import (
	"net/http"

	"github.com/damacus/r2-manager/internal/errs"
	"github.com/damacus/r2-manager/internal/models"
	"github.com/damacus/r2-manager/internal/services"
	"github.com/damacus/r2-manager/internal/utils"
	"github.com/labstack/echo/v4"
)

// BrowserHandler renders the HTML file browser.
type BrowserHandler struct {
	pages        *services.Paginator
	bucket       string
	defaultLimit int
	maxLimit     int
}

func NewBrowserHandler(pages *services.Paginator, bucket string, defaultLimit, maxLimit int) *BrowserHandler {
	if defaultLimit < 1 {
		defaultLimit = services.DefaultPageSize
	}
	return &BrowserHandler{
		pages:        pages,
		bucket:       bucket,
		defaultLimit: defaultLimit,
		maxLimit:     maxLimit,
	}
}

// Browse renders one folder level with the current page of files.
func (h *BrowserHandler) Browse(c echo.Context) error {
	prefix := c.QueryParam("prefix")
	listing, err := h.pages.Page(c.Request().Context(), services.PageRequest{
		Prefix: prefix,
		Page:   parsePage(c.QueryParam("page")),
		Limit:  parseLimit(c.QueryParam("limit"), h.defaultLimit, h.maxLimit),
	})
	if err != nil {
		return echo.NewHTTPError(statusFor(err), errs.PublicMessage(err))
	}

	return c.Render(http.StatusOK, "browser", models.BrowserPage{
		Bucket:      h.bucket,
		Prefix:      prefix,
		UserEmail:   CurrentUserEmail(c),
		CSRFToken:   csrfToken(c),
		Breadcrumbs: models.BuildBreadcrumbs(prefix),
		Listing:     listing,
	})
}

func csrfToken(c echo.Context) string {
	token, _ := c.Get(utils.ContextKeyCSRF).(string)
	return token
}
