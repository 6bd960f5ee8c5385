package handlers

import (
	"net/http"

	"github.com/damacus/r2-manager/internal/errs"
	"github.com/damacus/r2-manager/internal/logger"
	"github.com/damacus/r2-manager/internal/services"
	"github.com/damacus/r2-manager/internal/storage"
	"github.com/labstack/echo/v4"
)

type SettingsHandler struct {
	cors *services.CORSService
	log  *logger.Logger
}

func NewSettingsHandler(cors *services.CORSService, log *logger.Logger) *SettingsHandler {
	return &SettingsHandler{cors: cors, log: log}
}

type corsRequest struct {
	Rules []storage.CORSRule `json:"rules"`
}

// GetCORS handles GET /settings. A bucket without CORS yields {"rules": []}.
func (h *SettingsHandler) GetCORS(c echo.Context) error {
	rules, err := h.cors.Rules(c.Request().Context())
	if err != nil {
		return respondError(c, h.log, err)
	}
	return c.JSON(http.StatusOK, map[string]any{"rules": rules})
}

// UpdateCORS handles POST /settings, replacing every bucket rule.
func (h *SettingsHandler) UpdateCORS(c echo.Context) error {
	var req corsRequest
	if err := c.Bind(&req); err != nil {
		return respondError(c, h.log, errs.InvalidArgument("Invalid request body"))
	}

	if err := h.cors.Replace(c.Request().Context(), req.Rules); err != nil {
		return respondError(c, h.log, err)
	}

	h.log.Info().
		Int("rules", len(req.Rules)).
		Str("user", CurrentUserEmail(c)).
		Msg("bucket cors updated")
	return c.JSON(http.StatusOK, map[string]bool{"success": true})
}
