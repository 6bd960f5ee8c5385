package handlers

import (
	"mime"
	"net/http"
	"path"
	"strconv"

	"github.com/damacus/r2-manager/internal/errs"
	"github.com/damacus/r2-manager/internal/logger"
	"github.com/damacus/r2-manager/internal/models"
	"github.com/damacus/r2-manager/internal/services"
	"github.com/labstack/echo/v4"
)

// POST /storage actions. An empty action requests an upload URL.
const (
	ActionBulkDelete   = "bulk-delete"
	ActionCreateFolder = "create-folder"
	ActionDeleteFolder = "delete-folder"
)

type StorageHandler struct {
	pages        *services.Paginator
	objects      *services.ObjectService
	defaultLimit int
	maxLimit     int
	log          *logger.Logger
}

func NewStorageHandler(pages *services.Paginator, objects *services.ObjectService, defaultLimit, maxLimit int, log *logger.Logger) *StorageHandler {
	if defaultLimit < 1 {
		defaultLimit = services.DefaultPageSize
	}
	return &StorageHandler{
		pages:        pages,
		objects:      objects,
		defaultLimit: defaultLimit,
		maxLimit:     maxLimit,
		log:          log,
	}
}

// storageRequest is the union of every POST /storage body.
type storageRequest struct {
	Action      string   `json:"action"`
	Filename    string   `json:"filename"`
	ContentType string   `json:"contentType"`
	Keys        []string `json:"keys"`
	Prefix      string   `json:"prefix"`
	Name        string   `json:"name"`
}

// List handles GET /storage: one folder level, paginated.
func (h *StorageHandler) List(c echo.Context) error {
	req := services.PageRequest{
		Prefix:          c.QueryParam("prefix"),
		Page:            parsePage(c.QueryParam("page")),
		Limit:           parseLimit(c.QueryParam("limit"), h.defaultLimit, h.maxLimit),
		IncludeAllStats: c.QueryParam("includeAllStats") == "true",
	}

	page, err := h.pages.Page(c.Request().Context(), req)
	if err != nil {
		return respondError(c, h.log, err)
	}
	return c.JSON(http.StatusOK, page)
}

// Post handles POST /storage: upload URL issuance and the bulk actions.
func (h *StorageHandler) Post(c echo.Context) error {
	var req storageRequest
	if err := c.Bind(&req); err != nil {
		return respondError(c, h.log, errs.InvalidArgument("Invalid request body"))
	}

	ctx := c.Request().Context()
	switch req.Action {
	case ActionBulkDelete:
		report, err := h.objects.BulkDelete(ctx, req.Keys)
		return h.respondReport(c, report, err)

	case ActionDeleteFolder:
		report, err := h.objects.DeleteFolder(ctx, req.Prefix)
		return h.respondReport(c, report, err)

	case ActionCreateFolder:
		key, err := h.objects.CreateFolder(ctx, req.Prefix, req.Name)
		if err != nil {
			return respondError(c, h.log, err)
		}
		return c.JSON(http.StatusOK, map[string]any{"success": true, "key": key})

	case "":
		url, err := h.objects.IssueUploadURL(ctx, req.Filename, req.ContentType)
		if err != nil {
			return respondError(c, h.log, err)
		}
		return c.JSON(http.StatusOK, map[string]string{"url": url})

	default:
		return respondError(c, h.log, errs.InvalidArgument("Unknown action: "+req.Action))
	}
}

// respondReport answers a bulk delete. A call-level failure of any chunk is
// a 500 that still carries what was deleted before and after it.
func (h *StorageHandler) respondReport(c echo.Context, report *models.BulkDeleteReport, err error) error {
	if report == nil {
		return respondError(c, h.log, err)
	}

	resp := models.NewBulkDeleteResponse(report)
	if err != nil {
		h.log.Error().Err(err).
			Int("deleted", resp.Deleted).
			Int("failed_chunks", resp.FailedChunks).
			Msg("bulk delete incomplete")
		resp.Error = errs.PublicMessage(err)
		return c.JSON(http.StatusInternalServerError, resp)
	}
	return c.JSON(http.StatusOK, resp)
}

// Delete handles DELETE /storage?key=.
func (h *StorageHandler) Delete(c echo.Context) error {
	if err := h.objects.Delete(c.Request().Context(), c.QueryParam("key")); err != nil {
		return respondError(c, h.log, err)
	}
	return c.JSON(http.StatusOK, map[string]bool{"success": true})
}

// Download handles GET /storage/download?key= by streaming the object.
func (h *StorageHandler) Download(c echo.Context) error {
	key := c.QueryParam("key")
	obj, err := h.objects.Open(c.Request().Context(), key)
	if err != nil {
		return respondError(c, h.log, err)
	}
	defer func() { _ = obj.Close() }()

	contentType := obj.ContentType
	if contentType == "" {
		contentType = echo.MIMEOctetStream
	}

	header := c.Response().Header()
	header.Set(echo.HeaderContentDisposition, mime.FormatMediaType("attachment", map[string]string{"filename": path.Base(key)}))
	if obj.Size >= 0 {
		header.Set(echo.HeaderContentLength, strconv.FormatInt(obj.Size, 10))
	}
	return c.Stream(http.StatusOK, contentType, obj)
}
