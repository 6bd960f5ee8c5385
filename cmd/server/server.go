package main

import (
	"net/http"

	"github.com/damacus/r2-manager/internal/config"
	"github.com/damacus/r2-manager/internal/handlers"
	"github.com/damacus/r2-manager/internal/logger"
	customMiddleware "github.com/damacus/r2-manager/internal/middleware"
	"github.com/damacus/r2-manager/internal/renderer"
	"github.com/damacus/r2-manager/internal/services"
	"github.com/damacus/r2-manager/internal/storage"
	"github.com/google/uuid"
	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

type serverDeps struct {
	Config *config.Config
	Store  storage.Store
	// Verifier enables the Cloudflare Access gate when non-nil.
	Verifier customMiddleware.TokenVerifier
	// Registry is exposed on /metrics, behind the Access gate, when non-nil.
	Registry *prometheus.Registry
	Log      *logger.Logger
}

var publicPaths = []string{"/health"}

func newServer(deps serverDeps) (*echo.Echo, error) {
	cfg, log := deps.Config, deps.Log

	e := echo.New()
	e.HideBanner = true
	e.HidePort = true

	// Services
	lister := services.NewLister(deps.Store, cfg.Storage.ListPageSize, log)
	signer, err := services.NewURLSigner(deps.Store, services.SignerOptions{
		ReadTTL:      cfg.Listing.ReadURLTTL,
		UploadTTL:    cfg.Listing.UploadURLTTL,
		Concurrency:  cfg.Listing.SignConcurrency,
		PublicDomain: cfg.Storage.PublicDomain,
	}, log)
	if err != nil {
		return nil, err
	}
	deleter := services.NewBulkDeleter(deps.Store, cfg.Storage.DeleteChunkSize, log)
	pages := services.NewPaginator(lister, signer)
	objects := services.NewObjectService(deps.Store, lister, signer, deleter, log)

	storageHandler := handlers.NewStorageHandler(pages, objects, cfg.Listing.DefaultPageSize, cfg.Listing.MaxPageSize, log)
	settingsHandler := handlers.NewSettingsHandler(services.NewCORSService(deps.Store), log)
	browserHandler := handlers.NewBrowserHandler(pages, deps.Store.Bucket(), cfg.Listing.DefaultPageSize, cfg.Listing.MaxPageSize)

	// Middleware
	e.Use(middleware.RequestIDWithConfig(middleware.RequestIDConfig{
		Generator: uuid.NewString,
	}))
	e.Use(middleware.Recover())
	e.Use(customMiddleware.RequestLogger(log))
	origins := customMiddleware.StoreOrigins(cfg.Storage.Endpoint, cfg.Storage.PublicDomain)
	if cfg.Storage.Endpoint == "" {
		origins = append(origins, "https://*.amazonaws.com")
	}
	e.Use(customMiddleware.SecurityHeaders(origins...))
	if cfg.Server.RateLimit > 0 {
		e.Use(customMiddleware.RateLimit(customMiddleware.RateLimitConfig{
			RequestsPerSecond: cfg.Server.RateLimit,
			Burst:             cfg.Server.RateBurst,
			PerIP:             true,
		}, log))
	}
	if deps.Verifier != nil {
		e.Use(customMiddleware.Access(customMiddleware.AccessConfig{
			Verifier:        deps.Verifier,
			BypassLocalhost: cfg.Access.BypassLocalhost,
			PublicPaths:     publicPaths,
			Log:             log,
		}))
	}
	e.Use(customMiddleware.CSRF())

	e.Renderer = renderer.New()

	// Public routes
	e.GET("/health", func(c echo.Context) error {
		return c.String(http.StatusOK, "OK")
	})
	if deps.Registry != nil {
		e.GET("/metrics", echo.WrapHandler(promhttp.HandlerFor(deps.Registry, promhttp.HandlerOpts{})))
	}

	// Browser
	e.GET("/", browserHandler.Browse)

	// JSON API
	e.GET("/storage", storageHandler.List)
	e.POST("/storage", storageHandler.Post)
	e.DELETE("/storage", storageHandler.Delete)
	e.GET("/storage/download", storageHandler.Download)

	e.GET("/settings", settingsHandler.GetCORS)
	e.POST("/settings", settingsHandler.UpdateCORS)

	return e, nil
}
