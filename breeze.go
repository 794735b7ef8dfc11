// Package breeze is the blog API server behind the Breeze front-end and
// admin console. It serves the home payload and page list, accepts location
// reports, and exposes JSON admin endpoints for content, diaries, branding
// and visits.
package breeze

import (
	"context"
	"errors"
	"fmt"
	"log"
	"net/http"
	"os"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/eringen/breeze/analytics"
	"github.com/eringen/breeze/api"
	"github.com/eringen/breeze/geo"
	"github.com/eringen/breeze/routes"
)

// App is the central breeze application. It wires together the stores,
// cache, handlers and middleware.
type App struct {
	Config    SiteConfig
	Echo      *echo.Echo
	Store     *Store
	Cache     *InfoCache
	Analytics *analytics.Store

	loginLimiter  *Limiter
	reportLimiter *Limiter
	geocoder      geo.Geocoder
	routes        routes.Table
	customRoutes  []func(*App)
	stopCleanup   func()
}

// New creates a new breeze App with the given configuration.
func New(cfg SiteConfig, opts ...Option) *App {
	cfg.setDefaults()

	a := &App{
		Config:   cfg,
		Echo:     echo.New(),
		geocoder: cfg.geocoder(),
		routes:   routes.Default(),
	}
	a.Echo.HideBanner = true

	for _, opt := range opts {
		opt(a)
	}

	return a
}

// Setup opens the databases and registers middleware and routes. Start
// calls it; tests call it directly and drive a.Echo.
func (a *App) Setup() error {
	// Validate required config
	if a.Config.AdminPassword == "" {
		return fmt.Errorf("breeze: AdminPassword is required")
	}
	if a.Config.SessionSecret == "" {
		return fmt.Errorf("breeze: SessionSecret is required")
	}
	if err := a.routes.Validate(); err != nil {
		return fmt.Errorf("breeze: %w", err)
	}

	store, err := NewStore(a.Config.DatabasePath)
	if err != nil {
		return fmt.Errorf("breeze: init store: %w", err)
	}
	a.Store = store

	analyticsStore, err := analytics.NewStore(a.Config.AnalyticsDatabasePath)
	if err != nil {
		return fmt.Errorf("breeze: init analytics: %w", err)
	}
	a.Analytics = analyticsStore
	if err := analytics.InitSalt(analyticsStore); err != nil {
		return fmt.Errorf("breeze: init analytics salt: %w", err)
	}
	a.stopCleanup = analyticsStore.StartCleanupScheduler(a.Config.VisitRetentionDays, 24*time.Hour)

	a.Cache = NewInfoCache(a.Config.InfoCacheTTL, a.loadBlogInfo)
	a.loginLimiter = NewLimiter(5, time.Minute)
	a.reportLimiter = NewLimiter(60, time.Minute)

	a.setupMiddleware()
	a.setupRoutes()

	for _, fn := range a.customRoutes {
		fn(a)
	}
	return nil
}

// Start sets the app up and serves until the server is shut down.
func (a *App) Start() error {
	if err := a.Setup(); err != nil {
		return err
	}
	if err := a.Echo.Start(a.Config.Addr); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

// Shutdown stops the HTTP server gracefully.
func (a *App) Shutdown(ctx context.Context) error {
	return a.Echo.Shutdown(ctx)
}

func (a *App) setupRoutes() {
	e := a.Echo

	e.Static("/uploads", a.Config.UploadDir)

	visits := analytics.NewHandler(a.Analytics, a.geocoder, a.reportLimiter)

	// Public API
	e.GET("/api/home", a.handleHome)
	e.GET("/api/page/list", a.handlePageList)
	e.POST("/api/report", visits.Report)
	e.GET("/api/diary/list", a.handleDiaryList)
	e.GET("/api/diary/:id", a.handleDiaryDetail)

	// Admin API
	e.POST("/api/admin/login", a.handleAdminLogin, a.requireTrustedOrigin)
	e.POST("/api/admin/logout", handleAdminLogout, a.requireTrustedOrigin)

	admin := e.Group("/api/admin", a.requireTrustedOrigin, requireAdmin)
	admin.GET("/articles", a.handleAdminArticles)
	admin.POST("/articles", a.handleAdminSaveArticle)
	admin.DELETE("/articles/:slug", a.handleAdminDeleteArticle)
	admin.POST("/pages", a.handleAdminSavePage)
	admin.DELETE("/pages/:name", a.handleAdminDeletePage)
	admin.GET("/diaries", a.handleAdminDiaries)
	admin.POST("/diaries", a.handleAdminSaveDiary)
	admin.DELETE("/diaries", a.handleAdminDeleteDiaries)
	admin.PUT("/diaries/trash", a.handleAdminTrashDiaries)
	admin.PUT("/config", a.handleAdminConfig)
	admin.POST("/upload", a.handleUpload)
	admin.GET("/visits", visits.ListVisits)
	admin.GET("/visits/summary", visits.GetSummary)
	admin.GET("/routes", a.handleAdminRoutes)
}

// loadBlogInfo assembles the home payload from both databases.
func (a *App) loadBlogInfo(ctx context.Context) (api.BlogInfo, error) {
	counts, err := a.Store.Counts(ctx)
	if err != nil {
		return api.BlogInfo{}, err
	}
	cfg, err := a.Store.BlogConfig(ctx, a.Config.blogConfig())
	if err != nil {
		return api.BlogInfo{}, fmt.Errorf("blog config: %w", err)
	}
	views, err := a.Analytics.ViewCount(ctx)
	if err != nil {
		return api.BlogInfo{}, fmt.Errorf("view count: %w", err)
	}
	users, err := a.Analytics.UniqueVisitors(ctx)
	if err != nil {
		return api.BlogInfo{}, fmt.Errorf("unique visitors: %w", err)
	}
	return api.BlogInfo{
		ArticleCount:  counts.Articles,
		CategoryCount: counts.Categories,
		TagCount:      counts.Tags,
		ViewCount:     views,
		UserCount:     users,
		BlogConfig:    cfg,
	}, nil
}

// Close cleans up resources. Call this when the app is shutting down.
func (a *App) Close() error {
	if a.stopCleanup != nil {
		a.stopCleanup()
	}
	if a.loginLimiter != nil {
		a.loginLimiter.Stop()
	}
	if a.reportLimiter != nil {
		a.reportLimiter.Stop()
	}
	var errs []error
	if a.Store != nil {
		errs = append(errs, a.Store.Close())
	}
	if a.Analytics != nil {
		errs = append(errs, a.Analytics.Close())
	}
	return errors.Join(errs...)
}

// EnvOr returns the value of the environment variable key, or fallback if empty.
func EnvOr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

// MustEnv returns the value of the environment variable key, or fatally exits if empty.
func MustEnv(key string) string {
	v := os.Getenv(key)
	if v == "" {
		log.Fatalf("breeze: required environment variable %s is not set", key)
	}
	return v
}
