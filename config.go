package breeze

import (
	"errors"
	"io/fs"
	"strings"
	"time"

	"github.com/eringen/breeze/api"
	"github.com/eringen/breeze/geo"
	"github.com/joho/godotenv"
)

// SiteConfig holds all configuration for a breeze server.
type SiteConfig struct {
	Name   string // Website name (default "Breeze")
	Author string // Website author (default "Breeze")
	Intro  string // Website intro line
	URL    string // Public base URL (default "http://localhost:3000")

	Addr                  string // Listen address (default ":3000")
	DatabasePath          string // SQLite path (default "data/blog.db")
	AnalyticsDatabasePath string // Analytics SQLite path (default "data/analytics.db")
	UploadDir             string // Cover upload directory (default "data/uploads")

	AdminPassword string   // Required: admin login password
	SessionSecret string   // Required: session encryption secret
	CookieSecure  bool     // Set true for HTTPS
	CORSOrigins   []string // Front-end origins allowed to call the API

	AmapAPIKey  string // Reverse geocoding via Amap, tried first
	BaiduAPIKey string // Reverse geocoding via Baidu

	InfoCacheTTL       time.Duration // Home payload cache TTL (default 1min)
	VisitRetentionDays int           // Analytics retention (default 365)
}

func (c *SiteConfig) setDefaults() {
	def := api.DefaultBlogConfig()
	if c.Name == "" {
		c.Name = def.WebsiteName
	}
	if c.Author == "" {
		c.Author = def.WebsiteAuthor
	}
	if c.Intro == "" {
		c.Intro = def.WebsiteIntro
	}
	if c.URL == "" {
		c.URL = "http://localhost:3000"
	}
	c.URL = strings.TrimRight(c.URL, "/")
	if c.Addr == "" {
		c.Addr = ":3000"
	}
	if c.DatabasePath == "" {
		c.DatabasePath = "data/blog.db"
	}
	if c.AnalyticsDatabasePath == "" {
		c.AnalyticsDatabasePath = "data/analytics.db"
	}
	if c.UploadDir == "" {
		c.UploadDir = "data/uploads"
	}
	if c.InfoCacheTTL == 0 {
		c.InfoCacheTTL = time.Minute
	}
	if c.VisitRetentionDays == 0 {
		c.VisitRetentionDays = 365
	}
}

// blogConfig is the branding used until an admin saves one.
func (c SiteConfig) blogConfig() api.BlogConfig {
	return api.BlogConfig{
		WebsiteName:   c.Name,
		WebsiteAuthor: c.Author,
		WebsiteIntro:  c.Intro,
	}
}

// geocoder builds the reverse geocoder chain from the configured keys.
func (c SiteConfig) geocoder() geo.Geocoder {
	var chain geo.Chain
	if c.AmapAPIKey != "" {
		chain = append(chain, &geo.AmapGeocoder{Key: c.AmapAPIKey})
	}
	if c.BaiduAPIKey != "" {
		chain = append(chain, &geo.BaiduGeocoder{Key: c.BaiduAPIKey})
	}
	if len(chain) == 0 {
		return nil
	}
	return chain
}

// LoadConfig reads the server configuration from the environment, after
// loading a .env file from the working directory when one exists.
func LoadConfig() (SiteConfig, error) {
	if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return SiteConfig{}, err
	}
	return SiteConfig{
		Name:                  EnvOr("SITE_NAME", ""),
		Author:                EnvOr("SITE_AUTHOR", ""),
		Intro:                 EnvOr("SITE_INTRO", ""),
		URL:                   EnvOr("BREEZE_SERVER_URL", ""),
		Addr:                  EnvOr("ADDR", ""),
		DatabasePath:          EnvOr("DATABASE_PATH", ""),
		AnalyticsDatabasePath: EnvOr("ANALYTICS_DATABASE_PATH", ""),
		UploadDir:             EnvOr("UPLOAD_DIR", ""),
		AdminPassword:         EnvOr("ADMIN_PASSWORD", ""),
		SessionSecret:         EnvOr("SESSION_SECRET", ""),
		CookieSecure:          EnvOr("COOKIE_SECURE", "") == "true",
		CORSOrigins:           FilterEmpty(strings.Split(EnvOr("CORS_ORIGINS", ""), ",")),
		AmapAPIKey:            EnvOr("AMAP_API_KEY", ""),
		BaiduAPIKey:           EnvOr("BAIDU_API_KEY", ""),
	}, nil
}

// Option configures additional App behavior.
type Option func(*App)

// WithCustomRoutes registers additional routes on the Echo instance.
// The callback receives the App after the built-in routes are set up.
func WithCustomRoutes(fn func(*App)) Option {
	return func(a *App) {
		a.customRoutes = append(a.customRoutes, fn)
	}
}

// WithUploadDir sets the directory cover uploads are written to and served from.
func WithUploadDir(dir string) Option {
	return func(a *App) {
		a.Config.UploadDir = dir
	}
}

// WithGeocoder replaces the geocoder built from the configured API keys.
func WithGeocoder(g geo.Geocoder) Option {
	return func(a *App) {
		a.geocoder = g
	}
}
