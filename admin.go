package breeze

import (
	"crypto/subtle"
	"net/http"
	"strings"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/eringen/breeze/api"
	"github.com/eringen/breeze/routes"
)

type loginRequest struct {
	Password string `json:"password"`
}

func (a *App) handleAdminLogin(c echo.Context) error {
	ip := c.RealIP()
	if !a.loginLimiter.Check(ip) {
		return fail(c, http.StatusTooManyRequests, api.CodeTooMany, "too many login attempts, try again later")
	}
	var req loginRequest
	if err := c.Bind(&req); err != nil {
		return fail(c, http.StatusBadRequest, api.CodeBadRequest, "invalid request")
	}
	if subtle.ConstantTimeCompare([]byte(req.Password), []byte(a.Config.AdminPassword)) != 1 {
		a.loginLimiter.Record(ip)
		return fail(c, http.StatusUnauthorized, api.CodeUnauthorized, "wrong password")
	}
	if err := setAdminSession(c); err != nil {
		return err
	}
	return success(c, map[string]bool{"authenticated": true})
}

func handleAdminLogout(c echo.Context) error {
	if err := clearAdminSession(c); err != nil {
		return err
	}
	return success[any](c, nil)
}

func (a *App) handleAdminArticles(c echo.Context) error {
	articles, err := a.Store.ListArticles(c.Request().Context(), true)
	if err != nil {
		return err
	}
	return success(c, articles)
}

func (a *App) handleAdminSaveArticle(c echo.Context) error {
	var art Article
	if err := c.Bind(&art); err != nil {
		return fail(c, http.StatusBadRequest, api.CodeBadRequest, "invalid request")
	}
	art.Title = strings.TrimSpace(art.Title)
	art.Slug = strings.TrimSpace(art.Slug)
	if art.Slug == "" {
		art.Slug = Slugify(art.Title)
	}
	if art.Slug == "" {
		return fail(c, http.StatusBadRequest, api.CodeBadRequest, "slug is required, add a title or slug")
	}
	art.Date = strings.TrimSpace(art.Date)
	if art.Date == "" {
		art.Date = time.Now().Format("2006-01-02")
	}
	if _, err := time.Parse("2006-01-02", art.Date); err != nil {
		return fail(c, http.StatusBadRequest, api.CodeBadRequest, "invalid date format, use YYYY-MM-DD")
	}
	art.Category = strings.TrimSpace(art.Category)
	art.Tags = NormalizeTags(art.Tags)

	if err := a.Store.SaveArticle(c.Request().Context(), art); err != nil {
		return err
	}
	a.Cache.Invalidate()
	return success(c, art)
}

func (a *App) handleAdminDeleteArticle(c echo.Context) error {
	if err := a.Store.DeleteArticle(c.Request().Context(), c.Param("slug")); err != nil {
		return err
	}
	a.Cache.Invalidate()
	return success[any](c, nil)
}

func (a *App) handleAdminSavePage(c echo.Context) error {
	var p api.Page
	if err := c.Bind(&p); err != nil {
		return fail(c, http.StatusBadRequest, api.CodeBadRequest, "invalid request")
	}
	p.Label = strings.TrimSpace(p.Label)
	p.Name = Slugify(p.Name)
	if p.Name == "" {
		p.Name = Slugify(p.Label)
	}
	if p.Name == "" || p.Label == "" {
		return fail(c, http.StatusBadRequest, api.CodeBadRequest, "page name and label are required")
	}
	saved, err := a.Store.SavePage(c.Request().Context(), p)
	if err != nil {
		return err
	}
	return success(c, saved)
}

func (a *App) handleAdminDeletePage(c echo.Context) error {
	if err := a.Store.DeletePage(c.Request().Context(), c.Param("name")); err != nil {
		return err
	}
	return success[any](c, nil)
}

func (a *App) handleAdminConfig(c echo.Context) error {
	var cfg api.BlogConfig
	if err := c.Bind(&cfg); err != nil {
		return fail(c, http.StatusBadRequest, api.CodeBadRequest, "invalid request")
	}
	cfg.WebsiteName = strings.TrimSpace(cfg.WebsiteName)
	if cfg.WebsiteName == "" {
		return fail(c, http.StatusBadRequest, api.CodeBadRequest, "website name is required")
	}
	if err := a.Store.SaveBlogConfig(c.Request().Context(), cfg); err != nil {
		return err
	}
	a.Cache.Invalidate()
	return success(c, cfg)
}

// AdminRoutes is the admin console navigation.
type AdminRoutes struct {
	Routes routes.Table      `json:"routes"`
	Menu   []routes.MenuItem `json:"menu"`
}

func (a *App) handleAdminRoutes(c echo.Context) error {
	return success(c, AdminRoutes{Routes: a.routes.Sorted(), Menu: a.routes.Menu()})
}
