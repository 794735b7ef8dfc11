package analytics

import (
	"errors"
	"fmt"
	"math"
	"net/http"
	"strconv"
	"time"

	"github.com/eringen/breeze/api"
	"github.com/eringen/breeze/geo"
	"github.com/labstack/echo/v4"
)

// Limiter decides whether a request from key may proceed.
type Limiter interface {
	Allow(key string) bool
}

// Handler handles analytics HTTP requests.
type Handler struct {
	store    *Store
	geocoder geo.Geocoder
	limiter  Limiter
	now      func() time.Time
}

// NewHandler creates a new analytics handler. geocoder and limiter may be nil.
func NewHandler(store *Store, geocoder geo.Geocoder, limiter Limiter) *Handler {
	return &Handler{
		store:    store,
		geocoder: geocoder,
		limiter:  limiter,
		now:      time.Now,
	}
}

// Input validation limits for the report endpoint.
const (
	maxErrorLen     = 512
	maxSessionIDLen = 64
)

var errInvalidReport = errors.New("invalid report")

// validateReport checks coordinate ranges and field lengths.
func validateReport(req *ReportRequest) error {
	if len(req.Error) > maxErrorLen {
		return fmt.Errorf("%w: error exceeds maximum length of %d", errInvalidReport, maxErrorLen)
	}
	loc := req.Location
	if loc == nil {
		return nil
	}
	for _, f := range []float64{loc.Latitude, loc.Longitude, loc.Accuracy} {
		if math.IsNaN(f) || math.IsInf(f, 0) {
			return fmt.Errorf("%w: coordinates must be finite", errInvalidReport)
		}
	}
	if loc.Latitude < -90 || loc.Latitude > 90 {
		return fmt.Errorf("%w: latitude out of range", errInvalidReport)
	}
	if loc.Longitude < -180 || loc.Longitude > 180 {
		return fmt.Errorf("%w: longitude out of range", errInvalidReport)
	}
	if loc.Accuracy < 0 {
		return fmt.Errorf("%w: accuracy must not be negative", errInvalidReport)
	}
	return nil
}

func reply[T any](c echo.Context, status, code int, msg string, data T) error {
	return c.JSON(status, api.Response[T]{Code: code, Message: msg, Data: data})
}

// Report records the location report a client sends once per page load.
func (h *Handler) Report(c echo.Context) error {
	ip := c.RealIP()
	if h.limiter != nil && !h.limiter.Allow(ip) {
		return reply[any](c, http.StatusTooManyRequests, api.CodeTooMany, "too many requests", nil)
	}

	var req ReportRequest
	if err := c.Bind(&req); err != nil {
		return reply[any](c, http.StatusBadRequest, api.CodeBadRequest, "invalid request", nil)
	}
	if err := validateReport(&req); err != nil {
		return reply[any](c, http.StatusBadRequest, api.CodeBadRequest, err.Error(), nil)
	}

	userAgent := c.Request().UserAgent()
	if IsBot(userAgent) {
		return reply[any](c, http.StatusOK, api.CodeOK, "ok", nil)
	}

	ctx := c.Request().Context()
	now := h.now().UTC()
	visitorID := GenerateVisitorID(ip, userAgent)

	// Skip the geocoder round trip for visitors already counted this hour.
	seen, err := h.store.Seen(ctx, visitorID, HourBucket(now))
	if err != nil {
		c.Logger().Errorf("Failed to check visitor: %v", err)
		return reply[any](c, http.StatusInternalServerError, api.CodeDatabase, "internal server error", nil)
	}
	if seen {
		return reply[any](c, http.StatusOK, api.CodeOK, "ok", nil)
	}

	sessionID := c.Request().Header.Get("X-Session-ID")
	if len(sessionID) > maxSessionIDLen {
		sessionID = sessionID[:maxSessionIDLen]
	}
	browser, os, device := ParseUserAgent(userAgent)
	visit := &Visit{
		VisitorID:     visitorID,
		SessionID:     sessionID,
		IPHash:        HashIP(ip),
		Browser:       browser,
		OS:            os,
		Device:        device,
		PageURL:       PagePath(c.Request().Referer()),
		LocationError: req.Error,
		Timestamp:     now,
	}
	if loc := req.Location; loc != nil && loc.Latitude != 0 && loc.Longitude != 0 {
		visit.Coordinates = FormatCoordinates(*loc)
		if h.geocoder != nil {
			visit.LocationAddress = geo.Address(ctx, h.geocoder, loc.Latitude, loc.Longitude)
		}
	}

	if _, err := h.store.RecordVisit(ctx, visit); err != nil {
		c.Logger().Errorf("Failed to save visit: %v", err)
	}
	return reply[any](c, http.StatusOK, api.CodeOK, "ok", nil)
}

// VisitPage is one page of the visit log.
type VisitPage struct {
	Visits []Visit `json:"visits"`
	Total  int     `json:"total"`
	Page   int     `json:"page"`
	Size   int     `json:"size"`
}

const (
	defaultPageSize = 20
	maxPageSize     = 100
)

// ListVisits returns the visit log, newest first. Query: page (1-based), size.
func (h *Handler) ListVisits(c echo.Context) error {
	page, size := parsePaging(c.QueryParam("page"), c.QueryParam("size"))
	visits, total, err := h.store.ListVisits(c.Request().Context(), size, (page-1)*size)
	if err != nil {
		c.Logger().Errorf("Failed to list visits: %v", err)
		return reply[any](c, http.StatusInternalServerError, api.CodeDatabase, "internal server error", nil)
	}
	return reply(c, http.StatusOK, api.CodeOK, "ok", VisitPage{Visits: visits, Total: total, Page: page, Size: size})
}

// GetSummary returns aggregate visit counters.
func (h *Handler) GetSummary(c echo.Context) error {
	sum, err := h.store.GetSummary(c.Request().Context())
	if err != nil {
		c.Logger().Errorf("Failed to get visit summary: %v", err)
		return reply[any](c, http.StatusInternalServerError, api.CodeDatabase, "internal server error", nil)
	}
	return reply(c, http.StatusOK, api.CodeOK, "ok", sum)
}

// parsePaging parses page and size, falling back to page 1 of the default size.
func parsePaging(pageStr, sizeStr string) (page, size int) {
	page, err := strconv.Atoi(pageStr)
	if err != nil || page < 1 {
		page = 1
	}
	size, err = strconv.Atoi(sizeStr)
	if err != nil || size < 1 {
		size = defaultPageSize
	}
	if size > maxPageSize {
		size = maxPageSize
	}
	return page, size
}
