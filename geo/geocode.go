package geo

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"net/url"
	"strconv"
	"time"
)

// Geocoder resolves coordinates (WGS-84) to a formatted address.
type Geocoder interface {
	ReverseGeocode(ctx context.Context, lat, lng float64) (string, error)
}

// ErrNoAPIKey is returned by a geocoder that has no key configured.
var ErrNoAPIKey = errors.New("geo: api key not configured")

const (
	defaultAmapURL  = "https://restapi.amap.com/v3/geocode/regeo"
	defaultBaiduURL = "https://api.map.baidu.com/reverse_geocoding/v3/"
)

var defaultHTTPClient = &http.Client{Timeout: 10 * time.Second}

// AmapGeocoder uses the Amap (Gaode) reverse geocoding API.
type AmapGeocoder struct {
	Key     string
	BaseURL string // defaults to the public endpoint
	Client  *http.Client
}

type amapResponse struct {
	Status    string `json:"status"`
	Info      string `json:"info"`
	Regeocode struct {
		FormattedAddress json.RawMessage `json:"formatted_address"`
	} `json:"regeocode"`
}

// ReverseGeocode implements Geocoder.
func (g *AmapGeocoder) ReverseGeocode(ctx context.Context, lat, lng float64) (string, error) {
	if g.Key == "" {
		return "", ErrNoAPIKey
	}
	q := url.Values{}
	q.Set("key", g.Key)
	q.Set("location", fmt.Sprintf("%f,%f", lng, lat))
	q.Set("radius", "1000")
	q.Set("extensions", "base")
	q.Set("batch", "false")

	var resp amapResponse
	if err := getJSON(ctx, g.Client, orDefault(g.BaseURL, defaultAmapURL), q, &resp); err != nil {
		return "", fmt.Errorf("amap: %w", err)
	}
	if resp.Status != "1" {
		return "", fmt.Errorf("amap: api error: %s", resp.Info)
	}
	// Amap returns [] instead of a string when nothing matched.
	var addr string
	if err := json.Unmarshal(resp.Regeocode.FormattedAddress, &addr); err != nil {
		return "", nil
	}
	return addr, nil
}

// BaiduGeocoder uses the Baidu Maps reverse geocoding API. Coordinates are
// converted to BD-09 before the request.
type BaiduGeocoder struct {
	Key     string
	BaseURL string
	Client  *http.Client
}

type baiduResponse struct {
	Status int `json:"status"`
	Result struct {
		FormattedAddress string `json:"formatted_address"`
	} `json:"result"`
}

// ReverseGeocode implements Geocoder.
func (g *BaiduGeocoder) ReverseGeocode(ctx context.Context, lat, lng float64) (string, error) {
	if g.Key == "" {
		return "", ErrNoAPIKey
	}
	bdLat, bdLng := WGS84ToBD09(lat, lng)
	q := url.Values{}
	q.Set("ak", g.Key)
	q.Set("output", "json")
	q.Set("coordtype", "bd09ll")
	q.Set("location", fmt.Sprintf("%f,%f", bdLat, bdLng))

	var resp baiduResponse
	if err := getJSON(ctx, g.Client, orDefault(g.BaseURL, defaultBaiduURL), q, &resp); err != nil {
		return "", fmt.Errorf("baidu: %w", err)
	}
	if resp.Status != 0 {
		return "", fmt.Errorf("baidu: api error: status=%d", resp.Status)
	}
	return resp.Result.FormattedAddress, nil
}

// Chain tries each geocoder in order and returns the first address found.
type Chain []Geocoder

// ReverseGeocode implements Geocoder.
func (c Chain) ReverseGeocode(ctx context.Context, lat, lng float64) (string, error) {
	var errs []error
	for _, g := range c {
		addr, err := g.ReverseGeocode(ctx, lat, lng)
		if err != nil {
			slog.Debug("reverse geocoding failed", "geocoder", fmt.Sprintf("%T", g), "err", err)
			errs = append(errs, err)
			continue
		}
		if addr != "" {
			return addr, nil
		}
	}
	return "", errors.Join(errs...)
}

// Address resolves lat/lng with g and falls back to the coordinates themselves
// when g is nil, fails, or finds nothing.
func Address(ctx context.Context, g Geocoder, lat, lng float64) string {
	fallback := strconv.FormatFloat(lat, 'f', 6, 64) + "," + strconv.FormatFloat(lng, 'f', 6, 64)
	if g == nil {
		return fallback
	}
	addr, err := g.ReverseGeocode(ctx, lat, lng)
	if err != nil {
		slog.Warn("reverse geocoding failed", "lat", lat, "lng", lng, "err", err)
		return fallback
	}
	if addr == "" {
		return fallback
	}
	return addr
}

func getJSON(ctx context.Context, client *http.Client, base string, q url.Values, v any) error {
	if client == nil {
		client = defaultHTTPClient
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, base+"?"+q.Encode(), nil)
	if err != nil {
		return err
	}
	resp, err := client.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("status %d", resp.StatusCode)
	}
	if err := json.NewDecoder(resp.Body).Decode(v); err != nil {
		return fmt.Errorf("decode response: %w", err)
	}
	return nil
}

func orDefault(s, def string) string {
	if s == "" {
		return def
	}
	return s
}
