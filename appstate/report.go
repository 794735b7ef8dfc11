package appstate

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/eringen/breeze/geo"
)

// Payload is the body of a location report. Location is null when sampling
// failed, in which case Error explains why.
type Payload struct {
	Location *geo.Sample `json:"location"`
	Error    string      `json:"error,omitempty"`
}

// Reporter delivers location reports.
type Reporter interface {
	Report(ctx context.Context, p Payload) error
}

// ReportPath is where the blog API accepts location reports.
const ReportPath = "/api/report"

// HTTPReporter posts reports as JSON.
type HTTPReporter struct {
	endpoint   string
	sessionID  string
	httpClient *http.Client
}

// NewHTTPReporter returns a reporter posting to baseURL + ReportPath. The
// session id, when non-empty, is sent in the X-Session-ID header.
func NewHTTPReporter(baseURL, sessionID string) *HTTPReporter {
	return &HTTPReporter{
		endpoint:   strings.TrimRight(baseURL, "/") + ReportPath,
		sessionID:  sessionID,
		httpClient: &http.Client{Timeout: 10 * time.Second},
	}
}

// Report implements Reporter. Any non-2xx status is an error.
func (r *HTTPReporter) Report(ctx context.Context, p Payload) error {
	body, err := json.Marshal(p)
	if err != nil {
		return fmt.Errorf("encode report: %w", err)
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, r.endpoint, bytes.NewReader(body))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")
	if r.sessionID != "" {
		req.Header.Set("X-Session-ID", r.sessionID)
	}

	resp, err := r.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("post report: %w", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return fmt.Errorf("post report: status %d", resp.StatusCode)
	}
	return nil
}
