package appstate

import (
	"context"
	"fmt"
	"time"

	"github.com/eringen/breeze/api"
	"github.com/eringen/breeze/geo"
)

// reportTimeout bounds a detached report request.
const reportTimeout = 10 * time.Second

// GetBlogInfo fetches the home page metadata. On success the counters and
// branding are replaced and the avatar is resolved to an absolute URL. A
// non-zero response code is returned as *api.ResponseError; the state is left
// untouched on any failure.
func (s *Store) GetBlogInfo(ctx context.Context) error {
	resp, err := s.client.HomeData(ctx)
	if err != nil {
		return fmt.Errorf("appstate: get blog info: %w", err)
	}
	if resp.Code != api.CodeOK {
		return &api.ResponseError{Code: resp.Code, Message: resp.Message}
	}

	info := resp.Data
	info.BlogConfig.WebsiteAvatar = s.urls.Convert(info.BlogConfig.WebsiteAvatar)

	s.mu.Lock()
	s.info = info
	s.config = info.BlogConfig
	s.mu.Unlock()
	return nil
}

// GetPageList fetches the page list and resolves every cover image. Failures
// leave the previous list in place and are returned like GetBlogInfo's.
func (s *Store) GetPageList(ctx context.Context) error {
	resp, err := s.client.PageList(ctx)
	if err != nil {
		return fmt.Errorf("appstate: get page list: %w", err)
	}
	if resp.Code != api.CodeOK {
		return &api.ResponseError{Code: resp.Code, Message: resp.Message}
	}

	pages := make([]api.Page, len(resp.Data))
	copy(pages, resp.Data)
	for i := range pages {
		pages[i].Cover = s.urls.Convert(pages[i].Cover)
	}

	s.mu.Lock()
	s.pages = pages
	s.mu.Unlock()
	return nil
}

// CurrentLocation takes a single location sample. Failures are *geo.Error.
func (s *Store) CurrentLocation(ctx context.Context) (geo.Sample, error) {
	return geo.Locate(ctx, s.locator, s.locOpts)
}

// ReportLocation samples the location and sends it to the reporter in the
// background. When sampling fails the report carries a null location and the
// failure message. Nothing is returned: send failures are only logged.
func (s *Store) ReportLocation(ctx context.Context) {
	var p Payload
	sample, err := s.CurrentLocation(ctx)
	if err != nil {
		s.log.Warn("get location failed", "err", err)
		p.Error = err.Error()
	} else {
		p.Location = &sample
		s.log.Info("reporting location", "lat", sample.Latitude, "lng", sample.Longitude, "accuracy", sample.Accuracy)
	}

	if s.reporter == nil {
		s.log.Warn("location report dropped: no reporter configured")
		return
	}

	// The send outlives the caller's context.
	sendCtx := context.WithoutCancel(ctx)
	s.inFlight.Add(1)
	go func() {
		defer s.inFlight.Done()
		ctx, cancel := context.WithTimeout(sendCtx, reportTimeout)
		defer cancel()
		if err := s.reporter.Report(ctx, p); err != nil {
			s.log.Warn("location report failed", "err", err, "has_location", p.Location != nil)
		}
	}()
}

// Wait blocks until every detached report has finished. Call it at shutdown.
func (s *Store) Wait() {
	s.inFlight.Wait()
}
