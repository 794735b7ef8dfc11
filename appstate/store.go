// Package appstate holds the state of the blog front-end: UI flags, the site
// metadata shown on the home page, the page list, and the location report.
//
// A Store is created once at start-up and handed to every consumer. Each
// field has a single writer (its setter or action); readers get copies.
package appstate

import (
	"context"
	"log/slog"
	"regexp"
	"sync"

	"github.com/google/uuid"

	"github.com/eringen/breeze/api"
	"github.com/eringen/breeze/geo"
	"github.com/eringen/breeze/imgurl"
)

// Client is the subset of the blog API the store calls.
type Client interface {
	HomeData(ctx context.Context) (*api.Response[api.BlogInfo], error)
	PageList(ctx context.Context) (*api.Response[[]api.Page], error)
}

// Flags are the UI toggles. They are independent of each other.
type Flags struct {
	Search         bool
	Login          bool
	Register       bool
	ChangePassword bool
	Collapsed      bool // mobile sidebar
}

// Store is the application state container. It is safe for concurrent use.
type Store struct {
	mu     sync.RWMutex
	flags  Flags
	info   api.BlogInfo
	config api.BlogConfig
	pages  []api.Page

	client    Client
	locator   geo.Provider
	locOpts   geo.Options
	reporter  Reporter
	urls      imgurl.Resolver
	log       *slog.Logger
	sessionID string
	inFlight  sync.WaitGroup
}

// Option configures a Store.
type Option func(*Store)

// WithLocator sets the location provider. Without one every location query
// fails as unsupported.
func WithLocator(p geo.Provider) Option {
	return func(s *Store) {
		s.locator = p
	}
}

// WithLocationOptions overrides geo.DefaultOptions for location queries.
func WithLocationOptions(opts geo.Options) Option {
	return func(s *Store) {
		s.locOpts = opts
	}
}

// WithReporter sets where location reports are sent.
func WithReporter(r Reporter) Option {
	return func(s *Store) {
		s.reporter = r
	}
}

// WithResolver sets the image URL resolver.
func WithResolver(r imgurl.Resolver) Option {
	return func(s *Store) {
		s.urls = r
	}
}

// WithSessionID overrides the generated session id.
func WithSessionID(id string) Option {
	return func(s *Store) {
		s.sessionID = id
	}
}

// WithLogger sets the logger (default slog.Default()).
func WithLogger(l *slog.Logger) Option {
	return func(s *Store) {
		s.log = l
	}
}

// New creates a Store with zero counters and the default branding. When no
// reporter is given and client is an *api.Client, reports are posted to the
// same API with the store's session id.
func New(client Client, opts ...Option) *Store {
	s := &Store{
		info:      api.BlogInfo{BlogConfig: api.DefaultBlogConfig()},
		config:    api.DefaultBlogConfig(),
		pages:     []api.Page{},
		client:    client,
		locOpts:   geo.DefaultOptions(),
		log:       slog.Default(),
		sessionID: uuid.NewString(),
	}
	for _, opt := range opts {
		opt(s)
	}
	if c, ok := client.(*api.Client); ok && s.reporter == nil {
		s.reporter = NewHTTPReporter(c.BaseURL(), s.sessionID)
	}
	return s
}

// SessionID identifies this store instance in location reports.
func (s *Store) SessionID() string {
	return s.sessionID
}

// SetCollapsed shows or hides the mobile sidebar.
func (s *Store) SetCollapsed(flag bool) {
	s.mu.Lock()
	s.flags.Collapsed = flag
	s.mu.Unlock()
}

// SetLoginFlag opens or closes the login dialog.
func (s *Store) SetLoginFlag(flag bool) {
	s.mu.Lock()
	s.flags.Login = flag
	s.mu.Unlock()
}

// SetRegisterFlag opens or closes the register dialog.
func (s *Store) SetRegisterFlag(flag bool) {
	s.mu.Lock()
	s.flags.Register = flag
	s.mu.Unlock()
}

// SetChangePasswordFlag opens or closes the change-password dialog.
func (s *Store) SetChangePasswordFlag(flag bool) {
	s.mu.Lock()
	s.flags.ChangePassword = flag
	s.mu.Unlock()
}

// SetSearchFlag opens or closes the search dialog.
func (s *Store) SetSearchFlag(flag bool) {
	s.mu.Lock()
	s.flags.Search = flag
	s.mu.Unlock()
}

// Flags returns a snapshot of the UI flags.
func (s *Store) Flags() Flags {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.flags
}

// BlogInfo returns the last fetched site metadata.
func (s *Store) BlogInfo() api.BlogInfo {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.info
}

// BlogConfig returns the site branding.
func (s *Store) BlogConfig() api.BlogConfig {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.config
}

// Pages returns a copy of the page list. It is never nil.
func (s *Store) Pages() []api.Page {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]api.Page, len(s.pages))
	copy(out, s.pages)
	return out
}

// ArticleCount is the number of published articles.
func (s *Store) ArticleCount() int { return s.BlogInfo().ArticleCount }

// CategoryCount is the number of categories in use.
func (s *Store) CategoryCount() int { return s.BlogInfo().CategoryCount }

// TagCount is the number of tags in use.
func (s *Store) TagCount() int { return s.BlogInfo().TagCount }

// ViewCount is the site's total view count.
func (s *Store) ViewCount() int { return s.BlogInfo().ViewCount }

var mobileUA = regexp.MustCompile(`(?i)(phone|pad|pod|iPhone|iPod|ios|iPad|Android|Mobile|BlackBerry|IEMobile|MQQBrowser|JUC|Fennec|wOSBrowser|BrowserNG|WebOS|Symbian|Windows Phone)`)

// IsMobile reports whether userAgent belongs to a phone or tablet browser.
func IsMobile(userAgent string) bool {
	return mobileUA.MatchString(userAgent)
}
