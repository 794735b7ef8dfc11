package appstate

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"

	"github.com/eringen/breeze/api"
	"github.com/eringen/breeze/geo"
	"github.com/eringen/breeze/imgurl"
)

const testBase = "https://blog.example.com"

type fakeClient struct {
	home  *api.Response[api.BlogInfo]
	pages *api.Response[[]api.Page]
	err   error
}

func (f *fakeClient) HomeData(context.Context) (*api.Response[api.BlogInfo], error) {
	return f.home, f.err
}

func (f *fakeClient) PageList(context.Context) (*api.Response[[]api.Page], error) {
	return f.pages, f.err
}

type recordingReporter struct {
	mu       sync.Mutex
	payloads []Payload
	err      error
}

func (r *recordingReporter) Report(_ context.Context, p Payload) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.payloads = append(r.payloads, p)
	return r.err
}

func (r *recordingReporter) all() []Payload {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]Payload(nil), r.payloads...)
}

func quietLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func newTestStore(c Client, opts ...Option) *Store {
	opts = append([]Option{WithResolver(imgurl.New(testBase)), WithLogger(quietLogger())}, opts...)
	return New(c, opts...)
}

func TestFlagSetters(t *testing.T) {
	s := newTestStore(&fakeClient{})

	setters := []struct {
		name string
		set  func(bool)
		get  func(Flags) bool
	}{
		{"collapsed", s.SetCollapsed, func(f Flags) bool { return f.Collapsed }},
		{"login", s.SetLoginFlag, func(f Flags) bool { return f.Login }},
		{"register", s.SetRegisterFlag, func(f Flags) bool { return f.Register }},
		{"change password", s.SetChangePasswordFlag, func(f Flags) bool { return f.ChangePassword }},
		{"search", s.SetSearchFlag, func(f Flags) bool { return f.Search }},
	}
	for _, tt := range setters {
		t.Run(tt.name, func(t *testing.T) {
			before := s.Flags()
			tt.set(true)
			after := s.Flags()
			if !tt.get(after) {
				t.Fatalf("flag not set")
			}
			// Nothing else moves.
			tt.set(tt.get(before))
			if s.Flags() != before {
				t.Errorf("flags = %+v, want %+v", s.Flags(), before)
			}
			tt.set(false)
			if tt.get(s.Flags()) {
				t.Errorf("flag not cleared")
			}
		})
	}
}

func TestNewStoreDefaults(t *testing.T) {
	s := newTestStore(&fakeClient{})
	if s.ArticleCount() != 0 || s.CategoryCount() != 0 || s.TagCount() != 0 || s.ViewCount() != 0 {
		t.Errorf("counters not zero: %+v", s.BlogInfo())
	}
	if diff := cmp.Diff(api.DefaultBlogConfig(), s.BlogConfig()); diff != "" {
		t.Errorf("default branding mismatch (-want +got):\n%s", diff)
	}
	if s.Pages() == nil || len(s.Pages()) != 0 {
		t.Errorf("Pages() = %#v, want empty non-nil", s.Pages())
	}
	if s.SessionID() == "" {
		t.Error("SessionID should be set")
	}
	if got := New(&fakeClient{}, WithSessionID("fixed")).SessionID(); got != "fixed" {
		t.Errorf("SessionID = %q, want fixed", got)
	}
}

func TestGetBlogInfoSuccess(t *testing.T) {
	c := &fakeClient{home: &api.Response[api.BlogInfo]{
		Code: 0,
		Data: api.BlogInfo{
			ArticleCount: 5,
			BlogConfig:   api.BlogConfig{WebsiteName: "Mine", WebsiteAvatar: "a.png"},
		},
	}}
	s := newTestStore(c)

	if err := s.GetBlogInfo(context.Background()); err != nil {
		t.Fatalf("GetBlogInfo: %v", err)
	}
	if s.ArticleCount() != 5 {
		t.Errorf("ArticleCount = %d, want 5", s.ArticleCount())
	}
	if got := s.BlogConfig().WebsiteAvatar; got != testBase+"/a.png" {
		t.Errorf("avatar = %q", got)
	}
	if got := s.BlogInfo().BlogConfig.WebsiteAvatar; got != testBase+"/a.png" {
		t.Errorf("info avatar = %q", got)
	}
	// The response itself is not modified.
	if c.home.Data.BlogConfig.WebsiteAvatar != "a.png" {
		t.Errorf("response mutated: %q", c.home.Data.BlogConfig.WebsiteAvatar)
	}
}

func TestGetBlogInfoReplacesWholesale(t *testing.T) {
	c := &fakeClient{home: &api.Response[api.BlogInfo]{Data: api.BlogInfo{ArticleCount: 5, TagCount: 9}}}
	s := newTestStore(c)
	if err := s.GetBlogInfo(context.Background()); err != nil {
		t.Fatal(err)
	}
	c.home = &api.Response[api.BlogInfo]{Data: api.BlogInfo{ArticleCount: 1}}
	if err := s.GetBlogInfo(context.Background()); err != nil {
		t.Fatal(err)
	}
	if s.TagCount() != 0 || s.ArticleCount() != 1 {
		t.Errorf("info = %+v, want no merge with previous", s.BlogInfo())
	}
	if got := s.BlogConfig().WebsiteAvatar; got != imgurl.Placeholder {
		t.Errorf("empty avatar = %q, want placeholder", got)
	}
}

func TestGetBlogInfoFailureCode(t *testing.T) {
	c := &fakeClient{home: &api.Response[api.BlogInfo]{Code: 1, Message: "nope", Data: api.BlogInfo{ArticleCount: 99}}}
	s := newTestStore(c)

	err := s.GetBlogInfo(context.Background())
	var re *api.ResponseError
	if !errors.As(err, &re) {
		t.Fatalf("err = %v, want *api.ResponseError", err)
	}
	if re.Code != 1 || re.Message != "nope" {
		t.Errorf("ResponseError = %+v", re)
	}
	if s.ArticleCount() != 0 {
		t.Errorf("state changed on failure: %+v", s.BlogInfo())
	}
	if diff := cmp.Diff(api.DefaultBlogConfig(), s.BlogConfig()); diff != "" {
		t.Errorf("branding changed on failure:\n%s", diff)
	}
}

func TestGetBlogInfoTransportError(t *testing.T) {
	boom := errors.New("connection refused")
	s := newTestStore(&fakeClient{err: boom})
	if err := s.GetBlogInfo(context.Background()); !errors.Is(err, boom) {
		t.Fatalf("err = %v, want wrapped %v", err, boom)
	}
}

func TestGetPageList(t *testing.T) {
	c := &fakeClient{pages: &api.Response[[]api.Page]{Data: []api.Page{
		{ID: 1, Name: "about", Cover: "c.png"},
		{ID: 2, Name: "links", Cover: "https://cdn.example.com/l.png"},
		{ID: 3, Name: "empty"},
	}}}
	s := newTestStore(c)

	if err := s.GetPageList(context.Background()); err != nil {
		t.Fatalf("GetPageList: %v", err)
	}
	want := []api.Page{
		{ID: 1, Name: "about", Cover: testBase + "/c.png"},
		{ID: 2, Name: "links", Cover: "https://cdn.example.com/l.png"},
		{ID: 3, Name: "empty", Cover: imgurl.Placeholder},
	}
	if diff := cmp.Diff(want, s.Pages()); diff != "" {
		t.Errorf("Pages mismatch (-want +got):\n%s", diff)
	}
}

func TestGetPageListFailureKeepsState(t *testing.T) {
	c := &fakeClient{pages: &api.Response[[]api.Page]{Data: []api.Page{{ID: 1, Cover: "c.png"}}}}
	s := newTestStore(c)
	if err := s.GetPageList(context.Background()); err != nil {
		t.Fatal(err)
	}

	c.pages = &api.Response[[]api.Page]{Code: 500}
	if err := s.GetPageList(context.Background()); err == nil {
		t.Fatal("expected failure to propagate")
	}
	c.err = errors.New("offline")
	if err := s.GetPageList(context.Background()); err == nil {
		t.Fatal("expected transport failure to propagate")
	}
	if len(s.Pages()) != 1 || s.Pages()[0].Cover != testBase+"/c.png" {
		t.Errorf("Pages = %+v, want previous list", s.Pages())
	}
}

func TestPagesReturnsCopy(t *testing.T) {
	c := &fakeClient{pages: &api.Response[[]api.Page]{Data: []api.Page{{ID: 1, Cover: "c.png"}}}}
	s := newTestStore(c)
	if err := s.GetPageList(context.Background()); err != nil {
		t.Fatal(err)
	}
	got := s.Pages()
	got[0].Cover = "changed"
	if s.Pages()[0].Cover == "changed" {
		t.Error("Pages exposed internal slice")
	}
}

func TestCurrentLocationUnsupported(t *testing.T) {
	s := newTestStore(&fakeClient{})
	if _, err := s.CurrentLocation(context.Background()); !errors.Is(err, geo.ErrUnsupported) {
		t.Fatalf("err = %v, want unsupported", err)
	}
}

func TestCurrentLocationUsesDefaults(t *testing.T) {
	var got geo.Options
	loc := geo.ProviderFunc(func(ctx context.Context, opts geo.Options) (geo.Sample, error) {
		got = opts
		return geo.Sample{Latitude: 1}, nil
	})
	s := newTestStore(&fakeClient{}, WithLocator(loc))
	if _, err := s.CurrentLocation(context.Background()); err != nil {
		t.Fatal(err)
	}
	if diff := cmp.Diff(geo.DefaultOptions(), got); diff != "" {
		t.Errorf("options mismatch (-want +got):\n%s", diff)
	}
}

func TestReportLocationWithoutGeolocation(t *testing.T) {
	rep := &recordingReporter{err: errors.New("server down")}
	s := newTestStore(&fakeClient{}, WithReporter(rep))

	s.ReportLocation(context.Background())
	s.Wait()

	got := rep.all()
	if len(got) != 1 {
		t.Fatalf("reports = %d, want exactly 1", len(got))
	}
	if got[0].Location != nil {
		t.Errorf("Location = %+v, want nil", got[0].Location)
	}
	if got[0].Error == "" {
		t.Error("Error should explain the failure")
	}
}

func TestReportLocationWithSample(t *testing.T) {
	rep := &recordingReporter{}
	sample := geo.Sample{Latitude: 31.23, Longitude: 121.47, Accuracy: 12, Timestamp: 1_700_000_000_000}
	loc := geo.ProviderFunc(func(context.Context, geo.Options) (geo.Sample, error) { return sample, nil })
	s := newTestStore(&fakeClient{}, WithReporter(rep), WithLocator(loc))

	s.ReportLocation(context.Background())
	s.Wait()

	want := []Payload{{Location: &sample}}
	if diff := cmp.Diff(want, rep.all()); diff != "" {
		t.Errorf("payloads mismatch (-want +got):\n%s", diff)
	}
}

func TestReportLocationSurvivesCanceledCaller(t *testing.T) {
	rep := &recordingReporter{}
	s := newTestStore(&fakeClient{}, WithReporter(rep))
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	s.ReportLocation(ctx)
	s.Wait()
	if len(rep.all()) != 1 {
		t.Fatalf("reports = %d, want 1", len(rep.all()))
	}
}

func TestHTTPReporter(t *testing.T) {
	type request struct {
		method, path, contentType, session string
		body                               map[string]any
	}
	got := make(chan request, 1)
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var body map[string]any
		json.NewDecoder(r.Body).Decode(&body)
		got <- request{r.Method, r.URL.Path, r.Header.Get("Content-Type"), r.Header.Get("X-Session-ID"), body}
		w.WriteHeader(http.StatusOK)
	}))
	defer srv.Close()

	s := New(&fakeClient{}, WithLogger(quietLogger()))
	s.reporter = NewHTTPReporter(srv.URL+"/", s.SessionID())
	s.ReportLocation(context.Background())
	s.Wait()

	select {
	case r := <-got:
		if r.method != http.MethodPost || r.path != ReportPath {
			t.Errorf("request = %s %s", r.method, r.path)
		}
		if r.contentType != "application/json" {
			t.Errorf("Content-Type = %q", r.contentType)
		}
		if r.session != s.SessionID() {
			t.Errorf("X-Session-ID = %q", r.session)
		}
		loc, ok := r.body["location"]
		if !ok || loc != nil {
			t.Errorf("location = %v (present %v), want explicit null", loc, ok)
		}
		if msg, _ := r.body["error"].(string); msg != geo.KindUnsupported.String() {
			t.Errorf("error = %q", msg)
		}
	case <-time.After(2 * time.Second):
		t.Fatal("no report received")
	}
}

func TestReportLocationDefaultsToAPIClient(t *testing.T) {
	got := make(chan string, 1)
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		got <- r.Method + " " + r.URL.Path + " " + r.Header.Get("X-Session-ID")
		w.WriteHeader(http.StatusOK)
	}))
	defer srv.Close()

	s := New(api.NewClient(srv.URL), WithLogger(quietLogger()), WithSessionID("sess-1"))
	s.ReportLocation(context.Background())
	s.Wait()

	select {
	case r := <-got:
		if want := "POST " + ReportPath + " sess-1"; r != want {
			t.Errorf("request = %q, want %q", r, want)
		}
	default:
		t.Fatal("no report sent")
	}
}

func TestHTTPReporterStatusError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusTooManyRequests)
	}))
	defer srv.Close()

	err := NewHTTPReporter(srv.URL, "").Report(context.Background(), Payload{Error: "x"})
	if err == nil {
		t.Fatal("expected error for 429")
	}
}

func TestIsMobile(t *testing.T) {
	tests := map[string]bool{
		"Mozilla/5.0 (iPhone; CPU iPhone OS 17_0 like Mac OS X)":        true,
		"Mozilla/5.0 (Linux; Android 14; Pixel 8) Mobile Safari/537.36": true,
		"Mozilla/5.0 (Windows NT 10.0; Win64; x64) Chrome/120.0":        false,
	}
	for ua, want := range tests {
		if got := IsMobile(ua); got != want {
			t.Errorf("IsMobile(%q) = %v, want %v", ua, got, want)
		}
	}
}
