package tileset

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"
	"golang.org/x/sync/errgroup"
	"golang.org/x/time/rate"

	"github.com/dzonerzy/go-chatopt/chatopt"
)

const transitJSON = `{"name": "Non Linear Central Transit System Map", "geometry": [[113, 114], [115, 116]], "desc": ["2nd iteration after the network expanded beyond the first geographically accurate map"], "links": {}, "usage_hints": {"has_transparency": false}}`

// catalogue serves a small fixed tree and counts requests per path
type catalogue struct {
	mu   sync.Mutex
	hits map[string]int
}

func newCatalogue(t *testing.T) (*catalogue, *httptest.Server) {
	t.Helper()
	c := &catalogue{hits: make(map[string]int)}
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		c.mu.Lock()
		c.hits[r.URL.Path]++
		c.mu.Unlock()

		w.Header().Set("Content-Type", "application/json")
		switch r.URL.Path {
		case "/api/list-groups/":
			_, _ = w.Write([]byte(`{"directories": ["Arrival Boards", "CoverArt"], "tilesets": ["NonLinearMap-Hologram", "Arrow"]}`))
		case "/api/list-groups/Arrival Boards":
			_, _ = w.Write([]byte(`{"directories": [], "tilesets": ["LBlue", "LGreen", "Purple"]}`))
		case "/api/list-groups/CoverArt":
			_, _ = w.Write([]byte(`{"directories": ["迷跡波"], "tilesets": []}`))
		case "/api/group/NonLinearMap":
			_, _ = w.Write([]byte(transitJSON))
		case "/api/group/broken":
			_, _ = w.Write([]byte(`{"name": `))
		default:
			http.NotFound(w, r)
		}
	}))
	t.Cleanup(srv.Close)
	return c, srv
}

func (c *catalogue) count(path string) int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.hits[path]
}

func newTestClient(srv *httptest.Server) *Client {
	return NewClient(srv.URL+"/api/", WithRateLimit(rate.Inf, 1))
}

func TestNormalizePath(t *testing.T) {
	tests := []struct{ in, want string }{
		{"/CoverArt/迷跡波/", "CoverArt/迷跡波"},
		{"NonLinearMap-Hologram/", "NonLinearMap-Hologram"},
		{"Arrival Boards/Purple/", "Arrival Boards/Purple"},
		{"//", ""},
	}
	for _, tt := range tests {
		if got := NormalizePath(tt.in); got != tt.want {
			t.Errorf("NormalizePath(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}

func TestClientMetadata(t *testing.T) {
	_, srv := newCatalogue(t)
	c := newTestClient(srv)

	m, err := c.Metadata(context.Background(), "/NonLinearMap/")
	if err != nil {
		t.Fatalf("Metadata: %v", err)
	}
	want := &Metadata{
		Name:        "Non Linear Central Transit System Map",
		Geometry:    [][]int{{113, 114}, {115, 116}},
		Description: []string{"2nd iteration after the network expanded beyond the first geographically accurate map"},
		Links:       map[string]string{},
	}
	if diff := cmp.Diff(want, m); diff != "" {
		t.Errorf("metadata mismatch (-want +got):\n%s", diff)
	}

	ids, w, h, err := Tiles(m)
	if err != nil || w != 2 || h != 2 {
		t.Fatalf("Tiles = %v %d %d %v", ids, w, h, err)
	}
	if diff := cmp.Diff([]int{113, 114, 115, 116}, ids); diff != "" {
		t.Errorf("ids mismatch (-want +got):\n%s", diff)
	}
}

func TestClientErrors(t *testing.T) {
	_, srv := newCatalogue(t)
	c := newTestClient(srv)
	ctx := context.Background()

	var se *StatusError
	if _, err := c.Metadata(ctx, "missing"); !errors.As(err, &se) || se.Code != http.StatusNotFound {
		t.Errorf("expected 404 StatusError, got %v", err)
	}
	if _, err := c.Metadata(ctx, "broken"); err == nil || !strings.Contains(err.Error(), "decoding") {
		t.Errorf("expected decode error, got %v", err)
	}
	if _, err := c.Metadata(ctx, "/"); err == nil {
		t.Error("expected error for empty path")
	}
	if _, err := NewClient("").List(ctx, ""); !errors.Is(err, ErrNoEndpoint) {
		t.Errorf("expected ErrNoEndpoint, got %v", err)
	}
}

func TestClientListEscapesPath(t *testing.T) {
	cat, srv := newCatalogue(t)
	c := newTestClient(srv)

	l, err := c.List(context.Background(), "Arrival Boards/")
	if err != nil {
		t.Fatalf("List: %v", err)
	}
	if diff := cmp.Diff([]string{"LBlue", "LGreen", "Purple"}, l.TileSets); diff != "" {
		t.Errorf("tilesets mismatch (-want +got):\n%s", diff)
	}
	if cat.count("/api/list-groups/Arrival Boards") != 1 {
		t.Error("expected one request for the escaped path")
	}
}

func TestTilesRejectsRagged(t *testing.T) {
	for _, g := range [][][]int{nil, {{}}, {{1, 2}, {3}}} {
		if _, _, _, err := Tiles(&Metadata{Name: "x", Geometry: g}); !errors.Is(err, ErrBadGeometry) {
			t.Errorf("Tiles(%v) err = %v", g, err)
		}
	}
}

func TestCacheSharesRequests(t *testing.T) {
	cat, srv := newCatalogue(t)
	cache := NewCache(newTestClient(srv), CacheOptions{})

	var g errgroup.Group
	for i := 0; i < 20; i++ {
		g.Go(func() error {
			_, err := cache.Metadata(context.Background(), "NonLinearMap/")
			return err
		})
	}
	if err := g.Wait(); err != nil {
		t.Fatal(err)
	}
	if n := cat.count("/api/group/NonLinearMap"); n != 1 {
		t.Errorf("expected 1 upstream request, got %d", n)
	}
	if _, ok := cache.Cached("/NonLinearMap"); !ok {
		t.Error("expected metadata to be cached")
	}

	cache.Purge()
	if _, ok := cache.Cached("NonLinearMap"); ok {
		t.Error("Purge should drop metadata")
	}
}

func TestCacheDoesNotKeepErrors(t *testing.T) {
	cat, srv := newCatalogue(t)
	cache := NewCache(newTestClient(srv), CacheOptions{})
	for i := 0; i < 2; i++ {
		if _, err := cache.Metadata(context.Background(), "missing"); err == nil {
			t.Fatal("expected error")
		}
	}
	if n := cat.count("/api/group/missing"); n != 2 {
		t.Errorf("failures must not be cached, got %d requests", n)
	}
}

// countingSource is an in-memory Source
type countingSource struct {
	lists atomic.Int32
}

func (s *countingSource) List(ctx context.Context, prefix string) (*Listing, error) {
	s.lists.Add(1)
	return &Listing{TileSets: []string{prefix}}, nil
}

func (s *countingSource) Metadata(ctx context.Context, path string) (*Metadata, error) {
	return &Metadata{Name: path, Geometry: [][]int{{1}}}, nil
}

func TestCacheListingTTL(t *testing.T) {
	src := &countingSource{}
	cache := NewCache(src, CacheOptions{ListingTTL: 20 * time.Millisecond})
	ctx := context.Background()

	for i := 0; i < 3; i++ {
		if _, err := cache.List(ctx, "/a/"); err != nil {
			t.Fatal(err)
		}
	}
	if src.lists.Load() != 1 {
		t.Errorf("expected 1 upstream list, got %d", src.lists.Load())
	}
	time.Sleep(60 * time.Millisecond)
	if _, err := cache.List(ctx, "a"); err != nil {
		t.Fatal(err)
	}
	if src.lists.Load() != 2 {
		t.Errorf("expected listing to expire, got %d upstream lists", src.lists.Load())
	}
}

func TestCachePrefetch(t *testing.T) {
	cache := NewCache(&countingSource{}, CacheOptions{})
	done := make(chan error, 1)
	cache.Prefetch(context.Background(), "Arrow", func(m *Metadata, err error) { done <- err })
	select {
	case err := <-done:
		if err != nil {
			t.Fatal(err)
		}
	case <-time.After(time.Second):
		t.Fatal("prefetch did not finish")
	}
	if m, ok := cache.Cached("Arrow"); !ok || m.Name != "Arrow" {
		t.Errorf("Cached = %v, %t", m, ok)
	}
}

func TestCompleter(t *testing.T) {
	_, srv := newCatalogue(t)
	complete := Completer(NewCache(newTestClient(srv), CacheOptions{}))

	tests := []struct {
		token string
		want  []chatopt.Candidate
	}{
		{"", []chatopt.Candidate{
			{Text: `Arrival\ Boards/`, Tooltip: "subdirectory"},
			{Text: "CoverArt/", Tooltip: "subdirectory"},
			{Text: "NonLinearMap-Hologram", Tooltip: "tile set"},
			{Text: "Arrow", Tooltip: "tile set"},
		}},
		{"Ar", []chatopt.Candidate{
			{Text: `Arrival\ Boards/`, Tooltip: "subdirectory"},
			{Text: "Arrow", Tooltip: "tile set"},
		}},
		{"Arrival Boards/L", []chatopt.Candidate{
			{Text: "Boards/LBlue", Tooltip: "tile set"},
			{Text: "Boards/LGreen", Tooltip: "tile set"},
		}},
		{"CoverArt/", []chatopt.Candidate{
			{Text: "CoverArt/迷跡波/", Tooltip: "subdirectory"},
		}},
		{"Zed", nil},
	}

	for _, tt := range tests {
		got, err := complete(context.Background(), "alice", tt.token)
		if err != nil {
			t.Fatalf("%q: %v", tt.token, err)
		}
		if diff := cmp.Diff(tt.want, got); diff != "" {
			t.Errorf("Completer(%q) mismatch (-want +got):\n%s", tt.token, diff)
		}
	}

	if _, err := complete(context.Background(), "alice", "nowhere/x"); err == nil {
		t.Error("expected listing error to propagate")
	}
}

// gatedSource holds metadata requests until released
type gatedSource struct {
	countingSource
	fetches atomic.Int32
	entered chan struct{}
	release chan struct{}
}

func (s *gatedSource) Metadata(ctx context.Context, path string) (*Metadata, error) {
	s.fetches.Add(1)
	close(s.entered)
	select {
	case <-s.release:
		return &Metadata{Name: path, Geometry: [][]int{{7}}}, nil
	case <-ctx.Done():
		return nil, ctx.Err()
	}
}

func TestCacheSharedFetchOutlivesFirstCaller(t *testing.T) {
	src := &gatedSource{entered: make(chan struct{}), release: make(chan struct{})}
	cache := NewCache(src, CacheOptions{})

	first, cancel := context.WithCancel(context.Background())
	firstErr := make(chan error, 1)
	go func() {
		_, err := cache.Metadata(first, "wall")
		firstErr <- err
	}()
	<-src.entered

	cancel()
	if err := <-firstErr; !errors.Is(err, context.Canceled) {
		t.Fatalf("first caller: expected context.Canceled, got %v", err)
	}

	second := make(chan *Metadata, 1)
	var g errgroup.Group
	g.Go(func() error {
		m, err := cache.Metadata(context.Background(), "wall")
		second <- m
		return err
	})
	close(src.release)

	if err := g.Wait(); err != nil {
		t.Fatalf("second caller: %v", err)
	}
	if m := <-second; m == nil || m.Name != "wall" {
		t.Errorf("unexpected metadata %+v", m)
	}
	if n := src.fetches.Load(); n != 1 {
		t.Errorf("expected 1 upstream fetch, got %d", n)
	}
}

func TestCacheFetchTimeout(t *testing.T) {
	src := &gatedSource{entered: make(chan struct{}), release: make(chan struct{})}
	cache := NewCache(src, CacheOptions{FetchTimeout: 10 * time.Millisecond})

	_, err := cache.Metadata(context.Background(), "wall")
	if !errors.Is(err, context.DeadlineExceeded) {
		t.Errorf("expected deadline exceeded, got %v", err)
	}
}
