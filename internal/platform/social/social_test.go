package social

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/yungbote/spiritanimal-backend/internal/domain/spirit"
	"github.com/yungbote/spiritanimal-backend/internal/platform/apierr"
)

type stubFetcher struct {
	platform string
	mu       sync.Mutex
	calls    int
	profile  *spirit.SocialProfile
	err      error
	delay    time.Duration
}

func (s *stubFetcher) Platform() string { return s.platform }

func (s *stubFetcher) Fetch(ctx context.Context, handle string) (*spirit.SocialProfile, error) {
	s.mu.Lock()
	s.calls++
	s.mu.Unlock()
	if s.delay > 0 {
		time.Sleep(s.delay)
	}
	if s.err != nil || s.profile == nil {
		return nil, s.err
	}
	p := *s.profile
	p.Handle = handle
	return &p, nil
}

func TestFetchAllPreservesOrderAndSkipsFailures(t *testing.T) {
	reddit := &stubFetcher{platform: PlatformReddit, profile: &spirit.SocialProfile{Platform: PlatformReddit, Posts: []string{"r"}}, delay: 20 * time.Millisecond}
	bluesky := &stubFetcher{platform: PlatformBluesky, profile: &spirit.SocialProfile{Platform: PlatformBluesky, Bio: "b"}}
	twitter := &stubFetcher{platform: PlatformTwitter, err: apierr.UpstreamResponse("twitter_http_500", 500, errors.New("boom"))}
	agg := NewAggregatorWithFetchers(nil, Config{}, reddit, bluesky, twitter)

	got := agg.FetchAll(context.Background(), []spirit.SocialHandle{
		{Platform: "Reddit", Handle: "fox"},
		{Platform: "twitter", Handle: "fox"},
		{Platform: "bluesky", Handle: "   "},
		{Platform: "myspace", Handle: "fox"},
		{Platform: "bluesky", Handle: "fox.bsky.social"},
	})
	if len(got) != 2 {
		t.Fatalf("profiles: want=2 got=%d (%+v)", len(got), got)
	}
	if got[0].Platform != PlatformReddit || got[1].Platform != PlatformBluesky {
		t.Fatalf("order: got=%q,%q", got[0].Platform, got[1].Platform)
	}
	if bluesky.calls != 1 {
		t.Fatalf("blank handle must be skipped: bluesky calls=%d", bluesky.calls)
	}
}

func TestFetchAllCachesByHandle(t *testing.T) {
	reddit := &stubFetcher{platform: PlatformReddit, profile: &spirit.SocialProfile{Platform: PlatformReddit}}
	agg := NewAggregatorWithFetchers(nil, Config{CacheTTL: time.Minute}, reddit)
	now := time.Date(2026, 10, 16, 12, 0, 0, 0, time.UTC)
	agg.now = func() time.Time { return now }

	handles := []spirit.SocialHandle{{Platform: "reddit", Handle: "Fox"}}
	agg.FetchAll(context.Background(), handles)
	agg.FetchAll(context.Background(), []spirit.SocialHandle{{Platform: "reddit", Handle: "fox"}})
	if reddit.calls != 1 {
		t.Fatalf("calls with warm cache: want=1 got=%d", reddit.calls)
	}
	now = now.Add(2 * time.Minute)
	agg.FetchAll(context.Background(), handles)
	if reddit.calls != 2 {
		t.Fatalf("calls after ttl: want=2 got=%d", reddit.calls)
	}
}

type mapCache struct {
	mu   sync.Mutex
	data map[string]spirit.SocialProfile
	sets int
}

func (m *mapCache) Get(ctx context.Context, key string) (*spirit.SocialProfile, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	p, ok := m.data[key]
	if !ok {
		return nil, false
	}
	return &p, true
}

func (m *mapCache) Set(ctx context.Context, key string, p spirit.SocialProfile, ttl time.Duration) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.data[key] = p
	m.sets++
}

func TestFetchAllUsesSharedCache(t *testing.T) {
	shared := &mapCache{data: map[string]spirit.SocialProfile{}}
	reddit := &stubFetcher{platform: PlatformReddit, profile: &spirit.SocialProfile{Platform: PlatformReddit}}

	first := NewAggregatorWithFetchers(nil, Config{}, reddit).WithSharedCache(shared)
	first.FetchAll(context.Background(), []spirit.SocialHandle{{Platform: "reddit", Handle: "fox"}})
	if shared.sets != 1 {
		t.Fatalf("shared sets: want=1 got=%d", shared.sets)
	}

	// A second instance with a cold local cache reads the shared tier.
	second := NewAggregatorWithFetchers(nil, Config{}, reddit).WithSharedCache(shared)
	got := second.FetchAll(context.Background(), []spirit.SocialHandle{{Platform: "reddit", Handle: "Fox"}})
	if len(got) != 1 {
		t.Fatalf("profiles: want=1 got=%d", len(got))
	}
	if reddit.calls != 1 {
		t.Fatalf("fetcher calls: want=1 got=%d", reddit.calls)
	}
}

func TestDefaultFetchersTwitterRequiresToken(t *testing.T) {
	agg := NewAggregator(nil, Config{}, nil)
	if agg.Configured(PlatformTwitter) {
		t.Fatalf("twitter should not be configured without a bearer token")
	}
	if !agg.Configured(PlatformLinkedIn) {
		t.Fatalf("linkedin should resolve to the unsupported fetcher")
	}
	agg = NewAggregator(nil, Config{TwitterBearerToken: "tok"}, nil)
	if !agg.Configured(PlatformTwitter) {
		t.Fatalf("twitter should be configured with a bearer token")
	}
}

func TestRedditFetcher(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/user/otter.json" {
			t.Errorf("path: want=%q got=%q", "/user/otter.json", r.URL.Path)
		}
		if got := r.Header.Get("User-Agent"); got != userAgent {
			t.Errorf("user agent: want=%q got=%q", userAgent, got)
		}
		_, _ = w.Write([]byte(`{"data":{"children":[
			{"data":{"body":"a comment"}},
			{"data":{"title":"a post","selftext":"details"}},
			{"data":{}}
		]}}`))
	}))
	defer srv.Close()

	f := &redditFetcher{get: getter{httpClient: srv.Client(), timeout: time.Second}, baseURL: srv.URL}
	p, err := f.Fetch(context.Background(), "/u/otter")
	if err != nil {
		t.Fatalf("Fetch: %v", err)
	}
	if len(p.Posts) != 2 || p.Posts[0] != "a comment" || p.Posts[1] != "a post\ndetails" {
		t.Fatalf("posts: got=%q", p.Posts)
	}
}

func TestRedditFetcherHTTPError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "nope", http.StatusNotFound)
	}))
	defer srv.Close()
	f := &redditFetcher{get: getter{httpClient: srv.Client(), timeout: time.Second}, baseURL: srv.URL}
	_, err := f.Fetch(context.Background(), "ghost")
	if got := apierr.CodeOf(err); got != "reddit_http_404" {
		t.Fatalf("code: want=%q got=%q", "reddit_http_404", got)
	}
}

func TestBlueskyFetcher(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if got := r.URL.Query().Get("actor"); got != "heron.bsky.social" {
			t.Errorf("actor: want=%q got=%q", "heron.bsky.social", got)
		}
		switch r.URL.Path {
		case "/xrpc/app.bsky.actor.getProfile":
			_, _ = w.Write([]byte(`{"description":"quiet waters"}`))
		case "/xrpc/app.bsky.feed.getAuthorFeed":
			_, _ = w.Write([]byte(`{"feed":[{"post":{"record":{"text":"first"}}},{"post":{"record":{}}}]}`))
		default:
			http.NotFound(w, r)
		}
	}))
	defer srv.Close()

	f := &blueskyFetcher{get: getter{httpClient: srv.Client(), timeout: time.Second}, baseURL: srv.URL}
	p, err := f.Fetch(context.Background(), "@heron")
	if err != nil {
		t.Fatalf("Fetch: %v", err)
	}
	if p.Bio != "quiet waters" {
		t.Fatalf("bio: want=%q got=%q", "quiet waters", p.Bio)
	}
	if len(p.Posts) != 1 || p.Posts[0] != "first" {
		t.Fatalf("posts: got=%q", p.Posts)
	}
}

func TestTwitterFetcher(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if got := r.Header.Get("Authorization"); got != "Bearer tok" {
			t.Errorf("authorization: want=%q got=%q", "Bearer tok", got)
		}
		switch {
		case strings.HasPrefix(r.URL.Path, "/2/users/by/username/lynx"):
			_, _ = w.Write([]byte(`{"data":{"id":"42","description":"night walker"}}`))
		case r.URL.Path == "/2/users/42/tweets":
			if got := r.URL.Query().Get("max_results"); got != "20" {
				t.Errorf("max_results: want=20 got=%q", got)
			}
			_, _ = w.Write([]byte(`{"data":[{"text":"moonlight"}]}`))
		default:
			http.NotFound(w, r)
		}
	}))
	defer srv.Close()

	f := &twitterFetcher{get: getter{httpClient: srv.Client(), timeout: time.Second}, baseURL: srv.URL, bearer: "tok"}
	p, err := f.Fetch(context.Background(), "@lynx")
	if err != nil {
		t.Fatalf("Fetch: %v", err)
	}
	if p.Bio != "night walker" || len(p.Posts) != 1 {
		t.Fatalf("profile: got=%+v", p)
	}
}

func TestTwitterFetcherUnknownUser(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"errors":[{"title":"Not Found Error"}]}`))
	}))
	defer srv.Close()
	f := &twitterFetcher{get: getter{httpClient: srv.Client(), timeout: time.Second}, baseURL: srv.URL, bearer: "tok"}
	p, err := f.Fetch(context.Background(), "nobody")
	if err != nil || p != nil {
		t.Fatalf("want nil profile and nil error, got=%+v err=%v", p, err)
	}
}

func TestNormalizeHandles(t *testing.T) {
	if got := normalizeBlueskyHandle("@crow"); got != "crow.bsky.social" {
		t.Fatalf("bluesky: want=%q got=%q", "crow.bsky.social", got)
	}
	if got := normalizeBlueskyHandle("crow.dev"); got != "crow.dev" {
		t.Fatalf("bluesky custom domain: want=%q got=%q", "crow.dev", got)
	}
	if got := normalizeRedditUser("u/owl"); got != "owl" {
		t.Fatalf("reddit: want=%q got=%q", "owl", got)
	}
}
