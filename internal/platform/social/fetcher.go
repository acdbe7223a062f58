package social

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/yungbote/spiritanimal-backend/internal/domain/spirit"
	"github.com/yungbote/spiritanimal-backend/internal/platform/apierr"
	"github.com/yungbote/spiritanimal-backend/internal/platform/ctxutil"
)

const (
	PlatformTwitter   = "twitter"
	PlatformReddit    = "reddit"
	PlatformBluesky   = "bluesky"
	PlatformLinkedIn  = "linkedin"
	PlatformInstagram = "instagram"
	PlatformTikTok    = "tiktok"
)

const (
	maxPostsPerPlatform = 20
	userAgent           = "SpiritAnimalApp/1.0"
)

// Fetcher pulls the public profile for one handle. A nil profile with a nil error
// means the platform has nothing to offer (unsupported or unknown user).
type Fetcher interface {
	Platform() string
	Fetch(ctx context.Context, handle string) (*spirit.SocialProfile, error)
}

type Config struct {
	TwitterBearerToken string
	TwitterBaseURL     string
	RedditBaseURL      string
	BlueskyBaseURL     string
	Timeout            time.Duration
	CacheSize          int
	CacheTTL           time.Duration
	Concurrency        int
}

func (c Config) withDefaults() Config {
	if strings.TrimSpace(c.TwitterBaseURL) == "" {
		c.TwitterBaseURL = "https://api.twitter.com"
	}
	if strings.TrimSpace(c.RedditBaseURL) == "" {
		c.RedditBaseURL = "https://www.reddit.com"
	}
	if strings.TrimSpace(c.BlueskyBaseURL) == "" {
		c.BlueskyBaseURL = "https://public.api.bsky.app"
	}
	c.TwitterBaseURL = strings.TrimRight(c.TwitterBaseURL, "/")
	c.RedditBaseURL = strings.TrimRight(c.RedditBaseURL, "/")
	c.BlueskyBaseURL = strings.TrimRight(c.BlueskyBaseURL, "/")
	if c.Timeout <= 0 {
		c.Timeout = 10 * time.Second
	}
	if c.CacheSize <= 0 {
		c.CacheSize = 256
	}
	if c.CacheTTL <= 0 {
		c.CacheTTL = 15 * time.Minute
	}
	if c.Concurrency <= 0 {
		c.Concurrency = 4
	}
	return c
}

// DefaultFetchers returns one fetcher per known platform. Twitter is left out when
// no bearer token is configured.
func DefaultFetchers(cfg Config, httpClient *http.Client) []Fetcher {
	cfg = cfg.withDefaults()
	if httpClient == nil {
		httpClient = &http.Client{}
	}
	g := getter{httpClient: httpClient, timeout: cfg.Timeout}
	out := []Fetcher{
		&redditFetcher{get: g, baseURL: cfg.RedditBaseURL},
		&blueskyFetcher{get: g, baseURL: cfg.BlueskyBaseURL},
		unsupportedFetcher(PlatformLinkedIn),
		unsupportedFetcher(PlatformInstagram),
		unsupportedFetcher(PlatformTikTok),
	}
	if strings.TrimSpace(cfg.TwitterBearerToken) != "" {
		out = append(out, &twitterFetcher{get: g, baseURL: cfg.TwitterBaseURL, bearer: strings.TrimSpace(cfg.TwitterBearerToken)})
	}
	return out
}

// LinkedIn, Instagram and TikTok expose no public read API.
type unsupportedFetcher string

func (u unsupportedFetcher) Platform() string { return string(u) }

func (u unsupportedFetcher) Fetch(context.Context, string) (*spirit.SocialProfile, error) {
	return nil, nil
}

type getter struct {
	httpClient *http.Client
	timeout    time.Duration
}

// getJSON decodes a 2xx body into out. Any other status is an upstream error.
func (g getter) getJSON(ctx context.Context, platform, rawURL string, query url.Values, headers map[string]string, out any) error {
	callCtx, cancel := context.WithTimeout(ctxutil.Default(ctx), g.timeout)
	defer cancel()

	if len(query) > 0 {
		rawURL += "?" + query.Encode()
	}
	req, err := http.NewRequestWithContext(callCtx, http.MethodGet, rawURL, nil)
	if err != nil {
		return apierr.Internal(platform+"_request", err)
	}
	req.Header.Set("Accept", "application/json")
	req.Header.Set("User-Agent", userAgent)
	for k, v := range headers {
		req.Header.Set(k, v)
	}
	resp, err := g.httpClient.Do(req)
	if err != nil {
		return apierr.Classify(platform, err)
	}
	defer resp.Body.Close()
	raw, err := io.ReadAll(io.LimitReader(resp.Body, 4<<20))
	if err != nil {
		return apierr.Classify(platform, err)
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return apierr.FromHTTPStatus(platform, resp.StatusCode, string(raw))
	}
	if err := json.Unmarshal(raw, out); err != nil {
		return apierr.MalformedResponse(platform+"_decode", fmt.Errorf("%s decode error: %w", platform, err))
	}
	return nil
}
