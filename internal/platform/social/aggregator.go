package social

import (
	"context"
	"net/http"
	"strings"
	"time"

	lru "github.com/hashicorp/golang-lru/v2"
	"golang.org/x/sync/errgroup"

	"github.com/yungbote/spiritanimal-backend/internal/domain/spirit"
	"github.com/yungbote/spiritanimal-backend/internal/observability"
	"github.com/yungbote/spiritanimal-backend/internal/platform/apierr"
	"github.com/yungbote/spiritanimal-backend/internal/platform/logger"
)

type cacheEntry struct {
	profile  spirit.SocialProfile
	storedAt time.Time
}

// SharedCache is a second cache tier shared between instances, e.g. Redis.
type SharedCache interface {
	Get(ctx context.Context, key string) (*spirit.SocialProfile, bool)
	Set(ctx context.Context, key string, p spirit.SocialProfile, ttl time.Duration)
}

// Aggregator fetches every handle of a request concurrently. It never fails the
// request: a platform that errors is logged and left out.
type Aggregator struct {
	log      *logger.Logger
	fetchers map[string]Fetcher
	cache    *lru.Cache[string, cacheEntry]
	shared   SharedCache
	ttl      time.Duration
	limit    int
	now      func() time.Time
}

func NewAggregator(log *logger.Logger, cfg Config, httpClient *http.Client) *Aggregator {
	return NewAggregatorWithFetchers(log, cfg, DefaultFetchers(cfg, httpClient)...)
}

func NewAggregatorWithFetchers(log *logger.Logger, cfg Config, fetchers ...Fetcher) *Aggregator {
	cfg = cfg.withDefaults()
	if log == nil {
		log = logger.Nop()
	}
	byPlatform := make(map[string]Fetcher, len(fetchers))
	for _, f := range fetchers {
		if f == nil {
			continue
		}
		byPlatform[strings.ToLower(f.Platform())] = f
	}
	cache, _ := lru.New[string, cacheEntry](cfg.CacheSize)
	return &Aggregator{
		log:      log.With("service", "SocialAggregator"),
		fetchers: byPlatform,
		cache:    cache,
		ttl:      cfg.CacheTTL,
		limit:    cfg.Concurrency,
		now:      time.Now,
	}
}

// WithSharedCache adds a shared tier consulted after the in-process cache.
func (a *Aggregator) WithSharedCache(c SharedCache) *Aggregator {
	a.shared = c
	return a
}

// Configured reports whether a fetcher exists for platform.
func (a *Aggregator) Configured(platform string) bool {
	_, ok := a.fetchers[strings.ToLower(strings.TrimSpace(platform))]
	return ok
}

// FetchAll returns profiles in the order of handles, skipping blanks, unknown
// platforms, empty results and failures.
func (a *Aggregator) FetchAll(ctx context.Context, handles []spirit.SocialHandle) []spirit.SocialProfile {
	if a == nil || len(handles) == 0 {
		return nil
	}
	results := make([]*spirit.SocialProfile, len(handles))

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(a.limit)
	for i, h := range handles {
		platform := strings.ToLower(strings.TrimSpace(h.Platform))
		handle := strings.TrimSpace(h.Handle)
		if handle == "" {
			continue
		}
		f, ok := a.fetchers[platform]
		if !ok {
			a.log.Debug("No fetcher for platform", "platform", platform)
			continue
		}
		g.Go(func() error {
			results[i] = a.fetchOne(gctx, f, platform, handle)
			return nil
		})
	}
	_ = g.Wait()

	out := make([]spirit.SocialProfile, 0, len(results))
	for _, p := range results {
		if p != nil {
			out = append(out, *p)
		}
	}
	return out
}

func (a *Aggregator) fetchOne(ctx context.Context, f Fetcher, platform, handle string) *spirit.SocialProfile {
	key := platform + ":" + strings.ToLower(handle)
	if entry, ok := a.cache.Get(key); ok {
		if a.now().Sub(entry.storedAt) < a.ttl {
			observability.Current().IncSocialFetch(platform, "cache_hit")
			p := entry.profile
			return &p
		}
		a.cache.Remove(key)
	}
	if a.shared != nil {
		if p, ok := a.shared.Get(ctx, key); ok {
			observability.Current().IncSocialFetch(platform, "shared_cache_hit")
			a.cache.Add(key, cacheEntry{profile: *p, storedAt: a.now()})
			return p
		}
	}

	p, err := f.Fetch(ctx, handle)
	switch {
	case err != nil:
		observability.Current().IncSocialFetch(platform, string(apierr.KindOf(err)))
		a.log.Warn("Social fetch failed", "platform", platform, "handle", handle, "error", err)
		return nil
	case p == nil:
		observability.Current().IncSocialFetch(platform, "empty")
		return nil
	}
	observability.Current().IncSocialFetch(platform, "ok")
	a.cache.Add(key, cacheEntry{profile: *p, storedAt: a.now()})
	if a.shared != nil {
		a.shared.Set(ctx, key, *p, a.ttl)
	}
	return p
}
