package redis

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"

	"github.com/yungbote/spiritanimal-backend/internal/domain/spirit"
	"github.com/yungbote/spiritanimal-backend/internal/platform/apierr"
)

func TestProfileCacheRoundTripAndExpiry(t *testing.T) {
	mr := miniredis.RunT(t)
	c, err := NewProfileCache(context.Background(), nil, Config{Addr: mr.Addr()})
	if err != nil {
		t.Fatalf("NewProfileCache: %v", err)
	}
	defer c.Close()

	ctx := context.Background()
	if _, ok := c.Get(ctx, "reddit:ada"); ok {
		t.Fatalf("expected miss before set")
	}
	c.Set(ctx, "reddit:ada", spirit.SocialProfile{Platform: "reddit", Handle: "ada", Posts: []string{"hi"}}, time.Minute)
	if !mr.Exists("spiritanimal:social:reddit:ada") {
		t.Fatalf("key not written with prefix")
	}
	p, ok := c.Get(ctx, "reddit:ada")
	if !ok || p.Handle != "ada" || len(p.Posts) != 1 {
		t.Fatalf("get: got=%+v ok=%v", p, ok)
	}

	mr.FastForward(2 * time.Minute)
	if _, ok := c.Get(ctx, "reddit:ada"); ok {
		t.Fatalf("expected miss after ttl")
	}
}

func TestProfileCacheRequiresAddr(t *testing.T) {
	_, err := NewProfileCache(context.Background(), nil, Config{})
	if apierr.KindOf(err) != apierr.KindConfiguration {
		t.Fatalf("kind: want=%q got=%q", apierr.KindConfiguration, apierr.KindOf(err))
	}
}

func TestProfileCacheCorruptValueIsMiss(t *testing.T) {
	mr := miniredis.RunT(t)
	c, err := NewProfileCache(context.Background(), nil, Config{Addr: mr.Addr(), KeyPrefix: "t:"})
	if err != nil {
		t.Fatalf("NewProfileCache: %v", err)
	}
	defer c.Close()
	_ = mr.Set("t:bluesky:x", "{not json")
	if _, ok := c.Get(context.Background(), "bluesky:x"); ok {
		t.Fatalf("corrupt value should be a miss")
	}
}
