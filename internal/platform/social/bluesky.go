package social

import (
	"context"
	"net/url"
	"strconv"
	"strings"

	"github.com/yungbote/spiritanimal-backend/internal/domain/spirit"
)

type blueskyFetcher struct {
	get     getter
	baseURL string
}

func (f *blueskyFetcher) Platform() string { return PlatformBluesky }

type blueskyProfile struct {
	Description string `json:"description"`
}

type blueskyFeed struct {
	Feed []struct {
		Post struct {
			Record struct {
				Text string `json:"text"`
			} `json:"record"`
		} `json:"post"`
	} `json:"feed"`
}

// normalizeBlueskyHandle appends .bsky.social to bare handles.
func normalizeBlueskyHandle(raw string) string {
	h := strings.TrimSpace(strings.TrimLeft(strings.TrimSpace(raw), "@"))
	if h == "" {
		return ""
	}
	if !strings.Contains(h, ".") {
		h += ".bsky.social"
	}
	return h
}

// Fetch reads the public profile and author feed. A failed feed read keeps the bio.
func (f *blueskyFetcher) Fetch(ctx context.Context, handle string) (*spirit.SocialProfile, error) {
	actor := normalizeBlueskyHandle(handle)
	if actor == "" {
		return nil, nil
	}
	var profile blueskyProfile
	err := f.get.getJSON(ctx, PlatformBluesky, f.baseURL+"/xrpc/app.bsky.actor.getProfile", url.Values{"actor": {actor}}, nil, &profile)
	if err != nil {
		return nil, err
	}
	out := &spirit.SocialProfile{Platform: PlatformBluesky, Handle: actor, Bio: strings.TrimSpace(profile.Description)}

	var feed blueskyFeed
	q := url.Values{"actor": {actor}, "limit": {strconv.Itoa(maxPostsPerPlatform)}}
	if err := f.get.getJSON(ctx, PlatformBluesky, f.baseURL+"/xrpc/app.bsky.feed.getAuthorFeed", q, nil, &feed); err != nil {
		return out, nil
	}
	for _, item := range feed.Feed {
		if t := strings.TrimSpace(item.Post.Record.Text); t != "" {
			out.Posts = append(out.Posts, t)
		}
	}
	return out, nil
}
