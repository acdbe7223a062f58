package social

import (
	"context"
	"net/url"
	"strings"

	"github.com/yungbote/spiritanimal-backend/internal/domain/spirit"
)

type redditFetcher struct {
	get     getter
	baseURL string
}

func (f *redditFetcher) Platform() string { return PlatformReddit }

type redditListing struct {
	Data struct {
		Children []struct {
			Data struct {
				Body     string `json:"body"`
				Title    string `json:"title"`
				Selftext string `json:"selftext"`
			} `json:"data"`
		} `json:"children"`
	} `json:"data"`
}

func normalizeRedditUser(raw string) string {
	s := strings.TrimSpace(raw)
	s = strings.TrimPrefix(s, "/")
	s = strings.TrimPrefix(s, "u/")
	return strings.TrimSpace(s)
}

// Fetch reads the user's public overview. Comments contribute their body, posts their
// title followed by the self text.
func (f *redditFetcher) Fetch(ctx context.Context, handle string) (*spirit.SocialProfile, error) {
	user := normalizeRedditUser(handle)
	if user == "" {
		return nil, nil
	}
	var listing redditListing
	if err := f.get.getJSON(ctx, PlatformReddit, f.baseURL+"/user/"+url.PathEscape(user)+".json", nil, nil, &listing); err != nil {
		return nil, err
	}
	posts := make([]string, 0, maxPostsPerPlatform)
	for i, child := range listing.Data.Children {
		if i >= maxPostsPerPlatform {
			break
		}
		d := child.Data
		switch {
		case strings.TrimSpace(d.Body) != "":
			posts = append(posts, d.Body)
		case strings.TrimSpace(d.Title) != "":
			text := d.Title
			if strings.TrimSpace(d.Selftext) != "" {
				text += "\n" + d.Selftext
			}
			posts = append(posts, text)
		}
	}
	return &spirit.SocialProfile{Platform: PlatformReddit, Handle: user, Posts: posts}, nil
}
