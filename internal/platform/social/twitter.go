package social

import (
	"context"
	"net/url"
	"strings"

	"github.com/yungbote/spiritanimal-backend/internal/domain/spirit"
)

type twitterFetcher struct {
	get     getter
	baseURL string
	bearer  string
}

func (f *twitterFetcher) Platform() string { return PlatformTwitter }

type twitterUserResponse struct {
	Data *struct {
		ID          string `json:"id"`
		Description string `json:"description"`
	} `json:"data"`
}

type twitterTweetsResponse struct {
	Data []struct {
		Text string `json:"text"`
	} `json:"data"`
}

func (f *twitterFetcher) Fetch(ctx context.Context, handle string) (*spirit.SocialProfile, error) {
	handle = strings.TrimSpace(strings.TrimLeft(strings.TrimSpace(handle), "@"))
	if handle == "" {
		return nil, nil
	}
	headers := map[string]string{"Authorization": "Bearer " + f.bearer}

	var user twitterUserResponse
	err := f.get.getJSON(ctx, PlatformTwitter,
		f.baseURL+"/2/users/by/username/"+url.PathEscape(handle),
		url.Values{"user.fields": {"description"}},
		headers, &user)
	if err != nil {
		return nil, err
	}
	if user.Data == nil || user.Data.ID == "" {
		return nil, nil
	}

	var tweets twitterTweetsResponse
	err = f.get.getJSON(ctx, PlatformTwitter,
		f.baseURL+"/2/users/"+url.PathEscape(user.Data.ID)+"/tweets",
		url.Values{"max_results": {"20"}, "tweet.fields": {"text"}},
		headers, &tweets)
	if err != nil {
		return nil, err
	}
	posts := make([]string, 0, len(tweets.Data))
	for _, t := range tweets.Data {
		if s := strings.TrimSpace(t.Text); s != "" {
			posts = append(posts, s)
		}
	}
	return &spirit.SocialProfile{
		Platform: PlatformTwitter,
		Handle:   handle,
		Bio:      strings.TrimSpace(user.Data.Description),
		Posts:    posts,
	}, nil
}
