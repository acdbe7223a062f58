package ideogram

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/yungbote/spiritanimal-backend/internal/observability"
	"github.com/yungbote/spiritanimal-backend/internal/platform/apierr"
	"github.com/yungbote/spiritanimal-backend/internal/platform/ctxutil"
	"github.com/yungbote/spiritanimal-backend/internal/platform/httpx"
	"github.com/yungbote/spiritanimal-backend/internal/platform/logger"
)

const providerName = "ideogram"

const defaultNegativePrompt = "words, text, letters, human faces, negativity of tone"

type Config struct {
	APIKey         string
	BaseURL        string
	Path           string
	Model          string
	AspectRatio    string
	StyleType      string
	NegativePrompt string
	Timeout        time.Duration
	Retry          httpx.RetryPolicy
}

func (c Config) withDefaults() Config {
	c.BaseURL = strings.TrimRight(strings.TrimSpace(c.BaseURL), "/")
	if c.BaseURL == "" {
		c.BaseURL = "https://api.ideogram.ai"
	}
	if strings.TrimSpace(c.Path) == "" {
		c.Path = "/generate"
	}
	if strings.TrimSpace(c.Model) == "" {
		c.Model = "V_2"
	}
	if strings.TrimSpace(c.AspectRatio) == "" {
		c.AspectRatio = "ASPECT_1_1"
	}
	if strings.TrimSpace(c.StyleType) == "" {
		c.StyleType = "GENERAL"
	}
	if strings.TrimSpace(c.NegativePrompt) == "" {
		c.NegativePrompt = defaultNegativePrompt
	}
	if c.Timeout <= 0 {
		c.Timeout = 60 * time.Second
	}
	return c
}

type Client struct {
	log        *logger.Logger
	cfg        Config
	httpClient *http.Client
}

func New(log *logger.Logger, cfg Config, httpClient *http.Client) (*Client, error) {
	if strings.TrimSpace(cfg.APIKey) == "" {
		return nil, apierr.Configuration("ideogram_missing_api_key", errors.New("missing IDEOGRAM_API_KEY"))
	}
	if log == nil {
		log = logger.Nop()
	}
	if httpClient == nil {
		httpClient = &http.Client{}
	}
	return &Client{log: log.With("client", "IdeogramClient"), cfg: cfg.withDefaults(), httpClient: httpClient}, nil
}

func (c *Client) Name() string { return providerName }

type imageRequest struct {
	Prompt            string `json:"prompt"`
	Model             string `json:"model,omitempty"`
	MagicPromptOption string `json:"magic_prompt_option,omitempty"`
	AspectRatio       string `json:"aspect_ratio,omitempty"`
	StyleType         string `json:"style_type,omitempty"`
	NegativePrompt    string `json:"negative_prompt,omitempty"`
}

type generateRequest struct {
	ImageRequest imageRequest `json:"image_request"`
}

type imageItem struct {
	URL    string `json:"url"`
	Prompt string `json:"prompt,omitempty"`
}

// Older API revisions answered with "images", current ones with "data".
type generateResponse struct {
	Data   []imageItem `json:"data"`
	Images []imageItem `json:"images"`
}

func (r generateResponse) firstURL() string {
	for _, list := range [][]imageItem{r.Data, r.Images} {
		for _, it := range list {
			if u := strings.TrimSpace(it.URL); u != "" {
				return u
			}
		}
	}
	return ""
}

// GenerateImage returns the hosted URL of the first generated image.
func (c *Client) GenerateImage(ctx context.Context, prompt string) (string, error) {
	prompt = strings.TrimSpace(prompt)
	if prompt == "" {
		return "", apierr.InvalidRequest("ideogram_image_prompt_required", errors.New("image prompt required"))
	}
	body := generateRequest{ImageRequest: imageRequest{
		Prompt:            prompt,
		Model:             c.cfg.Model,
		MagicPromptOption: "AUTO",
		AspectRatio:       c.cfg.AspectRatio,
		StyleType:         c.cfg.StyleType,
		NegativePrompt:    c.cfg.NegativePrompt,
	}}

	start := time.Now()
	var out generateResponse
	err := httpx.Do(ctx, c.cfg.Retry, func(ctx context.Context) error {
		return c.doOnce(ctx, body, &out)
	}, func(attempt int, err error, wait time.Duration) {
		c.log.Warn("Ideogram request retrying", "attempt", attempt, "sleep", wait.String(), "error", err.Error())
	})
	outcome := "ok"
	if err != nil {
		outcome = string(apierr.KindOf(err))
	}
	observability.Current().ObserveProviderCall(providerName, "generate_image", outcome, time.Since(start))
	if err != nil {
		return "", err
	}

	u := out.firstURL()
	if u == "" {
		return "", apierr.UpstreamResponse("ideogram_missing_url", 0, errors.New("ideogram response missing image url"))
	}
	if _, perr := url.ParseRequestURI(u); perr != nil {
		return "", apierr.UpstreamResponse("ideogram_bad_url", 0, fmt.Errorf("image url unparseable: %w", perr))
	}
	return u, nil
}

func (c *Client) doOnce(ctx context.Context, body any, out any) error {
	var buf bytes.Buffer
	if err := json.NewEncoder(&buf).Encode(body); err != nil {
		return apierr.Internal("ideogram_encode", err)
	}
	callCtx, cancel := context.WithTimeout(ctxutil.Default(ctx), c.cfg.Timeout)
	defer cancel()

	req, err := http.NewRequestWithContext(callCtx, http.MethodPost, c.cfg.BaseURL+c.cfg.Path, &buf)
	if err != nil {
		return apierr.Internal("ideogram_request", err)
	}
	req.Header.Set("Authorization", "Bearer "+c.cfg.APIKey)
	req.Header.Set("Api-Key", c.cfg.APIKey)
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return apierr.Classify("ideogram", err)
	}
	raw, readErr := io.ReadAll(resp.Body)
	_ = resp.Body.Close()
	if readErr != nil {
		return apierr.Classify("ideogram", readErr)
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return apierr.FromHTTPStatus("ideogram", resp.StatusCode, string(raw))
	}
	if err := json.Unmarshal(raw, out); err != nil {
		return apierr.MalformedResponse("ideogram_decode", fmt.Errorf("ideogram decode error: %w", err))
	}
	return nil
}
