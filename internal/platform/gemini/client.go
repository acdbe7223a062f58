package gemini

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	genai "google.golang.org/genai"

	"github.com/yungbote/spiritanimal-backend/internal/observability"
	"github.com/yungbote/spiritanimal-backend/internal/platform/apierr"
	"github.com/yungbote/spiritanimal-backend/internal/platform/ctxutil"
	"github.com/yungbote/spiritanimal-backend/internal/platform/httpx"
	"github.com/yungbote/spiritanimal-backend/internal/platform/logger"
	"github.com/yungbote/spiritanimal-backend/internal/platform/promptstyle"
)

const providerName = "gemini"

type Config struct {
	APIKey string
	// BaseURL overrides the Gemini API endpoint. Used by tests and proxies.
	BaseURL      string
	Model        string
	ImageModel   string
	Temperature  *float64
	TextTimeout  time.Duration
	ImageTimeout time.Duration
	Retry        httpx.RetryPolicy
}

func (c Config) withDefaults() Config {
	if strings.TrimSpace(c.Model) == "" {
		c.Model = "gemini-2.5-flash"
	}
	if strings.TrimSpace(c.ImageModel) == "" {
		c.ImageModel = "gemini-3-pro-image-preview"
	}
	if c.TextTimeout <= 0 {
		c.TextTimeout = 60 * time.Second
	}
	if c.ImageTimeout <= 0 {
		c.ImageTimeout = 120 * time.Second
	}
	return c
}

// InlineImage is image data returned inside the response envelope.
type InlineImage struct {
	Bytes    []byte
	MimeType string
	// Text is any accompanying text part, kept for logging.
	Text string
}

type Client struct {
	log *logger.Logger
	cfg Config
	cli *genai.Client
}

func New(ctx context.Context, log *logger.Logger, cfg Config, httpClient *http.Client) (*Client, error) {
	if strings.TrimSpace(cfg.APIKey) == "" {
		return nil, apierr.Configuration("gemini_missing_api_key", errors.New("missing GEMINI_API_KEY"))
	}
	if log == nil {
		log = logger.Nop()
	}
	cfg = cfg.withDefaults()
	cc := &genai.ClientConfig{
		APIKey:     cfg.APIKey,
		Backend:    genai.BackendGeminiAPI,
		HTTPClient: httpClient,
	}
	if base := strings.TrimSpace(cfg.BaseURL); base != "" {
		cc.HTTPOptions = genai.HTTPOptions{BaseURL: strings.TrimRight(base, "/") + "/"}
	}
	cli, err := genai.NewClient(ctxutil.Default(ctx), cc)
	if err != nil {
		return nil, apierr.Configuration("gemini_client_init", fmt.Errorf("create genai client: %w", err))
	}
	return &Client{log: log.With("client", "GeminiClient"), cfg: cfg, cli: cli}, nil
}

func (c *Client) Name() string { return providerName }

func (c *Client) generationConfig(system string, mimeType string, modalities []string) *genai.GenerateContentConfig {
	gc := &genai.GenerateContentConfig{
		ResponseMIMEType:   mimeType,
		ResponseModalities: modalities,
	}
	if s := strings.TrimSpace(system); s != "" {
		gc.SystemInstruction = &genai.Content{Parts: []*genai.Part{{Text: s}}}
	}
	if c.cfg.Temperature != nil {
		t := float32(*c.cfg.Temperature)
		gc.Temperature = &t
	}
	return gc
}

func (c *Client) generate(ctx context.Context, operation, model, user string, timeout time.Duration, gc *genai.GenerateContentConfig) (*genai.GenerateContentResponse, error) {
	start := time.Now()
	var resp *genai.GenerateContentResponse
	err := httpx.Do(ctx, c.cfg.Retry, func(ctx context.Context) error {
		callCtx, cancel := context.WithTimeout(ctx, timeout)
		defer cancel()
		r, err := c.cli.Models.GenerateContent(callCtx, model,
			[]*genai.Content{{Role: "user", Parts: []*genai.Part{{Text: user}}}},
			gc,
		)
		if err != nil {
			return classify(err)
		}
		resp = r
		return nil
	}, func(attempt int, err error, wait time.Duration) {
		c.log.Warn("Gemini request retrying",
			"operation", operation,
			"attempt", attempt,
			"sleep", wait.String(),
			"error", err.Error(),
		)
	})
	outcome := "ok"
	if err != nil {
		outcome = string(apierr.KindOf(err))
	}
	observability.Current().ObserveProviderCall(providerName, operation, outcome, time.Since(start))
	return resp, err
}

// classify maps genai errors to apierr. HTTP failures arrive as genai.APIError, which
// the SDK returns by value.
func classify(err error) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return apierr.Classify("gemini", err)
	}
	var apiErr genai.APIError
	if errors.As(err, &apiErr) && apiErr.Code != 0 {
		return apierr.FromHTTPStatus("gemini", apiErr.Code, apiErr.Message)
	}
	var apiErrPtr *genai.APIError
	if errors.As(err, &apiErrPtr) && apiErrPtr != nil && apiErrPtr.Code != 0 {
		return apierr.FromHTTPStatus("gemini", apiErrPtr.Code, apiErrPtr.Message)
	}
	return apierr.Classify("gemini", err)
}

// collectParts walks every candidate defensively; the envelope shape has varied across
// model versions (missing content, empty parts, text before image).
func collectParts(resp *genai.GenerateContentResponse) (text string, images []*genai.Blob) {
	if resp == nil {
		return "", nil
	}
	var b strings.Builder
	for _, cand := range resp.Candidates {
		if cand == nil || cand.Content == nil {
			continue
		}
		for _, part := range cand.Content.Parts {
			if part == nil {
				continue
			}
			if part.InlineData != nil && len(part.InlineData.Data) > 0 {
				images = append(images, part.InlineData)
				continue
			}
			if part.Thought {
				continue
			}
			b.WriteString(part.Text)
		}
	}
	return b.String(), images
}

func blockReason(resp *genai.GenerateContentResponse) string {
	if resp == nil || resp.PromptFeedback == nil {
		return ""
	}
	return string(resp.PromptFeedback.BlockReason)
}

func (c *Client) GenerateText(ctx context.Context, system string, user string) (string, error) {
	gc := c.generationConfig(promptstyle.ApplySystem(system, "text"), "", nil)
	resp, err := c.generate(ctx, "generate_text", c.cfg.Model, user, c.cfg.TextTimeout, gc)
	if err != nil {
		return "", err
	}
	text, _ := collectParts(resp)
	if strings.TrimSpace(text) == "" {
		if reason := blockReason(resp); reason != "" {
			return "", apierr.UpstreamResponse("gemini_blocked", 0, fmt.Errorf("prompt blocked: %s", reason))
		}
		return "", apierr.UpstreamResponse("gemini_empty_output", 0, errors.New("no text in gemini response"))
	}
	return text, nil
}

// GenerateJSON requests application/json output constrained by schema. Contract checks
// still belong to the caller.
func (c *Client) GenerateJSON(ctx context.Context, system string, user string, schemaName string, schema map[string]any) (string, error) {
	if schemaName == "" || schema == nil {
		return "", apierr.Internal("gemini_schema_required", errors.New("schemaName and schema required"))
	}
	sys := promptstyle.ApplySystem(system, "json") + "\n\nRespond with JSON matching the " + schemaName + " structure described above."
	gc := c.generationConfig(sys, "application/json", nil)
	gc.ResponseJsonSchema = schema
	resp, err := c.generate(ctx, "generate_json", c.cfg.Model, user, c.cfg.TextTimeout, gc)
	if err != nil {
		return "", err
	}
	text, _ := collectParts(resp)
	if strings.TrimSpace(text) == "" {
		return "", apierr.UpstreamResponse("gemini_empty_output", 0, errors.New("no JSON text in gemini response"))
	}
	return text, nil
}

// GenerateImage returns the first inline image. A text-only answer is an upstream
// response error, never a success.
func (c *Client) GenerateImage(ctx context.Context, prompt string) (InlineImage, error) {
	var out InlineImage
	prompt = strings.TrimSpace(prompt)
	if prompt == "" {
		return out, apierr.InvalidRequest("gemini_image_prompt_required", errors.New("image prompt required"))
	}
	gc := c.generationConfig("", "", []string{"TEXT", "IMAGE"})
	resp, err := c.generate(ctx, "generate_image", c.cfg.ImageModel, prompt, c.cfg.ImageTimeout, gc)
	if err != nil {
		return out, err
	}
	text, images := collectParts(resp)
	if len(images) == 0 {
		if reason := blockReason(resp); reason != "" {
			return out, apierr.UpstreamResponse("gemini_blocked", 0, fmt.Errorf("prompt blocked: %s", reason))
		}
		return out, apierr.UpstreamResponse("gemini_no_image", 0, fmt.Errorf("no image generated by gemini (text=%q)", truncate(text, 200)))
	}
	blob := images[0]
	out.Bytes = blob.Data
	out.MimeType = strings.TrimSpace(blob.MIMEType)
	if out.MimeType == "" {
		out.MimeType = http.DetectContentType(blob.Data)
	}
	out.Text = text
	return out, nil
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n] + "..."
}
