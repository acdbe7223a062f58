package openai

import (
	"bytes"
	"context"
	"encoding/base64"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"sync"
	"time"

	"github.com/yungbote/spiritanimal-backend/internal/observability"
	"github.com/yungbote/spiritanimal-backend/internal/platform/apierr"
	"github.com/yungbote/spiritanimal-backend/internal/platform/ctxutil"
	"github.com/yungbote/spiritanimal-backend/internal/platform/httpx"
	"github.com/yungbote/spiritanimal-backend/internal/platform/logger"
	"github.com/yungbote/spiritanimal-backend/internal/platform/promptstyle"
)

const providerName = "openai"

type Config struct {
	APIKey  string
	BaseURL string
	// Model is used for text and structured (json_schema) generation.
	Model           string
	Temperature     *float64
	MaxOutputTokens int
	// NoTemperatureModels are model ids (or "prefix*" rules) that reject temperature.
	NoTemperatureModels []string

	ImageModel   string
	ImageSize    string
	ImageQuality string

	TextTimeout  time.Duration
	ImageTimeout time.Duration
	Retry        httpx.RetryPolicy
}

func (c Config) withDefaults() Config {
	c.BaseURL = strings.TrimRight(strings.TrimSpace(c.BaseURL), "/")
	if c.BaseURL == "" {
		c.BaseURL = "https://api.openai.com"
	}
	if strings.TrimSpace(c.Model) == "" {
		c.Model = "gpt-4o"
	}
	if strings.TrimSpace(c.ImageModel) == "" {
		c.ImageModel = "dall-e-3"
	}
	if strings.TrimSpace(c.ImageSize) == "" {
		c.ImageSize = "1024x1024"
	}
	if strings.TrimSpace(c.ImageQuality) == "" {
		c.ImageQuality = "standard"
	}
	if c.TextTimeout <= 0 {
		c.TextTimeout = 60 * time.Second
	}
	if c.ImageTimeout <= 0 {
		c.ImageTimeout = 120 * time.Second
	}
	return c
}

// ImageGeneration is one generated image. URL is set when the API returned a hosted
// link; otherwise Bytes carries the decoded inline payload.
type ImageGeneration struct {
	URL           string
	Bytes         []byte
	MimeType      string
	RevisedPrompt string
}

// Client talks to the OpenAI Responses and Images APIs over plain HTTP.
type Client struct {
	log        *logger.Logger
	cfg        Config
	httpClient *http.Client

	noTempModels   map[string]bool
	noTempPrefixes []string

	noTempMu   sync.RWMutex
	noTempSeen map[string]time.Time
	noTempTTL  time.Duration
}

// New validates credentials eagerly. A nil httpClient gets a pooled default.
func New(log *logger.Logger, cfg Config, httpClient *http.Client) (*Client, error) {
	if strings.TrimSpace(cfg.APIKey) == "" {
		return nil, apierr.Configuration("openai_missing_api_key", errors.New("missing OPENAI_API_KEY"))
	}
	if log == nil {
		log = logger.Nop()
	}
	if httpClient == nil {
		httpClient = &http.Client{}
	}
	cfg = cfg.withDefaults()
	models, prefixes := parseNoTempModelRules(cfg.NoTemperatureModels)
	return &Client{
		log:            log.With("client", "OpenAIClient"),
		cfg:            cfg,
		httpClient:     httpClient,
		noTempModels:   models,
		noTempPrefixes: prefixes,
		noTempSeen:     map[string]time.Time{},
		noTempTTL:      6 * time.Hour,
	}, nil
}

func (c *Client) Name() string { return providerName }

func normalizeModelKey(m string) string {
	return strings.ToLower(strings.TrimSpace(m))
}

// Rules support a "*" suffix for prefix match, e.g. "o1-*".
func parseNoTempModelRules(rules []string) (map[string]bool, []string) {
	m := map[string]bool{}
	var prefixes []string
	for _, part := range rules {
		s := normalizeModelKey(part)
		if s == "" {
			continue
		}
		if strings.HasSuffix(s, "*") {
			p := strings.TrimSpace(strings.TrimRight(strings.TrimSuffix(s, "*"), "-_./:"))
			if p != "" {
				prefixes = append(prefixes, p)
			}
			continue
		}
		m[s] = true
	}
	return m, prefixes
}

func (c *Client) modelIsNoTemp(model string) bool {
	m := normalizeModelKey(model)
	if m == "" {
		return false
	}
	if c.noTempModels[m] {
		return true
	}
	for _, p := range c.noTempPrefixes {
		if strings.HasPrefix(m, p) {
			return true
		}
	}
	c.noTempMu.RLock()
	ts, ok := c.noTempSeen[m]
	c.noTempMu.RUnlock()
	return ok && time.Since(ts) < c.noTempTTL
}

func (c *Client) noteNoTempModel(model string) {
	m := normalizeModelKey(model)
	if m == "" {
		return
	}
	c.noTempMu.Lock()
	c.noTempSeen[m] = time.Now().UTC()
	c.noTempMu.Unlock()
}

func (c *Client) applyTemperature(req *responsesRequest) {
	if req == nil || c.cfg.Temperature == nil {
		return
	}
	if c.modelIsNoTemp(req.Model) {
		return
	}
	t := *c.cfg.Temperature
	req.Temperature = &t
}

func isUnsupportedTemperatureParam(err error) bool {
	if err == nil {
		return false
	}
	msg := strings.ToLower(err.Error())
	if !strings.Contains(msg, "temperature") {
		return false
	}
	for _, marker := range []string{"unsupported parameter", "unknown parameter", "unrecognized parameter", "not supported", "does not support", "only the default", "unsupported_value"} {
		if strings.Contains(msg, marker) {
			return true
		}
	}
	return false
}

// doOnce performs a single HTTP exchange bounded by timeout. Failures come back as *apierr.Error.
func (c *Client) doOnce(ctx context.Context, method, path string, body any, timeout time.Duration) ([]byte, error) {
	var buf bytes.Buffer
	if body != nil {
		if err := json.NewEncoder(&buf).Encode(body); err != nil {
			return nil, apierr.Internal("openai_encode", fmt.Errorf("encode request: %w", err))
		}
	}
	callCtx, cancel := context.WithTimeout(ctxutil.Default(ctx), timeout)
	defer cancel()

	req, err := http.NewRequestWithContext(callCtx, method, c.cfg.BaseURL+path, &buf)
	if err != nil {
		return nil, apierr.Internal("openai_request", err)
	}
	req.Header.Set("Authorization", "Bearer "+c.cfg.APIKey)
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, apierr.Classify("openai", err)
	}
	raw, readErr := io.ReadAll(resp.Body)
	_ = resp.Body.Close()
	if readErr != nil {
		return nil, apierr.Classify("openai", readErr)
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, apierr.FromHTTPStatus("openai", resp.StatusCode, string(raw))
	}
	return raw, nil
}

// do runs doOnce under the retry policy and decodes the body into out.
func (c *Client) do(ctx context.Context, operation, path string, body any, timeout time.Duration, out any) error {
	start := time.Now()
	var raw []byte
	err := httpx.Do(ctx, c.cfg.Retry, func(ctx context.Context) error {
		var err error
		raw, err = c.doOnce(ctx, http.MethodPost, path, body, timeout)
		return err
	}, func(attempt int, err error, wait time.Duration) {
		c.log.Warn("OpenAI request retrying",
			"path", path,
			"attempt", attempt,
			"max_retries", c.cfg.Retry.MaxRetries,
			"sleep", wait.String(),
			"error", err.Error(),
		)
	})
	observability.Current().ObserveProviderCall(providerName, operation, outcomeOf(err), time.Since(start))
	if err != nil {
		return err
	}
	if out == nil {
		return nil
	}
	if uErr := json.Unmarshal(raw, out); uErr != nil {
		return apierr.MalformedResponse("openai_decode", fmt.Errorf("openai decode error: %w", uErr))
	}
	return nil
}

func outcomeOf(err error) string {
	if err == nil {
		return "ok"
	}
	return string(apierr.KindOf(err))
}

// -------------------- Responses API --------------------

type responsesInput struct {
	Role    string `json:"role"`
	Content any    `json:"content"`
}

type responsesRequest struct {
	Model string           `json:"model"`
	Input []responsesInput `json:"input"`

	Text *struct {
		Format map[string]any `json:"format,omitempty"`
	} `json:"text,omitempty"`

	Temperature     *float64 `json:"temperature,omitempty"`
	MaxOutputTokens int      `json:"max_output_tokens,omitempty"`
}

type responsesResponse struct {
	Output []struct {
		Type    string `json:"type"`
		Role    string `json:"role,omitempty"`
		Content []struct {
			Type    string `json:"type"`
			Text    string `json:"text,omitempty"`
			Refusal string `json:"refusal,omitempty"`
		} `json:"content,omitempty"`
	} `json:"output"`
	Refusal string `json:"refusal,omitempty"`
}

func extractOutputText(resp responsesResponse) string {
	var out strings.Builder
	for _, item := range resp.Output {
		if item.Type == "message" && item.Role == "assistant" {
			for _, c := range item.Content {
				if c.Type == "output_text" && c.Text != "" {
					out.WriteString(c.Text)
				}
			}
		}
	}
	return out.String()
}

func extractRefusal(resp responsesResponse) string {
	if strings.TrimSpace(resp.Refusal) != "" {
		return resp.Refusal
	}
	for _, item := range resp.Output {
		for _, c := range item.Content {
			if c.Type == "refusal" && strings.TrimSpace(c.Refusal) != "" {
				return c.Refusal
			}
		}
	}
	return ""
}

func (c *Client) newResponsesRequest(system, user string) *responsesRequest {
	req := &responsesRequest{
		Model: c.cfg.Model,
		Input: []responsesInput{
			{Role: "system", Content: system},
			{Role: "user", Content: user},
		},
		MaxOutputTokens: c.cfg.MaxOutputTokens,
	}
	c.applyTemperature(req)
	return req
}

// doResponses retries exactly once without temperature if the model rejects it.
func (c *Client) doResponses(ctx context.Context, operation string, req *responsesRequest, out *responsesResponse) error {
	err := c.do(ctx, operation, "/v1/responses", req, c.cfg.TextTimeout, out)
	if err == nil || req.Temperature == nil || !isUnsupportedTemperatureParam(err) {
		return err
	}
	c.noteNoTempModel(req.Model)
	req.Temperature = nil
	return c.do(ctx, operation, "/v1/responses", req, c.cfg.TextTimeout, out)
}

// GenerateJSON requests strict json_schema output and returns the raw JSON text.
// Parsing and field validation belong to the caller.
func (c *Client) GenerateJSON(ctx context.Context, system string, user string, schemaName string, schema map[string]any) (string, error) {
	if schemaName == "" || schema == nil {
		return "", apierr.Internal("openai_schema_required", errors.New("schemaName and schema required"))
	}
	req := c.newResponsesRequest(promptstyle.ApplySystem(system, "json"), user)
	req.Text = &struct {
		Format map[string]any `json:"format,omitempty"`
	}{Format: map[string]any{
		"type":   "json_schema",
		"name":   schemaName,
		"schema": schema,
		"strict": true,
	}}

	var resp responsesResponse
	if err := c.doResponses(ctx, "generate_json", req, &resp); err != nil {
		return "", err
	}
	if refusal := extractRefusal(resp); refusal != "" {
		return "", apierr.ContractViolation("openai_refusal", fmt.Errorf("model refused: %s", refusal))
	}
	jsonText := extractOutputText(resp)
	if strings.TrimSpace(jsonText) == "" {
		return "", apierr.UpstreamResponse("openai_empty_output", 0, errors.New("no output_text found in response"))
	}
	return jsonText, nil
}

func (c *Client) GenerateText(ctx context.Context, system string, user string) (string, error) {
	req := c.newResponsesRequest(promptstyle.ApplySystem(system, "text"), user)
	var resp responsesResponse
	if err := c.doResponses(ctx, "generate_text", req, &resp); err != nil {
		return "", err
	}
	if refusal := extractRefusal(resp); refusal != "" {
		return "", apierr.UpstreamResponse("openai_refusal", 0, fmt.Errorf("model refused: %s", refusal))
	}
	text := extractOutputText(resp)
	if strings.TrimSpace(text) == "" {
		return "", apierr.UpstreamResponse("openai_empty_output", 0, errors.New("no output_text found in response"))
	}
	return text, nil
}

// -------------------- Images API --------------------

type imagesGenerationRequest struct {
	Model          string `json:"model"`
	Prompt         string `json:"prompt"`
	N              int    `json:"n,omitempty"`
	Size           string `json:"size,omitempty"`
	Quality        string `json:"quality,omitempty"`
	ResponseFormat string `json:"response_format,omitempty"` // url|b64_json
}

type imagesGenerationResponse struct {
	Data []struct {
		B64JSON       string `json:"b64_json"`
		URL           string `json:"url"`
		RevisedPrompt string `json:"revised_prompt"`
	} `json:"data"`
}

func isUnknownResponseFormatParam(err error) bool {
	if err == nil {
		return false
	}
	msg := strings.ToLower(err.Error())
	return strings.Contains(msg, "unknown parameter") && strings.Contains(msg, "response_format")
}

// GenerateImage asks for a hosted URL. gpt-image-* models only return inline data, which
// is decoded into Bytes.
// InlineImagesOnly reports whether the configured image model only answers with b64 data.
func (c *Client) InlineImagesOnly() bool {
	return strings.HasPrefix(strings.ToLower(c.cfg.ImageModel), "gpt-image-")
}

func (c *Client) GenerateImage(ctx context.Context, prompt string) (ImageGeneration, error) {
	var out ImageGeneration
	prompt = strings.TrimSpace(prompt)
	if prompt == "" {
		return out, apierr.InvalidRequest("openai_image_prompt_required", errors.New("image prompt required"))
	}

	req := imagesGenerationRequest{
		Model:          c.cfg.ImageModel,
		Prompt:         prompt,
		N:              1,
		Size:           c.cfg.ImageSize,
		Quality:        c.cfg.ImageQuality,
		ResponseFormat: "url",
	}
	if c.InlineImagesOnly() {
		req.ResponseFormat = ""
		req.Quality = ""
	}

	var resp imagesGenerationResponse
	err := c.do(ctx, "generate_image", "/v1/images/generations", req, c.cfg.ImageTimeout, &resp)
	if err != nil && isUnknownResponseFormatParam(err) {
		req.ResponseFormat = ""
		err = c.do(ctx, "generate_image", "/v1/images/generations", req, c.cfg.ImageTimeout, &resp)
	}
	if err != nil {
		return out, err
	}
	if len(resp.Data) == 0 {
		return out, apierr.UpstreamResponse("openai_no_image", 0, errors.New("no image returned"))
	}
	item := resp.Data[0]
	out.RevisedPrompt = strings.TrimSpace(item.RevisedPrompt)
	if u := strings.TrimSpace(item.URL); u != "" {
		if _, perr := url.ParseRequestURI(u); perr != nil {
			return out, apierr.UpstreamResponse("openai_bad_image_url", 0, fmt.Errorf("image url unparseable: %w", perr))
		}
		out.URL = u
		return out, nil
	}
	b64 := strings.TrimSpace(item.B64JSON)
	if b64 == "" {
		return out, apierr.UpstreamResponse("openai_image_missing_payload", 0, errors.New("image response missing url and b64_json"))
	}
	raw, derr := base64.StdEncoding.DecodeString(b64)
	if derr != nil || len(raw) == 0 {
		return out, apierr.UpstreamResponse("openai_image_decode", 0, fmt.Errorf("decode image base64: %v", derr))
	}
	out.Bytes = raw
	out.MimeType = http.DetectContentType(raw)
	return out, nil
}
