package services

import (
	"context"
	"encoding/base64"
	"errors"
	"fmt"
	"strings"

	"github.com/yungbote/spiritanimal-backend/internal/domain/spirit"
	"github.com/yungbote/spiritanimal-backend/internal/platform/apierr"
	"github.com/yungbote/spiritanimal-backend/internal/platform/gemini"
	"github.com/yungbote/spiritanimal-backend/internal/platform/ideogram"
	"github.com/yungbote/spiritanimal-backend/internal/platform/logger"
	"github.com/yungbote/spiritanimal-backend/internal/platform/openai"
)

const noTextNoFacesSuffix = ". Important: Do not include any text, words, letters, or human faces in the image."

// GeneratedImage is a provider answer before normalization: a URL or inline bytes.
type GeneratedImage struct {
	URL      string
	Bytes    []byte
	MimeType string
}

type ImageBackend interface {
	Generate(ctx context.Context, prompt string) (GeneratedImage, error)
}

// inlineOnly is implemented by backends that never answer with a hosted URL.
type inlineOnly interface {
	InlineOnly() bool
}

// ImageBackends holds one backend per provider. A nil entry means the provider has no
// credentials configured.
type ImageBackends struct {
	OpenAI   ImageBackend
	Gemini   ImageBackend
	Ideogram ImageBackend
}

type ImageGenService interface {
	// Check reports, without any network call, whether provider can be served.
	Check(provider spirit.ImageProvider) error
	Generate(ctx context.Context, prompt string, provider spirit.ImageProvider) (spirit.ImageResult, error)
}

type imageGenService struct {
	log      *logger.Logger
	backends ImageBackends
	host     ImageHostService
}

func NewImageGenService(log *logger.Logger, backends ImageBackends, host ImageHostService) ImageGenService {
	if log == nil {
		log = logger.Nop()
	}
	return &imageGenService{log: log.With("service", "ImageGenService"), backends: backends, host: host}
}

func (s *imageGenService) backendFor(provider spirit.ImageProvider) (ImageBackend, string, error) {
	switch provider {
	case spirit.ImageProviderNone:
		return nil, "", nil
	case spirit.ImageProviderOpenAI:
		if err := requireBackend(s.backends.OpenAI, "openai_not_configured", "OPENAI_API_KEY"); err != nil {
			return nil, "", err
		}
		if ib, ok := s.backends.OpenAI.(inlineOnly); ok && ib.InlineOnly() {
			return s.backends.OpenAI, noTextNoFacesSuffix, s.requireHost()
		}
		return s.backends.OpenAI, noTextNoFacesSuffix, nil
	case spirit.ImageProviderGemini:
		if err := requireBackend(s.backends.Gemini, "gemini_not_configured", "GEMINI_API_KEY"); err != nil {
			return nil, "", err
		}
		// Gemini only returns inline bytes.
		return s.backends.Gemini, noTextNoFacesSuffix, s.requireHost()
	case spirit.ImageProviderIdeogram:
		// Ideogram takes exclusions as a negative prompt.
		return s.backends.Ideogram, "", requireBackend(s.backends.Ideogram, "ideogram_not_configured", "IDEOGRAM_API_KEY")
	default:
		return nil, "", apierr.UnsupportedProvider(string(provider))
	}
}

func requireBackend(b ImageBackend, code, envVar string) error {
	if b != nil {
		return nil
	}
	return apierr.Configuration(code, fmt.Errorf("%s not configured", envVar))
}

func (s *imageGenService) hostReady() bool {
	return s.host != nil && s.host.Configured()
}

func (s *imageGenService) requireHost() error {
	if s.hostReady() {
		return nil
	}
	return apierr.Configuration("image_host_not_configured", errors.New("provider returns inline images but no image host is configured"))
}

func (s *imageGenService) Check(provider spirit.ImageProvider) error {
	_, _, err := s.backendFor(provider)
	return err
}

// Generate dispatches to exactly one provider. URLs pass through untouched; inline
// bytes are re-hosted so the result is always a fetchable link.
func (s *imageGenService) Generate(ctx context.Context, prompt string, provider spirit.ImageProvider) (spirit.ImageResult, error) {
	backend, suffix, err := s.backendFor(provider)
	if err != nil {
		return spirit.ImageResult{}, err
	}
	if provider == spirit.ImageProviderNone {
		return spirit.Skipped(spirit.ImageProviderNone), nil
	}
	prompt = strings.TrimSpace(prompt)
	if prompt == "" {
		return spirit.ImageResult{}, apierr.InvalidRequest("image_prompt_required", errors.New("image prompt is empty"))
	}

	img, err := backend.Generate(ctx, prompt+suffix)
	if err != nil {
		s.log.Warn("Image generation failed", "provider", provider, "kind", apierr.KindOf(err), "code", apierr.CodeOf(err))
		return spirit.ImageResult{}, err
	}

	if u := strings.TrimSpace(img.URL); u != "" && !strings.HasPrefix(u, "data:") {
		return spirit.Succeeded(provider, u), nil
	}
	data, mime := img.Bytes, img.MimeType
	if len(data) == 0 && strings.HasPrefix(strings.TrimSpace(img.URL), "data:") {
		data, mime, err = decodeDataURL(img.URL)
		if err != nil {
			return spirit.ImageResult{}, err
		}
	}
	if len(data) == 0 {
		return spirit.ImageResult{}, apierr.UpstreamResponse(string(provider)+"_no_image", 0, errors.New("provider returned neither url nor image data"))
	}
	if !s.hostReady() {
		return spirit.ImageResult{}, apierr.Configuration("image_host_not_configured", errors.New("inline image returned but no image host is configured"))
	}
	hosted, err := s.host.Rehost(ctx, data, mime)
	if err != nil {
		return spirit.ImageResult{}, err
	}
	return spirit.Succeeded(provider, hosted), nil
}

func decodeDataURL(s string) ([]byte, string, error) {
	s = strings.TrimPrefix(strings.TrimSpace(s), "data:")
	meta, payload, ok := strings.Cut(s, ",")
	if !ok || !strings.HasSuffix(meta, ";base64") {
		return nil, "", apierr.UpstreamResponse("image_bad_data_url", 0, errors.New("data url is not base64 encoded"))
	}
	raw, err := base64.StdEncoding.DecodeString(payload)
	if err != nil {
		return nil, "", apierr.UpstreamResponse("image_bad_data_url", 0, fmt.Errorf("decode data url: %w", err))
	}
	return raw, strings.TrimSuffix(meta, ";base64"), nil
}

// OpenAIImages adapts the openai client.
type OpenAIImages struct{ Client *openai.Client }

func (o OpenAIImages) InlineOnly() bool { return o.Client.InlineImagesOnly() }

func (o OpenAIImages) Generate(ctx context.Context, prompt string) (GeneratedImage, error) {
	g, err := o.Client.GenerateImage(ctx, prompt)
	if err != nil {
		return GeneratedImage{}, err
	}
	return GeneratedImage{URL: g.URL, Bytes: g.Bytes, MimeType: g.MimeType}, nil
}

type GeminiImages struct{ Client *gemini.Client }

func (GeminiImages) InlineOnly() bool { return true }

func (g GeminiImages) Generate(ctx context.Context, prompt string) (GeneratedImage, error) {
	img, err := g.Client.GenerateImage(ctx, prompt)
	if err != nil {
		return GeneratedImage{}, err
	}
	return GeneratedImage{Bytes: img.Bytes, MimeType: img.MimeType}, nil
}

type IdeogramImages struct{ Client *ideogram.Client }

func (i IdeogramImages) Generate(ctx context.Context, prompt string) (GeneratedImage, error) {
	u, err := i.Client.GenerateImage(ctx, prompt)
	if err != nil {
		return GeneratedImage{}, err
	}
	return GeneratedImage{URL: u}, nil
}
