package services

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"go.opentelemetry.io/otel/trace"

	"github.com/yungbote/spiritanimal-backend/internal/domain/spirit"
	"github.com/yungbote/spiritanimal-backend/internal/observability"
	"github.com/yungbote/spiritanimal-backend/internal/platform/apierr"
	"github.com/yungbote/spiritanimal-backend/internal/platform/logger"
)

// ImageFailurePolicy decides what a failed image generation does to a request whose
// interpretation already succeeded.
type ImageFailurePolicy string

const (
	ImageFailureFailRequest ImageFailurePolicy = "fail_request"
	ImageFailureDegrade     ImageFailurePolicy = "degrade"
)

func ParseImageFailurePolicy(raw string) (ImageFailurePolicy, bool) {
	switch p := ImageFailurePolicy(strings.ToLower(strings.TrimSpace(raw))); p {
	case ImageFailureFailRequest, ImageFailureDegrade:
		return p, true
	case "":
		return ImageFailureFailRequest, true
	default:
		return p, false
	}
}

type PipelineConfig struct {
	DefaultProvider    spirit.ImageProvider
	ImageFailurePolicy ImageFailurePolicy
}

// SocialFetcher is implemented by social.Aggregator.
type SocialFetcher interface {
	FetchAll(ctx context.Context, handles []spirit.SocialHandle) []spirit.SocialProfile
}

type PipelineService interface {
	RunV1(ctx context.Context, req spirit.V1Request) (*spirit.PipelineResponse, error)
	RunV2(ctx context.Context, req spirit.V2Request) (*spirit.PipelineResponse, error)
}

type pipelineService struct {
	log         *logger.Logger
	cfg         PipelineConfig
	social      SocialFetcher
	summarizer  SummarizeService
	interpreter InterpretService
	images      ImageGenService
}

func NewPipelineService(
	log *logger.Logger,
	cfg PipelineConfig,
	social SocialFetcher,
	summarizer SummarizeService,
	interpreter InterpretService,
	images ImageGenService,
) PipelineService {
	if log == nil {
		log = logger.Nop()
	}
	if !cfg.DefaultProvider.Valid() {
		cfg.DefaultProvider = spirit.ImageProviderOpenAI
	}
	if cfg.ImageFailurePolicy == "" {
		cfg.ImageFailurePolicy = ImageFailureFailRequest
	}
	return &pipelineService{
		log:         log.With("service", "PipelineService"),
		cfg:         cfg,
		social:      social,
		summarizer:  summarizer,
		interpreter: interpreter,
		images:      images,
	}
}

// resolveProvider maps blank to the configured default and rejects anything outside
// the documented set.
func (p *pipelineService) resolveProvider(raw string) (spirit.ImageProvider, error) {
	if strings.TrimSpace(raw) == "" {
		return p.cfg.DefaultProvider, nil
	}
	provider, ok := spirit.ParseImageProvider(raw)
	if !ok {
		return provider, apierr.UnsupportedProvider(strings.TrimSpace(raw))
	}
	return provider, nil
}

// RunV1 is aggregate, summarize, interpret (classic prompt), image.
func (p *pipelineService) RunV1(ctx context.Context, req spirit.V1Request) (*spirit.PipelineResponse, error) {
	provider, err := p.resolveProvider(req.ImageProvider)
	if err != nil {
		return nil, err
	}
	if err := p.images.Check(provider); err != nil {
		return nil, err
	}

	var profiles []spirit.SocialProfile
	if p.social != nil && len(req.SocialHandles) > 0 {
		err := p.stage(ctx, "aggregate", func(ctx context.Context) error {
			profiles = p.social.FetchAll(ctx, req.SocialHandles)
			return nil
		})
		if err != nil {
			return nil, err
		}
	}
	aggregated := AggregateSignals(req.Form, profiles)

	var summary string
	if err := p.stage(ctx, "summarize", func(ctx context.Context) error {
		var err error
		summary, err = p.summarizer.Summarize(ctx, aggregated)
		return err
	}); err != nil {
		return nil, err
	}

	return p.interpretAndImage(ctx, summary, summary, PromptClassic, provider)
}

// RunV2 is context-build, interpret (rich prompt), image.
func (p *pipelineService) RunV2(ctx context.Context, req spirit.V2Request) (*spirit.PipelineResponse, error) {
	if strings.TrimSpace(req.PersonalitySummary) == "" {
		return nil, apierr.InvalidRequest("personality_summary_required", errors.New("personality_summary is required"))
	}
	provider, err := p.resolveProvider(req.ImageProvider)
	if err != nil {
		return nil, err
	}
	if req.SkipImage {
		provider = spirit.ImageProviderNone
	}
	if err := p.images.Check(provider); err != nil {
		return nil, err
	}
	enriched := BuildInterpretationContext(req.PersonalitySummary, req.Tags)
	return p.interpretAndImage(ctx, req.PersonalitySummary, enriched, PromptRich, provider)
}

func (p *pipelineService) interpretAndImage(
	ctx context.Context,
	echo string,
	personalityText string,
	variant PromptVariant,
	provider spirit.ImageProvider,
) (*spirit.PipelineResponse, error) {
	var interp spirit.Interpretation
	if err := p.stage(ctx, "interpret", func(ctx context.Context) error {
		var err error
		interp, err = p.interpreter.Interpret(ctx, personalityText, variant)
		return err
	}); err != nil {
		return nil, err
	}

	resp := &spirit.PipelineResponse{PersonalitySummary: echo, Interpretation: interp}

	var img spirit.ImageResult
	imgErr := p.stage(ctx, "image", func(ctx context.Context) error {
		var err error
		img, err = p.images.Generate(ctx, interp.ImagePrompt, provider)
		return err
	})
	if imgErr != nil {
		if !p.degradable(imgErr) {
			observability.Current().IncImageResult(string(provider), string(spirit.ImageFailed))
			return nil, imgErr
		}
		img = spirit.Failed(provider, string(apierr.KindOf(imgErr)), imgErr.Error())
		resp.Warnings = append(resp.Warnings, fmt.Sprintf("image generation failed (%s): %s", apierr.KindOf(imgErr), apierr.CodeOf(imgErr)))
		p.log.Warn("Returning interpretation without image", "provider", provider, "kind", apierr.KindOf(imgErr), "code", apierr.CodeOf(imgErr))
	}
	observability.Current().IncImageResult(string(provider), string(img.Status))
	resp.Image = img
	return resp, nil
}

// Configuration problems, unsupported providers and caller cancellation always fail
// the request.
func (p *pipelineService) degradable(err error) bool {
	if p.cfg.ImageFailurePolicy != ImageFailureDegrade {
		return false
	}
	switch apierr.KindOf(err) {
	case apierr.KindConfiguration, apierr.KindUnsupportedProvider, apierr.KindCanceled, apierr.KindInvalidRequest:
		return false
	default:
		return true
	}
}

func (p *pipelineService) stage(ctx context.Context, name string, fn func(ctx context.Context) error) error {
	ctx, span := observability.StartSpan(ctx, "pipeline."+name)
	defer span.End()
	if err := ctx.Err(); err != nil {
		err = apierr.Classify("pipeline_"+name, err)
		recordStage(span, name, err, 0)
		return err
	}
	start := time.Now()
	err := fn(ctx)
	if err != nil && ctx.Err() != nil && apierr.KindOf(err) == apierr.KindInternal {
		err = apierr.Classify("pipeline_"+name, ctx.Err())
	}
	recordStage(span, name, err, time.Since(start))
	return err
}

func recordStage(span trace.Span, name string, err error, dur time.Duration) {
	outcome := "ok"
	if err != nil {
		outcome = string(apierr.KindOf(err))
		span.RecordError(err)
	}
	observability.Current().ObserveStage(name, outcome, dur)
}
