package app

import (
	"context"
	"errors"

	"github.com/yungbote/spiritanimal-backend/internal/domain/spirit"
	"github.com/yungbote/spiritanimal-backend/internal/platform/apierr"
	"github.com/yungbote/spiritanimal-backend/internal/platform/logger"
	"github.com/yungbote/spiritanimal-backend/internal/services"
)

type Services struct {
	LLM       services.LLM
	Summarize services.SummarizeService
	Interpret services.InterpretService
	ImageHost services.ImageHostService
	ImageGen  services.ImageGenService
	Pipeline  services.PipelineService
}

// missingLLM stands in when the selected LLM provider has no credentials.
type missingLLM struct{ provider string }

func (m missingLLM) err() error {
	return apierr.Configuration(m.provider+"_not_configured", errors.New("missing API key for LLM provider "+m.provider))
}

func (m missingLLM) Name() string { return m.provider }

func (m missingLLM) GenerateText(context.Context, string, string) (string, error) {
	return "", m.err()
}

func (m missingLLM) GenerateJSON(context.Context, string, string, string, map[string]any) (string, error) {
	return "", m.err()
}

func selectLLM(cfg Config, c Clients) services.LLM {
	switch cfg.LLM.Provider {
	case "gemini":
		if c.Gemini != nil {
			return c.Gemini
		}
	default:
		if c.OpenAI != nil {
			return c.OpenAI
		}
	}
	return missingLLM{provider: cfg.LLM.Provider}
}

func imageBackends(c Clients) services.ImageBackends {
	var b services.ImageBackends
	if c.OpenAI != nil {
		b.OpenAI = services.OpenAIImages{Client: c.OpenAI}
	}
	if c.Gemini != nil {
		b.Gemini = services.GeminiImages{Client: c.Gemini}
	}
	if c.Ideogram != nil {
		b.Ideogram = services.IdeogramImages{Client: c.Ideogram}
	}
	return b
}

func wireServices(log *logger.Logger, cfg Config, c Clients) (Services, error) {
	log.Info("Wiring services...")
	policy, ok := services.ParseImageFailurePolicy(cfg.Pipeline.ImageFailurePolicy)
	if !ok {
		return Services{}, apierr.Configuration("invalid_image_failure_policy", errors.New(cfg.Pipeline.ImageFailurePolicy))
	}
	defaultProvider, ok := spirit.ParseImageProvider(cfg.Pipeline.DefaultProvider)
	if !ok {
		return Services{}, apierr.Configuration("invalid_default_image_provider", errors.New(cfg.Pipeline.DefaultProvider))
	}

	llm := selectLLM(cfg, c)
	log.Info("LLM provider selected", "provider", llm.Name())

	var s Services
	s.LLM = llm
	s.Summarize = services.NewSummarizeService(log, llm)
	s.Interpret = services.NewInterpretService(log, llm)
	s.ImageHost = services.NewImageHostService(log, c.Uploader, cfg.ImageHost.KeyPrefix)
	s.ImageGen = services.NewImageGenService(log, imageBackends(c), s.ImageHost)

	var socialFetcher services.SocialFetcher
	if c.Social != nil {
		socialFetcher = c.Social
	}
	s.Pipeline = services.NewPipelineService(
		log,
		services.PipelineConfig{DefaultProvider: defaultProvider, ImageFailurePolicy: policy},
		socialFetcher,
		s.Summarize,
		s.Interpret,
		s.ImageGen,
	)
	return s, nil
}
