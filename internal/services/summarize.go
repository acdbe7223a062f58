package services

import (
	"context"
	"errors"
	"strings"

	"github.com/yungbote/spiritanimal-backend/internal/platform/apierr"
	"github.com/yungbote/spiritanimal-backend/internal/platform/logger"
)

const summarySystemPrompt = `You are a warm, insightful personality analyst with a gift for
seeing the best in people. Given someone's self-description and social media presence,
create an engaging personality profile.

Your analysis should cover:
- Communication style (formal/casual, witty/sincere, etc.)
- Core interests and passions
- Values and what drives them
- Energy and social orientation (introvert/extrovert spectrum)
- Creative or analytical tendencies
- Sense of humor
- Unique quirks or standout traits

Guidelines:
- Be positive and celebratory - this is for fun!
- Be specific, not generic - find what makes them unique
- Write in second person ("You are..." / "You have...")
- Keep it to 2-3 paragraphs
- Avoid clichés and generic statements`

type SummarizeService interface {
	Summarize(ctx context.Context, aggregated string) (string, error)
}

type summarizeService struct {
	log *logger.Logger
	llm TextGenerator
}

func NewSummarizeService(log *logger.Logger, llm TextGenerator) SummarizeService {
	if log == nil {
		log = logger.Nop()
	}
	return &summarizeService{log: log.With("service", "SummarizeService"), llm: llm}
}

// Summarize turns aggregated signals into a short narrative. Transport retries happen in
// the LLM client; an empty answer is fatal.
func (s *summarizeService) Summarize(ctx context.Context, aggregated string) (string, error) {
	if strings.TrimSpace(aggregated) == "" {
		return "", apierr.InvalidRequest("summary_input_required", errors.New("aggregated signals are empty"))
	}
	if s.llm == nil {
		return "", apierr.Configuration("llm_not_configured", errors.New("no text-generation LLM configured"))
	}
	out, err := s.llm.GenerateText(ctx, summarySystemPrompt, "Please analyze this person's personality:\n\n"+aggregated)
	if err != nil {
		s.log.Warn("Personality summary failed", "kind", apierr.KindOf(err), "code", apierr.CodeOf(err))
		return "", err
	}
	out = strings.TrimSpace(out)
	if out == "" {
		return "", apierr.UpstreamResponse("summary_empty", 0, errors.New("llm returned an empty personality summary"))
	}
	return out, nil
}
