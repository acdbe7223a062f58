package services

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/kaptinlin/jsonrepair"

	"github.com/yungbote/spiritanimal-backend/internal/domain/spirit"
	"github.com/yungbote/spiritanimal-backend/internal/platform/apierr"
	"github.com/yungbote/spiritanimal-backend/internal/platform/logger"
)

// PromptVariant picks the system prompt and output shape of the interpretation call.
type PromptVariant string

const (
	// PromptRich is the taxonomy-driven prompt with nested output.
	PromptRich PromptVariant = "rich"
	// PromptClassic is the shorter prompt with flat output.
	PromptClassic PromptVariant = "classic"
)

type InterpretService interface {
	Interpret(ctx context.Context, personalityText string, variant PromptVariant) (spirit.Interpretation, error)
}

type interpretService struct {
	log *logger.Logger
	llm JSONGenerator
}

func NewInterpretService(log *logger.Logger, llm JSONGenerator) InterpretService {
	if log == nil {
		log = logger.Nop()
	}
	return &interpretService{log: log.With("service", "InterpretService"), llm: llm}
}

type richAnswer struct {
	SpiritAnimal struct {
		Animal    string `json:"animal"`
		Rationale string `json:"rationale"`
	} `json:"spiritAnimal"`
	ArtisticMedium struct {
		Medium      string `json:"medium"`
		Description string `json:"description"`
	} `json:"artisticMedium"`
	ImagePrompt string `json:"imagePrompt"`
}

type classicAnswer struct {
	Animal          string `json:"animal"`
	AnimalReasoning string `json:"animal_reasoning"`
	Medium          string `json:"medium"`
	MediumReasoning string `json:"medium_reasoning"`
	ImagePrompt     string `json:"image_prompt"`
}

// Flat names reported for classic answers.
var classicFieldNames = map[string]string{
	"spiritAnimal.animal":        "animal",
	"spiritAnimal.rationale":     "animal_reasoning",
	"artisticMedium.medium":      "medium",
	"artisticMedium.description": "medium_reasoning",
	"imagePrompt":                "image_prompt",
}

type variantSpec struct {
	system     string
	userPrefix string
	schemaName string
	schema     map[string]any
}

func specFor(v PromptVariant) variantSpec {
	if v == PromptClassic {
		return variantSpec{
			system:     classicInterpretationPrompt,
			userPrefix: "Find the perfect spirit animal for this personality:\n\n",
			schemaName: "spirit_animal_classic",
			schema:     classicInterpretationSchema,
		}
	}
	return variantSpec{
		system:     richInterpretationPrompt,
		userPrefix: "Interpret this personality and recommend a spirit animal:\n\n",
		schemaName: "spirit_animal_interpretation",
		schema:     richInterpretationSchema,
	}
}

// Interpret asks the LLM for a structured interpretation. A malformed or incomplete
// answer earns one re-ask with a stricter instruction; a second one is returned as a
// contract violation.
func (s *interpretService) Interpret(ctx context.Context, personalityText string, variant PromptVariant) (spirit.Interpretation, error) {
	if strings.TrimSpace(personalityText) == "" {
		return spirit.Interpretation{}, apierr.InvalidRequest("personality_text_required", errors.New("personality text is empty"))
	}
	if s.llm == nil {
		return spirit.Interpretation{}, apierr.Configuration("llm_not_configured", errors.New("no interpretation LLM configured"))
	}
	vs := specFor(variant)
	user := vs.userPrefix + personalityText

	out, err := s.attempt(ctx, vs, vs.system, user, variant)
	if err == nil || apierr.KindOf(err) != apierr.KindContractViolation {
		return out, err
	}
	s.log.Warn("Interpretation violated output contract, re-asking", "variant", variant, "code", apierr.CodeOf(err), "error", err)
	return s.attempt(ctx, vs, vs.system+strictInterpretationSuffix, user, variant)
}

func (s *interpretService) attempt(ctx context.Context, vs variantSpec, system, user string, variant PromptVariant) (spirit.Interpretation, error) {
	raw, err := s.llm.GenerateJSON(ctx, system, user, vs.schemaName, vs.schema)
	if err != nil {
		return spirit.Interpretation{}, err
	}
	return parseInterpretation(raw, variant)
}

func parseInterpretation(raw string, variant PromptVariant) (spirit.Interpretation, error) {
	cleaned := stripCodeFence(raw)
	if cleaned == "" {
		return spirit.Interpretation{}, apierr.ContractViolation("interpretation_empty", errors.New("interpretation response is empty"))
	}
	if !json.Valid([]byte(cleaned)) {
		repaired, rerr := jsonrepair.JSONRepair(cleaned)
		if rerr != nil {
			return spirit.Interpretation{}, apierr.ContractViolation("interpretation_unparseable", fmt.Errorf("repair interpretation json: %w", rerr))
		}
		cleaned = repaired
	}

	var out spirit.Interpretation
	switch variant {
	case PromptClassic:
		var a classicAnswer
		if err := json.Unmarshal([]byte(cleaned), &a); err != nil {
			return out, apierr.ContractViolation("interpretation_unparseable", fmt.Errorf("decode interpretation: %w", err))
		}
		out = spirit.Interpretation{
			SubjectLabel:     a.Animal,
			SubjectReasoning: a.AnimalReasoning,
			ArtMedium:        a.Medium,
			MediumReasoning:  a.MediumReasoning,
			ImagePrompt:      a.ImagePrompt,
		}
	default:
		var a richAnswer
		if err := json.Unmarshal([]byte(cleaned), &a); err != nil {
			return out, apierr.ContractViolation("interpretation_unparseable", fmt.Errorf("decode interpretation: %w", err))
		}
		out = spirit.Interpretation{
			SubjectLabel:     a.SpiritAnimal.Animal,
			SubjectReasoning: a.SpiritAnimal.Rationale,
			ArtMedium:        a.ArtisticMedium.Medium,
			MediumReasoning:  a.ArtisticMedium.Description,
			ImagePrompt:      a.ImagePrompt,
		}
	}
	out = trimInterpretation(out)

	if missing := out.MissingFields(); len(missing) > 0 {
		if variant == PromptClassic {
			for i, m := range missing {
				missing[i] = classicFieldNames[m]
			}
		}
		return spirit.Interpretation{}, apierr.ContractViolation(
			"interpretation_missing_fields",
			fmt.Errorf("interpretation missing required fields: %s", strings.Join(missing, ", ")),
		)
	}
	return out, nil
}

func trimInterpretation(i spirit.Interpretation) spirit.Interpretation {
	i.SubjectLabel = strings.TrimSpace(i.SubjectLabel)
	i.SubjectReasoning = strings.TrimSpace(i.SubjectReasoning)
	i.ArtMedium = strings.TrimSpace(i.ArtMedium)
	i.MediumReasoning = strings.TrimSpace(i.MediumReasoning)
	i.ImagePrompt = strings.TrimSpace(i.ImagePrompt)
	return i
}

func stripCodeFence(s string) string {
	s = strings.TrimSpace(s)
	if !strings.HasPrefix(s, "```") {
		return s
	}
	s = strings.TrimPrefix(s, "```")
	if nl := strings.IndexByte(s, '\n'); nl >= 0 {
		s = s[nl+1:]
	}
	s = strings.TrimSuffix(strings.TrimSpace(s), "```")
	return strings.TrimSpace(s)
}
