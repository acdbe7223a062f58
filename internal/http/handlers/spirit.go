package handlers

import (
	"errors"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/yungbote/spiritanimal-backend/internal/domain/spirit"
	"github.com/yungbote/spiritanimal-backend/internal/http/response"
	"github.com/yungbote/spiritanimal-backend/internal/platform/apierr"
	"github.com/yungbote/spiritanimal-backend/internal/platform/logger"
	"github.com/yungbote/spiritanimal-backend/internal/services"
)

type SpiritHandler struct {
	log      *logger.Logger
	pipeline services.PipelineService
}

func NewSpiritHandler(log *logger.Logger, pipeline services.PipelineService) *SpiritHandler {
	if log == nil {
		log = logger.Nop()
	}
	return &SpiritHandler{log: log.With("handler", "SpiritHandler"), pipeline: pipeline}
}

type socialHandleBody struct {
	Platform string `json:"platform"`
	Handle   string `json:"handle"`
}

type v1RequestBody struct {
	Name          string             `json:"name"`
	Interests     string             `json:"interests"`
	Values        string             `json:"values"`
	SocialHandles []socialHandleBody `json:"socialHandles"`
	ImageProvider string             `json:"image_provider"`
}

type v2RequestBody struct {
	PersonalitySummary string `json:"personality_summary"`
	Pronouns           string `json:"pronouns"`
	EnergyMode         string `json:"energy_mode"`
	SocialPattern      string `json:"social_pattern"`
	ElementAffinity    string `json:"element_affinity"`
	ImageProvider      string `json:"image_provider"`
	SkipImage          bool   `json:"skip_image"`
}

type spiritResponseBody struct {
	PersonalitySummary string   `json:"personality_summary"`
	SpiritAnimal       string   `json:"spirit_animal"`
	AnimalReasoning    string   `json:"animal_reasoning"`
	ArtMedium          string   `json:"art_medium"`
	MediumReasoning    string   `json:"medium_reasoning"`
	ImagePrompt        string   `json:"image_prompt,omitempty"`
	ImageURL           *string  `json:"image_url"`
	ImageProvider      string   `json:"image_provider"`
	ImageStatus        string   `json:"image_status"`
	Warnings           []string `json:"warnings,omitempty"`
}

func toResponseBody(r *spirit.PipelineResponse, withPrompt bool) spiritResponseBody {
	out := spiritResponseBody{
		PersonalitySummary: r.PersonalitySummary,
		SpiritAnimal:       r.Interpretation.SubjectLabel,
		AnimalReasoning:    r.Interpretation.SubjectReasoning,
		ArtMedium:          r.Interpretation.ArtMedium,
		MediumReasoning:    r.Interpretation.MediumReasoning,
		ImageURL:           r.Image.Ref(),
		ImageProvider:      string(r.Image.Provider),
		ImageStatus:        string(r.Image.Status),
		Warnings:           r.Warnings,
	}
	if withPrompt {
		out.ImagePrompt = r.Interpretation.ImagePrompt
	}
	return out
}

func bindJSON(c *gin.Context, dst any) error {
	if err := c.ShouldBindJSON(dst); err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			return apierr.InvalidRequest("request_too_large", err)
		}
		return apierr.InvalidRequest("invalid_json", err)
	}
	return nil
}

// POST /api/spirit-animal
func (h *SpiritHandler) GenerateV1(c *gin.Context) {
	var body v1RequestBody
	if err := bindJSON(c, &body); err != nil {
		response.RespondAPIError(c, err)
		return
	}
	if strings.TrimSpace(body.Name) == "" {
		response.RespondAPIError(c, apierr.InvalidRequest("name_required", errors.New("name is required")))
		return
	}
	req := spirit.V1Request{
		Form: spirit.FormSignals{
			Name:      strings.TrimSpace(body.Name),
			Interests: body.Interests,
			Values:    body.Values,
		},
		ImageProvider: body.ImageProvider,
	}
	for _, sh := range body.SocialHandles {
		if strings.TrimSpace(sh.Handle) == "" {
			continue
		}
		req.SocialHandles = append(req.SocialHandles, spirit.SocialHandle{Platform: sh.Platform, Handle: sh.Handle})
	}

	res, err := h.pipeline.RunV1(c.Request.Context(), req)
	if err != nil {
		h.log.Warn("Spirit animal generation failed", "variant", "v1", "kind", apierr.KindOf(err), "code", apierr.CodeOf(err), "error", err)
		response.RespondAPIError(c, err)
		return
	}
	response.RespondOK(c, toResponseBody(res, false))
}

// POST /api/v2/spirit-animal
func (h *SpiritHandler) GenerateV2(c *gin.Context) {
	var body v2RequestBody
	if err := bindJSON(c, &body); err != nil {
		response.RespondAPIError(c, err)
		return
	}
	req := spirit.V2Request{
		PersonalitySummary: body.PersonalitySummary,
		Tags: spirit.CategoricalTags{
			Pronouns:        body.Pronouns,
			EnergyMode:      spirit.EnergyMode(body.EnergyMode),
			SocialPattern:   spirit.SocialPattern(body.SocialPattern),
			ElementAffinity: spirit.ElementAffinity(body.ElementAffinity),
		},
		ImageProvider: body.ImageProvider,
		SkipImage:     body.SkipImage,
	}
	res, err := h.pipeline.RunV2(c.Request.Context(), req)
	if err != nil {
		h.log.Warn("Spirit animal generation failed", "variant", "v2", "kind", apierr.KindOf(err), "code", apierr.CodeOf(err), "error", err)
		response.RespondAPIError(c, err)
		return
	}
	response.RespondOK(c, toResponseBody(res, true))
}
