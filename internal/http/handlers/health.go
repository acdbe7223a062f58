package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
)

// CredentialStatus reports which optional integrations have credentials.
type CredentialStatus struct {
	OpenAI    bool `json:"openai_configured"`
	Gemini    bool `json:"gemini_configured"`
	Ideogram  bool `json:"ideogram_configured"`
	Twitter   bool `json:"twitter_configured"`
	ImageHost bool `json:"image_host_configured"`
}

type HealthHandler struct {
	status      CredentialStatus
	llmProvider string
}

func NewHealthHandler(status CredentialStatus, llmProvider string) *HealthHandler {
	return &HealthHandler{status: status, llmProvider: llmProvider}
}

// GET /
func (h *HealthHandler) Root(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"status": "ok", "message": "Spirit Animal API is running"})
}

// GET /api/health
func (h *HealthHandler) HealthCheck(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"status":                "healthy",
		"llm_provider":          h.llmProvider,
		"openai_configured":     h.status.OpenAI,
		"gemini_configured":     h.status.Gemini,
		"ideogram_configured":   h.status.Ideogram,
		"twitter_configured":    h.status.Twitter,
		"image_host_configured": h.status.ImageHost,
	})
}
