package spirit

// PipelineResponse is assembled by the orchestrator for both request variants.
type PipelineResponse struct {
	PersonalitySummary string
	Interpretation     Interpretation
	Image              ImageResult
	Warnings           []string
}
