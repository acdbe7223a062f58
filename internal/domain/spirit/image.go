package spirit

// ImageStatus separates a deliberate skip from a failed generation.
type ImageStatus string

const (
	ImageSkipped   ImageStatus = "skipped"
	ImageSucceeded ImageStatus = "succeeded"
	ImageFailed    ImageStatus = "failed"
)

// ImageResult is a tagged outcome. URL is set only when Status is ImageSucceeded.
type ImageResult struct {
	Status        ImageStatus
	Provider      ImageProvider
	URL           string
	FailureKind   string
	FailureReason string
}

func Skipped(p ImageProvider) ImageResult {
	return ImageResult{Status: ImageSkipped, Provider: p}
}

func Succeeded(p ImageProvider, url string) ImageResult {
	return ImageResult{Status: ImageSucceeded, Provider: p, URL: url}
}

func Failed(p ImageProvider, kind, reason string) ImageResult {
	return ImageResult{Status: ImageFailed, Provider: p, FailureKind: kind, FailureReason: reason}
}

// Ref is the nullable image reference returned to callers.
func (r ImageResult) Ref() *string {
	if r.Status != ImageSucceeded || r.URL == "" {
		return nil
	}
	u := r.URL
	return &u
}
