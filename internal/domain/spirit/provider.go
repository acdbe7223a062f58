package spirit

import "strings"

// ImageProvider selects the image-generation backend. The set is closed: every switch
// over ImageProvider handles all values in AllImageProviders.
type ImageProvider string

const (
	ImageProviderOpenAI   ImageProvider = "openai"
	ImageProviderGemini   ImageProvider = "gemini"
	ImageProviderIdeogram ImageProvider = "ideogram"
	ImageProviderNone     ImageProvider = "none"
)

func AllImageProviders() []ImageProvider {
	return []ImageProvider{ImageProviderOpenAI, ImageProviderGemini, ImageProviderIdeogram, ImageProviderNone}
}

func (p ImageProvider) Valid() bool {
	switch p {
	case ImageProviderOpenAI, ImageProviderGemini, ImageProviderIdeogram, ImageProviderNone:
		return true
	default:
		return false
	}
}

func (p ImageProvider) String() string { return string(p) }

// ParseImageProvider normalizes case and whitespace. ok is false for values outside the
// documented set; the returned provider then carries the normalized raw value so errors
// can name it.
func ParseImageProvider(raw string) (ImageProvider, bool) {
	p := ImageProvider(strings.ToLower(strings.TrimSpace(raw)))
	return p, p.Valid()
}
