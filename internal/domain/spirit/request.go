package spirit

// FormSignals are the self-described answers from the onboarding form.
type FormSignals struct {
	Name      string `json:"name"`
	Interests string `json:"interests,omitempty"`
	Values    string `json:"values,omitempty"`
}

type SocialHandle struct {
	Platform string `json:"platform"`
	Handle   string `json:"handle"`
}

// SocialProfile is what a fetcher returns for one handle.
type SocialProfile struct {
	Platform string   `json:"platform"`
	Handle   string   `json:"handle"`
	Bio      string   `json:"bio,omitempty"`
	Posts    []string `json:"posts,omitempty"`
}

// V1Request drives aggregate, summarize, interpret, image.
type V1Request struct {
	Form          FormSignals
	SocialHandles []SocialHandle
	ImageProvider string
}

// V2Request drives context-build, interpret, image. An empty ImageProvider means the
// configured default.
type V2Request struct {
	PersonalitySummary string
	Tags               CategoricalTags
	ImageProvider      string
	SkipImage          bool
}
