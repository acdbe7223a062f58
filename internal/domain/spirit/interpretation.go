package spirit

import "strings"

// Interpretation is the structured output of the interpretation stage. All five fields
// are required and non-empty.
type Interpretation struct {
	SubjectLabel     string `json:"subject_label"`
	SubjectReasoning string `json:"subject_reasoning"`
	ArtMedium        string `json:"art_medium"`
	MediumReasoning  string `json:"medium_reasoning"`
	ImagePrompt      string `json:"image_prompt"`
}

// MissingFields lists the wire names of empty fields, in declaration order.
func (i Interpretation) MissingFields() []string {
	var missing []string
	check := func(name, v string) {
		if strings.TrimSpace(v) == "" {
			missing = append(missing, name)
		}
	}
	check("spiritAnimal.animal", i.SubjectLabel)
	check("spiritAnimal.rationale", i.SubjectReasoning)
	check("artisticMedium.medium", i.ArtMedium)
	check("artisticMedium.description", i.MediumReasoning)
	check("imagePrompt", i.ImagePrompt)
	return missing
}
