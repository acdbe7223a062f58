package services

import (
	"fmt"
	"strings"

	"github.com/yungbote/spiritanimal-backend/internal/domain/spirit"
)

const hintBlockHeader = "--- Additional Context (for interpretation guidance) ---"

// BuildInterpretationContext appends hint sentences for the known tags below the
// narrative. The narrative itself is never modified, and with no usable tags the
// result equals the narrative.
func BuildInterpretationContext(narrative string, tags spirit.CategoricalTags) string {
	tags = tags.Normalized()

	var hints []string
	if h, ok := EnergyHint(tags.EnergyMode); ok {
		hints = append(hints, "Energy style suggests: "+h)
	}
	if h, ok := SocialHint(tags.SocialPattern); ok {
		hints = append(hints, "Social preference suggests: "+h)
	}
	if h, ok := ElementHintFor(tags.ElementAffinity); ok {
		hints = append(hints, fmt.Sprintf("Element affinity (%s): palette of %s, mood is %s", tags.ElementAffinity, h.Palette, h.Mood))
	}
	if p, ok := PronounHint(tags.Pronouns); ok {
		hints = append(hints, "Pronouns: "+p)
	}
	if len(hints) == 0 {
		return narrative
	}

	var b strings.Builder
	b.WriteString(narrative)
	b.WriteString("\n\n\n")
	b.WriteString(hintBlockHeader)
	for _, h := range hints {
		b.WriteString("\n")
		b.WriteString(h)
	}
	return b.String()
}
