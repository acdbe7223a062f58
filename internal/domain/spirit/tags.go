package spirit

import "strings"

type EnergyMode string

const (
	EnergyLeader   EnergyMode = "leader"
	EnergyAdapter  EnergyMode = "adapter"
	EnergyObserver EnergyMode = "observer"
)

type SocialPattern string

const (
	SocialSolitude    SocialPattern = "solitude"
	SocialCloseCircle SocialPattern = "close_circle"
	SocialCrowd       SocialPattern = "crowd"
)

type ElementAffinity string

const (
	ElementFire  ElementAffinity = "fire"
	ElementWater ElementAffinity = "water"
	ElementEarth ElementAffinity = "earth"
	ElementAir   ElementAffinity = "air"
)

// PronounsUnspecified is the sentinel the chat flow sends when the user skipped the question.
const PronounsUnspecified = "unspecified"

// CategoricalTags are optional hints gathered by the conversation. Values outside the
// documented sets are carried as-is and simply contribute nothing downstream.
type CategoricalTags struct {
	Pronouns        string          `json:"pronouns,omitempty" yaml:"pronouns"`
	EnergyMode      EnergyMode      `json:"energy_mode,omitempty" yaml:"energy_mode"`
	SocialPattern   SocialPattern   `json:"social_pattern,omitempty" yaml:"social_pattern"`
	ElementAffinity ElementAffinity `json:"element_affinity,omitempty" yaml:"element_affinity"`
}

// Normalized lowercases and trims every tag.
func (t CategoricalTags) Normalized() CategoricalTags {
	return CategoricalTags{
		Pronouns:        strings.TrimSpace(t.Pronouns),
		EnergyMode:      EnergyMode(norm(string(t.EnergyMode))),
		SocialPattern:   SocialPattern(norm(string(t.SocialPattern))),
		ElementAffinity: ElementAffinity(norm(string(t.ElementAffinity))),
	}
}

func norm(s string) string { return strings.ToLower(strings.TrimSpace(s)) }
