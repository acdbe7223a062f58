package services

import (
	"strings"
	"testing"

	"github.com/yungbote/spiritanimal-backend/internal/domain/spirit"
)

const sampleNarrative = "I adapt and find clever paths. I recharge with my close circle. I love long talks and discovering new music. I want to build something meaningful. I'm drawn to water."

func TestBuildInterpretationContextPreservesNarrative(t *testing.T) {
	energies := []spirit.EnergyMode{"", spirit.EnergyLeader, spirit.EnergyAdapter, spirit.EnergyObserver}
	socials := []spirit.SocialPattern{"", spirit.SocialSolitude, spirit.SocialCloseCircle, spirit.SocialCrowd}
	elements := []spirit.ElementAffinity{"", spirit.ElementFire, spirit.ElementWater, spirit.ElementEarth, spirit.ElementAir}
	pronouns := []string{"", spirit.PronounsUnspecified, "they/them"}

	for _, e := range energies {
		for _, s := range socials {
			for _, el := range elements {
				for _, p := range pronouns {
					tags := spirit.CategoricalTags{Pronouns: p, EnergyMode: e, SocialPattern: s, ElementAffinity: el}
					got := BuildInterpretationContext(sampleNarrative, tags)
					if !strings.HasPrefix(got, sampleNarrative) {
						t.Fatalf("tags=%+v: narrative not preserved as prefix: %q", tags, got)
					}
				}
			}
		}
	}
}

func TestBuildInterpretationContextOrder(t *testing.T) {
	got := BuildInterpretationContext(sampleNarrative, spirit.CategoricalTags{
		Pronouns:        "she/her",
		EnergyMode:      spirit.EnergyAdapter,
		SocialPattern:   spirit.SocialCloseCircle,
		ElementAffinity: spirit.ElementWater,
	})
	want := sampleNarrative + "\n\n\n" + hintBlockHeader +
		"\nEnergy style suggests: Grace & Intuition animals (Fox, Dolphin, Cat, Butterfly, Crane)" +
		"\nSocial preference suggests: animals known for close family/pack bonds" +
		"\nElement affinity (water): palette of blues, teals, silvers, flowing gradients, mood is deep, flowing, emotional, serene yet powerful" +
		"\nPronouns: she/her"
	if got != want {
		t.Fatalf("context:\nwant=%q\ngot=%q", want, got)
	}
}

func TestBuildInterpretationContextUnknownTags(t *testing.T) {
	cases := []spirit.CategoricalTags{
		{EnergyMode: "commander"},
		{SocialPattern: "hermit"},
		{ElementAffinity: "aether"},
		{Pronouns: "unspecified", EnergyMode: "x", SocialPattern: "y", ElementAffinity: "z"},
		{},
	}
	for _, tags := range cases {
		if got := BuildInterpretationContext(sampleNarrative, tags); got != sampleNarrative {
			t.Fatalf("tags=%+v: want narrative unchanged, got=%q", tags, got)
		}
	}
}

func TestBuildInterpretationContextNormalizesTags(t *testing.T) {
	got := BuildInterpretationContext("n", spirit.CategoricalTags{EnergyMode: " LEADER "})
	if !strings.Contains(got, "Power & Leadership") {
		t.Fatalf("want leader hint, got=%q", got)
	}
}

func TestElementHintForCopiesAffinity(t *testing.T) {
	h, ok := ElementHintFor(spirit.ElementFire)
	if !ok || len(h.MediumAffinity) != 3 {
		t.Fatalf("fire hint: got=%+v ok=%v", h, ok)
	}
	h.MediumAffinity[0] = "mutated"
	again, _ := ElementHintFor(spirit.ElementFire)
	if again.MediumAffinity[0] == "mutated" {
		t.Fatalf("hint table must not be mutable through returned slices")
	}
}
