package services

import (
	"strings"

	"github.com/yungbote/spiritanimal-backend/internal/domain/spirit"
)

// ElementHint is the artistic direction suggested by an element affinity.
type ElementHint struct {
	Palette        string
	Mood           string
	MediumAffinity []string
}

var energyHints = map[spirit.EnergyMode]string{
	spirit.EnergyLeader:   "Power & Leadership animals (Lion, Wolf, Eagle, Tiger, Bear)",
	spirit.EnergyAdapter:  "Grace & Intuition animals (Fox, Dolphin, Cat, Butterfly, Crane)",
	spirit.EnergyObserver: "Wisdom & Contemplation animals (Owl, Elephant, Whale, Raven, Turtle)",
}

var socialHints = map[spirit.SocialPattern]string{
	spirit.SocialSolitude:    "solitary or independent animals",
	spirit.SocialCloseCircle: "animals known for close family/pack bonds",
	spirit.SocialCrowd:       "social or community-oriented animals",
}

var elementHints = map[spirit.ElementAffinity]ElementHint{
	spirit.ElementFire: {
		Palette:        "warm oranges, reds, golds, dramatic lighting",
		Mood:           "passionate, transformative, intense, dynamic",
		MediumAffinity: []string{"oil paint with heavy impasto", "charcoal with dramatic contrast", "mixed media with metallic accents"},
	},
	spirit.ElementWater: {
		Palette:        "blues, teals, silvers, flowing gradients",
		Mood:           "deep, flowing, emotional, serene yet powerful",
		MediumAffinity: []string{"soft watercolor washes", "Japanese ink wash (sumi-e)", "fluid acrylics"},
	},
	spirit.ElementEarth: {
		Palette:        "browns, greens, ochre, natural earth tones",
		Mood:           "grounded, stable, nurturing, ancient",
		MediumAffinity: []string{"earth-toned oil painting", "woodcut or linocut print", "naturalistic illustration"},
	},
	spirit.ElementAir: {
		Palette:        "light blues, whites, lavender, ethereal highlights",
		Mood:           "free, light, intellectual, expansive",
		MediumAffinity: []string{"delicate pen and ink", "pastel with soft blending", "minimalist line art"},
	},
}

// EnergyHint names the animal category an energy mode leans toward.
func EnergyHint(m spirit.EnergyMode) (string, bool) {
	h, ok := energyHints[m]
	return h, ok
}

func SocialHint(p spirit.SocialPattern) (string, bool) {
	h, ok := socialHints[p]
	return h, ok
}

func ElementHintFor(e spirit.ElementAffinity) (ElementHint, bool) {
	h, ok := elementHints[e]
	if !ok {
		return ElementHint{}, false
	}
	h.MediumAffinity = append([]string(nil), h.MediumAffinity...)
	return h, true
}

// PronounHint carries pronouns as context only. Blank and "unspecified" contribute nothing.
func PronounHint(pronouns string) (string, bool) {
	p := strings.TrimSpace(pronouns)
	if p == "" || strings.EqualFold(p, spirit.PronounsUnspecified) {
		return "", false
	}
	return p, true
}
