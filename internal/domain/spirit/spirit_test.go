package spirit

import "testing"

func TestParseImageProvider(t *testing.T) {
	cases := []struct {
		raw  string
		want ImageProvider
		ok   bool
	}{
		{raw: "openai", want: ImageProviderOpenAI, ok: true},
		{raw: " Gemini ", want: ImageProviderGemini, ok: true},
		{raw: "IDEOGRAM", want: ImageProviderIdeogram, ok: true},
		{raw: "none", want: ImageProviderNone, ok: true},
		{raw: "carrier_pigeon", want: ImageProvider("carrier_pigeon"), ok: false},
		{raw: "", want: ImageProvider(""), ok: false},
	}
	for _, tc := range cases {
		got, ok := ParseImageProvider(tc.raw)
		if got != tc.want || ok != tc.ok {
			t.Fatalf("ParseImageProvider(%q): want=(%q,%v) got=(%q,%v)", tc.raw, tc.want, tc.ok, got, ok)
		}
	}
	for _, p := range AllImageProviders() {
		if !p.Valid() {
			t.Fatalf("provider %q should be valid", p)
		}
	}
}

func TestImageResultRef(t *testing.T) {
	if Skipped(ImageProviderNone).Ref() != nil {
		t.Fatalf("skipped result must have a nil ref")
	}
	if Failed(ImageProviderOpenAI, "upstream_timeout", "slow").Ref() != nil {
		t.Fatalf("failed result must have a nil ref")
	}
	ref := Succeeded(ImageProviderOpenAI, "https://img.example/x.png").Ref()
	if ref == nil || *ref != "https://img.example/x.png" {
		t.Fatalf("succeeded ref: got=%v", ref)
	}
}

func TestInterpretationMissingFields(t *testing.T) {
	full := Interpretation{
		SubjectLabel:     "Otter",
		SubjectReasoning: "Playful and bonded.",
		ArtMedium:        "watercolor",
		MediumReasoning:  "Water affinity.",
		ImagePrompt:      "An otter, conceptual art",
	}
	if m := full.MissingFields(); len(m) != 0 {
		t.Fatalf("full interpretation: want no missing got=%v", m)
	}
	partial := full
	partial.ImagePrompt = "   "
	m := partial.MissingFields()
	if len(m) != 1 || m[0] != "imagePrompt" {
		t.Fatalf("missing: want=[imagePrompt] got=%v", m)
	}
}

func TestTagsNormalized(t *testing.T) {
	got := CategoricalTags{EnergyMode: " Leader", SocialPattern: "CLOSE_CIRCLE ", ElementAffinity: "Water"}.Normalized()
	if got.EnergyMode != EnergyLeader || got.SocialPattern != SocialCloseCircle || got.ElementAffinity != ElementWater {
		t.Fatalf("normalized: got=%+v", got)
	}
}
