package promptstyle

import "strings"

const marker = "SPIRIT_PROMPT_STYLE_V1"

// ApplySystem prepends a short guidance block to system prompts. Applying it twice is a no-op.
func ApplySystem(system string, mode string) string {
	base := strings.TrimSpace(system)
	if base == "" {
		return base
	}
	if strings.Contains(base, marker) {
		return base
	}
	mode = strings.ToLower(strings.TrimSpace(mode))

	var b strings.Builder
	b.WriteString(marker)
	b.WriteString("\nFollow the system and user instructions precisely.")
	b.WriteString("\nTreat the user's own words as the primary evidence; appended context is secondary.")
	if mode == "json" {
		b.WriteString("\nReturn a single JSON object that conforms to the requested structure, with no markdown fences and no extra keys.")
	} else {
		b.WriteString("\nReturn only the requested text, without preamble.")
	}
	b.WriteString("\n---\n")
	b.WriteString(base)
	return strings.TrimSpace(b.String())
}
