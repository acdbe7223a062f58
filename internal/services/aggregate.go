package services

import (
	"fmt"
	"strings"
	"unicode/utf8"

	"github.com/yungbote/spiritanimal-backend/internal/domain/spirit"
)

const (
	maxAggregatedPosts = 10
	maxPostRunes       = 500
)

// AggregateSignals joins form answers and fetched social profiles into the text the
// summarization stage reads.
func AggregateSignals(form spirit.FormSignals, profiles []spirit.SocialProfile) string {
	lines := []string{
		"Name: " + orDefault(form.Name, "Anonymous"),
		"",
		"=== SELF-DESCRIBED INFORMATION ===",
		"Interests and hobbies: " + orDefault(form.Interests, "Not provided"),
		"Values: " + orDefault(form.Values, "Not provided"),
	}
	if len(profiles) > 0 {
		lines = append(lines, "", "=== SOCIAL MEDIA DATA ===")
		for _, p := range profiles {
			lines = append(lines, "", fmt.Sprintf("--- %s ---", strings.ToUpper(p.Platform)))
			if bio := strings.TrimSpace(p.Bio); bio != "" {
				lines = append(lines, "Bio: "+bio)
			}
			if len(p.Posts) == 0 {
				continue
			}
			lines = append(lines, "Recent posts/comments:")
			for i, post := range p.Posts {
				if i >= maxAggregatedPosts {
					break
				}
				lines = append(lines, fmt.Sprintf("  %d. %s", i+1, truncateRunes(post, maxPostRunes)))
			}
		}
	}
	return strings.Join(lines, "\n")
}

func orDefault(s, def string) string {
	if strings.TrimSpace(s) == "" {
		return def
	}
	return strings.TrimSpace(s)
}

func truncateRunes(s string, n int) string {
	if utf8.RuneCountInString(s) <= n {
		return s
	}
	r := []rune(s)
	return string(r[:n]) + "..."
}
