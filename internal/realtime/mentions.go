package realtime

import (
	"regexp"

	"github.com/yourorg/teamchat/realtime-service/internal/models"
)

var mentionPattern = regexp.MustCompile(`@(\w+)`)

// DetectMentions extracts @tokens from message text, duplicates collapsed,
// first-appearance order preserved.
func DetectMentions(text string) []string {
	matches := mentionPattern.FindAllStringSubmatch(text, -1)
	if len(matches) == 0 {
		return nil
	}
	seen := make(map[string]bool, len(matches))
	tokens := make([]string, 0, len(matches))
	for _, m := range matches {
		if !seen[m[1]] {
			seen[m[1]] = true
			tokens = append(tokens, m[1])
		}
	}
	return tokens
}

// ResolveMentions maps tokens to member user ids by username. Unresolved
// tokens are dropped silently.
func ResolveMentions(tokens []string, members []models.User) map[string]bool {
	resolved := make(map[string]bool)
	if len(tokens) == 0 {
		return resolved
	}
	byName := make(map[string]string, len(members))
	for _, m := range members {
		byName[m.Username] = m.ID
	}
	for _, tok := range tokens {
		if id, ok := byName[tok]; ok {
			resolved[id] = true
		}
	}
	return resolved
}
