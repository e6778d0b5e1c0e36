package transcript

import (
	"strings"
	"unicode"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"
)

// DefaultPlayerName is used when no name can be extracted from the history.
const DefaultPlayerName = "Lysandra_the_Adventurer"

var titleCaser = cases.Title(language.English)

// PlayerName derives a display name from the first user-authored turn.
// It looks for an introduction phrase ("my name is ...") and falls back
// to a short single-token opener; only the first user turn is consulted.
// Never returns an empty string.
func PlayerName(history []Turn) string {
	for _, t := range history {
		if t.Role != RoleUser {
			continue
		}
		content := strings.ToLower(t.Content)
		if _, after, ok := strings.Cut(content, "my name is"); ok {
			name, _, _ := strings.Cut(after, ",")
			name = strings.TrimSpace(name)
			if name != "" {
				return titleCaser.String(name)
			}
		}
		// A short opener like "Thorne" is taken as the player's name.
		parts := strings.Fields(content)
		if len(parts) > 0 && len(parts) <= 3 && isAlphabetic(parts[0]) {
			return titleCaser.String(parts[0])
		}
		break
	}
	return DefaultPlayerName
}

func isAlphabetic(s string) bool {
	if s == "" {
		return false
	}
	for _, r := range s {
		if !unicode.IsLetter(r) {
			return false
		}
	}
	return true
}
