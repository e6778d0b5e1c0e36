package voice

import (
	"regexp"
	"strings"
	"unicode"
)

var (
	narrationFencedCodePattern   = regexp.MustCompile("(?s)```.*?```")
	narrationInlineCodePattern   = regexp.MustCompile("`[^`]*`")
	narrationMarkdownLinkPattern = regexp.MustCompile(`\[(.*?)\]\((.*?)\)`)
)

// SanitizeNarration strips markup noise from model text so the spoken
// narration sounds natural. GM output is markdown-prone (bold labels,
// option lists), but option parentheses must survive.
func SanitizeNarration(raw string) string {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return ""
	}

	raw = narrationFencedCodePattern.ReplaceAllString(raw, " ")
	raw = narrationInlineCodePattern.ReplaceAllString(raw, " ")
	raw = narrationMarkdownLinkPattern.ReplaceAllString(raw, "$1")

	// Emphasis markers hug the word they decorate, so they vanish without
	// leaving a gap; structural separators become spaces instead.
	raw = strings.NewReplacer(
		"*", "",
		"_", "",
		"#", "",
		"~", "",
		"|", " ",
		"<", " ",
		">", " ",
		"\\", " ",
	).Replace(raw)

	var b strings.Builder
	b.Grow(len(raw))
	prevSpace := true

	for _, r := range raw {
		switch {
		case r == '\u200d' || r == '\ufe0f' || r == '\u20e3':
			continue
		case unicode.IsSpace(r):
			if !prevSpace {
				b.WriteByte(' ')
				prevSpace = true
			}
		case unicode.IsControl(r):
			continue
		case unicode.In(r, unicode.So, unicode.Sm, unicode.Sk):
			// Emoji and symbol glyphs sound wrong when spoken.
			continue
		case isNarrationSafePunctuation(r):
			b.WriteRune(r)
			prevSpace = false
		case unicode.IsPunct(r):
			if !prevSpace {
				b.WriteByte(' ')
				prevSpace = true
			}
		default:
			b.WriteRune(r)
			prevSpace = false
		}
	}

	return strings.TrimSpace(b.String())
}

func isNarrationSafePunctuation(r rune) bool {
	switch r {
	case '.', ',', '!', '?', ':', ';', '\'', '"', '-', '(', ')':
		return true
	default:
		return false
	}
}
