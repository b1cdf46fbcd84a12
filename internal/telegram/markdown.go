package telegram

import (
	"strings"
	"unicode/utf8"
)

// SplitMessage splits a message into chunks of maxLen characters, preferring
// newline boundaries so amortization summaries don't break mid-row.
func SplitMessage(text string, maxLen int) []string {
	if utf8.RuneCountInString(text) <= maxLen {
		return []string{text}
	}

	var parts []string
	for len(text) > 0 {
		if utf8.RuneCountInString(text) <= maxLen {
			parts = append(parts, text)
			break
		}

		runes := []rune(text)
		splitAt := maxLen

		// Search in rune space; byte offsets would land mid-character in
		// multi-byte text.
		for j := maxLen - 1; j > maxLen/2; j-- {
			if runes[j] == '\n' {
				splitAt = j + 1
				break
			}
		}

		parts = append(parts, string(runes[:splitAt]))
		text = string(runes[splitAt:])
	}

	return parts
}

// FixMarkdown closes unbalanced formatting so Telegram doesn't reject the
// message. Retrieval answers occasionally arrive with stray backticks or a
// dangling bold marker.
func FixMarkdown(text string) string {
	if strings.Count(text, "```")%2 != 0 {
		text += "\n```"
	}
	text = closeInline(text, '`')
	text = closeInline(text, '*')
	return text
}

func closeInline(text string, marker rune) string {
	var b strings.Builder
	inCodeBlock := false
	open := false

	runes := []rune(text)
	for i := 0; i < len(runes); i++ {
		if i+2 < len(runes) && string(runes[i:i+3]) == "```" {
			if open {
				b.WriteRune(marker)
				open = false
			}
			inCodeBlock = !inCodeBlock
			b.WriteString("```")
			i += 2
			continue
		}
		if !inCodeBlock && runes[i] == marker {
			open = !open
		}
		b.WriteRune(runes[i])
	}

	if open {
		b.WriteRune(marker)
	}
	return b.String()
}
