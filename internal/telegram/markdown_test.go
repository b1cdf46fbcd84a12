package telegram_test

import (
	"strings"
	"testing"
	"unicode/utf8"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/nivaan/loanpilot/internal/telegram"
)

func TestSplitMessageShortTextUntouched(t *testing.T) {
	parts := telegram.SplitMessage("hello", 100)
	require.Len(t, parts, 1)
	assert.Equal(t, "hello", parts[0])
}

func TestSplitMessagePrefersNewlines(t *testing.T) {
	text := strings.Repeat("line one\nline two\n", 10)
	parts := telegram.SplitMessage(text, 50)

	assert.Equal(t, text, strings.Join(parts, ""))
	for i, p := range parts {
		assert.LessOrEqual(t, utf8.RuneCountInString(p), 50, "part %d", i)
		if i < len(parts)-1 {
			assert.True(t, strings.HasSuffix(p, "\n"), "part %d should break at a newline", i)
		}
	}
}

func TestSplitMessageMultiByteRuneBoundaries(t *testing.T) {
	// Rupee signs are three bytes each, so a byte-offset split would land
	// mid-character.
	text := strings.Repeat("₹₹₹₹₹ 1,00,000\n", 20)
	parts := telegram.SplitMessage(text, 40)

	assert.Equal(t, text, strings.Join(parts, ""))
	for i, p := range parts {
		assert.True(t, utf8.ValidString(p), "part %d split mid-rune", i)
		assert.LessOrEqual(t, utf8.RuneCountInString(p), 40, "part %d", i)
		if i < len(parts)-1 {
			assert.True(t, strings.HasSuffix(p, "\n"), "part %d should break at a newline", i)
		}
	}
}

func TestFixMarkdownClosesDanglingMarkers(t *testing.T) {
	assert.Equal(t, "some `code`", telegram.FixMarkdown("some `code"))
	assert.Equal(t, "*bold*", telegram.FixMarkdown("*bold"))
	assert.Equal(t, "balanced *bold* text", telegram.FixMarkdown("balanced *bold* text"))
	assert.True(t, strings.HasSuffix(telegram.FixMarkdown("```go\nfmt.Println()"), "```"))
}
