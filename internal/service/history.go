package service

import (
	"strings"
	"unicode/utf8"

	"github.com/Dhruvipatel1708/chatbot/internal/model"
)

const (
	// DefaultHistoryLimit is how many of the most recent turns reach the prompt.
	DefaultHistoryLimit = 12

	titleBudget   = 40
	previewBudget = 35
	ellipsis      = "..."
)

// Window returns the last limit turns in chronological order. Selection is
// positional only. The result never aliases turns.
func Window(turns []model.Turn, limit int) []model.Turn {
	if limit <= 0 {
		limit = DefaultHistoryLimit
	}
	start := 0
	if len(turns) > limit {
		start = len(turns) - limit
	}
	out := make([]model.Turn, len(turns)-start)
	copy(out, turns[start:])
	return out
}

// DeriveTitle turns the first user message into a session name of at most
// titleBudget runes, ellipsis included.
func DeriveTitle(text string) string {
	line := firstLine(text)
	if utf8.RuneCountInString(line) <= titleBudget {
		return line
	}
	return truncateRunes(line, titleBudget-len(ellipsis))
}

// Preview is the listing snippet of a session: its first user turn, or the
// default title when nobody has spoken yet.
func Preview(turns []model.Turn) string {
	first, ok := firstUserText(turns)
	if !ok {
		return model.DefaultTitle
	}
	return truncateRunes(firstLine(first), previewBudget)
}

func firstUserText(turns []model.Turn) (string, bool) {
	for _, t := range turns {
		if t.Role == model.RoleUser {
			return t.Content, true
		}
	}
	return "", false
}

func firstLine(text string) string {
	text = strings.TrimSpace(text)
	if i := strings.IndexAny(text, "\r\n"); i >= 0 {
		text = text[:i]
	}
	return strings.TrimSpace(text)
}

// truncateRunes cuts s to budget runes and marks the cut with an ellipsis.
func truncateRunes(s string, budget int) string {
	if utf8.RuneCountInString(s) <= budget {
		return s
	}
	return string([]rune(s)[:budget]) + ellipsis
}
