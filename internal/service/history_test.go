package service

import (
	"fmt"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Dhruvipatel1708/chatbot/internal/model"
)

func makeTurns(n int) []model.Turn {
	turns := make([]model.Turn, n)
	base := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	for i := range turns {
		role := model.RoleUser
		if i%2 == 1 {
			role = model.RoleAssistant
		}
		turns[i] = model.Turn{ID: fmt.Sprint(i), Role: role, Content: fmt.Sprintf("turn-%02d", i), Timestamp: base.Add(time.Duration(i) * time.Second)}
	}
	return turns
}

func TestWindow(t *testing.T) {
	t.Run("More turns than the limit keeps the last 12 in order", func(t *testing.T) {
		for _, n := range []int{13, 20, 101} {
			turns := makeTurns(n)
			got := Window(turns, 12)
			require.Len(t, got, 12)
			assert.Equal(t, turns[n-12:], got)
		}
	})

	t.Run("Fewer turns than the limit returns all", func(t *testing.T) {
		turns := makeTurns(5)
		assert.Equal(t, turns, Window(turns, 12))
	})

	t.Run("No turns returns an empty window", func(t *testing.T) {
		got := Window(nil, 12)
		assert.NotNil(t, got)
		assert.Empty(t, got)
	})

	t.Run("Non-positive limit falls back to the default", func(t *testing.T) {
		assert.Len(t, Window(makeTurns(30), 0), DefaultHistoryLimit)
		assert.Len(t, Window(makeTurns(30), -3), DefaultHistoryLimit)
	})

	t.Run("Result does not alias the input", func(t *testing.T) {
		turns := makeTurns(3)
		got := Window(turns, 12)
		got[0].Content = "changed"
		assert.Equal(t, "turn-00", turns[0].Content)
	})
}

func TestDeriveTitle(t *testing.T) {
	exactly40 := strings.Repeat("a", 40)

	testCases := []struct {
		name     string
		input    string
		expected string
	}{
		{"Short text is kept", "What is a stack?", "What is a stack?"},
		{"Only the first line is used", "  Explain recursion\nwith an example", "Explain recursion"},
		{"CRLF line break", "Line one\r\nLine two", "Line one"},
		{"Exactly at budget", exactly40, exactly40},
		{"Over budget is truncated with ellipsis", strings.Repeat("b", 41), strings.Repeat("b", 37) + "..."},
		{"Runes are counted, not bytes", strings.Repeat("é", 45), strings.Repeat("é", 37) + "..."},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			got := DeriveTitle(tc.input)
			assert.Equal(t, tc.expected, got)
			assert.LessOrEqual(t, len([]rune(got)), 40)
		})
	}
}

func TestPreview(t *testing.T) {
	t.Run("No user turn shows the default title", func(t *testing.T) {
		assert.Equal(t, model.DefaultTitle, Preview(nil))
		assert.Equal(t, model.DefaultTitle, Preview([]model.Turn{{Role: model.RoleAssistant, Content: "hi"}}))
	})

	t.Run("First user turn is used", func(t *testing.T) {
		turns := []model.Turn{
			{Role: model.RoleAssistant, Content: "Welcome"},
			{Role: model.RoleUser, Content: "What is a heap?\nAnd a tree?"},
			{Role: model.RoleUser, Content: "Second question"},
		}
		assert.Equal(t, "What is a heap?", Preview(turns))
	})

	t.Run("Long preview is cut at 35 runes", func(t *testing.T) {
		turns := []model.Turn{{Role: model.RoleUser, Content: strings.Repeat("x", 50)}}
		assert.Equal(t, strings.Repeat("x", 35)+"...", Preview(turns))
	})
}
