// Package prompt renders the text prompt sent to the generation backend.
package prompt

import (
	_ "embed"
	"fmt"
	"os"
	"strings"
	"unicode/utf8"

	"gopkg.in/yaml.v3"

	"github.com/Dhruvipatel1708/chatbot/internal/model"
)

//go:embed tutor.yaml
var defaultTemplate []byte

// Template is the versioned instructional header and the role labels used
// when rendering history. It is configuration, never user input.
type Template struct {
	Version        string `yaml:"version"`
	Header         string `yaml:"header"`
	UserLabel      string `yaml:"user_label"`
	AssistantLabel string `yaml:"assistant_label"`
}

// Composer builds prompts from a Template.
type Composer struct {
	tmpl Template
	// maxChars caps the prompt length by dropping the oldest history turns.
	// Zero disables the cap.
	maxChars int
}

// Load reads a template from path, or the embedded tutor template when path is empty.
func Load(path string) (Template, error) {
	data := defaultTemplate
	if path != "" {
		b, err := os.ReadFile(path)
		if err != nil {
			return Template{}, fmt.Errorf("could not read prompt template: %w", err)
		}
		data = b
	}
	return Parse(data)
}

// Parse decodes a YAML template and fills in default role labels.
func Parse(data []byte) (Template, error) {
	var t Template
	if err := yaml.Unmarshal(data, &t); err != nil {
		return Template{}, fmt.Errorf("could not parse prompt template: %w", err)
	}
	if strings.TrimSpace(t.Header) == "" {
		return Template{}, fmt.Errorf("prompt template %q has an empty header", t.Version)
	}
	if t.Version == "" {
		return Template{}, fmt.Errorf("prompt template has no version")
	}
	if t.UserLabel == "" {
		t.UserLabel = "User"
	}
	if t.AssistantLabel == "" {
		t.AssistantLabel = "Assistant"
	}
	return t, nil
}

func NewComposer(tmpl Template, maxChars int) *Composer {
	return &Composer{tmpl: tmpl, maxChars: maxChars}
}

// Version identifies the header in logs.
func (c *Composer) Version() string { return c.tmpl.Version }

// Compose renders the header, then one "<Label>: <content>" line per history
// turn in order, then the new user turn and the assistant cue.
func (c *Composer) Compose(history []model.Turn, userText string) string {
	lines := make([]string, len(history))
	for i, t := range history {
		lines[i] = c.label(t.Role) + ": " + t.Content + "\n"
	}
	tail := "\n" + c.tmpl.UserLabel + ": " + userText + "\n" + c.tmpl.AssistantLabel + ":"
	head := strings.TrimRight(c.tmpl.Header, "\n") + "\n\n"

	if c.maxChars > 0 {
		size := utf8.RuneCountInString(head) + utf8.RuneCountInString(tail)
		for _, l := range lines {
			size += utf8.RuneCountInString(l)
		}
		for len(lines) > 0 && size > c.maxChars {
			size -= utf8.RuneCountInString(lines[0])
			lines = lines[1:]
		}
	}

	var b strings.Builder
	b.WriteString(head)
	for _, l := range lines {
		b.WriteString(l)
	}
	b.WriteString(tail)
	return b.String()
}

func (c *Composer) label(role string) string {
	if role == model.RoleUser {
		return c.tmpl.UserLabel
	}
	return c.tmpl.AssistantLabel
}
