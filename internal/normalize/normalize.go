// Package normalize cleans generated text before it is shown or stored.
//
// One policy is applied everywhere: line endings become "\n", runs of three or
// more newlines collapse to a single blank line, and surrounding whitespace is
// trimmed. Markup is left untouched and nothing is truncated.
package normalize

import (
	"regexp"
	"strings"
)

var excessNewlines = regexp.MustCompile(`\n{3,}`)

var lineEndings = strings.NewReplacer("\r\n", "\n", "\r", "\n")

// Clean applies the policy. Clean(Clean(x)) == Clean(x).
func Clean(raw string) string {
	s := lineEndings.Replace(raw)
	s = excessNewlines.ReplaceAllString(s, "\n\n")
	return strings.TrimSpace(s)
}
