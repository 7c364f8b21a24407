// Package textutil holds small pure helpers shared by the API handlers and
// the SEO layer: markdown reduction for previews, the remote-image host
// allow-list, and backend URL normalization.
package textutil

import (
	"regexp"
	"strings"
)

// Substitutions applied in order. Link unwrapping and tag stripping must run
// before whitespace collapse; the rest are independent.
var markdownRules = []struct {
	re   *regexp.Regexp
	repl string
}{
	{regexp.MustCompile(`!\[([^\]]*)\]\([^)]*\)`), "$1"},        // images -> alt text
	{regexp.MustCompile(`\[([^\]]*)\]\([^)]*\)`), "$1"},         // links -> link text
	{regexp.MustCompile(`<[^>]+>`), ""},                         // html tags
	{regexp.MustCompile("(?m)^```.*$"), ""},                     // code fences
	{regexp.MustCompile("`([^`]*)`"), "$1"},                     // inline code
	{regexp.MustCompile(`(\*{1,3})([^*]+)\*{1,3}`), "$2"},       // bold/italic (asterisk)
	{regexp.MustCompile(`(^|\s)(_{1,3})([^_]+)_{1,3}`), "$1$3"}, // bold/italic (underscore)
	{regexp.MustCompile(`(?m)^#{1,6}\s+`), ""},                  // headings
	{regexp.MustCompile(`(?m)^>\s?`), ""},                       // blockquotes
	{regexp.MustCompile(`(?m)^\s*([-*+]|\d+\.)\s+`), ""},        // list markers
	{regexp.MustCompile(`\s+`), " "},                            // collapse whitespace
}

// MarkdownToPlainText reduces markdown to a single-line plain-text string,
// suitable for meta descriptions and previews. Idempotent on plain text.
func MarkdownToPlainText(md string) string {
	out := md
	for _, rule := range markdownRules {
		out = rule.re.ReplaceAllString(out, rule.repl)
	}
	return strings.TrimSpace(out)
}

// Truncate shortens s to at most max runes, appending an ellipsis when cut.
func Truncate(s string, max int) string {
	if max <= 0 {
		return ""
	}
	runes := []rune(s)
	if len(runes) <= max {
		return s
	}
	return strings.TrimSpace(string(runes[:max])) + "…"
}
