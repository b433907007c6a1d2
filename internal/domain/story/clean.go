package story

import "strings"

// boilerplate lists preambles and outline headers small chat models tend to
// emit around the story body. Matching is exact and case-sensitive.
var boilerplate = []string{
	"Sure!",
	"I'd love to help you",
	"Here is an example",
	"1. Setting:",
	"2. Characters:",
	"3. Conflict:",
	"4. Resolution:",
}

// Clean strips generation artifacts from raw story text.
func Clean(raw string) string {
	if raw == "" {
		return ""
	}
	s := strings.TrimSpace(raw)
	for _, p := range boilerplate {
		s = strings.ReplaceAll(s, p, "")
	}
	return strings.TrimSpace(s)
}

var roleTags = []string{"assistant:", "user:"}

// Unwrap removes chat role tags some backends echo and folds whitespace,
// preserving paragraph breaks.
func Unwrap(raw string) string {
	s := raw
	for _, t := range roleTags {
		s = strings.ReplaceAll(s, t, "")
	}
	paras := strings.Split(strings.ReplaceAll(s, "\r\n", "\n"), "\n\n")
	out := make([]string, 0, len(paras))
	for _, p := range paras {
		if p = strings.Join(strings.Fields(p), " "); p != "" {
			out = append(out, p)
		}
	}
	return strings.Join(out, "\n\n")
}
