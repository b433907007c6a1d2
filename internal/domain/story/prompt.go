package story

import (
	"fmt"
	"strings"
	"unicode"
)

const (
	maxPromptRunes = 500

	// DefaultSceneSuffix is appended to every scene prompt.
	DefaultSceneSuffix = ". Cultural theme: Indian, art style: storybook illustration, high quality."

	DefaultStyle  = "storybook illustration"
	FallbackStyle = "simple illustration"
)

// Styled adds the art style and quality hints sent with every image request.
func Styled(prompt, style string) string {
	if style == "" {
		style = DefaultStyle
	}
	return fmt.Sprintf("%s, %s art style, detailed, high quality", prompt, style)
}

// BuildScenePrompt turns a scene into a single-line image prompt.
func BuildScenePrompt(text string, index int, suffix string) string {
	return fmt.Sprintf("Scene %d: %s%s", index, Sanitize(text), suffix)
}

// FallbackPrompt is used when a scene prompt fails to produce an image.
// It carries no scene content.
func FallbackPrompt(culture string) string {
	return strings.TrimSpace("Generic cultural illustration " + culture)
}

// Sanitize keeps ASCII letters, digits, whitespace and , . ' - only, caps the
// result at 500 characters and folds whitespace runs into single spaces.
func Sanitize(text string) string {
	var b strings.Builder
	n := 0
	for _, r := range text {
		if !promptRune(r) {
			continue
		}
		if n == maxPromptRunes {
			break
		}
		b.WriteRune(r)
		n++
	}
	return strings.Join(strings.Fields(b.String()), " ")
}

func promptRune(r rune) bool {
	switch {
	case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r >= '0' && r <= '9':
		return true
	case r == ',', r == '.', r == '\'', r == '-':
		return true
	default:
		return unicode.IsSpace(r)
	}
}
