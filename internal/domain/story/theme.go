package story

import (
	"fmt"
	"sort"
	"strings"
)

type Theme struct {
	Key         string `json:"key"`
	Description string `json:"description"`
}

var themes = map[string]string{
	"folklore":  "Traditional folk tales and legends",
	"mythology": "Ancient myths and divine stories",
	"festivals": "Cultural celebrations and traditions",
	"heroes":    "Cultural heroes and legendary figures",
	"wisdom":    "Traditional wisdom and moral tales",
	"nature":    "Stories about nature and animals",
	"family":    "Family values and relationships",
	"adventure": "Cultural adventures and journeys",
}

const DefaultTheme = "folklore"

// Themes returns the catalogue sorted by key.
func Themes() []Theme {
	out := make([]Theme, 0, len(themes))
	for k, d := range themes {
		out = append(out, Theme{Key: k, Description: d})
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Key < out[j].Key })
	return out
}

func IsTheme(key string) bool {
	_, ok := themes[strings.ToLower(strings.TrimSpace(key))]
	return ok
}

// ThemeSubject describes what a themed story should be about.
func ThemeSubject(theme, culture string) string {
	theme = strings.ToLower(strings.TrimSpace(theme))
	if theme == "" {
		theme = DefaultTheme
	}
	culture = strings.TrimSpace(culture)
	if culture == "" {
		culture = "Indian"
	}
	return fmt.Sprintf(
		"a short and captivating %s story with %s cultural details. "+
			"Include characters, vivid descriptions, and a complete narrative with cultural elements",
		theme, culture,
	)
}

// StoryPrompt wraps a subject in the instructions sent to the text generator.
func StoryPrompt(subject string) string {
	subject = strings.TrimSuffix(strings.TrimSpace(subject), ".")
	return "Write a short story about " + subject + ".\n\n" +
		"Structure the story into 3-4 short paragraphs:\n" +
		"1. Beginning: Introduce setting and characters.\n" +
		"2. Middle: Describe the main conflict or event.\n" +
		"3. Ending: Provide a resolution and conclusion.\n\n" +
		"Make it vivid, easy to follow, and entertaining."
}
