package voice

import (
	"sort"
	"strings"
)

// Table maps a narration language (or regional accent) to a speech voice id.
type Table map[string]string

const defaultLanguage = "English"

func DefaultTable() Table {
	return Table{
		"English":       "1qEiC6qsybMkmnNdVMbK",
		"Hindi":         "1qEiC6qsybMkmnNdVMbK",
		"Hindi-North":   "vT0wMbLG5dssaBsksrb6",
		"Hindi-South":   "izSi63MW0URDnszWlZMX",
		"Hindi-West":    "E2bgV4fdtiboH3Y1CEuQ",
		"Hindi-East":    "1qEiC6qsybMkmnNdVMbK",
		"Hindi-Central": "1qEiC6qsybMkmnNdVMbK",
	}
}

var regionalAccents = map[string]string{
	"Punjabi":    "Hindi-North",
	"Bengali":    "Hindi-East",
	"Marathi":    "Hindi-West",
	"Tamil":      "Hindi-South",
	"Telugu":     "Hindi-South",
	"Gujarati":   "Hindi-West",
	"Rajasthani": "Hindi-North",
	"Bihari":     "Hindi-East",
}

// DetectAccent picks a regional Hindi accent from culture and region.
// Non-Indian cultures narrate in English.
func DetectAccent(culture, region string) string {
	if culture == "" || !strings.Contains(culture, "Indian") {
		return defaultLanguage
	}
	if a, ok := regionalAccents[region]; ok {
		return a
	}

	lower := strings.ToLower(culture)
	keys := make([]string, 0, len(regionalAccents))
	for k := range regionalAccents {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	for _, k := range keys {
		if strings.Contains(lower, strings.ToLower(k)) {
			return regionalAccents[k]
		}
	}
	return "Hindi"
}

// Resolve returns the voice key and id for a narration request. Hindi
// requests go through accent detection; unknown keys use the English voice.
func (t Table) Resolve(language, culture, region string) (string, string) {
	key := strings.TrimSpace(language)
	if key == "" {
		key = defaultLanguage
	}
	if strings.Contains(key, "Hindi") {
		if culture == "" {
			culture = "Indian"
		}
		key = DetectAccent(culture, region)
	}
	if id, ok := t[key]; ok {
		return key, id
	}
	return defaultLanguage, t[defaultLanguage]
}

// ResolveAccent ignores the requested language and narrates with the accent
// detected from culture and region.
func (t Table) ResolveAccent(culture, region string) (string, string) {
	key := DetectAccent(culture, region)
	if id, ok := t[key]; ok {
		return key, id
	}
	return defaultLanguage, t[defaultLanguage]
}

func (t Table) Languages() []string {
	out := make([]string, 0, len(t))
	for k := range t {
		out = append(out, k)
	}
	sort.Strings(out)
	return out
}
