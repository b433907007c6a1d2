package story

import (
	"fmt"
	"regexp"
	"strings"
	"unicode/utf8"

	"github.com/neurosnap/sentences"
	"github.com/neurosnap/sentences/english"
	"go.uber.org/zap"

	"github.com/forPelevin/storyreel/internal/types"
)

// SentenceTokenizer splits text into sentences in reading order.
type SentenceTokenizer interface {
	Tokenize(text string) []string
}

type punktTokenizer struct {
	t *sentences.DefaultSentenceTokenizer
}

// NewPunktTokenizer loads the bundled English punkt model.
func NewPunktTokenizer() (SentenceTokenizer, error) {
	t, err := english.NewSentenceTokenizer(nil)
	if err != nil {
		return nil, fmt.Errorf("load punkt tokenizer: %w", err)
	}
	return punktTokenizer{t: t}, nil
}

func (p punktTokenizer) Tokenize(text string) []string {
	ss := p.t.Tokenize(text)
	out := make([]string, 0, len(ss))
	for _, s := range ss {
		out = append(out, s.Text)
	}
	return out
}

// terminatorRE matches a sentence terminator (Latin or Devanagari danda)
// followed by whitespace. The split point is right after the terminator.
var terminatorRE = regexp.MustCompile(`([.!?।])\s+`)

const minSceneRunes = 3

type Segmenter struct {
	tok SentenceTokenizer
	log *zap.Logger
}

func NewSegmenter(tok SentenceTokenizer, log *zap.Logger) *Segmenter {
	if log == nil {
		log = zap.NewNop()
	}
	return &Segmenter{tok: tok, log: log}
}

// Segment splits a cleaned story into scenes, one sentence per visual beat.
// When the tokenizer yields at most one scene (typically a script whose
// terminators it does not know), the text is re-split on punctuation.
func (s *Segmenter) Segment(text string) []types.Scene {
	text = strings.TrimSpace(text)
	if text == "" {
		s.log.Warn("empty story passed to segmenter")
		return nil
	}

	var parts []string
	if s.tok != nil {
		parts = keepScenes(s.tok.Tokenize(text))
	}
	if len(parts) <= 1 {
		parts = keepScenes(splitOnTerminators(text))
		s.log.Debug("tokenizer fallback", zap.Int("scenes", len(parts)))
	}

	out := make([]types.Scene, 0, len(parts))
	for i, p := range parts {
		out = append(out, types.Scene{Index: i + 1, Text: p})
	}
	s.log.Info("story split into scenes", zap.Int("scenes", len(out)))
	return out
}

func splitOnTerminators(text string) []string {
	var out []string
	last := 0
	for _, m := range terminatorRE.FindAllStringSubmatchIndex(text, -1) {
		// m[3] is the end of the terminator group.
		out = append(out, text[last:m[3]])
		last = m[1]
	}
	if last < len(text) {
		out = append(out, text[last:])
	}
	return out
}

func keepScenes(in []string) []string {
	out := make([]string, 0, len(in))
	for _, s := range in {
		s = strings.TrimSpace(s)
		if utf8.RuneCountInString(s) > minSceneRunes {
			out = append(out, s)
		}
	}
	return out
}
