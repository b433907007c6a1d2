package timing

import (
	"strings"
	"unicode/utf8"
)

const (
	MinProportionalSec = 2.0
	MinHeuristicSec    = 3.0
	WordsPerSecond     = 2.0
)

type Mode string

const (
	ModeProportional Mode = "proportional"
	ModeHeuristic    Mode = "heuristic"
)

// Allocate picks proportional timing when the narration length is known and
// falls back to the word-count heuristic otherwise.
func Allocate(texts []string, totalSec float64) ([]float64, Mode) {
	if totalSec > 0 {
		return Proportional(texts, totalSec), ModeProportional
	}
	return Heuristic(texts), ModeHeuristic
}

// Proportional gives each scene its share of totalSec by trimmed text length,
// never less than MinProportionalSec. The floor can push the sum above
// totalSec; the muxer cuts at the shorter stream.
func Proportional(texts []string, totalSec float64) []float64 {
	if len(texts) == 0 {
		return nil
	}
	lens := make([]int, len(texts))
	sum := 0
	for i, t := range texts {
		lens[i] = utf8.RuneCountInString(strings.TrimSpace(t))
		sum += lens[i]
	}

	out := make([]float64, len(texts))
	for i := range texts {
		var share float64
		if sum == 0 {
			share = 1 / float64(len(texts))
		} else {
			share = float64(lens[i]) / float64(sum)
		}
		out[i] = max(MinProportionalSec, share*totalSec)
	}
	return out
}

// Heuristic estimates display time from word count at WordsPerSecond.
func Heuristic(texts []string) []float64 {
	out := make([]float64, len(texts))
	for i, t := range texts {
		words := len(strings.Fields(t))
		out[i] = max(MinHeuristicSec, float64(words)/WordsPerSecond)
	}
	return out
}

func Sum(ds []float64) float64 {
	var s float64
	for _, d := range ds {
		s += d
	}
	return s
}
