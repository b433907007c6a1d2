package subtitles

import (
	"errors"
	"fmt"
	"strings"
	"time"
	"unicode/utf8"
)

// Cue is one scene's caption window on the video timeline.
type Cue struct {
	Start time.Duration
	End   time.Duration
	Text  string
}

// Cues lays scene texts end to end using their display durations.
func Cues(texts []string, seconds []float64) []Cue {
	n := min(len(texts), len(seconds))
	out := make([]Cue, 0, n)
	var at time.Duration
	for i := 0; i < n; i++ {
		d := time.Duration(seconds[i] * float64(time.Second))
		out = append(out, Cue{Start: at, End: at + d, Text: texts[i]})
		at += d
	}
	return out
}

// RenderSceneASS renders karaoke-style captions for scene cues. Narration has
// no word timestamps, so each word gets a slice of its cue proportional to its
// length.
func RenderSceneASS(cues []Cue) (string, error) {
	var words []wword
	for _, c := range cues {
		words = append(words, spreadWords(c)...)
	}
	if len(words) == 0 {
		return "", errors.New("subtitles: no caption text")
	}
	return renderASSKaraoke(packWords(words)), nil
}

type wword struct {
	Start time.Duration
	End   time.Duration
	Text  string
	// Break forces a new line before this word (scene boundary).
	Break bool
}

type line struct {
	Start time.Duration
	End   time.Duration
	Words []wword
}

func spreadWords(c Cue) []wword {
	fields := strings.Fields(c.Text)
	if len(fields) == 0 || c.End <= c.Start {
		return nil
	}
	total := 0
	for _, f := range fields {
		total += utf8.RuneCountInString(f)
	}
	span := c.End - c.Start
	out := make([]wword, 0, len(fields))
	at := c.Start
	for i, f := range fields {
		d := span * time.Duration(utf8.RuneCountInString(f)) / time.Duration(total)
		end := at + d
		if i == len(fields)-1 {
			end = c.End
		}
		out = append(out, wword{Start: at, End: end, Text: sanitizeASS(f), Break: i == 0})
		at = end
	}
	return out
}

func packWords(words []wword) []line {
	var out []line
	cur := line{Start: words[0].Start}
	// Hard budgets keep lines readable at 720p regardless of sentence length.
	charBudget := 42
	wordBudget := 9
	curLen := 0
	for i, w := range words {
		wl := utf8.RuneCountInString(w.Text)
		nextLen := curLen
		if curLen > 0 {
			nextLen++
		}
		nextLen += wl
		if len(cur.Words) > 0 && (w.Break || len(cur.Words) >= wordBudget || nextLen > charBudget) {
			cur.End = cur.Words[len(cur.Words)-1].End
			out = append(out, cur)
			cur = line{Start: w.Start}
			curLen = 0
		}
		cur.Words = append(cur.Words, w)
		if curLen > 0 {
			curLen++
		}
		curLen += wl
		if i == len(words)-1 {
			cur.End = w.End
			out = append(out, cur)
		}
	}
	return out
}

func renderASSKaraoke(lines []line) string {
	var b strings.Builder
	b.WriteString(assHeader())
	b.WriteString("\n[Events]\n")
	b.WriteString("Format: Layer, Start, End, Style, Name, MarginL, MarginR, MarginV, Effect, Text\n")
	for _, ln := range lines {
		b.WriteString("Dialogue: 0,")
		b.WriteString(assTime(ln.Start))
		b.WriteString(",")
		b.WriteString(assTime(ln.End))
		b.WriteString(",Scene,,0,0,0,,")
		for _, w := range ln.Words {
			durCS := int((w.End - w.Start) / (10 * time.Millisecond))
			if durCS < 1 {
				durCS = 1
			}
			b.WriteString(fmt.Sprintf("{\\k%d}%s ", durCS, w.Text))
		}
		b.WriteString("\n")
	}
	return b.String()
}

func assHeader() string {
	return strings.TrimSpace(`
[Script Info]
ScriptType: v4.00+
PlayResX: 1280
PlayResY: 720
ScaledBorderAndShadow: yes

[V4+ Styles]
Format: Name, Fontname, Fontsize, PrimaryColour, SecondaryColour, OutlineColour, BackColour, Bold, Italic, Underline, StrikeOut, ScaleX, ScaleY, Spacing, Angle, BorderStyle, Outline, Shadow, Alignment, MarginL, MarginR, MarginV, Encoding
Style: Scene, Noto Sans, 44, &H00FFFFFF, &H0000D2FF, &H00000000, &H64000000, 1,0,0,0,100,100,0,0,1,4,1,2, 60,60,48,1
`)
}

func assTime(d time.Duration) string {
	if d < 0 {
		d = 0
	}
	hs := int(d / time.Hour)
	d -= time.Duration(hs) * time.Hour
	ms := int(d / time.Minute)
	d -= time.Duration(ms) * time.Minute
	s := int(d / time.Second)
	d -= time.Duration(s) * time.Second
	cs := int(d / (10 * time.Millisecond))
	return fmt.Sprintf("%d:%02d:%02d.%02d", hs, ms, s, cs)
}

func sanitizeASS(s string) string {
	s = strings.ReplaceAll(s, "\\", "\\\\")
	s = strings.ReplaceAll(s, "{", "(")
	s = strings.ReplaceAll(s, "}", ")")
	return strings.TrimSpace(s)
}
