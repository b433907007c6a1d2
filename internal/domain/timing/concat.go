package timing

import (
	"errors"
	"fmt"
	"path/filepath"
	"strings"
)

type Entry struct {
	Path    string
	Seconds float64
}

// ConcatScript renders an ffmpeg concat-demuxer script. The last file is
// listed once more without a duration, otherwise the demuxer drops the final
// frame's display time.
func ConcatScript(entries []Entry) (string, error) {
	if len(entries) == 0 {
		return "", errors.New("concat: no entries")
	}
	var b strings.Builder
	for _, e := range entries {
		if e.Seconds <= 0 {
			return "", fmt.Errorf("concat: non-positive duration %.2f for %s", e.Seconds, e.Path)
		}
		fmt.Fprintf(&b, "file '%s'\n", quoteConcatPath(e.Path))
		fmt.Fprintf(&b, "duration %.2f\n", e.Seconds)
	}
	fmt.Fprintf(&b, "file '%s'\n", quoteConcatPath(entries[len(entries)-1].Path))
	return b.String(), nil
}

func quoteConcatPath(p string) string {
	p = filepath.ToSlash(p)
	return strings.ReplaceAll(p, "'", `'\''`)
}
