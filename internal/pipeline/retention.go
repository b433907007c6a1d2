package pipeline

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"time"
)

// runDirRE matches directory names produced by buildRunOutDir.
var runDirRE = regexp.MustCompile(`-\d{8}-\d{6}Z-[0-9a-f]{6}$`)

// Sweep removes run directories under root last modified before now-maxAge
// and returns the removed paths. Entries not shaped like run directories are
// left alone.
func Sweep(root string, maxAge time.Duration, now time.Time) ([]string, error) {
	if maxAge <= 0 {
		return nil, fmt.Errorf("max age must be > 0")
	}
	entries, err := os.ReadDir(root)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, nil
		}
		return nil, err
	}
	cutoff := now.Add(-maxAge)
	var removed []string
	var errs []error
	for _, e := range entries {
		if !e.IsDir() || !runDirRE.MatchString(e.Name()) {
			continue
		}
		info, err := e.Info()
		if err != nil {
			errs = append(errs, err)
			continue
		}
		if !info.ModTime().Before(cutoff) {
			continue
		}
		p := filepath.Join(root, e.Name())
		if err := os.RemoveAll(p); err != nil {
			errs = append(errs, err)
			continue
		}
		removed = append(removed, p)
	}
	return removed, errors.Join(errs...)
}
