package usecase

import (
	"context"
	"fmt"
	"os"
	"path/filepath"

	"go.uber.org/zap"

	"github.com/forPelevin/storyreel/internal/domain/timing"
	"github.com/forPelevin/storyreel/internal/ports"
)

const timelineName = "timeline.txt"

// Assembler muxes timed images and one narration track into a video.
type Assembler struct {
	Video ports.VideoTool
	// BurnASS is an optional caption file burned into the frames.
	BurnASS string
	Log     *zap.Logger
}

// Assemble writes the concat timeline next to out, renders it and returns
// out. images and durations must be index-aligned.
func (a Assembler) Assemble(ctx context.Context, images []string, durations []float64, audio, out string) (string, error) {
	log := a.Log
	if log == nil {
		log = zap.NewNop()
	}
	if err := a.Video.Available(ctx); err != nil {
		return "", fmt.Errorf("%w: %v", ErrToolUnavailable, err)
	}
	if len(images) != len(durations) {
		return "", fmt.Errorf("%w: %d images, %d durations", ErrLengthMismatch, len(images), len(durations))
	}

	var entries []timing.Entry
	for i, img := range images {
		st, err := os.Stat(img)
		if err != nil || st.IsDir() {
			log.Warn("skipping missing image", zap.String("image", img))
			continue
		}
		abs, err := filepath.Abs(img)
		if err != nil {
			return "", err
		}
		entries = append(entries, timing.Entry{Path: abs, Seconds: durations[i]})
	}
	if len(entries) == 0 {
		return "", ErrNoValidImages
	}
	if st, err := os.Stat(audio); err != nil || st.IsDir() {
		return "", fmt.Errorf("%w: %s", ErrNoValidAudio, audio)
	}

	script, err := timing.ConcatScript(entries)
	if err != nil {
		return "", err
	}
	timeline := filepath.Join(filepath.Dir(out), timelineName)
	if err := os.WriteFile(timeline, []byte(script), 0o644); err != nil {
		return "", fmt.Errorf("write timeline: %w", err)
	}

	log.Info("rendering slideshow",
		zap.Int("frames", len(entries)),
		zap.Float64("timeline_sec", timing.Sum(durationsOf(entries))),
		zap.String("out", out))
	if err := a.Video.RenderSlideshow(ctx, timeline, audio, out, a.BurnASS); err != nil {
		return "", err
	}
	if _, err := os.Stat(out); err != nil {
		return "", fmt.Errorf("rendered video missing: %w", err)
	}
	_ = os.Remove(timeline)
	return out, nil
}

func durationsOf(entries []timing.Entry) []float64 {
	out := make([]float64, len(entries))
	for i, e := range entries {
		out[i] = e.Seconds
	}
	return out
}
