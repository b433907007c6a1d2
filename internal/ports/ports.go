package ports

import (
	"context"
	"time"

	"github.com/forPelevin/storyreel/internal/types"
)

// StoryWriter returns generated prose for a prompt.
type StoryWriter interface {
	WriteStory(ctx context.Context, prompt string) (string, error)
}

// ImageGenerator writes one image for prompt to outPath.
type ImageGenerator interface {
	GenerateImage(ctx context.Context, prompt string, width, height int, outPath string) error
}

// SpeechSynth writes narration audio for text to outPath.
type SpeechSynth interface {
	Synthesize(ctx context.Context, text, voiceID, outPath string) error
}

type VideoTool interface {
	Available(ctx context.Context) error
	// RenderSlideshow encodes a concat timeline over the audio track. burnASS
	// is an optional subtitle file drawn over the frames.
	RenderSlideshow(ctx context.Context, timelinePath, audioPath, outMP4 string, burnASS string) error
	ProbeDuration(ctx context.Context, path string) (time.Duration, error)
	Probe(ctx context.Context, path string) (types.VideoInfo, error)
}
