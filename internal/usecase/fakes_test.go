package usecase

import (
	"context"
	"errors"
	"fmt"
	"os"
	"strings"
	"sync"
	"time"

	"github.com/forPelevin/storyreel/internal/types"
)

type fakeStory struct {
	text string
	err  error
}

func (f fakeStory) WriteStory(_ context.Context, _ string) (string, error) {
	return f.text, f.err
}

// fakeImages fails every request whose prompt starts with one of the
// listed scene prefixes, and every fallback request when failFallback is set.
type fakeImages struct {
	mu           sync.Mutex
	failScenes   map[int]bool
	failFallback bool
	skipWrite    bool
	prompts      []string
}

func (f *fakeImages) GenerateImage(_ context.Context, prompt string, width, height int, outPath string) error {
	f.mu.Lock()
	f.prompts = append(f.prompts, prompt)
	f.mu.Unlock()

	if width != types.FrameWidth || height != types.FrameHeight {
		return fmt.Errorf("unexpected size %dx%d", width, height)
	}
	if strings.HasPrefix(prompt, "Generic cultural illustration") {
		if f.failFallback {
			return errors.New("fallback failed")
		}
	} else {
		for idx := range f.failScenes {
			if strings.HasPrefix(prompt, fmt.Sprintf("Scene %d:", idx)) {
				return errors.New("generator failed")
			}
		}
	}
	if f.skipWrite {
		return nil
	}
	return os.WriteFile(outPath, []byte("png"), 0o644)
}

func (f *fakeImages) promptCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.prompts)
}

type fakeSpeech struct {
	err     error
	voiceID string
	text    string
}

func (f *fakeSpeech) Synthesize(_ context.Context, text, voiceID, outPath string) error {
	if f.err != nil {
		return f.err
	}
	f.text = text
	f.voiceID = voiceID
	return os.WriteFile(outPath, []byte("mp3"), 0o644)
}

type fakeVideo struct {
	unavailable error
	renderErr   error
	probeErr    error
	audioDur    time.Duration

	timeline string
	burnASS  string
	renders  int
	// calls counts every method invocation.
	calls int
}

func (f *fakeVideo) Available(_ context.Context) error {
	f.calls++
	return f.unavailable
}

func (f *fakeVideo) RenderSlideshow(_ context.Context, timelinePath, _, outMP4, burnASS string) error {
	f.calls++
	f.renders++
	f.burnASS = burnASS
	b, err := os.ReadFile(timelinePath)
	if err != nil {
		return err
	}
	f.timeline = string(b)
	if f.renderErr != nil {
		return f.renderErr
	}
	return os.WriteFile(outMP4, []byte("mp4"), 0o644)
}

func (f *fakeVideo) ProbeDuration(_ context.Context, _ string) (time.Duration, error) {
	f.calls++
	if f.probeErr != nil {
		return 0, f.probeErr
	}
	return f.audioDur, nil
}

func (f *fakeVideo) Probe(_ context.Context, path string) (types.VideoInfo, error) {
	f.calls++
	return types.VideoInfo{
		Filename:   path,
		VideoCodec: "h264",
		AudioCodec: "aac",
		Width:      types.FrameWidth,
		Height:     types.FrameHeight,
	}, nil
}
