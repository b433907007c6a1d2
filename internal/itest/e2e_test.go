//go:build integration

package itest

import (
	"context"
	"fmt"
	"math"
	"os"
	"os/exec"
	"path/filepath"
	"testing"
	"time"

	"github.com/forPelevin/storyreel/internal/domain/subtitles"
	"github.com/forPelevin/storyreel/internal/domain/timing"
	"github.com/forPelevin/storyreel/internal/pipeline"
	"github.com/forPelevin/storyreel/internal/ports/adapters/ffmpeg"
	"github.com/forPelevin/storyreel/internal/usecase"
)

func TestAssembleSlideshow(t *testing.T) {
	tmp := t.TempDir()

	// Frames of different aspect ratios exercise the letterboxing.
	sizes := []string{"640x480", "1920x1080", "720x1280"}
	colors := []string{"red", "green", "blue"}
	var images []string
	for i := range sizes {
		p := filepath.Join(tmp, fmt.Sprintf("scene_%02d.png", i+1))
		ff := exec.Command("ffmpeg", "-y",
			"-f", "lavfi", "-i", fmt.Sprintf("color=c=%s:s=%s", colors[i], sizes[i]),
			"-frames:v", "1", p)
		if b, err := ff.CombinedOutput(); err != nil {
			t.Fatalf("ffmpeg image fixture failed: %v\n%s", err, string(b))
		}
		images = append(images, p)
	}

	audio := filepath.Join(tmp, "narration.mp3")
	ff := exec.Command("ffmpeg", "-y",
		"-f", "lavfi", "-i", "sine=frequency=440:duration=9",
		"-c:a", "libmp3lame", audio)
	if b, err := ff.CombinedOutput(); err != nil {
		t.Fatalf("ffmpeg audio fixture failed: %v\n%s", err, string(b))
	}

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Minute)
	defer cancel()

	v := ffmpeg.New("ffmpeg", "ffprobe")
	d, err := v.ProbeDuration(ctx, audio)
	if err != nil {
		t.Fatalf("probe audio: %v", err)
	}
	texts := []string{
		"Once there was a fox.",
		"It found a golden feather.",
		"It returned home proud.",
	}
	durations := timing.Proportional(texts, d.Seconds())

	ass, err := subtitles.RenderSceneASS(subtitles.Cues(texts, durations))
	if err != nil {
		t.Fatalf("captions: %v", err)
	}
	assPath := filepath.Join(tmp, "captions.ass")
	if err := os.WriteFile(assPath, []byte(ass), 0o644); err != nil {
		t.Fatalf("write captions: %v", err)
	}

	out := filepath.Join(tmp, "story_video.mp4")
	got, err := usecase.Assembler{Video: v, BurnASS: assPath}.Assemble(ctx, images, durations, audio, out)
	if err != nil {
		t.Fatalf("assemble: %v", err)
	}

	info, err := v.Probe(ctx, got)
	if err != nil {
		t.Fatalf("probe video: %v", err)
	}
	if info.Width != 1280 || info.Height != 720 {
		t.Fatalf("expected 1280x720, got %dx%d", info.Width, info.Height)
	}
	if info.VideoCodec != "h264" || info.AudioCodec != "aac" {
		t.Fatalf("unexpected codecs: %+v", info)
	}
	outDur, err := v.ProbeDuration(ctx, got)
	if err != nil {
		t.Fatalf("probe duration: %v", err)
	}
	limit := math.Max(timing.Sum(durations), d.Seconds())
	if sec := outDur.Seconds(); sec > limit+0.5 {
		t.Fatalf("video is %.2fs, longer than max(timeline, audio)=%.2fs", sec, limit)
	}
	if _, err := os.Stat(filepath.Join(tmp, "timeline.txt")); !os.IsNotExist(err) {
		t.Fatalf("timeline should be removed after render")
	}
}

func TestE2E(t *testing.T) {
	if os.Getenv("OPENROUTER_API_KEY") == "" || os.Getenv("ELEVENLABS_API_KEY") == "" {
		t.Skip("OPENROUTER_API_KEY and ELEVENLABS_API_KEY are required for the live pipeline")
	}

	outDir := filepath.Join(t.TempDir(), "out")
	ctx, cancel := context.WithTimeout(context.Background(), 15*time.Minute)
	defer cancel()

	cfg := pipeline.Config{
		OutDir:            outDir,
		FFmpegPath:        "ffmpeg",
		FFprobePath:       "ffprobe",
		OpenRouterAPIKey:  os.Getenv("OPENROUTER_API_KEY"),
		OpenRouterModel:   os.Getenv("OPENROUTER_MODEL"),
		OpenRouterBaseURL: os.Getenv("OPENROUTER_BASE_URL"),
		ElevenLabsAPIKey:  os.Getenv("ELEVENLABS_API_KEY"),
		ImageConcurrency:  2,
	}
	if err := cfg.Validate(); err != nil {
		t.Fatalf("config: %v", err)
	}

	res, err := pipeline.Run(ctx, cfg, pipeline.Request{Theme: "nature", Language: "English", Captions: true})
	if err != nil {
		t.Fatalf("pipeline failed: %v", err)
	}
	if _, err := os.Stat(filepath.Join(res.RunDir, "manifest.json")); err != nil {
		t.Fatalf("missing manifest: %v", err)
	}
	if res.Manifest.VideoInfo == nil || res.Manifest.VideoInfo.Width != 1280 {
		t.Fatalf("unexpected video info: %+v", res.Manifest.VideoInfo)
	}
}
