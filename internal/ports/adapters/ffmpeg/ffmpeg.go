package ffmpeg

import (
	"context"
	"encoding/json"
	"fmt"
	"math"
	"os"
	"os/exec"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/forPelevin/storyreel/internal/types"
)

const frameRate = "25"

type Adapter struct {
	ffmpeg  string
	ffprobe string
}

func New(ffmpegPath, ffprobePath string) *Adapter {
	if ffmpegPath == "" {
		ffmpegPath = "ffmpeg"
	}
	if ffprobePath == "" {
		ffprobePath = "ffprobe"
	}
	return &Adapter{ffmpeg: ffmpegPath, ffprobe: ffprobePath}
}

// Available reports whether both ffmpeg and ffprobe can be executed.
func (a *Adapter) Available(ctx context.Context) error {
	for _, bin := range []string{a.ffmpeg, a.ffprobe} {
		b, err := exec.CommandContext(ctx, bin, "-version").CombinedOutput()
		if err != nil {
			return fmt.Errorf("%s -version: %w\n%s", bin, err, truncate(string(b), 512))
		}
	}
	return nil
}

func (a *Adapter) RenderSlideshow(ctx context.Context, timelinePath, audioPath, outMP4 string, burnASS string) error {
	args := slideshowArgs(timelinePath, audioPath, outMP4, burnASS)
	cmd := exec.CommandContext(ctx, a.ffmpeg, args...)
	b, err := cmd.CombinedOutput()
	if err != nil {
		return fmt.Errorf("ffmpeg render slideshow: %w\n%s", err, string(b))
	}
	return nil
}

func slideshowArgs(timelinePath, audioPath, outMP4, burnASS string) []string {
	vf := fmt.Sprintf(
		"scale=%d:%d:force_original_aspect_ratio=decrease,pad=%d:%d:(ow-iw)/2:(oh-ih)/2",
		types.FrameWidth, types.FrameHeight, types.FrameWidth, types.FrameHeight,
	)
	if burnASS != "" {
		vf += ",subtitles=" + escapeFilterPath(burnASS)
	}
	return []string{
		"-y",
		"-f", "concat",
		"-safe", "0",
		"-i", timelinePath,
		"-i", audioPath,
		"-vf", vf,
		"-c:v", "libx264",
		"-preset", "veryfast",
		"-c:a", "aac",
		"-pix_fmt", "yuv420p",
		"-r", frameRate,
		"-shortest",
		outMP4,
	}
}

func (a *Adapter) ProbeDuration(ctx context.Context, path string) (time.Duration, error) {
	cmd := exec.CommandContext(ctx, a.ffprobe,
		"-v", "error",
		"-show_entries", "format=duration",
		"-of", "default=noprint_wrappers=1:nokey=1",
		path,
	)
	b, err := cmd.CombinedOutput()
	if err != nil {
		return 0, fmt.Errorf("ffprobe duration: %w\n%s", err, string(b))
	}
	s := strings.TrimSpace(string(b))
	sec, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return 0, fmt.Errorf("parse duration %q: %w", s, err)
	}
	return time.Duration(sec * float64(time.Second)), nil
}

// Probe reads container and stream details of a rendered video.
func (a *Adapter) Probe(ctx context.Context, path string) (types.VideoInfo, error) {
	cmd := exec.CommandContext(ctx, a.ffprobe,
		"-v", "quiet",
		"-print_format", "json",
		"-show_format",
		"-show_streams",
		path,
	)
	b, err := cmd.Output()
	if err != nil {
		return types.VideoInfo{}, fmt.Errorf("ffprobe info: %w", err)
	}
	info, err := parseProbe(b)
	if err != nil {
		return types.VideoInfo{}, err
	}
	info.Filename = filepath.Base(path)
	if st, err := os.Stat(path); err == nil {
		info.SizeMB = math.Round(float64(st.Size())/(1024*1024)*100) / 100
	}
	return info, nil
}

type probeOutput struct {
	Format struct {
		Duration string `json:"duration"`
	} `json:"format"`
	Streams []struct {
		CodecType string `json:"codec_type"`
		CodecName string `json:"codec_name"`
		Width     int    `json:"width"`
		Height    int    `json:"height"`
	} `json:"streams"`
}

func parseProbe(b []byte) (types.VideoInfo, error) {
	var p probeOutput
	if err := json.Unmarshal(b, &p); err != nil {
		return types.VideoInfo{}, fmt.Errorf("parse ffprobe json: %w", err)
	}
	var info types.VideoInfo
	if p.Format.Duration != "" {
		sec, err := strconv.ParseFloat(p.Format.Duration, 64)
		if err != nil {
			return types.VideoInfo{}, fmt.Errorf("parse duration %q: %w", p.Format.Duration, err)
		}
		info.Duration = math.Round(sec*100) / 100
	}
	for _, s := range p.Streams {
		switch s.CodecType {
		case "video":
			if info.VideoCodec == "" {
				info.VideoCodec = s.CodecName
				info.Width = s.Width
				info.Height = s.Height
			}
		case "audio":
			if info.AudioCodec == "" {
				info.AudioCodec = s.CodecName
			}
		}
	}
	return info, nil
}

func escapeFilterPath(p string) string {
	p = filepath.ToSlash(p)
	p = strings.ReplaceAll(p, "\\", "\\\\")
	p = strings.ReplaceAll(p, ":", "\\:")
	p = strings.ReplaceAll(p, "'", "\\'")
	return p
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n] + "..."
}
