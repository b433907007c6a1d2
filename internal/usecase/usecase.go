package usecase

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/forPelevin/storyreel/internal/domain/story"
	"github.com/forPelevin/storyreel/internal/domain/subtitles"
	"github.com/forPelevin/storyreel/internal/domain/timing"
	"github.com/forPelevin/storyreel/internal/domain/voice"
	"github.com/forPelevin/storyreel/internal/ports"
	"github.com/forPelevin/storyreel/internal/types"
)

const (
	framesDir     = "frames"
	narrationName = "narration.mp3"
	captionsName  = "captions.ass"
	videoName     = "story_video.mp4"
	coverName     = "cover.png"
)

type Deps struct {
	Story     ports.StoryWriter
	Images    ports.ImageGenerator
	Speech    ports.SpeechSynth
	Video     ports.VideoTool
	Segmenter *story.Segmenter
	Log       *zap.Logger
}

type Options struct {
	Voices           voice.Table
	SceneSuffix      string
	ImageStyle       string
	ImageConcurrency int
	ImageInterval    time.Duration
}

type Usecase struct {
	d    Deps
	opts Options
}

func New(d Deps, opts Options) Usecase {
	if d.Log == nil {
		d.Log = zap.NewNop()
	}
	if d.Segmenter == nil {
		d.Segmenter = story.NewSegmenter(nil, d.Log)
	}
	if opts.Voices == nil {
		opts.Voices = voice.DefaultTable()
	}
	return Usecase{d: d, opts: opts}
}

type Input struct {
	RequestID string
	// Prompt is a free-form story subject; when empty the theme picks one.
	Prompt   string
	Theme    string
	Culture  string
	Region   string
	Language string
	// RegionalAccent narrates with the accent detected from Culture and
	// Region instead of the requested Language.
	RegionalAccent bool
	Captions       bool
	OutDir         string
}

type Result struct {
	Manifest types.Manifest
}

func (u Usecase) Run(ctx context.Context, in Input) (Result, error) {
	log := u.d.Log.With(zap.String("request_id", in.RequestID))

	if err := u.d.Video.Available(ctx); err != nil {
		return Result{}, fmt.Errorf("%w: %v", ErrToolUnavailable, err)
	}

	text, err := u.writeStory(ctx, log, in)
	if err != nil {
		return Result{}, err
	}

	scenes := u.d.Segmenter.Segment(text)
	if len(scenes) == 0 {
		return Result{}, ErrNoScenes
	}
	log.Info("story segmented", zap.Int("scenes", len(scenes)))

	mres, err := u.materializer(in, log).Materialize(ctx, scenes, filepath.Join(in.OutDir, framesDir))
	if err != nil {
		return Result{}, fmt.Errorf("materialize frames: %w", err)
	}
	if len(mres.Frames) == 0 {
		return Result{}, ErrNoValidImages
	}

	voiceKey, audio, err := u.narrate(ctx, log, in, text)
	if err != nil {
		return Result{}, err
	}
	if d, err := u.d.Video.ProbeDuration(ctx, audio.Path); err != nil {
		log.Warn("narration duration unknown, using heuristic timing", zap.Error(err))
	} else {
		audio.Duration = d
	}

	// Only scenes that produced a frame are timed.
	sceneText := make(map[int]string, len(scenes))
	for _, sc := range scenes {
		sceneText[sc.Index] = sc.Text
	}
	texts := make([]string, len(mres.Frames))
	images := make([]string, len(mres.Frames))
	for i, f := range mres.Frames {
		texts[i] = sceneText[f.SceneIndex]
		images[i] = f.Path
	}
	durations, mode := timing.Allocate(texts, audio.Duration.Seconds())

	asm := Assembler{Video: u.d.Video, Log: log}
	var captions string
	if in.Captions {
		ass, err := subtitles.RenderSceneASS(subtitles.Cues(texts, durations))
		if err != nil {
			return Result{}, fmt.Errorf("render captions: %w", err)
		}
		asm.BurnASS = filepath.Join(in.OutDir, captionsName)
		if err := os.WriteFile(asm.BurnASS, []byte(ass), 0o644); err != nil {
			return Result{}, err
		}
		captions = captionsName
	}

	out, err := asm.Assemble(ctx, images, durations, audio.Path, filepath.Join(in.OutDir, videoName))
	if err != nil {
		return Result{}, fmt.Errorf("assemble video: %w", err)
	}

	m := types.Manifest{
		RequestID:     in.RequestID,
		Mode:          types.ModeVideo,
		Prompt:        in.Prompt,
		Culture:       in.Culture,
		Region:        in.Region,
		Theme:         in.Theme,
		Language:      voiceKey,
		VoiceID:       audio.VoiceID,
		Story:         text,
		Scenes:        scenes,
		DroppedScenes: mres.Failed,
		Degraded:      len(mres.Failed) > 0,
		AudioFile:     narrationName,
		AudioSec:      audio.Duration.Seconds(),
		TimingMode:    string(mode),
		VideoFile:     videoName,
		Captions:      captions,
		CreatedAt:     time.Now().UTC(),
	}
	if m.DroppedScenes == nil {
		m.DroppedScenes = []int{}
	}
	for i, f := range mres.Frames {
		m.Frames = append(m.Frames, types.ManifestFrame{
			SceneIndex: f.SceneIndex,
			File:       filepath.ToSlash(filepath.Join(framesDir, filepath.Base(f.Path))),
			Seconds:    durations[i],
			Fallback:   f.Fallback,
		})
	}
	if info, err := u.d.Video.Probe(ctx, out); err != nil {
		log.Warn("probe output failed", zap.Error(err))
	} else {
		m.VideoInfo = &info
	}
	if m.Degraded {
		log.Warn("video rendered with dropped scenes", zap.Ints("dropped_scenes", m.DroppedScenes))
	}
	return Result{Manifest: m}, nil
}

// RunStory writes and narrates a story with one cover image. It never touches
// the video tool. A cover that fails both prompts degrades the result.
func (u Usecase) RunStory(ctx context.Context, in Input) (Result, error) {
	log := u.d.Log.With(zap.String("request_id", in.RequestID))

	text, err := u.writeStory(ctx, log, in)
	if err != nil {
		return Result{}, err
	}

	cover, err := u.materializer(in, log).Cover(ctx, text, filepath.Join(in.OutDir, coverName))
	if err != nil {
		return Result{}, fmt.Errorf("cover image: %w", err)
	}

	voiceKey, audio, err := u.narrate(ctx, log, in, text)
	if err != nil {
		return Result{}, err
	}

	m := types.Manifest{
		RequestID:     in.RequestID,
		Mode:          types.ModeStory,
		Prompt:        in.Prompt,
		Culture:       in.Culture,
		Region:        in.Region,
		Theme:         in.Theme,
		Language:      voiceKey,
		VoiceID:       audio.VoiceID,
		Story:         text,
		Scenes:        []types.Scene{},
		Frames:        []types.ManifestFrame{},
		DroppedScenes: []int{},
		AudioFile:     narrationName,
		CreatedAt:     time.Now().UTC(),
	}
	if cover == nil {
		m.Degraded = true
		m.DroppedScenes = []int{1}
		log.Warn("story rendered without a cover image")
	} else {
		m.Frames = append(m.Frames, types.ManifestFrame{
			SceneIndex: cover.SceneIndex,
			File:       coverName,
			Fallback:   cover.Fallback,
		})
	}
	return Result{Manifest: m}, nil
}

func (u Usecase) writeStory(ctx context.Context, log *zap.Logger, in Input) (string, error) {
	subject := strings.TrimSpace(in.Prompt)
	if subject == "" {
		subject = story.ThemeSubject(in.Theme, in.Culture)
	}
	log.Info("writing story", zap.String("theme", in.Theme))
	raw, err := u.d.Story.WriteStory(ctx, story.StoryPrompt(subject))
	if err != nil {
		return "", fmt.Errorf("write story: %w", err)
	}
	text := story.Clean(raw)
	if text == "" {
		return "", ErrEmptyStory
	}
	return text, nil
}

func (u Usecase) materializer(in Input, log *zap.Logger) Materializer {
	return Materializer{
		Images:      u.d.Images,
		Suffix:      u.opts.SceneSuffix,
		Culture:     in.Culture,
		Style:       u.opts.ImageStyle,
		Concurrency: u.opts.ImageConcurrency,
		Interval:    u.opts.ImageInterval,
		Log:         log,
	}
}

func (u Usecase) narrate(ctx context.Context, log *zap.Logger, in Input, text string) (string, types.NarrationAudio, error) {
	var voiceKey, voiceID string
	if in.RegionalAccent {
		voiceKey, voiceID = u.opts.Voices.ResolveAccent(in.Culture, in.Region)
	} else {
		voiceKey, voiceID = u.opts.Voices.Resolve(in.Language, in.Culture, in.Region)
	}
	if err := os.MkdirAll(in.OutDir, 0o755); err != nil {
		return "", types.NarrationAudio{}, err
	}
	audio := types.NarrationAudio{Path: filepath.Join(in.OutDir, narrationName), VoiceID: voiceID}
	log.Info("synthesizing narration", zap.String("voice", voiceKey))
	if err := u.d.Speech.Synthesize(ctx, text, voiceID, audio.Path); err != nil {
		return "", types.NarrationAudio{}, fmt.Errorf("synthesize narration: %w", err)
	}
	return voiceKey, audio, nil
}
