package pipeline

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"
	"unicode"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/forPelevin/storyreel/internal/domain/story"
	"github.com/forPelevin/storyreel/internal/domain/voice"
	"github.com/forPelevin/storyreel/internal/ports"
	"github.com/forPelevin/storyreel/internal/ports/adapters/elevenlabs"
	"github.com/forPelevin/storyreel/internal/ports/adapters/ffmpeg"
	"github.com/forPelevin/storyreel/internal/ports/adapters/imagecache"
	"github.com/forPelevin/storyreel/internal/ports/adapters/openai"
	"github.com/forPelevin/storyreel/internal/ports/adapters/openrouter"
	"github.com/forPelevin/storyreel/internal/ports/adapters/pollinations"
	"github.com/forPelevin/storyreel/internal/types"
	"github.com/forPelevin/storyreel/internal/usecase"
)

const (
	ProviderOpenRouter = "openrouter"
	ProviderOpenAI     = "openai"

	manifestName = "manifest.json"
	maxSlugRunes = 40
)

type Config struct {
	OutDir string
	Logger *zap.Logger

	FFmpegPath  string
	FFprobePath string

	StoryProvider string

	OpenRouterAPIKey       string
	OpenRouterModel        string
	OpenRouterBaseURL      string
	OpenRouterAllowedHosts []string

	OpenAIAPIKey       string
	OpenAIModel        string
	OpenAIBaseURL      string
	OpenAIAllowedHosts []string

	ElevenLabsAPIKey       string
	ElevenLabsModel        string
	ElevenLabsBaseURL      string
	ElevenLabsAllowedHosts []string

	PollinationsBaseURL      string
	PollinationsAllowedHosts []string
	ImageStyle               string
	SceneSuffix              string

	// ImageConcurrency caps parallel image requests per run.
	ImageConcurrency int
	ImageInterval    time.Duration
	// ImageCacheTTL enables the in-memory image cache when positive.
	ImageCacheTTL time.Duration

	Voices voice.Table
}

func (c Config) Validate() error {
	if strings.TrimSpace(c.OutDir) == "" {
		return errors.New("out dir is empty")
	}
	if c.ImageConcurrency < 0 {
		return fmt.Errorf("image concurrency must be >= 0")
	}
	if c.ImageInterval < 0 {
		return fmt.Errorf("image interval must be >= 0")
	}
	switch c.provider() {
	case ProviderOpenRouter:
		if c.OpenRouterAPIKey == "" {
			return errors.New("OPENROUTER_API_KEY is required")
		}
		if err := openrouter.Endpoint.Validate(c.OpenRouterBaseURL, c.OpenRouterAllowedHosts); err != nil {
			return err
		}
	case ProviderOpenAI:
		if c.OpenAIAPIKey == "" {
			return errors.New("OPENAI_API_KEY is required")
		}
		if err := openai.Endpoint.Validate(c.OpenAIBaseURL, c.OpenAIAllowedHosts); err != nil {
			return err
		}
	default:
		return fmt.Errorf("unknown story provider %q", c.StoryProvider)
	}
	if c.ElevenLabsAPIKey == "" {
		return errors.New("ELEVENLABS_API_KEY is required")
	}
	if err := elevenlabs.Endpoint.Validate(c.ElevenLabsBaseURL, c.ElevenLabsAllowedHosts); err != nil {
		return err
	}
	return pollinations.Endpoint.Validate(c.PollinationsBaseURL, c.PollinationsAllowedHosts)
}

func (c Config) provider() string {
	p := strings.ToLower(strings.TrimSpace(c.StoryProvider))
	if p == "" {
		return ProviderOpenRouter
	}
	return p
}

// Request is one story video to produce.
type Request struct {
	RequestID string `json:"request_id,omitempty"`
	Prompt    string `json:"prompt,omitempty"`
	Theme     string `json:"theme,omitempty"`
	Culture   string `json:"culture,omitempty"`
	Region    string `json:"region,omitempty"`
	Language  string `json:"language,omitempty"`
	Captions  bool   `json:"captions,omitempty"`

	// RegionalAccent narrates with the accent of Culture and Region.
	RegionalAccent bool `json:"regional_accent,omitempty"`
}

type Result struct {
	RunDir   string
	Manifest types.Manifest
}

// Pipeline holds adapters shared by every run of a process.
type Pipeline struct {
	cfg   Config
	log   *zap.Logger
	video ports.VideoTool
	uc    usecase.Usecase
}

func New(cfg Config) (*Pipeline, error) {
	log := cfg.Logger
	if log == nil {
		log = zap.NewNop()
	}

	tok, err := story.NewPunktTokenizer()
	if err != nil {
		return nil, err
	}

	v := ffmpeg.New(cfg.FFmpegPath, cfg.FFprobePath)
	var images ports.ImageGenerator = pollinations.New(cfg.PollinationsBaseURL)
	if cfg.ImageCacheTTL > 0 {
		images = imagecache.New(images, cfg.ImageCacheTTL)
	}

	return &Pipeline{
		cfg:   cfg,
		log:   log,
		video: v,
		uc: usecase.New(usecase.Deps{
			Story:     newStoryWriter(cfg),
			Images:    images,
			Speech:    elevenlabs.New(cfg.ElevenLabsAPIKey, cfg.ElevenLabsModel, cfg.ElevenLabsBaseURL),
			Video:     v,
			Segmenter: story.NewSegmenter(tok, log),
			Log:       log,
		}, usecase.Options{
			Voices:           cfg.Voices,
			SceneSuffix:      cfg.SceneSuffix,
			ImageStyle:       cfg.ImageStyle,
			ImageConcurrency: cfg.ImageConcurrency,
			ImageInterval:    cfg.ImageInterval,
		}),
	}, nil
}

func newStoryWriter(cfg Config) ports.StoryWriter {
	if cfg.provider() == ProviderOpenAI {
		return openai.New(cfg.OpenAIAPIKey, cfg.OpenAIModel, cfg.OpenAIBaseURL)
	}
	return openrouter.New(cfg.OpenRouterAPIKey, cfg.OpenRouterModel, cfg.OpenRouterBaseURL)
}

// Video exposes the shared video tool for health checks and probing.
func (p *Pipeline) Video() ports.VideoTool { return p.video }

type runFunc func(context.Context, usecase.Input) (usecase.Result, error)

// Run produces one video in a fresh run directory and writes its manifest.
func (p *Pipeline) Run(ctx context.Context, req Request) (Result, error) {
	return p.run(ctx, req, p.uc.Run)
}

// RunStory produces a story, its narration and one cover image in a fresh
// run directory. No video is rendered, so ffmpeg is not required.
func (p *Pipeline) RunStory(ctx context.Context, req Request) (Result, error) {
	return p.run(ctx, req, p.uc.RunStory)
}

func (p *Pipeline) run(ctx context.Context, req Request, exec runFunc) (Result, error) {
	if req.RequestID == "" {
		req.RequestID = uuid.NewString()
	}
	if req.Theme == "" && strings.TrimSpace(req.Prompt) == "" {
		req.Theme = story.DefaultTheme
	}
	if req.Theme != "" && !story.IsTheme(req.Theme) {
		return Result{}, fmt.Errorf("unknown theme %q", req.Theme)
	}

	slug := req.Theme
	if strings.TrimSpace(req.Prompt) != "" {
		slug = req.Prompt
	}
	runDir := buildRunOutDir(p.cfg.OutDir, slug, time.Now().UTC())
	log := p.log.With(zap.String("request_id", req.RequestID), zap.String("run_dir", runDir))
	log.Info("preparing workspace")
	if err := os.MkdirAll(runDir, 0o755); err != nil {
		return Result{}, err
	}

	res, err := exec(ctx, usecase.Input{
		RequestID:      req.RequestID,
		Prompt:         req.Prompt,
		Theme:          req.Theme,
		Culture:        req.Culture,
		Region:         req.Region,
		Language:       req.Language,
		RegionalAccent: req.RegionalAccent,
		Captions:       req.Captions,
		OutDir:         runDir,
	})
	if err != nil {
		return Result{RunDir: runDir}, err
	}

	b, err := json.MarshalIndent(res.Manifest, "", "  ")
	if err != nil {
		return Result{}, fmt.Errorf("marshal manifest: %w", err)
	}
	manifestPath := filepath.Join(runDir, manifestName)
	if err := os.WriteFile(manifestPath, b, 0o644); err != nil {
		return Result{}, err
	}
	log.Info("manifest written",
		zap.String("mode", res.Manifest.Mode),
		zap.Int("frames", len(res.Manifest.Frames)),
		zap.Bool("degraded", res.Manifest.Degraded),
		zap.String("manifest", manifestPath))
	return Result{RunDir: runDir, Manifest: res.Manifest}, nil
}

func Run(ctx context.Context, cfg Config, req Request) (Result, error) {
	p, err := New(cfg)
	if err != nil {
		return Result{}, err
	}
	return p.Run(ctx, req)
}

func buildRunOutDir(outRoot, seed string, now time.Time) string {
	name := normalizePathSegment(seed)
	if r := []rune(name); len(r) > maxSlugRunes {
		name = strings.TrimRight(string(r[:maxSlugRunes]), "-")
	}
	if name == "" {
		name = "story"
	}
	ts := now.UTC().Format("20060102-150405Z")
	runSeed := fmt.Sprintf("%s|%d", seed, now.UTC().UnixNano())
	suffix := hash(runSeed)[:6]
	return filepath.Join(outRoot, fmt.Sprintf("%s-%s-%s", name, ts, suffix))
}

func normalizePathSegment(s string) string {
	var b strings.Builder
	prevDash := false
	for _, r := range strings.ToLower(strings.TrimSpace(s)) {
		switch {
		case unicode.IsLetter(r), unicode.IsDigit(r):
			b.WriteRune(r)
			prevDash = false
		default:
			if !prevDash {
				b.WriteByte('-')
				prevDash = true
			}
		}
	}
	return strings.Trim(b.String(), "-")
}

func hash(s string) string {
	sum := sha256.Sum256([]byte(s))
	return hex.EncodeToString(sum[:])[:12]
}

// ensure adapters implement ports
var _ ports.VideoTool = (*ffmpeg.Adapter)(nil)
var _ ports.StoryWriter = (*openrouter.Adapter)(nil)
var _ ports.StoryWriter = (*openai.Adapter)(nil)
var _ ports.ImageGenerator = (*pollinations.Adapter)(nil)
var _ ports.ImageGenerator = (*imagecache.Generator)(nil)
var _ ports.SpeechSynth = (*elevenlabs.Adapter)(nil)
