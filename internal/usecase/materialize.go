package usecase

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
	"golang.org/x/time/rate"

	"github.com/forPelevin/storyreel/internal/domain/story"
	"github.com/forPelevin/storyreel/internal/ports"
	"github.com/forPelevin/storyreel/internal/types"
)

const DefaultImageConcurrency = 2

// Materializer turns scenes into image files, one per scene, retrying each
// failed scene once with a generic prompt.
type Materializer struct {
	Images  ports.ImageGenerator
	Suffix  string
	Culture string
	// Style is the art style of scene prompts; the fallback prompt always
	// asks for story.FallbackStyle.
	Style       string
	Concurrency int
	// Interval spaces out generator calls; zero disables rate limiting.
	Interval time.Duration
	Log      *zap.Logger
}

type MaterializeResult struct {
	Frames []types.Frame
	// Failed lists the indices of scenes that produced no frame, ascending.
	Failed []int
}

func (m Materializer) Materialize(ctx context.Context, scenes []types.Scene, dir string) (MaterializeResult, error) {
	log := m.logger()
	limit := m.Concurrency
	if limit <= 0 {
		limit = DefaultImageConcurrency
	}

	if err := os.MkdirAll(dir, 0o755); err != nil {
		return MaterializeResult{}, err
	}

	limiter := m.limiter()
	frames := make([]*types.Frame, len(scenes))
	eg, egCtx := errgroup.WithContext(ctx)
	eg.SetLimit(limit)
	for i, sc := range scenes {
		eg.Go(func() error {
			path := filepath.Join(dir, fmt.Sprintf("scene_%02d.png", sc.Index))
			f, err := m.scene(egCtx, limiter, sc, path)
			frames[i] = f
			return err
		})
	}
	if err := eg.Wait(); err != nil {
		return MaterializeResult{}, err
	}

	var res MaterializeResult
	for i, f := range frames {
		if f == nil {
			res.Failed = append(res.Failed, scenes[i].Index)
			continue
		}
		res.Frames = append(res.Frames, *f)
	}
	log.Info("frames materialized",
		zap.Int("frames", len(res.Frames)), zap.Int("dropped", len(res.Failed)))
	return res, nil
}

// Cover renders a single image for the whole story at path. A nil frame with
// a nil error means both the story prompt and the fallback failed.
func (m Materializer) Cover(ctx context.Context, text, path string) (*types.Frame, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, err
	}
	return m.scene(ctx, m.limiter(), types.Scene{Index: 1, Text: text}, path)
}

// scene tries the scene prompt, then the fallback prompt. It returns an error
// only when ctx is done.
func (m Materializer) scene(ctx context.Context, limiter *rate.Limiter, sc types.Scene, path string) (*types.Frame, error) {
	log := m.logger()
	suffix := m.Suffix
	if suffix == "" {
		suffix = story.DefaultSceneSuffix
	}
	prompt := story.Styled(story.BuildScenePrompt(sc.Text, sc.Index, suffix), m.Style)

	err := m.attempt(ctx, limiter, prompt, path)
	if err == nil {
		return newFrame(sc.Index, path, false), nil
	}
	if ctx.Err() != nil {
		return nil, ctx.Err()
	}
	log.Warn("scene image failed, retrying with fallback prompt",
		zap.Int("scene", sc.Index), zap.Error(err))

	fallback := story.Styled(story.FallbackPrompt(m.Culture), story.FallbackStyle)
	if err := m.attempt(ctx, limiter, fallback, path); err != nil {
		if ctx.Err() != nil {
			return nil, ctx.Err()
		}
		log.Warn("scene dropped", zap.Int("scene", sc.Index), zap.Error(err))
		return nil, nil
	}
	return newFrame(sc.Index, path, true), nil
}

func (m Materializer) logger() *zap.Logger {
	if m.Log == nil {
		return zap.NewNop()
	}
	return m.Log
}

func (m Materializer) limiter() *rate.Limiter {
	if m.Interval <= 0 {
		return nil
	}
	return rate.NewLimiter(rate.Every(m.Interval), 2)
}

// attempt counts as success only when the generator returned nil and the
// file is actually on disk.
func (m Materializer) attempt(ctx context.Context, limiter *rate.Limiter, prompt, path string) error {
	if limiter != nil {
		if err := limiter.Wait(ctx); err != nil {
			return err
		}
	}
	if err := m.Images.GenerateImage(ctx, prompt, types.FrameWidth, types.FrameHeight, path); err != nil {
		return err
	}
	st, err := os.Stat(path)
	if err != nil {
		return fmt.Errorf("image not written: %w", err)
	}
	if st.IsDir() {
		return fmt.Errorf("image path %s is a directory", path)
	}
	return nil
}

func newFrame(index int, path string, fallback bool) *types.Frame {
	return &types.Frame{
		SceneIndex: index,
		Path:       path,
		Width:      types.FrameWidth,
		Height:     types.FrameHeight,
		Fallback:   fallback,
	}
}
