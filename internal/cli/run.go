package cli

import (
	"context"
	"fmt"
	"path/filepath"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/forPelevin/storyreel/internal/pipeline"
)

func newMakeCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "make",
		Short: "Generate one story video, or a narrated story with --no-video",
		Args:  cobra.NoArgs,
		RunE:  runMake,
	}
	cmd.Flags().String("theme", "", "Story theme (list with the themes command)")
	cmd.Flags().String("prompt", "", "Free-form story subject; overrides --theme")
	cmd.Flags().String("culture", "Indian", "Cultural setting for the story")
	cmd.Flags().String("region", "", "Region used for accent detection")
	cmd.Flags().String("language", "English", "Narration language")
	cmd.Flags().Bool("captions", false, "Burn scene captions into the video")
	cmd.Flags().Bool("no-video", false, "Write only the story, its narration and one cover image; ffmpeg is not needed")
	cmd.Flags().Bool("regional-accent", false, "Narrate with the accent detected from culture and region instead of language")
	cmd.Flags().Int("concurrency", 0, "Parallel image requests (default from IMAGE_CONCURRENCY)")
	cmd.Flags().Duration("timeout", 30*time.Minute, "Overall run timeout")
	return cmd
}

func runMake(cmd *cobra.Command, _ []string) error {
	log, err := newLogger(cmd)
	if err != nil {
		return err
	}
	defer func() { _ = log.Sync() }()

	cfg := makeConfig(cmd, log)
	if err := cfg.Validate(); err != nil {
		return fmt.Errorf("config: %w", err)
	}

	timeout, _ := cmd.Flags().GetDuration("timeout")
	ctx, cancel := context.WithTimeout(cmd.Context(), timeout)
	defer cancel()

	p, err := pipeline.New(cfg)
	if err != nil {
		return err
	}
	if noVideo, _ := cmd.Flags().GetBool("no-video"); noVideo {
		res, err := p.RunStory(ctx, makeRequest(cmd))
		if err != nil {
			return err
		}
		if res.Manifest.Degraded {
			log.Warn("story has no cover image")
		}
		for _, f := range res.Manifest.Frames {
			fmt.Fprintln(cmd.OutOrStdout(), filepath.Join(res.RunDir, f.File))
		}
		fmt.Fprintln(cmd.OutOrStdout(), filepath.Join(res.RunDir, res.Manifest.AudioFile))
		return nil
	}

	if err := p.Video().Available(ctx); err != nil {
		return fmt.Errorf("preflight: %w", err)
	}
	res, err := p.Run(ctx, makeRequest(cmd))
	if err != nil {
		return err
	}
	if res.Manifest.Degraded {
		log.Warn("some scenes produced no image", zap.Ints("dropped_scenes", res.Manifest.DroppedScenes))
	}
	fmt.Fprintln(cmd.OutOrStdout(), filepath.Join(res.RunDir, res.Manifest.VideoFile))
	return nil
}

// makeConfig applies make flags on top of the environment config. An
// explicit --concurrency wins even when it is zero.
func makeConfig(cmd *cobra.Command, log *zap.Logger) pipeline.Config {
	cfg := loadConfig(cmd, log)
	if cmd.Flags().Changed("concurrency") {
		cfg.ImageConcurrency, _ = cmd.Flags().GetInt("concurrency")
	}
	return cfg
}

func makeRequest(cmd *cobra.Command) pipeline.Request {
	req := pipeline.Request{}
	req.Theme, _ = cmd.Flags().GetString("theme")
	req.Prompt, _ = cmd.Flags().GetString("prompt")
	req.Culture, _ = cmd.Flags().GetString("culture")
	req.Region, _ = cmd.Flags().GetString("region")
	req.Language, _ = cmd.Flags().GetString("language")
	req.Captions, _ = cmd.Flags().GetBool("captions")
	req.RegionalAccent, _ = cmd.Flags().GetBool("regional-accent")
	return req
}
