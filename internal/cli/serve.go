package cli

import (
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/spf13/cobra"

	"github.com/forPelevin/storyreel/internal/pipeline"
	"github.com/forPelevin/storyreel/internal/server"
)

func newServeCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Serve the story video HTTP API",
		Args:  cobra.NoArgs,
		RunE:  runServe,
	}
	cmd.Flags().String("addr", getenvDefault("STORYREEL_ADDR", ":5000"), "Listen address")
	cmd.Flags().Duration("retention", 24*time.Hour, "Delete run directories older than this (0 disables)")
	cmd.Flags().String("sweep-schedule", server.DefaultSweepSchedule, "Cron schedule for the retention sweep")
	return cmd
}

func runServe(cmd *cobra.Command, _ []string) error {
	log, err := newLogger(cmd)
	if err != nil {
		return err
	}
	defer func() { _ = log.Sync() }()

	cfg := loadConfig(cmd, log)
	if err := cfg.Validate(); err != nil {
		return fmt.Errorf("config: %w", err)
	}
	if err := os.MkdirAll(cfg.OutDir, 0o755); err != nil {
		return err
	}
	p, err := pipeline.New(cfg)
	if err != nil {
		return err
	}

	if verbose, _ := cmd.Flags().GetBool("verbose"); !verbose {
		gin.SetMode(gin.ReleaseMode)
	}
	retention, _ := cmd.Flags().GetDuration("retention")
	schedule, _ := cmd.Flags().GetString("sweep-schedule")
	s := server.New(server.Options{
		Runner:          p,
		Checker:         p.Video(),
		Voices:          cfg.Voices,
		OutDir:          cfg.OutDir,
		Log:             log,
		RetentionMaxAge: retention,
		SweepSchedule:   schedule,
	})
	if err := s.StartSweeper(); err != nil {
		return fmt.Errorf("sweep schedule: %w", err)
	}

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	addr, _ := cmd.Flags().GetString("addr")
	return s.ListenAndServe(ctx, addr)
}
