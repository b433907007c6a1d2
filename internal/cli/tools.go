package cli

import (
	"encoding/json"
	"fmt"
	"text/tabwriter"
	"time"

	"github.com/spf13/cobra"

	"github.com/forPelevin/storyreel/internal/domain/story"
	"github.com/forPelevin/storyreel/internal/pipeline"
	"github.com/forPelevin/storyreel/internal/ports/adapters/ffmpeg"
)

func newProbeCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "probe <video>",
		Short: "Print duration, codecs and resolution of a video",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			v := ffmpeg.New(getenvDefault("FFMPEG_PATH", "ffmpeg"), getenvDefault("FFPROBE_PATH", "ffprobe"))
			info, err := v.Probe(cmd.Context(), args[0])
			if err != nil {
				return err
			}
			b, err := json.MarshalIndent(info, "", "  ")
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), string(b))
			return nil
		},
	}
}

func newThemesCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "themes",
		Short: "List story themes",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
			for _, t := range story.Themes() {
				fmt.Fprintf(w, "%s\t%s\n", t.Key, t.Description)
			}
			return w.Flush()
		},
	}
}

func newSweepCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "sweep",
		Short: "Delete run directories older than --max-age",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			outDir, _ := cmd.Flags().GetString("out")
			maxAge, _ := cmd.Flags().GetDuration("max-age")
			removed, err := pipeline.Sweep(outDir, maxAge, time.Now())
			for _, p := range removed {
				fmt.Fprintln(cmd.OutOrStdout(), "removed", p)
			}
			return err
		},
	}
	cmd.Flags().Duration("max-age", 24*time.Hour, "Maximum age of a run directory")
	return cmd
}
