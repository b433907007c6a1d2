package cli

import (
	"fmt"
	"os"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"
)

func Main() {
	_ = godotenv.Load() // best-effort: load .env if present

	if err := newRootCmd().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:          "storyreel",
		Short:        "Turn a story prompt into a narrated, illustrated video",
		SilenceUsage: true,
	}
	root.SetOut(os.Stdout)
	root.SetErr(os.Stderr)
	root.SilenceErrors = true

	root.PersistentFlags().String("out", getenvDefault("STORYREEL_OUT", "out"), "Output directory")
	root.PersistentFlags().BoolP("verbose", "v", false, "Verbose logging")

	root.AddCommand(
		newMakeCmd(),
		newServeCmd(),
		newProbeCmd(),
		newThemesCmd(),
		newSweepCmd(),
	)
	return root
}
