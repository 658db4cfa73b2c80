package cli

import (
	"fmt"
	"os"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"
)

func Main() {
	_ = godotenv.Load() // best-effort: load .env if present

	root := &cobra.Command{
		Use:          "vocalcut <input>",
		Short:        "Condense a spoken-word video to its most important segments",
		Args:         cobra.ExactArgs(1),
		SilenceUsage: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return run(cmd, args[0])
		},
	}

	root.SetOut(os.Stdout)
	root.SetErr(os.Stderr)
	root.SilenceErrors = true

	// Visible flags
	root.Flags().String("out", "", "Output file (default out/<input>-<timestamp>.mp4)")
	root.Flags().Float64("target", 60, "Target output duration in seconds")
	root.Flags().String("config", "", "YAML settings file")
	root.Flags().Bool("manifest", false, "Write a JSON manifest next to the output")
	root.Flags().Bool("subtitles", false, "Write an ASS caption file next to the output")
	root.Flags().Bool("publish", false, "Upload the output to the configured bucket")

	// Hidden tuning flag (internal)
	root.Flags().Int("workers", 0, "Parallel segment encoders")
	_ = root.Flags().MarkHidden("workers")

	if err := root.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
