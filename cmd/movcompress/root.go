package main

import (
	"github.com/spf13/cobra"
)

func newRootCommand() *cobra.Command {
	var configFlag string
	var logLevelFlag string
	var opts compressOptions

	ctx := newCommandContext(&configFlag, &logLevelFlag)

	rootCmd := &cobra.Command{
		Use:   "movcompress [flags] <input.mov>",
		Short: "Re-encode a MOV file into a smaller H.264/AAC copy",
		Long: `movcompress re-encodes a QuickTime MOV file with ffmpeg and writes the
result next to the input as <name>_compressed.mov. The input is never modified.`,
		Args:          cobra.ExactArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			if shouldSkipConfig(cmd) {
				return nil
			}
			_, err := ctx.ensureConfig()
			return err
		},
		RunE: func(cmd *cobra.Command, args []string) error {
			return runCompress(cmd, ctx, args[0], opts)
		},
	}

	rootCmd.PersistentFlags().StringVarP(&configFlag, "config", "c", "", "Configuration file path")
	rootCmd.PersistentFlags().StringVar(&logLevelFlag, "log-level", "", "Override logging.level (debug, info, warn, error)")

	rootCmd.Flags().BoolVar(&opts.high, "high-compression", false, "Smaller output: slower preset, lower quality, capped at 720p")
	rootCmd.Flags().BoolVar(&opts.twoPass, "two-pass", false, "Encode in two passes targeting an average bitrate")
	rootCmd.Flags().BoolVar(&opts.large, "large", false, "Slow down progress redraws for very long inputs")

	rootCmd.AddCommand(newConfigCommand())
	rootCmd.AddCommand(newCheckCommand(ctx))

	return rootCmd
}
