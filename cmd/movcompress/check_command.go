package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"movcompress/internal/deps"
	"movcompress/internal/services"
)

func newCheckCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "check",
		Short: "Verify ffmpeg and ffprobe are installed",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := ctx.ensureConfig()
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()
			colorize := shouldColorize(out)
			fmt.Fprintln(out, renderStatusLine("Config", statusInfo, ctx.configSource(), colorize))

			statuses := deps.CheckBinaries(cmd.Context(), deps.Requirements(cfg))
			rows := make([][]string, 0, len(statuses))
			for _, s := range statuses {
				kind, label := statusOK, "OK"
				detail := s.Version
				if !s.Available {
					kind, label = statusError, "MISSING"
					detail = s.Detail
				}
				rows = append(rows, []string{s.Name, paint(label, kind, colorize), s.Command, detail})
			}
			fmt.Fprintln(out, renderTable([]string{"Dependency", "Status", "Path", "Detail"}, rows))

			missing := deps.Missing(statuses)
			if len(missing) > 0 {
				fmt.Fprintln(out, renderStatusLine("Summary", statusError, fmt.Sprintf("%d required dependencies missing", len(missing)), colorize))
				return services.Wrap(services.ErrConfiguration, "dependencies", "", "ffmpeg toolchain incomplete", nil)
			}
			fmt.Fprintln(out, renderStatusLine("Summary", statusOK, "ready to compress", colorize))
			return nil
		},
	}
}
