package main

import (
	"fmt"
	"path/filepath"

	"github.com/spf13/cobra"

	"squeeze/internal/media"
	"squeeze/internal/textutil"
)

func newProbeCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "probe <path>",
		Short: "Show media details for a local file",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := ctx.ensureConfig()
			if err != nil {
				return err
			}
			absPath, err := filepath.Abs(args[0])
			if err != nil {
				return fmt.Errorf("resolve path: %w", err)
			}

			prober := media.NewCLI(cfg.Encoder.FFprobeBinary)
			info, err := prober.Probe(cmd.Context(), absPath)
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "Title:      %s\n", textutil.DisplayTitle(absPath))
			fmt.Fprintf(out, "Duration:   %.1f s\n", info.DurationSeconds)
			fmt.Fprintf(out, "Resolution: %dx%d\n", info.Width, info.Height)
			fmt.Fprintf(out, "Bitrate:    %d kbps\n", info.BitrateKbps)
			fmt.Fprintf(out, "Size:       %.1f MB\n", info.SizeMB)
			return nil
		},
	}
}
