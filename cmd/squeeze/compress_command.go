package main

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"

	"squeeze/internal/history"
	"squeeze/internal/jobs"
	"squeeze/internal/plan"
	"squeeze/internal/services"
)

var videoExtensions = map[string]struct{}{
	".mp4":  {},
	".mkv":  {},
	".webm": {},
	".mov":  {},
	".avi":  {},
	".m4v":  {},
}

func newCompressCommand(ctx *commandContext) *cobra.Command {
	var presetFlag string
	var targetFlag float64
	var outputFlag string

	cmd := &cobra.Command{
		Use:   "compress <path>",
		Short: "Compress a local video file",
		Long: `Compress a local video file with ffmpeg.

Without flags the medium preset is applied (CRF encode). With --target-mb
the video is encoded in two passes at a bitrate computed to land near the
requested size.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			absPath, err := filepath.Abs(args[0])
			if err != nil {
				return fmt.Errorf("resolve path: %w", err)
			}
			info, err := os.Stat(absPath)
			if err != nil {
				if errors.Is(err, os.ErrNotExist) {
					return fmt.Errorf("file does not exist: %s", absPath)
				}
				return fmt.Errorf("inspect file: %w", err)
			}
			if info.IsDir() {
				return fmt.Errorf("%s is a directory", absPath)
			}
			ext := strings.ToLower(filepath.Ext(info.Name()))
			if _, ok := videoExtensions[ext]; !ok {
				return fmt.Errorf("unsupported file extension %q", ext)
			}
			if targetFlag < 0 {
				return fmt.Errorf("target size must be positive, got %.2f", targetFlag)
			}

			return ctx.withController(func(controller *jobs.Controller, _ *history.Store) error {
				result, err := controller.RunCompress(cmd.Context(), jobs.CompressOptions{
					InputPath:  absPath,
					Preset:     presetFlag,
					TargetMB:   targetFlag,
					OutputPath: outputFlag,
					OnLine:     lineWriter(cmd),
				})
				if err != nil {
					return err
				}
				printCompressResult(cmd, result)
				return nil
			})
		},
	}

	cmd.Flags().StringVarP(&presetFlag, "preset", "p", "", "Compression preset: "+strings.Join(plan.PresetNames(), ", "))
	cmd.Flags().Float64VarP(&targetFlag, "target-mb", "t", 0, "Target output size in megabytes (two-pass encode)")
	cmd.Flags().StringVarP(&outputFlag, "output", "o", "", "Output file path")
	return cmd
}

// lineWriter streams subprocess output straight to the command's output,
// so encoder and downloader progress is visible as it happens.
func lineWriter(cmd *cobra.Command) services.LineSink {
	out := cmd.OutOrStdout()
	return func(line string) {
		fmt.Fprintln(out, line)
	}
}

func printCompressResult(cmd *cobra.Command, result *jobs.CompressResult) {
	out := cmd.OutOrStdout()
	switch result.Mode {
	case jobs.ModeCopy:
		fmt.Fprintf(out, "Source already under target (%.1f MB); copied to %s\n", result.InputSizeMB, result.OutputPath)
	case jobs.ModeTwoPass:
		fmt.Fprintf(out, "Encoded %s at %d kbps video / %d kbps audio\n",
			filepath.Base(result.InputPath), result.Bitrate.VideoKbps, result.Bitrate.AudioKbps)
		fmt.Fprintf(out, "Output: %s (%.1f MB, was %.1f MB)\n", result.OutputPath, result.OutputSizeMB, result.InputSizeMB)
	default:
		fmt.Fprintf(out, "Encoded %s with the %s preset\n", filepath.Base(result.InputPath), result.Preset)
		fmt.Fprintf(out, "Output: %s (%.1f MB, was %.1f MB)\n", result.OutputPath, result.OutputSizeMB, result.InputSizeMB)
	}
}
