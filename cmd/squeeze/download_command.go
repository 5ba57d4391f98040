package main

import (
	"fmt"
	"net/url"
	"strings"

	"github.com/spf13/cobra"

	"squeeze/internal/history"
	"squeeze/internal/jobs"
	"squeeze/internal/plan"
)

func newDownloadCommand(ctx *commandContext) *cobra.Command {
	var dirFlag string
	var compressFlag bool
	var presetFlag string
	var targetFlag float64
	var outputFlag string

	cmd := &cobra.Command{
		Use:   "download <url>",
		Short: "Download a video with yt-dlp",
		Long: `Download a video with yt-dlp into the configured download directory.

With --compress the downloaded file is handed straight to the encoder,
using the same preset and target flags as the compress command.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			rawURL := strings.TrimSpace(args[0])
			parsed, err := url.Parse(rawURL)
			if err != nil || parsed.Scheme == "" || parsed.Host == "" {
				return fmt.Errorf("invalid url: %s", args[0])
			}
			if targetFlag > 0 || presetFlag != "" || outputFlag != "" {
				compressFlag = true
			}

			return ctx.withController(func(controller *jobs.Controller, _ *history.Store) error {
				result, err := controller.RunDownload(cmd.Context(), jobs.DownloadOptions{
					URL:        rawURL,
					DestDir:    dirFlag,
					Compress:   compressFlag,
					Preset:     presetFlag,
					TargetMB:   targetFlag,
					OutputPath: outputFlag,
					OnLine:     lineWriter(cmd),
				})
				if err != nil {
					return err
				}
				out := cmd.OutOrStdout()
				fmt.Fprintf(out, "Downloaded to %s (%.1f MB)\n", result.DownloadedPath, result.SizeMB)
				if result.Compress != nil {
					printCompressResult(cmd, result.Compress)
				}
				return nil
			})
		},
	}

	cmd.Flags().StringVarP(&dirFlag, "dir", "d", "", "Download directory (defaults to the configured one)")
	cmd.Flags().BoolVar(&compressFlag, "compress", false, "Compress the video after downloading")
	cmd.Flags().StringVarP(&presetFlag, "preset", "p", "", "Compression preset: "+strings.Join(plan.PresetNames(), ", ")+" (implies --compress)")
	cmd.Flags().Float64VarP(&targetFlag, "target-mb", "t", 0, "Target output size in megabytes (implies --compress)")
	cmd.Flags().StringVarP(&outputFlag, "output", "o", "", "Output file path for the compressed copy (implies --compress)")
	return cmd
}
