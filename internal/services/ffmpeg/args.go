package ffmpeg

import (
	"fmt"
	"os"

	"squeeze/internal/plan"
)

// presetArgs builds the argument slice for a single-pass CRF encode.
func presetArgs(req Request, preset plan.PresetConfig, audioKbps int) []string {
	args := preamble(req)
	args = append(args,
		"-c:v", "libx264",
		"-crf", fmt.Sprintf("%d", preset.CRF),
		"-preset", preset.Speed,
	)
	args = appendAudio(args, audioKbps)
	args = append(args, "-movflags", "+faststart", req.OutputPath)
	return args
}

// passArgs builds the argument slice for one pass of a two-pass encode.
// Pass 1 discards output and drops audio; pass 2 writes the final file.
func passArgs(req Request, bitrate plan.BitratePlan, speed, passLogPrefix string, pass int) []string {
	args := preamble(req)
	args = append(args,
		"-c:v", "libx264",
		"-b:v", fmt.Sprintf("%dk", bitrate.VideoKbps),
		"-pass", fmt.Sprintf("%d", pass),
		"-passlogfile", passLogPrefix,
		"-preset", speed,
	)
	if pass == 1 {
		return append(args, "-an", "-f", "mp4", os.DevNull)
	}
	args = appendAudio(args, bitrate.AudioKbps)
	args = append(args, "-movflags", "+faststart", req.OutputPath)
	return args
}

func preamble(req Request) []string {
	args := []string{"-hide_banner", "-nostdin", "-y", "-i", req.InputPath}
	if req.ScaleFilter != "" {
		args = append(args, "-vf", req.ScaleFilter)
	}
	return args
}

func appendAudio(args []string, audioKbps int) []string {
	return append(args, "-c:a", "aac", "-b:a", fmt.Sprintf("%dk", audioKbps))
}
