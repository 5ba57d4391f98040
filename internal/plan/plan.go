package plan

import (
	"errors"
	"fmt"
	"math"
)

// ErrInvalidInput marks planning requests with non-positive duration or size.
var ErrInvalidInput = errors.New("invalid input")

// BitratePlan holds the computed bitrates for a target-size encode.
type BitratePlan struct {
	TotalKbps int
	AudioKbps int
	VideoKbps int
}

// minVideoKbps keeps the planner from emitting a zero or negative video
// bitrate when the audio allowance exceeds the total budget. Operational
// floors (encoder sanity minimums) are applied by the caller via Clamp.
const minVideoKbps = 1

// Compute derives the bitrate plan for fitting targetMB of output into
// durationSeconds of video, reserving audioKbps for the audio track.
// The 8192 factor converts megabytes to kilobits (1 MB = 8 * 1024 Kbit).
func Compute(durationSeconds, targetMB float64, audioKbps int) (BitratePlan, error) {
	if durationSeconds <= 0 {
		return BitratePlan{}, fmt.Errorf("%w: duration must be positive, got %.2fs", ErrInvalidInput, durationSeconds)
	}
	if targetMB <= 0 {
		return BitratePlan{}, fmt.Errorf("%w: target size must be positive, got %.2f MB", ErrInvalidInput, targetMB)
	}
	if audioKbps < 0 {
		return BitratePlan{}, fmt.Errorf("%w: audio bitrate must not be negative, got %d kbps", ErrInvalidInput, audioKbps)
	}

	total := int(math.Floor(targetMB * 8192 / durationSeconds))
	video := total - audioKbps
	if video < minVideoKbps {
		video = minVideoKbps
	}
	return BitratePlan{
		TotalKbps: total,
		AudioKbps: audioKbps,
		VideoKbps: video,
	}, nil
}

// Clamp returns v constrained to [min, max]. Max values <= 0 disable the
// upper bound.
func Clamp(v, min, max int) int {
	if v < min {
		return min
	}
	if max > 0 && v > max {
		return max
	}
	return v
}
