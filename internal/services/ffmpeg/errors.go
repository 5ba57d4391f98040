package ffmpeg

import "fmt"

// EncodeError reports a failed encoder invocation. Pass is 0 for preset
// (single-pass) encodes and 1 or 2 for two-pass encodes. ExitCode is -1
// when the process did not report one.
type EncodeError struct {
	Pass     int
	ExitCode int
	Err      error
}

func (e *EncodeError) Error() string {
	if e.Pass > 0 {
		return fmt.Sprintf("encode pass %d failed (exit code %d): %v", e.Pass, e.ExitCode, e.Err)
	}
	return fmt.Sprintf("encode failed (exit code %d): %v", e.ExitCode, e.Err)
}

func (e *EncodeError) Unwrap() error { return e.Err }
