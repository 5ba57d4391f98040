// Package ffmpeg wraps the ffmpeg command-line encoder. It supports a
// single-pass CRF encode driven by a preset bundle and a two-pass
// target-bitrate encode whose analysis statistics live in a scratch
// directory and are removed after every job.
package ffmpeg
