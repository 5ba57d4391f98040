// Package media inspects video files with ffprobe. A single JSON probe
// call yields the duration, dimensions, and bitrate the planner needs.
package media
