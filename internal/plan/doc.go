// Package plan computes encode parameters: the preset table for CRF mode
// and the bitrate arithmetic for target-size two-pass mode.
package plan
