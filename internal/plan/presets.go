package plan

import (
	"fmt"
	"sort"
	"strings"
)

// Preset identifies a fixed quality/speed tradeoff for CRF encoding.
type Preset string

const (
	PresetLight  Preset = "light"
	PresetMedium Preset = "medium"
	PresetStrong Preset = "strong"
)

// DefaultPreset is used when the caller does not choose one.
const DefaultPreset = PresetMedium

// PresetConfig bundles the encoder parameters for one preset tier. The
// values are configuration data; the encoder treats them as opaque.
type PresetConfig struct {
	// MaxHeight caps the output frame height; width scales to keep aspect.
	MaxHeight int
	// CRF is the x264 constant rate factor for quality mode.
	CRF int
	// Speed is the x264 speed preset (ultrafast..veryslow).
	Speed string
	// Description is shown in the presets listing.
	Description string
}

var presets = map[Preset]PresetConfig{
	PresetLight: {
		MaxHeight:   1080,
		CRF:         20,
		Speed:       "slow",
		Description: "up to 1080p, minimal compression",
	},
	PresetMedium: {
		MaxHeight:   720,
		CRF:         23,
		Speed:       "slow",
		Description: "up to 720p, balanced compression",
	},
	PresetStrong: {
		MaxHeight:   480,
		CRF:         28,
		Speed:       "medium",
		Description: "up to 480p, aggressive compression",
	},
}

// ParsePreset resolves a user-supplied preset name.
func ParsePreset(name string) (Preset, error) {
	preset := Preset(strings.ToLower(strings.TrimSpace(name)))
	if preset == "" {
		return DefaultPreset, nil
	}
	if _, ok := presets[preset]; !ok {
		return "", fmt.Errorf("unknown preset %q (available: %s)", name, strings.Join(PresetNames(), ", "))
	}
	return preset, nil
}

// Lookup returns the parameter bundle for the given preset.
func Lookup(preset Preset) (PresetConfig, bool) {
	cfg, ok := presets[preset]
	return cfg, ok
}

// ScaleFilter returns the ffmpeg scale filter for the preset's height cap.
// The -2 width keeps the aspect ratio while staying divisible by two, which
// libx264 requires.
func (p PresetConfig) ScaleFilter() string {
	return fmt.Sprintf("scale=-2:%d", p.MaxHeight)
}

// PresetNames lists the available preset names in sorted order.
func PresetNames() []string {
	names := make([]string, 0, len(presets))
	for preset := range presets {
		names = append(names, string(preset))
	}
	sort.Strings(names)
	return names
}
