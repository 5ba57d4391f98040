package plan_test

import (
	"errors"
	"strings"
	"testing"

	"squeeze/internal/plan"
)

func TestComputeKnownVector(t *testing.T) {
	got, err := plan.Compute(60, 10, 128)
	if err != nil {
		t.Fatalf("Compute returned error: %v", err)
	}
	if got.TotalKbps != 1365 {
		t.Fatalf("expected total 1365 kbps, got %d", got.TotalKbps)
	}
	if got.VideoKbps != 1237 {
		t.Fatalf("expected video 1237 kbps, got %d", got.VideoKbps)
	}
	if got.AudioKbps != 128 {
		t.Fatalf("expected audio 128 kbps, got %d", got.AudioKbps)
	}
}

func TestComputeFloorsVideoBitrate(t *testing.T) {
	// Long clip with a tiny budget: audio allowance swamps the total.
	got, err := plan.Compute(3600, 1, 128)
	if err != nil {
		t.Fatalf("Compute returned error: %v", err)
	}
	if got.VideoKbps < 1 {
		t.Fatalf("video bitrate below floor: %d", got.VideoKbps)
	}
}

func TestComputeVideoBitrateAlwaysPositive(t *testing.T) {
	cases := []struct {
		duration float64
		targetMB float64
	}{
		{1, 0.01},
		{10, 1},
		{59.9, 8},
		{7200, 25},
		{0.5, 500},
	}
	for _, tc := range cases {
		got, err := plan.Compute(tc.duration, tc.targetMB, 96)
		if err != nil {
			t.Fatalf("Compute(%v, %v) returned error: %v", tc.duration, tc.targetMB, err)
		}
		if got.VideoKbps < 1 {
			t.Fatalf("Compute(%v, %v) video bitrate %d < 1", tc.duration, tc.targetMB, got.VideoKbps)
		}
	}
}

func TestComputeRejectsInvalidInput(t *testing.T) {
	cases := []struct {
		name     string
		duration float64
		targetMB float64
		audio    int
	}{
		{"zero duration", 0, 10, 128},
		{"negative duration", -5, 10, 128},
		{"zero target", 60, 0, 128},
		{"negative target", 60, -1, 128},
		{"negative audio", 60, 10, -1},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := plan.Compute(tc.duration, tc.targetMB, tc.audio)
			if !errors.Is(err, plan.ErrInvalidInput) {
				t.Fatalf("expected ErrInvalidInput, got %v", err)
			}
		})
	}
}

func TestClamp(t *testing.T) {
	if got := plan.Clamp(50, 300, 0); got != 300 {
		t.Fatalf("expected clamp to min 300, got %d", got)
	}
	if got := plan.Clamp(5000, 300, 4000); got != 4000 {
		t.Fatalf("expected clamp to max 4000, got %d", got)
	}
	if got := plan.Clamp(1200, 300, 4000); got != 1200 {
		t.Fatalf("expected passthrough 1200, got %d", got)
	}
}

func TestParsePreset(t *testing.T) {
	preset, err := plan.ParsePreset(" Medium ")
	if err != nil {
		t.Fatalf("ParsePreset returned error: %v", err)
	}
	if preset != plan.PresetMedium {
		t.Fatalf("expected medium, got %q", preset)
	}

	if preset, err = plan.ParsePreset(""); err != nil || preset != plan.DefaultPreset {
		t.Fatalf("expected default preset for empty name, got %q err=%v", preset, err)
	}

	if _, err = plan.ParsePreset("extreme"); err == nil {
		t.Fatal("expected error for unknown preset")
	} else if !strings.Contains(err.Error(), "light, medium, strong") {
		t.Fatalf("expected available presets in error, got %v", err)
	}
}

func TestPresetTable(t *testing.T) {
	for _, name := range plan.PresetNames() {
		cfg, ok := plan.Lookup(plan.Preset(name))
		if !ok {
			t.Fatalf("preset %q missing from table", name)
		}
		if cfg.MaxHeight <= 0 || cfg.CRF <= 0 || cfg.Speed == "" {
			t.Fatalf("preset %q has incomplete config: %+v", name, cfg)
		}
		if !strings.HasPrefix(cfg.ScaleFilter(), "scale=-2:") {
			t.Fatalf("unexpected scale filter %q", cfg.ScaleFilter())
		}
	}
}
