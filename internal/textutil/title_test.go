package textutil_test

import (
	"testing"

	"squeeze/internal/textutil"
)

func TestDisplayTitle(t *testing.T) {
	cases := []struct {
		path string
		want string
	}{
		{"/tmp/dl/my_holiday.video-2024.mp4", "My Holiday Video 2024"},
		{"clip.mkv", "Clip"},
		{"", "Unknown Video"},
		{"/tmp/___.mp4", "Unknown Video"},
	}
	for _, tc := range cases {
		if got := textutil.DisplayTitle(tc.path); got != tc.want {
			t.Fatalf("DisplayTitle(%q) = %q, want %q", tc.path, got, tc.want)
		}
	}
}
