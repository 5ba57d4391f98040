package ffmpeg_test

import (
	"context"
	"errors"
	"fmt"
	"os"
	osexec "os/exec"
	"path/filepath"
	"slices"
	"strings"
	"testing"

	"squeeze/internal/plan"
	"squeeze/internal/services"
	"squeeze/internal/services/ffmpeg"
)

type stubExecutor struct {
	lines   []string
	errs    []error
	calls   int
	args    [][]string
	scratch []string
}

func (s *stubExecutor) Run(ctx context.Context, binary string, args []string, onLine services.LineSink) error {
	call := s.calls
	s.calls++
	s.args = append(s.args, append([]string(nil), args...))
	if prefix := passLogPrefix(args); prefix != "" {
		s.scratch = append(s.scratch, prefix)
	}
	if onLine != nil {
		for _, line := range s.lines {
			onLine(line)
		}
	}
	if call < len(s.errs) {
		return s.errs[call]
	}
	return nil
}

func passLogPrefix(args []string) string {
	for i, arg := range args {
		if arg == "-passlogfile" && i+1 < len(args) {
			return args[i+1]
		}
	}
	return ""
}

func mediumPreset(t *testing.T) plan.PresetConfig {
	t.Helper()
	cfg, ok := plan.Lookup(plan.PresetMedium)
	if !ok {
		t.Fatal("medium preset missing")
	}
	return cfg
}

func newClient(t *testing.T, exec *stubExecutor) *ffmpeg.Client {
	t.Helper()
	client, err := ffmpeg.New("ffmpeg", t.TempDir(), 60, ffmpeg.WithExecutor(exec))
	if err != nil {
		t.Fatalf("New returned error: %v", err)
	}
	return client
}

func TestEncodePresetInvokesOnce(t *testing.T) {
	exec := &stubExecutor{lines: []string{"frame=  100 fps= 25"}}
	client := newClient(t, exec)

	var got []string
	req := ffmpeg.Request{InputPath: "in.mp4", OutputPath: "out.mp4", ScaleFilter: "scale=-2:720"}
	err := client.EncodePreset(context.Background(), req, mediumPreset(t), 96, func(line string) {
		got = append(got, line)
	})
	if err != nil {
		t.Fatalf("EncodePreset returned error: %v", err)
	}
	if exec.calls != 1 {
		t.Fatalf("expected exactly one invocation, got %d", exec.calls)
	}
	if len(got) != 1 || !strings.Contains(got[0], "frame=") {
		t.Fatalf("expected streamed output line, got %v", got)
	}

	args := exec.args[0]
	for _, want := range []string{"-crf", "23", "-vf", "scale=-2:720", "-c:a", "aac", "-b:a", "96k", "out.mp4"} {
		if !slices.Contains(args, want) {
			t.Fatalf("expected arg %q in %v", want, args)
		}
	}
	if slices.Contains(args, "-pass") {
		t.Fatalf("preset encode must not use two-pass flags: %v", args)
	}
}

func TestEncodePresetWrapsFailure(t *testing.T) {
	exec := &stubExecutor{errs: []error{errors.New("exit status 1")}}
	client := newClient(t, exec)

	err := client.EncodePreset(context.Background(), ffmpeg.Request{InputPath: "a", OutputPath: "b"}, mediumPreset(t), 96, nil)
	var encodeErr *ffmpeg.EncodeError
	if !errors.As(err, &encodeErr) {
		t.Fatalf("expected EncodeError, got %v", err)
	}
	if encodeErr.Pass != 0 {
		t.Fatalf("expected pass 0 for single-pass, got %d", encodeErr.Pass)
	}
}

func TestEncodeTwoPassSequencing(t *testing.T) {
	exec := &stubExecutor{}
	client := newClient(t, exec)

	bitrate := plan.BitratePlan{TotalKbps: 1365, AudioKbps: 128, VideoKbps: 1237}
	req := ffmpeg.Request{InputPath: "in.mp4", OutputPath: "out.mp4"}
	var passes []int
	err := client.EncodeTwoPass(context.Background(), req, bitrate, "slow", nil, func(pass int) {
		passes = append(passes, pass)
	})
	if err != nil {
		t.Fatalf("EncodeTwoPass returned error: %v", err)
	}
	if len(passes) != 2 || passes[0] != 1 || passes[1] != 2 {
		t.Fatalf("expected pass notifications [1 2], got %v", passes)
	}
	if exec.calls != 2 {
		t.Fatalf("expected two invocations, got %d", exec.calls)
	}

	pass1 := exec.args[0]
	pass2 := exec.args[1]
	if !slices.Contains(pass1, "-an") || pass1[len(pass1)-1] != os.DevNull {
		t.Fatalf("pass 1 must drop audio and discard output: %v", pass1)
	}
	if !slices.Contains(pass1, "1") || !slices.Contains(pass2, "2") {
		t.Fatalf("expected pass numbers in args: %v / %v", pass1, pass2)
	}
	for _, want := range []string{"-b:v", "1237k", "-b:a", "128k", "out.mp4"} {
		if !slices.Contains(pass2, want) {
			t.Fatalf("expected %q in pass 2 args %v", want, pass2)
		}
	}
	if len(exec.scratch) != 2 || exec.scratch[0] != exec.scratch[1] {
		t.Fatalf("both passes must share one passlog prefix: %v", exec.scratch)
	}
	// The scratch directory is removed once the job finishes.
	if _, err := os.Stat(filepath.Dir(exec.scratch[0])); !errors.Is(err, os.ErrNotExist) {
		t.Fatalf("expected scratch dir removed, stat err=%v", err)
	}
}

func TestEncodeTwoPassStopsAfterFirstFailure(t *testing.T) {
	exec := &stubExecutor{errs: []error{errors.New("exit status 187")}}
	client := newClient(t, exec)

	bitrate := plan.BitratePlan{TotalKbps: 500, AudioKbps: 96, VideoKbps: 404}
	var passes []int
	err := client.EncodeTwoPass(context.Background(), ffmpeg.Request{InputPath: "a", OutputPath: "b"}, bitrate, "slow", nil, func(pass int) {
		passes = append(passes, pass)
	})

	var encodeErr *ffmpeg.EncodeError
	if !errors.As(err, &encodeErr) {
		t.Fatalf("expected EncodeError, got %v", err)
	}
	if encodeErr.Pass != 1 {
		t.Fatalf("expected failure attributed to pass 1, got %d", encodeErr.Pass)
	}
	if exec.calls != 1 {
		t.Fatalf("pass 2 must not run after pass 1 failure, got %d calls", exec.calls)
	}
	if len(passes) != 1 || passes[0] != 1 {
		t.Fatalf("expected only pass 1 notified, got %v", passes)
	}
	if _, statErr := os.Stat(filepath.Dir(exec.scratch[0])); !errors.Is(statErr, os.ErrNotExist) {
		t.Fatalf("expected scratch cleanup after failure, stat err=%v", statErr)
	}
}

func TestEncodeTwoPassReportsSecondPassFailure(t *testing.T) {
	exec := &stubExecutor{errs: []error{nil, errors.New("exit status 1")}}
	client := newClient(t, exec)

	bitrate := plan.BitratePlan{TotalKbps: 500, AudioKbps: 96, VideoKbps: 404}
	err := client.EncodeTwoPass(context.Background(), ffmpeg.Request{InputPath: "a", OutputPath: "b"}, bitrate, "slow", nil, nil)

	var encodeErr *ffmpeg.EncodeError
	if !errors.As(err, &encodeErr) || encodeErr.Pass != 2 {
		t.Fatalf("expected pass 2 EncodeError, got %v", err)
	}
	if exec.calls != 2 {
		t.Fatalf("expected both passes attempted, got %d", exec.calls)
	}
}

func TestEncodeTwoPassRejectsDegenerateBitrate(t *testing.T) {
	client := newClient(t, &stubExecutor{})
	err := client.EncodeTwoPass(context.Background(), ffmpeg.Request{InputPath: "a", OutputPath: "b"}, plan.BitratePlan{}, "slow", nil, nil)
	if !errors.Is(err, services.ErrValidation) {
		t.Fatalf("expected validation error, got %v", err)
	}
}

func TestEncodeReportsMissingBinaryAsConfigError(t *testing.T) {
	notFound := fmt.Errorf("start command: %w", &osexec.Error{Name: "ffmpeg", Err: osexec.ErrNotFound})
	exec := &stubExecutor{errs: []error{notFound, notFound}}
	client := newClient(t, exec)

	err := client.EncodePreset(context.Background(), ffmpeg.Request{InputPath: "a", OutputPath: "b"}, mediumPreset(t), 96, nil)
	if !errors.Is(err, services.ErrConfiguration) {
		t.Fatalf("expected configuration error for missing binary, got %v", err)
	}
	var encodeErr *ffmpeg.EncodeError
	if errors.As(err, &encodeErr) {
		t.Fatalf("missing binary must not classify as encode failure: %v", err)
	}

	bitrate := plan.BitratePlan{TotalKbps: 500, AudioKbps: 96, VideoKbps: 404}
	err = client.EncodeTwoPass(context.Background(), ffmpeg.Request{InputPath: "a", OutputPath: "b"}, bitrate, "slow", nil, nil)
	if !errors.Is(err, services.ErrConfiguration) {
		t.Fatalf("expected configuration error for missing binary, got %v", err)
	}
}

func TestCleanupScratchIdempotent(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "twopass-x")
	if err := os.MkdirAll(dir, 0o755); err != nil {
		t.Fatalf("mkdir: %v", err)
	}
	if err := os.WriteFile(filepath.Join(dir, "passlog-0.log"), []byte("stats"), 0o644); err != nil {
		t.Fatalf("write passlog: %v", err)
	}

	if err := ffmpeg.CleanupScratch(dir); err != nil {
		t.Fatalf("first cleanup failed: %v", err)
	}
	if err := ffmpeg.CleanupScratch(dir); err != nil {
		t.Fatalf("second cleanup must not error: %v", err)
	}
	if err := ffmpeg.CleanupScratch(""); err != nil {
		t.Fatalf("empty dir cleanup must not error: %v", err)
	}
}

func TestNewValidatesArguments(t *testing.T) {
	if _, err := ffmpeg.New("", t.TempDir(), 60); err == nil {
		t.Fatal("expected error for missing binary")
	}
	if _, err := ffmpeg.New("ffmpeg", "", 60); err == nil {
		t.Fatal("expected error for missing scratch dir")
	}
}
