package main

import (
	"context"
	"io"
	"os"
	"path/filepath"
	"testing"
)

func TestPresetsCommand(t *testing.T) {
	out, _, err := runCLI(t, []string{"presets"}, "")
	if err != nil {
		t.Fatalf("presets: %v", err)
	}
	for _, name := range []string{"light", "medium", "strong"} {
		requireContains(t, out, name)
	}
}

func TestVersionCommand(t *testing.T) {
	out, _, err := runCLI(t, []string{"version"}, "")
	if err != nil {
		t.Fatalf("version: %v", err)
	}
	requireContains(t, out, "squeeze")
}

func TestConfigInitAndPath(t *testing.T) {
	env := setupCLITestEnv(t)

	target := filepath.Join(t.TempDir(), "config.toml")
	out, _, err := runCLI(t, []string{"config", "init", "--path", target}, "")
	if err != nil {
		t.Fatalf("config init: %v", err)
	}
	requireContains(t, out, "Wrote sample configuration")
	if _, err := os.Stat(target); err != nil {
		t.Fatalf("expected config file at %s: %v", target, err)
	}

	// init refuses to clobber without --overwrite
	if _, _, err := runCLI(t, []string{"config", "init", "--path", target}, ""); err == nil {
		t.Fatal("expected error for existing config file")
	}

	out, _, err = runCLI(t, []string{"config", "path"}, env.configPath)
	if err != nil {
		t.Fatalf("config path: %v", err)
	}
	requireContains(t, out, env.configPath)
}

func TestConfigShow(t *testing.T) {
	env := setupCLITestEnv(t)

	out, _, err := runCLI(t, []string{"config", "show"}, env.configPath)
	if err != nil {
		t.Fatalf("config show: %v", err)
	}
	requireContains(t, out, filepath.Join(env.baseDir, "downloads"))
	requireContains(t, out, "yt-dlp")
}

func TestHistoryListEmpty(t *testing.T) {
	env := setupCLITestEnv(t)

	out, _, err := runCLI(t, []string{"history", "list"}, env.configPath)
	if err != nil {
		t.Fatalf("history list: %v", err)
	}
	requireContains(t, out, "No jobs recorded yet")
}

func TestCompressRejectsUnsupportedExtension(t *testing.T) {
	env := setupCLITestEnv(t)
	path := filepath.Join(env.baseDir, "notes.txt")
	if err := os.WriteFile(path, []byte("text"), 0o644); err != nil {
		t.Fatalf("write file: %v", err)
	}

	_, _, err := runCLI(t, []string{"compress", path}, env.configPath)
	if err == nil {
		t.Fatal("expected error for unsupported extension")
	}
	requireContains(t, err.Error(), "unsupported file extension")
}

func TestCompressRejectsMissingFile(t *testing.T) {
	env := setupCLITestEnv(t)

	_, _, err := runCLI(t, []string{"compress", filepath.Join(env.baseDir, "missing.mp4")}, env.configPath)
	if err == nil {
		t.Fatal("expected error for missing file")
	}
	requireContains(t, err.Error(), "does not exist")
}

func TestExecuteContextCancellationReachesCommands(t *testing.T) {
	env := setupCLITestEnv(t)
	path := filepath.Join(env.baseDir, "clip.mp4")
	if err := os.WriteFile(path, []byte("video"), 0o644); err != nil {
		t.Fatalf("write file: %v", err)
	}

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	cmd := newRootCommand()
	cmd.SetOut(io.Discard)
	cmd.SetErr(io.Discard)
	cmd.SetArgs([]string{"--config", env.configPath, "compress", path})
	if err := cmd.ExecuteContext(ctx); err == nil {
		t.Fatal("expected failure under a cancelled context")
	}
}

func TestTruncateKeepsRuneBoundaries(t *testing.T) {
	in := "vidéo très longue à compresser"
	out := truncate(in, 10)
	if len([]rune(out)) != 10 {
		t.Fatalf("expected 10 runes, got %d (%q)", len([]rune(out)), out)
	}
	for _, r := range out {
		if r == '�' {
			t.Fatalf("truncation split a rune: %q", out)
		}
	}
	if got := truncate("short", 10); got != "short" {
		t.Fatalf("expected passthrough, got %q", got)
	}
}

func TestDownloadRejectsInvalidURL(t *testing.T) {
	env := setupCLITestEnv(t)

	_, _, err := runCLI(t, []string{"download", "not a url"}, env.configPath)
	if err == nil {
		t.Fatal("expected error for invalid url")
	}
	requireContains(t, err.Error(), "invalid url")
}
