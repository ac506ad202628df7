package main

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func TestConfigInitWritesSample(t *testing.T) {
	target := filepath.Join(t.TempDir(), "nested", "config.toml")

	stdout, _, err := runCLI(t, []string{"config", "init", "--path", target}, "")
	if err != nil {
		t.Fatalf("config init failed: %v", err)
	}
	requireContains(t, stdout, "Wrote sample configuration to "+target)

	data, err := os.ReadFile(target)
	if err != nil {
		t.Fatalf("read sample config: %v", err)
	}
	requireContains(t, string(data), "[mpd]")
	requireContains(t, string(data), "[commentary]")
}

func TestConfigInitRefusesToOverwrite(t *testing.T) {
	target := filepath.Join(t.TempDir(), "config.toml")
	if err := os.WriteFile(target, []byte("# existing\n"), 0o644); err != nil {
		t.Fatalf("seed existing config: %v", err)
	}

	_, _, err := runCLI(t, []string{"config", "init", "--path", target}, "")
	if err == nil {
		t.Fatal("expected error when target already exists")
	}
	requireContains(t, err.Error(), "already exists")

	data, err := os.ReadFile(target)
	if err != nil {
		t.Fatalf("read config: %v", err)
	}
	if string(data) != "# existing\n" {
		t.Fatal("expected existing config to be left untouched")
	}

	if _, _, err := runCLI(t, []string{"config", "init", "--path", target, "--overwrite"}, ""); err != nil {
		t.Fatalf("config init --overwrite failed: %v", err)
	}
	data, err = os.ReadFile(target)
	if err != nil {
		t.Fatalf("read overwritten config: %v", err)
	}
	requireContains(t, string(data), "[mpd]")
}

func TestConfigInitUsesDefaultLocation(t *testing.T) {
	home := t.TempDir()
	t.Setenv("HOME", home)

	stdout, _, err := runCLI(t, []string{"config", "init"}, "")
	if err != nil {
		t.Fatalf("config init failed: %v", err)
	}
	expected := filepath.Join(home, ".config", "liner", "config.toml")
	requireContains(t, stdout, expected)
	if _, err := os.Stat(expected); err != nil {
		t.Fatalf("expected sample config at %s: %v", expected, err)
	}
}

func TestConfigShowPrintsSettings(t *testing.T) {
	env := setupCLITestEnv(t)

	stdout, _, err := runCLI(t, []string{"config", "show"}, env.configPath)
	if err != nil {
		t.Fatalf("config show failed: %v", err)
	}
	requireContains(t, stdout, "[mpd]")
	requireContains(t, stdout, "[storage]")
}

func TestConfigPathPrintsResolvedPath(t *testing.T) {
	env := setupCLITestEnv(t)

	stdout, _, err := runCLI(t, []string{"config", "path"}, env.configPath)
	if err != nil {
		t.Fatalf("config path failed: %v", err)
	}
	if got := strings.TrimSpace(stdout); got != env.configPath {
		t.Fatalf("expected resolved path %q, got %q", env.configPath, got)
	}
}
