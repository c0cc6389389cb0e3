package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func TestLoadConfigMissingFile(t *testing.T) {
	cfg, err := LoadConfig(filepath.Join(t.TempDir(), "absent.toml"))
	if err != nil {
		t.Fatalf("expected no error for missing file, got %v", err)
	}
	if cfg.Backend.URL != nil || len(cfg.Lessons) != 0 {
		t.Fatalf("expected empty config, got %+v", cfg)
	}
}

func TestLoadConfigDecodesSections(t *testing.T) {
	path := writeConfig(t, `
[backend]
url = "http://127.0.0.1:5001"

[selection]
lesson = "lesson_03a_shoot"
exercise = 6

[[lessons]]
id = "lesson_03a_shoot"
title = "Shooting"
exercises = 6

[editor]
theme = "plain"
indent-unit = 2

[ui]
discard-stale = true
`)
	cfg, err := LoadConfig(path)
	if err != nil {
		t.Fatalf("load config: %v", err)
	}
	if cfg.Backend.URL == nil || *cfg.Backend.URL != "http://127.0.0.1:5001" {
		t.Fatalf("unexpected backend url: %v", cfg.Backend.URL)
	}
	if cfg.Selection.Exercise == nil || *cfg.Selection.Exercise != 6 {
		t.Fatalf("unexpected exercise: %v", cfg.Selection.Exercise)
	}
	if len(cfg.Lessons) != 1 || cfg.Lessons[0].Title != "Shooting" {
		t.Fatalf("unexpected lessons: %+v", cfg.Lessons)
	}
	if cfg.Editor.IndentUnit == nil || *cfg.Editor.IndentUnit != 2 {
		t.Fatalf("unexpected indent unit: %v", cfg.Editor.IndentUnit)
	}
	if cfg.Editor.LineNumbers != nil {
		t.Fatalf("expected unset line-numbers to stay nil")
	}
	if cfg.UI.DiscardStale == nil || !*cfg.UI.DiscardStale {
		t.Fatalf("expected discard-stale to be set")
	}
}

func TestLoadConfigRejectsUnknownKeys(t *testing.T) {
	path := writeConfig(t, "[backend]\nadress = \"x\"\n")
	_, err := LoadConfig(path)
	if err == nil || !strings.Contains(err.Error(), "backend.adress") {
		t.Fatalf("expected unknown key error, got %v", err)
	}
}

func TestLoadConfigRejectsLessonWithoutExercises(t *testing.T) {
	path := writeConfig(t, "[[lessons]]\nid = \"lesson_01\"\n")
	if _, err := LoadConfig(path); err == nil {
		t.Fatalf("expected error for lesson without exercises")
	}
}

func writeConfig(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.toml")
	if err := os.WriteFile(path, []byte(body), 0o644); err != nil {
		t.Fatalf("write config: %v", err)
	}
	return path
}
