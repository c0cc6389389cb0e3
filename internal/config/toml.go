// Package config provides configuration helpers and TOML parsing.
package config

import (
	"fmt"
	"os"

	"github.com/BurntSushi/toml"
)

// FileConfig represents the TOML configuration file.
type FileConfig struct {
	Backend   BackendConfig   `toml:"backend"`
	Selection SelectionConfig `toml:"selection"`
	Lessons   []LessonConfig  `toml:"lessons"`
	Editor    EditorConfig    `toml:"editor"`
	UI        UIConfig        `toml:"ui"`
	History   HistoryConfig   `toml:"history"`
	Log       LogConfig       `toml:"log"`
}

// BackendConfig locates the checker backend.
type BackendConfig struct {
	URL *string `toml:"url"`
}

// SelectionConfig holds the initial selector state.
type SelectionConfig struct {
	Lesson   *string `toml:"lesson"`
	Exercise *int    `toml:"exercise"`
}

// LessonConfig is one lesson selector option.
type LessonConfig struct {
	ID        string `toml:"id"`
	Title     string `toml:"title"`
	Exercises int    `toml:"exercises"`
}

// EditorConfig maps editor settings.
type EditorConfig struct {
	LineNumbers    *bool   `toml:"line-numbers"`
	Mode           *string `toml:"mode"`
	Theme          *string `toml:"theme"`
	IndentUnit     *int    `toml:"indent-unit"`
	IndentWithTabs *bool   `toml:"indent-with-tabs"`
	LineWrapping   *bool   `toml:"line-wrapping"`
}

// UIConfig maps controller behavior toggles.
type UIConfig struct {
	DiscardStale *bool `toml:"discard-stale"`
}

// HistoryConfig maps history settings.
type HistoryConfig struct {
	Enabled *bool `toml:"enabled"`
}

// LogConfig maps logging settings.
type LogConfig struct {
	Level *string `toml:"level"`
}

// LoadConfig reads a TOML config from the given path. Missing file is not an error.
func LoadConfig(path string) (FileConfig, error) {
	if path == "" {
		return FileConfig{}, fmt.Errorf("config path is empty")
	}
	if _, err := os.Stat(path); err != nil {
		if os.IsNotExist(err) {
			return FileConfig{}, nil
		}
		return FileConfig{}, fmt.Errorf("failed to stat config: %w", err)
	}
	var cfg FileConfig
	meta, err := toml.DecodeFile(path, &cfg)
	if err != nil {
		return FileConfig{}, fmt.Errorf("failed to decode config: %w", err)
	}
	if undecoded := meta.Undecoded(); len(undecoded) > 0 {
		return FileConfig{}, fmt.Errorf("unknown config key %q", undecoded[0].String())
	}
	for i, lesson := range cfg.Lessons {
		if lesson.ID == "" {
			return FileConfig{}, fmt.Errorf("lessons[%d]: id must not be empty", i)
		}
		if lesson.Exercises < 1 {
			return FileConfig{}, fmt.Errorf("lessons[%d]: exercises must be >= 1", i)
		}
	}
	return cfg, nil
}
