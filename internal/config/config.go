package config

import (
	"fmt"
	"os"
	"path/filepath"
)

const CurrentVersion = 1

// Config holds the persisted sessionbook settings.
type Config struct {
	Version        int    `json:"version"`
	HighlightStyle string `json:"highlightStyle"`
	OutputDirName  string `json:"outputDirName"`
	ClaudeDir      string `json:"claudeDir,omitempty"`
}

// Default returns the settings used when no config file exists yet.
func Default() Config {
	return Config{
		Version:        CurrentVersion,
		HighlightStyle: "friendly",
		OutputDirName:  ".sessionbook",
	}
}

// applyDefaults fills fields a hand-edited file may have dropped.
func (c *Config) applyDefaults() {
	if c.Version == 0 {
		c.Version = CurrentVersion
	}
	if c.HighlightStyle == "" {
		c.HighlightStyle = "friendly"
	}
	if c.OutputDirName == "" {
		c.OutputDirName = ".sessionbook"
	}
}

// DefaultPath locates the config file under the platform config dir.
func DefaultPath() (string, error) {
	base, err := os.UserConfigDir()
	if err != nil {
		return "", fmt.Errorf("resolve config dir: %w", err)
	}
	return filepath.Join(base, "sessionbook", "config.json"), nil
}
