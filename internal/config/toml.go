// Package config provides configuration helpers and TOML parsing.
package config

import (
	"fmt"
	"os"
	"time"

	"github.com/BurntSushi/toml"
)

// FileConfig represents the TOML configuration file.
type FileConfig struct {
	Practice PracticeConfig `toml:"practice"`
	Stats    StatsConfig    `toml:"stats"`
	Paths    PathsConfig    `toml:"paths"`
}

// PracticeConfig maps practice-related settings.
type PracticeConfig struct {
	Lang        *string        `toml:"lang"`
	Mode        *string        `toml:"mode"`
	Words       *int           `toml:"words"`
	Duration    *time.Duration `toml:"duration"`
	StopOnError *bool          `toml:"stop-on-error"`
	Lesson      *int           `toml:"lesson"`
	Adaptive    *bool          `toml:"adaptive"`
	CapsPct     *float64       `toml:"caps"`
	PunctPct    *float64       `toml:"punct"`
	PunctSet    *string        `toml:"punct-set"`
	WeakTop     *int           `toml:"weak-top"`
	WeakFactor  *float64       `toml:"weak-factor"`
	WeakWindow  *int           `toml:"weak-window"`
}

// StatsConfig maps defaults for the stats command.
type StatsConfig struct {
	CurveWindow *int `toml:"curve-window"`
	Top         *int `toml:"top"`
}

// PathsConfig overrides default file locations.
type PathsConfig struct {
	Lessons   *string `toml:"lessons"`
	WordLists *string `toml:"wordlists"`
	DB        *string `toml:"db"`
	Log       *string `toml:"log"`
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
	return cfg, nil
}

// PathOr returns *p when set and non-empty, otherwise fallback.
func PathOr(p *string, fallback string) string {
	if p == nil || *p == "" {
		return fallback
	}
	return *p
}
