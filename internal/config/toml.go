// Package config provides configuration helpers and TOML parsing.
package config

import (
	"fmt"
	"os"

	"github.com/BurntSushi/toml"
)

// FileConfig represents the TOML configuration file.
type FileConfig struct {
	Chart     ChartConfig     `toml:"chart"`
	Render    RenderConfig    `toml:"render"`
	Animation AnimationConfig `toml:"animation"`
}

// ChartConfig maps chart-related settings.
type ChartConfig struct {
	Function     *string   `toml:"function"`
	XMin         *float64  `toml:"x-min"`
	XMax         *float64  `toml:"x-max"`
	Steps        *int      `toml:"steps"`
	Subdivisions *int      `toml:"subdivisions"`
	Amplitude    *float64  `toml:"amplitude"`
	Frequency    *float64  `toml:"frequency"`
	Phase        *float64  `toml:"phase"`
	Show         *[]string `toml:"show"`
}

// RenderConfig maps SVG output settings.
type RenderConfig struct {
	Width     *float64 `toml:"width"`
	Height    *float64 `toml:"height"`
	ExportDir *string  `toml:"export-dir"`
}

// AnimationConfig maps explorer animation settings.
type AnimationConfig struct {
	Target     *string  `toml:"target"`
	Step       *float64 `toml:"step"`
	IntervalMs *int     `toml:"interval-ms"`
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
	md, err := toml.DecodeFile(path, &cfg)
	if err != nil {
		return FileConfig{}, fmt.Errorf("failed to decode config: %w", err)
	}
	if undecoded := md.Undecoded(); len(undecoded) > 0 {
		return FileConfig{}, fmt.Errorf("unknown config key %q", undecoded[0].String())
	}
	return cfg, nil
}
