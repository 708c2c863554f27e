// Package config handles objbake configuration loading and management.
package config

import (
	"errors"
	"fmt"
	"time"

	"github.com/Carmen-Shannon/oxy-mesh/engine/renderer/material"
)

// Config holds all bake settings.
type Config struct {
	Mesh      MeshConfig      `yaml:"mesh"`
	Materials MaterialsConfig `yaml:"materials"`
	GPU       GPUConfig       `yaml:"gpu"`
	Logging   LoggingConfig   `yaml:"logging"`
}

// MeshConfig holds the mesh source and parse settings.
type MeshConfig struct {
	Path         string        `yaml:"path"`          // File path or http(s) URL of the mesh source
	GlobalTiling bool          `yaml:"global_tiling"` // Use the whole-file texcoord extent for every corner
	FetchTimeout time.Duration `yaml:"fetch_timeout"` // Timeout for remote mesh and image sources
}

// MaterialsConfig holds material texture array settings.
type MaterialsConfig struct {
	BaseDir      string            `yaml:"base_dir"`
	DefaultImage string            `yaml:"default_image"`
	Width        uint32            `yaml:"width"`
	Height       uint32            `yaml:"height"`
	ResizeMode   string            `yaml:"resize_mode"` // center or stretch
	Workers      int               `yaml:"workers"`     // 0 uses one worker per CPU
	Sources      map[string]string `yaml:"sources"`     // Material name to image locator
}

// GPUConfig holds device acquisition settings.
type GPUConfig struct {
	Label                string `yaml:"label"`
	ForceFallbackAdapter bool   `yaml:"force_fallback_adapter"`
	CompileShaders       bool   `yaml:"compile_shaders"` // Compile the mesh shaders to SPIR-V as a sanity check
}

// LoggingConfig holds logging settings.
type LoggingConfig struct {
	Level   string `yaml:"level"`
	LogFile string `yaml:"log_file"`
}

// Default returns a Config with sensible default values.
func Default() *Config {
	return &Config{
		Mesh: MeshConfig{
			FetchTimeout: 30 * time.Second,
		},
		Materials: MaterialsConfig{
			BaseDir:      "img/materials/",
			DefaultImage: material.DefaultImage,
			Width:        material.DefaultWidth,
			Height:       material.DefaultHeight,
			ResizeMode:   material.ResizeCenter.String(),
		},
		GPU: GPUConfig{
			Label:          "objbake",
			CompileShaders: true,
		},
		Logging: LoggingConfig{
			Level: "info",
		},
	}
}

// Validate reports settings that would fail later in the pipeline.
//
// Returns:
//   - error: every problem found joined together, or nil
func (c *Config) Validate() error {
	var errs []error
	if c.Mesh.Path == "" {
		errs = append(errs, errors.New("mesh.path is required"))
	}
	if c.Materials.Width == 0 || c.Materials.Height == 0 {
		errs = append(errs, fmt.Errorf("materials resolution %dx%d must be positive", c.Materials.Width, c.Materials.Height))
	}
	if _, err := material.ParseResizeMode(c.Materials.ResizeMode); err != nil {
		errs = append(errs, fmt.Errorf("materials.resize_mode: %w", err))
	}
	if c.Materials.Workers < 0 {
		errs = append(errs, fmt.Errorf("materials.workers %d must not be negative", c.Materials.Workers))
	}
	if c.Mesh.FetchTimeout < 0 {
		errs = append(errs, fmt.Errorf("mesh.fetch_timeout %s must not be negative", c.Mesh.FetchTimeout))
	}
	return errors.Join(errs...)
}
