package config

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

// DefaultConfigPath is the path to the canonical labelling defaults file.
// This is the single source of truth for all default values.
const DefaultConfigPath = "config/teclab.defaults.json"

// Config holds the labelling session parameters. Fields are pointers so a
// partial file only overrides what it names; the Get* methods supply the
// defaults for anything left unset.
type Config struct {
	// Brush and labelling
	BrushSize   *int    `json:"brush_size,omitempty"`
	Unsure      *bool   `json:"unsure,omitempty"`
	DrawChannel *string `json:"draw_channel,omitempty"` // "r", "g" or "b"

	// Display colour scale
	VMin *float64 `json:"vmin,omitempty"`
	VMax *float64 `json:"vmax,omitempty"`

	// Raster sizes in pixels. The draw surface is usually finer than the
	// display so that brush strokes look smooth when overlaid.
	DisplaySize *int `json:"display_size,omitempty"`
	DrawSize    *int `json:"draw_size,omitempty"`

	// Grid validation
	StepTolerance *float64 `json:"step_tolerance,omitempty"`

	// Storage
	DataDir *string `json:"data_dir,omitempty"`
	DBPath  *string `json:"db_path,omitempty"`
}

// Helper functions to create pointers
func ptrFloat64(v float64) *float64 { return &v }
func ptrBool(v bool) *bool          { return &v }
func ptrString(v string) *string    { return &v }
func ptrInt(v int) *int             { return &v }

// EmptyConfig returns a Config with all fields set to nil.
// Use LoadConfig to load actual values from the defaults file.
func EmptyConfig() *Config {
	return &Config{}
}

// LoadConfig loads a Config from a JSON file.
// The file is validated to ensure it has a .json extension and is under the max file size.
// Fields omitted from the JSON file retain their default values, so
// partial configs are safe.
func LoadConfig(path string) (*Config, error) {
	cleanPath := filepath.Clean(path)
	if ext := filepath.Ext(cleanPath); ext != ".json" {
		return nil, fmt.Errorf("config file must have .json extension, got %q", ext)
	}

	// Check file size for safety (max 1MB)
	fileInfo, err := os.Stat(cleanPath)
	if err != nil {
		return nil, fmt.Errorf("failed to stat config file: %w", err)
	}
	const maxFileSize = 1 * 1024 * 1024 // 1MB
	if fileInfo.Size() > maxFileSize {
		return nil, fmt.Errorf("config file too large: %d bytes (max %d)", fileInfo.Size(), maxFileSize)
	}

	data, err := os.ReadFile(cleanPath)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	cfg := EmptyConfig()
	if err := json.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config JSON: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	return cfg, nil
}

// MustLoadDefaultConfig loads the canonical defaults from DefaultConfigPath.
// It searches for the file in the current directory and common parent directories.
// Panics if the file cannot be loaded, intended for test setup.
func MustLoadDefaultConfig() *Config {
	candidates := []string{
		DefaultConfigPath,
		"../" + DefaultConfigPath,       // from cmd/teclab/
		"../../" + DefaultConfigPath,    // from internal/config/
		"../../../" + DefaultConfigPath, // deeper packages
	}
	for _, path := range candidates {
		if cfg, err := LoadConfig(path); err == nil {
			return cfg
		}
	}
	panic("cannot find " + DefaultConfigPath + " - run tests from repository root")
}

// Validate checks that the configuration values are valid.
func (c *Config) Validate() error {
	if c.BrushSize != nil {
		if *c.BrushSize < 1 || *c.BrushSize > 99 {
			return fmt.Errorf("brush_size must be between 1 and 99, got %d", *c.BrushSize)
		}
	}

	if c.VMin != nil && c.VMax != nil && *c.VMin >= *c.VMax {
		return fmt.Errorf("vmin (%g) must be less than vmax (%g)", *c.VMin, *c.VMax)
	}

	if c.DisplaySize != nil && *c.DisplaySize < 2 {
		return fmt.Errorf("display_size must be at least 2, got %d", *c.DisplaySize)
	}
	if c.DrawSize != nil && *c.DrawSize < 2 {
		return fmt.Errorf("draw_size must be at least 2, got %d", *c.DrawSize)
	}

	if c.StepTolerance != nil && !(*c.StepTolerance > 0) {
		return fmt.Errorf("step_tolerance must be positive, got %g", *c.StepTolerance)
	}

	if c.DrawChannel != nil {
		switch strings.ToLower(*c.DrawChannel) {
		case "r", "g", "b", "red", "green", "blue":
		default:
			return fmt.Errorf("invalid draw_channel %q", *c.DrawChannel)
		}
	}

	return nil
}

// Merge returns a copy of c with every field set in o taken from o.
func (c *Config) Merge(o *Config) *Config {
	out := *c
	if o == nil {
		return &out
	}
	if o.BrushSize != nil {
		out.BrushSize = o.BrushSize
	}
	if o.Unsure != nil {
		out.Unsure = o.Unsure
	}
	if o.DrawChannel != nil {
		out.DrawChannel = o.DrawChannel
	}
	if o.VMin != nil {
		out.VMin = o.VMin
	}
	if o.VMax != nil {
		out.VMax = o.VMax
	}
	if o.DisplaySize != nil {
		out.DisplaySize = o.DisplaySize
	}
	if o.DrawSize != nil {
		out.DrawSize = o.DrawSize
	}
	if o.StepTolerance != nil {
		out.StepTolerance = o.StepTolerance
	}
	if o.DataDir != nil {
		out.DataDir = o.DataDir
	}
	if o.DBPath != nil {
		out.DBPath = o.DBPath
	}
	return &out
}

// GetBrushSize returns the brush_size value or the default.
func (c *Config) GetBrushSize() int {
	if c.BrushSize == nil {
		return 5
	}
	return *c.BrushSize
}

// GetUnsure returns the unsure value or the default.
func (c *Config) GetUnsure() bool {
	if c.Unsure == nil {
		return false
	}
	return *c.Unsure
}

// GetDrawChannel returns the draw_channel value or the default.
func (c *Config) GetDrawChannel() string {
	if c.DrawChannel == nil || *c.DrawChannel == "" {
		return "r"
	}
	return *c.DrawChannel
}

// GetVMin returns the vmin value or the default.
func (c *Config) GetVMin() float64 {
	if c.VMin == nil {
		return 0
	}
	return *c.VMin
}

// GetVMax returns the vmax value or the default.
func (c *Config) GetVMax() float64 {
	if c.VMax == nil {
		return 20
	}
	return *c.VMax
}

// GetDisplaySize returns the display_size value or the default.
func (c *Config) GetDisplaySize() int {
	if c.DisplaySize == nil {
		return 500
	}
	return *c.DisplaySize
}

// GetDrawSize returns the draw_size value or the default.
func (c *Config) GetDrawSize() int {
	if c.DrawSize == nil {
		return 1000
	}
	return *c.DrawSize
}

// GetStepTolerance returns the step_tolerance value or the default.
func (c *Config) GetStepTolerance() float64 {
	if c.StepTolerance == nil {
		return 1e-6
	}
	return *c.StepTolerance
}

// GetDataDir returns the data_dir value or the default.
func (c *Config) GetDataDir() string {
	if c.DataDir == nil || *c.DataDir == "" {
		return "data"
	}
	return *c.DataDir
}

// GetDBPath returns the db_path value or the default.
func (c *Config) GetDBPath() string {
	if c.DBPath == nil || *c.DBPath == "" {
		return "teclab.db"
	}
	return *c.DBPath
}
