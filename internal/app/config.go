// Package app provides configuration management for the NES emulator core.
package app

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
)

// Region selects the console timing model. Only NTSC is actually
// implemented; PAL/Dendy are named here so config files can round-trip a
// value, but validate rejects anything else (spec Non-goals: PAL/Dendy
// timing is out of scope).
type Region string

const (
	RegionNTSC  Region = "NTSC"
	RegionPAL   Region = "PAL"
	RegionDendy Region = "Dendy"
)

// EngineConfig holds the engine's own tunables, narrowed from the
// teacher's window/video/audio/input GUI config down to what a headless
// emulation core actually reads: timing region, audio resample target, the
// documented unstable-opcode behavior, the documented power-on RAM fill
// pattern, and save-state slot count.
type EngineConfig struct {
	Region              Region `json:"region"`
	SampleRate          int    `json:"sample_rate"`
	UnstableOpcodeModel string `json:"unstable_opcode_model"`
	PowerOnRAMPattern   string `json:"power_on_ram_pattern"`
	SaveStateSlots      int    `json:"save_state_slots"`

	configPath string
	loaded     bool
}

// NewEngineConfig returns the engine's defaults: NTSC timing, 44.1kHz audio
// resampling, the "magic-constant" unstable-opcode behavior, an
// all-zero power-on RAM fill, and 10 save state slots.
func NewEngineConfig() *EngineConfig {
	return &EngineConfig{
		Region:              RegionNTSC,
		SampleRate:          44100,
		UnstableOpcodeModel: "magic-constant",
		PowerOnRAMPattern:   "zero",
		SaveStateSlots:      10,
	}
}

// LoadFromFile loads configuration from a JSON file, writing out the
// current (default, unless already customized) config if the file doesn't
// exist yet.
func (c *EngineConfig) LoadFromFile(path string) error {
	c.configPath = path

	if _, err := os.Stat(path); os.IsNotExist(err) {
		return c.SaveToFile(path)
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("reading config file: %w", err)
	}
	if err := json.Unmarshal(data, c); err != nil {
		return fmt.Errorf("parsing config file: %w", err)
	}
	if err := c.validate(); err != nil {
		return fmt.Errorf("invalid configuration: %w", err)
	}

	c.loaded = true
	return nil
}

// SaveToFile writes the configuration to a JSON file.
func (c *EngineConfig) SaveToFile(path string) error {
	if dir := filepath.Dir(path); dir != "" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("creating config directory: %w", err)
		}
	}

	data, err := json.MarshalIndent(c, "", "  ")
	if err != nil {
		return fmt.Errorf("marshaling config: %w", err)
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("writing config file: %w", err)
	}

	c.configPath = path
	return nil
}

// Save writes the configuration back to the file it was loaded from.
func (c *EngineConfig) Save() error {
	if c.configPath == "" {
		return fmt.Errorf("no config file path set")
	}
	return c.SaveToFile(c.configPath)
}

// validate rejects unsupported region/pattern/model values and fills in
// sane defaults for anything left unset by a hand-edited config file.
func (c *EngineConfig) validate() error {
	switch c.Region {
	case RegionNTSC:
		// the only implemented region
	case RegionPAL, RegionDendy:
		return fmt.Errorf("region %q is not implemented, only NTSC runs cycle-accurate timing", c.Region)
	case "":
		c.Region = RegionNTSC
	default:
		return fmt.Errorf("unknown region %q", c.Region)
	}

	if c.SampleRate <= 0 {
		c.SampleRate = 44100
	}

	if c.UnstableOpcodeModel == "" {
		c.UnstableOpcodeModel = "magic-constant"
	} else if c.UnstableOpcodeModel != "magic-constant" {
		return fmt.Errorf("unstable opcode model %q is not implemented", c.UnstableOpcodeModel)
	}

	if c.PowerOnRAMPattern == "" {
		c.PowerOnRAMPattern = "zero"
	} else if c.PowerOnRAMPattern != "zero" {
		return fmt.Errorf("power-on RAM pattern %q is not implemented", c.PowerOnRAMPattern)
	}

	if c.SaveStateSlots <= 0 {
		c.SaveStateSlots = 10
	}

	return nil
}

// IsLoaded reports whether the configuration was loaded from a file (as
// opposed to defaults that were never read or saved).
func (c *EngineConfig) IsLoaded() bool { return c.loaded }

// GetConfigPath returns the path the config was loaded from or saved to.
func (c *EngineConfig) GetConfigPath() string { return c.configPath }

// Clone deep-copies the configuration via JSON round-trip, the same
// technique the teacher's Config.Clone uses.
func (c *EngineConfig) Clone() *EngineConfig {
	data, err := json.Marshal(c)
	if err != nil {
		return NewEngineConfig()
	}
	clone := &EngineConfig{}
	if err := json.Unmarshal(data, clone); err != nil {
		return NewEngineConfig()
	}
	clone.configPath = c.configPath
	clone.loaded = c.loaded
	return clone
}

// GetDefaultConfigPath returns the default configuration file path.
func GetDefaultConfigPath() string { return "./config/gones.json" }

// ConfigError represents a configuration field that failed validation.
type ConfigError struct {
	Field string
	Value interface{}
	Err   error
}

func (e *ConfigError) Error() string {
	return fmt.Sprintf("config error in field %q with value %v: %v", e.Field, e.Value, e.Err)
}
