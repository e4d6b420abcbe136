package app

import (
	"os"
	"path/filepath"
	"testing"
)

func TestNewEngineConfigDefaults(t *testing.T) {
	c := NewEngineConfig()
	if c.Region != RegionNTSC {
		t.Errorf("default Region = %q, want NTSC", c.Region)
	}
	if c.SampleRate != 44100 {
		t.Errorf("default SampleRate = %d, want 44100", c.SampleRate)
	}
	if c.SaveStateSlots != 10 {
		t.Errorf("default SaveStateSlots = %d, want 10", c.SaveStateSlots)
	}
}

func TestValidateRejectsUnimplementedRegions(t *testing.T) {
	tests := []struct {
		name    string
		region  Region
		wantErr bool
	}{
		{"ntsc ok", RegionNTSC, false},
		{"pal rejected", RegionPAL, true},
		{"dendy rejected", RegionDendy, true},
		{"empty defaults to ntsc", "", false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := NewEngineConfig()
			c.Region = tt.region
			err := c.validate()
			if (err != nil) != tt.wantErr {
				t.Errorf("validate() error = %v, wantErr %v", err, tt.wantErr)
			}
		})
	}
}

func TestSaveAndLoadFromFileRoundTrips(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.json")

	c := NewEngineConfig()
	c.SampleRate = 48000
	c.SaveStateSlots = 4
	if err := c.SaveToFile(path); err != nil {
		t.Fatalf("SaveToFile: %v", err)
	}

	loaded := &EngineConfig{}
	if err := loaded.LoadFromFile(path); err != nil {
		t.Fatalf("LoadFromFile: %v", err)
	}
	if loaded.SampleRate != 48000 || loaded.SaveStateSlots != 4 {
		t.Errorf("loaded config = %+v, want SampleRate=48000 SaveStateSlots=4", loaded)
	}
}

func TestLoadFromFileWritesDefaultsWhenMissing(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "nonexistent.json")

	c := NewEngineConfig()
	if err := c.LoadFromFile(path); err != nil {
		t.Fatalf("LoadFromFile: %v", err)
	}
	if _, err := os.Stat(path); err != nil {
		t.Errorf("expected LoadFromFile to write a default config file: %v", err)
	}
}

func TestCloneIsIndependent(t *testing.T) {
	c := NewEngineConfig()
	clone := c.Clone()
	clone.SampleRate = 22050

	if c.SampleRate == clone.SampleRate {
		t.Error("Clone() did not produce an independent copy")
	}
}
