// Package app provides save state functionality for the NES emulator.
package app

import (
	"encoding/gob"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"gones/internal/apu"
	"gones/internal/cpu"
	"gones/internal/ppu"

	"gones/internal/bus"
)

// StateManager manages save states.
type StateManager struct {
	saveDirectory string
	maxSlots      int
	initialized   bool
}

// SaveState represents a saved emulator state. It is gob-encoded, not
// JSON: the format is a binary snapshot of internal emulator structures
// (register files, VRAM, RAM), not a document meant for human editing.
type SaveState struct {
	Version     string
	Timestamp   time.Time
	ROMPath     string
	ROMChecksum uint32
	SlotNumber  int
	Description string

	CPU    cpu.SavedState
	PPU    ppu.SavedState
	APU    apu.SavedState
	Memory MemoryData

	FrameCount uint64
	CycleCount uint64
}

// MemoryData captures everything address-space-visible that isn't owned by
// the CPU/PPU/APU register files themselves.
type MemoryData struct {
	RAM           [0x800]uint8
	VRAM          [0x1000]uint8
	Palette       [32]uint8
	CartridgeRAM  []byte
}

const saveStateVersion = "1"

// NewStateManager creates a state manager rooted at saveDirectory.
func NewStateManager(saveDirectory string) *StateManager {
	return &StateManager{
		saveDirectory: saveDirectory,
		maxSlots:      10,
		initialized:   true,
	}
}

// SaveState writes the console's current state to the given slot.
func (sm *StateManager) SaveState(b *bus.Bus, slot int, romPath, description string) error {
	if err := sm.validateSlot(slot); err != nil {
		return err
	}
	if !b.HasCartridge() {
		return fmt.Errorf("no cartridge loaded")
	}

	state := SaveState{
		Version:     saveStateVersion,
		Timestamp:   time.Now(),
		ROMPath:     romPath,
		ROMChecksum: b.ROMChecksum(),
		SlotNumber:  slot,
		Description: description,

		CPU: b.CPU.SaveState(),
		PPU: b.PPU.SaveState(),
		APU: b.APU.SaveState(),
		Memory: MemoryData{
			RAM:          b.Memory.RAMState(),
			VRAM:         b.PPU.VRAMState(),
			Palette:      b.PPU.PaletteState(),
			CartridgeRAM: b.CartridgeRAM(),
		},

		FrameCount: b.GetFrameCount(),
		CycleCount: b.GetCycleCount(),
	}

	return sm.saveToFile(sm.getSlotFilePath(slot), &state)
}

// LoadState reads a save slot and restores it onto b. The ROM checksum
// must match the cartridge currently loaded on b; callers are expected to
// have already loaded the matching ROM before calling LoadState.
func (sm *StateManager) LoadState(b *bus.Bus, slot int) error {
	if err := sm.validateSlot(slot); err != nil {
		return err
	}

	state, err := sm.loadFromFile(sm.getSlotFilePath(slot))
	if err != nil {
		return err
	}
	if !b.HasCartridge() {
		return fmt.Errorf("no cartridge loaded")
	}
	if b.ROMChecksum() != state.ROMChecksum {
		return fmt.Errorf("save state ROM checksum %08X does not match loaded ROM checksum %08X",
			state.ROMChecksum, b.ROMChecksum())
	}

	return sm.restoreState(b, state)
}

// restoreState writes a loaded SaveState back onto every component.
func (sm *StateManager) restoreState(b *bus.Bus, state *SaveState) error {
	b.CPU.LoadState(state.CPU)
	b.PPU.LoadState(state.PPU)
	b.APU.LoadState(state.APU)

	b.Memory.SetRAMState(state.Memory.RAM)
	b.PPU.SetVRAMState(state.Memory.VRAM)
	b.PPU.SetPaletteState(state.Memory.Palette)
	if len(state.Memory.CartridgeRAM) > 0 {
		b.LoadCartridgeRAM(state.Memory.CartridgeRAM)
	}

	b.SetTotalCycles(state.CycleCount)
	return nil
}

func (sm *StateManager) saveToFile(path string, state *SaveState) error {
	if err := os.MkdirAll(sm.saveDirectory, 0o755); err != nil {
		return fmt.Errorf("creating save directory: %w", err)
	}

	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("creating save state file: %w", err)
	}
	defer f.Close()

	if err := gob.NewEncoder(f).Encode(state); err != nil {
		return fmt.Errorf("encoding save state: %w", err)
	}
	return nil
}

func (sm *StateManager) loadFromFile(path string) (*SaveState, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("opening save state file: %w", err)
	}
	defer f.Close()

	var state SaveState
	if err := gob.NewDecoder(f).Decode(&state); err != nil {
		return nil, fmt.Errorf("decoding save state: %w", err)
	}
	return &state, nil
}

func (sm *StateManager) validateSlot(slot int) error {
	if slot < 0 || slot >= sm.maxSlots {
		return fmt.Errorf("slot %d out of range [0,%d)", slot, sm.maxSlots)
	}
	return nil
}

func (sm *StateManager) getSlotFilePath(slot int) string {
	return filepath.Join(sm.saveDirectory, fmt.Sprintf("slot%d.gob", slot))
}

// StateSlotInfo describes one save slot for a slot-picker UI, without
// decoding the full state.
type StateSlotInfo struct {
	SlotNumber  int
	Used        bool
	Timestamp   time.Time
	ROMPath     string
	Description string
	FilePath    string
	FileSize    int64
}

// GetSlotInfo reports the metadata of one save slot, without restoring it.
func (sm *StateManager) GetSlotInfo(slot int) (StateSlotInfo, error) {
	if err := sm.validateSlot(slot); err != nil {
		return StateSlotInfo{}, err
	}
	path := sm.getSlotFilePath(slot)
	info := StateSlotInfo{SlotNumber: slot, FilePath: path}

	fi, err := os.Stat(path)
	if os.IsNotExist(err) {
		return info, nil
	}
	if err != nil {
		return info, fmt.Errorf("stat save state file: %w", err)
	}

	state, err := sm.loadFromFile(path)
	if err != nil {
		return info, err
	}

	info.Used = true
	info.Timestamp = state.Timestamp
	info.ROMPath = state.ROMPath
	info.Description = state.Description
	info.FileSize = fi.Size()
	return info, nil
}

// DeleteState removes a save slot's file, if present.
func (sm *StateManager) DeleteState(slot int) error {
	if err := sm.validateSlot(slot); err != nil {
		return err
	}
	path := sm.getSlotFilePath(slot)
	if err := os.Remove(path); err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("deleting save state: %w", err)
	}
	return nil
}

// HasSaveState reports whether a slot currently holds a save.
func (sm *StateManager) HasSaveState(slot int) bool {
	if sm.validateSlot(slot) != nil {
		return false
	}
	_, err := os.Stat(sm.getSlotFilePath(slot))
	return err == nil
}

// GetMaxSlots returns the configured slot count.
func (sm *StateManager) GetMaxSlots() int { return sm.maxSlots }

// SetMaxSlots reconfigures the slot count.
func (sm *StateManager) SetMaxSlots(slots int) { sm.maxSlots = slots }

// GetSaveDirectory returns the directory save slots are written under.
func (sm *StateManager) GetSaveDirectory() string { return sm.saveDirectory }

// SetSaveDirectory retargets where save slots are written.
func (sm *StateManager) SetSaveDirectory(dir string) { sm.saveDirectory = dir }

// StateManagerStats summarizes slot usage for a UI status line.
type StateManagerStats struct {
	MaxSlots      int
	UsedSlots     int
	FreeSlots     int
	TotalSize     int64
	SaveDirectory string
	Initialized   bool
}

// GetStateManagerStats scans every slot and summarizes usage.
func (sm *StateManager) GetStateManagerStats() StateManagerStats {
	stats := StateManagerStats{
		MaxSlots:      sm.maxSlots,
		SaveDirectory: sm.saveDirectory,
		Initialized:   sm.initialized,
	}
	for slot := 0; slot < sm.maxSlots; slot++ {
		info, err := sm.GetSlotInfo(slot)
		if err != nil || !info.Used {
			continue
		}
		stats.UsedSlots++
		stats.TotalSize += info.FileSize
	}
	stats.FreeSlots = stats.MaxSlots - stats.UsedSlots
	return stats
}

// Cleanup removes every save slot's file under the save directory.
func (sm *StateManager) Cleanup() error {
	for slot := 0; slot < sm.maxSlots; slot++ {
		if err := sm.DeleteState(slot); err != nil {
			return err
		}
	}
	return nil
}
