package ppu

import (
	"testing"

	"gones/internal/cartridge"
	"gones/internal/memory"
)

func newTestPPU() *PPU {
	cart := cartridge.NewMockCartridge()
	p := New()
	p.SetMemory(memory.NewPPUMemory(cart))
	return p
}

// runUntilVBlankStart steps the PPU through scanline 241 cycle 1, the dot
// where the VBlank flag and NMI line are asserted, bailing out after two
// full frames to avoid an infinite loop if something regresses.
func runUntilVBlankStart(t *testing.T, p *PPU) {
	t.Helper()
	for i := 0; i < 2*262*341; i++ {
		atVBlankDot := p.GetScanline() == 241 && p.GetCycle() == 1
		p.Step()
		if atVBlankDot {
			return
		}
	}
	t.Fatal("PPU never reached scanline 241 cycle 1")
}

func TestNMILineIsANDOfVBlankAndPPUCTRLEnable(t *testing.T) {
	p := newTestPPU()
	p.WriteRegister(0x2000, 0x00) // NMI disabled
	runUntilVBlankStart(t, p)

	if p.NMILine() {
		t.Fatal("NMILine() asserted at vblank start despite PPUCTRL NMI-enable being clear")
	}

	p.WriteRegister(0x2000, 0x80) // enable NMI while still in vblank
	if !p.NMILine() {
		t.Fatal("NMILine() did not assert when NMI was enabled during an active vblank")
	}

	p.ReadRegister(0x2002) // PPUSTATUS read clears vblank
	if p.NMILine() {
		t.Fatal("NMILine() stayed asserted after a PPUSTATUS read cleared vblank")
	}
}

func TestNMILineAssertsAtVBlankWhenAlreadyEnabled(t *testing.T) {
	p := newTestPPU()
	p.WriteRegister(0x2000, 0x80)
	runUntilVBlankStart(t, p)

	if !p.NMILine() {
		t.Fatal("NMILine() did not assert at scanline 241 cycle 1 with NMI already enabled")
	}
}

func TestPPUStatusReadClearsVBlankAndWriteToggle(t *testing.T) {
	p := newTestPPU()
	runUntilVBlankStart(t, p)

	if !p.IsVBlank() {
		t.Fatal("IsVBlank() should be true right after vblank start")
	}

	p.WriteRegister(0x2005, 0) // first scroll write sets the write toggle
	if !p.w {
		t.Fatal("write toggle should be set after one $2005 write")
	}

	status := p.ReadRegister(0x2002)
	if status&0x80 == 0 {
		t.Fatal("first PPUSTATUS read should report vblank set")
	}
	if p.IsVBlank() {
		t.Fatal("IsVBlank() should be false after a PPUSTATUS read")
	}
	if p.w {
		t.Fatal("PPUSTATUS read should clear the write toggle")
	}
}

func TestSaveStateThenLoadStateRestoresTimingPosition(t *testing.T) {
	p := newTestPPU()
	for i := 0; i < 1000; i++ {
		p.Step()
	}
	p.WriteRegister(0x2000, 0x80)

	saved := p.SaveState()

	for i := 0; i < 1000; i++ {
		p.Step()
	}
	if p.GetScanline() == saved.Scanline && p.GetCycle() == saved.Cycle {
		t.Fatal("test setup bug: timing position did not change after extra Step() calls")
	}

	p.LoadState(saved)
	if p.GetScanline() != saved.Scanline || p.GetCycle() != saved.Cycle {
		t.Errorf("position after LoadState = (%d,%d), want (%d,%d)",
			p.GetScanline(), p.GetCycle(), saved.Scanline, saved.Cycle)
	}
	if !p.IsRenderingEnabled() && saved.PPUMask&0x18 != 0 {
		t.Error("LoadState did not recompute rendering-enabled flags from PPUMASK")
	}
}

func TestWriteOAMAndReadback(t *testing.T) {
	p := newTestPPU()
	p.WriteOAM(5, 0x99)
	p.WriteRegister(0x2003, 5)
	if got := p.ReadRegister(0x2004); got != 0x99 {
		t.Errorf("OAM[5] = %#02x, want 0x99", got)
	}
}
