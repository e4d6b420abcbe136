// Package bus wires the CPU, PPU, APU, input, and cartridge together into a
// running console: it owns the master clock and is the only component that
// knows the PPU runs 3 dots per CPU cycle and the APU runs 1:1 with it.
package bus

import (
	"fmt"
	"io"

	"gones/internal/apu"
	"gones/internal/cpu"
	"gones/internal/input"
	"gones/internal/memory"
	"gones/internal/ppu"
)

// Cartridge is the full capability set LoadCartridge needs from a loaded
// ROM: the memory maps' PRG/CHR/mirroring surface plus the IRQ line and A12
// hook that mapper 4 (MMC3) drives the CPU and PPU with.
type Cartridge interface {
	memory.CartridgeInterface
	OnPPUA12(rising bool)
	IRQLine() bool
	Reset()
	ROMChecksum() uint32
	BatteryRAM() []byte
	LoadBatteryRAM(data []byte)
}

// Bus is the NES system bus: the component that owns the master clock and
// steps every chip in lockstep.
type Bus struct {
	CPU    *cpu.CPU
	PPU    *ppu.PPU
	APU    *apu.APU
	Memory *memory.Memory
	Input  *input.InputState

	cart Cartridge

	totalCycles uint64 // CPU cycles since power-on/reset
	frameCount  uint64

	dmaActive      bool
	dmaPage        uint8
	dmaIndex       uint16
	dmaDummyCycles int
	dmaGetPending  bool
	dmaGetValue    uint8

	traceWriter io.Writer
}

// New creates a Bus with no cartridge loaded; LoadCartridge must be called
// before Run/Step will do anything useful (PRG/CHR reads return open bus).
func New() *Bus {
	b := &Bus{
		PPU:   ppu.New(),
		APU:   apu.New(),
		Input: input.NewInputState(),
	}
	b.Memory = memory.New(b.PPU, b.APU, nil)
	b.Memory.SetInputSystem(b.Input)
	b.Memory.SetDMACallback(b.TriggerOAMDMA)
	b.CPU = cpu.New(b.Memory)
	b.Reset()
	return b
}

// LoadCartridge wires a parsed cartridge into the memory maps and resets
// the console. The PPU's nametable mirroring and MMC3's A12/IRQ hooks read
// straight through to the cartridge, so no mirroring mode is captured here
// at load time: mappers that change it at runtime (MMC1, MMC3) take effect
// immediately.
func (b *Bus) LoadCartridge(cart Cartridge) {
	b.cart = cart
	b.Memory = memory.New(b.PPU, b.APU, cart)
	b.Memory.SetInputSystem(b.Input)
	b.Memory.SetDMACallback(b.TriggerOAMDMA)
	b.CPU = cpu.New(b.Memory)
	b.PPU.SetMemory(memory.NewPPUMemory(cart))
	b.PPU.SetCartridge(cart)
	b.Reset()
}

// Reset performs a power-on-equivalent reset of every component (not a
// full power cycle: RAM contents and battery-backed SRAM are untouched).
func (b *Bus) Reset() {
	b.PPU.Reset()
	b.APU.Reset()
	b.Input.Reset()
	if b.cart != nil {
		b.cart.Reset()
	}
	b.CPU.Reset()

	b.totalCycles = 0
	b.frameCount = 0
	b.dmaActive = false
	b.dmaDummyCycles = 0
	b.dmaIndex = 0
	b.dmaGetPending = false
}

// SetTraceWriter, when non-nil, makes Step emit one nestest-style trace
// line per instruction (before it executes) to w; see traceLine for the
// fields it carries. Spec §4.6.1.
func (b *Bus) SetTraceWriter(w io.Writer) {
	b.traceWriter = w
}

// Step advances the console by one CPU instruction's worth of master
// clock: on an active OAM DMA it instead advances by a single stalled CPU
// cycle. The PPU is stepped 3 dots and the APU 1 cycle for every CPU cycle
// consumed, matching the NES's fixed 1:3:1 clock ratio.
func (b *Bus) Step() {
	if b.dmaActive {
		b.stepDMACycle()
		b.advanceClock(1)
		return
	}

	if b.traceWriter != nil {
		fmt.Fprintln(b.traceWriter, b.traceLine())
	}

	b.CPU.SetNMI(b.PPU.NMILine())
	b.CPU.SetIRQ(b.apuIRQLine())

	before := b.CPU.Cycles()
	b.CPU.Step()
	cpuCycles := b.CPU.Cycles() - before

	b.advanceClock(cpuCycles)
}

// advanceClock steps the PPU 3 dots and the APU 1 cycle per CPU cycle
// consumed, and keeps the bus's own frame counter in sync with the PPU's.
func (b *Bus) advanceClock(cpuCycles uint64) {
	for i := uint64(0); i < cpuCycles; i++ {
		b.totalCycles++
		b.PPU.Step()
		b.PPU.Step()
		b.PPU.Step()
		if addr, ok := b.APU.Step(); ok {
			b.APU.ProvideDMCByte(b.Memory.Read(addr))
		}
	}
	b.frameCount = b.PPU.GetFrameCount()
}

// apuIRQLine is the level the CPU's IRQ pin sees: the OR of the APU's frame
// and DMC IRQ flags with the cartridge mapper's IRQ line (MMC3's scanline
// counter; mappers 1-3 never assert it).
func (b *Bus) apuIRQLine() bool {
	line := b.APU.GetFrameIRQ() || b.APU.GetDMCIRQ()
	if b.cart != nil {
		line = line || b.cart.IRQLine()
	}
	return line
}

// TriggerOAMDMA starts a $4014 OAM DMA transfer from sourcePage<<8. Real
// hardware halts the CPU for 513 cycles (514 if the write lands on an odd
// CPU cycle) and interleaves a get/put cycle pair per byte; Step models
// this explicitly rather than copying all 256 bytes in one shot, so a CPU
// instruction mid-stall still sees the correct bus timing.
func (b *Bus) TriggerOAMDMA(sourcePage uint8) {
	b.dmaActive = true
	b.dmaPage = sourcePage
	b.dmaIndex = 0
	b.dmaGetPending = true
	if b.totalCycles%2 == 1 {
		b.dmaDummyCycles = 2
	} else {
		b.dmaDummyCycles = 1
	}
}

func (b *Bus) stepDMACycle() {
	if b.dmaDummyCycles > 0 {
		b.dmaDummyCycles--
		return
	}
	if b.dmaGetPending {
		b.dmaGetValue = b.Memory.Read(uint16(b.dmaPage)<<8 | b.dmaIndex)
		b.dmaGetPending = false
		return
	}
	b.PPU.WriteOAM(uint8(b.dmaIndex), b.dmaGetValue)
	b.dmaIndex++
	b.dmaGetPending = true
	if b.dmaIndex > 255 {
		b.dmaActive = false
	}
}

// IsDMAInProgress reports whether an OAM DMA transfer is currently
// stalling the CPU.
func (b *Bus) IsDMAInProgress() bool { return b.dmaActive }

// Frame runs the console until the PPU completes one more frame.
func (b *Bus) Frame() {
	target := b.PPU.GetFrameCount() + 1
	for b.PPU.GetFrameCount() < target {
		b.Step()
	}
}

// Run steps the console for the given number of frames.
func (b *Bus) Run(frames int) {
	for i := 0; i < frames; i++ {
		b.Frame()
	}
}

// GetFrameBuffer returns the current frame as 0x00RRGGBB-packed 32-bit colors,
// converting the PPU's raw NES palette indices through the color lookup
// table. Callers that only need palette indices (for comparison against
// golden frames, say) should read b.PPU.GetFrameBuffer() directly instead.
func (b *Bus) GetFrameBuffer() []uint32 {
	indices := b.PPU.GetFrameBuffer()
	out := make([]uint32, len(indices))
	for i, idx := range indices {
		out[i] = ppu.NESColorToRGB(idx)
	}
	return out
}

// GetAudioSamples drains the APU's pending audio sample buffer.
func (b *Bus) GetAudioSamples() []float32 {
	return b.APU.GetSamples()
}

// SetAudioSampleRate retargets the APU's resampling accumulator.
func (b *Bus) SetAudioSampleRate(rate int) {
	b.APU.SetSampleRate(rate)
}

// GetCycleCount returns the total CPU cycles elapsed since the last Reset.
func (b *Bus) GetCycleCount() uint64 { return b.totalCycles }

// GetFrameCount returns the number of frames the PPU has completed.
func (b *Bus) GetFrameCount() uint64 { return b.frameCount }

// SetControllerButtons updates the full button state of one controller
// port (1 or 2).
func (b *Bus) SetControllerButtons(controller int, buttons [8]bool) {
	switch controller {
	case 1:
		b.Input.SetButtons1(buttons)
	case 2:
		b.Input.SetButtons2(buttons)
	}
}

// CPUFlags is a snapshot of the 6502 status flags for inspection/tracing.
// There is no B field: the break flag is not a CPU register, only a value
// computed at the moment status is pushed to the stack (see cpu.statusByte).
type CPUFlags struct {
	N, V, D, I, Z, C bool
}

// CPUState is a point-in-time snapshot of CPU-visible state, for tracing
// and tests.
type CPUState struct {
	A, X, Y, SP uint8
	PC          uint16
	Flags       CPUFlags
	Cycles      uint64
}

// GetCPUState snapshots the CPU's architectural state.
func (b *Bus) GetCPUState() CPUState {
	return CPUState{
		A:      b.CPU.A,
		X:      b.CPU.X,
		Y:      b.CPU.Y,
		SP:     b.CPU.SP,
		PC:     b.CPU.PC,
		Cycles: b.CPU.Cycles(),
		Flags: CPUFlags{
			N: b.CPU.N,
			V: b.CPU.V,
			D: b.CPU.D,
			I: b.CPU.I,
			Z: b.CPU.Z,
			C: b.CPU.C,
		},
	}
}

// PPUState is a point-in-time snapshot of PPU timing state, for tests.
type PPUState struct {
	Scanline   int
	Cycle      int
	VBlank     bool
	Rendering  bool
	FrameCount uint64
}

// GetPPUState snapshots the PPU's current timing position.
func (b *Bus) GetPPUState() PPUState {
	return PPUState{
		Scanline:   b.PPU.GetScanline(),
		Cycle:      b.PPU.GetCycle(),
		VBlank:     b.PPU.IsVBlank(),
		Rendering:  b.PPU.IsRenderingEnabled(),
		FrameCount: b.PPU.GetFrameCount(),
	}
}

// traceLine formats the CPU's current state in a nestest-style line, read
// just before CPU.Step executes the instruction sitting at PC. The line
// carries PC, A/X/Y/P/SP, the PPU scanline and dot, and the CPU cycle
// count; it has no opcode bytes and no disassembly, so it does not match
// a nestest golden log byte-for-byte.
func (b *Bus) traceLine() string {
	s := b.GetCPUState()
	status := uint8(0x20) // unused bit always reads 1
	if s.Flags.N {
		status |= 0x80
	}
	if s.Flags.V {
		status |= 0x40
	}
	if s.Flags.D {
		status |= 0x08
	}
	if s.Flags.I {
		status |= 0x04
	}
	if s.Flags.Z {
		status |= 0x02
	}
	if s.Flags.C {
		status |= 0x01
	}
	ppuState := b.GetPPUState()
	return fmt.Sprintf("%04X  A:%02X X:%02X Y:%02X P:%02X SP:%02X PPU:%3d,%3d CYC:%d",
		s.PC, s.A, s.X, s.Y, status, s.SP, ppuState.Scanline, ppuState.Cycle, s.Cycles)
}

// EnableCPUDebug toggles the CPU's instruction-stuck loop detector.
func (b *Bus) EnableCPUDebug(enable bool) {
	b.CPU.EnableLoopDetection(enable)
}

// ROMChecksum returns the loaded cartridge's CRC32 over PRG+CHR ROM, or 0
// if no cartridge is loaded. Save states use this to detect a mismatched
// ROM rather than trusting the file path alone.
func (b *Bus) ROMChecksum() uint32 {
	if b.cart == nil {
		return 0
	}
	return b.cart.ROMChecksum()
}

// CartridgeRAM returns a copy of the cartridge's $6000-$7FFF PRG-RAM, for
// save states; it is nil if no cartridge is loaded.
func (b *Bus) CartridgeRAM() []byte {
	if b.cart == nil {
		return nil
	}
	return b.cart.BatteryRAM()
}

// LoadCartridgeRAM restores cartridge PRG-RAM from a save state.
func (b *Bus) LoadCartridgeRAM(data []byte) {
	if b.cart != nil {
		b.cart.LoadBatteryRAM(data)
	}
}

// HasCartridge reports whether a cartridge is currently loaded.
func (b *Bus) HasCartridge() bool { return b.cart != nil }

// SetTotalCycles restores the bus's master cycle counter from a save
// state; CPU.LoadState restores the CPU's own copy separately; they are
// kept in sync by LoadState always being called together with this.
func (b *Bus) SetTotalCycles(cycles uint64) { b.totalCycles = cycles }
