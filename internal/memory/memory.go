// Package memory implements the NES CPU and PPU memory maps: RAM mirroring,
// register dispatch, and nametable/palette addressing with mirroring.
package memory

// Memory represents the CPU's view of the NES address space ($0000-$FFFF).
type Memory struct {
	ram [0x800]uint8 // internal RAM, mirrored through $1FFF

	ppuRegisters PPUInterface
	apuRegisters APUInterface
	inputSystem  InputInterface
	cartridge    CartridgeInterface

	dmaCallback func(uint8)

	// openBusValue is the last byte driven on the bus; reads of unmapped
	// or write-only addresses return it, per spec §4.6 open-bus behavior.
	openBusValue uint8
}

// PPUMemory represents the PPU's view of its own address space
// ($0000-$3FFF): pattern tables (via the mapper), nametables, and palette
// RAM.
type PPUMemory struct {
	vram       [0x1000]uint8 // 4KB VRAM, enough for four-screen mirroring
	paletteRAM [32]uint8     // all 32 bytes kept distinct; see readPalette
	cartridge  CartridgeInterface
}

// MirrorMode mirrors cartridge.MirrorMode without importing the cartridge
// package, avoiding an import cycle between memory and cartridge.
type MirrorMode uint8

const (
	MirrorHorizontal MirrorMode = iota
	MirrorVertical
	MirrorSingleScreenA
	MirrorSingleScreenB
	MirrorFourScreen
)

// PPUInterface defines the interface for PPU register access from the CPU
// bus ($2000-$2007 mirrored through $3FFF).
type PPUInterface interface {
	ReadRegister(address uint16) uint8
	WriteRegister(address uint16, value uint8)
}

// APUInterface defines the interface for APU register access.
type APUInterface interface {
	WriteRegister(address uint16, value uint8)
	ReadStatus() uint8
}

// InputInterface defines the interface for controller shift-register access.
type InputInterface interface {
	Read(address uint16) uint8
	Write(address uint16, value uint8)
}

// CartridgeInterface is the subset of the mapper capability set (spec
// §4.5) that the memory maps need: PRG/CHR access plus the mirroring mode,
// since several mappers (MMC1, MMC3) change mirroring at runtime.
type CartridgeInterface interface {
	ReadPRG(address uint16) uint8
	WritePRG(address uint16, value uint8)
	ReadCHR(address uint16) uint8
	WriteCHR(address uint16, value uint8)
	Mirroring() MirrorMode
}

// New creates a new Memory instance.
func New(ppu PPUInterface, apu APUInterface, cart CartridgeInterface) *Memory {
	return &Memory{
		ppuRegisters: ppu,
		apuRegisters: apu,
		cartridge:    cart,
	}
}

// SetInputSystem sets the input system for controller access.
func (m *Memory) SetInputSystem(input InputInterface) {
	m.inputSystem = input
}

// SetDMACallback sets the callback invoked on a $4014 OAM DMA write; the
// Bus uses this to account for the 513/514-cycle stall rather than
// performing the copy inline.
func (m *Memory) SetDMACallback(callback func(uint8)) {
	m.dmaCallback = callback
}

// Read reads a byte from the CPU address space.
func (m *Memory) Read(address uint16) uint8 {
	var value uint8

	switch {
	case address < 0x2000:
		value = m.ram[address&0x07FF]

	case address < 0x4000:
		value = m.ppuRegisters.ReadRegister(0x2000 + (address & 0x0007))

	case address < 0x4020:
		switch address {
		case 0x4015:
			value = m.apuRegisters.ReadStatus()
		case 0x4016, 0x4017:
			if m.inputSystem != nil {
				value = m.inputSystem.Read(address)
			}
		default:
			value = m.openBusValue
		}

	case address >= 0x6000 && address < 0x8000:
		if m.cartridge != nil {
			value = m.cartridge.ReadPRG(address)
		} else {
			value = m.openBusValue
		}

	case address < 0x8000:
		value = m.openBusValue

	default:
		if m.cartridge != nil {
			value = m.cartridge.ReadPRG(address)
		} else {
			value = m.openBusValue
		}
	}

	m.openBusValue = value
	return value
}

// Write writes a byte to the CPU address space.
func (m *Memory) Write(address uint16, value uint8) {
	switch {
	case address < 0x2000:
		m.ram[address&0x07FF] = value

	case address < 0x4000:
		m.ppuRegisters.WriteRegister(0x2000+(address&0x0007), value)

	case address < 0x4020:
		switch {
		case address == 0x4014:
			if m.dmaCallback != nil {
				m.dmaCallback(value)
			}
		case address == 0x4016:
			if m.inputSystem != nil {
				m.inputSystem.Write(address, value)
			}
		case address >= 0x4000 && address <= 0x4013:
			m.apuRegisters.WriteRegister(address, value)
		case address == 0x4015:
			m.apuRegisters.WriteRegister(address, value)
		case address == 0x4017:
			m.apuRegisters.WriteRegister(address, value)
		}
		// Test mode registers ($4018-$401F) are not wired to anything.

	case address >= 0x6000 && address < 0x8000:
		if m.cartridge != nil {
			m.cartridge.WritePRG(address, value)
		}

	case address < 0x8000:
		// Cartridge expansion area ($4020-$5FFF); no board in the
		// supported mapper set uses it.

	default:
		if m.cartridge != nil {
			m.cartridge.WritePRG(address, value)
		}
	}
}

// RAMState exports the raw contents of internal RAM for save states; it
// does not include the cartridge's battery-backed SRAM, which persists
// independently of save slots.
func (m *Memory) RAMState() [0x800]uint8 { return m.ram }

// SetRAMState restores internal RAM from a save state.
func (m *Memory) SetRAMState(ram [0x800]uint8) { m.ram = ram }

// NewPPUMemory creates a new PPU memory instance.
func NewPPUMemory(cart CartridgeInterface) *PPUMemory {
	return &PPUMemory{cartridge: cart}
}

// Read reads from PPU memory space ($0000-$3FFF).
func (pm *PPUMemory) Read(address uint16) uint8 {
	address &= 0x3FFF

	switch {
	case address < 0x2000:
		return pm.cartridge.ReadCHR(address)
	case address < 0x3000:
		return pm.readNametable(address)
	case address < 0x3F00:
		return pm.readNametable(address - 0x1000)
	default:
		return pm.readPalette(address)
	}
}

// Write writes to PPU memory space ($0000-$3FFF).
func (pm *PPUMemory) Write(address uint16, value uint8) {
	address &= 0x3FFF

	switch {
	case address < 0x2000:
		pm.cartridge.WriteCHR(address, value)
	case address < 0x3000:
		pm.writeNametable(address, value)
	case address < 0x3F00:
		pm.writeNametable(address-0x1000, value)
	default:
		pm.writePalette(address, value)
	}
}

func (pm *PPUMemory) readNametable(address uint16) uint8 {
	return pm.vram[pm.nametableIndex(address)]
}

func (pm *PPUMemory) writeNametable(address uint16, value uint8) {
	pm.vram[pm.nametableIndex(address)] = value
}

// nametableIndex maps a $2000-$2FFF address to a VRAM offset according to
// the cartridge's current mirroring mode (which mappers such as MMC1/MMC3
// can change at runtime via their mirroring register).
func (pm *PPUMemory) nametableIndex(address uint16) uint16 {
	address &= 0x0FFF
	nametable := (address >> 10) & 3
	offset := address & 0x3FF

	switch pm.cartridge.Mirroring() {
	case MirrorHorizontal:
		if nametable >= 2 {
			return 0x400 + offset
		}
		return offset

	case MirrorVertical:
		if nametable == 1 || nametable == 3 {
			return 0x400 + offset
		}
		return offset

	case MirrorSingleScreenA:
		return offset

	case MirrorSingleScreenB:
		return 0x400 + offset

	case MirrorFourScreen:
		return uint16(nametable)*0x400 + offset

	default:
		return offset
	}
}

// paletteIndex returns the raw 5-bit index into paletteRAM for a
// $3F00-$3FFF address, with no background-color aliasing applied: spec
// §4.2 requires that raw PPUDATA reads/writes ($2007) see the actual
// stored byte at $3F10/$3F14/$3F18/$3F1C, distinct from $3F00/$3F04/
// $3F08/$3F0C. Aliasing is a rendering-time effect of the pixel
// multiplexer only (see ReadPaletteForRender).
func paletteIndex(address uint16) uint16 {
	return (address - 0x3F00) & 0x1F
}

func (pm *PPUMemory) readPalette(address uint16) uint8 {
	return pm.paletteRAM[paletteIndex(address)]
}

func (pm *PPUMemory) writePalette(address uint16, value uint8) {
	// Only the low 6 bits of each palette entry are wired on real
	// hardware; the PPU's color-generation circuit never sees the rest.
	pm.paletteRAM[paletteIndex(address)] = value & 0x3F
}

// ReadPaletteForRender looks up a palette entry the way the background/
// sprite pixel multiplexer does during rendering: indices $10/$14/$18/$1C
// (the sprite-palette "universal background color" slots) alias to
// $00/$04/$08/$0C. This is the ONLY place that aliasing applies; it must
// not leak into raw PPUDATA access (see paletteIndex).
func (pm *PPUMemory) ReadPaletteForRender(index uint8) uint8 {
	index &= 0x1F
	if index&0x13 == 0x10 {
		index &= 0x0F
	}
	return pm.paletteRAM[index]
}

// VRAMState exports raw nametable VRAM for save states.
func (pm *PPUMemory) VRAMState() [0x1000]uint8 { return pm.vram }

// SetVRAMState restores nametable VRAM from a save state.
func (pm *PPUMemory) SetVRAMState(vram [0x1000]uint8) { pm.vram = vram }

// PaletteState exports raw palette RAM for save states.
func (pm *PPUMemory) PaletteState() [32]uint8 { return pm.paletteRAM }

// SetPaletteState restores palette RAM from a save state.
func (pm *PPUMemory) SetPaletteState(pal [32]uint8) { pm.paletteRAM = pal }
