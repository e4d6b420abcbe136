// Package ppu implements the 2C02 Picture Processing Unit: the dot-stepping
// background/sprite fetch pipeline, the Loopy scroll registers, and the
// CPU-visible $2000-$2007 register file.
package ppu

import "gones/internal/memory"

// PPU represents the NES Picture Processing Unit (2C02).
type PPU struct {
	ppuCtrl   uint8
	ppuMask   uint8
	ppuStatus uint8
	oamAddr   uint8

	v uint16 // current VRAM address (15 bits)
	t uint16 // temporary VRAM address / address latch (15 bits)
	x uint8  // fine X scroll (3 bits)
	w bool   // write toggle, shared by PPUSCROLL/PPUADDR

	memory *memory.PPUMemory

	scanline int // -1 (pre-render) .. 260
	cycle    int // 0..340

	frameCount uint64
	oddFrame   bool

	// dataLatch is the PPU's internal open-bus byte: every CPU-visible
	// register access updates it, and reads of write-only registers (and
	// the low 5 bits of PPUSTATUS) return it. Spec §4.2.
	dataLatch  uint8
	readBuffer uint8 // PPUDATA buffered-read staging byte

	oam          [256]uint8
	secondaryOAM [32]uint8 // 8 sprites x 4 bytes, filled with $FF between scanlines
	spriteUnits  [8]spriteUnit
	spriteCount  uint8
	oamN         int // primary OAM sprite index cursor during evaluation
	oamM         int // byte-within-sprite cursor (for the buggy overflow scan)
	spriteOverflowLatched bool

	sprite0InSecondary bool // sprite 0 was copied into secondary OAM this scanline
	sprite0Unit        int  // which spriteUnits slot holds sprite 0, or -1

	// Background shift registers: 16-bit pattern shifters hold two tile's
	// worth of bits so bit 15-fine_x always addresses the current pixel;
	// attribute shifters are pre-replicated to 1 bit per pixel.
	bgPatternLow  uint16
	bgPatternHigh uint16
	bgAttribLow   uint16
	bgAttribHigh  uint16

	// Latches loaded once per 8-dot fetch step, shifted into the registers
	// at the end of the step.
	ntLatch     uint8
	atLatch     uint8
	patternLow  uint8
	patternHigh uint8

	frameBuffer [256 * 240]uint8 // NES palette indices (0-63), not RGB

	nmiLine               bool
	nmiCallback           func()
	frameCompleteCallback func()

	backgroundEnabled bool
	spritesEnabled    bool
	renderingEnabled  bool

	cartridge a12Notifier
}

// spriteUnit is one of the 8 per-scanline sprite serialization slots used
// during pixel output (spec §4.3's "per-pixel sprite serialization").
type spriteUnit struct {
	patternLow  uint8
	patternHigh uint8
	attributes  uint8
	xCounter    uint8
	active      bool // xCounter has reached 0 and shifting has begun
}

// a12Notifier is the subset of cartridge.Mapper the PPU drives directly for
// MMC3-style scanline IRQ clocking on idle address-bus changes (pattern
// fetches that go through PPUMemory already clock it via ReadCHR/WriteCHR).
type a12Notifier interface {
	OnPPUA12(rising bool)
}

// New creates a new PPU instance.
func New() *PPU {
	return &PPU{
		scanline: -1,
		oamN:     -1,
	}
}

// Reset restores power-up PPU state.
func (p *PPU) Reset() {
	p.ppuCtrl = 0
	p.ppuMask = 0
	p.ppuStatus = 0
	p.oamAddr = 0
	p.v = 0
	p.t = 0
	p.x = 0
	p.w = false
	p.scanline = -1
	p.cycle = 0
	p.frameCount = 0
	p.oddFrame = false
	p.dataLatch = 0
	p.readBuffer = 0
	p.spriteCount = 0
	p.updateRenderingFlags()
	for i := range p.oam {
		p.oam[i] = 0
	}
	for i := range p.frameBuffer {
		p.frameBuffer[i] = 0
	}
}

// SetMemory sets the PPU's own $0000-$3FFF memory map.
func (p *PPU) SetMemory(m *memory.PPUMemory) { p.memory = m }

// SetCartridge wires the mapper's A12 IRQ hook for MMC3-class boards.
func (p *PPU) SetCartridge(cart a12Notifier) { p.cartridge = cart }

// VRAMState and PaletteState expose the PPU's own memory map contents for
// save states, since p.memory is unexported.
func (p *PPU) VRAMState() [0x1000]uint8 { return p.memory.VRAMState() }
func (p *PPU) SetVRAMState(v [0x1000]uint8) { p.memory.SetVRAMState(v) }
func (p *PPU) PaletteState() [32]uint8 { return p.memory.PaletteState() }
func (p *PPU) SetPaletteState(pal [32]uint8) { p.memory.SetPaletteState(pal) }

// SetNMICallback sets the callback invoked when NMI should assert.
func (p *PPU) SetNMICallback(callback func()) { p.nmiCallback = callback }

// SetFrameCompleteCallback sets the callback invoked once per completed frame.
func (p *PPU) SetFrameCompleteCallback(callback func()) { p.frameCompleteCallback = callback }

// ReadRegister reads a CPU-visible PPU register ($2000-$2007, already
// demirrored to this range by the Bus/Memory layer).
func (p *PPU) ReadRegister(address uint16) uint8 {
	switch address {
	case 0x2002:
		status := (p.ppuStatus & 0xE0) | (p.dataLatch & 0x1F)
		p.ppuStatus &^= 0x80 // clear VBL flag
		p.updateNMILine()
		p.w = false
		p.dataLatch = status
		return status
	case 0x2004:
		value := p.oam[p.oamAddr]
		if p.oamAddr&0x03 == 0x02 {
			value &= 0xE3 // bits 2-4 of the attribute byte are unwired
		}
		p.dataLatch = value
		return value
	case 0x2007:
		p.dataLatch = p.readPPUData()
		return p.dataLatch
	default:
		return p.dataLatch
	}
}

// WriteRegister writes a CPU-visible PPU register.
func (p *PPU) WriteRegister(address uint16, value uint8) {
	p.dataLatch = value
	switch address {
	case 0x2000:
		p.ppuCtrl = value
		p.t = (p.t & 0xF3FF) | ((uint16(value) & 0x03) << 10)
		p.updateNMILine()
	case 0x2001:
		p.ppuMask = value
		p.updateRenderingFlags()
	case 0x2003:
		p.oamAddr = value
	case 0x2004:
		if p.renderingEnabled && (p.scanline >= 0 && p.scanline < 240 || p.scanline == -1) {
			// Spec §4.2: OAMDATA writes during active rendering are dropped.
			return
		}
		p.oam[p.oamAddr] = value
		p.oamAddr++
	case 0x2005:
		p.writePPUScroll(value)
	case 0x2006:
		p.writePPUAddr(value)
	case 0x2007:
		p.writePPUData(value)
	}
}

// WriteOAM writes one byte into OAM, used by OAM DMA ($4014).
func (p *PPU) WriteOAM(address uint8, value uint8) { p.oam[address] = value }

// Step advances the PPU by a single dot.
func (p *PPU) Step() {
	p.processScanline()

	p.cycle++
	if p.cycle > 340 {
		// Odd-frame dot skip: the (0,0) dot of the pre-render-to-visible
		// transition is omitted when rendering is enabled.
		if p.scanline == -1 && p.oddFrame && p.renderingEnabled && p.cycle == 341 {
			p.cycle = 1
		} else {
			p.cycle = 0
		}
		p.scanline++
		if p.scanline > 260 {
			p.scanline = -1
			p.frameCount++
			p.oddFrame = !p.oddFrame
			if p.frameCompleteCallback != nil {
				p.frameCompleteCallback()
			}
		}
	}
}

// processScanline runs the fetch pipeline, flag timing, and pixel output
// for the dot that is about to be consumed (scanline/cycle as they stood
// before Step's counter advance), per spec §4.2/§4.3.
func (p *PPU) processScanline() {
	visibleOrPrerender := p.scanline == -1 || (p.scanline >= 0 && p.scanline < 240)

	if visibleOrPrerender {
		p.runBackgroundPipeline()
		p.runSpritePipeline()
	}

	if p.scanline >= 0 && p.scanline < 240 && p.cycle >= 1 && p.cycle <= 256 {
		p.renderPixel(p.cycle-1, p.scanline)
	}

	if p.scanline == -1 {
		if p.cycle == 1 {
			p.ppuStatus &^= 0x80 | 0x40 | 0x20 // clear V, sprite-0-hit, overflow
			p.spriteOverflowLatched = false
			p.updateNMILine()
		}
		if p.renderingEnabled && p.cycle >= 280 && p.cycle <= 304 {
			p.copyY()
		}
	}

	if p.scanline == 241 && p.cycle == 1 {
		p.ppuStatus |= 0x80
		p.updateNMILine()
	}
}

// updateNMILine recomputes the NMI line as the AND of the vblank flag and
// PPUCTRL's NMI-enable bit, the same gate real hardware implements; this
// lets re-enabling NMI while still in vblank refire it, and is why the
// line is recomputed from both sides rather than set once per frame.
func (p *PPU) updateNMILine() {
	p.setNMI(p.ppuStatus&0x80 != 0 && p.ppuCtrl&0x80 != 0)
}

func (p *PPU) setNMI(state bool) {
	p.nmiLine = state
	if state && p.nmiCallback != nil {
		p.nmiCallback()
	}
}

// NMILine reports the current level of the NMI line for level-polling
// consumers (the Bus feeds this into the CPU's edge-triggered SetNMI once
// before each CPU instruction rather than relying solely on the rising-edge
// callback).
func (p *PPU) NMILine() bool { return p.nmiLine }

// runBackgroundPipeline performs the 8-dot NT/AT/pattern-low/pattern-high
// fetch cycle and the coarse-X/Y scroll increments, per spec §4.2.
func (p *PPU) runBackgroundPipeline() {
	fetchActive := (p.cycle >= 1 && p.cycle <= 256) || (p.cycle >= 321 && p.cycle <= 336)

	if fetchActive {
		p.shiftBackgroundRegisters()

		switch p.cycle % 8 {
		case 1:
			p.reloadShifters()
			p.fetchNametableByte()
		case 3:
			p.fetchAttributeByte()
		case 5:
			p.fetchPatternLow()
		case 7:
			p.fetchPatternHigh()
		case 0:
			if p.renderingEnabled {
				p.incrementCoarseX()
			}
		}
	}

	if p.cycle == 256 && p.renderingEnabled {
		p.incrementFineY()
	}
	if p.cycle == 257 && p.renderingEnabled {
		p.copyX()
	}
}

func (p *PPU) reloadShifters() {
	p.bgPatternLow = (p.bgPatternLow & 0xFF00) | uint16(p.patternLow)
	p.bgPatternHigh = (p.bgPatternHigh & 0xFF00) | uint16(p.patternHigh)

	attribBit := p.atLatch & 0x03
	lowFill, highFill := uint16(0), uint16(0)
	if attribBit&0x01 != 0 {
		lowFill = 0x00FF
	}
	if attribBit&0x02 != 0 {
		highFill = 0x00FF
	}
	p.bgAttribLow = (p.bgAttribLow & 0xFF00) | lowFill
	p.bgAttribHigh = (p.bgAttribHigh & 0xFF00) | highFill
}

func (p *PPU) shiftBackgroundRegisters() {
	if !p.renderingEnabled {
		return
	}
	p.bgPatternLow <<= 1
	p.bgPatternHigh <<= 1
	p.bgAttribLow <<= 1
	p.bgAttribHigh <<= 1
}

func (p *PPU) fetchNametableByte() {
	addr := 0x2000 | (p.v & 0x0FFF)
	p.ntLatch = p.memory.Read(addr)
}

func (p *PPU) fetchAttributeByte() {
	addr := 0x23C0 | (p.v & 0x0C00) | ((p.v >> 4) & 0x38) | ((p.v >> 2) & 0x07)
	byteVal := p.memory.Read(addr)
	shift := ((p.v >> 4) & 4) | (p.v & 2)
	p.atLatch = (byteVal >> shift) & 0x03
}

func (p *PPU) patternTableBase() uint16 {
	if p.ppuCtrl&0x10 != 0 {
		return 0x1000
	}
	return 0
}

func (p *PPU) fetchPatternLow() {
	fineY := (p.v >> 12) & 0x07
	addr := p.patternTableBase() | (uint16(p.ntLatch) << 4) | fineY
	p.patternLow = p.memory.Read(addr)
	p.notifyA12(addr)
}

func (p *PPU) fetchPatternHigh() {
	fineY := (p.v >> 12) & 0x07
	addr := p.patternTableBase() | (uint16(p.ntLatch) << 4) | fineY | 0x08
	p.patternHigh = p.memory.Read(addr)
	p.notifyA12(addr)
}

func (p *PPU) notifyA12(addr uint16) {
	if p.cartridge != nil {
		p.cartridge.OnPPUA12(addr&0x1000 != 0)
	}
}

// incrementCoarseX implements spec §4.2 step 5.
func (p *PPU) incrementCoarseX() {
	if (p.v & 0x001F) == 31 {
		p.v &^= 0x001F
		p.v ^= 0x0400
	} else {
		p.v++
	}
}

// incrementFineY implements spec §4.2 step 6, including the skip-29-to-0
// vs wrap-30/31-to-0 distinction required by status-bar effects.
func (p *PPU) incrementFineY() {
	if (p.v & 0x7000) != 0x7000 {
		p.v += 0x1000
		return
	}
	p.v &^= 0x7000
	coarseY := (p.v & 0x03E0) >> 5
	switch coarseY {
	case 29:
		coarseY = 0
		p.v ^= 0x0800
	case 31:
		coarseY = 0
	default:
		coarseY++
	}
	p.v = (p.v &^ 0x03E0) | (coarseY << 5)
}

func (p *PPU) copyX() {
	p.v = (p.v &^ 0x041F) | (p.t & 0x041F)
}

func (p *PPU) copyY() {
	p.v = (p.v &^ 0x7BE0) | (p.t & 0x7BE0)
}

// --- Sprite evaluation & fetch (spec §4.3) ---

// runSpritePipeline performs primary-OAM evaluation for the next scanline
// across dots 1-256, and sprite pattern fetch across dots 257-320.
func (p *PPU) runSpritePipeline() {
	switch {
	case p.cycle == 1:
		for i := range p.secondaryOAM {
			p.secondaryOAM[i] = 0xFF
		}
		p.oamN = 0
		p.oamM = 0
		p.spriteCount = 0
		p.sprite0InSecondary = false
		p.sprite0Unit = -1

	case p.cycle >= 65 && p.cycle <= 256:
		p.evaluateSpritesStep()

	case p.cycle == 257:
		p.loadSpriteUnits()

	case p.cycle >= 258 && p.cycle <= 320:
		// Pattern bytes for all 8 units are fetched as one batch at 257
		// for simplicity; dots 258-320 are idle from the unit's
		// perspective, matching observable behavior for sprite rendering.
	}
}

// evaluateSpritesStep reproduces the buggy linear scan of spec §4.3: after
// 8 sprites have been copied, the scan continues incrementing both the
// sprite index and the byte-within-sprite index, which is what causes the
// overflow flag's well-known false positives/negatives.
func (p *PPU) evaluateSpritesStep() {
	if p.oamN >= 64 {
		return
	}

	height := 8
	if p.ppuCtrl&0x20 != 0 {
		height = 16
	}

	if p.spriteCount < 8 {
		y := int(p.oam[p.oamN*4])
		if p.scanline-y >= 0 && p.scanline-y < height {
			secondaryBase := int(p.spriteCount) * 4
			copy(p.secondaryOAM[secondaryBase:secondaryBase+4], p.oam[p.oamN*4:p.oamN*4+4])
			if p.oamN == 0 {
				p.sprite0InSecondary = true
			}
			p.spriteCount++
		}
		p.oamN++
		return
	}

	// Buggy post-8 scan: both n and m advance together.
	y := int(p.oam[p.oamN*4+p.oamM])
	if p.scanline-y >= 0 && p.scanline-y < height {
		if !p.spriteOverflowLatched {
			p.ppuStatus |= 0x20
			p.spriteOverflowLatched = true
		}
		p.oamM++
		if p.oamM > 3 {
			p.oamM = 0
			p.oamN++
		}
	} else {
		// Hardware bug: m also increments on a miss.
		p.oamM++
		if p.oamM > 3 {
			p.oamM = 0
		}
		p.oamN++
	}
	if p.oamN >= 64 {
		p.oamN = 64
	}
}

// loadSpriteUnits fetches pattern bytes for the up-to-8 sprites found on
// the next scanline and prepares their shift units, per spec §4.3.
func (p *PPU) loadSpriteUnits() {
	height := 8
	if p.ppuCtrl&0x20 != 0 {
		height = 16
	}

	for i := 0; i < 8; i++ {
		unit := &p.spriteUnits[i]
		if i >= int(p.spriteCount) {
			unit.patternLow = 0
			unit.patternHigh = 0
			unit.attributes = 0
			unit.xCounter = 0xFF
			continue
		}

		base := i * 4
		spriteY := int(p.secondaryOAM[base])
		tile := p.secondaryOAM[base+1]
		attrs := p.secondaryOAM[base+2]
		x := p.secondaryOAM[base+3]

		row := p.scanline - spriteY
		if row < 0 {
			row = 0
		}
		flipV := attrs&0x80 != 0
		if flipV {
			row = height - 1 - row
		}

		var base16 uint16
		var tileAddr uint16
		if height == 16 {
			table := uint16(tile&0x01) << 12
			tileIndex := uint16(tile &^ 0x01)
			if row >= 8 {
				tileIndex++
				row -= 8
			}
			base16 = table
			tileAddr = base16 | (tileIndex << 4) | uint16(row)
		} else {
			base16 = p.patternTableBase()
			tileAddr = base16 | (uint16(tile) << 4) | uint16(row)
		}

		low := p.memory.Read(tileAddr)
		high := p.memory.Read(tileAddr + 8)
		p.notifyA12(tileAddr)

		if attrs&0x40 != 0 { // horizontal flip
			low = reverseBits(low)
			high = reverseBits(high)
		}

		unit.patternLow = low
		unit.patternHigh = high
		unit.attributes = attrs
		unit.xCounter = x
		unit.active = false
	}
	if p.sprite0InSecondary {
		p.sprite0Unit = 0
	} else {
		p.sprite0Unit = -1
	}
}

func reverseBits(b uint8) uint8 {
	var r uint8
	for i := 0; i < 8; i++ {
		r <<= 1
		r |= b & 1
		b >>= 1
	}
	return r
}

// --- Pixel output (spec §4.2's pixel multiplexer) ---

func (p *PPU) renderPixel(x, y int) {
	bgPixel, bgPalette := p.backgroundPixel(x)
	sprPixel, sprPalette, sprPriority, sprIsZero, sprFound := p.spritePixel(x)

	if sprFound && sprIsZero && bgPixel != 0 && sprPixel != 0 {
		p.checkSprite0Hit(x)
	}

	p.advanceSpriteCounters()

	var index uint8
	switch {
	case bgPixel == 0 && !sprFound:
		index = p.memory.ReadPaletteForRender(0)
	case bgPixel == 0 && sprFound:
		index = p.memory.ReadPaletteForRender(0x10 + sprPalette*4 + sprPixel)
	case bgPixel != 0 && !sprFound:
		index = p.memory.ReadPaletteForRender(bgPalette*4 + bgPixel)
	case sprPriority: // both opaque, sprite behind background
		index = p.memory.ReadPaletteForRender(bgPalette*4 + bgPixel)
	default:
		index = p.memory.ReadPaletteForRender(0x10 + sprPalette*4 + sprPixel)
	}

	p.frameBuffer[y*256+x] = index & 0x3F
}

func (p *PPU) backgroundPixel(x int) (pixel, palette uint8) {
	if !p.backgroundEnabled {
		return 0, 0
	}
	if x < 8 && p.ppuMask&0x02 == 0 {
		return 0, 0
	}
	shift := uint(15 - p.x)
	lo := uint8((p.bgPatternLow >> shift) & 1)
	hi := uint8((p.bgPatternHigh >> shift) & 1)
	pixel = (hi << 1) | lo
	alo := uint8((p.bgAttribLow >> shift) & 1)
	ahi := uint8((p.bgAttribHigh >> shift) & 1)
	palette = (ahi << 1) | alo
	return pixel, palette
}

func (p *PPU) spritePixel(x int) (pixel, palette uint8, priority, isZero, found bool) {
	if !p.spritesEnabled {
		return 0, 0, false, false, false
	}
	if x < 8 && p.ppuMask&0x04 == 0 {
		return 0, 0, false, false, false
	}
	for i := 0; i < int(p.spriteCount); i++ {
		unit := &p.spriteUnits[i]
		if !unit.active {
			continue
		}
		lo := (unit.patternLow >> 7) & 1
		hi := (unit.patternHigh >> 7) & 1
		colorIndex := (hi << 1) | lo
		if colorIndex == 0 {
			continue
		}
		return colorIndex, unit.attributes & 0x03, unit.attributes&0x20 != 0, i == p.sprite0Unit, true
	}
	return 0, 0, false, false, false
}

// advanceSpriteCounters decrements each unit's X counter each dot and
// begins shifting once it reaches zero, per spec §4.3.
func (p *PPU) advanceSpriteCounters() {
	for i := 0; i < int(p.spriteCount); i++ {
		unit := &p.spriteUnits[i]
		if unit.active {
			unit.patternLow <<= 1
			unit.patternHigh <<= 1
			continue
		}
		if unit.xCounter > 0 {
			unit.xCounter--
		} else {
			unit.active = true
		}
	}
}

func (p *PPU) checkSprite0Hit(x int) {
	if p.ppuStatus&0x40 != 0 {
		return
	}
	if x == 255 {
		return
	}
	if x < 8 && (p.ppuMask&0x02 == 0 || p.ppuMask&0x04 == 0) {
		return
	}
	if !p.backgroundEnabled || !p.spritesEnabled {
		return
	}
	p.ppuStatus |= 0x40
}

func (p *PPU) updateRenderingFlags() {
	p.backgroundEnabled = (p.ppuMask & 0x08) != 0
	p.spritesEnabled = (p.ppuMask & 0x10) != 0
	p.renderingEnabled = p.backgroundEnabled || p.spritesEnabled
}

// writePPUScroll handles PPUSCROLL ($2005) per Loopy's bit recipe.
func (p *PPU) writePPUScroll(value uint8) {
	if !p.w {
		p.t = (p.t & 0xFFE0) | (uint16(value) >> 3)
		p.x = value & 0x07
		p.w = true
	} else {
		p.t = (p.t & 0x8FFF) | ((uint16(value) & 0x07) << 12)
		p.t = (p.t & 0xFC1F) | ((uint16(value) & 0xF8) << 2)
		p.w = false
	}
}

// writePPUAddr handles PPUADDR ($2006) per Loopy's bit recipe.
func (p *PPU) writePPUAddr(value uint8) {
	if !p.w {
		p.t = (p.t & 0x80FF) | ((uint16(value) & 0x3F) << 8)
		p.w = true
	} else {
		p.t = (p.t & 0xFF00) | uint16(value)
		p.v = p.t
		p.w = false
	}
}

// readPPUData handles PPUDATA ($2007) reads, including the buffered-read
// behavior and the palette-region refill-from-nametable quirk.
func (p *PPU) readPPUData() uint8 {
	var data uint8
	if p.v >= 0x3F00 {
		data = p.memory.Read(p.v)
		p.readBuffer = p.memory.Read(p.v & 0x2FFF)
	} else {
		data = p.readBuffer
		p.readBuffer = p.memory.Read(p.v)
	}
	p.advanceVRAMAddress()
	return data
}

// writePPUData handles PPUDATA ($2007) writes.
func (p *PPU) writePPUData(value uint8) {
	p.memory.Write(p.v, value)
	p.advanceVRAMAddress()
}

func (p *PPU) advanceVRAMAddress() {
	if p.ppuCtrl&0x04 != 0 {
		p.v += 32
	} else {
		p.v += 1
	}
	p.v &= 0x3FFF
}

// GetFrameBuffer returns the current frame as NES palette indices (0-63);
// callers needing RGB should look each index up via NESColorToRGB.
func (p *PPU) GetFrameBuffer() [256 * 240]uint8 { return p.frameBuffer }

// GetFrameCount returns the number of completed frames.
func (p *PPU) GetFrameCount() uint64 { return p.frameCount }

// GetScanline returns the current scanline (-1 for pre-render).
func (p *PPU) GetScanline() int { return p.scanline }

// GetCycle returns the current dot within the scanline.
func (p *PPU) GetCycle() int { return p.cycle }

// IsRenderingEnabled reports whether background or sprite rendering is on.
func (p *PPU) IsRenderingEnabled() bool { return p.renderingEnabled }

// IsVBlank reports whether the VBlank flag is currently set.
func (p *PPU) IsVBlank() bool { return p.ppuStatus&0x80 != 0 }

// nesColorPalette is the NTSC 2C02 64-entry color table.
var nesColorPalette = [64]uint32{
	0xFF666666, 0xFF002A88, 0xFF1412A7, 0xFF3B00A4, 0xFF5C007E, 0xFF6E0040, 0xFF6C0600, 0xFF561D00,
	0xFF333500, 0xFF0B4800, 0xFF005200, 0xFF004F08, 0xFF00404D, 0xFF000000, 0xFF000000, 0xFF000000,
	0xFFADADAD, 0xFF155FD9, 0xFF4240FF, 0xFF7527FE, 0xFFA01ACC, 0xFFB71E7B, 0xFFB53120, 0xFF994E00,
	0xFF6B6D00, 0xFF388700, 0xFF0C9300, 0xFF008F32, 0xFF007C8D, 0xFF000000, 0xFF000000, 0xFF000000,
	0xFFFFFEFF, 0xFF64B0FF, 0xFF9290FF, 0xFFC676FF, 0xFFF36AFF, 0xFFFE6ECC, 0xFFFE8170, 0xFFEA9E22,
	0xFFBCBE00, 0xFF88D800, 0xFF5CE430, 0xFF45E082, 0xFF48CDDE, 0xFF4F4F4F, 0xFF000000, 0xFF000000,
	0xFFFFFEFF, 0xFFC0DFFF, 0xFFD3D2FF, 0xFFE8C8FF, 0xFFFBC2FF, 0xFFFEC4EA, 0xFFFECCC5, 0xFFF7D8A5,
	0xFFE4E594, 0xFFCFF29B, 0xFFBEFBB3, 0xFFB8F8D8, 0xFFB8F8F8, 0xFF000000, 0xFF000000, 0xFF000000,
}

// NESColorToRGB converts a NES palette index (0-63) to an 0x00RRGGBB color,
// for display-layer use only; the PPU core itself stores palette indices.
func NESColorToRGB(colorIndex uint8) uint32 {
	if colorIndex >= 64 {
		return 0
	}
	return nesColorPalette[colorIndex] & 0x00FFFFFF
}

// SavedState is the PPU's register- and timing-level state for save states.
// It excludes the mid-scanline background/sprite pipeline (shift
// registers, fetch latches, secondary OAM, sprite units). LoadState leaves
// that pipeline as it is, so a state saved mid-frame resumes with whatever
// pipeline contents the PPU held when the state was loaded.
type SavedState struct {
	PPUCtrl, PPUMask, PPUStatus, OAMAddr uint8
	V, T                                 uint16
	X                                    uint8
	W                                    bool
	Scanline, Cycle                      int
	FrameCount                           uint64
	OddFrame                             bool
	DataLatch, ReadBuffer                uint8
	OAM                                  [256]uint8
	NMILine                              bool
}

// SaveState snapshots the PPU's register and timing state.
func (p *PPU) SaveState() SavedState {
	return SavedState{
		PPUCtrl: p.ppuCtrl, PPUMask: p.ppuMask, PPUStatus: p.ppuStatus, OAMAddr: p.oamAddr,
		V: p.v, T: p.t, X: p.x, W: p.w,
		Scanline: p.scanline, Cycle: p.cycle,
		FrameCount: p.frameCount, OddFrame: p.oddFrame,
		DataLatch: p.dataLatch, ReadBuffer: p.readBuffer,
		OAM:     p.oam,
		NMILine: p.nmiLine,
	}
}

// LoadState restores a snapshot taken by SaveState and recomputes the
// rendering-enabled flags PPUMASK implies.
func (p *PPU) LoadState(s SavedState) {
	p.ppuCtrl, p.ppuMask, p.ppuStatus, p.oamAddr = s.PPUCtrl, s.PPUMask, s.PPUStatus, s.OAMAddr
	p.v, p.t, p.x, p.w = s.V, s.T, s.X, s.W
	p.scanline, p.cycle = s.Scanline, s.Cycle
	p.frameCount, p.oddFrame = s.FrameCount, s.OddFrame
	p.dataLatch, p.readBuffer = s.DataLatch, s.ReadBuffer
	p.oam = s.OAM
	p.nmiLine = s.NMILine
	p.updateRenderingFlags()
}
