package cartridge

import "testing"

func newTestMMC1Cart(prgBanks int) (*Cartridge, *mapper001) {
	cart := &Cartridge{
		prgROM: make([]uint8, prgBanks*0x4000),
		chrROM: make([]uint8, 0x2000),
	}
	m := newMapper001(cart)
	cart.mapper = m
	return cart, m
}

// mmc1Write performs the 5 consecutive single-bit shift-register writes
// MMC1 requires to latch a new register value.
func mmc1Write(m *mapper001, addr uint16, value uint8) {
	for i := 0; i < 5; i++ {
		m.WritePRG(addr, (value>>uint(i))&1)
	}
}

func TestMMC1ResetWriteClearsShiftRegister(t *testing.T) {
	_, m := newTestMMC1Cart(4)
	m.WritePRG(0x8000, 0x01)
	m.WritePRG(0x8000, 0x80) // bit 7 set: reset

	if m.shiftCount != 0 {
		t.Errorf("shiftCount after reset write = %d, want 0", m.shiftCount)
	}
	if m.prgMode != 3 {
		t.Errorf("prgMode after reset write = %d, want 3 (fix-last)", m.prgMode)
	}
}

func TestMMC1ControlRegisterSetsMirroring(t *testing.T) {
	_, m := newTestMMC1Cart(4)
	mmc1Write(m, 0x8000, 0x02) // mirroring=2 -> vertical

	if got := m.Mirroring(); got != MirrorVertical {
		t.Errorf("Mirroring() = %v, want MirrorVertical", got)
	}

	mmc1Write(m, 0x8000, 0x03) // mirroring=3 -> horizontal
	if got := m.Mirroring(); got != MirrorHorizontal {
		t.Errorf("Mirroring() = %v, want MirrorHorizontal", got)
	}
}

func TestMMC1PRGBankSwitchingFixLastMode(t *testing.T) {
	cart, m := newTestMMC1Cart(4)
	cart.prgROM[3*0x4000] = 0xAB // last bank, offset 0

	mmc1Write(m, 0x8000, 0x0C) // prgMode=3 (fix last), chrMode=0
	mmc1Write(m, 0xE000, 0x00) // select PRG bank 0 for the switchable window

	if got := m.ReadPRG(0xC000); got != 0xAB {
		t.Errorf("ReadPRG($C000) = %#02x, want 0xAB (fixed to last bank)", got)
	}
}

func TestMMC1ReadsPRGRAMWhenEnabled(t *testing.T) {
	cart, m := newTestMMC1Cart(4)
	cart.sram[0] = 0x55
	m.prgRAMEnabled = true

	if got := m.ReadPRG(0x6000); got != 0x55 {
		t.Errorf("ReadPRG($6000) = %#02x, want 0x55 (PRG RAM)", got)
	}
}
