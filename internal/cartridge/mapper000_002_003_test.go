package cartridge

import "testing"

func TestMapper000MirrorsSingle16KBBank(t *testing.T) {
	cart := &Cartridge{prgROM: make([]uint8, 0x4000), chrROM: make([]uint8, 0x2000)}
	cart.prgROM[0] = 0x11
	m := newMapper000(cart)
	cart.mapper = m

	if got := m.ReadPRG(0x8000); got != 0x11 {
		t.Errorf("ReadPRG($8000) = %#02x, want 0x11", got)
	}
	if got := m.ReadPRG(0xC000); got != 0x11 {
		t.Errorf("ReadPRG($C000) = %#02x, want 0x11 (16KB mirror)", got)
	}
}

func TestMapper002BankSwitchesLowWindowFixesHighWindow(t *testing.T) {
	cart := &Cartridge{prgROM: make([]uint8, 4*0x4000), chrROM: make([]uint8, 0x2000)}
	cart.prgROM[1*0x4000] = 0x22 // bank 1
	cart.prgROM[3*0x4000] = 0x33 // last bank (3)
	m := newMapper002(cart)
	cart.mapper = m

	m.WritePRG(0x8000, 1)
	if got := m.ReadPRG(0x8000); got != 0x22 {
		t.Errorf("ReadPRG($8000) after selecting bank 1 = %#02x, want 0x22", got)
	}
	if got := m.ReadPRG(0xC000); got != 0x33 {
		t.Errorf("ReadPRG($C000) = %#02x, want 0x33 (fixed to last bank)", got)
	}
}

func TestMapper003SelectsCHRBankOnWrite(t *testing.T) {
	cart := &Cartridge{prgROM: make([]uint8, 0x4000), chrROM: make([]uint8, 2*0x2000)}
	cart.prgROM[0x0000] = 0xFF // drives the bus value the write ANDs against
	cart.chrROM[1*0x2000] = 0x44
	m := newMapper003(cart)
	cart.mapper = m

	m.WritePRG(0x8000, 0x01) // ANDs with bus value 0xFF -> bank 1
	if got := m.ReadCHR(0x0000); got != 0x44 {
		t.Errorf("ReadCHR($0000) after selecting bank 1 = %#02x, want 0x44", got)
	}
}
