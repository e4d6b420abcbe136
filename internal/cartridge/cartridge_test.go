package cartridge

import (
	"bytes"
	"testing"
)

// buildINES assembles a minimal iNES 1.0 image: a 16-byte header followed by
// prg and chr ROM bytes, with mapperID encoded into Flags6/Flags7's high
// nibbles the way a real NES 2.0-naive dumper would.
func buildINES(mapperID uint8, mirrorVertical bool, prg, chr []byte) []byte {
	header := make([]byte, 16)
	copy(header[0:4], []byte("NES\x1A"))
	header[4] = uint8(len(prg) / 16384)
	header[5] = uint8(len(chr) / 8192)
	header[6] = mapperID << 4
	if mirrorVertical {
		header[6] |= 0x01
	}
	header[7] = mapperID & 0xF0

	var buf bytes.Buffer
	buf.Write(header)
	buf.Write(prg)
	buf.Write(chr)
	return buf.Bytes()
}

func TestLoadFromReaderParsesNROM(t *testing.T) {
	prg := make([]byte, 16384)
	prg[0] = 0xEA
	chr := make([]byte, 8192)
	chr[0] = 0x11

	cart, err := LoadFromReader(bytes.NewReader(buildINES(0, false, prg, chr)))
	if err != nil {
		t.Fatalf("LoadFromReader: %v", err)
	}
	if cart.MapperID() != 0 {
		t.Errorf("MapperID() = %d, want 0", cart.MapperID())
	}
	if got := cart.ReadPRG(0x8000); got != 0xEA {
		t.Errorf("ReadPRG($8000) = %#02x, want 0xEA", got)
	}
	// 16KB PRG must mirror into the $C000-$FFFF window.
	if got := cart.ReadPRG(0xC000); got != 0xEA {
		t.Errorf("ReadPRG($C000) = %#02x, want 0xEA (16KB mirror)", got)
	}
	if got := cart.ReadCHR(0x0000); got != 0x11 {
		t.Errorf("ReadCHR($0000) = %#02x, want 0x11", got)
	}
	if cart.Mirroring() != MirrorHorizontal {
		t.Errorf("Mirroring() = %v, want MirrorHorizontal", cart.Mirroring())
	}
}

func TestLoadFromReaderRejectsBadMagic(t *testing.T) {
	data := buildINES(0, false, make([]byte, 16384), make([]byte, 8192))
	data[0] = 'X'
	if _, err := LoadFromReader(bytes.NewReader(data)); err != ErrInvalidMagic {
		t.Errorf("err = %v, want ErrInvalidMagic", err)
	}
}

func TestLoadFromReaderRejectsUnsupportedMapper(t *testing.T) {
	data := buildINES(200, false, make([]byte, 16384), make([]byte, 8192))
	if _, err := LoadFromReader(bytes.NewReader(data)); err != ErrUnsupportedMapper {
		t.Errorf("err = %v, want ErrUnsupportedMapper", err)
	}
}

func TestLoadFromReaderAllocatesCHRRAMWhenCHRSizeZero(t *testing.T) {
	data := buildINES(0, false, make([]byte, 16384), nil)
	cart, err := LoadFromReader(bytes.NewReader(data))
	if err != nil {
		t.Fatalf("LoadFromReader: %v", err)
	}
	if !cart.hasCHRRAM {
		t.Fatal("expected CHR-RAM to be allocated when CHR ROM size is 0")
	}
	cart.WriteCHR(0x0000, 0x42)
	if got := cart.ReadCHR(0x0000); got != 0x42 {
		t.Errorf("ReadCHR($0000) = %#02x, want 0x42 (CHR-RAM write should stick)", got)
	}
}

func TestROMChecksumIsStableAndNonZero(t *testing.T) {
	prg := make([]byte, 16384)
	prg[100] = 0x77
	chr := make([]byte, 8192)

	data := buildINES(0, false, prg, chr)
	cart1, _ := LoadFromReader(bytes.NewReader(data))
	cart2, _ := LoadFromReader(bytes.NewReader(data))

	if cart1.ROMChecksum() == 0 {
		t.Fatal("ROMChecksum() should not be 0 for non-empty ROM")
	}
	if cart1.ROMChecksum() != cart2.ROMChecksum() {
		t.Error("ROMChecksum() should be stable across loads of the same bytes")
	}
}

func TestBatteryRAMRoundTrips(t *testing.T) {
	prg := make([]byte, 16384)
	chr := make([]byte, 8192)
	cart, err := LoadFromReader(bytes.NewReader(buildINES(0, false, prg, chr)))
	if err != nil {
		t.Fatalf("LoadFromReader: %v", err)
	}

	cart.WritePRG(0x6005, 0x99)
	saved := cart.BatteryRAM()

	fresh, _ := LoadFromReader(bytes.NewReader(buildINES(0, false, prg, chr)))
	fresh.LoadBatteryRAM(saved)
	if got := fresh.ReadPRG(0x6005); got != 0x99 {
		t.Errorf("ReadPRG($6005) after LoadBatteryRAM = %#02x, want 0x99", got)
	}
}
