package input

import "testing"

func TestSetButtonsThenReadShiftsOutInNESBitOrder(t *testing.T) {
	c := New()
	// A, Start, Right pressed (indices 0, 3, 7).
	c.SetButtons([8]bool{true, false, false, true, false, false, false, true})

	c.Write(1) // strobe high
	c.Write(0) // strobe low: latches the snapshot into the shift register

	want := []uint8{1, 0, 0, 1, 0, 0, 0, 1}
	for i, w := range want {
		if got := c.Read(); got != w {
			t.Fatalf("bit %d = %d, want %d", i, got, w)
		}
	}
}

func TestReadBeyondEighthBitReturnsOne(t *testing.T) {
	c := New()
	c.SetButtons([8]bool{}) // every button released
	c.Write(1)
	c.Write(0)

	for i := 0; i < 8; i++ {
		c.Read()
	}
	if got := c.Read(); got != 1 {
		t.Errorf("9th Read() = %d, want 1 (open-bus past the 8-button shift register)", got)
	}
	if got := c.Read(); got != 1 {
		t.Errorf("10th Read() = %d, want 1 (stays high once drained)", got)
	}
}

func TestStrobeHighAlwaysReturnsButtonA(t *testing.T) {
	c := New()
	c.SetButtons([8]bool{true, false, false, false, false, false, false, false})
	c.Write(1) // strobe held high

	for i := 0; i < 3; i++ {
		if got := c.Read(); got != 1 {
			t.Errorf("Read() #%d while strobed = %d, want 1 (button A)", i, got)
		}
	}
}

func TestInputStateRoutesPort1And2Independently(t *testing.T) {
	is := NewInputState()
	is.SetButtons1([8]bool{true, false, false, false, false, false, false, false})  // A on port 1
	is.SetButtons2([8]bool{false, true, false, false, false, false, false, false}) // B on port 2

	is.Write(0x4016, 1)
	is.Write(0x4016, 0)

	if got := is.Read(0x4016) & 0x01; got != 1 {
		t.Errorf("port 1 first bit = %d, want 1 (A pressed)", got)
	}
	if got := is.Read(0x4017) & 0x01; got != 0 {
		t.Errorf("port 2 first bit = %d, want 0 (A not pressed on port 2)", got)
	}
}

func TestInputStateResetClearsButtonsAndStrobe(t *testing.T) {
	is := NewInputState()
	is.SetButtons1([8]bool{true, true, true, true, true, true, true, true})
	is.Reset()

	is.Write(0x4016, 1)
	is.Write(0x4016, 0)
	if got := is.Read(0x4016) & 0x01; got != 0 {
		t.Errorf("port 1 first bit after Reset = %d, want 0", got)
	}
}
