// Package input implements standard NES controller handling: the $4016/$4017
// strobe-and-shift-register protocol shared by both controller ports.
package input

import "log"

// Button identifies one of the 8 bits latched into a controller on strobe.
type Button uint8

const (
	ButtonA Button = 1 << iota
	ButtonB
	ButtonSelect
	ButtonStart
	ButtonUp
	ButtonDown
	ButtonLeft
	ButtonRight
)

// Controller models one NES controller port: a button latch plus the
// 8-bit serial shift register $4016/$4017 reads drain it through.
type Controller struct {
	buttons uint8

	shiftRegister uint8
	strobe        bool

	readCount    uint64
	writeCount   uint64
	debugEnabled bool
}

// New creates a Controller with no buttons pressed.
func New() *Controller {
	return &Controller{}
}

// SetButton sets or clears a single button.
func (c *Controller) SetButton(button Button, pressed bool) {
	if pressed {
		c.buttons |= uint8(button)
	} else {
		c.buttons &^= uint8(button)
	}
	if c.debugEnabled {
		log.Printf("[input] SetButton button=%d pressed=%t buttons=%#02x", uint8(button), pressed, c.buttons)
	}
}

// SetButtons latches all 8 buttons at once, in NES order: A, B, Select,
// Start, Up, Down, Left, Right.
func (c *Controller) SetButtons(buttons [8]bool) {
	var b uint8
	for i, pressed := range buttons {
		if pressed {
			b |= 1 << uint(i)
		}
	}
	c.buttons = b
	if c.debugEnabled {
		log.Printf("[input] SetButtons buttons=%#02x", c.buttons)
	}
}

// IsPressed reports whether button is currently held.
func (c *Controller) IsPressed(button Button) bool {
	return (c.buttons & uint8(button)) != 0
}

// Write handles a write to $4016. Strobe high continuously reloads the
// shift register from the live button state; the falling edge latches the
// snapshot that subsequent reads will shift out.
func (c *Controller) Write(value uint8) {
	c.writeCount++
	c.strobe = (value & 1) != 0
	if c.strobe {
		c.shiftRegister = c.buttons
	}
	if c.debugEnabled {
		log.Printf("[input] Write strobe=%t shiftRegister=%#02x", c.strobe, c.shiftRegister)
	}
}

// Read returns the next serial bit. While strobe is held high the register
// keeps reloading from the live buttons, so every read returns button A.
// Past the 8 button bits, real hardware's shift register has nothing left
// to pull the line low, so it reads back as open-bus 1s rather than 0.
func (c *Controller) Read() uint8 {
	c.readCount++
	if c.strobe {
		c.shiftRegister = c.buttons
	}

	bit := c.shiftRegister & 1
	c.shiftRegister = (c.shiftRegister >> 1) | 0x80
	return bit
}

// Reset clears button state, strobe, and the shift register.
func (c *Controller) Reset() {
	c.buttons = 0
	c.shiftRegister = 0
	c.strobe = false
	c.readCount = 0
	c.writeCount = 0
}

// EnableDebug toggles verbose per-access logging for this controller.
func (c *Controller) EnableDebug(enable bool) {
	c.debugEnabled = enable
}

// InputState owns the two controller ports wired to $4016/$4017.
type InputState struct {
	Controller1 *Controller
	Controller2 *Controller
}

// NewInputState creates an InputState with two freshly-reset controllers.
func NewInputState() *InputState {
	return &InputState{
		Controller1: New(),
		Controller2: New(),
	}
}

// Reset resets both controller ports.
func (is *InputState) Reset() {
	is.Controller1.Reset()
	is.Controller2.Reset()
}

// EnableDebug toggles verbose logging on both ports.
func (is *InputState) EnableDebug(enable bool) {
	is.Controller1.EnableDebug(enable)
	is.Controller2.EnableDebug(enable)
}

// SetButtons1 latches controller 1's buttons.
func (is *InputState) SetButtons1(buttons [8]bool) {
	is.Controller1.SetButtons(buttons)
}

// SetButtons2 latches controller 2's buttons.
func (is *InputState) SetButtons2(buttons [8]bool) {
	is.Controller2.SetButtons(buttons)
}

// Read dispatches a CPU read of $4016 or $4017 to the matching port.
// Port 2 reads carry bit 6 set, matching the NES's open-bus wiring on that
// register.
func (is *InputState) Read(address uint16) uint8 {
	switch address {
	case 0x4016:
		return is.Controller1.Read()
	case 0x4017:
		return is.Controller2.Read() | 0x40
	default:
		return 0
	}
}

// Write dispatches a CPU write to $4016; the strobe line is shared by both
// controller ports.
func (is *InputState) Write(address uint16, value uint8) {
	if address == 0x4016 {
		is.Controller1.Write(value)
		is.Controller2.Write(value)
	}
}
