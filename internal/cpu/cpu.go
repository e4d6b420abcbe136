// Package cpu implements the 2A03 (6502-derived) CPU core for the NES.
package cpu

// Addressing modes
type AddressingMode int

const (
	Implied AddressingMode = iota
	Accumulator
	Immediate
	ZeroPage
	ZeroPageX
	ZeroPageY
	Relative
	Absolute
	AbsoluteX
	AbsoluteY
	Indirect
	IndexedIndirect // (zp,X)
	IndirectIndexed // (zp),Y
)

const (
	stackBase = 0x0100

	nFlagMask  = 0x80
	vFlagMask  = 0x40
	unusedMask = 0x20
	bFlagMask  = 0x10
	dFlagMask  = 0x08
	iFlagMask  = 0x04
	zFlagMask  = 0x02
	cFlagMask  = 0x01

	zeroPageMask = 0xFF
	pageMask     = 0xFF00

	nmiVector   = 0xFFFA
	resetVector = 0xFFFC
	irqVector   = 0xFFFE
)

// Instruction describes one opcode's static shape: mnemonic, byte length,
// base cycle count, and addressing mode. Execution dispatches through
// executeInstruction's opcode switch rather than a function pointer here.
type Instruction struct {
	Name   string
	Opcode uint8
	Bytes  uint8
	Cycles uint8
	Mode   AddressingMode
}

// CPU is the 2A03 processor core: 6502 ALU/registers plus the APU's DMC/
// frame-sequencer IRQ line, but no audio generation of its own (that lives
// in package apu; the Bus wires the two together).
type CPU struct {
	A  uint8
	X  uint8
	Y  uint8
	SP uint8
	PC uint16

	C bool // Carry
	Z bool // Zero
	I bool // Interrupt disable
	D bool // Decimal (present in the status register, never consulted: NES disables BCD ADC/SBC)
	V bool // Overflow
	N bool // Negative

	// B is NOT a latch on real hardware: it exists only as a bit computed
	// at the moment status is pushed to the stack (1 for BRK/PHP, 0 for a
	// hardware NMI/IRQ). There is deliberately no persistent B field.

	memory MemoryInterface

	cycles uint64

	instructions [256]*Instruction

	nmiLine     bool // live NMI input line state
	nmiPrevious bool // previous sampled line state, for edge detection
	nmiPending  bool // latched: a rising edge occurred and hasn't been serviced

	irqLine bool // live level-sensitive IRQ line (OR of APU frame IRQ, DMC IRQ, mapper IRQ)

	// prevIRQInhibit mirrors I as it was BEFORE the instruction that just
	// completed executed its flag-setting effect. Real 6502 hardware
	// polls the interrupt lines using the I flag's value from two cycles
	// earlier, which is why SEI/CLI/PLP delay the visible effect on IRQ
	// servicing by one instruction. ProcessPendingInterrupts consults
	// this latched value, not the live I.
	prevIRQInhibit bool

	enableDebugLogging  bool
	enableLoopDetection bool
	lastPC              uint16
	pcStayCount         int
}

// MemoryInterface defines the interface for CPU bus access.
type MemoryInterface interface {
	Read(address uint16) uint8
	Write(address uint16, value uint8)
}

// New creates a new CPU instance.
func New(memory MemoryInterface) *CPU {
	cpu := &CPU{
		memory: memory,
		SP:     0xFD,
	}
	cpu.initInstructions()
	return cpu
}

// Reset performs the 7-cycle 6502 reset sequence: two internal cycles,
// three discarded stack reads while decrementing SP, then a two-cycle
// read of the reset vector. Spec §4.1.
func (cpu *CPU) Reset() {
	cpu.A = 0x00
	cpu.X = 0x00
	cpu.Y = 0x00

	cpu.C = false
	cpu.Z = false
	cpu.I = true
	cpu.D = false
	cpu.V = false
	cpu.N = false
	cpu.prevIRQInhibit = true

	// Two internal cycles (the interrupted instruction's opcode+operand
	// fetch, discarded - modeled as dummy reads of the current PC).
	cpu.memory.Read(cpu.PC)
	cpu.memory.Read(cpu.PC)
	cpu.cycles += 2

	// Three dummy stack reads while SP decrements.
	for i := 0; i < 3; i++ {
		cpu.memory.Read(stackBase + uint16(cpu.SP))
		cpu.SP--
		cpu.cycles++
	}
	cpu.SP = 0xFD

	low := uint16(cpu.memory.Read(resetVector))
	high := uint16(cpu.memory.Read(resetVector + 1))
	cpu.PC = (high << 8) | low
	cpu.cycles += 2
}

// Step executes a single CPU instruction and returns the number of CPU
// cycles it took.
func (cpu *CPU) Step() uint64 {
	currentPC := cpu.PC

	opcode := cpu.memory.Read(cpu.PC)
	instruction := cpu.instructions[opcode]

	if cpu.enableLoopDetection {
		cpu.detectInfiniteLoop(currentPC)
	}

	if instruction == nil {
		cpu.PC++
		cpu.cycles += 2
		return 2
	}

	address, pageCrossed := cpu.getOperandAddress(opcode, instruction.Mode)
	extraCycles := cpu.executeInstruction(opcode, address, pageCrossed)

	if pageCrossed {
		switch opcode {
		case 0x9D, 0x99, 0x91: // store instructions: the extra cycle is already part of their base cycle count
		case 0xBD, 0xB9, 0xB1, 0xBE, 0xBC, 0x7D, 0x79, 0x71, 0x3D, 0x39, 0x31, 0x1D, 0x19, 0x11, 0x5D, 0x59, 0x51, 0xDD, 0xD9, 0xD1,
			0x1C, 0x3C, 0x5C, 0x7C, 0xDC, 0xFC,
			0xBF, 0xB3, 0xD7, 0xF7, 0x17, 0x37, 0x57, 0x77:
			extraCycles++
		}
	}

	totalCycles := uint64(instruction.Cycles) + uint64(extraCycles)
	cpu.cycles += totalCycles

	// Interrupt polling happens against the I flag's value as it stood
	// before this instruction's own flag effect; see prevIRQInhibit.
	cpu.ProcessPendingInterrupts()
	cpu.prevIRQInhibit = cpu.I

	return totalCycles
}

// alwaysExtraCycleStore reports whether opcode is a store instruction whose
// indexed-absolute/indirect-indexed addressing always costs the extra
// cycle (and always performs the dummy read at the pre-carry address),
// regardless of whether a page boundary was actually crossed.
func alwaysExtraCycleStore(opcode uint8) bool {
	switch opcode {
	case 0x9D, 0x99, 0x91, // STA abs,X / abs,Y / (zp),Y
		0x9B, 0x9C, 0x9E, 0x9F, 0x93, // TAS/SHY/SHX/SHA
		0xDB, 0xDF, 0xD3, 0xFB, 0xFF, 0xF3, 0x1B, 0x1F, 0x13, 0x3B, 0x3F, 0x33, 0x5B, 0x5F, 0x53, 0x7B, 0x7F, 0x73: // RMW unofficials: DCP/ISB/SLO/RLA/SRE/RRA
		return true
	}
	return false
}

// getOperandAddress returns the effective address for the given addressing
// mode (and whether a page boundary was crossed), performing the dummy bus
// reads mandated by spec §4.1 along the way: implied/accumulator dummy
// fetch of PC+1, and the pre-carry dummy read on indexed addressing.
func (cpu *CPU) getOperandAddress(opcode uint8, mode AddressingMode) (uint16, bool) {
	pageCrossed := false

	switch mode {
	case Implied, Accumulator:
		cpu.PC++
		cpu.memory.Read(cpu.PC) // dummy fetch of the next byte, discarded
		return 0, false

	case Immediate:
		address := cpu.PC + 1
		cpu.PC += 2
		return address, false

	case ZeroPage:
		address := uint16(cpu.memory.Read(cpu.PC + 1))
		cpu.PC += 2
		return address, false

	case ZeroPageX:
		base := cpu.memory.Read(cpu.PC + 1)
		cpu.memory.Read(uint16(base)) // dummy read at unindexed zero page address
		address := uint16((base + cpu.X) & zeroPageMask)
		cpu.PC += 2
		return address, false

	case ZeroPageY:
		base := cpu.memory.Read(cpu.PC + 1)
		cpu.memory.Read(uint16(base))
		address := uint16((base + cpu.Y) & zeroPageMask)
		cpu.PC += 2
		return address, false

	case Relative:
		offset := int8(cpu.memory.Read(cpu.PC + 1))
		oldPC := cpu.PC + 2
		newPC := uint16(int32(oldPC) + int32(offset))
		cpu.PC = oldPC
		pageCrossed = (oldPC & pageMask) != (newPC & pageMask)
		return newPC, pageCrossed

	case Absolute:
		low := uint16(cpu.memory.Read(cpu.PC + 1))
		high := uint16(cpu.memory.Read(cpu.PC + 2))
		address := (high << 8) | low
		cpu.PC += 3
		return address, false

	case AbsoluteX:
		low := uint16(cpu.memory.Read(cpu.PC + 1))
		high := uint16(cpu.memory.Read(cpu.PC + 2))
		base := (high << 8) | low
		address := base + uint16(cpu.X)
		cpu.PC += 3
		pageCrossed = (base & pageMask) != (address & pageMask)
		if pageCrossed || alwaysExtraCycleStore(opcode) {
			wrongAddr := (base & pageMask) | (address & 0x00FF)
			cpu.memory.Read(wrongAddr)
		}
		return address, pageCrossed

	case AbsoluteY:
		low := uint16(cpu.memory.Read(cpu.PC + 1))
		high := uint16(cpu.memory.Read(cpu.PC + 2))
		base := (high << 8) | low
		address := base + uint16(cpu.Y)
		cpu.PC += 3
		pageCrossed = (base & pageMask) != (address & pageMask)
		if pageCrossed || alwaysExtraCycleStore(opcode) {
			wrongAddr := (base & pageMask) | (address & 0x00FF)
			cpu.memory.Read(wrongAddr)
		}
		return address, pageCrossed

	case Indirect: // only JMP ($xxxx)
		lowPtr := uint16(cpu.memory.Read(cpu.PC + 1))
		highPtr := uint16(cpu.memory.Read(cpu.PC + 2))
		ptr := (highPtr << 8) | lowPtr

		var address uint16
		if (ptr & zeroPageMask) == zeroPageMask {
			low := uint16(cpu.memory.Read(ptr))
			high := uint16(cpu.memory.Read(ptr & pageMask)) // hardware bug: wraps within page
			address = (high << 8) | low
		} else {
			low := uint16(cpu.memory.Read(ptr))
			high := uint16(cpu.memory.Read(ptr + 1))
			address = (high << 8) | low
		}
		cpu.PC += 3
		return address, false

	case IndexedIndirect: // (zp,X)
		base := cpu.memory.Read(cpu.PC + 1)
		cpu.memory.Read(uint16(base)) // dummy read at unindexed pointer
		ptr := (base + cpu.X) & zeroPageMask
		low := uint16(cpu.memory.Read(uint16(ptr)))
		high := uint16(cpu.memory.Read(uint16((ptr + 1) & zeroPageMask)))
		address := (high << 8) | low
		cpu.PC += 2
		return address, false

	case IndirectIndexed: // (zp),Y
		ptr := uint16(cpu.memory.Read(cpu.PC + 1))
		low := uint16(cpu.memory.Read(ptr))
		high := uint16(cpu.memory.Read((ptr + 1) & zeroPageMask))
		base := (high << 8) | low
		address := base + uint16(cpu.Y)
		cpu.PC += 2
		pageCrossed = (base & pageMask) != (address & pageMask)
		if pageCrossed || alwaysExtraCycleStore(opcode) {
			wrongAddr := (base & pageMask) | (address & 0x00FF)
			cpu.memory.Read(wrongAddr)
		}
		return address, pageCrossed

	default:
		return 0, false
	}
}

func (cpu *CPU) push(value uint8) {
	cpu.memory.Write(stackBase+uint16(cpu.SP), value)
	cpu.SP--
}

func (cpu *CPU) pop() uint8 {
	cpu.SP++
	return cpu.memory.Read(stackBase + uint16(cpu.SP))
}

func (cpu *CPU) pushWord(value uint16) {
	cpu.push(uint8(value >> 8))
	cpu.push(uint8(value & 0xFF))
}

func (cpu *CPU) popWord() uint16 {
	low := uint16(cpu.pop())
	high := uint16(cpu.pop())
	return (high << 8) | low
}

func (cpu *CPU) setZN(value uint8) {
	cpu.Z = value == 0
	cpu.N = (value & nFlagMask) != 0
}

// statusByte composes the status register as pushed to the stack. breakBit
// is true for BRK/PHP (software-initiated pushes) and false for NMI/IRQ
// (hardware-initiated pushes) — see the note on B in the CPU struct above.
func (cpu *CPU) statusByte(breakBit bool) uint8 {
	var status uint8
	if cpu.N {
		status |= nFlagMask
	}
	if cpu.V {
		status |= vFlagMask
	}
	status |= unusedMask
	if breakBit {
		status |= bFlagMask
	}
	if cpu.D {
		status |= dFlagMask
	}
	if cpu.I {
		status |= iFlagMask
	}
	if cpu.Z {
		status |= zFlagMask
	}
	if cpu.C {
		status |= cFlagMask
	}
	return status
}

// GetStatusByte returns the status register as read by callers outside the
// push path (e.g. save states, trace logging); B reads as 1 since nothing
// else observes it as 0 outside of a live hardware-interrupt push.
func (cpu *CPU) GetStatusByte() uint8 { return cpu.statusByte(true) }

// SetStatusByte restores N V D I Z C from a byte (PLP/RTI); the pushed B
// and bit-5 positions are not stored anywhere, matching real hardware.
func (cpu *CPU) SetStatusByte(status uint8) {
	cpu.N = (status & nFlagMask) != 0
	cpu.V = (status & vFlagMask) != 0
	cpu.D = (status & dFlagMask) != 0
	cpu.I = (status & iFlagMask) != 0
	cpu.Z = (status & zFlagMask) != 0
	cpu.C = (status & cFlagMask) != 0
}

// handleInterrupt pushes PC and status and loads PC from one of the
// interrupt vectors. It implements the NMI-hijack behavior: spec §4.1
// requires that if an NMI's rising edge is latched while an IRQ or BRK is
// already mid-sequence (after status has been pushed but before the vector
// is fetched), the vector fetch redirects to $FFFA instead of $FFFE — the
// pushed return address and status are for the original instruction, but
// control resumes at the NMI handler. Modeled here by checking nmiPending
// immediately before the vector read, which is the last point before the
// real hardware latches the vector address internally. A hardware NMI/IRQ
// dispatch adds its 7 cycles here; BRK's 7 cycles come from its opcode
// table entry, which Step adds.
func (cpu *CPU) handleInterrupt(breakBit bool) {
	vector := uint16(irqVector)
	if cpu.nmiPending {
		cpu.nmiPending = false
		vector = nmiVector
	}
	cpu.I = true
	low := uint16(cpu.memory.Read(vector))
	high := uint16(cpu.memory.Read(vector + 1))
	cpu.PC = (high << 8) | low
	if !breakBit {
		cpu.cycles += 7
	}
}

// SetNMI updates the live NMI line and latches a pending service request on
// the rising edge (the NES's NMI line is asserted while the PPU is in
// vblank and PPUCTRL bit 7 is set; spec §4.1 requires edge-triggering on
// the 0->1 transition of that condition, not the 1->0 transition).
func (cpu *CPU) SetNMI(state bool) {
	if state && !cpu.nmiPrevious {
		cpu.nmiPending = true
	}
	cpu.nmiPrevious = state
	cpu.nmiLine = state
}

// SetIRQ sets the level-sensitive IRQ line state.
func (cpu *CPU) SetIRQ(state bool) {
	cpu.irqLine = state
}

// ProcessPendingInterrupts services a latched NMI (unconditionally) or a
// level IRQ (gated on the one-instruction-delayed I flag) after the
// instruction that just completed.
func (cpu *CPU) ProcessPendingInterrupts() {
	if cpu.nmiPending {
		cpu.pushWord(cpu.PC)
		cpu.push(cpu.statusByte(false))
		cpu.handleInterrupt(false)
		return
	}
	if cpu.irqLine && !cpu.prevIRQInhibit {
		cpu.pushWord(cpu.PC)
		cpu.push(cpu.statusByte(false))
		cpu.handleInterrupt(false)
	}
}

// Instruction operations

func (cpu *CPU) lda(address uint16) uint8 {
	cpu.A = cpu.memory.Read(address)
	cpu.setZN(cpu.A)
	return 0
}

func (cpu *CPU) ldx(address uint16) uint8 {
	cpu.X = cpu.memory.Read(address)
	cpu.setZN(cpu.X)
	return 0
}

func (cpu *CPU) ldy(address uint16) uint8 {
	cpu.Y = cpu.memory.Read(address)
	cpu.setZN(cpu.Y)
	return 0
}

func (cpu *CPU) sta(address uint16) uint8 {
	cpu.memory.Write(address, cpu.A)
	return 0
}

func (cpu *CPU) stx(address uint16) uint8 {
	cpu.memory.Write(address, cpu.X)
	return 0
}

func (cpu *CPU) sty(address uint16) uint8 {
	cpu.memory.Write(address, cpu.Y)
	return 0
}

func (cpu *CPU) adc(address uint16) uint8 {
	value := cpu.memory.Read(address)
	carry := uint8(0)
	if cpu.C {
		carry = 1
	}
	result := uint16(cpu.A) + uint16(value) + uint16(carry)
	cpu.V = ((cpu.A^uint8(result))&0x80) != 0 && ((cpu.A^value)&0x80) == 0
	cpu.C = result > 0xFF
	cpu.A = uint8(result)
	cpu.setZN(cpu.A)
	return 0
}

func (cpu *CPU) sbc(address uint16) uint8 {
	value := cpu.memory.Read(address) ^ 0xFF
	carry := uint8(0)
	if cpu.C {
		carry = 1
	}
	result := uint16(cpu.A) + uint16(value) + uint16(carry)
	cpu.V = ((cpu.A^uint8(result))&0x80) != 0 && ((cpu.A^value)&0x80) == 0
	cpu.C = result > 0xFF
	cpu.A = uint8(result)
	cpu.setZN(cpu.A)
	return 0
}

func (cpu *CPU) and(address uint16) uint8 {
	cpu.A &= cpu.memory.Read(address)
	cpu.setZN(cpu.A)
	return 0
}

func (cpu *CPU) ora(address uint16) uint8 {
	cpu.A |= cpu.memory.Read(address)
	cpu.setZN(cpu.A)
	return 0
}

func (cpu *CPU) eor(address uint16) uint8 {
	cpu.A ^= cpu.memory.Read(address)
	cpu.setZN(cpu.A)
	return 0
}

// rmwWrite performs the mandatory dummy write of the unmodified value
// before the real write, per spec §4.1's RMW dummy-cycle requirement
// (observable when the RMW target is a PPU/APU register).
func (cpu *CPU) rmwWrite(address uint16, original, final uint8) {
	cpu.memory.Write(address, original)
	cpu.memory.Write(address, final)
}

func (cpu *CPU) asl(address uint16) uint8 {
	value := cpu.memory.Read(address)
	cpu.C = (value & 0x80) != 0
	result := value << 1
	cpu.rmwWrite(address, value, result)
	cpu.setZN(result)
	return 0
}

func (cpu *CPU) lsr(address uint16) uint8 {
	value := cpu.memory.Read(address)
	cpu.C = (value & 0x01) != 0
	result := value >> 1
	cpu.rmwWrite(address, value, result)
	cpu.setZN(result)
	return 0
}

func (cpu *CPU) rol(address uint16) uint8 {
	value := cpu.memory.Read(address)
	oldCarry := cpu.C
	cpu.C = (value & 0x80) != 0
	result := value << 1
	if oldCarry {
		result |= 0x01
	}
	cpu.rmwWrite(address, value, result)
	cpu.setZN(result)
	return 0
}

func (cpu *CPU) ror(address uint16) uint8 {
	value := cpu.memory.Read(address)
	oldCarry := cpu.C
	cpu.C = (value & 0x01) != 0
	result := value >> 1
	if oldCarry {
		result |= 0x80
	}
	cpu.rmwWrite(address, value, result)
	cpu.setZN(result)
	return 0
}

func (cpu *CPU) cmp(address uint16) uint8 {
	value := cpu.memory.Read(address)
	result := cpu.A - value
	cpu.C = cpu.A >= value
	cpu.setZN(result)
	return 0
}

func (cpu *CPU) cpx(address uint16) uint8 {
	value := cpu.memory.Read(address)
	result := cpu.X - value
	cpu.C = cpu.X >= value
	cpu.setZN(result)
	return 0
}

func (cpu *CPU) cpy(address uint16) uint8 {
	value := cpu.memory.Read(address)
	result := cpu.Y - value
	cpu.C = cpu.Y >= value
	cpu.setZN(result)
	return 0
}

func (cpu *CPU) inc(address uint16) uint8 {
	value := cpu.memory.Read(address)
	result := value + 1
	cpu.rmwWrite(address, value, result)
	cpu.setZN(result)
	return 0
}

func (cpu *CPU) dec(address uint16) uint8 {
	value := cpu.memory.Read(address)
	result := value - 1
	cpu.rmwWrite(address, value, result)
	cpu.setZN(result)
	return 0
}

func (cpu *CPU) inx(address uint16) uint8 {
	cpu.X++
	cpu.setZN(cpu.X)
	return 0
}

func (cpu *CPU) dex(address uint16) uint8 {
	cpu.X--
	cpu.setZN(cpu.X)
	return 0
}

func (cpu *CPU) iny(address uint16) uint8 {
	cpu.Y++
	cpu.setZN(cpu.Y)
	return 0
}

func (cpu *CPU) dey(address uint16) uint8 {
	cpu.Y--
	cpu.setZN(cpu.Y)
	return 0
}

func (cpu *CPU) tax(address uint16) uint8 {
	cpu.X = cpu.A
	cpu.setZN(cpu.X)
	return 0
}

func (cpu *CPU) txa(address uint16) uint8 {
	cpu.A = cpu.X
	cpu.setZN(cpu.A)
	return 0
}

func (cpu *CPU) tay(address uint16) uint8 {
	cpu.Y = cpu.A
	cpu.setZN(cpu.Y)
	return 0
}

func (cpu *CPU) tya(address uint16) uint8 {
	cpu.A = cpu.Y
	cpu.setZN(cpu.A)
	return 0
}

func (cpu *CPU) tsx(address uint16) uint8 {
	cpu.X = cpu.SP
	cpu.setZN(cpu.X)
	return 0
}

func (cpu *CPU) txs(address uint16) uint8 {
	cpu.SP = cpu.X
	return 0
}

func (cpu *CPU) pha(address uint16) uint8 {
	cpu.push(cpu.A)
	return 0
}

func (cpu *CPU) pla(address uint16) uint8 {
	cpu.A = cpu.pop()
	cpu.setZN(cpu.A)
	return 0
}

func (cpu *CPU) php(address uint16) uint8 {
	cpu.push(cpu.statusByte(true))
	return 0
}

func (cpu *CPU) plp(address uint16) uint8 {
	cpu.SetStatusByte(cpu.pop())
	return 0
}

func (cpu *CPU) clc(address uint16) uint8 { cpu.C = false; return 0 }
func (cpu *CPU) sec(address uint16) uint8 { cpu.C = true; return 0 }
func (cpu *CPU) cli(address uint16) uint8 { cpu.I = false; return 0 }
func (cpu *CPU) sei(address uint16) uint8 { cpu.I = true; return 0 }
func (cpu *CPU) clv(address uint16) uint8 { cpu.V = false; return 0 }
func (cpu *CPU) cld(address uint16) uint8 { cpu.D = false; return 0 }
func (cpu *CPU) sed(address uint16) uint8 { cpu.D = true; return 0 }

func (cpu *CPU) jmp(address uint16) uint8 {
	cpu.PC = address
	return 0
}

func (cpu *CPU) jsr(address uint16) uint8 {
	cpu.pushWord(cpu.PC - 1)
	cpu.PC = address
	return 0
}

func (cpu *CPU) rts(address uint16) uint8 {
	cpu.PC = cpu.popWord() + 1
	return 0
}

func (cpu *CPU) rti(address uint16) uint8 {
	cpu.SetStatusByte(cpu.pop())
	cpu.PC = cpu.popWord()
	return 0
}

func branchTaken(cpu *CPU, address uint16, taken, pageCrossed bool) uint8 {
	if !taken {
		return 0
	}
	cpu.PC = address
	if pageCrossed {
		return 2
	}
	return 1
}

func (cpu *CPU) bcc(address uint16, pageCrossed bool) uint8 { return branchTaken(cpu, address, !cpu.C, pageCrossed) }
func (cpu *CPU) bcs(address uint16, pageCrossed bool) uint8 { return branchTaken(cpu, address, cpu.C, pageCrossed) }
func (cpu *CPU) bne(address uint16, pageCrossed bool) uint8 { return branchTaken(cpu, address, !cpu.Z, pageCrossed) }
func (cpu *CPU) beq(address uint16, pageCrossed bool) uint8 { return branchTaken(cpu, address, cpu.Z, pageCrossed) }
func (cpu *CPU) bpl(address uint16, pageCrossed bool) uint8 { return branchTaken(cpu, address, !cpu.N, pageCrossed) }
func (cpu *CPU) bmi(address uint16, pageCrossed bool) uint8 { return branchTaken(cpu, address, cpu.N, pageCrossed) }
func (cpu *CPU) bvc(address uint16, pageCrossed bool) uint8 { return branchTaken(cpu, address, !cpu.V, pageCrossed) }
func (cpu *CPU) bvs(address uint16, pageCrossed bool) uint8 { return branchTaken(cpu, address, cpu.V, pageCrossed) }

func (cpu *CPU) bit(address uint16) uint8 {
	value := cpu.memory.Read(address)
	cpu.N = (value & nFlagMask) != 0
	cpu.V = (value & vFlagMask) != 0
	cpu.Z = (cpu.A & value) == 0
	return 0
}

func (cpu *CPU) nop(address uint16) uint8 { return 0 }

// brk pushes PC+2 (the opcode byte plus a padding byte) and status with
// B=1, then vectors through $FFFE (or $FFFA if an NMI hijacks it; see
// handleInterrupt).
func (cpu *CPU) brk(address uint16) uint8 {
	cpu.PC++
	cpu.pushWord(cpu.PC)
	cpu.push(cpu.statusByte(true))
	cpu.handleInterrupt(true)
	return 0
}

// --- Unofficial opcodes ---

func (cpu *CPU) lax(address uint16) uint8 {
	cpu.A = cpu.memory.Read(address)
	cpu.X = cpu.A
	cpu.setZN(cpu.A)
	return 0
}

func (cpu *CPU) sax(address uint16) uint8 {
	cpu.memory.Write(address, cpu.A&cpu.X)
	return 0
}

func (cpu *CPU) dcp(address uint16) uint8 {
	value := cpu.memory.Read(address)
	decremented := value - 1
	cpu.rmwWrite(address, value, decremented)
	result := cpu.A - decremented
	cpu.C = cpu.A >= decremented
	cpu.setZN(result)
	return 0
}

func (cpu *CPU) isb(address uint16) uint8 {
	value := cpu.memory.Read(address)
	incremented := value + 1
	cpu.rmwWrite(address, value, incremented)
	cpu.sbcValue(incremented)
	return 0
}

// sbcValue runs SBC's ALU path against an already-fetched value, for the
// RMW-combination unofficial opcodes (ISB) whose second half re-reads the
// value they just wrote rather than issuing a second bus read.
func (cpu *CPU) sbcValue(raw uint8) {
	value := raw ^ 0xFF
	carry := uint8(0)
	if cpu.C {
		carry = 1
	}
	result := uint16(cpu.A) + uint16(value) + uint16(carry)
	cpu.V = ((cpu.A^uint8(result))&0x80) != 0 && ((cpu.A^value)&0x80) == 0
	cpu.C = result > 0xFF
	cpu.A = uint8(result)
	cpu.setZN(cpu.A)
}

func (cpu *CPU) slo(address uint16) uint8 {
	value := cpu.memory.Read(address)
	cpu.C = (value & 0x80) != 0
	shifted := value << 1
	cpu.rmwWrite(address, value, shifted)
	cpu.A |= shifted
	cpu.setZN(cpu.A)
	return 0
}

func (cpu *CPU) rla(address uint16) uint8 {
	value := cpu.memory.Read(address)
	oldCarry := cpu.C
	cpu.C = (value & 0x80) != 0
	rotated := value << 1
	if oldCarry {
		rotated |= 0x01
	}
	cpu.rmwWrite(address, value, rotated)
	cpu.A &= rotated
	cpu.setZN(cpu.A)
	return 0
}

func (cpu *CPU) sre(address uint16) uint8 {
	value := cpu.memory.Read(address)
	cpu.C = (value & 0x01) != 0
	shifted := value >> 1
	cpu.rmwWrite(address, value, shifted)
	cpu.A ^= shifted
	cpu.setZN(cpu.A)
	return 0
}

func (cpu *CPU) rra(address uint16) uint8 {
	value := cpu.memory.Read(address)
	oldCarry := cpu.C
	cpu.C = (value & 0x01) != 0
	rotated := value >> 1
	if oldCarry {
		rotated |= 0x80
	}
	cpu.rmwWrite(address, value, rotated)
	carry := uint8(0)
	if cpu.C {
		carry = 1
	}
	result := uint16(cpu.A) + uint16(rotated) + uint16(carry)
	cpu.V = ((cpu.A^uint8(result))&0x80) != 0 && ((cpu.A^rotated)&0x80) == 0
	cpu.C = result > 0xFF
	cpu.A = uint8(result)
	cpu.setZN(cpu.A)
	return 0
}

// --- Unstable illegal opcodes: "magic constant = 0xEE" model (spec §9
// Open Question 2). ANE and LXA OR the accumulator with the constant 0xEE
// before ANDing with the operand (and X, for ANE); SHA/SHX/SHY/TAS AND the
// stored value with the target address's high byte + 1. This is the
// commonly documented Visual6502-derived model and is not re-derived at
// each call site below.

func (cpu *CPU) anc(address uint16) uint8 {
	cpu.A &= cpu.memory.Read(address)
	cpu.setZN(cpu.A)
	cpu.C = cpu.N
	return 0
}

func (cpu *CPU) alr(address uint16) uint8 {
	cpu.A &= cpu.memory.Read(address)
	cpu.C = (cpu.A & 0x01) != 0
	cpu.A >>= 1
	cpu.setZN(cpu.A)
	return 0
}

func (cpu *CPU) arr(address uint16) uint8 {
	cpu.A &= cpu.memory.Read(address)
	carry := uint8(0)
	if cpu.C {
		carry = 0x80
	}
	cpu.A = (cpu.A >> 1) | carry
	cpu.setZN(cpu.A)
	cpu.C = (cpu.A & 0x40) != 0
	cpu.V = ((cpu.A>>6)^(cpu.A>>5))&1 != 0
	return 0
}

// ane (XAA): A = (A | 0xEE) & X & immediate.
func (cpu *CPU) ane(address uint16) uint8 {
	value := cpu.memory.Read(address)
	cpu.A = (cpu.A | 0xEE) & cpu.X & value
	cpu.setZN(cpu.A)
	return 0
}

// lxa (LAX #imm / ATX): A = X = (A | 0xEE) & immediate.
func (cpu *CPU) lxa(address uint16) uint8 {
	value := cpu.memory.Read(address)
	cpu.A = (cpu.A | 0xEE) & value
	cpu.X = cpu.A
	cpu.setZN(cpu.A)
	return 0
}

// sbx (AXS): X = (A & X) - immediate, with carry/borrow like CMP.
func (cpu *CPU) sbx(address uint16) uint8 {
	value := cpu.memory.Read(address)
	anded := cpu.A & cpu.X
	cpu.C = anded >= value
	cpu.X = anded - value
	cpu.setZN(cpu.X)
	return 0
}

// highByteAndStore implements the SHA/SHX/SHY/TAS family: the stored value
// is ANDed with (high byte of the target address + 1), modeling the
// address-bus/data-bus coupling that makes these opcodes unstable on real
// hardware when indexing crosses a page.
func highByteAndStore(address uint16, reg uint8) uint8 {
	return reg & (uint8(address>>8) + 1)
}

func (cpu *CPU) sha(address uint16) uint8 {
	cpu.memory.Write(address, highByteAndStore(address, cpu.A&cpu.X))
	return 0
}

func (cpu *CPU) shx(address uint16) uint8 {
	cpu.memory.Write(address, highByteAndStore(address, cpu.X))
	return 0
}

func (cpu *CPU) shy(address uint16) uint8 {
	cpu.memory.Write(address, highByteAndStore(address, cpu.Y))
	return 0
}

func (cpu *CPU) tas(address uint16) uint8 {
	cpu.SP = cpu.A & cpu.X
	cpu.memory.Write(address, highByteAndStore(address, cpu.SP))
	return 0
}

func (cpu *CPU) las(address uint16) uint8 {
	value := cpu.memory.Read(address) & cpu.SP
	cpu.A = value
	cpu.X = value
	cpu.SP = value
	cpu.setZN(value)
	return 0
}

// executeInstruction executes the given opcode at the already-computed
// address. Returns extra cycles beyond the instruction's base count.
func (cpu *CPU) executeInstruction(opcode uint8, address uint16, pageCrossed bool) uint8 {
	switch opcode {
	case 0xA9, 0xA5, 0xB5, 0xAD, 0xBD, 0xB9, 0xA1, 0xB1:
		return cpu.lda(address)
	case 0xA2, 0xA6, 0xB6, 0xAE, 0xBE:
		return cpu.ldx(address)
	case 0xA0, 0xA4, 0xB4, 0xAC, 0xBC:
		return cpu.ldy(address)
	case 0x85, 0x95, 0x8D, 0x9D, 0x99, 0x81, 0x91:
		return cpu.sta(address)
	case 0x86, 0x96, 0x8E:
		return cpu.stx(address)
	case 0x84, 0x94, 0x8C:
		return cpu.sty(address)

	case 0x69, 0x65, 0x75, 0x6D, 0x7D, 0x79, 0x61, 0x71:
		return cpu.adc(address)
	case 0xE9, 0xEB, 0xE5, 0xF5, 0xED, 0xFD, 0xF9, 0xE1, 0xF1:
		return cpu.sbc(address)

	case 0x29, 0x25, 0x35, 0x2D, 0x3D, 0x39, 0x21, 0x31:
		return cpu.and(address)
	case 0x09, 0x05, 0x15, 0x0D, 0x1D, 0x19, 0x01, 0x11:
		return cpu.ora(address)
	case 0x49, 0x45, 0x55, 0x4D, 0x5D, 0x59, 0x41, 0x51:
		return cpu.eor(address)

	case 0x0A:
		cpu.C = (cpu.A & 0x80) != 0
		cpu.A <<= 1
		cpu.setZN(cpu.A)
		return 0
	case 0x06, 0x16, 0x0E, 0x1E:
		return cpu.asl(address)
	case 0x4A:
		cpu.C = (cpu.A & 0x01) != 0
		cpu.A >>= 1
		cpu.setZN(cpu.A)
		return 0
	case 0x46, 0x56, 0x4E, 0x5E:
		return cpu.lsr(address)
	case 0x2A:
		oldCarry := cpu.C
		cpu.C = (cpu.A & 0x80) != 0
		cpu.A <<= 1
		if oldCarry {
			cpu.A |= 0x01
		}
		cpu.setZN(cpu.A)
		return 0
	case 0x26, 0x36, 0x2E, 0x3E:
		return cpu.rol(address)
	case 0x6A:
		oldCarry := cpu.C
		cpu.C = (cpu.A & 0x01) != 0
		cpu.A >>= 1
		if oldCarry {
			cpu.A |= 0x80
		}
		cpu.setZN(cpu.A)
		return 0
	case 0x66, 0x76, 0x6E, 0x7E:
		return cpu.ror(address)

	case 0xC9, 0xC5, 0xD5, 0xCD, 0xDD, 0xD9, 0xC1, 0xD1:
		return cpu.cmp(address)
	case 0xE0, 0xE4, 0xEC:
		return cpu.cpx(address)
	case 0xC0, 0xC4, 0xCC:
		return cpu.cpy(address)

	case 0xE6, 0xF6, 0xEE, 0xFE:
		return cpu.inc(address)
	case 0xC6, 0xD6, 0xCE, 0xDE:
		return cpu.dec(address)
	case 0xE8:
		return cpu.inx(address)
	case 0xCA:
		return cpu.dex(address)
	case 0xC8:
		return cpu.iny(address)
	case 0x88:
		return cpu.dey(address)

	case 0xAA:
		return cpu.tax(address)
	case 0x8A:
		return cpu.txa(address)
	case 0xA8:
		return cpu.tay(address)
	case 0x98:
		return cpu.tya(address)
	case 0xBA:
		return cpu.tsx(address)
	case 0x9A:
		return cpu.txs(address)

	case 0x48:
		return cpu.pha(address)
	case 0x68:
		return cpu.pla(address)
	case 0x08:
		return cpu.php(address)
	case 0x28:
		return cpu.plp(address)

	case 0x18:
		return cpu.clc(address)
	case 0x38:
		return cpu.sec(address)
	case 0x58:
		return cpu.cli(address)
	case 0x78:
		return cpu.sei(address)
	case 0xB8:
		return cpu.clv(address)
	case 0xD8:
		return cpu.cld(address)
	case 0xF8:
		return cpu.sed(address)

	case 0x4C, 0x6C:
		return cpu.jmp(address)
	case 0x20:
		return cpu.jsr(address)
	case 0x60:
		return cpu.rts(address)
	case 0x40:
		return cpu.rti(address)

	case 0x90:
		return cpu.bcc(address, pageCrossed)
	case 0xB0:
		return cpu.bcs(address, pageCrossed)
	case 0xD0:
		return cpu.bne(address, pageCrossed)
	case 0xF0:
		return cpu.beq(address, pageCrossed)
	case 0x10:
		return cpu.bpl(address, pageCrossed)
	case 0x30:
		return cpu.bmi(address, pageCrossed)
	case 0x50:
		return cpu.bvc(address, pageCrossed)
	case 0x70:
		return cpu.bvs(address, pageCrossed)

	case 0x24, 0x2C:
		return cpu.bit(address)
	case 0x00:
		return cpu.brk(address)

	case 0xEA, 0x1A, 0x3A, 0x5A, 0x7A, 0xDA, 0xFA, 0x80, 0x82, 0x89, 0xC2, 0xE2, 0x04, 0x44, 0x64, 0x14, 0x34, 0x54, 0x74, 0xD4, 0xF4, 0x0C, 0x1C, 0x3C, 0x5C, 0x7C, 0xDC, 0xFC:
		return cpu.nop(address)

	case 0xA3, 0xA7, 0xAF, 0xB3, 0xB7, 0xBF:
		return cpu.lax(address)
	case 0x83, 0x87, 0x8F, 0x97:
		return cpu.sax(address)
	case 0xC3, 0xC7, 0xCF, 0xD3, 0xD7, 0xDF, 0xDB:
		return cpu.dcp(address)
	case 0xE3, 0xE7, 0xEF, 0xF3, 0xF7, 0xFF, 0xFB:
		return cpu.isb(address)
	case 0x03, 0x07, 0x0F, 0x13, 0x17, 0x1F, 0x1B:
		return cpu.slo(address)
	case 0x23, 0x27, 0x2F, 0x33, 0x37, 0x3F, 0x3B:
		return cpu.rla(address)
	case 0x43, 0x47, 0x4F, 0x53, 0x57, 0x5F, 0x5B:
		return cpu.sre(address)
	case 0x63, 0x67, 0x6F, 0x73, 0x77, 0x7F, 0x7B:
		return cpu.rra(address)

	case 0x0B, 0x2B:
		return cpu.anc(address)
	case 0x4B:
		return cpu.alr(address)
	case 0x6B:
		return cpu.arr(address)
	case 0x8B:
		return cpu.ane(address)
	case 0xAB:
		return cpu.lxa(address)
	case 0xCB:
		return cpu.sbx(address)
	case 0x9F, 0x93:
		return cpu.sha(address)
	case 0x9E:
		return cpu.shx(address)
	case 0x9C:
		return cpu.shy(address)
	case 0x9B:
		return cpu.tas(address)
	case 0xBB:
		return cpu.las(address)

	default:
		return 0
	}
}

// initInstructions populates the static opcode table.
func (cpu *CPU) initInstructions() {
	cpu.instructions[0xA9] = &Instruction{"LDA", 0xA9, 2, 2, Immediate}
	cpu.instructions[0xA5] = &Instruction{"LDA", 0xA5, 2, 3, ZeroPage}
	cpu.instructions[0xB5] = &Instruction{"LDA", 0xB5, 2, 4, ZeroPageX}
	cpu.instructions[0xAD] = &Instruction{"LDA", 0xAD, 3, 4, Absolute}
	cpu.instructions[0xBD] = &Instruction{"LDA", 0xBD, 3, 4, AbsoluteX}
	cpu.instructions[0xB9] = &Instruction{"LDA", 0xB9, 3, 4, AbsoluteY}
	cpu.instructions[0xA1] = &Instruction{"LDA", 0xA1, 2, 6, IndexedIndirect}
	cpu.instructions[0xB1] = &Instruction{"LDA", 0xB1, 2, 5, IndirectIndexed}

	cpu.instructions[0xA2] = &Instruction{"LDX", 0xA2, 2, 2, Immediate}
	cpu.instructions[0xA6] = &Instruction{"LDX", 0xA6, 2, 3, ZeroPage}
	cpu.instructions[0xB6] = &Instruction{"LDX", 0xB6, 2, 4, ZeroPageY}
	cpu.instructions[0xAE] = &Instruction{"LDX", 0xAE, 3, 4, Absolute}
	cpu.instructions[0xBE] = &Instruction{"LDX", 0xBE, 3, 4, AbsoluteY}

	cpu.instructions[0xA0] = &Instruction{"LDY", 0xA0, 2, 2, Immediate}
	cpu.instructions[0xA4] = &Instruction{"LDY", 0xA4, 2, 3, ZeroPage}
	cpu.instructions[0xB4] = &Instruction{"LDY", 0xB4, 2, 4, ZeroPageX}
	cpu.instructions[0xAC] = &Instruction{"LDY", 0xAC, 3, 4, Absolute}
	cpu.instructions[0xBC] = &Instruction{"LDY", 0xBC, 3, 4, AbsoluteX}

	cpu.instructions[0x85] = &Instruction{"STA", 0x85, 2, 3, ZeroPage}
	cpu.instructions[0x95] = &Instruction{"STA", 0x95, 2, 4, ZeroPageX}
	cpu.instructions[0x8D] = &Instruction{"STA", 0x8D, 3, 4, Absolute}
	cpu.instructions[0x9D] = &Instruction{"STA", 0x9D, 3, 5, AbsoluteX}
	cpu.instructions[0x99] = &Instruction{"STA", 0x99, 3, 5, AbsoluteY}
	cpu.instructions[0x81] = &Instruction{"STA", 0x81, 2, 6, IndexedIndirect}
	cpu.instructions[0x91] = &Instruction{"STA", 0x91, 2, 6, IndirectIndexed}

	cpu.instructions[0x86] = &Instruction{"STX", 0x86, 2, 3, ZeroPage}
	cpu.instructions[0x96] = &Instruction{"STX", 0x96, 2, 4, ZeroPageY}
	cpu.instructions[0x8E] = &Instruction{"STX", 0x8E, 3, 4, Absolute}

	cpu.instructions[0x84] = &Instruction{"STY", 0x84, 2, 3, ZeroPage}
	cpu.instructions[0x94] = &Instruction{"STY", 0x94, 2, 4, ZeroPageX}
	cpu.instructions[0x8C] = &Instruction{"STY", 0x8C, 3, 4, Absolute}

	cpu.instructions[0x69] = &Instruction{"ADC", 0x69, 2, 2, Immediate}
	cpu.instructions[0x65] = &Instruction{"ADC", 0x65, 2, 3, ZeroPage}
	cpu.instructions[0x75] = &Instruction{"ADC", 0x75, 2, 4, ZeroPageX}
	cpu.instructions[0x6D] = &Instruction{"ADC", 0x6D, 3, 4, Absolute}
	cpu.instructions[0x7D] = &Instruction{"ADC", 0x7D, 3, 4, AbsoluteX}
	cpu.instructions[0x79] = &Instruction{"ADC", 0x79, 3, 4, AbsoluteY}
	cpu.instructions[0x61] = &Instruction{"ADC", 0x61, 2, 6, IndexedIndirect}
	cpu.instructions[0x71] = &Instruction{"ADC", 0x71, 2, 5, IndirectIndexed}

	cpu.instructions[0xE9] = &Instruction{"SBC", 0xE9, 2, 2, Immediate}
	cpu.instructions[0xE5] = &Instruction{"SBC", 0xE5, 2, 3, ZeroPage}
	cpu.instructions[0xF5] = &Instruction{"SBC", 0xF5, 2, 4, ZeroPageX}
	cpu.instructions[0xED] = &Instruction{"SBC", 0xED, 3, 4, Absolute}
	cpu.instructions[0xFD] = &Instruction{"SBC", 0xFD, 3, 4, AbsoluteX}
	cpu.instructions[0xF9] = &Instruction{"SBC", 0xF9, 3, 4, AbsoluteY}
	cpu.instructions[0xE1] = &Instruction{"SBC", 0xE1, 2, 6, IndexedIndirect}
	cpu.instructions[0xF1] = &Instruction{"SBC", 0xF1, 2, 5, IndirectIndexed}

	cpu.instructions[0x29] = &Instruction{"AND", 0x29, 2, 2, Immediate}
	cpu.instructions[0x25] = &Instruction{"AND", 0x25, 2, 3, ZeroPage}
	cpu.instructions[0x35] = &Instruction{"AND", 0x35, 2, 4, ZeroPageX}
	cpu.instructions[0x2D] = &Instruction{"AND", 0x2D, 3, 4, Absolute}
	cpu.instructions[0x3D] = &Instruction{"AND", 0x3D, 3, 4, AbsoluteX}
	cpu.instructions[0x39] = &Instruction{"AND", 0x39, 3, 4, AbsoluteY}
	cpu.instructions[0x21] = &Instruction{"AND", 0x21, 2, 6, IndexedIndirect}
	cpu.instructions[0x31] = &Instruction{"AND", 0x31, 2, 5, IndirectIndexed}

	cpu.instructions[0x09] = &Instruction{"ORA", 0x09, 2, 2, Immediate}
	cpu.instructions[0x05] = &Instruction{"ORA", 0x05, 2, 3, ZeroPage}
	cpu.instructions[0x15] = &Instruction{"ORA", 0x15, 2, 4, ZeroPageX}
	cpu.instructions[0x0D] = &Instruction{"ORA", 0x0D, 3, 4, Absolute}
	cpu.instructions[0x1D] = &Instruction{"ORA", 0x1D, 3, 4, AbsoluteX}
	cpu.instructions[0x19] = &Instruction{"ORA", 0x19, 3, 4, AbsoluteY}
	cpu.instructions[0x01] = &Instruction{"ORA", 0x01, 2, 6, IndexedIndirect}
	cpu.instructions[0x11] = &Instruction{"ORA", 0x11, 2, 5, IndirectIndexed}

	cpu.instructions[0x49] = &Instruction{"EOR", 0x49, 2, 2, Immediate}
	cpu.instructions[0x45] = &Instruction{"EOR", 0x45, 2, 3, ZeroPage}
	cpu.instructions[0x55] = &Instruction{"EOR", 0x55, 2, 4, ZeroPageX}
	cpu.instructions[0x4D] = &Instruction{"EOR", 0x4D, 3, 4, Absolute}
	cpu.instructions[0x5D] = &Instruction{"EOR", 0x5D, 3, 4, AbsoluteX}
	cpu.instructions[0x59] = &Instruction{"EOR", 0x59, 3, 4, AbsoluteY}
	cpu.instructions[0x41] = &Instruction{"EOR", 0x41, 2, 6, IndexedIndirect}
	cpu.instructions[0x51] = &Instruction{"EOR", 0x51, 2, 5, IndirectIndexed}

	cpu.instructions[0x0A] = &Instruction{"ASL", 0x0A, 1, 2, Accumulator}
	cpu.instructions[0x06] = &Instruction{"ASL", 0x06, 2, 5, ZeroPage}
	cpu.instructions[0x16] = &Instruction{"ASL", 0x16, 2, 6, ZeroPageX}
	cpu.instructions[0x0E] = &Instruction{"ASL", 0x0E, 3, 6, Absolute}
	cpu.instructions[0x1E] = &Instruction{"ASL", 0x1E, 3, 7, AbsoluteX}

	cpu.instructions[0x4A] = &Instruction{"LSR", 0x4A, 1, 2, Accumulator}
	cpu.instructions[0x46] = &Instruction{"LSR", 0x46, 2, 5, ZeroPage}
	cpu.instructions[0x56] = &Instruction{"LSR", 0x56, 2, 6, ZeroPageX}
	cpu.instructions[0x4E] = &Instruction{"LSR", 0x4E, 3, 6, Absolute}
	cpu.instructions[0x5E] = &Instruction{"LSR", 0x5E, 3, 7, AbsoluteX}

	cpu.instructions[0x2A] = &Instruction{"ROL", 0x2A, 1, 2, Accumulator}
	cpu.instructions[0x26] = &Instruction{"ROL", 0x26, 2, 5, ZeroPage}
	cpu.instructions[0x36] = &Instruction{"ROL", 0x36, 2, 6, ZeroPageX}
	cpu.instructions[0x2E] = &Instruction{"ROL", 0x2E, 3, 6, Absolute}
	cpu.instructions[0x3E] = &Instruction{"ROL", 0x3E, 3, 7, AbsoluteX}

	cpu.instructions[0x6A] = &Instruction{"ROR", 0x6A, 1, 2, Accumulator}
	cpu.instructions[0x66] = &Instruction{"ROR", 0x66, 2, 5, ZeroPage}
	cpu.instructions[0x76] = &Instruction{"ROR", 0x76, 2, 6, ZeroPageX}
	cpu.instructions[0x6E] = &Instruction{"ROR", 0x6E, 3, 6, Absolute}
	cpu.instructions[0x7E] = &Instruction{"ROR", 0x7E, 3, 7, AbsoluteX}

	cpu.instructions[0xC9] = &Instruction{"CMP", 0xC9, 2, 2, Immediate}
	cpu.instructions[0xC5] = &Instruction{"CMP", 0xC5, 2, 3, ZeroPage}
	cpu.instructions[0xD5] = &Instruction{"CMP", 0xD5, 2, 4, ZeroPageX}
	cpu.instructions[0xCD] = &Instruction{"CMP", 0xCD, 3, 4, Absolute}
	cpu.instructions[0xDD] = &Instruction{"CMP", 0xDD, 3, 4, AbsoluteX}
	cpu.instructions[0xD9] = &Instruction{"CMP", 0xD9, 3, 4, AbsoluteY}
	cpu.instructions[0xC1] = &Instruction{"CMP", 0xC1, 2, 6, IndexedIndirect}
	cpu.instructions[0xD1] = &Instruction{"CMP", 0xD1, 2, 5, IndirectIndexed}

	cpu.instructions[0xE0] = &Instruction{"CPX", 0xE0, 2, 2, Immediate}
	cpu.instructions[0xE4] = &Instruction{"CPX", 0xE4, 2, 3, ZeroPage}
	cpu.instructions[0xEC] = &Instruction{"CPX", 0xEC, 3, 4, Absolute}

	cpu.instructions[0xC0] = &Instruction{"CPY", 0xC0, 2, 2, Immediate}
	cpu.instructions[0xC4] = &Instruction{"CPY", 0xC4, 2, 3, ZeroPage}
	cpu.instructions[0xCC] = &Instruction{"CPY", 0xCC, 3, 4, Absolute}

	cpu.instructions[0xE6] = &Instruction{"INC", 0xE6, 2, 5, ZeroPage}
	cpu.instructions[0xF6] = &Instruction{"INC", 0xF6, 2, 6, ZeroPageX}
	cpu.instructions[0xEE] = &Instruction{"INC", 0xEE, 3, 6, Absolute}
	cpu.instructions[0xFE] = &Instruction{"INC", 0xFE, 3, 7, AbsoluteX}

	cpu.instructions[0xC6] = &Instruction{"DEC", 0xC6, 2, 5, ZeroPage}
	cpu.instructions[0xD6] = &Instruction{"DEC", 0xD6, 2, 6, ZeroPageX}
	cpu.instructions[0xCE] = &Instruction{"DEC", 0xCE, 3, 6, Absolute}
	cpu.instructions[0xDE] = &Instruction{"DEC", 0xDE, 3, 7, AbsoluteX}

	cpu.instructions[0xE8] = &Instruction{"INX", 0xE8, 1, 2, Implied}
	cpu.instructions[0xCA] = &Instruction{"DEX", 0xCA, 1, 2, Implied}
	cpu.instructions[0xC8] = &Instruction{"INY", 0xC8, 1, 2, Implied}
	cpu.instructions[0x88] = &Instruction{"DEY", 0x88, 1, 2, Implied}

	cpu.instructions[0xAA] = &Instruction{"TAX", 0xAA, 1, 2, Implied}
	cpu.instructions[0x8A] = &Instruction{"TXA", 0x8A, 1, 2, Implied}
	cpu.instructions[0xA8] = &Instruction{"TAY", 0xA8, 1, 2, Implied}
	cpu.instructions[0x98] = &Instruction{"TYA", 0x98, 1, 2, Implied}
	cpu.instructions[0xBA] = &Instruction{"TSX", 0xBA, 1, 2, Implied}
	cpu.instructions[0x9A] = &Instruction{"TXS", 0x9A, 1, 2, Implied}

	cpu.instructions[0x48] = &Instruction{"PHA", 0x48, 1, 3, Implied}
	cpu.instructions[0x68] = &Instruction{"PLA", 0x68, 1, 4, Implied}
	cpu.instructions[0x08] = &Instruction{"PHP", 0x08, 1, 3, Implied}
	cpu.instructions[0x28] = &Instruction{"PLP", 0x28, 1, 4, Implied}

	cpu.instructions[0x18] = &Instruction{"CLC", 0x18, 1, 2, Implied}
	cpu.instructions[0x38] = &Instruction{"SEC", 0x38, 1, 2, Implied}
	cpu.instructions[0x58] = &Instruction{"CLI", 0x58, 1, 2, Implied}
	cpu.instructions[0x78] = &Instruction{"SEI", 0x78, 1, 2, Implied}
	cpu.instructions[0xB8] = &Instruction{"CLV", 0xB8, 1, 2, Implied}
	cpu.instructions[0xD8] = &Instruction{"CLD", 0xD8, 1, 2, Implied}
	cpu.instructions[0xF8] = &Instruction{"SED", 0xF8, 1, 2, Implied}

	cpu.instructions[0x4C] = &Instruction{"JMP", 0x4C, 3, 3, Absolute}
	cpu.instructions[0x6C] = &Instruction{"JMP", 0x6C, 3, 5, Indirect}
	cpu.instructions[0x20] = &Instruction{"JSR", 0x20, 3, 6, Absolute}
	cpu.instructions[0x60] = &Instruction{"RTS", 0x60, 1, 6, Implied}
	cpu.instructions[0x40] = &Instruction{"RTI", 0x40, 1, 6, Implied}

	cpu.instructions[0x90] = &Instruction{"BCC", 0x90, 2, 2, Relative}
	cpu.instructions[0xB0] = &Instruction{"BCS", 0xB0, 2, 2, Relative}
	cpu.instructions[0xD0] = &Instruction{"BNE", 0xD0, 2, 2, Relative}
	cpu.instructions[0xF0] = &Instruction{"BEQ", 0xF0, 2, 2, Relative}
	cpu.instructions[0x10] = &Instruction{"BPL", 0x10, 2, 2, Relative}
	cpu.instructions[0x30] = &Instruction{"BMI", 0x30, 2, 2, Relative}
	cpu.instructions[0x50] = &Instruction{"BVC", 0x50, 2, 2, Relative}
	cpu.instructions[0x70] = &Instruction{"BVS", 0x70, 2, 2, Relative}

	cpu.instructions[0x24] = &Instruction{"BIT", 0x24, 2, 3, ZeroPage}
	cpu.instructions[0x2C] = &Instruction{"BIT", 0x2C, 3, 4, Absolute}
	cpu.instructions[0xEA] = &Instruction{"NOP", 0xEA, 1, 2, Implied}
	cpu.instructions[0x00] = &Instruction{"BRK", 0x00, 1, 7, Implied}

	cpu.instructions[0x1A] = &Instruction{"NOP", 0x1A, 1, 2, Implied}
	cpu.instructions[0x3A] = &Instruction{"NOP", 0x3A, 1, 2, Implied}
	cpu.instructions[0x5A] = &Instruction{"NOP", 0x5A, 1, 2, Implied}
	cpu.instructions[0x7A] = &Instruction{"NOP", 0x7A, 1, 2, Implied}
	cpu.instructions[0xDA] = &Instruction{"NOP", 0xDA, 1, 2, Implied}
	cpu.instructions[0xFA] = &Instruction{"NOP", 0xFA, 1, 2, Implied}
	cpu.instructions[0x80] = &Instruction{"NOP", 0x80, 2, 2, Immediate}
	cpu.instructions[0x82] = &Instruction{"NOP", 0x82, 2, 2, Immediate}
	cpu.instructions[0x89] = &Instruction{"NOP", 0x89, 2, 2, Immediate}
	cpu.instructions[0xC2] = &Instruction{"NOP", 0xC2, 2, 2, Immediate}
	cpu.instructions[0xE2] = &Instruction{"NOP", 0xE2, 2, 2, Immediate}
	cpu.instructions[0x04] = &Instruction{"NOP", 0x04, 2, 3, ZeroPage}
	cpu.instructions[0x44] = &Instruction{"NOP", 0x44, 2, 3, ZeroPage}
	cpu.instructions[0x64] = &Instruction{"NOP", 0x64, 2, 3, ZeroPage}
	cpu.instructions[0x14] = &Instruction{"NOP", 0x14, 2, 4, ZeroPageX}
	cpu.instructions[0x34] = &Instruction{"NOP", 0x34, 2, 4, ZeroPageX}
	cpu.instructions[0x54] = &Instruction{"NOP", 0x54, 2, 4, ZeroPageX}
	cpu.instructions[0x74] = &Instruction{"NOP", 0x74, 2, 4, ZeroPageX}
	cpu.instructions[0xD4] = &Instruction{"NOP", 0xD4, 2, 4, ZeroPageX}
	cpu.instructions[0xF4] = &Instruction{"NOP", 0xF4, 2, 4, ZeroPageX}
	cpu.instructions[0x0C] = &Instruction{"NOP", 0x0C, 3, 4, Absolute}
	cpu.instructions[0x1C] = &Instruction{"NOP", 0x1C, 3, 4, AbsoluteX}
	cpu.instructions[0x3C] = &Instruction{"NOP", 0x3C, 3, 4, AbsoluteX}
	cpu.instructions[0x5C] = &Instruction{"NOP", 0x5C, 3, 4, AbsoluteX}
	cpu.instructions[0x7C] = &Instruction{"NOP", 0x7C, 3, 4, AbsoluteX}
	cpu.instructions[0xDC] = &Instruction{"NOP", 0xDC, 3, 4, AbsoluteX}
	cpu.instructions[0xFC] = &Instruction{"NOP", 0xFC, 3, 4, AbsoluteX}

	cpu.instructions[0xA7] = &Instruction{"LAX", 0xA7, 2, 3, ZeroPage}
	cpu.instructions[0xB7] = &Instruction{"LAX", 0xB7, 2, 4, ZeroPageY}
	cpu.instructions[0xAF] = &Instruction{"LAX", 0xAF, 3, 4, Absolute}
	cpu.instructions[0xBF] = &Instruction{"LAX", 0xBF, 3, 4, AbsoluteY}
	cpu.instructions[0xA3] = &Instruction{"LAX", 0xA3, 2, 6, IndexedIndirect}
	cpu.instructions[0xB3] = &Instruction{"LAX", 0xB3, 2, 5, IndirectIndexed}

	cpu.instructions[0x87] = &Instruction{"SAX", 0x87, 2, 3, ZeroPage}
	cpu.instructions[0x97] = &Instruction{"SAX", 0x97, 2, 4, ZeroPageY}
	cpu.instructions[0x8F] = &Instruction{"SAX", 0x8F, 3, 4, Absolute}
	cpu.instructions[0x83] = &Instruction{"SAX", 0x83, 2, 6, IndexedIndirect}

	cpu.instructions[0xEB] = &Instruction{"SBC", 0xEB, 2, 2, Immediate}

	cpu.instructions[0xC7] = &Instruction{"DCP", 0xC7, 2, 5, ZeroPage}
	cpu.instructions[0xD7] = &Instruction{"DCP", 0xD7, 2, 6, ZeroPageX}
	cpu.instructions[0xCF] = &Instruction{"DCP", 0xCF, 3, 6, Absolute}
	cpu.instructions[0xDF] = &Instruction{"DCP", 0xDF, 3, 7, AbsoluteX}
	cpu.instructions[0xDB] = &Instruction{"DCP", 0xDB, 3, 7, AbsoluteY}
	cpu.instructions[0xC3] = &Instruction{"DCP", 0xC3, 2, 8, IndexedIndirect}
	cpu.instructions[0xD3] = &Instruction{"DCP", 0xD3, 2, 8, IndirectIndexed}

	cpu.instructions[0xE7] = &Instruction{"ISB", 0xE7, 2, 5, ZeroPage}
	cpu.instructions[0xF7] = &Instruction{"ISB", 0xF7, 2, 6, ZeroPageX}
	cpu.instructions[0xEF] = &Instruction{"ISB", 0xEF, 3, 6, Absolute}
	cpu.instructions[0xFF] = &Instruction{"ISB", 0xFF, 3, 7, AbsoluteX}
	cpu.instructions[0xFB] = &Instruction{"ISB", 0xFB, 3, 7, AbsoluteY}
	cpu.instructions[0xE3] = &Instruction{"ISB", 0xE3, 2, 8, IndexedIndirect}
	cpu.instructions[0xF3] = &Instruction{"ISB", 0xF3, 2, 8, IndirectIndexed}

	cpu.instructions[0x07] = &Instruction{"SLO", 0x07, 2, 5, ZeroPage}
	cpu.instructions[0x17] = &Instruction{"SLO", 0x17, 2, 6, ZeroPageX}
	cpu.instructions[0x0F] = &Instruction{"SLO", 0x0F, 3, 6, Absolute}
	cpu.instructions[0x1F] = &Instruction{"SLO", 0x1F, 3, 7, AbsoluteX}
	cpu.instructions[0x1B] = &Instruction{"SLO", 0x1B, 3, 7, AbsoluteY}
	cpu.instructions[0x03] = &Instruction{"SLO", 0x03, 2, 8, IndexedIndirect}
	cpu.instructions[0x13] = &Instruction{"SLO", 0x13, 2, 8, IndirectIndexed}

	cpu.instructions[0x27] = &Instruction{"RLA", 0x27, 2, 5, ZeroPage}
	cpu.instructions[0x37] = &Instruction{"RLA", 0x37, 2, 6, ZeroPageX}
	cpu.instructions[0x2F] = &Instruction{"RLA", 0x2F, 3, 6, Absolute}
	cpu.instructions[0x3F] = &Instruction{"RLA", 0x3F, 3, 7, AbsoluteX}
	cpu.instructions[0x3B] = &Instruction{"RLA", 0x3B, 3, 7, AbsoluteY}
	cpu.instructions[0x23] = &Instruction{"RLA", 0x23, 2, 8, IndexedIndirect}
	cpu.instructions[0x33] = &Instruction{"RLA", 0x33, 2, 8, IndirectIndexed}

	cpu.instructions[0x47] = &Instruction{"SRE", 0x47, 2, 5, ZeroPage}
	cpu.instructions[0x57] = &Instruction{"SRE", 0x57, 2, 6, ZeroPageX}
	cpu.instructions[0x4F] = &Instruction{"SRE", 0x4F, 3, 6, Absolute}
	cpu.instructions[0x5F] = &Instruction{"SRE", 0x5F, 3, 7, AbsoluteX}
	cpu.instructions[0x5B] = &Instruction{"SRE", 0x5B, 3, 7, AbsoluteY}
	cpu.instructions[0x43] = &Instruction{"SRE", 0x43, 2, 8, IndexedIndirect}
	cpu.instructions[0x53] = &Instruction{"SRE", 0x53, 2, 8, IndirectIndexed}

	cpu.instructions[0x67] = &Instruction{"RRA", 0x67, 2, 5, ZeroPage}
	cpu.instructions[0x77] = &Instruction{"RRA", 0x77, 2, 6, ZeroPageX}
	cpu.instructions[0x6F] = &Instruction{"RRA", 0x6F, 3, 6, Absolute}
	cpu.instructions[0x7F] = &Instruction{"RRA", 0x7F, 3, 7, AbsoluteX}
	cpu.instructions[0x7B] = &Instruction{"RRA", 0x7B, 3, 7, AbsoluteY}
	cpu.instructions[0x63] = &Instruction{"RRA", 0x63, 2, 8, IndexedIndirect}
	cpu.instructions[0x73] = &Instruction{"RRA", 0x73, 2, 8, IndirectIndexed}

	cpu.instructions[0x0B] = &Instruction{"ANC", 0x0B, 2, 2, Immediate}
	cpu.instructions[0x2B] = &Instruction{"ANC", 0x2B, 2, 2, Immediate}
	cpu.instructions[0x4B] = &Instruction{"ALR", 0x4B, 2, 2, Immediate}
	cpu.instructions[0x6B] = &Instruction{"ARR", 0x6B, 2, 2, Immediate}
	cpu.instructions[0x8B] = &Instruction{"ANE", 0x8B, 2, 2, Immediate}
	cpu.instructions[0xAB] = &Instruction{"LXA", 0xAB, 2, 2, Immediate}
	cpu.instructions[0xCB] = &Instruction{"SBX", 0xCB, 2, 2, Immediate}
	cpu.instructions[0x9F] = &Instruction{"SHA", 0x9F, 3, 5, AbsoluteY}
	cpu.instructions[0x93] = &Instruction{"SHA", 0x93, 2, 6, IndirectIndexed}
	cpu.instructions[0x9E] = &Instruction{"SHX", 0x9E, 3, 5, AbsoluteY}
	cpu.instructions[0x9C] = &Instruction{"SHY", 0x9C, 3, 5, AbsoluteX}
	cpu.instructions[0x9B] = &Instruction{"TAS", 0x9B, 3, 5, AbsoluteY}
	cpu.instructions[0xBB] = &Instruction{"LAS", 0xBB, 3, 4, AbsoluteY}
}

// EnableDebugLogging enables/disables CPU instruction tracing.
func (cpu *CPU) EnableDebugLogging(enable bool) {
	cpu.enableDebugLogging = enable
}

// EnableLoopDetection enables/disables infinite-loop detection.
func (cpu *CPU) EnableLoopDetection(enable bool) {
	cpu.enableLoopDetection = enable
}

func (cpu *CPU) detectInfiniteLoop(pc uint16) {
	if pc == cpu.lastPC {
		cpu.pcStayCount++
	} else {
		cpu.pcStayCount = 0
	}
	cpu.lastPC = pc
}

// StuckCount reports how many consecutive Step calls have left PC
// unchanged, for callers (e.g. a CLI trace runner) that want to detect a
// runaway program without scraping log output.
func (cpu *CPU) StuckCount() int { return cpu.pcStayCount }

// Cycles returns the total CPU cycle count since construction. Reset does
// not zero it; it adds the 7 cycles of the reset sequence.
func (cpu *CPU) Cycles() uint64 { return cpu.cycles }

// SavedState is the full architectural and interrupt-latch state a save
// state needs to resume execution exactly where it left off, including the
// edge-detector latches SetNMI/SetIRQ maintain between Step calls.
type SavedState struct {
	A, X, Y, SP uint8
	PC          uint16
	C, Z, I, D, V, N bool

	Cycles uint64

	NMILine, NMIPrevious, NMIPending bool
	IRQLine, PrevIRQInhibit          bool
}

// SaveState snapshots every field required to resume execution, including
// interrupt-edge latches that are not visible through GetCPUState.
func (cpu *CPU) SaveState() SavedState {
	return SavedState{
		A: cpu.A, X: cpu.X, Y: cpu.Y, SP: cpu.SP, PC: cpu.PC,
		C: cpu.C, Z: cpu.Z, I: cpu.I, D: cpu.D, V: cpu.V, N: cpu.N,
		Cycles:         cpu.cycles,
		NMILine:        cpu.nmiLine,
		NMIPrevious:    cpu.nmiPrevious,
		NMIPending:     cpu.nmiPending,
		IRQLine:        cpu.irqLine,
		PrevIRQInhibit: cpu.prevIRQInhibit,
	}
}

// LoadState restores a snapshot taken by SaveState. It does not touch the
// memory interface or debug-logging configuration.
func (cpu *CPU) LoadState(s SavedState) {
	cpu.A, cpu.X, cpu.Y, cpu.SP, cpu.PC = s.A, s.X, s.Y, s.SP, s.PC
	cpu.C, cpu.Z, cpu.I, cpu.D, cpu.V, cpu.N = s.C, s.Z, s.I, s.D, s.V, s.N
	cpu.cycles = s.Cycles
	cpu.nmiLine = s.NMILine
	cpu.nmiPrevious = s.NMIPrevious
	cpu.nmiPending = s.NMIPending
	cpu.irqLine = s.IRQLine
	cpu.prevIRQInhibit = s.PrevIRQInhibit
}
