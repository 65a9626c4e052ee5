// Package cpu implements the Sharp SM83 CPU emulation for the Game Boy.
package cpu

import "fmt"

// Master clock rates in T-cycles per second.
const (
	DMGClockSpeed = 4194304
	CGBClockSpeed = 8388608
)

// Bus is the memory the CPU reads and writes over its 16-bit address space.
type Bus interface {
	Read(addr uint16) uint8
	Write(addr uint16, value uint8)
}

// CPU represents the Sharp SM83 CPU.
type CPU struct {
	Registers *Registers
	Memory    Bus

	// Interrupt master enable flag
	IME bool

	// EI takes effect after the instruction that follows it
	pendingIME bool

	// Halt and stop states
	halted  bool
	stopped bool

	// Cycle counter
	Cycles uint64

	table *Table

	// Per-instruction decode state
	next    uint16 // address of the following instruction
	operand uint16 // immediate value, little-endian decoded
	width   uint8  // operand bytes declared by the table entry
	err     error  // fault raised by a handler
}

// New creates a new CPU instance.
func New(mem Bus) *CPU {
	return &CPU{
		Registers: NewRegisters(),
		Memory:    mem,
		table:     opcodes,
	}
}

// Reset restores the post-boot register state and clears all modes.
func (c *CPU) Reset() {
	c.Registers.Reset()
	c.IME = false
	c.pendingIME = false
	c.halted = false
	c.stopped = false
	c.Cycles = 0
}

// Halted reports whether HALT suspended instruction fetch.
func (c *CPU) Halted() bool {
	return c.halted
}

// Stopped reports whether STOP suspended instruction fetch.
func (c *CPU) Stopped() bool {
	return c.stopped
}

// Wake resumes fetching after HALT or STOP. The interrupt controller
// calls it when a wake-up condition is raised.
func (c *CPU) Wake() {
	c.halted = false
	c.stopped = false
}

// Step executes one instruction and returns cycles taken.
//
// Step is atomic: on return either the whole instruction ran, or an error
// reports why the state must be discarded. Unknown opcodes are detected
// before any register or bus mutation.
func (c *CPU) Step() (uint8, error) {
	// Handle halt state
	if c.halted || c.stopped {
		c.Cycles += 4
		return 4, nil
	}

	pc := c.Registers.PC

	ins, err := c.decode(pc)
	if err != nil {
		return 0, err
	}

	// Fetch immediates from the bytes after the opcode
	start := pc + ins.Size() - uint16(ins.Length)
	var value uint16
	switch ins.Length {
	case 1:
		value = uint16(c.Memory.Read(start))
	case 2:
		low := uint16(c.Memory.Read(start))
		high := uint16(c.Memory.Read(start + 1))
		value = high<<8 | low
	}

	return c.run(ins, pc, value)
}

// Execute runs a single instruction with a caller-supplied operand instead
// of fetching it from the bus. The instruction is taken to start at PC.
func (c *CPU) Execute(op Opcode, operand uint16) (uint8, error) {
	ins, err := c.table.Find(op)
	if err != nil {
		return 0, err
	}
	if ins.Prefix {
		return 0, fmt.Errorf("%w: %s is a prefix, not an instruction", ErrUnknownOpcode, op)
	}

	return c.run(ins, c.Registers.PC, operand)
}

// decode reads the opcode at pc, following the 0xCB prefix.
func (c *CPU) decode(pc uint16) (Instruction, error) {
	ins, err := c.table.Lookup(c.Memory.Read(pc), false)
	if err != nil {
		return Instruction{}, err
	}
	if ins.Prefix {
		return c.table.Lookup(c.Memory.Read(pc+1), true)
	}
	return ins, nil
}

// run executes a decoded instruction starting at pc.
func (c *CPU) run(ins Instruction, pc, operand uint16) (uint8, error) {
	c.next = pc + ins.Size()
	c.operand = operand
	c.width = ins.Length
	c.err = nil

	enableIME := c.pendingIME

	result := ins.exec(c)

	if result != jumped {
		c.Registers.PC = c.next
	}

	if enableIME && c.pendingIME {
		c.IME = true
		c.pendingIME = false
	}

	cycles := ins.Cycles
	if result == notTaken {
		cycles = ins.AltCycles
	}

	// Update cycle counter
	c.Cycles += uint64(cycles)

	if c.err != nil {
		return cycles, c.err
	}
	if f, ok := c.Memory.(Faulter); ok {
		if err := f.Fault(); err != nil {
			return cycles, err
		}
	}

	return cycles, nil
}

// fault records an error raised while executing the current instruction.
func (c *CPU) fault(err error) {
	if c.err == nil {
		c.err = err
	}
}

// Operand accessors. Each checks the width the table declared.

// imm8 returns the 8-bit immediate operand.
func (c *CPU) imm8() uint8 {
	if c.width != 1 {
		c.fault(fmt.Errorf("%w: 8-bit operand read, entry declares %d bytes", ErrInvalidOperandWidth, c.width))
	}
	return uint8(c.operand) //nolint:gosec // G115: Intentional byte extraction
}

// imm16 returns the 16-bit immediate operand.
func (c *CPU) imm16() uint16 {
	if c.width != 2 {
		c.fault(fmt.Errorf("%w: 16-bit operand read, entry declares %d bytes", ErrInvalidOperandWidth, c.width))
	}
	return c.operand
}

// offset returns the 8-bit immediate as a signed displacement.
func (c *CPU) offset() int8 {
	return int8(c.imm8()) //nolint:gosec // G115: Intentional signed conversion for relative addressing
}

// push pushes a 16-bit value onto the stack.
func (c *CPU) push(value uint16) {
	c.Registers.SP--
	c.Memory.Write(c.Registers.SP, uint8(value>>8)) //nolint:gosec // G115: Intentional byte extraction from 16-bit value
	c.Registers.SP--
	c.Memory.Write(c.Registers.SP, uint8(value)) //nolint:gosec // G115: Intentional byte extraction from 16-bit value
}

// pop pops a 16-bit value from the stack.
func (c *CPU) pop() uint16 {
	low := uint16(c.Memory.Read(c.Registers.SP))
	c.Registers.SP++
	high := uint16(c.Memory.Read(c.Registers.SP))
	c.Registers.SP++
	return high<<8 | low
}

// Register operand encoding shared by the LD/ALU blocks and the CB page:
// 0=B 1=C 2=D 3=E 4=H 5=L 6=(HL) 7=A.

const regHL = 6

var regNames = [8]string{"B", "C", "D", "E", "H", "L", "(HL)", "A"}

// reg8 reads the register selected by the low 3 bits of an opcode.
func (c *CPU) reg8(index uint8) uint8 {
	r := c.Registers
	switch index & 0x07 {
	case 0:
		return r.B
	case 1:
		return r.C
	case 2:
		return r.D
	case 3:
		return r.E
	case 4:
		return r.H
	case 5:
		return r.L
	case regHL:
		return c.Memory.Read(r.HL())
	default:
		return r.A
	}
}

// setReg8 writes the register selected by the low 3 bits of an opcode.
func (c *CPU) setReg8(index, value uint8) {
	r := c.Registers
	switch index & 0x07 {
	case 0:
		r.B = value
	case 1:
		r.C = value
	case 2:
		r.D = value
	case 3:
		r.E = value
	case 4:
		r.H = value
	case 5:
		r.L = value
	case regHL:
		c.Memory.Write(r.HL(), value)
	default:
		r.A = value
	}
}

// Helper methods for arithmetic operations

// add8 performs 8-bit addition and sets flags.
func (c *CPU) add8(a, b uint8, carry bool) uint8 {
	carryVal := uint8(0)
	if carry {
		carryVal = c.Registers.carryBit()
	}

	result := a + b + carryVal

	c.Registers.SetFlags(zero8(result), false, halfCarryAdd8(a, b, carryVal), carryAdd8(a, b, carryVal))

	return result
}

// sub8 performs 8-bit subtraction and sets flags.
func (c *CPU) sub8(a, b uint8, carry bool) uint8 {
	carryVal := uint8(0)
	if carry {
		carryVal = c.Registers.carryBit()
	}

	result := a - b - carryVal

	c.Registers.SetFlags(zero8(result), true, halfCarrySub8(a, b, carryVal), carrySub8(a, b, carryVal))

	return result
}

// add16 performs 16-bit addition and sets flags (used for ADD HL, rr).
func (c *CPU) add16(a, b uint16) uint16 {
	result := a + b

	// For 16-bit ADD, only N, H, C are affected (Z is not affected)
	c.Registers.ClearFlag(FlagN)
	c.Registers.SetFlagTo(FlagH, halfCarryAdd16(a, b))
	c.Registers.SetFlagTo(FlagC, carryAdd16(a, b))

	return result
}

// addSPOffset computes SP+e8 for ADD SP,e8 and LD HL,SP+e8.
// H and C come from the unsigned low byte, Z and N are cleared.
func (c *CPU) addSPOffset(offset int8) uint16 {
	sp := c.Registers.SP
	result := uint16(int32(sp) + int32(offset)) //nolint:gosec // G115: Intentional for SP offset calculation

	// Flags come from unsigned addition of the low bytes
	spLow, low := uint8(sp), uint8(offset) //nolint:gosec // G115: Intentional byte extraction
	c.Registers.SetFlags(false, false, halfCarryAdd8(spLow, low, 0), carryAdd8(spLow, low, 0))

	return result
}

// and performs bitwise AND and sets flags.
func (c *CPU) and(value uint8) uint8 {
	result := c.Registers.A & value
	c.Registers.SetFlags(zero8(result), false, true, false)
	return result
}

// or performs bitwise OR and sets flags.
func (c *CPU) or(value uint8) uint8 {
	result := c.Registers.A | value
	c.Registers.SetFlags(zero8(result), false, false, false)
	return result
}

// xor performs bitwise XOR and sets flags.
func (c *CPU) xor(value uint8) uint8 {
	result := c.Registers.A ^ value
	c.Registers.SetFlags(zero8(result), false, false, false)
	return result
}

// cp performs compare (subtraction without storing result) and sets flags.
func (c *CPU) cp(value uint8) {
	c.sub8(c.Registers.A, value, false)
}

// inc8 increments an 8-bit value and sets flags.
func (c *CPU) inc8(value uint8) uint8 {
	result := value + 1

	c.Registers.SetFlagTo(FlagZ, zero8(result))
	c.Registers.ClearFlag(FlagN)
	c.Registers.SetFlagTo(FlagH, halfCarryAdd8(value, 1, 0))
	// Carry flag not affected

	return result
}

// dec8 decrements an 8-bit value and sets flags.
func (c *CPU) dec8(value uint8) uint8 {
	result := value - 1

	c.Registers.SetFlagTo(FlagZ, zero8(result))
	c.Registers.SetFlag(FlagN)
	c.Registers.SetFlagTo(FlagH, halfCarrySub8(value, 1, 0))
	// Carry flag not affected

	return result
}

// daa performs Decimal Adjust Accumulator (DAA) operation.
func (c *CPU) daa() {
	a := c.Registers.A
	carry := c.Registers.CarryFlag()

	if !c.Registers.SubtractFlag() { //nolint:nestif // Complex nested logic is required for BCD adjustment
		// After addition
		if carry || a > 0x99 {
			a += 0x60
			carry = true
		}
		if c.Registers.HalfCarryFlag() || (a&0x0F) > 0x09 {
			a += 0x06
		}
	} else {
		// After subtraction
		if carry {
			a -= 0x60
		}
		if c.Registers.HalfCarryFlag() {
			a -= 0x06
		}
	}

	c.Registers.A = a
	c.Registers.SetFlagTo(FlagZ, zero8(a))
	c.Registers.ClearFlag(FlagH)
	c.Registers.SetFlagTo(FlagC, carry)
}

// Condition codes for conditional jumps, calls and returns.
type condition uint8

const (
	condNZ condition = iota
	condZ
	condNC
	condC
)

var conditionNames = [4]string{"NZ", "Z", "NC", "C"}

// checkCondition checks jump/call conditions.
func (c *CPU) checkCondition(cond condition) bool {
	switch cond {
	case condNZ: // NZ - Not Zero
		return !c.Registers.ZeroFlag()
	case condZ: // Z - Zero
		return c.Registers.ZeroFlag()
	case condNC: // NC - Not Carry
		return !c.Registers.CarryFlag()
	case condC: // C - Carry
		return c.Registers.CarryFlag()
	default:
		return false
	}
}
