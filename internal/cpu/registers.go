package cpu

// Registers represents the SM83 CPU registers.
//
// The fixed-width field types make every mutation wrap the way the hardware
// does: 8-bit registers are mod 256, SP and PC mod 65536.
type Registers struct {
	A  uint8  // Accumulator
	F  uint8  // Flags (only upper 4 bits used)
	B  uint8  // General purpose
	C  uint8  // General purpose
	D  uint8  // General purpose
	E  uint8  // General purpose
	H  uint8  // General purpose (high byte of HL pointer)
	L  uint8  // General purpose (low byte of HL pointer)
	SP uint16 // Stack pointer
	PC uint16 // Program counter
}

// NewRegisters creates a new Registers instance with the DMG post-boot values.
func NewRegisters() *Registers {
	r := &Registers{}
	r.Reset()
	return r
}

// Reset restores the values the DMG boot ROM leaves behind.
func (r *Registers) Reset() {
	*r = Registers{
		A:  0x01,
		F:  0xB0,
		B:  0x00,
		C:  0x13,
		D:  0x00,
		E:  0xD8,
		H:  0x01,
		L:  0x4D,
		SP: 0xFFFE,
		PC: 0x0100,
	}
}

// 16-bit register pair getters

// AF returns the 16-bit AF register pair.
func (r *Registers) AF() uint16 {
	return uint16(r.A)<<8 | uint16(r.F)
}

// BC returns the 16-bit BC register pair.
func (r *Registers) BC() uint16 {
	return uint16(r.B)<<8 | uint16(r.C)
}

// DE returns the 16-bit DE register pair.
func (r *Registers) DE() uint16 {
	return uint16(r.D)<<8 | uint16(r.E)
}

// HL returns the 16-bit HL register pair.
func (r *Registers) HL() uint16 {
	return uint16(r.H)<<8 | uint16(r.L)
}

// 16-bit register pair setters

// SetAF sets the 16-bit AF register pair. The low nibble of F is discarded.
func (r *Registers) SetAF(value uint16) {
	r.A = uint8(value >> 8)        //nolint:gosec // G115: Intentional byte extraction from 16-bit register
	r.F = uint8(value) & flagsMask //nolint:gosec // G115: Lower 4 bits always 0
}

// SetBC sets the 16-bit BC register pair.
func (r *Registers) SetBC(value uint16) {
	r.B = uint8(value >> 8) //nolint:gosec // G115: Intentional byte extraction from 16-bit register
	r.C = uint8(value)      //nolint:gosec // G115: Intentional byte extraction from 16-bit register
}

// SetDE sets the 16-bit DE register pair.
func (r *Registers) SetDE(value uint16) {
	r.D = uint8(value >> 8) //nolint:gosec // G115: Intentional byte extraction from 16-bit register
	r.E = uint8(value)      //nolint:gosec // G115: Intentional byte extraction from 16-bit register
}

// SetHL sets the 16-bit HL register pair.
func (r *Registers) SetHL(value uint16) {
	r.H = uint8(value >> 8) //nolint:gosec // G115: Intentional byte extraction from 16-bit register
	r.L = uint8(value)      //nolint:gosec // G115: Intentional byte extraction from 16-bit register
}

// Flag operations

// GetFlag checks if a flag is set.
func (r *Registers) GetFlag(flag Flag) bool {
	return r.F&uint8(flag) != 0
}

// SetFlag sets a flag to 1.
func (r *Registers) SetFlag(flag Flag) {
	r.F = (r.F | uint8(flag)) & flagsMask
}

// ClearFlag sets a flag to 0.
func (r *Registers) ClearFlag(flag Flag) {
	r.F &^= uint8(flag)
	r.F &= flagsMask
}

// SetFlagTo sets a flag to a specific boolean value.
func (r *Registers) SetFlagTo(flag Flag, value bool) {
	if value {
		r.SetFlag(flag)
	} else {
		r.ClearFlag(flag)
	}
}

// SetFlags overwrites all four flags at once.
func (r *Registers) SetFlags(z, n, h, c bool) {
	var f uint8
	if z {
		f |= uint8(FlagZ)
	}
	if n {
		f |= uint8(FlagN)
	}
	if h {
		f |= uint8(FlagH)
	}
	if c {
		f |= uint8(FlagC)
	}
	r.F = f
}

// Individual flag getters

// ZeroFlag returns the Zero flag state.
func (r *Registers) ZeroFlag() bool {
	return r.GetFlag(FlagZ)
}

// SubtractFlag returns the Subtract flag state.
func (r *Registers) SubtractFlag() bool {
	return r.GetFlag(FlagN)
}

// HalfCarryFlag returns the Half-carry flag state.
func (r *Registers) HalfCarryFlag() bool {
	return r.GetFlag(FlagH)
}

// CarryFlag returns the Carry flag state.
func (r *Registers) CarryFlag() bool {
	return r.GetFlag(FlagC)
}

// carryBit returns the Carry flag as 0 or 1.
func (r *Registers) carryBit() uint8 {
	if r.CarryFlag() {
		return 1
	}
	return 0
}
