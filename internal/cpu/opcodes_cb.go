package cpu

// Rotate and shift operation selected by bits 3-5 of 0x00-0x3F on the CB page.
var shiftNames = [8]string{"RLC", "RRC", "RL", "RR", "SLA", "SRA", "SWAP", "SRL"}

// extendedInstructions returns every entry of the 0xCB page.
//
// Bits 6-7 select the group (shift, BIT, RES, SET), bits 3-5 the operation
// or bit number, bits 0-2 the target register. Cycle costs include the
// prefix byte.
func extendedInstructions() []Instruction {
	out := make([]Instruction, 0, 256)

	for code := 0; code < 256; code++ {
		opcode := uint8(code) //nolint:gosec // G115: Loop bound keeps code within a byte
		r := opcode & 0x07
		group := opcode >> 6
		n := (opcode >> 3) & 0x07

		// Most are 8, (HL) operations are 16, BIT (HL) is 12
		cycles := uint8(8)
		if r == regHL {
			if group == 1 {
				cycles = 12
			} else {
				cycles = 16
			}
		}

		ins := Instruction{Opcode: opcode, Cycles: cycles}

		switch group {
		case 0: // Rotates and shifts (0x00-0x3F)
			ins.Mnemonic = shiftNames[n] + " " + regNames[r]
			ins.exec = func(c *CPU) outcome {
				c.setReg8(r, c.shift(n, c.reg8(r)))
				return advance
			}
		case 1: // BIT (0x40-0x7F)
			ins.Mnemonic = "BIT " + bitNames[n] + ", " + regNames[r]
			ins.exec = func(c *CPU) outcome {
				c.bit(c.reg8(r), n)
				return advance
			}
		case 2: // RES (0x80-0xBF)
			ins.Mnemonic = "RES " + bitNames[n] + ", " + regNames[r]
			ins.exec = func(c *CPU) outcome {
				c.setReg8(r, c.reg8(r)&^(1<<n))
				return advance
			}
		default: // SET (0xC0-0xFF)
			ins.Mnemonic = "SET " + bitNames[n] + ", " + regNames[r]
			ins.exec = func(c *CPU) outcome {
				c.setReg8(r, c.reg8(r)|1<<n)
				return advance
			}
		}

		out = append(out, ins)
	}

	return out
}

var bitNames = [8]string{"0", "1", "2", "3", "4", "5", "6", "7"}

func (c *CPU) shift(op, value uint8) uint8 {
	switch op {
	case 0:
		return c.rlc(value)
	case 1:
		return c.rrc(value)
	case 2:
		return c.rl(value)
	case 3:
		return c.rr(value)
	case 4:
		return c.sla(value)
	case 5:
		return c.sra(value)
	case 6:
		return c.swap(value)
	default:
		return c.srl(value)
	}
}

// Rotate and shift helpers. All of them set Z from the result, clear N and H,
// and load C from the bit shifted out (SWAP clears C).

// rlc rotates left, bit 7 into carry and bit 0.
func (c *CPU) rlc(value uint8) uint8 {
	carry := value >> 7
	result := value<<1 | carry
	c.Registers.SetFlags(zero8(result), false, false, carry == 1)
	return result
}

// rl rotates left through carry.
func (c *CPU) rl(value uint8) uint8 {
	result := value<<1 | c.Registers.carryBit()
	c.Registers.SetFlags(zero8(result), false, false, value&0x80 != 0)
	return result
}

// rrc rotates right, bit 0 into carry and bit 7.
func (c *CPU) rrc(value uint8) uint8 {
	carry := value & 0x01
	result := value>>1 | carry<<7
	c.Registers.SetFlags(zero8(result), false, false, carry == 1)
	return result
}

// rr rotates right through carry.
func (c *CPU) rr(value uint8) uint8 {
	result := value>>1 | c.Registers.carryBit()<<7
	c.Registers.SetFlags(zero8(result), false, false, value&0x01 != 0)
	return result
}

// sla shifts left arithmetic.
func (c *CPU) sla(value uint8) uint8 {
	result := value << 1
	c.Registers.SetFlags(zero8(result), false, false, value&0x80 != 0)
	return result
}

// sra shifts right arithmetic (preserves sign bit).
func (c *CPU) sra(value uint8) uint8 {
	result := value>>1 | value&0x80
	c.Registers.SetFlags(zero8(result), false, false, value&0x01 != 0)
	return result
}

// srl shifts right logical.
func (c *CPU) srl(value uint8) uint8 {
	result := value >> 1
	c.Registers.SetFlags(zero8(result), false, false, value&0x01 != 0)
	return result
}

// swap swaps upper and lower nibbles.
func (c *CPU) swap(value uint8) uint8 {
	result := value<<4 | value>>4
	c.Registers.SetFlags(zero8(result), false, false, false)
	return result
}

// bit tests a bit.
func (c *CPU) bit(value, n uint8) {
	c.Registers.SetFlagTo(FlagZ, value&(1<<n) == 0)
	c.Registers.ClearFlag(FlagN)
	c.Registers.SetFlag(FlagH)
	// Carry flag not affected
}
