package cpu

// baseInstructions returns every entry of the unprefixed page.
//
// The regular grids (8-bit loads, ALU ops, INC/DEC, 16-bit pair ops,
// conditional flow, RST) are generated from their encodings. Everything else
// is listed by hand.
func baseInstructions() []Instruction {
	out := miscInstructions()
	out = append(out, load8Instructions()...)
	out = append(out, aluInstructions()...)
	out = append(out, pairInstructions()...)
	out = append(out, flowInstructions()...)
	return out
}

func miscInstructions() []Instruction {
	return []Instruction{
		// 0x00-0x0F
		{Opcode: 0x00, Mnemonic: "NOP", Cycles: 4, exec: func(*CPU) outcome {
			return advance
		}},
		{Opcode: 0x02, Mnemonic: "LD (BC), A", Cycles: 8, exec: func(c *CPU) outcome {
			c.Memory.Write(c.Registers.BC(), c.Registers.A)
			return advance
		}},
		{Opcode: 0x07, Mnemonic: "RLCA", Cycles: 4, exec: func(c *CPU) outcome {
			c.Registers.A = c.rlc(c.Registers.A)
			c.Registers.ClearFlag(FlagZ) // RLCA always clears Z
			return advance
		}},
		{Opcode: 0x08, Mnemonic: "LD (nn), SP", Length: 2, Cycles: 20, exec: func(c *CPU) outcome {
			addr := c.imm16()
			c.Memory.Write(addr, uint8(c.Registers.SP))      //nolint:gosec // G115: Intentional byte extraction
			c.Memory.Write(addr+1, uint8(c.Registers.SP>>8)) //nolint:gosec // G115: Intentional byte extraction
			return advance
		}},
		{Opcode: 0x0A, Mnemonic: "LD A, (BC)", Cycles: 8, exec: func(c *CPU) outcome {
			c.Registers.A = c.Memory.Read(c.Registers.BC())
			return advance
		}},
		{Opcode: 0x0F, Mnemonic: "RRCA", Cycles: 4, exec: func(c *CPU) outcome {
			c.Registers.A = c.rrc(c.Registers.A)
			c.Registers.ClearFlag(FlagZ) // RRCA always clears Z
			return advance
		}},

		// 0x10-0x1F
		{Opcode: 0x10, Mnemonic: "STOP", Length: 1, Cycles: 4, exec: func(c *CPU) outcome {
			// STOP is 2 bytes, the second is ignored
			c.stopped = true
			return advance
		}},
		{Opcode: 0x12, Mnemonic: "LD (DE), A", Cycles: 8, exec: func(c *CPU) outcome {
			c.Memory.Write(c.Registers.DE(), c.Registers.A)
			return advance
		}},
		{Opcode: 0x17, Mnemonic: "RLA", Cycles: 4, exec: func(c *CPU) outcome {
			c.Registers.A = c.rl(c.Registers.A)
			c.Registers.ClearFlag(FlagZ) // RLA always clears Z
			return advance
		}},
		{Opcode: 0x18, Mnemonic: "JR e", Length: 1, Cycles: 12, exec: func(c *CPU) outcome {
			c.jumpRelative(c.offset())
			return jumped
		}},
		{Opcode: 0x1A, Mnemonic: "LD A, (DE)", Cycles: 8, exec: func(c *CPU) outcome {
			c.Registers.A = c.Memory.Read(c.Registers.DE())
			return advance
		}},
		{Opcode: 0x1F, Mnemonic: "RRA", Cycles: 4, exec: func(c *CPU) outcome {
			c.Registers.A = c.rr(c.Registers.A)
			c.Registers.ClearFlag(FlagZ) // RRA always clears Z
			return advance
		}},

		// 0x20-0x2F
		{Opcode: 0x22, Mnemonic: "LD (HL+), A", Cycles: 8, exec: func(c *CPU) outcome {
			c.Memory.Write(c.Registers.HL(), c.Registers.A)
			c.Registers.SetHL(c.Registers.HL() + 1)
			return advance
		}},
		{Opcode: 0x27, Mnemonic: "DAA", Cycles: 4, exec: func(c *CPU) outcome {
			c.daa()
			return advance
		}},
		{Opcode: 0x2A, Mnemonic: "LD A, (HL+)", Cycles: 8, exec: func(c *CPU) outcome {
			c.Registers.A = c.Memory.Read(c.Registers.HL())
			c.Registers.SetHL(c.Registers.HL() + 1)
			return advance
		}},
		{Opcode: 0x2F, Mnemonic: "CPL", Cycles: 4, exec: func(c *CPU) outcome {
			c.Registers.A = ^c.Registers.A
			c.Registers.SetFlag(FlagN)
			c.Registers.SetFlag(FlagH)
			return advance
		}},

		// 0x30-0x3F
		{Opcode: 0x32, Mnemonic: "LD (HL-), A", Cycles: 8, exec: func(c *CPU) outcome {
			c.Memory.Write(c.Registers.HL(), c.Registers.A)
			c.Registers.SetHL(c.Registers.HL() - 1)
			return advance
		}},
		{Opcode: 0x37, Mnemonic: "SCF", Cycles: 4, exec: func(c *CPU) outcome {
			c.Registers.ClearFlag(FlagN)
			c.Registers.ClearFlag(FlagH)
			c.Registers.SetFlag(FlagC)
			return advance
		}},
		{Opcode: 0x3A, Mnemonic: "LD A, (HL-)", Cycles: 8, exec: func(c *CPU) outcome {
			c.Registers.A = c.Memory.Read(c.Registers.HL())
			c.Registers.SetHL(c.Registers.HL() - 1)
			return advance
		}},
		{Opcode: 0x3F, Mnemonic: "CCF", Cycles: 4, exec: func(c *CPU) outcome {
			c.Registers.ClearFlag(FlagN)
			c.Registers.ClearFlag(FlagH)
			c.Registers.SetFlagTo(FlagC, !c.Registers.CarryFlag())
			return advance
		}},

		// 0x76 sits in the LD r, r' grid where LD (HL), (HL) would be
		{Opcode: 0x76, Mnemonic: "HALT", Cycles: 4, exec: func(c *CPU) outcome {
			c.halted = true
			return advance
		}},

		// 0xC0-0xFF irregular entries
		{Opcode: 0xC3, Mnemonic: "JP nn", Length: 2, Cycles: 16, exec: func(c *CPU) outcome {
			c.Registers.PC = c.imm16()
			return jumped
		}},
		{Opcode: 0xC9, Mnemonic: "RET", Cycles: 16, exec: func(c *CPU) outcome {
			c.Registers.PC = c.pop()
			return jumped
		}},
		{Opcode: PrefixCB, Mnemonic: "PREFIX CB", Cycles: 4, Prefix: true},
		{Opcode: 0xCD, Mnemonic: "CALL nn", Length: 2, Cycles: 24, exec: func(c *CPU) outcome {
			addr := c.imm16()
			c.push(c.next)
			c.Registers.PC = addr
			return jumped
		}},
		{Opcode: 0xD9, Mnemonic: "RETI", Cycles: 16, exec: func(c *CPU) outcome {
			c.Registers.PC = c.pop()
			c.IME = true
			return jumped
		}},
		{Opcode: 0xE0, Mnemonic: "LDH (n), A", Length: 1, Cycles: 12, exec: func(c *CPU) outcome {
			c.Memory.Write(0xFF00+uint16(c.imm8()), c.Registers.A)
			return advance
		}},
		{Opcode: 0xE2, Mnemonic: "LD (C), A", Cycles: 8, exec: func(c *CPU) outcome {
			c.Memory.Write(0xFF00+uint16(c.Registers.C), c.Registers.A)
			return advance
		}},
		{Opcode: 0xE8, Mnemonic: "ADD SP, e", Length: 1, Cycles: 16, exec: func(c *CPU) outcome {
			c.Registers.SP = c.addSPOffset(c.offset())
			return advance
		}},
		{Opcode: 0xE9, Mnemonic: "JP HL", Cycles: 4, exec: func(c *CPU) outcome {
			c.Registers.PC = c.Registers.HL()
			return jumped
		}},
		{Opcode: 0xEA, Mnemonic: "LD (nn), A", Length: 2, Cycles: 16, exec: func(c *CPU) outcome {
			c.Memory.Write(c.imm16(), c.Registers.A)
			return advance
		}},
		{Opcode: 0xF0, Mnemonic: "LDH A, (n)", Length: 1, Cycles: 12, exec: func(c *CPU) outcome {
			c.Registers.A = c.Memory.Read(0xFF00 + uint16(c.imm8()))
			return advance
		}},
		{Opcode: 0xF2, Mnemonic: "LD A, (C)", Cycles: 8, exec: func(c *CPU) outcome {
			c.Registers.A = c.Memory.Read(0xFF00 + uint16(c.Registers.C))
			return advance
		}},
		{Opcode: 0xF3, Mnemonic: "DI", Cycles: 4, exec: func(c *CPU) outcome {
			c.IME = false
			c.pendingIME = false // Cancel any pending EI
			return advance
		}},
		{Opcode: 0xF8, Mnemonic: "LD HL, SP+e", Length: 1, Cycles: 12, exec: func(c *CPU) outcome {
			c.Registers.SetHL(c.addSPOffset(c.offset()))
			return advance
		}},
		{Opcode: 0xF9, Mnemonic: "LD SP, HL", Cycles: 8, exec: func(c *CPU) outcome {
			c.Registers.SP = c.Registers.HL()
			return advance
		}},
		{Opcode: 0xFA, Mnemonic: "LD A, (nn)", Length: 2, Cycles: 16, exec: func(c *CPU) outcome {
			c.Registers.A = c.Memory.Read(c.imm16())
			return advance
		}},
		{Opcode: 0xFB, Mnemonic: "EI", Cycles: 4, exec: func(c *CPU) outcome {
			// EI enables interrupts AFTER the next instruction executes
			c.pendingIME = true
			return advance
		}},
	}
}

// load8Instructions covers INC r, DEC r, LD r, n and the LD r, r' grid.
func load8Instructions() []Instruction {
	var out []Instruction

	for r := uint8(0); r < 8; r++ {
		name := regNames[r]
		onHL := r == regHL

		incDecCycles, ldnCycles := uint8(4), uint8(8)
		if onHL {
			incDecCycles, ldnCycles = 12, 12
		}

		out = append(out,
			Instruction{Opcode: 0x04 | r<<3, Mnemonic: "INC " + name, Cycles: incDecCycles, exec: func(c *CPU) outcome {
				c.setReg8(r, c.inc8(c.reg8(r)))
				return advance
			}},
			Instruction{Opcode: 0x05 | r<<3, Mnemonic: "DEC " + name, Cycles: incDecCycles, exec: func(c *CPU) outcome {
				c.setReg8(r, c.dec8(c.reg8(r)))
				return advance
			}},
			Instruction{Opcode: 0x06 | r<<3, Mnemonic: "LD " + name + ", n", Length: 1, Cycles: ldnCycles, exec: func(c *CPU) outcome {
				c.setReg8(r, c.imm8())
				return advance
			}},
		)
	}

	// 0x40-0x7F: LD dst, src
	for dst := uint8(0); dst < 8; dst++ {
		for src := uint8(0); src < 8; src++ {
			if dst == regHL && src == regHL {
				continue // HALT
			}

			cycles := uint8(4)
			if dst == regHL || src == regHL {
				cycles = 8
			}

			out = append(out, Instruction{
				Opcode:   0x40 | dst<<3 | src,
				Mnemonic: "LD " + regNames[dst] + ", " + regNames[src],
				Cycles:   cycles,
				exec: func(c *CPU) outcome {
					c.setReg8(dst, c.reg8(src))
					return advance
				},
			})
		}
	}

	return out
}

// ALU operation selected by bits 3-5 of 0x80-0xBF and 0xC6-0xFE.
var aluNames = [8]string{"ADD A, ", "ADC A, ", "SUB ", "SBC A, ", "AND ", "XOR ", "OR ", "CP "}

// alu applies the selected operation to A and value.
func (c *CPU) alu(op, value uint8) {
	a := c.Registers.A
	switch op {
	case 0: // ADD
		c.Registers.A = c.add8(a, value, false)
	case 1: // ADC
		c.Registers.A = c.add8(a, value, true)
	case 2: // SUB
		c.Registers.A = c.sub8(a, value, false)
	case 3: // SBC
		c.Registers.A = c.sub8(a, value, true)
	case 4: // AND
		c.Registers.A = c.and(value)
	case 5: // XOR
		c.Registers.A = c.xor(value)
	case 6: // OR
		c.Registers.A = c.or(value)
	case 7: // CP
		c.cp(value)
	}
}

// aluInstructions covers 0x80-0xBF and the immediate forms.
func aluInstructions() []Instruction {
	var out []Instruction

	for op := uint8(0); op < 8; op++ {
		for src := uint8(0); src < 8; src++ {
			cycles := uint8(4)
			if src == regHL {
				cycles = 8
			}

			out = append(out, Instruction{
				Opcode:   0x80 | op<<3 | src,
				Mnemonic: aluNames[op] + regNames[src],
				Cycles:   cycles,
				exec: func(c *CPU) outcome {
					c.alu(op, c.reg8(src))
					return advance
				},
			})
		}

		out = append(out, Instruction{
			Opcode:   0xC6 | op<<3,
			Mnemonic: aluNames[op] + "n",
			Length:   1,
			Cycles:   8,
			exec: func(c *CPU) outcome {
				c.alu(op, c.imm8())
				return advance
			},
		})
	}

	return out
}

// 16-bit pair operand encoding in bits 4-5: 0=BC 1=DE 2=HL 3=SP (AF for PUSH/POP).
var (
	pairNames  = [4]string{"BC", "DE", "HL", "SP"}
	stackNames = [4]string{"BC", "DE", "HL", "AF"}
)

func (c *CPU) reg16(index uint8) uint16 {
	switch index & 0x03 {
	case 0:
		return c.Registers.BC()
	case 1:
		return c.Registers.DE()
	case 2:
		return c.Registers.HL()
	default:
		return c.Registers.SP
	}
}

func (c *CPU) setReg16(index uint8, value uint16) {
	switch index & 0x03 {
	case 0:
		c.Registers.SetBC(value)
	case 1:
		c.Registers.SetDE(value)
	case 2:
		c.Registers.SetHL(value)
	default:
		c.Registers.SP = value
	}
}

// pairInstructions covers LD rr, nn / INC rr / DEC rr / ADD HL, rr / PUSH / POP.
func pairInstructions() []Instruction {
	var out []Instruction

	for rr := uint8(0); rr < 4; rr++ {
		name := pairNames[rr]
		stack := stackNames[rr]
		row := rr << 4

		out = append(out,
			Instruction{Opcode: 0x01 | row, Mnemonic: "LD " + name + ", nn", Length: 2, Cycles: 12, exec: func(c *CPU) outcome {
				c.setReg16(rr, c.imm16())
				return advance
			}},
			Instruction{Opcode: 0x03 | row, Mnemonic: "INC " + name, Cycles: 8, exec: func(c *CPU) outcome {
				c.setReg16(rr, c.reg16(rr)+1)
				return advance
			}},
			Instruction{Opcode: 0x09 | row, Mnemonic: "ADD HL, " + name, Cycles: 8, exec: func(c *CPU) outcome {
				c.Registers.SetHL(c.add16(c.Registers.HL(), c.reg16(rr)))
				return advance
			}},
			Instruction{Opcode: 0x0B | row, Mnemonic: "DEC " + name, Cycles: 8, exec: func(c *CPU) outcome {
				c.setReg16(rr, c.reg16(rr)-1)
				return advance
			}},
			Instruction{Opcode: 0xC1 | row, Mnemonic: "POP " + stack, Cycles: 12, exec: func(c *CPU) outcome {
				if rr == 3 {
					c.Registers.SetAF(c.pop())
				} else {
					c.setReg16(rr, c.pop())
				}
				return advance
			}},
			Instruction{Opcode: 0xC5 | row, Mnemonic: "PUSH " + stack, Cycles: 16, exec: func(c *CPU) outcome {
				if rr == 3 {
					c.push(c.Registers.AF())
				} else {
					c.push(c.reg16(rr))
				}
				return advance
			}},
		)
	}

	return out
}

// jumpRelative moves PC by a signed offset from the following instruction.
func (c *CPU) jumpRelative(offset int8) {
	c.Registers.PC = uint16(int32(c.next) + int32(offset)) //nolint:gosec // G115: Intentional for address calculation
}

// flowInstructions covers the conditional JR/JP/CALL/RET forms and RST.
func flowInstructions() []Instruction {
	var out []Instruction

	for cc := condition(0); cc < 4; cc++ {
		name := conditionNames[cc]
		row := uint8(cc) << 3

		out = append(out,
			Instruction{Opcode: 0x20 | row, Mnemonic: "JR " + name + ", e", Length: 1, Cycles: 12, AltCycles: 8, exec: func(c *CPU) outcome {
				offset := c.offset()
				if !c.checkCondition(cc) {
					return notTaken
				}
				c.jumpRelative(offset)
				return jumped
			}},
			Instruction{Opcode: 0xC0 | row, Mnemonic: "RET " + name, Cycles: 20, AltCycles: 8, exec: func(c *CPU) outcome {
				if !c.checkCondition(cc) {
					return notTaken
				}
				c.Registers.PC = c.pop()
				return jumped
			}},
			Instruction{Opcode: 0xC2 | row, Mnemonic: "JP " + name + ", nn", Length: 2, Cycles: 16, AltCycles: 12, exec: func(c *CPU) outcome {
				addr := c.imm16()
				if !c.checkCondition(cc) {
					return notTaken
				}
				c.Registers.PC = addr
				return jumped
			}},
			Instruction{Opcode: 0xC4 | row, Mnemonic: "CALL " + name + ", nn", Length: 2, Cycles: 24, AltCycles: 12, exec: func(c *CPU) outcome {
				addr := c.imm16()
				if !c.checkCondition(cc) {
					return notTaken
				}
				c.push(c.next)
				c.Registers.PC = addr
				return jumped
			}},
		)
	}

	for n := uint8(0); n < 8; n++ {
		vector := uint16(n) << 3
		out = append(out, Instruction{
			Opcode:   0xC7 | n<<3,
			Mnemonic: rstNames[n],
			Cycles:   16,
			exec: func(c *CPU) outcome {
				c.push(c.next)
				c.Registers.PC = vector
				return jumped
			},
		})
	}

	return out
}

var rstNames = [8]string{"RST 00H", "RST 08H", "RST 10H", "RST 18H", "RST 20H", "RST 28H", "RST 30H", "RST 38H"}
