package cpu

import (
	"fmt"
	"iter"
)

// PrefixCB is the base-page byte that selects the extended page.
const PrefixCB uint8 = 0xCB

// Opcode identifies one instruction. Base-page opcodes are 0x00-0xFF,
// extended-page opcodes are 0x100 plus the byte following the 0xCB prefix.
type Opcode uint16

// ExtendedOffset is added to extended-page bytes to form their Opcode.
const ExtendedOffset Opcode = 0x100

// NewOpcode builds an Opcode from its page and byte.
func NewOpcode(b uint8, extended bool) Opcode {
	if extended {
		return ExtendedOffset + Opcode(b)
	}
	return Opcode(b)
}

// Byte returns the opcode byte within its page.
func (o Opcode) Byte() uint8 {
	return uint8(o) //nolint:gosec // G115: Intentional truncation to page byte
}

// Extended reports whether the opcode lives on the 0xCB page.
func (o Opcode) Extended() bool {
	return o >= ExtendedOffset
}

// String formats the opcode the way it appears in listings.
func (o Opcode) String() string {
	if o.Extended() {
		return fmt.Sprintf("CB %02X", o.Byte())
	}
	return fmt.Sprintf("%02X", o.Byte())
}

// outcome tells the engine how an instruction left the program counter.
type outcome uint8

const (
	advance  outcome = iota // fall through to the following instruction
	jumped                  // handler set PC
	notTaken                // condition failed, fall through at the alternate cost
)

// handler executes one instruction against the CPU.
type handler func(c *CPU) outcome

// Instruction describes one opcode table entry.
type Instruction struct {
	Opcode    uint8
	Extended  bool
	Mnemonic  string
	Length    uint8 // operand bytes following the opcode: 0, 1 or 2
	Cycles    uint8 // cost when unconditional or when the condition holds
	AltCycles uint8 // cost when the condition fails, 0 for unconditional entries
	Prefix    bool  // entry redirects decoding to the extended page

	exec handler
}

// ID returns the table-wide identifier of the instruction.
func (i Instruction) ID() Opcode {
	return NewOpcode(i.Opcode, i.Extended)
}

// Size returns the encoded length in bytes, prefix included.
func (i Instruction) Size() uint16 {
	if i.Extended {
		return 2 + uint16(i.Length)
	}
	return 1 + uint16(i.Length)
}

// Conditional reports whether the instruction has an alternate cost.
func (i Instruction) Conditional() bool {
	return i.AltCycles != 0
}

func (i Instruction) defined() bool {
	return i.exec != nil || i.Prefix
}

// Table maps opcode bytes to instructions. It is immutable once built.
type Table struct {
	base     [256]Instruction
	extended [256]Instruction
}

// NewTable builds and validates a table from base and extended entries.
func NewTable(base, extended []Instruction) (*Table, error) {
	t := &Table{}

	for _, ins := range base {
		if err := t.add(&t.base, ins, false); err != nil {
			return nil, err
		}
	}
	for _, ins := range extended {
		if err := t.add(&t.extended, ins, true); err != nil {
			return nil, err
		}
	}

	return t, nil
}

func (t *Table) add(page *[256]Instruction, ins Instruction, extended bool) error {
	ins.Extended = extended

	switch {
	case ins.Length > 2:
		return fmt.Errorf("%w: %s declares %d operand bytes", ErrInvalidOperandWidth, ins.ID(), ins.Length)
	case extended && ins.Length != 0:
		return fmt.Errorf("%w: %s is extended and declares operands", ErrInvalidOperandWidth, ins.ID())
	case extended && ins.Prefix:
		return fmt.Errorf("%s: prefix entries belong to the base page", ins.ID())
	case !ins.Prefix && ins.exec == nil:
		return fmt.Errorf("%s: missing handler", ins.ID())
	case page[ins.Opcode].defined():
		return fmt.Errorf("%s: duplicate table entry", ins.ID())
	}

	page[ins.Opcode] = ins
	return nil
}

// Lookup returns the instruction for an opcode byte on the given page.
func (t *Table) Lookup(opcode uint8, extended bool) (Instruction, error) {
	page := &t.base
	if extended {
		page = &t.extended
	}

	ins := page[opcode]
	if !ins.defined() {
		return Instruction{}, fmt.Errorf("%w: %s", ErrUnknownOpcode, NewOpcode(opcode, extended))
	}

	return ins, nil
}

// Find looks up an instruction by its table-wide identifier.
func (t *Table) Find(op Opcode) (Instruction, error) {
	if op >= ExtendedOffset+256 {
		return Instruction{}, fmt.Errorf("%w: 0x%X", ErrUnknownOpcode, uint16(op))
	}
	return t.Lookup(op.Byte(), op.Extended())
}

// Instructions yields every defined entry, base page first, in opcode order.
func (t *Table) Instructions() iter.Seq[Instruction] {
	return func(yield func(Instruction) bool) {
		for _, page := range []*[256]Instruction{&t.base, &t.extended} {
			for _, ins := range page {
				if ins.defined() && !yield(ins) {
					return
				}
			}
		}
	}
}

// opcodes is the process-wide instruction table shared by every CPU.
var opcodes = mustBuildTable()

func mustBuildTable() *Table {
	t, err := NewTable(baseInstructions(), extendedInstructions())
	if err != nil {
		panic(fmt.Sprintf("cpu: opcode table: %v", err))
	}
	return t
}

// Opcodes returns the shared instruction table.
func Opcodes() *Table {
	return opcodes
}

// Lookup is shorthand for Opcodes().Lookup.
func Lookup(opcode uint8, extended bool) (Instruction, error) {
	return opcodes.Lookup(opcode, extended)
}
