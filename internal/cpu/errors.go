package cpu

import "errors"

var (
	// ErrUnknownOpcode indicates an opcode byte with no table entry.
	// Reaching it means the table is incomplete or the program is corrupt.
	ErrUnknownOpcode = errors.New("unknown opcode")

	// ErrInvalidOperandWidth indicates a handler and its table entry disagree
	// about how many operand bytes the instruction carries.
	ErrInvalidOperandWidth = errors.New("invalid operand width")
)

// Faulter is implemented by buses that can report access errors.
// The CPU polls Fault after every instruction and returns a non-nil
// result to its caller unchanged.
type Faulter interface {
	Fault() error
}

// Peeker is implemented by buses that can read without side effects.
// Peek never records a fault and never triggers I/O behaviour.
type Peeker interface {
	Peek(addr uint16) uint8
}

// Peek reads addr through Peek when mem supports it, and Read otherwise.
func Peek(mem Bus, addr uint16) uint8 {
	if p, ok := mem.(Peeker); ok {
		return p.Peek(addr)
	}
	return mem.Read(addr)
}
