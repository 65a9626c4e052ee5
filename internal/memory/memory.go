// Package memory implements the buses the SM83 core executes against.
package memory

import (
	"errors"
	"fmt"

	"github.com/sirupsen/logrus"
)

// ErrOutOfRange indicates an access outside a bounded window.
var ErrOutOfRange = errors.New("address out of range")

// ErrProgramTooLarge indicates a program does not fit where it was loaded.
var ErrProgramTooLarge = errors.New("program does not fit in memory")

// RAM is a flat 64 KiB address space with no mapping or side effects.
type RAM struct {
	data [0x10000]uint8
}

// NewRAM creates a zeroed address space.
func NewRAM() *RAM {
	return &RAM{}
}

// Read reads a byte.
func (r *RAM) Read(addr uint16) uint8 {
	return r.data[addr]
}

// Peek reads a byte.
func (r *RAM) Peek(addr uint16) uint8 {
	return r.data[addr]
}

// Write writes a byte.
func (r *RAM) Write(addr uint16, value uint8) {
	r.data[addr] = value
}

// Load copies program into memory starting at addr.
func (r *RAM) Load(addr uint16, program []byte) error {
	if int(addr)+len(program) > len(r.data) {
		return fmt.Errorf("%w: %d bytes at $%04X", ErrProgramTooLarge, len(program), addr)
	}
	copy(r.data[addr:], program)
	return nil
}

// Reset clears all memory.
func (r *RAM) Reset() {
	clear(r.data[:])
}

// Window exposes a contiguous region of memory and faults on anything else.
//
// Reads outside the region return 0xFF, writes are dropped. The first
// fault is held until Fault collects it.
type Window struct {
	base  uint16
	data  []uint8
	fault error
}

// NewWindow creates a window of size bytes starting at base.
func NewWindow(base uint16, size int) *Window {
	if limit := 0x10000 - int(base); size > limit {
		size = limit
	}
	return &Window{base: base, data: make([]uint8, size)}
}

// contains reports whether addr maps into the window.
func (w *Window) contains(addr uint16) bool {
	return addr >= w.base && int(addr-w.base) < len(w.data)
}

// Read reads a byte from the window.
func (w *Window) Read(addr uint16) uint8 {
	if !w.contains(addr) {
		w.record(fmt.Errorf("%w: read $%04X", ErrOutOfRange, addr))
		return 0xFF
	}
	return w.data[addr-w.base]
}

// Peek reads a byte without recording a fault.
func (w *Window) Peek(addr uint16) uint8 {
	if !w.contains(addr) {
		return 0xFF
	}
	return w.data[addr-w.base]
}

// Write writes a byte to the window.
func (w *Window) Write(addr uint16, value uint8) {
	if !w.contains(addr) {
		w.record(fmt.Errorf("%w: write $%02X to $%04X", ErrOutOfRange, value, addr))
		return
	}
	w.data[addr-w.base] = value
}

// Load copies program into the window starting at addr.
func (w *Window) Load(addr uint16, program []byte) error {
	if !w.contains(addr) || int(addr-w.base)+len(program) > len(w.data) {
		return fmt.Errorf("%w: %d bytes at $%04X", ErrProgramTooLarge, len(program), addr)
	}
	copy(w.data[addr-w.base:], program)
	return nil
}

// Fault returns and clears the first fault since the last call.
func (w *Window) Fault() error {
	err := w.fault
	w.fault = nil
	return err
}

func (w *Window) record(err error) {
	if w.fault == nil {
		w.fault = err
	}
}

// Access is one bus operation observed by a Mock.
type Access struct {
	Write bool
	Addr  uint16
	Value uint8
}

// Mock answers every read with a fixed value and records every access.
// Fixture runs use it so that an instruction's effect on registers can be
// checked without modelling memory contents.
type Mock struct {
	// Value returned for every read
	Value uint8

	log      logrus.FieldLogger
	accesses []Access
}

// NewMock creates a mock bus that reads value and logs through log.
// A nil logger discards output.
func NewMock(value uint8, log logrus.FieldLogger) *Mock {
	if log == nil {
		discard := logrus.New()
		discard.SetLevel(logrus.PanicLevel)
		log = discard
	}
	return &Mock{Value: value, log: log}
}

// Read records the access and returns Value.
func (m *Mock) Read(addr uint16) uint8 {
	m.log.WithField("addr", fmt.Sprintf("$%04X", addr)).Debug("bus read")
	m.accesses = append(m.accesses, Access{Addr: addr, Value: m.Value})
	return m.Value
}

// Peek returns Value without recording the access.
func (m *Mock) Peek(uint16) uint8 {
	return m.Value
}

// Write records the access and discards value.
func (m *Mock) Write(addr uint16, value uint8) {
	m.log.WithFields(logrus.Fields{
		"addr":  fmt.Sprintf("$%04X", addr),
		"value": fmt.Sprintf("$%02X", value),
	}).Debug("bus write")
	m.accesses = append(m.accesses, Access{Write: true, Addr: addr, Value: value})
}

// Accesses returns every access since creation or the last Reset.
func (m *Mock) Accesses() []Access {
	return m.accesses
}

// Writes returns only the write accesses.
func (m *Mock) Writes() []Access {
	var out []Access
	for _, a := range m.accesses {
		if a.Write {
			out = append(out, a)
		}
	}
	return out
}

// Reset forgets recorded accesses.
func (m *Mock) Reset() {
	m.accesses = nil
}
