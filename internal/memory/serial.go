package memory

import "github.com/richardwooding/sm83/internal/cpu"

// Serial port registers.
const (
	SerialData    = 0xFF01 // SB
	SerialControl = 0xFF02 // SC
)

// Serial wraps a bus and captures bytes sent over the serial port.
// Test programs print by writing a character to SB and then 0x81 to SC.
type Serial struct {
	cpu.Bus

	output []byte
}

// NewSerial wraps bus.
func NewSerial(bus cpu.Bus) *Serial {
	return &Serial{Bus: bus, output: make([]byte, 0, 1024)}
}

// Write forwards to the wrapped bus and completes transfers immediately.
func (s *Serial) Write(addr uint16, value uint8) {
	if addr == SerialControl && value&0x80 != 0 {
		s.output = append(s.output, s.Bus.Read(SerialData))
		// Transfer complete
		value &^= 0x80
	}
	s.Bus.Write(addr, value)
}

// Peek reads from the wrapped bus without side effects.
func (s *Serial) Peek(addr uint16) uint8 {
	return cpu.Peek(s.Bus, addr)
}

// Fault forwards faults from the wrapped bus.
func (s *Serial) Fault() error {
	if f, ok := s.Bus.(cpu.Faulter); ok {
		return f.Fault()
	}
	return nil
}

// Output returns everything sent so far.
func (s *Serial) Output() string {
	return string(s.output)
}
