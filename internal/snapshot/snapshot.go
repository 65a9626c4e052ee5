// Package snapshot records CPU register state in the fixture JSON format.
//
// A fixture file looks like:
//
//	{
//	    "name": 259,
//	    "a": 1, "f": 176, "b": 0, "c": 19, "d": 0, "e": 216,
//	    "hl": 333, "sp": 65534, "pc": 256,
//	    "args": 66,
//	    "cycles": 8
//	}
//
// name is the opcode identifier (0x100 plus the second byte for the CB page).
package snapshot

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"strconv"

	"github.com/cespare/xxhash"

	"github.com/richardwooding/sm83/internal/cpu"
)

// ErrInvalidArgs indicates an args field that is neither a number nor a decimal string.
var ErrInvalidArgs = errors.New("invalid args")

// Args is the operand supplied with a fixture. Older tooling writes it as
// a quoted decimal string, so both forms are accepted on decode.
type Args uint16

// UnmarshalJSON accepts 66 and "66". An empty string decodes as zero.
func (a *Args) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if len(data) > 0 && data[0] == '"' {
		var s string
		if err := json.Unmarshal(data, &s); err != nil {
			return fmt.Errorf("%w: %w", ErrInvalidArgs, err)
		}
		if s == "" {
			*a = 0
			return nil
		}
		data = []byte(s)
	}

	v, err := strconv.ParseUint(string(data), 10, 16)
	if err != nil {
		return fmt.Errorf("%w: %w", ErrInvalidArgs, err)
	}
	*a = Args(v)
	return nil
}

// Snapshot is the register state around one instruction.
type Snapshot struct {
	Name   cpu.Opcode `json:"name"`
	A      uint8      `json:"a"`
	F      uint8      `json:"f"`
	B      uint8      `json:"b"`
	C      uint8      `json:"c"`
	D      uint8      `json:"d"`
	E      uint8      `json:"e"`
	HL     uint16     `json:"hl"`
	SP     uint16     `json:"sp"`
	PC     uint16     `json:"pc"`
	Args   *Args      `json:"args,omitempty"`
	Cycles *uint8     `json:"cycles,omitempty"`
}

// Capture records the registers of c under the given opcode name.
func Capture(c *cpu.CPU, name cpu.Opcode) Snapshot {
	r := c.Registers
	return Snapshot{
		Name: name,
		A:    r.A,
		F:    r.F,
		B:    r.B,
		C:    r.C,
		D:    r.D,
		E:    r.E,
		HL:   r.HL(),
		SP:   r.SP,
		PC:   r.PC,
	}
}

// Apply loads the snapshot into c's registers. The low nibble of F is dropped.
func (s Snapshot) Apply(c *cpu.CPU) {
	r := c.Registers
	r.SetAF(uint16(s.A)<<8 | uint16(s.F))
	r.B = s.B
	r.C = s.C
	r.D = s.D
	r.E = s.E
	r.SetHL(s.HL)
	r.SP = s.SP
	r.PC = s.PC
}

// Operand returns the args value, or zero when the fixture has none.
func (s Snapshot) Operand() uint16 {
	if s.Args == nil {
		return 0
	}
	return uint16(*s.Args)
}

// WithArgs returns a copy carrying the given operand.
func (s Snapshot) WithArgs(v uint16) Snapshot {
	a := Args(v)
	s.Args = &a
	return s
}

// WithCycles returns a copy carrying the given cycle count.
func (s Snapshot) WithCycles(v uint8) Snapshot {
	s.Cycles = &v
	return s
}

// canonical is the register image hashed by Fingerprint.
func (s Snapshot) canonical() []byte {
	return []byte{
		s.A, s.F, s.B, s.C, s.D, s.E,
		uint8(s.HL >> 8), uint8(s.HL),
		uint8(s.SP >> 8), uint8(s.SP),
		uint8(s.PC >> 8), uint8(s.PC),
	}
}

// Fingerprint hashes the register values. Name, args and cycles are not included.
func (s Snapshot) Fingerprint() uint64 {
	return xxhash.Sum64(s.canonical())
}

// Mismatch is one field that differs between two snapshots.
type Mismatch struct {
	Field string
	Want  uint32
	Got   uint32
}

// Wide reports whether the field is a 16-bit value.
func (m Mismatch) Wide() bool {
	return m.Field == "hl" || m.Field == "sp" || m.Field == "pc"
}

// String formats the mismatch the way register dumps show values.
func (m Mismatch) String() string {
	if m.Wide() {
		return fmt.Sprintf("%s: want $%04X, got $%04X", m.Field, m.Want, m.Got)
	}
	return fmt.Sprintf("%s: want $%02X, got $%02X", m.Field, m.Want, m.Got)
}

// Diff lists the fields where got differs from want. Cycles are compared
// only when both snapshots carry them.
func Diff(want, got Snapshot) []Mismatch {
	fields := []struct {
		name      string
		want, got uint32
	}{
		{"a", uint32(want.A), uint32(got.A)},
		{"f", uint32(want.F), uint32(got.F)},
		{"b", uint32(want.B), uint32(got.B)},
		{"c", uint32(want.C), uint32(got.C)},
		{"d", uint32(want.D), uint32(got.D)},
		{"e", uint32(want.E), uint32(got.E)},
		{"hl", uint32(want.HL), uint32(got.HL)},
		{"sp", uint32(want.SP), uint32(got.SP)},
		{"pc", uint32(want.PC), uint32(got.PC)},
	}

	var out []Mismatch
	for _, f := range fields {
		if f.want != f.got {
			out = append(out, Mismatch{Field: f.name, Want: f.want, Got: f.got})
		}
	}
	if want.Cycles != nil && got.Cycles != nil && *want.Cycles != *got.Cycles {
		out = append(out, Mismatch{Field: "cycles", Want: uint32(*want.Cycles), Got: uint32(*got.Cycles)})
	}

	return out
}

// Decode reads one snapshot.
func Decode(r io.Reader) (Snapshot, error) {
	var s Snapshot
	if err := json.NewDecoder(r).Decode(&s); err != nil {
		return Snapshot{}, fmt.Errorf("failed to decode snapshot: %w", err)
	}
	return s, nil
}

// Encode writes s as indented JSON.
func Encode(w io.Writer, s Snapshot) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "    ")
	if err := enc.Encode(s); err != nil {
		return fmt.Errorf("failed to encode snapshot: %w", err)
	}
	return nil
}

// Load reads a snapshot file.
func Load(path string) (Snapshot, error) {
	// #nosec G304 - path is provided by the user via CLI argument
	f, err := os.Open(path)
	if err != nil {
		return Snapshot{}, fmt.Errorf("failed to open snapshot: %w", err)
	}
	defer f.Close()

	return Decode(f)
}

// Save writes a snapshot file.
func Save(path string, s Snapshot) error {
	var buf bytes.Buffer
	if err := Encode(&buf, s); err != nil {
		return err
	}
	if err := os.WriteFile(path, buf.Bytes(), 0o600); err != nil {
		return fmt.Errorf("failed to write snapshot: %w", err)
	}
	return nil
}
