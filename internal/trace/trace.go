// Package trace logs executed instructions and renders register dumps.
package trace

import (
	"fmt"
	"io"

	"github.com/olekukonko/tablewriter"
	"github.com/sirupsen/logrus"

	"github.com/richardwooding/sm83/internal/cpu"
	"github.com/richardwooding/sm83/internal/snapshot"
)

// Line formats the state of c in the gameboy-doctor log format: every
// register followed by the four bytes at PC. The bytes are read with
// cpu.Peek, so a fault already pending on the bus is left in place.
func Line(c *cpu.CPU) string {
	r := c.Registers
	pc := r.PC
	mem := c.Memory

	return fmt.Sprintf("A: %02X F: %02X B: %02X C: %02X D: %02X E: %02X H: %02X L: %02X SP: %04X PC: 00:%04X (%02X %02X %02X %02X)",
		r.A, r.F, r.B, r.C, r.D, r.E, r.H, r.L, r.SP, pc,
		cpu.Peek(mem, pc), cpu.Peek(mem, pc+1), cpu.Peek(mem, pc+2), cpu.Peek(mem, pc+3),
	)
}

// Tracer steps a CPU and logs one line per instruction.
type Tracer struct {
	cpu *cpu.CPU
	log logrus.FieldLogger
}

// New creates a tracer for c.
func New(c *cpu.CPU, log logrus.FieldLogger) *Tracer {
	return &Tracer{cpu: c, log: log}
}

// Step logs the pre-execution state and executes one instruction.
func (t *Tracer) Step() (uint8, error) {
	pc := t.cpu.Registers.PC
	entry := t.log.WithField("pc", fmt.Sprintf("$%04X", pc))

	if text, _, err := cpu.Disassemble(t.cpu.Memory, pc); err == nil {
		entry = entry.WithField("op", text)
	}
	entry.Info(Line(t.cpu))

	cycles, err := t.cpu.Step()
	if err != nil {
		entry.WithError(err).Error("instruction failed")
		return cycles, err
	}

	entry.WithField("cycles", cycles).Debug("executed")
	return cycles, nil
}

// Run steps up to n instructions, stopping early on error or when the CPU halts.
// It returns the number of instructions executed and the total cycles.
func (t *Tracer) Run(n int) (int, uint64, error) {
	var total uint64
	for i := 0; i < n; i++ {
		if t.cpu.Halted() || t.cpu.Stopped() {
			t.log.WithField("step", i).Info("cpu idle, stopping")
			return i, total, nil
		}
		cycles, err := t.Step()
		total += uint64(cycles)
		if err != nil {
			return i, total, err
		}
	}
	return n, total, nil
}

// DumpState writes a table of every register to w.
func DumpState(w io.Writer, c *cpu.CPU, header string) {
	r := c.Registers

	if header != "" {
		fmt.Fprintf(w, "%s\n", header)
	}

	table := tablewriter.NewWriter(w)
	table.SetHeader([]string{"Register", "Hex", "Dec"})
	table.SetAlignment(tablewriter.ALIGN_LEFT)

	rows := []struct {
		name  string
		value uint16
		wide  bool
	}{
		{"A", uint16(r.A), false},
		{"F", uint16(r.F), false},
		{"B", uint16(r.B), false},
		{"C", uint16(r.C), false},
		{"D", uint16(r.D), false},
		{"E", uint16(r.E), false},
		{"H", uint16(r.H), false},
		{"L", uint16(r.L), false},
		{"SP", r.SP, true},
		{"PC", r.PC, true},
	}
	for _, row := range rows {
		hex := fmt.Sprintf("$%02X", row.value)
		if row.wide {
			hex = fmt.Sprintf("$%04X", row.value)
		}
		table.Append([]string{row.name, hex, fmt.Sprintf("%d", row.value)})
	}
	table.Append([]string{"Flags", cpu.FormatFlags(r.F), fmt.Sprintf("%04b", r.F>>4)})
	table.Append([]string{"IME", fmt.Sprintf("%t", c.IME), ""})

	table.Render()
}

// DumpOpcodes writes the instruction listing for one table page to w.
func DumpOpcodes(w io.Writer, t *cpu.Table, extended bool) {
	table := tablewriter.NewWriter(w)
	table.SetHeader([]string{"Opcode", "Mnemonic", "Bytes", "Cycles"})
	table.SetAlignment(tablewriter.ALIGN_LEFT)

	for ins := range t.Instructions() {
		if ins.Extended != extended {
			continue
		}
		cycles := fmt.Sprintf("%d", ins.Cycles)
		if ins.Conditional() {
			cycles = fmt.Sprintf("%d/%d", ins.Cycles, ins.AltCycles)
		}
		table.Append([]string{ins.ID().String(), ins.Mnemonic, fmt.Sprintf("%d", ins.Size()), cycles})
	}

	table.Render()
}

// DumpDiff writes a want/got table of mismatched fields to w.
func DumpDiff(w io.Writer, diff []snapshot.Mismatch) {
	table := tablewriter.NewWriter(w)
	table.SetHeader([]string{"Field", "Want", "Got"})
	table.SetAlignment(tablewriter.ALIGN_LEFT)

	for _, m := range diff {
		format := "$%02X"
		if m.Wide() {
			format = "$%04X"
		}
		table.Append([]string{m.Field, fmt.Sprintf(format, m.Want), fmt.Sprintf(format, m.Got)})
	}

	table.Render()
}
