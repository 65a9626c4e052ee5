package trace

import (
	"bytes"
	"strings"
	"testing"

	"github.com/sirupsen/logrus"
	"github.com/sirupsen/logrus/hooks/test"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/richardwooding/sm83/internal/cpu"
	"github.com/richardwooding/sm83/internal/memory"
	"github.com/richardwooding/sm83/internal/snapshot"
)

func TestLineFormat(t *testing.T) {
	ram := memory.NewRAM()
	require.NoError(t, ram.Load(0x0100, []byte{0x00, 0xC3, 0x50, 0x01}))

	c := cpu.New(ram)

	assert.Equal(t,
		"A: 01 F: B0 B: 00 C: 13 D: 00 E: D8 H: 01 L: 4D SP: FFFE PC: 00:0100 (00 C3 50 01)",
		Line(c))
}

func TestLineDoesNotLeaveFault(t *testing.T) {
	w := memory.NewWindow(0x0000, 0x0102)
	c := cpu.New(w)

	Line(c)
	assert.NoError(t, w.Fault())
}

func TestLineKeepsPendingFault(t *testing.T) {
	w := memory.NewWindow(0x0000, 0x0102)
	c := cpu.New(w)

	// Left over from an access the caller has not collected yet
	w.Write(0x8000, 0x01)

	Line(c)
	err := w.Fault()
	require.ErrorIs(t, err, memory.ErrOutOfRange)
	assert.Contains(t, err.Error(), "write $01 to $8000")
}

func TestTracerStepNearWindowEdge(t *testing.T) {
	w := memory.NewWindow(0x0000, 0x0101)
	log, _ := test.NewNullLogger()
	c := cpu.New(w)

	// NOP is the last byte of the window; disassembly and the log line read past it
	cycles, err := New(c, log).Step()
	require.NoError(t, err)
	assert.Equal(t, uint8(4), cycles)
}

func TestTracerRun(t *testing.T) {
	ram := memory.NewRAM()
	// LD A, $42; INC A; HALT
	require.NoError(t, ram.Load(0x0100, []byte{0x3E, 0x42, 0x3C, 0x76}))

	log, hook := test.NewNullLogger()
	c := cpu.New(ram)
	tr := New(c, log)

	steps, cycles, err := tr.Run(10)
	require.NoError(t, err)
	assert.Equal(t, 3, steps)
	assert.Equal(t, uint64(8+4+4), cycles)
	assert.Equal(t, uint8(0x43), c.Registers.A)
	assert.True(t, c.Halted())

	var lines []string
	for _, e := range hook.AllEntries() {
		if strings.HasPrefix(e.Message, "A: ") {
			lines = append(lines, e.Message)
		}
	}
	require.Len(t, lines, 3)
	assert.Contains(t, lines[0], "PC: 00:0100 (3E 42 3C 76)")
	assert.Equal(t, "LD A, $42", hook.AllEntries()[0].Data["op"])
	assert.Equal(t, "cpu idle, stopping", hook.LastEntry().Message)
}

func TestTracerReportsErrors(t *testing.T) {
	ram := memory.NewRAM()
	require.NoError(t, ram.Load(0x0100, []byte{0xDD}))

	log, hook := test.NewNullLogger()
	tr := New(cpu.New(ram), log)

	_, _, err := tr.Run(1)
	require.ErrorIs(t, err, cpu.ErrUnknownOpcode)
	assert.Equal(t, logrus.ErrorLevel, hook.LastEntry().Level)
}

func TestDumpState(t *testing.T) {
	c := cpu.New(memory.NewRAM())

	var buf bytes.Buffer
	DumpState(&buf, c, "Initial State")

	out := buf.String()
	assert.True(t, strings.HasPrefix(out, "Initial State\n"))
	assert.Contains(t, out, "$FFFE")
	assert.Contains(t, out, "Z-HC")
	assert.Contains(t, out, "1011")
}

func TestDumpOpcodes(t *testing.T) {
	var buf bytes.Buffer
	DumpOpcodes(&buf, cpu.Opcodes(), false)

	out := buf.String()
	assert.Contains(t, out, "JP NZ, nn")
	assert.Contains(t, out, "16/12")
	assert.NotContains(t, out, "SWAP")

	buf.Reset()
	DumpOpcodes(&buf, cpu.Opcodes(), true)
	assert.Contains(t, buf.String(), "CB 37")
}

func TestDumpDiff(t *testing.T) {
	var buf bytes.Buffer
	DumpDiff(&buf, []snapshot.Mismatch{{Field: "pc", Want: 0x0101, Got: 0x0102}, {Field: "a", Want: 1, Got: 2}})

	out := buf.String()
	assert.Contains(t, out, "$0101")
	assert.Contains(t, out, "$02")
}
