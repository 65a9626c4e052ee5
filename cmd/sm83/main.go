// Package main provides the sm83 CLI application.
package main

import (
	"errors"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"

	"github.com/alecthomas/kong"
	"github.com/sirupsen/logrus"
	"golang.org/x/term"

	"github.com/richardwooding/sm83/internal/cpu"
	"github.com/richardwooding/sm83/internal/harness"
	"github.com/richardwooding/sm83/internal/memory"
	"github.com/richardwooding/sm83/internal/snapshot"
	"github.com/richardwooding/sm83/internal/trace"
)

var (
	// ErrTestFailed indicates a fixture did not match its expected state.
	ErrTestFailed = errors.New("test failed")

	// ErrInvalidOpcode indicates an opcode argument that cannot be parsed.
	ErrInvalidOpcode = errors.New("invalid opcode")
)

// CLI represents the command-line interface structure.
type CLI struct {
	LogLevel string `help:"Log level (trace, debug, info, warn, error)." default:"warn" env:"SM83_LOG_LEVEL" enum:"trace,debug,info,warn,error"`

	Step    StepCmd    `cmd:"" help:"Execute the instruction named by a start snapshot."`
	Verify  VerifyCmd  `cmd:"" help:"Execute a start snapshot and compare against an expected snapshot."`
	Suite   SuiteCmd   `cmd:"" help:"Verify every fixture pair in a directory."`
	Run     RunCmd     `cmd:"" help:"Run a raw program image."`
	Opcodes OpcodesCmd `cmd:"" help:"List the instruction table."`
	Random  RandomCmd  `cmd:"" help:"Generate a randomized start snapshot."`
	Disasm  DisasmCmd  `cmd:"" help:"Disassemble a raw program image."`
	Bench   BenchCmd   `cmd:"" help:"Measure instruction throughput against the DMG clock."`
}

// StepCmd executes a single fixture.
type StepCmd struct {
	Start  string `arg:"" type:"existingfile" help:"Path to start snapshot."`
	Output string `short:"o" help:"Write the resulting snapshot to this file."`
	Value  uint8  `help:"Value the bus returns for every read." default:"0"`
	Dump   bool   `help:"Print register tables before and after."`
}

// Run executes the step command.
func (c *StepCmd) Run(log *logrus.Logger, out io.Writer) error {
	start, err := snapshot.Load(c.Start)
	if err != nil {
		return err
	}

	runner := harness.NewRunner(log)
	runner.ReadValue = c.Value

	result := runner.Run(start)
	if result.Error != nil {
		return result.Error
	}

	if c.Dump {
		dumpSnapshot(out, start, "Initial State")
		dumpSnapshot(out, result.End, fmt.Sprintf("Post Instruction [%s] %d cycles", start.Name, result.Cycles))
	}

	if c.Output == "" {
		return snapshot.Encode(out, result.End)
	}
	return snapshot.Save(c.Output, result.End)
}

// VerifyCmd checks one fixture against its expected outcome.
type VerifyCmd struct {
	Start    string `arg:"" type:"existingfile" help:"Path to start snapshot."`
	Expected string `arg:"" type:"existingfile" help:"Path to expected snapshot."`
	Value    uint8  `help:"Value the bus returns for every read." default:"0"`
}

// Run executes the verify command.
func (c *VerifyCmd) Run(log *logrus.Logger, out io.Writer) error {
	start, err := snapshot.Load(c.Start)
	if err != nil {
		return err
	}
	expected, err := snapshot.Load(c.Expected)
	if err != nil {
		return err
	}

	runner := harness.NewRunner(log)
	runner.ReadValue = c.Value

	result := runner.Verify(start, expected)
	fmt.Fprintf(out, "%s: %s\n", start.Name, result.String())

	if result.Checked {
		fmt.Fprintf(out, "fingerprint: want %016X, got %016X\n", expected.Fingerprint(), result.Fingerprint)
	}
	if len(result.Diff) > 0 {
		trace.DumpDiff(out, result.Diff)
	}
	if !result.IsSuccess() {
		return fmt.Errorf("%w: %w", ErrTestFailed, result.Error)
	}

	return nil
}

// RunCmd runs a program image loaded into flat memory.
type RunCmd struct {
	Program string `arg:"" type:"existingfile" help:"Path to program image."`
	Origin  uint16 `help:"Load address and initial PC." default:"256"`
	Steps   int    `help:"Maximum instructions to execute." default:"1000"`
	Trace   bool   `help:"Log every instruction." env:"SM83_TRACE"`
}

// Run executes the run command.
func (c *RunCmd) Run(log *logrus.Logger, out io.Writer) error {
	// #nosec G304 - Program is provided by the user via CLI argument
	data, err := os.ReadFile(c.Program)
	if err != nil {
		return fmt.Errorf("failed to read program: %w", err)
	}

	ram := memory.NewRAM()
	if err := ram.Load(c.Origin, data); err != nil {
		return fmt.Errorf("failed to load program: %w", err)
	}

	serial := memory.NewSerial(ram)
	core := cpu.New(serial)
	core.Registers.PC = c.Origin

	if c.Trace && log.GetLevel() < logrus.InfoLevel {
		log.SetLevel(logrus.InfoLevel)
	}

	steps, cycles, err := trace.New(core, log).Run(c.Steps)
	trace.DumpState(out, core, fmt.Sprintf("After %d instructions, %d cycles", steps, cycles))

	if output := serial.Output(); output != "" {
		fmt.Fprintf(out, "\nSerial output:\n%s\n", output)
	}

	return err
}

// OpcodesCmd lists the instruction table.
type OpcodesCmd struct {
	Extended bool `help:"List the 0xCB page instead of the base page."`
}

// Run executes the opcodes command.
func (c *OpcodesCmd) Run(out io.Writer) error {
	trace.DumpOpcodes(out, cpu.Opcodes(), c.Extended)
	return nil
}

// RandomCmd writes a randomized start snapshot.
type RandomCmd struct {
	Opcode string `arg:"" help:"Opcode in hex (3E, 0x3E, CB37 or 137)."`
	Seed   uint64 `help:"Random seed." default:"1600"`
	Args   uint16 `help:"Operand value stored in the snapshot." default:"0"`
	Output string `short:"o" help:"Write the snapshot to this file."`
}

// Run executes the random command.
func (c *RandomCmd) Run(out io.Writer) error {
	op, err := parseOpcode(c.Opcode)
	if err != nil {
		return err
	}
	ins, err := cpu.Opcodes().Find(op)
	if err != nil {
		return err
	}
	if ins.Prefix {
		return fmt.Errorf("%w: %s is the prefix byte", ErrInvalidOpcode, op)
	}

	s := harness.Random(op, c.Seed, c.Args)
	if c.Output == "" {
		return snapshot.Encode(out, s)
	}
	return snapshot.Save(c.Output, s)
}

// DisasmCmd disassembles a program image.
type DisasmCmd struct {
	Program string `arg:"" type:"existingfile" help:"Path to program image."`
	Origin  uint16 `help:"Load address of the first byte." default:"256"`
}

// Run executes the disasm command.
func (c *DisasmCmd) Run(out io.Writer) error {
	// #nosec G304 - Program is provided by the user via CLI argument
	data, err := os.ReadFile(c.Program)
	if err != nil {
		return fmt.Errorf("failed to read program: %w", err)
	}

	ram := memory.NewRAM()
	if err := ram.Load(c.Origin, data); err != nil {
		return fmt.Errorf("failed to load program: %w", err)
	}

	end := int(c.Origin) + len(data)
	for addr := int(c.Origin); addr < end; {
		pc := uint16(addr) //nolint:gosec // G115: Load bounds keep addr within 16 bits
		text, size, err := cpu.Disassemble(ram, pc)
		if errors.Is(err, cpu.ErrUnknownOpcode) {
			text = fmt.Sprintf("DB $%02X", ram.Read(pc))
			size = 1
		} else if err != nil {
			return err
		}
		fmt.Fprintf(out, "$%04X  %s\n", pc, text)
		addr += int(size)
	}

	return nil
}

// parseOpcode accepts base-page bytes, CB-prefixed bytes and table identifiers.
func parseOpcode(s string) (cpu.Opcode, error) {
	s = strings.ToUpper(strings.TrimSpace(s))
	s = strings.TrimPrefix(s, "0X")

	extended := false
	if rest, ok := strings.CutPrefix(s, "CB"); ok && len(rest) > 0 {
		extended = true
		s = strings.TrimSpace(rest)
	}

	v, err := strconv.ParseUint(s, 16, 16)
	if err != nil || v >= uint64(cpu.ExtendedOffset)*2 || (extended && v > 0xFF) {
		return 0, fmt.Errorf("%w: %q", ErrInvalidOpcode, s)
	}

	op := cpu.Opcode(v)
	if extended {
		op = cpu.NewOpcode(uint8(v), true)
	}
	return op, nil
}

// dumpSnapshot renders a snapshot through a scratch CPU.
func dumpSnapshot(w io.Writer, s snapshot.Snapshot, header string) {
	c := cpu.New(memory.NewRAM())
	s.Apply(c)
	trace.DumpState(w, c, header)
}

// newLogger builds the process logger. Output on a terminal is text, anything
// else gets JSON lines.
func newLogger(level string, w *os.File) (*logrus.Logger, error) {
	log := logrus.New()
	log.SetOutput(w)

	lvl, err := logrus.ParseLevel(level)
	if err != nil {
		return nil, fmt.Errorf("failed to parse log level: %w", err)
	}
	log.SetLevel(lvl)

	if term.IsTerminal(int(w.Fd())) { //nolint:gosec // G115: File descriptors fit in int
		log.SetFormatter(&logrus.TextFormatter{FullTimestamp: true})
	} else {
		log.SetFormatter(&logrus.JSONFormatter{})
	}

	return log, nil
}

func main() {
	cli := &CLI{}
	ctx := kong.Parse(cli,
		kong.Name("sm83"),
		kong.Description("Sharp SM83 (Game Boy CPU) instruction runner."),
		kong.UsageOnError(),
	)

	log, err := newLogger(cli.LogLevel, os.Stderr)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}

	ctx.BindTo(os.Stdout, (*io.Writer)(nil))
	err = ctx.Run(log)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}
