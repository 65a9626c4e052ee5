package main

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/alecthomas/kong"
	"github.com/sirupsen/logrus/hooks/test"

	"github.com/richardwooding/sm83/internal/cpu"
	"github.com/richardwooding/sm83/internal/harness"
	"github.com/richardwooding/sm83/internal/snapshot"
)

// fixturesDir returns the fixture directory, or skips the test if not found.
func fixturesDir(t *testing.T) string {
	t.Helper()

	path := filepath.Join("..", "..", "testdata", "fixtures")
	if _, err := os.Stat(path); os.IsNotExist(err) {
		t.Skipf("Fixtures not found: %s", path)
	}

	return path
}

// run parses args and executes the selected command, returning its output.
func run(t *testing.T, args ...string) (string, error) {
	t.Helper()

	cli := &CLI{}
	parser, err := kong.New(cli, kong.Name("sm83"), kong.Exit(func(int) { t.Fatal("unexpected exit") }))
	if err != nil {
		t.Fatalf("kong.New() error = %v", err)
	}

	ctx, err := parser.Parse(args)
	if err != nil {
		t.Fatalf("Parse(%v) error = %v", args, err)
	}

	var out bytes.Buffer
	log, _ := test.NewNullLogger()
	ctx.BindTo(&out, (*io.Writer)(nil))

	err = ctx.Run(log)
	return out.String(), err
}

func TestParseOpcode(t *testing.T) {
	tests := []struct {
		in      string
		want    cpu.Opcode
		wantErr bool
	}{
		{"3E", 0x3E, false},
		{"0x3e", 0x3E, false},
		{"CB37", 0x137, false},
		{"cb 7c", 0x17C, false},
		{"137", 0x137, false},
		{"CB", 0xCB, false},
		{"200", 0, true},
		{"CB100", 0, true},
		{"zz", 0, true},
	}

	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, err := parseOpcode(tt.in)
			if tt.wantErr {
				if !errors.Is(err, ErrInvalidOpcode) {
					t.Errorf("parseOpcode(%q) error = %v, want ErrInvalidOpcode", tt.in, err)
				}
				return
			}
			if err != nil {
				t.Fatalf("parseOpcode(%q) error = %v", tt.in, err)
			}
			if got != tt.want {
				t.Errorf("parseOpcode(%q) = %s, want %s", tt.in, got, tt.want)
			}
		})
	}
}

func TestSuiteCommand(t *testing.T) {
	dir := fixturesDir(t)

	out, err := run(t, "suite", dir, "--verbose")
	if err != nil {
		t.Fatalf("suite error = %v\nOutput:\n%s", err, out)
	}
	if !strings.Contains(out, "7/7 fixtures passed") {
		t.Errorf("unexpected summary\nOutput:\n%s", out)
	}
	if !strings.Contains(out, "EXECUTED") {
		t.Errorf("start-only fixture missing\nOutput:\n%s", out)
	}

	// NOP only advances PC
	nop, err := snapshot.Load(filepath.Join(dir, "07-nop-start.json"))
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	nop.PC++
	if want := fmt.Sprintf("%016X", nop.Fingerprint()); !strings.Contains(out, want) {
		t.Errorf("suite output missing fingerprint %s\nOutput:\n%s", want, out)
	}
}

func TestVerifyCommand(t *testing.T) {
	dir := fixturesDir(t)

	out, err := run(t, "verify",
		filepath.Join(dir, "03-add_a_b-start.json"),
		filepath.Join(dir, "03-add_a_b-expected.json"))
	if err != nil {
		t.Fatalf("verify error = %v\nOutput:\n%s", err, out)
	}
	if !strings.Contains(out, "PASSED") {
		t.Errorf("verify output = %q, want PASSED", out)
	}

	expected, err := snapshot.Load(filepath.Join(dir, "03-add_a_b-expected.json"))
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	fp := expected.Fingerprint()
	if want := fmt.Sprintf("want %016X, got %016X", fp, fp); !strings.Contains(out, want) {
		t.Errorf("verify output = %q, want %q", out, want)
	}

	// Mismatched pair
	out, err = run(t, "verify",
		filepath.Join(dir, "01-inc_bc-start.json"),
		filepath.Join(dir, "02-ld_a_n-expected.json"))
	if !errors.Is(err, ErrTestFailed) {
		t.Errorf("verify error = %v, want ErrTestFailed", err)
	}
	if !strings.Contains(out, "FAILED") {
		t.Errorf("verify output = %q, want FAILED", out)
	}
}

func TestStepCommand(t *testing.T) {
	dir := fixturesDir(t)
	outPath := filepath.Join(t.TempDir(), "registers-test.json")

	if _, err := run(t, "step", filepath.Join(dir, "06-call_nn-start.json"), "-o", outPath); err != nil {
		t.Fatalf("step error = %v", err)
	}

	got, err := snapshot.Load(outPath)
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if got.PC != 0x1234 || got.SP != 0xFFFC {
		t.Errorf("PC = %04X SP = %04X, want 1234 FFFC", got.PC, got.SP)
	}
	if got.Cycles == nil || *got.Cycles != 24 {
		t.Errorf("Cycles = %v, want 24", got.Cycles)
	}
}

func TestStepDump(t *testing.T) {
	dir := fixturesDir(t)

	out, err := run(t, "step", filepath.Join(dir, "02-ld_a_n-start.json"), "--dump")
	if err != nil {
		t.Fatalf("step error = %v", err)
	}
	for _, want := range []string{"Initial State", "Post Instruction [3E] 8 cycles", "IME"} {
		if !strings.Contains(out, want) {
			t.Errorf("step output missing %q\n%s", want, out)
		}
	}
}

func TestRandomCommand(t *testing.T) {
	out, err := run(t, "random", "CB37", "--seed", "42", "--args", "9")
	if err != nil {
		t.Fatalf("random error = %v", err)
	}

	s, err := snapshot.Decode(strings.NewReader(out))
	if err != nil {
		t.Fatalf("Decode() error = %v", err)
	}
	if s.Name != 0x137 || s.Operand() != 9 {
		t.Errorf("snapshot = %+v", s)
	}

	if _, err := run(t, "random", "D3"); !errors.Is(err, cpu.ErrUnknownOpcode) {
		t.Errorf("random D3 error = %v, want ErrUnknownOpcode", err)
	}
	if _, err := run(t, "random", "CB"); !errors.Is(err, ErrInvalidOpcode) {
		t.Errorf("random CB error = %v, want ErrInvalidOpcode", err)
	}
}

func TestRunAndDisasmCommands(t *testing.T) {
	program := filepath.Join(t.TempDir(), "program.bin")
	// LD B, $05; DEC B; JR NZ, -3; HALT; unused byte
	if err := os.WriteFile(program, []byte{0x06, 0x05, 0x05, 0x20, 0xFD, 0x76, 0xD3}, 0o600); err != nil {
		t.Fatal(err)
	}

	out, err := run(t, "run", program, "--steps", "100")
	if err != nil {
		t.Fatalf("run error = %v", err)
	}
	// 1 load + 5 x (DEC, JR) + HALT
	if !strings.Contains(out, "After 12 instructions") {
		t.Errorf("run output:\n%s", out)
	}

	out, err = run(t, "disasm", program)
	if err != nil {
		t.Fatalf("disasm error = %v", err)
	}
	for _, want := range []string{"$0100  LD B, $05", "$0103  JR NZ, $0102", "$0105  HALT", "$0106  DB $D3"} {
		if !strings.Contains(out, want) {
			t.Errorf("disasm output missing %q\n%s", want, out)
		}
	}
}

func TestOpcodesCommand(t *testing.T) {
	out, err := run(t, "opcodes", "--extended")
	if err != nil {
		t.Fatalf("opcodes error = %v", err)
	}
	if !strings.Contains(out, "SET 7, A") {
		t.Errorf("opcodes output missing SET 7, A")
	}
}

func TestRunCapturesSerial(t *testing.T) {
	program := filepath.Join(t.TempDir(), "serial.bin")
	// LD A, 'K'; LDH ($01), A; LD A, $81; LDH ($02), A; HALT
	code := []byte{0x3E, 'K', 0xE0, 0x01, 0x3E, 0x81, 0xE0, 0x02, 0x76}
	if err := os.WriteFile(program, code, 0o600); err != nil {
		t.Fatal(err)
	}

	out, err := run(t, "run", program)
	if err != nil {
		t.Fatalf("run error = %v", err)
	}
	if !strings.Contains(out, "Serial output:\nK") {
		t.Errorf("run output:\n%s", out)
	}
}

func TestBenchCommand(t *testing.T) {
	out, err := run(t, "bench", "3E", "--iterations", "100")
	if err != nil {
		t.Fatalf("bench error = %v", err)
	}
	if !strings.Contains(out, "LD A, n") || !strings.Contains(out, "/1 instructions at or above DMG speed") {
		t.Errorf("bench output:\n%s", out)
	}

	if _, err := run(t, "bench", "D3", "--iterations", "1"); !errors.Is(err, cpu.ErrUnknownOpcode) {
		t.Errorf("bench D3 error = %v, want ErrUnknownOpcode", err)
	}
	if _, err := run(t, "bench", "--iterations", "0"); !errors.Is(err, harness.ErrNoIterations) {
		t.Errorf("bench error = %v, want ErrNoIterations", err)
	}
}
