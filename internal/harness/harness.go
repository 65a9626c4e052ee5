// Package harness runs single-instruction fixtures against the CPU core.
//
// A fixture is a start snapshot naming one opcode. The runner loads the
// snapshot into a fresh CPU on a mock bus, executes the opcode with the
// fixture's args as its operand and captures the resulting registers.
// When an expected snapshot is supplied the result is compared against it.
package harness

import (
	"context"
	"errors"
	"fmt"
	"math/rand/v2"
	"runtime"

	"github.com/hashicorp/go-multierror"
	"github.com/sirupsen/logrus"
	"golang.org/x/sync/errgroup"

	"github.com/richardwooding/sm83/internal/cpu"
	"github.com/richardwooding/sm83/internal/memory"
	"github.com/richardwooding/sm83/internal/snapshot"
)

// ErrMismatch indicates a result that differs from its expected snapshot.
var ErrMismatch = errors.New("result does not match expected state")

// Result represents the result of running one fixture.
type Result struct {
	Start  snapshot.Snapshot
	End    snapshot.Snapshot
	Cycles uint8

	// Fingerprint of the end registers
	Fingerprint uint64

	// Writes the instruction made to the bus
	Writes []memory.Access

	// Set only when an expected snapshot was supplied
	Checked bool
	Diff    []snapshot.Mismatch

	Error error
}

// String returns a human-readable representation of the result.
func (r *Result) String() string {
	switch {
	case r.Error != nil && !errors.Is(r.Error, ErrMismatch):
		return fmt.Sprintf("ERROR: %v", r.Error)
	case !r.Checked:
		return "EXECUTED"
	case len(r.Diff) > 0:
		return "FAILED"
	}
	return "PASSED"
}

// IsSuccess returns true if the fixture executed and, when checked, matched.
func (r *Result) IsSuccess() bool {
	return r.Error == nil && len(r.Diff) == 0
}

// Runner executes fixtures.
type Runner struct {
	// Value the mock bus returns for every read
	ReadValue uint8

	log logrus.FieldLogger
}

// NewRunner creates a runner logging through log.
func NewRunner(log logrus.FieldLogger) *Runner {
	return &Runner{log: log}
}

// Run executes the instruction named by start and returns the captured state.
func (r *Runner) Run(start snapshot.Snapshot) *Result {
	result := &Result{Start: start}
	log := r.log.WithField("opcode", start.Name.String())

	if _, err := cpu.Opcodes().Find(start.Name); err != nil {
		result.Error = err
		return result
	}

	bus := memory.NewMock(r.ReadValue, log)
	c := cpu.New(bus)
	start.Apply(c)

	cycles, err := c.Execute(start.Name, start.Operand())
	if err != nil {
		log.WithError(err).Warn("execution failed")
		result.Error = fmt.Errorf("failed to execute %s: %w", start.Name, err)
		return result
	}

	end := snapshot.Capture(c, start.Name).WithCycles(cycles)
	end.Args = start.Args

	result.End = end
	result.Cycles = cycles
	result.Fingerprint = end.Fingerprint()
	result.Writes = bus.Writes()

	log.WithField("cycles", cycles).Debug("fixture executed")
	return result
}

// Verify runs start and compares the outcome with expected.
func (r *Runner) Verify(start, expected snapshot.Snapshot) *Result {
	result := r.Run(start)
	if result.Error != nil {
		return result
	}

	result.Checked = true
	if !matches(expected, result) {
		result.Diff = snapshot.Diff(expected, result.End)
	}
	if len(result.Diff) > 0 {
		result.Error = fmt.Errorf("%w: %s (%d fields)", ErrMismatch, start.Name, len(result.Diff))
		r.log.WithField("opcode", start.Name.String()).WithField("fields", len(result.Diff)).Info("fixture mismatch")
	}

	return result
}

// matches reports whether res agrees with expected by fingerprint and cycle count.
func matches(expected snapshot.Snapshot, res *Result) bool {
	if expected.Fingerprint() != res.Fingerprint {
		return false
	}
	return expected.Cycles == nil || *expected.Cycles == res.Cycles
}

// Fixture pairs a start snapshot with an optional expected outcome.
type Fixture struct {
	Start    snapshot.Snapshot
	Expected *snapshot.Snapshot
}

// RunAll runs every fixture, spreading them over up to workers goroutines
// (GOMAXPROCS when workers < 1). Results keep the order of fixtures. The
// returned error aggregates every failed fixture.
func (r *Runner) RunAll(ctx context.Context, fixtures []Fixture, workers int) ([]*Result, error) {
	if workers < 1 {
		workers = runtime.GOMAXPROCS(0)
	}

	results := make([]*Result, len(fixtures))

	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(workers)

	for i, f := range fixtures {
		g.Go(func() error {
			if err := ctx.Err(); err != nil {
				return err
			}
			if f.Expected != nil {
				results[i] = r.Verify(f.Start, *f.Expected)
			} else {
				results[i] = r.Run(f.Start)
			}
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return results, err
	}

	var failures *multierror.Error
	for _, res := range results {
		if res.Error != nil {
			failures = multierror.Append(failures, res.Error)
		}
	}

	return results, failures.ErrorOrNil()
}

// Random builds a start snapshot for op with registers drawn from seed.
// The same seed always yields the same snapshot.
func Random(op cpu.Opcode, seed uint64, args uint16) snapshot.Snapshot {
	rng := rand.New(rand.NewPCG(seed, seed^0x5EED))

	byteValue := func() uint8 {
		return uint8(rng.UintN(0x100)) //nolint:gosec // G115: Bounded by UintN
	}
	wordValue := func() uint16 {
		return uint16(rng.UintN(0x10000)) //nolint:gosec // G115: Bounded by UintN
	}

	return snapshot.Snapshot{
		Name: op,
		A:    byteValue(),
		F:    byteValue() & 0xF0,
		B:    byteValue(),
		C:    byteValue(),
		D:    byteValue(),
		E:    byteValue(),
		HL:   wordValue(),
		SP:   wordValue(),
		PC:   wordValue(),
	}.WithArgs(args)
}
