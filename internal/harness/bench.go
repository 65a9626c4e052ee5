package harness

import (
	"errors"
	"math/rand/v2"
	"time"

	"github.com/richardwooding/sm83/internal/cpu"
	"github.com/richardwooding/sm83/internal/memory"
)

// ErrNoIterations indicates a benchmark asked to run nothing.
var ErrNoIterations = errors.New("iterations must be positive")

// Throughput is the measured execution speed of one instruction.
type Throughput struct {
	Opcode     cpu.Opcode
	Mnemonic   string
	Iterations int
	Cycles     uint64
	Elapsed    time.Duration
}

// CyclesPerSecond returns emulated T-cycles per wall-clock second.
func (t Throughput) CyclesPerSecond() float64 {
	if t.Elapsed <= 0 {
		return 0
	}
	return float64(t.Cycles) / t.Elapsed.Seconds()
}

// Speed returns throughput as a multiple of clock. Values above 1 are
// faster than hardware running at that clock.
func (t Throughput) Speed(clock float64) float64 {
	return t.CyclesPerSecond() / clock
}

// Bench executes op iterations times on a flat bus, starting from the
// registers Random draws for seed and feeding random operands.
func Bench(op cpu.Opcode, iterations int, seed uint64) (Throughput, error) {
	if iterations < 1 {
		return Throughput{}, ErrNoIterations
	}

	ins, err := cpu.Opcodes().Find(op)
	if err != nil {
		return Throughput{}, err
	}

	rng := rand.New(rand.NewPCG(seed, seed^0x5EED))
	operands := make([]uint16, 256)
	for i := range operands {
		operands[i] = uint16(rng.UintN(0x10000)) //nolint:gosec // G115: Bounded by UintN
	}

	c := cpu.New(memory.NewRAM())
	Random(op, seed, 0).Apply(c)

	result := Throughput{Opcode: op, Mnemonic: ins.Mnemonic, Iterations: iterations}

	begin := time.Now()
	for i := 0; i < iterations; i++ {
		cycles, err := c.Execute(op, operands[i%len(operands)])
		if err != nil {
			return Throughput{}, err
		}
		result.Cycles += uint64(cycles)
	}
	result.Elapsed = time.Since(begin)

	return result, nil
}
