package harness

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/richardwooding/sm83/internal/cpu"
)

func TestBench(t *testing.T) {
	// LD A, n
	result, err := Bench(0x3E, 500, 1)
	require.NoError(t, err)

	assert.Equal(t, "LD A, n", result.Mnemonic)
	assert.Equal(t, 500, result.Iterations)
	assert.Equal(t, uint64(500*8), result.Cycles)
	assert.InDelta(t, result.CyclesPerSecond()/cpu.DMGClockSpeed, result.Speed(cpu.DMGClockSpeed), 1e-9)
}

func TestBenchConditionalCycles(t *testing.T) {
	// JR NZ, e takes either 12 or 8 cycles
	result, err := Bench(0x20, 100, 7)
	require.NoError(t, err)
	assert.GreaterOrEqual(t, result.Cycles, uint64(100*8))
	assert.LessOrEqual(t, result.Cycles, uint64(100*12))
}

func TestBenchErrors(t *testing.T) {
	_, err := Bench(0xD3, 10, 1)
	require.ErrorIs(t, err, cpu.ErrUnknownOpcode)

	_, err = Bench(cpu.Opcode(cpu.PrefixCB), 10, 1)
	require.ErrorIs(t, err, cpu.ErrUnknownOpcode)

	_, err = Bench(0x00, 0, 1)
	require.ErrorIs(t, err, ErrNoIterations)
}

func TestThroughputWithoutElapsed(t *testing.T) {
	assert.Zero(t, Throughput{Cycles: 100}.CyclesPerSecond())
}
