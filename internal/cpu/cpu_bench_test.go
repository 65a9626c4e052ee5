package cpu

import (
	"math/rand/v2"
	"testing"
)

// Benchmark tests to measure instruction throughput. Each reports the
// emulated clock rate as a multiple of the DMG clock (xDMG > 1 is faster
// than real hardware).

func reportSpeed(b *testing.B, cycles uint64) {
	b.Helper()
	if s := b.Elapsed().Seconds(); s > 0 {
		b.ReportMetric(float64(cycles)/s/DMGClockSpeed, "xDMG")
	}
}

func benchmarkProgram(b *testing.B, program []byte) {
	cpu, mem := setupCPU()
	copy(mem.data[0x0100:], program)

	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		if _, err := cpu.Step(); err != nil {
			b.Fatal(err)
		}
	}
	b.StopTimer()

	reportSpeed(b, cpu.Cycles)
}

func BenchmarkStep_NOP(b *testing.B) {
	// Zeroed memory is all NOPs; PC wraps around the address space
	benchmarkProgram(b, nil)
}

func BenchmarkStep_ALULoop(b *testing.B) {
	// INC B; ADD A, B; JR -4
	benchmarkProgram(b, []byte{0x04, 0x80, 0x18, 0xFC})
}

func BenchmarkStep_Stack(b *testing.B) {
	// PUSH BC; POP DE; JR -4
	benchmarkProgram(b, []byte{0xC5, 0xD1, 0x18, 0xFC})
}

func BenchmarkStep_Extended(b *testing.B) {
	// SWAP A; RLC B; JR -6
	benchmarkProgram(b, []byte{0xCB, 0x37, 0xCB, 0x00, 0x18, 0xFA})
}

func BenchmarkStep_Call(b *testing.B) {
	// CALL $0105; JR -5; RET
	benchmarkProgram(b, []byte{0xCD, 0x05, 0x01, 0x18, 0xFB, 0xC9})
}

// BenchmarkExecute runs every table instruction with random operands.
func BenchmarkExecute(b *testing.B) {
	var ops []Opcode
	for ins := range Opcodes().Instructions() {
		if !ins.Prefix {
			ops = append(ops, ins.ID())
		}
	}

	rng := rand.New(rand.NewPCG(1600, 0x5EED))
	operands := make([]uint16, 1024)
	for i := range operands {
		operands[i] = uint16(rng.UintN(0x10000)) //nolint:gosec // G115: Bounded by UintN
	}

	cpu, _ := setupCPU()
	var cycles uint64

	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		n, err := cpu.Execute(ops[i%len(ops)], operands[i%len(operands)])
		if err != nil {
			b.Fatal(err)
		}
		cycles += uint64(n)
	}
	b.StopTimer()

	reportSpeed(b, cycles)
}

func BenchmarkExecute_LoadImmediate(b *testing.B) {
	cpu, _ := setupCPU()

	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		// LD A, n
		_, _ = cpu.Execute(0x3E, uint16(i&0xFF))
	}
}

func BenchmarkExecute_BitTest(b *testing.B) {
	cpu, _ := setupCPU()
	bit := NewOpcode(0x7C, true) // BIT 7, H

	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		_, _ = cpu.Execute(bit, 0)
	}
}
