package main

import (
	"fmt"
	"io"

	"github.com/olekukonko/tablewriter"

	"github.com/richardwooding/sm83/internal/cpu"
	"github.com/richardwooding/sm83/internal/harness"
)

// BenchCmd measures how fast instructions execute compared to real hardware.
type BenchCmd struct {
	Opcode     string `arg:"" optional:"" help:"Opcode in hex. Every instruction when omitted."`
	Iterations int    `help:"Executions per instruction." default:"100000"`
	Seed       uint64 `help:"Random seed for registers and operands." default:"1600"`
}

// Run executes the bench command.
func (c *BenchCmd) Run(out io.Writer) error {
	var ops []cpu.Opcode
	if c.Opcode != "" {
		op, err := parseOpcode(c.Opcode)
		if err != nil {
			return err
		}
		ops = append(ops, op)
	} else {
		for ins := range cpu.Opcodes().Instructions() {
			if !ins.Prefix {
				ops = append(ops, ins.ID())
			}
		}
	}

	table := tablewriter.NewWriter(out)
	table.SetHeader([]string{"Opcode", "Mnemonic", "Cycles/s", "xDMG", "xCGB"})
	table.SetAlignment(tablewriter.ALIGN_LEFT)

	realtime := 0
	for _, op := range ops {
		result, err := harness.Bench(op, c.Iterations, c.Seed)
		if err != nil {
			return err
		}

		dmg := result.Speed(cpu.DMGClockSpeed)
		if dmg >= 1 {
			realtime++
		}
		table.Append([]string{
			op.String(),
			result.Mnemonic,
			fmt.Sprintf("%.0f", result.CyclesPerSecond()),
			fmt.Sprintf("%.2f", dmg),
			fmt.Sprintf("%.2f", result.Speed(cpu.CGBClockSpeed)),
		})
	}
	table.Render()

	fmt.Fprintf(out, "%d/%d instructions at or above DMG speed\n", realtime, len(ops))
	return nil
}
