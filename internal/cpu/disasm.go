package cpu

import (
	"fmt"
	"strings"
)

// Disassemble decodes the instruction at addr without executing it. Buses
// implementing Peeker are read without side effects.
// It returns the rendered mnemonic and the encoded size in bytes.
func Disassemble(mem Bus, addr uint16) (string, uint16, error) {
	ins, err := opcodes.Lookup(Peek(mem, addr), false)
	if err != nil {
		return "", 1, err
	}
	if ins.Prefix {
		ins, err = opcodes.Lookup(Peek(mem, addr+1), true)
		if err != nil {
			return "", 2, err
		}
	}

	start := addr + ins.Size() - uint16(ins.Length)
	switch ins.Length {
	case 1:
		value := Peek(mem, start)
		if strings.Contains(ins.Mnemonic, "e") {
			return renderOffset(ins, addr, value), ins.Size(), nil
		}
		return strings.Replace(ins.Mnemonic, "n", fmt.Sprintf("$%02X", value), 1), ins.Size(), nil
	case 2:
		value := uint16(Peek(mem, start)) | uint16(Peek(mem, start+1))<<8
		return strings.Replace(ins.Mnemonic, "nn", fmt.Sprintf("$%04X", value), 1), ins.Size(), nil
	}

	return ins.Mnemonic, ins.Size(), nil
}

// renderOffset shows signed displacements, and the target for relative jumps.
func renderOffset(ins Instruction, addr uint16, value uint8) string {
	offset := int8(value) //nolint:gosec // G115: Intentional signed conversion for relative addressing

	if strings.HasPrefix(ins.Mnemonic, "JR") {
		target := uint16(int32(addr) + int32(ins.Size()) + int32(offset)) //nolint:gosec // G115: Intentional for address calculation
		return strings.Replace(ins.Mnemonic, "e", fmt.Sprintf("$%04X", target), 1)
	}

	signed := fmt.Sprintf("%+d", offset)
	return strings.NewReplacer("+e", signed, "e", signed).Replace(ins.Mnemonic)
}
