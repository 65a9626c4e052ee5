package cpu

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTableCoverage(t *testing.T) {
	var base, extended int
	for ins := range Opcodes().Instructions() {
		if ins.Extended {
			extended++
		} else {
			base++
		}
	}

	// 256 minus the eleven unused bytes
	assert.Equal(t, 245, base)
	assert.Equal(t, 256, extended)
}

func TestLookup(t *testing.T) {
	ins, err := Lookup(0x3E, false)
	require.NoError(t, err)
	assert.Equal(t, "LD A, n", ins.Mnemonic)
	assert.Equal(t, uint8(1), ins.Length)
	assert.Equal(t, uint8(8), ins.Cycles)
	assert.Equal(t, uint16(2), ins.Size())
	assert.False(t, ins.Conditional())

	ins, err = Lookup(PrefixCB, false)
	require.NoError(t, err)
	assert.True(t, ins.Prefix)

	ins, err = Lookup(0x7C, true)
	require.NoError(t, err)
	assert.Equal(t, "BIT 7, H", ins.Mnemonic)
	assert.Equal(t, uint16(2), ins.Size())
	assert.Equal(t, NewOpcode(0x7C, true), ins.ID())

	_, err = Lookup(0xFD, false)
	require.ErrorIs(t, err, ErrUnknownOpcode)

	_, err = Opcodes().Find(0x200)
	require.ErrorIs(t, err, ErrUnknownOpcode)
}

func TestConditionalEntries(t *testing.T) {
	want := map[uint8][2]uint8{
		0x20: {12, 8}, 0x28: {12, 8}, 0x30: {12, 8}, 0x38: {12, 8},
		0xC0: {20, 8}, 0xC8: {20, 8}, 0xD0: {20, 8}, 0xD8: {20, 8},
		0xC2: {16, 12}, 0xCA: {16, 12}, 0xD2: {16, 12}, 0xDA: {16, 12},
		0xC4: {24, 12}, 0xCC: {24, 12}, 0xD4: {24, 12}, 0xDC: {24, 12},
	}

	for ins := range Opcodes().Instructions() {
		costs, ok := want[ins.Opcode]
		if ins.Extended || !ok {
			assert.False(t, ins.Conditional(), "%s should be unconditional", ins.ID())
			continue
		}
		assert.Equal(t, costs[0], ins.Cycles, ins.Mnemonic)
		assert.Equal(t, costs[1], ins.AltCycles, ins.Mnemonic)
	}
}

func TestNewTableRejectsDuplicates(t *testing.T) {
	nop := Instruction{Opcode: 0x00, Mnemonic: "NOP", Cycles: 4, exec: func(*CPU) outcome { return advance }}

	_, err := NewTable([]Instruction{nop, nop}, nil)
	require.Error(t, err)

	_, err = NewTable(nil, []Instruction{{Opcode: 0x00, Length: 1, exec: nop.exec}})
	require.ErrorIs(t, err, ErrInvalidOperandWidth)

	_, err = NewTable([]Instruction{{Opcode: 0x01}}, nil)
	require.Error(t, err)
}

func TestDisassemble(t *testing.T) {
	mem := newMockMemory()
	copy(mem.data[0x0100:], []uint8{
		0x31, 0xFE, 0xFF, // LD SP, $FFFE
		0x18, 0xFE, // JR $0103
		0xCB, 0x37, // SWAP A
		0xF8, 0xF8, // LD HL, SP-8
		0xE0, 0x44, // LDH ($44), A
		0xD3, // unused
	})

	tests := []struct {
		addr uint16
		want string
		size uint16
	}{
		{0x0100, "LD SP, $FFFE", 3},
		{0x0103, "JR $0103", 2},
		{0x0105, "SWAP A", 2},
		{0x0107, "LD HL, SP-8", 2},
		{0x0109, "LDH ($44), A", 2},
	}

	for _, tt := range tests {
		text, size, err := Disassemble(mem, tt.addr)
		require.NoError(t, err)
		assert.Equal(t, tt.want, text)
		assert.Equal(t, tt.size, size)
	}

	_, _, err := Disassemble(mem, 0x010B)
	require.ErrorIs(t, err, ErrUnknownOpcode)
}
