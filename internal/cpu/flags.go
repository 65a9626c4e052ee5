package cpu

// Flag is a single condition bit of the F register.
type Flag uint8

// Flags represents CPU flag register bits.
const (
	FlagZ Flag = 0b10000000 // Zero flag (bit 7)
	FlagN Flag = 0b01000000 // Subtraction flag (bit 6)
	FlagH Flag = 0b00100000 // Half-carry flag (bit 5)
	FlagC Flag = 0b00010000 // Carry flag (bit 4)
)

// flagsMask keeps F's low nibble clear.
const flagsMask uint8 = 0xF0

// String returns the single-letter flag name.
func (f Flag) String() string {
	switch f {
	case FlagZ:
		return "Z"
	case FlagN:
		return "N"
	case FlagH:
		return "H"
	case FlagC:
		return "C"
	default:
		return "?"
	}
}

// FormatFlags renders F as ZNHC, with '-' for clear bits.
func FormatFlags(f uint8) string {
	out := []byte("----")
	for i, flag := range []Flag{FlagZ, FlagN, FlagH, FlagC} {
		if f&uint8(flag) != 0 {
			out[i] = flag.String()[0]
		}
	}
	return string(out)
}

// Flag computation. These are pure: operands in, flag state out.

func zero8(result uint8) bool {
	return result == 0
}

func halfCarryAdd8(a, b, carry uint8) bool {
	return (a&0x0F)+(b&0x0F)+carry > 0x0F
}

func carryAdd8(a, b, carry uint8) bool {
	return uint16(a)+uint16(b)+uint16(carry) > 0xFF
}

func halfCarrySub8(a, b, carry uint8) bool {
	return (a & 0x0F) < (b&0x0F)+carry
}

func carrySub8(a, b, carry uint8) bool {
	return uint16(a) < uint16(b)+uint16(carry)
}

// halfCarryAdd16 checks the carry out of bit 11 (the low nibble of the high byte).
func halfCarryAdd16(a, b uint16) bool {
	return (a&0x0FFF)+(b&0x0FFF) > 0x0FFF
}

func carryAdd16(a, b uint16) bool {
	return uint32(a)+uint32(b) > 0xFFFF
}
