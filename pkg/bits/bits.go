// Package bits holds the small bit-twiddling helpers used when reading USB
// descriptor attributes and CCID status bytes. Bits are numbered 1 (LSB) to 8 (MSB),
// the way the USB and CCID tables number them.
package bits

// Bit returns a byte with only the n-th bit set (1 to 8).
func Bit(n uint) byte {
	if n < 1 || n > 8 {
		return 0
	}
	return 1 << (n - 1)
}

// IsSet reports whether the n-th bit of b is set.
func IsSet(b byte, n uint) bool {
	return b&Bit(n) != 0
}

// GetRange extracts the value held in bits high..low of b.
// Example: GetRange(0b1100_0010, 8, 7) returns 3 (bmCommandStatus of a CCID reply).
func GetRange(b byte, high, low uint) byte {
	if high < low || high > 8 || low < 1 {
		return 0
	}

	width := high - low + 1
	mask := byte((1 << width) - 1)

	return (b >> (low - 1)) & mask
}
