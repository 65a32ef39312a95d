package mergemine

import "github.com/holiman/uint256"

// CompactToTarget decodes a compact ("nBits") proof-of-work target into its
// full 256-bit form. This is the same base-256 floating-point scheme every
// Bitcoin-derived chain uses for its difficulty bits; none of the retrieval
// pack's example repos carries a compact-target codec of their own (the
// ones with a PoW-adjacent dependency surface are EVM chains, which encode
// difficulty as a plain big.Int), so this is hand-rolled arithmetic over
// holiman/uint256 rather than a port of a pack dependency.
func CompactToTarget(bits uint32) *uint256.Int {
	exponent := bits >> 24
	mantissa := bits & 0x007fffff

	target := uint256.NewInt(uint64(mantissa))
	if exponent <= 3 {
		target.Rsh(target, uint(8*(3-exponent)))
	} else {
		target.Lsh(target, uint(8*(exponent-3)))
	}
	if bits&0x00800000 != 0 {
		return uint256.NewInt(0)
	}
	return target
}

// TargetToCompact re-encodes a full 256-bit target back into its compact
// form, the inverse of CompactToTarget. Used by the header combiner when
// returning the easiest target among registered candidates (spec §4.E
// step 5).
func TargetToCompact(target *uint256.Int) uint32 {
	if target.IsZero() {
		return 0
	}
	b := target.Bytes()
	size := uint32(len(b))
	var mantissa uint32
	switch {
	case size <= 3:
		for _, x := range b {
			mantissa = mantissa<<8 | uint32(x)
		}
		mantissa <<= 8 * (3 - size)
	default:
		mantissa = uint32(b[0])<<16 | uint32(b[1])<<8 | uint32(b[2])
	}
	if mantissa&0x00800000 != 0 {
		mantissa >>= 8
		size++
	}
	return size<<24 | mantissa
}
