package ledger

import (
	"math"
	"math/bits"
)

// MaxCoins is the largest balance an account can hold.
const MaxCoins = math.MaxUint32

// clampAdd returns a+b, or MaxCoins when the sum carries out of 32 bits.
func clampAdd(a, b uint32) uint32 {
	sum, carry := bits.Add32(a, b, 0)
	if carry != 0 {
		return MaxCoins
	}
	return sum
}

// clampSub returns a-b, or 0 when the difference borrows.
func clampSub(a, b uint32) uint32 {
	diff, borrow := bits.Sub32(a, b, 0)
	if borrow != 0 {
		return 0
	}
	return diff
}
