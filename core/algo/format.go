package algo

import (
	"math"
	"math/big"
	"strconv"
)

// toFixed formats x with the given number of decimals. Exact halfway values
// round away from zero, and negative zero prints without a sign.
func toFixed(x float64, digits int) string {
	if x == 0 {
		x = 0
	}
	if isHalfway(x, digits) {
		scale := math.Pow10(digits)
		n := math.Floor(math.Abs(x)*scale) + 1
		return strconv.FormatFloat(math.Copysign(n/scale, x), 'f', digits, 64)
	}
	return strconv.FormatFloat(x, 'f', digits, 64)
}

// isHalfway reports whether x lies exactly between two representable
// values at the given precision, i.e. x*2*10^digits is an odd integer.
func isHalfway(x float64, digits int) bool {
	if math.IsInf(x, 0) || math.IsNaN(x) {
		return false
	}
	scaled := new(big.Float).SetPrec(256).SetFloat64(x)
	factor := new(big.Float).SetPrec(256).SetFloat64(2 * math.Pow10(digits))
	scaled.Mul(scaled, factor)
	if !scaled.IsInt() {
		return false
	}
	i, _ := scaled.Int(nil)
	return i.Bit(0) == 1
}
