package petcrypto

import "math/big"

// allOnes256 is the constant 2^256 - 1, the denominator the
// eligibility test uses to turn a 32-byte hash into a ratio in [0,1].
var allOnes256 = func() *big.Int {
	bytes := make([]byte, 32)
	for i := range bytes {
		bytes[i] = 0xff
	}
	return new(big.Int).SetBytes(bytes)
}()

// Eligible implements the eligibility test: given a
// signature sig over seed||label and a threshold t in [0,1], hash sig
// to 32 bytes, treat the digest as an unsigned little-endian integer,
// and declare eligibility iff digest/(2^256-1) <= t. Thresholds of
// exactly 0 or 1 short-circuit without hashing.
func Eligible(sig []byte, threshold float64) bool {
	if threshold <= 0 {
		return false
	}
	if threshold >= 1 {
		return true
	}

	digest := Hash32(sig)
	numerator := leBytesToInt(digest[:])

	t := new(big.Rat)
	t.SetFloat64(threshold)

	// numerator/allOnes256 <= t  <=>  numerator*t.Denom <= t.Num*allOnes256
	lhs := new(big.Int).Mul(numerator, t.Denom())
	rhs := new(big.Int).Mul(t.Num(), allOnes256)
	return lhs.Cmp(rhs) <= 0
}

// Ratio returns the eligibility ratio in [0,1] for sig, for callers
// that want the raw value (diagnostics, tests) rather than a boolean.
func Ratio(sig []byte) *big.Rat {
	digest := Hash32(sig)
	numerator := leBytesToInt(digest[:])
	return new(big.Rat).SetFrac(numerator, allOnes256)
}

func leBytesToInt(b []byte) *big.Int {
	rev := make([]byte, len(b))
	for i, v := range b {
		rev[len(b)-1-i] = v
	}
	return new(big.Int).SetBytes(rev)
}
