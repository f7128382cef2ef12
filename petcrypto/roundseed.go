package petcrypto

import (
	"crypto/ed25519"
	"encoding/binary"
	"math"
)

// DeriveRoundSeed implements the Idle-phase seed derivation:
// sign seed||sum||update with a signing key derived from the
// coordinator's secret key, then hash the signature. The derivation
// is deterministic given (masterSecretKey, prevSeed, sum, update), so
// every coordinator replica derives the same round seed from the same
// inputs without coordination.
func DeriveRoundSeed(masterSecretKey [32]byte, prevSeed [32]byte, sum, update float64) [32]byte {
	signingSeed := Hash32(append(masterSecretKey[:], []byte("pet-round-seed-signing-key")...))
	signingKey := ed25519.NewKeyFromSeed(signingSeed[:])

	msg := make([]byte, 0, 32+8+8)
	msg = append(msg, prevSeed[:]...)
	msg = binary.BigEndian.AppendUint64(msg, math.Float64bits(sum))
	msg = binary.BigEndian.AppendUint64(msg, math.Float64bits(update))

	sig := ed25519.Sign(signingKey, msg)
	return Hash32(sig)
}
