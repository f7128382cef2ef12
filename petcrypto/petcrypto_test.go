package petcrypto

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestSignVerifyRoundTrip(t *testing.T) {
	pk, sk, err := GenerateSigningKeyPair()
	require.NoError(t, err)

	msg := []byte("sum-eligibility-message")
	sig := Sign(sk, msg)
	require.True(t, Verify(pk, msg, sig))
	require.False(t, Verify(pk, []byte("tampered"), sig))
}

func TestSealOpenRoundTrip(t *testing.T) {
	pk, sk, err := GenerateEncryptionKeyPair()
	require.NoError(t, err)

	plaintext := []byte("ephemeral public key + local seed dict entry")
	sealed, err := Seal(pk, plaintext)
	require.NoError(t, err)
	require.Len(t, sealed, len(plaintext)+SealOverhead)

	opened, err := Open(pk, sk, sealed)
	require.NoError(t, err)
	require.Equal(t, plaintext, opened)
}

func TestOpenRejectsTamperedCiphertext(t *testing.T) {
	pk, sk, err := GenerateEncryptionKeyPair()
	require.NoError(t, err)

	sealed, err := Seal(pk, []byte("payload"))
	require.NoError(t, err)
	sealed[len(sealed)-1] ^= 0xff

	_, err = Open(pk, sk, sealed)
	require.Error(t, err)
}

func TestEligibleThresholdBoundaries(t *testing.T) {
	sig := []byte("some-signature-bytes")

	require.False(t, Eligible(sig, 0))
	require.True(t, Eligible(sig, 1))
}

func TestEligibleIsStable(t *testing.T) {
	sig := []byte("deterministic-signature")
	first := Eligible(sig, 0.37)
	second := Eligible(sig, 0.37)
	require.Equal(t, first, second)
}

func TestDeriveRoundSeedDeterministic(t *testing.T) {
	var msk [32]byte
	copy(msk[:], []byte("coordinator-master-secret-seed!"))
	var prev [32]byte
	copy(prev[:], []byte("previous-round-seed-bytes-here!"))

	a := DeriveRoundSeed(msk, prev, 0.5, 0.9)
	b := DeriveRoundSeed(msk, prev, 0.5, 0.9)
	require.Equal(t, a, b)

	c := DeriveRoundSeed(msk, prev, 0.5, 0.8)
	require.NotEqual(t, a, c)
}
