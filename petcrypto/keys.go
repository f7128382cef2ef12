// Package petcrypto provides the cryptographic primitives the PET
// protocol consumes as a library: participant/coordinator signing,
// anonymous sealed-box encryption, hashing, and the big-integer
// arithmetic behind the eligibility test. None of the consensus/round
// logic lives here; package phase and package pipeline are the callers.
package petcrypto

import (
	"crypto/ed25519"
	"crypto/rand"
	"fmt"
	"io"

	"hash"

	"golang.org/x/crypto/blake2b"
	"golang.org/x/crypto/chacha20poly1305"
	"golang.org/x/crypto/curve25519"
	"golang.org/x/crypto/hkdf"
)

func newBlake2b256() hash.Hash {
	h, err := blake2b.New256(nil)
	if err != nil {
		panic(err) // only fails for an invalid key length, which nil never is
	}
	return h
}

// SigningPublicKey and SigningSecretKey are Ed25519 detached-signature
// keys. ed25519 is used directly from the standard library: the
// ecosystem's own golang.org/x/crypto/ed25519 has been a thin wrapper
// around it since Go 1.13, so reaching past the stdlib buys nothing.
type (
	SigningPublicKey ed25519.PublicKey
	SigningSecretKey ed25519.PrivateKey
)

// EncryptionPublicKey and EncryptionSecretKey are X25519 keys used for
// the anonymous sealed-box scheme in seal.go.
type (
	EncryptionPublicKey [32]byte
	EncryptionSecretKey [32]byte
)

// GenerateSigningKeyPair creates a fresh Ed25519 key pair.
func GenerateSigningKeyPair() (SigningPublicKey, SigningSecretKey, error) {
	pk, sk, err := ed25519.GenerateKey(rand.Reader)
	if err != nil {
		return nil, nil, fmt.Errorf("petcrypto: generate signing key: %w", err)
	}
	return SigningPublicKey(pk), SigningSecretKey(sk), nil
}

// Sign produces a 64-byte detached signature over msg.
func Sign(sk SigningSecretKey, msg []byte) []byte {
	return ed25519.Sign(ed25519.PrivateKey(sk), msg)
}

// Verify checks a 64-byte detached signature.
func Verify(pk SigningPublicKey, msg, sig []byte) bool {
	return ed25519.Verify(ed25519.PublicKey(pk), msg, sig)
}

// GenerateEncryptionKeyPair creates a fresh X25519 key pair for use
// with Seal/Open.
func GenerateEncryptionKeyPair() (EncryptionPublicKey, EncryptionSecretKey, error) {
	var sk EncryptionSecretKey
	if _, err := io.ReadFull(rand.Reader, sk[:]); err != nil {
		return EncryptionPublicKey{}, EncryptionSecretKey{}, fmt.Errorf("petcrypto: generate encryption key: %w", err)
	}
	pk, err := derivePublic(sk)
	if err != nil {
		return EncryptionPublicKey{}, EncryptionSecretKey{}, err
	}
	return pk, sk, nil
}

func derivePublic(sk EncryptionSecretKey) (EncryptionPublicKey, error) {
	raw, err := curve25519.X25519(sk[:], curve25519.Basepoint)
	if err != nil {
		return EncryptionPublicKey{}, fmt.Errorf("petcrypto: derive public key: %w", err)
	}
	var pk EncryptionPublicKey
	copy(pk[:], raw)
	return pk, nil
}

// GenerateMasterSecret returns a fresh random 32-byte coordinator
// master secret, the seed DeriveRoundSeed uses to derive every round's
// seed-signing key.
func GenerateMasterSecret() ([32]byte, error) {
	var secret [32]byte
	if _, err := io.ReadFull(rand.Reader, secret[:]); err != nil {
		return [32]byte{}, fmt.Errorf("petcrypto: generate master secret: %w", err)
	}
	return secret, nil
}

// Hash32 returns the 32-byte BLAKE2b digest of data, the digest
// function round-seed derivation and the eligibility test both build on.
func Hash32(data []byte) [32]byte {
	return blake2b.Sum256(data)
}

// deriveSymmetricKey derives a ChaCha20-Poly1305 key for one sealed
// message from an X25519 shared secret, binding the key to both
// parties' public keys the way seal.go's ephemeral scheme requires.
func deriveSymmetricKey(shared, ephemeralPK, recipientPK []byte) ([]byte, error) {
	salt := append(append([]byte{}, ephemeralPK...), recipientPK...)
	kdf := hkdf.New(newBlake2b256, shared, salt, []byte("pet-sealed-box"))
	key := make([]byte, chacha20poly1305.KeySize)
	if _, err := io.ReadFull(kdf, key); err != nil {
		return nil, fmt.Errorf("petcrypto: derive symmetric key: %w", err)
	}
	return key, nil
}
