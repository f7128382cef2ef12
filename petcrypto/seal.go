package petcrypto

import (
	"fmt"

	"golang.org/x/crypto/chacha20poly1305"
	"golang.org/x/crypto/curve25519"
)

// SealOverhead is the constant number of bytes Seal adds to a
// plaintext: a 32-byte ephemeral public key plus a 16-byte Poly1305
// tag, the wire format's sealed-box constant for an anonymous
// encryption header.
const SealOverhead = 32 + chacha20poly1305.Overhead

// Seal anonymously encrypts plaintext for recipientPK: the sender's
// identity is not authenticated, only a single-use ephemeral key pair
// generated for this message. This mirrors libsodium's
// crypto_box_seal, which the original PET implementation uses for
// every Sum/Update/Sum2 envelope.
func Seal(recipientPK EncryptionPublicKey, plaintext []byte) ([]byte, error) {
	ephemeralPK, ephemeralSK, err := GenerateEncryptionKeyPair()
	if err != nil {
		return nil, err
	}

	shared, err := curve25519.X25519(ephemeralSK[:], recipientPK[:])
	if err != nil {
		return nil, fmt.Errorf("petcrypto: seal: %w", err)
	}

	key, err := deriveSymmetricKey(shared, ephemeralPK[:], recipientPK[:])
	if err != nil {
		return nil, err
	}

	aead, err := chacha20poly1305.New(key)
	if err != nil {
		return nil, fmt.Errorf("petcrypto: seal: %w", err)
	}

	// The key is unique to this message (fresh ephemeral key pair), so
	// an all-zero nonce never repeats under the same key.
	var nonce [chacha20poly1305.NonceSize]byte
	ciphertext := aead.Seal(nil, nonce[:], plaintext, nil)

	out := make([]byte, 0, len(ephemeralPK)+len(ciphertext))
	out = append(out, ephemeralPK[:]...)
	out = append(out, ciphertext...)
	return out, nil
}

// Open reverses Seal using the recipient's key pair.
func Open(recipientPK EncryptionPublicKey, recipientSK EncryptionSecretKey, sealed []byte) ([]byte, error) {
	if len(sealed) < SealOverhead {
		return nil, fmt.Errorf("petcrypto: open: sealed message too short")
	}

	var ephemeralPK EncryptionPublicKey
	copy(ephemeralPK[:], sealed[:32])
	ciphertext := sealed[32:]

	shared, err := curve25519.X25519(recipientSK[:], ephemeralPK[:])
	if err != nil {
		return nil, fmt.Errorf("petcrypto: open: %w", err)
	}

	key, err := deriveSymmetricKey(shared, ephemeralPK[:], recipientPK[:])
	if err != nil {
		return nil, err
	}

	aead, err := chacha20poly1305.New(key)
	if err != nil {
		return nil, fmt.Errorf("petcrypto: open: %w", err)
	}

	var nonce [chacha20poly1305.NonceSize]byte
	plaintext, err := aead.Open(nil, nonce[:], ciphertext, nil)
	if err != nil {
		return nil, fmt.Errorf("petcrypto: open: %w", err)
	}
	return plaintext, nil
}
