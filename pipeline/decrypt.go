package pipeline

import (
	"context"
	"fmt"

	"github.com/luxfi/pet"
	"github.com/luxfi/pet/petcrypto"
)

// KeySource exposes the coordinator's current round encryption key
// pair. The phase controller is the only writer; the pipeline only
// ever reads the currently published pair, so a stale read during a
// round rollover simply fails decryption, recovered locally by the caller.
type KeySource interface {
	CoordinatorKeyPair() (pet.EncryptionPublicKey, petcrypto.EncryptionSecretKey)
}

// Decrypt opens the anonymous sealed box addressed to the
// coordinator's current round key, returning the plaintext message
// (header + payload). It runs on pool, the worker pool shared with
// Parse.
func Decrypt(ctx context.Context, pool *WorkerPool, keys KeySource, sealed []byte) ([]byte, error) {
	var (
		plaintext []byte
		decErr    error
	)

	done := make(chan struct{})
	err := pool.Submit(ctx, func() {
		defer close(done)
		pk, sk := keys.CoordinatorKeyPair()
		plaintext, decErr = petcrypto.Open(pk, sk, sealed)
	})
	if err != nil {
		return nil, err
	}

	select {
	case <-done:
	case <-ctx.Done():
		return nil, ctx.Err()
	}

	if decErr != nil {
		return nil, fmt.Errorf("%w: %v", pet.ErrDecrypt, decErr)
	}
	return plaintext, nil
}
