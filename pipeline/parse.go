package pipeline

import (
	"context"
	"fmt"

	"github.com/luxfi/pet"
	"github.com/luxfi/pet/petcrypto"
	"github.com/luxfi/pet/wire"
)

// Parse verifies the detached signature over the signed region,
// checks the recipient key against the coordinator's current round
// key, and decodes the tag-specific payload. It
// runs on the same shared worker pool as Decrypt.
func Parse(ctx context.Context, pool *WorkerPool, expectedCoordinatorPK pet.EncryptionPublicKey, plaintext []byte) (Message, error) {
	var (
		msg Message
		err error
	)

	done := make(chan struct{})
	submitErr := pool.Submit(ctx, func() {
		defer close(done)
		msg, err = parseSync(expectedCoordinatorPK, plaintext)
	})
	if submitErr != nil {
		return Message{}, submitErr
	}

	select {
	case <-done:
	case <-ctx.Done():
		return Message{}, ctx.Err()
	}

	return msg, err
}

func parseSync(expectedCoordinatorPK pet.EncryptionPublicKey, plaintext []byte) (Message, error) {
	env, err := wire.Decode(plaintext)
	if err != nil {
		return Message{}, fmt.Errorf("%w: %v", pet.ErrParse, err)
	}

	signed, err := wire.SignedRegion(plaintext)
	if err != nil {
		return Message{}, fmt.Errorf("%w: %v", pet.ErrParse, err)
	}
	if !petcrypto.Verify(petcrypto.SigningPublicKey(env.Header.ParticipantPK[:]), signed, env.Header.Signature[:]) {
		return Message{}, pet.ErrInvalidMessageSignature
	}
	if env.Header.CoordinatorPK != expectedCoordinatorPK {
		return Message{}, pet.ErrInvalidCoordinatorKey
	}

	msg := Message{
		Tag:           env.Header.Tag,
		ParticipantPK: env.Header.ParticipantPK,
		Multipart:     env.Header.Multipart,
	}

	switch env.Header.Tag {
	case wire.TagSum:
		payload, err := wire.DecodeSumPayload(env.Payload)
		if err != nil {
			return Message{}, fmt.Errorf("%w: %v", pet.ErrParse, err)
		}
		msg.Payload = payload
	case wire.TagUpdate:
		payload, err := wire.DecodeUpdatePayload(env.Payload)
		if err != nil {
			return Message{}, fmt.Errorf("%w: %v", pet.ErrParse, err)
		}
		msg.Payload = payload
	case wire.TagSum2:
		payload, err := wire.DecodeSum2Payload(env.Payload)
		if err != nil {
			return Message{}, fmt.Errorf("%w: %v", pet.ErrParse, err)
		}
		msg.Payload = payload
	case wire.TagChunk:
		payload, err := wire.DecodeChunkPayload(env.Payload)
		if err != nil {
			return Message{}, fmt.Errorf("%w: %v", pet.ErrParse, err)
		}
		msg.Payload = payload
	default:
		return Message{}, fmt.Errorf("%w: unknown tag %v", pet.ErrParse, env.Header.Tag)
	}

	return msg, nil
}
