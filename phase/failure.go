package phase

import (
	"context"

	"github.com/luxfi/pet"
	"github.com/luxfi/pet/events"
)

// runFailure is reached from any phase that returns an error other
// than context cancellation or request-channel closure, a phase
// timeout included. It invalidates the dictionary topics so fetchers
// stop trusting stale round data, waits out any storage outage, and
// hands control back to Idle to start a fresh round.
func (c *Controller) runFailure(ctx context.Context) (pet.PhaseKind, error) {
	roundID := uint64(c.roundID())
	c.bus.SumDict.Publish(roundID, events.Invalidate[map[pet.SigningPublicKey]pet.EncryptionPublicKey]())
	c.bus.SeedDict.Publish(roundID, events.Invalidate[map[pet.SigningPublicKey]map[pet.SigningPublicKey]pet.EncryptedMaskSeed]())

	if err := c.waitReady(ctx); err != nil {
		return pet.PhaseFailure, err
	}

	c.storage.DeleteCoordinatorData()
	return pet.PhaseIdle, nil
}
