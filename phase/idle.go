package phase

import (
	"context"
	"fmt"
	"time"

	"github.com/luxfi/pet"
	"github.com/luxfi/pet/aggregation"
	"github.com/luxfi/pet/events"
	"github.com/luxfi/pet/petcrypto"
)

// runIdle starts a new round: bump RoundID, derive the round seed from
// the previous one, regenerate the coordinator's per-round encryption
// key pair, publish RoundParameters, and reset round storage. It then
// transitions straight to Sum. The only waiting Idle does is for
// storage readiness; it has no deadline and consumes no requests.
func (c *Controller) runIdle(ctx context.Context) (pet.PhaseKind, error) {
	if err := c.waitReady(ctx); err != nil {
		return pet.PhaseFailure, err
	}

	c.mu.Lock()
	prevSeed := c.state.Params.Seed
	c.state.RoundID++
	c.state.Params.Seed = petcrypto.DeriveRoundSeed(c.state.MasterSecretKey, prevSeed, c.state.Params.Sum, c.state.Params.Update)
	roundID := c.state.RoundID
	thresholds := c.state.Thresholds
	params := c.state.Params
	mc := c.state.MaskConfig
	modelSize := c.state.ModelSize
	c.mu.Unlock()

	pk, sk, err := petcrypto.GenerateEncryptionKeyPair()
	if err != nil {
		return pet.PhaseFailure, fmt.Errorf("phase: generate coordinator key pair: %w", err)
	}

	c.mu.Lock()
	c.encSK = sk
	c.state.Params.CoordinatorPK = pk
	params = c.state.Params
	c.updateAccepted = 0
	c.sum2Accepted = 0
	c.agg = aggregation.New(mc, modelSize)
	c.mu.Unlock()

	c.storage.DeleteCoordinatorData()

	if err := c.storage.SetCoordinatorState(ctx, c.State()); err != nil {
		return pet.PhaseFailure, fmt.Errorf("phase: persist coordinator state: %w", err)
	}

	c.metrics.RoundsTotal.Inc()
	c.bus.Keys.Publish(uint64(roundID), events.KeysEvent{CoordinatorPK: pk})
	c.bus.Params.Publish(uint64(roundID), params)
	c.bus.SumDict.Publish(uint64(roundID), events.NewDict(map[pet.SigningPublicKey]pet.EncryptionPublicKey{}))
	c.bus.SeedDict.Publish(uint64(roundID), events.NewDict(map[pet.SigningPublicKey]map[pet.SigningPublicKey]pet.EncryptedMaskSeed{}))
	c.bus.MaskLength.Publish(uint64(roundID), modelSize)

	c.logInfo("round started", "round", uint64(roundID), "min_sum", thresholds.MinSum, "min_update", thresholds.MinUpdate)
	return pet.PhaseSum, nil
}

// waitReady blocks, retrying every readyRetryDelay, until storage
// reports itself ready. It is also used by runFailure to recover from
// StorageUnavailable.
func (c *Controller) waitReady(ctx context.Context) error {
	for {
		if err := c.storage.IsReady(ctx); err == nil {
			return nil
		}
		c.logWarn("storage not ready, retrying", "delay", c.readyRetryDelay.String())

		timer := time.NewTimer(c.readyRetryDelay)
		select {
		case <-timer.C:
		case <-ctx.Done():
			timer.Stop()
			return ctx.Err()
		}
	}
}
