package phase

import (
	"context"
	"fmt"

	"github.com/luxfi/pet"
	"github.com/luxfi/pet/events"
)

// runUnmask resolves the winning mask from Sum2's votes and produces
// the round's plaintext global model. A tie for the highest vote count
// fails the round (AmbiguousMasks) rather than picking one arbitrarily.
func (c *Controller) runUnmask(ctx context.Context) (pet.PhaseKind, error) {
	if err := ctx.Err(); err != nil {
		return pet.PhaseFailure, err
	}

	best := c.storage.BestMasks()
	switch len(best) {
	case 0:
		return pet.PhaseFailure, pet.ErrNoMask
	case 1:
		// unambiguous winner
	default:
		return pet.PhaseFailure, pet.ErrAmbiguousMasks
	}

	state := c.State()
	model, err := c.agg.Unmask(best[0].Mask, state.Params.ModelScalar)
	if err != nil {
		return pet.PhaseFailure, fmt.Errorf("phase: unmask: %w", err)
	}

	id, err := c.models.SetGlobalModel(ctx, state.RoundID, state.Params.Seed, model)
	if err != nil {
		return pet.PhaseFailure, fmt.Errorf("phase: store global model: %w", err)
	}

	c.bus.Model.Publish(uint64(state.RoundID), model)
	c.bus.Result.Publish(uint64(state.RoundID), events.RoundResult{ModelID: id, MaskVotes: best[0].Count})
	c.logInfo("round complete", "round", uint64(state.RoundID), "model_id", id, "mask_votes", best[0].Count)
	return pet.PhaseIdle, nil
}
