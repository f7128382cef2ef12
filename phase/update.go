package phase

import (
	"context"

	"github.com/luxfi/pet"
)

// runUpdate collects masked model updates until min_update_count is
// reached and min_update_time has elapsed, then advances to Sum2.
// runSum has already frozen SumDict and initialized SeedDict from it;
// this phase only appends to SeedDict via handleUpdate.
func (c *Controller) runUpdate(ctx context.Context) (pet.PhaseKind, error) {
	state := c.State()

	err := c.runCounted(
		ctx,
		state.Durations.MinUpdateTime,
		state.Durations.MaxUpdateTime,
		state.Thresholds.MinUpdate,
		func() int { return c.updateAccepted },
		c.handleUpdate,
	)
	if err != nil {
		return pet.PhaseFailure, err
	}

	c.logInfo("update phase complete", "updates", c.updateAccepted)
	return pet.PhaseSum2, nil
}
