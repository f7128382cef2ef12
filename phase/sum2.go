package phase

import (
	"context"

	"github.com/luxfi/pet"
)

// runSum2 collects mask votes from sum participants until every sum
// participant has voted and min_sum2_time has elapsed, then advances
// to Unmask. The target count is the
// number of sum participants fixed when Sum froze into SeedDict, not a
// configured threshold: every sum participant owes exactly one vote.
func (c *Controller) runSum2(ctx context.Context) (pet.PhaseKind, error) {
	state := c.State()
	target := len(c.storage.SeedDict())

	err := c.runCounted(
		ctx,
		state.Durations.MinSum2Time,
		state.Durations.MaxSum2Time,
		target,
		func() int { return c.sum2Accepted },
		c.handleSum2,
	)
	if err != nil {
		return pet.PhaseFailure, err
	}

	c.logInfo("sum2 phase complete", "votes", c.sum2Accepted)
	return pet.PhaseUnmask, nil
}
