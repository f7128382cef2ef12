package phase

import (
	"context"
	"fmt"

	"github.com/luxfi/pet"
	"github.com/luxfi/pet/events"
)

// runSum collects sum participants until min_sum_count is reached and
// min_sum_time has elapsed, then freezes SumDict into an empty SeedDict
// and advances to Update.
func (c *Controller) runSum(ctx context.Context) (pet.PhaseKind, error) {
	state := c.State()

	err := c.runCounted(
		ctx,
		state.Durations.MinSumTime,
		state.Durations.MaxSumTime,
		state.Thresholds.MinSum,
		func() int { return len(c.storage.SumDict()) },
		c.handleSum,
	)
	if err != nil {
		return pet.PhaseFailure, err
	}

	if err := c.storage.FreezeSumDict(); err != nil {
		return pet.PhaseFailure, fmt.Errorf("phase: freeze sum dict: %w", err)
	}
	seedDict := c.storage.SeedDict()
	c.bus.SeedDict.Publish(uint64(c.roundID()), events.NewDict(seedDict))

	c.logInfo("sum phase complete", "participants", len(seedDict))
	return pet.PhaseUpdate, nil
}
