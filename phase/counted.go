package phase

import (
	"context"
	"time"

	"github.com/luxfi/pet"
	"github.com/luxfi/pet/requests"
	safemath "github.com/luxfi/pet/utils/math"
)

// runCounted implements the time/count termination rule shared by
// Sum, Update and Sum2: the phase may complete once countFn() reaches
// threshold AND minDuration has elapsed; it is forced to evaluate that
// predicate again when maxDuration elapses, failing with
// ErrPhaseTimeout if the threshold is still unmet.
//
// handle processes one request's payload and returns the error its
// ResponseSlot should be fulfilled with (nil on acceptance).
func (c *Controller) runCounted(
	ctx context.Context,
	minDuration, maxDuration time.Duration,
	threshold int,
	countFn func() int,
	handle func(requests.Request) error,
) error {
	minTimer := time.NewTimer(minDuration)
	maxTimer := time.NewTimer(maxDuration)
	defer minTimer.Stop()
	defer maxTimer.Stop()

	minElapsed := minDuration <= 0
	if minElapsed && countFn() >= threshold {
		return nil
	}

	for {
		select {
		case req, ok := <-c.queue.C():
			if !ok {
				return pet.ErrRequestChannelClosed
			}
			req.Response.Fulfil(handle(req))
			if minElapsed && countFn() >= threshold {
				return nil
			}

		case <-c.queue.Done():
			return pet.ErrRequestChannelClosed

		case <-minTimer.C:
			minElapsed = true
			if countFn() >= threshold {
				return nil
			}

		case <-maxTimer.C:
			if countFn() >= threshold {
				return nil
			}
			c.reportPhaseTimeout(threshold, countFn())
			c.drainPhaseEnded()
			return pet.ErrPhaseTimeout

		case <-ctx.Done():
			return ctx.Err()
		}
	}
}

// reportPhaseTimeout logs how many more participants were needed when
// a phase's max-duration timer fires with its threshold unmet.
// safemath.Sub64 is used instead of bare subtraction because the two
// reads (threshold, countFn()) are not atomic with each other; an
// intervening acceptance could in principle put got ahead of
// threshold between this call and the branch above, and bare
// subtraction would wrap into an enormous uint64 instead of reporting
// a sane "0 more needed".
func (c *Controller) reportPhaseTimeout(threshold, got int) {
	needed, err := safemath.Sub64(uint64(threshold), uint64(got))
	if err != nil {
		needed = 0
	}
	c.logWarn("phase threshold not met at max duration", "threshold", threshold, "got", got, "needed", needed)
}

// drainPhaseEnded rejects, with ErrPhaseEnded, every request waiting
// to be received when a phase times out, rather than leaving them to
// be picked up (and likely misclassified as UnexpectedMessage) by
// whatever phase runs next. It only drains what is immediately
// available: since the queue is unbuffered, that is every request
// whose sender is blocked in Send at that moment; a Send that starts
// afterwards is left for the next phase to see and reject on its own
// terms.
func (c *Controller) drainPhaseEnded() {
	for {
		select {
		case req, ok := <-c.queue.C():
			if !ok {
				return
			}
			req.Response.Fulfil(pet.ErrPhaseEnded)
		default:
			return
		}
	}
}
