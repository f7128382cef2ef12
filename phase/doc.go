// Package phase drives the coordinator's round state machine. A
// Controller owns CoordinatorState and round storage exclusively,
// consuming requests.Request values off a single queue and mutating
// storage only from its own Run goroutine — the same single-writer
// shape a single-writer consensus engine gives its core step.
//
// Idle starts a round: it bumps the round id, derives a fresh round
// seed and coordinator key pair, and publishes RoundParameters. Sum,
// Update and Sum2 each run runCounted, accepting requests until either
// their participant threshold is met after their minimum duration, or
// their maximum duration expires with the threshold unmet (in which
// case the round moves to Failure). Unmask resolves the winning mask
// from Sum2's votes, subtracts it from the aggregation accumulator,
// and publishes the plaintext global model. Failure invalidates the
// dictionary topics, waits out any storage outage, and hands control
// back to Idle.
package phase
