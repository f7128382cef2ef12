package pet

import (
	"errors"
	"time"
)

// Errors returned while constructing or validating round parameters
// and coordinator state.
var (
	ErrInvalidSumProbability    = errors.New("pet: sum selection probability must be in (0,1)")
	ErrInvalidUpdateProbability = errors.New("pet: update selection probability must be in (0,1)")
	ErrInvalidMinCount          = errors.New("pet: minimum participant count must be positive")
	ErrInvalidPhaseDuration     = errors.New("pet: phase min duration must be <= max duration")
	ErrInvalidModelSize         = errors.New("pet: model size must be positive")
)

// RoundParameters is published to participants at the start of every
// round (Idle -> Sum transition) and is immutable for the round's
// lifetime once published.
type RoundParameters struct {
	// CoordinatorPK is the coordinator's encryption public key for
	// this round; participants address Sum/Update/Sum2 messages to it.
	CoordinatorPK EncryptionPublicKey

	// Sum and Update are the selection probabilities used by the
	// eligibility test.
	Sum    float64
	Update float64

	// Seed is the round seed participants sign over to prove task
	// eligibility.
	Seed RoundSeed

	// ModelScalar is published so update participants can scale their
	// local model before masking, 1/(expected_participants * Update).
	ModelScalar float64
}

// PhaseDurations bounds how long a phase may run. MinSumTime is the
// time that must elapse before Sum may complete even if min_sum_count
// is already met; MaxSumTime forces the phase to evaluate its
// completion predicate and fail if unmet.
type PhaseDurations struct {
	MinSumTime    time.Duration
	MaxSumTime    time.Duration
	MinUpdateTime time.Duration
	MaxUpdateTime time.Duration
	MinSum2Time   time.Duration
	MaxSum2Time   time.Duration
}

// Thresholds holds the minimum participant counts each phase requires
// before it is allowed to complete.
type Thresholds struct {
	MinSum    int
	MinUpdate int
}

// Valid validates the thresholds.
func (t Thresholds) Valid() error {
	if t.MinSum <= 0 || t.MinUpdate <= 0 {
		return ErrInvalidMinCount
	}
	return nil
}

// Valid validates the phase durations.
func (d PhaseDurations) Valid() error {
	switch {
	case d.MinSumTime > d.MaxSumTime:
		return ErrInvalidPhaseDuration
	case d.MinUpdateTime > d.MaxUpdateTime:
		return ErrInvalidPhaseDuration
	case d.MinSum2Time > d.MaxSum2Time:
		return ErrInvalidPhaseDuration
	default:
		return nil
	}
}

// Valid validates round parameters. Thresholds of exactly 0 or 1 are
// legal (they short-circuit the eligibility test) but the
// probabilities themselves must still be finite values in [0,1].
func (p RoundParameters) Valid() error {
	if p.Sum < 0 || p.Sum > 1 {
		return ErrInvalidSumProbability
	}
	if p.Update < 0 || p.Update > 1 {
		return ErrInvalidUpdateProbability
	}
	return nil
}
