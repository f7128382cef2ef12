// Package store implements the coordinator storage and model storage
// abstractions: the mutable per-round dictionaries
// (SumDict, SeedDict, MaskScores), the coordinator state snapshot used
// for crash recovery, and content-addressed global model storage.
//
// Only the active phase may call the mutating methods;
// the fetcher-facing read methods are safe for concurrent readers.
package store

import (
	"context"
	"errors"

	"github.com/luxfi/ids"

	"github.com/luxfi/pet"
)

// MaskCount pairs a mask with the number of Sum2 votes it received.
type MaskCount struct {
	Mask  pet.MaskObject
	Count int
}

// CoordinatorStorage holds the in-flight round's mutable state. All
// mutating operations are atomic with respect to each other; the
// in-memory implementation in this package serializes them under a
// single mutex, so callers never need to hold any lock of their own.
type CoordinatorStorage interface {
	// AddSumParticipant inserts (pk, ephmPK) into SumDict. Returns
	// ErrSumPkAlreadyExists if pk is already present.
	AddSumParticipant(pk pet.SigningPublicKey, ephmPK pet.EncryptionPublicKey) error

	// SumDict returns a snapshot of the current sum dict.
	SumDict() map[pet.SigningPublicKey]pet.EncryptionPublicKey

	// FreezeSumDict initializes SeedDict with one empty sub-mapping per
	// sum pk currently in SumDict (the Sum->Update transition of §4.1).
	FreezeSumDict() error

	// AddLocalSeedDict merges localSeedDict into SeedDict under
	// updatePK, one entry per sum pk. It is atomic across every
	// sub-mapping: either every entry is added or none are. Returns
	// ErrLocalSeedDictLengthMismatch if localSeedDict has a different
	// number of entries than SumDict, ErrUnknownSumPk if a key isn't in
	// SumDict, or ErrUpdatePkAlreadyExists if updatePK already
	// contributed to any sub-mapping.
	AddLocalSeedDict(updatePK pet.SigningPublicKey, localSeedDict map[pet.SigningPublicKey]pet.EncryptedMaskSeed) error

	// SeedDict returns a snapshot of the current seed dict.
	SeedDict() map[pet.SigningPublicKey]map[pet.SigningPublicKey]pet.EncryptedMaskSeed

	// IncrMaskScore atomically removes sumPK from SumDict and
	// increments MaskScores[mask]. Returns ErrMaskNotAssociatedWithSumPk
	// if sumPK is not currently in SumDict.
	IncrMaskScore(sumPK pet.SigningPublicKey, mask pet.MaskObject) error

	// BestMasks returns every mask tied for the highest Sum2 score.
	// An empty slice means no mask was ever submitted.
	BestMasks() []MaskCount

	// DeleteCoordinatorData wipes SumDict, SeedDict and MaskScores,
	// as the Idle phase does at the start of every round.
	DeleteCoordinatorData()

	// SetCoordinatorState persists the round-scoped configuration for
	// crash recovery.
	SetCoordinatorState(ctx context.Context, state pet.CoordinatorState) error

	// CoordinatorState returns the last persisted state. ok is false
	// if no state has ever been set.
	CoordinatorState(ctx context.Context) (state pet.CoordinatorState, ok bool, err error)

	// IsReady returns nil if the backend is live.
	IsReady(ctx context.Context) error
}

// ModelStorage persists finalized global models, content-addressed by
// (round id, round seed). Models are identified by an ids.ID the same
// way every other durable object here is addressed, rather than
// by a bare hex string.
type ModelStorage interface {
	// SetGlobalModel stores model under an id derived from roundID and
	// seed, and marks it as the latest global model.
	SetGlobalModel(ctx context.Context, roundID pet.RoundID, seed pet.RoundSeed, model []float64) (id ids.ID, err error)

	// GlobalModel fetches a previously stored model by id.
	GlobalModel(ctx context.Context, id ids.ID) ([]float64, error)

	// LatestGlobalModelID returns the id of the most recently stored
	// model. ok is false if no model has ever been stored.
	LatestGlobalModelID(ctx context.Context) (id ids.ID, ok bool, err error)
}

// errNotReady is returned by IsReady implementations that have been
// explicitly marked unavailable (see Memory.SetReady) or whose durable
// backend cannot be reached.
var errNotReady = errors.New("store: backend not ready")
