package store

import (
	"context"
	"errors"
	"fmt"

	"github.com/luxfi/database"

	"github.com/luxfi/pet"
	"github.com/luxfi/pet/codec"
)

const coordinatorStateKey = "pet/coordinator-state"

// Persistent is a CoordinatorStorage that keeps the in-round
// dictionaries in memory (they are rebuilt every round and never need
// to survive a restart) but durably persists the coordinator state
// snapshot to a luxfi/database.Database, so a restarted coordinator
// continues round numbering from the snapshot (Idle then starts the
// round after the one it crashed in) rather than silently regressing
// to round zero. This is the storage the crash-recovery
// bootstrap described alongside the coordinator wiring uses.
type Persistent struct {
	*Memory
	db database.Database
}

// NewPersistent wraps db for durable state snapshots.
func NewPersistent(db database.Database) *Persistent {
	return &Persistent{Memory: NewMemory(), db: db}
}

// SetCoordinatorState overrides Memory's in-process snapshot with a
// durable one.
func (p *Persistent) SetCoordinatorState(_ context.Context, state pet.CoordinatorState) error {
	raw, err := codec.Codec.Marshal(codec.CurrentVersion, state)
	if err != nil {
		return fmt.Errorf("store: marshal coordinator state: %w", err)
	}
	if err := p.db.Put([]byte(coordinatorStateKey), raw); err != nil {
		return fmt.Errorf("store: persist coordinator state: %w", err)
	}
	return nil
}

// CoordinatorState reads the durable snapshot back.
func (p *Persistent) CoordinatorState(_ context.Context) (pet.CoordinatorState, bool, error) {
	has, err := p.db.Has([]byte(coordinatorStateKey))
	if err != nil {
		return pet.CoordinatorState{}, false, fmt.Errorf("store: check coordinator state: %w", err)
	}
	if !has {
		return pet.CoordinatorState{}, false, nil
	}

	raw, err := p.db.Get([]byte(coordinatorStateKey))
	if err != nil {
		return pet.CoordinatorState{}, false, fmt.Errorf("store: fetch coordinator state: %w", err)
	}

	var state pet.CoordinatorState
	if _, err := codec.Codec.Unmarshal(raw, &state); err != nil {
		return pet.CoordinatorState{}, false, fmt.Errorf("store: unmarshal coordinator state: %w", err)
	}
	return state, true, nil
}

// IsReady probes the durable backend in addition to Memory's flag,
// since a database outage should surface as StorageUnavailable even
// though the in-memory dictionaries are still usable.
func (p *Persistent) IsReady(ctx context.Context) error {
	if err := p.Memory.IsReady(ctx); err != nil {
		return err
	}
	if _, err := p.db.Has([]byte(coordinatorStateKey)); err != nil {
		return errors.Join(errNotReady, err)
	}
	return nil
}
