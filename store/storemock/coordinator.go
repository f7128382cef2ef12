// Package storemock provides hand-written test doubles for
// store.CoordinatorStorage and store.ModelStorage, in the same
// func-field style: an override-or-fatal mock, in which
// every method either calls an optional override function or falls
// back to a zero-value default, with an optional *testing.T to fail
// the test if a method fires that the caller never expected.
package storemock

import (
	"context"
	"testing"

	"github.com/luxfi/ids"
	"go.uber.org/mock/gomock"

	"github.com/luxfi/pet"
	"github.com/luxfi/pet/store"
)

// NewCoordinatorStorage creates a CoordinatorStorage mock. ctrl is
// accepted for gomock-style construction call sites but unused: every
// expectation is set through this type's *F fields instead of
// gomock's EXPECT().
func NewCoordinatorStorage(ctrl *gomock.Controller) *CoordinatorStorage {
	return &CoordinatorStorage{}
}

// CoordinatorStorage is a store.CoordinatorStorage double.
type CoordinatorStorage struct {
	T *testing.T

	AddSumParticipantF   func(pet.SigningPublicKey, pet.EncryptionPublicKey) error
	SumDictF             func() map[pet.SigningPublicKey]pet.EncryptionPublicKey
	FreezeSumDictF       func() error
	AddLocalSeedDictF    func(pet.SigningPublicKey, map[pet.SigningPublicKey]pet.EncryptedMaskSeed) error
	SeedDictF            func() map[pet.SigningPublicKey]map[pet.SigningPublicKey]pet.EncryptedMaskSeed
	IncrMaskScoreF       func(pet.SigningPublicKey, pet.MaskObject) error
	BestMasksF           func() []store.MaskCount
	DeleteCoordinatorDataF func()
	SetCoordinatorStateF func(context.Context, pet.CoordinatorState) error
	CoordinatorStateF    func(context.Context) (pet.CoordinatorState, bool, error)
	IsReadyF             func(context.Context) error
}

func (m *CoordinatorStorage) fatal(name string) {
	if m.T != nil {
		m.T.Fatalf("unexpected call to CoordinatorStorage.%s", name)
	}
}

func (m *CoordinatorStorage) AddSumParticipant(pk pet.SigningPublicKey, ephmPK pet.EncryptionPublicKey) error {
	if m.AddSumParticipantF != nil {
		return m.AddSumParticipantF(pk, ephmPK)
	}
	m.fatal("AddSumParticipant")
	return nil
}

func (m *CoordinatorStorage) SumDict() map[pet.SigningPublicKey]pet.EncryptionPublicKey {
	if m.SumDictF != nil {
		return m.SumDictF()
	}
	m.fatal("SumDict")
	return nil
}

func (m *CoordinatorStorage) FreezeSumDict() error {
	if m.FreezeSumDictF != nil {
		return m.FreezeSumDictF()
	}
	m.fatal("FreezeSumDict")
	return nil
}

func (m *CoordinatorStorage) AddLocalSeedDict(updatePK pet.SigningPublicKey, localSeedDict map[pet.SigningPublicKey]pet.EncryptedMaskSeed) error {
	if m.AddLocalSeedDictF != nil {
		return m.AddLocalSeedDictF(updatePK, localSeedDict)
	}
	m.fatal("AddLocalSeedDict")
	return nil
}

func (m *CoordinatorStorage) SeedDict() map[pet.SigningPublicKey]map[pet.SigningPublicKey]pet.EncryptedMaskSeed {
	if m.SeedDictF != nil {
		return m.SeedDictF()
	}
	m.fatal("SeedDict")
	return nil
}

func (m *CoordinatorStorage) IncrMaskScore(sumPK pet.SigningPublicKey, mask pet.MaskObject) error {
	if m.IncrMaskScoreF != nil {
		return m.IncrMaskScoreF(sumPK, mask)
	}
	m.fatal("IncrMaskScore")
	return nil
}

func (m *CoordinatorStorage) BestMasks() []store.MaskCount {
	if m.BestMasksF != nil {
		return m.BestMasksF()
	}
	m.fatal("BestMasks")
	return nil
}

func (m *CoordinatorStorage) DeleteCoordinatorData() {
	if m.DeleteCoordinatorDataF != nil {
		m.DeleteCoordinatorDataF()
		return
	}
	m.fatal("DeleteCoordinatorData")
}

func (m *CoordinatorStorage) SetCoordinatorState(ctx context.Context, state pet.CoordinatorState) error {
	if m.SetCoordinatorStateF != nil {
		return m.SetCoordinatorStateF(ctx, state)
	}
	m.fatal("SetCoordinatorState")
	return nil
}

func (m *CoordinatorStorage) CoordinatorState(ctx context.Context) (pet.CoordinatorState, bool, error) {
	if m.CoordinatorStateF != nil {
		return m.CoordinatorStateF(ctx)
	}
	m.fatal("CoordinatorState")
	return pet.CoordinatorState{}, false, nil
}

func (m *CoordinatorStorage) IsReady(ctx context.Context) error {
	if m.IsReadyF != nil {
		return m.IsReadyF(ctx)
	}
	return nil
}

var _ store.CoordinatorStorage = (*CoordinatorStorage)(nil)

// ModelStorage is a store.ModelStorage double.
type ModelStorage struct {
	T *testing.T

	SetGlobalModelF     func(context.Context, pet.RoundID, pet.RoundSeed, []float64) (ids.ID, error)
	GlobalModelF        func(context.Context, ids.ID) ([]float64, error)
	LatestGlobalModelIDF func(context.Context) (ids.ID, bool, error)
}

// NewModelStorage creates a ModelStorage mock. ctrl is accepted for
// gomock-style construction call sites but unused.
func NewModelStorage(ctrl *gomock.Controller) *ModelStorage {
	return &ModelStorage{}
}

func (m *ModelStorage) SetGlobalModel(ctx context.Context, roundID pet.RoundID, seed pet.RoundSeed, model []float64) (ids.ID, error) {
	if m.SetGlobalModelF != nil {
		return m.SetGlobalModelF(ctx, roundID, seed, model)
	}
	if m.T != nil {
		m.T.Fatal("unexpected call to ModelStorage.SetGlobalModel")
	}
	return ids.ID{}, nil
}

func (m *ModelStorage) GlobalModel(ctx context.Context, id ids.ID) ([]float64, error) {
	if m.GlobalModelF != nil {
		return m.GlobalModelF(ctx, id)
	}
	if m.T != nil {
		m.T.Fatal("unexpected call to ModelStorage.GlobalModel")
	}
	return nil, nil
}

func (m *ModelStorage) LatestGlobalModelID(ctx context.Context) (ids.ID, bool, error) {
	if m.LatestGlobalModelIDF != nil {
		return m.LatestGlobalModelIDF(ctx)
	}
	if m.T != nil {
		m.T.Fatal("unexpected call to ModelStorage.LatestGlobalModelID")
	}
	return ids.ID{}, false, nil
}

var _ store.ModelStorage = (*ModelStorage)(nil)
