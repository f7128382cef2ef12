package store

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/luxfi/pet"
)

func sumPK(b byte) pet.SigningPublicKey {
	var pk pet.SigningPublicKey
	pk[0] = b
	return pk
}

func TestAddSumParticipantRejectsDuplicate(t *testing.T) {
	m := NewMemory()
	pk := sumPK(1)

	require.NoError(t, m.AddSumParticipant(pk, pet.EncryptionPublicKey{}))
	err := m.AddSumParticipant(pk, pet.EncryptionPublicKey{})
	require.ErrorIs(t, err, pet.ErrSumPkAlreadyExists)
	require.Len(t, m.SumDict(), 1)
}

func TestFreezeSumDictInitializesOneSubMappingPerSumPK(t *testing.T) {
	m := NewMemory()
	require.NoError(t, m.AddSumParticipant(sumPK(1), pet.EncryptionPublicKey{}))
	require.NoError(t, m.AddSumParticipant(sumPK(2), pet.EncryptionPublicKey{}))
	require.NoError(t, m.FreezeSumDict())

	seedDict := m.SeedDict()
	require.Len(t, seedDict, 2)
	for _, sub := range seedDict {
		require.Empty(t, sub)
	}
}

func TestAddLocalSeedDictRejectsLengthMismatch(t *testing.T) {
	m := NewMemory()
	require.NoError(t, m.AddSumParticipant(sumPK(1), pet.EncryptionPublicKey{}))
	require.NoError(t, m.AddSumParticipant(sumPK(2), pet.EncryptionPublicKey{}))
	require.NoError(t, m.FreezeSumDict())

	short := map[pet.SigningPublicKey]pet.EncryptedMaskSeed{sumPK(1): {}}
	err := m.AddLocalSeedDict(sumPK(100), short)
	require.ErrorIs(t, err, pet.ErrLocalSeedDictLengthMismatch)
}

func TestAddLocalSeedDictRejectsUnknownSumPK(t *testing.T) {
	m := NewMemory()
	require.NoError(t, m.AddSumParticipant(sumPK(1), pet.EncryptionPublicKey{}))
	require.NoError(t, m.FreezeSumDict())

	wrong := map[pet.SigningPublicKey]pet.EncryptedMaskSeed{sumPK(99): {}}
	err := m.AddLocalSeedDict(sumPK(100), wrong)
	require.ErrorIs(t, err, pet.ErrUnknownSumPk)
}

func TestAddLocalSeedDictIsAllOrNothing(t *testing.T) {
	m := NewMemory()
	require.NoError(t, m.AddSumParticipant(sumPK(1), pet.EncryptionPublicKey{}))
	require.NoError(t, m.AddSumParticipant(sumPK(2), pet.EncryptionPublicKey{}))
	require.NoError(t, m.FreezeSumDict())

	full := map[pet.SigningPublicKey]pet.EncryptedMaskSeed{sumPK(1): {}, sumPK(2): {}}
	require.NoError(t, m.AddLocalSeedDict(sumPK(100), full))

	// Same update pk contributing again must fail and touch nothing.
	err := m.AddLocalSeedDict(sumPK(100), full)
	require.ErrorIs(t, err, pet.ErrUpdatePkAlreadyExists)

	seedDict := m.SeedDict()
	require.Len(t, seedDict[sumPK(1)], 1)
	require.Len(t, seedDict[sumPK(2)], 1)
}

func TestSeedDictSubMappingsShareKeySet(t *testing.T) {
	m := NewMemory()
	require.NoError(t, m.AddSumParticipant(sumPK(1), pet.EncryptionPublicKey{}))
	require.NoError(t, m.AddSumParticipant(sumPK(2), pet.EncryptionPublicKey{}))
	require.NoError(t, m.FreezeSumDict())
	require.NoError(t, m.AddLocalSeedDict(sumPK(100), map[pet.SigningPublicKey]pet.EncryptedMaskSeed{sumPK(1): {}, sumPK(2): {}}))
	require.NoError(t, m.AddLocalSeedDict(sumPK(101), map[pet.SigningPublicKey]pet.EncryptedMaskSeed{sumPK(1): {}, sumPK(2): {}}))

	seedDict := m.SeedDict()
	var keys1, keys2 []pet.SigningPublicKey
	for k := range seedDict[sumPK(1)] {
		keys1 = append(keys1, k)
	}
	for k := range seedDict[sumPK(2)] {
		keys2 = append(keys2, k)
	}
	require.ElementsMatch(t, keys1, keys2)
}

func sampleMaskA() pet.MaskObject {
	return pet.MaskObject{Vector: []uint64{1, 2, 3}, Scalar: 7}
}

func sampleMaskB() pet.MaskObject {
	return pet.MaskObject{Vector: []uint64{9, 9, 9}, Scalar: 1}
}

func TestIncrMaskScoreRemovesSumPKAndCounts(t *testing.T) {
	m := NewMemory()
	require.NoError(t, m.AddSumParticipant(sumPK(1), pet.EncryptionPublicKey{}))

	require.NoError(t, m.IncrMaskScore(sumPK(1), sampleMaskA()))
	require.Empty(t, m.SumDict())

	best := m.BestMasks()
	require.Len(t, best, 1)
	require.Equal(t, 1, best[0].Count)
	require.True(t, best[0].Mask.Equal(sampleMaskA()))
}

func TestIncrMaskScoreRejectsUnknownSumPK(t *testing.T) {
	m := NewMemory()
	err := m.IncrMaskScore(sumPK(1), sampleMaskA())
	require.ErrorIs(t, err, pet.ErrMaskNotAssociatedWithSumPk)
}

func TestBestMasksReturnsAllTies(t *testing.T) {
	m := NewMemory()
	require.NoError(t, m.AddSumParticipant(sumPK(1), pet.EncryptionPublicKey{}))
	require.NoError(t, m.AddSumParticipant(sumPK(2), pet.EncryptionPublicKey{}))

	require.NoError(t, m.IncrMaskScore(sumPK(1), sampleMaskA()))
	require.NoError(t, m.IncrMaskScore(sumPK(2), sampleMaskB()))

	best := m.BestMasks()
	require.Len(t, best, 2)
}

func TestBestMasksEmptyWhenNoMaskSubmitted(t *testing.T) {
	m := NewMemory()
	require.Empty(t, m.BestMasks())
}

func TestDeleteCoordinatorDataWipesEverything(t *testing.T) {
	m := NewMemory()
	require.NoError(t, m.AddSumParticipant(sumPK(1), pet.EncryptionPublicKey{}))
	require.NoError(t, m.FreezeSumDict())
	require.NoError(t, m.IncrMaskScore(sumPK(1), sampleMaskA()))

	m.DeleteCoordinatorData()

	require.Empty(t, m.SumDict())
	require.Empty(t, m.SeedDict())
	require.Empty(t, m.BestMasks())
}

func TestCoordinatorStateRoundTrip(t *testing.T) {
	m := NewMemory()
	ctx := context.Background()

	_, ok, err := m.CoordinatorState(ctx)
	require.NoError(t, err)
	require.False(t, ok)

	state := pet.CoordinatorState{RoundID: 5, ModelSize: 4}
	require.NoError(t, m.SetCoordinatorState(ctx, state))

	got, ok, err := m.CoordinatorState(ctx)
	require.NoError(t, err)
	require.True(t, ok)
	require.Equal(t, pet.RoundID(5), got.RoundID)
}

func TestIsReadyReflectsSetReady(t *testing.T) {
	m := NewMemory()
	ctx := context.Background()
	require.NoError(t, m.IsReady(ctx))

	m.SetReady(false)
	require.Error(t, m.IsReady(ctx))

	m.SetReady(true)
	require.NoError(t, m.IsReady(ctx))
}
