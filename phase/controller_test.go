package phase

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/luxfi/pet"
	"github.com/luxfi/pet/events"
	"github.com/luxfi/pet/requests"
	"github.com/luxfi/pet/store"
	"github.com/luxfi/pet/wire"
)

func testPK(b byte) pet.SigningPublicKey {
	var pk pet.SigningPublicKey
	pk[0] = b
	return pk
}

func testEPK(b byte) pet.EncryptionPublicKey {
	var pk pet.EncryptionPublicKey
	pk[0] = b
	return pk
}

func newTestController(t *testing.T) (*Controller, *store.Memory, *store.MemoryModelStorage) {
	t.Helper()

	storage := store.NewMemory()
	models := store.NewMemoryModelStorage()
	bus := events.NewBus()
	queue := requests.NewQueue()

	state := pet.CoordinatorState{
		Params:     pet.RoundParameters{Sum: 0.5, Update: 0.5, ModelScalar: 1},
		Thresholds: pet.Thresholds{MinSum: 2, MinUpdate: 2},
		Durations: pet.PhaseDurations{
			MaxSumTime:    2 * time.Second,
			MaxUpdateTime: 2 * time.Second,
			MaxSum2Time:   2 * time.Second,
		},
		ModelSize: 3,
	}

	c, err := New(Config{
		InitialState: state,
		Storage:      storage,
		Models:       models,
		Bus:          bus,
		Queue:        queue,
	})
	require.NoError(t, err)
	return c, storage, models
}

func send(t *testing.T, ctx context.Context, queue *requests.Queue, pk pet.SigningPublicKey, payload any) error {
	t.Helper()
	slot := requests.NewResponseSlot()
	require.NoError(t, queue.Send(ctx, requests.Request{ParticipantPK: pk, Payload: payload, Response: slot}))
	resp := <-slot
	return resp.Err
}

// TestRoundHappyPath drives a full Sum -> Update -> Sum2 -> Unmask
// round to completion and checks the published global model.
func TestRoundHappyPath(t *testing.T) {
	c, storage, models := newTestController(t)
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	done := make(chan error, 1)
	go func() { done <- c.Run(ctx) }()

	pk1, pk2 := testPK(1), testPK(2)
	require.NoError(t, send(t, ctx, c.queue, pk1, wire.SumPayload{EphemeralPK: testEPK(1)}))
	require.NoError(t, send(t, ctx, c.queue, pk2, wire.SumPayload{EphemeralPK: testEPK(2)}))

	localSeedDict := []wire.LocalSeedDictEntry{
		{SumPK: pk1, EncryptedSeed: pet.EncryptedMaskSeed{}},
		{SumPK: pk2, EncryptedSeed: pet.EncryptedMaskSeed{}},
	}
	update1 := wire.UpdatePayload{MaskedModel: pet.MaskObject{Vector: []uint64{1, 2, 3}}, LocalSeedDict: localSeedDict}
	update2 := wire.UpdatePayload{MaskedModel: pet.MaskObject{Vector: []uint64{4, 5, 6}}, LocalSeedDict: localSeedDict}
	require.NoError(t, send(t, ctx, c.queue, testPK(10), update1))
	require.NoError(t, send(t, ctx, c.queue, testPK(11), update2))

	winningMask := pet.MaskObject{Vector: []uint64{1, 1, 1}, Scalar: 1}
	require.NoError(t, send(t, ctx, c.queue, pk1, wire.Sum2Payload{Mask: winningMask}))
	require.NoError(t, send(t, ctx, c.queue, pk2, wire.Sum2Payload{Mask: winningMask}))

	evt := <-c.bus.Model.Next()
	require.Equal(t, uint64(1), evt.RoundID)
	require.Len(t, evt.Value, 3)

	id, ok, err := models.LatestGlobalModelID(ctx)
	require.NoError(t, err)
	require.True(t, ok)
	got, err := models.GlobalModel(ctx, id)
	require.NoError(t, err)
	require.Equal(t, evt.Value, got)

	require.Empty(t, storage.SumDict(), "sum2 votes consume their sum dict entry")

	c.queue.Close()
	require.NoError(t, <-done)
}

// TestUnmaskAmbiguousMasksFailsRound checks that a tie between two
// masks sends the round to Failure instead of picking a winner.
func TestUnmaskAmbiguousMasksFailsRound(t *testing.T) {
	c, _, _ := newTestController(t)
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	done := make(chan error, 1)
	go func() { done <- c.Run(ctx) }()

	pk1, pk2 := testPK(1), testPK(2)
	require.NoError(t, send(t, ctx, c.queue, pk1, wire.SumPayload{EphemeralPK: testEPK(1)}))
	require.NoError(t, send(t, ctx, c.queue, pk2, wire.SumPayload{EphemeralPK: testEPK(2)}))

	localSeedDict := []wire.LocalSeedDictEntry{
		{SumPK: pk1, EncryptedSeed: pet.EncryptedMaskSeed{}},
		{SumPK: pk2, EncryptedSeed: pet.EncryptedMaskSeed{}},
	}
	update := wire.UpdatePayload{MaskedModel: pet.MaskObject{Vector: []uint64{1, 2, 3}}, LocalSeedDict: localSeedDict}
	require.NoError(t, send(t, ctx, c.queue, testPK(10), update))
	require.NoError(t, send(t, ctx, c.queue, testPK(11), update))

	maskA := pet.MaskObject{Vector: []uint64{1, 1, 1}, Scalar: 1}
	maskB := pet.MaskObject{Vector: []uint64{2, 2, 2}, Scalar: 2}
	require.NoError(t, send(t, ctx, c.queue, pk1, wire.Sum2Payload{Mask: maskA}))
	require.NoError(t, send(t, ctx, c.queue, pk2, wire.Sum2Payload{Mask: maskB}))

	// The failed round retries Idle and opens a fresh Sum phase; the
	// second sum registration for pk1 proves the controller is alive
	// and has moved on to round 2.
	require.NoError(t, send(t, ctx, c.queue, pk1, wire.SumPayload{EphemeralPK: testEPK(1)}))
	require.Equal(t, pet.RoundID(2), c.roundID())

	c.queue.Close()
	require.NoError(t, <-done)
}

// TestSumPhaseTimeoutFailsRound checks that Sum gives up once
// MaxSumTime elapses with the threshold unmet, and that the controller
// goes through Failure and starts round 2.
func TestSumPhaseTimeoutFailsRound(t *testing.T) {
	c, _, _ := newTestController(t)
	c.mu.Lock()
	c.state.Durations.MaxSumTime = 20 * time.Millisecond
	c.mu.Unlock()

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	done := make(chan error, 1)
	go func() { done <- c.Run(ctx) }()

	// Only one of the two required sum participants ever shows up, so
	// the phase must time out instead of completing.
	require.NoError(t, send(t, ctx, c.queue, testPK(1), wire.SumPayload{EphemeralPK: testEPK(1)}))

	require.Eventually(t, func() bool {
		return c.roundID() == pet.RoundID(2)
	}, 2*time.Second, 10*time.Millisecond, "round should restart after the sum timeout")

	c.queue.Close()
	require.NoError(t, <-done)
}

// TestRequestChannelClosedShutsDown checks that closing the queue
// mid-phase drives the controller to a clean Shutdown.
func TestRequestChannelClosedShutsDown(t *testing.T) {
	c, _, _ := newTestController(t)
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	done := make(chan error, 1)
	go func() { done <- c.Run(ctx) }()

	require.Eventually(t, func() bool { return c.Phase() == pet.PhaseSum }, time.Second, time.Millisecond)
	c.queue.Close()

	require.NoError(t, <-done)
	require.Equal(t, pet.PhaseShutdown, c.Phase())
}
