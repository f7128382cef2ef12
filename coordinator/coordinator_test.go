package coordinator

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/luxfi/pet"
	"github.com/luxfi/pet/petcrypto"
	"github.com/luxfi/pet/store"
	"github.com/luxfi/pet/store/storemock"
	"github.com/luxfi/pet/wire"
)

func newTestCoordinator(t *testing.T) (*Coordinator, pet.CoordinatorState) {
	t.Helper()

	state := pet.CoordinatorState{
		Params:     pet.RoundParameters{Sum: 1, Update: 1, ModelScalar: 1},
		Thresholds: pet.Thresholds{MinSum: 1, MinUpdate: 1},
		Durations: pet.PhaseDurations{
			MaxSumTime:    2 * time.Second,
			MaxUpdateTime: 2 * time.Second,
			MaxSum2Time:   2 * time.Second,
		},
		ModelSize: 2,
	}

	c, err := New(context.Background(), Config{
		InitialState: state,
		Storage:      store.NewMemory(),
		Models:       store.NewMemoryModelStorage(),
	})
	require.NoError(t, err)
	return c, state
}

// sealedSum builds a fully sealed, signed Tag=sum envelope addressed
// to the coordinator's current round key, the way a real participant
// client would.
func sealedSum(t *testing.T, c *Coordinator) (pet.SigningPublicKey, []byte) {
	t.Helper()

	state := c.controller.State()

	participantPK, participantSK, err := petcrypto.GenerateSigningKeyPair()
	require.NoError(t, err)
	var pk pet.SigningPublicKey
	copy(pk[:], participantPK)

	ephemeralPK, _, err := petcrypto.GenerateEncryptionKeyPair()
	require.NoError(t, err)

	msg := append(append([]byte{}, state.Params.Seed[:]...), []byte("sum")...)
	sig := petcrypto.Sign(participantSK, msg)

	payload := wire.EncodeSumPayload(wire.SumPayload{
		SumSignature: [64]byte(sig),
		EphemeralPK:  ephemeralPK,
	})

	header := wire.Header{
		Tag:           wire.TagSum,
		CoordinatorPK: state.Params.CoordinatorPK,
		ParticipantPK: pk,
		PayloadLen:    uint32(len(payload)),
	}
	env := wire.Envelope{Header: header, Payload: payload}
	plaintext := wire.Encode(env)

	signed, err := wire.SignedRegion(plaintext)
	require.NoError(t, err)
	headerSig := petcrypto.Sign(participantSK, signed)
	copy(plaintext[0:64], headerSig)

	sealed, err := petcrypto.Seal(state.Params.CoordinatorPK, plaintext)
	require.NoError(t, err)

	return pk, sealed
}

func TestHandleMessageRoutesSumPayload(t *testing.T) {
	c, _ := newTestCoordinator(t)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	done := make(chan error, 1)
	go func() { done <- c.Serve(ctx) }()

	require.Eventually(t, func() bool { return c.controller.Phase() == pet.PhaseSum }, time.Second, time.Millisecond)

	pk, sealed := sealedSum(t, c)
	require.NoError(t, c.HandleMessage(ctx, sealed))
	require.Contains(t, storageSumDict(t, c), pk)

	cancel()
	<-done
}

func TestHealthReportsStorageAndPhase(t *testing.T) {
	c, _ := newTestCoordinator(t)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	done := make(chan error, 1)
	go func() { done <- c.Serve(ctx) }()

	require.Eventually(t, func() bool { return c.controller.Phase() == pet.PhaseSum }, time.Second, time.Millisecond)

	report := c.Health(ctx)
	require.True(t, report.Healthy)
	require.Len(t, report.Checks, 2)

	cancel()
	<-done
}

func TestNewPropagatesStorageReadError(t *testing.T) {
	storage := storemock.NewCoordinatorStorage(nil)
	storage.CoordinatorStateF = func(context.Context) (pet.CoordinatorState, bool, error) {
		return pet.CoordinatorState{}, false, errors.New("storage unavailable")
	}

	_, err := New(context.Background(), Config{
		InitialState: pet.CoordinatorState{ModelSize: 1},
		Storage:      storage,
		Models:       store.NewMemoryModelStorage(),
	})
	require.ErrorContains(t, err, "storage unavailable")
}

func TestNewResumesFromPersistedState(t *testing.T) {
	persisted := pet.CoordinatorState{
		Params:     pet.RoundParameters{Sum: 1, Update: 1, ModelScalar: 1},
		Thresholds: pet.Thresholds{MinSum: 1, MinUpdate: 1},
		ModelSize:  2,
	}
	storage := storemock.NewCoordinatorStorage(nil)
	storage.CoordinatorStateF = func(context.Context) (pet.CoordinatorState, bool, error) {
		return persisted, true, nil
	}
	storage.IsReadyF = func(context.Context) error { return nil }

	c, err := New(context.Background(), Config{
		InitialState: pet.CoordinatorState{ModelSize: 99},
		Storage:      storage,
		Models:       store.NewMemoryModelStorage(),
	})
	require.NoError(t, err)
	require.Equal(t, 2, c.controller.State().ModelSize)
}

// storageSumDict reaches into the coordinator's storage to check that
// a dispatched Sum message actually landed, without exposing the
// storage directly from Coordinator.
func storageSumDict(t *testing.T, c *Coordinator) map[pet.SigningPublicKey]pet.EncryptionPublicKey {
	t.Helper()
	return c.storage.SumDict()
}
