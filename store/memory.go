package store

import (
	"context"
	"sync"

	"github.com/luxfi/pet"
	"github.com/luxfi/pet/petcrypto"
	"github.com/luxfi/pet/utils/bag"
	"github.com/luxfi/pet/wire"
)

// Memory is an in-memory CoordinatorStorage. It serializes every
// mutating call under a single mutex: one lock guarding a set of
// maps, no per-key striping. Round storage is small (bounded by
// participant counts per round) so contention is not a concern.
type Memory struct {
	mu sync.RWMutex

	sumDict  map[pet.SigningPublicKey]pet.EncryptionPublicKey
	seedDict map[pet.SigningPublicKey]map[pet.SigningPublicKey]pet.EncryptedMaskSeed

	// maskVotes tallies mask votes by a content-hash digest of the
	// MaskObject (MaskObject carries a slice field and so cannot be a
	// bag element directly); maskValues recovers the object a digest
	// stands for. bag.Bag is the vote-counting primitive, generalized
	// here (Modes) to detect a tie at the top count.
	maskVotes  bag.Bag[[32]byte]
	maskValues map[[32]byte]pet.MaskObject

	state    pet.CoordinatorState
	hasState bool

	ready bool
}

// NewMemory returns an empty, ready Memory store.
func NewMemory() *Memory {
	return &Memory{
		sumDict:    make(map[pet.SigningPublicKey]pet.EncryptionPublicKey),
		seedDict:   make(map[pet.SigningPublicKey]map[pet.SigningPublicKey]pet.EncryptedMaskSeed),
		maskVotes:  bag.New[[32]byte](),
		maskValues: make(map[[32]byte]pet.MaskObject),
		ready:      true,
	}
}

func maskKey(m pet.MaskObject) [32]byte {
	return petcrypto.Hash32(wire.EncodeMaskObject(m))
}

// AddSumParticipant implements CoordinatorStorage.
func (m *Memory) AddSumParticipant(pk pet.SigningPublicKey, ephmPK pet.EncryptionPublicKey) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if _, exists := m.sumDict[pk]; exists {
		return pet.ErrSumPkAlreadyExists
	}
	m.sumDict[pk] = ephmPK
	return nil
}

// SumDict implements CoordinatorStorage.
func (m *Memory) SumDict() map[pet.SigningPublicKey]pet.EncryptionPublicKey {
	m.mu.RLock()
	defer m.mu.RUnlock()

	out := make(map[pet.SigningPublicKey]pet.EncryptionPublicKey, len(m.sumDict))
	for k, v := range m.sumDict {
		out[k] = v
	}
	return out
}

// FreezeSumDict implements CoordinatorStorage.
func (m *Memory) FreezeSumDict() error {
	m.mu.Lock()
	defer m.mu.Unlock()

	for sumPK := range m.sumDict {
		if _, exists := m.seedDict[sumPK]; !exists {
			m.seedDict[sumPK] = make(map[pet.SigningPublicKey]pet.EncryptedMaskSeed)
		}
	}
	return nil
}

// AddLocalSeedDict implements CoordinatorStorage. It keeps every
// sub-mapping ending up with the same key set by requiring
// localSeedDict's key set to equal SumDict's at insertion time, rather
// than reconciling on read.
func (m *Memory) AddLocalSeedDict(updatePK pet.SigningPublicKey, localSeedDict map[pet.SigningPublicKey]pet.EncryptedMaskSeed) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if len(localSeedDict) != len(m.sumDict) {
		return pet.ErrLocalSeedDictLengthMismatch
	}
	for sumPK := range localSeedDict {
		sub, exists := m.seedDict[sumPK]
		if !exists {
			return pet.ErrUnknownSumPk
		}
		if _, already := sub[updatePK]; already {
			return pet.ErrUpdatePkAlreadyExists
		}
	}

	for sumPK, seed := range localSeedDict {
		m.seedDict[sumPK][updatePK] = seed
	}
	return nil
}

// SeedDict implements CoordinatorStorage.
func (m *Memory) SeedDict() map[pet.SigningPublicKey]map[pet.SigningPublicKey]pet.EncryptedMaskSeed {
	m.mu.RLock()
	defer m.mu.RUnlock()

	out := make(map[pet.SigningPublicKey]map[pet.SigningPublicKey]pet.EncryptedMaskSeed, len(m.seedDict))
	for sumPK, sub := range m.seedDict {
		cp := make(map[pet.SigningPublicKey]pet.EncryptedMaskSeed, len(sub))
		for updatePK, seed := range sub {
			cp[updatePK] = seed
		}
		out[sumPK] = cp
	}
	return out
}

// IncrMaskScore implements CoordinatorStorage.
func (m *Memory) IncrMaskScore(sumPK pet.SigningPublicKey, mask pet.MaskObject) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if _, exists := m.sumDict[sumPK]; !exists {
		return pet.ErrMaskNotAssociatedWithSumPk
	}
	delete(m.sumDict, sumPK)

	key := maskKey(mask)
	if _, seen := m.maskValues[key]; !seen {
		m.maskValues[key] = mask
	}
	m.maskVotes.Add(key)
	return nil
}

// BestMasks implements CoordinatorStorage. It reports every mask tied
// for the highest Sum2 vote count, so the Unmask phase can detect
// AmbiguousMasks instead of silently picking one.
func (m *Memory) BestMasks() []MaskCount {
	m.mu.RLock()
	defer m.mu.RUnlock()

	modes, count := m.maskVotes.Modes()
	if count == 0 {
		return nil
	}

	out := make([]MaskCount, len(modes))
	for i, key := range modes {
		out[i] = MaskCount{Mask: m.maskValues[key], Count: count}
	}
	return out
}

// DeleteCoordinatorData implements CoordinatorStorage.
func (m *Memory) DeleteCoordinatorData() {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.sumDict = make(map[pet.SigningPublicKey]pet.EncryptionPublicKey)
	m.seedDict = make(map[pet.SigningPublicKey]map[pet.SigningPublicKey]pet.EncryptedMaskSeed)
	m.maskVotes = bag.New[[32]byte]()
	m.maskValues = make(map[[32]byte]pet.MaskObject)
}

// SetCoordinatorState implements CoordinatorStorage.
func (m *Memory) SetCoordinatorState(_ context.Context, state pet.CoordinatorState) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.state = state.Clone()
	m.hasState = true
	return nil
}

// CoordinatorState implements CoordinatorStorage.
func (m *Memory) CoordinatorState(_ context.Context) (pet.CoordinatorState, bool, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	if !m.hasState {
		return pet.CoordinatorState{}, false, nil
	}
	return m.state.Clone(), true, nil
}

// IsReady implements CoordinatorStorage.
func (m *Memory) IsReady(_ context.Context) error {
	m.mu.RLock()
	defer m.mu.RUnlock()

	if !m.ready {
		return errNotReady
	}
	return nil
}

// SetReady lets tests simulate backend outages and recovery, driving
// the phase controller's storage-readiness retry loop.
func (m *Memory) SetReady(ready bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.ready = ready
}
