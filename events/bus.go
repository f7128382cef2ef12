package events

import (
	"github.com/luxfi/ids"

	"github.com/luxfi/pet"
)

// KeysEvent carries the coordinator's freshly regenerated per-round
// encryption key pair.
type KeysEvent struct {
	CoordinatorPK pet.EncryptionPublicKey
}

// PhaseEvent names the phase the state machine just entered.
type PhaseEvent struct {
	Phase string
}

// RoundResult summarizes a round that just finished Unmask, for
// operational history (package coordinator's round ledger) rather
// than for participants, who only need the plain model on Model.
type RoundResult struct {
	ModelID   ids.ID
	MaskVotes int
}

// Bus bundles the eight topics the coordinator publishes. It is owned by the
// coordinator and handed to the phase controller (as publisher) and to
// fetcher services (as subscribers).
type Bus struct {
	Keys       *Topic[KeysEvent]
	Params     *Topic[pet.RoundParameters]
	Phase      *Topic[PhaseEvent]
	SumDict    *Topic[Dict[map[pet.SigningPublicKey]pet.EncryptionPublicKey]]
	SeedDict   *Topic[Dict[map[pet.SigningPublicKey]map[pet.SigningPublicKey]pet.EncryptedMaskSeed]]
	MaskLength *Topic[int]
	Model      *Topic[[]float64]
	Result     *Topic[RoundResult]
}

// NewBus constructs a bus with every topic initialized and empty.
func NewBus() *Bus {
	return &Bus{
		Keys:       NewTopic[KeysEvent](),
		Params:     NewTopic[pet.RoundParameters](),
		Phase:      NewTopic[PhaseEvent](),
		SumDict:    NewTopic[Dict[map[pet.SigningPublicKey]pet.EncryptionPublicKey]](),
		SeedDict:   NewTopic[Dict[map[pet.SigningPublicKey]map[pet.SigningPublicKey]pet.EncryptedMaskSeed]](),
		MaskLength: NewTopic[int](),
		Model:      NewTopic[[]float64](),
		Result:     NewTopic[RoundResult](),
	}
}
