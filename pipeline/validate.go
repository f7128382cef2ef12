package pipeline

import (
	"github.com/luxfi/pet"
	"github.com/luxfi/pet/petcrypto"
	"github.com/luxfi/pet/wire"
)

var sumLabel = []byte("sum")
var updateLabel = []byte("update")

// ExpectedTag reports the message tag the given phase accepts, per
// "Sum accepts only Sum messages" and so on. Idle, Failure and
// Shutdown accept nothing.
func ExpectedTag(phase pet.PhaseKind) (wire.Tag, bool) {
	switch phase {
	case pet.PhaseSum:
		return wire.TagSum, true
	case pet.PhaseUpdate:
		return wire.TagUpdate, true
	case pet.PhaseSum2:
		return wire.TagSum2, true
	default:
		return 0, false
	}
}

func eligibleFor(participantPK pet.SigningPublicKey, seed pet.RoundSeed, label []byte, sig [64]byte, threshold float64) bool {
	msg := append(append([]byte{}, seed[:]...), label...)
	if !petcrypto.Verify(petcrypto.SigningPublicKey(participantPK[:]), msg, sig[:]) {
		return false
	}
	return petcrypto.Eligible(sig[:], threshold)
}

// ValidateTask checks that the message's tag must
// match what the current phase accepts, and the participant must be
// eligible for the task the tag implies. A participant is
// sum-eligible if its sum signature is eligible at the sum threshold;
// update-eligible if its sum signature is NOT eligible and its update
// signature is eligible at the update threshold.
func ValidateTask(phase pet.PhaseKind, msg Message, seed pet.RoundSeed, params pet.RoundParameters) error {
	expected, ok := ExpectedTag(phase)
	if !ok || msg.Tag != expected {
		return pet.ErrUnexpectedMessage
	}

	switch p := msg.Payload.(type) {
	case wire.SumPayload:
		if !eligibleFor(msg.ParticipantPK, seed, sumLabel, p.SumSignature, params.Sum) {
			return pet.ErrNotSumEligible
		}
	case wire.UpdatePayload:
		if eligibleFor(msg.ParticipantPK, seed, sumLabel, p.SumSignature, params.Sum) {
			return pet.ErrNotUpdateEligible
		}
		if !eligibleFor(msg.ParticipantPK, seed, updateLabel, p.UpdateSignature, params.Update) {
			return pet.ErrNotUpdateEligible
		}
	case wire.Sum2Payload:
		if !eligibleFor(msg.ParticipantPK, seed, sumLabel, p.SumSignature, params.Sum) {
			return pet.ErrNotSumEligible
		}
	default:
		return pet.ErrUnexpectedMessage
	}

	return nil
}
