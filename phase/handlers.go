package phase

import (
	"github.com/luxfi/pet"
	"github.com/luxfi/pet/events"
	"github.com/luxfi/pet/requests"
	"github.com/luxfi/pet/wire"
)

// handleSum processes one Tag=sum request: register the participant in
// SumDict and republish it so fetchers see the new entry without
// waiting for phase end.
func (c *Controller) handleSum(req requests.Request) error {
	p, ok := req.Payload.(wire.SumPayload)
	if !ok {
		return pet.ErrUnexpectedMessage
	}

	err := c.storage.AddSumParticipant(req.ParticipantPK, p.EphemeralPK)
	c.recordMessage("sum", err)
	if err != nil {
		return err
	}

	c.bus.SumDict.Publish(uint64(c.roundID()), events.NewDict(c.storage.SumDict()))
	return nil
}

// handleUpdate processes one Tag=update request: validate the masked
// model against the round's aggregation shape before committing
// anything, then atomically record the local seed dict and fold the
// model into the accumulator. The two storage mutations are kept in
// this order (seed dict first) so a failed AddLocalSeedDict never
// leaves a model aggregated without its seed dict recorded.
func (c *Controller) handleUpdate(req requests.Request) error {
	p, ok := req.Payload.(wire.UpdatePayload)
	if !ok {
		return pet.ErrUnexpectedMessage
	}

	if err := c.agg.ValidateAggregation(p.MaskedModel); err != nil {
		c.recordMessage("update", err)
		return err
	}

	localSeedDict := make(map[pet.SigningPublicKey]pet.EncryptedMaskSeed, len(p.LocalSeedDict))
	for _, entry := range p.LocalSeedDict {
		localSeedDict[entry.SumPK] = entry.EncryptedSeed
	}

	if err := c.storage.AddLocalSeedDict(req.ParticipantPK, localSeedDict); err != nil {
		c.recordMessage("update", err)
		return err
	}

	if err := c.agg.Aggregate(p.MaskedModel); err != nil {
		// Unreachable in practice: ValidateAggregation already checked
		// compatibility and the accumulator's shape never changes mid-phase.
		c.recordMessage("update", err)
		return err
	}

	c.updateAccepted++
	c.metrics.AggregationSize.Set(float64(c.updateAccepted))
	c.bus.SeedDict.Publish(uint64(c.roundID()), events.NewDict(c.storage.SeedDict()))
	c.recordMessage("update", nil)
	return nil
}

// handleSum2 processes one Tag=sum2 request: record the participant's
// vote for the unmasking mask.
func (c *Controller) handleSum2(req requests.Request) error {
	p, ok := req.Payload.(wire.Sum2Payload)
	if !ok {
		return pet.ErrUnexpectedMessage
	}

	err := c.storage.IncrMaskScore(req.ParticipantPK, p.Mask)
	c.recordMessage("sum2", err)
	if err != nil {
		return err
	}
	c.sum2Accepted++
	return nil
}

func (c *Controller) recordMessage(tag string, err error) {
	outcome := "accepted"
	if err != nil {
		outcome = "rejected"
	}
	c.metrics.RecordMessage(tag, outcome)
}
