package pipeline

import (
	"context"

	"github.com/luxfi/pet/requests"
)

// Dispatcher forwards a validated Message to the phase controller's
// request queue and waits for its outcome.
type Dispatcher struct {
	queue *requests.Queue
}

// NewDispatcher wraps queue.
func NewDispatcher(queue *requests.Queue) *Dispatcher {
	return &Dispatcher{queue: queue}
}

// Dispatch enqueues msg and blocks for the phase controller's
// response. It returns pet.ErrRequestChannelClosed if the queue has
// been closed, the closure that triggers Shutdown.
func (d *Dispatcher) Dispatch(ctx context.Context, msg Message) error {
	slot := requests.NewResponseSlot()

	if err := d.queue.Send(ctx, requests.Request{
		ParticipantPK: msg.ParticipantPK,
		Payload:       msg.Payload,
		Response:      slot,
	}); err != nil {
		return err
	}

	select {
	case resp := <-slot:
		return resp.Err
	case <-ctx.Done():
		return ctx.Err()
	}
}
