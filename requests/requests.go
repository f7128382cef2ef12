// Package requests implements the multi-producer single-consumer
// queue: every accepted wire message becomes a
// Request carried to the phase controller, which is the queue's sole
// consumer and the sole mutator of round storage. The
// dispatcher that enqueues a Request also owns its ResponseSlot, so
// the original caller learns the outcome without polling.
package requests

import (
	"context"
	"sync"

	"github.com/luxfi/pet"
)

// Response is the outcome of processing a single Request.
type Response struct {
	Err error
}

// ResponseSlot delivers exactly one Response back to the request's
// producer. It is a channel of capacity one so the phase controller
// never blocks handing off a result, even if the producer has already
// given up (e.g. its connection dropped).
type ResponseSlot chan Response

// NewResponseSlot allocates a ready-to-use slot.
func NewResponseSlot() ResponseSlot {
	return make(ResponseSlot, 1)
}

// Fulfil resolves the slot. It is safe to call at most once per slot.
func (s ResponseSlot) Fulfil(err error) {
	s <- Response{Err: err}
}

// Request is one unit of work handed from the message pipeline's
// dispatcher to the phase controller. Payload is the tag-specific,
// already-validated message body (a wire.SumPayload, wire.UpdatePayload
// or wire.Sum2Payload); the controller type-switches on it.
type Request struct {
	ParticipantPK pet.SigningPublicKey
	Payload       any
	Response      ResponseSlot
}

// Queue is the multi-producer single-consumer channel of Requests. It
// is unbuffered: Send blocks until the consumer takes the request, so
// the queue itself holds no backlog. Its closure is the Shutdown
// trigger: once Close has been called, Send returns
// pet.ErrRequestChannelClosed unless the consumer takes the request
// first, and Recv still hands over a request whose sender is ready
// before reporting ok=false.
type Queue struct {
	ch     chan Request
	closed chan struct{}
	once   sync.Once
}

// NewQueue creates an empty, open queue.
func NewQueue() *Queue {
	return &Queue{
		ch:     make(chan Request),
		closed: make(chan struct{}),
	}
}

// Send enqueues req, blocking until the single consumer is ready to
// receive it (the dispatcher issues at most one in-flight request at
// a time).
func (q *Queue) Send(ctx context.Context, req Request) error {
	select {
	case q.ch <- req:
		return nil
	case <-q.closed:
		return pet.ErrRequestChannelClosed
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Recv blocks until a request is available or the queue is closed.
func (q *Queue) Recv() (Request, bool) {
	select {
	case req := <-q.ch:
		return req, true
	default:
	}

	select {
	case req := <-q.ch:
		return req, true
	case <-q.closed:
		return Request{}, false
	}
}

// Close signals Shutdown. It is safe to call more than once.
func (q *Queue) Close() {
	q.once.Do(func() { close(q.closed) })
}

// C exposes the request channel for callers that need to select on it
// alongside other events (the phase controller's deadline timers).
// Prefer Recv when a plain blocking receive suffices.
func (q *Queue) C() <-chan Request {
	return q.ch
}

// Done reports the queue's closure, for the same select-based use as C.
func (q *Queue) Done() <-chan struct{} {
	return q.closed
}
