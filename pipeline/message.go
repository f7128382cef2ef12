package pipeline

import (
	"github.com/luxfi/pet"
	"github.com/luxfi/pet/wire"
)

// Message is the fully parsed, signature-verified representation of
// an incoming wire envelope, handed from Parse downstream to the
// multipart handler, task validator and dispatcher.
type Message struct {
	Tag           wire.Tag
	ParticipantPK pet.SigningPublicKey
	Multipart     bool

	// Payload is one of wire.SumPayload, wire.UpdatePayload,
	// wire.Sum2Payload or wire.ChunkPayload, depending on Tag. A
	// Tag=Chunk Message is consumed by the multipart handler and never
	// reaches the task validator or dispatcher itself.
	Payload any
}

// PendingChunk is a single fragment of a multipart message awaiting
// reassembly.
type PendingChunk struct {
	ChunkID uint16
	Last    bool
	Data    []byte
}
