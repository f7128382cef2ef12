package pipeline

import (
	"sync"
	"time"

	"github.com/luxfi/pet"
	"github.com/luxfi/pet/wire"
)

// DefaultGraceWindow bounds how long an incomplete multipart set is
// kept before it is dropped.
const DefaultGraceWindow = 30 * time.Second

type multipartKey struct {
	participantPK pet.SigningPublicKey
	messageID     uint32
}

type pendingSet struct {
	chunks    map[uint16][]byte
	lastID    uint16
	haveLast  bool
	firstSeen time.Time
}

func (s *pendingSet) complete() bool {
	if !s.haveLast {
		return false
	}
	if len(s.chunks) != int(s.lastID)+1 {
		return false
	}
	for id := uint16(0); id <= s.lastID; id++ {
		if _, ok := s.chunks[id]; !ok {
			return false
		}
	}
	return true
}

func (s *pendingSet) assemble() []byte {
	var out []byte
	for id := uint16(0); id <= s.lastID; id++ {
		out = append(out, s.chunks[id]...)
	}
	return out
}

// MultipartReassembler accumulates Tag=Chunk messages keyed by
// (participant pk, message id) until every chunk in [0..total) has
// arrived, then hands the caller the reassembled payload for
// re-parsing into a full Message. A single chunk with chunk id 0 and
// the last flag set is itself a complete one-part message.
type MultipartReassembler struct {
	mu          sync.Mutex
	graceWindow time.Duration
	pending     map[multipartKey]*pendingSet
}

// NewMultipartReassembler creates a reassembler with the given grace
// window; a non-positive window uses DefaultGraceWindow.
func NewMultipartReassembler(graceWindow time.Duration) *MultipartReassembler {
	if graceWindow <= 0 {
		graceWindow = DefaultGraceWindow
	}
	return &MultipartReassembler{
		graceWindow: graceWindow,
		pending:     make(map[multipartKey]*pendingSet),
	}
}

// Add stores one chunk and reports the reassembled payload once the
// set is complete. Chunks may arrive out of order; only the presence
// of the contiguous range [0..lastID] with the "last" flag on lastID
// completes a set.
func (r *MultipartReassembler) Add(participantPK pet.SigningPublicKey, chunk wire.ChunkPayload, now time.Time) (payload []byte, ready bool) {
	r.mu.Lock()
	defer r.mu.Unlock()

	key := multipartKey{participantPK: participantPK, messageID: chunk.MessageID}
	set, ok := r.pending[key]
	if !ok {
		set = &pendingSet{chunks: make(map[uint16][]byte), firstSeen: now}
		r.pending[key] = set
	}

	set.chunks[chunk.ChunkID] = chunk.Data
	if chunk.Last {
		set.haveLast = true
		set.lastID = chunk.ChunkID
	}

	if !set.complete() {
		return nil, false
	}

	delete(r.pending, key)
	return set.assemble(), true
}

// Expire drops every pending set whose first chunk arrived before
// now-graceWindow, returning how many were dropped.
func (r *MultipartReassembler) Expire(now time.Time) int {
	r.mu.Lock()
	defer r.mu.Unlock()

	dropped := 0
	cutoff := now.Add(-r.graceWindow)
	for key, set := range r.pending {
		if set.firstSeen.Before(cutoff) {
			delete(r.pending, key)
			dropped++
		}
	}
	return dropped
}

// Reset drops every pending set unconditionally, as a new round does.
func (r *MultipartReassembler) Reset() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.pending = make(map[multipartKey]*pendingSet)
}
