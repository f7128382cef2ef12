// Package wire implements the binary wire codec: the
// fixed message header, the Sum/Update/Sum2/Chunk payloads, and the
// mask-object encoding. Nothing here touches cryptography or protocol
// state — package petcrypto opens/verifies envelopes and package
// pipeline interprets them.
package wire

import (
	"encoding/binary"
	"fmt"

	"github.com/luxfi/pet"
)

// Tag identifies the kind of message carried by an envelope.
type Tag uint8

const (
	TagSum   Tag = 1
	TagUpdate Tag = 2
	TagSum2  Tag = 3
	TagChunk Tag = 4
)

func (t Tag) String() string {
	switch t {
	case TagSum:
		return "sum"
	case TagUpdate:
		return "update"
	case TagSum2:
		return "sum2"
	case TagChunk:
		return "chunk"
	default:
		return fmt.Sprintf("tag(%d)", uint8(t))
	}
}

const (
	flagMultipart = 1 << 0

	signatureSize   = 64
	pkSize          = 32
	headerSize      = signatureSize + 1 + 1 + 2 + pkSize + pkSize + 4
	// MinMessageSize is the smallest legal decrypted message: a full
	// header plus a single payload byte.
	MinMessageSize = headerSize + 1
)

// Header is the fixed 136-byte prefix present on every decrypted
// message.
type Header struct {
	Signature     [signatureSize]byte
	Tag           Tag
	Multipart     bool
	CoordinatorPK pet.EncryptionPublicKey
	ParticipantPK pet.SigningPublicKey
	PayloadLen    uint32
}

// Envelope is a header plus its tag-specific payload bytes.
type Envelope struct {
	Header  Header
	Payload []byte
}

// SignedRegion returns the byte range of the envelope the signature
// in Header.Signature was computed over: everything after the
// signature field.
func SignedRegion(raw []byte) ([]byte, error) {
	if len(raw) < headerSize {
		return nil, fmt.Errorf("wire: message too short for a header: %d bytes", len(raw))
	}
	return raw[signatureSize:], nil
}

// Encode serializes an envelope to its wire form.
func Encode(e Envelope) []byte {
	buf := make([]byte, headerSize+len(e.Payload))

	copy(buf[0:64], e.Header.Signature[:])
	buf[64] = byte(e.Header.Tag)
	if e.Header.Multipart {
		buf[65] = flagMultipart
	}
	// buf[66:68] reserved, left zero
	copy(buf[68:100], e.Header.CoordinatorPK[:])
	copy(buf[100:132], e.Header.ParticipantPK[:])
	binary.BigEndian.PutUint32(buf[132:136], uint32(len(e.Payload)))
	copy(buf[136:], e.Payload)

	return buf
}

// Decode parses a decrypted message into an envelope. It performs
// only structural validation; signature verification and coordinator
// key matching belong to the parse stage of package pipeline.
func Decode(raw []byte) (Envelope, error) {
	if len(raw) < MinMessageSize {
		return Envelope{}, fmt.Errorf("wire: message shorter than the minimum %d bytes", MinMessageSize)
	}

	var h Header
	copy(h.Signature[:], raw[0:64])
	h.Tag = Tag(raw[64])
	h.Multipart = raw[65]&flagMultipart != 0
	copy(h.CoordinatorPK[:], raw[68:100])
	copy(h.ParticipantPK[:], raw[100:132])
	h.PayloadLen = binary.BigEndian.Uint32(raw[132:136])

	payload := raw[136:]
	if uint32(len(payload)) != h.PayloadLen {
		return Envelope{}, fmt.Errorf("wire: declared payload length %d does not match actual %d", h.PayloadLen, len(payload))
	}

	return Envelope{Header: h, Payload: payload}, nil
}
