package wire

import (
	"encoding/binary"
	"fmt"

	"github.com/luxfi/pet"
)

// SumPayload is the body of a Tag=sum message: the participant's
// signature over seed||"sum" (proving sum eligibility) and the
// ephemeral encryption key it wants sum participants to use for
// local seed dict delivery.
type SumPayload struct {
	SumSignature [signatureSize]byte
	EphemeralPK  pet.EncryptionPublicKey
}

// EncodeSumPayload serializes p.
func EncodeSumPayload(p SumPayload) []byte {
	buf := make([]byte, signatureSize+pkSize)
	copy(buf[0:signatureSize], p.SumSignature[:])
	copy(buf[signatureSize:], p.EphemeralPK[:])
	return buf
}

// DecodeSumPayload parses a Tag=sum payload.
func DecodeSumPayload(b []byte) (SumPayload, error) {
	if len(b) != signatureSize+pkSize {
		return SumPayload{}, fmt.Errorf("wire: sum payload has length %d, want %d", len(b), signatureSize+pkSize)
	}
	var p SumPayload
	copy(p.SumSignature[:], b[0:signatureSize])
	copy(p.EphemeralPK[:], b[signatureSize:])
	return p, nil
}

// LocalSeedDictEntry is one (sum participant, encrypted mask seed)
// pairing inside an update message's local seed dict.
type LocalSeedDictEntry struct {
	SumPK          pet.SigningPublicKey
	EncryptedSeed  pet.EncryptedMaskSeed
}

// UpdatePayload is the body of a Tag=update message: proof of sum and
// update eligibility, the participant's masked model update, and the
// local seed dict distributing this update's mask seed to every sum
// participant.
type UpdatePayload struct {
	SumSignature    [signatureSize]byte
	UpdateSignature [signatureSize]byte
	MaskedModel     pet.MaskObject
	LocalSeedDict   []LocalSeedDictEntry
}

// EncodeUpdatePayload serializes p.
func EncodeUpdatePayload(p UpdatePayload) []byte {
	buf := make([]byte, 0, 2*signatureSize+64+len(p.LocalSeedDict)*(pkSize+80))
	buf = append(buf, p.SumSignature[:]...)
	buf = append(buf, p.UpdateSignature[:]...)
	buf = append(buf, EncodeMaskObject(p.MaskedModel)...)
	buf = binary.BigEndian.AppendUint32(buf, uint32(len(p.LocalSeedDict)))
	for _, e := range p.LocalSeedDict {
		buf = append(buf, e.SumPK[:]...)
		buf = append(buf, e.EncryptedSeed[:]...)
	}
	return buf
}

// DecodeUpdatePayload parses a Tag=update payload.
func DecodeUpdatePayload(b []byte) (UpdatePayload, error) {
	if len(b) < 2*signatureSize {
		return UpdatePayload{}, fmt.Errorf("wire: update payload too short for its two signatures")
	}

	var p UpdatePayload
	copy(p.SumSignature[:], b[0:signatureSize])
	copy(p.UpdateSignature[:], b[signatureSize:2*signatureSize])
	off := 2 * signatureSize

	model, n, err := DecodeMaskObject(b[off:])
	if err != nil {
		return UpdatePayload{}, fmt.Errorf("wire: update payload: %w", err)
	}
	p.MaskedModel = model
	off += n

	if len(b) < off+4 {
		return UpdatePayload{}, fmt.Errorf("wire: update payload truncated before local seed dict count")
	}
	count := binary.BigEndian.Uint32(b[off : off+4])
	off += 4

	entrySize := pkSize + 80
	need := off + int(count)*entrySize
	if len(b) != need {
		return UpdatePayload{}, fmt.Errorf("wire: update payload declares %d local seed dict entries but has %d trailing bytes, want %d", count, len(b)-off, int(count)*entrySize)
	}

	p.LocalSeedDict = make([]LocalSeedDictEntry, count)
	for i := range p.LocalSeedDict {
		copy(p.LocalSeedDict[i].SumPK[:], b[off:off+pkSize])
		off += pkSize
		copy(p.LocalSeedDict[i].EncryptedSeed[:], b[off:off+80])
		off += 80
	}

	return p, nil
}

// Sum2Payload is the body of a Tag=sum2 message: proof of sum
// eligibility and the sum participant's vote for the unmasking mask.
type Sum2Payload struct {
	SumSignature [signatureSize]byte
	Mask         pet.MaskObject
}

// EncodeSum2Payload serializes p.
func EncodeSum2Payload(p Sum2Payload) []byte {
	buf := make([]byte, 0, signatureSize+64)
	buf = append(buf, p.SumSignature[:]...)
	buf = append(buf, EncodeMaskObject(p.Mask)...)
	return buf
}

// DecodeSum2Payload parses a Tag=sum2 payload.
func DecodeSum2Payload(b []byte) (Sum2Payload, error) {
	if len(b) < signatureSize {
		return Sum2Payload{}, fmt.Errorf("wire: sum2 payload too short for its signature")
	}
	var p Sum2Payload
	copy(p.SumSignature[:], b[0:signatureSize])

	mask, n, err := DecodeMaskObject(b[signatureSize:])
	if err != nil {
		return Sum2Payload{}, fmt.Errorf("wire: sum2 payload: %w", err)
	}
	if signatureSize+n != len(b) {
		return Sum2Payload{}, fmt.Errorf("wire: sum2 payload has %d trailing bytes after its mask", len(b)-signatureSize-n)
	}
	p.Mask = mask
	return p, nil
}

// ChunkPayload is the body of a Tag=chunk message: one fragment of a
// multipart message too large for a single transport frame.
type ChunkPayload struct {
	MessageID uint32
	ChunkID   uint16
	Last      bool
	Data      []byte
}

const chunkFlagLast = 1 << 0

// EncodeChunkPayload serializes p.
func EncodeChunkPayload(p ChunkPayload) []byte {
	buf := make([]byte, 0, 4+2+1+len(p.Data))
	buf = binary.BigEndian.AppendUint32(buf, p.MessageID)
	buf = binary.BigEndian.AppendUint16(buf, p.ChunkID)
	var flags byte
	if p.Last {
		flags |= chunkFlagLast
	}
	buf = append(buf, flags)
	buf = append(buf, p.Data...)
	return buf
}

// DecodeChunkPayload parses a Tag=chunk payload.
func DecodeChunkPayload(b []byte) (ChunkPayload, error) {
	const head = 4 + 2 + 1
	if len(b) < head {
		return ChunkPayload{}, fmt.Errorf("wire: chunk payload shorter than its %d-byte header", head)
	}
	p := ChunkPayload{
		MessageID: binary.BigEndian.Uint32(b[0:4]),
		ChunkID:   binary.BigEndian.Uint16(b[4:6]),
		Last:      b[6]&chunkFlagLast != 0,
	}
	if len(b) > head {
		p.Data = append([]byte(nil), b[head:]...)
	}
	return p, nil
}
