package wire

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/luxfi/pet"
)

func sampleMask() pet.MaskObject {
	return pet.MaskObject{
		VectorConfig: pet.MaskConfig{Group: pet.GroupIntegers, Data: pet.DataF32, Bound: pet.BoundB0, Model: pet.ModelM3},
		Vector:       []uint64{1, 2, 3, 1 << 40},
		ScalarConfig: pet.MaskConfig{Group: pet.GroupIntegers, Data: pet.DataF32, Bound: pet.BoundB0, Model: pet.ModelM3},
		Scalar:       1<<47 - 1,
	}
}

func TestMaskObjectRoundTrip(t *testing.T) {
	m := sampleMask()
	encoded := EncodeMaskObject(m)

	decoded, n, err := DecodeMaskObject(encoded)
	require.NoError(t, err)
	require.Equal(t, len(encoded), n)
	require.True(t, m.Equal(decoded))
}

func TestMaskObjectRejectsTruncatedInput(t *testing.T) {
	encoded := EncodeMaskObject(sampleMask())
	_, _, err := DecodeMaskObject(encoded[:len(encoded)-1])
	require.Error(t, err)
}

func TestHeaderRoundTrip(t *testing.T) {
	var h Header
	h.Signature[0] = 0xAB
	h.Tag = TagUpdate
	h.Multipart = true
	h.CoordinatorPK[0] = 0x01
	h.ParticipantPK[0] = 0x02
	h.PayloadLen = 5

	raw := Encode(Envelope{Header: h, Payload: []byte("hello")})
	require.Len(t, raw, headerSize+5)

	env, err := Decode(raw)
	require.NoError(t, err)
	require.Equal(t, h, env.Header)
	require.Equal(t, []byte("hello"), env.Payload)
}

func TestDecodeRejectsShortMessage(t *testing.T) {
	_, err := Decode(make([]byte, MinMessageSize-1))
	require.Error(t, err)
}

func TestDecodeRejectsPayloadLengthMismatch(t *testing.T) {
	raw := Encode(Envelope{Payload: []byte("abc")})
	raw[132] = 0xff // corrupt the declared payload length
	_, err := Decode(raw)
	require.Error(t, err)
}

func TestSumPayloadRoundTrip(t *testing.T) {
	var p SumPayload
	p.SumSignature[0] = 1
	p.EphemeralPK[0] = 2

	decoded, err := DecodeSumPayload(EncodeSumPayload(p))
	require.NoError(t, err)
	require.Equal(t, p, decoded)
}

func TestUpdatePayloadRoundTrip(t *testing.T) {
	p := UpdatePayload{
		MaskedModel: sampleMask(),
		LocalSeedDict: []LocalSeedDictEntry{
			{SumPK: pet.SigningPublicKey{1}, EncryptedSeed: pet.EncryptedMaskSeed{2}},
			{SumPK: pet.SigningPublicKey{3}, EncryptedSeed: pet.EncryptedMaskSeed{4}},
		},
	}
	p.SumSignature[0] = 9
	p.UpdateSignature[0] = 10

	decoded, err := DecodeUpdatePayload(EncodeUpdatePayload(p))
	require.NoError(t, err)
	require.Equal(t, p.SumSignature, decoded.SumSignature)
	require.Equal(t, p.UpdateSignature, decoded.UpdateSignature)
	require.True(t, p.MaskedModel.Equal(decoded.MaskedModel))
	require.Equal(t, p.LocalSeedDict, decoded.LocalSeedDict)
}

func TestUpdatePayloadRejectsBadLocalSeedDictCount(t *testing.T) {
	p := UpdatePayload{MaskedModel: sampleMask()}
	encoded := EncodeUpdatePayload(p)
	encoded = append(encoded, 0, 0, 0, 1) // claim one entry that doesn't exist
	_, err := DecodeUpdatePayload(encoded)
	require.Error(t, err)
}

func TestSum2PayloadRoundTrip(t *testing.T) {
	p := Sum2Payload{Mask: sampleMask()}
	p.SumSignature[0] = 7

	decoded, err := DecodeSum2Payload(EncodeSum2Payload(p))
	require.NoError(t, err)
	require.Equal(t, p.SumSignature, decoded.SumSignature)
	require.True(t, p.Mask.Equal(decoded.Mask))
}

func TestChunkPayloadRoundTrip(t *testing.T) {
	p := ChunkPayload{MessageID: 42, ChunkID: 3, Last: true, Data: []byte("fragment")}

	decoded, err := DecodeChunkPayload(EncodeChunkPayload(p))
	require.NoError(t, err)
	require.Equal(t, p, decoded)
}

func TestChunkPayloadRejectsShortHeader(t *testing.T) {
	_, err := DecodeChunkPayload(make([]byte, 3))
	require.Error(t, err)
}
