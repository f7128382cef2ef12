package wire

import (
	"encoding/binary"
	"fmt"

	"github.com/luxfi/pet"
)

const (
	configSize = 4 // one byte per {group, data, bound, model}
	residueSize = 6 // a mask residue travels as a 48-bit big-endian integer
	scalarSize  = configSize + residueSize
)

func encodeConfig(c pet.MaskConfig) [configSize]byte {
	return [configSize]byte{byte(c.Group), byte(c.Data), byte(c.Bound), byte(c.Model)}
}

func decodeConfig(b []byte) pet.MaskConfig {
	return pet.MaskConfig{
		Group: pet.GroupType(b[0]),
		Data:  pet.DataType(b[1]),
		Bound: pet.BoundType(b[2]),
		Model: pet.ModelType(b[3]),
	}
}

// putUint48 writes the low 48 bits of v to b[:6] big-endian. Residues
// and mask units are bounded well under 2^48 by the mask's BoundType,
// so the top 16 bits of v are always zero; callers that violate that
// get silently truncated data on encode, which EncodeMaskObject's
// round trip tests would catch.
func putUint48(b []byte, v uint64) {
	binary.BigEndian.PutUint16(b[0:2], uint16(v>>32))
	binary.BigEndian.PutUint32(b[2:6], uint32(v))
}

func uint48(b []byte) uint64 {
	hi := uint64(binary.BigEndian.Uint16(b[0:2]))
	lo := uint64(binary.BigEndian.Uint32(b[2:6]))
	return hi<<32 | lo
}

// EncodeMaskObject serializes a masked vector and its scalar mask
// unit: a packed vector config, an element count, that
// many 6-byte residues, then a scalar config and its 6-byte unit.
func EncodeMaskObject(m pet.MaskObject) []byte {
	buf := make([]byte, 0, configSize+4+len(m.Vector)*residueSize+scalarSize)

	vc := encodeConfig(m.VectorConfig)
	buf = append(buf, vc[:]...)
	buf = binary.BigEndian.AppendUint32(buf, uint32(len(m.Vector)))
	for _, residue := range m.Vector {
		var r [residueSize]byte
		putUint48(r[:], residue)
		buf = append(buf, r[:]...)
	}

	sc := encodeConfig(m.ScalarConfig)
	buf = append(buf, sc[:]...)
	var s [residueSize]byte
	putUint48(s[:], m.Scalar)
	buf = append(buf, s[:]...)

	return buf
}

// DecodeMaskObject reverses EncodeMaskObject, returning the number of
// bytes consumed so callers can find the next field in a larger
// payload (DecodeUpdatePayload, DecodeSum2Payload).
func DecodeMaskObject(b []byte) (pet.MaskObject, int, error) {
	if len(b) < configSize+4 {
		return pet.MaskObject{}, 0, fmt.Errorf("wire: mask object too short for its header")
	}

	var m pet.MaskObject
	m.VectorConfig = decodeConfig(b[0:configSize])
	n := binary.BigEndian.Uint32(b[configSize : configSize+4])
	off := configSize + 4

	need := off + int(n)*residueSize + scalarSize
	if len(b) < need {
		return pet.MaskObject{}, 0, fmt.Errorf("wire: mask object declares %d residues but only %d bytes remain", n, len(b)-off)
	}

	m.Vector = make([]uint64, n)
	for i := range m.Vector {
		m.Vector[i] = uint48(b[off : off+residueSize])
		off += residueSize
	}

	m.ScalarConfig = decodeConfig(b[off : off+configSize])
	off += configSize
	m.Scalar = uint48(b[off : off+residueSize])
	off += residueSize

	return m, off, nil
}
