package pet

// GroupType, DataType, BoundType and ModelType enumerate the mask
// configuration variants carried in a 4-byte packed descriptor
// (one byte each) as described by the wire format in package wire.
type (
	GroupType uint8
	DataType  uint8
	BoundType uint8
	ModelType uint8
)

// Group types.
const (
	GroupIntegers GroupType = iota
	GroupPrimeOrder
)

// Data types.
const (
	DataF32 DataType = iota
	DataF64
	DataI32
	DataI64
)

// Bound types.
const (
	BoundB0 BoundType = iota
	BoundB1
	BoundB2
)

// Model types.
const (
	ModelM3 ModelType = iota
	ModelM6
	ModelM9
	ModelM12
)

// MaskConfig pins the arithmetic that a masked vector was produced
// under. Aggregation rejects any masked model whose config differs
// from the accumulator it is being added to.
type MaskConfig struct {
	Group GroupType
	Data  DataType
	Bound BoundType
	Model ModelType
}

// MaskObject is a masked vector plus the scalar mask unit that the
// sum2 phase collects votes over. Element residues and the scalar are
// transported as 6-byte big-endian values on the wire (package wire)
// and widened to uint64 in memory.
type MaskObject struct {
	VectorConfig MaskConfig
	Vector       []uint64
	ScalarConfig MaskConfig
	Scalar       uint64
}

// Len returns the number of residues in the masked vector.
func (m MaskObject) Len() int {
	return len(m.Vector)
}

// Equal reports whether two mask objects carry the same configs and
// values. Used by tests.
func (m MaskObject) Equal(other MaskObject) bool {
	if m.VectorConfig != other.VectorConfig || m.ScalarConfig != other.ScalarConfig {
		return false
	}
	if m.Scalar != other.Scalar || len(m.Vector) != len(other.Vector) {
		return false
	}
	for i, v := range m.Vector {
		if other.Vector[i] != v {
			return false
		}
	}
	return true
}
