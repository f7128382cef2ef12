// Package aggregation implements the masked-model accumulator of
// an order-independent sum of masked vectors under a fixed
// MaskConfig and length, and the final unmasking step that turns the
// accumulator plus the winning mask into a plaintext global model.
package aggregation

import (
	"math/big"

	"gonum.org/v1/gonum/floats"

	"github.com/luxfi/pet"
)

// boundModulus returns the modulus residues of the given bound are
// reduced under. Each BoundType widens the residue range by 16 bits,
// matching the 6-byte (48-bit) wire encoding of a residue in package
// wire: B2 uses the full 48 bits, B1 and B0 reserve the high bits for
// carry headroom during summation.
func boundModulus(bound pet.BoundType) *big.Int {
	bits := uint(16 + 16*uint(bound))
	return new(big.Int).Lsh(big.NewInt(1), bits)
}

// Aggregation accumulates masked model vectors of a single MaskConfig
// and length. It never panics; every rejection is a typed error.
type Aggregation struct {
	config  pet.MaskConfig
	length  int
	modulus *big.Int

	vectorSum []*big.Int
	scalarSum *big.Int
}

// New creates an empty accumulator for the given config and length,
// as the Sum->Update transition does.
func New(config pet.MaskConfig, length int) *Aggregation {
	modulus := boundModulus(config.Bound)

	vectorSum := make([]*big.Int, length)
	for i := range vectorSum {
		vectorSum[i] = new(big.Int)
	}

	return &Aggregation{
		config:    config,
		length:    length,
		modulus:   modulus,
		vectorSum: vectorSum,
		scalarSum: new(big.Int),
	}
}

// Config returns the accumulator's fixed mask config.
func (a *Aggregation) Config() pet.MaskConfig { return a.config }

// Len returns the accumulator's fixed vector length.
func (a *Aggregation) Len() int { return a.length }

func (a *Aggregation) checkCompatible(m pet.MaskObject) error {
	if m.VectorConfig != a.config || m.ScalarConfig != a.config {
		return pet.ErrIncompatibleMaskConfig
	}
	if m.Len() != a.length {
		return pet.ErrIncompatibleMaskLength
	}
	return nil
}

// ValidateAggregation reports whether m may be added to the
// accumulator without mutating it.
func (a *Aggregation) ValidateAggregation(m pet.MaskObject) error {
	return a.checkCompatible(m)
}

// Aggregate adds a masked model into the accumulator modulo the
// config's bound. Addition is commutative and associative under
// modular arithmetic, so aggregating accepted updates in any order
// produces the same accumulator regardless of arrival order.
func (a *Aggregation) Aggregate(m pet.MaskObject) error {
	if err := a.checkCompatible(m); err != nil {
		return err
	}

	for i, residue := range m.Vector {
		a.vectorSum[i].Add(a.vectorSum[i], new(big.Int).SetUint64(residue))
		a.vectorSum[i].Mod(a.vectorSum[i], a.modulus)
	}
	a.scalarSum.Add(a.scalarSum, new(big.Int).SetUint64(m.Scalar))
	a.scalarSum.Mod(a.scalarSum, a.modulus)
	return nil
}

// ValidateUnmasking reports whether mask is compatible with the
// accumulator's config and length without consuming it.
func (a *Aggregation) ValidateUnmasking(mask pet.MaskObject) error {
	return a.checkCompatible(mask)
}

// Unmask subtracts the winning mask from the accumulator and rescales
// the result into a plaintext model using modelScalar (the
// RoundParameters.ModelScalar published for this round). Each
// component is centered around the modulus midpoint before scaling,
// since masked residues represent a two's-complement-like encoding of
// a signed fixed-point value.
func (a *Aggregation) Unmask(mask pet.MaskObject, modelScalar float64) ([]float64, error) {
	if err := a.ValidateUnmasking(mask); err != nil {
		return nil, err
	}

	half := new(big.Int).Rsh(a.modulus, 1)
	model := make([]float64, a.length)

	for i, residue := range mask.Vector {
		unmasked := new(big.Int).Sub(a.vectorSum[i], new(big.Int).SetUint64(residue))
		unmasked.Mod(unmasked, a.modulus)

		centered := new(big.Int).Sub(unmasked, half)
		f, _ := new(big.Float).SetInt(centered).Float64()
		model[i] = f
	}

	if !floats.HasNaN(model) {
		floats.Scale(modelScalar, model)
	}
	return model, nil
}
