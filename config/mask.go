package config

import (
	"fmt"

	"github.com/luxfi/pet"
)

func (m MaskParameters) groupType() (pet.GroupType, error) {
	switch m.Group {
	case "integers":
		return pet.GroupIntegers, nil
	case "prime_order":
		return pet.GroupPrimeOrder, nil
	default:
		return 0, fmt.Errorf("config: mask.group %q must be one of: integers, prime_order", m.Group)
	}
}

func (m MaskParameters) dataType() (pet.DataType, error) {
	switch m.Data {
	case "f32":
		return pet.DataF32, nil
	case "f64":
		return pet.DataF64, nil
	case "i32":
		return pet.DataI32, nil
	case "i64":
		return pet.DataI64, nil
	default:
		return 0, fmt.Errorf("config: mask.data %q must be one of: f32, f64, i32, i64", m.Data)
	}
}

func (m MaskParameters) boundType() (pet.BoundType, error) {
	switch m.Bound {
	case "b0":
		return pet.BoundB0, nil
	case "b1":
		return pet.BoundB1, nil
	case "b2":
		return pet.BoundB2, nil
	default:
		return 0, fmt.Errorf("config: mask.bound %q must be one of: b0, b1, b2", m.Bound)
	}
}

func (m MaskParameters) modelType() (pet.ModelType, error) {
	switch m.Model {
	case "m3":
		return pet.ModelM3, nil
	case "m6":
		return pet.ModelM6, nil
	case "m9":
		return pet.ModelM9, nil
	case "m12":
		return pet.ModelM12, nil
	default:
		return 0, fmt.Errorf("config: mask.model %q must be one of: m3, m6, m9, m12", m.Model)
	}
}

// maskConfig parses every mask field at once; callers that already
// ran Validate know this cannot fail.
func (m MaskParameters) maskConfig() (pet.MaskConfig, error) {
	group, err := m.groupType()
	if err != nil {
		return pet.MaskConfig{}, err
	}
	data, err := m.dataType()
	if err != nil {
		return pet.MaskConfig{}, err
	}
	bound, err := m.boundType()
	if err != nil {
		return pet.MaskConfig{}, err
	}
	model, err := m.modelType()
	if err != nil {
		return pet.MaskConfig{}, err
	}
	return pet.MaskConfig{Group: group, Data: data, Bound: bound, Model: model}, nil
}
