package config

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestDefaultParametersAreValid(t *testing.T) {
	require.NoError(t, Default().Validate())
}

func TestDefaultParametersBuildCoordinatorState(t *testing.T) {
	state, err := Default().CoordinatorState()
	require.NoError(t, err)
	require.Equal(t, 2, state.Thresholds.MinSum)
	require.Equal(t, 3, state.Thresholds.MinUpdate)
	require.Equal(t, 3, state.ModelSize)
}

func TestValidateAggregatesEveryViolation(t *testing.T) {
	p := Default()
	p.Sum = 2
	p.MinSumCount = 0
	p.MaxSumTime = 0
	p.MinSumTime = 1

	err := p.Validate()
	require.Error(t, err)
	require.Contains(t, err.Error(), "sum must be in")
	require.Contains(t, err.Error(), "min_sum_count must be positive")
	require.Contains(t, err.Error(), "min_sum_time")
}

func TestValidateRejectsUnknownMaskFields(t *testing.T) {
	p := Default()
	p.Mask.Group = "not-a-group"

	err := p.Validate()
	require.Error(t, err)
	require.Contains(t, err.Error(), "mask.group")
}

func TestLoadFallsBackToDefaultsWhenFileMissing(t *testing.T) {
	params, err := Load("/nonexistent/pet-coordinator.toml")
	require.NoError(t, err)
	require.Equal(t, Default().ModelSize, params.ModelSize)
	require.Equal(t, Default().Sum, params.Sum)
}
