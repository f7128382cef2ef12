// Package config loads and validates the coordinator's round
// parameters from a TOML file and the environment, the way the
// teacher's reference configuration loaders build on
// github.com/spf13/viper: defaults first, then a config file, then
// environment variable overrides.
package config

import (
	"errors"
	"fmt"
	"io/fs"
	"time"

	"github.com/spf13/viper"

	"github.com/luxfi/pet"
	"github.com/luxfi/pet/utils/wrappers"
)

// EnvPrefix is the environment variable prefix AutomaticEnv binds
// against, e.g. PET_SUM or PET_MIN_SUM_COUNT.
const EnvPrefix = "PET"

// MaskParameters names the mask arithmetic variant in its wire
// string form (e.g. "integers", "f32", "b0", "m3") rather than the
// packed numeric encoding pet.MaskConfig uses on the wire.
type MaskParameters struct {
	Group string `mapstructure:"group"`
	Data  string `mapstructure:"data"`
	Bound string `mapstructure:"bound"`
	Model string `mapstructure:"model"`
}

// Parameters is the coordinator's complete configuration surface:
// round selection probabilities and thresholds, phase durations, mask
// arithmetic, model size, and the service's bind addresses.
type Parameters struct {
	Sum    float64 `mapstructure:"sum"`
	Update float64 `mapstructure:"update"`

	MinSumCount    int `mapstructure:"min_sum_count"`
	MinUpdateCount int `mapstructure:"min_update_count"`

	MinSumTime    time.Duration `mapstructure:"min_sum_time"`
	MaxSumTime    time.Duration `mapstructure:"max_sum_time"`
	MinUpdateTime time.Duration `mapstructure:"min_update_time"`
	MaxUpdateTime time.Duration `mapstructure:"max_update_time"`
	MinSum2Time   time.Duration `mapstructure:"min_sum2_time"`
	MaxSum2Time   time.Duration `mapstructure:"max_sum2_time"`

	Mask      MaskParameters `mapstructure:"mask"`
	ModelSize int            `mapstructure:"model_size"`

	APIBindAddress string `mapstructure:"api_bind_address"`
	RPCBindAddress string `mapstructure:"rpc_bind_address"`

	HistorySize int `mapstructure:"history_size"`
	WorkerCount int `mapstructure:"worker_count"`
}

// Default returns the parameters a small development deployment would
// use: a handful of participants, short phase durations, a 3-element
// toy model.
func Default() Parameters {
	return Parameters{
		Sum:            0.1,
		Update:         0.5,
		MinSumCount:    2,
		MinUpdateCount: 3,
		MinSumTime:     1 * time.Second,
		MaxSumTime:     30 * time.Second,
		MinUpdateTime:  1 * time.Second,
		MaxUpdateTime:  60 * time.Second,
		MinSum2Time:    1 * time.Second,
		MaxSum2Time:    30 * time.Second,
		Mask: MaskParameters{
			Group: "integers",
			Data:  "f32",
			Bound: "b0",
			Model: "m3",
		},
		ModelSize:      3,
		APIBindAddress: ":8080",
		RPCBindAddress: ":8081",
		HistorySize:    16,
		WorkerCount:    0,
	}
}

// Load reads parameters from path (a TOML file) layered over
// Default, then applies PET_-prefixed environment variable overrides.
// A missing file is not an error: Default alone is a usable
// configuration for local development.
func Load(path string) (Parameters, error) {
	v := viper.New()
	v.SetConfigFile(path)
	v.SetConfigType("toml")
	v.SetEnvPrefix(EnvPrefix)
	v.AutomaticEnv()

	defaults := Default()
	setDefaults(v, defaults)

	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok && !errors.Is(err, fs.ErrNotExist) {
			return Parameters{}, fmt.Errorf("config: read %s: %w", path, err)
		}
	}

	var params Parameters
	if err := v.Unmarshal(&params); err != nil {
		return Parameters{}, fmt.Errorf("config: unmarshal: %w", err)
	}
	return params, nil
}

func setDefaults(v *viper.Viper, d Parameters) {
	v.SetDefault("sum", d.Sum)
	v.SetDefault("update", d.Update)
	v.SetDefault("min_sum_count", d.MinSumCount)
	v.SetDefault("min_update_count", d.MinUpdateCount)
	v.SetDefault("min_sum_time", d.MinSumTime)
	v.SetDefault("max_sum_time", d.MaxSumTime)
	v.SetDefault("min_update_time", d.MinUpdateTime)
	v.SetDefault("max_update_time", d.MaxUpdateTime)
	v.SetDefault("min_sum2_time", d.MinSum2Time)
	v.SetDefault("max_sum2_time", d.MaxSum2Time)
	v.SetDefault("mask.group", d.Mask.Group)
	v.SetDefault("mask.data", d.Mask.Data)
	v.SetDefault("mask.bound", d.Mask.Bound)
	v.SetDefault("mask.model", d.Mask.Model)
	v.SetDefault("model_size", d.ModelSize)
	v.SetDefault("api_bind_address", d.APIBindAddress)
	v.SetDefault("rpc_bind_address", d.RPCBindAddress)
	v.SetDefault("history_size", d.HistorySize)
	v.SetDefault("worker_count", d.WorkerCount)
}

// Validate checks every field and aggregates every violation found,
// rather than stopping at the first, so a misconfigured deployment
// sees the whole list in one run instead of fixing them one at a time.
func (p Parameters) Validate() error {
	var errs wrappers.Errs

	if p.Sum < 0 || p.Sum > 1 {
		errs.Add(fmt.Errorf("config: sum must be in [0,1], got %v", p.Sum))
	}
	if p.Update < 0 || p.Update > 1 {
		errs.Add(fmt.Errorf("config: update must be in [0,1], got %v", p.Update))
	}
	if p.MinSumCount <= 0 {
		errs.Add(fmt.Errorf("config: min_sum_count must be positive, got %d", p.MinSumCount))
	}
	if p.MinUpdateCount <= 0 {
		errs.Add(fmt.Errorf("config: min_update_count must be positive, got %d", p.MinUpdateCount))
	}
	if p.MinSumTime > p.MaxSumTime {
		errs.Add(fmt.Errorf("config: min_sum_time (%s) must be <= max_sum_time (%s)", p.MinSumTime, p.MaxSumTime))
	}
	if p.MinUpdateTime > p.MaxUpdateTime {
		errs.Add(fmt.Errorf("config: min_update_time (%s) must be <= max_update_time (%s)", p.MinUpdateTime, p.MaxUpdateTime))
	}
	if p.MinSum2Time > p.MaxSum2Time {
		errs.Add(fmt.Errorf("config: min_sum2_time (%s) must be <= max_sum2_time (%s)", p.MinSum2Time, p.MaxSum2Time))
	}
	if p.ModelSize <= 0 {
		errs.Add(fmt.Errorf("config: model_size must be positive, got %d", p.ModelSize))
	}
	if _, err := p.Mask.groupType(); err != nil {
		errs.Add(err)
	}
	if _, err := p.Mask.dataType(); err != nil {
		errs.Add(err)
	}
	if _, err := p.Mask.boundType(); err != nil {
		errs.Add(err)
	}
	if _, err := p.Mask.modelType(); err != nil {
		errs.Add(err)
	}

	return errs.Err()
}

// CoordinatorState builds the initial pet.CoordinatorState a fresh
// deployment starts from. RoundParameters.Seed and CoordinatorPK are
// left zero: the Idle phase derives both on the first round. The
// model scalar is fixed at 1/(min_update_count * update), so an
// update participant's masked model is already scaled to the
// aggregation's expected denominator before the coordinator ever sees
// it.
func (p Parameters) CoordinatorState() (pet.CoordinatorState, error) {
	if err := p.Validate(); err != nil {
		return pet.CoordinatorState{}, err
	}

	maskConfig, err := p.Mask.maskConfig()
	if err != nil {
		return pet.CoordinatorState{}, err
	}

	return pet.CoordinatorState{
		Params: pet.RoundParameters{
			Sum:         p.Sum,
			Update:      p.Update,
			ModelScalar: 1 / (float64(p.MinUpdateCount) * p.Update),
		},
		Thresholds: pet.Thresholds{MinSum: p.MinSumCount, MinUpdate: p.MinUpdateCount},
		Durations: pet.PhaseDurations{
			MinSumTime:    p.MinSumTime,
			MaxSumTime:    p.MaxSumTime,
			MinUpdateTime: p.MinUpdateTime,
			MaxUpdateTime: p.MaxUpdateTime,
			MinSum2Time:   p.MinSum2Time,
			MaxSum2Time:   p.MaxSum2Time,
		},
		MaskConfig: maskConfig,
		ModelSize:  p.ModelSize,
	}, nil
}
