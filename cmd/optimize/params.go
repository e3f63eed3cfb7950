// Package main provides CMA-ES optimization for gridlife simulation parameters.
package main

import (
	"math"
	"strconv"
	"strings"

	"github.com/pthm-cable/gridlife/config"
)

// ParamSpec defines a single optimizable parameter.
type ParamSpec struct {
	Name    string  // Human-readable name
	Path    string  // Config path for logging
	Min     float64 // Lower bound
	Max     float64 // Upper bound
	Default float64 // Default value
}

// ParamVector holds the set of all optimizable parameters.
type ParamVector struct {
	Specs []ParamSpec
}

// NewParamVector creates the standard set of optimizable parameters.
func NewParamVector() *ParamVector {
	return &ParamVector{
		Specs: []ParamSpec{
			// Energy
			{Name: "metabolism_cost", Path: "energy.metabolism_cost", Min: 0.25, Max: 2.0, Default: 1.0},
			{Name: "move_cost", Path: "energy.move_cost", Min: 0, Max: 2.0, Default: 0.5},
			// Resources
			{Name: "food_attempts", Path: "resource.food_attempts", Min: 1, Max: 20, Default: 6},
			{Name: "food_gain", Path: "resource.food_gain", Min: 5, Max: 40, Default: 15},
			{Name: "poison_penalty", Path: "resource.poison_penalty", Min: 5, Max: 50, Default: 20},
			// Reproduction
			{Name: "repro_threshold", Path: "reproduction.threshold", Min: 30, Max: 120, Default: 60},
			{Name: "repro_cost", Path: "reproduction.cost", Min: 5, Max: 40, Default: 20},
			{Name: "repro_cooldown", Path: "reproduction.cooldown", Min: 2, Max: 40, Default: 10},
			{Name: "offspring_energy", Path: "reproduction.offspring_energy", Min: 10, Max: 60, Default: 30},
			// Combat
			{Name: "combat_penalty", Path: "combat.penalty", Min: 0, Max: 30, Default: 8},
			{Name: "combat_reward", Path: "combat.reward", Min: 0, Max: 15, Default: 4},
			// Mutation
			{Name: "mutation_rate", Path: "mutation.rate", Min: 0.01, Max: 0.5, Default: 0.1},
		},
	}
}

// Dim returns the number of parameters.
func (pv *ParamVector) Dim() int {
	return len(pv.Specs)
}

// DefaultVector returns the default parameter values as a slice.
func (pv *ParamVector) DefaultVector() []float64 {
	v := make([]float64, len(pv.Specs))
	for i, spec := range pv.Specs {
		v[i] = spec.Default
	}
	return v
}

// Normalize converts raw parameter values to [0,1] range.
func (pv *ParamVector) Normalize(raw []float64) []float64 {
	normalized := make([]float64, len(pv.Specs))
	for i, spec := range pv.Specs {
		normalized[i] = (raw[i] - spec.Min) / (spec.Max - spec.Min)
	}
	return normalized
}

// Denormalize converts [0,1] values back to raw parameter values.
func (pv *ParamVector) Denormalize(normalized []float64) []float64 {
	raw := make([]float64, len(pv.Specs))
	for i, spec := range pv.Specs {
		raw[i] = spec.Min + normalized[i]*(spec.Max-spec.Min)
	}
	return raw
}

// Clamp ensures all values are within bounds.
func (pv *ParamVector) Clamp(v []float64) []float64 {
	clamped := make([]float64, len(pv.Specs))
	for i, spec := range pv.Specs {
		clamped[i] = math.Max(spec.Min, math.Min(spec.Max, v[i]))
	}
	return clamped
}

// ApplyToConfig applies parameter values to a Config struct.
// Order must match Specs order.
func (pv *ParamVector) ApplyToConfig(cfg *config.Config, values []float64) {
	clamped := pv.Clamp(values)
	i := 0
	next := func() float64 {
		v := clamped[i]
		i++
		return v
	}

	cfg.Energy.MetabolismCost = next()
	cfg.Energy.MoveCost = next()

	cfg.Resource.FoodAttempts = int(math.Round(next()))
	cfg.Resource.FoodGain = next()
	cfg.Resource.PoisonPenalty = next()

	cfg.Reproduction.Threshold = next()
	cfg.Reproduction.Cost = next()
	cfg.Reproduction.Cooldown = int(math.Round(next()))
	cfg.Reproduction.OffspringEnergy = next()

	cfg.Combat.Penalty = next()
	cfg.Combat.Reward = next()

	cfg.Mutation.Rate = next()
}

// ExtractFromConfig extracts current parameter values from a Config struct.
func (pv *ParamVector) ExtractFromConfig(cfg *config.Config) []float64 {
	return []float64{
		cfg.Energy.MetabolismCost,
		cfg.Energy.MoveCost,
		float64(cfg.Resource.FoodAttempts),
		cfg.Resource.FoodGain,
		cfg.Resource.PoisonPenalty,
		cfg.Reproduction.Threshold,
		cfg.Reproduction.Cost,
		float64(cfg.Reproduction.Cooldown),
		cfg.Reproduction.OffspringEnergy,
		cfg.Combat.Penalty,
		cfg.Combat.Reward,
		cfg.Mutation.Rate,
	}
}

// Format renders values as name=value pairs separated by semicolons.
func (pv *ParamVector) Format(values []float64) string {
	var b strings.Builder
	for i, spec := range pv.Specs {
		if i > 0 {
			b.WriteByte(';')
		}
		b.WriteString(spec.Name)
		b.WriteByte('=')
		b.WriteString(strconv.FormatFloat(values[i], 'g', 6, 64))
	}
	return b.String()
}
