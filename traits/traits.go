// Package traits defines the heritable trait set carried by every agent.
package traits

import (
	"math"
	"math/rand"
)

// Trait identifies one heritable parameter.
type Trait uint8

const (
	VisionRange              Trait = iota // radius of the neighborhood scan
	FoodAttraction                        // weight toward food cells
	PoisonAversion                        // weight away from poison cells
	MateAttraction                        // weight toward opposite-sex neighbors
	CrowdingAversion                      // weight away from any neighbors
	LowEnergyThreshold                    // below this, foraging is prioritized
	ReproduceEnergyThreshold              // above this, mating is prioritized

	NumTraits int = iota
)

// Mutation defaults used when reproduction does not override them.
const (
	DefaultMutationRate     = 0.1
	DefaultMutationStrength = 0.2
)

var names = [NumTraits]string{
	"visionRange",
	"foodAttraction",
	"poisonAversion",
	"mateAttraction",
	"crowdingAversion",
	"lowEnergyThreshold",
	"reproduceEnergyThreshold",
}

// String returns the camelCase trait name.
func (t Trait) String() string {
	if int(t) >= NumTraits {
		return "unknown"
	}
	return names[t]
}

// All lists every trait in declaration order.
func All() []Trait {
	all := make([]Trait, NumTraits)
	for i := range all {
		all[i] = Trait(i)
	}
	return all
}

// Bound is an inclusive [Min, Max] range for one trait.
type Bound struct {
	Min, Max float64
}

// bounds holds the clamping range per trait. A trait missing from this
// table is not clamped.
var bounds = map[Trait]Bound{
	VisionRange:              {Min: 1, Max: 3},
	FoodAttraction:           {Min: 0, Max: 3},
	PoisonAversion:           {Min: 0, Max: 3},
	MateAttraction:           {Min: 0, Max: 3},
	CrowdingAversion:         {Min: 0, Max: 3},
	LowEnergyThreshold:       {Min: 10, Max: 80},
	ReproduceEnergyThreshold: {Min: 40, Max: 120},
}

// Bounds returns the clamping range of t, if it has one.
func Bounds(t Trait) (Bound, bool) {
	b, ok := bounds[t]
	return b, ok
}

// Clamp limits v to the bounds of t; NaN maps to the minimum. Unbounded
// traits pass through.
func Clamp(t Trait, v float64) float64 {
	b, ok := bounds[t]
	if !ok {
		return v
	}
	if math.IsNaN(v) || v < b.Min {
		return b.Min
	}
	if v > b.Max {
		return b.Max
	}
	return v
}

// Set holds one value per trait. Values are integral after Sample or
// Crossover; float64 storage lets crossover detect non-finite inputs.
type Set [NumTraits]float64

// Get returns the value of t.
func (s Set) Get(t Trait) float64 {
	return s[t]
}

// Int returns the value of t as an int.
func (s Set) Int(t Trait) int {
	return int(s[t])
}

// Valid reports whether every trait is finite and within its bounds.
func (s Set) Valid() bool {
	for i, v := range s {
		if math.IsNaN(v) || math.IsInf(v, 0) {
			return false
		}
		if Clamp(Trait(i), v) != v {
			return false
		}
	}
	return true
}

// Map returns the set keyed by trait name, for JSON frames and logs.
func (s Set) Map() map[string]float64 {
	m := make(map[string]float64, NumTraits)
	for i, v := range s {
		m[names[i]] = v
	}
	return m
}

// Sample draws each trait uniformly from its integer range.
func Sample(rng *rand.Rand) Set {
	var s Set
	for i := range s {
		b, ok := bounds[Trait(i)]
		if !ok {
			continue
		}
		lo, hi := int(b.Min), int(b.Max)
		s[i] = float64(lo + rng.Intn(hi-lo+1))
	}
	return s
}

// Crossover builds a child trait set from two parents. Each trait is taken
// from a or b on a fair coin, mutated with probability rate by a relative
// delta in [-strength, +strength], rounded and clamped.
func Crossover(rng *rand.Rand, a, b Set, rate, strength float64) Set {
	var child Set
	for i := range child {
		t := Trait(i)
		picked, other := a[i], b[i]
		if rng.Float64() < 0.5 {
			picked, other = b[i], a[i]
		}
		v := picked
		if !finite(v) {
			v = other
		}
		if !finite(v) {
			v = 0
			if bd, ok := bounds[t]; ok {
				v = bd.Min
			}
		}

		if rng.Float64() < rate {
			delta := (rng.Float64()*2 - 1) * strength
			v *= 1 + delta
		}

		child[i] = Clamp(t, math.Round(v))
	}
	return child
}

func finite(v float64) bool {
	return !math.IsNaN(v) && !math.IsInf(v, 0)
}
