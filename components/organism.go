package components

import "github.com/pthm-cable/gridlife/traits"

// Energy tracks an agent's metabolic state.
// Value never stays below zero: any deduction that reaches zero kills the agent.
type Energy struct {
	Value float64 // absolute energy
	Age   int     // ticks alive
	Alive bool
}

// Organism bundles identity, sex, and reproduction state.
type Organism struct {
	ID            uint32
	Sex           Sex
	ReproCooldown int // ticks until the agent may reproduce again
	Generation    int
}

// Genome holds the agent's heritable trait set.
type Genome struct {
	Traits traits.Set
}
