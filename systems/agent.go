// Package systems implements the per-tick rules of the simulation: the
// resource grid, occupancy index, movement heuristic, and the reproduction
// and combat resolvers.
package systems

import (
	"github.com/pthm-cable/gridlife/components"
	"github.com/pthm-cable/gridlife/traits"
)

// Agent is a view over one agent's components. Systems mutate the
// components through these pointers; the view itself is cheap to copy.
type Agent struct {
	Pos    *components.Position
	Energy *components.Energy
	Org    *components.Organism
	Genome *components.Genome
}

// ID returns the agent's id.
func (a Agent) ID() uint32 {
	return a.Org.ID
}

// Alive reports whether the agent is alive.
func (a Agent) Alive() bool {
	return a.Energy.Alive
}

// Trait returns the value of one heritable trait.
func (a Agent) Trait(t traits.Trait) float64 {
	return a.Genome.Traits.Get(t)
}
