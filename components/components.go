// Package components defines ECS components for the simulation.
package components

// Position is an agent's cell on the toroidal grid.
type Position struct {
	X, Y int
}

// Sex is one of the two agent sexes.
type Sex uint8

const (
	Male Sex = iota
	Female
)

// String returns "M" or "F".
func (s Sex) String() string {
	if s == Female {
		return "F"
	}
	return "M"
}

// Opposite returns the other sex.
func (s Sex) Opposite() Sex {
	if s == Female {
		return Male
	}
	return Female
}
