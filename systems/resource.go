package systems

import (
	"math/rand"

	"github.com/pthm-cable/gridlife/components"
)

// Resource is the marker held by one grid cell.
type Resource uint8

const (
	Empty Resource = iota
	Food
	Poison
)

// String returns the marker name.
func (r Resource) String() string {
	switch r {
	case Food:
		return "food"
	case Poison:
		return "poison"
	default:
		return "empty"
	}
}

// Environment is a toroidal grid of resource markers with running counts.
type Environment struct {
	width, height int
	cells         []Resource
	food, poison  int

	foodGain      float64
	poisonPenalty float64
}

// NewEnvironment creates an empty grid.
func NewEnvironment(width, height int, foodGain, poisonPenalty float64) *Environment {
	return &Environment{
		width:         width,
		height:        height,
		cells:         make([]Resource, width*height),
		foodGain:      foodGain,
		poisonPenalty: poisonPenalty,
	}
}

// Width returns the grid width in cells.
func (e *Environment) Width() int { return e.width }

// Height returns the grid height in cells.
func (e *Environment) Height() int { return e.height }

// Wrap maps any coordinate pair onto the grid.
func (e *Environment) Wrap(x, y int) (int, int) {
	return Wrap(x, e.width), Wrap(y, e.height)
}

func (e *Environment) index(x, y int) int {
	x, y = e.Wrap(x, y)
	return y*e.width + x
}

// At returns the marker at (x, y), wrapped.
func (e *Environment) At(x, y int) Resource {
	return e.cells[e.index(x, y)]
}

// Set replaces the marker at (x, y), keeping counts consistent.
func (e *Environment) Set(x, y int, r Resource) {
	idx := e.index(x, y)
	e.remove(e.cells[idx])
	e.cells[idx] = r
	switch r {
	case Food:
		e.food++
	case Poison:
		e.poison++
	}
}

// Counts returns how many food and poison markers are placed.
func (e *Environment) Counts() (food, poison int) {
	return e.food, e.poison
}

// Cells returns a row-major copy of the grid.
func (e *Environment) Cells() []Resource {
	out := make([]Resource, len(e.cells))
	copy(out, e.cells)
	return out
}

// Spawn performs independent placement attempts for food then poison.
// An attempt is skipped once its resource is at the cap, and fails silently
// when no empty, unoccupied cell turns up within width*height random draws.
// occupied may be nil.
func (e *Environment) Spawn(rng *rand.Rand, foodAttempts, poisonAttempts, maxFood, maxPoison int, occupied func(x, y int) bool) (placedFood, placedPoison int) {
	for i := 0; i < foodAttempts; i++ {
		if e.food >= maxFood {
			break
		}
		if e.place(rng, Food, occupied) {
			placedFood++
		}
	}
	for i := 0; i < poisonAttempts; i++ {
		if e.poison >= maxPoison {
			break
		}
		if e.place(rng, Poison, occupied) {
			placedPoison++
		}
	}
	return placedFood, placedPoison
}

func (e *Environment) place(rng *rand.Rand, r Resource, occupied func(x, y int) bool) bool {
	tries := e.width * e.height
	for i := 0; i < tries; i++ {
		x := rng.Intn(e.width)
		y := rng.Intn(e.height)
		idx := y*e.width + x
		if e.cells[idx] != Empty {
			continue
		}
		if occupied != nil && occupied(x, y) {
			continue
		}
		e.cells[idx] = r
		if r == Food {
			e.food++
		} else {
			e.poison++
		}
		return true
	}
	return false
}

// Consume applies the marker at (x, y) to the agent's energy and clears the
// cell. Food adds the configured gain; poison drains the configured penalty
// and can kill. Returns the marker that was consumed.
func (e *Environment) Consume(x, y int, energy *components.Energy) Resource {
	idx := e.index(x, y)
	r := e.cells[idx]
	switch r {
	case Food:
		Gain(energy, e.foodGain)
	case Poison:
		Drain(energy, e.poisonPenalty)
	default:
		return Empty
	}
	e.cells[idx] = Empty
	e.remove(r)
	return r
}

// remove decrements the count for r, never below zero.
func (e *Environment) remove(r Resource) {
	switch r {
	case Food:
		if e.food > 0 {
			e.food--
		}
	case Poison:
		if e.poison > 0 {
			e.poison--
		}
	}
}
