package systems

import "github.com/pthm-cable/gridlife/components"

// Drain removes energy and kills the agent when it reaches zero.
// Returns true if this call killed the agent.
func Drain(e *components.Energy, amount float64) bool {
	if !e.Alive {
		return false
	}
	e.Value -= amount
	if e.Value <= 0 {
		e.Value = 0
		e.Alive = false
		return true
	}
	return false
}

// Gain adds energy to a living agent.
func Gain(e *components.Energy, amount float64) {
	if e.Alive {
		e.Value += amount
	}
}

// Metabolize advances one tick of an agent's life: the reproduction cooldown
// counts down, age increases, and the metabolism cost is paid.
// Returns true if the agent starved.
func Metabolize(e *components.Energy, org *components.Organism, cost float64) bool {
	if !e.Alive {
		return false
	}
	if org.ReproCooldown > 0 {
		org.ReproCooldown--
	}
	e.Age++
	return Drain(e, cost)
}
