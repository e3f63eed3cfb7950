package telemetry

import "github.com/pthm-cable/gridlife/traits"

// Collector accumulates events within tick windows and produces WindowStats.
type Collector struct {
	windowTicks     int
	windowStartTick int

	// Event counters for current window
	births      int
	deaths      [numCauses]int
	fights      int
	foodEaten   int
	poisonEaten int

	lifespanSum   int
	lifespanCount int
}

// NewCollector creates a collector that flushes every windowTicks ticks.
func NewCollector(windowTicks int) *Collector {
	if windowTicks < 1 {
		windowTicks = 1
	}
	return &Collector{windowTicks: windowTicks}
}

// Record counts one event in the current window.
func (c *Collector) Record(ev Event) {
	switch ev.Type {
	case EventBirth:
		c.births++
	case EventDeath:
		c.deaths[ev.Cause]++
		c.lifespanSum += ev.Age
		c.lifespanCount++
	case EventFight:
		c.fights++
	case EventFood:
		c.foodEaten++
	case EventPoison:
		c.poisonEaten++
	}
}

// ShouldFlush returns true if enough ticks have passed to flush the window.
func (c *Collector) ShouldFlush(currentTick int) bool {
	return currentTick-c.windowStartTick >= c.windowTicks
}

// Flush produces a WindowStats from the window's counters and a sample of
// the living population, then resets counters for the next window.
func (c *Collector) Flush(currentTick int, pop *PopulationSample, food, poison int) WindowStats {
	energyMean, energyStd, p10, p50, p90 := ComputeDistribution(pop.Energies)

	var lifespan float64
	if c.lifespanCount > 0 {
		lifespan = float64(c.lifespanSum) / float64(c.lifespanCount)
	}

	stats := WindowStats{
		WindowStartTick: c.windowStartTick,
		WindowEndTick:   currentTick,

		Population:    pop.Count(),
		Males:         pop.Males,
		Females:       pop.Females,
		MaxGeneration: pop.MaxGeneration,

		Food:   food,
		Poison: poison,

		Births:           c.births,
		DeathsStarvation: c.deaths[CauseStarvation],
		DeathsExhaustion: c.deaths[CauseExhaustion],
		DeathsPoison:     c.deaths[CausePoison],
		DeathsCombat:     c.deaths[CauseCombat],
		Fights:           c.fights,
		FoodEaten:        c.foodEaten,
		PoisonEaten:      c.poisonEaten,
		MeanLifespan:     lifespan,

		EnergyMean: energyMean,
		EnergyStd:  energyStd,
		EnergyP10:  p10,
		EnergyP50:  p50,
		EnergyP90:  p90,

		AgeMean: meanOf(pop.Ages),

		VisionRange:              meanOf(pop.Traits[traits.VisionRange]),
		FoodAttraction:           meanOf(pop.Traits[traits.FoodAttraction]),
		PoisonAversion:           meanOf(pop.Traits[traits.PoisonAversion]),
		MateAttraction:           meanOf(pop.Traits[traits.MateAttraction]),
		CrowdingAversion:         meanOf(pop.Traits[traits.CrowdingAversion]),
		LowEnergyThreshold:       meanOf(pop.Traits[traits.LowEnergyThreshold]),
		ReproduceEnergyThreshold: meanOf(pop.Traits[traits.ReproduceEnergyThreshold]),
	}

	// Reset for next window
	c.windowStartTick = currentTick
	c.births = 0
	c.deaths = [numCauses]int{}
	c.fights = 0
	c.foodEaten = 0
	c.poisonEaten = 0
	c.lifespanSum = 0
	c.lifespanCount = 0

	return stats
}

// WindowTicks returns the number of ticks per window.
func (c *Collector) WindowTicks() int {
	return c.windowTicks
}
