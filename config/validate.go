package config

import (
	"fmt"
	"math"

	"gopkg.in/yaml.v3"
)

// Hard limits applied by Validate.
const (
	MaxDimension   = 1000
	MaxPopulation  = 100000
	MinTicksPerSec = 0.1
)

// Validate clamps every field into its usable range and returns a
// description of each adjustment made. The core never re-checks these
// values, so this is the only place configuration is sanitized.
func (c *Config) Validate() []string {
	var notes []string
	note := func(field string, from, to any) {
		notes = append(notes, fmt.Sprintf("%s: %v -> %v", field, from, to))
	}
	clampInt := func(field string, v *int, lo, hi int) {
		if *v < lo {
			note(field, *v, lo)
			*v = lo
		} else if *v > hi {
			note(field, *v, hi)
			*v = hi
		}
	}
	atLeast := func(field string, v *float64, lo float64) {
		if *v < lo {
			note(field, *v, lo)
			*v = lo
		}
	}
	unit := func(field string, v *float64) {
		if *v < 0 {
			note(field, *v, 0)
			*v = 0
		} else if *v > 1 {
			note(field, *v, 1)
			*v = 1
		}
	}

	// Non-finite floats slip past every comparison below, so they are
	// replaced with the embedded defaults first.
	def := embeddedDefaults()
	finite := func(field string, v *float64, fallback float64) {
		if math.IsNaN(*v) || math.IsInf(*v, 0) {
			note(field, *v, fallback)
			*v = fallback
		}
	}
	finite("population.energy_min", &c.Population.EnergyMin, def.Population.EnergyMin)
	finite("population.energy_max", &c.Population.EnergyMax, def.Population.EnergyMax)
	finite("energy.metabolism_cost", &c.Energy.MetabolismCost, def.Energy.MetabolismCost)
	finite("energy.move_cost", &c.Energy.MoveCost, def.Energy.MoveCost)
	finite("resource.food_gain", &c.Resource.FoodGain, def.Resource.FoodGain)
	finite("resource.poison_penalty", &c.Resource.PoisonPenalty, def.Resource.PoisonPenalty)
	finite("reproduction.threshold", &c.Reproduction.Threshold, def.Reproduction.Threshold)
	finite("reproduction.cost", &c.Reproduction.Cost, def.Reproduction.Cost)
	finite("reproduction.offspring_energy", &c.Reproduction.OffspringEnergy, def.Reproduction.OffspringEnergy)
	finite("combat.penalty", &c.Combat.Penalty, def.Combat.Penalty)
	finite("combat.reward", &c.Combat.Reward, def.Combat.Reward)
	finite("mutation.rate", &c.Mutation.Rate, def.Mutation.Rate)
	finite("mutation.strength", &c.Mutation.Strength, def.Mutation.Strength)
	finite("bookmarks.crash_drop_percent", &c.Bookmarks.CrashDropPercent, def.Bookmarks.CrashDropPercent)
	finite("bookmarks.stable_cv", &c.Bookmarks.StableCV, def.Bookmarks.StableCV)
	finite("server.ticks_per_second", &c.Server.TicksPerSecond, def.Server.TicksPerSecond)

	clampInt("world.width", &c.World.Width, 1, MaxDimension)
	clampInt("world.height", &c.World.Height, 1, MaxDimension)

	clampInt("population.initial", &c.Population.Initial, 0, MaxPopulation)
	atLeast("population.energy_min", &c.Population.EnergyMin, 0)
	if c.Population.EnergyMax < c.Population.EnergyMin {
		note("population.energy_max", c.Population.EnergyMax, c.Population.EnergyMin)
		c.Population.EnergyMax = c.Population.EnergyMin
	}

	atLeast("energy.metabolism_cost", &c.Energy.MetabolismCost, 0)
	atLeast("energy.move_cost", &c.Energy.MoveCost, 0)

	cells := c.World.Width * c.World.Height
	clampInt("resource.food_attempts", &c.Resource.FoodAttempts, 0, cells)
	clampInt("resource.poison_attempts", &c.Resource.PoisonAttempts, 0, cells)
	clampInt("resource.max_food", &c.Resource.MaxFood, 0, cells)
	clampInt("resource.max_poison", &c.Resource.MaxPoison, 0, cells)
	atLeast("resource.food_gain", &c.Resource.FoodGain, 0)
	atLeast("resource.poison_penalty", &c.Resource.PoisonPenalty, 0)

	atLeast("reproduction.threshold", &c.Reproduction.Threshold, 0)
	atLeast("reproduction.cost", &c.Reproduction.Cost, 0)
	clampInt("reproduction.cooldown", &c.Reproduction.Cooldown, 0, 1<<20)
	atLeast("reproduction.offspring_energy", &c.Reproduction.OffspringEnergy, 0)

	atLeast("combat.penalty", &c.Combat.Penalty, 0)
	atLeast("combat.reward", &c.Combat.Reward, 0)

	unit("mutation.rate", &c.Mutation.Rate)
	atLeast("mutation.strength", &c.Mutation.Strength, 0)

	clampInt("telemetry.stats_window", &c.Telemetry.StatsWindow, 1, 1<<30)
	clampInt("telemetry.bookmark_history_size", &c.Telemetry.BookmarkHistorySize, 5, 1<<16)
	clampInt("telemetry.perf_window", &c.Telemetry.PerfWindow, 1, 1<<16)

	unit("bookmarks.crash_drop_percent", &c.Bookmarks.CrashDropPercent)
	clampInt("bookmarks.crash_min_drop", &c.Bookmarks.CrashMinDrop, 0, MaxPopulation)
	clampInt("bookmarks.boom_births", &c.Bookmarks.BoomBirths, 1, 1<<30)
	clampInt("bookmarks.stable_windows", &c.Bookmarks.StableWindows, 1, 1<<16)
	atLeast("bookmarks.stable_cv", &c.Bookmarks.StableCV, 0)

	if c.Server.Addr == "" {
		note("server.addr", `""`, ":8080")
		c.Server.Addr = ":8080"
	}
	atLeast("server.ticks_per_second", &c.Server.TicksPerSecond, MinTicksPerSec)

	return notes
}

// embeddedDefaults parses defaults.yaml without validating it.
func embeddedDefaults() Config {
	var def Config
	if err := yaml.Unmarshal(defaultsYAML, &def); err != nil {
		panic(fmt.Sprintf("config: embedded defaults do not parse: %v", err))
	}
	return def
}
