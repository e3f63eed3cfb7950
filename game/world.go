// Package game runs the simulation: the World tick, the Simulation lifecycle
// that drives telemetry, and the Runner that steps it on a schedule.
package game

import (
	"math/rand"

	"github.com/mlange-42/ark/ecs"

	"github.com/pthm-cable/gridlife/components"
	"github.com/pthm-cable/gridlife/config"
	"github.com/pthm-cable/gridlife/systems"
	"github.com/pthm-cable/gridlife/telemetry"
)

// World holds one populated grid and advances it a tick at a time.
// A World is not safe for concurrent use.
type World struct {
	cfg *config.Config
	rng *rand.Rand

	ecs *ecs.World
	// Entity mapper and filter over the four agent components
	entityMapper *ecs.Map4[
		components.Position,
		components.Energy,
		components.Organism,
		components.Genome,
	]
	entityFilter *ecs.Filter4[
		components.Position,
		components.Energy,
		components.Organism,
		components.Genome,
	]

	// Agents in collection order; births are appended.
	agents []ecs.Entity
	byID   map[uint32]ecs.Entity

	env      *systems.Environment
	preMove  *systems.OccupancyGrid // snapshot read by the movement heuristic
	postMove *systems.OccupancyGrid // groups for reproduction and combat

	breeding systems.BreedingParams
	combat   systems.CombatParams

	births []systems.Birth
	events []telemetry.Event

	lifetimes *telemetry.LifetimeTracker
	perf      *telemetry.PerfCollector

	tick   int
	nextID uint32
}

// NewWorld creates a world from a validated config and spawns the initial
// population.
func NewWorld(cfg *config.Config, seed int64) *World {
	world := ecs.NewWorld()
	w, h := cfg.World.Width, cfg.World.Height

	wd := &World{
		cfg: cfg,
		rng: rand.New(rand.NewSource(seed)),
		ecs: world,
		entityMapper: ecs.NewMap4[
			components.Position,
			components.Energy,
			components.Organism,
			components.Genome,
		](world),
		entityFilter: ecs.NewFilter4[
			components.Position,
			components.Energy,
			components.Organism,
			components.Genome,
		](world),
		byID:     make(map[uint32]ecs.Entity),
		env:      systems.NewEnvironment(w, h, cfg.Resource.FoodGain, cfg.Resource.PoisonPenalty),
		preMove:  systems.NewOccupancyGrid(w, h),
		postMove: systems.NewOccupancyGrid(w, h),
		breeding: systems.BreedingParams{
			Threshold:        cfg.Reproduction.Threshold,
			Cost:             cfg.Reproduction.Cost,
			Cooldown:         cfg.Reproduction.Cooldown,
			OffspringEnergy:  cfg.Reproduction.OffspringEnergy,
			MutationRate:     cfg.Mutation.Rate,
			MutationStrength: cfg.Mutation.Strength,
		},
		combat: systems.CombatParams{
			Penalty: cfg.Combat.Penalty,
			Reward:  cfg.Combat.Reward,
		},
		lifetimes: telemetry.NewLifetimeTracker(),
		perf:      telemetry.NewPerfCollector(cfg.Telemetry.PerfWindow),
		nextID:    1,
	}

	wd.spawnInitialPopulation()
	return wd
}

// agent returns the component view of an entity.
func (w *World) agent(e ecs.Entity) systems.Agent {
	pos, energy, org, genome := w.entityMapper.Get(e)
	return systems.Agent{Pos: pos, Energy: energy, Org: org, Genome: genome}
}

// views returns component views of all agents in collection order.
// Views are invalidated by the next entity creation or removal.
func (w *World) views() []systems.Agent {
	out := make([]systems.Agent, len(w.agents))
	for i, e := range w.agents {
		out[i] = w.agent(e)
	}
	return out
}

// Tick returns the number of completed steps.
func (w *World) Tick() int { return w.tick }

// Width returns the grid width in cells.
func (w *World) Width() int { return w.env.Width() }

// Height returns the grid height in cells.
func (w *World) Height() int { return w.env.Height() }

// Config returns the validated config the world was created with.
func (w *World) Config() *config.Config { return w.cfg }

// Events returns the events of the last step. The slice is reused by the
// next step.
func (w *World) Events() []telemetry.Event { return w.events }

// Perf returns the world's step timing collector.
func (w *World) Perf() *telemetry.PerfCollector { return w.perf }

// AliveCount returns the number of living agents.
func (w *World) AliveCount() int {
	n := 0
	query := w.entityFilter.Query()
	for query.Next() {
		_, energy, _, _ := query.Get()
		if energy.Alive {
			n++
		}
	}
	return n
}

// Extinct reports whether no living agent remains.
func (w *World) Extinct() bool {
	return w.AliveCount() == 0
}

// Cell returns the resource marker at (x, y), wrapped.
func (w *World) Cell(x, y int) systems.Resource {
	return w.env.At(x, y)
}

// Cells returns a row-major copy of the resource grid.
func (w *World) Cells() []systems.Resource {
	return w.env.Cells()
}

// Counts returns how many food and poison markers are placed.
func (w *World) Counts() (food, poison int) {
	return w.env.Counts()
}

// SetCell places a resource marker, for scenario setup.
func (w *World) SetCell(x, y int, r systems.Resource) {
	w.env.Set(x, y, r)
}

// SamplePopulation collects per-agent values of the living population.
func (w *World) SamplePopulation() *telemetry.PopulationSample {
	sample := &telemetry.PopulationSample{}
	query := w.entityFilter.Query()
	for query.Next() {
		_, energy, org, genome := query.Get()
		if !energy.Alive {
			continue
		}
		sample.Add(org.Sex, energy.Value, energy.Age, org.Generation, genome.Traits)
	}
	return sample
}
