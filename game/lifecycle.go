package game

import (
	"github.com/mlange-42/ark/ecs"

	"github.com/pthm-cable/gridlife/components"
	"github.com/pthm-cable/gridlife/systems"
	"github.com/pthm-cable/gridlife/telemetry"
	"github.com/pthm-cable/gridlife/traits"
)

// spawnInitialPopulation creates the founders: random sex, uniform position,
// uniform energy in the configured range, sampled traits, generation 0.
func (w *World) spawnInitialPopulation() {
	cfg := w.cfg
	span := cfg.Population.EnergyMax - cfg.Population.EnergyMin

	for i := 0; i < cfg.Population.Initial; i++ {
		sex := components.Male
		if w.rng.Float64() < 0.5 {
			sex = components.Female
		}
		x := w.rng.Intn(cfg.World.Width)
		y := w.rng.Intn(cfg.World.Height)
		energy := cfg.Population.EnergyMin + w.rng.Float64()*span

		w.spawnAgent(x, y, energy, sex, 0, traits.Sample(w.rng), 0, 0)
	}
}

// spawnAgent creates an agent entity with the next id and registers it.
func (w *World) spawnAgent(x, y int, value float64, sex components.Sex, generation int, set traits.Set, motherID, fatherID uint32) uint32 {
	id := w.nextID
	w.nextID++

	x, y = w.env.Wrap(x, y)
	pos := components.Position{X: x, Y: y}
	energy := components.Energy{Value: value, Alive: value > 0}
	org := components.Organism{ID: id, Sex: sex, Generation: generation}
	genome := components.Genome{Traits: set}

	entity := w.entityMapper.NewEntity(&pos, &energy, &org, &genome)
	w.agents = append(w.agents, entity)
	w.byID[id] = entity

	w.lifetimes.Register(id, w.tick, generation, motherID, fatherID, value)
	return id
}

// admitBirths turns the tick's buffered births into agents.
func (w *World) admitBirths() {
	for _, b := range w.births {
		id := w.spawnAgent(b.X, b.Y, b.Energy, b.Sex, b.Generation, b.Traits, b.MotherID, b.FatherID)
		w.events = append(w.events, telemetry.NewBirthEvent(w.tick, id, b.MotherID))
	}
	w.births = w.births[:0]
}

// cleanupDead removes agents that died during the previous tick, keeping
// the collection order of the survivors.
func (w *World) cleanupDead() {
	var dead []ecs.Entity
	alive := w.agents[:0]
	for _, e := range w.agents {
		_, energy, org, _ := w.entityMapper.Get(e)
		if energy.Alive {
			alive = append(alive, e)
			continue
		}
		dead = append(dead, e)
		delete(w.byID, org.ID)
		w.lifetimes.Remove(org.ID)
	}
	w.agents = alive

	for _, e := range dead {
		w.ecs.RemoveEntity(e)
	}
}

// recordDeath emits a death event for an agent that just died.
func (w *World) recordDeath(a systems.Agent, cause telemetry.DeathCause) {
	w.events = append(w.events, telemetry.NewDeathEvent(w.tick, a.ID(), cause, a.Energy.Age))
}
