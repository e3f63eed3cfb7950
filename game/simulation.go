package game

import (
	"github.com/pthm-cable/gridlife/systems"
	"github.com/pthm-cable/gridlife/telemetry"
)

// Step advances the world by one tick:
//  1. remove agents that died during the previous tick
//  2. increment the tick
//  3. index living agents by cell
//  4. spawn resources on unoccupied cells
//  5. metabolize, move and feed each agent in collection order
//  6. resolve reproduction then combat per shared cell
//  7. admit the tick's births
//  8. update lifetime telemetry
//
// A world without living agents still advances its tick and spawns
// resources.
func (w *World) Step() {
	w.perf.StartTick()
	w.events = w.events[:0]

	w.perf.StartPhase(telemetry.PhaseCleanup)
	w.cleanupDead()

	w.tick++

	w.perf.StartPhase(telemetry.PhaseIndex)
	agents := w.views()
	w.updateOccupancy(w.preMove, agents)

	w.perf.StartPhase(telemetry.PhaseSpawn)
	w.updateResources()

	w.perf.StartPhase(telemetry.PhaseMove)
	w.updateAgents(agents)

	w.perf.StartPhase(telemetry.PhaseInteract)
	w.updateOccupancy(w.postMove, agents)
	w.updateInteractions()

	w.perf.StartPhase(telemetry.PhaseAdmit)
	w.admitBirths()

	w.perf.StartPhase(telemetry.PhaseTelemetry)
	w.updateLifetimes()

	w.perf.EndTick()
}

// updateOccupancy rebuilds grid from the living agents.
func (w *World) updateOccupancy(grid *systems.OccupancyGrid, agents []systems.Agent) {
	grid.Clear()
	for _, a := range agents {
		if a.Alive() {
			grid.Insert(a)
		}
	}
}

// updateResources spawns food and poison away from living agents.
func (w *World) updateResources() {
	res := w.cfg.Resource
	w.env.Spawn(w.rng,
		res.FoodAttempts, res.PoisonAttempts,
		res.MaxFood, res.MaxPoison,
		w.preMove.Occupied,
	)
}

// updateAgents runs each agent's turn: upkeep, movement against the
// pre-move snapshot, then consumption at the destination.
func (w *World) updateAgents(agents []systems.Agent) {
	metabolism := w.cfg.Energy.MetabolismCost
	moveCost := w.cfg.Energy.MoveCost

	for _, a := range agents {
		if !a.Alive() {
			continue
		}

		if systems.Metabolize(a.Energy, a.Org, metabolism) {
			w.recordDeath(a, telemetry.CauseStarvation)
			continue
		}

		m := systems.ChooseMove(w.rng, a, w.env, w.preMove, moveCost)
		a.Pos.X, a.Pos.Y = m.X, m.Y

		if !m.Stay() && systems.Drain(a.Energy, moveCost) {
			w.recordDeath(a, telemetry.CauseExhaustion)
			continue
		}

		switch w.env.Consume(a.Pos.X, a.Pos.Y, a.Energy) {
		case systems.Food:
			w.events = append(w.events, telemetry.NewEatEvent(w.tick, a.ID(), false))
		case systems.Poison:
			w.events = append(w.events, telemetry.NewEatEvent(w.tick, a.ID(), true))
			if !a.Alive() {
				w.recordDeath(a, telemetry.CausePoison)
			}
		}
	}
}

// updateInteractions resolves reproduction then combat in every shared
// cell, in first-encounter order. Births are buffered until admitBirths.
func (w *World) updateInteractions() {
	for _, group := range w.postMove.Groups() {
		if len(group) < 2 {
			continue
		}

		if birth, ok := systems.ResolveReproduction(w.rng, group, w.breeding); ok {
			w.births = append(w.births, birth)
		}

		for _, f := range systems.ResolveCombat(w.rng, group, w.combat) {
			w.events = append(w.events, telemetry.NewFightEvent(w.tick, f.WinnerID, f.LoserID))
			if f.Killed {
				for _, a := range group {
					if a.ID() == f.LoserID {
						w.recordDeath(a, telemetry.CauseCombat)
						break
					}
				}
			}
		}
	}
}

// updateLifetimes feeds the tick's events to the lifetime tracker and
// tracks peak energy of the living.
func (w *World) updateLifetimes() {
	for _, ev := range w.events {
		w.lifetimes.Record(ev)
	}

	query := w.entityFilter.Query()
	for query.Next() {
		_, energy, org, _ := query.Get()
		if energy.Alive {
			w.lifetimes.UpdateEnergy(org.ID, energy.Value)
		}
	}
}
