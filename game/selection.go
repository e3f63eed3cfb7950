package game

import (
	"github.com/pthm-cable/gridlife/systems"
	"github.com/pthm-cable/gridlife/telemetry"
	"github.com/pthm-cable/gridlife/traits"
)

// AgentView is a read-only copy of one agent's state.
type AgentView struct {
	ID         uint32             `json:"id"`
	Sex        string             `json:"sex"`
	X          int                `json:"x"`
	Y          int                `json:"y"`
	Energy     float64            `json:"energy"`
	Age        int                `json:"age"`
	Alive      bool               `json:"alive"`
	Generation int                `json:"generation"`
	Cooldown   int                `json:"cooldown"`
	Traits     map[string]float64 `json:"traits"`

	Genome traits.Set `json:"-"`
}

// AgentDetail is an agent view with its lifetime statistics.
type AgentDetail struct {
	AgentView
	Lifetime *telemetry.LifetimeStats `json:"lifetime,omitempty"`
}

func newAgentView(a systems.Agent) AgentView {
	return AgentView{
		ID:         a.Org.ID,
		Sex:        a.Org.Sex.String(),
		X:          a.Pos.X,
		Y:          a.Pos.Y,
		Energy:     a.Energy.Value,
		Age:        a.Energy.Age,
		Alive:      a.Energy.Alive,
		Generation: a.Org.Generation,
		Cooldown:   a.Org.ReproCooldown,
		Traits:     a.Genome.Traits.Map(),
		Genome:     a.Genome.Traits,
	}
}

// Agents returns a snapshot of every agent in collection order. Agents
// that died during the last tick are included until the next step.
func (w *World) Agents() []AgentView {
	out := make([]AgentView, 0, len(w.agents))
	for _, e := range w.agents {
		out = append(out, newAgentView(w.agent(e)))
	}
	return out
}

// Agent looks up an agent by id. Agents are selected by id rather than by
// reference, so a selection survives the agent's removal as a failed lookup.
func (w *World) Agent(id uint32) (AgentView, bool) {
	e, ok := w.byID[id]
	if !ok || !w.ecs.Alive(e) {
		return AgentView{}, false
	}
	return newAgentView(w.agent(e)), true
}

// Detail returns an agent view with lifetime statistics.
func (w *World) Detail(id uint32) (AgentDetail, bool) {
	view, ok := w.Agent(id)
	if !ok {
		return AgentDetail{}, false
	}
	detail := AgentDetail{AgentView: view}
	if ls := w.lifetimes.Get(id); ls != nil {
		cp := *ls
		detail.Lifetime = &cp
	}
	return detail, true
}
