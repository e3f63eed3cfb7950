package systems

import (
	"math/rand"

	"github.com/pthm-cable/gridlife/components"
)

// CombatParams configures the combat resolver.
type CombatParams struct {
	Penalty float64 // taken by the loser
	Reward  float64 // gained by the winner
}

// Fight records the outcome of one same-sex rivalry.
type Fight struct {
	WinnerID uint32
	LoserID  uint32
	Killed   bool // loser died from the penalty
}

// ResolveCombat runs at most one fight per sex among agents sharing a cell.
// The two highest-energy members of a sex fight; the winner is drawn with
// probability proportional to energy.
func ResolveCombat(rng *rand.Rand, group []Agent, p CombatParams) []Fight {
	var fights []Fight
	for _, sex := range [2]components.Sex{components.Male, components.Female} {
		a, b, ok := topTwo(group, sex)
		if !ok || !a.Energy.Alive || !b.Energy.Alive {
			continue
		}

		total := a.Energy.Value + b.Energy.Value
		if total < 1 {
			total = 1
		}
		winner, loser := b, a
		if rng.Float64()*total < a.Energy.Value {
			winner, loser = a, b
		}

		killed := Drain(loser.Energy, p.Penalty)
		Gain(winner.Energy, p.Reward)

		fights = append(fights, Fight{
			WinnerID: winner.Org.ID,
			LoserID:  loser.Org.ID,
			Killed:   killed,
		})
	}
	return fights
}

// topTwo returns the two highest-energy members of one sex, first
// encountered on ties.
func topTwo(group []Agent, sex components.Sex) (first, second Agent, ok bool) {
	n := 0
	for _, a := range group {
		if a.Org.Sex != sex {
			continue
		}
		switch {
		case n == 0:
			first = a
		case a.Energy.Value > first.Energy.Value:
			first, second = a, first
		case n == 1 || a.Energy.Value > second.Energy.Value:
			second = a
		}
		n++
	}
	return first, second, n >= 2
}
