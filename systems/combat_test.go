package systems

import (
	"math"
	"math/rand"
	"testing"

	"github.com/pthm-cable/gridlife/components"
)

func TestResolveCombatOnePerSex(t *testing.T) {
	group := []Agent{
		testAgent(1, components.Male, 0, 0, 50),
		testAgent(2, components.Female, 0, 0, 50),
		testAgent(3, components.Male, 0, 0, 50),
		testAgent(4, components.Female, 0, 0, 50),
	}

	fights := ResolveCombat(newTestRNG(), group, CombatParams{Penalty: 8, Reward: 4})
	if len(fights) != 2 {
		t.Fatalf("got %d fights, want 2", len(fights))
	}

	var total float64
	for _, a := range group {
		total += a.Energy.Value
	}
	if total != 200-2*8+2*4 {
		t.Errorf("total energy = %f, want %f", total, 200.0-16+8)
	}

	byID := map[uint32]Agent{}
	for _, a := range group {
		byID[a.ID()] = a
	}
	for _, f := range fights {
		w, l := byID[f.WinnerID], byID[f.LoserID]
		if w.Org.Sex != l.Org.Sex {
			t.Errorf("fight between opposite sexes: %d vs %d", f.WinnerID, f.LoserID)
		}
		if w.Energy.Value != 54 || l.Energy.Value != 42 {
			t.Errorf("winner=%f loser=%f, want 54 and 42", w.Energy.Value, l.Energy.Value)
		}
	}
}

func TestResolveCombatNoRivals(t *testing.T) {
	tests := []struct {
		name  string
		group []Agent
	}{
		{"single", []Agent{testAgent(1, components.Male, 0, 0, 50)}},
		{"opposite sexes", []Agent{
			testAgent(1, components.Male, 0, 0, 50),
			testAgent(2, components.Female, 0, 0, 50),
		}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if fights := ResolveCombat(newTestRNG(), tt.group, CombatParams{Penalty: 8, Reward: 4}); len(fights) != 0 {
				t.Errorf("got %d fights, want 0", len(fights))
			}
			for _, a := range tt.group {
				if a.Energy.Value != 50 {
					t.Errorf("agent %d energy changed to %f", a.ID(), a.Energy.Value)
				}
			}
		})
	}
}

func TestResolveCombatTopTwoOnly(t *testing.T) {
	group := []Agent{
		testAgent(1, components.Male, 0, 0, 10),
		testAgent(2, components.Male, 0, 0, 60),
		testAgent(3, components.Male, 0, 0, 40),
	}
	fights := ResolveCombat(newTestRNG(), group, CombatParams{Penalty: 8, Reward: 4})
	if len(fights) != 1 {
		t.Fatalf("got %d fights, want 1", len(fights))
	}
	if group[0].Energy.Value != 10 {
		t.Error("lowest-energy male should sit out")
	}
	ids := map[uint32]bool{fights[0].WinnerID: true, fights[0].LoserID: true}
	if !ids[2] || !ids[3] {
		t.Errorf("fighters = %v, want 2 and 3", ids)
	}
}

func TestResolveCombatKills(t *testing.T) {
	group := []Agent{
		testAgent(1, components.Female, 0, 0, 5),
		testAgent(2, components.Female, 0, 0, 5),
	}
	fights := ResolveCombat(newTestRNG(), group, CombatParams{Penalty: 100, Reward: 4})
	if len(fights) != 1 || !fights[0].Killed {
		t.Fatalf("expected a lethal fight, got %+v", fights)
	}
	for _, a := range group {
		if a.ID() == fights[0].LoserID {
			if a.Alive() || a.Energy.Value != 0 {
				t.Errorf("loser energy=%f alive=%v", a.Energy.Value, a.Alive())
			}
		} else if a.Energy.Value != 9 {
			t.Errorf("winner energy = %f, want 9", a.Energy.Value)
		}
	}
}

func TestResolveCombatSkipsDead(t *testing.T) {
	dead := testAgent(2, components.Male, 0, 0, 0)
	dead.Energy.Alive = false
	group := []Agent{testAgent(1, components.Male, 0, 0, 5), dead}

	if fights := ResolveCombat(newTestRNG(), group, CombatParams{Penalty: 8, Reward: 4}); len(fights) != 0 {
		t.Errorf("dead agent fought: %+v", fights)
	}
}

func TestResolveCombatProportionalOdds(t *testing.T) {
	rng := rand.New(rand.NewSource(99))
	const trials = 4000
	wins := 0
	for i := 0; i < trials; i++ {
		group := []Agent{
			testAgent(1, components.Male, 0, 0, 90),
			testAgent(2, components.Male, 0, 0, 10),
		}
		fights := ResolveCombat(rng, group, CombatParams{Penalty: 1, Reward: 1})
		if fights[0].WinnerID == 1 {
			wins++
		}
	}
	if rate := float64(wins) / trials; math.Abs(rate-0.9) > 0.03 {
		t.Errorf("stronger agent won %.3f of fights, want about 0.9", rate)
	}
}
