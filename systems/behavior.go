package systems

import (
	"math"
	"math/rand"

	"github.com/pthm-cable/gridlife/traits"
)

// Heuristic constants.
const (
	VisionWeightStep  = 0.05 // weight per ring of vision, nearest ring heaviest
	MoveCostBias      = 0.5  // fraction of the movement cost charged in the score
	HungerMatePenalty = 0.5  // fraction of mate attraction suppressed when hungry
	ScoreJitter       = 0.1  // half-width of the uniform tie-softening noise
	TieEpsilon        = 1e-6
)

// Candidate offsets: stay, then the four cardinal steps.
var candidates = [5][2]int{{0, 0}, {1, 0}, {-1, 0}, {0, 1}, {0, -1}}

// Move is a chosen destination and the delta that reaches it.
type Move struct {
	X, Y   int // wrapped destination
	DX, DY int
}

// Stay reports whether the move keeps the agent in place.
func (m Move) Stay() bool {
	return m.DX == 0 && m.DY == 0
}

// ChooseMove scores the five candidate moves for self against the pre-move
// occupancy snapshot and returns the best one. Near-ties are broken with a
// fair coin against the incumbent.
func ChooseMove(rng *rand.Rand, self Agent, env *Environment, occ *OccupancyGrid, moveCost float64) Move {
	var best Move
	bestScore := math.Inf(-1)

	for _, c := range candidates {
		score := ScoreMove(self, env, occ, c[0], c[1], moveCost)
		score += (rng.Float64()*2 - 1) * ScoreJitter

		switch {
		case score > bestScore+TieEpsilon:
			bestScore = score
			best = moveTo(env, self, c[0], c[1])
		case math.Abs(score-bestScore) <= TieEpsilon:
			if rng.Float64() < 0.5 {
				bestScore = score
				best = moveTo(env, self, c[0], c[1])
			}
		}
	}
	return best
}

func moveTo(env *Environment, self Agent, dx, dy int) Move {
	x, y := env.Wrap(self.Pos.X+dx, self.Pos.Y+dy)
	return Move{X: x, Y: y, DX: dx, DY: dy}
}

// ScoreMove returns the deterministic desirability of moving self by
// (dx, dy): destination resource and occupants, energy-state bias, the
// vision-weighted surroundings of the destination, and the movement cost.
func ScoreMove(self Agent, env *Environment, occ *OccupancyGrid, dx, dy int, moveCost float64) float64 {
	g := self.Genome.Traits
	x, y := env.Wrap(self.Pos.X+dx, self.Pos.Y+dy)

	score := cellScore(self, env, occ, x, y)

	energy := self.Energy.Value
	foodW := g.Get(traits.FoodAttraction)
	mateW := g.Get(traits.MateAttraction)
	if energy < g.Get(traits.LowEnergyThreshold) {
		score += foodW - HungerMatePenalty*mateW
	} else if energy > g.Get(traits.ReproduceEnergyThreshold) {
		score += mateW
	}

	vision := g.Int(traits.VisionRange)
	for vx := -vision; vx <= vision; vx++ {
		span := vision - abs(vx)
		for vy := -span; vy <= span; vy++ {
			d := abs(vx) + abs(vy)
			if d == 0 {
				continue
			}
			w := float64(vision-d+1) * VisionWeightStep
			score += w * cellScore(self, env, occ, x+vx, y+vy)
		}
	}

	if dx != 0 || dy != 0 {
		score -= MoveCostBias * moveCost
	}
	return score
}

// cellScore combines the resource and social terms for one cell as seen by self.
func cellScore(self Agent, env *Environment, occ *OccupancyGrid, x, y int) float64 {
	g := self.Genome.Traits

	var score float64
	switch env.At(x, y) {
	case Food:
		score += g.Get(traits.FoodAttraction)
	case Poison:
		score -= g.Get(traits.PoisonAversion)
	}

	var total, mates int
	for _, other := range occ.At(x, y) {
		if other.Org.ID == self.Org.ID {
			continue
		}
		total++
		if other.Org.Sex != self.Org.Sex {
			mates++
		}
	}
	score += g.Get(traits.MateAttraction) * float64(mates)
	score -= g.Get(traits.CrowdingAversion) * float64(total)
	return score
}
