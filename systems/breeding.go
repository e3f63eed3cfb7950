package systems

import (
	"math"
	"math/rand"

	"github.com/pthm-cable/gridlife/components"
	"github.com/pthm-cable/gridlife/traits"
)

// BreedingParams configures the reproduction resolver.
type BreedingParams struct {
	Threshold        float64 // minimum energy, raised by each parent's own trait threshold
	Cost             float64 // paid by each parent
	Cooldown         int     // ticks set on both parents
	OffspringEnergy  float64 // 0 = midpoint of the parents' post-cost energy
	MutationRate     float64
	MutationStrength float64
}

// Birth describes an offspring waiting to be admitted to the population.
type Birth struct {
	X, Y       int
	Energy     float64
	Sex        components.Sex
	Generation int
	Traits     traits.Set
	MotherID   uint32
	FatherID   uint32
}

// CanBreed reports whether a is eligible to reproduce under p.
func CanBreed(a Agent, p BreedingParams) bool {
	if !a.Energy.Alive || a.Org.ReproCooldown != 0 {
		return false
	}
	need := math.Max(p.Threshold, a.Trait(traits.ReproduceEnergyThreshold))
	return a.Energy.Value >= need
}

// ResolveReproduction picks at most one mating pair among agents sharing a
// cell: the highest-energy eligible male and female, first encountered on
// ties. Both parents pay the cost and start their cooldown. The returned
// birth is placed at the father's position.
func ResolveReproduction(rng *rand.Rand, group []Agent, p BreedingParams) (Birth, bool) {
	var father, mother Agent
	var haveFather, haveMother bool

	for _, a := range group {
		if !CanBreed(a, p) {
			continue
		}
		if a.Org.Sex == components.Male {
			if !haveFather || a.Energy.Value > father.Energy.Value {
				father, haveFather = a, true
			}
		} else {
			if !haveMother || a.Energy.Value > mother.Energy.Value {
				mother, haveMother = a, true
			}
		}
	}

	if !haveFather || !haveMother {
		return Birth{}, false
	}

	// Neither parent may be spent to zero by the cost.
	if father.Energy.Value-p.Cost <= 0 || mother.Energy.Value-p.Cost <= 0 {
		return Birth{}, false
	}

	father.Energy.Value -= p.Cost
	mother.Energy.Value -= p.Cost
	father.Org.ReproCooldown = p.Cooldown
	mother.Org.ReproCooldown = p.Cooldown

	energy := p.OffspringEnergy
	if energy <= 0 {
		energy = (father.Energy.Value + mother.Energy.Value) / 2
	}

	sex := components.Male
	if rng.Float64() < 0.5 {
		sex = components.Female
	}

	return Birth{
		X:          father.Pos.X,
		Y:          father.Pos.Y,
		Energy:     energy,
		Sex:        sex,
		Generation: max(father.Org.Generation, mother.Org.Generation) + 1,
		Traits:     traits.Crossover(rng, mother.Genome.Traits, father.Genome.Traits, p.MutationRate, p.MutationStrength),
		MotherID:   mother.Org.ID,
		FatherID:   father.Org.ID,
	}, true
}
