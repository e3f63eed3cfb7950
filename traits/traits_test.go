package traits

import (
	"math"
	"math/rand"
	"testing"
)

func TestSampleWithinBounds(t *testing.T) {
	rng := rand.New(rand.NewSource(1))
	for i := 0; i < 10000; i++ {
		s := Sample(rng)
		if !s.Valid() {
			t.Fatalf("sample %d out of bounds: %v", i, s)
		}
		for _, tr := range All() {
			if v := s.Get(tr); v != math.Round(v) {
				t.Fatalf("sample %d: %s = %v is not integral", i, tr, v)
			}
		}
	}
}

func TestSampleCoversRange(t *testing.T) {
	rng := rand.New(rand.NewSource(2))
	seen := map[int]bool{}
	for i := 0; i < 2000; i++ {
		seen[Sample(rng).Int(VisionRange)] = true
	}
	for v := 1; v <= 3; v++ {
		if !seen[v] {
			t.Errorf("vision range %d never sampled", v)
		}
	}
}

func TestCrossoverWithinBounds(t *testing.T) {
	rng := rand.New(rand.NewSource(3))
	for i := 0; i < 10000; i++ {
		a, b := Sample(rng), Sample(rng)
		child := Crossover(rng, a, b, 1.0, 1.0)
		if !child.Valid() {
			t.Fatalf("crossover %d out of bounds: %v", i, child)
		}
	}
}

func TestCrossoverIdenticalParentsNoMutation(t *testing.T) {
	rng := rand.New(rand.NewSource(4))
	parent := Set{2, 1, 3, 0, 2, 45, 90}
	for i := 0; i < 100; i++ {
		child := Crossover(rng, parent, parent, 0, DefaultMutationStrength)
		if child != parent {
			t.Fatalf("child = %v, want %v", child, parent)
		}
	}
}

func TestCrossoverPicksFromParents(t *testing.T) {
	rng := rand.New(rand.NewSource(5))
	a := Set{1, 0, 0, 0, 0, 10, 40}
	b := Set{3, 3, 3, 3, 3, 80, 120}
	for i := 0; i < 500; i++ {
		child := Crossover(rng, a, b, 0, 0)
		for j := range child {
			if child[j] != a[j] && child[j] != b[j] {
				t.Fatalf("trait %s = %v not inherited from either parent", Trait(j), child[j])
			}
		}
	}
}

func TestCrossoverNonFiniteFallback(t *testing.T) {
	rng := rand.New(rand.NewSource(6))
	good := Set{2, 2, 2, 2, 2, 50, 60}
	var bad Set
	for i := range bad {
		bad[i] = math.NaN()
	}

	for i := 0; i < 50; i++ {
		if child := Crossover(rng, bad, good, 0, 0); child != good {
			t.Fatalf("child = %v, want fallback to %v", child, good)
		}
	}

	var inf Set
	for i := range inf {
		inf[i] = math.Inf(1)
	}
	child := Crossover(rng, inf, bad, 0, 0)
	for _, tr := range All() {
		b, _ := Bounds(tr)
		if child.Get(tr) != b.Min {
			t.Errorf("%s = %v, want minimum %v", tr, child.Get(tr), b.Min)
		}
	}
}

func TestClamp(t *testing.T) {
	tests := []struct {
		name  string
		trait Trait
		in    float64
		want  float64
	}{
		{"below min", VisionRange, 0, 1},
		{"above max", VisionRange, 7, 3},
		{"inside", LowEnergyThreshold, 33, 33},
		{"threshold max", ReproduceEnergyThreshold, 500, 120},
		{"unbounded passes through", Trait(200), -42, -42},
		{"nan to min", FoodAttraction, math.NaN(), 0},
		{"+inf to max", MateAttraction, math.Inf(1), 3},
		{"-inf to min", LowEnergyThreshold, math.Inf(-1), 10},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := Clamp(tt.trait, tt.in); got != tt.want {
				t.Errorf("Clamp(%v, %v) = %v, want %v", tt.trait, tt.in, got, tt.want)
			}
		})
	}
}

func TestCrossoverNonFiniteMutation(t *testing.T) {
	rng := rand.New(rand.NewSource(3))
	a := Sample(rng)
	a[FoodAttraction] = 0 // 0 * Inf is NaN
	b := Sample(rng)
	b[FoodAttraction] = 0

	for i := 0; i < 200; i++ {
		child := Crossover(rng, a, b, 1, math.Inf(1))
		if !child.Valid() {
			t.Fatalf("invalid child %v", child)
		}
	}
}

func TestMapUsesTraitNames(t *testing.T) {
	s := Set{1, 2, 3, 0, 1, 20, 50}
	m := s.Map()
	if len(m) != NumTraits {
		t.Fatalf("len(Map()) = %d, want %d", len(m), NumTraits)
	}
	if m["reproduceEnergyThreshold"] != 50 || m["visionRange"] != 1 {
		t.Errorf("unexpected map %v", m)
	}
}
