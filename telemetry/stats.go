package telemetry

import (
	"log/slog"
	"sort"

	"gonum.org/v1/gonum/stat"

	"github.com/pthm-cable/gridlife/components"
	"github.com/pthm-cable/gridlife/traits"
)

// WindowStats holds aggregated statistics for a window of ticks.
type WindowStats struct {
	WindowStartTick int `csv:"-"`
	WindowEndTick   int `csv:"window_end"`

	// Population at window end
	Population    int `csv:"population"`
	Males         int `csv:"males"`
	Females       int `csv:"females"`
	MaxGeneration int `csv:"max_generation"`

	// Environment at window end
	Food   int `csv:"food"`
	Poison int `csv:"poison"`

	// Events during window
	Births           int     `csv:"births"`
	DeathsStarvation int     `csv:"deaths_starvation"`
	DeathsExhaustion int     `csv:"deaths_exhaustion"`
	DeathsPoison     int     `csv:"deaths_poison"`
	DeathsCombat     int     `csv:"deaths_combat"`
	Fights           int     `csv:"fights"`
	FoodEaten        int     `csv:"food_eaten"`
	PoisonEaten      int     `csv:"poison_eaten"`
	MeanLifespan     float64 `csv:"mean_lifespan"` // age at death, ticks

	// Energy distribution (sampled at window end)
	EnergyMean float64 `csv:"energy_mean"`
	EnergyStd  float64 `csv:"energy_std"`
	EnergyP10  float64 `csv:"energy_p10"`
	EnergyP50  float64 `csv:"energy_p50"`
	EnergyP90  float64 `csv:"energy_p90"`

	AgeMean float64 `csv:"age_mean"`

	// Trait means (sampled at window end)
	VisionRange              float64 `csv:"vision_range"`
	FoodAttraction           float64 `csv:"food_attraction"`
	PoisonAversion           float64 `csv:"poison_aversion"`
	MateAttraction           float64 `csv:"mate_attraction"`
	CrowdingAversion         float64 `csv:"crowding_aversion"`
	LowEnergyThreshold       float64 `csv:"low_energy_threshold"`
	ReproduceEnergyThreshold float64 `csv:"reproduce_energy_threshold"`
}

// Deaths returns the total deaths in the window.
func (s WindowStats) Deaths() int {
	return s.DeathsStarvation + s.DeathsExhaustion + s.DeathsPoison + s.DeathsCombat
}

// TraitMean returns the window-end mean of t.
func (s WindowStats) TraitMean(t traits.Trait) float64 {
	switch t {
	case traits.VisionRange:
		return s.VisionRange
	case traits.FoodAttraction:
		return s.FoodAttraction
	case traits.PoisonAversion:
		return s.PoisonAversion
	case traits.MateAttraction:
		return s.MateAttraction
	case traits.CrowdingAversion:
		return s.CrowdingAversion
	case traits.LowEnergyThreshold:
		return s.LowEnergyThreshold
	case traits.ReproduceEnergyThreshold:
		return s.ReproduceEnergyThreshold
	}
	return 0
}

// PopulationSample collects per-agent values of the living population.
type PopulationSample struct {
	Males, Females int
	MaxGeneration  int
	Energies       []float64
	Ages           []float64
	Traits         [traits.NumTraits][]float64
}

// Add records one living agent.
func (p *PopulationSample) Add(sex components.Sex, energy float64, age, generation int, t traits.Set) {
	if sex == components.Female {
		p.Females++
	} else {
		p.Males++
	}
	if generation > p.MaxGeneration {
		p.MaxGeneration = generation
	}
	p.Energies = append(p.Energies, energy)
	p.Ages = append(p.Ages, float64(age))
	for i, v := range t {
		p.Traits[i] = append(p.Traits[i], v)
	}
}

// Count returns the number of sampled agents.
func (p *PopulationSample) Count() int {
	return p.Males + p.Females
}

// ComputeDistribution returns the mean, population standard deviation and
// empirical 10th/50th/90th percentiles of values. All zero when empty.
func ComputeDistribution(values []float64) (mean, std, p10, p50, p90 float64) {
	n := len(values)
	if n == 0 {
		return 0, 0, 0, 0, 0
	}

	mean, std = stat.PopMeanStdDev(values, nil)

	sorted := make([]float64, n)
	copy(sorted, values)
	sort.Float64s(sorted)

	p10 = stat.Quantile(0.10, stat.Empirical, sorted, nil)
	p50 = stat.Quantile(0.50, stat.Empirical, sorted, nil)
	p90 = stat.Quantile(0.90, stat.Empirical, sorted, nil)

	return mean, std, p10, p50, p90
}

// meanOf returns the arithmetic mean, or 0 for an empty slice.
func meanOf(values []float64) float64 {
	if len(values) == 0 {
		return 0
	}
	return stat.Mean(values, nil)
}

// LogValue implements slog.LogValuer for structured logging.
func (s WindowStats) LogValue() slog.Value {
	return slog.GroupValue(
		slog.Int("window_start", s.WindowStartTick),
		slog.Int("window_end", s.WindowEndTick),
		slog.Int("population", s.Population),
		slog.Int("males", s.Males),
		slog.Int("females", s.Females),
		slog.Int("max_generation", s.MaxGeneration),
		slog.Int("food", s.Food),
		slog.Int("poison", s.Poison),
		slog.Int("births", s.Births),
		slog.Int("deaths", s.Deaths()),
		slog.Int("fights", s.Fights),
		slog.Float64("mean_lifespan", s.MeanLifespan),
		slog.Float64("energy_mean", s.EnergyMean),
		slog.Float64("energy_p50", s.EnergyP50),
	)
}

// LogStats logs the window stats using slog.
func (s WindowStats) LogStats() {
	slog.Info("stats",
		"window_end", s.WindowEndTick,
		"population", s.Population,
		"males", s.Males,
		"females", s.Females,
		"max_generation", s.MaxGeneration,
		"food", s.Food,
		"poison", s.Poison,
		"births", s.Births,
		"deaths_starvation", s.DeathsStarvation,
		"deaths_exhaustion", s.DeathsExhaustion,
		"deaths_poison", s.DeathsPoison,
		"deaths_combat", s.DeathsCombat,
		"fights", s.Fights,
		"food_eaten", s.FoodEaten,
		"poison_eaten", s.PoisonEaten,
		"mean_lifespan", s.MeanLifespan,
		"energy_mean", s.EnergyMean,
		"energy_std", s.EnergyStd,
		"energy_p10", s.EnergyP10,
		"energy_p50", s.EnergyP50,
		"energy_p90", s.EnergyP90,
		"age_mean", s.AgeMean,
		"vision_range", s.VisionRange,
		"food_attraction", s.FoodAttraction,
		"poison_aversion", s.PoisonAversion,
		"mate_attraction", s.MateAttraction,
		"crowding_aversion", s.CrowdingAversion,
		"low_energy_threshold", s.LowEnergyThreshold,
		"reproduce_energy_threshold", s.ReproduceEnergyThreshold,
	)
}
