package main

import (
	"math"
	"sync"

	"gonum.org/v1/gonum/stat"

	"github.com/pthm-cable/gridlife/config"
	"github.com/pthm-cable/gridlife/game"
	"github.com/pthm-cable/gridlife/telemetry"
)

// FitnessEvaluator runs headless simulations and computes fitness.
type FitnessEvaluator struct {
	params     *ParamVector
	maxTicks   int
	seeds      []int64
	baseConfig *config.Config
}

// NewFitnessEvaluator creates a new evaluator.
func NewFitnessEvaluator(params *ParamVector, maxTicks int, seeds []int64, baseCfg *config.Config) *FitnessEvaluator {
	return &FitnessEvaluator{
		params:     params,
		maxTicks:   maxTicks,
		seeds:      seeds,
		baseConfig: baseCfg,
	}
}

// Below minViablePop for a whole window, a run counts as functionally extinct.
const minViablePop = 4

// runResult holds the results from a single simulation run.
type runResult struct {
	survivalTicks int                     // ticks before functional extinction (or maxTicks if survived)
	windowStats   []telemetry.WindowStats // collected via OnStats each window
}

type seedResult struct {
	fitness float64
	quality float64
}

// Evaluate runs every seed with the parameter vector x and returns the mean
// fitness (lower = better) and the mean quality.
func (fe *FitnessEvaluator) Evaluate(x []float64) (fitness, quality float64) {
	cfg := fe.baseConfig.Clone()
	fe.params.ApplyToConfig(cfg, x)

	// Seeds are independent simulations, so they run in parallel.
	results := make([]seedResult, len(fe.seeds))
	var wg sync.WaitGroup
	for i, seed := range fe.seeds {
		wg.Add(1)
		go func(idx int, s int64) {
			defer wg.Done()
			r := fe.runSimulation(cfg, s)
			quality := computeQuality(r.windowStats)
			results[idx] = seedResult{
				fitness: computeFitness(r.survivalTicks, quality),
				quality: quality,
			}
		}(i, seed)
	}
	wg.Wait()

	var totalFitness, totalQuality float64
	for _, r := range results {
		totalFitness += r.fitness
		totalQuality += r.quality
	}
	n := float64(len(fe.seeds))
	return totalFitness / n, totalQuality / n
}

// runSimulation executes a single headless run until extinction, functional
// extinction, or maxTicks.
func (fe *FitnessEvaluator) runSimulation(cfg *config.Config, seed int64) *runResult {
	result := &runResult{}

	sim, err := game.NewSimulation(game.Options{
		Seed: seed,
		OnStats: func(stats telemetry.WindowStats) {
			result.windowStats = append(result.windowStats, stats)
		},
	})
	if err != nil {
		return result
	}
	defer sim.Close()

	sim.StartNew(cfg)
	seen := 0
	for sim.Tick() < fe.maxTicks {
		sim.Step()

		if sim.Extinct() {
			result.survivalTicks = sim.Tick()
			return result
		}
		if len(result.windowStats) > seen {
			seen = len(result.windowStats)
			if result.windowStats[seen-1].Population < minViablePop {
				result.survivalTicks = sim.Tick()
				return result
			}
		}
	}

	result.survivalTicks = fe.maxTicks
	return result
}

// computeFitness calculates the scalar fitness (lower = better).
// Formula: -(survivalTicks × (1.0 + 0.2 × quality))
func computeFitness(survivalTicks int, quality float64) float64 {
	return -(float64(survivalTicks) * (1.0 + 0.2*quality))
}

// survivalFromFitness inverts computeFitness for reporting.
func survivalFromFitness(fitness, quality float64) float64 {
	return -fitness / (1.0 + 0.2*quality)
}

// Quality component weights.
const (
	qualityWeightStability = 0.4
	qualityWeightEnergy    = 0.3
	qualityWeightBalance   = 0.3

	qualityWarmupWindows = 2 // skip first N windows (warmup)
	qualityTargetEnergy  = 60
)

// computeQuality scores a run's window stats in [0, 1]: steady population,
// healthy median energy, balanced sexes.
func computeQuality(windows []telemetry.WindowStats) float64 {
	if len(windows) <= qualityWarmupWindows {
		return 0
	}

	valid := windows[qualityWarmupWindows:]
	pops := make([]float64, 0, len(valid))
	var energySum, balanceSum float64
	for _, w := range valid {
		if w.Population < minViablePop {
			continue
		}
		pops = append(pops, float64(w.Population))

		e := (w.EnergyP50 - qualityTargetEnergy) / qualityTargetEnergy
		energySum += math.Exp(-e * e * 4)

		balanceSum += 1 - math.Abs(float64(w.Males-w.Females))/float64(w.Population)
	}
	if len(pops) == 0 {
		return 0
	}
	n := float64(len(pops))

	stability := 0.0
	if len(pops) >= 2 {
		mean, std := stat.PopMeanStdDev(pops, nil)
		if mean > 0 {
			cv := std / mean
			stability = math.Exp(-cv * cv * 4)
		}
	}

	quality := qualityWeightStability*stability +
		qualityWeightEnergy*energySum/n +
		qualityWeightBalance*balanceSum/n
	return math.Max(0, math.Min(1, quality))
}
