// Package main tunes gridlife configuration with CMA-ES: each candidate is
// scored by how long, and how steadily, populations survive across seeds.
package main

import (
	"errors"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	"github.com/pthm-cable/gridlife/config"
)

type options struct {
	configPath string
	outputDir  string
	maxTicks   int
	seeds      int
	baseSeed   int64
	maxEvals   int
	population int
	verbose    bool
}

func parseFlags() options {
	var o options
	flag.StringVar(&o.configPath, "config", "", "base config YAML file (empty = defaults)")
	flag.StringVar(&o.outputDir, "output", "", "directory for evaluations.csv and best_config.yaml")
	flag.IntVar(&o.maxTicks, "max-ticks", 5000, "tick cap per run")
	flag.IntVar(&o.seeds, "seeds", 3, "runs per evaluation")
	flag.Int64Var(&o.baseSeed, "seed", 42, "first run seed")
	flag.IntVar(&o.maxEvals, "max-evals", 200, "evaluation budget")
	flag.IntVar(&o.population, "population", 0, "CMA-ES population (0 = optimizer default)")
	flag.BoolVar(&o.verbose, "verbose", false, "keep simulation logs")
	flag.Parse()
	return o
}

func main() {
	opts := parseFlags()
	logger := slog.New(slog.NewJSONHandler(os.Stdout, nil))
	if err := run(opts, logger); err != nil {
		logger.Error("tuning failed", "error", err)
		os.Exit(1)
	}
}

// evalSeeds spreads n seeds from base.
func evalSeeds(base int64, n int) []int64 {
	seeds := make([]int64, max(n, 1))
	for i := range seeds {
		seeds[i] = base + int64(i)*1000
	}
	return seeds
}

func run(opts options, logger *slog.Logger) error {
	if opts.outputDir == "" {
		return errors.New("-output is required")
	}
	if !opts.verbose {
		slog.SetDefault(slog.New(slog.DiscardHandler))
	}
	if err := os.MkdirAll(opts.outputDir, 0755); err != nil {
		return fmt.Errorf("creating output directory: %w", err)
	}

	baseCfg, err := config.Load(opts.configPath)
	if err != nil {
		return err
	}

	evals, err := newEvalLog(filepath.Join(opts.outputDir, "evaluations.csv"))
	if err != nil {
		return err
	}
	defer evals.Close()

	params := NewParamVector()
	seeds := evalSeeds(opts.baseSeed, opts.seeds)
	evaluator := NewFitnessEvaluator(params, opts.maxTicks, seeds, baseCfg)
	t := newTuner(params, evaluator.Evaluate, evals, logger)

	logger.Info("tuning started",
		"params", params.Dim(),
		"max_evals", opts.maxEvals,
		"seeds", len(seeds),
		"max_ticks", opts.maxTicks,
	)
	started := time.Now()

	best, err := t.run(params.ExtractFromConfig(baseCfg), opts.maxEvals, opts.population)
	if err != nil {
		return err
	}

	cfg := baseCfg.Clone()
	params.ApplyToConfig(cfg, best)
	for _, adj := range cfg.Validate() {
		logger.Warn("best config adjusted", "change", adj)
	}
	path := filepath.Join(opts.outputDir, "best_config.yaml")
	if err := cfg.WriteYAML(path); err != nil {
		return err
	}

	logger.Info("tuning finished",
		"evals", t.evals,
		"elapsed", time.Since(started).Round(time.Second).String(),
		"best_fitness", t.bestFitness,
		"best", params.Format(best),
		"config", path,
	)
	return nil
}
