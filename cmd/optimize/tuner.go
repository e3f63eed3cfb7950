package main

import (
	"errors"
	"fmt"
	"log/slog"
	"math"
	"os"

	"github.com/gocarina/gocsv"
	"gonum.org/v1/gonum/optimize"
)

// evalRecord is one row of evaluations.csv.
type evalRecord struct {
	Eval     int     `csv:"eval"`
	Fitness  float64 `csv:"fitness"`
	Survival float64 `csv:"survival_ticks"`
	Quality  float64 `csv:"quality"`
	Params   string  `csv:"params"`
}

// evalLog appends evaluation records to a CSV file, one row per call.
type evalLog struct {
	f             *os.File
	headerWritten bool
}

func newEvalLog(path string) (*evalLog, error) {
	f, err := os.Create(path)
	if err != nil {
		return nil, fmt.Errorf("creating evaluation log: %w", err)
	}
	return &evalLog{f: f}, nil
}

func (l *evalLog) append(r evalRecord) error {
	records := []evalRecord{r}
	if !l.headerWritten {
		l.headerWritten = true
		return gocsv.Marshal(records, l.f)
	}
	return gocsv.MarshalWithoutHeaders(records, l.f)
}

// Close closes the underlying file.
func (l *evalLog) Close() error {
	return l.f.Close()
}

// evaluateFunc scores raw parameter values, lower fitness being better.
type evaluateFunc func(values []float64) (fitness, quality float64)

// tuner adapts an evaluateFunc to CMA-ES over the normalized parameter
// space and remembers the best point evaluated, which need not be the
// optimizer's final mean.
type tuner struct {
	params   *ParamVector
	evaluate evaluateFunc
	log      *evalLog // nil disables the CSV log
	logger   *slog.Logger

	evals       int
	best        []float64
	bestFitness float64
}

func newTuner(params *ParamVector, evaluate evaluateFunc, log *evalLog, logger *slog.Logger) *tuner {
	return &tuner{
		params:      params,
		evaluate:    evaluate,
		log:         log,
		logger:      logger,
		bestFitness: math.Inf(1),
	}
}

// objective is minimized by CMA-ES. Evaluations are sequential.
func (t *tuner) objective(x []float64) float64 {
	values := t.params.Clamp(t.params.Denormalize(x))
	fitness, quality := t.evaluate(values)

	t.evals++
	if fitness < t.bestFitness {
		t.bestFitness = fitness
		t.best = values
	}

	rec := evalRecord{
		Eval:     t.evals,
		Fitness:  fitness,
		Survival: survivalFromFitness(fitness, quality),
		Quality:  quality,
		Params:   t.params.Format(values),
	}
	if t.log != nil {
		if err := t.log.append(rec); err != nil {
			t.logger.Warn("evaluation log write failed", "error", err)
		}
	}
	t.logger.Info("evaluation",
		"eval", rec.Eval,
		"survival", rec.Survival,
		"quality", rec.Quality,
		"best_fitness", t.bestFitness,
	)
	return fitness
}

// run minimizes from start (raw values) for at most maxEvals evaluations.
// population 0 lets CMA-ES size its own population.
func (t *tuner) run(start []float64, maxEvals, population int) ([]float64, error) {
	problem := optimize.Problem{Func: t.objective}
	settings := &optimize.Settings{FuncEvaluations: maxEvals}
	method := &optimize.CmaEsChol{InitStepSize: 0.3, Population: population}

	init := t.params.Normalize(t.params.Clamp(start))
	_, err := optimize.Minimize(problem, init, settings, method)
	if t.best == nil {
		if err != nil {
			return nil, err
		}
		return nil, errors.New("no evaluation completed")
	}
	if err != nil {
		t.logger.Warn("optimizer stopped early", "error", err)
	}
	return t.best, nil
}
