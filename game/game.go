package game

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/pthm-cable/gridlife/config"
	"github.com/pthm-cable/gridlife/systems"
	"github.com/pthm-cable/gridlife/telemetry"
)

// Options configures a Simulation's seeding and telemetry sinks.
type Options struct {
	Seed      int64  // 0 = time-based
	LogStats  bool   // log window stats and bookmarks via slog
	OutputDir string // CSV and config output; empty disables

	// Lineage receives every birth, founders included. Nil disables the
	// ledger. The Simulation does not close it.
	Lineage telemetry.LineageStore

	OnStats    func(telemetry.WindowStats)
	OnBookmark func(telemetry.Bookmark)
}

// Stats is a summary of the current world.
type Stats struct {
	Tick          int  `json:"tick"`
	Population    int  `json:"population"`
	Males         int  `json:"males"`
	Females       int  `json:"females"`
	Food          int  `json:"food"`
	Poison        int  `json:"poison"`
	MaxGeneration int  `json:"maxGeneration"`
	Extinct       bool `json:"extinct"`
}

// Simulation owns at most one World and the telemetry attached to it.
// Without a world every command is a no-op and every query returns a zero
// value. A Simulation is not safe for concurrent use; see Runner.
type Simulation struct {
	opts Options
	seed int64
	runs int

	world *World
	runID string

	collector     *telemetry.Collector
	bookmarks     *telemetry.BookmarkDetector
	output        *telemetry.OutputManager
	extinctLogged bool
	lastWindow    *telemetry.WindowStats
}

// NewSimulation creates an uninitialized simulation.
func NewSimulation(opts Options) (*Simulation, error) {
	output, err := telemetry.NewOutputManager(opts.OutputDir)
	if err != nil {
		return nil, fmt.Errorf("creating output manager: %w", err)
	}

	seed := opts.Seed
	if seed == 0 {
		seed = time.Now().UnixNano()
	}

	return &Simulation{
		opts:   opts,
		seed:   seed,
		output: output,
	}, nil
}

// Close releases the output files.
func (s *Simulation) Close() error {
	return s.output.Close()
}

// StartNew replaces any current world with a fresh one built from cfg.
// cfg is copied and clamped; a nil cfg uses the defaults.
func (s *Simulation) StartNew(cfg *config.Config) {
	if cfg == nil {
		cfg = config.Default()
	}
	cfg = cfg.Clone()
	for _, adj := range cfg.Validate() {
		slog.Warn("config adjusted", "adjustment", adj)
	}

	seed := s.seed + int64(s.runs)
	s.runs++

	s.world = NewWorld(cfg, seed)
	s.runID = telemetry.NewRunID()
	s.collector = telemetry.NewCollector(cfg.Telemetry.StatsWindow)
	s.bookmarks = telemetry.NewBookmarkDetector(cfg.Telemetry.BookmarkHistorySize, telemetry.BookmarkThresholds{
		CrashDropPercent: cfg.Bookmarks.CrashDropPercent,
		CrashMinDrop:     cfg.Bookmarks.CrashMinDrop,
		BoomBirths:       cfg.Bookmarks.BoomBirths,
		StableWindows:    cfg.Bookmarks.StableWindows,
		StableCV:         cfg.Bookmarks.StableCV,
	})
	s.extinctLogged = false
	s.lastWindow = nil

	if err := s.output.WriteConfig(cfg); err != nil {
		slog.Error("failed to write config", "error", err)
	}

	var founders []uint32
	for _, v := range s.world.Agents() {
		founders = append(founders, v.ID)
	}
	s.recordLineage(founders)

	slog.Info("simulation_started",
		"run_id", s.runID,
		"seed", seed,
		"width", cfg.World.Width,
		"height", cfg.World.Height,
		"population", s.world.AliveCount(),
	)
}

// Step advances the world one tick and records telemetry. No-op without a world.
func (s *Simulation) Step() {
	if s.world == nil {
		return
	}
	s.world.Step()

	var born []uint32
	for _, ev := range s.world.Events() {
		s.collector.Record(ev)
		if ev.Type == telemetry.EventBirth {
			born = append(born, ev.AgentID)
		}
	}
	s.recordLineage(born)

	if !s.extinctLogged && s.world.Extinct() {
		s.extinctLogged = true
		slog.Info("population_extinct", "run_id", s.runID, "tick", s.world.Tick())
	}

	s.flushTelemetry()
}

// Reset discards the current world.
func (s *Simulation) Reset() {
	if s.world == nil {
		return
	}
	slog.Info("simulation_reset", "run_id", s.runID, "tick", s.world.Tick())
	s.world = nil
	s.runID = ""
	s.collector = nil
	s.bookmarks = nil
	s.lastWindow = nil
}

// recordLineage writes the ledger entries for newly created agents.
func (s *Simulation) recordLineage(ids []uint32) {
	if s.opts.Lineage == nil || len(ids) == 0 {
		return
	}

	records := make([]telemetry.BirthRecord, 0, len(ids))
	for _, id := range ids {
		detail, ok := s.world.Detail(id)
		if !ok {
			continue
		}
		rec := telemetry.BirthRecord{
			Tick:       s.world.Tick(),
			ChildID:    id,
			Sex:        detail.Sex,
			Generation: detail.Generation,
			Traits:     detail.Genome,
		}
		if detail.Lifetime != nil {
			rec.MotherID = detail.Lifetime.MotherID
			rec.FatherID = detail.Lifetime.FatherID
		}
		records = append(records, rec)
	}

	if err := s.opts.Lineage.RecordBirths(context.Background(), s.runID, records); err != nil {
		slog.Error("failed to record lineage", "error", err)
	}
}

// World returns the current world, or nil.
func (s *Simulation) World() *World { return s.world }

// RunID returns the id of the current run, or "".
func (s *Simulation) RunID() string { return s.runID }

// LastWindow returns the most recently flushed stats window, if any.
func (s *Simulation) LastWindow() (telemetry.WindowStats, bool) {
	if s.lastWindow == nil {
		return telemetry.WindowStats{}, false
	}
	return *s.lastWindow, true
}

// Tick returns the current tick, 0 without a world.
func (s *Simulation) Tick() int {
	if s.world == nil {
		return 0
	}
	return s.world.Tick()
}

// AliveCount returns the number of living agents, 0 without a world.
func (s *Simulation) AliveCount() int {
	if s.world == nil {
		return 0
	}
	return s.world.AliveCount()
}

// Width returns the grid width, 0 without a world.
func (s *Simulation) Width() int {
	if s.world == nil {
		return 0
	}
	return s.world.Width()
}

// Height returns the grid height, 0 without a world.
func (s *Simulation) Height() int {
	if s.world == nil {
		return 0
	}
	return s.world.Height()
}

// Extinct reports whether there is nothing left to simulate: no world, or
// no living agent.
func (s *Simulation) Extinct() bool {
	return s.world == nil || s.world.Extinct()
}

// Agents returns a snapshot of every agent, nil without a world.
func (s *Simulation) Agents() []AgentView {
	if s.world == nil {
		return nil
	}
	return s.world.Agents()
}

// Agent looks up an agent by id.
func (s *Simulation) Agent(id uint32) (AgentView, bool) {
	if s.world == nil {
		return AgentView{}, false
	}
	return s.world.Agent(id)
}

// Detail looks up an agent and its lifetime statistics by id.
func (s *Simulation) Detail(id uint32) (AgentDetail, bool) {
	if s.world == nil {
		return AgentDetail{}, false
	}
	return s.world.Detail(id)
}

// Cell returns the resource marker at (x, y), Empty without a world.
func (s *Simulation) Cell(x, y int) systems.Resource {
	if s.world == nil {
		return systems.Empty
	}
	return s.world.Cell(x, y)
}

// Cells returns a row-major copy of the resource grid, nil without a world.
func (s *Simulation) Cells() []systems.Resource {
	if s.world == nil {
		return nil
	}
	return s.world.Cells()
}

// Counts returns the food and poison counts.
func (s *Simulation) Counts() (food, poison int) {
	if s.world == nil {
		return 0, 0
	}
	return s.world.Counts()
}

// Stats summarizes the current world.
func (s *Simulation) Stats() Stats {
	if s.world == nil {
		return Stats{Extinct: true}
	}
	sample := s.world.SamplePopulation()
	food, poison := s.world.Counts()
	return Stats{
		Tick:          s.world.Tick(),
		Population:    sample.Count(),
		Males:         sample.Males,
		Females:       sample.Females,
		Food:          food,
		Poison:        poison,
		MaxGeneration: sample.MaxGeneration,
		Extinct:       sample.Count() == 0,
	}
}
