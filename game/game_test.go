package game

import (
	"context"
	"testing"

	"github.com/pthm-cable/gridlife/config"
	"github.com/pthm-cable/gridlife/systems"
	"github.com/pthm-cable/gridlife/telemetry"
)

func newTestSimulation(t *testing.T, opts Options) *Simulation {
	t.Helper()
	if opts.Seed == 0 {
		opts.Seed = 1
	}
	sim, err := NewSimulation(opts)
	if err != nil {
		t.Fatalf("NewSimulation: %v", err)
	}
	t.Cleanup(func() { sim.Close() })
	return sim
}

func TestSimulationWithoutWorld(t *testing.T) {
	sim := newTestSimulation(t, Options{})

	sim.Step()
	sim.Reset()

	if sim.World() != nil {
		t.Fatal("expected no world")
	}
	if sim.Tick() != 0 || sim.AliveCount() != 0 || sim.Width() != 0 || sim.Height() != 0 {
		t.Error("queries should return zero values without a world")
	}
	if !sim.Extinct() {
		t.Error("no world should report extinct")
	}
	if sim.Agents() != nil || sim.Cells() != nil {
		t.Error("expected nil snapshots")
	}
	if _, ok := sim.Agent(1); ok {
		t.Error("Agent lookup should fail")
	}
	if _, ok := sim.Detail(1); ok {
		t.Error("Detail lookup should fail")
	}
	if sim.Cell(0, 0) != systems.Empty {
		t.Error("Cell should be empty")
	}
	if food, poison := sim.Counts(); food != 0 || poison != 0 {
		t.Error("Counts should be zero")
	}
	if st := sim.Stats(); !st.Extinct || st.Population != 0 {
		t.Errorf("Stats = %+v", st)
	}
}

func TestSimulationStartNewAndReset(t *testing.T) {
	sim := newTestSimulation(t, Options{})

	cfg := config.Default()
	cfg.World.Width = 20
	cfg.World.Height = 15
	cfg.Population.Initial = 12
	sim.StartNew(cfg)

	if sim.World() == nil {
		t.Fatal("expected a world")
	}
	if sim.RunID() == "" {
		t.Error("expected a run id")
	}
	if sim.Width() != 20 || sim.Height() != 15 {
		t.Errorf("size = %dx%d", sim.Width(), sim.Height())
	}
	if sim.AliveCount() != 12 {
		t.Errorf("alive = %d, want 12", sim.AliveCount())
	}
	st := sim.Stats()
	if st.Population != 12 || st.Males+st.Females != 12 || st.Extinct {
		t.Errorf("Stats = %+v", st)
	}

	// The caller's config is copied.
	cfg.World.Width = 99
	if sim.World().Config().World.Width != 20 {
		t.Error("world config aliases the caller's config")
	}

	sim.Step()
	if sim.Tick() != 1 {
		t.Errorf("tick = %d, want 1", sim.Tick())
	}

	first := sim.RunID()
	sim.StartNew(cfg)
	if sim.Tick() != 0 || sim.RunID() == first {
		t.Error("StartNew should replace the run")
	}

	sim.Reset()
	if sim.World() != nil || sim.RunID() != "" {
		t.Error("Reset should discard the world")
	}
	sim.Step()
	if sim.Tick() != 0 {
		t.Error("Step after Reset should be a no-op")
	}
}

func TestSimulationClampsConfig(t *testing.T) {
	sim := newTestSimulation(t, Options{})

	cfg := config.Default()
	cfg.World.Width = -5
	cfg.Population.Initial = -1
	sim.StartNew(cfg)

	if sim.Width() != 1 {
		t.Errorf("width = %d, want 1", sim.Width())
	}
	if sim.AliveCount() != 0 || !sim.Extinct() {
		t.Error("expected an empty world")
	}
}

func TestSimulationNilConfigUsesDefaults(t *testing.T) {
	sim := newTestSimulation(t, Options{})
	sim.StartNew(nil)

	def := config.Default()
	if sim.Width() != def.World.Width || sim.AliveCount() != def.Population.Initial {
		t.Errorf("width %d with %d agents", sim.Width(), sim.AliveCount())
	}
}

func TestSimulationStatsWindows(t *testing.T) {
	var windows []telemetry.WindowStats
	sim := newTestSimulation(t, Options{
		OnStats: func(s telemetry.WindowStats) { windows = append(windows, s) },
	})

	cfg := config.Default()
	cfg.Telemetry.StatsWindow = 10
	sim.StartNew(cfg)

	if _, ok := sim.LastWindow(); ok {
		t.Error("no window should be flushed before stepping")
	}
	for i := 0; i < 30; i++ {
		sim.Step()
	}

	if len(windows) != 3 {
		t.Fatalf("windows = %d, want 3", len(windows))
	}
	for i, w := range windows {
		if w.WindowEndTick != (i+1)*10 {
			t.Errorf("window %d ends at %d", i, w.WindowEndTick)
		}
	}
	last, ok := sim.LastWindow()
	if !ok || last.WindowEndTick != 30 {
		t.Errorf("LastWindow = %+v, %v", last, ok)
	}
	if last.Population != sim.AliveCount() {
		t.Errorf("window population %d, alive %d", last.Population, sim.AliveCount())
	}
}

func TestSimulationLineage(t *testing.T) {
	store := telemetry.NewMemoryLineage()
	if err := store.Init(context.Background()); err != nil {
		t.Fatalf("Init: %v", err)
	}
	sim := newTestSimulation(t, Options{Lineage: store})

	cfg := config.Default()
	cfg.Population.Initial = 30
	sim.StartNew(cfg)

	births := 0
	for i := 0; i < 300 && !sim.Extinct(); i++ {
		sim.Step()
		for _, ev := range sim.World().Events() {
			if ev.Type == telemetry.EventBirth {
				births++
			}
		}
	}

	records, err := store.Births(context.Background(), sim.RunID())
	if err != nil {
		t.Fatalf("Births: %v", err)
	}
	if len(records) != 30+births {
		t.Fatalf("records = %d, want %d founders + %d births", len(records), 30, births)
	}

	for i, rec := range records {
		if i < 30 {
			if rec.Generation != 0 || rec.MotherID != 0 || rec.FatherID != 0 {
				t.Errorf("founder record %+v", rec)
			}
			continue
		}
		if rec.MotherID == 0 || rec.FatherID == 0 || rec.Generation < 1 {
			t.Errorf("birth record %+v", rec)
		}
		if !rec.Traits.Valid() {
			t.Errorf("birth record %d has invalid traits", rec.ChildID)
		}
	}
}

func TestSimulationSeedsPerRun(t *testing.T) {
	a := newTestSimulation(t, Options{Seed: 5})
	b := newTestSimulation(t, Options{Seed: 5})

	a.StartNew(nil)
	b.StartNew(nil)
	for i := 0; i < 20; i++ {
		a.Step()
		b.Step()
	}
	if a.Stats() != b.Stats() {
		t.Errorf("same seed diverged: %+v vs %+v", a.Stats(), b.Stats())
	}

	// A second run on the same simulation uses the next seed.
	a.StartNew(nil)
	c := newTestSimulation(t, Options{Seed: 6})
	c.StartNew(nil)
	av, cv := a.Agents(), c.Agents()
	for i := range av {
		if av[i].X != cv[i].X || av[i].Y != cv[i].Y || av[i].Energy != cv[i].Energy {
			t.Fatalf("second run should match seed+1 at agent %d", i)
		}
	}
}
