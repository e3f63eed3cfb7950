package game

import "log/slog"

// flushTelemetry checks if the stats window should be flushed and handles bookmarks.
func (s *Simulation) flushTelemetry() {
	w := s.world
	if !s.collector.ShouldFlush(w.Tick()) {
		return
	}

	food, poison := w.Counts()
	stats := s.collector.Flush(w.Tick(), w.SamplePopulation(), food, poison)
	perfStats := w.Perf().Stats()
	s.lastWindow = &stats

	if s.opts.OnStats != nil {
		s.opts.OnStats(stats)
	}

	if s.opts.LogStats {
		stats.LogStats()
		perfStats.LogStats()
	}

	if err := s.output.WriteTelemetry(stats); err != nil {
		slog.Error("failed to write telemetry", "error", err)
	}
	if err := s.output.WritePerf(perfStats, stats.WindowEndTick); err != nil {
		slog.Error("failed to write perf", "error", err)
	}

	for _, bm := range s.bookmarks.Check(stats) {
		if s.opts.LogStats {
			bm.LogBookmark()
		}
		if s.opts.OnBookmark != nil {
			s.opts.OnBookmark(bm)
		}
		if err := s.output.WriteBookmark(bm); err != nil {
			slog.Error("failed to write bookmark", "error", err)
		}
	}
}
