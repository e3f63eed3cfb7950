package telemetry

import (
	"fmt"
	"log/slog"

	"gonum.org/v1/gonum/stat"
)

// BookmarkType identifies the type of bookmark.
type BookmarkType string

const (
	BookmarkExtinction       BookmarkType = "extinction"
	BookmarkPopulationCrash  BookmarkType = "population_crash"
	BookmarkBabyBoom         BookmarkType = "baby_boom"
	BookmarkStablePopulation BookmarkType = "stable_population"
)

// Bookmark represents an automatically triggered bookmark.
type Bookmark struct {
	Type        BookmarkType `csv:"type" json:"type"`
	Tick        int          `csv:"tick" json:"tick"`
	Description string       `csv:"description" json:"description"`
}

// LogBookmark logs the bookmark using slog.
func (b Bookmark) LogBookmark() {
	slog.Info("bookmark",
		"type", string(b.Type),
		"tick", b.Tick,
		"description", b.Description,
	)
}

// BookmarkThresholds configures when bookmarks fire.
type BookmarkThresholds struct {
	CrashDropPercent float64 // fraction below the recent peak
	CrashMinDrop     int     // absolute drop below the recent peak
	BoomBirths       int     // births in one window; 0 disables
	StableWindows    int     // consecutive windows considered
	StableCV         float64 // population coefficient of variation
}

// BookmarkDetector detects interesting moments in the simulation.
type BookmarkDetector struct {
	th BookmarkThresholds

	// Rolling history (circular buffer)
	history     []WindowStats
	historySize int
	historyIdx  int
	historyFull bool

	// State tracking
	recentPeak int  // peak population since the last crash
	extinct    bool // extinction already reported
	stable     bool // inside a stable stretch
}

// NewBookmarkDetector creates a detector with the given history size.
func NewBookmarkDetector(historySize int, th BookmarkThresholds) *BookmarkDetector {
	if historySize < 5 {
		historySize = 5
	}
	if th.StableWindows < 2 {
		th.StableWindows = 2
	}
	if historySize < th.StableWindows {
		historySize = th.StableWindows
	}
	return &BookmarkDetector{
		th:          th,
		history:     make([]WindowStats, historySize),
		historySize: historySize,
	}
}

// Check analyzes the latest stats and returns any triggered bookmarks.
func (bd *BookmarkDetector) Check(stats WindowStats) []Bookmark {
	var bookmarks []Bookmark

	if b := bd.checkExtinction(stats); b != nil {
		bookmarks = append(bookmarks, *b)
	}
	if b := bd.checkCrash(stats); b != nil {
		bookmarks = append(bookmarks, *b)
	}
	if b := bd.checkBoom(stats); b != nil {
		bookmarks = append(bookmarks, *b)
	}

	bd.addToHistory(stats)

	if b := bd.checkStable(stats); b != nil {
		bookmarks = append(bookmarks, *b)
	}

	if stats.Population > bd.recentPeak {
		bd.recentPeak = stats.Population
	}

	return bookmarks
}

func (bd *BookmarkDetector) addToHistory(stats WindowStats) {
	bd.history[bd.historyIdx] = stats
	bd.historyIdx = (bd.historyIdx + 1) % bd.historySize
	if bd.historyIdx == 0 {
		bd.historyFull = true
	}
}

// recent returns up to n of the latest windows, oldest first.
func (bd *BookmarkDetector) recent(n int) []WindowStats {
	count := bd.historyIdx
	if bd.historyFull {
		count = bd.historySize
	}
	if n > count {
		n = count
	}
	out := make([]WindowStats, n)
	for i := 0; i < n; i++ {
		idx := (bd.historyIdx - n + i + bd.historySize) % bd.historySize
		out[i] = bd.history[idx]
	}
	return out
}

func (bd *BookmarkDetector) checkExtinction(stats WindowStats) *Bookmark {
	if stats.Population > 0 {
		bd.extinct = false
		return nil
	}
	if bd.extinct {
		return nil
	}
	bd.extinct = true
	return &Bookmark{
		Type:        BookmarkExtinction,
		Tick:        stats.WindowEndTick,
		Description: fmt.Sprintf("Population extinct after %d deaths in final window", stats.Deaths()),
	}
}

func (bd *BookmarkDetector) checkCrash(stats WindowStats) *Bookmark {
	if bd.recentPeak == 0 {
		return nil
	}

	drop := 1.0 - float64(stats.Population)/float64(bd.recentPeak)
	if drop > bd.th.CrashDropPercent && stats.Population <= bd.recentPeak-bd.th.CrashMinDrop {
		oldPeak := bd.recentPeak
		bd.recentPeak = stats.Population

		return &Bookmark{
			Type:        BookmarkPopulationCrash,
			Tick:        stats.WindowEndTick,
			Description: fmt.Sprintf("Population crashed %.0f%% from peak %d to %d", drop*100, oldPeak, stats.Population),
		}
	}
	return nil
}

func (bd *BookmarkDetector) checkBoom(stats WindowStats) *Bookmark {
	if bd.th.BoomBirths <= 0 || stats.Births < bd.th.BoomBirths {
		return nil
	}
	return &Bookmark{
		Type:        BookmarkBabyBoom,
		Tick:        stats.WindowEndTick,
		Description: fmt.Sprintf("%d births in one window (population %d)", stats.Births, stats.Population),
	}
}

// checkStable fires once when the last StableWindows windows settle below
// the configured coefficient of variation.
func (bd *BookmarkDetector) checkStable(stats WindowStats) *Bookmark {
	window := bd.recent(bd.th.StableWindows)
	if len(window) < bd.th.StableWindows {
		return nil
	}

	pops := make([]float64, len(window))
	for i, w := range window {
		if w.Population == 0 {
			bd.stable = false
			return nil
		}
		pops[i] = float64(w.Population)
	}

	mean, std := stat.PopMeanStdDev(pops, nil)
	if std/mean >= bd.th.StableCV {
		bd.stable = false
		return nil
	}
	if bd.stable {
		return nil
	}
	bd.stable = true

	return &Bookmark{
		Type:        BookmarkStablePopulation,
		Tick:        stats.WindowEndTick,
		Description: fmt.Sprintf("Stable population around %.0f over %d windows", mean, len(window)),
	}
}
