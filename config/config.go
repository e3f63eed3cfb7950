// Package config provides configuration loading and validation for the simulation.
package config

import (
	_ "embed"
	"fmt"
	"log/slog"
	"os"

	"gopkg.in/yaml.v3"
)

//go:embed defaults.yaml
var defaultsYAML []byte

// Config holds all simulation configuration parameters.
type Config struct {
	World        WorldConfig        `yaml:"world"`
	Population   PopulationConfig   `yaml:"population"`
	Energy       EnergyConfig       `yaml:"energy"`
	Resource     ResourceConfig     `yaml:"resource"`
	Reproduction ReproductionConfig `yaml:"reproduction"`
	Combat       CombatConfig       `yaml:"combat"`
	Mutation     MutationConfig     `yaml:"mutation"`
	Telemetry    TelemetryConfig    `yaml:"telemetry"`
	Bookmarks    BookmarksConfig    `yaml:"bookmarks"`
	Server       ServerConfig       `yaml:"server"`
}

// WorldConfig holds grid dimensions in cells.
type WorldConfig struct {
	Width  int `yaml:"width"`
	Height int `yaml:"height"`
}

// PopulationConfig holds initial population parameters.
type PopulationConfig struct {
	Initial   int     `yaml:"initial"`
	EnergyMin float64 `yaml:"energy_min"`
	EnergyMax float64 `yaml:"energy_max"`
}

// EnergyConfig holds per-tick energy costs.
type EnergyConfig struct {
	MetabolismCost float64 `yaml:"metabolism_cost"` // paid every tick by every living agent
	MoveCost       float64 `yaml:"move_cost"`       // paid when an agent leaves its cell
}

// ResourceConfig holds food and poison spawning and effects.
type ResourceConfig struct {
	FoodAttempts   int     `yaml:"food_attempts"`   // placement attempts per tick
	PoisonAttempts int     `yaml:"poison_attempts"` // placement attempts per tick
	MaxFood        int     `yaml:"max_food"`
	MaxPoison      int     `yaml:"max_poison"`
	FoodGain       float64 `yaml:"food_gain"`
	PoisonPenalty  float64 `yaml:"poison_penalty"`
}

// ReproductionConfig holds sexual reproduction parameters.
type ReproductionConfig struct {
	Threshold       float64 `yaml:"threshold"`        // minimum energy, combined with the trait threshold
	Cost            float64 `yaml:"cost"`             // paid by each parent
	Cooldown        int     `yaml:"cooldown"`         // ticks
	OffspringEnergy float64 `yaml:"offspring_energy"` // 0 = midpoint of the parents' post-cost energy
}

// CombatConfig holds same-sex rivalry outcomes.
type CombatConfig struct {
	Penalty float64 `yaml:"penalty"` // taken by the loser
	Reward  float64 `yaml:"reward"`  // gained by the winner
}

// MutationConfig holds crossover mutation parameters.
type MutationConfig struct {
	Rate     float64 `yaml:"rate"`     // per-trait mutation probability
	Strength float64 `yaml:"strength"` // max relative delta
}

// TelemetryConfig holds stats window and perf parameters.
type TelemetryConfig struct {
	StatsWindow         int `yaml:"stats_window"` // ticks per stats window
	BookmarkHistorySize int `yaml:"bookmark_history_size"`
	PerfWindow          int `yaml:"perf_window"` // ticks averaged by the perf collector
}

// BookmarksConfig holds bookmark detection thresholds.
type BookmarksConfig struct {
	CrashDropPercent float64 `yaml:"crash_drop_percent"` // population drop vs recent peak
	CrashMinDrop     int     `yaml:"crash_min_drop"`
	BoomBirths       int     `yaml:"boom_births"`   // births in one window
	StableWindows    int     `yaml:"stable_windows"` // consecutive windows
	StableCV         float64 `yaml:"stable_cv"`      // population coefficient of variation
}

// ServerConfig holds the observer server settings.
type ServerConfig struct {
	Addr           string  `yaml:"addr"`
	TicksPerSecond float64 `yaml:"ticks_per_second"`
}

// Default returns the embedded defaults, validated.
func Default() *Config {
	cfg, err := Load("")
	if err != nil {
		panic(fmt.Sprintf("config: embedded defaults are invalid: %v", err))
	}
	return cfg
}

// Load loads configuration from a YAML file, merging with embedded defaults.
// If path is empty, only embedded defaults are used.
func Load(path string) (*Config, error) {
	cfg := &Config{}
	if err := yaml.Unmarshal(defaultsYAML, cfg); err != nil {
		return nil, fmt.Errorf("parsing embedded defaults: %w", err)
	}

	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("reading config file: %w", err)
		}
		// Unmarshal into same struct - only overwrites fields present in file
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("parsing config file: %w", err)
		}
	}

	for _, adj := range cfg.Validate() {
		slog.Warn("config adjusted", "source", path, "change", adj)
	}
	return cfg, nil
}

// Clone returns a deep copy of the configuration.
func (c *Config) Clone() *Config {
	cp := *c
	return &cp
}

// WriteYAML writes the configuration to a YAML file.
func (c *Config) WriteYAML(path string) error {
	data, err := yaml.Marshal(c)
	if err != nil {
		return fmt.Errorf("marshaling config: %w", err)
	}
	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("writing config file: %w", err)
	}
	return nil
}
