package config

import (
	"fmt"
	"os"
	"runtime"
	"strings"
	"time"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"github.com/spf13/viper"
)

const (
	DamageRollsMinMax = "minmax"
	DamageRollsFull   = "full"
)

type Config struct {
	// Plies is the search depth in turns.
	Plies   int
	Threads int
	// NodeBudget caps expanded nodes per search. 0 derives a budget from
	// MemoryFraction of system memory divided by ApproxNodeBytes.
	NodeBudget      uint64
	MemoryFraction  float64
	ApproxNodeBytes int
	// SwitchPrior is the assumed chance that the opponent switches rather
	// than attacks.
	SwitchPrior float64
	// LookaheadWeight scales a child's backed-up value before the child's
	// immediate reward is added.
	LookaheadWeight float64
	DedupeIgnoreHP  bool
	DamageRolls     string
	// OpponentMoveGuesses is how many unrevealed movepool entries are
	// hypothesised for an opposing creature with fewer than four known moves.
	OpponentMoveGuesses int
	// DexPath points to a knowledge-base YAML file; empty uses the embedded
	// data.
	DexPath          string
	LogLevel         string
	LogPretty        bool
	ProgressInterval time.Duration
}

func defaultThreads() int {
	return max(1, runtime.NumCPU()-1)
}

func DefaultConfig() Config {
	return Config{
		Plies:               2,
		Threads:             defaultThreads(),
		MemoryFraction:      0.05,
		ApproxNodeBytes:     2048,
		SwitchPrior:         0.5,
		LookaheadWeight:     0.8,
		DamageRolls:         DamageRollsMinMax,
		OpponentMoveGuesses: 2,
		LogLevel:            "info",
		ProgressInterval:    time.Second,
	}
}

// Load reads configuration from an optional YAML file and FORESIGHT_*
// environment variables, falling back to DefaultConfig.
func Load(configFile string) (*Config, error) {
	def := DefaultConfig()
	v := viper.New()
	v.SetEnvPrefix("foresight")
	v.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))
	v.AutomaticEnv()

	v.SetDefault("plies", def.Plies)
	v.SetDefault("threads", def.Threads)
	v.SetDefault("node-budget", def.NodeBudget)
	v.SetDefault("memory-fraction", def.MemoryFraction)
	v.SetDefault("approx-node-bytes", def.ApproxNodeBytes)
	v.SetDefault("switch-prior", def.SwitchPrior)
	v.SetDefault("lookahead-weight", def.LookaheadWeight)
	v.SetDefault("dedupe-ignore-hp", def.DedupeIgnoreHP)
	v.SetDefault("damage-rolls", def.DamageRolls)
	v.SetDefault("opponent-move-guesses", def.OpponentMoveGuesses)
	v.SetDefault("dex-path", def.DexPath)
	v.SetDefault("log-level", def.LogLevel)
	v.SetDefault("log-pretty", def.LogPretty)
	v.SetDefault("progress-interval", def.ProgressInterval)

	if configFile != "" {
		v.SetConfigFile(configFile)
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("reading config %s: %w", configFile, err)
		}
	}

	cfg := &Config{
		Plies:               v.GetInt("plies"),
		Threads:             v.GetInt("threads"),
		NodeBudget:          v.GetUint64("node-budget"),
		MemoryFraction:      v.GetFloat64("memory-fraction"),
		ApproxNodeBytes:     v.GetInt("approx-node-bytes"),
		SwitchPrior:         v.GetFloat64("switch-prior"),
		LookaheadWeight:     v.GetFloat64("lookahead-weight"),
		DedupeIgnoreHP:      v.GetBool("dedupe-ignore-hp"),
		DamageRolls:         v.GetString("damage-rolls"),
		OpponentMoveGuesses: v.GetInt("opponent-move-guesses"),
		DexPath:             v.GetString("dex-path"),
		LogLevel:            v.GetString("log-level"),
		LogPretty:           v.GetBool("log-pretty"),
		ProgressInterval:    v.GetDuration("progress-interval"),
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (c *Config) Validate() error {
	if c.Plies < 0 {
		return fmt.Errorf("plies must be non-negative, got %d", c.Plies)
	}
	if c.Threads < 1 {
		return fmt.Errorf("threads must be at least 1, got %d", c.Threads)
	}
	if c.SwitchPrior < 0 || c.SwitchPrior > 1 {
		return fmt.Errorf("switch-prior must be within [0, 1], got %v", c.SwitchPrior)
	}
	if c.DamageRolls != DamageRollsMinMax && c.DamageRolls != DamageRollsFull {
		return fmt.Errorf("damage-rolls must be %q or %q, got %q",
			DamageRollsMinMax, DamageRollsFull, c.DamageRolls)
	}
	if c.OpponentMoveGuesses < 0 {
		return fmt.Errorf("opponent-move-guesses must be non-negative, got %d", c.OpponentMoveGuesses)
	}
	return nil
}

// SetupLogging configures the global zerolog logger from LogLevel and
// LogPretty.
func (c *Config) SetupLogging() {
	level, err := zerolog.ParseLevel(c.LogLevel)
	if err != nil || c.LogLevel == "" {
		level = zerolog.InfoLevel
	}
	zerolog.SetGlobalLevel(level)
	if c.LogPretty {
		log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stderr, TimeFormat: time.Kitchen})
	}
	log.Debug().Str("level", level.String()).Msg("logger-initialized")
}
