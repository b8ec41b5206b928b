// Package config loads the table server configuration from HCL.
package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strings"
	"time"

	"github.com/hashicorp/hcl/v2/gohcl"
	"github.com/hashicorp/hcl/v2/hclparse"
	"github.com/joho/godotenv"
	"github.com/shopspring/decimal"

	"github.com/lox/tablegames/internal/deck"
	"github.com/lox/tablegames/internal/game"
)

// Recorder kinds.
const (
	RecorderNone     = "none"
	RecorderFile     = "file"
	RecorderPostgres = "postgres"
)

// DefaultDSNEnv names the environment variable holding the database DSN.
const DefaultDSNEnv = "TABLEGAMES_DSN"

// Config represents the complete server configuration
type Config struct {
	Server   *ServerSettings   `hcl:"server,block"`
	Recorder *RecorderSettings `hcl:"recorder,block"`
	Tables   []TableConfig     `hcl:"table,block"`
}

// ServerSettings contains server-level configuration. An empty Listen runs
// the simulated transport.
type ServerSettings struct {
	Listen      string `hcl:"listen,optional"`
	LogLevel    string `hcl:"log_level,optional"`
	EventBuffer int    `hcl:"event_buffer,optional"`
}

// RecorderSettings selects where round results and snapshots are kept.
type RecorderSettings struct {
	Kind   string `hcl:"kind,optional"`
	Dir    string `hcl:"dir,optional"`
	DSNEnv string `hcl:"dsn_env,optional"`
}

// TableConfig defines one table opened at startup. Money and durations are
// strings so that "2.50" and "15s" keep their exact meaning.
type TableConfig struct {
	Name          string `hcl:"name,label"`
	Kind          string `hcl:"kind"`
	MinBet        string `hcl:"min_bet,optional"`
	MaxBet        string `hcl:"max_bet,optional"`
	Seats         int    `hcl:"seats,optional"`
	BettingWindow string `hcl:"betting_window,optional"`
	TimeToAct     string `hcl:"time_to_act,optional"`

	Decks            int     `hcl:"decks,optional"`
	Penetration      float64 `hcl:"penetration,optional"`
	Wheel            string  `hcl:"wheel,optional"`
	DealerHitsSoft17 *bool   `hcl:"dealer_hits_soft17,optional"`
	DealerPeek       *bool   `hcl:"dealer_peek,optional"`
	DoubleAfterSplit *bool   `hcl:"double_after_split,optional"`
	Surrender        *bool   `hcl:"surrender,optional"`
	MaxSplits        *int    `hcl:"max_splits,optional"`
	Commission       string  `hcl:"commission,optional"`
}

// Default returns a configuration with one table of every game.
func Default() *Config {
	cfg := &Config{}
	for _, k := range game.Kinds {
		cfg.Tables = append(cfg.Tables, TableConfig{Name: string(k) + "-1", Kind: string(k)})
	}
	cfg.applyDefaults()
	return cfg
}

// Load loads configuration from an HCL file. A missing file yields Default.
func Load(filename string) (*Config, error) {
	src, err := os.ReadFile(filename)
	if errors.Is(err, fs.ErrNotExist) {
		return Default(), nil
	}
	if err != nil {
		return nil, fmt.Errorf("read config: %w", err)
	}
	return Parse(src, filename)
}

// Parse decodes HCL source and applies defaults for missing values.
func Parse(src []byte, filename string) (*Config, error) {
	parser := hclparse.NewParser()
	file, diags := parser.ParseHCL(src, filename)
	if diags.HasErrors() {
		return nil, fmt.Errorf("failed to parse HCL file: %s", diags.Error())
	}

	var cfg Config
	diags = gohcl.DecodeBody(file.Body, nil, &cfg)
	if diags.HasErrors() {
		return nil, fmt.Errorf("failed to decode HCL: %s", diags.Error())
	}
	cfg.applyDefaults()
	return &cfg, nil
}

func (c *Config) applyDefaults() {
	if c.Server == nil {
		c.Server = &ServerSettings{}
	}
	if c.Server.LogLevel == "" {
		c.Server.LogLevel = "info"
	}
	if c.Server.EventBuffer == 0 {
		c.Server.EventBuffer = 1024
	}

	if c.Recorder == nil {
		c.Recorder = &RecorderSettings{}
	}
	if c.Recorder.Kind == "" {
		c.Recorder.Kind = RecorderNone
	}
	if c.Recorder.Kind == RecorderFile && c.Recorder.Dir == "" {
		c.Recorder.Dir = "records"
	}
	if c.Recorder.DSNEnv == "" {
		c.Recorder.DSNEnv = DefaultDSNEnv
	}

	for i := range c.Tables {
		t := &c.Tables[i]
		if t.MinBet == "" {
			t.MinBet = "1"
		}
		if t.MaxBet == "" {
			t.MaxBet = "1000"
		}
		if t.Seats == 0 {
			t.Seats = game.DefaultSeats
		}
	}
}

// Validate validates the configuration
func (c *Config) Validate() error {
	switch c.Server.LogLevel {
	case "debug", "info", "warn", "error":
	default:
		return fmt.Errorf("invalid log level: %s", c.Server.LogLevel)
	}
	if c.Server.EventBuffer < 0 {
		return fmt.Errorf("event buffer must not be negative")
	}

	switch c.Recorder.Kind {
	case RecorderNone, RecorderFile, RecorderPostgres:
	default:
		return fmt.Errorf("invalid recorder kind: %s", c.Recorder.Kind)
	}

	if len(c.Tables) == 0 {
		return fmt.Errorf("at least one table must be configured")
	}
	seen := make(map[string]bool, len(c.Tables))
	for _, t := range c.Tables {
		if seen[t.Name] {
			return fmt.Errorf("table %s: declared twice", t.Name)
		}
		seen[t.Name] = true
		if _, err := t.GameConfig(); err != nil {
			return err
		}
	}
	return nil
}

// GameConfig converts the block into a table configuration with the game's
// default rules overridden by whatever the block sets.
func (t TableConfig) GameConfig() (game.Config, error) {
	kind := game.Kind(strings.ToLower(t.Kind))
	if !kind.Valid() {
		return game.Config{}, fmt.Errorf("table %s: unknown kind %q", t.Name, t.Kind)
	}
	minBet, err := decimal.NewFromString(t.MinBet)
	if err != nil {
		return game.Config{}, fmt.Errorf("table %s: min_bet: %w", t.Name, err)
	}
	maxBet, err := decimal.NewFromString(t.MaxBet)
	if err != nil {
		return game.Config{}, fmt.Errorf("table %s: max_bet: %w", t.Name, err)
	}
	if !minBet.IsPositive() || maxBet.LessThan(minBet) {
		return game.Config{}, fmt.Errorf("table %s: bets must satisfy 0 < min_bet <= max_bet", t.Name)
	}
	if t.Seats < 1 || t.Seats > 12 {
		return game.Config{}, fmt.Errorf("table %s: seats must be between 1 and 12", t.Name)
	}

	rules := game.DefaultRules(kind)
	if rules.BettingWindow, err = duration(t.BettingWindow, rules.BettingWindow); err != nil {
		return game.Config{}, fmt.Errorf("table %s: betting_window: %w", t.Name, err)
	}
	if rules.TimeToAct, err = duration(t.TimeToAct, rules.TimeToAct); err != nil {
		return game.Config{}, fmt.Errorf("table %s: time_to_act: %w", t.Name, err)
	}
	if t.Decks != 0 {
		rules.Decks = t.Decks
	}
	if t.Penetration != 0 {
		if t.Penetration < 0 || t.Penetration > 1 {
			return game.Config{}, fmt.Errorf("table %s: penetration must be in (0, 1]", t.Name)
		}
		rules.Penetration = t.Penetration
	}
	switch strings.ToLower(t.Wheel) {
	case "", "european":
		rules.Wheel = deck.European
	case "american":
		rules.Wheel = deck.American
	default:
		return game.Config{}, fmt.Errorf("table %s: unknown wheel %q", t.Name, t.Wheel)
	}
	if t.DealerHitsSoft17 != nil {
		rules.DealerHitsSoft17 = *t.DealerHitsSoft17
	}
	if t.DealerPeek != nil {
		rules.DealerPeek = *t.DealerPeek
	}
	if t.DoubleAfterSplit != nil {
		rules.DoubleAfterSplit = *t.DoubleAfterSplit
	}
	if t.Surrender != nil {
		rules.SurrenderAllowed = *t.Surrender
	}
	if t.MaxSplits != nil {
		rules.MaxSplits = *t.MaxSplits
	}
	if t.Commission != "" {
		c, err := decimal.NewFromString(t.Commission)
		if err != nil {
			return game.Config{}, fmt.Errorf("table %s: commission: %w", t.Name, err)
		}
		rules.BaccaratPays.Commission = c
	}
	if err := rules.Validate(); err != nil {
		return game.Config{}, fmt.Errorf("table %s: %w", t.Name, err)
	}

	return game.Config{
		ID:     t.Name,
		Kind:   kind,
		Stakes: game.Stakes{Min: minBet, Max: maxBet},
		Seats:  t.Seats,
		Rules:  rules,
	}, nil
}

func duration(s string, def time.Duration) (time.Duration, error) {
	if s == "" {
		return def, nil
	}
	d, err := time.ParseDuration(s)
	if err != nil {
		return 0, err
	}
	if d <= 0 {
		return 0, fmt.Errorf("must be positive")
	}
	return d, nil
}

// LoadEnv loads .env files into the process environment. Missing files are
// skipped; variables already set win.
func LoadEnv(files ...string) error {
	if len(files) == 0 {
		files = []string{".env"}
	}
	for _, f := range files {
		if err := godotenv.Load(f); err != nil && !errors.Is(err, fs.ErrNotExist) {
			return fmt.Errorf("load %s: %w", f, err)
		}
	}
	return nil
}

// DSN returns the database DSN from the configured environment variable.
func (r *RecorderSettings) DSN() string {
	return os.Getenv(r.DSNEnv)
}
