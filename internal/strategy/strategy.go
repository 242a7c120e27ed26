// Package strategy turns indicator-augmented candle series into
// per-candle trading signals.
//
// A Strategy is a pure function over a series: no lookahead beyond the
// evaluated candle's own columns, no hidden state between calls.
// Variants are selected by name through New, not by inheritance.
package strategy

import (
	"fmt"

	"github.com/anil-lina/techbot/internal/indicator"
	"github.com/anil-lina/techbot/internal/model"
)

// Config carries indicator periods and risk multiples for a strategy.
type Config struct {
	Indicators indicator.Config

	// StopATRMultiple scales the ATR distance between entry and stop.
	StopATRMultiple float64 `yaml:"stop_loss_atr_multiple"`

	// RewardMultiple scales the risk into a take-profit target.
	// Zero disables targets.
	RewardMultiple float64 `yaml:"reward_multiple"`
}

// DefaultConfig returns the final-variant defaults: 1×ATR stop, 1.5×
// risk target.
func DefaultConfig() Config {
	return Config{
		Indicators:      indicator.DefaultConfig(),
		StopATRMultiple: 1,
		RewardMultiple:  1.5,
	}
}

// Validate rejects configurations that would produce degenerate stops.
func (c Config) Validate() error {
	if err := c.Indicators.Validate(); err != nil {
		return err
	}
	if c.StopATRMultiple <= 0 {
		return fmt.Errorf("strategy config: stop_loss_atr_multiple must be positive, got %g", c.StopATRMultiple)
	}
	if c.RewardMultiple < 0 {
		return fmt.Errorf("strategy config: reward_multiple must not be negative, got %g", c.RewardMultiple)
	}
	return nil
}

// Strategy classifies each candle of a series as BUY/SELL/HOLD and
// computes entry, stop, and target levels for actionable candles.
type Strategy interface {
	// Name returns the unique name of the strategy.
	Name() string

	// Generate returns one Signal per candle, aligned by index.
	Generate(s *model.Series) ([]model.Signal, error)
}

// New selects a strategy variant by name.
func New(name string, cfg Config) (Strategy, error) {
	switch name {
	case "", MomentumCrossoverName:
		return NewMomentumCrossover(cfg)
	default:
		return nil, fmt.Errorf("strategy: unknown variant %q", name)
	}
}
