package strategy

import (
	"github.com/anil-lina/techbot/internal/indicator"
	"github.com/anil-lina/techbot/internal/model"
)

// MomentumCrossoverName identifies the MACD+HMA crossover variant.
const MomentumCrossoverName = "momentum_crossover"

// MomentumCrossover emits BUY when the close is above the HMA and the
// MACD crosses above its signal line on the same candle, SELL on the
// mirrored condition, HOLD otherwise. Stops sit StopATRMultiple×ATR
// away from entry; the target is the risk scaled by RewardMultiple.
type MomentumCrossover struct {
	cfg      Config
	pipeline *indicator.Pipeline
}

// NewMomentumCrossover creates the strategy after validating config.
func NewMomentumCrossover(cfg Config) (*MomentumCrossover, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	p, err := indicator.NewPipeline(cfg.Indicators)
	if err != nil {
		return nil, err
	}
	return &MomentumCrossover{cfg: cfg, pipeline: p}, nil
}

func (m *MomentumCrossover) Name() string { return MomentumCrossoverName }

// Generate computes indicator columns and classifies every candle.
func (m *MomentumCrossover) Generate(s *model.Series) ([]model.Signal, error) {
	if err := m.pipeline.Compute(s); err != nil {
		return nil, err
	}
	return m.classify(s), nil
}

// classify applies the rule set over already-attached indicator
// columns. Candles with missing HMA or ATR are forced to HOLD
// regardless of the crossover value.
func (m *MomentumCrossover) classify(s *model.Series) []model.Signal {
	hmaCol, _ := s.Column(model.ColHMA)
	atrCol, _ := s.Column(model.ColATR)
	crossCol, _ := s.Column(model.ColMACDCross)

	signals := make([]model.Signal, s.Len())
	for i, c := range s.Candles {
		sig := model.Signal{TS: c.TS, Kind: model.SignalHold}

		if hmaCol == nil || atrCol == nil || crossCol == nil ||
			model.Missing(hmaCol[i]) || model.Missing(atrCol[i]) {
			signals[i] = sig
			continue
		}

		risk := m.cfg.StopATRMultiple * atrCol[i]
		switch {
		case crossCol[i] == 1 && c.Close > hmaCol[i]:
			sig.Kind = model.SignalBuy
			sig.Entry = c.Close
			sig.StopLoss = c.Close - risk
			if m.cfg.RewardMultiple > 0 {
				sig.TakeProfit = sig.Entry + risk*m.cfg.RewardMultiple
			}
		case crossCol[i] == -1 && c.Close < hmaCol[i]:
			sig.Kind = model.SignalSell
			sig.Entry = c.Close
			sig.StopLoss = c.Close + risk
			if m.cfg.RewardMultiple > 0 {
				sig.TakeProfit = sig.Entry - risk*m.cfg.RewardMultiple
			}
		}
		signals[i] = sig
	}
	return signals
}
