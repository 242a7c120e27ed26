package backtest

import (
	"math"

	"github.com/anil-lina/techbot/internal/model"
)

// BuildReport aggregates closed trades into performance statistics.
// Still-open trades are carried in the report's trade list but excluded
// from every statistic. RiskReward is +Inf when no trade lost.
func BuildReport(trades []model.Trade) model.BacktestReport {
	report := model.BacktestReport{Trades: trades}

	var (
		closed  int
		winners int
		winSum  float64
		lossSum float64
		losers  int
	)
	for _, t := range trades {
		if !t.Closed() {
			continue
		}
		closed++
		pnl := t.PnL()
		report.TotalPnL += pnl
		if pnl > 0 {
			winners++
			winSum += pnl
		} else {
			losers++
			lossSum += pnl
		}
	}
	if closed == 0 {
		return report
	}

	report.WinRate = float64(winners) / float64(closed)
	if winners > 0 {
		report.AvgWin = winSum / float64(winners)
	}
	if losers > 0 {
		report.AvgLoss = lossSum / float64(losers)
		report.RiskReward = math.Abs(report.AvgWin / report.AvgLoss)
	} else {
		report.RiskReward = math.Inf(1)
	}
	return report
}
