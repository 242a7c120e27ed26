// Package contracts selects in-the-money option contracts for an
// underlying price from a broker contract-search pool.
package contracts

import (
	"math"
	"sort"
	"time"

	"github.com/anil-lina/techbot/internal/model"
)

// Resolve returns the best strictly in-the-money contract of the
// requested type, or false when no candidate qualifies. No match is an
// expected, frequent outcome, not an error.
//
// Eligibility: matching option type, expiry on or after asOf, and
// strict moneyness: a CALL only with strike < underlying, a PUT only
// with strike > underlying. At-the-money is excluded. Among eligible
// candidates the nearest expiry wins, and within one expiry the strike
// closest to the money.
func Resolve(pool []model.Contract, optType model.OptionType, underlying float64, asOf time.Time) (model.Contract, bool) {
	day := asOf.Truncate(24 * time.Hour)

	eligible := make([]model.Contract, 0, len(pool))
	for _, c := range pool {
		if c.OptionType != optType || c.Expiry.IsZero() || c.Strike <= 0 {
			continue
		}
		if c.Expiry.Before(day) {
			continue
		}
		switch optType {
		case model.OptionCall:
			if c.Strike >= underlying {
				continue
			}
		case model.OptionPut:
			if c.Strike <= underlying {
				continue
			}
		}
		eligible = append(eligible, c)
	}
	if len(eligible) == 0 {
		return model.Contract{}, false
	}

	sort.SliceStable(eligible, func(i, j int) bool {
		if !eligible[i].Expiry.Equal(eligible[j].Expiry) {
			return eligible[i].Expiry.Before(eligible[j].Expiry)
		}
		di := math.Abs(underlying - eligible[i].Strike)
		dj := math.Abs(underlying - eligible[j].Strike)
		return di < dj
	})
	return eligible[0], true
}

// strikeBase is the strike grid used when searching the contract
// master for ITM candidates around the spot price.
const strikeBase = 100

// ITMStrikes returns the call- and put-side strikes to search for,
// 0.35% away from spot rounded to the strike grid.
func ITMStrikes(spot float64) (callStrike, putStrike int) {
	call := spot - spot*0.0035
	put := spot + spot*0.0035
	callStrike = int(strikeBase * math.Round(call/strikeBase))
	putStrike = int(strikeBase * math.Round(put/strikeBase))
	return callStrike, putStrike
}
