package noren

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/anil-lina/techbot/internal/model"
)

const statOK = "Ok"

// IST is the exchange timezone; all Noren timestamps are IST wall time.
var IST = time.FixedZone("IST", 5*3600+30*60)

const (
	// candleTimeLayout matches TPSeries "time" fields: dd-mm-yyyy HH:MM:SS.
	candleTimeLayout = "02-01-2006 15:04:05"

	// expiryLayout matches contract "exd" fields: dd-MMM-yyyy.
	expiryLayout = "02-Jan-2006"
)

type loginResponse struct {
	Stat         string `json:"stat"`
	SessionToken string `json:"susertoken"`
	EMsg         string `json:"emsg"`
}

type quoteResponse struct {
	Stat          string `json:"stat"`
	Exchange      string `json:"exch"`
	Token         string `json:"token"`
	TradingSymbol string `json:"tsym"`
	LastPrice     string `json:"lp"`
	LotSize       string `json:"ls"`
	EMsg          string `json:"emsg"`
}

// tpRecord is one TPSeries row. Numeric fields arrive as strings.
type tpRecord struct {
	Stat   string `json:"stat"`
	Time   string `json:"time"`
	Open   string `json:"into"`
	High   string `json:"inth"`
	Low    string `json:"intl"`
	Close  string `json:"intc"`
	Volume string `json:"intv"`
}

func (r tpRecord) toCandle() (model.Candle, error) {
	ts, err := time.ParseInLocation(candleTimeLayout, r.Time, IST)
	if err != nil {
		return model.Candle{}, fmt.Errorf("bad time %q: %w", r.Time, err)
	}
	open, err := strconv.ParseFloat(r.Open, 64)
	if err != nil {
		return model.Candle{}, fmt.Errorf("bad open %q", r.Open)
	}
	high, err := strconv.ParseFloat(r.High, 64)
	if err != nil {
		return model.Candle{}, fmt.Errorf("bad high %q", r.High)
	}
	low, err := strconv.ParseFloat(r.Low, 64)
	if err != nil {
		return model.Candle{}, fmt.Errorf("bad low %q", r.Low)
	}
	clos, err := strconv.ParseFloat(r.Close, 64)
	if err != nil {
		return model.Candle{}, fmt.Errorf("bad close %q", r.Close)
	}
	// Index series report no volume; treat missing/blank as zero.
	var vol int64
	if r.Volume != "" {
		v, err := strconv.ParseInt(r.Volume, 10, 64)
		if err != nil {
			return model.Candle{}, fmt.Errorf("bad volume %q", r.Volume)
		}
		vol = v
	}
	return model.Candle{TS: ts, Open: open, High: high, Low: low, Close: clos, Volume: vol}, nil
}

type searchResponse struct {
	Stat   string        `json:"stat"`
	Values []searchValue `json:"values"`
	EMsg   string        `json:"emsg"`
}

// searchValue is one contract-master row from SearchScrip.
type searchValue struct {
	Exchange      string `json:"exch"`
	Token         string `json:"token"`
	TradingSymbol string `json:"tsym"`
	OptionType    string `json:"optt"`
	Strike        string `json:"strprc"`
	Expiry        string `json:"exd"`
	LotSize       string `json:"ls"`
	Instrument    string `json:"instname"`
	CompanyName   string `json:"cname"`
}

func (v searchValue) toContract() (model.Contract, error) {
	// Equity rows carry no strike or expiry; both stay zero so option
	// resolution never selects them, while token lookup still works.
	var strike float64
	if v.Strike != "" {
		f, err := strconv.ParseFloat(v.Strike, 64)
		if err != nil {
			return model.Contract{}, fmt.Errorf("bad strike %q", v.Strike)
		}
		strike = f
	}
	var expiry time.Time
	if v.Expiry != "" {
		t, err := parseExpiry(v.Expiry)
		if err != nil {
			return model.Contract{}, err
		}
		expiry = t
	}
	ls, _ := strconv.Atoi(v.LotSize)
	return model.Contract{
		Underlying:    underlyingOf(v.TradingSymbol),
		TradingSymbol: v.TradingSymbol,
		Exchange:      v.Exchange,
		Token:         v.Token,
		OptionType:    model.OptionType(v.OptionType),
		Strike:        strike,
		Expiry:        expiry,
		LotSize:       ls,
	}, nil
}

// parseExpiry accepts dd-MMM-yyyy in any letter case ("28-AUG-2025").
func parseExpiry(s string) (time.Time, error) {
	if s == "" {
		return time.Time{}, fmt.Errorf("empty expiry")
	}
	parts := strings.Split(s, "-")
	if len(parts) == 3 && len(parts[1]) == 3 {
		mon := strings.ToUpper(parts[1][:1]) + strings.ToLower(parts[1][1:])
		s = parts[0] + "-" + mon + "-" + parts[2]
	}
	t, err := time.Parse(expiryLayout, s)
	if err != nil {
		return time.Time{}, fmt.Errorf("bad expiry %q: %w", s, err)
	}
	return t, nil
}

// underlyingOf extracts the leading symbol letters from an option
// trading symbol (e.g. "NIFTY28AUG25C24400" → "NIFTY").
func underlyingOf(tsym string) string {
	for i := 0; i < len(tsym); i++ {
		if tsym[i] >= '0' && tsym[i] <= '9' {
			return tsym[:i]
		}
	}
	return tsym
}

type orderResponse struct {
	Stat        string `json:"stat"`
	OrderNumber string `json:"norenordno"`
	EMsg        string `json:"emsg"`
}
