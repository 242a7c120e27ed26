package model

import "time"

// OptionType distinguishes calls and puts. Values use the NFO
// convention (CE/PE) so they pass through broker payloads unchanged.
type OptionType string

const (
	OptionCall OptionType = "CE"
	OptionPut  OptionType = "PE"
)

// Contract is a single option contract from a broker contract search.
// Immutable; its lifetime is one resolution call.
type Contract struct {
	Underlying    string     `json:"underlying"`
	TradingSymbol string     `json:"trading_symbol"`
	Exchange      string     `json:"exchange"`
	Token         string     `json:"token"`
	OptionType    OptionType `json:"option_type"`
	Strike        float64    `json:"strike"`
	Expiry        time.Time  `json:"expiry"`
	LotSize       int        `json:"lot_size"`
}

// Key returns a unique key for this contract: "exchange:token".
func (c *Contract) Key() string {
	return c.Exchange + ":" + c.Token
}
