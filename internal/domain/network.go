package domain

import (
	"errors"
	"strings"

	"github.com/holiman/uint256"
	"github.com/samber/lo"
)

// ErrUnknownNetwork indicates a network name missing from the registry.
var ErrUnknownNetwork = errors.New("unknown network")

// MarketConfig describes one listed market. It is configuration supplied by the caller,
// never computed from chain reads.
type MarketConfig struct {
	Symbol            string       `json:"symbol"`
	MarketAddress     string       `json:"marketAddress"`
	UnderlyingAddress string       `json:"underlyingAddress"`
	Decimals          int          `json:"decimals"`
	CollateralFactor  *uint256.Int `json:"collateralFactor,omitempty"` // mantissa, scale 1e18
}

// Network holds chain-specific constants and the listed markets.
type Network struct {
	Name         string         `json:"name"`
	ChainID      int64          `json:"chainId"`
	Comptroller  string         `json:"comptroller"`
	PriceOracle  string         `json:"priceOracle,omitempty"`
	BlocksPerDay int            `json:"blocksPerDay"`
	DaysPerYear  int            `json:"daysPerYear"`
	Markets      []MarketConfig `json:"markets"`
}

// MarketByAddress looks up a listed market, ignoring address case.
func (n Network) MarketByAddress(address string) (MarketConfig, bool) {
	return lo.Find(n.Markets, func(m MarketConfig) bool {
		return strings.EqualFold(m.MarketAddress, address)
	})
}

// MarketBySymbol looks up a listed market by its symbol, ignoring case.
func (n Network) MarketBySymbol(symbol string) (MarketConfig, bool) {
	return lo.Find(n.Markets, func(m MarketConfig) bool {
		return strings.EqualFold(m.Symbol, symbol)
	})
}

// MarketAddresses returns the market addresses in registry order.
func (n Network) MarketAddresses() []string {
	return lo.Map(n.Markets, func(m MarketConfig, _ int) string { return m.MarketAddress })
}
