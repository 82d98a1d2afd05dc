package domain

import "github.com/shopspring/decimal"

// MarketPosition is a MarketAsset with its display values derived.
type MarketPosition struct {
	Asset              MarketAsset     `json:"asset"`
	Price              decimal.Decimal `json:"price"`
	SuppliedUnderlying decimal.Decimal `json:"suppliedUnderlying"`
	BorrowedUnderlying decimal.Decimal `json:"borrowedUnderlying"`
	SuppliedValue      decimal.Decimal `json:"suppliedValue"`
	BorrowedValue      decimal.Decimal `json:"borrowedValue"`
	LiquidityValue     decimal.Decimal `json:"liquidityValue"`
	CollateralFactor   decimal.Decimal `json:"collateralFactor"`
	SupplyAPY          decimal.Decimal `json:"supplyApy"`
	BorrowAPY          decimal.Decimal `json:"borrowApy"`
}

// PortfolioSnapshot is the aggregate over a set of existing markets.
// It is a pure function of its input markets.
type PortfolioSnapshot struct {
	TotalSuppliedValue decimal.Decimal `json:"totalSuppliedValue"`
	TotalBorrowedValue decimal.Decimal `json:"totalBorrowedValue"`
	BorrowLimitValue   decimal.Decimal `json:"borrowLimitValue"`
	UsedLimitFraction  decimal.Decimal `json:"usedLimitFraction"`
	NetAPY             decimal.Decimal `json:"netApy"`
}

// Portfolio is the output handed to the presentation layer: totals, the ordered
// positions of existing markets, and the markets that are still loading or unavailable.
type Portfolio struct {
	Account     string            `json:"account"`
	Network     string            `json:"network"`
	Snapshot    PortfolioSnapshot `json:"snapshot"`
	Positions   []MarketPosition  `json:"positions"`
	Loading     []string          `json:"loading"`
	Unavailable []string          `json:"unavailable"`
}

// Position looks up the position for a market address.
func (p Portfolio) Position(marketAddress string) (MarketPosition, bool) {
	for _, pos := range p.Positions {
		if pos.Asset.MarketAddress == marketAddress {
			return pos, true
		}
	}
	return MarketPosition{}, false
}
