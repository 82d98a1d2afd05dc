package format

import (
	"github.com/samber/lo"
	"github.com/shopspring/decimal"

	"github.com/mtlprog/lendstat/internal/domain"
)

// MarketView is the display rendering of one position.
type MarketView struct {
	Symbol           string `json:"symbol"`
	MarketAddress    string `json:"marketAddress"`
	Price            string `json:"price"`
	Supplied         string `json:"supplied"`
	SuppliedValue    string `json:"suppliedValue"`
	Borrowed         string `json:"borrowed"`
	BorrowedValue    string `json:"borrowedValue"`
	Liquidity        string `json:"liquidity"`
	SupplyAPY        string `json:"supplyApy"`
	BorrowAPY        string `json:"borrowApy"`
	CollateralFactor string `json:"collateralFactor"`
	Collateral       bool   `json:"collateral"`
}

// PortfolioView is the display rendering of a portfolio.
type PortfolioView struct {
	Account       string       `json:"account"`
	Network       string       `json:"network"`
	TotalSupplied string       `json:"totalSupplied"`
	TotalBorrowed string       `json:"totalBorrowed"`
	BorrowLimit   string       `json:"borrowLimit"`
	UsedLimit     string       `json:"usedLimit"`
	NetAPY        string       `json:"netApy"`
	Markets       []MarketView `json:"markets"`
	Loading       []string     `json:"loading"`
	Unavailable   []string     `json:"unavailable"`
}

// Market renders one position.
func Market(p domain.MarketPosition) MarketView {
	return MarketView{
		Symbol:           p.Asset.Symbol,
		MarketAddress:    p.Asset.MarketAddress,
		Price:            Currency(p.Price),
		Supplied:         Trimmed(p.SuppliedUnderlying, int32(p.Asset.Decimals)),
		SuppliedValue:    Currency(p.SuppliedValue),
		Borrowed:         Trimmed(p.BorrowedUnderlying, int32(p.Asset.Decimals)),
		BorrowedValue:    Currency(p.BorrowedValue),
		Liquidity:        Currency(p.LiquidityValue),
		SupplyAPY:        Percent(p.SupplyAPY),
		BorrowAPY:        Percent(p.BorrowAPY),
		CollateralFactor: Fraction(p.CollateralFactor),
		Collateral:       p.Asset.IsCollateral,
	}
}

// View renders a portfolio. Ratios without a meaningful denominator render as Placeholder.
func View(p domain.Portfolio) PortfolioView {
	s := p.Snapshot

	var usedLimit, netAPY *decimal.Decimal
	if s.BorrowLimitValue.IsPositive() {
		usedLimit = &s.UsedLimitFraction
	}
	if s.TotalSuppliedValue.Add(s.TotalBorrowedValue).IsPositive() {
		netAPY = &s.NetAPY
	}

	return PortfolioView{
		Account:       p.Account,
		Network:       p.Network,
		TotalSupplied: Currency(s.TotalSuppliedValue),
		TotalBorrowed: Currency(s.TotalBorrowedValue),
		BorrowLimit:   Currency(s.BorrowLimitValue),
		UsedLimit:     OrPlaceholder(usedLimit, Fraction),
		NetAPY:        OrPlaceholder(netAPY, Percent),
		Markets:       lo.Map(p.Positions, func(pos domain.MarketPosition, _ int) MarketView { return Market(pos) }),
		Loading:       lo.Ternary(p.Loading == nil, []string{}, p.Loading),
		Unavailable:   lo.Ternary(p.Unavailable == nil, []string{}, p.Unavailable),
	}
}
