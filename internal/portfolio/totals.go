package portfolio

import (
	"github.com/samber/lo"
	"github.com/shopspring/decimal"

	"github.com/mtlprog/lendstat/internal/domain"
	"github.com/mtlprog/lendstat/internal/market"
	"github.com/mtlprog/lendstat/internal/rate"
)

// calculatePosition derives the display values for one market.
// Supplied underlying is the cToken balance converted through the exchange rate mantissa;
// the oracle price is scaled by 10^(36 - underlying decimals).
func calculatePosition(a domain.MarketAsset, ann rate.Annualizer) domain.MarketPosition {
	price := domain.ToDecimal(a.UnderlyingPriceRaw, domain.PriceScale(a.Decimals))
	exchangeRate := domain.ToDecimal(a.ExchangeRateRaw, domain.MantissaScale)

	supplied := domain.ToDecimal(a.SuppliedRaw, int32(a.Decimals)).Mul(exchangeRate)
	borrowed := domain.ToDecimal(a.BorrowedRaw, int32(a.Decimals))
	cash := domain.ToDecimal(a.CashRaw, int32(a.Decimals))

	return domain.MarketPosition{
		Asset:              a,
		Price:              price,
		SuppliedUnderlying: supplied,
		BorrowedUnderlying: borrowed,
		SuppliedValue:      supplied.Mul(price),
		BorrowedValue:      borrowed.Mul(price),
		LiquidityValue:     cash.Mul(price),
		CollateralFactor:   domain.ToDecimal(a.CollateralFactor, domain.MantissaScale),
		SupplyAPY:          ann.APY(a.SupplyRatePerBlock),
		BorrowAPY:          ann.APY(a.BorrowRatePerBlock),
	}
}

// collateralValue is the borrowing power contributed by a position.
func collateralValue(p domain.MarketPosition) decimal.Decimal {
	if !p.Asset.IsCollateral {
		return decimal.Zero
	}
	return p.SuppliedValue.Mul(p.CollateralFactor)
}

// calculateTotals folds positions into a PortfolioSnapshot. Sums are order-independent.
// The used-limit fraction is zero when there is no borrow limit, and the net APY is zero
// when no position carries value.
func calculateTotals(positions []domain.MarketPosition) domain.PortfolioSnapshot {
	totalSupplied := lo.Reduce(positions, func(acc decimal.Decimal, p domain.MarketPosition, _ int) decimal.Decimal {
		return acc.Add(p.SuppliedValue)
	}, decimal.Zero)

	totalBorrowed := lo.Reduce(positions, func(acc decimal.Decimal, p domain.MarketPosition, _ int) decimal.Decimal {
		return acc.Add(p.BorrowedValue)
	}, decimal.Zero)

	borrowLimit := lo.Reduce(positions, func(acc decimal.Decimal, p domain.MarketPosition, _ int) decimal.Decimal {
		return acc.Add(collateralValue(p))
	}, decimal.Zero)

	// Borrowed value earns negative yield.
	weightedYield := lo.Reduce(positions, func(acc decimal.Decimal, p domain.MarketPosition, _ int) decimal.Decimal {
		return acc.Add(p.SuppliedValue.Mul(p.SupplyAPY)).Sub(p.BorrowedValue.Mul(p.BorrowAPY))
	}, decimal.Zero)

	return domain.PortfolioSnapshot{
		TotalSuppliedValue: totalSupplied,
		TotalBorrowedValue: totalBorrowed,
		BorrowLimitValue:   borrowLimit,
		UsedLimitFraction:  domain.SafeDiv(totalBorrowed, borrowLimit),
		NetAPY:             domain.SafeDiv(weightedYield, totalSupplied.Add(totalBorrowed)),
	}
}

// Aggregate folds market states into a Portfolio. Only Exists markets contribute to totals;
// positions keep the input order, and Loading / NotExists markets are listed separately.
func Aggregate(states []domain.MarketState, ann rate.Annualizer) domain.Portfolio {
	assets, loading, unavailable := market.Partition(states)

	positions := lo.Map(assets, func(a domain.MarketAsset, _ int) domain.MarketPosition {
		return calculatePosition(a, ann)
	})

	return domain.Portfolio{
		Snapshot:    calculateTotals(positions),
		Positions:   positions,
		Loading:     loading,
		Unavailable: unavailable,
	}
}
