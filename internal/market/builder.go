// Package market combines the independent on-chain reads of a market into a MarketState.
package market

import (
	"github.com/holiman/uint256"
	"github.com/samber/lo"

	"github.com/mtlprog/lendstat/internal/domain"
)

// Build combines the six reads for one market. Any pending read keeps the market Loading;
// otherwise any empty read, or a non-zero account snapshot error code, makes it NotExists.
// Fields are combined only when all six reads are resolved.
func Build(cfg domain.MarketConfig, reads domain.MarketReads) domain.MarketState {
	if reads.AnyPending() {
		return domain.LoadingMarket(cfg.MarketAddress)
	}
	if reads.AnyEmpty() {
		return domain.MissingMarket(cfg.MarketAddress)
	}

	supplyRate, _ := reads.SupplyRatePerBlock.Get()
	borrowRate, _ := reads.BorrowRatePerBlock.Get()
	snap, _ := reads.AccountSnapshot.Get()
	cash, _ := reads.Cash.Get()
	isCollateral, _ := reads.IsCollateral.Get()
	price, _ := reads.UnderlyingPrice.Get()

	if !snap.OK() {
		return domain.MissingMarket(cfg.MarketAddress)
	}

	return domain.ExistingMarket(domain.MarketAsset{
		Symbol:             cfg.Symbol,
		MarketAddress:      cfg.MarketAddress,
		UnderlyingAddress:  cfg.UnderlyingAddress,
		Decimals:           cfg.Decimals,
		SupplyRatePerBlock: orZero(supplyRate),
		BorrowRatePerBlock: orZero(borrowRate),
		SuppliedRaw:        orZero(snap.CTokenBalance),
		BorrowedRaw:        orZero(snap.BorrowBalance),
		ExchangeRateRaw:    orZero(snap.ExchangeRate),
		CashRaw:            orZero(cash),
		IsCollateral:       isCollateral,
		UnderlyingPriceRaw: orZero(price),
		CollateralFactor:   orZero(cfg.CollateralFactor),
	})
}

// BuildAll builds a state for every configured market, preserving configuration order.
// Markets missing from reads are Loading.
func BuildAll(cfgs []domain.MarketConfig, reads map[string]domain.MarketReads) []domain.MarketState {
	return lo.Map(cfgs, func(cfg domain.MarketConfig, _ int) domain.MarketState {
		r, ok := reads[cfg.MarketAddress]
		if !ok {
			return domain.LoadingMarket(cfg.MarketAddress)
		}
		return Build(cfg, r)
	})
}

// Partition splits states by kind, keeping the input order within each group.
func Partition(states []domain.MarketState) (existing []domain.MarketAsset, loading, missing []string) {
	for _, s := range states {
		switch s.Kind {
		case domain.MarketExists:
			existing = append(existing, s.Asset)
		case domain.MarketLoading:
			loading = append(loading, s.MarketAddress)
		case domain.MarketNotExists:
			missing = append(missing, s.MarketAddress)
		}
	}
	return existing, loading, missing
}

func orZero(v *uint256.Int) *uint256.Int {
	if v == nil {
		return new(uint256.Int)
	}
	return new(uint256.Int).Set(v)
}
