package domain

import (
	"github.com/holiman/uint256"
	"github.com/samber/lo"
)

// AccountSnapshot is the decoded result of cToken.getAccountSnapshot(account).
type AccountSnapshot struct {
	ErrorCode     *uint256.Int
	CTokenBalance *uint256.Int
	BorrowBalance *uint256.Int
	ExchangeRate  *uint256.Int
}

// OK reports whether the market returned a zero error code.
func (s AccountSnapshot) OK() bool {
	return s.ErrorCode == nil || s.ErrorCode.IsZero()
}

// MarketReads holds the six independent reads for one market and account.
type MarketReads struct {
	SupplyRatePerBlock Read[*uint256.Int]
	BorrowRatePerBlock Read[*uint256.Int]
	AccountSnapshot    Read[AccountSnapshot]
	Cash               Read[*uint256.Int]
	IsCollateral       Read[bool]
	UnderlyingPrice    Read[*uint256.Int]
}

// statuses lists the status of every read in a fixed order.
func (r MarketReads) statuses() []ReadStatus {
	return []ReadStatus{
		r.SupplyRatePerBlock.Status(),
		r.BorrowRatePerBlock.Status(),
		r.AccountSnapshot.Status(),
		r.Cash.Status(),
		r.IsCollateral.Status(),
		r.UnderlyingPrice.Status(),
	}
}

// AnyPending reports whether at least one read has not resolved.
func (r MarketReads) AnyPending() bool {
	return lo.Contains(r.statuses(), ReadPending)
}

// AnyEmpty reports whether at least one read resolved to an absent result.
func (r MarketReads) AnyEmpty() bool {
	return lo.Contains(r.statuses(), ReadEmpty)
}

// MarketAsset is one fully-read money-market asset for an account.
// It is rebuilt from fresh reads on every cycle and never mutated.
type MarketAsset struct {
	Symbol             string       `json:"symbol"`
	MarketAddress      string       `json:"marketAddress"`
	UnderlyingAddress  string       `json:"underlyingAddress"`
	Decimals           int          `json:"decimals"`
	SupplyRatePerBlock *uint256.Int `json:"supplyRatePerBlock"`
	BorrowRatePerBlock *uint256.Int `json:"borrowRatePerBlock"`
	SuppliedRaw        *uint256.Int `json:"suppliedRaw"`
	BorrowedRaw        *uint256.Int `json:"borrowedRaw"`
	ExchangeRateRaw    *uint256.Int `json:"exchangeRateRaw"`
	CashRaw            *uint256.Int `json:"cashRaw"`
	IsCollateral       bool         `json:"isCollateral"`
	UnderlyingPriceRaw *uint256.Int `json:"underlyingPriceRaw"`
	CollateralFactor   *uint256.Int `json:"collateralFactor"`
}

// MarketStateKind discriminates MarketState.
type MarketStateKind string

const (
	MarketLoading   MarketStateKind = "loading"
	MarketNotExists MarketStateKind = "not_exists"
	MarketExists    MarketStateKind = "exists"
)

// MarketState is the per-market result of combining reads: Loading, NotExists or Exists(asset).
type MarketState struct {
	Kind          MarketStateKind
	MarketAddress string
	Asset         MarketAsset // set only when Kind == MarketExists
}

// LoadingMarket returns the Loading state for a market.
func LoadingMarket(address string) MarketState {
	return MarketState{Kind: MarketLoading, MarketAddress: address}
}

// MissingMarket returns the NotExists state for a market.
func MissingMarket(address string) MarketState {
	return MarketState{Kind: MarketNotExists, MarketAddress: address}
}

// ExistingMarket returns the Exists state carrying asset.
func ExistingMarket(asset MarketAsset) MarketState {
	return MarketState{Kind: MarketExists, MarketAddress: asset.MarketAddress, Asset: asset}
}
