package market

import (
	"testing"

	"github.com/holiman/uint256"
	"github.com/leanovate/gopter"
	"github.com/leanovate/gopter/gen"
	"github.com/leanovate/gopter/prop"

	"github.com/mtlprog/lendstat/internal/domain"
)

var daiMarket = domain.MarketConfig{
	Symbol:            "cDAI",
	MarketAddress:     "0x5d3a536E4D6DbD6114cc1Ead35777bAB948E3643",
	UnderlyingAddress: "0x6B175474E89094C44Da98b954EedeAC495271d0F",
	Decimals:          18,
	CollateralFactor:  domain.MustMantissa("750000000000000000"),
}

func resolvedReads() domain.MarketReads {
	return domain.MarketReads{
		SupplyRatePerBlock: domain.Resolved(uint256.NewInt(1_000_000_000)),
		BorrowRatePerBlock: domain.Resolved(uint256.NewInt(2_000_000_000)),
		AccountSnapshot: domain.Resolved(domain.AccountSnapshot{
			ErrorCode:     uint256.NewInt(0),
			CTokenBalance: domain.MustMantissa("5000000000000000000000"),
			BorrowBalance: domain.MustMantissa("100000000000000000000"),
			ExchangeRate:  domain.MustMantissa("200000000000000000"),
		}),
		Cash:            domain.Resolved(domain.MustMantissa("1000000000000000000000000")),
		IsCollateral:    domain.Resolved(true),
		UnderlyingPrice: domain.Resolved(domain.MustMantissa("1000000000000000000")),
	}
}

func TestBuildExists(t *testing.T) {
	state := Build(daiMarket, resolvedReads())

	if state.Kind != domain.MarketExists {
		t.Fatalf("Kind = %s, want exists", state.Kind)
	}
	a := state.Asset
	if a.MarketAddress != daiMarket.MarketAddress || a.Symbol != "cDAI" || a.Decimals != 18 {
		t.Errorf("identity fields = %+v", a)
	}
	if a.SuppliedRaw.Dec() != "5000000000000000000000" {
		t.Errorf("SuppliedRaw = %s", a.SuppliedRaw.Dec())
	}
	if a.BorrowedRaw.Dec() != "100000000000000000000" {
		t.Errorf("BorrowedRaw = %s", a.BorrowedRaw.Dec())
	}
	if !a.IsCollateral {
		t.Error("IsCollateral = false, want true")
	}
	if a.CollateralFactor.Dec() != "750000000000000000" {
		t.Errorf("CollateralFactor = %s", a.CollateralFactor.Dec())
	}
}

func TestBuildDoesNotAliasReads(t *testing.T) {
	reads := resolvedReads()
	state := Build(daiMarket, reads)

	price, _ := reads.UnderlyingPrice.Get()
	price.SetUint64(1)

	if state.Asset.UnderlyingPriceRaw.Uint64() == 1 {
		t.Error("MarketAsset shares memory with the read it was built from")
	}
}

func TestBuildLoadingWhenAnyReadPending(t *testing.T) {
	mutations := map[string]func(*domain.MarketReads){
		"supply rate":      func(r *domain.MarketReads) { r.SupplyRatePerBlock = domain.Pending[*uint256.Int]() },
		"borrow rate":      func(r *domain.MarketReads) { r.BorrowRatePerBlock = domain.Pending[*uint256.Int]() },
		"account snapshot": func(r *domain.MarketReads) { r.AccountSnapshot = domain.Pending[domain.AccountSnapshot]() },
		"cash":             func(r *domain.MarketReads) { r.Cash = domain.Pending[*uint256.Int]() },
		"membership":       func(r *domain.MarketReads) { r.IsCollateral = domain.Pending[bool]() },
		"price":            func(r *domain.MarketReads) { r.UnderlyingPrice = domain.Pending[*uint256.Int]() },
	}

	for name, mutate := range mutations {
		t.Run(name, func(t *testing.T) {
			reads := resolvedReads()
			mutate(&reads)
			if got := Build(daiMarket, reads).Kind; got != domain.MarketLoading {
				t.Errorf("Kind = %s, want loading", got)
			}
		})
	}
}

func TestBuildPendingWinsOverEmpty(t *testing.T) {
	reads := resolvedReads()
	reads.Cash = domain.Empty[*uint256.Int]()
	reads.UnderlyingPrice = domain.Pending[*uint256.Int]()

	if got := Build(daiMarket, reads).Kind; got != domain.MarketLoading {
		t.Errorf("Kind = %s, want loading", got)
	}
}

func TestBuildNotExists(t *testing.T) {
	t.Run("empty read", func(t *testing.T) {
		reads := resolvedReads()
		reads.SupplyRatePerBlock = domain.Empty[*uint256.Int]()
		if got := Build(daiMarket, reads).Kind; got != domain.MarketNotExists {
			t.Errorf("Kind = %s, want not_exists", got)
		}
	})

	t.Run("snapshot error code", func(t *testing.T) {
		reads := resolvedReads()
		reads.AccountSnapshot = domain.Resolved(domain.AccountSnapshot{ErrorCode: uint256.NewInt(9)})
		if got := Build(daiMarket, reads).Kind; got != domain.MarketNotExists {
			t.Errorf("Kind = %s, want not_exists", got)
		}
	})
}

func TestBuildAllPreservesOrder(t *testing.T) {
	usdc := domain.MarketConfig{Symbol: "cUSDC", MarketAddress: "0x39AA39c021dfbaE8faC545936693aC917d5E7563", Decimals: 6}
	eth := domain.MarketConfig{Symbol: "cETH", MarketAddress: "0x4Ddc2D193948926D02f9B1fE9e1daa0718270ED5", Decimals: 18}

	missing := resolvedReads()
	missing.Cash = domain.Empty[*uint256.Int]()

	states := BuildAll([]domain.MarketConfig{usdc, daiMarket, eth}, map[string]domain.MarketReads{
		daiMarket.MarketAddress: resolvedReads(),
		usdc.MarketAddress:      missing,
	})

	wantKinds := []domain.MarketStateKind{domain.MarketNotExists, domain.MarketExists, domain.MarketLoading}
	for i, s := range states {
		if s.Kind != wantKinds[i] {
			t.Errorf("states[%d].Kind = %s, want %s", i, s.Kind, wantKinds[i])
		}
	}

	existing, loading, unavailable := Partition(states)
	if len(existing) != 1 || existing[0].Symbol != "cDAI" {
		t.Errorf("existing = %+v", existing)
	}
	if len(loading) != 1 || loading[0] != eth.MarketAddress {
		t.Errorf("loading = %v", loading)
	}
	if len(unavailable) != 1 || unavailable[0] != usdc.MarketAddress {
		t.Errorf("unavailable = %v", unavailable)
	}
}

func TestExistsOnlyWhenAllResolvedProperty(t *testing.T) {
	properties := gopter.NewProperties(nil)

	// Each bit of mask marks one of the six reads as pending.
	properties.Property("a market exists only when no read is pending", prop.ForAll(
		func(mask uint8) bool {
			reads := resolvedReads()
			if mask&1 != 0 {
				reads.SupplyRatePerBlock = domain.Pending[*uint256.Int]()
			}
			if mask&2 != 0 {
				reads.BorrowRatePerBlock = domain.Pending[*uint256.Int]()
			}
			if mask&4 != 0 {
				reads.AccountSnapshot = domain.Pending[domain.AccountSnapshot]()
			}
			if mask&8 != 0 {
				reads.Cash = domain.Pending[*uint256.Int]()
			}
			if mask&16 != 0 {
				reads.IsCollateral = domain.Pending[bool]()
			}
			if mask&32 != 0 {
				reads.UnderlyingPrice = domain.Pending[*uint256.Int]()
			}
			kind := Build(daiMarket, reads).Kind
			if mask&63 == 0 {
				return kind == domain.MarketExists
			}
			return kind == domain.MarketLoading
		},
		gen.UInt8(),
	))

	properties.TestingRun(t)
}
