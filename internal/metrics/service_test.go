package metrics

import (
	"context"
	"errors"
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/shopspring/decimal"

	"github.com/mtlprog/lendstat/internal/domain"
)

type mockMarketSource struct {
	portfolio domain.Portfolio
	err       error
}

func (m *mockMarketSource) GetMarkets(_ context.Context) (domain.Portfolio, error) {
	return m.portfolio, m.err
}

func TestRefreshMarkets(t *testing.T) {
	source := &mockMarketSource{portfolio: domain.Portfolio{
		Positions: []domain.MarketPosition{{
			Asset:          domain.MarketAsset{Symbol: "cDAI"},
			Price:          decimal.RequireFromString("1.0002"),
			LiquidityValue: decimal.NewFromInt(250000),
			SupplyAPY:      decimal.RequireFromString("2.5"),
			BorrowAPY:      decimal.RequireFromString("4.75"),
		}},
		Loading:     []string{"0xbat"},
		Unavailable: []string{"0xrep", "0xsai"},
	}}
	svc := NewService(source, prometheus.NewRegistry())

	if err := svc.RefreshMarkets(context.Background()); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if got := testutil.ToFloat64(svc.supplyAPY.WithLabelValues("cDAI")); got != 2.5 {
		t.Errorf("supply APY gauge = %v, want 2.5", got)
	}
	if got := testutil.ToFloat64(svc.borrowAPY.WithLabelValues("cDAI")); got != 4.75 {
		t.Errorf("borrow APY gauge = %v, want 4.75", got)
	}
	if got := testutil.ToFloat64(svc.liquidity.WithLabelValues("cDAI")); got != 250000 {
		t.Errorf("liquidity gauge = %v, want 250000", got)
	}
	if got := testutil.ToFloat64(svc.markets.WithLabelValues("not_exists")); got != 2 {
		t.Errorf("unavailable markets gauge = %v, want 2", got)
	}
	if got := testutil.ToFloat64(svc.markets.WithLabelValues("loading")); got != 1 {
		t.Errorf("loading markets gauge = %v, want 1", got)
	}
}

func TestRefreshMarketsSourceError(t *testing.T) {
	svc := NewService(&mockMarketSource{err: errors.New("rpc down")}, prometheus.NewRegistry())

	if err := svc.RefreshMarkets(context.Background()); err == nil {
		t.Fatal("expected error from source")
	}
}
