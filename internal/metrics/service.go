// Package metrics publishes market-wide figures as Prometheus gauges.
package metrics

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/mtlprog/lendstat/internal/domain"
)

// MarketSource provides the market overview.
type MarketSource interface {
	GetMarkets(ctx context.Context) (domain.Portfolio, error)
}

// Service refreshes per-market gauges from the market overview.
type Service struct {
	source MarketSource

	supplyAPY *prometheus.GaugeVec
	borrowAPY *prometheus.GaugeVec
	liquidity *prometheus.GaugeVec
	price     *prometheus.GaugeVec
	markets   *prometheus.GaugeVec
}

// NewService creates a new metrics Service and registers its gauges with reg.
func NewService(source MarketSource, reg prometheus.Registerer) *Service {
	if source == nil {
		panic("metrics.NewService: source is nil")
	}
	s := &Service{
		source: source,
		supplyAPY: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Name: "lendstat_market_supply_apy_percent",
			Help: "Supply APY per market, in percent.",
		}, []string{"symbol"}),
		borrowAPY: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Name: "lendstat_market_borrow_apy_percent",
			Help: "Borrow APY per market, in percent.",
		}, []string{"symbol"}),
		liquidity: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Name: "lendstat_market_liquidity_value",
			Help: "Available market cash in quote units.",
		}, []string{"symbol"}),
		price: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Name: "lendstat_market_underlying_price",
			Help: "Oracle price of the underlying asset in quote units.",
		}, []string{"symbol"}),
		markets: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Name: "lendstat_markets",
			Help: "Listed markets by read state.",
		}, []string{"state"}),
	}
	reg.MustRegister(s.supplyAPY, s.borrowAPY, s.liquidity, s.price, s.markets)
	return s
}

// RefreshMarkets reads the market overview and updates every gauge.
// Markets that are loading or unavailable keep their previous values.
func (s *Service) RefreshMarkets(ctx context.Context) error {
	p, err := s.source.GetMarkets(ctx)
	if err != nil {
		return fmt.Errorf("reading markets: %w", err)
	}

	for _, pos := range p.Positions {
		symbol := pos.Asset.Symbol
		s.supplyAPY.WithLabelValues(symbol).Set(pos.SupplyAPY.InexactFloat64())
		s.borrowAPY.WithLabelValues(symbol).Set(pos.BorrowAPY.InexactFloat64())
		s.liquidity.WithLabelValues(symbol).Set(pos.LiquidityValue.InexactFloat64())
		s.price.WithLabelValues(symbol).Set(pos.Price.InexactFloat64())
	}

	s.markets.WithLabelValues(string(domain.MarketExists)).Set(float64(len(p.Positions)))
	s.markets.WithLabelValues(string(domain.MarketLoading)).Set(float64(len(p.Loading)))
	s.markets.WithLabelValues(string(domain.MarketNotExists)).Set(float64(len(p.Unavailable)))

	slog.Debug("metrics: markets refreshed", "exists", len(p.Positions), "loading", len(p.Loading), "unavailable", len(p.Unavailable))
	return nil
}
