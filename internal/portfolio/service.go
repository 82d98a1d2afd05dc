package portfolio

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/mtlprog/lendstat/internal/domain"
	"github.com/mtlprog/lendstat/internal/market"
	"github.com/mtlprog/lendstat/internal/rate"
)

// ObserverAccount holds no positions; reading it yields market-wide figures only.
const ObserverAccount = "0x0000000000000000000000000000000000000000"

// MarketReader defines the chain reads needed to build a portfolio.
// Reads that fail transiently are returned pending rather than as an error.
type MarketReader interface {
	ReadMarkets(ctx context.Context, account string, markets []domain.MarketConfig) (map[string]domain.MarketReads, error)
}

// Service reads every listed market for an account and runs the portfolio pipeline.
type Service struct {
	reader  MarketReader
	network domain.Network
	ann     rate.Annualizer
}

// NewService creates a new portfolio Service.
func NewService(reader MarketReader, network domain.Network) *Service {
	if reader == nil {
		panic("portfolio.NewService: reader is nil")
	}
	return &Service{
		reader:  reader,
		network: network,
		ann:     rate.NewAnnualizer(network),
	}
}

// Network returns the network this service reads from.
func (s *Service) Network() domain.Network {
	return s.network
}

// GetPortfolio builds the portfolio of account across all listed markets.
func (s *Service) GetPortfolio(ctx context.Context, account string) (domain.Portfolio, error) {
	reads, err := s.reader.ReadMarkets(ctx, account, s.network.Markets)
	if err != nil {
		return domain.Portfolio{}, fmt.Errorf("reading markets for %s: %w", account, err)
	}

	states := market.BuildAll(s.network.Markets, reads)
	p := Aggregate(states, s.ann)
	p.Account = account
	p.Network = s.network.Name

	if len(p.Loading) > 0 || len(p.Unavailable) > 0 {
		slog.Info("portfolio built with incomplete markets",
			"account", account,
			"loading", len(p.Loading),
			"unavailable", len(p.Unavailable),
		)
	}
	return p, nil
}

// GetMarkets builds the market overview: rates, prices and liquidity with no account positions.
func (s *Service) GetMarkets(ctx context.Context) (domain.Portfolio, error) {
	return s.GetPortfolio(ctx, ObserverAccount)
}

// MarketPreview is a previewed action together with the market's current limits.
type MarketPreview struct {
	Market  string  `json:"market"`
	Symbol  string  `json:"symbol"`
	Preview Preview `json:"preview"`
	Limits  Limits  `json:"limits"`
}

// PreviewAction previews action on a market of account. The market may be given by address or symbol.
func (s *Service) PreviewAction(ctx context.Context, account, market string, action Action, amount string) (MarketPreview, error) {
	cfg, ok := s.network.MarketByAddress(market)
	if !ok {
		cfg, ok = s.network.MarketBySymbol(market)
	}
	if !ok {
		return MarketPreview{}, fmt.Errorf("market %s is not listed on %s", market, s.network.Name)
	}

	p, err := s.GetPortfolio(ctx, account)
	if err != nil {
		return MarketPreview{}, err
	}
	pos, ok := p.Position(cfg.MarketAddress)
	if !ok {
		return MarketPreview{}, fmt.Errorf("market %s has no resolved data yet", cfg.Symbol)
	}

	return MarketPreview{
		Market:  cfg.MarketAddress,
		Symbol:  cfg.Symbol,
		Preview: PreviewAction(p.Snapshot, pos, action, domain.SafeParse(amount)),
		Limits:  LimitsFor(p.Snapshot, pos),
	}, nil
}
