package snapshot

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/mtlprog/lendstat/internal/domain"
)

// ErrIncomplete indicates a portfolio with markets still loading, which is not stored.
var ErrIncomplete = errors.New("portfolio has markets still loading")

// PortfolioService defines the live portfolio source.
type PortfolioService interface {
	GetPortfolio(ctx context.Context, account string) (domain.Portfolio, error)
}

// Service manages snapshot generation and retrieval for one network.
type Service struct {
	portfolios PortfolioService
	repo       Repository
	network    string
}

// NewService creates a new snapshot Service.
func NewService(portfolios PortfolioService, repo Repository, network string) *Service {
	if portfolios == nil || repo == nil {
		panic("snapshot.NewService: nil dependency")
	}
	return &Service{portfolios: portfolios, repo: repo, network: network}
}

// normalize lowercases addresses so lookups ignore checksum case.
func normalize(address string) string {
	return strings.ToLower(strings.TrimSpace(address))
}

// Generate reads the live portfolio of account and stores it under date.
func (s *Service) Generate(ctx context.Context, account string, date time.Time) (domain.Portfolio, error) {
	address := normalize(account)

	p, err := s.portfolios.GetPortfolio(ctx, address)
	if err != nil {
		return domain.Portfolio{}, fmt.Errorf("building portfolio: %w", err)
	}
	if len(p.Loading) > 0 {
		return p, fmt.Errorf("%w: %s", ErrIncomplete, strings.Join(p.Loading, ", "))
	}

	accountID, err := s.repo.EnsureAccount(ctx, s.network, address)
	if err != nil {
		return domain.Portfolio{}, fmt.Errorf("registering account: %w", err)
	}

	data, err := json.Marshal(p)
	if err != nil {
		return domain.Portfolio{}, fmt.Errorf("marshaling portfolio: %w", err)
	}

	if err := s.repo.Save(ctx, accountID, date.UTC().Truncate(24*time.Hour), data); err != nil {
		return domain.Portfolio{}, fmt.Errorf("saving snapshot: %w", err)
	}

	return p, nil
}

// GetLatest retrieves the most recent snapshot for account.
func (s *Service) GetLatest(ctx context.Context, account string) (*Snapshot, error) {
	return s.repo.GetLatest(ctx, s.network, normalize(account))
}

// GetByDate retrieves the snapshot of account for a specific date.
func (s *Service) GetByDate(ctx context.Context, account string, date time.Time) (*Snapshot, error) {
	return s.repo.GetByDate(ctx, s.network, normalize(account), date)
}

// List retrieves recent snapshots of account, newest first.
func (s *Service) List(ctx context.Context, account string, limit int) ([]Snapshot, error) {
	return s.repo.List(ctx, s.network, normalize(account), limit)
}

// Decode unmarshals the stored portfolio of a snapshot.
func Decode(s *Snapshot) (domain.Portfolio, error) {
	var p domain.Portfolio
	if err := json.Unmarshal(s.Data, &p); err != nil {
		return domain.Portfolio{}, fmt.Errorf("decoding snapshot %d: %w", s.ID, err)
	}
	return p, nil
}
