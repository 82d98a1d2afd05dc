package snapshot

import (
	"context"
	"encoding/json"
	"errors"
	"testing"
	"time"

	"github.com/shopspring/decimal"

	"github.com/mtlprog/lendstat/internal/domain"
)

type mockPortfolioService struct {
	portfolio   domain.Portfolio
	err         error
	lastAccount string
}

func (m *mockPortfolioService) GetPortfolio(_ context.Context, account string) (domain.Portfolio, error) {
	m.lastAccount = account
	p := m.portfolio
	p.Account = account
	return p, m.err
}

type mockRepo struct {
	accountID    int
	accountErr   error
	saveErr      error
	savedData    json.RawMessage
	savedDate    time.Time
	savedAccount int
	lastNetwork  string
	lastAddress  string
	latest       *Snapshot
	latestErr    error
	list         []Snapshot
}

func (m *mockRepo) Save(_ context.Context, accountID int, date time.Time, data json.RawMessage) error {
	m.savedAccount = accountID
	m.savedData = data
	m.savedDate = date
	return m.saveErr
}

func (m *mockRepo) GetLatest(_ context.Context, network, address string) (*Snapshot, error) {
	m.lastNetwork, m.lastAddress = network, address
	if m.latestErr != nil {
		return nil, m.latestErr
	}
	return m.latest, nil
}

func (m *mockRepo) GetByDate(_ context.Context, network, address string, _ time.Time) (*Snapshot, error) {
	m.lastNetwork, m.lastAddress = network, address
	if m.latest == nil {
		return nil, ErrNotFound
	}
	return m.latest, nil
}

func (m *mockRepo) List(_ context.Context, network, address string, _ int) ([]Snapshot, error) {
	m.lastNetwork, m.lastAddress = network, address
	return m.list, nil
}

func (m *mockRepo) EnsureAccount(_ context.Context, network, address string) (int, error) {
	m.lastNetwork, m.lastAddress = network, address
	return m.accountID, m.accountErr
}

func samplePortfolio() domain.Portfolio {
	return domain.Portfolio{
		Network: "mainnet",
		Snapshot: domain.PortfolioSnapshot{
			TotalSuppliedValue: decimal.NewFromInt(1000),
			BorrowLimitValue:   decimal.NewFromInt(500),
		},
	}
}

func TestGenerateSuccess(t *testing.T) {
	repo := &mockRepo{accountID: 7}
	portfolios := &mockPortfolioService{portfolio: samplePortfolio()}
	svc := NewService(portfolios, repo, "mainnet")

	date := time.Date(2026, 3, 14, 15, 9, 26, 0, time.UTC)
	result, err := svc.Generate(context.Background(), "0xABCDEF", date)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if portfolios.lastAccount != "0xabcdef" || repo.lastAddress != "0xabcdef" {
		t.Errorf("address not normalized: %q / %q", portfolios.lastAccount, repo.lastAddress)
	}
	if repo.lastNetwork != "mainnet" || repo.savedAccount != 7 {
		t.Errorf("saved under %s/%d", repo.lastNetwork, repo.savedAccount)
	}
	if !repo.savedDate.Equal(time.Date(2026, 3, 14, 0, 0, 0, 0, time.UTC)) {
		t.Errorf("savedDate = %v, want start of day", repo.savedDate)
	}

	stored, err := Decode(&Snapshot{Data: repo.savedData})
	if err != nil {
		t.Fatalf("decoding saved data: %v", err)
	}
	if !stored.Snapshot.TotalSuppliedValue.Equal(result.Snapshot.TotalSuppliedValue) {
		t.Errorf("stored supplied = %s, want %s", stored.Snapshot.TotalSuppliedValue, result.Snapshot.TotalSuppliedValue)
	}
}

func TestGenerateIncompletePortfolio(t *testing.T) {
	p := samplePortfolio()
	p.Loading = []string{"0xdai"}
	repo := &mockRepo{accountID: 1}
	svc := NewService(&mockPortfolioService{portfolio: p}, repo, "mainnet")

	_, err := svc.Generate(context.Background(), "0xabc", time.Now())
	if !errors.Is(err, ErrIncomplete) {
		t.Fatalf("error = %v, want ErrIncomplete", err)
	}
	if repo.savedData != nil {
		t.Error("incomplete portfolio should not be saved")
	}
}

func TestGeneratePortfolioError(t *testing.T) {
	svc := NewService(&mockPortfolioService{err: errors.New("rpc down")}, &mockRepo{}, "mainnet")

	if _, err := svc.Generate(context.Background(), "0xabc", time.Now()); err == nil {
		t.Fatal("expected error from portfolio service")
	}
}

func TestGenerateRepoErrors(t *testing.T) {
	tests := []struct {
		name string
		repo *mockRepo
	}{
		{"ensure account", &mockRepo{accountErr: errors.New("db down")}},
		{"save", &mockRepo{accountID: 1, saveErr: errors.New("save failed")}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			svc := NewService(&mockPortfolioService{portfolio: samplePortfolio()}, tt.repo, "mainnet")
			if _, err := svc.Generate(context.Background(), "0xabc", time.Now()); err == nil {
				t.Fatal("expected error")
			}
		})
	}
}

func TestGetLatestNormalizesAddress(t *testing.T) {
	repo := &mockRepo{latestErr: ErrNotFound}
	svc := NewService(&mockPortfolioService{}, repo, "rinkeby")

	_, err := svc.GetLatest(context.Background(), " 0xAbC ")
	if !errors.Is(err, ErrNotFound) {
		t.Errorf("error = %v, want ErrNotFound", err)
	}
	if repo.lastNetwork != "rinkeby" || repo.lastAddress != "0xabc" {
		t.Errorf("lookup = %s/%s", repo.lastNetwork, repo.lastAddress)
	}
}

func TestDecodeInvalidData(t *testing.T) {
	if _, err := Decode(&Snapshot{ID: 3, Data: json.RawMessage(`{"snapshot":`)}); err == nil {
		t.Error("expected error for truncated data")
	}
}
