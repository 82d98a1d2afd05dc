package export

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/shopspring/decimal"

	"github.com/mtlprog/lendstat/internal/domain"
)

// SheetWriter writes a portfolio to a spreadsheet destination.
type SheetWriter interface {
	Write(ctx context.Context, p domain.Portfolio, at time.Time) error
}

// Service fans a portfolio out to every configured SheetWriter.
type Service struct {
	writers []SheetWriter
}

// NewService creates a new export Service. Nil writers are skipped.
func NewService(writers ...SheetWriter) *Service {
	s := &Service{}
	for _, w := range writers {
		if w != nil {
			s.writers = append(s.writers, w)
		}
	}
	return s
}

// Enabled reports whether at least one writer is configured.
func (s *Service) Enabled() bool {
	return len(s.writers) > 0
}

// Export writes p with every writer, continuing past failures.
// Implements worker.AfterSnapshotHook.
func (s *Service) Export(ctx context.Context, p domain.Portfolio) error {
	now := time.Now().UTC()
	var errs []error
	for _, w := range s.writers {
		if err := w.Write(ctx, p, now); err != nil {
			errs = append(errs, fmt.Errorf("%T: %w", w, err))
			continue
		}
		slog.Info("export: portfolio written", "writer", fmt.Sprintf("%T", w), "account", p.Account)
	}
	return errors.Join(errs...)
}

var marketHeader = []any{
	"Symbol", "Market", "Price", "Supplied", "Supplied value", "Borrowed", "Borrowed value",
	"Liquidity", "Supply APY %", "Borrow APY %", "Collateral factor", "Collateral",
}

// buildMarketRows builds the per-market sheet: a header then one row per position.
func buildMarketRows(p domain.Portfolio) [][]any {
	data := make([][]any, 0, len(p.Positions)+1)
	data = append(data, marketHeader)

	for _, pos := range p.Positions {
		data = append(data, []any{
			pos.Asset.Symbol,
			pos.Asset.MarketAddress,
			toFloat(pos.Price),
			toFloat(pos.SuppliedUnderlying),
			toFloat(pos.SuppliedValue),
			toFloat(pos.BorrowedUnderlying),
			toFloat(pos.BorrowedValue),
			toFloat(pos.LiquidityValue),
			toFloat(pos.SupplyAPY),
			toFloat(pos.BorrowAPY),
			toFloat(pos.CollateralFactor),
			pos.Asset.IsCollateral,
		})
	}
	return data
}

// buildSummaryRows builds the label/value summary sheet.
func buildSummaryRows(p domain.Portfolio, at time.Time) [][]any {
	s := p.Snapshot
	return [][]any{
		{"Account", p.Account},
		{"Network", p.Network},
		{"Generated", at.UTC().Format(time.RFC3339)},
		{"Total supplied", toFloat(s.TotalSuppliedValue)},
		{"Total borrowed", toFloat(s.TotalBorrowedValue)},
		{"Borrow limit", toFloat(s.BorrowLimitValue)},
		{"Used limit", toFloat(s.UsedLimitFraction)},
		{"Net APY %", toFloat(s.NetAPY)},
		{"Markets loading", len(p.Loading)},
		{"Markets unavailable", len(p.Unavailable)},
	}
}

var historyHeader = []any{"Date", "Account", "Total supplied", "Total borrowed", "Borrow limit", "Used limit", "Net APY %"}

// buildHistoryRow builds one appended row of the history sheet.
func buildHistoryRow(p domain.Portfolio, at time.Time) []any {
	s := p.Snapshot
	return []any{
		at.UTC().Format("02.01.2006"),
		p.Account,
		toFloat(s.TotalSuppliedValue),
		toFloat(s.TotalBorrowedValue),
		toFloat(s.BorrowLimitValue),
		toFloat(s.UsedLimitFraction),
		toFloat(s.NetAPY),
	}
}

// shortAccount abbreviates an address for sheet titles: 0x1234…abcd.
func shortAccount(account string) string {
	if len(account) <= 10 {
		return account
	}
	return account[:6] + "…" + account[len(account)-4:]
}

func toFloat(d decimal.Decimal) float64 {
	return d.InexactFloat64()
}
