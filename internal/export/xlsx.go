package export

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/xuri/excelize/v2"

	"github.com/mtlprog/lendstat/internal/domain"
)

const (
	xlsxMarketsSheet = "Markets"
	xlsxSummarySheet = "Summary"
)

// XLSXWriter implements SheetWriter by writing one workbook per account.
// The path may contain "{account}", replaced with the account address.
type XLSXWriter struct {
	path string
}

// NewXLSXWriter creates an XLSXWriter for the path template.
func NewXLSXWriter(path string) *XLSXWriter {
	return &XLSXWriter{path: path}
}

// Path returns the workbook path for account.
func (w *XLSXWriter) Path(account string) string {
	return strings.ReplaceAll(w.path, "{account}", account)
}

// Write builds the workbook in memory and saves it, replacing any previous file.
func (w *XLSXWriter) Write(_ context.Context, p domain.Portfolio, at time.Time) error {
	f := excelize.NewFile()
	defer f.Close()

	if err := f.SetSheetName("Sheet1", xlsxMarketsSheet); err != nil {
		return fmt.Errorf("renaming sheet: %w", err)
	}
	if _, err := f.NewSheet(xlsxSummarySheet); err != nil {
		return fmt.Errorf("creating sheet: %w", err)
	}

	if err := writeRows(f, xlsxMarketsSheet, buildMarketRows(p)); err != nil {
		return err
	}
	if err := writeRows(f, xlsxSummarySheet, buildSummaryRows(p, at)); err != nil {
		return err
	}

	bold, err := f.NewStyle(&excelize.Style{Font: &excelize.Font{Bold: true}})
	if err != nil {
		return fmt.Errorf("creating header style: %w", err)
	}
	if err := f.SetRowStyle(xlsxMarketsSheet, 1, 1, bold); err != nil {
		return fmt.Errorf("styling header: %w", err)
	}
	if err := f.SetPanes(xlsxMarketsSheet, &excelize.Panes{Freeze: true, YSplit: 1, TopLeftCell: "A2", ActivePane: "bottomLeft"}); err != nil {
		return fmt.Errorf("freezing header: %w", err)
	}

	path := w.Path(p.Account)
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("creating export directory: %w", err)
		}
	}
	if err := f.SaveAs(path); err != nil {
		return fmt.Errorf("saving %s: %w", path, err)
	}
	return nil
}

func writeRows(f *excelize.File, sheet string, rows [][]any) error {
	for i, row := range rows {
		cell, err := excelize.CoordinatesToCellName(1, i+1)
		if err != nil {
			return fmt.Errorf("addressing row %d: %w", i+1, err)
		}
		if err := f.SetSheetRow(sheet, cell, &row); err != nil {
			return fmt.Errorf("writing %s row %d: %w", sheet, i+1, err)
		}
	}
	return nil
}
