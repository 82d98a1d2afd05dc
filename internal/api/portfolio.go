package api

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/shopspring/decimal"

	"github.com/mtlprog/lendstat/internal/domain"
	"github.com/mtlprog/lendstat/internal/format"
	"github.com/mtlprog/lendstat/internal/portfolio"
)

// PortfolioService defines live portfolio access.
type PortfolioService interface {
	GetPortfolio(ctx context.Context, account string) (domain.Portfolio, error)
	GetMarkets(ctx context.Context) (domain.Portfolio, error)
	PreviewAction(ctx context.Context, account, market string, action portfolio.Action, amount string) (portfolio.MarketPreview, error)
}

// portfolioResponse carries both the exact values and their display rendering.
type portfolioResponse struct {
	Portfolio domain.Portfolio     `json:"portfolio"`
	Display   format.PortfolioView `json:"display"`
}

// PortfolioHandler provides HTTP endpoints for live portfolios.
type PortfolioHandler struct {
	portfolios PortfolioService
}

// NewPortfolioHandler creates a new PortfolioHandler.
func NewPortfolioHandler(portfolios PortfolioService) *PortfolioHandler {
	return &PortfolioHandler{portfolios: portfolios}
}

// GetMarkets handles GET /api/v1/markets.
func (h *PortfolioHandler) GetMarkets(w http.ResponseWriter, r *http.Request) {
	p, err := h.portfolios.GetMarkets(r.Context())
	if err != nil {
		slog.Error("failed to read markets", "error", err)
		writeError(w, http.StatusBadGateway, "failed to read markets")
		return
	}
	writeJSON(w, http.StatusOK, portfolioResponse{Portfolio: p, Display: format.View(p)})
}

// GetPortfolio handles GET /api/v1/portfolio/{account}.
func (h *PortfolioHandler) GetPortfolio(w http.ResponseWriter, r *http.Request) {
	account, ok := accountParam(w, r)
	if !ok {
		return
	}

	p, err := h.portfolios.GetPortfolio(r.Context(), account)
	if err != nil {
		slog.Error("failed to build portfolio", "account", account, "error", err)
		writeError(w, http.StatusBadGateway, "failed to read portfolio")
		return
	}
	writeJSON(w, http.StatusOK, portfolioResponse{Portfolio: p, Display: format.View(p)})
}

// PreviewAction handles GET /api/v1/portfolio/{account}/preview?action=&market=&amount=.
func (h *PortfolioHandler) PreviewAction(w http.ResponseWriter, r *http.Request) {
	account, ok := accountParam(w, r)
	if !ok {
		return
	}

	q := r.URL.Query()
	action, err := portfolio.ParseAction(q.Get("action"))
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	market := q.Get("market")
	if market == "" {
		writeError(w, http.StatusBadRequest, "market is required")
		return
	}
	amount := q.Get("amount")
	if d, err := decimal.NewFromString(amount); err != nil || d.IsNegative() {
		writeError(w, http.StatusBadRequest, "amount must be a non-negative decimal")
		return
	}

	preview, err := h.portfolios.PreviewAction(r.Context(), account, market, action, amount)
	if err != nil {
		slog.Warn("failed to preview action", "account", account, "market", market, "action", action, "error", err)
		writeError(w, http.StatusUnprocessableEntity, err.Error())
		return
	}
	writeJSON(w, http.StatusOK, preview)
}
