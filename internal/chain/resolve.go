package chain

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"slices"

	"github.com/ethereum/go-ethereum/common"

	"github.com/mtlprog/lendstat/internal/domain"
)

// ResolveNetwork fills the price oracle address and any missing collateral factor
// from the comptroller. Values already present in the registry are kept.
func (c *Client) ResolveNetwork(ctx context.Context, n domain.Network) (domain.Network, error) {
	if !common.IsHexAddress(n.Comptroller) {
		return n, fmt.Errorf("network %s: invalid comptroller address %q", n.Name, n.Comptroller)
	}
	comptroller := common.HexToAddress(n.Comptroller)

	if n.PriceOracle == "" {
		values, err := c.call(ctx, comptroller, comptrollerABI, "oracle")
		if err != nil {
			return n, fmt.Errorf("fetching price oracle: %w", err)
		}
		addr, ok := values[0].(common.Address)
		if !ok {
			return n, fmt.Errorf("%w: oracle returned %T", ErrDecode, values[0])
		}
		n.PriceOracle = addr.Hex()
		slog.Info("resolved price oracle", "network", n.Name, "oracle", n.PriceOracle)
	}

	n.Markets = slices.Clone(n.Markets)
	for i, m := range n.Markets {
		if m.CollateralFactor != nil {
			continue
		}

		values, err := c.call(ctx, comptroller, comptrollerABI, "markets", common.HexToAddress(m.MarketAddress))
		if errors.Is(err, ErrNoResult) {
			slog.Warn("comptroller has no entry for market", "market", m.Symbol)
			continue
		}
		if err != nil {
			return n, fmt.Errorf("fetching collateral factor for %s: %w", m.Symbol, err)
		}

		if listed, _ := values[0].(bool); !listed {
			slog.Warn("market is not listed on comptroller", "market", m.Symbol, "address", m.MarketAddress)
		}
		cf, err := toUint256(values[1])
		if err != nil {
			return n, fmt.Errorf("%w: collateral factor for %s: %v", ErrDecode, m.Symbol, err)
		}
		n.Markets[i].CollateralFactor = cf
	}

	return n, nil
}
