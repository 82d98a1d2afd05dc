package config

import (
	_ "embed"
	"fmt"
	"os"
	"strings"

	"github.com/ethereum/go-ethereum/common"
	"github.com/shopspring/decimal"
	"gopkg.in/yaml.v3"

	"github.com/mtlprog/lendstat/internal/domain"
)

const (
	defaultBlocksPerDay = 6500
	defaultDaysPerYear  = 365
)

//go:embed networks.yaml
var embeddedNetworks []byte

type networkFile struct {
	Networks []networkEntry `yaml:"networks"`
}

type networkEntry struct {
	Name         string        `yaml:"name"`
	ChainID      int64         `yaml:"chainId"`
	Comptroller  string        `yaml:"comptroller"`
	PriceOracle  string        `yaml:"priceOracle"`
	BlocksPerDay int           `yaml:"blocksPerDay"`
	DaysPerYear  int           `yaml:"daysPerYear"`
	Markets      []marketEntry `yaml:"markets"`
}

type marketEntry struct {
	Symbol           string `yaml:"symbol"`
	Address          string `yaml:"address"`
	Underlying       string `yaml:"underlying"`
	Decimals         int    `yaml:"decimals"`
	CollateralFactor string `yaml:"collateralFactor"` // fraction, e.g. "0.75"
}

// LoadNetwork returns the named network from the registry file at path,
// or from the built-in registry when path is empty.
func LoadNetwork(name, path string) (domain.Network, error) {
	data := embeddedNetworks
	if path != "" {
		b, err := os.ReadFile(path)
		if err != nil {
			return domain.Network{}, fmt.Errorf("reading networks file: %w", err)
		}
		data = b
	}

	networks, err := ParseNetworks(data)
	if err != nil {
		return domain.Network{}, err
	}
	for _, n := range networks {
		if strings.EqualFold(n.Name, name) {
			return n, nil
		}
	}
	return domain.Network{}, fmt.Errorf("%w: %s", domain.ErrUnknownNetwork, name)
}

// ParseNetworks decodes and validates a YAML network registry.
func ParseNetworks(data []byte) ([]domain.Network, error) {
	var file networkFile
	if err := yaml.Unmarshal(data, &file); err != nil {
		return nil, fmt.Errorf("parsing networks: %w", err)
	}

	networks := make([]domain.Network, 0, len(file.Networks))
	for _, e := range file.Networks {
		n, err := e.toNetwork()
		if err != nil {
			return nil, fmt.Errorf("network %q: %w", e.Name, err)
		}
		networks = append(networks, n)
	}
	return networks, nil
}

func (e networkEntry) toNetwork() (domain.Network, error) {
	if e.Name == "" {
		return domain.Network{}, fmt.Errorf("missing name")
	}
	if !common.IsHexAddress(e.Comptroller) {
		return domain.Network{}, fmt.Errorf("invalid comptroller address %q", e.Comptroller)
	}
	if e.PriceOracle != "" && !common.IsHexAddress(e.PriceOracle) {
		return domain.Network{}, fmt.Errorf("invalid price oracle address %q", e.PriceOracle)
	}

	n := domain.Network{
		Name:         e.Name,
		ChainID:      e.ChainID,
		Comptroller:  e.Comptroller,
		PriceOracle:  e.PriceOracle,
		BlocksPerDay: e.BlocksPerDay,
		DaysPerYear:  e.DaysPerYear,
		Markets:      make([]domain.MarketConfig, 0, len(e.Markets)),
	}
	if n.BlocksPerDay <= 0 {
		n.BlocksPerDay = defaultBlocksPerDay
	}
	if n.DaysPerYear <= 0 {
		n.DaysPerYear = defaultDaysPerYear
	}

	seen := make(map[string]bool, len(e.Markets))
	for _, m := range e.Markets {
		cfg, err := m.toMarketConfig()
		if err != nil {
			return domain.Network{}, fmt.Errorf("market %q: %w", m.Symbol, err)
		}
		key := strings.ToLower(cfg.MarketAddress)
		if seen[key] {
			return domain.Network{}, fmt.Errorf("duplicate market address %s", cfg.MarketAddress)
		}
		seen[key] = true
		n.Markets = append(n.Markets, cfg)
	}
	return n, nil
}

func (m marketEntry) toMarketConfig() (domain.MarketConfig, error) {
	if m.Symbol == "" {
		return domain.MarketConfig{}, fmt.Errorf("missing symbol")
	}
	if !common.IsHexAddress(m.Address) {
		return domain.MarketConfig{}, fmt.Errorf("invalid market address %q", m.Address)
	}
	if m.Decimals < 0 || m.Decimals > domain.PriceScaleBase {
		return domain.MarketConfig{}, fmt.Errorf("decimals %d out of range", m.Decimals)
	}

	cfg := domain.MarketConfig{
		Symbol:            m.Symbol,
		MarketAddress:     m.Address,
		UnderlyingAddress: m.Underlying,
		Decimals:          m.Decimals,
	}
	if m.CollateralFactor != "" {
		cf, err := decimal.NewFromString(m.CollateralFactor)
		if err != nil {
			return domain.MarketConfig{}, fmt.Errorf("invalid collateral factor %q: %w", m.CollateralFactor, err)
		}
		if cf.IsNegative() || cf.GreaterThan(decimal.NewFromInt(1)) {
			return domain.MarketConfig{}, fmt.Errorf("collateral factor %s outside [0, 1]", cf)
		}
		cfg.CollateralFactor = domain.FromDecimal(cf, domain.MantissaScale)
	}
	return cfg, nil
}
