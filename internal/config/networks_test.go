package config

import (
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/mtlprog/lendstat/internal/domain"
)

func TestLoadNetworkEmbedded(t *testing.T) {
	n, err := LoadNetwork("mainnet", "")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if n.ChainID != 1 || n.BlocksPerDay != 6500 || n.DaysPerYear != 365 {
		t.Errorf("mainnet constants = %d/%d/%d", n.ChainID, n.BlocksPerDay, n.DaysPerYear)
	}
	usdc, ok := n.MarketBySymbol("cUSDC")
	if !ok || usdc.Decimals != 6 {
		t.Errorf("cUSDC = %+v, %v", usdc, ok)
	}

	if _, err := LoadNetwork("RINKEBY", ""); err != nil {
		t.Errorf("lookup should ignore case: %v", err)
	}
}

func TestLoadNetworkUnknown(t *testing.T) {
	_, err := LoadNetwork("nope", "")
	if !errors.Is(err, domain.ErrUnknownNetwork) {
		t.Errorf("error = %v, want ErrUnknownNetwork", err)
	}
}

func TestLoadNetworkFromFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "networks.yaml")
	data := `networks:
  - name: local
    comptroller: "0x2222222222222222222222222222222222222222"
    markets:
      - {symbol: cDAI, address: "0x4444444444444444444444444444444444444444", decimals: 18, collateralFactor: "0.75"}
`
	if err := os.WriteFile(path, []byte(data), 0o600); err != nil {
		t.Fatal(err)
	}

	n, err := LoadNetwork("local", path)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if n.BlocksPerDay != defaultBlocksPerDay || n.DaysPerYear != defaultDaysPerYear {
		t.Errorf("defaults not applied: %d/%d", n.BlocksPerDay, n.DaysPerYear)
	}
	cf := n.Markets[0].CollateralFactor
	if cf == nil || cf.Uint64() != 750_000_000_000_000_000 {
		t.Errorf("collateral factor = %v, want 0.75e18", cf)
	}
}

func TestParseNetworksInvalid(t *testing.T) {
	tests := []struct {
		name string
		data string
	}{
		{"bad yaml", "networks: ["},
		{"missing name", `networks: [{comptroller: "0x2222222222222222222222222222222222222222"}]`},
		{"bad comptroller", `networks: [{name: x, comptroller: "0x12"}]`},
		{"bad market address", `networks: [{name: x, comptroller: "0x2222222222222222222222222222222222222222", markets: [{symbol: cX, address: "zz"}]}]`},
		{"decimals out of range", `networks: [{name: x, comptroller: "0x2222222222222222222222222222222222222222", markets: [{symbol: cX, address: "0x4444444444444444444444444444444444444444", decimals: 40}]}]`},
		{"collateral factor above one", `networks: [{name: x, comptroller: "0x2222222222222222222222222222222222222222", markets: [{symbol: cX, address: "0x4444444444444444444444444444444444444444", collateralFactor: "1.5"}]}]`},
		{"duplicate market", `networks: [{name: x, comptroller: "0x2222222222222222222222222222222222222222", markets: [{symbol: a, address: "0x4444444444444444444444444444444444444444"}, {symbol: b, address: "0x4444444444444444444444444444444444444444"}]}]`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := ParseNetworks([]byte(tt.data)); err == nil {
				t.Error("expected error")
			}
		})
	}
}
