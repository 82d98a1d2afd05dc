// Package rate converts per-block interest rate mantissas into annual figures.
package rate

import (
	"github.com/holiman/uint256"
	"github.com/shopspring/decimal"

	"github.com/mtlprog/lendstat/internal/domain"
)

// powPrecision bounds intermediate results while compounding so the exponentiation
// stays deterministic and does not grow without limit.
const powPrecision = 36

var hundred = decimal.NewFromInt(100)

// Annualizer holds the chain constants used to annualize per-block rates.
type Annualizer struct {
	BlocksPerDay int
	DaysPerYear  int
}

// NewAnnualizer creates an Annualizer for a network.
func NewAnnualizer(n domain.Network) Annualizer {
	return Annualizer{BlocksPerDay: n.BlocksPerDay, DaysPerYear: n.DaysPerYear}
}

func (a Annualizer) valid() bool {
	return a.BlocksPerDay > 0 && a.DaysPerYear > 0
}

// dailyRate returns ratePerBlock/1e18 * blocksPerDay.
func (a Annualizer) dailyRate(ratePerBlock *uint256.Int) decimal.Decimal {
	return domain.ToDecimal(ratePerBlock, domain.MantissaScale).Mul(decimal.NewFromInt(int64(a.BlocksPerDay)))
}

// APY compounds the per-block rate daily over the year and returns a percentage:
//
//	((rate/1e18 * blocksPerDay + 1) ^ (daysPerYear - 1) - 1) * 100
//
// Missing or zero input yields zero.
func (a Annualizer) APY(ratePerBlock *uint256.Int) decimal.Decimal {
	if ratePerBlock == nil || ratePerBlock.IsZero() || !a.valid() {
		return decimal.Zero
	}
	growth := pow(a.dailyRate(ratePerBlock).Add(decimal.NewFromInt(1)), a.DaysPerYear-1)
	return growth.Sub(decimal.NewFromInt(1)).Mul(hundred)
}

// APR is the simple, non-compounded annual rate as a percentage.
func (a Annualizer) APR(ratePerBlock *uint256.Int) decimal.Decimal {
	if ratePerBlock == nil || !a.valid() {
		return decimal.Zero
	}
	return a.dailyRate(ratePerBlock).Mul(decimal.NewFromInt(int64(a.DaysPerYear))).Mul(hundred)
}

// pow raises base to a non-negative integer power by repeated squaring,
// rounding every product to powPrecision places.
func pow(base decimal.Decimal, exp int) decimal.Decimal {
	result := decimal.NewFromInt(1)
	for exp > 0 {
		if exp&1 == 1 {
			result = result.Mul(base).Round(powPrecision)
		}
		base = base.Mul(base).Round(powPrecision)
		exp >>= 1
	}
	return result
}
