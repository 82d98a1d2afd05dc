package domain

import (
	"errors"
	"fmt"
	"math/big"
	"strings"

	"github.com/holiman/uint256"
	"github.com/shopspring/decimal"
)

const (
	// MantissaScale is the fixed-point scale of rates, exchange rates and collateral factors.
	MantissaScale = 18
	// PriceScaleBase is the scale of oracle prices before subtracting underlying decimals.
	PriceScaleBase = 36
)

// ErrInvalidMantissa indicates a string that is not a non-negative base-10 integer.
var ErrInvalidMantissa = errors.New("invalid mantissa")

// ToDecimal divides raw by 10^scale. A nil raw value yields zero.
func ToDecimal(raw *uint256.Int, scale int32) decimal.Decimal {
	if raw == nil || raw.IsZero() {
		return decimal.Zero
	}
	return decimal.NewFromBigInt(raw.ToBig(), -scale)
}

// FromDecimal converts value back to a raw integer at the given scale, truncating toward zero.
// Negative and out-of-range values yield zero.
func FromDecimal(value decimal.Decimal, scale int32) *uint256.Int {
	if !value.IsPositive() {
		return new(uint256.Int)
	}
	bi := value.Shift(scale).Truncate(0).BigInt()
	z, overflow := uint256.FromBig(bi)
	if overflow {
		return new(uint256.Int)
	}
	return z
}

// ParseMantissa parses a base-10 integer string into a raw value.
func ParseMantissa(s string) (*uint256.Int, error) {
	s = strings.TrimSpace(s)
	bi, ok := new(big.Int).SetString(s, 10)
	if !ok || bi.Sign() < 0 {
		return nil, fmt.Errorf("%w: %q", ErrInvalidMantissa, s)
	}
	z, overflow := uint256.FromBig(bi)
	if overflow {
		return nil, fmt.Errorf("%w: %q overflows 256 bits", ErrInvalidMantissa, s)
	}
	return z, nil
}

// MustMantissa is ParseMantissa for constants and tests. It panics on invalid input.
func MustMantissa(s string) *uint256.Int {
	z, err := ParseMantissa(s)
	if err != nil {
		panic(err)
	}
	return z
}

// PriceScale returns the oracle price scale for an underlying with the given decimals.
func PriceScale(decimals int) int32 {
	return int32(PriceScaleBase - decimals)
}

// SafeParse parses a string into a decimal, returning zero for invalid or empty input.
func SafeParse(value string) decimal.Decimal {
	if value == "" {
		return decimal.Zero
	}
	d, err := decimal.NewFromString(value)
	if err != nil {
		return decimal.Zero
	}
	return d
}

// SafeDiv divides a by b, returning zero when b is zero.
func SafeDiv(a, b decimal.Decimal) decimal.Decimal {
	if b.IsZero() {
		return decimal.Zero
	}
	return a.Div(b)
}

// Clamp bounds d to [lo, hi].
func Clamp(d, lo, hi decimal.Decimal) decimal.Decimal {
	if d.LessThan(lo) {
		return lo
	}
	if d.GreaterThan(hi) {
		return hi
	}
	return d
}
