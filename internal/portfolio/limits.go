package portfolio

import (
	"fmt"

	"github.com/shopspring/decimal"

	"github.com/mtlprog/lendstat/internal/domain"
)

// Action is a hypothetical lending action previewed against a portfolio.
type Action string

const (
	ActionSupply   Action = "supply"
	ActionWithdraw Action = "withdraw"
	ActionBorrow   Action = "borrow"
	ActionRepay    Action = "repay"
)

// ParseAction validates an action name.
func ParseAction(s string) (Action, error) {
	switch a := Action(s); a {
	case ActionSupply, ActionWithdraw, ActionBorrow, ActionRepay:
		return a, nil
	default:
		return "", fmt.Errorf("unknown action %q", s)
	}
}

// safeLimitFactor keeps "safe" maximums at 80% of the borrow limit.
var safeLimitFactor = decimal.RequireFromString("0.8")

var hundred = decimal.NewFromInt(100)

// Preview is the borrow position after a hypothetical action.
type Preview struct {
	Action        Action          `json:"action"`
	Amount        decimal.Decimal `json:"amount"`
	BorrowLimit   decimal.Decimal `json:"borrowLimit"`
	BorrowBalance decimal.Decimal `json:"borrowBalance"`
	UsedPercent   decimal.Decimal `json:"usedPercent"` // clamped to [0, 100]
}

// PreviewAction computes the borrow limit, borrow balance and used-limit percent that would
// result from applying action with amount (in underlying units) to pos.
// Supply and withdraw move the limit only for collateral markets; borrow and repay move the balance.
func PreviewAction(snap domain.PortfolioSnapshot, pos domain.MarketPosition, action Action, amount decimal.Decimal) Preview {
	limit := snap.BorrowLimitValue
	borrowed := snap.TotalBorrowedValue
	value := amount.Mul(pos.Price)

	switch action {
	case ActionSupply, ActionWithdraw:
		if pos.Asset.IsCollateral {
			delta := value.Mul(pos.CollateralFactor)
			if action == ActionSupply {
				limit = limit.Add(delta)
			} else {
				limit = limit.Sub(delta)
			}
		}
	case ActionBorrow:
		borrowed = borrowed.Add(value)
	case ActionRepay:
		borrowed = borrowed.Sub(value)
	}

	limit = decimal.Max(limit, decimal.Zero)
	borrowed = decimal.Max(borrowed, decimal.Zero)

	used := domain.SafeDiv(borrowed, limit).Mul(hundred)
	if limit.IsZero() && borrowed.IsPositive() {
		used = hundred
	}

	return Preview{
		Action:        action,
		Amount:        amount,
		BorrowLimit:   limit,
		BorrowBalance: borrowed,
		UsedPercent:   domain.Clamp(used, decimal.Zero, hundred),
	}
}

// MaxWithdraw returns how much of pos (in underlying units) can be withdrawn without exceeding
// the borrow limit. In safe mode the remaining borrow may use at most 80% of the limit.
// Supply that does not back borrowing can always be withdrawn in full.
func MaxWithdraw(snap domain.PortfolioSnapshot, pos domain.MarketPosition, safe bool) decimal.Decimal {
	if !pos.Asset.IsCollateral || !pos.CollateralFactor.IsPositive() {
		return pos.SuppliedUnderlying
	}
	if !pos.Price.IsPositive() {
		return decimal.Zero
	}

	factor := decimal.NewFromInt(1)
	if safe {
		factor = safeLimitFactor
	}

	otherCollateral := snap.BorrowLimitValue.Sub(collateralValue(pos))
	required := snap.TotalBorrowedValue.Div(factor)
	owed := decimal.Max(required.Sub(otherCollateral), decimal.Zero)

	locked := owed.Div(pos.CollateralFactor).Div(pos.Price)
	return domain.Clamp(pos.SuppliedUnderlying.Sub(locked), decimal.Zero, pos.SuppliedUnderlying)
}

// MaxBorrow returns how much of pos's underlying can be borrowed, capped by the market's
// available cash. In safe mode total borrowing stays within 80% of the limit.
func MaxBorrow(snap domain.PortfolioSnapshot, pos domain.MarketPosition, safe bool) decimal.Decimal {
	if !pos.Price.IsPositive() {
		return decimal.Zero
	}

	limit := snap.BorrowLimitValue
	if safe {
		limit = limit.Mul(safeLimitFactor)
	}
	headroom := decimal.Max(limit.Sub(snap.TotalBorrowedValue), decimal.Zero)

	amount := headroom.Div(pos.Price)
	liquidity := pos.LiquidityValue.Div(pos.Price)
	return decimal.Min(amount, liquidity)
}

// Limits are the withdraw and borrow maximums for one market, in underlying units.
type Limits struct {
	MaxWithdraw     decimal.Decimal `json:"maxWithdraw"`
	SafeMaxWithdraw decimal.Decimal `json:"safeMaxWithdraw"`
	MaxBorrow       decimal.Decimal `json:"maxBorrow"`
	SafeMaxBorrow   decimal.Decimal `json:"safeMaxBorrow"`
}

// LimitsFor computes both the full and the safe maximums for pos.
func LimitsFor(snap domain.PortfolioSnapshot, pos domain.MarketPosition) Limits {
	return Limits{
		MaxWithdraw:     MaxWithdraw(snap, pos, false),
		SafeMaxWithdraw: MaxWithdraw(snap, pos, true),
		MaxBorrow:       MaxBorrow(snap, pos, false),
		SafeMaxBorrow:   MaxBorrow(snap, pos, true),
	}
}
