package chain

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"math/big"
	"time"

	"github.com/ethereum/go-ethereum/accounts/abi"
	"github.com/ethereum/go-ethereum/common"
	"github.com/holiman/uint256"

	"github.com/mtlprog/lendstat/internal/domain"
)

// Reader issues the six per-market reads for an account.
// Transport failures leave a read pending; reverts and empty returns resolve it as empty.
type Reader struct {
	client      *Client
	comptroller common.Address
	oracle      common.Address
	cache       *readCache
	metrics     *readMetrics
}

// NewReader creates a Reader for network. The network must have its price oracle resolved.
func NewReader(client *Client, network domain.Network, cacheTTL time.Duration) *Reader {
	if client == nil {
		panic("chain.NewReader: client is nil")
	}
	return &Reader{
		client:      client,
		comptroller: common.HexToAddress(network.Comptroller),
		oracle:      common.HexToAddress(network.PriceOracle),
		cache:       newReadCache(cacheTTL, maxCachedReads),
		metrics:     newReadMetrics(),
	}
}

// ReadMarkets reads every market for account, keyed by market address.
// It fails only on cancellation or on return data that does not match the ABI.
func (r *Reader) ReadMarkets(ctx context.Context, account string, markets []domain.MarketConfig) (map[string]domain.MarketReads, error) {
	if !common.IsHexAddress(account) {
		return nil, fmt.Errorf("invalid account address %q", account)
	}
	if r.oracle == (common.Address{}) {
		return nil, errors.New("price oracle address is not resolved")
	}

	out := make(map[string]domain.MarketReads, len(markets))
	for _, m := range markets {
		key := cacheKey(account, m.MarketAddress)
		if reads, ok := r.cache.get(key); ok {
			r.metrics.observe("market", outcomeCached)
			out[m.MarketAddress] = reads
			continue
		}

		reads, err := r.readMarket(ctx, common.HexToAddress(account), common.HexToAddress(m.MarketAddress))
		if err != nil {
			return nil, fmt.Errorf("reading market %s: %w", m.Symbol, err)
		}
		if !reads.AnyPending() {
			r.cache.set(key, reads)
		}
		out[m.MarketAddress] = reads
	}
	return out, nil
}

func (r *Reader) readMarket(ctx context.Context, account, market common.Address) (domain.MarketReads, error) {
	var (
		reads domain.MarketReads
		err   error
	)
	if reads.SupplyRatePerBlock, err = read(ctx, r, market, cTokenABI, "supplyRatePerBlock", decodeUint); err != nil {
		return reads, err
	}
	if reads.BorrowRatePerBlock, err = read(ctx, r, market, cTokenABI, "borrowRatePerBlock", decodeUint); err != nil {
		return reads, err
	}
	if reads.AccountSnapshot, err = read(ctx, r, market, cTokenABI, "getAccountSnapshot", decodeAccountSnapshot, account); err != nil {
		return reads, err
	}
	if reads.Cash, err = read(ctx, r, market, cTokenABI, "getCash", decodeUint); err != nil {
		return reads, err
	}
	if reads.IsCollateral, err = read(ctx, r, r.comptroller, comptrollerABI, "checkMembership", decodeBool, account, market); err != nil {
		return reads, err
	}
	if reads.UnderlyingPrice, err = read(ctx, r, r.oracle, oracleABI, "getUnderlyingPrice", decodeUint, market); err != nil {
		return reads, err
	}
	return reads, nil
}

// read performs one call and maps its outcome onto the tri-state read.
func read[T any](ctx context.Context, r *Reader, to common.Address, contract abi.ABI, method string, decode func([]any) (T, error), args ...any) (domain.Read[T], error) {
	values, err := r.client.call(ctx, to, contract, method, args...)
	switch {
	case err == nil:
		v, err := decode(values)
		if err != nil {
			r.metrics.observe(method, outcomeDecode)
			return domain.Pending[T](), fmt.Errorf("%w: %s: %v", ErrDecode, method, err)
		}
		r.metrics.observe(method, outcomeResolved)
		return domain.Resolved(v), nil
	case errors.Is(err, ErrNoResult):
		r.metrics.observe(method, outcomeEmpty)
		return domain.Empty[T](), nil
	case errors.Is(err, ErrDecode):
		r.metrics.observe(method, outcomeDecode)
		return domain.Pending[T](), err
	case ctx.Err() != nil:
		return domain.Pending[T](), ctx.Err()
	default:
		r.metrics.observe(method, outcomePending)
		slog.Warn("chain read failed, leaving pending", "method", method, "contract", to.Hex(), "error", err)
		return domain.Pending[T](), nil
	}
}

func decodeUint(values []any) (*uint256.Int, error) {
	if len(values) != 1 {
		return nil, fmt.Errorf("expected 1 value, got %d", len(values))
	}
	return toUint256(values[0])
}

func decodeBool(values []any) (bool, error) {
	if len(values) != 1 {
		return false, fmt.Errorf("expected 1 value, got %d", len(values))
	}
	b, ok := values[0].(bool)
	if !ok {
		return false, fmt.Errorf("expected bool, got %T", values[0])
	}
	return b, nil
}

func decodeAccountSnapshot(values []any) (domain.AccountSnapshot, error) {
	if len(values) != 4 {
		return domain.AccountSnapshot{}, fmt.Errorf("expected 4 values, got %d", len(values))
	}
	ints := make([]*uint256.Int, 4)
	for i, v := range values {
		n, err := toUint256(v)
		if err != nil {
			return domain.AccountSnapshot{}, err
		}
		ints[i] = n
	}
	return domain.AccountSnapshot{
		ErrorCode:     ints[0],
		CTokenBalance: ints[1],
		BorrowBalance: ints[2],
		ExchangeRate:  ints[3],
	}, nil
}

func toUint256(v any) (*uint256.Int, error) {
	b, ok := v.(*big.Int)
	if !ok {
		return nil, fmt.Errorf("expected *big.Int, got %T", v)
	}
	n, overflow := uint256.FromBig(b)
	if overflow || b.Sign() < 0 {
		return nil, fmt.Errorf("value %s out of uint256 range", b)
	}
	return n, nil
}
