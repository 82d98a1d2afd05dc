// Package chain reads money-market state from an EVM node over JSON-RPC.
package chain

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/ethereum/go-ethereum"
	"github.com/ethereum/go-ethereum/accounts/abi"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/ethclient"
	"github.com/ethereum/go-ethereum/rpc"
	"golang.org/x/time/rate"
)

var (
	// ErrNoResult indicates a call that reverted or returned no data.
	ErrNoResult = errors.New("call returned no result")
	// ErrDecode indicates return data that does not match the declared ABI.
	ErrDecode = errors.New("decoding call result")
)

// Client performs paced eth_call requests with retry on transport errors.
type Client struct {
	caller     ethereum.ContractCaller
	limiter    *rate.Limiter
	maxRetries int
	baseDelay  time.Duration
}

// NewClient creates a Client. A non-positive rps disables pacing; a negative
// maxRetries is treated as zero so every call is attempted once.
func NewClient(caller ethereum.ContractCaller, rps float64, maxRetries int, baseDelay time.Duration) *Client {
	if caller == nil {
		panic("chain.NewClient: caller is nil")
	}
	maxRetries = max(maxRetries, 0)
	limit := rate.Inf
	if rps > 0 {
		limit = rate.Limit(rps)
	}
	return &Client{
		caller:     caller,
		limiter:    rate.NewLimiter(limit, 1),
		maxRetries: maxRetries,
		baseDelay:  baseDelay,
	}
}

// Dial connects to an RPC endpoint and checks that it serves chainID (skipped when zero).
func Dial(ctx context.Context, url string, chainID int64) (*ethclient.Client, error) {
	client, err := ethclient.DialContext(ctx, url)
	if err != nil {
		return nil, fmt.Errorf("dialing %s: %w", url, err)
	}
	if chainID == 0 {
		return client, nil
	}

	got, err := client.ChainID(ctx)
	if err != nil {
		client.Close()
		return nil, fmt.Errorf("fetching chain id: %w", err)
	}
	if got.Int64() != chainID {
		client.Close()
		return nil, fmt.Errorf("endpoint serves chain %s, want %d", got, chainID)
	}
	return client, nil
}

// call packs method, executes it against to and unpacks the outputs.
func (c *Client) call(ctx context.Context, to common.Address, contract abi.ABI, method string, args ...any) ([]any, error) {
	data, err := contract.Pack(method, args...)
	if err != nil {
		return nil, fmt.Errorf("packing %s: %w", method, err)
	}

	var lastErr error
	for attempt := range c.maxRetries + 1 {
		if err := c.limiter.Wait(ctx); err != nil {
			return nil, err
		}

		out, err := c.caller.CallContract(ctx, ethereum.CallMsg{To: &to, Data: data}, nil)
		if err == nil {
			if len(out) == 0 {
				return nil, ErrNoResult
			}
			values, err := contract.Unpack(method, out)
			if err != nil {
				return nil, fmt.Errorf("%w: %s at %s: %v", ErrDecode, method, to.Hex(), err)
			}
			return values, nil
		}
		if isRevert(err) {
			return nil, ErrNoResult
		}
		if ctx.Err() != nil {
			return nil, ctx.Err()
		}

		lastErr = fmt.Errorf("calling %s at %s (attempt %d/%d): %w", method, to.Hex(), attempt+1, c.maxRetries+1, err)
		if attempt < c.maxRetries {
			delay := c.baseDelay * time.Duration(1<<uint(attempt))
			select {
			case <-ctx.Done():
				return nil, ctx.Err()
			case <-time.After(delay):
			}
		}
	}

	return nil, lastErr
}

func isRevert(err error) bool {
	var dataErr rpc.DataError
	if errors.As(err, &dataErr) {
		return true
	}
	return strings.Contains(err.Error(), "execution reverted")
}
