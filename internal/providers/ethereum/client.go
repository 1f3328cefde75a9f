package ethereum

import (
	"context"
	"fmt"
	"math/big"
	"strings"

	"github.com/ethereum/go-ethereum"
	"github.com/ethereum/go-ethereum/core/types"
	"go.uber.org/zap"

	"github.com/feral-file/flightstake-indexer/internal/adapter"
	"github.com/feral-file/flightstake-indexer/internal/logger"
)

// DefaultLogPageSize is the block span of one FilterLogs request during catch-up
const DefaultLogPageSize uint64 = 5000

// LogPageFunc receives one page of logs in ledger order
type LogPageFunc func(logs []types.Log) error

// EthereumClient is the subset of the node API the connection manager needs
//
//go:generate mockgen -source=client.go -destination=../../mocks/ethereum_client.go -package=mocks -mock_names=EthereumClient=MockEthereumClient
type EthereumClient interface {
	// SubscribeFilterLogs subscribes to live logs
	SubscribeFilterLogs(ctx context.Context, query ethereum.FilterQuery, ch chan<- types.Log) (ethereum.Subscription, error)

	// ScanLogs walks the query's block range page by page, halving the page when
	// the node refuses a result set as too large
	ScanLogs(ctx context.Context, query ethereum.FilterQuery, pageSize uint64, fn LogPageFunc) error

	// LatestBlock returns the current head block number
	LatestBlock(ctx context.Context) (uint64, error)

	// Close closes the connection
	Close()
}

type ethereumClient struct {
	client adapter.EthClient
}

func NewClient(client adapter.EthClient) EthereumClient {
	return &ethereumClient{client: client}
}

func (c *ethereumClient) SubscribeFilterLogs(ctx context.Context, query ethereum.FilterQuery, ch chan<- types.Log) (ethereum.Subscription, error) {
	return c.client.SubscribeFilterLogs(ctx, query, ch)
}

func (c *ethereumClient) LatestBlock(ctx context.Context) (uint64, error) {
	header, err := c.client.HeaderByNumber(ctx, nil)
	if err != nil {
		return 0, fmt.Errorf("failed to get latest block: %w", err)
	}
	return header.Number.Uint64(), nil
}

func (c *ethereumClient) ScanLogs(ctx context.Context, query ethereum.FilterQuery, pageSize uint64, fn LogPageFunc) error {
	if query.FromBlock == nil || query.ToBlock == nil {
		return fmt.Errorf("scan requires a bounded block range")
	}
	if pageSize == 0 {
		pageSize = DefaultLogPageSize
	}

	from := query.FromBlock.Uint64()
	to := query.ToBlock.Uint64()
	step := pageSize

	for from <= to {
		if err := ctx.Err(); err != nil {
			return err
		}

		end := from + step - 1
		if end > to || end < from {
			end = to
		}

		page := query
		page.FromBlock = new(big.Int).SetUint64(from)
		page.ToBlock = new(big.Int).SetUint64(end)

		logs, err := c.client.FilterLogs(ctx, page)
		if err != nil {
			if !isTooManyResultsError(err) || step == 1 {
				return fmt.Errorf("failed to get logs for range %d-%d: %w", from, end, err)
			}

			step = step / 2
			logger.WarnCtx(ctx, "Too many results, reducing step size",
				zap.Uint64("oldStepSize", step*2),
				zap.Uint64("newStepSize", step),
				zap.Uint64("fromBlock", from),
				zap.Uint64("toBlock", end))
			continue
		}

		if len(logs) > 0 {
			if err := fn(logs); err != nil {
				return err
			}
		}

		from = end + 1
		if end == to {
			break
		}
	}

	return nil
}

// isTooManyResultsError checks if the error is related to too many results
func isTooManyResultsError(err error) bool {
	if err == nil {
		return false
	}

	errStr := err.Error()
	return strings.Contains(errStr, "query returned more than 10000 results") ||
		strings.Contains(errStr, "query timeout exceeded") ||
		strings.Contains(errStr, "too many results") ||
		strings.Contains(errStr, "exceeded maximum")
}

func (c *ethereumClient) Close() {
	c.client.Close()
}
