package downloader

import (
	"cmp"
	"context"
	"fmt"
	"math/big"
	"slices"
	"time"

	"github.com/ethereum/go-ethereum"
	ethcommon "github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/core/types"
	"github.com/goran-ethernal/SwapIndexor/internal/common"
	"github.com/goran-ethernal/SwapIndexor/internal/logger"
	"github.com/goran-ethernal/SwapIndexor/internal/metrics"
	"github.com/goran-ethernal/SwapIndexor/internal/rpc"
	itypes "github.com/goran-ethernal/SwapIndexor/internal/types"
	pkgdownloader "github.com/goran-ethernal/SwapIndexor/pkg/downloader"
	"github.com/goran-ethernal/SwapIndexor/pkg/indexer"
	pkgrpc "github.com/goran-ethernal/SwapIndexor/pkg/rpc"
)

// LogFetcherConfig contains configuration for the LogFetcher.
type LogFetcherConfig struct {
	// ChunkSize is the number of blocks to fetch per request
	ChunkSize uint64

	// Finality specifies the finality mode
	Finality itypes.BlockFinality

	// FinalizedLag is blocks behind head to consider final (only for "latest" mode)
	FinalizedLag uint64

	// PollInterval is how long to wait when the finality head has been reached
	PollInterval time.Duration

	// Addresses are the contract addresses to filter
	Addresses []ethcommon.Address

	// Topics is the topic0 filter, nil when any indexer subscribes to every event of an address
	Topics []ethcommon.Hash
}

// FetchResult contains the results of a successful fetch operation.
type FetchResult struct {
	// Logs are the fetched logs ordered by (block, log index)
	Logs []types.Log

	// Times holds the timestamp of every block referenced by Logs and of ToBlock
	Times indexer.BlockTimes

	// ToBlockHash is the hash of the last block of the range
	ToBlockHash ethcommon.Hash

	// FromBlock is the starting block number of this fetch
	FromBlock uint64

	// ToBlock is the ending block number of this fetch
	ToBlock uint64
}

// LogFetcher fetches logs and the timestamps of the blocks they were emitted in.
type LogFetcher struct {
	cfg  LogFetcherConfig
	rpc  pkgrpc.EthClient
	log  *logger.Logger
	mode pkgdownloader.FetchMode
}

// NewLogFetcher creates a new LogFetcher instance in backfill mode.
func NewLogFetcher(cfg LogFetcherConfig, client pkgrpc.EthClient, log *logger.Logger) *LogFetcher {
	return &LogFetcher{
		cfg:  cfg,
		rpc:  client,
		log:  log.WithComponent(common.ComponentLogFetcher),
		mode: pkgdownloader.ModeBackfill,
	}
}

// Mode returns the current operating mode.
func (lf *LogFetcher) Mode() pkgdownloader.FetchMode {
	return lf.mode
}

// FetchRange fetches logs for [fromBlock, toBlock]. When the node rejects the range for
// returning too many results, the range is shrunk to the node's suggestion (or halved)
// and the returned result covers only the shrunk range.
func (lf *LogFetcher) FetchRange(ctx context.Context, fromBlock, toBlock uint64) (*FetchResult, error) {
	start := time.Now()

	logs, toBlock, err := lf.getLogs(ctx, fromBlock, toBlock)
	if err != nil {
		return nil, err
	}

	slices.SortStableFunc(logs, func(a, b types.Log) int {
		return cmp.Or(cmp.Compare(a.BlockNumber, b.BlockNumber), cmp.Compare(a.Index, b.Index))
	})

	blockNums := make([]uint64, 0, len(logs)+1)
	for _, l := range logs {
		if len(blockNums) == 0 || blockNums[len(blockNums)-1] != l.BlockNumber {
			blockNums = append(blockNums, l.BlockNumber)
		}
	}
	if len(blockNums) == 0 || blockNums[len(blockNums)-1] != toBlock {
		blockNums = append(blockNums, toBlock)
	}

	headers, err := lf.rpc.BatchGetBlockHeaders(ctx, blockNums)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch headers: %w", err)
	}

	times := make(indexer.BlockTimes, len(headers))
	for _, h := range headers {
		times[h.Number.Uint64()] = h.Time
	}

	metrics.LogsFetchedInc(len(logs))
	metrics.ChunkFetchTimeLog(time.Since(start))

	lf.log.Debugw("fetched range",
		"from_block", fromBlock,
		"to_block", toBlock,
		"logs_count", len(logs),
		"mode", lf.mode,
	)

	return &FetchResult{
		Logs:        logs,
		Times:       times,
		ToBlockHash: headers[len(headers)-1].Hash(),
		FromBlock:   fromBlock,
		ToBlock:     toBlock,
	}, nil
}

func (lf *LogFetcher) getLogs(ctx context.Context, fromBlock, toBlock uint64) ([]types.Log, uint64, error) {
	for {
		query := ethereum.FilterQuery{
			FromBlock: new(big.Int).SetUint64(fromBlock),
			ToBlock:   new(big.Int).SetUint64(toBlock),
			Addresses: lf.cfg.Addresses,
		}
		if len(lf.cfg.Topics) > 0 {
			query.Topics = [][]ethcommon.Hash{lf.cfg.Topics}
		}

		logs, err := lf.rpc.GetLogs(ctx, query)
		if err == nil {
			return logs, toBlock, nil
		}

		tooMany, msg := rpc.IsTooManyResultsError(err)
		if !tooMany || fromBlock == toBlock {
			return nil, 0, fmt.Errorf("failed to fetch logs in blocks %d-%d: %w", fromBlock, toBlock, err)
		}

		next := fromBlock + (toBlock-fromBlock)/2
		if suggestedFrom, suggestedTo, ok := rpc.ParseSuggestedBlockRange(msg); ok &&
			suggestedFrom == fromBlock && suggestedTo < toBlock {
			next = suggestedTo
		}

		lf.log.Infow("shrinking block range after too many results",
			"from_block", fromBlock,
			"to_block", toBlock,
			"new_to_block", next,
		)
		toBlock = next
	}
}

// FetchNext fetches the chunk starting at nextBlock. When nextBlock is above the finality
// head it switches to live mode and waits for the head to advance.
func (lf *LogFetcher) FetchNext(ctx context.Context, nextBlock uint64) (*FetchResult, error) {
	for {
		head, err := lf.finalityHead(ctx)
		if err != nil {
			return nil, fmt.Errorf("failed to get %s block: %w", lf.cfg.Finality, err)
		}

		if nextBlock <= head {
			toBlock := min(nextBlock+lf.cfg.ChunkSize-1, head)
			return lf.FetchRange(ctx, nextBlock, toBlock)
		}

		if lf.mode == pkgdownloader.ModeBackfill {
			lf.log.Infow("backfill complete, switching to live mode", "head", head)
			lf.mode = pkgdownloader.ModeLive
		}

		lf.log.Debugw("waiting for new blocks", "next_block", nextBlock, "head", head)

		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		case <-time.After(lf.cfg.PollInterval):
		}
	}
}

// finalityHead returns the highest block considered final under the configured finality.
func (lf *LogFetcher) finalityHead(ctx context.Context) (uint64, error) {
	header, err := lf.rpc.GetHeaderByTag(ctx, lf.cfg.Finality.BlockNumber())
	if err != nil {
		return 0, err
	}

	return lf.cfg.Finality.Head(header.Number.Uint64(), lf.cfg.FinalizedLag), nil
}
