package downloader

import (
	"context"
	"errors"
	"fmt"
	"slices"

	ethcommon "github.com/ethereum/go-ethereum/common"
	"github.com/goran-ethernal/SwapIndexor/internal/common"
	"github.com/goran-ethernal/SwapIndexor/internal/indexer"
	"github.com/goran-ethernal/SwapIndexor/internal/logger"
	"github.com/goran-ethernal/SwapIndexor/internal/metrics"
	"github.com/goran-ethernal/SwapIndexor/internal/types"
	"github.com/goran-ethernal/SwapIndexor/pkg/config"
	pkgdownloader "github.com/goran-ethernal/SwapIndexor/pkg/downloader"
	pkgindexer "github.com/goran-ethernal/SwapIndexor/pkg/indexer"
	"github.com/goran-ethernal/SwapIndexor/pkg/rpc"
)

// Compile-time check to ensure Downloader implements pkgdownloader.Downloader interface.
var _ pkgdownloader.Downloader = (*Downloader)(nil)

// Downloader streams finalized logs to registered indexers and checkpoints its progress.
// A checkpoint is written only after every indexer accepted the chunk, so a failed
// chunk is delivered again after restart.
type Downloader struct {
	cfg         config.DownloaderConfig
	rpc         rpc.EthClient
	syncManager pkgdownloader.SyncManager
	coordinator *indexer.IndexerCoordinator
	log         *logger.Logger

	// allTopics is set once an indexer subscribes to every event of an address
	allTopics bool
	topics    map[ethcommon.Hash]struct{}
}

// New creates a new Downloader instance.
func New(
	cfg config.DownloaderConfig,
	client rpc.EthClient,
	syncManager pkgdownloader.SyncManager,
	log *logger.Logger,
) (*Downloader, error) {
	if client == nil {
		return nil, errors.New("RPC client is required")
	}
	if syncManager == nil {
		return nil, errors.New("SyncManager is required")
	}
	if log == nil {
		return nil, errors.New("logger is required")
	}

	d := &Downloader{
		cfg:         cfg,
		rpc:         client,
		syncManager: syncManager,
		coordinator: indexer.NewIndexerCoordinator(log.WithComponent(common.ComponentIndexerCoordinator)),
		log:         log.WithComponent(common.ComponentDownloader),
		topics:      make(map[ethcommon.Hash]struct{}),
	}

	d.log.Info("downloader initialized")

	return d, nil
}

// RegisterIndexer registers an indexer to receive logs.
func (d *Downloader) RegisterIndexer(idx pkgindexer.Indexer) {
	for _, topics := range idx.EventsToIndex() {
		if len(topics) == 0 {
			d.allTopics = true
		}
		for topic := range topics {
			d.topics[topic] = struct{}{}
		}
	}

	d.coordinator.RegisterIndexer(idx)
}

// startBlock returns the lowest start block across registered indexers.
func (d *Downloader) startBlock() uint64 {
	startBlocks := d.coordinator.IndexerStartBlocks()
	if len(startBlocks) == 0 {
		return 0
	}
	return slices.Min(startBlocks)
}

// fetcherConfig builds the eth_getLogs filter from the registered indexers.
func (d *Downloader) fetcherConfig(finality types.BlockFinality) LogFetcherConfig {
	cfg := LogFetcherConfig{
		ChunkSize:    d.cfg.ChunkSize,
		Finality:     finality,
		FinalizedLag: d.cfg.FinalizedLag,
		PollInterval: d.cfg.PollInterval.Duration,
		Addresses:    d.coordinator.Addresses(),
	}

	if !d.allTopics {
		cfg.Topics = make([]ethcommon.Hash, 0, len(d.topics))
		for topic := range d.topics {
			cfg.Topics = append(cfg.Topics, topic)
		}
		slices.SortFunc(cfg.Topics, func(a, b ethcommon.Hash) int { return a.Cmp(b) })
	}

	return cfg
}

// Download streams logs to registered indexers until ctx is cancelled or a chunk fails.
func (d *Downloader) Download(ctx context.Context) error {
	finality, err := types.ParseBlockFinality(d.cfg.Finality)
	if err != nil {
		return fmt.Errorf("invalid finality configuration: %w", err)
	}

	fetcherCfg := d.fetcherConfig(finality)
	if len(fetcherCfg.Addresses) == 0 {
		return errors.New("no contracts to index, register at least one indexer")
	}

	fetcher := NewLogFetcher(fetcherCfg, d.rpc, d.log)

	state, err := d.syncManager.GetState()
	if err != nil {
		return fmt.Errorf("failed to get sync state: %w", err)
	}

	nextBlock := d.startBlock()
	if state.IsFresh() {
		d.log.Infow("starting fresh download", "start_block", nextBlock, "finality", finality)
	} else {
		if state.LastIndexedBlock+1 > nextBlock {
			nextBlock = state.LastIndexedBlock + 1
		}
		d.log.Infow("resuming download",
			"last_indexed_block", state.LastIndexedBlock,
			"next_block", nextBlock,
			"finality", finality,
		)
	}

	metrics.ComponentHealthSet(common.ComponentDownloader, true)
	defer metrics.ComponentHealthSet(common.ComponentDownloader, false)

	for {
		if err := ctx.Err(); err != nil {
			d.log.Info("download cancelled")
			return err
		}

		result, err := fetcher.FetchNext(ctx, nextBlock)
		if err != nil {
			if errors.Is(err, context.Canceled) {
				d.log.Info("download cancelled")
				return err
			}
			return fmt.Errorf("failed to fetch logs from block %d: %w", nextBlock, err)
		}

		if err := d.coordinator.HandleLogs(ctx, result.Logs, result.Times, result.FromBlock, result.ToBlock); err != nil {
			return fmt.Errorf("failed to handle logs: %w", err)
		}

		if err := d.syncManager.SaveCheckpoint(result.ToBlock, result.ToBlockHash, fetcher.Mode()); err != nil {
			return fmt.Errorf("failed to save checkpoint: %w", err)
		}

		metrics.LastSyncedBlockSet(result.ToBlock)

		logFn := d.log.Debugw
		if len(result.Logs) > 0 || fetcher.Mode() == pkgdownloader.ModeBackfill {
			logFn = d.log.Infow
		}
		logFn("checkpoint saved",
			"from_block", result.FromBlock,
			"to_block", result.ToBlock,
			"block_hash", result.ToBlockHash.Hex(),
			"mode", fetcher.Mode(),
			"logs_processed", len(result.Logs),
		)

		nextBlock = result.ToBlock + 1
	}
}

// Close closes every registered indexer and the sync state database.
func (d *Downloader) Close() error {
	d.log.Info("closing downloader")

	return errors.Join(d.coordinator.Close(), d.syncManager.Close())
}
