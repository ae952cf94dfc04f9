package indexer

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/core/types"
	"github.com/goran-ethernal/SwapIndexor/internal/logger"
	"github.com/goran-ethernal/SwapIndexor/internal/metrics"
	"github.com/goran-ethernal/SwapIndexor/pkg/indexer"
	"golang.org/x/sync/errgroup"
)

// IndexerCoordinator manages multiple indexers and routes events to them based on address and topics.
type IndexerCoordinator struct {
	mu  sync.RWMutex
	log *logger.Logger

	// addressTopics maps address -> topic -> indexers for specific topic filters
	addressTopics map[common.Address]map[common.Hash][]indexer.Indexer

	// addressAllTopics maps address -> indexers that want ALL topics from that address
	addressAllTopics map[common.Address][]indexer.Indexer

	indexers    []indexer.Indexer
	startBlocks map[indexer.Indexer]uint64
}

// NewIndexerCoordinator creates a new IndexerCoordinator.
func NewIndexerCoordinator(log *logger.Logger) *IndexerCoordinator {
	return &IndexerCoordinator{
		log:              log,
		addressTopics:    make(map[common.Address]map[common.Hash][]indexer.Indexer),
		addressAllTopics: make(map[common.Address][]indexer.Indexer),
		startBlocks:      make(map[indexer.Indexer]uint64),
	}
}

// RegisterIndexer adds idx to the routing tables.
func (ic *IndexerCoordinator) RegisterIndexer(idx indexer.Indexer) {
	ic.mu.Lock()
	defer ic.mu.Unlock()

	ic.startBlocks[idx] = idx.StartBlock()

	for addr, topics := range idx.EventsToIndex() {
		if len(topics) == 0 {
			ic.addressAllTopics[addr] = append(ic.addressAllTopics[addr], idx)
			continue
		}

		if _, exists := ic.addressTopics[addr]; !exists {
			ic.addressTopics[addr] = make(map[common.Hash][]indexer.Indexer)
		}
		for topic := range topics {
			ic.addressTopics[addr][topic] = append(ic.addressTopics[addr][topic], idx)
		}
	}

	ic.indexers = append(ic.indexers, idx)

	ic.log.Infow("registered indexer",
		"name", idx.Name(),
		"type", idx.Type(),
		"start_block", ic.startBlocks[idx],
		"contracts", len(idx.EventsToIndex()),
	)
}

// Addresses returns every contract address any registered indexer listens to.
func (ic *IndexerCoordinator) Addresses() []common.Address {
	ic.mu.RLock()
	defer ic.mu.RUnlock()

	seen := make(map[common.Address]struct{})
	addresses := make([]common.Address, 0, len(ic.addressTopics)+len(ic.addressAllTopics))
	add := func(addr common.Address) {
		if _, ok := seen[addr]; !ok {
			seen[addr] = struct{}{}
			addresses = append(addresses, addr)
		}
	}

	for addr := range ic.addressTopics {
		add(addr)
	}
	for addr := range ic.addressAllTopics {
		add(addr)
	}

	return addresses
}

// HandleLogs routes logs of the block range [from, to] to the indexers subscribed to
// their (address, topic0) pair. Each indexer receives its logs in the order given, in one call,
// and indexers run concurrently with each other.
func (ic *IndexerCoordinator) HandleLogs(
	ctx context.Context, logs []types.Log, times indexer.BlockTimes, from, to uint64,
) error {
	ic.mu.RLock()
	defer ic.mu.RUnlock()

	indexerLogs := make(map[indexer.Indexer][]types.Log)

	for _, log := range logs {
		interested := make(map[indexer.Indexer]struct{})
		for _, idx := range ic.addressAllTopics[log.Address] {
			interested[idx] = struct{}{}
		}

		if len(log.Topics) > 0 {
			for _, idx := range ic.addressTopics[log.Address][log.Topics[0]] {
				interested[idx] = struct{}{}
			}
		}

		for idx := range interested {
			if log.BlockNumber >= ic.startBlocks[idx] {
				indexerLogs[idx] = append(indexerLogs[idx], log)
			}
		}
	}

	g, gctx := errgroup.WithContext(ctx)
	for _, idx := range ic.indexers {
		relevant := indexerLogs[idx]
		if to < ic.startBlocks[idx] {
			continue
		}

		g.Go(func() error {
			start := time.Now()

			if len(relevant) > 0 {
				if err := idx.HandleLogs(gctx, relevant, times); err != nil {
					return fmt.Errorf("indexer %s failed to handle logs in blocks %d-%d: %w", idx.Name(), from, to, err)
				}
			}

			metrics.BatchProcessingTimeLog(idx.Name(), time.Since(start))
			metrics.LastIndexedBlockSet(idx.Name(), to)

			return nil
		})
	}

	return g.Wait()
}

// IndexerStartBlocks returns the start block of every registered indexer.
func (ic *IndexerCoordinator) IndexerStartBlocks() []uint64 {
	ic.mu.RLock()
	defer ic.mu.RUnlock()

	startBlocks := make([]uint64, 0, len(ic.indexers))
	for _, idx := range ic.indexers {
		startBlocks = append(startBlocks, ic.startBlocks[idx])
	}
	return startBlocks
}

// Close closes every registered indexer and returns the first error.
func (ic *IndexerCoordinator) Close() error {
	ic.mu.Lock()
	defer ic.mu.Unlock()

	var firstErr error
	for _, idx := range ic.indexers {
		if err := idx.Close(); err != nil {
			ic.log.Errorw("failed to close indexer", "name", idx.Name(), "error", err)
			if firstErr == nil {
				firstErr = err
			}
		}
	}

	return firstErr
}
