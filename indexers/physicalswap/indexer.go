package physicalswap

import (
	"context"
	"errors"
	"fmt"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/core/types"
	"github.com/goran-ethernal/SwapIndexor/internal/logger"
	"github.com/goran-ethernal/SwapIndexor/pkg/config"
	"github.com/goran-ethernal/SwapIndexor/pkg/indexer"
	"github.com/goran-ethernal/SwapIndexor/pkg/rpc"
)

// Compile-time check to ensure SwapIndexer implements indexer.Indexer interface.
var _ indexer.Indexer = (*SwapIndexer)(nil)

func init() {
	for _, rev := range Revisions {
		indexer.Register(rev.Type, factoryFor(rev))
	}
}

func factoryFor(rev *Revision) indexer.Factory {
	return func(cfg config.IndexerConfig, client rpc.EthClient, log *logger.Logger) (indexer.Indexer, error) {
		return NewSwapIndexer(cfg, rev, NewABIReader(rev, client), log)
	}
}

// SwapIndexer projects the events of PhysicalSwap escrow contracts of one revision.
type SwapIndexer struct {
	cfg config.IndexerConfig
	rev *Revision
	log *logger.Logger

	store     *Store
	decoder   *Decoder
	projector *Projector

	eventsToIndex map[common.Address]map[common.Hash]struct{}
}

// NewSwapIndexer opens the entity store and wires the projector to reader.
func NewSwapIndexer(
	cfg config.IndexerConfig, rev *Revision, reader ContractReader, log *logger.Logger,
) (*SwapIndexer, error) {
	if len(cfg.Contracts) == 0 {
		return nil, fmt.Errorf("indexer %s: at least one contract is required", cfg.Name)
	}

	eventsToIndex := make(map[common.Address]map[common.Hash]struct{}, len(cfg.Contracts))
	for _, contract := range cfg.Contracts {
		if !common.IsHexAddress(contract.Address) {
			return nil, fmt.Errorf("indexer %s: invalid contract address %q", cfg.Name, contract.Address)
		}
		eventsToIndex[common.HexToAddress(contract.Address)] = rev.Topics()
	}

	store, err := NewStore(cfg.DB, cfg.Name, log)
	if err != nil {
		return nil, err
	}

	return &SwapIndexer{
		cfg:           cfg,
		rev:           rev,
		log:           log,
		store:         store,
		decoder:       NewDecoder(rev),
		projector:     NewProjector(cfg.Name, rev, reader, store, log),
		eventsToIndex: eventsToIndex,
	}, nil
}

// Name returns the name of the indexer.
func (idx *SwapIndexer) Name() string {
	return idx.cfg.Name
}

// Type returns the contract revision the indexer was created for.
func (idx *SwapIndexer) Type() string {
	return idx.rev.Type
}

// EventsToIndex returns the map of contract addresses to event topic hashes.
func (idx *SwapIndexer) EventsToIndex() map[common.Address]map[common.Hash]struct{} {
	return idx.eventsToIndex
}

// StartBlock returns the configured start block.
func (idx *SwapIndexer) StartBlock() uint64 {
	return idx.cfg.StartBlock
}

// Store returns the entity store of the indexer.
func (idx *SwapIndexer) Store() *Store {
	return idx.store
}

// HandleLogs projects logs one at a time, in the order they were delivered.
func (idx *SwapIndexer) HandleLogs(ctx context.Context, logs []types.Log, times indexer.BlockTimes) error {
	if len(logs) == 0 {
		return nil
	}

	projected := 0

	for _, log := range logs {
		if log.Removed {
			continue
		}

		ev, err := idx.decoder.Decode(log)
		if errors.Is(err, ErrUnknownEvent) {
			idx.log.Debugf("skipping log %d in tx %s: %v", log.Index, log.TxHash.Hex(), err)
			continue
		}
		if err != nil {
			return fmt.Errorf("failed to decode log %d in tx %s at block %d: %w",
				log.Index, log.TxHash.Hex(), log.BlockNumber, err)
		}

		timestamp, ok := times[log.BlockNumber]
		if !ok {
			return fmt.Errorf("missing timestamp of block %d", log.BlockNumber)
		}
		ev.Timestamp = timestamp

		if err := idx.projector.Project(ctx, ev); err != nil {
			return fmt.Errorf("log %d in tx %s at block %d: %w", log.Index, log.TxHash.Hex(), log.BlockNumber, err)
		}
		projected++
	}

	idx.log.Infof("projected %d of %d logs in blocks %d-%d",
		projected, len(logs), logs[0].BlockNumber, logs[len(logs)-1].BlockNumber)

	return nil
}

// Close closes the entity store.
func (idx *SwapIndexer) Close() error {
	return idx.store.Close()
}
