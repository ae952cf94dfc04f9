package indexer

import (
	"context"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/core/types"
)

// BlockTimes maps a block number to its header timestamp in unix seconds.
type BlockTimes map[uint64]uint64

// Indexer defines the interface that all indexers must implement.
// Indexers receive ordered logs from the downloader and project them into their own store.
type Indexer interface {
	// Name returns the configured instance name.
	Name() string

	// Type returns the registry type the instance was created from.
	Type() string

	// EventsToIndex returns a map of contract addresses to their event topic hashes.
	// This is used by the coordinator to determine which logs should be sent to this indexer.
	// The inner map is a set of topic0 hashes; an empty set subscribes to every event of the address.
	EventsToIndex() map[common.Address]map[common.Hash]struct{}

	// HandleLogs processes a batch of logs ordered by (block, log index).
	// times holds the timestamp of every block referenced by logs.
	// An error aborts the batch and stops the downloader before its checkpoint advances.
	HandleLogs(ctx context.Context, logs []types.Log, times BlockTimes) error

	// StartBlock returns the block number from which this indexer wants to start processing logs.
	// The downloader will use the minimum StartBlock across all registered indexers to determine
	// the earliest block to fetch. Each indexer will only receive logs from blocks >= its StartBlock.
	StartBlock() uint64

	// Close releases the indexer's resources.
	Close() error
}
