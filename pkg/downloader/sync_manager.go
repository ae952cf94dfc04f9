package downloader

import (
	"github.com/ethereum/go-ethereum/common"
)

// FetchMode represents the operating mode of the log fetcher.
type FetchMode string

const (
	// ModeBackfill fetches historical blocks from start to the finality head
	ModeBackfill FetchMode = "backfill"

	// ModeLive polls for new blocks as they reach the finality head
	ModeLive FetchMode = "live"
)

// String returns the string representation of FetchMode.
func (m FetchMode) String() string {
	return string(m)
}

// SyncManager defines the interface for managing synchronization state and checkpoints.
type SyncManager interface {
	// GetState returns the current synchronization state.
	GetState() (*SyncState, error)

	// SaveCheckpoint records blockNum as fully delivered to every indexer.
	SaveCheckpoint(blockNum uint64, blockHash common.Hash, mode FetchMode) error

	// Reset moves the checkpoint back to startBlock so the range after it is delivered again.
	Reset(startBlock uint64) error

	// Close closes the sync manager and releases any resources.
	Close() error
}

// SyncState represents the current synchronization state.
// Uses meddler tags for automatic struct-to-db mapping.
type SyncState struct {
	ID                   int         `meddler:"id,pk" json:"-"`
	LastIndexedBlock     uint64      `meddler:"last_indexed_block" json:"last_indexed_block"`
	LastIndexedBlockHash common.Hash `meddler:"last_indexed_block_hash,hash" json:"last_indexed_block_hash"`
	LastIndexedTimestamp int64       `meddler:"last_indexed_timestamp" json:"last_indexed_timestamp"`
	Mode                 string      `meddler:"mode" json:"mode"`
}

// GetMode returns the Mode as a FetchMode.
func (s *SyncState) GetMode() FetchMode {
	return FetchMode(s.Mode)
}

// IsFresh reports whether no checkpoint has been written yet.
func (s *SyncState) IsFresh() bool {
	return s.LastIndexedTimestamp == 0
}
