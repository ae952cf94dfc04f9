package downloader

import (
	"context"

	"github.com/goran-ethernal/SwapIndexor/pkg/indexer"
)

// Downloader defines the interface for downloading and streaming blockchain logs.
type Downloader interface {
	// RegisterIndexer registers an indexer to receive logs.
	// The downloader will use the indexer's EventsToIndex method to determine
	// which logs to fetch and forward.
	RegisterIndexer(indexer indexer.Indexer)

	// Download streams logs to registered indexers until ctx is cancelled or an indexer fails.
	Download(ctx context.Context) error

	// Close releases the sync state database and every registered indexer.
	Close() error
}
