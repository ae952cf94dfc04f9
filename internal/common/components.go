package common

const (
	ComponentDownloader         = "downloader"
	ComponentLogFetcher         = "log-fetcher"
	ComponentSyncManager        = "sync-manager"
	ComponentIndexerCoordinator = "indexer-coordinator"
	ComponentProjector          = "projector"
	ComponentRPC                = "rpc"
)

var AllComponents = map[string]struct{}{
	ComponentDownloader:         {},
	ComponentLogFetcher:         {},
	ComponentSyncManager:        {},
	ComponentIndexerCoordinator: {},
	ComponentProjector:          {},
	ComponentRPC:                {},
}
