package indexer

import (
	"fmt"
	"slices"
	"strings"
	"sync"

	"github.com/goran-ethernal/SwapIndexor/internal/logger"
	"github.com/goran-ethernal/SwapIndexor/pkg/config"
	"github.com/goran-ethernal/SwapIndexor/pkg/rpc"
)

// Factory creates a new indexer instance. client is used for read-only contract calls.
type Factory func(cfg config.IndexerConfig, client rpc.EthClient, log *logger.Logger) (Indexer, error)

var (
	registry = make(map[string]Factory)
	mu       sync.RWMutex
)

// Register registers an indexer factory with the given type name.
// This is typically called in init() functions of indexer packages.
// The type name is case-insensitive and will be stored in lowercase.
func Register(indexerType string, factory Factory) {
	mu.Lock()
	defer mu.Unlock()

	name := strings.ToLower(indexerType)
	if _, exists := registry[name]; exists {
		logger.GetDefaultLogger().Infof("indexer type %s already registered, it will be overwritten", name)
	}

	registry[name] = factory
}

// GetFactory returns the factory for the given indexer type, or nil if the type is not registered.
// The lookup is case-insensitive.
func GetFactory(indexerType string) Factory {
	mu.RLock()
	defer mu.RUnlock()
	return registry[strings.ToLower(indexerType)]
}

// ListRegistered returns all registered indexer types in sorted order.
func ListRegistered() []string {
	mu.RLock()
	defer mu.RUnlock()

	types := make([]string, 0, len(registry))
	for t := range registry {
		types = append(types, t)
	}
	slices.Sort(types)

	return types
}

// Create creates a new indexer instance using the registered factory for cfg.Type.
func Create(cfg config.IndexerConfig, client rpc.EthClient, log *logger.Logger) (Indexer, error) {
	factory := GetFactory(cfg.Type)
	if factory == nil {
		return nil, fmt.Errorf("unknown indexer type: %s (registered types: %v)", cfg.Type, ListRegistered())
	}

	return factory(cfg, client, log)
}
