package downloader

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"math/big"
	"path/filepath"
	"sync"
	"testing"

	"github.com/ethereum/go-ethereum"
	ethcommon "github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/core/types"
	"github.com/goran-ethernal/SwapIndexor/internal/db"
	"github.com/goran-ethernal/SwapIndexor/internal/downloader/migrations"
	"github.com/goran-ethernal/SwapIndexor/pkg/config"
	pkgindexer "github.com/goran-ethernal/SwapIndexor/pkg/indexer"
	pkgrpc "github.com/goran-ethernal/SwapIndexor/pkg/rpc"
	"github.com/stretchr/testify/require"
)

const genesisTime = 1_700_000_000

func setupTestDB(t *testing.T) *sql.DB {
	t.Helper()

	dbConfig := config.DatabaseConfig{Path: filepath.Join(t.TempDir(), "sync.db")}
	dbConfig.ApplyDefaults()

	require.NoError(t, migrations.RunMigrations(dbConfig))

	database, err := db.NewSQLiteDBFromConfig(dbConfig)
	require.NoError(t, err)

	return database
}

// tooManyResultsError mimics the DataError some providers return for wide eth_getLogs ranges.
type tooManyResultsError struct {
	from, to uint64
}

func (e *tooManyResultsError) Error() string { return "query returned more than 3 results" }
func (e *tooManyResultsError) ErrorData() any {
	return fmt.Sprintf("Query returned more than 3 results. Try with this block range [0x%x, 0x%x].", e.from, e.to)
}

// fakeChain serves logs and headers from memory.
type fakeChain struct {
	mu         sync.Mutex
	head       uint64
	logs       []types.Log
	maxResults int
	ranges     [][2]uint64
}

var _ pkgrpc.EthClient = (*fakeChain)(nil)

func headerAt(n uint64) *types.Header {
	return &types.Header{
		Number:     new(big.Int).SetUint64(n),
		Difficulty: big.NewInt(0),
		Time:       genesisTime + n*12,
	}
}

func (f *fakeChain) Close() {}

func (f *fakeChain) setHead(head uint64) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.head = head
}

func (f *fakeChain) GetLogs(_ context.Context, q ethereum.FilterQuery) ([]types.Log, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	from, to := q.FromBlock.Uint64(), q.ToBlock.Uint64()
	f.ranges = append(f.ranges, [2]uint64{from, to})

	var out []types.Log
	for _, l := range f.logs {
		if l.BlockNumber < from || l.BlockNumber > to {
			continue
		}
		if len(q.Addresses) > 0 && !containsAddress(q.Addresses, l.Address) {
			continue
		}
		if len(q.Topics) > 0 && len(q.Topics[0]) > 0 && !containsHash(q.Topics[0], l.Topics[0]) {
			continue
		}
		out = append(out, l)
	}

	if f.maxResults > 0 && len(out) > f.maxResults {
		return nil, &tooManyResultsError{from: from, to: from + (to-from)/4}
	}

	// Providers do not guarantee ordering across addresses.
	for i, j := 0, len(out)-1; i < j; i, j = i+1, j-1 {
		out[i], out[j] = out[j], out[i]
	}

	return out, nil
}

func (f *fakeChain) GetBlockHeader(_ context.Context, n uint64) (*types.Header, error) {
	return headerAt(n), nil
}

func (f *fakeChain) GetHeaderByTag(_ context.Context, tag *big.Int) (*types.Header, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	if tag == nil || tag.Sign() < 0 {
		return headerAt(f.head), nil
	}
	return headerAt(tag.Uint64()), nil
}

func (f *fakeChain) BatchGetBlockHeaders(_ context.Context, nums []uint64) ([]*types.Header, error) {
	headers := make([]*types.Header, 0, len(nums))
	for _, n := range nums {
		headers = append(headers, headerAt(n))
	}
	return headers, nil
}

func (f *fakeChain) CallContract(context.Context, ethereum.CallMsg, *big.Int) ([]byte, error) {
	return nil, errors.New("not supported")
}

func (f *fakeChain) requestedRanges() [][2]uint64 {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([][2]uint64(nil), f.ranges...)
}

func containsAddress(list []ethcommon.Address, a ethcommon.Address) bool {
	for _, x := range list {
		if x == a {
			return true
		}
	}
	return false
}

func containsHash(list []ethcommon.Hash, h ethcommon.Hash) bool {
	for _, x := range list {
		if x == h {
			return true
		}
	}
	return false
}

func chainLog(addr ethcommon.Address, topic ethcommon.Hash, block uint64, index uint) types.Log {
	return types.Log{
		Address:     addr,
		Topics:      []ethcommon.Hash{topic},
		BlockNumber: block,
		Index:       index,
	}
}

// recordingIndexer keeps every log and block time it was handed.
type recordingIndexer struct {
	mu         sync.Mutex
	name       string
	startBlock uint64
	events     map[ethcommon.Address]map[ethcommon.Hash]struct{}
	logs       []types.Log
	times      pkgindexer.BlockTimes
	failWith   error
	closed     bool
}

func (r *recordingIndexer) Name() string       { return r.name }
func (r *recordingIndexer) Type() string       { return "recording" }
func (r *recordingIndexer) StartBlock() uint64 { return r.startBlock }
func (r *recordingIndexer) EventsToIndex() map[ethcommon.Address]map[ethcommon.Hash]struct{} {
	return r.events
}

func (r *recordingIndexer) HandleLogs(_ context.Context, logs []types.Log, times pkgindexer.BlockTimes) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.failWith != nil {
		return r.failWith
	}

	if r.times == nil {
		r.times = make(pkgindexer.BlockTimes)
	}
	r.logs = append(r.logs, logs...)
	for _, l := range logs {
		r.times[l.BlockNumber] = times[l.BlockNumber]
	}
	return nil
}

func (r *recordingIndexer) Close() error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.closed = true
	return nil
}

func (r *recordingIndexer) received() []types.Log {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]types.Log(nil), r.logs...)
}
