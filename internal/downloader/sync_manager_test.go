package downloader

import (
	"testing"
	"time"

	"github.com/ethereum/go-ethereum/common"
	"github.com/goran-ethernal/SwapIndexor/internal/logger"
	pkgdownloader "github.com/goran-ethernal/SwapIndexor/pkg/downloader"
	"github.com/stretchr/testify/require"
)

func TestSyncManager(t *testing.T) {
	t.Parallel()

	sm := NewSyncManager(setupTestDB(t), logger.NewNopLogger())
	defer sm.Close()

	now := time.Unix(1_700_000_000, 0)
	sm.now = func() time.Time { return now }

	state, err := sm.GetState()
	require.NoError(t, err)
	require.True(t, state.IsFresh())
	require.Zero(t, state.LastIndexedBlock)
	require.Equal(t, pkgdownloader.ModeBackfill, state.GetMode())

	hash := common.HexToHash("0xabc123")
	require.NoError(t, sm.SaveCheckpoint(1000, hash, pkgdownloader.ModeLive))

	state, err = sm.GetState()
	require.NoError(t, err)
	require.False(t, state.IsFresh())
	require.Equal(t, uint64(1000), state.LastIndexedBlock)
	require.Equal(t, hash, state.LastIndexedBlockHash)
	require.Equal(t, now.Unix(), state.LastIndexedTimestamp)
	require.Equal(t, pkgdownloader.ModeLive, state.GetMode())

	require.NoError(t, sm.Reset(500))

	state, err = sm.GetState()
	require.NoError(t, err)
	require.False(t, state.IsFresh())
	require.Equal(t, uint64(500), state.LastIndexedBlock)
	require.Equal(t, common.Hash{}, state.LastIndexedBlockHash)
	require.Equal(t, pkgdownloader.ModeBackfill, state.GetMode())
}

func TestSyncManager_StatePersistsAcrossInstances(t *testing.T) {
	t.Parallel()

	database := setupTestDB(t)
	defer database.Close()

	first := NewSyncManager(database, logger.NewNopLogger())
	require.NoError(t, first.SaveCheckpoint(42, common.HexToHash("0x42"), pkgdownloader.ModeBackfill))

	second := NewSyncManager(database, logger.NewNopLogger())
	state, err := second.GetState()
	require.NoError(t, err)
	require.Equal(t, uint64(42), state.LastIndexedBlock)
}
