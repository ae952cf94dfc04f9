package physicalswap

import (
	"context"
	"errors"
	"fmt"
	"math/big"
	"path/filepath"
	"testing"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/core/types"
	"github.com/goran-ethernal/SwapIndexor/internal/logger"
	"github.com/goran-ethernal/SwapIndexor/pkg/config"
	"github.com/stretchr/testify/require"
)

var (
	testContract = common.HexToAddress("0x00000000000000000000000000000000005a1e00")
	testReceiver = common.HexToAddress("0x00000000000000000000000000000000000000aa")
	testSender   = common.HexToAddress("0x00000000000000000000000000000000000000bb")
	testBuyer    = common.HexToAddress("0x00000000000000000000000000000000000000cc")
	testSeller   = common.HexToAddress("0x00000000000000000000000000000000000000dd")
	testAdj      = common.HexToAddress("0x00000000000000000000000000000000000000ee")
	testToken    = common.HexToAddress("0x0000000000000000000000000000000000007070")
	testNFTAddr  = common.HexToAddress("0x000000000000000000000000000000000000f7f7")

	chargeC1  = common.HexToHash("0xc1")
	productP1 = common.HexToHash("0xf1")
)

var errReadFailed = errors.New("execution reverted")

// fakeReader serves contract state from memory, keyed by charge code.
type fakeReader struct {
	charges  map[common.Hash]*ChargeState
	payments map[string]*PaymentState
	nfts     map[common.Hash]*NFTState
	err      error
	calls    []CallSite
}

var _ ContractReader = (*fakeReader)(nil)

func newFakeReader() *fakeReader {
	return &fakeReader{
		charges:  make(map[common.Hash]*ChargeState),
		payments: make(map[string]*PaymentState),
		nfts:     make(map[common.Hash]*NFTState),
	}
}

func (f *fakeReader) GetChargeStatus(_ context.Context, at CallSite, chargeCode common.Hash) (*ChargeState, error) {
	f.calls = append(f.calls, at)
	if f.err != nil {
		return nil, f.err
	}
	state, ok := f.charges[chargeCode]
	if !ok {
		return nil, fmt.Errorf("charge %s: %w", chargeCode.Hex(), errReadFailed)
	}
	cp := *state
	return &cp, nil
}

func (f *fakeReader) GetPaymentStatus(
	_ context.Context, at CallSite, chargeCode common.Hash, paymentCode *big.Int,
) (*PaymentState, error) {
	f.calls = append(f.calls, at)
	if f.err != nil {
		return nil, f.err
	}
	state, ok := f.payments[PaymentID(chargeCode, paymentCode)]
	if !ok {
		return nil, fmt.Errorf("payment %s: %w", PaymentID(chargeCode, paymentCode), errReadFailed)
	}
	cp := *state
	return &cp, nil
}

func (f *fakeReader) GetNFTStatus(_ context.Context, at CallSite, chargeCode common.Hash) (*NFTState, error) {
	f.calls = append(f.calls, at)
	if f.err != nil {
		return nil, f.err
	}
	state, ok := f.nfts[chargeCode]
	if !ok {
		return nil, fmt.Errorf("nft %s: %w", chargeCode.Hex(), errReadFailed)
	}
	cp := *state
	return &cp, nil
}

func newTestDBConfig(t *testing.T) config.DatabaseConfig {
	t.Helper()

	cfg := config.DatabaseConfig{Path: filepath.Join(t.TempDir(), "swap.db")}
	cfg.ApplyDefaults()
	return cfg
}

func newTestStore(t *testing.T) *Store {
	t.Helper()

	store, err := NewStore(newTestDBConfig(t), "test", logger.NewNopLogger())
	require.NoError(t, err)
	t.Cleanup(func() { require.NoError(t, store.Close()) })

	return store
}

// encodeLog builds the log the contract would emit for the named event.
// values holds every event input by name; bytes32 values are [32]byte.
func encodeLog(t *testing.T, rev *Revision, name string, block uint64, index uint, values map[string]any) types.Log {
	t.Helper()

	event, ok := rev.ABI.Events[name]
	require.True(t, ok, "event %s not in %s ABI", name, rev.Type)

	topics := []common.Hash{event.ID}
	var data []any
	for _, input := range event.Inputs {
		v, ok := values[input.Name]
		require.True(t, ok, "missing value for %s.%s", name, input.Name)

		if input.Indexed {
			topics = append(topics, common.Hash(v.([32]byte)))
			continue
		}
		data = append(data, v)
	}

	packed, err := event.Inputs.NonIndexed().Pack(data...)
	require.NoError(t, err)

	return types.Log{
		Address:     testContract,
		Topics:      topics,
		Data:        packed,
		BlockNumber: block,
		TxHash:      common.BigToHash(new(big.Int).SetUint64(block*1000 + uint64(index))),
		Index:       index,
	}
}

// newEvent builds an already decoded event as the decoder would.
func newEvent(rev *Revision, name string, timestamp uint64) *Event {
	act, ok := rev.action(name)
	if !ok {
		panic("unknown event " + name)
	}
	return &Event{
		Name:        name,
		action:      act,
		ChargeCode:  chargeC1,
		Contract:    testContract,
		BlockNumber: timestamp / 10,
		Timestamp:   timestamp,
	}
}

func bytes32(h common.Hash) [32]byte {
	return [32]byte(h)
}
