package types

import (
	"math/big"
	"testing"

	"github.com/ethereum/go-ethereum/rpc"
	"github.com/stretchr/testify/require"
)

func TestParseBlockFinality(t *testing.T) {
	tests := []struct {
		input   string
		want    BlockFinality
		wantErr bool
	}{
		{input: "finalized", want: FinalityFinalized},
		{input: " Safe ", want: FinalitySafe},
		{input: "LATEST", want: FinalityLatest},
		{input: "pending", wantErr: true},
		{input: "", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			got, err := ParseBlockFinality(tt.input)
			if tt.wantErr {
				require.Error(t, err)
				require.False(t, got.IsValid())
				return
			}
			require.NoError(t, err)
			require.Equal(t, tt.want, got)
		})
	}
}

func TestBlockFinality_BlockNumber(t *testing.T) {
	require.Equal(t, big.NewInt(int64(rpc.FinalizedBlockNumber)), FinalityFinalized.BlockNumber())
	require.Equal(t, big.NewInt(int64(rpc.SafeBlockNumber)), FinalitySafe.BlockNumber())
	require.Nil(t, FinalityLatest.BlockNumber())
}

func TestBlockFinality_Head(t *testing.T) {
	require.Equal(t, uint64(100), FinalityFinalized.Head(100, 10))
	require.Equal(t, uint64(100), FinalitySafe.Head(100, 10))
	require.Equal(t, uint64(90), FinalityLatest.Head(100, 10))
	require.Zero(t, FinalityLatest.Head(5, 10))
	require.Zero(t, FinalityLatest.Head(10, 10))
}
