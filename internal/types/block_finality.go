package types

import (
	"fmt"
	"math/big"

	"github.com/ethereum/go-ethereum/rpc"
	"github.com/goran-ethernal/SwapIndexor/internal/common"
)

// BlockFinality represents the finality mode used to pick the highest block to index.
type BlockFinality string

const (
	// FinalityFinalized uses the finalized block tag (highest level of finality)
	FinalityFinalized BlockFinality = "finalized"

	// FinalitySafe uses the safe block tag (medium level of finality)
	FinalitySafe BlockFinality = "safe"

	// FinalityLatest uses the latest block minus a configured lag
	FinalityLatest BlockFinality = "latest"
)

// String returns the string representation of BlockFinality.
func (f BlockFinality) String() string {
	return string(f)
}

// IsValid checks if the BlockFinality value is valid.
func (f BlockFinality) IsValid() bool {
	switch f {
	case FinalityFinalized, FinalitySafe, FinalityLatest:
		return true
	default:
		return false
	}
}

// BlockNumber returns the block tag to pass to eth_getBlockByNumber.
func (f BlockFinality) BlockNumber() *big.Int {
	switch f {
	case FinalityFinalized:
		return big.NewInt(int64(rpc.FinalizedBlockNumber))
	case FinalitySafe:
		return big.NewInt(int64(rpc.SafeBlockNumber))
	default:
		return nil
	}
}

// Head returns the highest final block given the header returned for BlockNumber.
// Under FinalityLatest the lag is subtracted, the tagged modes are final as reported.
func (f BlockFinality) Head(reported, lag uint64) uint64 {
	if f != FinalityLatest {
		return reported
	}
	if reported <= lag {
		return 0
	}
	return reported - lag
}

// ParseBlockFinality parses a string into a BlockFinality type.
func ParseBlockFinality(s string) (BlockFinality, error) {
	f := BlockFinality(common.ToLowerWithTrim(s))
	if !f.IsValid() {
		return "", fmt.Errorf("invalid block finality: %s (must be one of: finalized, safe, latest)", s)
	}
	return f, nil
}
