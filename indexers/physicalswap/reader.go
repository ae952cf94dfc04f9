package physicalswap

import (
	"context"
	"fmt"
	"math/big"

	"github.com/ethereum/go-ethereum"
	"github.com/ethereum/go-ethereum/common"
	"github.com/goran-ethernal/SwapIndexor/pkg/rpc"
)

// CallSite pins a contract read to the contract that emitted the event and the block it was emitted in.
type CallSite struct {
	Contract    common.Address
	BlockNumber uint64
}

// ContractReader exposes the read-only view methods of the escrow contract.
type ContractReader interface {
	GetChargeStatus(ctx context.Context, at CallSite, chargeCode common.Hash) (*ChargeState, error)
	GetPaymentStatus(ctx context.Context, at CallSite, chargeCode common.Hash, paymentCode *big.Int) (*PaymentState, error)
	GetNFTStatus(ctx context.Context, at CallSite, chargeCode common.Hash) (*NFTState, error)
}

var _ ContractReader = (*ABIReader)(nil)

// ABIReader reads contract state with eth_call, encoding calls with the revision ABI.
type ABIReader struct {
	rev    *Revision
	client rpc.EthClient
}

// NewABIReader creates a reader for the given revision.
func NewABIReader(rev *Revision, client rpc.EthClient) *ABIReader {
	return &ABIReader{rev: rev, client: client}
}

// GetChargeStatus calls getChargeStatus(chargeCode).
func (r *ABIReader) GetChargeStatus(ctx context.Context, at CallSite, chargeCode common.Hash) (*ChargeState, error) {
	out, err := r.call(ctx, at, methodGetChargeStatus, chargeCode)
	if err != nil {
		return nil, err
	}

	state, err := r.rev.unpackCharge(r.rev.ABI, out)
	if err != nil {
		return nil, fmt.Errorf("failed to decode %s output: %w", methodGetChargeStatus, err)
	}
	return state, nil
}

// GetPaymentStatus calls getPaymentStatus(chargeCode, paymentCode).
func (r *ABIReader) GetPaymentStatus(
	ctx context.Context, at CallSite, chargeCode common.Hash, paymentCode *big.Int,
) (*PaymentState, error) {
	out, err := r.call(ctx, at, methodGetPaymentStatus, chargeCode, paymentCode)
	if err != nil {
		return nil, err
	}

	state, err := r.rev.unpackPayment(r.rev.ABI, out)
	if err != nil {
		return nil, fmt.Errorf("failed to decode %s output: %w", methodGetPaymentStatus, err)
	}
	return state, nil
}

// GetNFTStatus calls getNFTStatus(chargeCode). Only the NFT revision has it.
func (r *ABIReader) GetNFTStatus(ctx context.Context, at CallSite, chargeCode common.Hash) (*NFTState, error) {
	if !r.rev.SupportsNFT {
		return nil, fmt.Errorf("revision %s has no %s", r.rev.Type, methodGetNFTStatus)
	}

	out, err := r.call(ctx, at, methodGetNFTStatus, chargeCode)
	if err != nil {
		return nil, err
	}

	state, err := unpackNFTStatus(r.rev.ABI, out)
	if err != nil {
		return nil, fmt.Errorf("failed to decode %s output: %w", methodGetNFTStatus, err)
	}
	return state, nil
}

func (r *ABIReader) call(ctx context.Context, at CallSite, method string, args ...any) ([]byte, error) {
	input, err := r.rev.ABI.Pack(method, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to pack %s: %w", method, err)
	}

	contract := at.Contract
	out, err := r.client.CallContract(ctx, ethereum.CallMsg{To: &contract, Data: input}, new(big.Int).SetUint64(at.BlockNumber))
	if err != nil {
		return nil, fmt.Errorf("%s on %s at block %d: %w", method, at.Contract.Hex(), at.BlockNumber, err)
	}
	if len(out) == 0 {
		return nil, fmt.Errorf("%s on %s at block %d: empty result", method, at.Contract.Hex(), at.BlockNumber)
	}

	return out, nil
}
