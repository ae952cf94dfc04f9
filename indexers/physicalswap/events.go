package physicalswap

import (
	"errors"
	"fmt"
	"math/big"

	"github.com/ethereum/go-ethereum/accounts/abi"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/core/types"
)

// ErrUnknownEvent is returned for logs whose topic0 is not handled by the revision.
var ErrUnknownEvent = errors.New("unknown event")

// Event is a decoded contract log.
type Event struct {
	Name   string
	action action

	ChargeCode common.Hash
	// ProductCode is set on charge creation events.
	ProductCode common.Hash
	// PaymentCode is nil for charge and NFT scoped events.
	PaymentCode *big.Int
	// Receiver is set on FleatoCharge.
	Receiver common.Address

	Contract    common.Address
	BlockNumber uint64
	TxHash      common.Hash
	LogIndex    uint
	// Timestamp of the block that contains the log.
	Timestamp uint64
}

// CallSite returns where contract state must be read for this event.
func (e *Event) CallSite() CallSite {
	return CallSite{Contract: e.Contract, BlockNumber: e.BlockNumber}
}

// Decoder turns logs into events using the revision ABI.
type Decoder struct {
	rev *Revision
}

// NewDecoder creates a decoder for the given revision.
func NewDecoder(rev *Revision) *Decoder {
	return &Decoder{rev: rev}
}

// Decode decodes log. The block timestamp is not part of the log and is left zero.
func (d *Decoder) Decode(log types.Log) (*Event, error) {
	if len(log.Topics) == 0 {
		return nil, fmt.Errorf("%w: log has no topics", ErrUnknownEvent)
	}

	abiEvent, err := d.rev.ABI.EventByID(log.Topics[0])
	if err != nil {
		return nil, fmt.Errorf("%w: topic %s", ErrUnknownEvent, log.Topics[0].Hex())
	}

	act, ok := d.rev.action(abiEvent.Name)
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrUnknownEvent, abiEvent.Name)
	}

	fields := make(map[string]any, len(abiEvent.Inputs))
	if len(log.Data) > 0 {
		if err := d.rev.ABI.UnpackIntoMap(fields, abiEvent.Name, log.Data); err != nil {
			return nil, fmt.Errorf("failed to unpack %s data: %w", abiEvent.Name, err)
		}
	}

	var indexed abi.Arguments
	for _, input := range abiEvent.Inputs {
		if input.Indexed {
			indexed = append(indexed, input)
		}
	}
	if len(log.Topics)-1 != len(indexed) {
		return nil, fmt.Errorf("%s: expected %d indexed topics, got %d", abiEvent.Name, len(indexed), len(log.Topics)-1)
	}
	if err := abi.ParseTopicsIntoMap(fields, indexed, log.Topics[1:]); err != nil {
		return nil, fmt.Errorf("failed to parse %s topics: %w", abiEvent.Name, err)
	}

	ev := &Event{
		Name:        abiEvent.Name,
		action:      act,
		Contract:    log.Address,
		BlockNumber: log.BlockNumber,
		TxHash:      log.TxHash,
		LogIndex:    log.Index,
	}

	if ev.ChargeCode, err = bytes32Field(fields, "chargeCode"); err != nil {
		return nil, fmt.Errorf("%s: %w", abiEvent.Name, err)
	}
	if _, ok := fields["productCode"]; ok {
		if ev.ProductCode, err = bytes32Field(fields, "productCode"); err != nil {
			return nil, fmt.Errorf("%s: %w", abiEvent.Name, err)
		}
	}
	if v, ok := fields["paymentCode"]; ok {
		code, ok := v.(*big.Int)
		if !ok {
			return nil, fmt.Errorf("%s: paymentCode has type %T", abiEvent.Name, v)
		}
		ev.PaymentCode = code
	}
	if v, ok := fields["receiver"]; ok {
		receiver, ok := v.(common.Address)
		if !ok {
			return nil, fmt.Errorf("%s: receiver has type %T", abiEvent.Name, v)
		}
		ev.Receiver = receiver
	}

	switch act {
	case actionFleatoCharge, actionNewPayment, actionPaymentStatus:
		if ev.PaymentCode == nil {
			return nil, fmt.Errorf("%s: missing paymentCode", abiEvent.Name)
		}
	}

	return ev, nil
}

func bytes32Field(fields map[string]any, name string) (common.Hash, error) {
	v, ok := fields[name]
	if !ok {
		return common.Hash{}, fmt.Errorf("missing %s", name)
	}

	b, ok := v.([32]byte)
	if !ok {
		return common.Hash{}, fmt.Errorf("%s has type %T", name, v)
	}
	return common.Hash(b), nil
}
