package physicalswap

import (
	_ "embed"
	"fmt"
	"math/big"
	"strings"

	"github.com/ethereum/go-ethereum/accounts/abi"
	"github.com/ethereum/go-ethereum/common"
)

// Registry types of the supported contract revisions.
const (
	TypeSinglePayment = "physicalswap"
	TypeNFT           = "physicalswap-nft"
)

// Contract view methods read by the projector.
const (
	methodGetChargeStatus  = "getChargeStatus"
	methodGetPaymentStatus = "getPaymentStatus"
	methodGetNFTStatus     = "getNFTStatus"
)

var (
	//go:embed abi/single_payment.json
	singlePaymentABI string

	//go:embed abi/nft.json
	nftABI string
)

// action is what the projector does for an event.
type action int

const (
	actionFleatoCharge action = iota
	actionNewCharge
	actionNewPayment
	actionChargeStatus
	actionPaymentStatus
	actionNFTStatus
)

func (a action) String() string {
	switch a {
	case actionFleatoCharge:
		return "fleato_charge"
	case actionNewCharge:
		return "new_charge"
	case actionNewPayment:
		return "new_payment"
	case actionChargeStatus:
		return "charge_status"
	case actionPaymentStatus:
		return "payment_status"
	case actionNFTStatus:
		return "nft_status"
	default:
		return fmt.Sprintf("action(%d)", int(a))
	}
}

// ChargeState is the normalized output of getChargeStatus.
type ChargeState struct {
	// Receiver is only reported by the single payment contract.
	Receiver common.Address
	// Buyer and Seller are only reported by the NFT contract.
	Buyer         common.Address
	Seller        common.Address
	ProductCode   common.Hash
	Status        uint8
	Adjudicator   common.Address
	PaymentsCount *big.Int
	Created       *big.Int
}

// PaymentState is the normalized output of getPaymentStatus.
type PaymentState struct {
	Sender               common.Address
	PaymentToken         common.Address
	PaymentAmount        *big.Int
	WithholdingToken     common.Address
	WithholdingAmount    *big.Int
	PaymentWithdrawn     bool
	WithholdingWithdrawn bool
	Refunded             bool
	PaymentScavenged     bool
	WithholdingScavenged bool
	Created              *big.Int
}

// NFTState is the normalized output of getNFTStatus.
type NFTState struct {
	Contract  common.Address
	TokenID   *big.Int
	InCustody bool
	Withdrawn bool
	Refunded  bool
	Scavenged bool
}

// Revision describes one deployed version of the escrow contract: its ABI, which
// projector action each event triggers and how its view outputs are shaped.
type Revision struct {
	Type        string
	ABI         abi.ABI
	SupportsNFT bool

	actions       map[string]action
	unpackCharge  func(abi.ABI, []byte) (*ChargeState, error)
	unpackPayment func(abi.ABI, []byte) (*PaymentState, error)
}

// action returns the projector action for the named event.
func (r *Revision) action(event string) (action, bool) {
	a, ok := r.actions[event]
	return a, ok
}

// Topics returns the topic0 of every event the revision handles.
func (r *Revision) Topics() map[common.Hash]struct{} {
	topics := make(map[common.Hash]struct{}, len(r.actions))
	for name := range r.actions {
		topics[r.ABI.Events[name].ID] = struct{}{}
	}
	return topics
}

// SinglePayment is the revision whose FleatoCharge event creates a charge with its only payment.
var SinglePayment = mustRevision(&Revision{
	Type: TypeSinglePayment,
	actions: map[string]action{
		"FleatoCharge":     actionFleatoCharge,
		"OkToDeliver":      actionChargeStatus,
		"OkToPayout":       actionChargeStatus,
		"OkToRefund":       actionChargeStatus,
		"Refunded":         actionChargeStatus,
		"PaymentScavenged": actionPaymentStatus,
		"FeeScavenged":     actionPaymentStatus,
		"PaymentWithdrawn": actionPaymentStatus,
		"FeeWithdrawn":     actionPaymentStatus,
	},
	unpackCharge:  unpackSinglePaymentCharge,
	unpackPayment: unpackSinglePaymentPayment,
}, singlePaymentABI)

// MultiPaymentNFT is the revision with separate payments, withholding and NFT custody.
var MultiPaymentNFT = mustRevision(&Revision{
	Type:        TypeNFT,
	SupportsNFT: true,
	actions: map[string]action{
		"NewCharge":                     actionNewCharge,
		"NewPayment":                    actionNewPayment,
		"OkToDeliver":                   actionChargeStatus,
		"OkToPayout":                    actionChargeStatus,
		"OkToRefund":                    actionChargeStatus,
		"PaymentAndWithholdingRefunded": actionPaymentStatus,
		"PaymentScavenged":              actionPaymentStatus,
		"PaymentWithdrawn":              actionPaymentStatus,
		"WithholdingScavenged":          actionPaymentStatus,
		"WithholdingWithdrawn":          actionPaymentStatus,
		"NewNFTDeposit":                 actionNFTStatus,
		"NFTScavenged":                  actionNFTStatus,
		"NFTWithdrawn":                  actionNFTStatus,
		"NFTRefunded":                   actionNFTStatus,
	},
	unpackCharge:  unpackNFTCharge,
	unpackPayment: unpackNFTPayment,
}, nftABI)

// Revisions lists every supported revision.
var Revisions = []*Revision{SinglePayment, MultiPaymentNFT}

// mustRevision parses the embedded ABI and checks that every handled event and view method exists.
func mustRevision(r *Revision, abiJSON string) *Revision {
	parsed, err := abi.JSON(strings.NewReader(abiJSON))
	if err != nil {
		panic(fmt.Sprintf("invalid %s ABI: %v", r.Type, err))
	}
	r.ABI = parsed

	for name := range r.actions {
		event, ok := parsed.Events[name]
		if !ok {
			panic(fmt.Sprintf("%s ABI has no event %s", r.Type, name))
		}
		if len(event.Inputs) == 0 || event.Inputs[0].Name != "chargeCode" || !event.Inputs[0].Indexed {
			panic(fmt.Sprintf("%s event %s must start with an indexed chargeCode", r.Type, name))
		}
	}

	methods := []string{methodGetChargeStatus, methodGetPaymentStatus}
	if r.SupportsNFT {
		methods = append(methods, methodGetNFTStatus)
	}
	for _, name := range methods {
		if _, ok := parsed.Methods[name]; !ok {
			panic(fmt.Sprintf("%s ABI has no method %s", r.Type, name))
		}
	}

	return r
}

// RevisionByType returns the revision registered under the given indexer type.
func RevisionByType(typ string) (*Revision, error) {
	for _, r := range Revisions {
		if strings.EqualFold(r.Type, typ) {
			return r, nil
		}
	}
	return nil, fmt.Errorf("unknown contract revision %q", typ)
}

// Raw view outputs. Field names follow the ABI output names.

type singlePaymentChargeStatus struct {
	Receiver      common.Address
	ProductCode   [32]byte
	Status        uint8
	Adjudicator   common.Address
	PaymentsCount *big.Int
	Created       *big.Int
}

type singlePaymentPaymentStatus struct {
	Sender           common.Address
	PaymentToken     common.Address
	PaymentAmount    *big.Int
	FeeAmount        *big.Int
	PaymentWithdrawn bool
	FeeWithdrawn     bool
	Refunded         bool
	PaymentScavenged bool
	FeeScavenged     bool
	Created          *big.Int
}

type nftChargeStatus struct {
	Buyer          common.Address
	Seller         common.Address
	ProductCode    [32]byte
	Status         uint8
	Adjudicator    common.Address
	PaymentsLength *big.Int
	Created        *big.Int
}

type nftPaymentStatus struct {
	Sender               common.Address
	PaymentToken         common.Address
	PaymentAmount        *big.Int
	WithholdingToken     common.Address
	WithholdingAmount    *big.Int
	PaymentWithdrawn     bool
	WithholdingWithdrawn bool
	Refunded             bool
	PaymentScavenged     bool
	WithholdingScavenged bool
	Created              *big.Int
}

type nftStatus struct {
	NftContract common.Address
	TokenId     *big.Int //nolint:revive,stylecheck
	InCustody   bool
	Withdrawn   bool
	Refunded    bool
	Scavenged   bool
}

func unpackSinglePaymentCharge(contract abi.ABI, data []byte) (*ChargeState, error) {
	var out singlePaymentChargeStatus
	if err := contract.UnpackIntoInterface(&out, methodGetChargeStatus, data); err != nil {
		return nil, err
	}

	return &ChargeState{
		Receiver:      out.Receiver,
		ProductCode:   out.ProductCode,
		Status:        out.Status,
		Adjudicator:   out.Adjudicator,
		PaymentsCount: out.PaymentsCount,
		Created:       out.Created,
	}, nil
}

func unpackSinglePaymentPayment(contract abi.ABI, data []byte) (*PaymentState, error) {
	var out singlePaymentPaymentStatus
	if err := contract.UnpackIntoInterface(&out, methodGetPaymentStatus, data); err != nil {
		return nil, err
	}

	return &PaymentState{
		Sender:               out.Sender,
		PaymentToken:         out.PaymentToken,
		PaymentAmount:        out.PaymentAmount,
		WithholdingToken:     out.PaymentToken,
		WithholdingAmount:    out.FeeAmount,
		PaymentWithdrawn:     out.PaymentWithdrawn,
		WithholdingWithdrawn: out.FeeWithdrawn,
		Refunded:             out.Refunded,
		PaymentScavenged:     out.PaymentScavenged,
		WithholdingScavenged: out.FeeScavenged,
		Created:              out.Created,
	}, nil
}

func unpackNFTCharge(contract abi.ABI, data []byte) (*ChargeState, error) {
	var out nftChargeStatus
	if err := contract.UnpackIntoInterface(&out, methodGetChargeStatus, data); err != nil {
		return nil, err
	}

	return &ChargeState{
		Buyer:         out.Buyer,
		Seller:        out.Seller,
		ProductCode:   out.ProductCode,
		Status:        out.Status,
		Adjudicator:   out.Adjudicator,
		PaymentsCount: out.PaymentsLength,
		Created:       out.Created,
	}, nil
}

func unpackNFTPayment(contract abi.ABI, data []byte) (*PaymentState, error) {
	var out nftPaymentStatus
	if err := contract.UnpackIntoInterface(&out, methodGetPaymentStatus, data); err != nil {
		return nil, err
	}

	return &PaymentState{
		Sender:               out.Sender,
		PaymentToken:         out.PaymentToken,
		PaymentAmount:        out.PaymentAmount,
		WithholdingToken:     out.WithholdingToken,
		WithholdingAmount:    out.WithholdingAmount,
		PaymentWithdrawn:     out.PaymentWithdrawn,
		WithholdingWithdrawn: out.WithholdingWithdrawn,
		Refunded:             out.Refunded,
		PaymentScavenged:     out.PaymentScavenged,
		WithholdingScavenged: out.WithholdingScavenged,
		Created:              out.Created,
	}, nil
}

func unpackNFTStatus(contract abi.ABI, data []byte) (*NFTState, error) {
	var out nftStatus
	if err := contract.UnpackIntoInterface(&out, methodGetNFTStatus, data); err != nil {
		return nil, err
	}

	return &NFTState{
		Contract:  out.NftContract,
		TokenID:   out.TokenId,
		InCustody: out.InCustody,
		Withdrawn: out.Withdrawn,
		Refunded:  out.Refunded,
		Scavenged: out.Scavenged,
	}, nil
}
