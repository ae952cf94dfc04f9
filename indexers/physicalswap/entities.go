package physicalswap

import (
	"math/big"

	"github.com/ethereum/go-ethereum/common"
)

// Table names of the projected entities.
const (
	tableProducts = "products"
	tableUsers    = "users"
	tableNFTs     = "nfts"
	tableCharges  = "charges"
	tablePayments = "payments"
)

// Product is created the first time a charge references its product code.
type Product struct {
	ID          string      `meddler:"id"`
	ProductCode common.Hash `meddler:"product_code,hash"`
}

// User is any address seen as receiver, buyer, seller or payment sender.
type User struct {
	ID      string         `meddler:"id"`
	Address common.Address `meddler:"address,address"`
}

// NFT is the escrowed token of a charge, keyed by the charge id.
type NFT struct {
	ID          string         `meddler:"id"`
	Charge      string         `meddler:"charge"`
	Contract    common.Address `meddler:"contract,address"`
	TokenID     *big.Int       `meddler:"token_id,bigint"`
	InCustody   bool           `meddler:"nft_in_custody"`
	Withdrawn   bool           `meddler:"nft_withdrawn"`
	Refunded    bool           `meddler:"nft_refunded"`
	Scavenged   bool           `meddler:"nft_scavenged"`
	LastUpdated uint64         `meddler:"last_updated"`
}

// Charge is one escrowed sale. Receiver is set by the single payment contract,
// Buyer, Seller and NFT by the NFT contract.
type Charge struct {
	ID            string         `meddler:"id"`
	ChargeCode    common.Hash    `meddler:"charge_code,hash"`
	Product       string         `meddler:"product,zeroisnull"`
	Status        ChargeStatus   `meddler:"status"`
	Adjudicator   common.Address `meddler:"adjudicator,address"`
	PaymentsCount uint64         `meddler:"payments_count"`
	Created       uint64         `meddler:"created"`
	LastUpdated   uint64         `meddler:"last_updated"`
	Receiver      string         `meddler:"receiver,zeroisnull"`
	Buyer         string         `meddler:"buyer,zeroisnull"`
	Seller        string         `meddler:"seller,zeroisnull"`
	NFT           string         `meddler:"nft,zeroisnull"`
}

// Payment is one payment against a charge. On the single payment contract the
// withholding is the fee, paid in the payment token.
type Payment struct {
	ID                   string         `meddler:"id"`
	Charge               string         `meddler:"charge"`
	Sender               string         `meddler:"sender,zeroisnull"`
	PaymentToken         common.Address `meddler:"payment_token,address"`
	PaymentAmount        *big.Int       `meddler:"payment_amount,bigint"`
	WithholdingToken     common.Address `meddler:"withholding_token,address"`
	WithholdingAmount    *big.Int       `meddler:"withholding_amount,bigint"`
	PaymentWithdrawn     bool           `meddler:"payment_withdrawn"`
	WithholdingWithdrawn bool           `meddler:"withholding_withdrawn"`
	Refunded             bool           `meddler:"refunded"`
	PaymentScavenged     bool           `meddler:"payment_scavenged"`
	WithholdingScavenged bool           `meddler:"withholding_scavenged"`
	Created              uint64         `meddler:"created"`
	LastUpdated          uint64         `meddler:"last_updated"`
}

func (p *Product) setID(id string) { p.ID = id }
func (u *User) setID(id string)    { u.ID = id }
func (n *NFT) setID(id string)     { n.ID = id }
func (c *Charge) setID(id string)  { c.ID = id }
func (p *Payment) setID(id string) { p.ID = id }
