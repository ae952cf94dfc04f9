package physicalswap

import (
	"context"
	"fmt"
	"math/big"

	"github.com/ethereum/go-ethereum/common"
	"github.com/goran-ethernal/SwapIndexor/internal/logger"
	"github.com/goran-ethernal/SwapIndexor/internal/metrics"
)

// Projector turns decoded events plus freshly read contract state into entity upserts.
//
// Every handler reads all the state it needs before it opens the store transaction,
// so a failed read or an unknown status leaves the store untouched.
type Projector struct {
	name   string
	rev    *Revision
	reader ContractReader
	store  *Store
	log    *logger.Logger
}

// NewProjector creates a projector for one contract revision.
func NewProjector(name string, rev *Revision, reader ContractReader, store *Store, log *logger.Logger) *Projector {
	return &Projector{
		name:   name,
		rev:    rev,
		reader: reader,
		store:  store,
		log:    log,
	}
}

// Project applies a single event.
func (p *Projector) Project(ctx context.Context, ev *Event) error {
	if err := p.project(ctx, ev); err != nil {
		metrics.ProjectionErrorInc(p.name, ev.Name)
		return fmt.Errorf("failed to project %s of charge %s: %w", ev.Name, ChargeID(ev.ChargeCode), err)
	}

	metrics.EventProjectedInc(p.name, ev.Name)
	return nil
}

func (p *Projector) project(ctx context.Context, ev *Event) error {
	switch ev.action {
	case actionFleatoCharge:
		return p.handleFleatoCharge(ctx, ev)
	case actionNewCharge:
		return p.handleNewCharge(ctx, ev)
	case actionNewPayment:
		return p.handleNewPayment(ctx, ev)
	case actionChargeStatus:
		return p.handleChargeStatus(ctx, ev)
	case actionPaymentStatus:
		return p.handlePaymentStatus(ctx, ev)
	case actionNFTStatus:
		return p.handleNFTStatus(ctx, ev)
	default:
		return fmt.Errorf("no handler for %s", ev.action)
	}
}

// chargeSnapshot is a validated getChargeStatus result.
type chargeSnapshot struct {
	*ChargeState
	status        ChargeStatus
	paymentsCount uint64
	created       uint64
}

// paymentSnapshot is a validated getPaymentStatus result.
type paymentSnapshot struct {
	*PaymentState
	created uint64
}

func (p *Projector) readCharge(ctx context.Context, ev *Event) (*chargeSnapshot, error) {
	state, err := p.reader.GetChargeStatus(ctx, ev.CallSite(), ev.ChargeCode)
	if err != nil {
		return nil, err
	}

	status, err := ParseChargeStatus(state.Status)
	if err != nil {
		return nil, err
	}
	paymentsCount, err := toUint64("paymentsCount", state.PaymentsCount)
	if err != nil {
		return nil, err
	}
	created, err := toUint64("created", state.Created)
	if err != nil {
		return nil, err
	}

	return &chargeSnapshot{
		ChargeState:   state,
		status:        status,
		paymentsCount: paymentsCount,
		created:       created,
	}, nil
}

func (p *Projector) readPayment(ctx context.Context, ev *Event) (*paymentSnapshot, error) {
	state, err := p.reader.GetPaymentStatus(ctx, ev.CallSite(), ev.ChargeCode, ev.PaymentCode)
	if err != nil {
		return nil, err
	}

	created, err := toUint64("created", state.Created)
	if err != nil {
		return nil, err
	}

	return &paymentSnapshot{PaymentState: state, created: created}, nil
}

// handleFleatoCharge creates the charge together with its only payment.
func (p *Projector) handleFleatoCharge(ctx context.Context, ev *Event) error {
	charge, err := p.readCharge(ctx, ev)
	if err != nil {
		return err
	}
	payment, err := p.readPayment(ctx, ev)
	if err != nil {
		return err
	}

	chargeID := ChargeID(ev.ChargeCode)
	return p.store.Update(ctx, func(tx *Tx) error {
		if err := upsertProduct(tx, ev.ProductCode); err != nil {
			return err
		}
		if err := upsertUser(tx, ev.Receiver); err != nil {
			return err
		}

		err := tx.UpsertCharge(chargeID, func(c *Charge) {
			c.ChargeCode = ev.ChargeCode
			c.Product = ProductID(ev.ProductCode)
			c.Receiver = userRef(ev.Receiver)
			applyCharge(c, charge)
			p.touch(tableCharges, chargeID, &c.LastUpdated, ev)
		})
		if err != nil {
			return err
		}

		if err := upsertUser(tx, payment.Sender); err != nil {
			return err
		}
		return p.upsertPayment(tx, ev, payment)
	})
}

// handleNewCharge creates the charge, its parties and its NFT snapshot.
func (p *Projector) handleNewCharge(ctx context.Context, ev *Event) error {
	charge, err := p.readCharge(ctx, ev)
	if err != nil {
		return err
	}
	nft, err := p.reader.GetNFTStatus(ctx, ev.CallSite(), ev.ChargeCode)
	if err != nil {
		return err
	}

	chargeID := ChargeID(ev.ChargeCode)
	return p.store.Update(ctx, func(tx *Tx) error {
		if err := upsertProduct(tx, ev.ProductCode); err != nil {
			return err
		}
		if err := upsertUser(tx, charge.Buyer); err != nil {
			return err
		}
		if err := upsertUser(tx, charge.Seller); err != nil {
			return err
		}
		if err := p.rebuildNFT(tx, ev, nft); err != nil {
			return err
		}

		return tx.UpsertCharge(chargeID, func(c *Charge) {
			c.ChargeCode = ev.ChargeCode
			c.Product = ProductID(ev.ProductCode)
			c.Buyer = userRef(charge.Buyer)
			c.Seller = userRef(charge.Seller)
			c.NFT = chargeID
			applyCharge(c, charge)
			p.touch(tableCharges, chargeID, &c.LastUpdated, ev)
		})
	})
}

// handleNewPayment creates the payment and refreshes the charge payment counter.
func (p *Projector) handleNewPayment(ctx context.Context, ev *Event) error {
	payment, err := p.readPayment(ctx, ev)
	if err != nil {
		return err
	}
	charge, err := p.readCharge(ctx, ev)
	if err != nil {
		return err
	}

	chargeID := ChargeID(ev.ChargeCode)
	return p.store.Update(ctx, func(tx *Tx) error {
		if err := upsertUser(tx, payment.Sender); err != nil {
			return err
		}
		if err := p.upsertPayment(tx, ev, payment); err != nil {
			return err
		}

		return tx.UpsertCharge(chargeID, func(c *Charge) {
			c.ChargeCode = ev.ChargeCode
			c.PaymentsCount = charge.paymentsCount
			c.Status = charge.status
			p.touch(tableCharges, chargeID, &c.LastUpdated, ev)
		})
	})
}

// handleChargeStatus refreshes only the charge status.
func (p *Projector) handleChargeStatus(ctx context.Context, ev *Event) error {
	charge, err := p.readCharge(ctx, ev)
	if err != nil {
		return err
	}

	return p.store.Update(ctx, func(tx *Tx) error {
		return p.refreshChargeStatus(tx, ev, charge)
	})
}

// handlePaymentStatus refreshes the charge status and the payment flags.
func (p *Projector) handlePaymentStatus(ctx context.Context, ev *Event) error {
	charge, err := p.readCharge(ctx, ev)
	if err != nil {
		return err
	}
	payment, err := p.readPayment(ctx, ev)
	if err != nil {
		return err
	}

	chargeID := ChargeID(ev.ChargeCode)
	paymentID := PaymentID(ev.ChargeCode, ev.PaymentCode)
	return p.store.Update(ctx, func(tx *Tx) error {
		if err := p.refreshChargeStatus(tx, ev, charge); err != nil {
			return err
		}

		return tx.UpsertPayment(paymentID, func(pm *Payment) {
			pm.Charge = chargeID
			p.applyPaymentFlags(pm, payment.PaymentState)
			p.touch(tablePayments, paymentID, &pm.LastUpdated, ev)
		})
	})
}

// handleNFTStatus rebuilds the NFT record of the charge.
func (p *Projector) handleNFTStatus(ctx context.Context, ev *Event) error {
	nft, err := p.reader.GetNFTStatus(ctx, ev.CallSite(), ev.ChargeCode)
	if err != nil {
		return err
	}

	return p.store.Update(ctx, func(tx *Tx) error {
		return p.rebuildNFT(tx, ev, nft)
	})
}

func (p *Projector) refreshChargeStatus(tx *Tx, ev *Event, charge *chargeSnapshot) error {
	chargeID := ChargeID(ev.ChargeCode)
	return tx.UpsertCharge(chargeID, func(c *Charge) {
		c.ChargeCode = ev.ChargeCode
		c.Status = charge.status
		p.touch(tableCharges, chargeID, &c.LastUpdated, ev)
	})
}

func (p *Projector) upsertPayment(tx *Tx, ev *Event, payment *paymentSnapshot) error {
	paymentID := PaymentID(ev.ChargeCode, ev.PaymentCode)
	return tx.UpsertPayment(paymentID, func(pm *Payment) {
		pm.Charge = ChargeID(ev.ChargeCode)
		pm.Sender = userRef(payment.Sender)
		pm.PaymentToken = payment.PaymentToken
		pm.PaymentAmount = payment.PaymentAmount
		pm.WithholdingToken = payment.WithholdingToken
		pm.WithholdingAmount = payment.WithholdingAmount
		pm.Created = payment.created
		p.applyPaymentFlags(pm, payment.PaymentState)
		p.touch(tablePayments, paymentID, &pm.LastUpdated, ev)
	})
}

// rebuildNFT replaces every NFT field with the contract state. Only the flags
// consult the stored record.
func (p *Projector) rebuildNFT(tx *Tx, ev *Event, state *NFTState) error {
	chargeID := ChargeID(ev.ChargeCode)
	return tx.UpsertNFT(chargeID, func(n *NFT) {
		fresh := NFT{
			Charge:      chargeID,
			Contract:    state.Contract,
			TokenID:     state.TokenID,
			InCustody:   state.InCustody,
			Withdrawn:   n.Withdrawn,
			Refunded:    n.Refunded,
			Scavenged:   n.Scavenged,
			LastUpdated: n.LastUpdated,
		}
		p.latch(tableNFTs, chargeID, "nft_withdrawn", &fresh.Withdrawn, state.Withdrawn)
		p.latch(tableNFTs, chargeID, "nft_refunded", &fresh.Refunded, state.Refunded)
		p.latch(tableNFTs, chargeID, "nft_scavenged", &fresh.Scavenged, state.Scavenged)
		p.touch(tableNFTs, chargeID, &fresh.LastUpdated, ev)
		*n = fresh
	})
}

func (p *Projector) applyPaymentFlags(pm *Payment, state *PaymentState) {
	p.latch(tablePayments, pm.ID, "payment_withdrawn", &pm.PaymentWithdrawn, state.PaymentWithdrawn)
	p.latch(tablePayments, pm.ID, "withholding_withdrawn", &pm.WithholdingWithdrawn, state.WithholdingWithdrawn)
	p.latch(tablePayments, pm.ID, "refunded", &pm.Refunded, state.Refunded)
	p.latch(tablePayments, pm.ID, "payment_scavenged", &pm.PaymentScavenged, state.PaymentScavenged)
	p.latch(tablePayments, pm.ID, "withholding_scavenged", &pm.WithholdingScavenged, state.WithholdingScavenged)
}

// latch sets a flag that may never go back to false.
func (p *Projector) latch(table, id, flag string, stored *bool, observed bool) {
	if *stored && !observed {
		p.log.Warnf("%s %s: contract reports %s=false after it was recorded true, keeping true", table, id, flag)
		return
	}
	*stored = observed
}

// touch records the event time as the last update of an entity.
func (p *Projector) touch(table, id string, lastUpdated *uint64, ev *Event) {
	if *lastUpdated > ev.Timestamp {
		p.log.Warnf("%s %s: last_updated moves back from %d to %d (%s at block %d, log %d)",
			table, id, *lastUpdated, ev.Timestamp, ev.Name, ev.BlockNumber, ev.LogIndex)
	}
	*lastUpdated = ev.Timestamp
}

func applyCharge(c *Charge, charge *chargeSnapshot) {
	c.Status = charge.status
	c.Adjudicator = charge.Adjudicator
	c.PaymentsCount = charge.paymentsCount
	c.Created = charge.created
}

func upsertProduct(tx *Tx, productCode common.Hash) error {
	return tx.UpsertProduct(ProductID(productCode), func(p *Product) {
		p.ProductCode = productCode
	})
}

// upsertUser records address as a user. The zero address is not a party.
func upsertUser(tx *Tx, address common.Address) error {
	if address == (common.Address{}) {
		return nil
	}

	return tx.UpsertUser(UserID(address), func(u *User) {
		u.Address = address
	})
}

func userRef(address common.Address) string {
	if address == (common.Address{}) {
		return ""
	}
	return UserID(address)
}

func toUint64(name string, v *big.Int) (uint64, error) {
	if v == nil {
		return 0, nil
	}
	if !v.IsUint64() {
		return 0, fmt.Errorf("%s %s does not fit in uint64", name, v)
	}
	return v.Uint64(), nil
}
