package physicalswap

import (
	"context"
	"math/big"
	"testing"

	"github.com/ethereum/go-ethereum/common"
	"github.com/goran-ethernal/SwapIndexor/internal/logger"
	"github.com/russross/meddler"
	"github.com/stretchr/testify/require"
)

type projectorFixture struct {
	reader    *fakeReader
	store     *Store
	projector *Projector
}

func newProjectorFixture(t *testing.T, rev *Revision) *projectorFixture {
	t.Helper()

	reader := newFakeReader()
	store := newTestStore(t)

	return &projectorFixture{
		reader:    reader,
		store:     store,
		projector: NewProjector("test", rev, reader, store, logger.NewNopLogger()),
	}
}

func (f *projectorFixture) project(t *testing.T, ev *Event) {
	t.Helper()
	require.NoError(t, f.projector.Project(context.Background(), ev))
}

// storeDump is the full entity set ordered by id.
type storeDump struct {
	Products []*Product
	Users    []*User
	NFTs     []*NFT
	Charges  []*Charge
	Payments []*Payment
}

func dumpStore(t *testing.T, store *Store) storeDump {
	t.Helper()

	var d storeDump
	require.NoError(t, meddler.QueryAll(store.db, &d.Products, "SELECT * FROM products ORDER BY id"))
	require.NoError(t, meddler.QueryAll(store.db, &d.Users, "SELECT * FROM users ORDER BY id"))
	require.NoError(t, meddler.QueryAll(store.db, &d.NFTs, "SELECT * FROM nfts ORDER BY id"))
	require.NoError(t, meddler.QueryAll(store.db, &d.Charges, "SELECT * FROM charges ORDER BY id"))
	require.NoError(t, meddler.QueryAll(store.db, &d.Payments, "SELECT * FROM payments ORDER BY id"))
	return d
}

func requireEmptyStore(t *testing.T, store *Store) {
	t.Helper()

	counts, err := store.Count(context.Background())
	require.NoError(t, err)
	for table, n := range counts {
		require.Zero(t, n, table)
	}
}

func seedSinglePayment(r *fakeReader) {
	r.charges[chargeC1] = &ChargeState{
		Receiver:      testReceiver,
		ProductCode:   productP1,
		Status:        1,
		Adjudicator:   testAdj,
		PaymentsCount: big.NewInt(1),
		Created:       big.NewInt(1000),
	}
	r.payments[PaymentID(chargeC1, big.NewInt(1))] = &PaymentState{
		Sender:            testSender,
		PaymentToken:      testToken,
		PaymentAmount:     big.NewInt(500),
		WithholdingToken:  testToken,
		WithholdingAmount: big.NewInt(5),
		Created:           big.NewInt(1000),
	}
}

func seedMultiPaymentNFT(r *fakeReader) {
	r.charges[chargeC1] = &ChargeState{
		Buyer:         testBuyer,
		Seller:        testSeller,
		ProductCode:   productP1,
		Status:        1,
		Adjudicator:   testAdj,
		PaymentsCount: big.NewInt(0),
		Created:       big.NewInt(1000),
	}
	r.nfts[chargeC1] = &NFTState{
		Contract:  testNFTAddr,
		TokenID:   big.NewInt(77),
		InCustody: true,
	}
}

func fleatoCharge(timestamp uint64) *Event {
	ev := newEvent(SinglePayment, "FleatoCharge", timestamp)
	ev.ProductCode = productP1
	ev.Receiver = testReceiver
	ev.PaymentCode = big.NewInt(1)
	return ev
}

func paymentEvent(rev *Revision, name string, paymentCode int64, timestamp uint64) *Event {
	ev := newEvent(rev, name, timestamp)
	ev.PaymentCode = big.NewInt(paymentCode)
	return ev
}

func newCharge(timestamp uint64) *Event {
	ev := newEvent(MultiPaymentNFT, "NewCharge", timestamp)
	ev.ProductCode = productP1
	return ev
}

func TestProjector_FleatoCharge(t *testing.T) {
	f := newProjectorFixture(t, SinglePayment)
	seedSinglePayment(f.reader)
	ctx := context.Background()

	ev := fleatoCharge(2000)
	f.project(t, ev)

	charge, err := f.store.GetCharge(ctx, ChargeID(chargeC1))
	require.NoError(t, err)
	require.Equal(t, StatusSuspense, charge.Status)
	require.Equal(t, "SUSPENSE", charge.Status.String())
	require.Equal(t, uint64(1), charge.PaymentsCount)
	require.Equal(t, uint64(1000), charge.Created)
	require.Equal(t, uint64(2000), charge.LastUpdated)
	require.Equal(t, ProductID(productP1), charge.Product)
	require.Equal(t, UserID(testReceiver), charge.Receiver)
	require.Equal(t, testAdj, charge.Adjudicator)
	require.Empty(t, charge.Buyer)
	require.Empty(t, charge.NFT)

	product, err := f.store.GetProduct(ctx, ProductID(productP1))
	require.NoError(t, err)
	require.Equal(t, productP1, product.ProductCode)

	_, err = f.store.GetUser(ctx, UserID(testReceiver))
	require.NoError(t, err)
	_, err = f.store.GetUser(ctx, UserID(testSender))
	require.NoError(t, err)

	payment, err := f.store.GetPayment(ctx, PaymentID(chargeC1, big.NewInt(1)))
	require.NoError(t, err)
	require.Equal(t, ChargeID(chargeC1), payment.Charge)
	require.Equal(t, UserID(testSender), payment.Sender)
	require.Equal(t, testToken, payment.PaymentToken)
	require.Equal(t, "500", payment.PaymentAmount.String())
	require.Equal(t, testToken, payment.WithholdingToken)
	require.Equal(t, "5", payment.WithholdingAmount.String())
	require.Equal(t, uint64(2000), payment.LastUpdated)

	// both reads are pinned to the event block
	for _, at := range f.reader.calls {
		require.Equal(t, ev.CallSite(), at)
	}
}

func TestProjector_StatusTransitionTouchesOnlyStatus(t *testing.T) {
	f := newProjectorFixture(t, SinglePayment)
	seedSinglePayment(f.reader)
	ctx := context.Background()

	f.project(t, fleatoCharge(2000))
	before, err := f.store.GetCharge(ctx, ChargeID(chargeC1))
	require.NoError(t, err)

	// the contract moved on, but only the status may be taken from it
	f.reader.charges[chargeC1].Status = 2
	f.reader.charges[chargeC1].Adjudicator = common.HexToAddress("0x1234")
	f.reader.charges[chargeC1].PaymentsCount = big.NewInt(9)

	f.project(t, newEvent(SinglePayment, "OkToDeliver", 2100))

	after, err := f.store.GetCharge(ctx, ChargeID(chargeC1))
	require.NoError(t, err)
	require.Equal(t, StatusOkToDeliver, after.Status)
	require.Equal(t, uint64(2100), after.LastUpdated)

	after.Status = before.Status
	after.LastUpdated = before.LastUpdated
	require.Equal(t, before, after)
}

func TestProjector_PaymentScopedEvent(t *testing.T) {
	f := newProjectorFixture(t, SinglePayment)
	seedSinglePayment(f.reader)
	ctx := context.Background()

	f.project(t, fleatoCharge(2000))

	f.reader.charges[chargeC1].Status = 3
	f.reader.payments[PaymentID(chargeC1, big.NewInt(2))] = &PaymentState{
		Sender:           testSender,
		PaymentToken:     testToken,
		PaymentAmount:    big.NewInt(1),
		PaymentWithdrawn: true,
		Created:          big.NewInt(1500),
	}

	f.project(t, paymentEvent(SinglePayment, "PaymentWithdrawn", 2, 2200))

	payment, err := f.store.GetPayment(ctx, ChargeID(chargeC1)+"-2")
	require.NoError(t, err)
	require.True(t, payment.PaymentWithdrawn)
	require.False(t, payment.WithholdingWithdrawn)
	require.Equal(t, ChargeID(chargeC1), payment.Charge)
	require.Equal(t, uint64(2200), payment.LastUpdated)

	charge, err := f.store.GetCharge(ctx, ChargeID(chargeC1))
	require.NoError(t, err)
	require.Equal(t, StatusOkToPayout, charge.Status)
	require.Equal(t, uint64(2200), charge.LastUpdated)
}

func TestProjector_NewChargeAndPayment(t *testing.T) {
	f := newProjectorFixture(t, MultiPaymentNFT)
	seedMultiPaymentNFT(f.reader)
	ctx := context.Background()

	f.project(t, newCharge(3000))

	charge, err := f.store.GetCharge(ctx, ChargeID(chargeC1))
	require.NoError(t, err)
	require.Equal(t, UserID(testBuyer), charge.Buyer)
	require.Equal(t, UserID(testSeller), charge.Seller)
	require.Equal(t, ChargeID(chargeC1), charge.NFT)
	require.Empty(t, charge.Receiver)
	require.Zero(t, charge.PaymentsCount)

	nft, err := f.store.GetNFT(ctx, ChargeID(chargeC1))
	require.NoError(t, err)
	require.Equal(t, ChargeID(chargeC1), nft.Charge)
	require.True(t, nft.InCustody)
	require.Equal(t, "77", nft.TokenID.String())

	f.reader.charges[chargeC1].PaymentsCount = big.NewInt(1)
	f.reader.payments[PaymentID(chargeC1, big.NewInt(0))] = &PaymentState{
		Sender:            testBuyer,
		PaymentToken:      testToken,
		PaymentAmount:     big.NewInt(900),
		WithholdingToken:  testNFTAddr,
		WithholdingAmount: big.NewInt(90),
		Created:           big.NewInt(3050),
	}

	f.project(t, paymentEvent(MultiPaymentNFT, "NewPayment", 0, 3100))

	charge, err = f.store.GetCharge(ctx, ChargeID(chargeC1))
	require.NoError(t, err)
	require.Equal(t, uint64(1), charge.PaymentsCount)
	require.Equal(t, uint64(3100), charge.LastUpdated)
	require.Equal(t, UserID(testBuyer), charge.Buyer)

	payment, err := f.store.GetPayment(ctx, PaymentID(chargeC1, big.NewInt(0)))
	require.NoError(t, err)
	require.Equal(t, UserID(testBuyer), payment.Sender)
	require.Equal(t, testNFTAddr, payment.WithholdingToken)
	require.Equal(t, "90", payment.WithholdingAmount.String())
	require.Equal(t, uint64(3050), payment.Created)

	counts, err := f.store.Count(ctx)
	require.NoError(t, err)
	require.Equal(t, map[string]int{
		tableProducts: 1,
		tableUsers:    2,
		tableNFTs:     1,
		tableCharges:  1,
		tablePayments: 1,
	}, counts)
}

func TestProjector_NFTFullRefresh(t *testing.T) {
	f := newProjectorFixture(t, MultiPaymentNFT)
	seedMultiPaymentNFT(f.reader)
	ctx := context.Background()

	f.project(t, newCharge(3000))
	chargeBefore, err := f.store.GetCharge(ctx, ChargeID(chargeC1))
	require.NoError(t, err)

	f.reader.nfts[chargeC1].InCustody = false
	f.reader.nfts[chargeC1].Withdrawn = true

	f.project(t, newEvent(MultiPaymentNFT, "NFTWithdrawn", 3300))

	nft, err := f.store.GetNFT(ctx, ChargeID(chargeC1))
	require.NoError(t, err)
	require.Equal(t, &NFT{
		ID:          ChargeID(chargeC1),
		Charge:      ChargeID(chargeC1),
		Contract:    testNFTAddr,
		TokenID:     big.NewInt(77),
		InCustody:   false,
		Withdrawn:   true,
		LastUpdated: 3300,
	}, nft)

	chargeAfter, err := f.store.GetCharge(ctx, ChargeID(chargeC1))
	require.NoError(t, err)
	require.Equal(t, chargeBefore, chargeAfter)
}

func TestProjector_Idempotent(t *testing.T) {
	f := newProjectorFixture(t, SinglePayment)
	seedSinglePayment(f.reader)
	f.reader.payments[PaymentID(chargeC1, big.NewInt(1))].PaymentWithdrawn = true
	f.reader.charges[chargeC1].Status = 3

	events := []*Event{
		fleatoCharge(2000),
		newEvent(SinglePayment, "OkToPayout", 2100),
		paymentEvent(SinglePayment, "PaymentWithdrawn", 1, 2200),
	}

	for _, ev := range events {
		f.project(t, ev)
	}
	first := dumpStore(t, f.store)

	// deliver the last event twice, then the whole batch again
	f.project(t, events[2])
	require.Equal(t, first, dumpStore(t, f.store))

	for _, ev := range events {
		f.project(t, ev)
	}
	// a replayed batch ends on the same event, hence the same timestamps
	require.Equal(t, first, dumpStore(t, f.store))
	require.Len(t, first.Payments, 1)
	require.Len(t, first.Charges, 1)
}

func TestProjector_FlagsAreMonotonic(t *testing.T) {
	t.Run("payment", func(t *testing.T) {
		f := newProjectorFixture(t, SinglePayment)
		seedSinglePayment(f.reader)
		ctx := context.Background()
		id := PaymentID(chargeC1, big.NewInt(1))

		f.reader.payments[id].PaymentWithdrawn = true
		f.reader.payments[id].Refunded = true
		f.project(t, fleatoCharge(2000))

		f.reader.payments[id].PaymentWithdrawn = false
		f.reader.payments[id].Refunded = false
		f.reader.payments[id].PaymentScavenged = true
		f.project(t, paymentEvent(SinglePayment, "PaymentScavenged", 1, 2100))

		payment, err := f.store.GetPayment(ctx, id)
		require.NoError(t, err)
		require.True(t, payment.PaymentWithdrawn)
		require.True(t, payment.Refunded)
		require.True(t, payment.PaymentScavenged)
		require.False(t, payment.WithholdingScavenged)
	})

	t.Run("nft", func(t *testing.T) {
		f := newProjectorFixture(t, MultiPaymentNFT)
		seedMultiPaymentNFT(f.reader)
		ctx := context.Background()

		f.reader.nfts[chargeC1].Refunded = true
		f.project(t, newCharge(3000))

		f.reader.nfts[chargeC1].Refunded = false
		f.reader.nfts[chargeC1].Scavenged = true
		f.project(t, newEvent(MultiPaymentNFT, "NFTScavenged", 3100))

		nft, err := f.store.GetNFT(ctx, ChargeID(chargeC1))
		require.NoError(t, err)
		require.True(t, nft.Refunded)
		require.True(t, nft.Scavenged)
	})
}

func TestProjector_UnknownStatusWritesNothing(t *testing.T) {
	f := newProjectorFixture(t, SinglePayment)
	seedSinglePayment(f.reader)
	f.reader.charges[chargeC1].Status = 6

	err := f.projector.Project(context.Background(), fleatoCharge(2000))
	require.ErrorIs(t, err, ErrUnknownChargeStatus)
	require.ErrorContains(t, err, "failed to project FleatoCharge of charge "+ChargeID(chargeC1))

	requireEmptyStore(t, f.store)
}

func TestProjector_ReadFailureWritesNothing(t *testing.T) {
	t.Run("reader error", func(t *testing.T) {
		f := newProjectorFixture(t, MultiPaymentNFT)
		seedMultiPaymentNFT(f.reader)
		f.reader.err = errReadFailed

		err := f.projector.Project(context.Background(), newCharge(3000))
		require.ErrorIs(t, err, errReadFailed)
		requireEmptyStore(t, f.store)
	})

	t.Run("second read fails", func(t *testing.T) {
		f := newProjectorFixture(t, SinglePayment)
		seedSinglePayment(f.reader)
		delete(f.reader.payments, PaymentID(chargeC1, big.NewInt(1)))

		err := f.projector.Project(context.Background(), fleatoCharge(2000))
		require.ErrorIs(t, err, errReadFailed)
		require.Len(t, f.reader.calls, 2)
		requireEmptyStore(t, f.store)
	})

	t.Run("created overflows", func(t *testing.T) {
		f := newProjectorFixture(t, SinglePayment)
		seedSinglePayment(f.reader)
		f.reader.charges[chargeC1].Created = new(big.Int).Lsh(big.NewInt(1), 70)

		err := f.projector.Project(context.Background(), fleatoCharge(2000))
		require.ErrorContains(t, err, "does not fit in uint64")
		requireEmptyStore(t, f.store)
	})
}

func TestProjector_LastUpdatedRegressionIsWritten(t *testing.T) {
	f := newProjectorFixture(t, SinglePayment)
	seedSinglePayment(f.reader)
	ctx := context.Background()

	f.project(t, fleatoCharge(2000))
	f.project(t, newEvent(SinglePayment, "OkToDeliver", 1900))

	charge, err := f.store.GetCharge(ctx, ChargeID(chargeC1))
	require.NoError(t, err)
	require.Equal(t, uint64(1900), charge.LastUpdated)
}

func TestProjector_ZeroAddressIsNotAUser(t *testing.T) {
	f := newProjectorFixture(t, MultiPaymentNFT)
	seedMultiPaymentNFT(f.reader)
	f.reader.charges[chargeC1].Buyer = common.Address{}
	ctx := context.Background()

	f.project(t, newCharge(3000))

	charge, err := f.store.GetCharge(ctx, ChargeID(chargeC1))
	require.NoError(t, err)
	require.Empty(t, charge.Buyer)
	require.Equal(t, UserID(testSeller), charge.Seller)

	_, err = f.store.GetUser(ctx, UserID(common.Address{}))
	require.ErrorIs(t, err, ErrNotFound)
}
