package service_test

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/bwmarrin/snowflake"
	"github.com/glebarez/sqlite"
	"github.com/smallbiznis/payrail/internal/config"
	obligationdomain "github.com/smallbiznis/payrail/internal/obligation/domain"
	obligationservice "github.com/smallbiznis/payrail/internal/obligation/service"
	payoutdomain "github.com/smallbiznis/payrail/internal/payout/domain"
	policydomain "github.com/smallbiznis/payrail/internal/policy/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

type stubPolicyService struct {
	splits     map[string]*policydomain.SellerSplit
	buyerRates map[string]float64
	err        error
}

func (s *stubPolicyService) ResolveSellerSplit(_ context.Context, payeeID string, _ time.Time) (*policydomain.SellerSplit, error) {
	if s.err != nil {
		return nil, s.err
	}
	if split, ok := s.splits[payeeID]; ok {
		return split, nil
	}
	return &policydomain.SellerSplit{SellerRate: 0.85}, nil
}

func (s *stubPolicyService) EnsureBuyerAffiliatePolicy(_ context.Context, payeeID string, _ time.Time) (*policydomain.RevenueSplitPolicy, error) {
	if s.err != nil {
		return nil, s.err
	}
	rate, ok := s.buyerRates[payeeID]
	if !ok {
		rate = 0.10
	}
	return &policydomain.RevenueSplitPolicy{
		PayeeID: payeeID,
		Role:    policydomain.PolicyRoleBuyerAffiliate,
		Rate:    rate,
	}, nil
}

func setupTestDB(t *testing.T) *gorm.DB {
	t.Helper()

	dsn := fmt.Sprintf("file:obligation_%d?mode=memory&cache=shared", time.Now().UnixNano())
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{})
	require.NoError(t, err)
	require.NoError(t, db.AutoMigrate(&payoutdomain.PayoutItem{}))
	return db
}

func newService(t *testing.T, db *gorm.DB, policySvc policydomain.Service) obligationdomain.Service {
	t.Helper()

	node, err := snowflake.NewNode(2)
	require.NoError(t, err)

	return obligationservice.NewService(obligationservice.Params{
		DB:        db,
		Log:       zap.NewNop(),
		GenID:     node,
		FeeHolder: config.NewStaticFeeConfigHolder(config.DefaultFeeConfig()),
		PolicySvc: policySvc,
	})
}

func referenceInput() obligationdomain.ComputeInput {
	return obligationdomain.ComputeInput{
		OrderID:             "order_1",
		SourceTransactionID: "txn_1",
		Currency:            "USD",
		OccurredAt:          time.Date(2025, time.August, 10, 12, 0, 0, 0, time.UTC),
		LineItems: []obligationdomain.LineItem{
			{OrderItemID: "oi_1", StorePayeeID: "store_1", Subtotal: 2345},
		},
	}
}

func itemsByType(items []payoutdomain.PayoutItem) map[payoutdomain.PayeeType]payoutdomain.PayoutItem {
	out := make(map[payoutdomain.PayeeType]payoutdomain.PayoutItem, len(items))
	for _, item := range items {
		out[item.PayeeType] = item
	}
	return out
}

func TestComputeObligationsReferenceOrder(t *testing.T) {
	db := setupTestDB(t)
	policySvc := &stubPolicyService{buyerRates: map[string]float64{"buyer_aff_1": 0.25}}
	svc := newService(t, db, policySvc)

	in := referenceInput()
	in.BuyerAffiliatePayeeID = "buyer_aff_1"

	items, err := svc.ComputeObligations(context.Background(), in)
	require.NoError(t, err)
	require.Len(t, items, 3)

	byType := itemsByType(items)

	store := byType[payoutdomain.PayeeTypeStore]
	assert.Equal(t, "store_1", store.PayeeID)
	assert.Equal(t, int64(1294), store.Amount)
	assert.Equal(t, int64(114), store.ProcessingFee)
	assert.Equal(t, payoutdomain.ItemStatusUnpaid, store.Status)
	assert.Equal(t, "usd", store.Currency)
	assert.Equal(t, "txn_1", store.SourceTransactionID)

	platform := byType[payoutdomain.PayeeTypePlatform]
	assert.Equal(t, obligationdomain.PlatformPayeeID, platform.PayeeID)
	assert.Equal(t, int64(351), platform.Amount)
	assert.Zero(t, platform.ProcessingFee)

	buyerAff := byType[payoutdomain.PayeeTypeBuyerAffiliate]
	assert.Equal(t, "buyer_aff_1", buyerAff.PayeeID)
	assert.Equal(t, int64(586), buyerAff.Amount)

	var persisted int64
	require.NoError(t, db.Model(&payoutdomain.PayoutItem{}).Count(&persisted).Error)
	assert.Equal(t, int64(3), persisted)
}

func TestComputeObligationsDropsZeroAffiliateLines(t *testing.T) {
	db := setupTestDB(t)
	svc := newService(t, db, &stubPolicyService{})

	items, err := svc.ComputeObligations(context.Background(), referenceInput())
	require.NoError(t, err)
	require.Len(t, items, 2)

	byType := itemsByType(items)
	assert.Contains(t, byType, payoutdomain.PayeeTypeStore)
	assert.Contains(t, byType, payoutdomain.PayeeTypePlatform)
}

func TestComputeObligationsEmitsSellerAffiliate(t *testing.T) {
	db := setupTestDB(t)
	policySvc := &stubPolicyService{
		splits: map[string]*policydomain.SellerSplit{
			"store_1": {
				SellerRate:             0.85,
				SellerAffiliatePayeeID: "seller_aff_1",
				SellerAffiliateRate:    0.075,
			},
		},
	}
	svc := newService(t, db, policySvc)

	in := referenceInput()
	in.LineItems[0].Subtotal = 10_000

	items, err := svc.ComputeObligations(context.Background(), in)
	require.NoError(t, err)
	require.Len(t, items, 3)

	byType := itemsByType(items)
	sellerAff := byType[payoutdomain.PayeeTypeSellerAffiliate]
	assert.Equal(t, "seller_aff_1", sellerAff.PayeeID)
	assert.Equal(t, int64(750), sellerAff.Amount)
	assert.Equal(t, int64(750), byType[payoutdomain.PayeeTypePlatform].Amount)
}

func TestComputeObligationsMultipleLineItems(t *testing.T) {
	db := setupTestDB(t)
	svc := newService(t, db, &stubPolicyService{})

	in := referenceInput()
	in.LineItems = append(in.LineItems, obligationdomain.LineItem{
		OrderItemID: "oi_2", StorePayeeID: "store_2", Subtotal: 1000,
	})

	items, err := svc.ComputeObligations(context.Background(), in)
	require.NoError(t, err)
	assert.Len(t, items, 4)

	total := int64(0)
	for _, item := range items {
		total += item.Amount + item.ProcessingFee
	}
	assert.Equal(t, int64(3345), total)
}

func TestComputeObligationsValidation(t *testing.T) {
	db := setupTestDB(t)
	svc := newService(t, db, &stubPolicyService{})
	ctx := context.Background()

	in := referenceInput()
	in.OrderID = ""
	_, err := svc.ComputeObligations(ctx, in)
	assert.ErrorIs(t, err, obligationdomain.ErrInvalidOrder)

	in = referenceInput()
	in.SourceTransactionID = " "
	_, err = svc.ComputeObligations(ctx, in)
	assert.ErrorIs(t, err, obligationdomain.ErrInvalidTransaction)

	in = referenceInput()
	in.Currency = ""
	_, err = svc.ComputeObligations(ctx, in)
	assert.ErrorIs(t, err, obligationdomain.ErrInvalidCurrency)

	in = referenceInput()
	in.LineItems[0].Subtotal = -1
	_, err = svc.ComputeObligations(ctx, in)
	assert.ErrorIs(t, err, obligationdomain.ErrInvalidLineItem)

	var persisted int64
	require.NoError(t, db.Model(&payoutdomain.PayoutItem{}).Count(&persisted).Error)
	assert.Zero(t, persisted)
}

func TestMirrorRefundNegatesAmounts(t *testing.T) {
	db := setupTestDB(t)
	svc := newService(t, db, &stubPolicyService{})
	ctx := context.Background()

	items, err := svc.ComputeObligations(ctx, referenceInput())
	require.NoError(t, err)
	original := itemsByType(items)[payoutdomain.PayeeTypeStore]

	mirror, err := svc.MirrorRefund(ctx, original.ID, "txn_refund_1")
	require.NoError(t, err)

	assert.NotEqual(t, original.ID, mirror.ID)
	assert.Equal(t, -original.Amount, mirror.Amount)
	assert.Equal(t, -original.ProcessingFee, mirror.ProcessingFee)
	assert.Equal(t, payoutdomain.ItemStatusRefunding, mirror.Status)
	assert.Equal(t, "txn_refund_1", mirror.SourceTransactionID)
	assert.Equal(t, original.PayeeID, mirror.PayeeID)
	assert.Equal(t, original.OrderItemID, mirror.OrderItemID)

	// The original row is never edited.
	var reloaded payoutdomain.PayoutItem
	require.NoError(t, db.First(&reloaded, "id = ?", original.ID).Error)
	assert.Equal(t, original.Amount, reloaded.Amount)
	assert.Equal(t, payoutdomain.ItemStatusUnpaid, reloaded.Status)
}

func TestMirrorRefundRejectsRefundRows(t *testing.T) {
	db := setupTestDB(t)
	svc := newService(t, db, &stubPolicyService{})
	ctx := context.Background()

	items, err := svc.ComputeObligations(ctx, referenceInput())
	require.NoError(t, err)
	original := itemsByType(items)[payoutdomain.PayeeTypeStore]

	mirror, err := svc.MirrorRefund(ctx, original.ID, "txn_refund_1")
	require.NoError(t, err)

	_, err = svc.MirrorRefund(ctx, mirror.ID, "txn_refund_2")
	assert.ErrorIs(t, err, obligationdomain.ErrItemAlreadyMirror)
}

func TestMirrorRefundUnknownItem(t *testing.T) {
	db := setupTestDB(t)
	svc := newService(t, db, &stubPolicyService{})

	_, err := svc.MirrorRefund(context.Background(), snowflake.ID(123456), "txn_refund_1")
	assert.ErrorIs(t, err, obligationdomain.ErrItemNotFound)
}
