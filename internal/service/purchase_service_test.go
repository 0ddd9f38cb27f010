package service

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/brightmart/inventory/internal/entity"
	"github.com/brightmart/inventory/internal/repository"
	"github.com/brightmart/inventory/internal/testutil"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

func f64(v float64) *float64 { return &v }

func newPurchaseService(t *testing.T) (*PurchaseService, *gorm.DB) {
	t.Helper()
	db := testutil.SetupTestDB(t)
	repos := repository.NewRepositories(db)
	return NewPurchaseService(db, repos, nil, "", zap.NewNop()), db
}

func seedOrderFixtures(t *testing.T, db *gorm.DB) {
	t.Helper()
	testutil.SeedSupplier(t, db, "sup-1", "Fresh Farm Co")
	testutil.SeedProduct(t, db, "prod-1", "PO-PROD-001", 10, 5)
	testutil.SeedProduct(t, db, "prod-2", "PO-PROD-002", 20, 5)
}

func TestCreateOrderTotals(t *testing.T) {
	svc, db := newPurchaseService(t)
	ctx := context.Background()
	seedOrderFixtures(t, db)

	po, err := svc.Create(ctx, CreateOrderInput{
		SupplierID: "sup-1",
		Items: []CreateOrderItemInput{
			{ProductID: "prod-1", QuantityOrdered: 10, UnitPrice: f64(4.00)},
		},
		ShippingCost: 0,
	}, "user-1")
	if err != nil {
		t.Fatalf("Create: %v", err)
	}

	if po.Subtotal != 40.00 {
		t.Errorf("subtotal = %.2f, want 40.00", po.Subtotal)
	}
	if po.TaxAmount != 8.00 {
		t.Errorf("tax = %.2f, want 8.00 (20%% VAT)", po.TaxAmount)
	}
	if po.TotalAmount != 48.00 {
		t.Errorf("total = %.2f, want 48.00", po.TotalAmount)
	}
	if po.Status != entity.POStatusDraft {
		t.Errorf("status = %s, want DRAFT", po.Status)
	}
	if po.Tracking == nil || po.Tracking.Status != entity.DeliveryStatusPending {
		t.Error("new order should carry a PENDING tracking row")
	}

	wantPrefix := fmt.Sprintf("PO-%s-", time.Now().Format("20060102"))
	if len(po.OrderNumber) != len(wantPrefix)+3 || po.OrderNumber[:len(wantPrefix)] != wantPrefix {
		t.Errorf("order number %q does not match PO-YYYYMMDD-NNN", po.OrderNumber)
	}
}

func TestCreateOrderDiscountDoesNotReduceTotal(t *testing.T) {
	svc, db := newPurchaseService(t)
	ctx := context.Background()
	seedOrderFixtures(t, db)

	po, err := svc.Create(ctx, CreateOrderInput{
		SupplierID: "sup-1",
		Items: []CreateOrderItemInput{
			{ProductID: "prod-1", QuantityOrdered: 10, UnitPrice: f64(4.00)},
		},
		ShippingCost:   3.00,
		DiscountAmount: 5.00,
	}, "user-1")
	if err != nil {
		t.Fatalf("Create: %v", err)
	}

	if po.DiscountAmount != 5.00 {
		t.Errorf("discount = %.2f, want 5.00", po.DiscountAmount)
	}
	// 总额 = 小计 + 税 + 运费，折扣只记录
	if po.TotalAmount != 51.00 {
		t.Errorf("total = %.2f, want 51.00", po.TotalAmount)
	}

	updated, err := svc.Update(ctx, po.ID, UpdateOrderInput{DiscountAmount: f64(20.00)})
	if err != nil {
		t.Fatalf("Update: %v", err)
	}
	if updated.DiscountAmount != 20.00 {
		t.Errorf("discount after update = %.2f, want 20.00", updated.DiscountAmount)
	}
	if updated.TotalAmount != 51.00 {
		t.Errorf("total after discount update = %.2f, want 51.00", updated.TotalAmount)
	}
}

func TestCreateOrderDefaultsUnitPriceToCost(t *testing.T) {
	svc, db := newPurchaseService(t)
	ctx := context.Background()
	seedOrderFixtures(t, db)

	po, err := svc.Create(ctx, CreateOrderInput{
		SupplierID: "sup-1",
		Items: []CreateOrderItemInput{
			{ProductID: "prod-1", QuantityOrdered: 4},
		},
	}, "user-1")
	if err != nil {
		t.Fatalf("Create: %v", err)
	}
	// 种子商品成本价 2.50
	if po.Items[0].UnitPrice != 2.50 {
		t.Errorf("unit price = %.2f, want cost price 2.50", po.Items[0].UnitPrice)
	}
	if po.Items[0].ProductName == "" || po.Items[0].ProductSKU == "" {
		t.Error("item should snapshot product name and sku")
	}
}

func TestCreateOrderHonorsExplicitZeroUnitPrice(t *testing.T) {
	svc, db := newPurchaseService(t)
	ctx := context.Background()
	seedOrderFixtures(t, db)

	// 显式传 0（如赠品行）不回退成本价
	po, err := svc.Create(ctx, CreateOrderInput{
		SupplierID: "sup-1",
		Items: []CreateOrderItemInput{
			{ProductID: "prod-1", QuantityOrdered: 4, UnitPrice: f64(0)},
		},
	}, "user-1")
	if err != nil {
		t.Fatalf("Create: %v", err)
	}
	if po.Items[0].UnitPrice != 0 {
		t.Errorf("unit price = %.2f, want 0", po.Items[0].UnitPrice)
	}
	if po.Items[0].TotalPrice != 0 || po.Subtotal != 0 || po.TotalAmount != 0 {
		t.Errorf("zero-priced line should yield zero amounts, got line=%.2f subtotal=%.2f total=%.2f",
			po.Items[0].TotalPrice, po.Subtotal, po.TotalAmount)
	}
}

func TestApproveFromDraftAndPendingOnly(t *testing.T) {
	svc, db := newPurchaseService(t)
	ctx := context.Background()
	seedOrderFixtures(t, db)

	po, err := svc.Create(ctx, CreateOrderInput{
		SupplierID: "sup-1",
		Items:      []CreateOrderItemInput{{ProductID: "prod-1", QuantityOrdered: 1, UnitPrice: f64(1)}},
	}, "user-1")
	if err != nil {
		t.Fatalf("Create: %v", err)
	}

	approved, err := svc.Approve(ctx, po.ID, "approver-1")
	if err != nil {
		t.Fatalf("Approve: %v", err)
	}
	if approved.Status != entity.POStatusApproved {
		t.Errorf("status = %s, want APPROVED", approved.Status)
	}
	if approved.ApprovedBy == nil || *approved.ApprovedBy != "approver-1" || approved.ApprovedAt == nil {
		t.Error("approval should record approver and timestamp")
	}

	// 已批准的订单不能再次批准
	_, err = svc.Approve(ctx, po.ID, "approver-2")
	var transitionErr *TransitionError
	if !errors.As(err, &transitionErr) {
		t.Errorf("second approve error = %v, want TransitionError", err)
	}
}

func TestCancelRejectsTerminalOrders(t *testing.T) {
	svc, db := newPurchaseService(t)
	ctx := context.Background()
	seedOrderFixtures(t, db)

	po, err := svc.Create(ctx, CreateOrderInput{
		SupplierID: "sup-1",
		Items:      []CreateOrderItemInput{{ProductID: "prod-1", QuantityOrdered: 1, UnitPrice: f64(1)}},
	}, "user-1")
	if err != nil {
		t.Fatalf("Create: %v", err)
	}

	cancelled, err := svc.Cancel(ctx, po.ID)
	if err != nil {
		t.Fatalf("Cancel: %v", err)
	}
	if cancelled.Status != entity.POStatusCancelled {
		t.Errorf("status = %s, want CANCELLED", cancelled.Status)
	}

	var transitionErr *TransitionError
	if _, err := svc.Cancel(ctx, po.ID); !errors.As(err, &transitionErr) {
		t.Errorf("cancel of cancelled order = %v, want TransitionError", err)
	}
}

func TestReceiveAccumulatesAndDelivers(t *testing.T) {
	svc, db := newPurchaseService(t)
	ctx := context.Background()
	seedOrderFixtures(t, db)

	po, err := svc.Create(ctx, CreateOrderInput{
		SupplierID: "sup-1",
		Items: []CreateOrderItemInput{
			{ProductID: "prod-1", QuantityOrdered: 5, UnitPrice: f64(2)},
		},
	}, "user-1")
	if err != nil {
		t.Fatalf("Create: %v", err)
	}
	itemID := po.Items[0].ID

	// 第一次收 3 件：订单未完成
	po, err = svc.Receive(ctx, po.ID, ReceiveInput{
		Items: []ReceiveItemInput{{ItemID: itemID, QuantityReceived: 3}},
	}, "user-1")
	if err != nil {
		t.Fatalf("first Receive: %v", err)
	}
	if po.Items[0].QuantityReceived != 3 || po.Items[0].IsReceived {
		t.Errorf("after partial receipt: received=%d isReceived=%v", po.Items[0].QuantityReceived, po.Items[0].IsReceived)
	}
	if po.Status == entity.POStatusDelivered {
		t.Error("partial receipt should not mark order DELIVERED")
	}

	var prod entity.Product
	db.Where("id = ?", "prod-1").First(&prod)
	if prod.QuantityInStock != 13 {
		t.Errorf("stock after first receipt = %d, want 13", prod.QuantityInStock)
	}

	// 第二次收 2 件：行项收讫，订单转 DELIVERED，物流同步
	po, err = svc.Receive(ctx, po.ID, ReceiveInput{
		Items:       []ReceiveItemInput{{ItemID: itemID, QuantityReceived: 2}},
		DeliveredTo: "Back dock",
	}, "user-1")
	if err != nil {
		t.Fatalf("second Receive: %v", err)
	}
	if po.Items[0].QuantityReceived != 5 || !po.Items[0].IsReceived {
		t.Errorf("after full receipt: received=%d isReceived=%v", po.Items[0].QuantityReceived, po.Items[0].IsReceived)
	}
	if po.Status != entity.POStatusDelivered || po.ActualDeliveryDate == nil {
		t.Errorf("full receipt should deliver the order, got %s", po.Status)
	}
	if po.Tracking == nil || po.Tracking.Status != entity.DeliveryStatusDelivered {
		t.Error("tracking should follow to DELIVERED")
	}
	if po.Tracking.DeliveredTo != "Back dock" {
		t.Errorf("delivered_to = %q, want %q", po.Tracking.DeliveredTo, "Back dock")
	}

	db.Where("id = ?", "prod-1").First(&prod)
	if prod.QuantityInStock != 15 {
		t.Errorf("stock after full receipt = %d, want 15", prod.QuantityInStock)
	}

	var ledger []entity.InventoryTransaction
	db.Where("product_id = ? AND reference_type = ?", "prod-1", entity.RefTypePurchaseOrder).
		Order("created_at").Find(&ledger)
	if len(ledger) != 2 {
		t.Fatalf("got %d purchase ledger rows, want 2", len(ledger))
	}
	if ledger[0].Quantity != 3 || ledger[1].Quantity != 2 {
		t.Errorf("ledger quantities = %d,%d want 3,2", ledger[0].Quantity, ledger[1].Quantity)
	}
}

func TestReceiveSkipsUnknownItems(t *testing.T) {
	svc, db := newPurchaseService(t)
	ctx := context.Background()
	seedOrderFixtures(t, db)

	po, err := svc.Create(ctx, CreateOrderInput{
		SupplierID: "sup-1",
		Items:      []CreateOrderItemInput{{ProductID: "prod-1", QuantityOrdered: 5, UnitPrice: f64(2)}},
	}, "user-1")
	if err != nil {
		t.Fatalf("Create: %v", err)
	}

	po, err = svc.Receive(ctx, po.ID, ReceiveInput{
		Items: []ReceiveItemInput{{ItemID: "not-an-item", QuantityReceived: 3}},
	}, "user-1")
	if err != nil {
		t.Fatalf("Receive: %v", err)
	}
	if po.Items[0].QuantityReceived != 0 {
		t.Errorf("unknown item id should be ignored, got received=%d", po.Items[0].QuantityReceived)
	}
}

func TestReceiveRecordsQualityNotesWithoutCheckFlag(t *testing.T) {
	svc, db := newPurchaseService(t)
	ctx := context.Background()
	seedOrderFixtures(t, db)

	po, err := svc.Create(ctx, CreateOrderInput{
		SupplierID: "sup-1",
		Items:      []CreateOrderItemInput{{ProductID: "prod-1", QuantityOrdered: 5, UnitPrice: f64(2)}},
	}, "user-1")
	if err != nil {
		t.Fatalf("Create: %v", err)
	}

	po, err = svc.Receive(ctx, po.ID, ReceiveInput{
		Items: []ReceiveItemInput{{ItemID: po.Items[0].ID, QuantityReceived: 2, QualityNotes: "two crates dented"}},
	}, "user-1")
	if err != nil {
		t.Fatalf("Receive: %v", err)
	}
	if po.Items[0].QualityNotes != "two crates dented" {
		t.Errorf("quality notes = %q, want %q", po.Items[0].QualityNotes, "two crates dented")
	}
	// 备注不等于质检，标记须由质检流程单独置位
	if po.Items[0].IsQualityChecked {
		t.Error("quality notes alone should not mark the item quality-checked")
	}
}

func TestUpdateTrackingDrivesOrderStatus(t *testing.T) {
	svc, db := newPurchaseService(t)
	ctx := context.Background()
	seedOrderFixtures(t, db)

	po, err := svc.Create(ctx, CreateOrderInput{
		SupplierID: "sup-1",
		Items:      []CreateOrderItemInput{{ProductID: "prod-1", QuantityOrdered: 5, UnitPrice: f64(2)}},
	}, "user-1")
	if err != nil {
		t.Fatalf("Create: %v", err)
	}

	inTransit := entity.DeliveryStatusInTransit
	tracking, err := svc.UpdateTracking(ctx, po.ID, UpdateTrackingInput{Status: &inTransit})
	if err != nil {
		t.Fatalf("UpdateTracking: %v", err)
	}
	if tracking.Status != entity.DeliveryStatusInTransit {
		t.Errorf("tracking status = %s, want IN_TRANSIT", tracking.Status)
	}
	if tracking.StatusHistory == "" {
		t.Error("status change should append history")
	}

	po, err = svc.Get(ctx, po.ID)
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	if po.Status != entity.POStatusShipped {
		t.Errorf("order status = %s, want SHIPPED after IN_TRANSIT", po.Status)
	}

	delivered := entity.DeliveryStatusDelivered
	if _, err := svc.UpdateTracking(ctx, po.ID, UpdateTrackingInput{Status: &delivered}); err != nil {
		t.Fatalf("UpdateTracking delivered: %v", err)
	}
	po, _ = svc.Get(ctx, po.ID)
	if po.Status != entity.POStatusDelivered || po.ActualDeliveryDate == nil {
		t.Errorf("order should be DELIVERED with actual date, got %s", po.Status)
	}
}

func TestDeliveryMetrics(t *testing.T) {
	svc, db := newPurchaseService(t)
	ctx := context.Background()
	testutil.SeedSupplier(t, db, "sup-1", "Fresh Farm Co")

	now := time.Now()
	past := now.Add(-48 * time.Hour)
	orderedAt := now.Add(-74 * time.Hour) // 交付耗时整 3 天

	// 在途且已逾期
	delayed := &entity.PurchaseOrder{
		ID: "po-delayed", OrderNumber: "PO-20260801-001", SupplierID: "sup-1",
		Status: entity.POStatusShipped, OrderDate: now.Add(-120 * time.Hour),
		ExpectedDeliveryDate: &past, CreatedBy: "user-1",
	}
	// 今日送达
	delivered := &entity.PurchaseOrder{
		ID: "po-delivered", OrderNumber: "PO-20260801-002", SupplierID: "sup-1",
		Status: entity.POStatusDelivered, OrderDate: orderedAt,
		ActualDeliveryDate: &now, CreatedBy: "user-1",
	}
	// 草稿即便过了预计日期也不算逾期
	draft := &entity.PurchaseOrder{
		ID: "po-draft", OrderNumber: "PO-20260801-003", SupplierID: "sup-1",
		Status: entity.POStatusDraft, OrderDate: now,
		ExpectedDeliveryDate: &past, CreatedBy: "user-1",
	}
	for _, po := range []*entity.PurchaseOrder{delayed, delivered, draft} {
		if err := db.Create(po).Error; err != nil {
			t.Fatalf("seed order %s: %v", po.ID, err)
		}
	}
	trackings := []*entity.DeliveryTracking{
		{ID: "trk-1", PurchaseOrderID: "po-delayed", Status: entity.DeliveryStatusInTransit, LastStatusUpdate: now},
		{ID: "trk-2", PurchaseOrderID: "po-delivered", Status: entity.DeliveryStatusDelivered, ActualDeliveryDate: &now, LastStatusUpdate: now},
		{ID: "trk-3", PurchaseOrderID: "po-draft", Status: entity.DeliveryStatusPending, LastStatusUpdate: now},
	}
	for _, trk := range trackings {
		if err := db.Create(trk).Error; err != nil {
			t.Fatalf("seed tracking %s: %v", trk.ID, err)
		}
	}

	m, err := svc.DeliveryMetrics(ctx)
	if err != nil {
		t.Fatalf("DeliveryMetrics: %v", err)
	}
	if m.InTransitCount != 1 {
		t.Errorf("in transit = %d, want 1", m.InTransitCount)
	}
	if m.DeliveredToday != 1 {
		t.Errorf("delivered today = %d, want 1", m.DeliveredToday)
	}
	if m.DelayedDeliveries != 1 {
		t.Errorf("delayed = %d, want 1", m.DelayedDeliveries)
	}
	if m.AverageDeliveryTime != 3 {
		t.Errorf("average delivery time = %.2f, want 3 days", m.AverageDeliveryTime)
	}
}

func TestOrderSummaryBuckets(t *testing.T) {
	svc, db := newPurchaseService(t)
	ctx := context.Background()
	seedOrderFixtures(t, db)

	mk := func() *entity.PurchaseOrder {
		po, err := svc.Create(ctx, CreateOrderInput{
			SupplierID: "sup-1",
			Items:      []CreateOrderItemInput{{ProductID: "prod-1", QuantityOrdered: 10, UnitPrice: f64(4)}},
		}, "user-1")
		if err != nil {
			t.Fatalf("Create: %v", err)
		}
		return po
	}

	// 批准后沿迁移链推进到目标状态
	advance := func(po *entity.PurchaseOrder, statuses ...string) {
		t.Helper()
		if _, err := svc.Approve(ctx, po.ID, "user-1"); err != nil {
			t.Fatalf("Approve: %v", err)
		}
		for _, st := range statuses {
			st := st
			if _, err := svc.Update(ctx, po.ID, UpdateOrderInput{Status: &st}); err != nil {
				t.Fatalf("Update to %s: %v", st, err)
			}
		}
	}

	mk()                                                                                    // DRAFT
	advance(mk())                                                                           // APPROVED
	advance(mk(), entity.POStatusOrdered)                                                   // ORDERED
	advance(mk(), entity.POStatusOrdered, entity.POStatusShipped)                           // SHIPPED
	advance(mk(), entity.POStatusOrdered, entity.POStatusShipped, entity.POStatusDelivered) // DELIVERED

	summary, err := svc.Summary(ctx)
	if err != nil {
		t.Fatalf("Summary: %v", err)
	}
	if summary.TotalOrders != 5 {
		t.Errorf("total orders = %d, want 5", summary.TotalOrders)
	}
	// PENDING+APPROVED 桶只含停在 APPROVED 那单
	if summary.PendingOrders != 1 {
		t.Errorf("pending orders = %d, want 1", summary.PendingOrders)
	}
	if summary.ShippedOrders != 1 {
		t.Errorf("shipped orders = %d, want 1", summary.ShippedOrders)
	}
	if summary.DeliveredOrders != 1 {
		t.Errorf("delivered orders = %d, want 1", summary.DeliveredOrders)
	}
	// DRAFT 与 ORDERED 不落入任何计数桶
	if got := summary.PendingOrders + summary.ShippedOrders + summary.DeliveredOrders; got != 3 {
		t.Errorf("bucket counts sum = %d, want 3 (buckets must not overlap)", got)
	}
	if summary.PendingValue != 48.00 {
		t.Errorf("pending value = %.2f, want 48.00", summary.PendingValue)
	}
	if summary.TotalValue != 240.00 {
		t.Errorf("total value = %.2f, want 240.00", summary.TotalValue)
	}
}

func TestReorderSuggestions(t *testing.T) {
	svc, db := newPurchaseService(t)
	ctx := context.Background()
	testutil.SeedSupplier(t, db, "sup-1", "Fresh Farm Co")
	low := testutil.SeedProduct(t, db, "prod-low", "RS-001", 3, 10)
	testutil.SeedProduct(t, db, "prod-ok", "RS-002", 90, 10)

	link := &entity.SupplierProduct{
		ID:                   "link-1",
		SupplierID:           "sup-1",
		ProductID:            low.ID,
		SupplierPrice:        1.50,
		MinimumOrderQuantity: 1,
		LeadTimeDays:         7,
		IsPreferred:          true,
		IsAvailable:          true,
		LastPriceUpdate:      time.Now(),
	}
	if err := db.Create(link).Error; err != nil {
		t.Fatalf("seed link: %v", err)
	}

	suggestions, err := svc.ReorderSuggestions(ctx, 50)
	if err != nil {
		t.Fatalf("ReorderSuggestions: %v", err)
	}
	if len(suggestions) != 1 {
		t.Fatalf("got %d suggestions, want 1", len(suggestions))
	}
	sg := suggestions[0]
	if sg.ProductID != "prod-low" {
		t.Errorf("suggested product = %s, want prod-low", sg.ProductID)
	}
	// 建议量 = max(100, 10*3) = 100，与当前库存无关
	if sg.SuggestedQuantity != 100 {
		t.Errorf("suggested quantity = %d, want 100", sg.SuggestedQuantity)
	}
	if sg.SupplierID == nil || *sg.SupplierID != "sup-1" {
		t.Error("suggestion should carry the preferred supplier")
	}
	if sg.EstimatedCost == nil || *sg.EstimatedCost != 150.00 {
		t.Errorf("estimated cost = %v, want 150.00", sg.EstimatedCost)
	}
}
