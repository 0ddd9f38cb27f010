package repository

import (
	"context"
	"time"

	"github.com/brightmart/inventory/internal/entity"
	"gorm.io/gorm"
)

type PurchaseRepository struct {
	db *gorm.DB
}

func NewPurchaseRepository(db *gorm.DB) *PurchaseRepository {
	return &PurchaseRepository{db: db}
}

func (r *PurchaseRepository) Create(ctx context.Context, po *entity.PurchaseOrder) error {
	return r.db.WithContext(ctx).Create(po).Error
}

func (r *PurchaseRepository) FindByID(ctx context.Context, id string) (*entity.PurchaseOrder, error) {
	var po entity.PurchaseOrder
	err := r.db.WithContext(ctx).
		Preload("Supplier").Preload("Items").Preload("Tracking").
		Where("id = ?", id).First(&po).Error
	if err != nil {
		return nil, err
	}
	return &po, nil
}

func (r *PurchaseRepository) Update(ctx context.Context, po *entity.PurchaseOrder) error {
	return r.db.WithContext(ctx).Save(po).Error
}

// POListParams 采购订单列表过滤
type POListParams struct {
	Status     string
	SupplierID string
	Page       int
	PerPage    int
}

func (r *PurchaseRepository) List(ctx context.Context, params POListParams) ([]entity.PurchaseOrder, int64, error) {
	query := r.db.WithContext(ctx).Model(&entity.PurchaseOrder{})
	if params.Status != "" {
		query = query.Where("status = ?", params.Status)
	}
	if params.SupplierID != "" {
		query = query.Where("supplier_id = ?", params.SupplierID)
	}

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	if params.Page <= 0 {
		params.Page = 1
	}
	if params.PerPage <= 0 {
		params.PerPage = 20
	}

	var orders []entity.PurchaseOrder
	err := query.Preload("Supplier").Preload("Items").
		Order("created_at DESC").
		Offset((params.Page - 1) * params.PerPage).Limit(params.PerPage).
		Find(&orders).Error
	return orders, total, err
}

// CountCreatedOn 某个自然日内创建的订单数，用于生成当日序号
func (r *PurchaseRepository) CountCreatedOn(ctx context.Context, day time.Time) (int64, error) {
	start := time.Date(day.Year(), day.Month(), day.Day(), 0, 0, 0, 0, day.Location())
	end := start.AddDate(0, 0, 1)
	var total int64
	err := r.db.WithContext(ctx).Model(&entity.PurchaseOrder{}).
		Where("created_at >= ? AND created_at < ?", start, end).
		Count(&total).Error
	return total, err
}

func (r *PurchaseRepository) FindTracking(ctx context.Context, orderID string) (*entity.DeliveryTracking, error) {
	var tracking entity.DeliveryTracking
	err := r.db.WithContext(ctx).
		Where("purchase_order_id = ?", orderID).First(&tracking).Error
	if err != nil {
		return nil, err
	}
	return &tracking, nil
}

func (r *PurchaseRepository) UpdateTracking(ctx context.Context, tracking *entity.DeliveryTracking) error {
	return r.db.WithContext(ctx).Save(tracking).Error
}

// OrderSummary 采购订单汇总
type OrderSummary struct {
	TotalOrders     int64   `json:"total_orders"`
	PendingOrders   int64   `json:"pending_orders"`
	ShippedOrders   int64   `json:"shipped_orders"`
	DeliveredOrders int64   `json:"delivered_orders"`
	TotalValue      float64 `json:"total_value"`
	PendingValue    float64 `json:"pending_value"`
}

// Summary 状态分桶计数与金额汇总，单条聚合查询
func (r *PurchaseRepository) Summary(ctx context.Context) (*OrderSummary, error) {
	var s OrderSummary
	row := r.db.WithContext(ctx).Raw(`
		SELECT
			COUNT(*) AS total,
			COUNT(CASE WHEN status IN ('PENDING','APPROVED') THEN 1 END) AS pending,
			COUNT(CASE WHEN status = 'SHIPPED' THEN 1 END) AS shipped,
			COUNT(CASE WHEN status = 'DELIVERED' THEN 1 END) AS delivered,
			COALESCE(SUM(total_amount), 0) AS total_value,
			COALESCE(SUM(CASE WHEN status IN ('PENDING','APPROVED') THEN total_amount END), 0) AS pending_value
		FROM purchase_orders
	`).Row()
	if err := row.Scan(&s.TotalOrders, &s.PendingOrders, &s.ShippedOrders,
		&s.DeliveredOrders, &s.TotalValue, &s.PendingValue); err != nil {
		return nil, err
	}
	return &s, nil
}

// DeliveryMetrics 物流看板指标
type DeliveryMetrics struct {
	InTransitCount      int64   `json:"in_transit_count"`
	DeliveredToday      int64   `json:"delivered_today"`
	DelayedDeliveries   int64   `json:"delayed_deliveries"`
	AverageDeliveryTime float64 `json:"average_delivery_time"` // 整天数的均值
}

func (r *PurchaseRepository) Metrics(ctx context.Context, now time.Time) (*DeliveryMetrics, error) {
	m := &DeliveryMetrics{}

	err := r.db.WithContext(ctx).Model(&entity.DeliveryTracking{}).
		Where("status IN ?", []string{entity.DeliveryStatusInTransit, entity.DeliveryStatusOutForDelivery}).
		Count(&m.InTransitCount).Error
	if err != nil {
		return nil, err
	}

	dayStart := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, now.Location())
	err = r.db.WithContext(ctx).Model(&entity.DeliveryTracking{}).
		Where("status = ? AND actual_delivery_date >= ? AND actual_delivery_date < ?",
			entity.DeliveryStatusDelivered, dayStart, dayStart.AddDate(0, 0, 1)).
		Count(&m.DeliveredToday).Error
	if err != nil {
		return nil, err
	}

	err = r.db.WithContext(ctx).Model(&entity.PurchaseOrder{}).
		Where("expected_delivery_date < ? AND status IN ?", now,
			[]string{entity.POStatusApproved, entity.POStatusOrdered, entity.POStatusShipped}).
		Count(&m.DelayedDeliveries).Error
	if err != nil {
		return nil, err
	}

	var avg struct{ Days float64 }
	err = r.db.WithContext(ctx).Raw(`
		SELECT COALESCE(AVG(FLOOR(EXTRACT(EPOCH FROM (actual_delivery_date - order_date)) / 86400)), 0) AS days
		FROM purchase_orders
		WHERE status = 'DELIVERED' AND actual_delivery_date IS NOT NULL
	`).Scan(&avg).Error
	if err != nil {
		return nil, err
	}
	m.AverageDeliveryTime = avg.Days

	return m, nil
}
