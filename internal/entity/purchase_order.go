package entity

import "time"

// PurchaseOrderStatus 采购订单状态
const (
	POStatusDraft     = "DRAFT"
	POStatusPending   = "PENDING"
	POStatusApproved  = "APPROVED"
	POStatusOrdered   = "ORDERED"
	POStatusShipped   = "SHIPPED"
	POStatusDelivered = "DELIVERED"
	POStatusCancelled = "CANCELLED"
)

// DeliveryStatus 物流状态
const (
	DeliveryStatusPending        = "PENDING"
	DeliveryStatusPickedUp       = "PICKED_UP"
	DeliveryStatusInTransit      = "IN_TRANSIT"
	DeliveryStatusOutForDelivery = "OUT_FOR_DELIVERY"
	DeliveryStatusDelivered      = "DELIVERED"
	DeliveryStatusFailed         = "FAILED"
)

// orderTransitions 订单状态迁移表：链式推进，非终态可取消
var orderTransitions = map[string][]string{
	POStatusDraft:    {POStatusPending, POStatusApproved, POStatusCancelled},
	POStatusPending:  {POStatusApproved, POStatusCancelled},
	POStatusApproved: {POStatusOrdered, POStatusCancelled},
	POStatusOrdered:  {POStatusShipped, POStatusCancelled},
	POStatusShipped:  {POStatusDelivered, POStatusCancelled},
}

// CanTransition 校验采购订单状态迁移是否合法。
// 同一状态的重复赋值视为空操作，直接放行。
func CanTransition(from, to string) bool {
	if from == to {
		return true
	}
	for _, next := range orderTransitions[from] {
		if next == to {
			return true
		}
	}
	return false
}

// IsTerminalOrderStatus 终态不允许再迁移
func IsTerminalOrderStatus(status string) bool {
	return status == POStatusDelivered || status == POStatusCancelled
}

// ValidOrderStatus 是否为已知订单状态
func ValidOrderStatus(status string) bool {
	switch status {
	case POStatusDraft, POStatusPending, POStatusApproved, POStatusOrdered,
		POStatusShipped, POStatusDelivered, POStatusCancelled:
		return true
	}
	return false
}

// ValidDeliveryStatus 是否为已知物流状态
func ValidDeliveryStatus(status string) bool {
	switch status {
	case DeliveryStatusPending, DeliveryStatusPickedUp, DeliveryStatusInTransit,
		DeliveryStatusOutForDelivery, DeliveryStatusDelivered, DeliveryStatusFailed:
		return true
	}
	return false
}

// PurchaseOrder 采购订单
type PurchaseOrder struct {
	ID          string `json:"id" gorm:"primaryKey;size:36"`
	OrderNumber string `json:"order_number" gorm:"size:50;uniqueIndex;not null"` // PO-YYYYMMDD-NNN
	SupplierID  string `json:"supplier_id" gorm:"size:36;not null;index"`

	Status               string     `json:"status" gorm:"size:20;not null;default:DRAFT;index"`
	OrderDate            time.Time  `json:"order_date"`
	ExpectedDeliveryDate *time.Time `json:"expected_delivery_date"`
	ActualDeliveryDate   *time.Time `json:"actual_delivery_date"`

	// 金额
	Subtotal       float64 `json:"subtotal" gorm:"type:decimal(12,2);default:0"`
	TaxAmount      float64 `json:"tax_amount" gorm:"type:decimal(12,2);default:0"`
	ShippingCost   float64 `json:"shipping_cost" gorm:"type:decimal(12,2);default:0"`
	DiscountAmount float64 `json:"discount_amount" gorm:"type:decimal(12,2);default:0"`
	TotalAmount    float64 `json:"total_amount" gorm:"type:decimal(12,2);default:0"`

	// 收货
	DeliveryAddress      string `json:"delivery_address" gorm:"type:text"`
	DeliveryInstructions string `json:"delivery_instructions" gorm:"type:text"`
	TrackingNumber       string `json:"tracking_number" gorm:"size:100"`

	Notes           string `json:"notes" gorm:"type:text"`
	ReferenceNumber string `json:"reference_number" gorm:"size:100"` // 供应商侧单号

	// 管理
	CreatedBy  string     `json:"created_by" gorm:"size:36;not null"`
	ApprovedBy *string    `json:"approved_by" gorm:"size:36"`
	ApprovedAt *time.Time `json:"approved_at"`
	CreatedAt  time.Time  `json:"created_at"`
	UpdatedAt  time.Time  `json:"updated_at"`

	// 关联：行项与物流跟踪随订单生命周期
	Items    []PurchaseOrderItem `json:"items,omitempty" gorm:"foreignKey:PurchaseOrderID;constraint:OnDelete:CASCADE"`
	Supplier *Supplier           `json:"supplier,omitempty" gorm:"foreignKey:SupplierID"`
	Tracking *DeliveryTracking   `json:"tracking,omitempty" gorm:"foreignKey:PurchaseOrderID;constraint:OnDelete:CASCADE"`
}

func (PurchaseOrder) TableName() string {
	return "purchase_orders"
}

// AllItemsReceived 全部行项是否收货完成
func (po *PurchaseOrder) AllItemsReceived() bool {
	if len(po.Items) == 0 {
		return false
	}
	for i := range po.Items {
		if !po.Items[i].IsReceived {
			return false
		}
	}
	return true
}

// PurchaseOrderItem 采购订单行项，下单时快照商品名称与SKU
type PurchaseOrderItem struct {
	ID              string `json:"id" gorm:"primaryKey;size:36"`
	PurchaseOrderID string `json:"purchase_order_id" gorm:"size:36;not null;index"`
	ProductID       string `json:"product_id" gorm:"size:36;not null;index"`

	QuantityOrdered  int     `json:"quantity_ordered" gorm:"not null"`
	QuantityReceived int     `json:"quantity_received" gorm:"default:0"`
	UnitPrice        float64 `json:"unit_price" gorm:"type:decimal(12,2);not null"`
	TotalPrice       float64 `json:"total_price" gorm:"type:decimal(12,2);not null"`

	// 快照
	ProductName string `json:"product_name" gorm:"size:255;not null"`
	ProductSKU  string `json:"product_sku" gorm:"size:50;not null"`
	SupplierSKU string `json:"supplier_sku" gorm:"size:100"`

	// 质检
	IsReceived       bool       `json:"is_received" gorm:"default:false"`
	IsQualityChecked bool       `json:"is_quality_checked" gorm:"default:false"`
	QualityNotes     string     `json:"quality_notes" gorm:"type:text"`
	ReceivedDate     *time.Time `json:"received_date"`
}

func (PurchaseOrderItem) TableName() string {
	return "purchase_order_items"
}

// DeliveryTracking 物流跟踪，与采购订单一对一
type DeliveryTracking struct {
	ID              string `json:"id" gorm:"primaryKey;size:36"`
	PurchaseOrderID string `json:"purchase_order_id" gorm:"size:36;not null;uniqueIndex"`

	TrackingNumber string `json:"tracking_number" gorm:"size:100"`
	Carrier        string `json:"carrier" gorm:"size:100"`
	Status         string `json:"status" gorm:"size:20;not null;default:PENDING;index"`

	// 时间线
	ShippedDate           *time.Time `json:"shipped_date"`
	EstimatedDeliveryDate *time.Time `json:"estimated_delivery_date"`
	ActualDeliveryDate    *time.Time `json:"actual_delivery_date"`

	// 位置
	CurrentLocation     string `json:"current_location" gorm:"size:255"`
	OriginLocation      string `json:"origin_location" gorm:"size:255"`
	DestinationLocation string `json:"destination_location" gorm:"size:255"`

	// 签收
	DeliveredTo       string `json:"delivered_to" gorm:"size:255"`
	DeliverySignature string `json:"delivery_signature" gorm:"size:255"`
	DeliveryPhotoURL  string `json:"delivery_photo_url" gorm:"size:500"`
	DeliveryNotes     string `json:"delivery_notes" gorm:"type:text"`

	LastStatusUpdate time.Time `json:"last_status_update"`
	StatusHistory    string    `json:"status_history" gorm:"type:text"` // 逐行追加的状态历史

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

func (DeliveryTracking) TableName() string {
	return "delivery_tracking"
}
