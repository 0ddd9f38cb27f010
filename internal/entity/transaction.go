package entity

import "time"

// TransactionType 库存交易类型
const (
	TxTypeIn         = "IN"
	TxTypeOut        = "OUT"
	TxTypeAdjustment = "ADJUSTMENT"
	TxTypeTransfer   = "TRANSFER"
)

// ReferenceType 交易来源单据类型
const (
	RefTypeManual        = "MANUAL"
	RefTypePurchaseOrder = "PURCHASE_ORDER"
	RefTypeSale          = "SALE"
	RefTypeReturn        = "RETURN"
)

// InventoryTransaction 库存交易台账，只追加，不更新不删除
type InventoryTransaction struct {
	ID        string `json:"id" gorm:"primaryKey;size:36"`
	ProductID string `json:"product_id" gorm:"size:36;not null;index"`

	TransactionType string   `json:"transaction_type" gorm:"size:20;not null"` // IN/OUT/ADJUSTMENT/TRANSFER
	Quantity        int      `json:"quantity" gorm:"not null"`                 // 带符号的数量变化
	UnitCost        *float64 `json:"unit_cost" gorm:"type:decimal(12,2)"`

	ReferenceType string  `json:"reference_type" gorm:"size:50"`
	ReferenceID   *string `json:"reference_id" gorm:"size:36"`

	// 调拨
	FromLocation string `json:"from_location" gorm:"size:100"`
	ToLocation   string `json:"to_location" gorm:"size:100"`

	// 批次
	BatchNumber string     `json:"batch_number" gorm:"size:100"`
	ExpiryDate  *time.Time `json:"expiry_date"`

	Notes     string    `json:"notes" gorm:"type:text"`
	CreatedBy string    `json:"created_by" gorm:"size:36;not null"`
	CreatedAt time.Time `json:"created_at"`

	Product *Product `json:"product,omitempty" gorm:"foreignKey:ProductID"`
}

func (InventoryTransaction) TableName() string {
	return "inventory_transactions"
}
