package entity

import "time"

// StockStatus 库存状态（派生值，不落库）
const (
	StockStatusOutOfStock = "OUT_OF_STOCK"
	StockStatusLowStock   = "LOW_STOCK"
	StockStatusOverstock  = "OVERSTOCK"
	StockStatusNormal     = "NORMAL"
)

// Product 商品
type Product struct {
	ID          string  `json:"id" gorm:"primaryKey;size:36"`
	Name        string  `json:"name" gorm:"size:255;not null"`
	Description string  `json:"description" gorm:"type:text"`
	Barcode     *string `json:"barcode" gorm:"size:50;uniqueIndex"`
	SKU         string  `json:"sku" gorm:"size:50;uniqueIndex;not null"`

	// 分类
	Category    string `json:"category" gorm:"size:100;not null;index"`
	Subcategory string `json:"subcategory" gorm:"size:100"`
	Brand       string `json:"brand" gorm:"size:100"`

	// 价格
	CostPrice    float64 `json:"cost_price" gorm:"type:decimal(12,2);not null;default:0"`
	SellingPrice float64 `json:"selling_price" gorm:"type:decimal(12,2);not null;default:0"`

	// 库存
	QuantityInStock   int  `json:"quantity_in_stock" gorm:"not null;default:0"`
	MinStockThreshold int  `json:"min_stock_threshold" gorm:"not null;default:10"`
	MaxStockThreshold *int `json:"max_stock_threshold"`

	// 货位
	Aisle       string `json:"aisle" gorm:"size:20"`
	Shelf       string `json:"shelf" gorm:"size:20"`
	BinLocation string `json:"bin_location" gorm:"size:20"`
	WarehouseID string `json:"warehouse_id" gorm:"size:36;index"`

	// 规格
	UnitOfMeasure string   `json:"unit_of_measure" gorm:"size:20;not null;default:pieces"`
	Weight        *float64 `json:"weight" gorm:"type:decimal(10,2)"` // grams
	Dimensions    string   `json:"dimensions" gorm:"size:100"`       // "L x W x H"

	// 保质期
	IsPerishable           bool       `json:"is_perishable" gorm:"default:false"`
	ExpiryDate             *time.Time `json:"expiry_date"`
	DaysUntilExpiryWarning int        `json:"days_until_expiry_warning" gorm:"default:7"`

	// 供应商
	SupplierID  *string `json:"supplier_id" gorm:"size:36;index"`
	SupplierSKU string  `json:"supplier_sku" gorm:"size:100"`

	// 状态
	IsActive  bool      `json:"is_active" gorm:"default:true;index"`
	CreatedBy string    `json:"created_by" gorm:"size:36"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`

	Supplier *Supplier `json:"supplier,omitempty" gorm:"foreignKey:SupplierID"`
}

func (Product) TableName() string {
	return "products"
}

// IsOutOfStock 是否缺货
func (p *Product) IsOutOfStock() bool {
	return p.QuantityInStock <= 0
}

// IsLowStock 是否低库存
func (p *Product) IsLowStock() bool {
	return p.QuantityInStock <= p.MinStockThreshold
}

// StockStatus 库存状态，优先级 OUT_OF_STOCK > LOW_STOCK > OVERSTOCK > NORMAL
func (p *Product) StockStatus() string {
	switch {
	case p.IsOutOfStock():
		return StockStatusOutOfStock
	case p.IsLowStock():
		return StockStatusLowStock
	case p.MaxStockThreshold != nil && p.QuantityInStock >= *p.MaxStockThreshold:
		return StockStatusOverstock
	default:
		return StockStatusNormal
	}
}

// Supplier 供应商
type Supplier struct {
	ID            string `json:"id" gorm:"primaryKey;size:36"`
	Name          string `json:"name" gorm:"size:255;not null"`
	CompanyName   string `json:"company_name" gorm:"size:255"`
	ContactPerson string `json:"contact_person" gorm:"size:255"`
	Email         string `json:"email" gorm:"size:255"`
	Phone         string `json:"phone" gorm:"size:50"`
	Address       string `json:"address" gorm:"type:text"`

	// 业务信息
	TaxID             string  `json:"tax_id" gorm:"size:50"`
	PaymentTerms      string  `json:"payment_terms" gorm:"size:100;default:Net 30"`
	LeadTimeDays      int     `json:"lead_time_days" gorm:"default:7"`
	MinimumOrderValue float64 `json:"minimum_order_value" gorm:"type:decimal(12,2);default:0"`

	// 绩效
	Rating             float64 `json:"rating" gorm:"type:decimal(3,1);default:0"` // 0-5
	TotalOrders        int     `json:"total_orders" gorm:"default:0"`
	OnTimeDeliveryRate float64 `json:"on_time_delivery_rate" gorm:"type:decimal(5,2);default:0"`

	IsActive    bool      `json:"is_active" gorm:"default:true;index"`
	IsPreferred bool      `json:"is_preferred" gorm:"default:false"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}

func (Supplier) TableName() string {
	return "suppliers"
}

// SupplierProduct 供应商-商品关联（供货价、起订量、交期）
type SupplierProduct struct {
	ID         string `json:"id" gorm:"primaryKey;size:36"`
	SupplierID string `json:"supplier_id" gorm:"size:36;not null;index"`
	ProductID  string `json:"product_id" gorm:"size:36;not null;index"`

	SupplierSKU          string  `json:"supplier_sku" gorm:"size:100"`
	SupplierPrice        float64 `json:"supplier_price" gorm:"type:decimal(12,2);not null"`
	MinimumOrderQuantity int     `json:"minimum_order_quantity" gorm:"default:1"`
	LeadTimeDays         int     `json:"lead_time_days" gorm:"default:7"`

	IsPreferred     bool       `json:"is_preferred" gorm:"default:false"`
	IsAvailable     bool       `json:"is_available" gorm:"default:true"`
	LastOrderDate   *time.Time `json:"last_order_date"`
	LastPriceUpdate time.Time  `json:"last_price_update"`

	Supplier *Supplier `json:"supplier,omitempty" gorm:"foreignKey:SupplierID"`
	Product  *Product  `json:"product,omitempty" gorm:"foreignKey:ProductID"`
}

func (SupplierProduct) TableName() string {
	return "supplier_products"
}
