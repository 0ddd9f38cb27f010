package service

import (
	"context"
	"fmt"
	"time"

	"github.com/brightmart/inventory/internal/entity"
	"github.com/brightmart/inventory/internal/repository"
	"github.com/google/uuid"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

// ProductService 商品与库存服务
type ProductService struct {
	db     *gorm.DB
	repos  *repository.Repositories
	logger *zap.Logger
}

func NewProductService(db *gorm.DB, repos *repository.Repositories, logger *zap.Logger) *ProductService {
	return &ProductService{db: db, repos: repos, logger: logger}
}

// CreateProductInput 建档入参
type CreateProductInput struct {
	Name                   string     `json:"name" binding:"required"`
	Description            string     `json:"description"`
	SKU                    string     `json:"sku" binding:"required"`
	Barcode                *string    `json:"barcode"`
	Category               string     `json:"category" binding:"required"`
	Subcategory            string     `json:"subcategory"`
	Brand                  string     `json:"brand"`
	CostPrice              float64    `json:"cost_price"`
	SellingPrice           float64    `json:"selling_price"`
	QuantityInStock        int        `json:"quantity_in_stock"`
	MinStockThreshold      *int       `json:"min_stock_threshold"`
	MaxStockThreshold      *int       `json:"max_stock_threshold"`
	Aisle                  string     `json:"aisle"`
	Shelf                  string     `json:"shelf"`
	BinLocation            string     `json:"bin_location"`
	WarehouseID            string     `json:"warehouse_id"`
	UnitOfMeasure          string     `json:"unit_of_measure"`
	Weight                 *float64   `json:"weight"`
	Dimensions             string     `json:"dimensions"`
	IsPerishable           bool       `json:"is_perishable"`
	ExpiryDate             *time.Time `json:"expiry_date"`
	DaysUntilExpiryWarning *int       `json:"days_until_expiry_warning"`
	SupplierID             *string    `json:"supplier_id"`
	SupplierSKU            string     `json:"supplier_sku"`
}

func (in *CreateProductInput) validate() error {
	if in.CostPrice < 0 {
		return &ValidationError{Field: "cost_price", Reason: "must not be negative"}
	}
	if in.SellingPrice < 0 {
		return &ValidationError{Field: "selling_price", Reason: "must not be negative"}
	}
	if in.QuantityInStock < 0 {
		return &ValidationError{Field: "quantity_in_stock", Reason: "must not be negative"}
	}
	min := 10
	if in.MinStockThreshold != nil {
		if *in.MinStockThreshold < 0 {
			return &ValidationError{Field: "min_stock_threshold", Reason: "must not be negative"}
		}
		min = *in.MinStockThreshold
	}
	if in.MaxStockThreshold != nil && *in.MaxStockThreshold <= min {
		return &ValidationError{Field: "max_stock_threshold", Reason: "must exceed min_stock_threshold"}
	}
	return nil
}

// Create 建档。初始库存大于 0 时在同一事务内写入一条 IN 台账。
func (s *ProductService) Create(ctx context.Context, in CreateProductInput, createdBy string) (*entity.Product, error) {
	if err := in.validate(); err != nil {
		return nil, err
	}

	p := &entity.Product{
		ID:                uuid.NewString(),
		Name:              in.Name,
		Description:       in.Description,
		SKU:               in.SKU,
		Barcode:           in.Barcode,
		Category:          in.Category,
		Subcategory:       in.Subcategory,
		Brand:             in.Brand,
		CostPrice:         in.CostPrice,
		SellingPrice:      in.SellingPrice,
		QuantityInStock:   in.QuantityInStock,
		MinStockThreshold: 10,
		MaxStockThreshold: in.MaxStockThreshold,
		Aisle:             in.Aisle,
		Shelf:             in.Shelf,
		BinLocation:       in.BinLocation,
		WarehouseID:       in.WarehouseID,
		UnitOfMeasure:     "pieces",
		Weight:            in.Weight,
		Dimensions:        in.Dimensions,
		IsPerishable:      in.IsPerishable,
		ExpiryDate:        in.ExpiryDate,
		SupplierID:        in.SupplierID,
		SupplierSKU:       in.SupplierSKU,
		IsActive:          true,
		CreatedBy:         createdBy,
	}
	if in.MinStockThreshold != nil {
		p.MinStockThreshold = *in.MinStockThreshold
	}
	if in.UnitOfMeasure != "" {
		p.UnitOfMeasure = in.UnitOfMeasure
	}
	p.DaysUntilExpiryWarning = 7
	if in.DaysUntilExpiryWarning != nil {
		p.DaysUntilExpiryWarning = *in.DaysUntilExpiryWarning
	}

	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(p).Error; err != nil {
			return err
		}
		if p.QuantityInStock > 0 {
			record := &entity.InventoryTransaction{
				ID:              uuid.NewString(),
				ProductID:       p.ID,
				TransactionType: entity.TxTypeIn,
				Quantity:        p.QuantityInStock,
				UnitCost:        &p.CostPrice,
				ReferenceType:   entity.RefTypeManual,
				Notes:           "Initial stock",
				CreatedBy:       createdBy,
			}
			if err := tx.Create(record).Error; err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("create product: %w", translateGorm(err))
	}
	return p, nil
}

func (s *ProductService) Get(ctx context.Context, id string) (*entity.Product, error) {
	p, err := s.repos.Product.FindByID(ctx, id)
	if err != nil {
		return nil, translateGorm(err)
	}
	return p, nil
}

func (s *ProductService) GetBySKU(ctx context.Context, sku string) (*entity.Product, error) {
	p, err := s.repos.Product.FindBySKU(ctx, sku)
	if err != nil {
		return nil, translateGorm(err)
	}
	return p, nil
}

func (s *ProductService) GetByBarcode(ctx context.Context, barcode string) (*entity.Product, error) {
	p, err := s.repos.Product.FindByBarcode(ctx, barcode)
	if err != nil {
		return nil, translateGorm(err)
	}
	return p, nil
}

func (s *ProductService) List(ctx context.Context, params repository.ProductListParams) ([]entity.Product, int64, error) {
	if params.Page < 1 {
		params.Page = 1
	}
	if params.PerPage < 1 || params.PerPage > 100 {
		params.PerPage = 20
	}
	if params.StockStatus != "" {
		switch params.StockStatus {
		case entity.StockStatusOutOfStock, entity.StockStatusLowStock,
			entity.StockStatusOverstock, entity.StockStatusNormal:
		default:
			return nil, 0, &ValidationError{Field: "stock_status", Reason: "unknown value"}
		}
	}
	return s.repos.Product.List(ctx, params)
}

// UpdateProductInput 部分更新，nil 字段保持不变
type UpdateProductInput struct {
	Name                   *string    `json:"name"`
	Description            *string    `json:"description"`
	Barcode                *string    `json:"barcode"`
	Category               *string    `json:"category"`
	Subcategory            *string    `json:"subcategory"`
	Brand                  *string    `json:"brand"`
	CostPrice              *float64   `json:"cost_price"`
	SellingPrice           *float64   `json:"selling_price"`
	MinStockThreshold      *int       `json:"min_stock_threshold"`
	MaxStockThreshold      *int       `json:"max_stock_threshold"`
	Aisle                  *string    `json:"aisle"`
	Shelf                  *string    `json:"shelf"`
	BinLocation            *string    `json:"bin_location"`
	WarehouseID            *string    `json:"warehouse_id"`
	UnitOfMeasure          *string    `json:"unit_of_measure"`
	Weight                 *float64   `json:"weight"`
	Dimensions             *string    `json:"dimensions"`
	IsPerishable           *bool      `json:"is_perishable"`
	ExpiryDate             *time.Time `json:"expiry_date"`
	DaysUntilExpiryWarning *int       `json:"days_until_expiry_warning"`
	SupplierID             *string    `json:"supplier_id"`
	SupplierSKU            *string    `json:"supplier_sku"`
}

// Update 部分更新，SKU 不可改
func (s *ProductService) Update(ctx context.Context, id string, in UpdateProductInput) (*entity.Product, error) {
	p, err := s.repos.Product.FindByID(ctx, id)
	if err != nil {
		return nil, translateGorm(err)
	}

	if in.Name != nil {
		p.Name = *in.Name
	}
	if in.Description != nil {
		p.Description = *in.Description
	}
	if in.Barcode != nil {
		p.Barcode = in.Barcode
	}
	if in.Category != nil {
		p.Category = *in.Category
	}
	if in.Subcategory != nil {
		p.Subcategory = *in.Subcategory
	}
	if in.Brand != nil {
		p.Brand = *in.Brand
	}
	if in.CostPrice != nil {
		if *in.CostPrice < 0 {
			return nil, &ValidationError{Field: "cost_price", Reason: "must not be negative"}
		}
		p.CostPrice = *in.CostPrice
	}
	if in.SellingPrice != nil {
		if *in.SellingPrice < 0 {
			return nil, &ValidationError{Field: "selling_price", Reason: "must not be negative"}
		}
		p.SellingPrice = *in.SellingPrice
	}
	if in.MinStockThreshold != nil {
		if *in.MinStockThreshold < 0 {
			return nil, &ValidationError{Field: "min_stock_threshold", Reason: "must not be negative"}
		}
		p.MinStockThreshold = *in.MinStockThreshold
	}
	if in.MaxStockThreshold != nil {
		p.MaxStockThreshold = in.MaxStockThreshold
	}
	if p.MaxStockThreshold != nil && *p.MaxStockThreshold <= p.MinStockThreshold {
		return nil, &ValidationError{Field: "max_stock_threshold", Reason: "must exceed min_stock_threshold"}
	}
	if in.Aisle != nil {
		p.Aisle = *in.Aisle
	}
	if in.Shelf != nil {
		p.Shelf = *in.Shelf
	}
	if in.BinLocation != nil {
		p.BinLocation = *in.BinLocation
	}
	if in.WarehouseID != nil {
		p.WarehouseID = *in.WarehouseID
	}
	if in.UnitOfMeasure != nil {
		p.UnitOfMeasure = *in.UnitOfMeasure
	}
	if in.Weight != nil {
		p.Weight = in.Weight
	}
	if in.Dimensions != nil {
		p.Dimensions = *in.Dimensions
	}
	if in.IsPerishable != nil {
		p.IsPerishable = *in.IsPerishable
	}
	if in.ExpiryDate != nil {
		p.ExpiryDate = in.ExpiryDate
	}
	if in.DaysUntilExpiryWarning != nil {
		p.DaysUntilExpiryWarning = *in.DaysUntilExpiryWarning
	}
	if in.SupplierID != nil {
		p.SupplierID = in.SupplierID
	}
	if in.SupplierSKU != nil {
		p.SupplierSKU = *in.SupplierSKU
	}

	if err := s.repos.Product.Update(ctx, p); err != nil {
		return nil, fmt.Errorf("update product: %w", translateGorm(err))
	}
	return p, nil
}

// Delete 软删除
func (s *ProductService) Delete(ctx context.Context, id string) error {
	if _, err := s.repos.Product.FindByID(ctx, id); err != nil {
		return translateGorm(err)
	}
	return s.repos.Product.SoftDelete(ctx, id)
}

// AdjustStockInput 盘点调整
type AdjustStockInput struct {
	NewQuantity int    `json:"new_quantity"`
	Reason      string `json:"reason" binding:"required"`
	Notes       string `json:"notes"`
}

// AdjustStock 把库存调整到 new_quantity，并写入带符号差值的 ADJUSTMENT 台账。
// 差值为 0 也会留痕。
func (s *ProductService) AdjustStock(ctx context.Context, productID string, in AdjustStockInput, createdBy string) (*entity.Product, error) {
	if in.NewQuantity < 0 {
		return nil, &ValidationError{Field: "new_quantity", Reason: "must not be negative"}
	}
	if in.Reason == "" {
		return nil, &ValidationError{Field: "reason", Reason: "is required"}
	}

	p, err := s.repos.Product.FindByID(ctx, productID)
	if err != nil {
		return nil, translateGorm(err)
	}

	delta := in.NewQuantity - p.QuantityInStock
	notes := fmt.Sprintf("Stock adjustment: %s.", in.Reason)
	if in.Notes != "" {
		notes = fmt.Sprintf("%s %s", notes, in.Notes)
	}

	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Model(&entity.Product{}).Where("id = ?", p.ID).
			Update("quantity_in_stock", in.NewQuantity).Error; err != nil {
			return err
		}
		record := &entity.InventoryTransaction{
			ID:              uuid.NewString(),
			ProductID:       p.ID,
			TransactionType: entity.TxTypeAdjustment,
			Quantity:        delta,
			ReferenceType:   entity.RefTypeManual,
			Notes:           notes,
			CreatedBy:       createdBy,
		}
		return tx.Create(record).Error
	})
	if err != nil {
		return nil, fmt.Errorf("adjust stock: %w", err)
	}

	p.QuantityInStock = in.NewQuantity
	s.logger.Info("stock adjusted",
		zap.String("product_id", p.ID),
		zap.Int("delta", delta),
		zap.String("reason", in.Reason))
	return p, nil
}

func (s *ProductService) LowStock(ctx context.Context) ([]entity.Product, error) {
	return s.repos.Product.LowStock(ctx)
}

func (s *ProductService) OutOfStock(ctx context.Context) ([]entity.Product, error) {
	return s.repos.Product.OutOfStock(ctx)
}

func (s *ProductService) ExpiringSoon(ctx context.Context, days int) ([]entity.Product, error) {
	if days < 1 {
		days = 7
	}
	return s.repos.Product.ExpiringSoon(ctx, days)
}

// Categories 去重后的分类树：category -> 子分类列表
func (s *ProductService) Categories(ctx context.Context) (map[string][]string, error) {
	rows, err := s.repos.Product.Categories(ctx)
	if err != nil {
		return nil, err
	}
	result := make(map[string][]string)
	for _, row := range rows {
		if _, ok := result[row.Category]; !ok {
			result[row.Category] = []string{}
		}
		if row.Subcategory != "" {
			result[row.Category] = append(result[row.Category], row.Subcategory)
		}
	}
	return result, nil
}

// ListTransactions 库存台账查询
func (s *ProductService) ListTransactions(ctx context.Context, params repository.TxListParams) ([]entity.InventoryTransaction, int64, error) {
	if params.Page < 1 {
		params.Page = 1
	}
	if params.PerPage < 1 || params.PerPage > 100 {
		params.PerPage = 20
	}
	if params.Type != "" {
		switch params.Type {
		case entity.TxTypeIn, entity.TxTypeOut, entity.TxTypeAdjustment, entity.TxTypeTransfer:
		default:
			return nil, 0, &ValidationError{Field: "transaction_type", Reason: "unknown value"}
		}
	}
	return s.repos.Tx.List(ctx, params)
}
