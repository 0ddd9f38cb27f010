package repository

import (
	"context"
	"time"

	"github.com/brightmart/inventory/internal/entity"
	"gorm.io/gorm"
)

type ProductRepository struct {
	db *gorm.DB
}

func NewProductRepository(db *gorm.DB) *ProductRepository {
	return &ProductRepository{db: db}
}

func (r *ProductRepository) Create(ctx context.Context, p *entity.Product) error {
	return r.db.WithContext(ctx).Create(p).Error
}

func (r *ProductRepository) FindByID(ctx context.Context, id string) (*entity.Product, error) {
	var p entity.Product
	err := r.db.WithContext(ctx).
		Where("id = ? AND is_active = ?", id, true).First(&p).Error
	if err != nil {
		return nil, err
	}
	return &p, nil
}

func (r *ProductRepository) FindBySKU(ctx context.Context, sku string) (*entity.Product, error) {
	var p entity.Product
	err := r.db.WithContext(ctx).
		Where("sku = ? AND is_active = ?", sku, true).First(&p).Error
	if err != nil {
		return nil, err
	}
	return &p, nil
}

func (r *ProductRepository) FindByBarcode(ctx context.Context, barcode string) (*entity.Product, error) {
	var p entity.Product
	err := r.db.WithContext(ctx).
		Where("barcode = ? AND is_active = ?", barcode, true).First(&p).Error
	if err != nil {
		return nil, err
	}
	return &p, nil
}

func (r *ProductRepository) Update(ctx context.Context, p *entity.Product) error {
	return r.db.WithContext(ctx).Save(p).Error
}

// SoftDelete 软删除：仅标记 is_active=false，保留历史引用
func (r *ProductRepository) SoftDelete(ctx context.Context, id string) error {
	return r.db.WithContext(ctx).Model(&entity.Product{}).
		Where("id = ? AND is_active = ?", id, true).
		Update("is_active", false).Error
}

// ProductListParams 商品列表过滤参数，各条件为 AND 关系
type ProductListParams struct {
	Category     string
	Subcategory  string
	Brand        string
	SupplierID   string
	WarehouseID  string
	IsPerishable *bool
	StockStatus  string
	Aisle        string
	Search       string
	Page         int
	PerPage      int
}

func (r *ProductRepository) List(ctx context.Context, params ProductListParams) ([]entity.Product, int64, error) {
	query := r.db.WithContext(ctx).Model(&entity.Product{}).Where("is_active = ?", true)

	if params.Category != "" {
		query = query.Where("category ILIKE ?", "%"+params.Category+"%")
	}
	if params.Subcategory != "" {
		query = query.Where("subcategory ILIKE ?", "%"+params.Subcategory+"%")
	}
	if params.Brand != "" {
		query = query.Where("brand ILIKE ?", "%"+params.Brand+"%")
	}
	if params.SupplierID != "" {
		query = query.Where("supplier_id = ?", params.SupplierID)
	}
	if params.WarehouseID != "" {
		query = query.Where("warehouse_id = ?", params.WarehouseID)
	}
	if params.IsPerishable != nil {
		query = query.Where("is_perishable = ?", *params.IsPerishable)
	}
	if params.Aisle != "" {
		query = query.Where("aisle ILIKE ?", "%"+params.Aisle+"%")
	}

	switch params.StockStatus {
	case entity.StockStatusOutOfStock:
		query = query.Where("quantity_in_stock <= 0")
	case entity.StockStatusLowStock:
		query = query.Where("quantity_in_stock > 0 AND quantity_in_stock <= min_stock_threshold")
	case entity.StockStatusOverstock:
		query = query.Where("max_stock_threshold IS NOT NULL AND quantity_in_stock >= max_stock_threshold")
	case entity.StockStatusNormal:
		query = query.Where("quantity_in_stock > min_stock_threshold AND (max_stock_threshold IS NULL OR quantity_in_stock < max_stock_threshold)")
	}

	if params.Search != "" {
		kw := "%" + params.Search + "%"
		query = query.Where("name ILIKE ? OR description ILIKE ? OR barcode ILIKE ? OR sku ILIKE ?", kw, kw, kw, kw)
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

	var products []entity.Product
	err := query.Order("created_at DESC").
		Offset((params.Page - 1) * params.PerPage).Limit(params.PerPage).
		Find(&products).Error
	return products, total, err
}

// LowStock 低库存：数量大于0且不超过最小阈值
func (r *ProductRepository) LowStock(ctx context.Context) ([]entity.Product, error) {
	var products []entity.Product
	err := r.db.WithContext(ctx).
		Where("is_active = ? AND quantity_in_stock > 0 AND quantity_in_stock <= min_stock_threshold", true).
		Find(&products).Error
	return products, err
}

func (r *ProductRepository) OutOfStock(ctx context.Context) ([]entity.Product, error) {
	var products []entity.Product
	err := r.db.WithContext(ctx).
		Where("is_active = ? AND quantity_in_stock <= 0", true).
		Find(&products).Error
	return products, err
}

// ExpiringSoon 保质期商品：now <= expiry_date <= now+days
func (r *ProductRepository) ExpiringSoon(ctx context.Context, days int) ([]entity.Product, error) {
	now := time.Now()
	threshold := now.AddDate(0, 0, days)
	var products []entity.Product
	err := r.db.WithContext(ctx).
		Where("is_active = ? AND is_perishable = ? AND expiry_date >= ? AND expiry_date <= ?",
			true, true, now, threshold).
		Find(&products).Error
	return products, err
}

// ReorderCandidates 达到补货线的商品（含缺货），供重新订货建议使用
func (r *ProductRepository) ReorderCandidates(ctx context.Context, limit int) ([]entity.Product, error) {
	var products []entity.Product
	err := r.db.WithContext(ctx).
		Where("is_active = ? AND quantity_in_stock <= min_stock_threshold", true).
		Limit(limit).
		Find(&products).Error
	return products, err
}

type CategoryRow struct {
	Category    string
	Subcategory string
}

// Categories 去重的 (category, subcategory) 组合
func (r *ProductRepository) Categories(ctx context.Context) ([]CategoryRow, error) {
	var rows []CategoryRow
	err := r.db.WithContext(ctx).Model(&entity.Product{}).
		Distinct("category", "subcategory").
		Where("is_active = ?", true).
		Order("category").
		Find(&rows).Error
	return rows, err
}

// StockValue 全部在售商品的库存成本总值
func (r *ProductRepository) StockValue(ctx context.Context) (float64, error) {
	var result struct{ Total float64 }
	err := r.db.WithContext(ctx).Raw(`
		SELECT COALESCE(SUM(quantity_in_stock * cost_price), 0) AS total
		FROM products
		WHERE is_active = true
	`).Scan(&result).Error
	return result.Total, err
}

func (r *ProductRepository) CountActive(ctx context.Context) (int64, error) {
	var total int64
	err := r.db.WithContext(ctx).Model(&entity.Product{}).
		Where("is_active = ?", true).Count(&total).Error
	return total, err
}
