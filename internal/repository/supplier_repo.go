package repository

import (
	"context"

	"github.com/brightmart/inventory/internal/entity"
	"gorm.io/gorm"
)

type SupplierRepository struct {
	db *gorm.DB
}

func NewSupplierRepository(db *gorm.DB) *SupplierRepository {
	return &SupplierRepository{db: db}
}

func (r *SupplierRepository) Create(ctx context.Context, s *entity.Supplier) error {
	return r.db.WithContext(ctx).Create(s).Error
}

func (r *SupplierRepository) FindByID(ctx context.Context, id string) (*entity.Supplier, error) {
	var s entity.Supplier
	err := r.db.WithContext(ctx).Where("id = ?", id).First(&s).Error
	if err != nil {
		return nil, err
	}
	return &s, nil
}

func (r *SupplierRepository) List(ctx context.Context, activeOnly bool) ([]entity.Supplier, error) {
	query := r.db.WithContext(ctx).Model(&entity.Supplier{})
	if activeOnly {
		query = query.Where("is_active = ?", true)
	}
	var suppliers []entity.Supplier
	err := query.Order("name").Find(&suppliers).Error
	return suppliers, err
}

func (r *SupplierRepository) Update(ctx context.Context, s *entity.Supplier) error {
	return r.db.WithContext(ctx).Save(s).Error
}

func (r *SupplierRepository) SoftDelete(ctx context.Context, id string) error {
	return r.db.WithContext(ctx).Model(&entity.Supplier{}).
		Where("id = ? AND is_active = ?", id, true).
		Update("is_active", false).Error
}

// --- 供应商-商品关联 ---

func (r *SupplierRepository) CreateLink(ctx context.Context, link *entity.SupplierProduct) error {
	return r.db.WithContext(ctx).Create(link).Error
}

func (r *SupplierRepository) UpdateLink(ctx context.Context, link *entity.SupplierProduct) error {
	return r.db.WithContext(ctx).Save(link).Error
}

func (r *SupplierRepository) FindLink(ctx context.Context, supplierID, productID string) (*entity.SupplierProduct, error) {
	var link entity.SupplierProduct
	err := r.db.WithContext(ctx).
		Where("supplier_id = ? AND product_id = ?", supplierID, productID).
		First(&link).Error
	if err != nil {
		return nil, err
	}
	return &link, nil
}

func (r *SupplierRepository) ListLinks(ctx context.Context, supplierID string) ([]entity.SupplierProduct, error) {
	var links []entity.SupplierProduct
	err := r.db.WithContext(ctx).Preload("Product").
		Where("supplier_id = ?", supplierID).
		Find(&links).Error
	return links, err
}

// BestLinkForProduct 商品的可用货源，优先 is_preferred
func (r *SupplierRepository) BestLinkForProduct(ctx context.Context, productID string) (*entity.SupplierProduct, error) {
	var link entity.SupplierProduct
	err := r.db.WithContext(ctx).
		Preload("Supplier").
		Where("product_id = ? AND is_available = ?", productID, true).
		Order("is_preferred DESC").
		First(&link).Error
	if err != nil {
		return nil, err
	}
	return &link, nil
}
