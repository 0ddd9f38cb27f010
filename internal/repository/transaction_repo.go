package repository

import (
	"context"

	"github.com/brightmart/inventory/internal/entity"
	"gorm.io/gorm"
)

// TransactionRepository 库存交易台账，只追加
type TransactionRepository struct {
	db *gorm.DB
}

func NewTransactionRepository(db *gorm.DB) *TransactionRepository {
	return &TransactionRepository{db: db}
}

func (r *TransactionRepository) Create(ctx context.Context, tx *entity.InventoryTransaction) error {
	return r.db.WithContext(ctx).Create(tx).Error
}

// TxListParams 台账查询参数
type TxListParams struct {
	ProductID string
	Type      string
	Page      int
	PerPage   int
}

func (r *TransactionRepository) List(ctx context.Context, params TxListParams) ([]entity.InventoryTransaction, int64, error) {
	query := r.db.WithContext(ctx).Model(&entity.InventoryTransaction{})
	if params.ProductID != "" {
		query = query.Where("product_id = ?", params.ProductID)
	}
	if params.Type != "" {
		query = query.Where("transaction_type = ?", params.Type)
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

	var txs []entity.InventoryTransaction
	err := query.Order("created_at DESC").
		Offset((params.Page - 1) * params.PerPage).Limit(params.PerPage).
		Find(&txs).Error
	return txs, total, err
}

// CountForProduct 商品的台账条数（测试与审计用）
func (r *TransactionRepository) CountForProduct(ctx context.Context, productID string) (int64, error) {
	var total int64
	err := r.db.WithContext(ctx).Model(&entity.InventoryTransaction{}).
		Where("product_id = ?", productID).Count(&total).Error
	return total, err
}
