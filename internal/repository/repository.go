package repository

import "gorm.io/gorm"

// Repositories 仓库集合
type Repositories struct {
	Product  *ProductRepository
	Supplier *SupplierRepository
	Tx       *TransactionRepository
	Purchase *PurchaseRepository
	User     *UserRepository
}

// NewRepositories 创建仓库集合
func NewRepositories(db *gorm.DB) *Repositories {
	return &Repositories{
		Product:  NewProductRepository(db),
		Supplier: NewSupplierRepository(db),
		Tx:       NewTransactionRepository(db),
		Purchase: NewPurchaseRepository(db),
		User:     NewUserRepository(db),
	}
}
