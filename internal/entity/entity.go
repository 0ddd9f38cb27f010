package entity

import "gorm.io/gorm"

// AutoMigrate 自动迁移所有表
func AutoMigrate(db *gorm.DB) error {
	return db.AutoMigrate(
		// 用户
		&User{},

		// 商品与供应商
		&Product{},
		&Supplier{},
		&SupplierProduct{},

		// 库存台账
		&InventoryTransaction{},

		// 采购
		&PurchaseOrder{},
		&PurchaseOrderItem{},
		&DeliveryTracking{},
	)
}
