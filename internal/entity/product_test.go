package entity

import "testing"

func intPtr(v int) *int { return &v }

func TestStockStatusPrecedence(t *testing.T) {
	tests := []struct {
		name    string
		product Product
		want    string
	}{
		{
			name:    "zero stock is out of stock",
			product: Product{QuantityInStock: 0, MinStockThreshold: 10},
			want:    StockStatusOutOfStock,
		},
		{
			name:    "negative stock is out of stock",
			product: Product{QuantityInStock: -3, MinStockThreshold: 10},
			want:    StockStatusOutOfStock,
		},
		{
			name:    "at threshold is low stock",
			product: Product{QuantityInStock: 10, MinStockThreshold: 10},
			want:    StockStatusLowStock,
		},
		{
			name:    "below threshold is low stock",
			product: Product{QuantityInStock: 4, MinStockThreshold: 10},
			want:    StockStatusLowStock,
		},
		{
			name:    "at max threshold is overstock",
			product: Product{QuantityInStock: 200, MinStockThreshold: 10, MaxStockThreshold: intPtr(200)},
			want:    StockStatusOverstock,
		},
		{
			name:    "no max threshold never overstocks",
			product: Product{QuantityInStock: 100000, MinStockThreshold: 10},
			want:    StockStatusNormal,
		},
		{
			name:    "between thresholds is normal",
			product: Product{QuantityInStock: 50, MinStockThreshold: 10, MaxStockThreshold: intPtr(200)},
			want:    StockStatusNormal,
		},
		{
			// 缺货优先于超储：max 为 0 时零库存仍然报缺货
			name:    "out of stock wins over overstock",
			product: Product{QuantityInStock: 0, MinStockThreshold: 0, MaxStockThreshold: intPtr(0)},
			want:    StockStatusOutOfStock,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.product.StockStatus(); got != tt.want {
				t.Errorf("StockStatus() = %s, want %s", got, tt.want)
			}
		})
	}
}

func TestIsLowStockIncludesZero(t *testing.T) {
	p := Product{QuantityInStock: 0, MinStockThreshold: 10}
	if !p.IsLowStock() {
		t.Error("zero stock should count as low stock")
	}
	if !p.IsOutOfStock() {
		t.Error("zero stock should count as out of stock")
	}
}
