package service

import (
	"context"
	"fmt"

	"github.com/brightmart/inventory/internal/repository"
	"go.uber.org/zap"
)

// DashboardService 库存看板聚合
type DashboardService struct {
	repos  *repository.Repositories
	logger *zap.Logger
}

func NewDashboardService(repos *repository.Repositories, logger *zap.Logger) *DashboardService {
	return &DashboardService{repos: repos, logger: logger}
}

// DashboardMetrics 看板指标
type DashboardMetrics struct {
	TotalProducts     int64   `json:"total_products"`
	LowStockCount     int     `json:"low_stock_count"`
	OutOfStockCount   int     `json:"out_of_stock_count"`
	ExpiringSoonCount int     `json:"expiring_soon_count"`
	TotalValue        float64 `json:"total_value"`
}

// Metrics 汇总指标：总商品数、低库存、缺货、7 天内临期、库存成本总值
func (s *DashboardService) Metrics(ctx context.Context) (*DashboardMetrics, error) {
	total, err := s.repos.Product.CountActive(ctx)
	if err != nil {
		return nil, fmt.Errorf("count products: %w", err)
	}
	low, err := s.repos.Product.LowStock(ctx)
	if err != nil {
		return nil, fmt.Errorf("low stock: %w", err)
	}
	out, err := s.repos.Product.OutOfStock(ctx)
	if err != nil {
		return nil, fmt.Errorf("out of stock: %w", err)
	}
	expiring, err := s.repos.Product.ExpiringSoon(ctx, 7)
	if err != nil {
		return nil, fmt.Errorf("expiring soon: %w", err)
	}
	value, err := s.repos.Product.StockValue(ctx)
	if err != nil {
		return nil, fmt.Errorf("stock value: %w", err)
	}

	return &DashboardMetrics{
		TotalProducts:     total,
		LowStockCount:     len(low),
		OutOfStockCount:   len(out),
		ExpiringSoonCount: len(expiring),
		TotalValue:        value,
	}, nil
}

// LowStockItem 低库存条目，location 为 "aisle-shelf"
type LowStockItem struct {
	ProductID         string `json:"product_id"`
	Name              string `json:"name"`
	SKU               string `json:"sku"`
	QuantityInStock   int    `json:"quantity_in_stock"`
	MinStockThreshold int    `json:"min_stock_threshold"`
	Location          string `json:"location"`
}

func (s *DashboardService) LowStockItems(ctx context.Context) ([]LowStockItem, error) {
	products, err := s.repos.Product.LowStock(ctx)
	if err != nil {
		return nil, err
	}
	items := make([]LowStockItem, 0, len(products))
	for i := range products {
		p := &products[i]
		items = append(items, LowStockItem{
			ProductID:         p.ID,
			Name:              p.Name,
			SKU:               p.SKU,
			QuantityInStock:   p.QuantityInStock,
			MinStockThreshold: p.MinStockThreshold,
			Location:          fmt.Sprintf("%s-%s", p.Aisle, p.Shelf),
		})
	}
	return items, nil
}
