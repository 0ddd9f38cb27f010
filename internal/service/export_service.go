package service

import (
	"bytes"
	"context"
	"fmt"

	"github.com/brightmart/inventory/internal/repository"
	"github.com/xuri/excelize/v2"
	"go.uber.org/zap"
)

// ExportService 商品目录导出
type ExportService struct {
	repos  *repository.Repositories
	logger *zap.Logger
}

func NewExportService(repos *repository.Repositories, logger *zap.Logger) *ExportService {
	return &ExportService{repos: repos, logger: logger}
}

// ProductCatalog 导出在售商品目录为 xlsx
func (s *ExportService) ProductCatalog(ctx context.Context) (*bytes.Buffer, error) {
	const sheet = "Products"
	const pageSize = 100

	f := excelize.NewFile()
	defer f.Close()
	f.SetSheetName("Sheet1", sheet)

	headers := []string{"SKU", "Name", "Category", "Subcategory", "Brand",
		"Cost Price", "Selling Price", "Quantity", "Min Threshold",
		"Stock Status", "Unit", "Aisle", "Shelf", "Supplier SKU"}
	for i, h := range headers {
		cell, _ := excelize.CoordinatesToCellName(i+1, 1)
		f.SetCellValue(sheet, cell, h)
	}

	row := 2
	for page := 1; ; page++ {
		products, _, err := s.repos.Product.List(ctx, repository.ProductListParams{
			Page:    page,
			PerPage: pageSize,
		})
		if err != nil {
			return nil, fmt.Errorf("list products: %w", err)
		}
		if len(products) == 0 {
			break
		}
		for i := range products {
			p := &products[i]
			values := []interface{}{p.SKU, p.Name, p.Category, p.Subcategory, p.Brand,
				p.CostPrice, p.SellingPrice, p.QuantityInStock, p.MinStockThreshold,
				p.StockStatus(), p.UnitOfMeasure, p.Aisle, p.Shelf, p.SupplierSKU}
			for col, v := range values {
				cell, _ := excelize.CoordinatesToCellName(col+1, row)
				f.SetCellValue(sheet, cell, v)
			}
			row++
		}
		if len(products) < pageSize {
			break
		}
	}

	buf, err := f.WriteToBuffer()
	if err != nil {
		return nil, fmt.Errorf("write workbook: %w", err)
	}
	s.logger.Info("product catalog exported", zap.Int("rows", row-2))
	return buf, nil
}
