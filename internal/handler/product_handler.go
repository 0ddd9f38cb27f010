package handler

import (
	"fmt"
	"strconv"
	"time"

	"github.com/brightmart/inventory/internal/repository"
	"github.com/brightmart/inventory/internal/service"
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// ProductHandler 商品与库存接口
type ProductHandler struct {
	products *service.ProductService
	export   *service.ExportService
	logger   *zap.Logger
}

func NewProductHandler(products *service.ProductService, export *service.ExportService, logger *zap.Logger) *ProductHandler {
	return &ProductHandler{products: products, export: export, logger: logger}
}

// Create POST /api/products
func (h *ProductHandler) Create(c *gin.Context) {
	var req service.CreateProductInput
	if err := c.ShouldBindJSON(&req); err != nil {
		BadRequest(c, err.Error())
		return
	}

	product, err := h.products.Create(c.Request.Context(), req, GetUserID(c))
	if err != nil {
		HandleError(c, h.logger, err)
		return
	}
	Created(c, product)
}

// Get GET /api/products/:id
func (h *ProductHandler) Get(c *gin.Context) {
	product, err := h.products.Get(c.Request.Context(), c.Param("id"))
	if err != nil {
		HandleError(c, h.logger, err)
		return
	}
	Success(c, product)
}

// GetBySKU GET /api/products/sku/:sku
func (h *ProductHandler) GetBySKU(c *gin.Context) {
	product, err := h.products.GetBySKU(c.Request.Context(), c.Param("sku"))
	if err != nil {
		HandleError(c, h.logger, err)
		return
	}
	Success(c, product)
}

// GetByBarcode GET /api/products/barcode/:barcode
func (h *ProductHandler) GetByBarcode(c *gin.Context) {
	product, err := h.products.GetByBarcode(c.Request.Context(), c.Param("barcode"))
	if err != nil {
		HandleError(c, h.logger, err)
		return
	}
	Success(c, product)
}

// List GET /api/products
func (h *ProductHandler) List(c *gin.Context) {
	page, perPage := GetPagination(c)
	params := repository.ProductListParams{
		Category:    c.Query("category"),
		Subcategory: c.Query("subcategory"),
		Brand:       c.Query("brand"),
		SupplierID:  c.Query("supplier_id"),
		WarehouseID: c.Query("warehouse_id"),
		StockStatus: c.Query("stock_status"),
		Aisle:       c.Query("aisle"),
		Search:      c.Query("search"),
		Page:        page,
		PerPage:     perPage,
	}
	if p := c.Query("is_perishable"); p != "" {
		if v, err := strconv.ParseBool(p); err == nil {
			params.IsPerishable = &v
		}
	}

	products, total, err := h.products.List(c.Request.Context(), params)
	if err != nil {
		HandleError(c, h.logger, err)
		return
	}
	Success(c, NewListResponse(products, total, page, perPage))
}

// Update PUT /api/products/:id
func (h *ProductHandler) Update(c *gin.Context) {
	var req service.UpdateProductInput
	if err := c.ShouldBindJSON(&req); err != nil {
		BadRequest(c, err.Error())
		return
	}

	product, err := h.products.Update(c.Request.Context(), c.Param("id"), req)
	if err != nil {
		HandleError(c, h.logger, err)
		return
	}
	Success(c, product)
}

// Delete DELETE /api/products/:id
func (h *ProductHandler) Delete(c *gin.Context) {
	if err := h.products.Delete(c.Request.Context(), c.Param("id")); err != nil {
		HandleError(c, h.logger, err)
		return
	}
	Success(c, gin.H{"deleted": true})
}

// AdjustStock PATCH /api/products/:id/stock
func (h *ProductHandler) AdjustStock(c *gin.Context) {
	var req service.AdjustStockInput
	if err := c.ShouldBindJSON(&req); err != nil {
		BadRequest(c, err.Error())
		return
	}

	product, err := h.products.AdjustStock(c.Request.Context(), c.Param("id"), req, GetUserID(c))
	if err != nil {
		HandleError(c, h.logger, err)
		return
	}
	Success(c, product)
}

// LowStock GET /api/products/low-stock
func (h *ProductHandler) LowStock(c *gin.Context) {
	products, err := h.products.LowStock(c.Request.Context())
	if err != nil {
		HandleError(c, h.logger, err)
		return
	}
	Success(c, products)
}

// OutOfStock GET /api/products/out-of-stock
func (h *ProductHandler) OutOfStock(c *gin.Context) {
	products, err := h.products.OutOfStock(c.Request.Context())
	if err != nil {
		HandleError(c, h.logger, err)
		return
	}
	Success(c, products)
}

// Expiring GET /api/products/expiring?days=7
func (h *ProductHandler) Expiring(c *gin.Context) {
	days := 7
	if d := c.Query("days"); d != "" {
		if v, err := strconv.Atoi(d); err == nil && v > 0 {
			days = v
		}
	}
	products, err := h.products.ExpiringSoon(c.Request.Context(), days)
	if err != nil {
		HandleError(c, h.logger, err)
		return
	}
	Success(c, products)
}

// Categories GET /api/products/categories/list
func (h *ProductHandler) Categories(c *gin.Context) {
	categories, err := h.products.Categories(c.Request.Context())
	if err != nil {
		HandleError(c, h.logger, err)
		return
	}
	Success(c, categories)
}

// Export GET /api/products/export
func (h *ProductHandler) Export(c *gin.Context) {
	buf, err := h.export.ProductCatalog(c.Request.Context())
	if err != nil {
		HandleError(c, h.logger, err)
		return
	}

	filename := fmt.Sprintf("products-%s.xlsx", time.Now().Format("20060102"))
	c.Header("Content-Disposition", fmt.Sprintf("attachment; filename=%q", filename))
	c.Data(200, "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet", buf.Bytes())
}
