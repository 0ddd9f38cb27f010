package handler

import (
	"github.com/brightmart/inventory/internal/repository"
	"github.com/brightmart/inventory/internal/service"
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// InventoryHandler 库存台账接口
type InventoryHandler struct {
	products *service.ProductService
	logger   *zap.Logger
}

func NewInventoryHandler(products *service.ProductService, logger *zap.Logger) *InventoryHandler {
	return &InventoryHandler{products: products, logger: logger}
}

// ListTransactions GET /api/inventory/transactions
func (h *InventoryHandler) ListTransactions(c *gin.Context) {
	page, perPage := GetPagination(c)
	params := repository.TxListParams{
		ProductID: c.Query("product_id"),
		Type:      c.Query("transaction_type"),
		Page:      page,
		PerPage:   perPage,
	}

	transactions, total, err := h.products.ListTransactions(c.Request.Context(), params)
	if err != nil {
		HandleError(c, h.logger, err)
		return
	}
	Success(c, NewListResponse(transactions, total, page, perPage))
}

type adjustRequest struct {
	ProductID string `json:"product_id" binding:"required"`
	service.AdjustStockInput
}

// Adjust POST /api/inventory/adjust
func (h *InventoryHandler) Adjust(c *gin.Context) {
	var req adjustRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		BadRequest(c, err.Error())
		return
	}

	product, err := h.products.AdjustStock(c.Request.Context(), req.ProductID, req.AdjustStockInput, GetUserID(c))
	if err != nil {
		HandleError(c, h.logger, err)
		return
	}
	Success(c, product)
}
