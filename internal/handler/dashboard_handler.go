package handler

import (
	"github.com/brightmart/inventory/internal/service"
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// DashboardHandler 库存看板接口
type DashboardHandler struct {
	dashboard *service.DashboardService
	logger    *zap.Logger
}

func NewDashboardHandler(dashboard *service.DashboardService, logger *zap.Logger) *DashboardHandler {
	return &DashboardHandler{dashboard: dashboard, logger: logger}
}

// Metrics GET /api/dashboard/metrics
func (h *DashboardHandler) Metrics(c *gin.Context) {
	metrics, err := h.dashboard.Metrics(c.Request.Context())
	if err != nil {
		HandleError(c, h.logger, err)
		return
	}
	Success(c, metrics)
}

// LowStock GET /api/dashboard/low-stock
func (h *DashboardHandler) LowStock(c *gin.Context) {
	items, err := h.dashboard.LowStockItems(c.Request.Context())
	if err != nil {
		HandleError(c, h.logger, err)
		return
	}
	Success(c, items)
}
