package handler

import (
	"strconv"

	"github.com/brightmart/inventory/internal/repository"
	"github.com/brightmart/inventory/internal/service"
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// PurchaseHandler 采购订单接口
type PurchaseHandler struct {
	purchases *service.PurchaseService
	logger    *zap.Logger
}

func NewPurchaseHandler(purchases *service.PurchaseService, logger *zap.Logger) *PurchaseHandler {
	return &PurchaseHandler{purchases: purchases, logger: logger}
}

// Create POST /api/purchase-orders
func (h *PurchaseHandler) Create(c *gin.Context) {
	var req service.CreateOrderInput
	if err := c.ShouldBindJSON(&req); err != nil {
		BadRequest(c, err.Error())
		return
	}

	order, err := h.purchases.Create(c.Request.Context(), req, GetUserID(c))
	if err != nil {
		HandleError(c, h.logger, err)
		return
	}
	Created(c, order)
}

// Get GET /api/purchase-orders/:id
func (h *PurchaseHandler) Get(c *gin.Context) {
	order, err := h.purchases.Get(c.Request.Context(), c.Param("id"))
	if err != nil {
		HandleError(c, h.logger, err)
		return
	}
	Success(c, order)
}

// List GET /api/purchase-orders
func (h *PurchaseHandler) List(c *gin.Context) {
	page, perPage := GetPagination(c)
	params := repository.POListParams{
		Status:     c.Query("status"),
		SupplierID: c.Query("supplier_id"),
		Page:       page,
		PerPage:    perPage,
	}

	orders, total, err := h.purchases.List(c.Request.Context(), params)
	if err != nil {
		HandleError(c, h.logger, err)
		return
	}
	Success(c, NewListResponse(orders, total, page, perPage))
}

// Update PUT /api/purchase-orders/:id
func (h *PurchaseHandler) Update(c *gin.Context) {
	var req service.UpdateOrderInput
	if err := c.ShouldBindJSON(&req); err != nil {
		BadRequest(c, err.Error())
		return
	}

	order, err := h.purchases.Update(c.Request.Context(), c.Param("id"), req)
	if err != nil {
		HandleError(c, h.logger, err)
		return
	}
	Success(c, order)
}

// Approve POST /api/purchase-orders/:id/approve
func (h *PurchaseHandler) Approve(c *gin.Context) {
	order, err := h.purchases.Approve(c.Request.Context(), c.Param("id"), GetUserID(c))
	if err != nil {
		HandleError(c, h.logger, err)
		return
	}
	Success(c, order)
}

// Cancel POST /api/purchase-orders/:id/cancel
func (h *PurchaseHandler) Cancel(c *gin.Context) {
	order, err := h.purchases.Cancel(c.Request.Context(), c.Param("id"))
	if err != nil {
		HandleError(c, h.logger, err)
		return
	}
	Success(c, order)
}

// Receive POST /api/purchase-orders/:id/receive
func (h *PurchaseHandler) Receive(c *gin.Context) {
	var req service.ReceiveInput
	if err := c.ShouldBindJSON(&req); err != nil {
		BadRequest(c, err.Error())
		return
	}

	order, err := h.purchases.Receive(c.Request.Context(), c.Param("id"), req, GetUserID(c))
	if err != nil {
		HandleError(c, h.logger, err)
		return
	}
	Success(c, order)
}

// GetTracking GET /api/purchase-orders/:id/tracking
func (h *PurchaseHandler) GetTracking(c *gin.Context) {
	tracking, err := h.purchases.GetTracking(c.Request.Context(), c.Param("id"))
	if err != nil {
		HandleError(c, h.logger, err)
		return
	}
	Success(c, tracking)
}

// UpdateTracking PUT /api/purchase-orders/:id/tracking
func (h *PurchaseHandler) UpdateTracking(c *gin.Context) {
	var req service.UpdateTrackingInput
	if err := c.ShouldBindJSON(&req); err != nil {
		BadRequest(c, err.Error())
		return
	}

	tracking, err := h.purchases.UpdateTracking(c.Request.Context(), c.Param("id"), req)
	if err != nil {
		HandleError(c, h.logger, err)
		return
	}
	Success(c, tracking)
}

// UploadPhoto POST /api/purchase-orders/:id/tracking/photo
func (h *PurchaseHandler) UploadPhoto(c *gin.Context) {
	file, err := c.FormFile("photo")
	if err != nil {
		BadRequest(c, "photo file is required")
		return
	}

	tracking, err := h.purchases.UploadDeliveryPhoto(c.Request.Context(), c.Param("id"), file)
	if err != nil {
		HandleError(c, h.logger, err)
		return
	}
	Success(c, tracking)
}

// Summary GET /api/purchase-orders/summary/orders
func (h *PurchaseHandler) Summary(c *gin.Context) {
	summary, err := h.purchases.Summary(c.Request.Context())
	if err != nil {
		HandleError(c, h.logger, err)
		return
	}
	Success(c, summary)
}

// DeliveryMetrics GET /api/purchase-orders/summary/deliveries
func (h *PurchaseHandler) DeliveryMetrics(c *gin.Context) {
	metrics, err := h.purchases.DeliveryMetrics(c.Request.Context())
	if err != nil {
		HandleError(c, h.logger, err)
		return
	}
	Success(c, metrics)
}

// ReorderSuggestions GET /api/purchase-orders/reorder-suggestions
func (h *PurchaseHandler) ReorderSuggestions(c *gin.Context) {
	limit := 50
	if l := c.Query("limit"); l != "" {
		if v, err := strconv.Atoi(l); err == nil && v > 0 && v <= 100 {
			limit = v
		}
	}
	suggestions, err := h.purchases.ReorderSuggestions(c.Request.Context(), limit)
	if err != nil {
		HandleError(c, h.logger, err)
		return
	}
	Success(c, suggestions)
}
