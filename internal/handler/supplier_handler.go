package handler

import (
	"strconv"

	"github.com/brightmart/inventory/internal/service"
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// SupplierHandler 供应商接口
type SupplierHandler struct {
	suppliers *service.SupplierService
	logger    *zap.Logger
}

func NewSupplierHandler(suppliers *service.SupplierService, logger *zap.Logger) *SupplierHandler {
	return &SupplierHandler{suppliers: suppliers, logger: logger}
}

// Create POST /api/suppliers
func (h *SupplierHandler) Create(c *gin.Context) {
	var req service.CreateSupplierInput
	if err := c.ShouldBindJSON(&req); err != nil {
		BadRequest(c, err.Error())
		return
	}

	supplier, err := h.suppliers.Create(c.Request.Context(), req)
	if err != nil {
		HandleError(c, h.logger, err)
		return
	}
	Created(c, supplier)
}

// Get GET /api/suppliers/:id
func (h *SupplierHandler) Get(c *gin.Context) {
	supplier, err := h.suppliers.Get(c.Request.Context(), c.Param("id"))
	if err != nil {
		HandleError(c, h.logger, err)
		return
	}
	Success(c, supplier)
}

// List GET /api/suppliers?active_only=true
func (h *SupplierHandler) List(c *gin.Context) {
	activeOnly := true
	if a := c.Query("active_only"); a != "" {
		if v, err := strconv.ParseBool(a); err == nil {
			activeOnly = v
		}
	}
	suppliers, err := h.suppliers.List(c.Request.Context(), activeOnly)
	if err != nil {
		HandleError(c, h.logger, err)
		return
	}
	Success(c, suppliers)
}

// Update PUT /api/suppliers/:id
func (h *SupplierHandler) Update(c *gin.Context) {
	var req service.UpdateSupplierInput
	if err := c.ShouldBindJSON(&req); err != nil {
		BadRequest(c, err.Error())
		return
	}

	supplier, err := h.suppliers.Update(c.Request.Context(), c.Param("id"), req)
	if err != nil {
		HandleError(c, h.logger, err)
		return
	}
	Success(c, supplier)
}

// Delete DELETE /api/suppliers/:id
func (h *SupplierHandler) Delete(c *gin.Context) {
	if err := h.suppliers.Delete(c.Request.Context(), c.Param("id")); err != nil {
		HandleError(c, h.logger, err)
		return
	}
	Success(c, gin.H{"deleted": true})
}

// LinkProduct POST /api/suppliers/:id/products
func (h *SupplierHandler) LinkProduct(c *gin.Context) {
	var req service.LinkProductInput
	if err := c.ShouldBindJSON(&req); err != nil {
		BadRequest(c, err.Error())
		return
	}

	link, err := h.suppliers.LinkProduct(c.Request.Context(), c.Param("id"), req)
	if err != nil {
		HandleError(c, h.logger, err)
		return
	}
	Created(c, link)
}

// ListProducts GET /api/suppliers/:id/products
func (h *SupplierHandler) ListProducts(c *gin.Context) {
	links, err := h.suppliers.ListProducts(c.Request.Context(), c.Param("id"))
	if err != nil {
		HandleError(c, h.logger, err)
		return
	}
	Success(c, links)
}
