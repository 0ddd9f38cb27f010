package handler

import (
	"errors"
	"math"
	"strconv"

	"github.com/brightmart/inventory/internal/service"
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// Handlers 处理器集合
type Handlers struct {
	Auth      *AuthHandler
	Product   *ProductHandler
	Supplier  *SupplierHandler
	Inventory *InventoryHandler
	Purchase  *PurchaseHandler
	Dashboard *DashboardHandler
}

// NewHandlers 创建处理器集合
func NewHandlers(services *service.Services, logger *zap.Logger) *Handlers {
	return &Handlers{
		Auth:      NewAuthHandler(services.Auth, logger),
		Product:   NewProductHandler(services.Product, services.Export, logger),
		Supplier:  NewSupplierHandler(services.Supplier, logger),
		Inventory: NewInventoryHandler(services.Product, logger),
		Purchase:  NewPurchaseHandler(services.Purchase, logger),
		Dashboard: NewDashboardHandler(services.Dashboard, logger),
	}
}

// === 响应辅助函数 ===

type Response struct {
	Code    int         `json:"code"`
	Message string      `json:"message"`
	Data    interface{} `json:"data,omitempty"`
}

// ListResponse 分页列表载荷
type ListResponse struct {
	Items      interface{} `json:"items"`
	TotalCount int64       `json:"total_count"`
	Page       int         `json:"page"`
	PerPage    int         `json:"per_page"`
	TotalPages int         `json:"total_pages"`
}

// NewListResponse 组装分页载荷，total_pages 向上取整
func NewListResponse(items interface{}, total int64, page, perPage int) *ListResponse {
	totalPages := 0
	if perPage > 0 {
		totalPages = int(math.Ceil(float64(total) / float64(perPage)))
	}
	return &ListResponse{
		Items:      items,
		TotalCount: total,
		Page:       page,
		PerPage:    perPage,
		TotalPages: totalPages,
	}
}

func Success(c *gin.Context, data interface{}) {
	c.JSON(200, Response{
		Code:    0,
		Message: "success",
		Data:    data,
	})
}

func Created(c *gin.Context, data interface{}) {
	c.JSON(201, Response{
		Code:    0,
		Message: "success",
		Data:    data,
	})
}

func Error(c *gin.Context, code int, message string) {
	statusCode := code / 100
	if statusCode < 100 || statusCode > 599 {
		statusCode = 500
	}
	c.JSON(statusCode, Response{
		Code:    code,
		Message: message,
	})
}

func BadRequest(c *gin.Context, message string) {
	Error(c, 40000, message)
}

func Unauthorized(c *gin.Context, message string) {
	Error(c, 40100, message)
}

func NotFound(c *gin.Context, message string) {
	Error(c, 40400, message)
}

func Conflict(c *gin.Context, message string) {
	Error(c, 40900, message)
}

func InternalError(c *gin.Context, message string) {
	Error(c, 50000, message)
}

// HandleError 业务错误到 HTTP 状态码的统一映射。
// 未识别的错误记日志后返回通用 500。
func HandleError(c *gin.Context, logger *zap.Logger, err error) {
	var validationErr *service.ValidationError
	var transitionErr *service.TransitionError

	switch {
	case errors.Is(err, service.ErrNotFound):
		NotFound(c, "resource not found")
	case errors.Is(err, service.ErrDuplicateKey):
		Conflict(c, "resource already exists")
	case errors.Is(err, service.ErrUnauthorized):
		Unauthorized(c, "unauthorized")
	case errors.As(err, &validationErr):
		BadRequest(c, validationErr.Error())
	case errors.As(err, &transitionErr):
		BadRequest(c, transitionErr.Error())
	default:
		logger.Error("request failed",
			zap.String("path", c.Request.URL.Path),
			zap.Error(err))
		InternalError(c, "internal server error")
	}
}

func GetUserID(c *gin.Context) string {
	userID, _ := c.Get("user_id")
	if id, ok := userID.(string); ok {
		return id
	}
	return ""
}

func GetPagination(c *gin.Context) (page, perPage int) {
	page = 1
	perPage = 20

	if p := c.Query("page"); p != "" {
		if v, err := strconv.Atoi(p); err == nil && v > 0 {
			page = v
		}
	}

	if pp := c.Query("per_page"); pp != "" {
		if v, err := strconv.Atoi(pp); err == nil && v > 0 && v <= 100 {
			perPage = v
		}
	}

	return page, perPage
}
