package service

import (
	"errors"
	"fmt"

	"github.com/brightmart/inventory/internal/config"
	"github.com/brightmart/inventory/internal/repository"
	"github.com/minio/minio-go/v7"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

// 业务错误，由 handler 统一映射为 HTTP 状态码
var (
	ErrNotFound     = errors.New("record not found")
	ErrDuplicateKey = errors.New("duplicate key")
	ErrUnauthorized = errors.New("unauthorized")
)

// ValidationError 入参校验失败
type ValidationError struct {
	Field  string
	Reason string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("invalid %s: %s", e.Field, e.Reason)
}

// TransitionError 非法的订单状态迁移
type TransitionError struct {
	From string
	To   string
}

func (e *TransitionError) Error() string {
	return fmt.Sprintf("invalid status transition from %s to %s", e.From, e.To)
}

// translateGorm 把 gorm 错误翻译成业务错误
func translateGorm(err error) error {
	switch {
	case errors.Is(err, gorm.ErrRecordNotFound):
		return ErrNotFound
	case errors.Is(err, gorm.ErrDuplicatedKey):
		return ErrDuplicateKey
	}
	return err
}

// Services 服务集合
type Services struct {
	Product   *ProductService
	Supplier  *SupplierService
	Purchase  *PurchaseService
	Auth      *AuthService
	Dashboard *DashboardService
	Export    *ExportService
}

// NewServices 创建服务集合。minioClient 可为 nil，此时照片上传不可用。
func NewServices(db *gorm.DB, repos *repository.Repositories, cfg *config.Config, minioClient *minio.Client, logger *zap.Logger) *Services {
	product := NewProductService(db, repos, logger)
	return &Services{
		Product:   product,
		Supplier:  NewSupplierService(repos, logger),
		Purchase:  NewPurchaseService(db, repos, minioClient, cfg.MinIO.Bucket, logger),
		Auth:      NewAuthService(repos, cfg.JWT.Secret, cfg.JWT.ExpireMinutes, logger),
		Dashboard: NewDashboardService(repos, logger),
		Export:    NewExportService(repos, logger),
	}
}
