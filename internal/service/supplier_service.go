package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/brightmart/inventory/internal/entity"
	"github.com/brightmart/inventory/internal/repository"
	"github.com/google/uuid"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

// SupplierService 供应商档案与供货关系
type SupplierService struct {
	repos  *repository.Repositories
	logger *zap.Logger
}

func NewSupplierService(repos *repository.Repositories, logger *zap.Logger) *SupplierService {
	return &SupplierService{repos: repos, logger: logger}
}

// CreateSupplierInput 供应商建档
type CreateSupplierInput struct {
	Name              string  `json:"name" binding:"required"`
	CompanyName       string  `json:"company_name"`
	ContactPerson     string  `json:"contact_person"`
	Email             string  `json:"email"`
	Phone             string  `json:"phone"`
	Address           string  `json:"address"`
	TaxID             string  `json:"tax_id"`
	PaymentTerms      string  `json:"payment_terms"`
	LeadTimeDays      *int    `json:"lead_time_days"`
	MinimumOrderValue float64 `json:"minimum_order_value"`
	IsPreferred       bool    `json:"is_preferred"`
}

func (s *SupplierService) Create(ctx context.Context, in CreateSupplierInput) (*entity.Supplier, error) {
	sup := &entity.Supplier{
		ID:                uuid.NewString(),
		Name:              in.Name,
		CompanyName:       in.CompanyName,
		ContactPerson:     in.ContactPerson,
		Email:             in.Email,
		Phone:             in.Phone,
		Address:           in.Address,
		TaxID:             in.TaxID,
		PaymentTerms:      "Net 30",
		LeadTimeDays:      7,
		MinimumOrderValue: in.MinimumOrderValue,
		IsActive:          true,
		IsPreferred:       in.IsPreferred,
	}
	if in.PaymentTerms != "" {
		sup.PaymentTerms = in.PaymentTerms
	}
	if in.LeadTimeDays != nil {
		sup.LeadTimeDays = *in.LeadTimeDays
	}
	if err := s.repos.Supplier.Create(ctx, sup); err != nil {
		return nil, fmt.Errorf("create supplier: %w", translateGorm(err))
	}
	return sup, nil
}

func (s *SupplierService) Get(ctx context.Context, id string) (*entity.Supplier, error) {
	sup, err := s.repos.Supplier.FindByID(ctx, id)
	if err != nil {
		return nil, translateGorm(err)
	}
	return sup, nil
}

func (s *SupplierService) List(ctx context.Context, activeOnly bool) ([]entity.Supplier, error) {
	return s.repos.Supplier.List(ctx, activeOnly)
}

// UpdateSupplierInput 部分更新
type UpdateSupplierInput struct {
	Name              *string  `json:"name"`
	CompanyName       *string  `json:"company_name"`
	ContactPerson     *string  `json:"contact_person"`
	Email             *string  `json:"email"`
	Phone             *string  `json:"phone"`
	Address           *string  `json:"address"`
	TaxID             *string  `json:"tax_id"`
	PaymentTerms      *string  `json:"payment_terms"`
	LeadTimeDays      *int     `json:"lead_time_days"`
	MinimumOrderValue *float64 `json:"minimum_order_value"`
	Rating            *float64 `json:"rating"`
	IsPreferred       *bool    `json:"is_preferred"`
	IsActive          *bool    `json:"is_active"`
}

func (s *SupplierService) Update(ctx context.Context, id string, in UpdateSupplierInput) (*entity.Supplier, error) {
	sup, err := s.repos.Supplier.FindByID(ctx, id)
	if err != nil {
		return nil, translateGorm(err)
	}

	if in.Name != nil {
		sup.Name = *in.Name
	}
	if in.CompanyName != nil {
		sup.CompanyName = *in.CompanyName
	}
	if in.ContactPerson != nil {
		sup.ContactPerson = *in.ContactPerson
	}
	if in.Email != nil {
		sup.Email = *in.Email
	}
	if in.Phone != nil {
		sup.Phone = *in.Phone
	}
	if in.Address != nil {
		sup.Address = *in.Address
	}
	if in.TaxID != nil {
		sup.TaxID = *in.TaxID
	}
	if in.PaymentTerms != nil {
		sup.PaymentTerms = *in.PaymentTerms
	}
	if in.LeadTimeDays != nil {
		sup.LeadTimeDays = *in.LeadTimeDays
	}
	if in.MinimumOrderValue != nil {
		sup.MinimumOrderValue = *in.MinimumOrderValue
	}
	if in.Rating != nil {
		if *in.Rating < 0 || *in.Rating > 5 {
			return nil, &ValidationError{Field: "rating", Reason: "must be between 0 and 5"}
		}
		sup.Rating = *in.Rating
	}
	if in.IsPreferred != nil {
		sup.IsPreferred = *in.IsPreferred
	}
	if in.IsActive != nil {
		sup.IsActive = *in.IsActive
	}

	if err := s.repos.Supplier.Update(ctx, sup); err != nil {
		return nil, fmt.Errorf("update supplier: %w", translateGorm(err))
	}
	return sup, nil
}

func (s *SupplierService) Delete(ctx context.Context, id string) error {
	if _, err := s.repos.Supplier.FindByID(ctx, id); err != nil {
		return translateGorm(err)
	}
	return s.repos.Supplier.SoftDelete(ctx, id)
}

// LinkProductInput 维护供货关系，存在则更新
type LinkProductInput struct {
	ProductID            string  `json:"product_id" binding:"required"`
	SupplierSKU          string  `json:"supplier_sku"`
	SupplierPrice        float64 `json:"supplier_price" binding:"required"`
	MinimumOrderQuantity *int    `json:"minimum_order_quantity"`
	LeadTimeDays         *int    `json:"lead_time_days"`
	IsPreferred          *bool   `json:"is_preferred"`
	IsAvailable          *bool   `json:"is_available"`
}

func (s *SupplierService) LinkProduct(ctx context.Context, supplierID string, in LinkProductInput) (*entity.SupplierProduct, error) {
	if in.SupplierPrice < 0 {
		return nil, &ValidationError{Field: "supplier_price", Reason: "must not be negative"}
	}
	if _, err := s.repos.Supplier.FindByID(ctx, supplierID); err != nil {
		return nil, translateGorm(err)
	}
	if _, err := s.repos.Product.FindByID(ctx, in.ProductID); err != nil {
		return nil, translateGorm(err)
	}

	link, err := s.repos.Supplier.FindLink(ctx, supplierID, in.ProductID)
	switch {
	case err == nil:
		link.SupplierPrice = in.SupplierPrice
		link.LastPriceUpdate = time.Now()
		if in.SupplierSKU != "" {
			link.SupplierSKU = in.SupplierSKU
		}
		if in.MinimumOrderQuantity != nil {
			link.MinimumOrderQuantity = *in.MinimumOrderQuantity
		}
		if in.LeadTimeDays != nil {
			link.LeadTimeDays = *in.LeadTimeDays
		}
		if in.IsPreferred != nil {
			link.IsPreferred = *in.IsPreferred
		}
		if in.IsAvailable != nil {
			link.IsAvailable = *in.IsAvailable
		}
		if err := s.repos.Supplier.UpdateLink(ctx, link); err != nil {
			return nil, fmt.Errorf("update supplier product: %w", err)
		}
		return link, nil
	case errors.Is(err, gorm.ErrRecordNotFound):
		link = &entity.SupplierProduct{
			ID:                   uuid.NewString(),
			SupplierID:           supplierID,
			ProductID:            in.ProductID,
			SupplierSKU:          in.SupplierSKU,
			SupplierPrice:        in.SupplierPrice,
			MinimumOrderQuantity: 1,
			LeadTimeDays:         7,
			IsAvailable:          true,
			LastPriceUpdate:      time.Now(),
		}
		if in.MinimumOrderQuantity != nil {
			link.MinimumOrderQuantity = *in.MinimumOrderQuantity
		}
		if in.LeadTimeDays != nil {
			link.LeadTimeDays = *in.LeadTimeDays
		}
		if in.IsPreferred != nil {
			link.IsPreferred = *in.IsPreferred
		}
		if in.IsAvailable != nil {
			link.IsAvailable = *in.IsAvailable
		}
		if err := s.repos.Supplier.CreateLink(ctx, link); err != nil {
			return nil, fmt.Errorf("create supplier product: %w", translateGorm(err))
		}
		return link, nil
	default:
		return nil, err
	}
}

func (s *SupplierService) ListProducts(ctx context.Context, supplierID string) ([]entity.SupplierProduct, error) {
	if _, err := s.repos.Supplier.FindByID(ctx, supplierID); err != nil {
		return nil, translateGorm(err)
	}
	return s.repos.Supplier.ListLinks(ctx, supplierID)
}
