package service

import (
	"context"
	"errors"
	"fmt"
	"math"
	"mime/multipart"
	"path/filepath"
	"strings"
	"time"

	"github.com/brightmart/inventory/internal/entity"
	"github.com/brightmart/inventory/internal/repository"
	"github.com/google/uuid"
	"github.com/minio/minio-go/v7"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

// 采购金额的增值税率
const vatRate = 0.20

// maxOrderNumberRetries 当日序号撞库后的重试次数上限
const maxOrderNumberRetries = 5

// PurchaseService 采购订单、收货与物流跟踪
type PurchaseService struct {
	db          *gorm.DB
	repos       *repository.Repositories
	minioClient *minio.Client
	bucket      string
	logger      *zap.Logger
}

func NewPurchaseService(db *gorm.DB, repos *repository.Repositories, minioClient *minio.Client, bucket string, logger *zap.Logger) *PurchaseService {
	return &PurchaseService{db: db, repos: repos, minioClient: minioClient, bucket: bucket, logger: logger}
}

// round2 金额保留两位小数
func round2(v float64) float64 {
	return math.Round(v*100) / 100
}

// CreateOrderItemInput 采购行项。UnitPrice 缺省时回退商品成本价，显式传 0 则按 0 计价。
type CreateOrderItemInput struct {
	ProductID       string   `json:"product_id" binding:"required"`
	QuantityOrdered int      `json:"quantity_ordered" binding:"required"`
	UnitPrice       *float64 `json:"unit_price"`
}

// CreateOrderInput 下单入参
type CreateOrderInput struct {
	SupplierID           string                 `json:"supplier_id" binding:"required"`
	Items                []CreateOrderItemInput `json:"items" binding:"required"`
	ExpectedDeliveryDate *time.Time             `json:"expected_delivery_date"`
	ShippingCost         float64                `json:"shipping_cost"`
	DiscountAmount       float64                `json:"discount_amount"`
	DeliveryAddress      string                 `json:"delivery_address"`
	DeliveryInstructions string                 `json:"delivery_instructions"`
	Notes                string                 `json:"notes"`
}

// Create 创建采购订单：快照商品名称与 SKU，计算小计、20% 增值税与总额，
// 初始 DRAFT，并同时建立 PENDING 的物流跟踪。全程一个事务。
func (s *PurchaseService) Create(ctx context.Context, in CreateOrderInput, createdBy string) (*entity.PurchaseOrder, error) {
	if len(in.Items) == 0 {
		return nil, &ValidationError{Field: "items", Reason: "at least one item is required"}
	}
	if in.ShippingCost < 0 {
		return nil, &ValidationError{Field: "shipping_cost", Reason: "must not be negative"}
	}
	if in.DiscountAmount < 0 {
		return nil, &ValidationError{Field: "discount_amount", Reason: "must not be negative"}
	}

	supplier, err := s.repos.Supplier.FindByID(ctx, in.SupplierID)
	if err != nil {
		return nil, translateGorm(err)
	}

	items := make([]entity.PurchaseOrderItem, 0, len(in.Items))
	var subtotal float64
	for _, it := range in.Items {
		if it.QuantityOrdered <= 0 {
			return nil, &ValidationError{Field: "quantity_ordered", Reason: "must be positive"}
		}
		if it.UnitPrice != nil && *it.UnitPrice < 0 {
			return nil, &ValidationError{Field: "unit_price", Reason: "must not be negative"}
		}
		product, err := s.repos.Product.FindByID(ctx, it.ProductID)
		if err != nil {
			return nil, translateGorm(err)
		}
		unitPrice := product.CostPrice
		if it.UnitPrice != nil {
			unitPrice = *it.UnitPrice
		}
		lineTotal := round2(unitPrice * float64(it.QuantityOrdered))
		subtotal += lineTotal
		items = append(items, entity.PurchaseOrderItem{
			ID:              uuid.NewString(),
			ProductID:       product.ID,
			QuantityOrdered: it.QuantityOrdered,
			UnitPrice:       unitPrice,
			TotalPrice:      lineTotal,
			ProductName:     product.Name,
			ProductSKU:      product.SKU,
			SupplierSKU:     product.SupplierSKU,
		})
	}
	subtotal = round2(subtotal)
	tax := round2(subtotal * vatRate)
	// 折扣仅记录，不参与总额计算。
	total := round2(subtotal + tax + in.ShippingCost)

	var order *entity.PurchaseOrder
	for attempt := 0; attempt < maxOrderNumberRetries; attempt++ {
		now := time.Now()
		seq, err := s.repos.Purchase.CountCreatedOn(ctx, now)
		if err != nil {
			return nil, fmt.Errorf("count orders: %w", err)
		}
		orderNumber := fmt.Sprintf("PO-%s-%03d", now.Format("20060102"), seq+1+int64(attempt))

		candidate := &entity.PurchaseOrder{
			ID:                   uuid.NewString(),
			OrderNumber:          orderNumber,
			SupplierID:           supplier.ID,
			Status:               entity.POStatusDraft,
			OrderDate:            now,
			ExpectedDeliveryDate: in.ExpectedDeliveryDate,
			Subtotal:             subtotal,
			TaxAmount:            tax,
			ShippingCost:         in.ShippingCost,
			DiscountAmount:       in.DiscountAmount,
			TotalAmount:          total,
			DeliveryAddress:      in.DeliveryAddress,
			DeliveryInstructions: in.DeliveryInstructions,
			Notes:                in.Notes,
			CreatedBy:            createdBy,
		}
		for i := range items {
			items[i].PurchaseOrderID = candidate.ID
		}
		candidate.Items = items

		err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
			if err := tx.Create(candidate).Error; err != nil {
				return err
			}
			tracking := &entity.DeliveryTracking{
				ID:               uuid.NewString(),
				PurchaseOrderID:  candidate.ID,
				Status:           entity.DeliveryStatusPending,
				LastStatusUpdate: now,
			}
			return tx.Create(tracking).Error
		})
		if err == nil {
			order = candidate
			break
		}
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			continue
		}
		return nil, fmt.Errorf("create purchase order: %w", err)
	}
	if order == nil {
		return nil, fmt.Errorf("create purchase order: exhausted order number retries")
	}

	s.logger.Info("purchase order created",
		zap.String("order_number", order.OrderNumber),
		zap.String("supplier_id", supplier.ID),
		zap.Float64("total_amount", order.TotalAmount))
	return s.Get(ctx, order.ID)
}

func (s *PurchaseService) Get(ctx context.Context, id string) (*entity.PurchaseOrder, error) {
	po, err := s.repos.Purchase.FindByID(ctx, id)
	if err != nil {
		return nil, translateGorm(err)
	}
	return po, nil
}

func (s *PurchaseService) List(ctx context.Context, params repository.POListParams) ([]entity.PurchaseOrder, int64, error) {
	if params.Page < 1 {
		params.Page = 1
	}
	if params.PerPage < 1 || params.PerPage > 100 {
		params.PerPage = 20
	}
	if params.Status != "" && !entity.ValidOrderStatus(params.Status) {
		return nil, 0, &ValidationError{Field: "status", Reason: "unknown value"}
	}
	return s.repos.Purchase.List(ctx, params)
}

// UpdateOrderInput 部分更新
type UpdateOrderInput struct {
	Status               *string    `json:"status"`
	ExpectedDeliveryDate *time.Time `json:"expected_delivery_date"`
	ShippingCost         *float64   `json:"shipping_cost"`
	DiscountAmount       *float64   `json:"discount_amount"`
	DeliveryAddress      *string    `json:"delivery_address"`
	DeliveryInstructions *string    `json:"delivery_instructions"`
	TrackingNumber       *string    `json:"tracking_number"`
	Notes                *string    `json:"notes"`
	ReferenceNumber      *string    `json:"reference_number"`
}

// Update 部分更新。状态变化必须通过迁移表校验。
func (s *PurchaseService) Update(ctx context.Context, id string, in UpdateOrderInput) (*entity.PurchaseOrder, error) {
	po, err := s.repos.Purchase.FindByID(ctx, id)
	if err != nil {
		return nil, translateGorm(err)
	}

	if in.Status != nil && *in.Status != po.Status {
		if !entity.ValidOrderStatus(*in.Status) {
			return nil, &ValidationError{Field: "status", Reason: "unknown value"}
		}
		if !entity.CanTransition(po.Status, *in.Status) {
			return nil, &TransitionError{From: po.Status, To: *in.Status}
		}
		po.Status = *in.Status
	}
	if in.ExpectedDeliveryDate != nil {
		po.ExpectedDeliveryDate = in.ExpectedDeliveryDate
	}
	if in.ShippingCost != nil {
		po.ShippingCost = *in.ShippingCost
		po.TotalAmount = round2(po.Subtotal + po.TaxAmount + po.ShippingCost)
	}
	if in.DiscountAmount != nil {
		po.DiscountAmount = *in.DiscountAmount
	}
	if in.DeliveryAddress != nil {
		po.DeliveryAddress = *in.DeliveryAddress
	}
	if in.DeliveryInstructions != nil {
		po.DeliveryInstructions = *in.DeliveryInstructions
	}
	if in.TrackingNumber != nil {
		po.TrackingNumber = *in.TrackingNumber
	}
	if in.Notes != nil {
		po.Notes = *in.Notes
	}
	if in.ReferenceNumber != nil {
		po.ReferenceNumber = *in.ReferenceNumber
	}

	if err := s.repos.Purchase.Update(ctx, po); err != nil {
		return nil, fmt.Errorf("update purchase order: %w", err)
	}
	return po, nil
}

// Approve DRAFT 或 PENDING 的订单批准为 APPROVED，记录批准人与时间
func (s *PurchaseService) Approve(ctx context.Context, id, approvedBy string) (*entity.PurchaseOrder, error) {
	po, err := s.repos.Purchase.FindByID(ctx, id)
	if err != nil {
		return nil, translateGorm(err)
	}
	if po.Status != entity.POStatusDraft && po.Status != entity.POStatusPending {
		return nil, &TransitionError{From: po.Status, To: entity.POStatusApproved}
	}

	now := time.Now()
	po.Status = entity.POStatusApproved
	po.ApprovedBy = &approvedBy
	po.ApprovedAt = &now
	if err := s.repos.Purchase.Update(ctx, po); err != nil {
		return nil, fmt.Errorf("approve purchase order: %w", err)
	}
	s.logger.Info("purchase order approved",
		zap.String("order_number", po.OrderNumber),
		zap.String("approved_by", approvedBy))
	return po, nil
}

// Cancel 非终态订单取消
func (s *PurchaseService) Cancel(ctx context.Context, id string) (*entity.PurchaseOrder, error) {
	po, err := s.repos.Purchase.FindByID(ctx, id)
	if err != nil {
		return nil, translateGorm(err)
	}
	if entity.IsTerminalOrderStatus(po.Status) {
		return nil, &TransitionError{From: po.Status, To: entity.POStatusCancelled}
	}

	po.Status = entity.POStatusCancelled
	if err := s.repos.Purchase.Update(ctx, po); err != nil {
		return nil, fmt.Errorf("cancel purchase order: %w", err)
	}
	return po, nil
}

// ReceiveItemInput 单个行项的收货量
type ReceiveItemInput struct {
	ItemID           string `json:"item_id" binding:"required"`
	QuantityReceived int    `json:"quantity_received" binding:"required"`
	QualityNotes     string `json:"quality_notes"`
}

// ReceiveInput 收货入参
type ReceiveInput struct {
	Items       []ReceiveItemInput `json:"items" binding:"required"`
	DeliveredTo string             `json:"delivered_to"`
}

// Receive 收货：累加行项已收量，达到订购量即标记收讫；
// 商品库存按本次收货量增加，每行写一条 IN 台账；
// 全部行项收讫后订单转 DELIVERED 并同步物流跟踪。全程一个事务。
// 不属于该订单的行项 id 会被忽略。
func (s *PurchaseService) Receive(ctx context.Context, id string, in ReceiveInput, receivedBy string) (*entity.PurchaseOrder, error) {
	if len(in.Items) == 0 {
		return nil, &ValidationError{Field: "items", Reason: "at least one item is required"}
	}
	for _, it := range in.Items {
		if it.QuantityReceived <= 0 {
			return nil, &ValidationError{Field: "quantity_received", Reason: "must be positive"}
		}
	}

	po, err := s.repos.Purchase.FindByID(ctx, id)
	if err != nil {
		return nil, translateGorm(err)
	}
	if po.Status == entity.POStatusCancelled {
		return nil, &TransitionError{From: po.Status, To: entity.POStatusDelivered}
	}

	byID := make(map[string]*entity.PurchaseOrderItem, len(po.Items))
	for i := range po.Items {
		byID[po.Items[i].ID] = &po.Items[i]
	}

	now := time.Now()
	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		for _, rec := range in.Items {
			item, ok := byID[rec.ItemID]
			if !ok {
				continue
			}
			item.QuantityReceived += rec.QuantityReceived
			if item.QuantityReceived >= item.QuantityOrdered {
				item.IsReceived = true
			}
			if rec.QualityNotes != "" {
				item.QualityNotes = rec.QualityNotes
			}
			item.ReceivedDate = &now
			if err := tx.Save(item).Error; err != nil {
				return err
			}

			if err := tx.Model(&entity.Product{}).Where("id = ?", item.ProductID).
				Update("quantity_in_stock", gorm.Expr("quantity_in_stock + ?", rec.QuantityReceived)).Error; err != nil {
				return err
			}

			unitCost := item.UnitPrice
			ledger := &entity.InventoryTransaction{
				ID:              uuid.NewString(),
				ProductID:       item.ProductID,
				TransactionType: entity.TxTypeIn,
				Quantity:        rec.QuantityReceived,
				UnitCost:        &unitCost,
				ReferenceType:   entity.RefTypePurchaseOrder,
				ReferenceID:     &po.ID,
				Notes:           fmt.Sprintf("Received from PO %s", po.OrderNumber),
				CreatedBy:       receivedBy,
			}
			if err := tx.Create(ledger).Error; err != nil {
				return err
			}
		}

		if po.AllItemsReceived() {
			po.Status = entity.POStatusDelivered
			po.ActualDeliveryDate = &now
			if err := tx.Save(po).Error; err != nil {
				return err
			}
			if po.Tracking != nil {
				po.Tracking.Status = entity.DeliveryStatusDelivered
				po.Tracking.ActualDeliveryDate = &now
				po.Tracking.LastStatusUpdate = now
				if in.DeliveredTo != "" {
					po.Tracking.DeliveredTo = in.DeliveredTo
				}
				appendStatusHistory(po.Tracking, entity.DeliveryStatusDelivered, now)
				if err := tx.Save(po.Tracking).Error; err != nil {
					return err
				}
			}
		}
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("receive items: %w", err)
	}

	s.logger.Info("purchase order items received",
		zap.String("order_number", po.OrderNumber),
		zap.Bool("fully_received", po.AllItemsReceived()))
	return s.Get(ctx, po.ID)
}

// appendStatusHistory 逐行追加状态历史
func appendStatusHistory(t *entity.DeliveryTracking, status string, at time.Time) {
	line := fmt.Sprintf("%s %s", at.Format(time.RFC3339), status)
	if t.StatusHistory == "" {
		t.StatusHistory = line
		return
	}
	t.StatusHistory = t.StatusHistory + "\n" + line
}

func (s *PurchaseService) GetTracking(ctx context.Context, orderID string) (*entity.DeliveryTracking, error) {
	if _, err := s.repos.Purchase.FindByID(ctx, orderID); err != nil {
		return nil, translateGorm(err)
	}
	tracking, err := s.repos.Purchase.FindTracking(ctx, orderID)
	if err != nil {
		return nil, translateGorm(err)
	}
	return tracking, nil
}

// UpdateTrackingInput 物流跟踪更新
type UpdateTrackingInput struct {
	Status                *string    `json:"status"`
	TrackingNumber        *string    `json:"tracking_number"`
	Carrier               *string    `json:"carrier"`
	ShippedDate           *time.Time `json:"shipped_date"`
	EstimatedDeliveryDate *time.Time `json:"estimated_delivery_date"`
	CurrentLocation       *string    `json:"current_location"`
	OriginLocation        *string    `json:"origin_location"`
	DestinationLocation   *string    `json:"destination_location"`
	DeliveredTo           *string    `json:"delivered_to"`
	DeliverySignature     *string    `json:"delivery_signature"`
	DeliveryNotes         *string    `json:"delivery_notes"`
}

// UpdateTracking 更新物流跟踪。状态变化追加历史并联动订单：
// IN_TRANSIT 时订单推进为 SHIPPED，DELIVERED 时订单转 DELIVERED 并回填实际到货日。
func (s *PurchaseService) UpdateTracking(ctx context.Context, orderID string, in UpdateTrackingInput) (*entity.DeliveryTracking, error) {
	po, err := s.repos.Purchase.FindByID(ctx, orderID)
	if err != nil {
		return nil, translateGorm(err)
	}
	tracking, err := s.repos.Purchase.FindTracking(ctx, orderID)
	if err != nil {
		return nil, translateGorm(err)
	}

	now := time.Now()
	statusChanged := false
	if in.Status != nil && *in.Status != tracking.Status {
		if !entity.ValidDeliveryStatus(*in.Status) {
			return nil, &ValidationError{Field: "status", Reason: "unknown value"}
		}
		tracking.Status = *in.Status
		statusChanged = true
	}
	if in.TrackingNumber != nil {
		tracking.TrackingNumber = *in.TrackingNumber
	}
	if in.Carrier != nil {
		tracking.Carrier = *in.Carrier
	}
	if in.ShippedDate != nil {
		tracking.ShippedDate = in.ShippedDate
	}
	if in.EstimatedDeliveryDate != nil {
		tracking.EstimatedDeliveryDate = in.EstimatedDeliveryDate
	}
	if in.CurrentLocation != nil {
		tracking.CurrentLocation = *in.CurrentLocation
	}
	if in.OriginLocation != nil {
		tracking.OriginLocation = *in.OriginLocation
	}
	if in.DestinationLocation != nil {
		tracking.DestinationLocation = *in.DestinationLocation
	}
	if in.DeliveredTo != nil {
		tracking.DeliveredTo = *in.DeliveredTo
	}
	if in.DeliverySignature != nil {
		tracking.DeliverySignature = *in.DeliverySignature
	}
	if in.DeliveryNotes != nil {
		tracking.DeliveryNotes = *in.DeliveryNotes
	}

	tracking.LastStatusUpdate = now
	if statusChanged {
		appendStatusHistory(tracking, tracking.Status, now)
	}

	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if statusChanged {
			switch tracking.Status {
			case entity.DeliveryStatusInTransit:
				if po.Status != entity.POStatusShipped && !entity.IsTerminalOrderStatus(po.Status) {
					po.Status = entity.POStatusShipped
					if err := tx.Save(po).Error; err != nil {
						return err
					}
				}
			case entity.DeliveryStatusDelivered:
				tracking.ActualDeliveryDate = &now
				if !entity.IsTerminalOrderStatus(po.Status) {
					po.Status = entity.POStatusDelivered
					po.ActualDeliveryDate = &now
					if err := tx.Save(po).Error; err != nil {
						return err
					}
				}
			}
		}
		return tx.Save(tracking).Error
	})
	if err != nil {
		return nil, fmt.Errorf("update tracking: %w", err)
	}
	return tracking, nil
}

// UploadDeliveryPhoto 签收照片上传到对象存储，回写 delivery_photo_url
func (s *PurchaseService) UploadDeliveryPhoto(ctx context.Context, orderID string, file *multipart.FileHeader) (*entity.DeliveryTracking, error) {
	if s.minioClient == nil {
		return nil, fmt.Errorf("object storage is not configured")
	}
	tracking, err := s.GetTracking(ctx, orderID)
	if err != nil {
		return nil, err
	}

	ext := strings.ToLower(filepath.Ext(file.Filename))
	switch ext {
	case ".jpg", ".jpeg", ".png", ".webp":
	default:
		return nil, &ValidationError{Field: "photo", Reason: "unsupported file type"}
	}

	src, err := file.Open()
	if err != nil {
		return nil, fmt.Errorf("open upload: %w", err)
	}
	defer src.Close()

	now := time.Now()
	objectName := fmt.Sprintf("deliveries/%s/%s%s", now.Format("2006/01/02"), uuid.NewString(), ext)
	contentType := file.Header.Get("Content-Type")
	if contentType == "" {
		contentType = "application/octet-stream"
	}
	_, err = s.minioClient.PutObject(ctx, s.bucket, objectName, src, file.Size,
		minio.PutObjectOptions{ContentType: contentType})
	if err != nil {
		return nil, fmt.Errorf("upload delivery photo: %w", err)
	}

	tracking.DeliveryPhotoURL = fmt.Sprintf("/%s/%s", s.bucket, objectName)
	tracking.LastStatusUpdate = now
	if err := s.repos.Purchase.UpdateTracking(ctx, tracking); err != nil {
		return nil, fmt.Errorf("save tracking: %w", err)
	}
	return tracking, nil
}

func (s *PurchaseService) Summary(ctx context.Context) (*repository.OrderSummary, error) {
	return s.repos.Purchase.Summary(ctx)
}

func (s *PurchaseService) DeliveryMetrics(ctx context.Context) (*repository.DeliveryMetrics, error) {
	return s.repos.Purchase.Metrics(ctx, time.Now())
}

// ReorderSuggestion 补货建议
type ReorderSuggestion struct {
	ProductID         string   `json:"product_id"`
	ProductName       string   `json:"product_name"`
	SKU               string   `json:"sku"`
	QuantityInStock   int      `json:"quantity_in_stock"`
	MinStockThreshold int      `json:"min_stock_threshold"`
	SuggestedQuantity int      `json:"suggested_quantity"`
	SupplierID        *string  `json:"supplier_id"`
	SupplierName      string   `json:"supplier_name,omitempty"`
	SupplierPrice     *float64 `json:"supplier_price,omitempty"`
	EstimatedCost     *float64 `json:"estimated_cost,omitempty"`
}

// ReorderSuggestions 库存不高于阈值的商品补货建议：
// 建议量 = max(max_stock_threshold 或 100, min×3)，优先取首选且可供货的供货关系。
func (s *PurchaseService) ReorderSuggestions(ctx context.Context, limit int) ([]ReorderSuggestion, error) {
	if limit < 1 || limit > 100 {
		limit = 50
	}
	products, err := s.repos.Product.ReorderCandidates(ctx, limit)
	if err != nil {
		return nil, err
	}

	suggestions := make([]ReorderSuggestion, 0, len(products))
	for i := range products {
		p := &products[i]
		suggested := 100
		if p.MaxStockThreshold != nil {
			suggested = *p.MaxStockThreshold
		}
		if p.MinStockThreshold*3 > suggested {
			suggested = p.MinStockThreshold * 3
		}

		sg := ReorderSuggestion{
			ProductID:         p.ID,
			ProductName:       p.Name,
			SKU:               p.SKU,
			QuantityInStock:   p.QuantityInStock,
			MinStockThreshold: p.MinStockThreshold,
			SuggestedQuantity: suggested,
			SupplierID:        p.SupplierID,
		}
		link, err := s.repos.Supplier.BestLinkForProduct(ctx, p.ID)
		if err == nil {
			sg.SupplierID = &link.SupplierID
			sg.SupplierPrice = &link.SupplierPrice
			cost := round2(link.SupplierPrice * float64(suggested))
			sg.EstimatedCost = &cost
			if link.Supplier != nil {
				sg.SupplierName = link.Supplier.Name
			}
		} else if !errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, err
		}
		suggestions = append(suggestions, sg)
	}
	return suggestions, nil
}
