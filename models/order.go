package models

import (
	"context"
	"errors"
	"time"

	"github.com/chefcloud/nimbus_backend/config"
	"github.com/chefcloud/nimbus_backend/utils"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// Order is a completed POS ticket. PostedAt is the accounting-effective
// timestamp: it decides which fiscal period governs the order's depletion.
type Order struct {
	ID             int             `gorm:"primary_key" json:"id"`
	OrganizationId string          `gorm:"size:36;index;not null" json:"organization_id"`
	Branch         string          `gorm:"size:100" json:"branch"`
	Status         OrderStatus     `gorm:"size:15;not null;default:OPEN" json:"status"`
	TotalAmount    decimal.Decimal `gorm:"type:decimal(20,4);default:0" json:"total_amount"`
	PostedAt       time.Time       `gorm:"not null;index" json:"posted_at"`
	Lines          []OrderLine     `gorm:"foreignKey:OrderId" json:"lines"`
	CreatedAt      time.Time       `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt      time.Time       `gorm:"autoUpdateTime" json:"updated_at"`
}

type OrderLine struct {
	ID        int             `gorm:"primary_key" json:"id"`
	OrderId   int             `gorm:"index;not null" json:"order_id"`
	ItemId    int             `gorm:"index;not null" json:"item_id"`
	Qty       decimal.Decimal `gorm:"type:decimal(20,4);not null" json:"qty"`
	UnitPrice decimal.Decimal `gorm:"type:decimal(20,4);not null" json:"unit_price"`
	CreatedAt time.Time       `gorm:"autoCreateTime" json:"created_at"`
}

type NewOrderLine struct {
	ItemId    int             `json:"itemId" binding:"required"`
	Qty       decimal.Decimal `json:"qty" binding:"required"`
	UnitPrice decimal.Decimal `json:"unitPrice"`
}

type NewOrder struct {
	Branch   string         `json:"branch"`
	PostedAt *time.Time     `json:"postedAt"`
	Lines    []NewOrderLine `json:"lines" binding:"required,min=1,dive"`
}

func CreateOrder(ctx context.Context, input *NewOrder) (*Order, error) {
	organizationId, ok := utils.GetOrganizationIdFromContext(ctx)
	if !ok || organizationId == "" {
		return nil, errors.New("organization id is required")
	}
	if len(input.Lines) == 0 {
		return nil, errors.New("order requires at least one line")
	}
	for _, line := range input.Lines {
		if line.Qty.LessThanOrEqual(decimal.Zero) {
			return nil, errors.New("order line qty must be positive")
		}
		if err := utils.ValidateResourceId[InventoryItem](ctx, organizationId, line.ItemId); err != nil {
			return nil, errors.New("inventory item not found")
		}
	}

	postedAt := utils.DereferencePtr(input.PostedAt, time.Now()).UTC()

	order := Order{
		OrganizationId: organizationId,
		Branch:         input.Branch,
		Status:         OrderStatusCompleted,
		PostedAt:       postedAt,
	}
	total := decimal.Zero
	for _, line := range input.Lines {
		order.Lines = append(order.Lines, OrderLine{
			ItemId:    line.ItemId,
			Qty:       line.Qty,
			UnitPrice: line.UnitPrice,
		})
		total = total.Add(line.Qty.Mul(line.UnitPrice))
	}
	order.TotalAmount = total

	db := config.GetDB()
	if err := db.WithContext(ctx).Create(&order).Error; err != nil {
		return nil, err
	}
	return &order, nil
}

func GetOrder(ctx context.Context, id int) (*Order, error) {
	organizationId, ok := utils.GetOrganizationIdFromContext(ctx)
	if !ok || organizationId == "" {
		return nil, errors.New("organization id is required")
	}

	db := config.GetDB()
	var order Order
	err := db.WithContext(ctx).
		Preload("Lines").
		Where("organization_id = ?", organizationId).
		First(&order, id).Error
	if err != nil {
		return nil, utils.ErrorRecordNotFound
	}
	return &order, nil
}

// GetCompletedOrdersBetween is used by the rebuild CLI to re-run the recorder
// over a date range.
func GetCompletedOrdersBetween(tx *gorm.DB, organizationId string, from, to time.Time) ([]*Order, error) {
	var orders []*Order
	err := tx.Preload("Lines").
		Where("organization_id = ? AND status = ? AND posted_at >= ? AND posted_at < ?",
			organizationId, OrderStatusCompleted, from, to).
		Order("posted_at ASC, id ASC").
		Find(&orders).Error
	if err != nil {
		return nil, err
	}
	return orders, nil
}
