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

// InventoryItem carries the running weighted-average cost used for COGS.
// AvgUnitCost is updated on every stock receipt; depletions consume at the
// current WAC without changing it.
type InventoryItem struct {
	ID             int             `gorm:"primary_key" json:"id"`
	OrganizationId string          `gorm:"size:36;index;not null" json:"organization_id"`
	Name           string          `gorm:"size:100;not null" json:"name"`
	Sku            string          `gorm:"size:100;index" json:"sku"`
	StockQty       decimal.Decimal `gorm:"type:decimal(20,4);default:0" json:"stock_qty"`
	AvgUnitCost    decimal.Decimal `gorm:"type:decimal(20,4);default:0" json:"avg_unit_cost"`
	CreatedAt      time.Time       `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt      time.Time       `gorm:"autoUpdateTime" json:"updated_at"`
}

// StockReceipt is a receipt line: incoming quantity at a unit cost.
// Receipts are accounting-derived and therefore period-guarded.
type StockReceipt struct {
	ID             int             `gorm:"primary_key" json:"id"`
	OrganizationId string          `gorm:"size:36;index;not null" json:"organization_id"`
	ItemId         int             `gorm:"index;not null" json:"item_id"`
	Qty            decimal.Decimal `gorm:"type:decimal(20,4);not null" json:"qty"`
	UnitCost       decimal.Decimal `gorm:"type:decimal(20,4);not null" json:"unit_cost"`
	ReceivedAt     time.Time       `gorm:"not null;index" json:"received_at"`
	CreatedAt      time.Time       `gorm:"autoCreateTime" json:"created_at"`
}

type NewInventoryItem struct {
	Name string `json:"name" binding:"required"`
	Sku  string `json:"sku"`
}

type NewStockReceipt struct {
	Qty        decimal.Decimal `json:"qty" binding:"required"`
	UnitCost   decimal.Decimal `json:"unitCost" binding:"required"`
	ReceivedAt *time.Time      `json:"receivedAt"`
}

func CreateInventoryItem(ctx context.Context, input *NewInventoryItem) (*InventoryItem, error) {
	organizationId, ok := utils.GetOrganizationIdFromContext(ctx)
	if !ok || organizationId == "" {
		return nil, errors.New("organization id is required")
	}

	item := InventoryItem{
		OrganizationId: organizationId,
		Name:           input.Name,
		Sku:            input.Sku,
		StockQty:       decimal.Zero,
		AvgUnitCost:    decimal.Zero,
	}
	db := config.GetDB()
	if err := db.WithContext(ctx).Create(&item).Error; err != nil {
		return nil, err
	}
	return &item, nil
}

func GetInventoryItem(ctx context.Context, id int) (*InventoryItem, error) {
	organizationId, ok := utils.GetOrganizationIdFromContext(ctx)
	if !ok || organizationId == "" {
		return nil, errors.New("organization id is required")
	}

	db := config.GetDB()
	var item InventoryItem
	err := db.WithContext(ctx).Where("organization_id = ?", organizationId).First(&item, id).Error
	if err != nil {
		return nil, utils.ErrorRecordNotFound
	}
	return &item, nil
}

func GetInventoryItems(ctx context.Context) ([]*InventoryItem, error) {
	organizationId, ok := utils.GetOrganizationIdFromContext(ctx)
	if !ok || organizationId == "" {
		return nil, errors.New("organization id is required")
	}

	db := config.GetDB()
	var items []*InventoryItem
	err := db.WithContext(ctx).
		Where("organization_id = ?", organizationId).
		Order("id ASC").
		Find(&items).Error
	if err != nil {
		return nil, err
	}
	return items, nil
}

// nextWeightedAverageCost folds one receipt into the running WAC.
func nextWeightedAverageCost(currentQty, currentAvg, receiptQty, receiptCost decimal.Decimal) decimal.Decimal {
	newQty := currentQty.Add(receiptQty)
	if newQty.IsZero() || newQty.IsNegative() {
		return currentAvg
	}
	totalValue := currentQty.Mul(currentAvg).Add(receiptQty.Mul(receiptCost))
	return totalValue.DivRound(newQty, 4)
}

// ReceiveStock records a receipt line and updates the item's WAC inside one
// transaction. The receipt date is period-guarded; a denial is audit-logged
// with the attempted receipt payload before being surfaced.
func ReceiveStock(ctx context.Context, itemId int, input *NewStockReceipt) (*InventoryItem, error) {
	organizationId, ok := utils.GetOrganizationIdFromContext(ctx)
	if !ok || organizationId == "" {
		return nil, errors.New("organization id is required")
	}
	if input.Qty.LessThanOrEqual(decimal.Zero) {
		return nil, errors.New("receipt qty must be positive")
	}
	if input.UnitCost.IsNegative() {
		return nil, errors.New("receipt unit cost cannot be negative")
	}

	receivedAt := utils.DereferencePtr(input.ReceivedAt, time.Now()).UTC()

	var updated InventoryItem
	db := config.GetDB()
	err := db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var item InventoryItem
		if err := tx.Where("organization_id = ?", organizationId).First(&item, itemId).Error; err != nil {
			return utils.ErrorRecordNotFound
		}

		if err := ValidatePeriodOpen(tx, organizationId, receivedAt); err != nil {
			actorId, _ := utils.GetUserIdFromContext(ctx)
			actorRole, _ := utils.GetUserRoleFromContext(ctx)
			LogViolation(ctx, organizationId, actorId, actorRole,
				AuditEntityReceiptLine, item.ID, AuditOperationCreate, err,
				map[string]interface{}{
					"itemId":     item.ID,
					"qty":        input.Qty.String(),
					"unitCost":   input.UnitCost.String(),
					"receivedAt": receivedAt.Format(time.RFC3339),
				})
			return err
		}

		receipt := StockReceipt{
			OrganizationId: organizationId,
			ItemId:         item.ID,
			Qty:            input.Qty,
			UnitCost:       input.UnitCost,
			ReceivedAt:     receivedAt,
		}
		if err := tx.Create(&receipt).Error; err != nil {
			return err
		}

		newAvg := nextWeightedAverageCost(item.StockQty, item.AvgUnitCost, input.Qty, input.UnitCost)
		newQty := item.StockQty.Add(input.Qty)
		if err := tx.Model(&InventoryItem{}).Where("id = ?", item.ID).
			Updates(map[string]interface{}{
				"stock_qty":     newQty,
				"avg_unit_cost": newAvg,
			}).Error; err != nil {
			return err
		}

		item.StockQty = newQty
		item.AvgUnitCost = newAvg
		updated = item
		return nil
	})
	if err != nil {
		return nil, err
	}
	return &updated, nil
}
