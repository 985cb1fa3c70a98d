package models

import (
	"time"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// OrderInventoryDepletion records that inventory was consumed for a completed
// order. At most one depletion exists per order (unique index); re-running the
// recorder reuses the existing row.
type OrderInventoryDepletion struct {
	ID             int             `gorm:"primary_key" json:"id"`
	OrganizationId string          `gorm:"size:36;index;not null" json:"organization_id"`
	OrderId        int             `gorm:"uniqueIndex;not null" json:"order_id"`
	Branch         string          `gorm:"size:100" json:"branch"`
	Status         DepletionStatus `gorm:"size:15;not null" json:"status"`
	PostedAt       time.Time       `gorm:"not null;index" json:"posted_at"`
	CreatedAt      time.Time       `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt      time.Time       `gorm:"autoUpdateTime" json:"updated_at"`
}

// DepletionCostBreakdown is one COGS line: qty consumed at the weighted
// average cost captured at computation time. The (depletion_id, item_id)
// unique index is the natural key that makes recomputation a no-op. The
// index, not a pre-check, is what closes the check-then-insert race.
type DepletionCostBreakdown struct {
	ID             int             `gorm:"primary_key" json:"id"`
	OrganizationId string          `gorm:"size:36;index;not null" json:"organization_id"`
	DepletionId    int             `gorm:"not null;index:uniq_depletion_item,unique" json:"depletion_id"`
	ItemId         int             `gorm:"not null;index:uniq_depletion_item,unique" json:"item_id"`
	OrderId        int             `gorm:"index;not null" json:"order_id"`
	QtyDepleted    decimal.Decimal `gorm:"type:decimal(20,4);not null" json:"qty_depleted"`
	UnitCost       decimal.Decimal `gorm:"type:decimal(20,4);not null" json:"unit_cost"`
	LineCogs       decimal.Decimal `gorm:"type:decimal(20,4);not null" json:"line_cogs"`
	PostedAt       time.Time       `gorm:"not null;index" json:"posted_at"`
	CreatedAt      time.Time       `gorm:"autoCreateTime" json:"created_at"`
}

// FindDepletionByOrder returns the order's depletion row inside the caller's
// transaction, or nil when none exists yet.
func FindDepletionByOrder(tx *gorm.DB, organizationId string, orderId int) (*OrderInventoryDepletion, error) {
	var depletion OrderInventoryDepletion
	err := tx.Where("organization_id = ? AND order_id = ?", organizationId, orderId).
		First(&depletion).Error
	if err != nil {
		if err == gorm.ErrRecordNotFound {
			return nil, nil
		}
		return nil, err
	}
	return &depletion, nil
}

// BreakdownExists reports whether a cost line already exists for the natural
// key (depletionId, itemId).
func BreakdownExists(tx *gorm.DB, depletionId, itemId int) (bool, error) {
	var count int64
	err := tx.Model(&DepletionCostBreakdown{}).
		Where("depletion_id = ? AND item_id = ?", depletionId, itemId).
		Count(&count).Error
	if err != nil {
		return false, err
	}
	return count > 0, nil
}
