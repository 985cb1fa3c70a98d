package workflow

import (
	"context"
	"errors"
	"sort"
	"strconv"

	"github.com/chefcloud/nimbus_backend/config"
	"github.com/chefcloud/nimbus_backend/models"
	"github.com/chefcloud/nimbus_backend/utils"
	"github.com/shopspring/decimal"
	"go.opentelemetry.io/otel"
	"gorm.io/gorm"
)

var tracer = otel.Tracer("nimbus-depletion")

const depletionHandlerName = "OrderDepletion"

type DepletionResult struct {
	Depletion *models.OrderInventoryDepletion  `json:"depletion"`
	Lines     []*models.DepletionCostBreakdown `json:"lines"`
	Created   int                              `json:"created"`
	Skipped   int                              `json:"skipped"`
}

// itemConsumption is one (item, qty) consumption merged across order lines:
// an order may sell the same item on several lines, but the cost breakdown is
// keyed by (depletion, item).
type itemConsumption struct {
	ItemId int
	Qty    decimal.Decimal
}

func mergeOrderLines(lines []models.OrderLine) []itemConsumption {
	byItem := map[int]decimal.Decimal{}
	for _, line := range lines {
		byItem[line.ItemId] = byItem[line.ItemId].Add(line.Qty)
	}
	merged := make([]itemConsumption, 0, len(byItem))
	for itemId, qty := range byItem {
		merged = append(merged, itemConsumption{ItemId: itemId, Qty: qty})
	}
	sort.Slice(merged, func(i, j int) bool { return merged[i].ItemId < merged[j].ItemId })
	return merged
}

// lineCogs computes qty x unitCost at breakdown precision.
func lineCogs(qty, unitCost decimal.Decimal) decimal.Decimal {
	return qty.Mul(unitCost).Round(4)
}

// RecordOrderDepletion computes and persists the per-item COGS breakdown for a
// completed order. It is safe to re-run: the (depletion_id, item_id) natural
// key plus the durable idempotency key make re-execution a no-op.
//
// Guard check and writes share one transaction; a concurrent period close
// cannot land between them. The immutability audit write on denial happens on
// a separate connection so it survives this transaction's rollback.
func RecordOrderDepletion(ctx context.Context, orderId int) (*DepletionResult, error) {
	ctx, span := tracer.Start(ctx, "RecordOrderDepletion")
	defer span.End()

	organizationId, ok := utils.GetOrganizationIdFromContext(ctx)
	if !ok || organizationId == "" {
		return nil, errors.New("organization id is required")
	}

	var result DepletionResult
	db := config.GetDB()
	err := db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := AcquireOrgPostingLock(tx, organizationId); err != nil {
			return err
		}
		defer ReleaseOrgPostingLock(tx, organizationId)

		var order models.Order
		if err := tx.Preload("Lines").
			Where("organization_id = ?", organizationId).
			First(&order, orderId).Error; err != nil {
			return utils.ErrorRecordNotFound
		}
		if order.Status != models.OrderStatusCompleted {
			return errors.New("only completed orders can deplete inventory")
		}

		skip, err := BeginIdempotency(tx, organizationId, depletionHandlerName, strconv.Itoa(order.ID))
		if err != nil {
			return err
		}
		if skip {
			return loadExistingBreakdown(tx, organizationId, &order, &result)
		}

		consumptions := mergeOrderLines(order.Lines)

		if err := models.ValidatePeriodOpen(tx, organizationId, order.PostedAt); err != nil {
			actorId, _ := utils.GetUserIdFromContext(ctx)
			actorRole, _ := utils.GetUserRoleFromContext(ctx)
			models.LogViolation(ctx, organizationId, actorId, actorRole,
				models.AuditEntityDepletion, order.ID, models.AuditOperationCreate, err,
				attemptedBreakdownPayload(&order, consumptions))
			return err
		}

		depletion, err := findOrCreateDepletion(tx, organizationId, &order)
		if err != nil {
			return err
		}

		for _, consumption := range consumptions {
			exists, err := models.BreakdownExists(tx, depletion.ID, consumption.ItemId)
			if err != nil {
				return err
			}
			if exists {
				result.Skipped++
				continue
			}

			var item models.InventoryItem
			if err := tx.Where("organization_id = ?", organizationId).
				First(&item, consumption.ItemId).Error; err != nil {
				return utils.ErrorRecordNotFound
			}

			breakdown := models.DepletionCostBreakdown{
				OrganizationId: organizationId,
				DepletionId:    depletion.ID,
				ItemId:         item.ID,
				OrderId:        order.ID,
				QtyDepleted:    consumption.Qty,
				UnitCost:       item.AvgUnitCost,
				LineCogs:       lineCogs(consumption.Qty, item.AvgUnitCost),
				PostedAt:       order.PostedAt,
			}
			if err := tx.Create(&breakdown).Error; err != nil {
				// The unique index is the authority: a concurrent writer got
				// there first, which is exactly the no-op we want.
				if isDuplicateKeyErr(err) {
					result.Skipped++
					continue
				}
				return err
			}
			result.Created++

			if err := tx.Model(&models.InventoryItem{}).
				Where("id = ?", item.ID).
				Update("stock_qty", gorm.Expr("stock_qty - ?", consumption.Qty)).Error; err != nil {
				return err
			}
		}

		if err := MarkIdempotencySucceeded(tx, organizationId, depletionHandlerName, strconv.Itoa(order.ID)); err != nil {
			return err
		}
		return loadExistingBreakdown(tx, organizationId, &order, &result)
	})
	if err != nil {
		// The rollback discarded the STARTED key, so record the failure on a
		// fresh connection. In-progress and not-found are not recording
		// failures: the first would stomp a live run's STARTED row.
		if !errors.Is(err, ErrIdempotencyInProgress) && !errors.Is(err, utils.ErrorRecordNotFound) {
			if markErr := MarkIdempotencyFailed(config.GetDB().WithContext(ctx),
				organizationId, depletionHandlerName, strconv.Itoa(orderId), err); markErr != nil {
				config.LogError(config.GetLogger(), "depletionWorkflow.go", "RecordOrderDepletion",
					"MarkIdempotencyFailed", map[string]interface{}{"order_id": orderId}, markErr)
			}
		}
		return nil, err
	}
	return &result, nil
}

func attemptedBreakdownPayload(order *models.Order, consumptions []itemConsumption) map[string]interface{} {
	lines := make([]map[string]interface{}, 0, len(consumptions))
	for _, c := range consumptions {
		lines = append(lines, map[string]interface{}{
			"itemId": c.ItemId,
			"qty":    c.Qty.String(),
		})
	}
	return map[string]interface{}{
		"orderId":  order.ID,
		"postedAt": order.PostedAt.UTC().Format("2006-01-02T15:04:05Z07:00"),
		"lines":    lines,
	}
}

func findOrCreateDepletion(tx *gorm.DB, organizationId string, order *models.Order) (*models.OrderInventoryDepletion, error) {
	depletion, err := models.FindDepletionByOrder(tx, organizationId, order.ID)
	if err != nil {
		return nil, err
	}
	if depletion != nil {
		return depletion, nil
	}

	depletion = &models.OrderInventoryDepletion{
		OrganizationId: organizationId,
		OrderId:        order.ID,
		Branch:         order.Branch,
		Status:         models.DepletionStatusSuccess,
		PostedAt:       order.PostedAt,
	}
	if err := tx.Create(depletion).Error; err != nil {
		if isDuplicateKeyErr(err) {
			return models.FindDepletionByOrder(tx, organizationId, order.ID)
		}
		return nil, err
	}
	return depletion, nil
}

func loadExistingBreakdown(tx *gorm.DB, organizationId string, order *models.Order, result *DepletionResult) error {
	depletion, err := models.FindDepletionByOrder(tx, organizationId, order.ID)
	if err != nil {
		return err
	}
	result.Depletion = depletion
	if depletion == nil {
		return nil
	}
	return tx.Where("depletion_id = ?", depletion.ID).
		Order("item_id ASC, qty_depleted ASC, id ASC").
		Find(&result.Lines).Error
}
