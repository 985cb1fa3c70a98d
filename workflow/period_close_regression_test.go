package workflow

import (
	"context"
	"encoding/json"
	"errors"
	"os"
	"strconv"
	"strings"
	"testing"
	"time"

	"github.com/chefcloud/nimbus_backend/config"
	"github.com/chefcloud/nimbus_backend/models"
	"github.com/chefcloud/nimbus_backend/models/reports"
	"github.com/chefcloud/nimbus_backend/utils"
)

// Regression: closing a period must block depletion recording with a
// structured denial, produce exactly one audit event per attempt, and
// reopening must let the same mutation through. Requires a reachable MySQL
// (DB_USER/DB_PASSWORD/DB_HOST/DB_PORT/DB_NAME) and is skipped by default.
func TestPeriodClose_BlocksDepletion_ReopenRestores(t *testing.T) {
	if strings.TrimSpace(os.Getenv("INTEGRATION_TESTS")) == "" {
		t.Skip("set INTEGRATION_TESTS=1 to run integration tests (requires mysql)")
	}

	config.ConnectDatabaseWithRetry()
	models.MigrateTable()

	ctx := context.Background()
	ctx = utils.SetUserIdInContext(ctx, 1)
	ctx = utils.SetUserNameInContext(ctx, "Test Owner")
	ctx = utils.SetUserRoleInContext(ctx, string(models.UserRoleOwner))
	ctx = utils.SetCorrelationIdInContext(ctx, "corr-period-close-1")

	org, err := models.CreateOrganization(ctx, &models.NewOrganization{
		Name:     "Period Close Diner",
		Timezone: "UTC",
	})
	if err != nil {
		t.Fatalf("CreateOrganization: %v", err)
	}
	ctx = utils.SetOrganizationIdInContext(ctx, org.ID)

	item, err := models.CreateInventoryItem(ctx, &models.NewInventoryItem{Name: "Coffee Beans", Sku: "CB-001"})
	if err != nil {
		t.Fatalf("CreateInventoryItem: %v", err)
	}

	receivedAt := time.Date(2025, 6, 2, 10, 0, 0, 0, time.UTC)
	if _, err := models.ReceiveStock(ctx, item.ID, &models.NewStockReceipt{
		Qty:        dec("100"),
		UnitCost:   dec("15"),
		ReceivedAt: &receivedAt,
	}); err != nil {
		t.Fatalf("ReceiveStock: %v", err)
	}

	postedAt := time.Date(2025, 6, 10, 12, 30, 0, 0, time.UTC)
	order, err := models.CreateOrder(ctx, &models.NewOrder{
		PostedAt: &postedAt,
		Lines:    []models.NewOrderLine{{ItemId: item.ID, Qty: dec("4"), UnitPrice: dec("40")}},
	})
	if err != nil {
		t.Fatalf("CreateOrder: %v", err)
	}

	period, err := models.CreateFiscalPeriod(ctx, &models.NewFiscalPeriod{
		Name:     "June 2025",
		StartsAt: time.Date(2025, 6, 1, 0, 0, 0, 0, time.UTC),
		EndsAt:   time.Date(2025, 7, 1, 0, 0, 0, 0, time.UTC),
	})
	if err != nil {
		t.Fatalf("CreateFiscalPeriod: %v", err)
	}
	if _, err := models.CloseFiscalPeriod(ctx, period.ID); err != nil {
		t.Fatalf("CloseFiscalPeriod: %v", err)
	}

	// Closed period: the recorder must refuse with the structured denial.
	_, err = RecordOrderDepletion(ctx, order.ID)
	var pce *models.PeriodClosedError
	if !errors.As(err, &pce) {
		t.Fatalf("expected PeriodClosedError, got %v", err)
	}
	if pce.Code != models.ReasonCodePeriodClosed || pce.PeriodId != period.ID {
		t.Fatalf("denial lacks period facts: %+v", pce)
	}

	// Exactly one audit event, with a real payload hash and the same period id.
	events, err := models.GetImmutabilityAuditEvents(ctx, models.AuditEventFilter{}, 10)
	if err != nil {
		t.Fatalf("GetImmutabilityAuditEvents: %v", err)
	}
	if len(events) != 1 {
		t.Fatalf("expected exactly 1 audit event, got %d", len(events))
	}
	if len(events[0].PayloadHash) != 64 || events[0].PayloadHash == utils.HashErrorSentinel {
		t.Fatalf("expected 64-hex payload hash, got %q", events[0].PayloadHash)
	}
	if events[0].PeriodId != strconv.Itoa(period.ID) {
		t.Fatalf("audit event period id %s != denial period id %d", events[0].PeriodId, period.ID)
	}
	if events[0].CorrelationId != "corr-period-close-1" {
		t.Fatalf("audit event correlation id %q, want corr-period-close-1", events[0].CorrelationId)
	}

	// The rollback must still leave a durable FAILED trace with the cause.
	var key models.IdempotencyKey
	if err := config.GetDB().
		Where("organization_id = ? AND handler_name = ? AND message_id = ?",
			org.ID, depletionHandlerName, strconv.Itoa(order.ID)).
		First(&key).Error; err != nil {
		t.Fatalf("expected idempotency key after denied recording: %v", err)
	}
	if key.Status != models.IdempotencyStatusFailed {
		t.Fatalf("idempotency status %s, want FAILED", key.Status)
	}
	if key.LastError == nil || !strings.Contains(*key.LastError, models.ReasonCodePeriodClosed) {
		t.Fatalf("last_error should carry the denial reason, got %v", key.LastError)
	}

	// Reopen: the same mutation now succeeds.
	if _, err := models.ReopenFiscalPeriod(ctx, period.ID); err != nil {
		t.Fatalf("ReopenFiscalPeriod: %v", err)
	}
	first, err := RecordOrderDepletion(ctx, order.ID)
	if err != nil {
		t.Fatalf("RecordOrderDepletion after reopen: %v", err)
	}
	if first.Created != 1 {
		t.Fatalf("expected 1 created breakdown line, got %d", first.Created)
	}
	if err := config.GetDB().
		Where("organization_id = ? AND handler_name = ? AND message_id = ?",
			org.ID, depletionHandlerName, strconv.Itoa(order.ID)).
		First(&key).Error; err != nil {
		t.Fatalf("reload idempotency key: %v", err)
	}
	if key.Status != models.IdempotencyStatusSucceeded {
		t.Fatalf("idempotency status after success %s, want SUCCEEDED", key.Status)
	}

	// Re-running the recorder must not duplicate breakdown rows.
	second, err := RecordOrderDepletion(ctx, order.ID)
	if err != nil {
		t.Fatalf("RecordOrderDepletion re-run: %v", err)
	}
	if second.Created != 0 {
		t.Fatalf("re-run created %d new rows, want 0", second.Created)
	}
	if len(second.Lines) != len(first.Lines) {
		t.Fatalf("re-run changed line count: %d -> %d", len(first.Lines), len(second.Lines))
	}

	// COGS report is deterministic and byte-stable across repeats.
	from := time.Date(2025, 6, 1, 0, 0, 0, 0, time.UTC)
	to := time.Date(2025, 7, 1, 0, 0, 0, 0, time.UTC)
	r1, err := reports.GetCogsReport(ctx, from, to)
	if err != nil {
		t.Fatalf("GetCogsReport: %v", err)
	}
	r2, err := reports.GetCogsReport(ctx, from, to)
	if err != nil {
		t.Fatalf("GetCogsReport repeat: %v", err)
	}
	b1, _ := json.Marshal(r1)
	b2, _ := json.Marshal(r2)
	if string(b1) != string(b2) {
		t.Fatal("repeated COGS queries over unchanged data must be byte-identical")
	}
	if r1.LineCount != 1 || !r1.TotalCogs.Equal(dec("60")) {
		t.Fatalf("unexpected COGS: count=%d total=%s", r1.LineCount, r1.TotalCogs)
	}
}
