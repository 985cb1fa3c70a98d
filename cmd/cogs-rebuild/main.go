// cogs-rebuild replays depletion recording for completed orders in a date
// range. Recording is idempotent, so re-running over already-depleted orders
// is a no-op; the tool exists to backfill orders whose depletion trigger was
// lost (crashed worker, skipped webhook).
package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/chefcloud/nimbus_backend/config"
	"github.com/chefcloud/nimbus_backend/models"
	"github.com/chefcloud/nimbus_backend/utils"
	"github.com/chefcloud/nimbus_backend/workflow"
	"github.com/sirupsen/logrus"
)

func main() {
	organizationID := flag.String("org-id", "", "Required: organization id (uuid)")
	fromDateStr := flag.String("from", "", "Required: rebuild from date (YYYY-MM-DD), inclusive")
	toDateStr := flag.String("to", "", "Required: rebuild to date (YYYY-MM-DD), exclusive")
	continueOnError := flag.Bool("continue-on-error", false, "Skip failing orders and continue")
	flag.Parse()

	if strings.TrimSpace(*organizationID) == "" {
		fmt.Fprintln(os.Stderr, "--org-id is required")
		os.Exit(1)
	}
	from, err := time.Parse("2006-01-02", strings.TrimSpace(*fromDateStr))
	if err != nil {
		fmt.Fprintf(os.Stderr, "invalid from date: %v\n", err)
		os.Exit(1)
	}
	to, err := time.Parse("2006-01-02", strings.TrimSpace(*toDateStr))
	if err != nil {
		fmt.Fprintf(os.Stderr, "invalid to date: %v\n", err)
		os.Exit(1)
	}
	if !from.Before(to) {
		fmt.Fprintln(os.Stderr, "--from must be before --to")
		os.Exit(1)
	}

	config.ConnectDatabaseWithRetry()
	db := config.GetDB()
	if db == nil {
		fmt.Fprintln(os.Stderr, "database not initialized")
		os.Exit(1)
	}
	logger := logrus.New()

	ctx := context.Background()
	ctx = utils.SetOrganizationIdInContext(ctx, *organizationID)
	ctx = utils.SetUserNameInContext(ctx, "cogs-rebuild")

	// Fail fast on a typo'd org id instead of reporting zero orders.
	if _, err := models.GetOrganizationById(ctx, *organizationID); err != nil {
		fmt.Fprintf(os.Stderr, "organization %s not found: %v\n", *organizationID, err)
		os.Exit(1)
	}

	orders, err := models.GetCompletedOrdersBetween(db.WithContext(ctx), *organizationID, from, to)
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to list orders: %v\n", err)
		os.Exit(1)
	}
	fmt.Printf("found %d completed orders in [%s, %s)\n", len(orders), from.Format("2006-01-02"), to.Format("2006-01-02"))

	var created, skipped, failed int
	for _, order := range orders {
		result, err := workflow.RecordOrderDepletion(ctx, order.ID)
		if err != nil {
			failed++
			config.LogError(logger, "cogs-rebuild", "main", "workflow.RecordOrderDepletion",
				map[string]interface{}{"order_id": order.ID}, err)
			if !*continueOnError {
				os.Exit(1)
			}
			continue
		}
		created += result.Created
		if result.Created == 0 {
			skipped++
		}
	}

	fmt.Printf("done: %d breakdown lines created, %d orders already depleted, %d failed\n", created, skipped, failed)
	if failed > 0 {
		os.Exit(1)
	}
}
