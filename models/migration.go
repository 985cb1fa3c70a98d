package models

import "github.com/chefcloud/nimbus_backend/config"

// MigrateTable syncs the schema. Order matters only for readability; gorm
// resolves references by convention.
func MigrateTable() {
	db := config.GetDB()
	err := db.AutoMigrate(
		&Organization{},
		&User{},
		&FiscalPeriod{},
		&InventoryItem{},
		&StockReceipt{},
		&Order{},
		&OrderLine{},
		&OrderInventoryDepletion{},
		&DepletionCostBreakdown{},
		&ImmutabilityAuditEvent{},
		&IdempotencyKey{},
	)
	if err != nil {
		config.LogError(config.GetLogger(), "migration.go", "MigrateTable", "db.AutoMigrate", nil, err)
	}
}
