package models

type FiscalPeriodStatus string

const (
	FiscalPeriodStatusOpen   FiscalPeriodStatus = "OPEN"
	FiscalPeriodStatusClosed FiscalPeriodStatus = "CLOSED"
)

type DepletionStatus string

const (
	DepletionStatusSuccess DepletionStatus = "SUCCESS"
	DepletionStatusFailed  DepletionStatus = "FAILED"
)

type OrderStatus string

const (
	OrderStatusOpen      OrderStatus = "OPEN"
	OrderStatusCompleted OrderStatus = "COMPLETED"
	OrderStatusVoided    OrderStatus = "VOIDED"
)

// AuditEntityType is the closed enumeration of accounting-derived entities
// whose mutations are guarded by fiscal periods.
type AuditEntityType string

const (
	AuditEntityCostBreakdown AuditEntityType = "DEPLETION_COST_BREAKDOWN"
	AuditEntityDepletion     AuditEntityType = "ORDER_INVENTORY_DEPLETION"
	AuditEntityReceiptLine   AuditEntityType = "RECEIPT_LINE"
)

type AuditOperation string

const (
	AuditOperationCreate     AuditOperation = "CREATE"
	AuditOperationUpdate     AuditOperation = "UPDATE"
	AuditOperationDelete     AuditOperation = "DELETE"
	AuditOperationSoftDelete AuditOperation = "SOFT_DELETE"
	AuditOperationRestore    AuditOperation = "RESTORE"
)

// ReasonCodePeriodClosed is the stable machine-readable denial code carried by
// both the guard error and the audit trail.
const ReasonCodePeriodClosed = "PERIOD_CLOSED_IMMUTABLE"

type UserRole string

const (
	UserRoleOwner   UserRole = "owner"
	UserRoleManager UserRole = "manager"
	UserRoleStaff   UserRole = "staff"
)
