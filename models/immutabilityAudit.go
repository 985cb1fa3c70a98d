package models

import (
	"context"
	"errors"
	"strconv"
	"time"

	"github.com/chefcloud/nimbus_backend/config"
	"github.com/chefcloud/nimbus_backend/utils"
	"gorm.io/gorm"
)

// ImmutabilityAuditEvent is one append-only row per denied mutation attempt
// against closed-period data. It is the audit trail of attempted tampering:
// never updated, never deleted. Period boundaries are denormalized because the
// period's own state may later change (reopen/re-close).
type ImmutabilityAuditEvent struct {
	ID             int             `gorm:"primary_key" json:"id"`
	OrganizationId string          `gorm:"size:36;index;not null" json:"organization_id"`
	ActorId        int             `gorm:"index;not null" json:"actor_id"`
	ActorRole      string          `gorm:"size:20" json:"actor_role"`
	EntityType     AuditEntityType `gorm:"size:40;index;not null" json:"entity_type"`
	EntityId       int             `gorm:"index" json:"entity_id"`
	Operation      AuditOperation  `gorm:"size:15;not null" json:"operation"`
	PeriodId       string          `gorm:"size:36;index;not null" json:"period_id"`
	PeriodStart    time.Time       `gorm:"not null" json:"period_start"`
	PeriodEnd      time.Time       `gorm:"not null" json:"period_end"`
	ReasonCode     string          `gorm:"size:40;not null" json:"reason_code"`
	PayloadHash    string          `gorm:"size:64;not null" json:"payload_hash"`
	ClientIP       string          `gorm:"size:45" json:"client_ip"`
	UserAgent      string          `gorm:"size:255" json:"user_agent"`
	CorrelationId  string          `gorm:"size:36" json:"correlation_id"`
	CreatedAt      time.Time       `gorm:"autoCreateTime;index" json:"created_at"`
}

// Sentinel values used when the denial error lacks the expected shape.
// Audit logging is best-effort: it must never throw and never block the
// primary failure path, so missing facts degrade instead of failing.
const auditUnknownPeriodId = "UNKNOWN"

type violationDetails struct {
	PeriodId    string
	PeriodStart time.Time
	PeriodEnd   time.Time
	ReasonCode  string
}

func violationDetailsFromError(err error) violationDetails {
	details := violationDetails{
		PeriodId:    auditUnknownPeriodId,
		PeriodStart: time.Unix(0, 0).UTC(),
		PeriodEnd:   time.Unix(0, 0).UTC(),
		ReasonCode:  ReasonCodePeriodClosed,
	}

	var pce *PeriodClosedError
	if errors.As(err, &pce) {
		if pce.PeriodId > 0 {
			details.PeriodId = strconv.Itoa(pce.PeriodId)
		}
		details.PeriodStart = pce.PeriodStart
		details.PeriodEnd = pce.PeriodEnd
		if pce.Code != "" {
			details.ReasonCode = pce.Code
		}
	}
	return details
}

// LogViolation persists one forensic record of a denied mutation attempt.
// A persistence failure is swallowed and logged as a warning: auditing must
// never mask or replace the original error the caller is propagating.
func LogViolation(ctx context.Context,
	organizationId string,
	actorId int,
	actorRole string,
	entityType AuditEntityType,
	entityId int,
	operation AuditOperation,
	denial error,
	payload interface{}) {

	details := violationDetailsFromError(denial)

	event := ImmutabilityAuditEvent{
		OrganizationId: organizationId,
		ActorId:        actorId,
		ActorRole:      actorRole,
		EntityType:     entityType,
		EntityId:       entityId,
		Operation:      operation,
		PeriodId:       details.PeriodId,
		PeriodStart:    details.PeriodStart,
		PeriodEnd:      details.PeriodEnd,
		ReasonCode:     details.ReasonCode,
		PayloadHash:    utils.HashPayload(payload),
	}
	if ip, ok := utils.GetClientIPFromContext(ctx); ok {
		event.ClientIP = ip
	}
	if ua, ok := utils.GetUserAgentFromContext(ctx); ok {
		event.UserAgent = ua
	}
	if cid, ok := utils.GetCorrelationIdFromContext(ctx); ok {
		event.CorrelationId = cid
	}

	db := config.GetDB()
	if db == nil {
		config.LogError(config.GetLogger(), "immutabilityAudit.go", "LogViolation", "config.GetDB",
			map[string]interface{}{
				"organization_id": organizationId,
				"entity_type":     entityType,
				"operation":       operation,
			}, errors.New("immutability audit write skipped: database not initialized"))
		return
	}
	if err := db.WithContext(ctx).Create(&event).Error; err != nil {
		config.LogError(config.GetLogger(), "immutabilityAudit.go", "LogViolation", "db.Create",
			map[string]interface{}{
				"organization_id": organizationId,
				"actor_id":        actorId,
				"entity_type":     entityType,
				"entity_id":       entityId,
				"operation":       operation,
				"period_id":       details.PeriodId,
			}, err)
	}
}

type AuditEventFilter struct {
	ActorId    *int
	EntityType *AuditEntityType
	EntityId   *int
	PeriodId   *string
	FromDate   *time.Time
	ToDate     *time.Time
}

const defaultAuditQueryLimit = 100

// GetImmutabilityAuditEvents returns matching events newest-first, capped at
// limit (default 100).
func GetImmutabilityAuditEvents(ctx context.Context, filter AuditEventFilter, limit int) ([]*ImmutabilityAuditEvent, error) {
	organizationId, ok := utils.GetOrganizationIdFromContext(ctx)
	if !ok || organizationId == "" {
		return nil, errors.New("organization id is required")
	}
	if limit <= 0 {
		limit = defaultAuditQueryLimit
	}

	db := config.GetDB()
	dbCtx := db.WithContext(ctx).Where("organization_id = ?", organizationId)
	if filter.ActorId != nil && *filter.ActorId > 0 {
		dbCtx = dbCtx.Where("actor_id = ?", *filter.ActorId)
	}
	if filter.EntityType != nil && *filter.EntityType != "" {
		dbCtx = dbCtx.Where("entity_type = ?", *filter.EntityType)
	}
	if filter.EntityId != nil && *filter.EntityId > 0 {
		dbCtx = dbCtx.Where("entity_id = ?", *filter.EntityId)
	}
	if filter.PeriodId != nil && *filter.PeriodId != "" {
		dbCtx = dbCtx.Where("period_id = ?", *filter.PeriodId)
	}
	if filter.FromDate != nil {
		dbCtx = dbCtx.Where("created_at >= ?", *filter.FromDate)
	}
	if filter.ToDate != nil {
		dbCtx = dbCtx.Where("created_at < ?", *filter.ToDate)
	}

	var events []*ImmutabilityAuditEvent
	err := dbCtx.Order("created_at DESC, id DESC").Limit(limit).Find(&events).Error
	if err != nil {
		return nil, err
	}
	return events, nil
}

type AuditActorCount struct {
	ActorId int   `json:"actor_id"`
	Count   int64 `json:"count"`
}

type ImmutabilityAuditStats struct {
	Total        int64             `json:"total"`
	ByEntityType map[string]int64  `json:"by_entity_type"`
	ByOperation  map[string]int64  `json:"by_operation"`
	TopActors    []AuditActorCount `json:"top_actors"`
}

// GetImmutabilityAuditStats aggregates the violation trail for an org:
// total count plus breakdowns by entity type, by operation, and the top 10
// actors by violation count.
func GetImmutabilityAuditStats(ctx context.Context, fromDate, toDate *time.Time) (*ImmutabilityAuditStats, error) {
	organizationId, ok := utils.GetOrganizationIdFromContext(ctx)
	if !ok || organizationId == "" {
		return nil, errors.New("organization id is required")
	}

	db := config.GetDB()
	base := func() *gorm.DB {
		dbCtx := db.WithContext(ctx).Model(&ImmutabilityAuditEvent{}).
			Where("organization_id = ?", organizationId)
		if fromDate != nil {
			dbCtx = dbCtx.Where("created_at >= ?", *fromDate)
		}
		if toDate != nil {
			dbCtx = dbCtx.Where("created_at < ?", *toDate)
		}
		return dbCtx
	}

	stats := ImmutabilityAuditStats{
		ByEntityType: map[string]int64{},
		ByOperation:  map[string]int64{},
	}

	if err := base().Count(&stats.Total).Error; err != nil {
		return nil, err
	}

	type bucket struct {
		Key   string `gorm:"column:k"`
		Count int64  `gorm:"column:c"`
	}

	var byEntity []bucket
	if err := base().Select("entity_type AS k, COUNT(*) AS c").
		Group("entity_type").Scan(&byEntity).Error; err != nil {
		return nil, err
	}
	for _, b := range byEntity {
		stats.ByEntityType[b.Key] = b.Count
	}

	var byOp []bucket
	if err := base().Select("operation AS k, COUNT(*) AS c").
		Group("operation").Scan(&byOp).Error; err != nil {
		return nil, err
	}
	for _, b := range byOp {
		stats.ByOperation[b.Key] = b.Count
	}

	var topActors []AuditActorCount
	if err := base().Select("actor_id, COUNT(*) AS count").
		Group("actor_id").Order("count DESC, actor_id ASC").Limit(10).
		Scan(&topActors).Error; err != nil {
		return nil, err
	}
	stats.TopActors = topActors

	return &stats, nil
}
