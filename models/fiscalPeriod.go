package models

import (
	"context"
	"errors"
	"time"

	"github.com/chefcloud/nimbus_backend/config"
	"github.com/chefcloud/nimbus_backend/utils"
	"gorm.io/gorm"
)

// FiscalPeriod is an organization-scoped date range gating accounting mutations.
// Boundaries are half-open [StartsAt, EndsAt): a date equal to EndsAt belongs
// to the next period. Periods are never deleted (audit permanence).
type FiscalPeriod struct {
	ID             int                `gorm:"primary_key" json:"id"`
	OrganizationId string             `gorm:"size:36;index;not null" json:"organization_id"`
	Name           string             `gorm:"size:100;not null" json:"name"`
	StartsAt       time.Time          `gorm:"not null;index" json:"starts_at"`
	EndsAt         time.Time          `gorm:"not null;index" json:"ends_at"`
	Status         FiscalPeriodStatus `gorm:"size:10;not null;default:OPEN" json:"status"`
	ClosedBy       *int               `json:"closed_by"`
	ClosedAt       *time.Time         `json:"closed_at"`
	CreatedAt      time.Time          `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt      time.Time          `gorm:"autoUpdateTime" json:"updated_at"`
}

type NewFiscalPeriod struct {
	Name     string    `json:"name" binding:"required"`
	StartsAt time.Time `json:"startsAt" binding:"required"`
	EndsAt   time.Time `json:"endsAt" binding:"required"`
}

func (input *NewFiscalPeriod) validate(ctx context.Context, organizationId string) error {
	if !input.StartsAt.Before(input.EndsAt) {
		return errors.New("startsAt must be before endsAt")
	}

	// The source system never defined which period wins when ranges overlap,
	// so overlaps are rejected outright at creation time.
	db := config.GetDB()
	var count int64
	err := db.WithContext(ctx).Model(&FiscalPeriod{}).
		Where("organization_id = ? AND starts_at < ? AND ends_at > ?",
			organizationId, input.EndsAt, input.StartsAt).
		Count(&count).Error
	if err != nil {
		return err
	}
	if count > 0 {
		return errors.New("period overlaps an existing fiscal period")
	}
	return nil
}

func CreateFiscalPeriod(ctx context.Context, input *NewFiscalPeriod) (*FiscalPeriod, error) {
	organizationId, ok := utils.GetOrganizationIdFromContext(ctx)
	if !ok || organizationId == "" {
		return nil, errors.New("organization id is required")
	}
	if err := input.validate(ctx, organizationId); err != nil {
		return nil, err
	}

	period := FiscalPeriod{
		OrganizationId: organizationId,
		Name:           input.Name,
		StartsAt:       input.StartsAt.UTC(),
		EndsAt:         input.EndsAt.UTC(),
		Status:         FiscalPeriodStatusOpen,
	}

	db := config.GetDB()
	if err := db.WithContext(ctx).Create(&period).Error; err != nil {
		return nil, err
	}
	return &period, nil
}

func GetFiscalPeriod(ctx context.Context, id int) (*FiscalPeriod, error) {
	organizationId, ok := utils.GetOrganizationIdFromContext(ctx)
	if !ok || organizationId == "" {
		return nil, errors.New("organization id is required")
	}

	db := config.GetDB()
	var period FiscalPeriod
	err := db.WithContext(ctx).
		Where("organization_id = ?", organizationId).
		First(&period, id).Error
	if err != nil {
		return nil, utils.ErrorRecordNotFound
	}
	return &period, nil
}

func GetFiscalPeriods(ctx context.Context) ([]*FiscalPeriod, error) {
	organizationId, ok := utils.GetOrganizationIdFromContext(ctx)
	if !ok || organizationId == "" {
		return nil, errors.New("organization id is required")
	}

	db := config.GetDB()
	var periods []*FiscalPeriod
	err := db.WithContext(ctx).
		Where("organization_id = ?", organizationId).
		Order("starts_at ASC").
		Find(&periods).Error
	if err != nil {
		return nil, err
	}
	return periods, nil
}

// CloseFiscalPeriod transitions OPEN -> CLOSED. Closing an already-closed
// period is a no-op: status stays CLOSED and the original close metadata is kept.
func CloseFiscalPeriod(ctx context.Context, id int) (*FiscalPeriod, error) {
	return transitionFiscalPeriod(ctx, id, FiscalPeriodStatusClosed)
}

// ReopenFiscalPeriod transitions CLOSED -> OPEN. After reopening, mutations
// dated inside the period pass the period guard again.
func ReopenFiscalPeriod(ctx context.Context, id int) (*FiscalPeriod, error) {
	return transitionFiscalPeriod(ctx, id, FiscalPeriodStatusOpen)
}

func transitionFiscalPeriod(ctx context.Context, id int, target FiscalPeriodStatus) (*FiscalPeriod, error) {
	period, err := GetFiscalPeriod(ctx, id)
	if err != nil {
		return nil, err
	}
	if period.Status == target {
		return period, nil
	}

	userId, _ := utils.GetUserIdFromContext(ctx)

	db := config.GetDB()
	updates := map[string]interface{}{"status": target}
	if target == FiscalPeriodStatusClosed {
		now := time.Now().UTC()
		updates["closed_by"] = userId
		updates["closed_at"] = now
	} else {
		updates["closed_by"] = nil
		updates["closed_at"] = nil
	}
	err = db.WithContext(ctx).Model(&FiscalPeriod{}).
		Where("id = ?", period.ID).
		Updates(updates).Error
	if err != nil {
		return nil, err
	}
	return GetFiscalPeriod(ctx, id)
}

// findCoveringPeriods returns all periods of the org covering the given date,
// evaluated inside the caller's transaction so a concurrent close cannot race
// a guarded write.
func findCoveringPeriods(tx *gorm.DB, organizationId string, date time.Time) ([]*FiscalPeriod, error) {
	var periods []*FiscalPeriod
	err := tx.Model(&FiscalPeriod{}).
		Where("organization_id = ? AND starts_at <= ? AND ends_at > ?", organizationId, date, date).
		Order("id ASC").
		Find(&periods).Error
	if err != nil {
		return nil, err
	}
	return periods, nil
}
