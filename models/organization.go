package models

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/chefcloud/nimbus_backend/config"
	"github.com/chefcloud/nimbus_backend/utils"
	"github.com/google/uuid"
)

// Organization is the tenant. Every guarded entity is scoped by OrganizationId.
type Organization struct {
	ID        string    `gorm:"size:36;primary_key" json:"id"` // uuid
	Name      string    `gorm:"size:100;not null" json:"name"`
	Phone     string    `gorm:"size:20" json:"phone"`
	Country   string    `gorm:"size:2" json:"country"`
	Timezone  string    `gorm:"size:50" json:"timezone"`
	CreatedAt time.Time `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt time.Time `gorm:"autoUpdateTime" json:"updated_at"`
}

type NewOrganization struct {
	Name     string `json:"name" binding:"required"`
	Phone    string `json:"phone"`
	Country  string `json:"country"`
	Timezone string `json:"timezone"`
}

func CreateOrganization(ctx context.Context, input *NewOrganization) (*Organization, error) {
	if strings.TrimSpace(input.Name) == "" {
		return nil, errors.New("organization name is required")
	}
	if input.Phone != "" {
		country := input.Country
		if country == "" {
			country = "US"
		}
		if err := utils.ValidatePhoneNumber(input.Phone, country); err != nil {
			return nil, err
		}
	}
	timezone := input.Timezone
	if timezone == "" {
		timezone = "UTC"
	}
	if _, err := time.LoadLocation(timezone); err != nil {
		return nil, errors.New("invalid timezone")
	}

	org := Organization{
		ID:       uuid.NewString(),
		Name:     input.Name,
		Phone:    input.Phone,
		Country:  input.Country,
		Timezone: timezone,
	}

	db := config.GetDB()
	if err := db.WithContext(ctx).Create(&org).Error; err != nil {
		return nil, err
	}
	return &org, nil
}

// GetOrganizationById reads through the redis cache; the DB stays the source
// of truth and the cache is best-effort.
func GetOrganizationById(ctx context.Context, organizationId string) (*Organization, error) {
	redisKey := "org:" + organizationId

	var cached Organization
	exists, err := config.GetRedisObject(redisKey, &cached)
	if err == nil && exists {
		return &cached, nil
	}

	db := config.GetDB()
	var org Organization
	if err := db.WithContext(ctx).First(&org, "id = ?", organizationId).Error; err != nil {
		return nil, utils.ErrorRecordNotFound
	}
	_ = config.SetRedisObject(redisKey, &org, 10*time.Minute)
	return &org, nil
}
