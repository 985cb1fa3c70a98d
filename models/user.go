package models

import (
	"context"
	"errors"
	"time"

	"github.com/chefcloud/nimbus_backend/config"
	"github.com/chefcloud/nimbus_backend/utils"
)

type User struct {
	ID             int       `gorm:"primary_key" json:"id"`
	OrganizationId string    `gorm:"size:36;index;not null" json:"organization_id"`
	Email          string    `gorm:"size:100;uniqueIndex;not null" json:"email"`
	Name           string    `gorm:"size:100" json:"name"`
	PasswordHash   string    `gorm:"size:100;not null" json:"-"`
	Role           UserRole  `gorm:"size:20;not null" json:"role"`
	IsActive       bool      `gorm:"not null;default:true" json:"is_active"`
	CreatedAt      time.Time `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt      time.Time `gorm:"autoUpdateTime" json:"updated_at"`
}

type NewUser struct {
	OrganizationId string   `json:"organization_id" binding:"required"`
	Email          string   `json:"email" binding:"required,email"`
	Name           string   `json:"name"`
	Password       string   `json:"password" binding:"required,min=8"`
	Role           UserRole `json:"role" binding:"required"`
}

func CreateUser(ctx context.Context, input *NewUser) (*User, error) {
	switch input.Role {
	case UserRoleOwner, UserRoleManager, UserRoleStaff:
	default:
		return nil, errors.New("invalid role")
	}

	hashed, err := utils.HashPassword(input.Password)
	if err != nil {
		return nil, err
	}

	user := User{
		OrganizationId: input.OrganizationId,
		Email:          input.Email,
		Name:           input.Name,
		PasswordHash:   string(hashed),
		Role:           input.Role,
		IsActive:       true,
	}

	db := config.GetDB()
	if err := db.WithContext(ctx).Create(&user).Error; err != nil {
		return nil, err
	}
	return &user, nil
}

func GetUserByEmail(ctx context.Context, email string) (*User, error) {
	db := config.GetDB()
	var user User
	if err := db.WithContext(ctx).Where("email = ? AND is_active = ?", email, true).First(&user).Error; err != nil {
		return nil, utils.ErrorRecordNotFound
	}
	return &user, nil
}
