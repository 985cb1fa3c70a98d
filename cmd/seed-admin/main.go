// seed-admin provisions an organization and its owner account. Intended for
// initial deployment bootstrap when self-registration is disabled.
//
// Usage (from backend directory):
//
//	DB_USER=... DB_PASSWORD=... DB_HOST=... DB_PORT=... DB_NAME=... \
//	SEED_ORG_NAME="Demo Kitchen" SEED_ADMIN_EMAIL=admin@example.com \
//	SEED_ADMIN_PASSWORD=... go run ./cmd/seed-admin
package main

import (
	"context"
	"fmt"
	"os"

	"github.com/chefcloud/nimbus_backend/config"
	"github.com/chefcloud/nimbus_backend/models"
	"github.com/chefcloud/nimbus_backend/utils"
	"gorm.io/gorm"
)

func envOr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func main() {
	ctx := context.Background()
	config.ConnectDatabaseWithRetry()
	config.ConnectRedisWithRetry()
	db := config.GetDB()
	if db == nil {
		fmt.Fprintln(os.Stderr, "database not initialized (config.GetDB returned nil). Set DB_* env vars.")
		os.Exit(1)
	}

	orgName := envOr("SEED_ORG_NAME", "Nimbus Demo")
	timezone := envOr("SEED_ORG_TIMEZONE", "UTC")
	email := envOr("SEED_ADMIN_EMAIL", "admin@nimbus.local")
	password := os.Getenv("SEED_ADMIN_PASSWORD")
	if password == "" {
		fmt.Fprintln(os.Stderr, "SEED_ADMIN_PASSWORD is required")
		os.Exit(1)
	}

	// Reuse the org by name so the seeder is safe to re-run.
	var org models.Organization
	err := db.WithContext(ctx).Where("name = ?", orgName).First(&org).Error
	if err == gorm.ErrRecordNotFound {
		created, createErr := models.CreateOrganization(ctx, &models.NewOrganization{
			Name:     orgName,
			Timezone: timezone,
		})
		if createErr != nil {
			fmt.Fprintf(os.Stderr, "failed to create organization: %v\n", createErr)
			os.Exit(1)
		}
		org = *created
		fmt.Printf("created organization %q (id=%s)\n", org.Name, org.ID)
	} else if err != nil {
		fmt.Fprintf(os.Stderr, "failed to lookup organization: %v\n", err)
		os.Exit(1)
	} else {
		fmt.Printf("organization %q already exists (id=%s)\n", org.Name, org.ID)
		if org.Timezone != timezone {
			if err := db.WithContext(ctx).Model(&org).Update("timezone", timezone).Error; err != nil {
				fmt.Fprintf(os.Stderr, "failed to update organization timezone: %v\n", err)
				os.Exit(1)
			}
			// A running server may still hold the old row in its redis cache.
			_ = config.RemoveRedisKey("org:" + org.ID)
			fmt.Printf("updated organization timezone to %s\n", timezone)
		}
	}

	hashed, err := utils.HashPassword(password)
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to hash password: %v\n", err)
		os.Exit(1)
	}

	var existing models.User
	err = db.WithContext(ctx).Where("email = ?", email).First(&existing).Error
	if err == gorm.ErrRecordNotFound {
		user := models.User{
			OrganizationId: org.ID,
			Email:          email,
			Name:           envOr("SEED_ADMIN_NAME", "Owner"),
			PasswordHash:   string(hashed),
			Role:           models.UserRoleOwner,
		}
		if createErr := db.WithContext(ctx).Create(&user).Error; createErr != nil {
			fmt.Fprintf(os.Stderr, "failed to create owner user: %v\n", createErr)
			os.Exit(1)
		}
		fmt.Printf("created owner user %s (id=%d)\n", user.Email, user.ID)
	} else if err != nil {
		fmt.Fprintf(os.Stderr, "failed to lookup user: %v\n", err)
		os.Exit(1)
	} else {
		existing.PasswordHash = string(hashed)
		existing.Role = models.UserRoleOwner
		if saveErr := db.WithContext(ctx).Save(&existing).Error; saveErr != nil {
			fmt.Fprintf(os.Stderr, "failed to update owner user: %v\n", saveErr)
			os.Exit(1)
		}
		fmt.Printf("updated owner user %s (id=%d)\n", existing.Email, existing.ID)
	}
}
