package db

import (
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/silvanatrade/distributor-portal/internal/models"
	"github.com/silvanatrade/distributor-portal/internal/security"
	log "github.com/sirupsen/logrus"
	"gorm.io/gorm"
)

// Migrate applies the schema for all portal tables.
func Migrate(conn *gorm.DB) error {
	if conn == nil {
		return fmt.Errorf("db: nil connection")
	}
	if errAutoMigrate := conn.AutoMigrate(
		&models.Distributor{},
		&models.User{},
		&models.CurrencyRate{},
		&models.ActivityLog{},
		&models.SalesChannelsReport{},
		&models.PurchaseReport{},
		&models.MediaFile{},
	); errAutoMigrate != nil {
		return fmt.Errorf("db: migrate: %w", errAutoMigrate)
	}
	return nil
}

// SeedSuperAdmin creates the bootstrap SUPER_ADMIN account when no
// active super admin exists. The seed password is treated as already
// chosen by its owner, so the account is not forced to change it.
func SeedSuperAdmin(conn *gorm.DB, email, password string) error {
	email = strings.ToLower(strings.TrimSpace(email))
	if email == "" || strings.TrimSpace(password) == "" {
		return nil
	}

	var count int64
	if errCount := conn.Model(&models.User{}).
		Where("role = ? AND active = ?", models.RoleSuperAdmin, true).
		Count(&count).Error; errCount != nil {
		return fmt.Errorf("db: count super admins: %w", errCount)
	}
	if count > 0 {
		return nil
	}

	hash, errHash := security.HashPassword(password)
	if errHash != nil {
		return fmt.Errorf("db: hash seed password: %w", errHash)
	}

	now := time.Now().UTC()
	admin := models.User{
		ID:                uuid.NewString(),
		Email:             email,
		Password:          hash,
		FirstName:         "Super",
		LastName:          "Admin",
		Role:              models.RoleSuperAdmin,
		Active:            true,
		PasswordChangedAt: &now,
	}
	if errCreate := conn.Create(&admin).Error; errCreate != nil {
		if IsUniqueViolation(errCreate) {
			return nil
		}
		return fmt.Errorf("db: seed super admin: %w", errCreate)
	}
	log.Infof("seeded super admin account %s", email)
	return nil
}
