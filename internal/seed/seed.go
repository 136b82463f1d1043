// Package seed bootstraps an empty database with a default society and
// an OWNER account so the first login works without manual SQL.
package seed

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/bwmarrin/snowflake"
	"github.com/gosimple/slug"
	authdomain "github.com/societyos/upkeep/internal/auth/domain"
	"github.com/societyos/upkeep/internal/auth/password"
	orgdomain "github.com/societyos/upkeep/internal/organization/domain"
	"gorm.io/gorm"
)

const defaultAdminPassword = "changeme1"

// EnsureDefaultOrg creates the named society when no organizations exist.
func EnsureDefaultOrg(db *gorm.DB, name string) (*orgdomain.Organization, error) {
	if db == nil {
		return nil, errors.New("seed database handle is required")
	}
	name = strings.TrimSpace(name)
	if name == "" {
		name = "Main Society"
	}

	node, err := snowflake.NewNode(1)
	if err != nil {
		return nil, err
	}

	ctx := context.Background()
	var org orgdomain.Organization
	err = db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		findErr := tx.WithContext(ctx).Order("created_at ASC").First(&org).Error
		if findErr == nil {
			return nil
		}
		if !errors.Is(findErr, gorm.ErrRecordNotFound) {
			return findErr
		}

		now := time.Now().UTC()
		org = orgdomain.Organization{
			ID:                     node.Generate(),
			Name:                   name,
			Slug:                   slug.Make(name),
			CalculateMaintenanceBy: orgdomain.CalculationFixed,
			DueDay:                 orgdomain.DueDayEndOfMonth,
			Metadata:               map[string]any{},
			CreatedAt:              now,
			UpdatedAt:              now,
		}
		return tx.WithContext(ctx).Create(&org).Error
	})
	if err != nil {
		return nil, err
	}
	return &org, nil
}

// EnsureOwnerAdmin creates the OWNER account with a well-known default
// password when no users exist. The password must be rotated on first
// login; the seed never overwrites an existing account.
func EnsureOwnerAdmin(db *gorm.DB, email string) error {
	if db == nil {
		return errors.New("seed database handle is required")
	}
	email = strings.ToLower(strings.TrimSpace(email))
	if email == "" {
		return errors.New("seed admin email is required")
	}

	node, err := snowflake.NewNode(1)
	if err != nil {
		return err
	}

	ctx := context.Background()
	return db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var count int64
		if err := tx.WithContext(ctx).Model(&authdomain.User{}).Count(&count).Error; err != nil {
			return err
		}
		if count > 0 {
			return nil
		}

		hashed, err := password.Hash(defaultAdminPassword)
		if err != nil {
			return err
		}

		now := time.Now().UTC()
		user := authdomain.User{
			ID:           node.Generate(),
			Email:        email,
			DisplayName:  "Administrator",
			PasswordHash: &hashed,
			Role:         authdomain.RoleOwner,
			Metadata:     map[string]any{},
			CreatedAt:    now,
			UpdatedAt:    now,
		}
		return tx.WithContext(ctx).Create(&user).Error
	})
}
