// Package domain contains core types for the auth service.
package domain

import (
	"time"

	"github.com/bwmarrin/snowflake"
	"gorm.io/datatypes"
)

const (
	// RoleOwner is the super-admin who onboards societies.
	RoleOwner = "OWNER"
	// RoleAdmin manages a single society's billing and residents.
	RoleAdmin = "ADMIN"
	// RoleResident views bills and dues for their own unit.
	RoleResident = "RESIDENT"
)

// User represents a system user account. Residents carry the organization
// and unit they belong to; the super-admin carries neither.
type User struct {
	ID                  snowflake.ID      `gorm:"primaryKey" json:"id"`
	Email               string            `gorm:"type:text;not null;uniqueIndex" json:"email"`
	DisplayName         string            `gorm:"type:text" json:"display_name"`
	Phone               string            `gorm:"type:text" json:"phone,omitempty"`
	PasswordHash        *string           `gorm:"type:text" json:"-"`
	Role                string            `gorm:"type:text;not null;default:'RESIDENT'" json:"role"`
	OrgID               *snowflake.ID     `gorm:"index" json:"organization_id,omitempty"`
	UnitID              *snowflake.ID     `gorm:"index" json:"unit_id,omitempty"`
	LastPasswordChanged *time.Time        `gorm:"column:last_password_changed" json:"-"`
	ResetTokenHash      *string           `gorm:"type:text;column:reset_token_hash" json:"-"`
	ResetTokenExpiresAt *time.Time        `gorm:"column:reset_token_expires_at" json:"-"`
	Metadata            datatypes.JSONMap `gorm:"not null;default:'{}'" json:"metadata"`
	CreatedAt           time.Time         `gorm:"not null;default:CURRENT_TIMESTAMP" json:"created_at"`
	UpdatedAt           time.Time         `gorm:"not null;default:CURRENT_TIMESTAMP" json:"updated_at"`
}

// TableName sets the database table name.
func (User) TableName() string { return "users" }

// Session represents a persisted login session.
type Session struct {
	ID               snowflake.ID `gorm:"primaryKey" json:"id"`
	UserID           snowflake.ID `gorm:"column:user_id;not null;index" json:"user_id"`
	SessionTokenHash string       `gorm:"column:session_token_hash;type:text;not null;uniqueIndex" json:"-"`
	UserAgent        string       `gorm:"column:user_agent;type:text" json:"user_agent"`
	IPAddress        string       `gorm:"column:ip_address;type:text" json:"ip_address"`
	ExpiresAt        time.Time    `gorm:"column:expires_at;not null;index" json:"expires_at"`
	RevokedAt        *time.Time   `gorm:"column:revoked_at" json:"revoked_at,omitempty"`
	CreatedAt        time.Time    `gorm:"column:created_at;not null;default:CURRENT_TIMESTAMP" json:"created_at"`
	LastSeenAt       time.Time    `gorm:"column:last_seen_at;not null;default:CURRENT_TIMESTAMP" json:"last_seen_at"`
}

// TableName sets the database table name.
func (Session) TableName() string { return "sessions" }
