package domain

import (
	"context"
	"time"

	"github.com/bwmarrin/snowflake"
)

type Service interface {
	// CreateUser onboards an account. Admins call this to register
	// residents (email, organization, unit, password).
	CreateUser(ctx context.Context, req CreateUserRequest) (*User, error)
	Login(ctx context.Context, req LoginRequest) (*LoginResult, error)
	Logout(ctx context.Context, rawToken string) error
	// Authenticate resolves a raw session token to a live session,
	// updating its last-seen timestamp.
	Authenticate(ctx context.Context, rawToken string) (*Session, error)
	GetUser(ctx context.Context, id snowflake.ID) (*User, error)
	ListUsers(ctx context.Context, req ListUsersRequest) ([]User, error)
	ChangePassword(ctx context.Context, userID snowflake.ID, current, newPassword string) error
	// RequestPasswordReset issues a one-time reset token. The token is
	// returned to the caller for delivery; only its hash is stored.
	RequestPasswordReset(ctx context.Context, email string) (string, error)
	ResetPassword(ctx context.Context, email, token, newPassword string) error
}

type CreateUserRequest struct {
	Email       string        `json:"email"`
	Password    string        `json:"password"`
	DisplayName string        `json:"display_name"`
	Phone       string        `json:"phone"`
	Role        string        `json:"role"`
	OrgID       *snowflake.ID `json:"organization_id"`
	UnitID      *snowflake.ID `json:"unit_id"`
}

type LoginRequest struct {
	Email     string
	Password  string
	UserAgent string
	IPAddress string
}

type LoginResult struct {
	User      *User
	RawToken  string
	ExpiresAt time.Time
	SessionID snowflake.ID
}

type ListUsersRequest struct {
	OrgID snowflake.ID
	Role  string
}
