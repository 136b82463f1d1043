package authorization

import (
	"context"
	"errors"

	"github.com/societyos/upkeep/internal/auth/domain"
)

var (
	ErrForbidden           = errors.New("forbidden")
	ErrInvalidActor        = errors.New("invalid actor")
	ErrInvalidOrganization = errors.New("invalid organization")
	ErrInvalidObject       = errors.New("invalid object")
	ErrInvalidAction       = errors.New("invalid action")
)

// Service answers whether a user may perform an action on an object
// within an organization.
type Service interface {
	Authorize(ctx context.Context, user *domain.User, orgID string, object string, action string) error
}
