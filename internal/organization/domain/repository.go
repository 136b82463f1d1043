package domain

import (
	"context"

	"github.com/bwmarrin/snowflake"
	"github.com/societyos/upkeep/pkg/db/option"
	"gorm.io/gorm"
)

type Repository interface {
	WithTx(tx *gorm.DB) Repository
	Create(ctx context.Context, org *Organization) error
	FindByID(ctx context.Context, id snowflake.ID) (*Organization, error)
	Find(ctx context.Context, filter *Organization, opts ...option.QueryOption) ([]*Organization, error)
	Save(ctx context.Context, org *Organization) error
	Delete(ctx context.Context, id snowflake.ID) error
	ListIDs(ctx context.Context) ([]snowflake.ID, error)
}
