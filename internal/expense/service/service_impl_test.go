package service

import (
	"context"
	"testing"
	"time"

	"github.com/bwmarrin/snowflake"
	"github.com/glebarez/sqlite"
	"github.com/shopspring/decimal"
	"github.com/societyos/upkeep/internal/clock"
	expensedomain "github.com/societyos/upkeep/internal/expense/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

func newTestService(t *testing.T) (expensedomain.Service, *snowflake.Node) {
	t.Helper()

	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{TranslateError: true})
	require.NoError(t, err)
	require.NoError(t, db.AutoMigrate(&expensedomain.Expense{}))

	node, err := snowflake.NewNode(1)
	require.NoError(t, err)

	clk := clock.NewFakeClock(time.Date(2024, time.March, 15, 9, 0, 0, 0, time.UTC))
	svc := NewService(ServiceParam{
		DB:    db,
		Log:   zap.NewNop(),
		GenID: node,
		Clock: clk,
	})
	return svc, node
}

func TestCreateRejectsNonPositiveAmount(t *testing.T) {
	svc, node := newTestService(t)

	_, err := svc.Create(context.Background(), expensedomain.CreateExpenseRequest{
		OrgID:  node.Generate(),
		Title:  "Pump repair",
		Amount: decimal.Zero,
	})
	assert.ErrorIs(t, err, expensedomain.ErrInvalidAmount)

	_, err = svc.Create(context.Background(), expensedomain.CreateExpenseRequest{
		OrgID:  node.Generate(),
		Title:  "Pump repair",
		Amount: decimal.NewFromInt(-50),
	})
	assert.ErrorIs(t, err, expensedomain.ErrInvalidAmount)
}

func TestCreateDefaultsDateToNow(t *testing.T) {
	svc, node := newTestService(t)

	expense, err := svc.Create(context.Background(), expensedomain.CreateExpenseRequest{
		OrgID:  node.Generate(),
		Title:  "Pump repair",
		Amount: decimal.NewFromInt(1200),
	})
	require.NoError(t, err)
	assert.Equal(t, 2024, expense.Date.Year())
	assert.Equal(t, time.March, expense.Date.Month())
}

func TestListFiltersByMonth(t *testing.T) {
	svc, node := newTestService(t)
	orgID := node.Generate()

	for _, spent := range []time.Time{
		time.Date(2024, time.February, 10, 0, 0, 0, 0, time.UTC),
		time.Date(2024, time.March, 5, 0, 0, 0, 0, time.UTC),
		time.Date(2024, time.March, 28, 0, 0, 0, 0, time.UTC),
		time.Date(2024, time.April, 1, 0, 0, 0, 0, time.UTC),
	} {
		_, err := svc.Create(context.Background(), expensedomain.CreateExpenseRequest{
			OrgID:  orgID,
			Title:  "Security payroll",
			Amount: decimal.NewFromInt(9000),
			Date:   spent,
		})
		require.NoError(t, err)
	}

	month := 3
	year := 2024
	expenses, err := svc.List(context.Background(), expensedomain.ListExpensesRequest{
		OrgID: orgID,
		Month: &month,
		Year:  &year,
	})
	require.NoError(t, err)
	assert.Len(t, expenses, 2)

	// Year-only filtering spans all twelve months.
	expenses, err = svc.List(context.Background(), expensedomain.ListExpensesRequest{
		OrgID: orgID,
		Year:  &year,
	})
	require.NoError(t, err)
	assert.Len(t, expenses, 4)
}

func TestUpdateAndDelete(t *testing.T) {
	svc, node := newTestService(t)
	orgID := node.Generate()

	expense, err := svc.Create(context.Background(), expensedomain.CreateExpenseRequest{
		OrgID:  orgID,
		Title:  "Lift maintenance",
		Amount: decimal.NewFromInt(4000),
	})
	require.NoError(t, err)

	title := "Lift AMC"
	amount := decimal.NewFromInt(4500)
	updated, err := svc.Update(context.Background(), expense.ID.String(), expensedomain.UpdateExpenseRequest{
		Title:  &title,
		Amount: &amount,
	})
	require.NoError(t, err)
	assert.Equal(t, "Lift AMC", updated.Title)
	assert.True(t, updated.Amount.Equal(amount))

	require.NoError(t, svc.Delete(context.Background(), expense.ID.String()))
	_, err = svc.GetByID(context.Background(), expense.ID.String())
	assert.Error(t, err)
}
