package domain

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTransitionMatrix(t *testing.T) {
	allowed := []struct{ from, to BillStatus }{
		{BillStatusPending, BillStatusPaid},
		{BillStatusPending, BillStatusOverdue},
		{BillStatusPending, BillStatusCancelled},
		{BillStatusOverdue, BillStatusPaid},
		{BillStatusOverdue, BillStatusCancelled},
	}
	for _, tc := range allowed {
		assert.NoError(t, Transition(tc.from, tc.to), "%s -> %s", tc.from, tc.to)
	}

	statuses := []BillStatus{BillStatusPending, BillStatusPaid, BillStatusOverdue, BillStatusCancelled}
	for _, to := range statuses {
		assert.ErrorIs(t, Transition(BillStatusPaid, to), ErrInvalidTransition, "paid is terminal")
		assert.ErrorIs(t, Transition(BillStatusCancelled, to), ErrInvalidTransition, "cancelled is terminal")
	}

	assert.ErrorIs(t, Transition(BillStatusOverdue, BillStatusPending), ErrInvalidTransition)
	assert.ErrorIs(t, Transition(BillStatusPending, BillStatusPending), ErrInvalidTransition)
}

func TestParseStatus(t *testing.T) {
	got, err := ParseStatus("paid")
	require.NoError(t, err)
	assert.Equal(t, BillStatusPaid, got)

	got, err = ParseStatus("  OVERDUE ")
	require.NoError(t, err)
	assert.Equal(t, BillStatusOverdue, got)

	_, err = ParseStatus("archived")
	assert.ErrorIs(t, err, ErrInvalidStatus)
}

func TestDueDateFor(t *testing.T) {
	// Day 10 in March.
	due := DueDateFor(Period{Month: 3, Year: 2026}, 10)
	assert.Equal(t, 10, due.Day())
	assert.Equal(t, 3, int(due.Month()))

	// Day 0 means last day of the month.
	due = DueDateFor(Period{Month: 2, Year: 2026}, 0)
	assert.Equal(t, 28, due.Day())

	// Day 31 clamps in a 30-day month.
	due = DueDateFor(Period{Month: 4, Year: 2026}, 31)
	assert.Equal(t, 30, due.Day())
}
