package domain

import "strings"

// allowedTransitions is the full status matrix: PENDING may move to any
// other state, OVERDUE may be paid or cancelled, PAID and CANCELLED are
// terminal.
var allowedTransitions = map[BillStatus]map[BillStatus]bool{
	BillStatusPending: {
		BillStatusPaid:      true,
		BillStatusOverdue:   true,
		BillStatusCancelled: true,
	},
	BillStatusOverdue: {
		BillStatusPaid:      true,
		BillStatusCancelled: true,
	},
}

// Transition validates a status change against the allowed matrix.
func Transition(from, to BillStatus) error {
	if from == to {
		return ErrInvalidTransition
	}
	if !allowedTransitions[from][to] {
		return ErrInvalidTransition
	}
	return nil
}

// ParseStatus normalizes a client-supplied status value.
func ParseStatus(raw string) (BillStatus, error) {
	switch BillStatus(strings.ToUpper(strings.TrimSpace(raw))) {
	case BillStatusPending:
		return BillStatusPending, nil
	case BillStatusPaid:
		return BillStatusPaid, nil
	case BillStatusOverdue:
		return BillStatusOverdue, nil
	case BillStatusCancelled:
		return BillStatusCancelled, nil
	default:
		return "", ErrInvalidStatus
	}
}
