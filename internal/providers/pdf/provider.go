package pdf

import (
	"context"
	"io"
)

// Provider renders printable documents for maintenance bills.
type Provider interface {
	GenerateReceipt(ctx context.Context, data ReceiptData) (io.Reader, error)
}

// ReceiptData carries everything the receipt layout needs, already
// formatted for display.
type ReceiptData struct {
	OrgName    string
	OrgAddress string

	ReceiptNumber string
	IssueDate     string
	Period        string
	DueDate       string
	Status        string

	ResidentName string
	UnitNumber   string

	Lines []ReceiptLine

	BaseAmount  string
	ExtrasTotal string
	Penalty     string
	Total       string
}

// ReceiptLine is a single row in the charges table.
type ReceiptLine struct {
	Description string
	Amount      string
}
