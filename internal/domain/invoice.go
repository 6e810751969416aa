package domain

import (
	"fmt"
	"strings"

	"github.com/shopspring/decimal"
)

// InvoiceStatus represents the payment state of an invoice
type InvoiceStatus string

// Possible invoice status values
const (
	InvoiceStatusPending InvoiceStatus = "pendiente"
	InvoiceStatusPaid    InvoiceStatus = "pagada"
)

// Invoice is a bill issued to a client. Amounts may be absent in legacy
// rows, hence the nullable decimals.
type Invoice struct {
	ID           string              `json:"id"`
	ClientID     int64               `json:"client_id"`
	CommercialID *int64              `json:"commercial_id,omitempty"`
	Product      string              `json:"product"`
	Status       InvoiceStatus       `json:"status"`
	Subtotal     decimal.NullDecimal `json:"subtotal"`
	TaxTotal     decimal.NullDecimal `json:"tax_total"`
	Total        decimal.NullDecimal `json:"total"`
}

// Validate checks the fields required to store an invoice.
func (i *Invoice) Validate() error {
	if strings.TrimSpace(i.ID) == "" {
		return fmt.Errorf("%w: invoice id cannot be empty", ErrValidation)
	}
	if i.ClientID <= 0 {
		return fmt.Errorf("%w: invoice client id must be positive", ErrValidation)
	}
	if i.Status != InvoiceStatusPending && i.Status != InvoiceStatusPaid {
		return fmt.Errorf("%w: %q", ErrInvalidInvoiceStatus, i.Status)
	}
	amounts := []struct {
		name  string
		value decimal.NullDecimal
	}{
		{"subtotal", i.Subtotal},
		{"tax_total", i.TaxTotal},
		{"total", i.Total},
	}
	for _, a := range amounts {
		if a.value.Valid && a.value.Decimal.IsNegative() {
			return fmt.Errorf("%w: %s", ErrNegativeAmount, a.name)
		}
	}
	return nil
}

// TotalOrZero returns the invoice total, treating a missing total as zero.
func (i *Invoice) TotalOrZero() decimal.Decimal {
	if !i.Total.Valid {
		return decimal.Zero
	}
	return i.Total.Decimal
}

// SumTotals adds up the totals of invoices. Missing totals count as zero.
func SumTotals(invoices []Invoice) decimal.Decimal {
	sum := decimal.Zero
	for i := range invoices {
		sum = sum.Add(invoices[i].TotalOrZero())
	}
	return sum
}
