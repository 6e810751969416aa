package testdb

import (
	"github.com/shopspring/decimal"

	"github.com/phrazzld/crm-core/internal/domain"
)

// NewInvoice builds an invoice from string amounts. An empty amount is
// stored as NULL.
func NewInvoice(id string, clientID int64, product string, status domain.InvoiceStatus, subtotal, tax, total string) domain.Invoice {
	return domain.Invoice{
		ID:       id,
		ClientID: clientID,
		Product:  product,
		Status:   status,
		Subtotal: amount(subtotal),
		TaxTotal: amount(tax),
		Total:    amount(total),
	}
}

func amount(s string) decimal.NullDecimal {
	if s == "" {
		return decimal.NullDecimal{}
	}
	return decimal.NewNullDecimal(decimal.RequireFromString(s))
}
