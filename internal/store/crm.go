package store

import (
	"context"

	"github.com/phrazzld/crm-core/internal/domain"
)

// The stores below resolve their query surface from the session bound to
// ctx. Calling them outside RunInSession yields ErrNoSession.

// ClientStore defines the interface for client data persistence.
// Version: 1.0
type ClientStore interface {
	// Create inserts a client and sets its ID.
	// Returns ErrDuplicate if the username is taken.
	Create(ctx context.Context, client *domain.Client) error

	// FindAll returns every client ordered by ID.
	FindAll(ctx context.Context) ([]domain.Client, error)

	// Count returns the number of clients.
	Count(ctx context.Context) (int, error)
}

// CommercialStore defines the interface for commercial data persistence.
// Version: 1.0
type CommercialStore interface {
	// Create inserts a commercial and sets its ID.
	Create(ctx context.Context, commercial *domain.Commercial) error

	// FindAll returns every commercial ordered by ID.
	FindAll(ctx context.Context) ([]domain.Commercial, error)

	// Count returns the number of commercials.
	Count(ctx context.Context) (int, error)
}

// InvoiceStore defines the interface for invoice data persistence.
// Version: 1.0
type InvoiceStore interface {
	// Create inserts an invoice.
	Create(ctx context.Context, invoice *domain.Invoice) error

	// FindAll returns every invoice ordered by ID.
	FindAll(ctx context.Context) ([]domain.Invoice, error)

	// Count returns the number of invoices.
	Count(ctx context.Context) (int, error)
}
