package sqlstore

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"

	"github.com/phrazzld/crm-core/internal/domain"
	"github.com/phrazzld/crm-core/internal/platform/logger"
	"github.com/phrazzld/crm-core/internal/store"
)

// InvoiceStore implements store.InvoiceStore on a SQL database.
type InvoiceStore struct {
	base
}

var _ store.InvoiceStore = (*InvoiceStore)(nil)

// NewInvoiceStore creates an invoice store for dialect.
func NewInvoiceStore(dialect Dialect, logger *slog.Logger) *InvoiceStore {
	return &InvoiceStore{base: newBase(dialect, logger, "invoice", "invoice_store")}
}

// Create inserts invoice. Returns store.ErrInvalidEntity when the client
// does not exist and store.ErrDuplicate when the ID is taken.
func (s *InvoiceStore) Create(ctx context.Context, invoice *domain.Invoice) error {
	log := logger.FromContextOrDefault(ctx, s.logger)

	if err := invoice.Validate(); err != nil {
		log.Warn("invoice validation failed during create",
			slog.String("error", err.Error()),
			slog.String("invoice_id", invoice.ID))
		return fmt.Errorf("%w: %w", store.ErrInvalidEntity, err)
	}

	db, err := s.conn(ctx, "create")
	if err != nil {
		return err
	}

	query := s.q(`
		INSERT INTO invoices (id, client_id, commercial_id, product, status, subtotal, tax_total, total)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)
	`)
	_, err = db.ExecContext(ctx, query,
		invoice.ID,
		invoice.ClientID,
		nullableID(invoice.CommercialID),
		invoice.Product,
		string(invoice.Status),
		invoice.Subtotal,
		invoice.TaxTotal,
		invoice.Total,
	)
	if err != nil {
		log.Error("failed to create invoice",
			slog.String("error", err.Error()),
			slog.String("invoice_id", invoice.ID),
			slog.Int64("client_id", invoice.ClientID))
		return store.NewStoreError("invoice", "create", "insert failed", MapError(err))
	}
	return nil
}

// FindAll returns every invoice ordered by ID.
func (s *InvoiceStore) FindAll(ctx context.Context) ([]domain.Invoice, error) {
	log := logger.FromContextOrDefault(ctx, s.logger)

	db, err := s.conn(ctx, "find_all")
	if err != nil {
		return nil, err
	}

	rows, err := db.QueryContext(ctx, `
		SELECT id, client_id, commercial_id, product, status, subtotal, tax_total, total
		FROM invoices
		ORDER BY id
	`)
	if err != nil {
		log.Error("failed to query invoices", slog.String("error", err.Error()))
		return nil, store.NewStoreError("invoice", "find_all", "query failed", MapError(err))
	}
	defer func() { _ = rows.Close() }()

	var invoices []domain.Invoice
	for rows.Next() {
		var (
			inv          domain.Invoice
			status       string
			commercialID sql.NullInt64
		)
		if err := rows.Scan(
			&inv.ID,
			&inv.ClientID,
			&commercialID,
			&inv.Product,
			&status,
			&inv.Subtotal,
			&inv.TaxTotal,
			&inv.Total,
		); err != nil {
			return nil, store.NewStoreError("invoice", "find_all", "scan failed", err)
		}
		inv.Status = domain.InvoiceStatus(status)
		inv.CommercialID = idPtr(commercialID)
		invoices = append(invoices, inv)
	}
	if err := rows.Err(); err != nil {
		return nil, store.NewStoreError("invoice", "find_all", "row iteration failed", MapError(err))
	}
	return invoices, nil
}

// Count returns the number of invoices.
func (s *InvoiceStore) Count(ctx context.Context) (int, error) {
	return s.count(ctx, "invoices")
}
