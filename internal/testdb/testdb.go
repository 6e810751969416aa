package testdb

import (
	"context"
	"database/sql"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"testing"

	"github.com/jackc/pgx/v5/stdlib"
	"github.com/stretchr/testify/require"

	"github.com/phrazzld/crm-core/internal/config"
	"github.com/phrazzld/crm-core/internal/domain"
	"github.com/phrazzld/crm-core/internal/platform/sqlstore"
	"github.com/phrazzld/crm-core/internal/store"
)

// EnvDatabaseURL points the suite at an external database, typically the
// postgres service of a CI job. Unset means a fresh sqlite file per test.
const EnvDatabaseURL = "CRM_TEST_DATABASE_URL"

// URL returns the database URL for t: EnvDatabaseURL when set, otherwise a
// sqlite database inside the test's temp directory.
func URL(t *testing.T) string {
	t.Helper()
	if u := os.Getenv(EnvDatabaseURL); u != "" {
		return u
	}
	return "sqlite:" + filepath.Join(t.TempDir(), "crm.db")
}

// Open creates a migrated database that is closed when the test ends. An
// external postgres database is emptied first, so tests using it must not
// run in parallel.
func Open(t *testing.T) *sql.DB {
	t.Helper()

	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	ctx := context.Background()

	db, dialect, err := sqlstore.Open(ctx, config.DatabaseConfig{URL: URL(t)}, logger)
	require.NoError(t, err, "failed to open test database")
	t.Cleanup(func() { _ = db.Close() })

	require.NoError(t, sqlstore.Migrate(ctx, db, dialect, logger), "failed to migrate test database")
	if dialect == sqlstore.DialectPostgres {
		_, err := db.ExecContext(ctx, "TRUNCATE invoices, clients, commercials RESTART IDENTITY CASCADE")
		require.NoError(t, err, "failed to empty test database")
	}
	return db
}

// Dialect reports which backend db talks to.
func Dialect(db *sql.DB) sqlstore.Dialect {
	if _, ok := db.Driver().(*stdlib.Driver); ok {
		return sqlstore.DialectPostgres
	}
	return sqlstore.DialectSQLite
}

// Stores bundles the stores of a test database.
type Stores struct {
	Factory     store.SessionFactory
	Clients     *sqlstore.ClientStore
	Commercials *sqlstore.CommercialStore
	Invoices    *sqlstore.InvoiceStore
}

// NewStores returns stores for the dialect of db and a session factory
// over it.
func NewStores(db *sql.DB) Stores {
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	dialect := Dialect(db)
	return Stores{
		Factory:     store.NewSQLSessionFactory(db, nil),
		Clients:     sqlstore.NewClientStore(dialect, logger),
		Commercials: sqlstore.NewCommercialStore(dialect, logger),
		Invoices:    sqlstore.NewInvoiceStore(dialect, logger),
	}
}

// Seed is the fixture data written by SeedDefault.
type Seed struct {
	Commercials []domain.Commercial
	Clients     []domain.Client
	Invoices    []domain.Invoice
}

// SeedDefault writes two commercials, three clients and three invoices,
// one of them without a total.
func SeedDefault(t *testing.T, s Stores) Seed {
	t.Helper()

	seed := Seed{
		Commercials: []domain.Commercial{
			{Username: "mgarcia", Name: "María García", Email: "maria@example.com", Role: "senior"},
			{Username: "jlopez", Name: "Juan López", Email: "juan@example.com", Role: "junior"},
		},
	}

	err := store.RunInSession(context.Background(), s.Factory, func(ctx context.Context) error {
		for i := range seed.Commercials {
			if err := s.Commercials.Create(ctx, &seed.Commercials[i]); err != nil {
				return err
			}
		}

		first := seed.Commercials[0].ID
		seed.Clients = []domain.Client{
			{Username: "ana", FirstName: "Ana", LastName: "Ruiz", Email: "ana@example.com", CommercialID: &first},
			{Username: "luis", FirstName: "Luis", LastName: "Pérez", Email: "luis@example.com", CommercialID: &first},
			{Username: "eva", FirstName: "Eva", LastName: "Martín", Email: "eva@example.com"},
		}
		for i := range seed.Clients {
			if err := s.Clients.Create(ctx, &seed.Clients[i]); err != nil {
				return err
			}
		}

		seed.Invoices = []domain.Invoice{
			NewInvoice("F-001", seed.Clients[0].ID, "Licencia", domain.InvoiceStatusPaid, "100.00", "21.00", "121.00"),
			NewInvoice("F-002", seed.Clients[1].ID, "Soporte", domain.InvoiceStatusPending, "50.00", "10.50", "60.50"),
			NewInvoice("F-003", seed.Clients[2].ID, "Formación", domain.InvoiceStatusPending, "", "", ""),
		}
		for i := range seed.Invoices {
			if err := s.Invoices.Create(ctx, &seed.Invoices[i]); err != nil {
				return err
			}
		}
		return nil
	})
	require.NoError(t, err, "failed to seed test database")
	return seed
}
