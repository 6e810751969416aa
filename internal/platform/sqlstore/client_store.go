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

// ClientStore implements store.ClientStore on a SQL database.
type ClientStore struct {
	base
}

var _ store.ClientStore = (*ClientStore)(nil)

// NewClientStore creates a client store for dialect.
// If logger is nil, a default logger will be used.
func NewClientStore(dialect Dialect, logger *slog.Logger) *ClientStore {
	return &ClientStore{base: newBase(dialect, logger, "client", "client_store")}
}

// Create inserts client and assigns the generated ID.
func (s *ClientStore) Create(ctx context.Context, client *domain.Client) error {
	log := logger.FromContextOrDefault(ctx, s.logger)

	if err := client.Validate(); err != nil {
		log.Warn("client validation failed during create",
			slog.String("error", err.Error()),
			slog.String("username", client.Username))
		return fmt.Errorf("%w: %w", store.ErrInvalidEntity, err)
	}

	db, err := s.conn(ctx, "create")
	if err != nil {
		return err
	}

	query := s.q(`
		INSERT INTO clients (username, first_name, last_name, email, commercial_id)
		VALUES (?, ?, ?, ?, ?)
		RETURNING id
	`)
	err = db.QueryRowContext(ctx, query,
		client.Username,
		client.FirstName,
		client.LastName,
		client.Email,
		nullableID(client.CommercialID),
	).Scan(&client.ID)
	if err != nil {
		mapped := MapError(err)
		log.Error("failed to create client",
			slog.String("error", err.Error()),
			slog.String("username", client.Username))
		return store.NewStoreError("client", "create", "insert failed", mapped)
	}

	log.Debug("client created", slog.Int64("client_id", client.ID))
	return nil
}

// FindAll returns every client ordered by ID.
func (s *ClientStore) FindAll(ctx context.Context) ([]domain.Client, error) {
	log := logger.FromContextOrDefault(ctx, s.logger)

	db, err := s.conn(ctx, "find_all")
	if err != nil {
		return nil, err
	}

	rows, err := db.QueryContext(ctx, `
		SELECT id, username, first_name, last_name, email, commercial_id
		FROM clients
		ORDER BY id
	`)
	if err != nil {
		log.Error("failed to query clients", slog.String("error", err.Error()))
		return nil, store.NewStoreError("client", "find_all", "query failed", MapError(err))
	}
	defer func() {
		if closeErr := rows.Close(); closeErr != nil {
			log.Warn("failed to close rows", slog.String("error", closeErr.Error()))
		}
	}()

	var clients []domain.Client
	for rows.Next() {
		var (
			c            domain.Client
			commercialID sql.NullInt64
		)
		if err := rows.Scan(&c.ID, &c.Username, &c.FirstName, &c.LastName, &c.Email, &commercialID); err != nil {
			return nil, store.NewStoreError("client", "find_all", "scan failed", err)
		}
		c.CommercialID = idPtr(commercialID)
		clients = append(clients, c)
	}
	if err := rows.Err(); err != nil {
		return nil, store.NewStoreError("client", "find_all", "row iteration failed", MapError(err))
	}

	log.Debug("clients retrieved", slog.Int("count", len(clients)))
	return clients, nil
}

// Count returns the number of clients.
func (s *ClientStore) Count(ctx context.Context) (int, error) {
	return s.count(ctx, "clients")
}
