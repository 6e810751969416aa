package sqlstore

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/phrazzld/crm-core/internal/domain"
	"github.com/phrazzld/crm-core/internal/platform/logger"
	"github.com/phrazzld/crm-core/internal/store"
)

// CommercialStore implements store.CommercialStore on a SQL database.
type CommercialStore struct {
	base
}

var _ store.CommercialStore = (*CommercialStore)(nil)

// NewCommercialStore creates a commercial store for dialect.
func NewCommercialStore(dialect Dialect, logger *slog.Logger) *CommercialStore {
	return &CommercialStore{base: newBase(dialect, logger, "commercial", "commercial_store")}
}

// Create inserts commercial and assigns the generated ID.
func (s *CommercialStore) Create(ctx context.Context, commercial *domain.Commercial) error {
	log := logger.FromContextOrDefault(ctx, s.logger)

	if err := commercial.Validate(); err != nil {
		return fmt.Errorf("%w: %w", store.ErrInvalidEntity, err)
	}

	db, err := s.conn(ctx, "create")
	if err != nil {
		return err
	}

	query := s.q(`
		INSERT INTO commercials (username, name, email, phone, role)
		VALUES (?, ?, ?, ?, ?)
		RETURNING id
	`)
	err = db.QueryRowContext(ctx, query,
		commercial.Username,
		commercial.Name,
		commercial.Email,
		commercial.Phone,
		commercial.Role,
	).Scan(&commercial.ID)
	if err != nil {
		log.Error("failed to create commercial",
			slog.String("error", err.Error()),
			slog.String("username", commercial.Username))
		return store.NewStoreError("commercial", "create", "insert failed", MapError(err))
	}
	return nil
}

// FindAll returns every commercial ordered by ID.
func (s *CommercialStore) FindAll(ctx context.Context) ([]domain.Commercial, error) {
	db, err := s.conn(ctx, "find_all")
	if err != nil {
		return nil, err
	}

	rows, err := db.QueryContext(ctx, `
		SELECT id, username, name, email, phone, role
		FROM commercials
		ORDER BY id
	`)
	if err != nil {
		return nil, store.NewStoreError("commercial", "find_all", "query failed", MapError(err))
	}
	defer func() { _ = rows.Close() }()

	var commercials []domain.Commercial
	for rows.Next() {
		var c domain.Commercial
		if err := rows.Scan(&c.ID, &c.Username, &c.Name, &c.Email, &c.Phone, &c.Role); err != nil {
			return nil, store.NewStoreError("commercial", "find_all", "scan failed", err)
		}
		commercials = append(commercials, c)
	}
	if err := rows.Err(); err != nil {
		return nil, store.NewStoreError("commercial", "find_all", "row iteration failed", MapError(err))
	}
	return commercials, nil
}

// Count returns the number of commercials.
func (s *CommercialStore) Count(ctx context.Context) (int, error) {
	return s.count(ctx, "commercials")
}
