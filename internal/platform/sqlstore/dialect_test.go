package sqlstore

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseURL(t *testing.T) {
	tests := []struct {
		name    string
		url     string
		dialect Dialect
		dsn     string
		wantErr bool
	}{
		{
			name:    "postgres",
			url:     "postgres://u:p@localhost:5432/crm",
			dialect: DialectPostgres,
			dsn:     "postgres://u:p@localhost:5432/crm",
		},
		{
			name:    "postgresql scheme",
			url:     "postgresql://localhost/crm",
			dialect: DialectPostgres,
			dsn:     "postgresql://localhost/crm",
		},
		{
			name:    "sqlite short form",
			url:     "sqlite:data/crm.db",
			dialect: DialectSQLite,
			dsn:     "file:data/crm.db?_pragma=busy_timeout(5000)&_pragma=foreign_keys(1)",
		},
		{
			name:    "sqlite slashes",
			url:     "sqlite:///tmp/crm.db",
			dialect: DialectSQLite,
			dsn:     "file:/tmp/crm.db?_pragma=busy_timeout(5000)&_pragma=foreign_keys(1)",
		},
		{
			name:    "file url with query",
			url:     "file:crm.db?mode=rwc",
			dialect: DialectSQLite,
			dsn:     "file:crm.db?mode=rwc&_pragma=busy_timeout(5000)&_pragma=foreign_keys(1)",
		},
		{name: "sqlite without path", url: "sqlite:", wantErr: true},
		{name: "unknown scheme", url: "mysql://localhost/crm", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			dialect, dsn, err := ParseURL(tt.url)
			if tt.wantErr {
				require.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.dialect, dialect)
			assert.Equal(t, tt.dsn, dsn)
		})
	}
}

func TestRebind(t *testing.T) {
	query := "INSERT INTO t (a, b, c) VALUES (?, ?, ?)"

	assert.Equal(t, "INSERT INTO t (a, b, c) VALUES ($1, $2, $3)", Rebind(DialectPostgres, query))
	assert.Equal(t, query, Rebind(DialectSQLite, query))
}

func TestMaskURL(t *testing.T) {
	assert.Equal(t, "postgres://crm:%2A%2A%2A%2A@db:5432/crm", MaskURL("postgres://crm:secret@db:5432/crm"))
	assert.Equal(t, "postgres://db:5432/crm", MaskURL("postgres://db:5432/crm"))
	assert.Equal(t, "invalid-url", MaskURL("postgres://[::1"))
}
