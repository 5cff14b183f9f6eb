package dbclient

import (
	"context"
	"fmt"

	"console/internal/domain"
)

// Page is a batch of rows read from an external database.
type Page struct {
	Columns []string `json:"columns"`
	Rows    [][]any  `json:"rows"`
}

// Connector reads rows from an external database for record imports.
// Connectors are read-only: write statements are rejected.
type Connector interface {
	// Ping verifies connectivity.
	Ping(ctx context.Context) error

	// Stream runs a read query and calls fn once per batch of at most
	// batchSize rows. Returning an error from fn stops the stream.
	Stream(ctx context.Context, query string, batchSize int, fn func(*Page) error) error

	// Close releases the underlying connection pool.
	Close() error
}

// NewConnector creates a Connector for the given database connection.
func NewConnector(conn *domain.DatabaseConnection) (Connector, error) {
	switch conn.Driver {
	case domain.DatabaseDriverSQLite:
		return newSQLConnector("sqlite", buildSQLiteDSN(conn))
	case domain.DatabaseDriverMySQL:
		return newSQLConnector("mysql", buildMySQLDSN(conn))
	case domain.DatabaseDriverPostgres:
		return newSQLConnector("postgres", buildPostgresDSN(conn))
	case domain.DatabaseDriverMongoDB:
		return newMongoConnector(conn)
	default:
		return nil, fmt.Errorf("unsupported driver: %q", conn.Driver)
	}
}
