package dbclient

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"
)

// sqlConnector is the shared implementation for MySQL, Postgres and SQLite.
type sqlConnector struct {
	driverName string
	db         *sql.DB
}

func newSQLConnector(driverName, dsn string) (*sqlConnector, error) {
	db, err := sql.Open(driverName, dsn)
	if err != nil {
		return nil, fmt.Errorf("open %s: %w", driverName, err)
	}
	db.SetMaxOpenConns(2)
	db.SetMaxIdleConns(1)
	db.SetConnMaxLifetime(10 * time.Minute)

	return &sqlConnector{driverName: driverName, db: db}, nil
}

func (c *sqlConnector) Ping(ctx context.Context) error {
	ctx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()
	return c.db.PingContext(ctx)
}

// IsReadQuery reports whether a statement only reads data.
func IsReadQuery(query string) bool {
	q := strings.ToUpper(strings.TrimSpace(query))
	for _, prefix := range []string{"SELECT", "WITH", "SHOW", "DESCRIBE", "EXPLAIN", "PRAGMA"} {
		if strings.HasPrefix(q, prefix) {
			return true
		}
	}
	return false
}

func (c *sqlConnector) Stream(ctx context.Context, query string, batchSize int, fn func(*Page) error) error {
	if !IsReadQuery(query) {
		return fmt.Errorf("import queries must be read-only")
	}
	if batchSize <= 0 {
		batchSize = 500
	}

	rows, err := c.db.QueryContext(ctx, query)
	if err != nil {
		return fmt.Errorf("query: %w", err)
	}
	defer rows.Close()

	cols, err := rows.Columns()
	if err != nil {
		return fmt.Errorf("columns: %w", err)
	}

	page := &Page{Columns: cols}
	for rows.Next() {
		values := make([]any, len(cols))
		ptrs := make([]any, len(cols))
		for i := range values {
			ptrs[i] = &values[i]
		}
		if err := rows.Scan(ptrs...); err != nil {
			return fmt.Errorf("scan row: %w", err)
		}
		row := make([]any, len(cols))
		for i, v := range values {
			row[i] = normalizeValue(v)
		}
		page.Rows = append(page.Rows, row)

		if len(page.Rows) == batchSize {
			if err := fn(page); err != nil {
				return err
			}
			page = &Page{Columns: cols}
		}
	}
	if err := rows.Err(); err != nil {
		return fmt.Errorf("iterate: %w", err)
	}
	if len(page.Rows) > 0 {
		return fn(page)
	}
	return nil
}

// normalizeValue converts driver values into JSON-friendly ones.
func normalizeValue(v any) any {
	switch val := v.(type) {
	case nil:
		return nil
	case []byte:
		return string(val)
	case time.Time:
		return val.Format(time.RFC3339)
	case int64:
		return float64(val)
	case int32:
		return float64(val)
	default:
		return val
	}
}

func (c *sqlConnector) Close() error {
	return c.db.Close()
}
