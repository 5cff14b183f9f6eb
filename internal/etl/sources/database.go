package sources

import (
	"context"
	"errors"
	"fmt"
	"strconv"

	"console/internal/dbclient"
	"console/internal/domain"
	"console/internal/etl"
)

// ── Database Source ────────────────────────────────────────
// Reads the result of a query against an external database.

// fetchSize is the number of rows pulled per batch from the connector.
const fetchSize = 500

type databaseSource struct{}

func init() { etl.RegisterSource(&databaseSource{}) }

func (s *databaseSource) Spec() etl.SourceSpec {
	drivers := []string{
		string(domain.DatabaseDriverPostgres), string(domain.DatabaseDriverMySQL),
		string(domain.DatabaseDriverSQLite), string(domain.DatabaseDriverMongoDB),
	}
	return etl.SourceSpec{
		Type:  "database",
		Label: "Database Query",
		ConfigFields: []etl.ConfigField{
			{Key: "driver", Label: "Driver", Type: "select", Required: true, Options: drivers},
			{Key: "host", Label: "Host", Type: "string", Required: true, Help: "Hostname, SQLite file path or full MongoDB URI"},
			{Key: "port", Label: "Port", Type: "string"},
			{Key: "database", Label: "Database", Type: "string"},
			{Key: "username", Label: "Username", Type: "string"},
			{Key: "password", Label: "Password", Type: "password"},
			{Key: "sslMode", Label: "SSL Mode", Type: "string"},
			{Key: "query", Label: "Query", Type: "textarea", Required: true, Help: "SELECT statement, or a JSON find/aggregate document for MongoDB"},
		},
	}
}

func connectionFromConfig(cfg etl.SourceConfig) (*domain.DatabaseConnection, string, error) {
	conn := &domain.DatabaseConnection{
		Driver:   domain.DatabaseDriver(cfg.String("driver")),
		Host:     cfg.String("host"),
		Database: cfg.String("database"),
		Username: cfg.String("username"),
		Password: cfg.String("password"),
		SSLMode:  cfg.String("sslMode"),
	}
	switch p := cfg["port"].(type) {
	case float64:
		conn.Port = int(p)
	case string:
		if p != "" {
			n, err := strconv.Atoi(p)
			if err != nil {
				return nil, "", fmt.Errorf("invalid port %q", p)
			}
			conn.Port = n
		}
	}
	query := cfg.String("query")
	if conn.Driver == "" || conn.Host == "" || query == "" {
		return nil, "", fmt.Errorf("driver, host and query are required")
	}
	return conn, query, nil
}

func (s *databaseSource) Discover(ctx context.Context, cfg etl.SourceConfig) (*etl.Schema, error) {
	var (
		sample  []etl.Record
		columns []string
	)
	err := s.read(ctx, cfg, func(cols []string, r etl.Record) bool {
		columns = cols
		sample = append(sample, r)
		return len(sample) < discoverSampleRows
	})
	if err != nil {
		return nil, err
	}

	inferred := etl.InferSchema(sample)
	if len(columns) == 0 {
		return inferred, nil
	}
	// Keep the query's column order.
	types := map[string]domain.FieldType{}
	for _, f := range inferred.Fields {
		types[f.Name] = f.Type
	}
	schema := &etl.Schema{Fields: make([]etl.Field, 0, len(columns))}
	for _, c := range columns {
		t := types[c]
		if t == "" {
			t = domain.FieldText
		}
		schema.Fields = append(schema.Fields, etl.Field{Name: c, Type: t})
	}
	return schema, nil
}

func (s *databaseSource) Read(ctx context.Context, cfg etl.SourceConfig) (<-chan etl.Record, <-chan error) {
	return stream(ctx, func(emit func(etl.Record) bool) error {
		return s.read(ctx, cfg, func(_ []string, r etl.Record) bool { return emit(r) })
	})
}

// errStop ends a stream early without reporting an error.
var errStop = errors.New("stop")

func (s *databaseSource) read(ctx context.Context, cfg etl.SourceConfig, emit func([]string, etl.Record) bool) error {
	conn, query, err := connectionFromConfig(cfg)
	if err != nil {
		return err
	}
	connector, err := dbclient.NewConnector(conn)
	if err != nil {
		return err
	}
	defer connector.Close()

	err = connector.Stream(ctx, query, fetchSize, func(page *dbclient.Page) error {
		for _, row := range page.Rows {
			data := make(map[string]any, len(page.Columns))
			for i, col := range page.Columns {
				if i < len(row) {
					data[col] = row[i]
				}
			}
			if !emit(page.Columns, etl.Record{Data: data}) {
				return errStop
			}
		}
		return nil
	})
	if errors.Is(err, errStop) {
		return nil
	}
	return err
}
