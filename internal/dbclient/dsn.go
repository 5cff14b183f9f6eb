package dbclient

import (
	"fmt"
	"net/url"

	"console/internal/domain"

	_ "github.com/go-sql-driver/mysql"
	_ "github.com/lib/pq"
	_ "modernc.org/sqlite"
)

// buildPostgresDSN builds a lib/pq key=value connection string.
func buildPostgresDSN(conn *domain.DatabaseConnection) string {
	port := conn.Port
	if port == 0 {
		port = 5432
	}
	sslMode := conn.SSLMode
	if sslMode == "" {
		sslMode = "disable"
	}
	return fmt.Sprintf("host=%s port=%d user=%s password=%s dbname=%s sslmode=%s",
		conn.Host, port, conn.Username, conn.Password, conn.Database, sslMode,
	)
}

// buildMySQLDSN builds a go-sql-driver DSN: user:password@tcp(host:port)/dbname?params
func buildMySQLDSN(conn *domain.DatabaseConnection) string {
	port := conn.Port
	if port == 0 {
		port = 3306
	}
	params := url.Values{}
	params.Set("parseTime", "true")
	params.Set("charset", "utf8mb4")
	if conn.SSLMode == "require" {
		params.Set("tls", "true")
	}
	for k, v := range conn.Options {
		params.Set(k, v)
	}
	return fmt.Sprintf("%s:%s@tcp(%s:%d)/%s?%s",
		conn.Username, conn.Password, conn.Host, port, conn.Database, params.Encode(),
	)
}

// buildSQLiteDSN opens the file named by Host with writes disabled.
func buildSQLiteDSN(conn *domain.DatabaseConnection) string {
	return conn.Host + "?_pragma=query_only(1)&_pragma=busy_timeout(5000)"
}
