package domain

// DatabaseDriver represents the type of an external database engine
// that records can be imported from.
type DatabaseDriver string

const (
	DatabaseDriverMySQL    DatabaseDriver = "mysql"
	DatabaseDriverPostgres DatabaseDriver = "postgres"
	DatabaseDriverMongoDB  DatabaseDriver = "mongodb"
	DatabaseDriverSQLite   DatabaseDriver = "sqlite"
)

// DatabaseConnection holds what is needed to reach an external database.
// It is embedded in an import job's source config rather than stored on its own.
type DatabaseConnection struct {
	Driver   DatabaseDriver `json:"driver"`
	Host     string         `json:"host"` // hostname, file path (sqlite) or full URI (mongodb)
	Port     int            `json:"port"`
	Database string         `json:"database"`
	Username string         `json:"username"`
	Password string         `json:"password"`
	SSLMode  string         `json:"sslMode"`

	// Options are extra URI parameters (authSource, replicaSet, ...).
	Options map[string]string `json:"options,omitempty"`
}
