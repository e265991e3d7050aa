package db

import (
	"database/sql"
	"regexp"
	"strconv"
	"strings"
)

// Dialect covers the database-specific pieces of the storage layer. Queries
// are written with ? placeholders and rewritten per dialect.
type Dialect interface {
	// DriverName returns the driver name for sql.Open
	DriverName() string

	// DSN returns the data source name for the connection
	DSN(cfg DialectConfig) string

	// RewriteQuery converts placeholder syntax if needed (e.g., ? to $1 for postgres)
	RewriteQuery(query string) string

	// SupportsLastInsertId returns true if the driver supports LastInsertId()
	SupportsLastInsertId() bool

	// AutoIncrementPK returns the column definition for an auto-incrementing id
	AutoIncrementPK() string

	// RandomFunction returns the SQL function used for random ordering
	RandomFunction() string

	// ConfigureConnection applies database-specific connection settings
	ConfigureConnection(db *sql.DB) error
}

// DialectConfig holds connection settings for a dialect
type DialectConfig struct {
	// For SQLite
	Path string

	// For PostgreSQL/MySQL
	URL string
}

var placeholderRegexp = regexp.MustCompile(`\?`)

// rewritePlaceholdersToNumbered converts ? placeholders to $1, $2, etc.
func rewritePlaceholdersToNumbered(query string) string {
	counter := 0
	return placeholderRegexp.ReplaceAllStringFunc(query, func(string) string {
		counter++
		return "$" + strconv.Itoa(counter)
	})
}

// --- SQLite ---

type sqliteDialect struct{}

func NewSQLiteDialect() Dialect { return sqliteDialect{} }

func (sqliteDialect) DriverName() string { return "sqlite3" }

func (sqliteDialect) DSN(cfg DialectConfig) string {
	return cfg.Path + "?_foreign_keys=on"
}

func (sqliteDialect) RewriteQuery(query string) string { return query }

func (sqliteDialect) SupportsLastInsertId() bool { return true }

func (sqliteDialect) AutoIncrementPK() string { return "INTEGER PRIMARY KEY AUTOINCREMENT" }

func (sqliteDialect) RandomFunction() string { return "RANDOM()" }

func (sqliteDialect) ConfigureConnection(db *sql.DB) error {
	// A single writer avoids SQLITE_BUSY under concurrent requests
	db.SetMaxOpenConns(1)
	return nil
}

// --- PostgreSQL ---

type postgresDialect struct{}

func NewPostgresDialect() Dialect { return postgresDialect{} }

func (postgresDialect) DriverName() string { return "postgres" }

func (postgresDialect) DSN(cfg DialectConfig) string { return cfg.URL }

func (postgresDialect) RewriteQuery(query string) string {
	return rewritePlaceholdersToNumbered(query)
}

func (postgresDialect) SupportsLastInsertId() bool { return false }

func (postgresDialect) AutoIncrementPK() string { return "SERIAL PRIMARY KEY" }

func (postgresDialect) RandomFunction() string { return "RANDOM()" }

func (postgresDialect) ConfigureConnection(*sql.DB) error { return nil }

// --- MySQL ---

type mysqlDialect struct{}

func NewMySQLDialect() Dialect { return mysqlDialect{} }

func (mysqlDialect) DriverName() string { return "mysql" }

func (mysqlDialect) DSN(cfg DialectConfig) string {
	// parseTime is required to scan TIMESTAMP columns into time.Time
	if strings.Contains(cfg.URL, "parseTime") {
		return cfg.URL
	}
	sep := "?"
	if strings.Contains(cfg.URL, "?") {
		sep = "&"
	}
	return cfg.URL + sep + "parseTime=true"
}

func (mysqlDialect) RewriteQuery(query string) string { return query }

func (mysqlDialect) SupportsLastInsertId() bool { return true }

func (mysqlDialect) AutoIncrementPK() string { return "INTEGER AUTO_INCREMENT PRIMARY KEY" }

func (mysqlDialect) RandomFunction() string { return "RAND()" }

func (mysqlDialect) ConfigureConnection(*sql.DB) error { return nil }
