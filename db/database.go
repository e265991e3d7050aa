package db

import (
	"database/sql"
	"fmt"
	"strings"

	"arborist-study-api/utils"

	_ "github.com/go-sql-driver/mysql"
	_ "github.com/lib/pq"
	_ "github.com/mattn/go-sqlite3"
)

// DB wraps the database connection with dialect support
type DB struct {
	*sql.DB
	dialect Dialect
}

// Config selects the storage engine. Type is sqlite (default), postgres or
// mysql; Path is used for sqlite, URL for the others.
type Config struct {
	Type string
	Path string
	URL  string
}

func InitDB(cfg Config) (*DB, error) {
	var dialect Dialect
	var dialectConfig DialectConfig

	switch strings.ToLower(cfg.Type) {
	case "postgres", "postgresql":
		dialect = NewPostgresDialect()
		dialectConfig = DialectConfig{URL: cfg.URL}
	case "mysql":
		dialect = NewMySQLDialect()
		dialectConfig = DialectConfig{URL: cfg.URL}
	case "sqlite", "sqlite3", "":
		dialect = NewSQLiteDialect()
		dialectConfig = DialectConfig{Path: cfg.Path}
	default:
		return nil, fmt.Errorf("unsupported database type: %s", cfg.Type)
	}

	utils.LogStartup("Initializing %s database", dialect.DriverName())

	sqlDB, err := sql.Open(dialect.DriverName(), dialect.DSN(dialectConfig))
	if err != nil {
		utils.LogError("Failed to open database: %v", err)
		return nil, err
	}

	if err := sqlDB.Ping(); err != nil {
		utils.LogError("Failed to ping database: %v", err)
		return nil, err
	}

	if err := dialect.ConfigureConnection(sqlDB); err != nil {
		return nil, fmt.Errorf("failed to configure connection: %w", err)
	}

	db := &DB{DB: sqlDB, dialect: dialect}

	if err := db.createTables(); err != nil {
		utils.LogError("Failed to create tables: %v", err)
		return nil, err
	}

	utils.LogStartup("Database tables initialized successfully")
	return db, nil
}

// Query executes a query with automatic placeholder rewriting
func (db *DB) Query(query string, args ...interface{}) (*sql.Rows, error) {
	return db.DB.Query(db.dialect.RewriteQuery(query), args...)
}

// QueryRow executes a single-row query with automatic placeholder rewriting
func (db *DB) QueryRow(query string, args ...interface{}) *sql.Row {
	return db.DB.QueryRow(db.dialect.RewriteQuery(query), args...)
}

// Exec executes a statement with automatic placeholder rewriting
func (db *DB) Exec(query string, args ...interface{}) (sql.Result, error) {
	return db.DB.Exec(db.dialect.RewriteQuery(query), args...)
}

// ExecReturningID executes an INSERT and returns the new row's id, papering
// over the LastInsertId vs RETURNING split between drivers
func (db *DB) ExecReturningID(query string, args ...interface{}) (int64, error) {
	rewritten := db.dialect.RewriteQuery(query)

	if db.dialect.SupportsLastInsertId() {
		result, err := db.DB.Exec(rewritten, args...)
		if err != nil {
			return 0, err
		}
		return result.LastInsertId()
	}

	rewritten = strings.TrimSuffix(strings.TrimSpace(rewritten), ";") + " RETURNING id"

	var id int64
	if err := db.DB.QueryRow(rewritten, args...).Scan(&id); err != nil {
		return 0, err
	}
	return id, nil
}

func (db *DB) createTables() error {
	pk := db.dialect.AutoIncrementPK()

	queries := []string{
		`CREATE TABLE IF NOT EXISTS users (
			id ` + pk + `,
			username VARCHAR(64) UNIQUE NOT NULL,
			email VARCHAR(255) UNIQUE NOT NULL,
			password_hash VARCHAR(255) NOT NULL,
			name VARCHAR(255) NOT NULL,
			language VARCHAR(8) NOT NULL,
			created_at TIMESTAMP NOT NULL,
			updated_at TIMESTAMP NOT NULL
		)`,

		`CREATE TABLE IF NOT EXISTS questions (
			id ` + pk + `,
			topic_id INTEGER NOT NULL,
			type VARCHAR(32) NOT NULL,
			question_es TEXT NOT NULL,
			question_en TEXT NOT NULL,
			options_es TEXT,
			options_en TEXT,
			correct_answer INTEGER NOT NULL,
			explanation_es TEXT NOT NULL,
			explanation_en TEXT NOT NULL,
			difficulty VARCHAR(16) NOT NULL,
			created_at TIMESTAMP NOT NULL
		)`,

		`CREATE TABLE IF NOT EXISTS exam_sessions (
			id ` + pk + `,
			exam_id VARCHAR(64) UNIQUE NOT NULL,
			user_id INTEGER NOT NULL,
			exam_type VARCHAR(16) NOT NULL,
			topic_id INTEGER,
			question_ids TEXT NOT NULL,
			start_time TIMESTAMP NOT NULL,
			duration INTEGER NOT NULL,
			is_completed BOOLEAN NOT NULL DEFAULT FALSE,
			completed_at TIMESTAMP,
			created_at TIMESTAMP NOT NULL
		)`,

		`CREATE TABLE IF NOT EXISTS exam_results (
			id ` + pk + `,
			user_id INTEGER NOT NULL,
			exam_type VARCHAR(16) NOT NULL,
			topic_id INTEGER,
			score INTEGER NOT NULL,
			correct_answers INTEGER NOT NULL,
			total_questions INTEGER NOT NULL,
			time_spent INTEGER NOT NULL,
			answers TEXT NOT NULL,
			question_ids TEXT NOT NULL,
			completed_at TIMESTAMP NOT NULL,
			created_at TIMESTAMP NOT NULL
		)`,

		`CREATE TABLE IF NOT EXISTS user_progress (
			user_id INTEGER PRIMARY KEY,
			completed_questions INTEGER NOT NULL DEFAULT 0,
			total_questions INTEGER NOT NULL DEFAULT 100,
			average_score REAL NOT NULL DEFAULT 0,
			topic_scores TEXT NOT NULL,
			updated_at TIMESTAMP NOT NULL
		)`,

		`CREATE TABLE IF NOT EXISTS subscriptions (
			id ` + pk + `,
			user_id INTEGER UNIQUE NOT NULL,
			status VARCHAR(16) NOT NULL,
			plan_id VARCHAR(64) NOT NULL,
			trial_start_date TIMESTAMP,
			trial_end_date TIMESTAMP,
			subscription_start_date TIMESTAMP,
			subscription_end_date TIMESTAMP,
			created_at TIMESTAMP NOT NULL,
			updated_at TIMESTAMP NOT NULL
		)`,

		`CREATE TABLE IF NOT EXISTS payments (
			id ` + pk + `,
			user_id INTEGER NOT NULL,
			subscription_id INTEGER NOT NULL,
			provider_order_id VARCHAR(128) NOT NULL,
			provider_payment_id VARCHAR(128),
			amount REAL NOT NULL,
			currency VARCHAR(8) NOT NULL,
			status VARCHAR(16) NOT NULL,
			created_at TIMESTAMP NOT NULL,
			updated_at TIMESTAMP NOT NULL
		)`,
	}

	for i, query := range queries {
		utils.LogDB("Creating table %d/%d", i+1, len(queries))
		if _, err := db.DB.Exec(query); err != nil {
			return fmt.Errorf("failed to create table: %w", err)
		}
	}

	indexes := []string{
		"CREATE INDEX IF NOT EXISTS idx_questions_topic_id ON questions(topic_id)",
		"CREATE INDEX IF NOT EXISTS idx_exam_sessions_user_id ON exam_sessions(user_id)",
		"CREATE INDEX IF NOT EXISTS idx_exam_results_user_id ON exam_results(user_id)",
		"CREATE INDEX IF NOT EXISTS idx_payments_user_id ON payments(user_id)",
	}

	for _, index := range indexes {
		if _, err := db.DB.Exec(index); err != nil {
			utils.LogDB("Failed to create index (non-fatal): %v", err)
		}
	}

	return nil
}
