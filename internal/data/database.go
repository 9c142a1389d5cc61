package data

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"sync"
	"time"

	_ "modernc.org/sqlite"

	"iqrabackend/internal/logger"
)

// =============================================================================
// CONSTANTS AND GLOBAL VARIABLES
// =============================================================================

// Global database instance
var (
	db   *sql.DB
	dbMu sync.RWMutex
)

// Database connection pool configuration
const (
	maxOpenConns    = 25
	maxIdleConns    = 5
	connMaxLifetime = time.Hour
	connMaxIdleTime = time.Minute * 15
	queryTimeout    = time.Second * 30
)

const TimeFormat = time.RFC3339

// =============================================================================
// DATABASE CONNECTION AND SETUP
// =============================================================================

// InitDB initializes the database with connection pooling and resilience
func InitDB(dataSourceName string) error {
	dbMu.Lock()
	defer dbMu.Unlock()

	// Close existing connection if any
	if db != nil {
		db.Close()
	}

	return initDBWithRetry(dataSourceName, 3)
}

func initDBWithRetry(dataSourceName string, maxRetries int) error {
	var err error

	for attempt := 1; attempt <= maxRetries; attempt++ {
		db, err = sql.Open("sqlite", dataSourceName)
		if err != nil {
			logger.LogWarn("Database connection attempt %d failed: %v", attempt, err)
			if attempt < maxRetries {
				time.Sleep(time.Duration(attempt) * time.Second)
				continue
			}
			return fmt.Errorf("failed to open database after %d attempts: %w", maxRetries, err)
		}

		// Configure connection pool
		db.SetMaxOpenConns(maxOpenConns)
		db.SetMaxIdleConns(maxIdleConns)
		db.SetConnMaxLifetime(connMaxLifetime)
		db.SetConnMaxIdleTime(connMaxIdleTime)

		// Test the connection
		ctx, cancel := context.WithTimeout(context.Background(), queryTimeout)
		err = db.PingContext(ctx)
		cancel()

		if err != nil {
			logger.LogWarn("Database ping attempt %d failed: %v", attempt, err)
			db.Close()
			if attempt < maxRetries {
				time.Sleep(time.Duration(attempt) * time.Second)
				continue
			}
			return fmt.Errorf("failed to ping database after %d attempts: %w", maxRetries, err)
		}

		if err := enablePragmas(db); err != nil {
			logger.LogWarn("Failed to enable some database optimizations: %v", err)
			// Don't fail initialization for pragma errors
		}

		logger.LogInfo("Database connection established successfully (attempt %d)", attempt)
		return nil
	}

	return fmt.Errorf("failed to initialize database after %d attempts", maxRetries)
}

func enablePragmas(conn *sql.DB) error {
	pragmas := []string{
		"PRAGMA foreign_keys = ON",
		"PRAGMA journal_mode = WAL",
		"PRAGMA synchronous = NORMAL",
		"PRAGMA cache_size = -64000",
		"PRAGMA temp_store = MEMORY",
	}

	var lastErr error
	for _, pragma := range pragmas {
		ctx, cancel := context.WithTimeout(context.Background(), time.Second*5)
		_, err := conn.ExecContext(ctx, pragma)
		cancel()

		if err != nil {
			logger.LogWarn("Failed to execute %s: %v", pragma, err)
			lastErr = err
		}
	}
	return lastErr
}

// GetDB returns the database connection with health check
func GetDB() (*sql.DB, error) {
	dbMu.RLock()
	defer dbMu.RUnlock()

	if db == nil {
		return nil, fmt.Errorf("database not initialized")
	}

	ctx, cancel := context.WithTimeout(context.Background(), time.Second*2)
	defer cancel()

	if err := db.PingContext(ctx); err != nil {
		logger.LogError("Database health check failed: %v", err)
		return nil, fmt.Errorf("database connection unhealthy: %w", err)
	}

	return db, nil
}

// CloseDB closes the database connection gracefully
func CloseDB() error {
	dbMu.Lock()
	defer dbMu.Unlock()

	if db != nil {
		err := db.Close()
		db = nil
		return err
	}
	return nil
}

// =============================================================================
// SCHEMA DEFINITIONS
// =============================================================================

const departmentsTableSchema = `
	CREATE TABLE IF NOT EXISTS departments (
		name TEXT PRIMARY KEY,
		start_date TEXT NOT NULL,
		end_date TEXT NOT NULL,
		full_amount REAL NOT NULL DEFAULT 0,
		full_payment_discount REAL,
		full_payment_discount_type TEXT DEFAULT 'percent',
		sibling_discount REAL,
		sibling_discount_type TEXT DEFAULT 'percent',
		notes TEXT
	);`

const departmentSchedulesTableSchema = `
	CREATE TABLE IF NOT EXISTS department_schedules (
		department_name TEXT PRIMARY KEY,
		days_json TEXT NOT NULL DEFAULT '[]',
		start_time TEXT NOT NULL DEFAULT '',
		end_time TEXT NOT NULL DEFAULT ''
	);`

const familiesTableSchema = `
	CREATE TABLE IF NOT EXISTS families (
		rg_number INTEGER PRIMARY KEY,
		parent_name1 TEXT NOT NULL,
		parent_phone1 TEXT NOT NULL,
		parent_name2 TEXT DEFAULT '',
		parent_phone2 TEXT DEFAULT '',
		additional_name TEXT DEFAULT '',
		additional_phone TEXT DEFAULT '',
		children_json TEXT NOT NULL DEFAULT '[]',
		registered_date TEXT NOT NULL,
		status TEXT NOT NULL DEFAULT 'Active'
	);`

// Payment rows are append-only: one row per version of a transaction,
// keyed (transaction_id, version). Supersede and void are conditional
// updates on the single row with is_superseded = 0, so the one-current-
// row-per-chain invariant holds even with concurrent writers.
const paymentsTableSchema = `
	CREATE TABLE IF NOT EXISTS payments (
		transaction_id TEXT NOT NULL,
		version TEXT NOT NULL,
		rg_number INTEGER NOT NULL,
		student_name TEXT NOT NULL,
		department_name TEXT NOT NULL,
		amount REAL NOT NULL,
		method TEXT NOT NULL,
		pay_date TEXT NOT NULL,
		status TEXT NOT NULL DEFAULT 'active',
		is_superseded INTEGER NOT NULL DEFAULT 0,
		superseded_by TEXT,
		previous_amount REAL,
		edited_at TEXT,
		recorded_at TEXT NOT NULL,
		PRIMARY KEY (transaction_id, version)
	);
	CREATE INDEX IF NOT EXISTS idx_payments_rg ON payments(rg_number);
	CREATE INDEX IF NOT EXISTS idx_payments_current ON payments(transaction_id, is_superseded);
	CREATE INDEX IF NOT EXISTS idx_payments_department ON payments(department_name);`

const settingsTableSchema = `
	CREATE TABLE IF NOT EXISTS settings (
		key TEXT PRIMARY KEY,
		value TEXT NOT NULL
	);`

const sequencesTableSchema = `
	CREATE TABLE IF NOT EXISTS sequences (
		name TEXT PRIMARY KEY,
		next INTEGER NOT NULL
	);`

// =============================================================================
// TABLE CREATION
// =============================================================================

func CreateTables() error {
	tables := []struct {
		name   string
		schema string
	}{
		{"departments", departmentsTableSchema},
		{"department_schedules", departmentSchedulesTableSchema},
		{"families", familiesTableSchema},
		{"payments", paymentsTableSchema},
		{"settings", settingsTableSchema},
		{"sequences", sequencesTableSchema},
	}

	for _, table := range tables {
		if _, err := db.Exec(table.schema); err != nil {
			return fmt.Errorf("failed to create %s table: %w", table.name, err)
		}
	}

	return nil
}

// =============================================================================
// UTILITY FUNCTIONS (JSON AND TIME HANDLING)
// =============================================================================

// JSON utilities

func marshalJSON(v interface{}) (string, error) {
	data, err := json.Marshal(v)
	if err != nil {
		return "", fmt.Errorf("failed to marshal JSON: %w", err)
	}
	return string(data), nil
}

func unmarshalNullableJSON(nullStr sql.NullString, v interface{}) error {
	if !nullStr.Valid || nullStr.String == "" {
		switch ptr := v.(type) {
		case *[]Child:
			*ptr = []Child{}
		case *[]string:
			*ptr = []string{}
		default:
			// Zero value is fine for other types
		}
		return nil
	}

	if err := json.Unmarshal([]byte(nullStr.String), v); err != nil {
		return fmt.Errorf("failed to unmarshal JSON: %w", err)
	}
	return nil
}

// Time utilities

func formatTime(t time.Time) string {
	return t.Format(TimeFormat)
}

func formatNullableTime(t *time.Time) interface{} {
	if t == nil {
		return nil
	}
	return t.Format(TimeFormat)
}

func parseTime(timeStr string) (time.Time, error) {
	return time.Parse(TimeFormat, timeStr)
}

func parseNullableTime(nullStr sql.NullString) (*time.Time, error) {
	if !nullStr.Valid || nullStr.String == "" {
		return nil, nil
	}

	parsedTime, err := time.Parse(TimeFormat, nullStr.String)
	if err != nil {
		return nil, fmt.Errorf("failed to parse time: %w", err)
	}

	return &parsedTime, nil
}

// =============================================================================
// GENERIC DATABASE OPERATIONS
// =============================================================================

// ExecDB executes a statement with error handling and a timeout
func ExecDB(query string, args ...interface{}) (sql.Result, error) {
	dbConn, err := GetDB()
	if err != nil {
		return nil, err
	}

	ctx, cancel := context.WithTimeout(context.Background(), queryTimeout)
	defer cancel()

	result, err := dbConn.ExecContext(ctx, query, args...)
	if err != nil {
		logger.LogError("Database exec failed: query=%s, error=%v", query, err)
		return nil, fmt.Errorf("database execution failed: %w", err)
	}

	return result, nil
}

// QueryDB executes a query with timeout and returns rows
func QueryDB(query string, args ...interface{}) (*sql.Rows, error) {
	dbConn, err := GetDB()
	if err != nil {
		return nil, err
	}

	ctx, cancel := context.WithTimeout(context.Background(), queryTimeout)
	defer cancel()

	rows, err := dbConn.QueryContext(ctx, query, args...)
	if err != nil {
		logger.LogError("Database query failed: query=%s, error=%v", query, err)
		return nil, fmt.Errorf("database query failed: %w", err)
	}

	return rows, nil
}

// QueryRowDB executes a query that returns a single row
func QueryRowDB(query string, args ...interface{}) *sql.Row {
	dbConn, _ := GetDB() // We'll let the query fail if DB is unavailable

	ctx, cancel := context.WithTimeout(context.Background(), queryTimeout)
	defer cancel()

	return dbConn.QueryRowContext(ctx, query, args...)
}

// WithTx runs fn inside a transaction, rolling back on error
func WithTx(fn func(tx *sql.Tx) error) error {
	dbConn, err := GetDB()
	if err != nil {
		return err
	}

	ctx, cancel := context.WithTimeout(context.Background(), queryTimeout)
	defer cancel()

	tx, err := dbConn.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}

	if err := fn(tx); err != nil {
		if rbErr := tx.Rollback(); rbErr != nil {
			logger.LogError("Transaction rollback failed: %v", rbErr)
		}
		return err
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit transaction: %w", err)
	}
	return nil
}
