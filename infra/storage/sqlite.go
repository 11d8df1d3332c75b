package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/mattn/go-sqlite3"
	"github.com/mstgnz/brqpay/infra/logger"
)

const maxRetries = 3

const schema = `
CREATE TABLE IF NOT EXISTS ledger_transactions (
	id TEXT PRIMARY KEY,
	order_id TEXT NOT NULL,
	order_transaction_id TEXT NOT NULL DEFAULT '',
	ordernumber TEXT NOT NULL DEFAULT '',
	type TEXT NOT NULL,
	transactions TEXT NOT NULL,
	unique_identifier TEXT NOT NULL,
	transaction_type TEXT NOT NULL DEFAULT '',
	relatedtransaction TEXT NOT NULL DEFAULT '',
	transaction_method TEXT NOT NULL DEFAULT '',
	statuscode TEXT NOT NULL DEFAULT '',
	status TEXT NOT NULL DEFAULT '',
	amount TEXT NOT NULL DEFAULT '0',
	amount_credit TEXT NOT NULL DEFAULT '0',
	currency TEXT NOT NULL DEFAULT '',
	is_test INTEGER NOT NULL DEFAULT 0,
	refunded_items TEXT NOT NULL DEFAULT '{}',
	credited_refunds TEXT NOT NULL DEFAULT '[]',
	created_by_engine_at TEXT NOT NULL,
	created_at TEXT NOT NULL,
	updated_at TEXT NOT NULL,
	UNIQUE(transactions, unique_identifier)
);

CREATE INDEX IF NOT EXISTS idx_ledger_order ON ledger_transactions(order_id);
CREATE INDEX IF NOT EXISTS idx_ledger_transactions ON ledger_transactions(transactions);

CREATE TABLE IF NOT EXISTS orders (
	id TEXT PRIMARY KEY,
	number TEXT NOT NULL DEFAULT '',
	transaction_id TEXT NOT NULL DEFAULT '',
	currency TEXT NOT NULL DEFAULT '',
	total TEXT NOT NULL DEFAULT '0',
	shipping_total TEXT NOT NULL DEFAULT '0',
	payment_method TEXT NOT NULL DEFAULT '',
	payment_status TEXT NOT NULL,
	deliveries INTEGER NOT NULL DEFAULT 0,
	line_items TEXT NOT NULL DEFAULT '[]',
	billing TEXT NOT NULL DEFAULT '',
	metadata TEXT NOT NULL DEFAULT '{}',
	created_at TEXT NOT NULL,
	updated_at TEXT NOT NULL
);

CREATE INDEX IF NOT EXISTS idx_orders_number ON orders(number);
`

// SQLite is the database behind the ledger and the order projection
type SQLite struct {
	db   *sql.DB
	path string
}

// NewSQLite opens (and creates) the database at dbPath in WAL mode
func NewSQLite(dbPath string) (*SQLite, error) {
	dir := filepath.Dir(dbPath)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create directory %s: %w", dir, err)
	}

	connStr := fmt.Sprintf("%s?_journal_mode=WAL&_synchronous=NORMAL&_busy_timeout=20000&_txlock=immediate", dbPath)
	db, err := sql.Open("sqlite3", connStr)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	db.SetMaxOpenConns(10)
	db.SetMaxIdleConns(5)
	db.SetConnMaxLifetime(0)

	s := &SQLite{db: db, path: dbPath}
	if _, err := db.Exec(schema); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to initialize schema: %w", err)
	}
	if err := s.addColumn("orders", "payment_method", "TEXT NOT NULL DEFAULT ''"); err != nil {
		db.Close()
		return nil, err
	}

	var journalMode string
	if err := db.QueryRow("PRAGMA journal_mode;").Scan(&journalMode); err != nil {
		logger.Warn(fmt.Sprintf("failed to check journal mode: %v", err))
	}

	logger.Info(fmt.Sprintf("SQLite storage initialized at %s (journal mode %s)", dbPath, journalMode))
	return s, nil
}

// addColumn adds a column that databases created by older builds lack
func (s *SQLite) addColumn(table, column, definition string) error {
	rows, err := s.db.Query(fmt.Sprintf("PRAGMA table_info(%s)", table))
	if err != nil {
		return fmt.Errorf("failed to inspect table %s: %w", table, err)
	}
	defer rows.Close()

	for rows.Next() {
		var (
			cid, notNull, pk int
			name, colType    string
			defaultValue     sql.NullString
		)
		if err := rows.Scan(&cid, &name, &colType, &notNull, &defaultValue, &pk); err != nil {
			return fmt.Errorf("failed to inspect table %s: %w", table, err)
		}
		if name == column {
			return nil
		}
	}
	if err := rows.Err(); err != nil {
		return fmt.Errorf("failed to inspect table %s: %w", table, err)
	}
	rows.Close()

	if _, err := s.db.Exec(fmt.Sprintf("ALTER TABLE %s ADD COLUMN %s %s", table, column, definition)); err != nil {
		return fmt.Errorf("failed to add column %s.%s: %w", table, column, err)
	}
	return nil
}

// Ping checks that the database answers
func (s *SQLite) Ping(ctx context.Context) error {
	return s.db.PingContext(ctx)
}

// Close closes the database
func (s *SQLite) Close() error {
	return s.db.Close()
}

// Ledger returns the ledger.Store backed by this database
func (s *SQLite) Ledger() *LedgerStore {
	return &LedgerStore{db: s}
}

// Orders returns the order.Store backed by this database
func (s *SQLite) Orders() *OrderStore {
	return &OrderStore{db: s}
}

// retry runs op again while SQLite reports the database busy or locked
func (s *SQLite) retry(ctx context.Context, op func() error) error {
	var lastErr error
	for attempt := 0; attempt <= maxRetries; attempt++ {
		err := op()
		if err == nil || !isBusy(err) {
			return err
		}
		lastErr = err
		if attempt == maxRetries {
			break
		}

		backoff := time.Duration(10*(1<<attempt)) * time.Millisecond
		logger.Debug(fmt.Sprintf("SQLite busy, retrying in %v (attempt %d/%d)", backoff, attempt+1, maxRetries+1))
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(backoff):
		}
	}
	return fmt.Errorf("operation failed after %d retries, last error: %w", maxRetries+1, lastErr)
}

func isBusy(err error) bool {
	var sqliteErr sqlite3.Error
	if errors.As(err, &sqliteErr) {
		return sqliteErr.Code == sqlite3.ErrBusy || sqliteErr.Code == sqlite3.ErrLocked
	}
	return false
}

const timeLayout = time.RFC3339Nano

func formatTime(t time.Time) string {
	return t.UTC().Format(timeLayout)
}

func parseTime(raw string) (time.Time, error) {
	if raw == "" {
		return time.Time{}, nil
	}
	return time.Parse(timeLayout, raw)
}
