package iocache

import (
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/go-sql-driver/mysql"
	"github.com/huangsam/deepdive/internal/contract"
	"github.com/huangsam/deepdive/schema"
)

// slotsTable is the name of the table holding result slots.
const slotsTable = "deepdive_slots"

// ResultStoreImpl keeps result slots in a SQL table.
type ResultStoreImpl struct {
	db        *sql.DB
	tableName string
	backend   schema.DatabaseBackend
	connStr   string
	now       func() time.Time
}

var _ contract.ResultStore = &ResultStoreImpl{} // Compile-time check

// NewResultStore initializes and returns a new ResultStore based on the backend type.
func NewResultStore(tableName string, backend schema.DatabaseBackend, connStr string) (contract.ResultStore, error) {
	if err := validateTableName(tableName); err != nil {
		return nil, err
	}

	switch backend {
	case schema.MemoryBackend:
		return NewMemoryStore(), nil
	case schema.NoneBackend:
		// No-op store: Get always misses
		return &ResultStoreImpl{tableName: tableName, backend: backend, connStr: connStr, now: time.Now}, nil
	}

	db, err := openDB(backend, connStr, GetStoreDBFilePath())
	if err != nil {
		return nil, err
	}

	if _, err := db.Exec(getCreateSlotsQuery(tableName, backend)); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("failed to create table %s: %w", tableName, err)
	}

	return &ResultStoreImpl{
		db:        db,
		tableName: tableName,
		backend:   backend,
		connStr:   connStr,
		now:       time.Now,
	}, nil
}

// getCreateSlotsQuery returns the CREATE TABLE query for the given backend.
func getCreateSlotsQuery(tableName string, backend schema.DatabaseBackend) string {
	quoted := quoteTableName(tableName, backend)
	switch backend {
	case schema.MySQLBackend:
		return fmt.Sprintf(`
			CREATE TABLE IF NOT EXISTS %s (
				slot_key VARCHAR(64) PRIMARY KEY,
				slot_value LONGBLOB NOT NULL,
				updated_at BIGINT NOT NULL
			);
		`, quoted)

	case schema.PostgreSQLBackend:
		return fmt.Sprintf(`
			CREATE TABLE IF NOT EXISTS %s (
				slot_key TEXT PRIMARY KEY,
				slot_value BYTEA NOT NULL,
				updated_at BIGINT NOT NULL
			);
		`, quoted)

	default: // SQLite
		return fmt.Sprintf(`
			CREATE TABLE IF NOT EXISTS %s (
				slot_key TEXT PRIMARY KEY,
				slot_value BLOB NOT NULL,
				updated_at INTEGER NOT NULL
			);
		`, quoted)
	}
}

func (rs *ResultStoreImpl) disabled() bool {
	return rs.backend == schema.NoneBackend || rs.db == nil
}

// Get retrieves the blob stored under key.
func (rs *ResultStoreImpl) Get(key string) ([]byte, bool, error) {
	if rs.disabled() {
		return nil, false, nil
	}

	query := fmt.Sprintf(`SELECT slot_value FROM %s WHERE slot_key = %s`,
		quoteTableName(rs.tableName, rs.backend), placeholder(rs.backend, 1))

	var value []byte
	if err := rs.db.QueryRow(query, key).Scan(&value); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, false, nil
		}
		return nil, false, fmt.Errorf("failed to read slot %s: %w", key, err)
	}
	return value, true, nil
}

// Put inserts or replaces the blob under key.
func (rs *ResultStoreImpl) Put(key string, value []byte) error {
	if rs.disabled() {
		return nil
	}
	if value == nil {
		value = []byte{}
	}
	if _, err := rs.db.Exec(rs.getUpsertQuery(), key, value, rs.now().Unix()); err != nil {
		return fmt.Errorf("failed to write slot %s: %w", key, err)
	}
	return nil
}

// Clear removes the blob under key. Clearing an absent key is not an error.
func (rs *ResultStoreImpl) Clear(key string) error {
	if rs.disabled() {
		return nil
	}
	query := fmt.Sprintf(`DELETE FROM %s WHERE slot_key = %s`,
		quoteTableName(rs.tableName, rs.backend), placeholder(rs.backend, 1))
	if _, err := rs.db.Exec(query, key); err != nil {
		return fmt.Errorf("failed to clear slot %s: %w", key, err)
	}
	return nil
}

// getUpsertQuery returns the UPSERT query for the backend.
func (rs *ResultStoreImpl) getUpsertQuery() string {
	quoted := quoteTableName(rs.tableName, rs.backend)
	switch rs.backend {
	case schema.MySQLBackend:
		return fmt.Sprintf(`INSERT INTO %s (slot_key, slot_value, updated_at) VALUES (?, ?, ?) AS new
			ON DUPLICATE KEY UPDATE slot_value = new.slot_value, updated_at = new.updated_at`, quoted)

	case schema.PostgreSQLBackend:
		return fmt.Sprintf(`INSERT INTO %s (slot_key, slot_value, updated_at) VALUES ($1, $2, $3)
			ON CONFLICT (slot_key) DO UPDATE SET slot_value = EXCLUDED.slot_value, updated_at = EXCLUDED.updated_at`, quoted)

	default: // SQLite
		return fmt.Sprintf(`INSERT OR REPLACE INTO %s (slot_key, slot_value, updated_at) VALUES (?, ?, ?)`, quoted)
	}
}

// Close closes the underlying DB connection.
func (rs *ResultStoreImpl) Close() error {
	if rs.db != nil {
		return rs.db.Close()
	}
	return nil
}

// GetStatus returns status information about the result store.
func (rs *ResultStoreImpl) GetStatus() (schema.StoreStatus, error) {
	status := schema.StoreStatus{
		Backend:   string(rs.backend),
		Connected: rs.db != nil,
	}
	if rs.disabled() {
		return status, nil
	}

	quoted := quoteTableName(rs.tableName, rs.backend)

	rows, err := rs.db.Query(fmt.Sprintf("SELECT slot_key FROM %s ORDER BY slot_key", quoted))
	if err != nil {
		return status, fmt.Errorf("failed to list slots: %w", err)
	}
	defer func() { _ = rows.Close() }()
	for rows.Next() {
		var key string
		if err := rows.Scan(&key); err != nil {
			return status, fmt.Errorf("failed to scan slot key: %w", err)
		}
		status.Keys = append(status.Keys, key)
	}
	if err := rows.Err(); err != nil {
		return status, fmt.Errorf("error iterating slots: %w", err)
	}
	status.TotalEntries = len(status.Keys)
	if status.TotalEntries == 0 {
		return status, nil
	}

	var lastTs, oldestTs int64
	row := rs.db.QueryRow(fmt.Sprintf("SELECT MAX(updated_at), MIN(updated_at) FROM %s", quoted))
	if err := row.Scan(&lastTs, &oldestTs); err != nil {
		return status, fmt.Errorf("failed to get entry times: %w", err)
	}
	status.LastEntryTime = time.Unix(lastTs, 0)
	status.OldestEntryTime = time.Unix(oldestTs, 0)

	status.TableSizeBytes = rs.tableSize(int64(status.TotalEntries))
	return status, nil
}

// tableSize asks the backend for the table footprint, falling back to a rough estimate.
func (rs *ResultStoreImpl) tableSize(entries int64) int64 {
	estimate := entries * 1000
	var size int64

	switch rs.backend {
	case schema.SQLiteBackend:
		row := rs.db.QueryRow("SELECT page_count * page_size FROM pragma_page_count(), pragma_page_size()")
		if err := row.Scan(&size); err != nil {
			return 0
		}
		return size

	case schema.MySQLBackend:
		cfg, err := mysql.ParseDSN(rs.connStr)
		if err != nil || cfg.DBName == "" {
			return estimate
		}
		row := rs.db.QueryRow("SELECT data_length + index_length FROM information_schema.tables WHERE table_schema = ? AND table_name = ?", cfg.DBName, rs.tableName)
		if err := row.Scan(&size); err != nil {
			return estimate
		}
		return size

	case schema.PostgreSQLBackend:
		row := rs.db.QueryRow("SELECT pg_total_relation_size($1)", rs.tableName)
		if err := row.Scan(&size); err != nil {
			return estimate
		}
		return size
	}
	return estimate
}
