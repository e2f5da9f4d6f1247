package iocache

import (
	"database/sql"
	"fmt"
	"strings"
	"time"

	"github.com/golang-migrate/migrate/v4"
	"github.com/huangsam/deepdive/internal/contract"
	"github.com/huangsam/deepdive/schema"
)

// runsTable is the table tracking analysis and deep-dive runs.
const runsTable = "deepdive_runs"

const runColumns = "run_id, kind, system_name, dimensions, status, start_time, end_time, duration_ms, segment_count, row_count, error_message"

// HistoryStoreImpl implements the HistoryStore interface.
type HistoryStoreImpl struct {
	db      *sql.DB
	migrate *migrate.Migrate
	backend schema.DatabaseBackend
}

var _ contract.HistoryStore = &HistoryStoreImpl{} // Compile-time check

// NewHistoryStore opens the history database and applies pending migrations.
func NewHistoryStore(backend schema.DatabaseBackend, connStr string) (contract.HistoryStore, error) {
	if backend == schema.NoneBackend {
		// No-op store for disabled tracking
		return &HistoryStoreImpl{backend: backend}, nil
	}
	if _, ok := migrationDir[backend]; !ok {
		return nil, fmt.Errorf("unsupported history backend: %s", backend)
	}

	db, err := openDB(backend, connStr, GetHistoryDBFilePath())
	if err != nil {
		return nil, err
	}

	m, err := newMigrate(db, backend)
	if err != nil {
		_ = db.Close()
		return nil, err
	}
	if err := migrateUp(m); err != nil {
		_, _ = m.Close()
		return nil, fmt.Errorf("failed to prepare history tables: %w", err)
	}

	return &HistoryStoreImpl{db: db, migrate: m, backend: backend}, nil
}

func (hs *HistoryStoreImpl) disabled() bool {
	return hs.backend == schema.NoneBackend || hs.db == nil
}

func (hs *HistoryStoreImpl) table() string {
	return quoteTableName(runsTable, hs.backend)
}

// BeginRun creates a running run and returns its unique ID.
func (hs *HistoryStoreImpl) BeginRun(kind schema.ReportKind, system string, dimensions []string, startTime time.Time) (int64, error) {
	if hs.disabled() {
		return 0, nil
	}

	dims := strings.Join(dimensions, ",")
	args := []any{string(kind), system, dims, string(schema.RunRunning), formatTime(startTime, hs.backend)}

	var runID int64
	switch hs.backend {
	case schema.PostgreSQLBackend:
		query := fmt.Sprintf(`INSERT INTO %s (kind, system_name, dimensions, status, start_time) VALUES ($1, $2, $3, $4, $5) RETURNING run_id`, hs.table())
		if err := hs.db.QueryRow(query, args...).Scan(&runID); err != nil {
			return 0, fmt.Errorf("failed to insert run: %w", err)
		}
	default: // SQLite and MySQL
		query := fmt.Sprintf(`INSERT INTO %s (kind, system_name, dimensions, status, start_time) VALUES (?, ?, ?, ?, ?)`, hs.table())
		result, err := hs.db.Exec(query, args...)
		if err != nil {
			return 0, fmt.Errorf("failed to insert run: %w", err)
		}
		if runID, err = result.LastInsertId(); err != nil {
			return 0, fmt.Errorf("failed to read run id: %w", err)
		}
	}
	return runID, nil
}

// EndRun records the final state of a run.
func (hs *HistoryStoreImpl) EndRun(runID int64, outcome schema.RunOutcome) error {
	if hs.disabled() {
		return nil
	}

	var start timeScanner
	query := fmt.Sprintf(`SELECT start_time FROM %s WHERE run_id = %s`, hs.table(), placeholder(hs.backend, 1))
	if err := hs.db.QueryRow(query, runID).Scan(&start); err != nil {
		return fmt.Errorf("failed to get start_time for run %d: %w", runID, err)
	}

	endTime := outcome.EndTime
	if endTime.IsZero() {
		endTime = time.Now()
	}
	durationMs := endTime.Sub(start.Time).Milliseconds()

	var errMsg any
	if outcome.Err != nil {
		errMsg = outcome.Err.Error()
	}

	p := func(n int) string { return placeholder(hs.backend, n) }
	update := fmt.Sprintf(`UPDATE %s SET status = %s, end_time = %s, duration_ms = %s, segment_count = %s, row_count = %s, error_message = %s WHERE run_id = %s`,
		hs.table(), p(1), p(2), p(3), p(4), p(5), p(6), p(7))
	_, err := hs.db.Exec(update,
		string(outcome.Status), formatTime(endTime, hs.backend), durationMs,
		outcome.SegmentCount, outcome.RowCount, errMsg, runID)
	if err != nil {
		return fmt.Errorf("failed to update run %d: %w", runID, err)
	}
	return nil
}

// ListRuns returns the most recent runs first. A limit <= 0 returns every run.
func (hs *HistoryStoreImpl) ListRuns(limit int) ([]schema.RunRecord, error) {
	if hs.disabled() {
		return nil, nil
	}

	query := fmt.Sprintf("SELECT %s FROM %s ORDER BY run_id DESC", runColumns, hs.table())
	var args []any
	if limit > 0 {
		query += " LIMIT " + placeholder(hs.backend, 1)
		args = append(args, limit)
	}

	rows, err := hs.db.Query(query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query runs: %w", err)
	}
	defer func() { _ = rows.Close() }()

	var results []schema.RunRecord
	for rows.Next() {
		record, err := scanRun(rows)
		if err != nil {
			return nil, err
		}
		results = append(results, record)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating runs: %w", err)
	}
	return results, nil
}

func scanRun(rows *sql.Rows) (schema.RunRecord, error) {
	var (
		record     schema.RunRecord
		kind       string
		status     string
		start, end timeScanner
		duration   sql.NullInt32
		errMsg     sql.NullString
	)
	if err := rows.Scan(&record.RunID, &kind, &record.System, &record.Dimensions, &status,
		&start, &end, &duration, &record.SegmentCount, &record.RowCount, &errMsg); err != nil {
		return record, fmt.Errorf("failed to scan run: %w", err)
	}
	record.Kind = schema.ReportKind(kind)
	record.Status = schema.RunStatus(status)
	record.StartTime = start.Time
	if end.Valid {
		t := end.Time
		record.EndTime = &t
	}
	if duration.Valid {
		d := duration.Int32
		record.DurationMs = &d
	}
	if errMsg.Valid {
		s := errMsg.String
		record.ErrorMessage = &s
	}
	return record, nil
}

// Close closes the underlying connection.
func (hs *HistoryStoreImpl) Close() error {
	if hs.migrate != nil {
		srcErr, dbErr := hs.migrate.Close()
		if dbErr != nil {
			return dbErr
		}
		return srcErr
	}
	if hs.db != nil {
		return hs.db.Close()
	}
	return nil
}

// GetStatus returns status information about the history store.
func (hs *HistoryStoreImpl) GetStatus() (schema.HistoryStatus, error) {
	status := schema.HistoryStatus{
		Backend:    string(hs.backend),
		Connected:  hs.db != nil,
		TableSizes: make(map[string]int64),
	}
	if hs.disabled() {
		return status, nil
	}

	row := hs.db.QueryRow(fmt.Sprintf("SELECT COUNT(*), COALESCE(SUM(row_count), 0) FROM %s", hs.table()))
	if err := row.Scan(&status.TotalRuns, &status.TotalRows); err != nil {
		return status, fmt.Errorf("failed to get total runs: %w", err)
	}
	status.TableSizes[runsTable] = int64(status.TotalRuns)

	if status.TotalRuns == 0 {
		return status, nil
	}

	var last, oldest timeScanner
	row = hs.db.QueryRow(fmt.Sprintf("SELECT run_id, start_time FROM %s ORDER BY run_id DESC LIMIT 1", hs.table()))
	if err := row.Scan(&status.LastRunID, &last); err != nil {
		return status, fmt.Errorf("failed to get last run info: %w", err)
	}
	status.LastRunTime = last.Time

	row = hs.db.QueryRow(fmt.Sprintf("SELECT start_time FROM %s ORDER BY run_id ASC LIMIT 1", hs.table()))
	if err := row.Scan(&oldest); err != nil {
		return status, fmt.Errorf("failed to get oldest run time: %w", err)
	}
	status.OldestRunTime = oldest.Time

	return status, nil
}
