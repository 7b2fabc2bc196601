package archive

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	_ "github.com/mattn/go-sqlite3" // registers "sqlite3"
	_ "modernc.org/sqlite"          // registers "sqlite"

	"mercator-hq/metricguard/pkg/audit"
	"mercator-hq/metricguard/pkg/catalog"
)

// Supported database/sql driver names.
const (
	DriverModernc = "sqlite"  // modernc.org/sqlite, pure Go
	DriverMattn   = "sqlite3" // github.com/mattn/go-sqlite3, cgo
)

// SQLiteArchive implements audit.Archive using SQLite.
type SQLiteArchive struct {
	db     *sql.DB
	config *SQLiteConfig
	logger *slog.Logger
}

// SQLiteConfig contains SQLite-specific configuration.
type SQLiteConfig struct {
	Driver       string        // "sqlite" (default) or "sqlite3"
	Path         string        // Database file path
	MaxOpenConns int           // Maximum open connections
	MaxIdleConns int           // Maximum idle connections
	WALMode      bool          // Enable Write-Ahead Logging mode
	BusyTimeout  time.Duration // Timeout for locked database
}

// DefaultSQLiteConfig returns the default SQLite configuration.
func DefaultSQLiteConfig(path string) *SQLiteConfig {
	return &SQLiteConfig{
		Driver:       DriverModernc,
		Path:         path,
		MaxOpenConns: 10,
		MaxIdleConns: 5,
		WALMode:      true,
		BusyTimeout:  5 * time.Second,
	}
}

// NewSQLiteArchive creates a new SQLite archive backend.
func NewSQLiteArchive(config *SQLiteConfig) (*SQLiteArchive, error) {
	if config.Driver == "" {
		config.Driver = DriverModernc
	}
	if config.Driver != DriverModernc && config.Driver != DriverMattn {
		return nil, audit.NewStorageError("sqlite", "open", fmt.Errorf("unsupported driver %q", config.Driver))
	}

	db, err := sql.Open(config.Driver, config.Path)
	if err != nil {
		return nil, audit.NewStorageError("sqlite", "open", err)
	}

	// Each connection to ":memory:" is a separate database.
	if config.Path == ":memory:" {
		db.SetMaxOpenConns(1)
	} else {
		db.SetMaxOpenConns(config.MaxOpenConns)
		db.SetMaxIdleConns(config.MaxIdleConns)
	}

	a := &SQLiteArchive{
		db:     db,
		config: config,
		logger: slog.Default().With("component", "audit.archive.sqlite"),
	}

	if err := a.initialize(); err != nil {
		db.Close()
		return nil, err
	}

	a.logger.Info("sqlite archive initialized",
		"driver", config.Driver,
		"path", config.Path,
		"wal_mode", config.WALMode,
	)

	return a, nil
}

// initialize sets up the database schema and configuration.
func (a *SQLiteArchive) initialize() error {
	if a.config.WALMode && a.config.Path != ":memory:" {
		if _, err := a.db.Exec("PRAGMA journal_mode=WAL"); err != nil {
			return audit.NewStorageError("sqlite", "initialize", fmt.Errorf("failed to enable WAL mode: %w", err))
		}
	}

	if a.config.BusyTimeout > 0 {
		timeoutMs := a.config.BusyTimeout.Milliseconds()
		if _, err := a.db.Exec(fmt.Sprintf("PRAGMA busy_timeout=%d", timeoutMs)); err != nil {
			return audit.NewStorageError("sqlite", "initialize", fmt.Errorf("failed to set busy timeout: %w", err))
		}
	}

	if _, err := a.db.Exec(Schema); err != nil {
		return audit.NewStorageError("sqlite", "initialize", fmt.Errorf("failed to create schema: %w", err))
	}

	if _, err := a.db.Exec(InsertSchemaVersion, SchemaVersion); err != nil {
		return audit.NewStorageError("sqlite", "initialize", fmt.Errorf("failed to insert schema version: %w", err))
	}

	var version int
	if err := a.db.QueryRow(GetSchemaVersion).Scan(&version); err != nil {
		return audit.NewStorageError("sqlite", "initialize", fmt.Errorf("failed to get schema version: %w", err))
	}

	if version != SchemaVersion {
		return audit.NewStorageError("sqlite", "initialize",
			fmt.Errorf("schema version mismatch: expected %d, got %d", SchemaVersion, version))
	}

	return nil
}

// Store persists a record. Storing an existing ID only refreshes its
// outcome; the write-once columns are never rewritten.
func (a *SQLiteArchive) Store(ctx context.Context, record *audit.Record) error {
	recordJSON, err := json.Marshal(record)
	if err != nil {
		return audit.NewStorageError("sqlite", "store", fmt.Errorf("failed to marshal record: %w", err))
	}
	outcomeJSON, err := json.Marshal(record.Outcome)
	if err != nil {
		return audit.NewStorageError("sqlite", "store", fmt.Errorf("failed to marshal outcome: %w", err))
	}

	var source sql.NullString
	if record.Override.SourceDecisionID != "" {
		source = sql.NullString{String: record.Override.SourceDecisionID, Valid: true}
	}

	_, err = a.db.ExecContext(ctx, upsertRecord,
		record.DecisionID,
		record.Timestamp.UnixNano(),
		record.MetricID,
		string(record.DecisionType),
		string(record.State.OriginalStatus),
		string(record.State.FinalStatus),
		record.State.FinalConfidence,
		boolToInt(record.Override.Used),
		source,
		record.IntegrityHash,
		string(recordJSON),
		string(record.Outcome.Outcome),
		string(outcomeJSON),
	)
	if err != nil {
		return audit.NewStorageError("sqlite", "store", err)
	}

	a.logger.Debug("audit record stored",
		"decision_id", record.DecisionID,
		"metric_id", record.MetricID,
		"final_status", record.State.FinalStatus,
	)

	return nil
}

// UpdateOutcome replaces the outcome block of a stored record.
func (a *SQLiteArchive) UpdateOutcome(ctx context.Context, decisionID string, outcome audit.OutcomeTracking) error {
	outcomeJSON, err := json.Marshal(outcome)
	if err != nil {
		return audit.NewStorageError("sqlite", "update_outcome", fmt.Errorf("failed to marshal outcome: %w", err))
	}

	result, err := a.db.ExecContext(ctx, updateOutcome, string(outcome.Outcome), string(outcomeJSON), decisionID)
	if err != nil {
		return audit.NewStorageError("sqlite", "update_outcome", err)
	}

	n, err := result.RowsAffected()
	if err != nil {
		return audit.NewStorageError("sqlite", "update_outcome", fmt.Errorf("failed to get rows affected: %w", err))
	}
	if n == 0 {
		return fmt.Errorf("%w: %s", audit.ErrRecordNotFound, decisionID)
	}

	return nil
}

// Get returns a record by ID.
func (a *SQLiteArchive) Get(ctx context.Context, decisionID string) (*audit.Record, error) {
	row := a.db.QueryRowContext(ctx, selectColumns+" WHERE decision_id = ?", decisionID)

	var recordJSON, outcomeJSON string
	if err := row.Scan(&recordJSON, &outcomeJSON); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("%w: %s", audit.ErrRecordNotFound, decisionID)
		}
		return nil, audit.NewStorageError("sqlite", "get", err)
	}

	return decodeRecord(recordJSON, outcomeJSON)
}

// Query retrieves records matching the query filters.
func (a *SQLiteArchive) Query(ctx context.Context, query *audit.Query) ([]*audit.Record, error) {
	sqlQuery, args := buildSelect(query)

	rows, err := a.db.QueryContext(ctx, sqlQuery, args...)
	if err != nil {
		return nil, audit.NewStorageError("sqlite", "query", err)
	}
	defer rows.Close()

	var records []*audit.Record
	for rows.Next() {
		record, err := a.scanRow(rows)
		if err != nil {
			return nil, err
		}
		records = append(records, record)
	}

	if err := rows.Err(); err != nil {
		return nil, audit.NewStorageError("sqlite", "query", err)
	}

	return records, nil
}

// QueryStream streams records matching the query filters.
func (a *SQLiteArchive) QueryStream(ctx context.Context, query *audit.Query) (<-chan *audit.Record, <-chan error, error) {
	sqlQuery, args := buildSelect(query)

	rows, err := a.db.QueryContext(ctx, sqlQuery, args...)
	if err != nil {
		return nil, nil, audit.NewStorageError("sqlite", "query_stream", err)
	}

	recordsCh := make(chan *audit.Record, 100)
	errCh := make(chan error, 1)

	go func() {
		defer close(recordsCh)
		defer close(errCh)
		defer rows.Close()

		for rows.Next() {
			record, err := a.scanRow(rows)
			if err != nil {
				errCh <- err
				return
			}

			select {
			case <-ctx.Done():
				errCh <- ctx.Err()
				return
			case recordsCh <- record:
			}
		}

		if err := rows.Err(); err != nil {
			errCh <- audit.NewStorageError("sqlite", "query_stream", err)
		}
	}()

	return recordsCh, errCh, nil
}

// Count returns the number of records matching the query filters.
func (a *SQLiteArchive) Count(ctx context.Context, query *audit.Query) (int64, error) {
	where, args := buildWhereClause(query)

	var count int64
	if err := a.db.QueryRowContext(ctx, "SELECT COUNT(*) FROM audit_records"+where, args...).Scan(&count); err != nil {
		return 0, audit.NewStorageError("sqlite", "count", err)
	}

	return count, nil
}

// Delete removes records matching the query filters.
func (a *SQLiteArchive) Delete(ctx context.Context, query *audit.Query) (int64, error) {
	where, args := buildWhereClause(query)

	result, err := a.db.ExecContext(ctx, "DELETE FROM audit_records"+where, args...)
	if err != nil {
		return 0, audit.NewStorageError("sqlite", "delete", err)
	}

	count, err := result.RowsAffected()
	if err != nil {
		return 0, audit.NewStorageError("sqlite", "delete", fmt.Errorf("failed to get rows affected: %w", err))
	}

	a.logger.Info("audit records deleted", "count", count)

	return count, nil
}

// Ping verifies the database is reachable.
func (a *SQLiteArchive) Ping(ctx context.Context) error {
	if err := a.db.PingContext(ctx); err != nil {
		return audit.NewStorageError("sqlite", "ping", err)
	}
	return nil
}

// Close closes the database connection.
func (a *SQLiteArchive) Close() error {
	if err := a.db.Close(); err != nil {
		return audit.NewStorageError("sqlite", "close", err)
	}
	a.logger.Info("sqlite archive closed")
	return nil
}

// buildSelect builds the SELECT statement with ordering and pagination.
func buildSelect(query *audit.Query) (string, []interface{}) {
	where, args := buildWhereClause(query)

	var b strings.Builder
	b.WriteString(selectColumns)
	b.WriteString(where)

	if query.Ascending() {
		b.WriteString(" ORDER BY ts_unix_nano ASC, decision_id ASC")
	} else {
		b.WriteString(" ORDER BY ts_unix_nano DESC, decision_id DESC")
	}

	if query != nil {
		if query.Limit > 0 {
			b.WriteString(" LIMIT ?")
			args = append(args, query.Limit)
		} else if query.Offset > 0 {
			// SQLite requires a LIMIT clause before OFFSET.
			b.WriteString(" LIMIT -1")
		}
		if query.Offset > 0 {
			b.WriteString(" OFFSET ?")
			args = append(args, query.Offset)
		}
	}

	return b.String(), args
}

// buildWhereClause builds the WHERE clause and arguments for a query.
func buildWhereClause(query *audit.Query) (string, []interface{}) {
	if query == nil {
		return "", nil
	}

	var conditions []string
	var args []interface{}

	if query.StartTime != nil {
		conditions = append(conditions, "ts_unix_nano >= ?")
		args = append(args, query.StartTime.UnixNano())
	}
	if query.EndTime != nil {
		conditions = append(conditions, "ts_unix_nano <= ?")
		args = append(args, query.EndTime.UnixNano())
	}
	if query.MetricID != "" {
		conditions = append(conditions, "metric_id = ?")
		args = append(args, catalog.NormalizeID(query.MetricID))
	}
	if query.DecisionType != "" {
		conditions = append(conditions, "decision_type = ?")
		args = append(args, string(query.DecisionType))
	}
	if query.FinalStatus != "" {
		conditions = append(conditions, "final_status = ?")
		args = append(args, string(query.FinalStatus))
	}
	if query.OriginalStatus != "" {
		conditions = append(conditions, "original_status = ?")
		args = append(args, string(query.OriginalStatus))
	}
	if query.Outcome != "" {
		conditions = append(conditions, "outcome = ?")
		args = append(args, string(query.Outcome))
	}
	if query.OverriddenOnly {
		conditions = append(conditions, "override_used = 1")
	}

	if len(conditions) == 0 {
		return "", args
	}
	return " WHERE " + strings.Join(conditions, " AND "), args
}

// scanRow scans a database row into a Record.
func (a *SQLiteArchive) scanRow(rows *sql.Rows) (*audit.Record, error) {
	var recordJSON, outcomeJSON string
	if err := rows.Scan(&recordJSON, &outcomeJSON); err != nil {
		return nil, audit.NewStorageError("sqlite", "scan", err)
	}
	return decodeRecord(recordJSON, outcomeJSON)
}

func decodeRecord(recordJSON, outcomeJSON string) (*audit.Record, error) {
	var record audit.Record
	if err := json.Unmarshal([]byte(recordJSON), &record); err != nil {
		return nil, audit.NewStorageError("sqlite", "scan", fmt.Errorf("failed to unmarshal record: %w", err))
	}
	var outcome audit.OutcomeTracking
	if err := json.Unmarshal([]byte(outcomeJSON), &outcome); err != nil {
		return nil, audit.NewStorageError("sqlite", "scan", fmt.Errorf("failed to unmarshal outcome: %w", err))
	}
	record.Outcome = outcome
	return &record, nil
}

func boolToInt(b bool) int {
	if b {
		return 1
	}
	return 0
}
