package archive

// SchemaVersion is the current database schema version.
const SchemaVersion = 1

// Schema contains the SQL statements to create the audit archive schema.
// Timestamps are stored as Unix nanoseconds so ordering and range filters
// behave the same under both SQLite drivers.
const Schema = `
-- Audit records table
CREATE TABLE IF NOT EXISTS audit_records (
    decision_id TEXT PRIMARY KEY,
    ts_unix_nano INTEGER NOT NULL,

    -- Decision context
    metric_id TEXT NOT NULL,
    decision_type TEXT NOT NULL,

    -- Decision state
    original_status TEXT NOT NULL,
    final_status TEXT NOT NULL,
    final_confidence REAL NOT NULL,

    -- Override lineage
    override_used INTEGER NOT NULL DEFAULT 0,
    source_decision_id TEXT,

    -- Integrity
    integrity_hash TEXT NOT NULL,

    -- Full record (write-once part) and the mutable outcome block
    record_json TEXT NOT NULL,
    outcome TEXT NOT NULL,
    outcome_json TEXT NOT NULL
);

-- Schema version table
CREATE TABLE IF NOT EXISTS schema_version (
    version INTEGER PRIMARY KEY,
    applied_at TIMESTAMP NOT NULL
);

-- Indexes for common queries
CREATE INDEX IF NOT EXISTS idx_audit_ts ON audit_records(ts_unix_nano);
CREATE INDEX IF NOT EXISTS idx_audit_metric ON audit_records(metric_id);
CREATE INDEX IF NOT EXISTS idx_audit_decision_type ON audit_records(decision_type);
CREATE INDEX IF NOT EXISTS idx_audit_final_status ON audit_records(final_status);
CREATE INDEX IF NOT EXISTS idx_audit_outcome ON audit_records(outcome);
CREATE INDEX IF NOT EXISTS idx_audit_source ON audit_records(source_decision_id);
`

// InsertSchemaVersion inserts the schema version into the schema_version table.
const InsertSchemaVersion = `
INSERT INTO schema_version (version, applied_at)
VALUES (?, datetime('now'))
ON CONFLICT(version) DO NOTHING;
`

// GetSchemaVersion retrieves the current schema version from the database.
const GetSchemaVersion = `
SELECT version FROM schema_version ORDER BY version DESC LIMIT 1;
`

const upsertRecord = `
INSERT INTO audit_records (
    decision_id, ts_unix_nano,
    metric_id, decision_type,
    original_status, final_status, final_confidence,
    override_used, source_decision_id,
    integrity_hash,
    record_json, outcome, outcome_json
) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
ON CONFLICT(decision_id) DO UPDATE SET
    outcome = excluded.outcome,
    outcome_json = excluded.outcome_json;
`

const updateOutcome = `
UPDATE audit_records SET outcome = ?, outcome_json = ? WHERE decision_id = ?;
`

const selectColumns = `SELECT record_json, outcome_json FROM audit_records`
