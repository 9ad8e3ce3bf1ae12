// Package store provides adapters for persisting resolution audit records.
package store

import (
	"context"
	"errors"
	"fmt"
	"regexp"
	"time"

	ch "github.com/MyCarrier-DevOps/goLibMyCarrier/clickhouse"

	"github.com/MyCarrier-DevOps/gitdeps/internal/domain"
)

// DefaultTable is the table resolution records are written to.
const DefaultTable = "gitdeps_resolutions"

// ErrInvalidTableName indicates a table name that is not a plain identifier.
var ErrInvalidTableName = errors.New("invalid ClickHouse table name")

var tableNamePattern = regexp.MustCompile(`^[A-Za-z_][A-Za-z0-9_]*(\.[A-Za-z_][A-Za-z0-9_]*)?$`)

// Session is the subset of a ClickHouse session used by the recorder.
// *ch.ClickhouseSession satisfies it.
type Session interface {
	Exec(ctx context.Context, stmt string) error
	ExecWithArgs(ctx context.Context, stmt string, args ...interface{}) error
	Close() error
}

// ClickHouseRecorder implements domain.ResolutionRecorder on a ClickHouse table.
type ClickHouseRecorder struct {
	session Session
	table   string
}

// NewClickHouseRecorder creates a recorder writing to table over session.
func NewClickHouseRecorder(session Session, table string) (*ClickHouseRecorder, error) {
	table, err := tableName(table)
	if err != nil {
		return nil, err
	}
	return &ClickHouseRecorder{session: session, table: table}, nil
}

// tableName applies the default and rejects anything but a plain or
// database-qualified identifier, since the name is spliced into SQL.
func tableName(table string) (string, error) {
	if table == "" {
		table = DefaultTable
	}
	if !tableNamePattern.MatchString(table) {
		return "", fmt.Errorf("%w: %q", ErrInvalidTableName, table)
	}
	return table, nil
}

// OpenClickHouseRecorder connects to ClickHouse, creates the table if needed
// and returns a recorder.
func OpenClickHouseRecorder(ctx context.Context, cfg *ch.ClickhouseConfig, table string) (*ClickHouseRecorder, error) {
	table, err := tableName(table)
	if err != nil {
		return nil, err
	}

	session, err := ch.NewClickhouseSession(cfg, ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to ClickHouse: %w", err)
	}

	recorder := &ClickHouseRecorder{session: session, table: table}
	if err := recorder.EnsureTable(ctx); err != nil {
		_ = session.Close()
		return nil, err
	}
	return recorder, nil
}

// EnsureTable creates the audit table if it does not exist.
func (r *ClickHouseRecorder) EnsureTable(ctx context.Context) error {
	query := fmt.Sprintf(`CREATE TABLE IF NOT EXISTS %s (
	resolved_at DateTime64(3),
	name String,
	kind LowCardinality(String),
	path String,
	url String,
	found Bool,
	cloned Bool,
	stale Bool,
	failure LowCardinality(String),
	error String,
	duration_ms Int64
) ENGINE = MergeTree
ORDER BY (resolved_at, name)`, r.table)

	if err := r.session.Exec(ctx, query); err != nil {
		return fmt.Errorf("failed to create table %s: %w", r.table, err)
	}
	return nil
}

// Record inserts one resolution record.
func (r *ClickHouseRecorder) Record(ctx context.Context, record domain.ResolutionRecord) error {
	resolvedAt := record.ResolvedAt
	if resolvedAt.IsZero() {
		resolvedAt = time.Now()
	}

	query := fmt.Sprintf(`INSERT INTO %s
	(resolved_at, name, kind, path, url, found, cloned, stale, failure, error, duration_ms)
	VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`, r.table)

	err := r.session.ExecWithArgs(ctx, query,
		resolvedAt.UTC(),
		record.Name,
		string(record.Kind),
		record.Path,
		record.URL,
		record.Found,
		record.Cloned,
		record.Stale,
		string(record.Failure),
		record.Error,
		record.DurationMS,
	)
	if err != nil {
		return fmt.Errorf("failed to record resolution of %s: %w", record.Name, err)
	}
	return nil
}

// Close releases the underlying session.
func (r *ClickHouseRecorder) Close() error {
	return r.session.Close()
}
