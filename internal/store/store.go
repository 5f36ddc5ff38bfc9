// Package store implements the generic tabular storage capability the
// field system is specified against: select rows by table/columns/filter,
// plus the update/delete/insert writes dispatched through entity actions.
// Postgres-specific failures are classified into named error classes so
// callers can detect an unprovisioned table without string matching.
package store

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"sync"

	"github.com/lib/pq"
	"go.uber.org/zap"

	"github.com/dailies-app/dailies/internal/record"
)

// Querier is the read side of the store, satisfied by *Store and by test
// fakes.
type Querier interface {
	Select(ctx context.Context, table string, columns []string, filter *Filter) ([]record.Row, error)
}

// Store executes tabular reads and writes against a SQL database.
type Store struct {
	db  *sql.DB
	log *zap.Logger

	// tablePresence caches whether optional backing tables exist. Written
	// idempotently (every writer computes the same answer for a table) and
	// read opportunistically, so races are harmless.
	tablePresence sync.Map // table name -> bool
}

// New wires a store over an open database handle.
func New(db *sql.DB, log *zap.Logger) *Store {
	if log == nil {
		log = zap.NewNop()
	}
	return &Store{db: db, log: log}
}

// DB exposes the underlying handle for lifecycle management.
func (s *Store) DB() *sql.DB {
	return s.db
}

// TablePresent reports the cached presence of a table. The second result
// is false when no query has touched the table yet.
func (s *Store) TablePresent(table string) (present bool, known bool) {
	v, ok := s.tablePresence.Load(table)
	if !ok {
		return false, false
	}
	return v.(bool), true
}

func (s *Store) notePresence(table string, err error) {
	switch {
	case err == nil:
		s.tablePresence.Store(table, true)
	case IsMissingTable(err):
		s.tablePresence.Store(table, false)
	}
}

// Select fetches rows from a table. Columns may be nil for all columns.
// A missing table returns ErrMissingTable; callers degrade rather than
// fail.
func (s *Store) Select(ctx context.Context, table string, columns []string, filter *Filter) ([]record.Row, error) {
	cols := "*"
	if len(columns) > 0 {
		quoted := make([]string, len(columns))
		for i, c := range columns {
			quoted[i] = pq.QuoteIdentifier(c)
		}
		cols = strings.Join(quoted, ", ")
	}

	tail, args := filter.build()
	query := fmt.Sprintf("SELECT %s FROM %s%s", cols, pq.QuoteIdentifier(table), tail)

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		converted := ConvertError(err)
		s.notePresence(table, converted)
		return nil, fmt.Errorf("select from %s: %w", table, converted)
	}
	defer rows.Close()

	s.notePresence(table, nil)
	return scanRows(rows)
}

// SelectOne fetches a single row by key, returning ErrNotFound when it
// does not exist.
func (s *Store) SelectOne(ctx context.Context, table, keyColumn string, id interface{}) (record.Row, error) {
	results, err := s.Select(ctx, table, nil, NewFilter().Eq(keyColumn, id).Limit(1))
	if err != nil {
		return nil, err
	}
	if len(results) == 0 {
		return nil, fmt.Errorf("select %s %v: %w", table, id, ErrNotFound)
	}
	return results[0], nil
}

// Update writes a payload to a single row identified by key. Payload keys
// are column names.
func (s *Store) Update(ctx context.Context, table, keyColumn string, id interface{}, payload record.Row) error {
	if len(payload) == 0 {
		return nil
	}

	sets := make([]string, 0, len(payload))
	args := make([]interface{}, 0, len(payload)+1)
	for column, value := range payload {
		args = append(args, normalizeArg(value))
		sets = append(sets, fmt.Sprintf("%s = $%d", pq.QuoteIdentifier(column), len(args)))
	}
	args = append(args, id)

	query := fmt.Sprintf(
		"UPDATE %s SET %s WHERE %s = $%d",
		pq.QuoteIdentifier(table), strings.Join(sets, ", "), pq.QuoteIdentifier(keyColumn), len(args),
	)

	result, err := s.db.ExecContext(ctx, query, args...)
	if err != nil {
		converted := ConvertError(err)
		s.notePresence(table, converted)
		return fmt.Errorf("update %s: %w", table, converted)
	}
	if affected, err := result.RowsAffected(); err == nil && affected == 0 {
		return fmt.Errorf("update %s %v: %w", table, id, ErrNotFound)
	}
	return nil
}

// Delete removes a single row by key. An optional scope condition (e.g.
// project ownership) can be appended through extra.
func (s *Store) Delete(ctx context.Context, table, keyColumn string, id interface{}, extra *Filter) error {
	filter := NewFilter().Eq(keyColumn, id)
	if extra != nil {
		filter.conds = append(filter.conds, extra.conds...)
	}
	tail, args := filter.build()

	query := fmt.Sprintf("DELETE FROM %s%s", pq.QuoteIdentifier(table), tail)
	result, err := s.db.ExecContext(ctx, query, args...)
	if err != nil {
		converted := ConvertError(err)
		s.notePresence(table, converted)
		return fmt.Errorf("delete from %s: %w", table, converted)
	}
	if affected, err := result.RowsAffected(); err == nil && affected == 0 {
		return fmt.Errorf("delete %s %v: %w", table, id, ErrNotFound)
	}
	return nil
}

// Insert writes a new row and returns its id.
func (s *Store) Insert(ctx context.Context, table string, payload record.Row) (interface{}, error) {
	columns := make([]string, 0, len(payload))
	placeholders := make([]string, 0, len(payload))
	args := make([]interface{}, 0, len(payload))
	for column, value := range payload {
		args = append(args, normalizeArg(value))
		columns = append(columns, pq.QuoteIdentifier(column))
		placeholders = append(placeholders, fmt.Sprintf("$%d", len(args)))
	}

	query := fmt.Sprintf(
		"INSERT INTO %s (%s) VALUES (%s) RETURNING id",
		pq.QuoteIdentifier(table), strings.Join(columns, ", "), strings.Join(placeholders, ", "),
	)

	var id interface{}
	if err := s.db.QueryRowContext(ctx, query, args...).Scan(&id); err != nil {
		converted := ConvertError(err)
		s.notePresence(table, converted)
		return nil, fmt.Errorf("insert into %s: %w", table, converted)
	}
	return id, nil
}

// normalizeArg adapts Go values the driver cannot bind directly.
func normalizeArg(value interface{}) interface{} {
	switch v := value.(type) {
	case []string:
		return pq.Array(v)
	default:
		return value
	}
}

// scanRows scans a result set into untyped rows, converting []byte column
// values to strings the way the rest of the field system expects.
func scanRows(rows *sql.Rows) ([]record.Row, error) {
	columns, err := rows.Columns()
	if err != nil {
		return nil, err
	}

	var results []record.Row
	for rows.Next() {
		values := make([]interface{}, len(columns))
		valuePtrs := make([]interface{}, len(columns))
		for i := range values {
			valuePtrs[i] = &values[i]
		}

		if err := rows.Scan(valuePtrs...); err != nil {
			return nil, err
		}

		row := make(record.Row, len(columns))
		for i, col := range columns {
			if b, ok := values[i].([]byte); ok {
				row[col] = string(b)
			} else {
				row[col] = values[i]
			}
		}
		results = append(results, row)
	}

	if err := rows.Err(); err != nil {
		return nil, err
	}
	return results, nil
}
