package store

import (
	"context"
	"fmt"
	"reflect"
	"sync"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
)

type call struct {
	sql  string
	args []any
}

// MockDB records every statement and answers with the configured funcs.
type MockDB struct {
	mu    sync.Mutex
	calls []call

	QueryFunc    func(sql string, args []any) (pgx.Rows, error)
	QueryRowFunc func(sql string, args []any) pgx.Row
	ExecFunc     func(sql string, args []any) (pgconn.CommandTag, error)
	BeginErr     error

	tx *MockTx
}

func (m *MockDB) record(sql string, args []any) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.calls = append(m.calls, call{sql: sql, args: args})
}

func (m *MockDB) Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error) {
	m.record(sql, args)
	if m.QueryFunc != nil {
		return m.QueryFunc(sql, args)
	}
	return &MockRows{}, nil
}

func (m *MockDB) QueryRow(ctx context.Context, sql string, args ...any) pgx.Row {
	m.record(sql, args)
	if m.QueryRowFunc != nil {
		return m.QueryRowFunc(sql, args)
	}
	return &MockRow{}
}

func (m *MockDB) Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error) {
	m.record(sql, args)
	if m.ExecFunc != nil {
		return m.ExecFunc(sql, args)
	}
	return pgconn.NewCommandTag("UPDATE 1"), nil
}

func (m *MockDB) Begin(ctx context.Context) (pgx.Tx, error) {
	if m.BeginErr != nil {
		return nil, m.BeginErr
	}
	m.tx = &MockTx{db: m}
	return m.tx, nil
}

// MockTx routes statements to its MockDB and tracks how it ended.
type MockTx struct {
	pgx.Tx
	db         *MockDB
	committed  bool
	rolledBack bool
}

func (t *MockTx) Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error) {
	return t.db.Query(ctx, sql, args...)
}

func (t *MockTx) QueryRow(ctx context.Context, sql string, args ...any) pgx.Row {
	return t.db.QueryRow(ctx, sql, args...)
}

func (t *MockTx) Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error) {
	return t.db.Exec(ctx, sql, args...)
}

func (t *MockTx) Commit(ctx context.Context) error {
	t.committed = true
	return nil
}

func (t *MockTx) Rollback(ctx context.Context) error {
	if t.committed {
		return pgx.ErrTxClosed
	}
	t.rolledBack = true
	return nil
}

// MockRow scans Values into the destinations, or returns Err.
type MockRow struct {
	Values []any
	Err    error
}

func (r *MockRow) Scan(dest ...any) error {
	if r.Err != nil {
		return r.Err
	}
	return assign(dest, r.Values)
}

// MockRows iterates over Data, one slice of values per row.
type MockRows struct {
	pgx.Rows
	Data [][]any
	pos  int
}

func (r *MockRows) Next() bool {
	r.pos++
	return r.pos <= len(r.Data)
}

func (r *MockRows) Scan(dest ...any) error {
	return assign(dest, r.Data[r.pos-1])
}

func (r *MockRows) Values() ([]any, error) {
	return r.Data[r.pos-1], nil
}

func (r *MockRows) FieldDescriptions() []pgconn.FieldDescription {
	return nil
}

func (r *MockRows) Close()     {}
func (r *MockRows) Err() error { return nil }

func assign(dest []any, values []any) error {
	if len(values) != len(dest) {
		return fmt.Errorf("scan: %d destinations for %d values", len(dest), len(values))
	}
	for i, v := range values {
		if v == nil {
			continue
		}
		target := reflect.ValueOf(dest[i]).Elem()
		val := reflect.ValueOf(v)
		if !val.Type().AssignableTo(target.Type()) {
			if !val.Type().ConvertibleTo(target.Type()) {
				return fmt.Errorf("scan: cannot assign %T to %s", v, target.Type())
			}
			val = val.Convert(target.Type())
		}
		target.Set(val)
	}
	return nil
}
