package logic

import (
	"context"
	"reflect"

	"github.com/ClickHouse/clickhouse-go/v2/lib/driver"
)

// MockConn serves fixed rows to Query and records its arguments.
type MockConn struct {
	driver.Conn
	Data     [][]interface{}
	QueryErr error

	QueryCalls int
	lastQuery  string
	lastArgs   []interface{}
}

func (m *MockConn) Query(ctx context.Context, query string, args ...interface{}) (driver.Rows, error) {
	m.QueryCalls++
	m.lastQuery, m.lastArgs = query, args
	if m.QueryErr != nil {
		return nil, m.QueryErr
	}
	return &MockRows{data: m.Data, rowIndex: -1}, nil
}

type MockRows struct {
	driver.Rows
	data     [][]interface{}
	rowIndex int
}

func (m *MockRows) Next() bool {
	m.rowIndex++
	return m.rowIndex < len(m.data)
}

func (m *MockRows) Scan(dest ...interface{}) error {
	for i, val := range m.data[m.rowIndex] {
		assign(dest[i], val)
	}
	return nil
}

func (m *MockRows) Close() error {
	return nil
}

func (m *MockRows) Err() error {
	return nil
}

func assign(dest interface{}, val interface{}) {
	v := reflect.ValueOf(dest).Elem()
	v.Set(reflect.ValueOf(val))
}
