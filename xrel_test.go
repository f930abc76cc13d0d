package xrel

import (
	"context"
	"database/sql"
	"database/sql/driver"
	"errors"
	"io"
	"reflect"
	"sync"
	"testing"
)

type DBHandler func(query string, args []driver.NamedValue) (cols []string, rows [][]driver.Value, err error)

type execHandler func(query string, args []driver.NamedValue) (driver.Result, error)

// testConnector serves queries from h and prepared executions from e.
type testConnector struct {
	h          DBHandler
	e          execHandler
	prepareErr error
	nextErr    error // returned by Rows.Next once data runs out

	mu       sync.Mutex
	prepared []string
	closed   int // statements closed
}

func (c *testConnector) Connect(context.Context) (driver.Conn, error) { return &testConn{c: c}, nil }
func (c *testConnector) Driver() driver.Driver                        { return testDriver{} }

type testDriver struct{}

func (testDriver) Open(name string) (driver.Conn, error) {
	return nil, errors.New("testDriver.Open should not be called; use sql.OpenDB with connector")
}

type testConn struct {
	c *testConnector
}

func (c *testConn) Prepare(query string) (driver.Stmt, error) {
	if c.c.prepareErr != nil {
		return nil, c.c.prepareErr
	}
	c.c.mu.Lock()
	c.c.prepared = append(c.c.prepared, query)
	c.c.mu.Unlock()
	return &testStmt{c: c.c, query: query}, nil
}
func (c *testConn) Close() error              { return nil }
func (c *testConn) Begin() (driver.Tx, error) { return nil, driver.ErrSkip }

func (c *testConn) QueryContext(ctx context.Context, query string, args []driver.NamedValue) (driver.Rows, error) {
	cols, data, err := c.c.h(query, args)
	if err != nil {
		return nil, err
	}
	return &testRows{cols: cols, data: data, nextErr: c.c.nextErr}, nil
}

type testStmt struct {
	c     *testConnector
	query string
}

func (s *testStmt) Close() error {
	s.c.mu.Lock()
	s.c.closed++
	s.c.mu.Unlock()
	return nil
}
func (s *testStmt) NumInput() int { return -1 }

func (s *testStmt) Exec(args []driver.Value) (driver.Result, error) {
	return nil, errors.New("testStmt.Exec should not be called; use ExecContext")
}

func (s *testStmt) Query(args []driver.Value) (driver.Rows, error) {
	return nil, errors.New("testStmt.Query should not be called")
}

func (s *testStmt) ExecContext(ctx context.Context, args []driver.NamedValue) (driver.Result, error) {
	if s.c.e == nil {
		return nil, errors.New("no exec handler")
	}
	return s.c.e(s.query, args)
}

type testRows struct {
	cols    []string
	data    [][]driver.Value
	i       int
	nextErr error
}

func (r *testRows) Columns() []string { return append([]string(nil), r.cols...) }
func (r *testRows) Close() error      { return nil }
func (r *testRows) Next(dest []driver.Value) error {
	if r.i >= len(r.data) {
		if r.nextErr != nil {
			return r.nextErr
		}
		return io.EOF
	}
	row := r.data[r.i]
	for i := range dest {
		if i < len(row) {
			dest[i] = row[i]
		} else {
			dest[i] = nil
		}
	}
	r.i++
	return nil
}

// Result implementation for tests.
type testResult struct {
	lastID int64
	rows   int64
	liErr  error
	raErr  error
}

func (r testResult) LastInsertId() (int64, error) { return r.lastID, r.liErr }
func (r testResult) RowsAffected() (int64, error) { return r.rows, r.raErr }

// newTestDB creates a *sql.DB backed by the in-memory test driver.
func newTestDB(t *testing.T, c *testConnector) *sql.DB {
	t.Helper()
	db := sql.OpenDB(c)
	t.Cleanup(func() { _ = db.Close() })
	return db
}

// memTable is a single-table store that keeps rows in insertion order.
// Exec appends the bound arguments; queries return them as stored.
type memTable struct {
	mu   sync.Mutex
	cols []string
	rows [][]driver.Value
}

func (m *memTable) connector() *testConnector {
	return &testConnector{
		h: func(string, []driver.NamedValue) ([]string, [][]driver.Value, error) {
			m.mu.Lock()
			defer m.mu.Unlock()
			return m.cols, append([][]driver.Value(nil), m.rows...), nil
		},
		e: func(_ string, args []driver.NamedValue) (driver.Result, error) {
			row := make([]driver.Value, len(args))
			for i, a := range args {
				row[i] = a.Value
			}
			m.mu.Lock()
			m.rows = append(m.rows, row)
			m.mu.Unlock()
			return testResult{rows: 1}, nil
		},
	}
}

// ---------------- shared fixtures ----------------

type Payment struct {
	CustomerID  int32   `db:"customer_id"`
	Amount      int32   `db:"amount"`
	AccountName *string `db:"account_name"`
}

func strPtr(s string) *string { return &s }

func paymentRelation(t *testing.T, opts ...Option) *Relation {
	t.Helper()
	rel, err := NewRelation("payment", []Field{
		{Name: "customer_id", Position: 0, Type: Int},
		{Name: "amount", Position: 1, Type: Int},
		{Name: "account_name", Position: 2, Type: OptString},
	}, opts...)
	if err != nil {
		t.Fatalf("NewRelation: %v", err)
	}
	return rel
}

func samplePayments() []Payment {
	return []Payment{
		{CustomerID: 1, Amount: 2},
		{CustomerID: 3, Amount: 4, AccountName: strPtr("foo")},
		{CustomerID: 5, Amount: 6},
		{CustomerID: 7, Amount: 8},
		{CustomerID: 9, Amount: 10, AccountName: strPtr("bar")},
	}
}

func eq[T comparable](t *testing.T, got, want T, msg string) {
	t.Helper()
	if got != want {
		t.Fatalf("%s: got=%v want=%v", msg, got, want)
	}
}

func eqSlice(t *testing.T, got, want []any, msg string) {
	t.Helper()
	if len(got) != len(want) {
		t.Fatalf("%s: len got=%d want=%d\n got=%v\nwant=%v", msg, len(got), len(want), got, want)
	}
	for i := range got {
		if !reflect.DeepEqual(got[i], want[i]) {
			t.Fatalf("%s: idx %d got=%#v want=%#v\n got=%v\nwant=%v", msg, i, got[i], want[i], got, want)
		}
	}
}

func decodeErr(t *testing.T, err error, kind DecodeErrorKind) *DecodeError {
	t.Helper()
	var de *DecodeError
	if !errors.As(err, &de) {
		t.Fatalf("want *DecodeError, got %T: %v", err, err)
	}
	if de.Kind != kind {
		t.Fatalf("kind: got=%v want=%v (%v)", de.Kind, kind, err)
	}
	return de
}
