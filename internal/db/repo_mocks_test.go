package db

import (
	"context"
	"strings"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/mock"

	"aquaplan/internal/types"
)

// --- Shared test doubles for the repository tests ---

// mockDBTX is a testify mock over the DBTX interface.
type mockDBTX struct {
	mock.Mock
}

func (m *mockDBTX) Exec(ctx context.Context, sql string, arguments ...any) (pgconn.CommandTag, error) {
	args := m.Called(ctx, sql, arguments)
	return args.Get(0).(pgconn.CommandTag), args.Error(1)
}

func (m *mockDBTX) Query(ctx context.Context, sql string, arguments ...any) (pgx.Rows, error) {
	args := m.Called(ctx, sql, arguments)
	if rows := args.Get(0); rows != nil {
		return rows.(pgx.Rows), args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *mockDBTX) QueryRow(ctx context.Context, sql string, arguments ...any) pgx.Row {
	args := m.Called(ctx, sql, arguments)
	return args.Get(0).(pgx.Row)
}

// mockRow implements pgx.Row with an injectable scan function.
type mockRow struct {
	scanFn func(dest ...any) error
}

func (r *mockRow) Scan(dest ...any) error {
	return r.scanFn(dest...)
}

// errRow returns a row whose Scan always fails with err.
func errRow(err error) *mockRow {
	return &mockRow{scanFn: func(dest ...any) error { return err }}
}

// valueRow returns a row that assigns the canned values positionally.
func valueRow(values ...any) *mockRow {
	return &mockRow{scanFn: func(dest ...any) error {
		for i, d := range dest {
			assignDest(d, values[i])
		}
		return nil
	}}
}

// mockRows implements pgx.Rows over a canned value grid. Each inner slice is
// one row whose values are assigned positionally into the scan destinations.
type mockRows struct {
	rows [][]any
	idx  int
	err  error
}

func (r *mockRows) Close()                                       {}
func (r *mockRows) Err() error                                   { return r.err }
func (r *mockRows) CommandTag() pgconn.CommandTag                { return pgconn.CommandTag{} }
func (r *mockRows) FieldDescriptions() []pgconn.FieldDescription { return nil }
func (r *mockRows) Values() ([]any, error)                       { return nil, nil }
func (r *mockRows) RawValues() [][]byte                          { return nil }
func (r *mockRows) Conn() *pgx.Conn                              { return nil }

func (r *mockRows) Next() bool {
	if r.idx >= len(r.rows) {
		return false
	}
	r.idx++
	return true
}

func (r *mockRows) Scan(dest ...any) error {
	row := r.rows[r.idx-1]
	for i, d := range dest {
		assignDest(d, row[i])
	}
	return nil
}

// assignDest copies a canned value into a scan destination pointer.
func assignDest(dest, value any) {
	switch d := dest.(type) {
	case *string:
		*d = value.(string)
	case **string:
		if value == nil {
			*d = nil
		} else {
			s := value.(string)
			*d = &s
		}
	case *int:
		*d = value.(int)
	case **int:
		if value == nil {
			*d = nil
		} else {
			n := value.(int)
			*d = &n
		}
	case *bool:
		*d = value.(bool)
	case *time.Time:
		*d = value.(time.Time)
	case **time.Time:
		if value == nil {
			*d = nil
		} else {
			ts := value.(time.Time)
			*d = &ts
		}
	case *decimal.Decimal:
		*d = decimal.RequireFromString(value.(string))
	case *decimal.NullDecimal:
		if value == nil {
			*d = decimal.NullDecimal{}
		} else {
			*d = decimal.NullDecimal{Decimal: decimal.RequireFromString(value.(string)), Valid: true}
		}
	case *types.TemperatureSource:
		*d = types.TemperatureSource(value.(string))
	default:
		panic("assignDest: unsupported destination type")
	}
}

// fakeTx implements pgx.Tx, recording executed SQL for verification. Methods
// the repositories never call panic to catch accidental use.
type fakeTx struct {
	execSQL    []string
	execArgs   [][]any
	queryRowFn func(sql string, args []any) pgx.Row
	failExecOn string // substring; matching Exec calls fail
	execErr    error
	committed  bool
	rolledBack bool
	commitErr  error
}

func (t *fakeTx) Exec(ctx context.Context, sql string, arguments ...any) (pgconn.CommandTag, error) {
	if t.failExecOn != "" && containsSQL(sql, t.failExecOn) {
		return pgconn.CommandTag{}, t.execErr
	}
	t.execSQL = append(t.execSQL, sql)
	t.execArgs = append(t.execArgs, arguments)
	return pgconn.CommandTag{}, nil
}

func (t *fakeTx) QueryRow(ctx context.Context, sql string, args ...any) pgx.Row {
	return t.queryRowFn(sql, args)
}

func (t *fakeTx) Commit(ctx context.Context) error {
	if t.commitErr != nil {
		return t.commitErr
	}
	t.committed = true
	return nil
}

func (t *fakeTx) Rollback(ctx context.Context) error {
	if !t.committed {
		t.rolledBack = true
	}
	return nil
}

func (t *fakeTx) Begin(ctx context.Context) (pgx.Tx, error) { panic("not implemented") }
func (t *fakeTx) CopyFrom(ctx context.Context, tableName pgx.Identifier, columnNames []string, rowSrc pgx.CopyFromSource) (int64, error) {
	panic("not implemented")
}
func (t *fakeTx) SendBatch(ctx context.Context, b *pgx.Batch) pgx.BatchResults {
	panic("not implemented")
}
func (t *fakeTx) LargeObjects() pgx.LargeObjects { panic("not implemented") }
func (t *fakeTx) Prepare(ctx context.Context, name, sql string) (*pgconn.StatementDescription, error) {
	panic("not implemented")
}
func (t *fakeTx) Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error) {
	panic("not implemented")
}
func (t *fakeTx) Conn() *pgx.Conn { return nil }

// fakeBeginner hands out a prepared fakeTx.
type fakeBeginner struct {
	tx  *fakeTx
	err error
}

func (b *fakeBeginner) Begin(ctx context.Context) (pgx.Tx, error) {
	if b.err != nil {
		return nil, b.err
	}
	return b.tx, nil
}

func containsSQL(sql, substr string) bool {
	return substr != "" && strings.Contains(sql, substr)
}
