package agegraph

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/stretchr/testify/require"

	"github.com/flancast90/agegraph-go/internal/pgpool"
)

// fakeRows serves raw agtype text cells.
type fakeRows struct {
	rows   [][][]byte
	pos    int
	err    error
	closed bool
}

func textRows(rows ...[]string) *fakeRows {
	r := &fakeRows{pos: -1}
	for _, row := range rows {
		raw := make([][]byte, len(row))
		for i, cell := range row {
			if cell != "<NULL>" {
				raw[i] = []byte(cell)
			}
		}
		r.rows = append(r.rows, raw)
	}
	return r
}

func (r *fakeRows) Close()                                       { r.closed = true }
func (r *fakeRows) Err() error                                   { return r.err }
func (r *fakeRows) CommandTag() pgconn.CommandTag                { return pgconn.NewCommandTag("SELECT") }
func (r *fakeRows) FieldDescriptions() []pgconn.FieldDescription { return nil }
func (r *fakeRows) Scan(dest ...interface{}) error               { return errors.New("not supported") }
func (r *fakeRows) Values() ([]interface{}, error)               { return nil, errors.New("not supported") }
func (r *fakeRows) RawValues() [][]byte                          { return r.rows[r.pos] }
func (r *fakeRows) Conn() *pgx.Conn                              { return nil }

func (r *fakeRows) Next() bool {
	if r.closed || r.pos+1 >= len(r.rows) {
		return false
	}
	r.pos++
	return true
}

// fakeQuerier records the statement and returns canned rows.
type fakeQuerier struct {
	sql  string
	args []interface{}
	rows *fakeRows
	err  error
}

func (q *fakeQuerier) Exec(ctx context.Context, sql string, args ...interface{}) (pgconn.CommandTag, error) {
	q.sql, q.args = sql, args
	return pgconn.NewCommandTag("SELECT 1"), q.err
}

func (q *fakeQuerier) Query(ctx context.Context, sql string, args ...interface{}) (pgx.Rows, error) {
	q.sql, q.args = sql, args
	if q.err != nil {
		return nil, q.err
	}
	if q.rows == nil {
		return textRows(), nil
	}
	return q.rows, nil
}

// newTestClient returns a client whose pool points at a closed port and
// never connects unless an operation needs a connection.
func newTestClient(t *testing.T, opts *Options) *Client {
	t.Helper()
	if opts == nil {
		opts = &Options{}
	}
	opts.Host = "127.0.0.1"
	opts.Port = 1
	if opts.ConnectTimeout == 0 {
		opts.ConnectTimeout = 500 * time.Millisecond
	}
	opts.setDefaults()

	pool, err := pgpool.NewLazy(poolOptions(opts, opts.Logger))
	require.NoError(t, err)

	c := newClient(pool, opts)
	t.Cleanup(func() { _ = c.Close() })
	return c
}
