package agegraph

import (
	"context"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
	"go.uber.org/zap"

	"github.com/flancast90/agegraph-go/internal/sqlgen"
)

// querier is satisfied by pooled connections and transactions.
type querier interface {
	Exec(ctx context.Context, sql string, args ...interface{}) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...interface{}) (pgx.Rows, error)
}

// Conn is a connection reserved from the pool. It is not safe for concurrent use.
type Conn struct {
	conn   *pgxpool.Conn
	client *Client
}

// Query executes a Cypher query against graph on this connection.
func (c *Conn) Query(ctx context.Context, graph, query string, options ...*QueryOptions) (*QueryResult, error) {
	if err := sqlgen.ValidateGraphName(graph); err != nil {
		return nil, wrapError("query", graph, err)
	}
	return c.client.execute(ctx, c.conn, graph, query, options...)
}

// Begin starts a transaction on this connection.
func (c *Conn) Begin(ctx context.Context) (*Tx, error) {
	tx, err := c.conn.Begin(ctx)
	if err != nil {
		return nil, c.client.fail("begin", "", err)
	}
	return &Tx{tx: tx, client: c.client}, nil
}

// Release returns the connection to the pool. Release is safe to call more than once.
func (c *Conn) Release() {
	if c.conn == nil {
		return
	}
	c.conn.Release()
	c.conn = nil
}

// Tx is an open transaction on a reserved connection.
type Tx struct {
	tx     pgx.Tx
	client *Client
	done   bool
}

// Query executes a Cypher query against graph inside the transaction.
func (t *Tx) Query(ctx context.Context, graph, query string, options ...*QueryOptions) (*QueryResult, error) {
	if err := sqlgen.ValidateGraphName(graph); err != nil {
		return nil, wrapError("query", graph, err)
	}
	return t.client.execute(ctx, t.tx, graph, query, options...)
}

// Commit commits the transaction.
func (t *Tx) Commit(ctx context.Context) error {
	t.done = true
	if err := t.tx.Commit(ctx); err != nil {
		return t.client.fail("commit", "", err)
	}
	return nil
}

// Rollback aborts the transaction. It is a no-op after Commit or a previous Rollback.
func (t *Tx) Rollback(ctx context.Context) error {
	if t.done {
		return nil
	}
	t.done = true
	if err := t.tx.Rollback(ctx); err != nil {
		return t.client.fail("rollback", "", err)
	}
	return nil
}

// execute builds the cypher() statement, runs it on q and decodes the rows.
func (c *Client) execute(ctx context.Context, q querier, graph, query string, options ...*QueryOptions) (*QueryResult, error) {
	const op = "query"
	opts := queryOptions(options)

	names := make([]string, len(opts.Columns))
	for i, col := range opts.Columns {
		names[i] = col.Name
	}

	var args []interface{}
	if len(opts.Params) > 0 {
		params, err := sqlgen.EncodeParams(opts.Params)
		if err != nil {
			return nil, wrapError(op, graph, err)
		}
		args = append(args, params)
	}

	sql, err := sqlgen.BuildCypher(graph, query, names, len(args) > 0)
	if err != nil {
		return nil, wrapError(op, graph, err)
	}

	if opts.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, opts.Timeout)
		defer cancel()
	}

	rows, err := q.Query(ctx, sql, args...)
	if err != nil {
		return nil, c.fail(op, graph, err)
	}

	decoded, err := decodeRows(rows, opts.Columns)
	if err != nil {
		return nil, c.fail(op, graph, err)
	}

	c.log.Debug("query executed",
		zap.String("graph", graph),
		zap.Int("rows", len(decoded)))

	return &QueryResult{Columns: opts.Columns, Rows: decoded}, nil
}
