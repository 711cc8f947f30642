package agegraph

import (
	"context"
	"fmt"
	"sync/atomic"

	"github.com/jackc/pgx/v5/pgxpool"
	"go.uber.org/zap"

	"github.com/flancast90/agegraph-go/internal/catalog"
	"github.com/flancast90/agegraph-go/internal/pgpool"
	"github.com/flancast90/agegraph-go/internal/sqlgen"
)

// Client is the main handle for administering and querying AGE graphs.
// It owns a connection pool and is safe for concurrent use by multiple goroutines.
type Client struct {
	pool    *pgxpool.Pool
	catalog *catalog.Catalog
	opts    *Options
	log     *zap.Logger
	health  *healthMonitor
	closed  atomic.Bool
}

// Connect creates the connection pool and verifies the server is reachable.
//
// Every pooled connection is prepared for AGE (LOAD 'age' and the ag_catalog
// search path) when it is opened. Call Initialize once per database to make
// sure the extension itself exists.
//
// Example:
//
//	client, err := agegraph.Connect(ctx, &agegraph.Options{
//		Host:     "localhost",
//		Password: "secret",
//	})
//	if err != nil {
//		log.Fatal(err)
//	}
//	defer client.Close()
func Connect(ctx context.Context, opts *Options) (*Client, error) {
	if opts == nil {
		opts = &Options{}
	}
	opts.setDefaults()
	log := opts.Logger.Named("agegraph")

	pool, err := pgpool.New(ctx, poolOptions(opts, log))
	if err != nil {
		err = wrapError("connect", "", err)
		log.Error("failed to create connection pool",
			zap.String("host", opts.Host),
			zap.Int("port", opts.Port),
			zap.Error(err))
		return nil, err
	}

	log.Info("connection pool created",
		zap.String("host", opts.Host),
		zap.Int("port", opts.Port),
		zap.String("database", opts.Database),
		zap.Int("max_conns", opts.MaxConns))

	return newClient(pool, opts), nil
}

func poolOptions(opts *Options, log *zap.Logger) *pgpool.Options {
	po := &pgpool.Options{
		ConnString:       opts.ConnString,
		Host:             opts.Host,
		Port:             opts.Port,
		Database:         opts.Database,
		User:             opts.User,
		Password:         opts.Password,
		SSLMode:          opts.SSLMode,
		MaxConns:         int32(opts.MaxConns),
		IdleTimeout:      opts.IdleTimeout,
		ConnectTimeout:   opts.ConnectTimeout,
		SessionPreloaded: opts.SessionPreloaded,
	}
	if opts.QueryDebug {
		po.Tracer = &queryTracer{log: log.Named("pgx")}
	}
	return po
}

// newClient wraps an existing pool. opts must already have defaults applied.
func newClient(pool *pgxpool.Pool, opts *Options) *Client {
	log := opts.Logger.Named("agegraph")

	var hook *catalog.LoggingHook
	if opts.QueryDebug {
		hook = &catalog.LoggingHook{Log: log.Named("catalog")}
	}

	c := &Client{
		pool:    pool,
		catalog: catalog.New(pool, hook),
		opts:    opts,
		log:     log,
	}
	if opts.HealthCheckInterval > 0 {
		pinger := connPinger{config: pool.Config().ConnConfig}
		c.health = newHealthMonitor(pinger, opts.HealthCheckInterval, opts.ConnectTimeout, log, opts.OnUnhealthy)
		c.health.start()
	}
	return c
}

// Initialize ensures the AGE extension is installed and loaded.
//
// It issues CREATE EXTENSION IF NOT EXISTS, LOAD and SET search_path on a
// single connection. All three statements are idempotent. Graph operations
// must not be attempted if Initialize fails.
func (c *Client) Initialize(ctx context.Context) error {
	conn, err := c.acquire(ctx, "initialize", "")
	if err != nil {
		return err
	}
	defer conn.Release()

	statements := append([]string{sqlgen.CreateExtension}, sqlgen.SessionStatements(c.opts.SessionPreloaded)...)
	for _, stmt := range statements {
		if _, err := conn.Exec(ctx, stmt); err != nil {
			err = newError("initialize", "", ErrInitialization, err)
			c.log.Error("failed to initialize extension", zap.Error(err))
			return err
		}
	}

	c.log.Info("extension initialized")
	return nil
}

// CreateGraph creates the named graph. It is a no-op if the graph exists.
func (c *Client) CreateGraph(ctx context.Context, name string) error {
	const op = "create graph"
	if err := sqlgen.ValidateGraphName(name); err != nil {
		return wrapError(op, name, err)
	}

	conn, err := c.acquire(ctx, op, name)
	if err != nil {
		return err
	}
	defer conn.Release()

	var exists bool
	if err := conn.QueryRow(ctx, sqlgen.GraphExists, name).Scan(&exists); err != nil {
		return c.fail(op, name, err)
	}
	if exists {
		c.log.Info("graph already exists", zap.String("graph", name))
		return nil
	}

	if _, err := conn.Exec(ctx, sqlgen.CreateGraph, name); err != nil {
		if isAlreadyExists(err) {
			c.log.Info("graph created concurrently", zap.String("graph", name))
			return nil
		}
		return c.fail(op, name, err)
	}

	c.log.Info("graph created", zap.String("graph", name))
	return nil
}

// DropGraph removes the named graph. With cascade, dependent data such as
// labels and their tables is removed along with it.
func (c *Client) DropGraph(ctx context.Context, name string, cascade bool) error {
	const op = "drop graph"
	if err := sqlgen.ValidateGraphName(name); err != nil {
		return wrapError(op, name, err)
	}

	conn, err := c.acquire(ctx, op, name)
	if err != nil {
		return err
	}
	defer conn.Release()

	if _, err := conn.Exec(ctx, sqlgen.DropGraph, name, cascade); err != nil {
		return c.fail(op, name, err)
	}

	c.log.Info("graph dropped", zap.String("graph", name), zap.Bool("cascade", cascade))
	return nil
}

// CreateLabel creates a vertex or edge label in graph. It is a no-op if the
// label exists. Creating labels up front lets concurrent writers use them
// without racing on first use.
func (c *Client) CreateLabel(ctx context.Context, graph string, kind LabelKind, label string) error {
	const op = "create label"
	if err := sqlgen.ValidateGraphName(graph); err != nil {
		return wrapError(op, graph, err)
	}
	if err := sqlgen.ValidateLabelName(label); err != nil {
		return wrapError(op, graph, err)
	}

	var stmt string
	switch kind {
	case LabelVertex:
		stmt = sqlgen.CreateVertexLabel
	case LabelEdge:
		stmt = sqlgen.CreateEdgeLabel
	default:
		return &Error{Op: op, Graph: graph, Kind: ErrInvalidName, Err: fmt.Errorf("unknown label kind %q", kind)}
	}

	conn, err := c.acquire(ctx, op, graph)
	if err != nil {
		return err
	}
	defer conn.Release()

	if _, err := conn.Exec(ctx, stmt, graph, label); err != nil {
		if isAlreadyExists(err) {
			return nil
		}
		return c.fail(op, graph, err)
	}

	c.log.Info("label created",
		zap.String("graph", graph),
		zap.String("label", label),
		zap.String("kind", string(kind)))
	return nil
}

// ListGraphs returns the names of all graphs in catalog order.
func (c *Client) ListGraphs(ctx context.Context) ([]string, error) {
	const op = "list graphs"
	cat, err := c.catalogConn(ctx, op, "")
	if err != nil {
		return nil, err
	}
	defer cat.Close()

	names, err := cat.GraphNames(ctx)
	if err != nil {
		return nil, c.fail(op, "", err)
	}
	return names, nil
}

// Graphs returns the catalog records of all graphs.
func (c *Client) Graphs(ctx context.Context) ([]GraphInfo, error) {
	const op = "list graphs"
	cat, err := c.catalogConn(ctx, op, "")
	if err != nil {
		return nil, err
	}
	defer cat.Close()

	records, err := cat.Graphs(ctx)
	if err != nil {
		return nil, c.fail(op, "", err)
	}

	graphs := make([]GraphInfo, len(records))
	for i, r := range records {
		graphs[i] = GraphInfo{ID: r.GraphID, Name: r.Name, Namespace: r.Namespace}
	}
	return graphs, nil
}

// SelectGraph returns a Graph handle for the named graph.
// The graph is not created or checked.
func (c *Client) SelectGraph(name string) *Graph {
	return &Graph{name: name, client: c}
}

// Query executes a Cypher query against the named graph on a pooled connection.
func (c *Client) Query(ctx context.Context, graph, query string, options ...*QueryOptions) (*QueryResult, error) {
	const op = "query"
	if err := sqlgen.ValidateGraphName(graph); err != nil {
		return nil, wrapError(op, graph, err)
	}

	conn, err := c.acquire(ctx, op, graph)
	if err != nil {
		return nil, err
	}
	defer conn.Release()

	return c.execute(ctx, conn, graph, query, options...)
}

// Acquire reserves a pooled connection for caller-managed work such as
// transactions or batches. The caller must call Release.
//
// If every connection is busy, Acquire waits up to ConnectTimeout and then
// fails with ErrTimeout.
func (c *Client) Acquire(ctx context.Context) (*Conn, error) {
	conn, err := c.acquire(ctx, "acquire", "")
	if err != nil {
		return nil, err
	}
	return &Conn{conn: conn, client: c}, nil
}

// WithTx runs fn inside a transaction on a single connection. The transaction
// is committed if fn returns nil and rolled back otherwise.
func (c *Client) WithTx(ctx context.Context, fn func(*Tx) error) error {
	conn, err := c.Acquire(ctx)
	if err != nil {
		return err
	}
	defer conn.Release()

	tx, err := conn.Begin(ctx)
	if err != nil {
		return err
	}
	defer tx.Rollback(ctx)

	if err := fn(tx); err != nil {
		return err
	}
	return tx.Commit(ctx)
}

// Ping verifies a connection can be acquired and used.
func (c *Client) Ping(ctx context.Context) error {
	if c.closed.Load() {
		return &Error{Op: "ping", Kind: ErrClosed}
	}
	if err := c.pool.Ping(ctx); err != nil {
		return wrapError("ping", "", err)
	}
	return nil
}

// Healthy reports the last result of the background health monitor.
// It is always true when the monitor is disabled.
func (c *Client) Healthy() bool {
	if c.health == nil {
		return true
	}
	return c.health.Healthy()
}

// Stats returns a snapshot of the pool.
func (c *Client) Stats() PoolStats {
	s := c.pool.Stat()
	return PoolStats{
		TotalConns:        s.TotalConns(),
		IdleConns:         s.IdleConns(),
		AcquiredConns:     s.AcquiredConns(),
		MaxConns:          s.MaxConns(),
		AcquireCount:      s.AcquireCount(),
		EmptyAcquireCount: s.EmptyAcquireCount(),
		CanceledAcquires:  s.CanceledAcquireCount(),
		AcquireDuration:   s.AcquireDuration(),
	}
}

// Close stops the health monitor and closes every connection. Further
// operations fail with ErrClosed. Close is safe to call more than once.
func (c *Client) Close() error {
	if !c.closed.CompareAndSwap(false, true) {
		return nil
	}
	if c.health != nil {
		c.health.stop()
	}

	c.log.Info("closing connection pool")
	err := c.catalog.Close()
	c.pool.Close()
	return err
}

// acquire reserves a connection, waiting at most ConnectTimeout.
func (c *Client) acquire(ctx context.Context, op, graph string) (*pgxpool.Conn, error) {
	var conn *pgxpool.Conn
	err := c.reserve(ctx, op, graph, func(ctx context.Context) (err error) {
		conn, err = c.pool.Acquire(ctx)
		return err
	})
	return conn, err
}

// catalogConn reserves a connection for catalog reads, waiting at most
// ConnectTimeout. The caller must Close the returned catalog.
func (c *Client) catalogConn(ctx context.Context, op, graph string) (*catalog.Catalog, error) {
	var cat *catalog.Catalog
	err := c.reserve(ctx, op, graph, func(ctx context.Context) (err error) {
		cat, err = c.catalog.Conn(ctx)
		return err
	})
	return cat, err
}

// reserve runs get under the ConnectTimeout bound. Running out of time is
// reported as ErrTimeout unless the caller's own context ended first.
func (c *Client) reserve(ctx context.Context, op, graph string, get func(context.Context) error) error {
	if c.closed.Load() {
		return &Error{Op: op, Graph: graph, Kind: ErrClosed}
	}

	waitCtx, cancel := context.WithTimeout(ctx, c.opts.ConnectTimeout)
	defer cancel()

	if err := get(waitCtx); err != nil {
		if ctx.Err() == nil && waitCtx.Err() != nil {
			err = newError(op, graph, ErrTimeout, err)
		}
		return c.fail(op, graph, err)
	}
	return nil
}

// fail logs and classifies an operation error.
func (c *Client) fail(op, graph string, err error) error {
	err = wrapError(op, graph, err)
	fields := []zap.Field{zap.String("op", op), zap.Error(err)}
	if graph != "" {
		fields = append(fields, zap.String("graph", graph))
	}
	c.log.Error("operation failed", fields...)
	return err
}
