// Package pgpool builds the pgx connection pool used by agegraph.
package pgpool

import (
	"context"
	"fmt"
	"net"
	"net/url"
	"strconv"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/flancast90/agegraph-go/internal/sqlgen"
)

// Options configures the PostgreSQL connection pool.
type Options struct {
	// ConnString overrides the individual connection fields when set.
	ConnString string

	Host     string
	Port     int
	Database string
	User     string
	Password string
	SSLMode  string

	MaxConns       int32
	IdleTimeout    time.Duration
	ConnectTimeout time.Duration

	// SessionPreloaded skips LOAD 'age' on new connections.
	SessionPreloaded bool

	// Tracer is installed on every connection when non-nil.
	Tracer pgx.QueryTracer
}

// DSN returns the connection URL described by the options.
func (o *Options) DSN() string {
	if o.ConnString != "" {
		return o.ConnString
	}
	u := url.URL{
		Scheme: "postgres",
		User:   url.UserPassword(o.User, o.Password),
		Host:   net.JoinHostPort(o.Host, strconv.Itoa(o.Port)),
		Path:   "/" + o.Database,
	}
	if o.SSLMode != "" {
		u.RawQuery = url.Values{"sslmode": {o.SSLMode}}.Encode()
	}
	return u.String()
}

// Config parses the options into a pool configuration without connecting.
func Config(opts *Options) (*pgxpool.Config, error) {
	cfg, err := pgxpool.ParseConfig(opts.DSN())
	if err != nil {
		return nil, fmt.Errorf("parse pool config: %w", err)
	}

	cfg.MaxConns = opts.MaxConns
	cfg.MinConns = 0
	cfg.MaxConnIdleTime = opts.IdleTimeout
	if opts.IdleTimeout > 0 && opts.IdleTimeout < cfg.HealthCheckPeriod {
		// The pool only reaps idle connections on its health check tick.
		cfg.HealthCheckPeriod = opts.IdleTimeout
	}
	cfg.ConnConfig.ConnectTimeout = opts.ConnectTimeout
	if opts.Tracer != nil {
		cfg.ConnConfig.Tracer = opts.Tracer
	}

	statements := sqlgen.SessionStatements(opts.SessionPreloaded)
	cfg.AfterConnect = func(ctx context.Context, conn *pgx.Conn) error {
		for _, stmt := range statements {
			if _, err := conn.Exec(ctx, stmt); err != nil {
				return fmt.Errorf("session setup: %w", err)
			}
		}
		return nil
	}

	return cfg, nil
}

// New creates the pool and verifies that a connection can be established.
func New(ctx context.Context, opts *Options) (*pgxpool.Pool, error) {
	cfg, err := Config(opts)
	if err != nil {
		return nil, err
	}

	pool, err := pgxpool.NewWithConfig(ctx, cfg)
	if err != nil {
		return nil, fmt.Errorf("create pool: %w", err)
	}

	pingCtx := ctx
	if opts.ConnectTimeout > 0 {
		var cancel context.CancelFunc
		pingCtx, cancel = context.WithTimeout(ctx, opts.ConnectTimeout)
		defer cancel()
	}
	if err := pool.Ping(pingCtx); err != nil {
		pool.Close()
		return nil, err
	}

	return pool, nil
}

// NewLazy creates the pool without connecting. Connections are opened on first use.
func NewLazy(opts *Options) (*pgxpool.Pool, error) {
	cfg, err := Config(opts)
	if err != nil {
		return nil, err
	}
	return pgxpool.NewWithConfig(context.Background(), cfg)
}
