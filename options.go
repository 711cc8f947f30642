package agegraph

import (
	"time"

	"go.uber.org/zap"
)

// Options configures the client connection pool.
type Options struct {
	// ConnString is a PostgreSQL URL or keyword/value string.
	// When set, it takes precedence over the individual connection fields.
	ConnString string

	// Host is the database server host.
	// Default: "127.0.0.1"
	Host string

	// Port is the database server port.
	// Default: 5432
	Port int

	// Database is the database name.
	// Default: "age_db"
	Database string

	// User is the database role.
	// Default: "postgres"
	User string

	// Password for the database role.
	Password string

	// SSLMode is passed through as the sslmode connection parameter.
	SSLMode string

	// MaxConns is the maximum number of connections in the pool.
	// Default: 20
	MaxConns int

	// IdleTimeout closes connections that have been idle this long.
	// Default: 30s
	IdleTimeout time.Duration

	// ConnectTimeout bounds both dialing a new connection and waiting for a
	// free one when the pool is saturated.
	// Default: 2s
	ConnectTimeout time.Duration

	// HealthCheckInterval is how often the pool is pinged in the background.
	// Zero disables the health monitor.
	HealthCheckInterval time.Duration

	// OnUnhealthy is called when the pool stays unreachable after retrying.
	OnUnhealthy func(error)

	// SessionPreloaded skips LOAD 'age' when the server already preloads
	// the library via shared_preload_libraries or session_preload_libraries.
	SessionPreloaded bool

	// QueryDebug logs every statement at debug level.
	QueryDebug bool

	// Logger receives operational logs.
	// Default: zap.NewNop()
	Logger *zap.Logger
}

func (o *Options) setDefaults() {
	if o.Host == "" {
		o.Host = "127.0.0.1"
	}
	if o.Port == 0 {
		o.Port = 5432
	}
	if o.Database == "" {
		o.Database = "age_db"
	}
	if o.User == "" {
		o.User = "postgres"
	}
	if o.MaxConns <= 0 {
		o.MaxConns = 20
	}
	if o.IdleTimeout == 0 {
		o.IdleTimeout = 30 * time.Second
	}
	if o.ConnectTimeout == 0 {
		o.ConnectTimeout = 2 * time.Second
	}
	if o.Logger == nil {
		o.Logger = zap.NewNop()
	}
}

// QueryOptions configures a Cypher query execution.
type QueryOptions struct {
	// Params are bound as the cypher() parameter map and referenced in the
	// query as $name. Values must be JSON encodable.
	Params map[string]interface{}

	// Columns declares the result shape. Default: DefaultColumns.
	Columns []Column

	// Timeout bounds the query. A value of 0 means no timeout.
	Timeout time.Duration
}

func queryOptions(options []*QueryOptions) *QueryOptions {
	opts := &QueryOptions{}
	if len(options) > 0 && options[0] != nil {
		*opts = *options[0]
	}
	if len(opts.Columns) == 0 {
		opts.Columns = DefaultColumns
	}
	return opts
}
