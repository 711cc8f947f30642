// Package catalog reads graph and label metadata from the ag_catalog schema.
package catalog

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/jackc/pgx/v5/stdlib"
	"github.com/uptrace/bun"
	"github.com/uptrace/bun/dialect/pgdialect"
	"go.uber.org/zap"
)

// GraphRecord is a row of ag_catalog.ag_graph.
type GraphRecord struct {
	bun.BaseModel `bun:"table:ag_catalog.ag_graph,alias:g"`

	GraphID   int64  `bun:"graphid"`
	Name      string `bun:"name"`
	Namespace string `bun:"namespace"`
}

// LabelRecord is a row of ag_catalog.ag_label.
type LabelRecord struct {
	bun.BaseModel `bun:"table:ag_catalog.ag_label,alias:l"`

	Name string `bun:"name"`
	Kind string `bun:"kind"`
}

// KindName returns "vertex" or "edge" for the catalog kind code.
func (r LabelRecord) KindName() string {
	switch r.Kind {
	case "v":
		return "vertex"
	case "e":
		return "edge"
	}
	return r.Kind
}

// Catalog runs catalog queries through bun.
type Catalog struct {
	db    bun.IDB
	owned *bun.DB
	conn  *bun.Conn
}

// New wraps pool in a bun database. hook may be nil.
// Closing the catalog does not close pool.
func New(pool *pgxpool.Pool, hook *LoggingHook) *Catalog {
	db := bun.NewDB(stdlib.OpenDBFromPool(pool), pgdialect.New())
	if hook != nil {
		db.AddQueryHook(hook)
	}
	return &Catalog{db: db, owned: db}
}

// NewWithDB uses an existing bun database or transaction.
func NewWithDB(db bun.IDB) *Catalog {
	return &Catalog{db: db}
}

// Conn reserves one pooled connection and returns a catalog bound to it.
// ctx bounds only the wait for the connection. The caller must Close it.
func (c *Catalog) Conn(ctx context.Context) (*Catalog, error) {
	if c.owned == nil {
		return c, nil
	}
	conn, err := c.owned.Conn(ctx)
	if err != nil {
		return nil, err
	}
	return &Catalog{db: &conn, conn: &conn}, nil
}

// GraphNames returns the graph names in creation order.
func (c *Catalog) GraphNames(ctx context.Context) ([]string, error) {
	var names []string
	err := c.graphNamesQuery().Scan(ctx, &names)
	if err != nil {
		return nil, err
	}
	return names, nil
}

// Graphs returns every graph record in creation order.
func (c *Catalog) Graphs(ctx context.Context) ([]GraphRecord, error) {
	var records []GraphRecord
	err := c.graphsQuery(&records).Scan(ctx)
	if err != nil {
		return nil, err
	}
	return records, nil
}

// GraphExists reports whether a graph named name exists.
func (c *Catalog) GraphExists(ctx context.Context, name string) (bool, error) {
	return c.graphExistsQuery(name).Exists(ctx)
}

// Labels returns the labels of graph, vertex labels first.
func (c *Catalog) Labels(ctx context.Context, graph string) ([]LabelRecord, error) {
	var records []LabelRecord
	err := c.labelsQuery(&records, graph).Scan(ctx)
	if err != nil {
		return nil, err
	}
	return records, nil
}

// Close releases the connection reserved by Conn or the bun database created by New.
func (c *Catalog) Close() error {
	if c.conn != nil {
		return c.conn.Close()
	}
	if c.owned == nil {
		return nil
	}
	return c.owned.Close()
}

func (c *Catalog) graphNamesQuery() *bun.SelectQuery {
	return c.db.NewSelect().
		Model((*GraphRecord)(nil)).
		ColumnExpr("g.name::text").
		OrderExpr("g.graphid")
}

func (c *Catalog) graphsQuery(dest *[]GraphRecord) *bun.SelectQuery {
	return c.db.NewSelect().
		Model(dest).
		ColumnExpr("g.graphid").
		ColumnExpr("g.name::text AS name").
		ColumnExpr("g.namespace::text AS namespace").
		OrderExpr("g.graphid")
}

func (c *Catalog) graphExistsQuery(name string) *bun.SelectQuery {
	return c.db.NewSelect().
		Model((*GraphRecord)(nil)).
		Where("g.name = ?", name)
}

func (c *Catalog) labelsQuery(dest *[]LabelRecord, graph string) *bun.SelectQuery {
	return c.db.NewSelect().
		Model(dest).
		ColumnExpr("l.name::text AS name").
		ColumnExpr("l.kind::text AS kind").
		Join("JOIN ag_catalog.ag_graph AS g ON g.graphid = l.graph").
		Where("g.name = ?", graph).
		OrderExpr("l.kind DESC, l.name")
}

// LoggingHook logs catalog statements. Slow statements are logged as warnings.
type LoggingHook struct {
	Log *zap.Logger

	// SlowThreshold defaults to 3s.
	SlowThreshold time.Duration
}

func (h *LoggingHook) BeforeQuery(ctx context.Context, _ *bun.QueryEvent) context.Context {
	return ctx
}

func (h *LoggingHook) AfterQuery(_ context.Context, event *bun.QueryEvent) {
	duration := time.Since(event.StartTime)
	threshold := h.SlowThreshold
	if threshold == 0 {
		threshold = 3 * time.Second
	}

	if event.Err != nil && !errors.Is(event.Err, sql.ErrNoRows) {
		h.Log.Error("catalog query error",
			zap.String("query", event.Query),
			zap.Duration("duration", duration),
			zap.Error(event.Err))
		return
	}

	if duration > threshold {
		h.Log.Warn("slow catalog query",
			zap.String("query", event.Query),
			zap.Duration("duration", duration))
		return
	}

	h.Log.Debug("catalog query",
		zap.String("query", event.Query),
		zap.Duration("duration", duration))
}
