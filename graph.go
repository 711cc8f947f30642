package agegraph

import (
	"context"
	"fmt"
	"time"

	"github.com/flancast90/agegraph-go/internal/sqlgen"
)

// Graph represents an AGE graph and provides methods to interact with it.
// It is safe for concurrent use by multiple goroutines.
type Graph struct {
	name   string
	client *Client
}

// GraphInfo is a row of ag_catalog.ag_graph.
type GraphInfo struct {
	ID        int64
	Name      string
	Namespace string
}

// LabelKind distinguishes vertex labels from edge labels.
type LabelKind string

const (
	LabelVertex LabelKind = "vertex"
	LabelEdge   LabelKind = "edge"
)

// Label is a vertex or edge label defined in a graph.
type Label struct {
	Name string
	Kind LabelKind
}

// Name returns the name of the graph.
func (g *Graph) Name() string {
	return g.name
}

// Query executes a Cypher query on the graph.
//
// Example:
//
//	result, err := graph.Query(ctx,
//		"MATCH (p:Person) WHERE p.name = $name RETURN p.age",
//		&agegraph.QueryOptions{
//			Params:  map[string]interface{}{"name": "Alice"},
//			Columns: []agegraph.Column{{Name: "age", Type: agegraph.TypeInteger}},
//		},
//	)
func (g *Graph) Query(ctx context.Context, query string, options ...*QueryOptions) (*QueryResult, error) {
	return g.client.Query(ctx, g.name, query, options...)
}

// Create creates the graph if it does not exist.
func (g *Graph) Create(ctx context.Context) error {
	return g.client.CreateGraph(ctx, g.name)
}

// Delete removes the graph and all of its data.
func (g *Graph) Delete(ctx context.Context) error {
	return g.client.DropGraph(ctx, g.name, true)
}

// CreateLabel creates a vertex or edge label ahead of use. It is a no-op if
// the label exists.
func (g *Graph) CreateLabel(ctx context.Context, kind LabelKind, label string) error {
	return g.client.CreateLabel(ctx, g.name, kind, label)
}

// Exists reports whether the graph is present in the catalog.
func (g *Graph) Exists(ctx context.Context) (bool, error) {
	const op = "graph exists"
	if err := sqlgen.ValidateGraphName(g.name); err != nil {
		return false, wrapError(op, g.name, err)
	}
	cat, err := g.client.catalogConn(ctx, op, g.name)
	if err != nil {
		return false, err
	}
	defer cat.Close()

	exists, err := cat.GraphExists(ctx, g.name)
	if err != nil {
		return false, g.client.fail(op, g.name, err)
	}
	return exists, nil
}

// Labels returns the vertex and edge labels defined in the graph, including
// AGE's default labels.
func (g *Graph) Labels(ctx context.Context) ([]Label, error) {
	const op = "list labels"
	if err := sqlgen.ValidateGraphName(g.name); err != nil {
		return nil, wrapError(op, g.name, err)
	}
	cat, err := g.client.catalogConn(ctx, op, g.name)
	if err != nil {
		return nil, err
	}
	defer cat.Close()

	records, err := cat.Labels(ctx, g.name)
	if err != nil {
		return nil, g.client.fail(op, g.name, err)
	}
	if len(records) == 0 {
		// Every graph has the default vertex and edge labels.
		return nil, &Error{Op: op, Graph: g.name, Kind: ErrNotFound}
	}

	labels := make([]Label, len(records))
	for i, r := range records {
		labels[i] = Label{Name: r.Name, Kind: LabelKind(r.KindName())}
	}
	return labels, nil
}

// String returns a string representation of the graph.
func (g *Graph) String() string {
	return fmt.Sprintf("Graph<%s>", g.name)
}

// PoolStats is a snapshot of connection pool usage.
type PoolStats struct {
	TotalConns        int32
	IdleConns         int32
	AcquiredConns     int32
	MaxConns          int32
	AcquireCount      int64
	EmptyAcquireCount int64
	CanceledAcquires  int64
	AcquireDuration   time.Duration
}
