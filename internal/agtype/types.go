package agtype

import (
	"fmt"
	"strconv"
	"strings"
)

// Vertex is a graph vertex as returned by AGE.
type Vertex struct {
	// ID is the AGE graphid of the vertex.
	ID int64 `json:"id"`

	// Label is the vertex label. The default label is the empty string.
	Label string `json:"label"`

	// Properties are the vertex's key-value properties.
	Properties map[string]interface{} `json:"properties"`
}

// String returns a string representation of the vertex.
func (v *Vertex) String() string {
	return fmt.Sprintf("(:%s %v)", v.Label, v.Properties)
}

// Edge is a directed graph edge as returned by AGE.
type Edge struct {
	ID int64 `json:"id"`

	// Label is the relationship type.
	Label string `json:"label"`

	// StartID is the graphid of the source vertex.
	StartID int64 `json:"start_id"`

	// EndID is the graphid of the destination vertex.
	EndID int64 `json:"end_id"`

	Properties map[string]interface{} `json:"properties"`
}

// String returns a string representation of the edge.
func (e *Edge) String() string {
	return fmt.Sprintf("-[:%s %v]->", e.Label, e.Properties)
}

// Path is an alternating sequence of vertices and edges.
type Path struct {
	Vertices []*Vertex `json:"vertices"`
	Edges    []*Edge   `json:"edges"`
}

// Length returns the number of edges in the path.
func (p *Path) Length() int {
	return len(p.Edges)
}

// String returns a string representation of the path.
func (p *Path) String() string {
	if len(p.Vertices) == 0 {
		return "(empty path)"
	}

	var parts []string
	for i, v := range p.Vertices {
		parts = append(parts, v.String())
		if i < len(p.Edges) {
			parts = append(parts, p.Edges[i].String())
		}
	}
	return strings.Join(parts, "")
}

// Numeric is an exact decimal value annotated with ::numeric.
// The decimal text is kept as returned by the server.
type Numeric string

// Float64 converts the decimal to the nearest float64.
func (n Numeric) Float64() (float64, error) {
	return strconv.ParseFloat(string(n), 64)
}

// String returns the decimal text.
func (n Numeric) String() string {
	return string(n)
}
