package agegraph

import "github.com/flancast90/agegraph-go/internal/agtype"

// Graph entities decoded from agtype values.
type (
	// Vertex is a graph node with a label and properties.
	Vertex = agtype.Vertex

	// Edge is a directed relationship between two vertices.
	Edge = agtype.Edge

	// Path is a sequence of vertices connected by edges.
	Path = agtype.Path

	// Numeric is an exact decimal value, kept as text.
	Numeric = agtype.Numeric
)

// ValueType declares the expected Go type of a result column.
type ValueType int

const (
	// TypeAny accepts any decoded value.
	TypeAny ValueType = iota
	TypeString
	TypeInteger
	TypeFloat
	TypeNumeric
	TypeBoolean
	TypeVertex
	TypeEdge
	TypePath
	TypeList
	TypeMap
)

var valueTypeNames = map[ValueType]string{
	TypeAny:     "any",
	TypeString:  "string",
	TypeInteger: "integer",
	TypeFloat:   "float",
	TypeNumeric: "numeric",
	TypeBoolean: "boolean",
	TypeVertex:  "vertex",
	TypeEdge:    "edge",
	TypePath:    "path",
	TypeList:    "list",
	TypeMap:     "map",
}

// String returns the lower-case name of the type.
func (t ValueType) String() string {
	if name, ok := valueTypeNames[t]; ok {
		return name
	}
	return "unknown"
}

var valueTypesByName = func() map[string]ValueType {
	m := make(map[string]ValueType, len(valueTypeNames))
	for t, name := range valueTypeNames {
		m[name] = t
	}
	return m
}()

// ParseValueType returns the ValueType with the given name.
func ParseValueType(name string) (ValueType, bool) {
	t, ok := valueTypesByName[name]
	return t, ok
}

// Column is a named, typed result column.
type Column struct {
	Name string
	Type ValueType
}

// DefaultColumns is the result shape used when a query declares none.
var DefaultColumns = []Column{{Name: "result", Type: TypeAny}}
