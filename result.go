package agegraph

import (
	"fmt"

	"github.com/jackc/pgx/v5"

	"github.com/flancast90/agegraph-go/internal/agtype"
)

// QueryResult represents the result of a Cypher query.
type QueryResult struct {
	// Columns is the declared result shape.
	Columns []Column

	// Rows holds one entry per returned row, keyed by column name.
	Rows []Row
}

// Len returns the number of rows.
func (r *QueryResult) Len() int {
	return len(r.Rows)
}

// Row maps column names to decoded values.
// Values can be: nil, string, int64, float64, bool, Numeric, *Vertex, *Edge, *Path, map, slice
type Row map[string]interface{}

// Get returns the raw decoded value of a column.
func (r Row) Get(name string) interface{} {
	return r[name]
}

// String returns the column as a string, or "" if it is not one.
func (r Row) String(name string) string {
	s, _ := r[name].(string)
	return s
}

// Int returns the column as an int64, or 0 if it is not one.
func (r Row) Int(name string) int64 {
	i, _ := r[name].(int64)
	return i
}

// Float returns the column as a float64. Integers and numerics are converted.
func (r Row) Float(name string) float64 {
	return agtype.ToFloat64(r[name])
}

// Bool returns the column as a bool, or false if it is not one.
func (r Row) Bool(name string) bool {
	b, _ := r[name].(bool)
	return b
}

// Vertex returns the column as a vertex, or nil.
func (r Row) Vertex(name string) *Vertex {
	v, _ := r[name].(*Vertex)
	return v
}

// Edge returns the column as an edge, or nil.
func (r Row) Edge(name string) *Edge {
	e, _ := r[name].(*Edge)
	return e
}

// Path returns the column as a path, or nil.
func (r Row) Path(name string) *Path {
	p, _ := r[name].(*Path)
	return p
}

// decodeRows reads every row, decoding each agtype cell against its column.
func decodeRows(rows pgx.Rows, columns []Column) ([]Row, error) {
	defer rows.Close()

	var result []Row
	for rows.Next() {
		raw := rows.RawValues()
		if len(raw) != len(columns) {
			return nil, fmt.Errorf("%w: got %d columns, declared %d", ErrSchemaMismatch, len(raw), len(columns))
		}

		row := make(Row, len(columns))
		for i, col := range columns {
			if raw[i] == nil {
				row[col.Name] = nil
				continue
			}
			v, err := decodeValue(string(raw[i]), col)
			if err != nil {
				return nil, err
			}
			row[col.Name] = v
		}
		result = append(result, row)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return result, nil
}

func decodeValue(text string, col Column) (interface{}, error) {
	v, err := agtype.Parse(text)
	if err != nil {
		return nil, fmt.Errorf("%w: column %q: %v", ErrDecode, col.Name, err)
	}
	if v == nil {
		return nil, nil
	}

	out, ok := coerce(v, col.Type)
	if !ok {
		return nil, fmt.Errorf("%w: column %q: expected %s, got %T", ErrDecode, col.Name, col.Type, v)
	}
	return out, nil
}

func coerce(v interface{}, t ValueType) (interface{}, bool) {
	switch t {
	case TypeAny:
		return v, true
	case TypeString:
		s, ok := v.(string)
		return s, ok
	case TypeInteger:
		i, ok := v.(int64)
		return i, ok
	case TypeFloat:
		switch n := v.(type) {
		case float64:
			return n, true
		case int64:
			return float64(n), true
		case Numeric:
			f, err := n.Float64()
			return f, err == nil
		}
	case TypeNumeric:
		switch n := v.(type) {
		case Numeric:
			return n, true
		case int64, float64:
			return Numeric(fmt.Sprint(n)), true
		}
	case TypeBoolean:
		b, ok := v.(bool)
		return b, ok
	case TypeVertex:
		vertex, ok := v.(*Vertex)
		return vertex, ok
	case TypeEdge:
		edge, ok := v.(*Edge)
		return edge, ok
	case TypePath:
		path, ok := v.(*Path)
		return path, ok
	case TypeList:
		list, ok := v.([]interface{})
		return list, ok
	case TypeMap:
		m, ok := v.(map[string]interface{})
		return m, ok
	}
	return nil, false
}
