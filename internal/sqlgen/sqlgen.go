// Package sqlgen builds the SQL statements sent to PostgreSQL for AGE operations.
package sqlgen

import (
	"encoding/json"
	"errors"
	"fmt"
	"regexp"
	"strconv"
	"strings"

	"github.com/jackc/pgx/v5"
	"github.com/lib/pq"
)

// Graph names are inlined into cypher() calls, so they are held to identifier rules.
const (
	MinGraphNameLen = 3
	MaxGraphNameLen = 63
)

var (
	// ErrInvalidName is returned for graph or column names that fail validation.
	ErrInvalidName = errors.New("invalid name")

	// ErrInvalidQuery is returned for query text that cannot be embedded safely.
	ErrInvalidQuery = errors.New("invalid query text")
)

var identPattern = regexp.MustCompile(`^[A-Za-z_][A-Za-z0-9_]*$`)

// Session setup statements, applied to every new connection.
const (
	CreateExtension = "CREATE EXTENSION IF NOT EXISTS age"
	LoadExtension   = "LOAD 'age'"
	SetSearchPath   = `SET search_path = ag_catalog, "$user", public`
)

// Graph lifecycle statements. All arguments are bound.
const (
	GraphExists = "SELECT EXISTS (SELECT 1 FROM ag_catalog.ag_graph WHERE name = $1)"
	CreateGraph = "SELECT ag_catalog.create_graph($1)"
	DropGraph   = "SELECT ag_catalog.drop_graph($1, $2)"

	CreateVertexLabel = "SELECT ag_catalog.create_vlabel($1, $2)"
	CreateEdgeLabel   = "SELECT ag_catalog.create_elabel($1, $2)"
)

// SessionStatements returns the statements that prepare a session for AGE.
// LOAD is omitted when the library is preloaded by the server.
func SessionStatements(preloaded bool) []string {
	if preloaded {
		return []string{SetSearchPath}
	}
	return []string{LoadExtension, SetSearchPath}
}

// ValidateGraphName reports whether name may be used as an AGE graph name.
func ValidateGraphName(name string) error {
	if len(name) < MinGraphNameLen || len(name) > MaxGraphNameLen {
		return fmt.Errorf("%w: graph name %q must be %d to %d characters",
			ErrInvalidName, name, MinGraphNameLen, MaxGraphNameLen)
	}
	if !identPattern.MatchString(name) {
		return fmt.Errorf("%w: graph name %q may contain only letters, digits and underscores",
			ErrInvalidName, name)
	}
	return nil
}

// ValidateColumnName reports whether name may be used as a result column.
func ValidateColumnName(name string) error {
	if len(name) == 0 || len(name) > MaxGraphNameLen || !identPattern.MatchString(name) {
		return fmt.Errorf("%w: column name %q", ErrInvalidName, name)
	}
	return nil
}

// ValidateLabelName reports whether name may be used as a vertex or edge label.
func ValidateLabelName(name string) error {
	if len(name) == 0 || len(name) > MaxGraphNameLen || !identPattern.MatchString(name) {
		return fmt.Errorf("%w: label name %q", ErrInvalidName, name)
	}
	return nil
}

// DollarTag picks a dollar-quote delimiter that does not occur in query.
func DollarTag(query string) (string, error) {
	if strings.IndexByte(query, 0) >= 0 {
		return "", fmt.Errorf("%w: contains NUL byte", ErrInvalidQuery)
	}
	if !strings.Contains(query, "$$") {
		return "$$", nil
	}
	for i := 0; i < 100; i++ {
		tag := "$cypher$"
		if i > 0 {
			tag = "$cypher_" + strconv.Itoa(i) + "$"
		}
		if !strings.Contains(query, tag) {
			return tag, nil
		}
	}
	return "", fmt.Errorf("%w: no free dollar-quote delimiter", ErrInvalidQuery)
}

// BuildCypher wraps query in a cypher() call returning the given columns as agtype.
//
// The query is placed on its own lines between the delimiters, so a tag can only
// terminate the literal if it occurs inside the query itself, which DollarTag rules out.
func BuildCypher(graph, query string, columns []string, withParams bool) (string, error) {
	if err := ValidateGraphName(graph); err != nil {
		return "", err
	}
	if len(columns) == 0 {
		return "", fmt.Errorf("%w: at least one result column is required", ErrInvalidName)
	}

	defs := make([]string, len(columns))
	seen := make(map[string]bool, len(columns))
	for i, col := range columns {
		if err := ValidateColumnName(col); err != nil {
			return "", err
		}
		if seen[col] {
			return "", fmt.Errorf("%w: duplicate column name %q", ErrInvalidName, col)
		}
		seen[col] = true
		defs[i] = pgx.Identifier{col}.Sanitize() + " agtype"
	}

	tag, err := DollarTag(query)
	if err != nil {
		return "", err
	}

	var b strings.Builder
	b.WriteString("SELECT * FROM cypher(")
	b.WriteString(pq.QuoteLiteral(graph))
	b.WriteString(", ")
	b.WriteString(tag)
	b.WriteString("\n")
	b.WriteString(query)
	b.WriteString("\n")
	b.WriteString(tag)
	if withParams {
		b.WriteString(", $1")
	}
	b.WriteString(") AS (")
	b.WriteString(strings.Join(defs, ", "))
	b.WriteString(")")
	return b.String(), nil
}

// EncodeParams renders query parameters as the agtype map passed to cypher().
func EncodeParams(params map[string]interface{}) (string, error) {
	for key := range params {
		if !identPattern.MatchString(key) {
			return "", fmt.Errorf("%w: parameter name %q", ErrInvalidName, key)
		}
	}
	data, err := json.Marshal(params)
	if err != nil {
		return "", fmt.Errorf("encode parameters: %w", err)
	}
	return string(data), nil
}
