package cli

import (
	"encoding/json"
	"fmt"
	"io"
	"strconv"
	"strings"
	"time"

	"github.com/olekukonko/tablewriter"
	"github.com/spf13/cobra"

	"github.com/flancast90/agegraph-go"
)

func (a *app) queryCommand() *cobra.Command {
	var (
		columns []string
		params  []string
		output  string
		timeout time.Duration
	)

	cmd := &cobra.Command{
		Use:   "query GRAPH CYPHER",
		Short: "Run a Cypher query",
		Example: `  agectl query social 'MATCH (p:Person) RETURN p.name, p.age' --column name:string --column age:integer
  agectl query social 'MATCH (p:Person) WHERE p.name = $name RETURN p' --param name=Alice --column p:vertex`,
		Args: cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			if output != "table" && output != "json" {
				return fmt.Errorf("unknown output format %q", output)
			}
			cols, err := parseColumns(columns)
			if err != nil {
				return err
			}
			values, err := parseParams(params)
			if err != nil {
				return err
			}

			client, err := a.open(cmd.Context())
			if err != nil {
				return err
			}
			result, err := client.Query(cmd.Context(), args[0], args[1], &agegraph.QueryOptions{
				Params:  values,
				Columns: cols,
				Timeout: timeout,
			})
			if err != nil {
				return err
			}

			if output == "json" {
				return writeJSON(a.out, result)
			}
			return writeTable(a.out, result)
		},
	}

	cmd.Flags().StringArrayVarP(&columns, "column", "c", nil, "result column as name[:type], repeatable")
	cmd.Flags().StringArrayVarP(&params, "param", "p", nil, "query parameter as key=value, repeatable")
	cmd.Flags().StringVarP(&output, "output", "o", "table", "output format (table, json)")
	cmd.Flags().DurationVar(&timeout, "timeout", 0, "query timeout")
	return cmd
}

// parseColumns reads name[:type] specs. A missing type means any.
func parseColumns(specs []string) ([]agegraph.Column, error) {
	cols := make([]agegraph.Column, 0, len(specs))
	for _, spec := range specs {
		name, typeName, hasType := strings.Cut(spec, ":")
		col := agegraph.Column{Name: name, Type: agegraph.TypeAny}
		if hasType {
			t, ok := agegraph.ParseValueType(typeName)
			if !ok {
				return nil, fmt.Errorf("column %q: unknown type %q", name, typeName)
			}
			col.Type = t
		}
		if name == "" {
			return nil, fmt.Errorf("column %q: missing name", spec)
		}
		cols = append(cols, col)
	}
	return cols, nil
}

// parseParams reads key=value specs. Values that parse as JSON keep their
// type; anything else is a string. Integers stay integers.
func parseParams(specs []string) (map[string]interface{}, error) {
	if len(specs) == 0 {
		return nil, nil
	}
	params := make(map[string]interface{}, len(specs))
	for _, spec := range specs {
		key, raw, ok := strings.Cut(spec, "=")
		if !ok || key == "" {
			return nil, fmt.Errorf("parameter %q: expected key=value", spec)
		}
		params[key] = parseValue(raw)
	}
	return params, nil
}

func parseValue(raw string) interface{} {
	if i, err := strconv.ParseInt(raw, 10, 64); err == nil {
		return i
	}
	var v interface{}
	if err := json.Unmarshal([]byte(raw), &v); err == nil {
		return v
	}
	return raw
}

func writeJSON(w io.Writer, result *agegraph.QueryResult) error {
	rows := result.Rows
	if rows == nil {
		rows = []agegraph.Row{}
	}
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(rows)
}

func writeTable(w io.Writer, result *agegraph.QueryResult) error {
	header := make([]interface{}, len(result.Columns))
	for i, col := range result.Columns {
		header[i] = col.Name
	}

	table := tablewriter.NewWriter(w)
	table.Header(header...)
	for _, row := range result.Rows {
		cells := make([]interface{}, len(result.Columns))
		for i, col := range result.Columns {
			cells[i] = formatValue(row.Get(col.Name))
		}
		if err := table.Append(cells...); err != nil {
			return err
		}
	}
	return table.Render()
}

func formatValue(v interface{}) string {
	switch v := v.(type) {
	case nil:
		return "null"
	case string:
		return v
	case fmt.Stringer:
		return v.String()
	case []interface{}, map[string]interface{}:
		data, err := json.Marshal(v)
		if err != nil {
			return fmt.Sprint(v)
		}
		return string(data)
	default:
		return fmt.Sprint(v)
	}
}
