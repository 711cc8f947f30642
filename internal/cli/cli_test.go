package cli

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/flancast90/agegraph-go"
)

func TestParseColumns(t *testing.T) {
	tests := []struct {
		name    string
		specs   []string
		want    []agegraph.Column
		wantErr bool
	}{
		{
			name:  "empty",
			specs: nil,
			want:  []agegraph.Column{},
		},
		{
			name:  "typed",
			specs: []string{"name:string", "age:integer", "p:vertex"},
			want: []agegraph.Column{
				{Name: "name", Type: agegraph.TypeString},
				{Name: "age", Type: agegraph.TypeInteger},
				{Name: "p", Type: agegraph.TypeVertex},
			},
		},
		{
			name:  "untyped",
			specs: []string{"result"},
			want:  []agegraph.Column{{Name: "result", Type: agegraph.TypeAny}},
		},
		{name: "unknown type", specs: []string{"a:blob"}, wantErr: true},
		{name: "missing name", specs: []string{":string"}, wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := parseColumns(tt.specs)
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestParseParams(t *testing.T) {
	params, err := parseParams([]string{
		"name=Alice",
		"age=30",
		"score=1.5",
		"active=true",
		`tags=["a","b"]`,
		`quoted="42"`,
		"expr=a=b",
	})
	require.NoError(t, err)

	assert.Equal(t, "Alice", params["name"])
	assert.Equal(t, int64(30), params["age"])
	assert.Equal(t, 1.5, params["score"])
	assert.Equal(t, true, params["active"])
	assert.Equal(t, []interface{}{"a", "b"}, params["tags"])
	assert.Equal(t, "42", params["quoted"])
	assert.Equal(t, "a=b", params["expr"])
}

func TestParseParamsInvalid(t *testing.T) {
	_, err := parseParams([]string{"novalue"})
	assert.Error(t, err)

	_, err = parseParams([]string{"=x"})
	assert.Error(t, err)

	params, err := parseParams(nil)
	assert.NoError(t, err)
	assert.Nil(t, params)
}

func TestFormatValue(t *testing.T) {
	tests := []struct {
		in   interface{}
		want string
	}{
		{nil, "null"},
		{"text", "text"},
		{int64(7), "7"},
		{true, "true"},
		{agegraph.Numeric("12.50"), "12.50"},
		{[]interface{}{int64(1), "a"}, `[1,"a"]`},
		{map[string]interface{}{"k": "v"}, `{"k":"v"}`},
		{&agegraph.Vertex{Label: "Person", Properties: map[string]interface{}{"name": "Alice"}}, "(:Person map[name:Alice])"},
	}

	for _, tt := range tests {
		t.Run(fmt.Sprintf("%T", tt.in), func(t *testing.T) {
			assert.Equal(t, tt.want, formatValue(tt.in))
		})
	}
}

func testResult() *agegraph.QueryResult {
	return &agegraph.QueryResult{
		Columns: []agegraph.Column{
			{Name: "name", Type: agegraph.TypeString},
			{Name: "age", Type: agegraph.TypeInteger},
		},
		Rows: []agegraph.Row{
			{"name": "Alice", "age": int64(30)},
			{"name": "Bob", "age": nil},
		},
	}
}

func TestWriteTable(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, writeTable(&buf, testResult()))

	out := buf.String()
	assert.Contains(t, strings.ToUpper(out), "NAME")
	assert.Contains(t, out, "Alice")
	assert.Contains(t, out, "30")
	assert.Contains(t, out, "null")
}

func TestRenderTable(t *testing.T) {
	var buf bytes.Buffer
	err := renderTable(&buf, []string{"Label", "Kind"}, [][]string{
		{"Person", "vertex"},
		{"KNOWS", "edge"},
	})
	require.NoError(t, err)

	out := buf.String()
	assert.Contains(t, strings.ToUpper(out), "LABEL")
	assert.Contains(t, out, "Person")
	assert.Contains(t, out, "edge")
	assert.Less(t, strings.Index(out, "Person"), strings.Index(out, "KNOWS"))
}

func TestWriteJSON(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, writeJSON(&buf, testResult()))

	var rows []map[string]interface{}
	require.NoError(t, json.Unmarshal(buf.Bytes(), &rows))
	require.Len(t, rows, 2)
	assert.Equal(t, "Alice", rows[0]["name"])
	assert.Equal(t, float64(30), rows[0]["age"])
	assert.Nil(t, rows[1]["age"])

	buf.Reset()
	require.NoError(t, writeJSON(&buf, &agegraph.QueryResult{}))
	assert.Equal(t, "[]\n", buf.String())
}

func TestExitCode(t *testing.T) {
	background := context.Background()

	canceled, cancel := context.WithCancelCause(background)
	cancel(nil)

	unhealthy, cancelUnhealthy := context.WithCancelCause(background)
	cancelUnhealthy(fmt.Errorf("%w: ping failed", errUnhealthy))

	assert.Equal(t, 0, exitCode(background, nil))
	assert.Equal(t, 1, exitCode(background, errors.New("boom")))
	assert.Equal(t, 0, exitCode(canceled, context.Canceled))
	assert.Equal(t, 1, exitCode(unhealthy, context.Canceled))
	assert.Equal(t, 1, exitCode(unhealthy, nil))
}

func TestRootCommandFlags(t *testing.T) {
	cmd := NewRootCommand(&bytes.Buffer{})

	envFile := cmd.PersistentFlags().Lookup("env-file")
	require.NotNil(t, envFile)
	assert.Equal(t, ".env", envFile.DefValue)
	assert.NotNil(t, cmd.PersistentFlags().Lookup("debug"))

	for _, path := range [][]string{
		{"init"},
		{"graph", "create"},
		{"graph", "drop"},
		{"graph", "list"},
		{"graph", "labels"},
		{"query"},
		{"seed"},
		{"health"},
	} {
		found, _, err := cmd.Find(path)
		require.NoError(t, err, path)
		assert.Equal(t, path[len(path)-1], found.Name())
	}
}

func TestCommandConnectFailure(t *testing.T) {
	connectErr := &agegraph.Error{Op: "connect", Kind: agegraph.ErrConnection}
	var gotOpts *agegraph.Options

	a := &app{
		out: &bytes.Buffer{},
		connect: func(ctx context.Context, opts *agegraph.Options) (*agegraph.Client, error) {
			gotOpts = opts
			return nil, connectErr
		},
	}
	t.Setenv("POSTGRES_HOST", "db.test")

	root := a.rootCommand()
	root.SetArgs([]string{"--env-file", "", "graph", "list"})
	root.SetOut(&bytes.Buffer{})
	root.SetErr(&bytes.Buffer{})

	err := root.ExecuteContext(context.Background())
	require.Error(t, err)
	assert.ErrorIs(t, err, agegraph.ErrConnection)
	require.NotNil(t, gotOpts)
	assert.Equal(t, "db.test", gotOpts.Host)

	a.close()
}

func TestQueryCommandValidatesBeforeConnecting(t *testing.T) {
	connected := false
	a := &app{
		out: &bytes.Buffer{},
		connect: func(ctx context.Context, opts *agegraph.Options) (*agegraph.Client, error) {
			connected = true
			return nil, errors.New("unreachable")
		},
	}

	root := a.rootCommand()
	root.SetArgs([]string{"--env-file", "", "query", "social", "RETURN 1", "--column", "x:blob"})
	root.SetOut(&bytes.Buffer{})
	root.SetErr(&bytes.Buffer{})

	err := root.ExecuteContext(context.Background())
	require.Error(t, err)
	assert.False(t, connected)
}
