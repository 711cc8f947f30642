package agegraph

import (
	"context"
	"net"
	"regexp"
	"strconv"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/jackc/pgx/v5/pgproto3"
	"github.com/stretchr/testify/require"
)

// fakeNull marks a NULL cell or argument.
const fakeNull = "<NULL>"

const (
	oidBool uint32 = 16
	oidText uint32 = 25
)

type fakeColumn struct {
	Name string
	OID  uint32
}

// fakeResult is the server's answer to one statement.
type fakeResult struct {
	Columns []fakeColumn
	Rows    [][]string
	Err     *pgproto3.ErrorResponse
}

// fakeStatement is a statement the server executed. Binary bool arguments
// are recorded as "true" or "false".
type fakeStatement struct {
	SQL  string
	Args []string
}

// respondFunc answers a statement. It is called with nil args when the
// client only asks for the result shape, so the columns must not depend on args.
type respondFunc func(sql string, args []string) fakeResult

// fakeServer speaks enough of the PostgreSQL wire protocol to drive pgx
// through the simple and extended query flows without a database.
type fakeServer struct {
	ln      net.Listener
	respond respondFunc

	mu         sync.Mutex
	statements []fakeStatement
	conns      []net.Conn

	wg   sync.WaitGroup
	once sync.Once
}

func newFakeServer(t *testing.T, respond respondFunc) *fakeServer {
	t.Helper()
	ln, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)

	s := &fakeServer{ln: ln, respond: respond}
	s.wg.Add(1)
	go s.accept()
	t.Cleanup(s.close)
	return s
}

func (s *fakeServer) port() int {
	return s.ln.Addr().(*net.TCPAddr).Port
}

// close stops accepting and drops every open connection.
func (s *fakeServer) close() {
	s.once.Do(func() {
		s.ln.Close()
		s.mu.Lock()
		for _, conn := range s.conns {
			conn.Close()
		}
		s.mu.Unlock()
		s.wg.Wait()
	})
}

// executed returns the statements run since the last reset.
func (s *fakeServer) executed() []fakeStatement {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]fakeStatement(nil), s.statements...)
}

func (s *fakeServer) executedSQL() []string {
	var sqls []string
	for _, st := range s.executed() {
		sqls = append(sqls, st.SQL)
	}
	return sqls
}

func (s *fakeServer) reset() {
	s.mu.Lock()
	s.statements = nil
	s.mu.Unlock()
}

func (s *fakeServer) accept() {
	defer s.wg.Done()
	for {
		conn, err := s.ln.Accept()
		if err != nil {
			return
		}
		s.mu.Lock()
		s.conns = append(s.conns, conn)
		s.mu.Unlock()

		s.wg.Add(1)
		go func() {
			defer s.wg.Done()
			s.serve(conn)
		}()
	}
}

func (s *fakeServer) exec(sql string, args []string) fakeResult {
	s.mu.Lock()
	s.statements = append(s.statements, fakeStatement{SQL: sql, Args: args})
	s.mu.Unlock()
	return s.result(sql, args)
}

func (s *fakeServer) result(sql string, args []string) fakeResult {
	if s.respond == nil {
		return fakeResult{}
	}
	return s.respond(sql, args)
}

func (s *fakeServer) serve(conn net.Conn) {
	defer conn.Close()
	backend := pgproto3.NewBackend(conn, conn)

	msg, err := backend.ReceiveStartupMessage()
	if err != nil {
		return
	}
	if _, ok := msg.(*pgproto3.SSLRequest); ok {
		if _, err := conn.Write([]byte("N")); err != nil {
			return
		}
		if _, err := backend.ReceiveStartupMessage(); err != nil {
			return
		}
	}

	backend.Send(&pgproto3.AuthenticationOk{})
	for _, p := range [][2]string{
		{"server_version", "16.0"},
		{"client_encoding", "UTF8"},
		{"standard_conforming_strings", "on"},
		{"DateStyle", "ISO, MDY"},
		{"integer_datetimes", "on"},
	} {
		backend.Send(&pgproto3.ParameterStatus{Name: p[0], Value: p[1]})
	}
	backend.Send(&pgproto3.BackendKeyData{ProcessID: 1, SecretKey: 1})
	backend.Send(&pgproto3.ReadyForQuery{TxStatus: 'I'})
	if err := backend.Flush(); err != nil {
		return
	}

	sess := &fakeSession{server: s, backend: backend, tx: 'I', prepared: map[string]string{}}
	for {
		msg, err := backend.Receive()
		if err != nil {
			return
		}
		if !sess.handle(msg) {
			return
		}
	}
}

type fakePortal struct {
	sql     string
	args    []string
	formats []int16
}

type fakeSession struct {
	server   *fakeServer
	backend  *pgproto3.Backend
	tx       byte
	prepared map[string]string
	portal   fakePortal

	// failed discards extended-protocol messages until the next Sync.
	failed bool
}

func (f *fakeSession) handle(msg pgproto3.FrontendMessage) bool {
	switch msg.(type) {
	case *pgproto3.Query, *pgproto3.Sync, *pgproto3.Terminate:
	default:
		if f.failed {
			return true
		}
	}

	switch msg := msg.(type) {
	case *pgproto3.Query:
		f.simpleQuery(msg.String)
		f.backend.Send(&pgproto3.ReadyForQuery{TxStatus: f.tx})
		return f.backend.Flush() == nil
	case *pgproto3.Parse:
		f.prepared[msg.Name] = msg.Query
		f.backend.Send(&pgproto3.ParseComplete{})
	case *pgproto3.Describe:
		if msg.ObjectType == 'S' {
			sql := f.prepared[msg.Name]
			f.backend.Send(&pgproto3.ParameterDescription{ParameterOIDs: fakeParamOIDs(sql)})
			f.describe(f.server.result(sql, nil).Columns, nil)
		} else {
			f.describe(f.server.result(f.portal.sql, nil).Columns, f.portal.formats)
		}
	case *pgproto3.Bind:
		f.portal = fakePortal{
			sql:     f.prepared[msg.PreparedStatement],
			args:    fakeBindArgs(msg),
			formats: append([]int16(nil), msg.ResultFormatCodes...),
		}
		f.backend.Send(&pgproto3.BindComplete{})
	case *pgproto3.Execute:
		res := f.server.exec(f.portal.sql, f.portal.args)
		if res.Err != nil {
			f.fail(res.Err)
			f.failed = true
			return true
		}
		f.sendRows(res, f.portal.formats)
		f.complete(f.portal.sql, res)
	case *pgproto3.Close:
		if msg.ObjectType == 'S' {
			delete(f.prepared, msg.Name)
		}
		f.backend.Send(&pgproto3.CloseComplete{})
	case *pgproto3.Sync:
		f.failed = false
		f.backend.Send(&pgproto3.ReadyForQuery{TxStatus: f.tx})
		return f.backend.Flush() == nil
	case *pgproto3.Flush:
		return f.backend.Flush() == nil
	case *pgproto3.Terminate:
		return false
	}
	return true
}

func (f *fakeSession) simpleQuery(sql string) {
	trimmed := strings.TrimSpace(sql)
	if trimmed == "" || strings.HasPrefix(trimmed, "--") {
		f.backend.Send(&pgproto3.EmptyQueryResponse{})
		return
	}

	res := f.server.exec(sql, nil)
	if res.Err != nil {
		f.fail(res.Err)
		return
	}
	if len(res.Columns) > 0 {
		f.describe(res.Columns, nil)
	}
	f.sendRows(res, nil)
	f.complete(sql, res)
}

func (f *fakeSession) fail(err *pgproto3.ErrorResponse) {
	if err.Severity == "" {
		err.Severity = "ERROR"
	}
	f.backend.Send(err)
	if f.tx == 'T' {
		f.tx = 'E'
	}
}

func (f *fakeSession) describe(columns []fakeColumn, formats []int16) {
	if len(columns) == 0 {
		f.backend.Send(&pgproto3.NoData{})
		return
	}
	fields := make([]pgproto3.FieldDescription, len(columns))
	for i, col := range columns {
		fields[i] = pgproto3.FieldDescription{
			Name:         []byte(col.Name),
			DataTypeOID:  col.OID,
			DataTypeSize: -1,
			TypeModifier: -1,
			Format:       fakeFormatAt(formats, i),
		}
	}
	f.backend.Send(&pgproto3.RowDescription{Fields: fields})
}

func (f *fakeSession) sendRows(res fakeResult, formats []int16) {
	for _, row := range res.Rows {
		values := make([][]byte, len(row))
		for i, cell := range row {
			if cell == fakeNull {
				continue
			}
			if res.Columns[i].OID == oidBool && fakeFormatAt(formats, i) == 1 {
				values[i] = []byte{0}
				if cell == "t" || cell == "true" {
					values[i][0] = 1
				}
				continue
			}
			values[i] = []byte(cell)
		}
		f.backend.Send(&pgproto3.DataRow{Values: values})
	}
}

func (f *fakeSession) complete(sql string, res fakeResult) {
	fields := strings.Fields(sql)
	tag := strings.ToUpper(fields[0])
	switch tag {
	case "BEGIN":
		f.tx = 'T'
	case "COMMIT":
		if f.tx == 'E' {
			tag = "ROLLBACK"
		}
		f.tx = 'I'
	case "ROLLBACK":
		f.tx = 'I'
	case "SELECT":
		tag = "SELECT " + strconv.Itoa(len(res.Rows))
	}
	f.backend.Send(&pgproto3.CommandComplete{CommandTag: []byte(tag)})
}

var fakePlaceholder = regexp.MustCompile(`\$(\d+)`)

// fakeParamOIDs types every placeholder as text, except the cascade flag of drop_graph.
func fakeParamOIDs(sql string) []uint32 {
	n := 0
	for _, m := range fakePlaceholder.FindAllStringSubmatch(sql, -1) {
		if i, _ := strconv.Atoi(m[1]); i > n {
			n = i
		}
	}
	oids := make([]uint32, n)
	for i := range oids {
		oids[i] = oidText
	}
	if strings.Contains(sql, "drop_graph(") && n >= 2 {
		oids[1] = oidBool
	}
	return oids
}

func fakeBindArgs(msg *pgproto3.Bind) []string {
	args := make([]string, len(msg.Parameters))
	for i, p := range msg.Parameters {
		switch {
		case p == nil:
			args[i] = fakeNull
		case fakeFormatAt(msg.ParameterFormatCodes, i) == 1 && len(p) == 1:
			args[i] = strconv.FormatBool(p[0] == 1)
		default:
			args[i] = string(p)
		}
	}
	return args
}

func fakeFormatAt(codes []int16, i int) int16 {
	switch {
	case len(codes) == 0:
		return 0
	case len(codes) == 1:
		return codes[0]
	case i < len(codes):
		return codes[i]
	}
	return 0
}

func boolResult(v bool) fakeResult {
	cell := "f"
	if v {
		cell = "t"
	}
	return fakeResult{Columns: []fakeColumn{{Name: "exists", OID: oidBool}}, Rows: [][]string{{cell}}}
}

func pgError(code, message string) fakeResult {
	return fakeResult{Err: &pgproto3.ErrorResponse{Code: code, Message: message}}
}

// newFakeClient connects a client to server. Statements issued while
// connecting are cleared.
func newFakeClient(t *testing.T, server *fakeServer, opts *Options) *Client {
	t.Helper()
	if opts == nil {
		opts = &Options{}
	}
	opts.Host = "127.0.0.1"
	opts.Port = server.port()
	opts.SSLMode = "disable"
	if opts.ConnectTimeout == 0 {
		opts.ConnectTimeout = time.Second
	}

	c, err := Connect(context.Background(), opts)
	require.NoError(t, err)
	t.Cleanup(func() { _ = c.Close() })

	server.reset()
	return c
}
