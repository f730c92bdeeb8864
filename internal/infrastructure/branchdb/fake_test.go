package branchdb_test

import (
	"context"
	"errors"
	"strings"
	"sync"

	"github.com/go-sql-driver/mysql"

	"github.com/ACasillas1999/Inventarios-sub001/internal/domain/entity"
	"github.com/ACasillas1999/Inventarios-sub001/internal/infrastructure/branchdb"
)

// fakeConn sucursal en memoria: tablas existentes, error de ping conmutable y manejador de consultas.
type fakeConn struct {
	mu      sync.Mutex
	tables  map[string]bool
	pingErr error
	handler func(query string, args []any) ([]branchdb.Row, error)
	queries []string
	closed  bool
}

func newFakeConn(tables ...string) *fakeConn {
	c := &fakeConn{tables: map[string]bool{}}
	for _, t := range tables {
		c.tables[t] = true
	}
	return c
}

func (c *fakeConn) setPingErr(err error) {
	c.mu.Lock()
	c.pingErr = err
	c.mu.Unlock()
}

func (c *fakeConn) isClosed() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.closed
}

func (c *fakeConn) Ping(context.Context) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.pingErr
}

func (c *fakeConn) Query(_ context.Context, query string, args ...any) ([]branchdb.Row, error) {
	c.mu.Lock()
	c.queries = append(c.queries, query)
	tables := c.tables
	handler := c.handler
	c.mu.Unlock()

	for _, t := range referencedTables(query) {
		if !tables[t] {
			return nil, &mysql.MySQLError{Number: 1146, Message: "Table '" + t + "' doesn't exist"}
		}
	}
	if strings.HasPrefix(query, "SELECT 1 FROM") {
		return []branchdb.Row{{"1": int64(1)}}, nil
	}
	if handler == nil {
		return nil, nil
	}
	return handler(query, args)
}

func (c *fakeConn) Close() error {
	c.mu.Lock()
	c.closed = true
	c.mu.Unlock()
	return nil
}

// referencedTables extrae los nombres que siguen a FROM/JOIN.
func referencedTables(query string) []string {
	var out []string
	fields := strings.Fields(query)
	for i, f := range fields {
		if (f == "FROM" || f == "JOIN") && i+1 < len(fields) && !strings.HasPrefix(fields[i+1], "(") {
			out = append(out, strings.TrimSuffix(fields[i+1], ")"))
		}
	}
	return out
}

// fakeOpener entrega conexiones por código de sucursal; un código sin conexión falla al abrir.
type fakeOpener struct {
	mu     sync.Mutex
	conns  map[string]*fakeConn
	opened map[string]int
}

func newFakeOpener() *fakeOpener {
	return &fakeOpener{conns: map[string]*fakeConn{}, opened: map[string]int{}}
}

func (o *fakeOpener) set(code string, c *fakeConn) {
	o.mu.Lock()
	o.conns[code] = c
	o.mu.Unlock()
}

func (o *fakeOpener) open(_ context.Context, b entity.Branch) (branchdb.Conn, error) {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.opened[b.Code]++
	c, ok := o.conns[b.Code]
	if !ok {
		return nil, errors.New("dial tcp: connection refused")
	}
	return c, nil
}

var lowerTables = []string{"articulo", "existencia", "almacen"}
var titleTables = []string{"Articulos", "Existencias", "Almacenes"}

func branch(id int64, code string) entity.Branch {
	return entity.Branch{ID: id, Code: code, Name: "Sucursal " + code, Host: "10.0.0.1", Active: true}
}

func (c *fakeConn) setTables(tables ...string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.tables = map[string]bool{}
	for _, t := range tables {
		c.tables[t] = true
	}
}

func (c *fakeConn) queryCount() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.queries)
}
