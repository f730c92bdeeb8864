package branchdb_test

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/go-sql-driver/mysql"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ACasillas1999/Inventarios-sub001/internal/domain"
	"github.com/ACasillas1999/Inventarios-sub001/internal/domain/entity"
	"github.com/ACasillas1999/Inventarios-sub001/internal/infrastructure/branchdb"
)

func okRows(query string, args []any) ([]branchdb.Row, error) {
	return []branchdb.Row{{"n": int64(len(args))}}, nil
}

func TestExecutor_QuerySucursalNoDisponible(t *testing.T) {
	r := newRegistry(t, newFakeOpener())
	x := branchdb.NewExecutor(r, time.Second, nil, nil)

	_, err := x.Query(context.Background(), 42, "SELECT 1")
	assert.ErrorIs(t, err, domain.ErrBranchUnavailable)
}

func TestExecutor_QueryAplanaParametros(t *testing.T) {
	o := newFakeOpener()
	conn := newFakeConn(lowerTables...)
	var got []any
	conn.handler = func(q string, args []any) ([]branchdb.Row, error) {
		got = args
		return nil, nil
	}
	o.set("CEN", conn)
	r := newRegistry(t, o)
	r.AddOrReplace(context.Background(), branch(1, "CEN"))
	x := branchdb.NewExecutor(r, 0, nil, nil)

	_, err := x.Query(context.Background(), 1, "SELECT ?", []string{"A", "B"})
	require.NoError(t, err)
	assert.Equal(t, []any{"A", "B"}, got)

	_, err = x.Query(context.Background(), 1, "SELECT ?", "A")
	require.NoError(t, err)
	assert.Equal(t, []any{"A"}, got)
}

func TestExecutor_QueryErrorConservaCodigo(t *testing.T) {
	o := newFakeOpener()
	conn := newFakeConn(lowerTables...)
	o.set("CEN", conn)
	r := newRegistry(t, o)
	r.AddOrReplace(context.Background(), branch(1, "CEN"))
	x := branchdb.NewExecutor(r, 0, nil, nil)

	_, err := x.Query(context.Background(), 1, "SELECT * FROM Articulos")
	var qe *branchdb.QueryError
	require.ErrorAs(t, err, &qe)
	assert.Equal(t, int64(1), qe.BranchID)
	assert.Equal(t, uint16(1146), qe.Code)
	assert.True(t, qe.IsNoSuchTable())
	assert.True(t, branchdb.IsNoSuchTable(err))
	assert.NotErrorIs(t, err, domain.ErrBranchUnavailable, "tabla inexistente es de esquema, no de conexión")
}

func TestQueryError_FallaDeConexionEsSucursalNoDisponible(t *testing.T) {
	err := fmt.Errorf("existencias: %w", &branchdb.QueryError{BranchID: 1, Err: errors.New("driver: bad connection")})
	assert.ErrorIs(t, err, domain.ErrBranchUnavailable)
	assert.False(t, branchdb.IsNoSuchTable(err))

	timeout := &branchdb.QueryError{BranchID: 2, Code: 2013, Err: errors.New("i/o timeout")}
	assert.ErrorIs(t, timeout, domain.ErrBranchUnavailable)
}

func TestExecutor_QueryAllResultadoParcial(t *testing.T) {
	o := newFakeOpener()
	for _, code := range []string{"A", "B", "C"} {
		c := newFakeConn(lowerTables...)
		c.handler = okRows
		o.set(code, c)
	}
	failing := newFakeConn(lowerTables...)
	failing.handler = func(string, []any) ([]branchdb.Row, error) {
		return nil, &mysql.MySQLError{Number: 2013, Message: "Lost connection"}
	}
	o.set("C", failing)

	r := newRegistry(t, o)
	r.Initialize(context.Background(), []entity.Branch{branch(1, "A"), branch(2, "B"), branch(3, "C")})
	x := branchdb.NewExecutor(r, time.Second, nil, nil)

	res := x.QueryAll(context.Background(), "SELECT ?", 7)
	require.Len(t, res, 3)
	assert.Len(t, res[1], 1)
	assert.Len(t, res[2], 1)
	assert.NotNil(t, res[3])
	assert.Empty(t, res[3])
}

func TestExecutor_QueryAllIgnoraDesconectadas(t *testing.T) {
	o := newFakeOpener()
	c := newFakeConn(lowerTables...)
	c.handler = okRows
	o.set("A", c)
	r := newRegistry(t, o)
	r.Initialize(context.Background(), []entity.Branch{branch(1, "A"), branch(2, "B")})
	x := branchdb.NewExecutor(r, 0, nil, nil)

	res := x.QueryAll(context.Background(), "SELECT 1")
	assert.Len(t, res, 1)
	assert.Contains(t, res, int64(1))
}

func TestIsNoSuchTable(t *testing.T) {
	assert.True(t, branchdb.IsNoSuchTable(&mysql.MySQLError{Number: 1146}))
	assert.False(t, branchdb.IsNoSuchTable(&mysql.MySQLError{Number: 1045}))
	assert.False(t, branchdb.IsNoSuchTable(errors.New("boom")))
	assert.False(t, branchdb.IsNoSuchTable(nil))
}
