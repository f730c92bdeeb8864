package branchdb_test

import (
	"context"
	"strings"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ACasillas1999/Inventarios-sub001/internal/domain"
	"github.com/ACasillas1999/Inventarios-sub001/internal/infrastructure/branchdb"
)

// erpHandler simula el ERP: catálogo, existencias del almacén 1 y nombres de almacén.
func erpHandler(catalog map[string]string, stock map[string]int64, warehouses map[int64]string) func(string, []any) ([]branchdb.Row, error) {
	return func(q string, args []any) ([]branchdb.Row, error) {
		var out []branchdb.Row
		switch {
		case strings.Contains(q, "AS name FROM"):
			if name, ok := warehouses[int64(args[0].(int))]; ok {
				out = append(out, branchdb.Row{"name": name})
			}
		case strings.Contains(q, "AS warehouse_name"):
			for _, a := range args[1:] {
				code := a.(string)
				if qty, ok := stock[code]; ok {
					out = append(out, branchdb.Row{"code": code, "qty": qty, "warehouse_name": warehouses[int64(args[0].(int))]})
				}
			}
		case strings.Contains(q, "AS warehouse"):
			for _, a := range args {
				code := a.(string)
				if qty, ok := stock[code]; ok {
					out = append(out, branchdb.Row{"code": code, "warehouse": int64(1), "qty": qty})
				}
			}
		default:
			for _, a := range args {
				code := a.(string)
				if desc, ok := catalog[code]; ok {
					out = append(out, branchdb.Row{"code": code, "description": desc, "unit": "PZA", "line": "FER"})
				}
			}
		}
		return out, nil
	}
}

func newCatalog(t *testing.T, conn *fakeConn, chunk int) *branchdb.Catalog {
	t.Helper()
	o := newFakeOpener()
	o.set("CEN", conn)
	r := newRegistry(t, o)
	r.AddOrReplace(context.Background(), branch(1, "CEN"))
	return branchdb.NewCatalog(branchdb.NewExecutor(r, 0, nil, nil), chunk, nil)
}

func TestCatalog_ExistingCodesPorLotes(t *testing.T) {
	conn := newFakeConn(lowerTables...)
	conn.handler = erpHandler(map[string]string{"A1": "Martillo", "A3": "Pinza", "A5": "Taladro"}, nil, nil)
	cat := newCatalog(t, conn, 2)
	before := conn.queryCount()

	found, err := cat.ExistingCodes(context.Background(), 1, []string{"A1", "A2", "A3", "A4", "A5"})
	require.NoError(t, err)
	assert.Equal(t, []string{"A1", "A3", "A5"}, found)
	assert.Equal(t, 3, conn.queryCount()-before, "5 códigos en lotes de 2")
}

func TestCatalog_ReintentaConVarianteAlterna(t *testing.T) {
	conn := newFakeConn(lowerTables...)
	conn.handler = erpHandler(map[string]string{"A1": "Martillo"}, nil, nil)
	cat := newCatalog(t, conn, 0)

	// el ERP migró de esquema después del último chequeo
	conn.setTables(titleTables...)

	found, err := cat.ExistingCodes(context.Background(), 1, []string{"A1"})
	require.NoError(t, err)
	assert.Equal(t, []string{"A1"}, found)
}

func TestCatalog_SinTablasCatalogoNoDisponible(t *testing.T) {
	conn := newFakeConn(lowerTables...)
	cat := newCatalog(t, conn, 0)
	conn.setTables()

	_, err := cat.ExistingCodes(context.Background(), 1, []string{"A1"})
	assert.ErrorIs(t, err, domain.ErrCatalogUnavailable)
}

func TestCatalog_SucursalNoDisponible(t *testing.T) {
	cat := newCatalog(t, newFakeConn(lowerTables...), 0)

	_, err := cat.ExistingCodes(context.Background(), 9, []string{"A1"})
	assert.ErrorIs(t, err, domain.ErrBranchUnavailable)
}

func TestCatalog_SeedRowsExistenciaFaltanteEsCero(t *testing.T) {
	conn := newFakeConn(lowerTables...)
	conn.handler = erpHandler(
		map[string]string{"A1": "Martillo", "A2": "Pinza"},
		map[string]int64{"A1": 12},
		map[int64]string{1: "Piso de venta"},
	)
	cat := newCatalog(t, conn, 0)

	rows, err := cat.SeedRows(context.Background(), 1, 1, []string{"A1", "A2"})
	require.NoError(t, err)
	require.Len(t, rows, 2)
	assert.Equal(t, "Martillo", rows[0].Item.Description)
	assert.True(t, decimal.NewFromInt(12).Equal(rows[0].Stock))
	assert.True(t, rows[1].Stock.IsZero())
	assert.Equal(t, "Piso de venta", rows[1].WarehouseName)
}

func TestCatalog_SeedRowsNombreAlmacenPorConsultaAlterna(t *testing.T) {
	conn := newFakeConn(lowerTables...)
	conn.handler = erpHandler(map[string]string{"A1": "Martillo"}, nil, map[int64]string{3: "Bodega"})
	cat := newCatalog(t, conn, 0)

	rows, err := cat.SeedRows(context.Background(), 1, 3, []string{"A1"})
	require.NoError(t, err)
	require.Len(t, rows, 1)
	assert.Equal(t, "Bodega", rows[0].WarehouseName)
	assert.Equal(t, 3, rows[0].WarehouseID)
}

func TestCatalog_WarehouseNameRespaldo(t *testing.T) {
	conn := newFakeConn(lowerTables...)
	conn.handler = erpHandler(nil, nil, nil)
	cat := newCatalog(t, conn, 0)

	assert.Equal(t, "Almacén 4", cat.WarehouseName(context.Background(), 1, 4))
}

func TestCatalog_StockForItemsIncluyeAusentes(t *testing.T) {
	conn := newFakeConn(lowerTables...)
	conn.handler = erpHandler(nil, map[string]int64{"A1": 5}, nil)
	cat := newCatalog(t, conn, 0)

	snaps, err := cat.StockForItems(context.Background(), 1, []string{"A1", "ZZ"})
	require.NoError(t, err)
	require.Len(t, snaps, 2)
	assert.True(t, decimal.NewFromInt(5).Equal(snaps["A1"].InWarehouse(1)))
	assert.True(t, snaps["ZZ"].Total.IsZero())
}
