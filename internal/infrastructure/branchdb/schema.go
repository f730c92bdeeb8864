package branchdb

import (
	"context"
	"errors"
	"fmt"
)

// SchemaVariant nombres de tablas y columnas de una variante de esquema ERP.
// Las sucursales usan una de dos variantes (articulo vs Articulos); se detecta al
// conectar y en cada chequeo de salud, y se guarda en la entrada del registro.
type SchemaVariant struct {
	Name string

	ItemTable string
	ItemCode  string
	ItemDesc  string
	ItemUnit  string
	ItemLine  string

	StockTable     string
	StockItem      string
	StockWarehouse string
	StockQty       string

	WarehouseTable  string
	WarehouseNumber string
	WarehouseName   string
}

// Variantes conocidas, en orden de sondeo.
var (
	VariantLower = SchemaVariant{
		Name: "minusculas",
		ItemTable: "articulo", ItemCode: "clave", ItemDesc: "descripcion", ItemUnit: "unidad", ItemLine: "linea",
		StockTable: "existencia", StockItem: "clave", StockWarehouse: "almacen", StockQty: "existencia",
		WarehouseTable: "almacen", WarehouseNumber: "numero", WarehouseName: "nombre",
	}
	VariantTitle = SchemaVariant{
		Name: "capitalizado",
		ItemTable: "Articulos", ItemCode: "Clave", ItemDesc: "Descripcion", ItemUnit: "Unidad", ItemLine: "Linea",
		StockTable: "Existencias", StockItem: "Clave", StockWarehouse: "Almacen", StockQty: "Existencia",
		WarehouseTable: "Almacenes", WarehouseNumber: "Numero", WarehouseName: "Nombre",
	}

	variants = []SchemaVariant{VariantLower, VariantTitle}
)

// ErrUnknownSchema ninguna variante conocida existe en la base de la sucursal.
var ErrUnknownSchema = errors.New("esquema de sucursal desconocido")

// VariantByName devuelve la variante registrada con ese nombre.
func VariantByName(name string) (SchemaVariant, bool) {
	for _, v := range variants {
		if v.Name == name {
			return v, true
		}
	}
	return SchemaVariant{}, false
}

// DetectVariant sondea las tablas de catálogo de cada variante. Una tabla inexistente
// pasa a la siguiente variante; cualquier otro error se devuelve tal cual.
func DetectVariant(ctx context.Context, conn Conn) (SchemaVariant, error) {
	for _, v := range variants {
		_, err := conn.Query(ctx, fmt.Sprintf("SELECT 1 FROM %s LIMIT 1", v.ItemTable))
		if err == nil {
			return v, nil
		}
		if !IsNoSuchTable(err) {
			return SchemaVariant{}, err
		}
	}
	return SchemaVariant{}, ErrUnknownSchema
}
