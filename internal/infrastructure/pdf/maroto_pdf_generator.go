// Package pdf genera la hoja de conteo físico para imprimir.
//
// Layout de la página A4:
//
//	┌─────────────────────────────────────────────────────────────┐
//	│  HEADER: Sucursal + Almacén     │  Folio + Fecha + QR       │
//	│  ─────────────────────────────────────────────────────────  │
//	│  DATOS: Clasificación / Prioridad / Estatus / Tolerancia     │
//	│  ─────────────────────────────────────────────────────────  │
//	│  TABLA: # | Código | Descripción | Unidad | Sistema | Contado│
//	│  ─────────────────────────────────────────────────────────  │
//	│  FIRMAS: Contó / Revisó                                      │
//	└─────────────────────────────────────────────────────────────┘
package pdf

import (
	"context"
	"fmt"
	"strconv"

	maroto "github.com/johnfercher/maroto/v2"
	"github.com/johnfercher/maroto/v2/pkg/components/code"
	"github.com/johnfercher/maroto/v2/pkg/components/col"
	"github.com/johnfercher/maroto/v2/pkg/components/line"
	"github.com/johnfercher/maroto/v2/pkg/components/row"
	"github.com/johnfercher/maroto/v2/pkg/components/text"
	"github.com/johnfercher/maroto/v2/pkg/config"
	"github.com/johnfercher/maroto/v2/pkg/consts/align"
	"github.com/johnfercher/maroto/v2/pkg/consts/fontstyle"
	"github.com/johnfercher/maroto/v2/pkg/consts/pagesize"
	"github.com/johnfercher/maroto/v2/pkg/core"
	"github.com/johnfercher/maroto/v2/pkg/props"
	"github.com/shopspring/decimal"

	"github.com/ACasillas1999/Inventarios-sub001/internal/application/counts"
	"github.com/ACasillas1999/Inventarios-sub001/internal/domain/entity"
)

var _ counts.SheetGenerator = (*MarotoSheetGenerator)(nil)

// ── Paleta de colores ─────────────────────────────────────────────────────────

var (
	colorPrimary = &props.Color{Red: 0, Green: 70, Blue: 127}
	colorGray    = &props.Color{Red: 100, Green: 100, Blue: 100}
	colorAlert   = &props.Color{Red: 170, Green: 30, Blue: 30}
)

// ── Generator ─────────────────────────────────────────────────────────────────

// MarotoSheetGenerator implementa counts.SheetGenerator usando Maroto v2.
type MarotoSheetGenerator struct{}

// NewMarotoSheetGenerator construye el generador.
func NewMarotoSheetGenerator() *MarotoSheetGenerator { return &MarotoSheetGenerator{} }

// GenerateCountSheet genera el PDF y devuelve sus bytes.
func (g *MarotoSheetGenerator) GenerateCountSheet(_ context.Context, data counts.SheetData) ([]byte, error) {
	c := data.Count
	cfg := config.NewBuilder().
		WithPageSize(pagesize.A4).
		WithLeftMargin(10).WithRightMargin(10).
		WithTopMargin(10).WithBottomMargin(10).
		WithDefaultFont(&props.Font{Family: "helvetica", Size: 9}).
		WithTitle("Hoja de conteo "+c.Folio, true).
		WithAuthor(data.BranchName, true).
		Build()

	m := maroto.New(cfg)

	m.AddRows(headerRow(c, data.BranchName))
	m.AddRows(line.NewRow(1, props.Line{Color: colorPrimary, Thickness: 0.5}))
	m.AddRows(infoRow(c))
	m.AddRows(line.NewRow(1, props.Line{Color: colorPrimary, Thickness: 0.3}))

	m.AddRows(tableHeaderRow(data.Blind))
	m.AddRows(tableDetailRows(data.Details, data.Blind)...)

	m.AddRows(line.NewRow(1, props.Line{Color: colorPrimary, Thickness: 0.3}))
	m.AddRows(summaryRow(data.Details))
	m.AddRows(row.New(15))
	m.AddRows(signatureRow())

	doc, err := m.Generate()
	if err != nil {
		return nil, fmt.Errorf("pdf: generar hoja de conteo: %w", err)
	}
	return doc.GetBytes(), nil
}

// ── Secciones ─────────────────────────────────────────────────────────────────

// headerRow: sucursal y almacén (izq), folio, fecha y QR del folio (der).
func headerRow(c *entity.Count, branchName string) core.Row {
	return row.New(22).Add(
		col.New(7).Add(
			text.New(branchName, props.Text{
				Style: fontstyle.Bold, Size: 13, Color: colorPrimary, Top: 1,
			}),
			text.New("Almacén "+strconv.Itoa(c.Almacen), props.Text{
				Size: 9, Top: 9, Color: colorGray,
			}),
		),
		col.New(3).Add(
			text.New("HOJA DE CONTEO", props.Text{
				Style: fontstyle.Bold, Size: 8, Align: align.Right, Color: colorPrimary, Top: 1,
			}),
			text.New(c.Folio, props.Text{
				Style: fontstyle.Bold, Size: 12, Align: align.Right, Top: 7,
			}),
			text.New("Fecha: "+c.CreatedAt.Format("02/01/2006"), props.Text{
				Size: 8, Align: align.Right, Top: 14, Color: colorGray,
			}),
		),
		col.New(2).Add(code.NewQr(c.Folio, props.Rect{Percent: 90, Center: true})),
	)
}

// infoRow: clasificación, prioridad, estatus y tolerancia.
func infoRow(c *entity.Count) core.Row {
	return row.New(10).Add(
		col.New(12).Add(
			text.New(fmt.Sprintf("Clasificación: %s   |   Prioridad: %s   |   Estatus: %s   |   Tolerancia: %s%%",
				nonEmpty(c.Classification, "—"),
				nonEmpty(c.Priority, "—"),
				c.Status,
				c.TolerancePercentage.StringFixed(2),
			), props.Text{Size: 8, Top: 3, Color: colorGray}),
		),
	)
}

// tableHeaderRow: en hoja ciega no se imprimen sistema ni diferencia.
func tableHeaderRow(blind bool) core.Row {
	h := func(label string, size int, a align.Type) core.Col {
		return col.New(size).Add(text.New(label, props.Text{
			Style: fontstyle.Bold, Size: 8, Align: a, Color: colorPrimary, Top: 2, Left: 1, Right: 1,
		}))
	}
	if blind {
		return row.New(8).Add(
			h("#", 1, align.Center),
			h("Código", 2, align.Left),
			h("Descripción", 5, align.Left),
			h("Unidad", 1, align.Center),
			h("Contado", 3, align.Center),
		)
	}
	return row.New(8).Add(
		h("#", 1, align.Center),
		h("Código", 2, align.Left),
		h("Descripción", 3, align.Left),
		h("Unidad", 1, align.Center),
		h("Sistema", 2, align.Right),
		h("Contado", 2, align.Right),
		h("Dif.", 1, align.Right),
	)
}

// tableDetailRows: una fila por renglón; sin captura queda el espacio para escribir.
func tableDetailRows(details []*entity.CountDetail, blind bool) []core.Row {
	cell := func(s string, size int, a align.Type, color *props.Color) core.Col {
		return col.New(size).Add(text.New(s, props.Text{Size: 8, Align: a, Top: 1, Left: 1, Right: 1, Color: color}))
	}
	result := make([]core.Row, 0, len(details))
	for i, d := range details {
		counted := "________"
		if d.CountedStock != nil {
			counted = formatQty(*d.CountedStock)
		}
		if blind {
			result = append(result, row.New(7).Add(
				cell(strconv.Itoa(i+1), 1, align.Center, nil),
				cell(d.ItemCode, 2, align.Left, nil),
				cell(truncate(d.ItemDescription, 60), 5, align.Left, nil),
				cell(d.Unit, 1, align.Center, nil),
				cell(counted, 3, align.Center, nil),
			))
			continue
		}
		diff, diffColor := "", (*props.Color)(nil)
		if d.Difference != nil {
			diff = formatQty(*d.Difference)
			if !d.Difference.IsZero() {
				diffColor = colorAlert
			}
		}
		result = append(result, row.New(7).Add(
			cell(strconv.Itoa(i+1), 1, align.Center, nil),
			cell(d.ItemCode, 2, align.Left, nil),
			cell(truncate(d.ItemDescription, 36), 3, align.Left, nil),
			cell(d.Unit, 1, align.Center, nil),
			cell(formatQty(d.SystemStock), 2, align.Right, nil),
			cell(counted, 2, align.Right, nil),
			cell(diff, 1, align.Right, diffColor),
		))
	}
	return result
}

// summaryRow: avance de captura.
func summaryRow(details []*entity.CountDetail) core.Row {
	counted := 0
	for _, d := range details {
		if d.IsCounted() {
			counted++
		}
	}
	return row.New(8).Add(col.New(12).Add(
		text.New(fmt.Sprintf("Renglones: %d   |   Capturados: %d   |   Pendientes: %d",
			len(details), counted, len(details)-counted,
		), props.Text{Style: fontstyle.Bold, Size: 8, Align: align.Right, Top: 2}),
	))
}

func signatureRow() core.Row {
	sign := func(label string) core.Col {
		return col.New(5).Add(
			line.New(props.Line{Color: colorGray, Thickness: 0.3}),
			text.New(label, props.Text{Size: 8, Align: align.Center, Top: 2, Color: colorGray}),
		)
	}
	return row.New(10).Add(sign("Contó"), col.New(2), sign("Revisó"))
}

// ── helpers ───────────────────────────────────────────────────────────────────

func nonEmpty(s, fallback string) string {
	if s != "" {
		return s
	}
	return fallback
}

// formatQty quita ceros sobrantes: 12.5000 → "12.5", 3.0000 → "3".
func formatQty(d decimal.Decimal) string {
	return d.String()
}

// truncate corta s a n runas para que la descripción no desborde la celda.
func truncate(s string, n int) string {
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return string(r[:n-1]) + "…"
}
