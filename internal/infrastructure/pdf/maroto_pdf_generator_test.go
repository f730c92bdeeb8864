package pdf_test

import (
	"bytes"
	"context"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ACasillas1999/Inventarios-sub001/internal/application/counts"
	"github.com/ACasillas1999/Inventarios-sub001/internal/domain/entity"
	"github.com/ACasillas1999/Inventarios-sub001/internal/infrastructure/pdf"
)

func sheetData(blind bool) counts.SheetData {
	counted := decimal.NewFromInt(8)
	diff := decimal.NewFromInt(-2)
	now := time.Now()
	return counts.SheetData{
		Count: &entity.Count{
			ID: 1, Folio: "CNT-202405-0001", BranchID: 1, Almacen: 1,
			Classification: entity.ClassificationInventario, Priority: entity.PriorityAlta,
			Status: entity.CountStatusContando, TolerancePercentage: decimal.NewFromInt(5), CreatedAt: now,
		},
		BranchName: "Centro",
		Details: []*entity.CountDetail{
			{ID: 1, ItemCode: "A1", ItemDescription: "Tornillo galvanizado 1/4 x 2 pulgadas con tuerca y rondana", Unit: "PZA",
				SystemStock: decimal.NewFromInt(10), CountedStock: &counted, Difference: &diff, CountedAt: &now},
			{ID: 2, ItemCode: "B2", ItemDescription: "Cable THW 12", Unit: "MTS", SystemStock: decimal.RequireFromString("120.5")},
		},
		Blind: blind,
	}
}

func TestGenerateCountSheet_Completa(t *testing.T) {
	g := pdf.NewMarotoSheetGenerator()

	out, err := g.GenerateCountSheet(context.Background(), sheetData(false))
	require.NoError(t, err)
	assert.True(t, bytes.HasPrefix(out, []byte("%PDF")))
}

func TestGenerateCountSheet_Ciega(t *testing.T) {
	g := pdf.NewMarotoSheetGenerator()

	out, err := g.GenerateCountSheet(context.Background(), sheetData(true))
	require.NoError(t, err)
	assert.True(t, bytes.HasPrefix(out, []byte("%PDF")))
}
