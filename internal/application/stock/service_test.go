package stock_test

import (
	"context"
	"errors"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ACasillas1999/Inventarios-sub001/internal/application/stock"
	"github.com/ACasillas1999/Inventarios-sub001/internal/domain"
	"github.com/ACasillas1999/Inventarios-sub001/internal/domain/entity"
	"github.com/ACasillas1999/Inventarios-sub001/internal/infrastructure/branchdb"
	"github.com/ACasillas1999/Inventarios-sub001/internal/infrastructure/cache"
)

type fakeCatalog struct {
	calls  int
	err    error
	items  map[string]int64
	search []entity.ItemListing
}

func (f *fakeCatalog) StockForItems(_ context.Context, branchID int64, codes []string) (map[string]entity.StockSnapshot, error) {
	f.calls++
	if f.err != nil {
		return nil, f.err
	}
	out := map[string]entity.StockSnapshot{}
	for _, c := range codes {
		if q, ok := f.items[c]; ok {
			d := decimal.NewFromInt(q)
			out[c] = entity.StockSnapshot{BranchID: branchID, ItemCode: c, Warehouses: map[int]decimal.Decimal{1: d}, Total: d}
		}
	}
	return out, nil
}

func (f *fakeCatalog) SearchItems(context.Context, int64, entity.ItemFilter) ([]entity.ItemListing, error) {
	f.calls++
	if f.err != nil {
		return nil, f.err
	}
	return f.search, nil
}

func (f *fakeCatalog) ItemAcrossBranches(_ context.Context, code string) (entity.ItemRecord, bool) {
	f.calls++
	q, ok := f.items[code]
	if !ok {
		return entity.ItemRecord{}, false
	}
	return entity.ItemRecord{
		CatalogItem:   entity.CatalogItem{Code: code},
		StockByBranch: map[int64]decimal.Decimal{1: decimal.NewFromInt(q)},
	}, true
}

func newService(cat *fakeCatalog) *stock.Service {
	c := cache.NewStockCache(cache.NewMemoryStore(100), cache.Options{}, nil, nil)
	return stock.NewService(cat, c, nil)
}

func TestService_StockCacheado(t *testing.T) {
	cat := &fakeCatalog{items: map[string]int64{"A1": 4}}
	s := newService(cat)
	ctx := context.Background()

	got, err := s.Stock(ctx, 1, []string{"A1", "ZZ"})
	require.NoError(t, err)
	assert.True(t, decimal.NewFromInt(4).Equal(got["A1"].Total))
	assert.True(t, got["ZZ"].Total.IsZero())

	_, err = s.Stock(ctx, 1, []string{"A1", "ZZ"})
	require.NoError(t, err)
	assert.Equal(t, 1, cat.calls)

	n, err := s.Invalidate(ctx, 1, "")
	require.NoError(t, err)
	assert.Equal(t, 2, n)
	_, err = s.Stock(ctx, 1, []string{"A1"})
	require.NoError(t, err)
	assert.Equal(t, 2, cat.calls)
}

func TestService_SucursalCaidaDegrada(t *testing.T) {
	cat := &fakeCatalog{err: domain.ErrBranchUnavailable}
	s := newService(cat)

	got, err := s.Stock(context.Background(), 1, []string{"A1"})
	require.NoError(t, err)
	assert.Empty(t, got)

	rows, err := s.Search(context.Background(), 1, entity.ItemFilter{Search: "x"})
	require.NoError(t, err)
	assert.Empty(t, rows)
}

func TestService_FallaDeConsultaEnSucursalDegrada(t *testing.T) {
	s := newService(&fakeCatalog{err: &branchdb.QueryError{BranchID: 1, Err: errors.New("driver: bad connection")}})

	got, err := s.Stock(context.Background(), 1, []string{"A1"})
	require.NoError(t, err)
	assert.Empty(t, got)

	s = newService(&fakeCatalog{err: &branchdb.QueryError{BranchID: 1, Err: errors.New("i/o timeout")}})
	rows, err := s.Search(context.Background(), 1, entity.ItemFilter{Search: "x"})
	require.NoError(t, err)
	assert.Empty(t, rows)
}

func TestService_Item(t *testing.T) {
	cat := &fakeCatalog{items: map[string]int64{"A1": 4}}
	s := newService(cat)

	rec, err := s.Item(context.Background(), "A1")
	require.NoError(t, err)
	assert.Equal(t, "A1", rec.Code)
	_, err = s.Item(context.Background(), "A1")
	require.NoError(t, err)
	assert.Equal(t, 1, cat.calls)

	_, err = s.Item(context.Background(), "ZZ")
	assert.ErrorIs(t, err, domain.ErrNotFound)
}
