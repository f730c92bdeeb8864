package folio

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// memSequences contador por prefijo en memoria con los mismos efectos que el upsert de PostgreSQL.
type memSequences struct {
	mu       sync.Mutex
	existing map[string][]string
	last     map[string]int
}

func newMemSequences() *memSequences {
	return &memSequences{existing: map[string][]string{}, last: map[string]int{}}
}

// HighestFolios respeta el orden y el límite de la consulta real: mayores primero.
func (m *memSequences) HighestFolios(_ context.Context, scope, prefix string, limit int) ([]string, error) {
	var out []string
	for _, f := range m.existing[scope] {
		if strings.HasPrefix(f, prefix) {
			out = append(out, f)
		}
	}
	sort.Slice(out, func(a, b int) bool {
		if len(out[a]) != len(out[b]) {
			return len(out[a]) > len(out[b])
		}
		return out[a] > out[b]
	})
	if limit > 0 && len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

func (m *memSequences) Reserve(_ context.Context, scope, prefix string, n, floor int) (int, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	key := scope + "|" + prefix
	cur := m.last[key]
	if floor > cur {
		cur = floor
	}
	m.last[key] = cur + n
	return cur + n, nil
}

type staticSettings map[string]string

func (s staticSettings) GetValue(_ context.Context, key, def string) string {
	if v, ok := s[key]; ok {
		return v
	}
	return def
}

func newTestAllocator(seq *memSequences, settings staticSettings) *Allocator {
	a := NewAllocator(seq, settings, "CNT-{YEAR}{MONTH}-{NUMBER}", "SOL-{YEAR}{MONTH}-{NUMBER}")
	a.now = func() time.Time { return time.Date(2026, 10, 15, 9, 0, 0, 0, time.UTC) }
	return a
}

func TestAllocator_SinFoliosPrevios(t *testing.T) {
	a := newTestAllocator(newMemSequences(), nil)

	got, err := a.Next(context.Background(), "counts", 3)
	require.NoError(t, err)
	assert.Equal(t, []string{"CNT-202610-0001", "CNT-202610-0002", "CNT-202610-0003"}, got)
}

func TestAllocator_ContinuaDesdeElMayorExistente(t *testing.T) {
	seq := newMemSequences()
	seq.existing["counts"] = []string{"CNT-202610-0007", "CNT-202610-0042", "CNT-202609-0100"}
	a := newTestAllocator(seq, nil)

	got, err := a.Next(context.Background(), "counts", 3)
	require.NoError(t, err)
	assert.Equal(t, []string{"CNT-202610-0043", "CNT-202610-0044", "CNT-202610-0045"}, got)
}

func TestAllocator_FolioAltoConIDViejoNoSeRepite(t *testing.T) {
	seq := newMemSequences()
	// El folio alto se capturó primero; después entraron muchos folios bajos.
	existing := []string{"CNT-202610-0900"}
	for i := 1; i <= seedScan+10; i++ {
		existing = append(existing, fmt.Sprintf("CNT-202610-%04d", i))
	}
	seq.existing["counts"] = existing
	a := newTestAllocator(seq, nil)

	got, err := a.Next(context.Background(), "counts", 1)
	require.NoError(t, err)
	assert.Equal(t, []string{"CNT-202610-0901"}, got)
}

func TestAllocator_NumeroConMasDigitosEsMayor(t *testing.T) {
	seq := newMemSequences()
	seq.existing["counts"] = []string{"CNT-202610-9999", "CNT-202610-10000"}
	a := newTestAllocator(seq, nil)

	got, err := a.Next(context.Background(), "counts", 1)
	require.NoError(t, err)
	assert.Equal(t, []string{"CNT-202610-10001"}, got)
}

func TestAllocator_LotesSucesivosNoSeTraslapan(t *testing.T) {
	a := newTestAllocator(newMemSequences(), nil)

	var (
		wg  sync.WaitGroup
		mu  sync.Mutex
		all = map[string]bool{}
	)
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			got, err := a.Next(context.Background(), "requests", 5)
			if !assert.NoError(t, err) {
				return
			}
			mu.Lock()
			for _, f := range got {
				all[f] = true
			}
			mu.Unlock()
		}()
	}
	wg.Wait()
	assert.Len(t, all, 40)
}

func TestAllocator_PlantillaDesdeSettings(t *testing.T) {
	a := newTestAllocator(newMemSequences(), staticSettings{"folio_conteo_plantilla": "INV{YEAR}-{NUMBER:6}"})

	got, err := a.Next(context.Background(), "counts", 1)
	require.NoError(t, err)
	assert.Equal(t, []string{"INV2026-000001"}, got)
}

func TestAllocator_AmbitoDesconocido(t *testing.T) {
	a := newTestAllocator(newMemSequences(), nil)

	_, err := a.Next(context.Background(), "facturas", 1)
	assert.Error(t, err)
}
