package branches_test

import (
	"context"
	"sort"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ACasillas1999/Inventarios-sub001/internal/application/branches"
	"github.com/ACasillas1999/Inventarios-sub001/internal/domain"
	"github.com/ACasillas1999/Inventarios-sub001/internal/domain/entity"
)

// ─────────────────────────────────────────────────────────────────────────────
// Fakes
// ─────────────────────────────────────────────────────────────────────────────

type memRepo struct {
	mu   sync.Mutex
	next int64
	rows map[int64]entity.Branch
}

func newMemRepo() *memRepo { return &memRepo{rows: map[int64]entity.Branch{}} }

func (r *memRepo) Create(_ context.Context, b *entity.Branch) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, x := range r.rows {
		if x.Code == b.Code {
			return domain.ErrDuplicate
		}
	}
	r.next++
	b.ID = r.next
	r.rows[b.ID] = *b
	return nil
}

func (r *memRepo) GetByID(_ context.Context, id int64) (*entity.Branch, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	b, ok := r.rows[id]
	if !ok {
		return nil, nil
	}
	return &b, nil
}

func (r *memRepo) Update(_ context.Context, b *entity.Branch) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	old, ok := r.rows[b.ID]
	if !ok {
		return domain.ErrNotFound
	}
	cp := *b
	if cp.Password == "" {
		cp.Password = old.Password
	}
	r.rows[b.ID] = cp
	return nil
}

func (r *memRepo) List(_ context.Context, onlyActive bool) ([]*entity.Branch, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := []*entity.Branch{}
	for _, b := range r.rows {
		if onlyActive && !b.Active {
			continue
		}
		out = append(out, &b)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

func (r *memRepo) Delete(_ context.Context, id int64) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.rows[id]; !ok {
		return domain.ErrNotFound
	}
	delete(r.rows, id)
	return nil
}

type fakeRegistry struct {
	live        map[int64]entity.Branch
	initialized []entity.Branch
}

func newFakeRegistry() *fakeRegistry { return &fakeRegistry{live: map[int64]entity.Branch{}} }

func (f *fakeRegistry) Initialize(_ context.Context, bs []entity.Branch) {
	f.initialized = bs
	for _, b := range bs {
		f.live[b.ID] = b
	}
}

func (f *fakeRegistry) AddOrReplace(_ context.Context, b entity.Branch) entity.BranchStatus {
	f.live[b.ID] = b
	return entity.BranchStatus{ID: b.ID, Code: b.Code, Status: entity.BranchStatusConnected}
}

func (f *fakeRegistry) Remove(id int64) bool {
	_, ok := f.live[id]
	delete(f.live, id)
	return ok
}

func (f *fakeRegistry) Statuses() []entity.BranchStatus {
	out := []entity.BranchStatus{}
	for _, b := range f.live {
		out = append(out, entity.BranchStatus{ID: b.ID, Code: b.Code, Status: entity.BranchStatusConnected})
	}
	return out
}

func (f *fakeRegistry) CheckAll(context.Context) {}

type countingCache struct{ calls []int64 }

func (c *countingCache) Invalidate(_ context.Context, branchID int64, _ string) (int, error) {
	c.calls = append(c.calls, branchID)
	return 0, nil
}

func validInput() branches.Input {
	return branches.Input{Code: "cen", Name: "Centro", Host: "10.0.0.5", User: "lector", Password: "s3cr3to", Database: "erp"}
}

// ─────────────────────────────────────────────────────────────────────────────
// Tests
// ─────────────────────────────────────────────────────────────────────────────

func TestCreate_ConectaSucursalActiva(t *testing.T) {
	repo, reg := newMemRepo(), newFakeRegistry()
	s := branches.NewService(repo, reg, nil, nil, nil)

	b, st, err := s.Create(context.Background(), validInput())
	require.NoError(t, err)
	assert.Equal(t, "CEN", b.Code)
	assert.Equal(t, 3306, b.Port)
	assert.Equal(t, "utf8mb4", b.Charset)
	require.NotNil(t, st)
	assert.Equal(t, entity.BranchStatusConnected, st.Status)
	assert.Contains(t, reg.live, b.ID)
}

func TestCreate_CamposFaltantes(t *testing.T) {
	s := branches.NewService(newMemRepo(), newFakeRegistry(), nil, nil, nil)

	_, _, err := s.Create(context.Background(), branches.Input{Code: "X"})
	assert.ErrorIs(t, err, domain.ErrInvalidInput)

	in := validInput()
	in.Charset = "cp1252"
	_, _, err = s.Create(context.Background(), in)
	assert.ErrorIs(t, err, domain.ErrInvalidInput)
}

func TestUpdate_ConservaContrasenaYReemplazaConexion(t *testing.T) {
	repo, reg, cache := newMemRepo(), newFakeRegistry(), &countingCache{}
	s := branches.NewService(repo, reg, cache, nil, nil)
	b, _, err := s.Create(context.Background(), validInput())
	require.NoError(t, err)

	updated, st, err := s.Update(context.Background(), b.ID, branches.Input{Host: "10.0.0.9"})
	require.NoError(t, err)
	require.NotNil(t, st)
	assert.Equal(t, "10.0.0.9", reg.live[b.ID].Host)
	assert.Equal(t, "s3cr3to", reg.live[b.ID].Password)
	assert.Equal(t, "10.0.0.9", updated.Host)
	assert.Equal(t, []int64{b.ID}, cache.calls)
}

func TestUpdate_DesactivarQuitaDelRegistro(t *testing.T) {
	repo, reg := newMemRepo(), newFakeRegistry()
	s := branches.NewService(repo, reg, nil, nil, nil)
	b, _, err := s.Create(context.Background(), validInput())
	require.NoError(t, err)

	inactive := false
	_, st, err := s.Update(context.Background(), b.ID, branches.Input{Active: &inactive})
	require.NoError(t, err)
	assert.Nil(t, st)
	assert.NotContains(t, reg.live, b.ID)
}

func TestDelete(t *testing.T) {
	repo, reg := newMemRepo(), newFakeRegistry()
	s := branches.NewService(repo, reg, nil, nil, nil)
	b, _, err := s.Create(context.Background(), validInput())
	require.NoError(t, err)

	require.NoError(t, s.Delete(context.Background(), b.ID, 1))
	assert.NotContains(t, reg.live, b.ID)
	assert.ErrorIs(t, s.Delete(context.Background(), b.ID, 1), domain.ErrNotFound)
}

func TestLoad_SoloActivas(t *testing.T) {
	repo, reg := newMemRepo(), newFakeRegistry()
	inactive := false
	ctx := context.Background()
	s := branches.NewService(repo, newFakeRegistry(), nil, nil, nil)
	_, _, err := s.Create(ctx, validInput())
	require.NoError(t, err)
	in := validInput()
	in.Code, in.Active = "nor", &inactive
	_, _, err = s.Create(ctx, in)
	require.NoError(t, err)

	n, err := branches.NewService(repo, reg, nil, nil, nil).Load(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, n)
	require.Len(t, reg.initialized, 1)
	assert.Equal(t, "CEN", reg.initialized[0].Code)
}
