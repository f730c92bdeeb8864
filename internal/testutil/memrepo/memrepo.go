// Package memrepo repositorios locales en memoria para pruebas de los servicios de aplicación.
// Respetan las mismas reglas que los adaptadores de PostgreSQL: ids secuenciales, cambio de
// estatus condicional, renglón con una sola solicitud y transacciones con reversión.
package memrepo

import (
	"context"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/shopspring/decimal"

	"github.com/ACasillas1999/Inventarios-sub001/internal/domain"
	"github.com/ACasillas1999/Inventarios-sub001/internal/domain/entity"
	"github.com/ACasillas1999/Inventarios-sub001/internal/domain/repository"
)

// Store base local en memoria.
type Store struct {
	mu       sync.Mutex
	nextID   int64
	counts   map[int64]entity.Count
	details  map[int64]entity.CountDetail
	requests map[int64]entity.Request
	notes    map[int64][]string
}

// New crea una base vacía.
func New() *Store {
	return &Store{
		counts:   map[int64]entity.Count{},
		details:  map[int64]entity.CountDetail{},
		requests: map[int64]entity.Request{},
		notes:    map[int64][]string{},
	}
}

// Counts repositorio de conteos.
func (s *Store) Counts() *CountRepo { return &CountRepo{s: s} }

// Details repositorio de renglones.
func (s *Store) Details() *DetailRepo { return &DetailRepo{s: s} }

// Requests repositorio de solicitudes.
func (s *Store) Requests() *RequestRepo { return &RequestRepo{s: s} }

// Notes notas de sistema agregadas a un conteo.
func (s *Store) Notes(countID int64) []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]string(nil), s.notes[countID]...)
}

// RunCounts ejecuta fn; si devuelve error se restaura el estado previo.
func (s *Store) RunCounts(ctx context.Context, fn func(repository.CountRepository, repository.CountDetailRepository) error) error {
	snap := s.snapshot()
	if err := fn(s.Counts(), s.Details()); err != nil {
		s.restore(snap)
		return err
	}
	return nil
}

// RunRequests ejecuta fn; si devuelve error se restaura el estado previo.
func (s *Store) RunRequests(ctx context.Context, fn func(repository.RequestRepository) error) error {
	snap := s.snapshot()
	if err := fn(s.Requests()); err != nil {
		s.restore(snap)
		return err
	}
	return nil
}

type snapshot struct {
	nextID   int64
	counts   map[int64]entity.Count
	details  map[int64]entity.CountDetail
	requests map[int64]entity.Request
}

func (s *Store) snapshot() snapshot {
	s.mu.Lock()
	defer s.mu.Unlock()
	snap := snapshot{
		nextID:   s.nextID,
		counts:   make(map[int64]entity.Count, len(s.counts)),
		details:  make(map[int64]entity.CountDetail, len(s.details)),
		requests: make(map[int64]entity.Request, len(s.requests)),
	}
	for k, v := range s.counts {
		snap.counts[k] = v
	}
	for k, v := range s.details {
		snap.details[k] = v
	}
	for k, v := range s.requests {
		snap.requests[k] = v
	}
	return snap
}

func (s *Store) restore(snap snapshot) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.nextID = snap.nextID
	s.counts = snap.counts
	s.details = snap.details
	s.requests = snap.requests
}

func (s *Store) id() int64 {
	s.nextID++
	return s.nextID
}

// CountRepo implementa repository.CountRepository.
type CountRepo struct{ s *Store }

var _ repository.CountRepository = (*CountRepo)(nil)

func (r *CountRepo) Create(_ context.Context, c *entity.Count) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	for _, other := range r.s.counts {
		if other.Folio == c.Folio {
			return domain.ErrDuplicate
		}
	}
	c.ID = r.s.id()
	r.s.counts[c.ID] = *c
	return nil
}

func (r *CountRepo) GetByID(_ context.Context, id int64) (*entity.Count, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	c, ok := r.s.counts[id]
	if !ok {
		return nil, nil
	}
	return &c, nil
}

func (r *CountRepo) GetByIDs(_ context.Context, ids []int64) ([]*entity.Count, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	out := make([]*entity.Count, 0, len(ids))
	for _, id := range ids {
		if c, ok := r.s.counts[id]; ok {
			c := c
			out = append(out, &c)
		}
	}
	return out, nil
}

func (r *CountRepo) List(_ context.Context, f entity.CountFilter) ([]*entity.Count, int, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	var all []*entity.Count
	for _, c := range r.s.counts {
		if f.BranchID != 0 && c.BranchID != f.BranchID {
			continue
		}
		if f.Status != "" && c.Status != f.Status {
			continue
		}
		if f.Classification != "" && c.Classification != f.Classification {
			continue
		}
		if f.ResponsibleUserID != 0 && (c.ResponsibleUserID == nil || *c.ResponsibleUserID != f.ResponsibleUserID) {
			continue
		}
		c := c
		all = append(all, &c)
	}
	sort.Slice(all, func(i, j int) bool { return all[i].ID < all[j].ID })
	total := len(all)
	if f.Offset >= total {
		return []*entity.Count{}, total, nil
	}
	end := total
	if f.Limit > 0 && f.Offset+f.Limit < end {
		end = f.Offset + f.Limit
	}
	return all[f.Offset:end], total, nil
}

func (r *CountRepo) Update(_ context.Context, c *entity.Count) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if _, ok := r.s.counts[c.ID]; !ok {
		return domain.ErrNotFound
	}
	r.s.counts[c.ID] = *c
	return nil
}

func (r *CountRepo) UpdateStatus(_ context.Context, id int64, from, to string, st repository.StatusStamps) (bool, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	c, ok := r.s.counts[id]
	if !ok || c.Status != from {
		return false, nil
	}
	c.Status = to
	if st.StartedAt != nil {
		c.StartedAt = st.StartedAt
	}
	if st.FinishedAt != nil {
		c.FinishedAt = st.FinishedAt
	}
	if st.ClosedAt != nil {
		c.ClosedAt = st.ClosedAt
	}
	r.s.counts[id] = c
	return true, nil
}

func (r *CountRepo) AppendNote(_ context.Context, id int64, note string) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	c, ok := r.s.counts[id]
	if !ok {
		return domain.ErrNotFound
	}
	if c.Notes != "" {
		c.Notes += "\n"
	}
	c.Notes += note
	r.s.counts[id] = c
	r.s.notes[id] = append(r.s.notes[id], note)
	return nil
}

func (r *CountRepo) Delete(_ context.Context, id int64) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if _, ok := r.s.counts[id]; !ok {
		return domain.ErrNotFound
	}
	for _, req := range r.s.requests {
		if req.CountID == id {
			return domain.ErrConflict
		}
	}
	delete(r.s.counts, id)
	for did, d := range r.s.details {
		if d.CountID == id {
			delete(r.s.details, did)
		}
	}
	return nil
}

func (r *CountRepo) CountedItemCodes(_ context.Context, branchID int64, almacen int, from, to time.Time, codes []string) ([]string, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	want := map[string]bool{}
	for _, c := range codes {
		want[strings.ToUpper(c)] = true
	}
	seen := map[string]bool{}
	var out []string
	for _, d := range r.s.details {
		c := r.s.counts[d.CountID]
		if c.BranchID != branchID || c.Almacen != almacen || c.CreatedAt.Before(from) || c.CreatedAt.After(to) {
			continue
		}
		key := strings.ToUpper(d.ItemCode)
		if want[key] && !seen[key] {
			seen[key] = true
			out = append(out, d.ItemCode)
		}
	}
	return out, nil
}

// DetailRepo implementa repository.CountDetailRepository.
type DetailRepo struct{ s *Store }

var _ repository.CountDetailRepository = (*DetailRepo)(nil)

func (r *DetailRepo) Create(_ context.Context, d *entity.CountDetail) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	d.ID = r.s.id()
	r.s.details[d.ID] = *d
	return nil
}

func (r *DetailRepo) GetByID(_ context.Context, id int64) (*entity.CountDetail, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	d, ok := r.s.details[id]
	if !ok {
		return nil, nil
	}
	return &d, nil
}

func (r *DetailRepo) GetByCountAndItem(_ context.Context, countID int64, itemCode string) (*entity.CountDetail, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	for _, d := range r.s.details {
		if d.CountID == countID && strings.EqualFold(d.ItemCode, itemCode) {
			return &d, nil
		}
	}
	return nil, nil
}

func (r *DetailRepo) ListByCount(_ context.Context, countID int64) ([]*entity.CountDetail, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	var out []*entity.CountDetail
	for _, d := range r.s.details {
		if d.CountID == countID {
			d := d
			out = append(out, &d)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

func (r *DetailRepo) UpdateCapture(_ context.Context, d *entity.CountDetail) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if _, ok := r.s.details[d.ID]; !ok {
		return domain.ErrNotFound
	}
	r.s.details[d.ID] = *d
	return nil
}

func (r *DetailRepo) UpdateSystemStock(_ context.Context, id int64, stock decimal.Decimal, diff, pct *decimal.Decimal) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	d, ok := r.s.details[id]
	if !ok {
		return domain.ErrNotFound
	}
	d.SystemStock = stock
	if diff != nil {
		d.Difference = diff
		d.DifferencePercentage = pct
	}
	r.s.details[id] = d
	return nil
}

func (r *DetailRepo) CountPending(_ context.Context, countID int64) (int, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	n := 0
	for _, d := range r.s.details {
		if d.CountID == countID && d.CountedAt == nil {
			n++
		}
	}
	return n, nil
}

// RequestRepo implementa repository.RequestRepository.
type RequestRepo struct{ s *Store }

var _ repository.RequestRepository = (*RequestRepo)(nil)

func (r *RequestRepo) CreateBatch(_ context.Context, reqs []*entity.Request) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	for _, req := range reqs {
		for _, other := range r.s.requests {
			if other.CountDetailID == req.CountDetailID {
				return domain.ErrDuplicate
			}
		}
		req.ID = r.s.id()
		r.s.requests[req.ID] = *req
	}
	return nil
}

func (r *RequestRepo) GetByID(_ context.Context, id int64) (*entity.Request, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	req, ok := r.s.requests[id]
	if !ok {
		return nil, nil
	}
	return &req, nil
}

func (r *RequestRepo) List(_ context.Context, f entity.RequestFilter) ([]*entity.Request, int, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	var all []*entity.Request
	for _, req := range r.s.requests {
		if f.CountID != 0 && req.CountID != f.CountID {
			continue
		}
		if f.BranchID != 0 && req.BranchID != f.BranchID {
			continue
		}
		if f.Status != "" && req.Status != f.Status {
			continue
		}
		req := req
		all = append(all, &req)
	}
	sort.Slice(all, func(i, j int) bool { return all[i].ID < all[j].ID })
	return all, len(all), nil
}

func (r *RequestRepo) Update(_ context.Context, req *entity.Request, fromStatus string) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	cur, ok := r.s.requests[req.ID]
	if !ok {
		return domain.ErrNotFound
	}
	if cur.Status != fromStatus {
		return domain.ErrConflict
	}
	r.s.requests[req.ID] = *req
	return nil
}

func (r *RequestRepo) DetailIDsWithRequest(_ context.Context, countID int64) (map[int64]bool, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	out := map[int64]bool{}
	for _, req := range r.s.requests {
		if req.CountID == countID {
			out[req.CountDetailID] = true
		}
	}
	return out, nil
}

// Sequences implementa repository.FolioSequenceRepository sobre la misma base.
type Sequences struct {
	s    *Store
	mu   sync.Mutex
	last map[string]int
}

var _ repository.FolioSequenceRepository = (*Sequences)(nil)

// Sequences contador de folios por prefijo.
func (s *Store) Sequences() *Sequences {
	return &Sequences{s: s, last: map[string]int{}}
}

func (q *Sequences) HighestFolios(_ context.Context, scope, prefix string, limit int) ([]string, error) {
	q.s.mu.Lock()
	defer q.s.mu.Unlock()
	var out []string
	switch scope {
	case repository.FolioScopeCounts:
		for _, c := range q.s.counts {
			if strings.HasPrefix(c.Folio, prefix) {
				out = append(out, c.Folio)
			}
		}
	case repository.FolioScopeRequests:
		for _, r := range q.s.requests {
			if strings.HasPrefix(r.Folio, prefix) {
				out = append(out, r.Folio)
			}
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

func (q *Sequences) Reserve(_ context.Context, scope, prefix string, n, floor int) (int, error) {
	q.mu.Lock()
	defer q.mu.Unlock()
	key := scope + "|" + prefix
	cur := q.last[key]
	if floor > cur {
		cur = floor
	}
	q.last[key] = cur + n
	return cur + n, nil
}
