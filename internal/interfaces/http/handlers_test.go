package http_test

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gofiber/fiber/v2"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ACasillas1999/Inventarios-sub001/internal/application/branches"
	"github.com/ACasillas1999/Inventarios-sub001/internal/application/counts"
	"github.com/ACasillas1999/Inventarios-sub001/internal/application/requests"
	"github.com/ACasillas1999/Inventarios-sub001/internal/domain"
	"github.com/ACasillas1999/Inventarios-sub001/internal/domain/entity"
	"github.com/ACasillas1999/Inventarios-sub001/internal/infrastructure/branchdb"
	"github.com/ACasillas1999/Inventarios-sub001/internal/infrastructure/metrics"
	apphttp "github.com/ACasillas1999/Inventarios-sub001/internal/interfaces/http"
)

// ──────────────────────────────────────────────────────────────────────────────
// Fakes
// ──────────────────────────────────────────────────────────────────────────────

type fakeEngine struct {
	err      error
	captured counts.CaptureInput
	created  counts.CreateInput
}

func (f *fakeEngine) CreateCounts(_ context.Context, in counts.CreateInput) (*counts.CreateResult, error) {
	f.created = in
	if f.err != nil {
		return nil, f.err
	}
	return &counts.CreateResult{
		BatchID:  "b-1",
		Counts:   []*entity.Count{{ID: 1, Folio: "CNT-0001", BranchID: in.BranchID, Status: entity.CountStatusPendiente}},
		NotFound: []string{"ZZ"},
	}, nil
}

func (f *fakeEngine) CreateAdjustments(context.Context, counts.AdjustmentInput) (*counts.CreateResult, error) {
	return &counts.CreateResult{BatchID: "b-2"}, f.err
}

func (f *fakeEngine) UpdateStatus(_ context.Context, id int64, to string, _ int64) (*entity.Count, error) {
	if f.err != nil {
		return nil, f.err
	}
	return &entity.Count{ID: id, Status: to}, nil
}

func (f *fakeEngine) CaptureDetail(_ context.Context, in counts.CaptureInput) (*counts.DetailCaptureResult, error) {
	f.captured = in
	if f.err != nil {
		return nil, f.err
	}
	counted := in.Counted
	return &counts.DetailCaptureResult{
		Detail:     &entity.CountDetail{ID: in.DetailID, CountID: in.CountID, CountedStock: &counted},
		Count:      &entity.Count{ID: in.CountID, Status: entity.CountStatusCerrado},
		AutoClosed: true,
	}, nil
}

func (f *fakeEngine) AddDetail(_ context.Context, countID int64, code string, _ int64) (*entity.CountDetail, error) {
	return &entity.CountDetail{ID: 9, CountID: countID, ItemCode: code}, f.err
}

func (f *fakeEngine) Get(_ context.Context, id int64) (*entity.Count, []*entity.CountDetail, error) {
	if f.err != nil {
		return nil, nil, f.err
	}
	return &entity.Count{ID: id}, []*entity.CountDetail{{ID: 1, CountID: id}}, nil
}

func (f *fakeEngine) List(context.Context, entity.CountFilter) ([]*entity.Count, int, error) {
	return []*entity.Count{{ID: 1}}, 1, f.err
}

func (f *fakeEngine) Update(_ context.Context, in counts.UpdateInput) (*entity.Count, error) {
	return &entity.Count{ID: in.ID}, f.err
}

func (f *fakeEngine) Delete(context.Context, int64, int64) error { return f.err }

type fakeSheets struct{}

func (fakeSheets) Download(context.Context, int64, bool) ([]byte, string, error) {
	return []byte("%PDF-1.3"), "conteo-CNT-0001.pdf", nil
}

type fakeWorkflow struct{}

func (fakeWorkflow) DeriveFromCount(_ context.Context, countID, _ int64) ([]*entity.Request, error) {
	return []*entity.Request{{ID: 1, CountID: countID}}, nil
}

func (fakeWorkflow) Update(_ context.Context, in requests.UpdateInput) (*entity.Request, error) {
	r := &entity.Request{ID: in.ID}
	if in.Status != nil {
		r.Status = *in.Status
	}
	return r, nil
}

func (fakeWorkflow) Get(_ context.Context, id int64) (*entity.Request, error) {
	return nil, domain.ErrNotFound
}

func (fakeWorkflow) List(context.Context, entity.RequestFilter) ([]*entity.Request, int, error) {
	return []*entity.Request{}, 0, nil
}

type fakeBranches struct{}

func (fakeBranches) List(context.Context) ([]*entity.Branch, error) {
	return []*entity.Branch{{ID: 1, Code: "CEN", Password: "secreto"}}, nil
}

func (fakeBranches) Get(_ context.Context, id int64) (*entity.Branch, error) {
	return &entity.Branch{ID: id, Code: "CEN", Password: "secreto"}, nil
}

func (fakeBranches) Create(_ context.Context, in branches.Input) (*entity.Branch, *entity.BranchStatus, error) {
	return &entity.Branch{ID: 2, Code: in.Code}, nil, nil
}

func (fakeBranches) Update(_ context.Context, id int64, in branches.Input) (*entity.Branch, *entity.BranchStatus, error) {
	return &entity.Branch{ID: id, Code: in.Code}, nil, nil
}

func (fakeBranches) Delete(context.Context, int64, int64) error { return nil }

func (fakeBranches) Health() []entity.BranchStatus {
	return []entity.BranchStatus{
		{ID: 1, Code: "CEN", Status: entity.BranchStatusConnected},
		{ID: 2, Code: "NTE", Status: entity.BranchStatusError, ErrorMessage: "timeout"},
	}
}

func (b fakeBranches) Recheck(context.Context) []entity.BranchStatus { return b.Health() }

type fakeStock struct{}

func (fakeStock) Stock(_ context.Context, branchID int64, codes []string) (map[string]entity.StockSnapshot, error) {
	if branchID <= 0 {
		return nil, domain.ErrInvalidInput
	}
	out := map[string]entity.StockSnapshot{}
	for _, c := range codes {
		out[c] = entity.StockSnapshot{BranchID: branchID, ItemCode: c, Total: decimal.NewFromInt(3)}
	}
	return out, nil
}

func (fakeStock) Item(context.Context, string) (entity.ItemRecord, error) {
	return entity.ItemRecord{}, domain.ErrNotFound
}

func (fakeStock) Search(context.Context, int64, entity.ItemFilter) ([]entity.ItemListing, error) {
	return []entity.ItemListing{}, nil
}

func (fakeStock) Invalidate(context.Context, int64, string) (int, error) { return 4, nil }

// allowPerms concede solo los permisos listados; admin siempre pasa.
type allowPerms struct {
	perms map[string]bool
	err   error
}

func (a allowPerms) HasPermission(_ context.Context, _ int64, role, permission string) (bool, error) {
	if a.err != nil {
		return false, a.err
	}
	return role == entity.RoleAdmin || a.perms[permission], nil
}

// ──────────────────────────────────────────────────────────────────────────────
// Helpers
// ──────────────────────────────────────────────────────────────────────────────

func newAPI(engine *fakeEngine, perms allowPerms, col *metrics.Collectors) *fiber.App {
	app := fiber.New(fiber.Config{ErrorHandler: apphttp.NewErrorHandler(nil)})
	deps := apphttp.RouterDeps{
		Counts:      apphttp.NewCountHandler(engine, fakeSheets{}),
		Requests:    apphttp.NewRequestHandler(fakeWorkflow{}),
		Branches:    apphttp.NewBranchHandler(fakeBranches{}),
		Stock:       apphttp.NewStockHandler(fakeStock{}),
		Permissions: perms,
		JWTSecret:   testJWTSecret,
	}
	if col != nil {
		deps.Metrics = col
		deps.Registry = col.Registry
	}
	apphttp.Router(app, deps)
	return app
}

func call(t *testing.T, app *fiber.App, method, path, role, body string) (*http.Response, string) {
	t.Helper()
	var r io.Reader
	if body != "" {
		r = strings.NewReader(body)
	}
	req := httptest.NewRequest(method, path, r)
	if body != "" {
		req.Header.Set("Content-Type", "application/json")
	}
	if role != "" {
		req.Header.Set("Authorization", tokenForRole(t, role))
	}
	resp, err := app.Test(req, -1)
	require.NoError(t, err)
	b, _ := io.ReadAll(resp.Body)
	resp.Body.Close()
	return resp, string(b)
}

// ──────────────────────────────────────────────────────────────────────────────
// Tests
// ──────────────────────────────────────────────────────────────────────────────

func TestCounts_CrearSinPermisoRetorna403(t *testing.T) {
	app := newAPI(&fakeEngine{}, allowPerms{}, nil)
	resp, body := call(t, app, http.MethodPost, "/api/counts", "contador", `{"branch_id":1,"item_codes":["A1"]}`)

	assert.Equal(t, http.StatusForbidden, resp.StatusCode)
	assert.Contains(t, body, "FORBIDDEN")
}

func TestCounts_CrearConPermiso(t *testing.T) {
	engine := &fakeEngine{}
	app := newAPI(engine, allowPerms{perms: map[string]bool{entity.PermCountsCreate: true}}, nil)
	resp, body := call(t, app, http.MethodPost, "/api/counts", "supervisor",
		`{"branch_id":1,"almacen":2,"item_codes":["A1","ZZ"],"tolerance_percentage":"2.5"}`)

	require.Equal(t, http.StatusCreated, resp.StatusCode, body)
	var out struct {
		BatchID  string   `json:"batch_id"`
		NotFound []string `json:"not_found"`
		Excluded []string `json:"excluded"`
	}
	require.NoError(t, json.Unmarshal([]byte(body), &out))
	assert.Equal(t, "b-1", out.BatchID)
	assert.Equal(t, []string{"ZZ"}, out.NotFound)
	assert.NotNil(t, out.Excluded)
	assert.Equal(t, testUserID, engine.created.ActorID)
	assert.True(t, decimal.RequireFromString("2.5").Equal(engine.created.TolerancePercentage))
}

func TestCounts_VerificadorDePermisosCaidoRetorna503(t *testing.T) {
	app := newAPI(&fakeEngine{}, allowPerms{err: errors.New("db caída")}, nil)
	resp, _ := call(t, app, http.MethodPost, "/api/counts", "supervisor", `{"branch_id":1}`)

	assert.Equal(t, http.StatusServiceUnavailable, resp.StatusCode)
}

func TestCounts_TransicionInvalidaRetorna409(t *testing.T) {
	engine := &fakeEngine{err: domain.ErrInvalidStatusTransition}
	app := newAPI(engine, allowPerms{}, nil)
	resp, body := call(t, app, http.MethodPatch, "/api/counts/5/status", "admin", `{"status":"pendiente"}`)

	assert.Equal(t, http.StatusConflict, resp.StatusCode)
	assert.Contains(t, body, "INVALID_STATUS_TRANSITION")
}

func TestCounts_FallaDeConsultaEnSucursalRetorna503(t *testing.T) {
	engine := &fakeEngine{err: fmt.Errorf("validar catálogo: %w", &branchdb.QueryError{BranchID: 1, Err: errors.New("driver: bad connection")})}
	app := newAPI(engine, allowPerms{}, nil)
	resp, body := call(t, app, http.MethodPost, "/api/counts", "admin", `{"branch_id":1,"item_codes":["A1"]}`)

	assert.Equal(t, http.StatusServiceUnavailable, resp.StatusCode)
	assert.Contains(t, body, "BRANCH_UNAVAILABLE")
}

func TestCounts_NoEncontradoRetorna404(t *testing.T) {
	app := newAPI(&fakeEngine{err: domain.ErrNotFound}, allowPerms{}, nil)
	resp, body := call(t, app, http.MethodGet, "/api/counts/99", "contador", "")

	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
	assert.Contains(t, body, "NOT_FOUND")
}

func TestCounts_ErrorNoMapeadoRetorna500SinDetalle(t *testing.T) {
	app := newAPI(&fakeEngine{err: errors.New("pgx: conexión rechazada")}, allowPerms{}, nil)
	resp, body := call(t, app, http.MethodGet, "/api/counts/1", "contador", "")

	assert.Equal(t, http.StatusInternalServerError, resp.StatusCode)
	assert.Contains(t, body, "INTERNAL")
	assert.NotContains(t, body, "pgx")
}

func TestCounts_CapturaDecimal(t *testing.T) {
	engine := &fakeEngine{}
	app := newAPI(engine, allowPerms{perms: map[string]bool{entity.PermCountsCapture: true}}, nil)
	resp, body := call(t, app, http.MethodPut, "/api/counts/3/details/8", "contador", `{"counted":"12.75"}`)

	require.Equal(t, http.StatusOK, resp.StatusCode, body)
	assert.Equal(t, int64(3), engine.captured.CountID)
	assert.Equal(t, int64(8), engine.captured.DetailID)
	assert.True(t, decimal.RequireFromString("12.75").Equal(engine.captured.Counted))
	assert.Contains(t, body, `"auto_closed":true`)
}

func TestCounts_BorrarSoloAdmin(t *testing.T) {
	app := newAPI(&fakeEngine{}, allowPerms{}, nil)

	resp, _ := call(t, app, http.MethodDelete, "/api/counts/1", "supervisor", "")
	assert.Equal(t, http.StatusForbidden, resp.StatusCode)

	resp, _ = call(t, app, http.MethodDelete, "/api/counts/1", "admin", "")
	assert.Equal(t, http.StatusNoContent, resp.StatusCode)
}

func TestCounts_HojaPDF(t *testing.T) {
	app := newAPI(&fakeEngine{}, allowPerms{}, nil)
	resp, body := call(t, app, http.MethodGet, "/api/counts/1/sheet?blind=true", "contador", "")

	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "application/pdf", resp.Header.Get("Content-Type"))
	assert.Contains(t, resp.Header.Get("Content-Disposition"), "conteo-CNT-0001.pdf")
	assert.True(t, strings.HasPrefix(body, "%PDF"))
}

func TestCounts_FechaInvalidaEnFiltro(t *testing.T) {
	app := newAPI(&fakeEngine{}, allowPerms{}, nil)
	resp, _ := call(t, app, http.MethodGet, "/api/counts?from=ayer", "contador", "")

	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
}

func TestRequests_NoEncontrada(t *testing.T) {
	app := newAPI(&fakeEngine{}, allowPerms{}, nil)
	resp, _ := call(t, app, http.MethodGet, "/api/requests/4", "contador", "")

	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
}

func TestBranches_ListaNoExponeContrasena(t *testing.T) {
	app := newAPI(&fakeEngine{}, allowPerms{}, nil)
	resp, body := call(t, app, http.MethodGet, "/api/branches", "contador", "")

	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.NotContains(t, body, "secreto")
	assert.Contains(t, body, `"health"`)
}

func TestHealth_PublicoYDegradado(t *testing.T) {
	app := newAPI(&fakeEngine{}, allowPerms{}, nil)
	resp, body := call(t, app, http.MethodGet, "/health", "", "")

	assert.Equal(t, http.StatusOK, resp.StatusCode)
	var out struct {
		Status    string `json:"status"`
		Connected int    `json:"connected"`
		Total     int    `json:"total"`
	}
	require.NoError(t, json.Unmarshal([]byte(body), &out))
	assert.Equal(t, "degraded", out.Status)
	assert.Equal(t, 1, out.Connected)
	assert.Equal(t, 2, out.Total)
}

func TestStock_SucursalInvalidaRetorna400(t *testing.T) {
	app := newAPI(&fakeEngine{}, allowPerms{}, nil)
	resp, body := call(t, app, http.MethodPost, "/api/stock", "contador", `{"branch_id":0,"item_codes":["A1"]}`)

	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
	assert.Contains(t, body, "VALIDATION")
}

func TestCache_InvalidarRequierePermiso(t *testing.T) {
	app := newAPI(&fakeEngine{}, allowPerms{}, nil)

	resp, _ := call(t, app, http.MethodPost, "/api/cache/invalidate", "contador", `{"branch_id":1}`)
	assert.Equal(t, http.StatusForbidden, resp.StatusCode)

	resp, body := call(t, app, http.MethodPost, "/api/cache/invalidate", "admin", `{"branch_id":1}`)
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.JSONEq(t, `{"removed":4}`, body)
}

func TestMetrics_ExponePeticionesHTTP(t *testing.T) {
	col := metrics.New()
	app := newAPI(&fakeEngine{}, allowPerms{}, col)

	call(t, app, http.MethodGet, "/health", "", "")
	resp, body := call(t, app, http.MethodGet, "/metrics", "", "")

	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Contains(t, body, `inventarios_http_requests_total{method="GET",route="/health",status="200"} 1`)
}

func TestErrorHandler_RutaInexistente(t *testing.T) {
	app := newAPI(&fakeEngine{}, allowPerms{}, nil)
	resp, _ := call(t, app, http.MethodGet, "/no-existe", "", "")

	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
}
