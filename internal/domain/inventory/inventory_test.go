package inventory_test

import (
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ACasillas1999/Inventarios-sub001/internal/domain"
	"github.com/ACasillas1999/Inventarios-sub001/internal/domain/entity"
	"github.com/ACasillas1999/Inventarios-sub001/internal/domain/inventory"
)

// ── Diferencias ───────────────────────────────────────────────────────────────

func TestDifference_SistemaCeroContadoPositivo(t *testing.T) {
	diff, pct := inventory.Difference(decimal.Zero, decimal.NewFromInt(5))
	assert.True(t, diff.Equal(decimal.NewFromInt(5)), "diferencia = 5, obtuvo %s", diff)
	assert.True(t, pct.Equal(decimal.NewFromInt(100)), "porcentaje = 100, obtuvo %s", pct)
}

func TestDifference_AmbosCero(t *testing.T) {
	diff, pct := inventory.Difference(decimal.Zero, decimal.Zero)
	assert.True(t, diff.IsZero())
	assert.True(t, pct.IsZero())
}

func TestDifference_Faltante(t *testing.T) {
	diff, pct := inventory.Difference(decimal.NewFromInt(20), decimal.NewFromInt(18))
	assert.True(t, diff.Equal(decimal.NewFromInt(-2)), "diferencia = -2, obtuvo %s", diff)
	assert.True(t, pct.Equal(decimal.NewFromInt(-10)), "porcentaje = -10, obtuvo %s", pct)
}

func TestDifference_RedondeaDosDecimales(t *testing.T) {
	_, pct := inventory.Difference(decimal.NewFromInt(3), decimal.NewFromInt(4))
	assert.Equal(t, "33.33", pct.StringFixed(2))
}

func TestDifference_SistemaMinimoContadoGrande(t *testing.T) {
	_, pct := inventory.Difference(decimal.NewFromInt(1), decimal.NewFromInt(1_000_000))
	assert.Equal(t, "99999900.00", pct.StringFixed(2))

	diff, pct := inventory.Difference(decimal.RequireFromString("0.0001"), decimal.RequireFromString("99999999999999"))
	assert.True(t, pct.Equal(inventory.MaxDifferencePercentage), "el porcentaje se acota al rango de la columna")
	assert.True(t, diff.GreaterThan(decimal.Zero))
}

func TestExceedsTolerance(t *testing.T) {
	assert.True(t, inventory.ExceedsTolerance(decimal.NewFromInt(-12), decimal.NewFromInt(10)))
	assert.False(t, inventory.ExceedsTolerance(decimal.NewFromInt(-10), decimal.NewFromInt(10)))
	assert.False(t, inventory.ExceedsTolerance(decimal.NewFromInt(50), decimal.Zero), "tolerancia cero desactiva la alerta")
}

// ── Estatus de conteo ─────────────────────────────────────────────────────────

func TestValidateCountTransition(t *testing.T) {
	cases := []struct {
		from, to string
		want     error
	}{
		{entity.CountStatusPendiente, entity.CountStatusContando, nil},
		{entity.CountStatusPendiente, entity.CountStatusCancelado, nil},
		{entity.CountStatusContando, entity.CountStatusContado, nil},
		{entity.CountStatusContando, entity.CountStatusCerrado, nil},
		{entity.CountStatusContado, entity.CountStatusCerrado, nil},
		{entity.CountStatusContando, entity.CountStatusContando, domain.ErrAlreadyStarted},
		{entity.CountStatusCerrado, entity.CountStatusContando, domain.ErrAlreadyStarted},
		{entity.CountStatusContado, entity.CountStatusPendiente, domain.ErrInvalidStatusTransition},
		{entity.CountStatusContando, entity.CountStatusCancelado, domain.ErrInvalidStatusTransition},
		{entity.CountStatusCancelado, entity.CountStatusCerrado, domain.ErrInvalidStatusTransition},
		{entity.CountStatusCancelado, entity.CountStatusContando, domain.ErrInvalidStatusTransition},
		{entity.CountStatusPendiente, "inexistente", domain.ErrInvalidStatusTransition},
	}
	for _, c := range cases {
		err := inventory.ValidateCountTransition(c.from, c.to)
		if c.want == nil {
			assert.NoError(t, err, "%s → %s", c.from, c.to)
			continue
		}
		assert.ErrorIs(t, err, c.want, "%s → %s", c.from, c.to)
	}
}

// ── Estatus de solicitud ──────────────────────────────────────────────────────

func TestValidateRequestTransition(t *testing.T) {
	assert.ErrorIs(t, inventory.ValidateRequestTransition(entity.RequestStatusPendiente, entity.RequestStatusAjustado),
		domain.ErrInvalidStatusTransition, "pendiente → ajustado directo debe rechazarse")
	assert.NoError(t, inventory.ValidateRequestTransition(entity.RequestStatusPendiente, entity.RequestStatusEnRevision))
	assert.NoError(t, inventory.ValidateRequestTransition(entity.RequestStatusEnRevision, entity.RequestStatusAjustado))
	assert.NoError(t, inventory.ValidateRequestTransition(entity.RequestStatusEnRevision, entity.RequestStatusRechazado))
	assert.ErrorIs(t, inventory.ValidateRequestTransition(entity.RequestStatusAjustado, entity.RequestStatusPendiente),
		domain.ErrInvalidStatusTransition, "ajustado es terminal")
	assert.NoError(t, inventory.ValidateRequestTransition(entity.RequestStatusAjustado, entity.RequestStatusAjustado),
		"el mismo estatus es idempotente")
}

// ── Folios ────────────────────────────────────────────────────────────────────

func TestParseFolioTemplate_ResuelvePeriodo(t *testing.T) {
	at := time.Date(2026, time.March, 7, 10, 0, 0, 0, time.UTC)
	tpl, err := inventory.ParseFolioTemplate("CNT-{YEAR}{MONTH}{DAY}-{NUMBER}", at)
	require.NoError(t, err)
	assert.Equal(t, "CNT-20260307-", tpl.Prefix)
	assert.Equal(t, "", tpl.Suffix)
	assert.Equal(t, inventory.DefaultFolioWidth, tpl.Width)
	assert.Equal(t, []string{"CNT-20260307-0001", "CNT-20260307-0002", "CNT-20260307-0003"}, tpl.Block(1, 3))
}

func TestParseFolioTemplate_AnchoPersonalizado(t *testing.T) {
	tpl, err := inventory.ParseFolioTemplate("SOL/{NUMBER:6}/{YEAR}", time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC))
	require.NoError(t, err)
	assert.Equal(t, "SOL/000042/2026", tpl.Format(42))

	n, ok := tpl.Number("SOL/000042/2026")
	require.True(t, ok)
	assert.Equal(t, 42, n)

	_, ok = tpl.Number("SOL/000042/2025")
	assert.False(t, ok, "otro periodo no comparte sufijo")
}

func TestParseFolioTemplate_SinNumber(t *testing.T) {
	_, err := inventory.ParseFolioTemplate("CNT-{YEAR}", time.Now())
	assert.Error(t, err)
	_, err = inventory.ParseFolioTemplate("{NUMBER}-{NUMBER}", time.Now())
	assert.Error(t, err)
}

func TestFolioTemplate_NumberIgnoraBasura(t *testing.T) {
	tpl := inventory.FolioTemplate{Prefix: "CNT-2026-", Width: 4}
	_, ok := tpl.Number("CNT-2026-")
	assert.False(t, ok)
	_, ok = tpl.Number("CNT-2026-ABCD")
	assert.False(t, ok)
	_, ok = tpl.Number("CNT-")
	assert.False(t, ok)
}
