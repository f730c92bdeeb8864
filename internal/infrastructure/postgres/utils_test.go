package postgres

import (
	"errors"
	"fmt"
	"testing"

	"github.com/jackc/pgx/v5/pgconn"
	"github.com/stretchr/testify/assert"
)

func TestEscapeLike_Comodines(t *testing.T) {
	assert.Equal(t, `CNT\_2024\%`, escapeLike("CNT_2024%"))
	assert.Equal(t, `a\\b`, escapeLike(`a\b`))
	assert.Equal(t, "SOL-", escapeLike("SOL-"))
}

func TestWhereBuilder_Placeholders(t *testing.T) {
	var w whereBuilder
	assert.Equal(t, "", w.String())

	w.add("branch_id = ?", int64(3))
	w.add("status = ?", "pendiente")
	w.add("created_at >= ?", "2024-01-01")

	assert.Equal(t, " WHERE branch_id = $1 AND status = $2 AND created_at >= $3", w.String())
	assert.Equal(t, []any{int64(3), "pendiente", "2024-01-01"}, w.args)
}

func TestIsForeignKeyViolation(t *testing.T) {
	fk := fmt.Errorf("delete count: %w", &pgconn.PgError{Code: "23503", ConstraintName: "adjustment_requests_count_id_fkey"})
	assert.True(t, isForeignKeyViolation(fk))
	assert.False(t, isForeignKeyViolation(&pgconn.PgError{Code: "23505"}))
	assert.False(t, isForeignKeyViolation(errors.New("23503")))
}

func TestHighestFoliosQuery_OrdenaPorFolio(t *testing.T) {
	q := highestFoliosQuery("counts")
	assert.Contains(t, q, "FROM counts")
	assert.Contains(t, q, "ORDER BY length(folio) DESC, folio DESC")
	assert.NotContains(t, q, "ORDER BY id")
}
