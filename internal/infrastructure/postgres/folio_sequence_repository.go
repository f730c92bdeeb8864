package postgres

import (
	"context"
	"fmt"

	"github.com/ACasillas1999/Inventarios-sub001/internal/domain/repository"
)

var _ repository.FolioSequenceRepository = (*FolioSequenceRepo)(nil)

// Tabla de origen de folios por ámbito.
var folioTables = map[string]string{
	repository.FolioScopeCounts:   "counts",
	repository.FolioScopeRequests: "adjustment_requests",
}

// FolioSequenceRepo contador de folios por prefijo en la tabla folio_sequences.
type FolioSequenceRepo struct {
	q Querier
}

// NewFolioSequenceRepository construye el adaptador. Pasar pool o tx (Querier).
func NewFolioSequenceRepository(q Querier) *FolioSequenceRepo {
	return &FolioSequenceRepo{q: q}
}

// highestFoliosQuery ordena por el folio y no por id: un folio capturado a mano o migrado
// puede tener id viejo y número alto. Con el mismo prefijo, más dígitos es número mayor.
func highestFoliosQuery(table string) string {
	return fmt.Sprintf(`SELECT folio FROM %s WHERE folio LIKE $1 ESCAPE '\' ORDER BY length(folio) DESC, folio DESC LIMIT $2`, table)
}

// HighestFolios folios existentes con el prefijo, del mayor al menor.
func (r *FolioSequenceRepo) HighestFolios(ctx context.Context, scope, prefix string, limit int) ([]string, error) {
	table, ok := folioTables[scope]
	if !ok {
		return nil, fmt.Errorf("ámbito de folio desconocido: %s", scope)
	}
	rows, err := r.q.Query(ctx, highestFoliosQuery(table), escapeLike(prefix)+"%", limit)
	if err != nil {
		return nil, fmt.Errorf("highest folios: %w", err)
	}
	defer rows.Close()
	out := []string{}
	for rows.Next() {
		var f string
		if err := rows.Scan(&f); err != nil {
			return nil, fmt.Errorf("scan folio: %w", err)
		}
		out = append(out, f)
	}
	return out, rows.Err()
}

// Reserve reserva n números en una sola sentencia atómica y devuelve el último.
func (r *FolioSequenceRepo) Reserve(ctx context.Context, scope, prefix string, n, floor int) (int, error) {
	query := `
		INSERT INTO folio_sequences (scope, prefix, last_number)
		VALUES ($1, $2, $4::int + $3::int)
		ON CONFLICT (scope, prefix)
		DO UPDATE SET last_number = GREATEST(folio_sequences.last_number, $4::int) + $3::int, updated_at = now()
		RETURNING last_number`
	var last int
	if err := r.q.QueryRow(ctx, query, scope, prefix, n, floor).Scan(&last); err != nil {
		return 0, fmt.Errorf("reserve folios: %w", err)
	}
	return last, nil
}
