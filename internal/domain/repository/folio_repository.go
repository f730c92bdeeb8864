package repository

import "context"

// Ámbitos de folio (cada uno con su tabla de origen).
const (
	FolioScopeCounts   = "counts"
	FolioScopeRequests = "requests"
)

// FolioSequenceRepository reserva bloques contiguos de consecutivos por prefijo de forma atómica.
type FolioSequenceRepository interface {
	// HighestFolios devuelve hasta limit folios existentes del ámbito que inician con prefix,
	// del mayor al menor (para sembrar el contador con datos previos a la tabla de secuencias).
	HighestFolios(ctx context.Context, scope, prefix string, limit int) ([]string, error)
	// Reserve reserva n números para scope+prefix y devuelve el último asignado.
	// El contador nunca queda por debajo de floor.
	Reserve(ctx context.Context, scope, prefix string, n, floor int) (int, error)
}
