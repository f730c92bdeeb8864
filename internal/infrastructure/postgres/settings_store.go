package postgres

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5"

	"github.com/ACasillas1999/Inventarios-sub001/internal/application/ports"
	"github.com/ACasillas1999/Inventarios-sub001/pkg/logger"
)

var _ ports.SettingsStore = (*SettingsStore)(nil)

// SettingsStore configuración clave-valor en la tabla settings.
type SettingsStore struct {
	q   Querier
	log *logger.Logger
}

// NewSettingsStore construye el adaptador.
func NewSettingsStore(q Querier, log *logger.Logger) *SettingsStore {
	if log == nil {
		log = logger.Nop()
	}
	return &SettingsStore{q: q, log: log.Named("settings")}
}

// GetValue devuelve def si la clave no existe o la lectura falla.
func (s *SettingsStore) GetValue(ctx context.Context, key, def string) string {
	var v string
	err := s.q.QueryRow(ctx, `SELECT value FROM settings WHERE key = $1`, key).Scan(&v)
	if err != nil {
		if !errors.Is(err, pgx.ErrNoRows) {
			s.log.Warn().Err(err).Str("key", key).Msg("lectura de configuración fallida; se usa el valor por defecto")
		}
		return def
	}
	if v == "" {
		return def
	}
	return v
}
