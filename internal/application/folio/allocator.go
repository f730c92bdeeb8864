package folio

import (
	"context"
	"fmt"
	"time"

	"github.com/ACasillas1999/Inventarios-sub001/internal/application/ports"
	"github.com/ACasillas1999/Inventarios-sub001/internal/domain"
	"github.com/ACasillas1999/Inventarios-sub001/internal/domain/inventory"
	"github.com/ACasillas1999/Inventarios-sub001/internal/domain/repository"
)

// seedScan cuántos folios existentes se revisan para sembrar el contador de un prefijo.
const seedScan = 50

// Allocator asigna bloques contiguos de folios por ámbito (conteos, solicitudes).
// El consecutivo vive en un contador atómico por prefijo; los folios previos al contador
// se respetan como piso.
type Allocator struct {
	seq      repository.FolioSequenceRepository
	settings ports.SettingsStore
	defaults map[string]string
	keys     map[string]string
	now      func() time.Time
}

// NewAllocator construye el asignador con las plantillas por defecto de cada ámbito.
func NewAllocator(seq repository.FolioSequenceRepository, settings ports.SettingsStore, countTemplate, requestTemplate string) *Allocator {
	return &Allocator{
		seq:      seq,
		settings: settings,
		defaults: map[string]string{
			repository.FolioScopeCounts:   countTemplate,
			repository.FolioScopeRequests: requestTemplate,
		},
		keys: map[string]string{
			repository.FolioScopeCounts:   ports.SettingCountFolioTemplate,
			repository.FolioScopeRequests: ports.SettingRequestFolioTemplate,
		},
		now: time.Now,
	}
}

// Next reserva n folios consecutivos para el ámbito y los devuelve en orden.
func (a *Allocator) Next(ctx context.Context, scope string, n int) ([]string, error) {
	if n <= 0 {
		return nil, nil
	}
	def, ok := a.defaults[scope]
	if !ok {
		return nil, fmt.Errorf("ámbito de folio %q: %w", scope, domain.ErrInvalidInput)
	}
	raw := def
	if a.settings != nil {
		raw = a.settings.GetValue(ctx, a.keys[scope], def)
	}
	tpl, err := inventory.ParseFolioTemplate(raw, a.now())
	if err != nil {
		return nil, err
	}

	existing, err := a.seq.HighestFolios(ctx, scope, tpl.Prefix, seedScan)
	if err != nil {
		return nil, fmt.Errorf("folios existentes: %w", err)
	}
	floor := 0
	for _, f := range existing {
		if num, ok := tpl.Number(f); ok && num > floor {
			floor = num
		}
	}

	last, err := a.seq.Reserve(ctx, scope, tpl.Prefix, n, floor)
	if err != nil {
		return nil, fmt.Errorf("reservar folios: %w", err)
	}
	return tpl.Block(last-n+1, n), nil
}
