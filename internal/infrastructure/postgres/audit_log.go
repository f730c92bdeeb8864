package postgres

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/ACasillas1999/Inventarios-sub001/internal/application/ports"
)

var _ ports.AuditLog = (*AuditLog)(nil)

// AuditLog bitácora en la tabla audit_log; valores anteriores y nuevos como JSONB.
type AuditLog struct {
	q Querier
}

// NewAuditLog construye el adaptador.
func NewAuditLog(q Querier) *AuditLog {
	return &AuditLog{q: q}
}

// Append inserta el registro.
func (a *AuditLog) Append(ctx context.Context, e ports.AuditEntry) error {
	oldValues, err := jsonOrNil(e.OldValues)
	if err != nil {
		return fmt.Errorf("audit old values: %w", err)
	}
	newValues, err := jsonOrNil(e.NewValues)
	if err != nil {
		return fmt.Errorf("audit new values: %w", err)
	}
	query := `
		INSERT INTO audit_log (user_id, action, entity_type, entity_id, old_values, new_values)
		VALUES (NULLIF($1::bigint, 0), $2, $3, NULLIF($4::bigint, 0), $5::jsonb, $6::jsonb)`
	if _, err := a.q.Exec(ctx, query, e.ActorID, e.Action, e.EntityType, e.EntityID, oldValues, newValues); err != nil {
		return fmt.Errorf("insert audit log: %w", err)
	}
	return nil
}

func jsonOrNil(v any) ([]byte, error) {
	if v == nil {
		return nil, nil
	}
	return json.Marshal(v)
}
