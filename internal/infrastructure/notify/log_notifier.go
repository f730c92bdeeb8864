// Package notify entrega avisos de asignación y cierre de conteos.
package notify

import (
	"context"

	"github.com/ACasillas1999/Inventarios-sub001/internal/application/ports"
	"github.com/ACasillas1999/Inventarios-sub001/internal/domain/entity"
	"github.com/ACasillas1999/Inventarios-sub001/pkg/logger"
)

var _ ports.Notifier = (*LogNotifier)(nil)

// LogNotifier deja cada aviso en bitácora. Sustituto hasta conectar el canal de mensajería real.
type LogNotifier struct {
	log *logger.Logger
}

// NewLogNotifier construye el notificador.
func NewLogNotifier(log *logger.Logger) *LogNotifier {
	if log == nil {
		log = logger.Nop()
	}
	return &LogNotifier{log: log.Named("notify")}
}

func (n *LogNotifier) NotifyAssignment(_ context.Context, c *entity.Count, userID int64) error {
	n.log.Info().Str("folio", c.Folio).Int64("user_id", userID).Msg("conteo asignado")
	return nil
}

func (n *LogNotifier) NotifyReassignment(_ context.Context, c *entity.Count, fromUserID, toUserID int64) error {
	n.log.Info().Str("folio", c.Folio).Int64("from_user_id", fromUserID).Int64("to_user_id", toUserID).Msg("conteo reasignado")
	return nil
}

func (n *LogNotifier) NotifyCountFinished(_ context.Context, c *entity.Count) error {
	n.log.Info().Str("folio", c.Folio).Str("status", c.Status).Msg("conteo terminado")
	return nil
}

func (n *LogNotifier) NotifyRequestCreated(_ context.Context, reqs []*entity.Request) error {
	if len(reqs) == 0 {
		return nil
	}
	folios := make([]string, len(reqs))
	for i, r := range reqs {
		folios[i] = r.Folio
	}
	n.log.Info().Int64("count_id", reqs[0].CountID).Strs("folios", folios).Msg("solicitudes de ajuste creadas")
	return nil
}
