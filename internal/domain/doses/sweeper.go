package doses

import (
	"context"
	"time"

	"med-adherence-dashboard/internal/platform/logger"
)

// Sweeper re-evalúa las tomas pendientes y persiste missed=true en las que
// ya vencieron la ventana de gracia. El resolver deriva "missed" en caliente
// para la lectura; el sweep es quien lo deja asentado en el store.
type Sweeper struct {
	repo Repository
	log  logger.Logger
	now  func() time.Time
}

func NewSweeper(repo Repository, log logger.Logger) *Sweeper {
	return &Sweeper{
		repo: repo,
		log:  log,
		now:  time.Now,
	}
}

type SweepResult struct {
	OwnerUserID string
	DoseID      string
	Err         error
}

// Sweep corre una pasada completa sobre las tomas pendientes vencidas.
// Una escritura fallida no aborta el resto del lote: se acumula en el
// resultado y se sigue. Solo una falla del listado inicial es fatal.
// Correr dos veces sin que avance el reloj no produce escrituras nuevas:
// las ya marcadas no vuelven a listarse.
func (sw *Sweeper) Sweep(ctx context.Context) ([]SweepResult, error) {
	now := sw.now()
	cutoff := now.Add(-GraceWindow)

	overdue, err := sw.repo.ListPendingBefore(ctx, cutoff)
	if err != nil {
		sw.log.Error("sweep: list pending failed", map[string]any{"err": err.Error()})
		return nil, err
	}

	results := make([]SweepResult, 0, len(overdue))
	failed := 0
	for _, d := range overdue {
		res := SweepResult{OwnerUserID: d.OwnerUserID, DoseID: d.ID}
		if err := sw.repo.MarkMissed(ctx, d.OwnerUserID, d.ID); err != nil {
			res.Err = err
			failed++
			sw.log.Warn("sweep: mark missed failed", map[string]any{
				"dose_id": d.ID,
				"owner":   d.OwnerUserID,
				"err":     err.Error(),
			})
		}
		results = append(results, res)
	}

	if len(results) > 0 {
		sw.log.Info("sweep done", map[string]any{
			"marked": len(results) - failed,
			"failed": failed,
		})
	}

	return results, nil
}
