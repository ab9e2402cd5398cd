package doses

import (
	"context"
	"errors"
	"time"
)

// ErrNotFound lo devuelven los adapters cuando la toma no existe o no
// pertenece al owner consultado. Vive acá (y no en cada adapter) para que el
// service y los handlers puedan distinguir not-found de una caída del store.
var ErrNotFound = errors.New("dose not found")

// Repository es el contrato mínimo contra el document store de tomas.
// Todas las operaciones van scoped por owner, igual que el store real
// (colección por usuario).
type Repository interface {
	Create(ctx context.Context, d Dose) error
	GetByID(ctx context.Context, ownerUserID, id string) (Dose, error)
	ListByOwner(ctx context.Context, ownerUserID string, filter ListFilter) ([]Dose, error)

	// MarkTaken setea taken=true, missed=false solo si taken sigue en false
	// (compare-and-swap). Devuelve false si otra invocación ya la marcó.
	MarkTaken(ctx context.Context, ownerUserID, id string) (bool, error)

	// MarkMissed setea missed=true solo si la toma sigue pendiente
	// (taken=false, missed=false). Si ya no lo está, no escribe nada:
	// taken=true AND missed=true no se persiste nunca.
	MarkMissed(ctx context.Context, ownerUserID, id string) error

	// ListPendingBefore devuelve las tomas pendientes (ni taken ni missed)
	// de todos los usuarios con scheduled_time anterior al corte. Es el
	// insumo del sweep; excluir las ya marcadas lo hace idempotente.
	ListPendingBefore(ctx context.Context, cutoff time.Time) ([]Dose, error)

	Delete(ctx context.Context, ownerUserID, id string) error
}

type ListFilter struct {
	From  *time.Time
	To    *time.Time
	Limit int
}
