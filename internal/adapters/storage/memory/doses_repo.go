package memory

import (
	"context"
	"errors"
	"sort"
	"strings"
	"sync"
	"time"

	"med-adherence-dashboard/internal/domain/doses"
)

// doseKey replica el keying del document store real: (usuario, toma).
type doseKey struct {
	owner string
	id    string
}

type doseRepo struct {
	mu   sync.RWMutex
	byID map[doseKey]doses.Dose
}

func NewDoseRepo() doses.Repository {
	return &doseRepo{
		byID: make(map[doseKey]doses.Dose),
	}
}

func (r *doseRepo) Create(ctx context.Context, d doses.Dose) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if strings.TrimSpace(d.ID) == "" {
		return errors.New("dose id required")
	}
	if strings.TrimSpace(d.OwnerUserID) == "" {
		return errors.New("owner user id required")
	}

	k := doseKey{owner: d.OwnerUserID, id: d.ID}
	if _, exists := r.byID[k]; exists {
		return errors.New("dose already exists")
	}
	r.byID[k] = d
	return nil
}

func (r *doseRepo) GetByID(ctx context.Context, ownerUserID, id string) (doses.Dose, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	d, ok := r.byID[doseKey{owner: ownerUserID, id: id}]
	if !ok {
		return doses.Dose{}, doses.ErrNotFound
	}
	return d, nil
}

func (r *doseRepo) ListByOwner(ctx context.Context, ownerUserID string, filter doses.ListFilter) ([]doses.Dose, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	out := make([]doses.Dose, 0)
	for k, d := range r.byID {
		if k.owner != ownerUserID {
			continue
		}
		if filter.From != nil && d.ScheduledAt.Before(*filter.From) {
			continue
		}
		if filter.To != nil && d.ScheduledAt.After(*filter.To) {
			continue
		}
		out = append(out, d)
	}

	// Orden por scheduled_time asc, igual que el dashboard
	sort.Slice(out, func(i, j int) bool {
		return out[i].ScheduledAt.Before(out[j].ScheduledAt)
	})

	if filter.Limit > 0 && len(out) > filter.Limit {
		out = out[:filter.Limit]
	}

	return out, nil
}

func (r *doseRepo) MarkTaken(ctx context.Context, ownerUserID, id string) (bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	k := doseKey{owner: ownerUserID, id: id}
	d, ok := r.byID[k]
	if !ok {
		return false, doses.ErrNotFound
	}
	if d.Taken {
		// swap perdido: ya estaba confirmada
		return false, nil
	}

	d.Taken = true
	d.Missed = false
	r.byID[k] = d
	return true, nil
}

func (r *doseRepo) MarkMissed(ctx context.Context, ownerUserID, id string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	k := doseKey{owner: ownerUserID, id: id}
	d, ok := r.byID[k]
	if !ok {
		return doses.ErrNotFound
	}
	// Solo tomas todavía pendientes; nunca taken=true AND missed=true.
	if d.Taken || d.Missed {
		return nil
	}

	d.Missed = true
	r.byID[k] = d
	return nil
}

func (r *doseRepo) ListPendingBefore(ctx context.Context, cutoff time.Time) ([]doses.Dose, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	out := make([]doses.Dose, 0)
	for _, d := range r.byID {
		if d.Taken || d.Missed {
			continue
		}
		if !d.ScheduledAt.Before(cutoff) {
			continue
		}
		out = append(out, d)
	}

	sort.Slice(out, func(i, j int) bool {
		return out[i].ScheduledAt.Before(out[j].ScheduledAt)
	})

	return out, nil
}

func (r *doseRepo) Delete(ctx context.Context, ownerUserID, id string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	k := doseKey{owner: ownerUserID, id: id}
	if _, ok := r.byID[k]; !ok {
		return doses.ErrNotFound
	}
	delete(r.byID, k)
	return nil
}
