package doses

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
)

var (
	ErrInvalidInput = errors.New("invalid input")
	// ErrInvalidSchedule: la fecha/hora agendada no parsea a un instante válido.
	ErrInvalidSchedule = errors.New("invalid schedule")
	// ErrNextNotCreated: falla parcial de mark-taken. La toma actual quedó
	// marcada pero la siguiente ocurrencia no se pudo crear; el caller puede
	// reintentar solo la creación (tiene todos los campos en la toma devuelta).
	ErrNextNotCreated = errors.New("next occurrence not created")
)

// NextOccurrenceAfter: la recurrencia es "rodar un día al confirmar la toma".
// Cadencia fija diaria; cualquier otra cadencia queda fuera de este diseño.
const NextOccurrenceAfter = 24 * time.Hour

type Service struct {
	repo Repository
	now  func() time.Time
}

func NewService(repo Repository) *Service {
	return &Service{
		repo: repo,
		now:  time.Now,
	}
}

type CreateInput struct {
	MedName      string
	Dosage       string
	TrayLocation string
	ScheduledAt  time.Time
}

func (s *Service) Create(ctx context.Context, ownerUserID string, in CreateInput) (Dose, error) {
	if strings.TrimSpace(ownerUserID) == "" {
		return Dose{}, ErrInvalidInput
	}
	if strings.TrimSpace(in.MedName) == "" {
		return Dose{}, ErrInvalidInput
	}
	if strings.TrimSpace(in.Dosage) == "" {
		return Dose{}, ErrInvalidInput
	}
	if in.ScheduledAt.IsZero() {
		return Dose{}, ErrInvalidSchedule
	}

	d := Dose{
		ID:           uuid.NewString(),
		OwnerUserID:  ownerUserID,
		MedName:      strings.TrimSpace(in.MedName),
		Dosage:       strings.TrimSpace(in.Dosage),
		TrayLocation: strings.TrimSpace(in.TrayLocation),
		ScheduledAt:  in.ScheduledAt,
		Taken:        false,
		Missed:       false,
		CreatedAt:    s.now(),
	}

	if err := s.repo.Create(ctx, d); err != nil {
		return Dose{}, err
	}
	return d, nil
}

func (s *Service) GetByID(ctx context.Context, ownerUserID, id string) (Dose, error) {
	id = strings.TrimSpace(id)
	if id == "" {
		return Dose{}, ErrNotFound
	}
	return s.repo.GetByID(ctx, ownerUserID, id)
}

type ListInput struct {
	// Status filtra por estado DERIVADO (se resuelve contra el reloj al
	// momento de listar, no contra los flags persistidos).
	Status *Status
	From   *time.Time
	To     *time.Time
	Limit  int
}

func (s *Service) ListByOwner(ctx context.Context, ownerUserID string, in ListInput) ([]Dose, error) {
	items, err := s.repo.ListByOwner(ctx, ownerUserID, ListFilter{
		From:  in.From,
		To:    in.To,
		Limit: in.Limit,
	})
	if err != nil {
		return nil, err
	}

	if in.Status == nil {
		return items, nil
	}

	now := s.now()
	out := make([]Dose, 0, len(items))
	for _, d := range items {
		if ResolveStatus(d, now) == *in.Status {
			out = append(out, d)
		}
	}
	return out, nil
}

// StatusOf resuelve el estado de una toma con el reloj del service.
func (s *Service) StatusOf(d Dose) Status {
	return ResolveStatus(d, s.now())
}

type Stats struct {
	Total    int
	Taken    int
	Missed   int
	Due      int
	Upcoming int
}

// StatsByOwner cuenta por estado derivado (los contadores del dashboard).
func (s *Service) StatsByOwner(ctx context.Context, ownerUserID string) (Stats, error) {
	items, err := s.repo.ListByOwner(ctx, ownerUserID, ListFilter{})
	if err != nil {
		return Stats{}, err
	}

	now := s.now()
	st := Stats{Total: len(items)}
	for _, d := range items {
		switch ResolveStatus(d, now) {
		case StatusTaken:
			st.Taken++
		case StatusMissed:
			st.Missed++
		case StatusDue:
			st.Due++
		case StatusUpcoming:
			st.Upcoming++
		}
	}
	return st, nil
}

// MarkTaken confirma la toma y crea la ocurrencia del día siguiente.
// Orden fijo: primero el update (idempotente de reintentar), después el create;
// así nadie observa la siguiente ocurrencia antes de que la actual esté confirmada.
// Devuelve (toma actualizada, siguiente ocurrencia o nil, error).
func (s *Service) MarkTaken(ctx context.Context, ownerUserID, id string) (Dose, *Dose, error) {
	d, err := s.repo.GetByID(ctx, ownerUserID, id)
	if err != nil {
		return Dose{}, nil, err
	}

	// Ya confirmada: no-op, sin duplicar la siguiente ocurrencia.
	if d.Taken {
		return d, nil, nil
	}

	won, err := s.repo.MarkTaken(ctx, ownerUserID, id)
	if err != nil {
		return Dose{}, nil, err
	}

	d.Taken = true
	d.Missed = false

	// Perdimos el swap contra otra invocación concurrente: esa ya creó
	// (o está creando) la siguiente ocurrencia.
	if !won {
		return d, nil, nil
	}

	next := d
	next.ID = uuid.NewString()
	next.ScheduledAt = d.ScheduledAt.Add(NextOccurrenceAfter)
	next.Taken = false
	next.Missed = false
	next.CreatedAt = s.now()

	if err := s.repo.Create(ctx, next); err != nil {
		return d, nil, fmt.Errorf("%w: %v", ErrNextNotCreated, err)
	}

	return d, &next, nil
}

func (s *Service) Delete(ctx context.Context, ownerUserID, id string) error {
	id = strings.TrimSpace(id)
	if id == "" {
		return ErrNotFound
	}
	return s.repo.Delete(ctx, ownerUserID, id)
}
