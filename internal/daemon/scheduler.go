package daemon

import (
	"context"
	"fmt"
	"time"

	"github.com/go-co-op/gocron/v2"

	"med-adherence-dashboard/internal/platform/logger"
)

// Scheduler envuelve gocron para correr el sweep de tomas vencidas como
// tarea periódica cancelable, independiente de cualquier superficie de UI.
type Scheduler struct {
	scheduler gocron.Scheduler
	log       logger.Logger
}

func NewScheduler(log logger.Logger) (*Scheduler, error) {
	s, err := gocron.NewScheduler()
	if err != nil {
		return nil, fmt.Errorf("create gocron scheduler: %w", err)
	}
	return &Scheduler{scheduler: s, log: log}, nil
}

// ScheduleSweep registra el sweep: intervalo fijo más una corrida inmediata
// al arrancar el proceso.
func (s *Scheduler) ScheduleSweep(interval time.Duration, sweep func(context.Context)) error {
	_, err := s.scheduler.NewJob(
		gocron.DurationJob(interval),
		gocron.NewTask(func() {
			sweep(context.Background())
		}),
		gocron.WithName("missed-dose-sweep"),
		gocron.WithStartAt(gocron.WithStartImmediately()),
	)
	if err != nil {
		return fmt.Errorf("create sweep job: %w", err)
	}
	return nil
}

func (s *Scheduler) Start() {
	s.log.Info("sweep scheduler started", nil)
	s.scheduler.Start()
}

// Stop corta el timer; un sweep en vuelo termina su lote antes de salir,
// no se aborta a mitad de escritura.
func (s *Scheduler) Stop() error {
	s.log.Info("sweep scheduler stopping", nil)
	return s.scheduler.Shutdown()
}
