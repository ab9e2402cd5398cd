package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"med-adherence-dashboard/internal/adapters/auth/healthid"
	mem "med-adherence-dashboard/internal/adapters/storage/memory"
	pg "med-adherence-dashboard/internal/adapters/storage/postgres"
	"med-adherence-dashboard/internal/config"
	"med-adherence-dashboard/internal/daemon"
	"med-adherence-dashboard/internal/domain/doses"
	"med-adherence-dashboard/internal/platform/logger"
	"med-adherence-dashboard/internal/ports/auth"
	"med-adherence-dashboard/internal/router"
)

func main() {
	cfg := config.Load()
	log := logger.NewFromEnv()

	var repo doses.Repository
	if cfg.DatabaseDSN != "" {
		db, err := pg.Open(cfg.DatabaseDSN)
		if err != nil {
			log.Error("postgres open failed", map[string]any{"err": err.Error()})
			os.Exit(1)
		}
		defer db.Close()
		repo = pg.NewDosesRepo(db)
		log.Info("storage: postgres", nil)
	} else {
		repo = mem.NewDoseRepo()
		log.Info("storage: in-memory (modo dev)", nil)
	}

	var verifier auth.AuthVerifier
	if cfg.HealthIDBaseURL != "" {
		client, err := healthid.NewClient(healthid.Config{
			BaseURL: cfg.HealthIDBaseURL,
			APIKey:  cfg.HealthIDAPIKey,
		})
		if err != nil {
			log.Error("healthid client init failed", map[string]any{"err": err.Error()})
			os.Exit(1)
		}
		verifier = healthid.NewVerifier(client)
	}

	sweeper := doses.NewSweeper(repo, log)

	sched, err := daemon.NewScheduler(log)
	if err != nil {
		log.Error("scheduler init failed", map[string]any{"err": err.Error()})
		os.Exit(1)
	}
	if err := sched.ScheduleSweep(cfg.SweepInterval, func(ctx context.Context) {
		// Las fallas por toma ya quedan logueadas por el sweeper.
		_, _ = sweeper.Sweep(ctx)
	}); err != nil {
		log.Error("schedule sweep failed", map[string]any{"err": err.Error()})
		os.Exit(1)
	}
	sched.Start()

	r := router.NewRouter(router.Options{
		AuthVerifier: verifier,
		Repo:         repo,
	})

	srv := &http.Server{
		Addr:         cfg.Addr,
		Handler:      r,
		ReadTimeout:  5 * time.Second,
		WriteTimeout: 10 * time.Second,
	}

	go func() {
		log.Info("starting server", map[string]any{"addr": cfg.Addr, "sweep_interval": cfg.SweepInterval.String()})
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Error("server error", map[string]any{"err": err.Error()})
			os.Exit(1)
		}
	}()

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, os.Interrupt, syscall.SIGTERM)
	<-stop

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	_ = srv.Shutdown(ctx)
	// Shutdown deja terminar un sweep en vuelo antes de salir.
	if err := sched.Stop(); err != nil {
		log.Warn("scheduler stop", map[string]any{"err": err.Error()})
	}

	log.Info("server stopped", nil)
}
