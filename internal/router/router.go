package router

import (
	"database/sql"
	"net/http"
	"os"

	mem "med-adherence-dashboard/internal/adapters/storage/memory"
	pg "med-adherence-dashboard/internal/adapters/storage/postgres"
	"med-adherence-dashboard/internal/domain/doses"
	"med-adherence-dashboard/internal/middleware"
	"med-adherence-dashboard/internal/ports/auth"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
)

type Options struct {
	AuthVerifier auth.AuthVerifier // puede ser nil (modo dev)

	// Opcional: repo ya construido. main lo pasa para compartirlo con el
	// sweeper; si no viene, se usa Postgres (DB explícita o env) o in-memory.
	Repo doses.Repository
	DB   *sql.DB
}

func NewRouter(opts Options) http.Handler {
	r := chi.NewRouter()

	r.Use(chimw.RequestID)
	r.Use(chimw.RealIP)
	r.Use(chimw.Recoverer)

	r.Use(middleware.AuthContext(opts.AuthVerifier))

	r.Get("/health", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ok"))
	})

	repo := opts.Repo
	if repo == nil {
		// Si no te pasan DB explícita, intenta por env (para dev/handoff)
		db := opts.DB
		if db == nil {
			if dsn := os.Getenv("DB_DSN"); dsn != "" {
				opened, err := pg.Open(dsn)
				if err == nil {
					db = opened
				}
			}
		}

		if db != nil {
			repo = pg.NewDosesRepo(db)
		} else {
			repo = mem.NewDoseRepo()
		}
	}

	svc := doses.NewService(repo)
	doses.RegisterRoutes(r, svc)

	return r
}
