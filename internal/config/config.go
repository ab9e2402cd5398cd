package config

import (
	"os"
	"time"

	"github.com/joho/godotenv"
)

// DefaultSweepInterval: cada cuánto corre el sweep de tomas vencidas.
const DefaultSweepInterval = 30 * time.Minute

type Config struct {
	Addr          string
	DatabaseDSN   string
	SweepInterval time.Duration

	// Verificador externo de tokens (opcional; sin esto el server corre en modo dev)
	HealthIDBaseURL string
	HealthIDAPIKey  string
}

func Load() Config {
	// .env es opcional; en prod todo viene del entorno
	_ = godotenv.Load()

	addr := ":8080"
	if v := os.Getenv("PORT"); v != "" {
		addr = ":" + v
	}

	interval := DefaultSweepInterval
	if v := os.Getenv("SWEEP_INTERVAL"); v != "" {
		if d, err := time.ParseDuration(v); err == nil && d > 0 {
			interval = d
		}
	}

	return Config{
		Addr:            addr,
		DatabaseDSN:     os.Getenv("DB_DSN"),
		SweepInterval:   interval,
		HealthIDBaseURL: os.Getenv("HEALTHID_BASE_URL"),
		HealthIDAPIKey:  os.Getenv("HEALTHID_API_KEY"),
	}
}
