package main

import (
	"errors"
	"flag"
	"strings"

	"github.com/golang-migrate/migrate/v4"
	_ "github.com/golang-migrate/migrate/v4/database/pgx/v5"
	_ "github.com/golang-migrate/migrate/v4/source/file"
	"github.com/joho/godotenv"
	"github.com/rs/zerolog/log"

	"github.com/clarionhq/daypress/internal/config"
)

func main() {
	down := flag.Bool("down", false, "roll back all migrations")
	steps := flag.Int("steps", 0, "apply exactly n migrations (negative rolls back)")
	flag.Parse()

	_ = godotenv.Load()

	cfg, err := config.Load()
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to load configuration")
	}

	// The pgx/v5 migrate driver registers the pgx5 URL scheme
	dsn := strings.Replace(cfg.Database.DSN(), "postgres://", "pgx5://", 1)

	m, err := migrate.New("file://migrations", dsn)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to initialize migrations")
	}
	defer m.Close()

	switch {
	case *steps != 0:
		err = m.Steps(*steps)
	case *down:
		err = m.Down()
	default:
		err = m.Up()
	}

	if err != nil {
		if errors.Is(err, migrate.ErrNoChange) {
			log.Info().Msg("No migrations to apply")
			return
		}
		log.Fatal().Err(err).Msg("Migration failed")
	}

	log.Info().Msg("Migrations applied")
}
