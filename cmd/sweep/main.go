package main

import (
	"context"
	"flag"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/rs/zerolog/log"

	"github.com/clarionhq/daypress/internal/config"
	"github.com/clarionhq/daypress/internal/repository/postgres"
)

// The sweep marks published content and active coupons whose expiry
// has passed. Sweeps key on current status, so running several sweep
// processes at once is safe; each row is expired exactly once.
func main() {
	interval := flag.Duration("interval", 0, "run continuously at this interval (default: run once)")
	flag.Parse()

	_ = godotenv.Load()

	cfg, err := config.Load()
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to load configuration")
	}

	db, err := postgres.NewDB(context.Background(), cfg.Database)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to connect to database")
	}
	defer db.Close()

	contentRepo := postgres.NewContentRepository(db)
	couponRepo := postgres.NewCouponRepository(db)

	sweep := func(ctx context.Context) {
		now := time.Now()

		expired, err := contentRepo.ExpireDue(ctx, now)
		if err != nil {
			log.Error().Err(err).Msg("Content sweep failed")
		} else if expired > 0 {
			log.Info().Int64("expired", expired).Msg("Content items expired")
		}

		expired, err = couponRepo.ExpireDue(ctx, now)
		if err != nil {
			log.Error().Err(err).Msg("Coupon sweep failed")
		} else if expired > 0 {
			log.Info().Int64("expired", expired).Msg("Coupons expired")
		}
	}

	ctx := context.Background()
	sweep(ctx)

	if *interval <= 0 {
		return
	}

	ticker := time.NewTicker(*interval)
	defer ticker.Stop()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)

	for {
		select {
		case <-ticker.C:
			sweep(ctx)
		case <-quit:
			log.Info().Msg("Sweep stopped")
			return
		}
	}
}
