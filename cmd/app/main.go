package main

import (
	"context"
	"errors"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/joho/godotenv"
	log "github.com/sirupsen/logrus"

	"github.com/jcalder/tablebook/config"
	"github.com/jcalder/tablebook/internal/bootstrap"
	"github.com/jcalder/tablebook/internal/cache"
	"github.com/jcalder/tablebook/internal/kafka"
	"github.com/jcalder/tablebook/internal/repository"
	"github.com/jcalder/tablebook/internal/service/reservation"
)

func main() {
	log.SetFormatter(&log.TextFormatter{FullTimestamp: true})
	_ = godotenv.Load()

	cfgPath := os.Getenv("CONFIG_PATH")
	if cfgPath == "" {
		cfgPath = "config.yaml"
	}

	cfg, err := config.LoadConfig(cfgPath)
	if err != nil {
		log.WithError(err).Fatal("load config")
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	pool, err := pgxpool.New(ctx, cfg.Database.DSN())
	if err != nil {
		log.WithError(err).Fatal("connect postgres")
	}
	defer pool.Close()

	dayCache := cache.NewRedisCache(cfg.Redis, time.Duration(cfg.Cache.DayListTTLSeconds)*time.Second)
	producer := kafka.NewProducer(cfg.Kafka.Brokers)
	defer producer.Close()

	reservationRepo := repository.NewReservationRepository(pool)
	reservationSvc := reservation.NewService(
		reservationRepo,
		dayCache,
		producer,
		cfg.Kafka.ReservationsTopic,
		reservation.WithNotificationsTopic(cfg.Kafka.NotificationsTopic),
	)

	log.WithField("address", cfg.HTTP.Address).Info("starting reservation service")
	if err := bootstrap.Run(ctx, cfg, reservationSvc); err != nil && !errors.Is(err, context.Canceled) {
		log.WithError(err).Fatal("server error")
	}
}
