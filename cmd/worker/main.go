package main

import (
	"context"
	"encoding/json"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/joho/godotenv"
	kafkaGo "github.com/segmentio/kafka-go"
	log "github.com/sirupsen/logrus"

	"github.com/jcalder/tablebook/config"
	"github.com/jcalder/tablebook/internal/email"
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

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	pool, err := pgxpool.New(ctx, cfg.Database.DSN())
	if err != nil {
		log.WithError(err).Fatal("connect postgres")
	}
	defer pool.Close()

	reservationRepo := repository.NewReservationRepository(pool)
	reservationSvc := reservation.NewService(reservationRepo, nil, nil, "")

	consumer := kafka.NewConsumer(cfg.Kafka.Brokers, cfg.Kafka.GroupID, cfg.Kafka.NotificationsTopic)
	defer consumer.Close()

	emailSender := email.NewSender()

	go func() {
		if err := consumer.Consume(ctx, func(ctx context.Context, msg kafkaGo.Message) error {
			var event kafka.ReservationEvent
			if err := json.Unmarshal(msg.Value, &event); err != nil {
				log.WithError(err).Warn("decode event")
				return nil
			}
			return emailSender.Send(ctx, event)
		}); err != nil {
			log.WithError(err).Info("consumer stopped")
		}
	}()

	sweep := time.NewTicker(time.Duration(cfg.Worker.FinishSweepMinutes) * time.Minute)
	defer sweep.Stop()

	sig := make(chan os.Signal, 1)
	signal.Notify(sig, syscall.SIGINT, syscall.SIGTERM)

	for {
		select {
		case <-sweep.C:
			finished, err := reservationSvc.FinishPastSeated(ctx)
			if err != nil {
				log.WithError(err).Error("finish past seated")
				continue
			}
			if len(finished) > 0 {
				log.WithField("count", len(finished)).Info("finished past seated reservations")
			}
		case s := <-sig:
			log.WithField("signal", s.String()).Info("shutting down")
			return
		}
	}
}
