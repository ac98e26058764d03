package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/ariefcatur/go-lesson-booking.git/internal/booking"
	"github.com/ariefcatur/go-lesson-booking.git/internal/config"
	kafkax "github.com/ariefcatur/go-lesson-booking.git/internal/kafka"
	"github.com/ariefcatur/go-lesson-booking.git/internal/notifier"
	"github.com/ariefcatur/go-lesson-booking.git/internal/redisx"
	"github.com/joho/godotenv"
	"go.uber.org/zap"
)

func main() {
	_ = godotenv.Load()
	cfg := config.Load()

	log, err := zap.NewProduction()
	if err != nil {
		panic(err)
	}
	log = log.With(zap.String("service", cfg.ServiceName+"-notifier"))
	defer func() { _ = log.Sync() }()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// Redis (dedup + cache invalidation)
	rdb := redisx.New(cfg.RedisAddr)
	defer rdb.Close()

	svc := &notifier.Service{
		Redis:       rdb,
		Log:         log,
		ServiceName: cfg.ServiceName + "-notifier",
	}

	cons := kafkax.NewConsumer(cfg.KafkaBrokers, cfg.NotifierGroup, booking.TopicOrderPlaced, cfg.NotifierWorkers, log)

	go func() {
		log.Info("notifier consumer started",
			zap.String("group", cfg.NotifierGroup),
			zap.String("topic", booking.TopicOrderPlaced),
			zap.Int("workers", cfg.NotifierWorkers),
		)
		if err := cons.Start(ctx, svc.HandleOrderPlaced); err != nil {
			log.Error("consumer exit", zap.Error(err))
			cancel()
		}
	}()

	// graceful shutdown
	sig := make(chan os.Signal, 1)
	signal.Notify(sig, syscall.SIGINT, syscall.SIGTERM)
	<-sig
	log.Info("shutting down consumer...")
	cancel()
	time.Sleep(500 * time.Millisecond)
}
