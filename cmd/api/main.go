package main

import (
	"context"
	"flag"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/ariefcatur/go-lesson-booking.git/internal/booking"
	"github.com/ariefcatur/go-lesson-booking.git/internal/config"
	"github.com/ariefcatur/go-lesson-booking.git/internal/httpx"
	kafkax "github.com/ariefcatur/go-lesson-booking.git/internal/kafka"
	"github.com/ariefcatur/go-lesson-booking.git/internal/metrics"
	"github.com/ariefcatur/go-lesson-booking.git/internal/postgres"
	"github.com/ariefcatur/go-lesson-booking.git/internal/redisx"
	"github.com/joho/godotenv"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

func newLogger(level string) *zap.Logger {
	cfg := zap.NewProductionConfig()
	if lvl, err := zapcore.ParseLevel(level); err == nil {
		cfg.Level = zap.NewAtomicLevelAt(lvl)
	}
	log, err := cfg.Build()
	if err != nil {
		panic(err)
	}
	return log
}

func main() {
	_ = godotenv.Load()
	useMem := flag.Bool("mem", false, "in-memory catalog/ledger, tanpa Postgres (dev)")
	flag.Parse()

	cfg := config.Load()
	log := newLogger(cfg.LogLevel).With(zap.String("service", cfg.ServiceName))
	defer func() { _ = log.Sync() }()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	var (
		catalog booking.Catalog
		ledger  booking.Ledger
	)
	if *useMem {
		catalog = booking.NewMemCatalog(
			booking.Lesson{ID: 1, Subject: "Math", Location: "London", PriceCents: 10000, Spaces: 5},
			booking.Lesson{ID: 2, Subject: "English", Location: "Bristol", PriceCents: 8000, Spaces: 5},
			booking.Lesson{ID: 3, Subject: "Music", Location: "Cambridge", PriceCents: 12000, Spaces: 5},
		)
		ledger = booking.NewMemLedger()
		log.Info("running with in-memory stores")
	} else {
		db, err := postgres.Connect(ctx, cfg.PostgresDSN)
		if err != nil {
			log.Fatal("db connect", zap.Error(err))
		}
		defer db.Close()
		catalog = &booking.PgCatalog{DB: db}
		ledger = &booking.PgLedger{DB: db}
	}

	// Redis
	rdb := redisx.New(cfg.RedisAddr)
	defer rdb.Close()

	// Kafka producers (satu per topic)
	pPlaced := kafkax.NewProducer(cfg.KafkaBrokers, booking.TopicOrderPlaced, 1024, log)
	pPlaced.Start(ctx)
	pAdjust := kafkax.NewProducer(cfg.KafkaBrokers, booking.TopicSpacesAdjusted, 1024, log)
	pAdjust.Start(ctx)

	// Engine, metrics & handler
	m := metrics.New()
	engine := booking.NewEngine(catalog, ledger, log)
	router := httpx.NewRouter(m)
	bh := &httpx.BookingHandler{
		Engine:         engine,
		Catalog:        catalog,
		Ledger:         ledger,
		PlacedProducer: pPlaced,
		AdjustProducer: pAdjust,
		Redis:          rdb,
		Metrics:        m,
		Log:            log,
		Service:        cfg.ServiceName,
	}
	bh.Register(router)

	// HTTP server
	srv := &http.Server{Addr: cfg.HTTPAddr, Handler: router}

	// graceful shutdown
	go func() {
		log.Info("HTTP listening", zap.String("addr", cfg.HTTPAddr))
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatal("listen", zap.Error(err))
		}
	}()

	// wait signal
	sig := make(chan os.Signal, 1)
	signal.Notify(sig, syscall.SIGINT, syscall.SIGTERM)
	<-sig
	log.Info("shutting down...")

	ctx2, cancel2 := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel2()
	_ = srv.Shutdown(ctx2)
	pPlaced.Close() // tutup inbox -> flush & close writer
	pAdjust.Close()
	cancel() // stop producer loop
	pPlaced.WaitClosed()
	pAdjust.WaitClosed()
}
