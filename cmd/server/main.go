// Command server runs the herdwatch API. main wires configuration, stores,
// services, and the HTTP router; business logic lives in the internal
// packages.
package main

import (
	"context"
	"database/sql"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus"

	"herdwatch/internal/alert"
	"herdwatch/internal/animal"
	"herdwatch/internal/audit"
	"herdwatch/internal/auth"
	"herdwatch/internal/disease"
	"herdwatch/internal/farm"
	"herdwatch/internal/jwttoken"
	"herdwatch/internal/milk"
	"herdwatch/internal/platform/config"
	"herdwatch/internal/platform/httpserver"
	"herdwatch/internal/platform/logger"
	"herdwatch/internal/platform/metrics"
	"herdwatch/internal/platform/postgres"
	"herdwatch/internal/platform/redis"
	"herdwatch/internal/prediction"
	"herdwatch/internal/report"
	httptransport "herdwatch/internal/transport/http"
)

// farmStore is the union of what the feature services need from farm
// persistence. Both concrete farm stores satisfy it.
type farmStore interface {
	farm.Store
	animal.FarmStore
	alert.FarmStore
}

func main() {
	cfg := config.FromEnv()
	log := logger.New()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, cfg, log); err != nil {
		log.Error("server exited", "error", err.Error())
		os.Exit(1)
	}
}

func run(ctx context.Context, cfg config.Config, log *slog.Logger) error {
	var (
		users    auth.UserStore = auth.NewInMemoryUserStore()
		farms    farmStore      = farm.NewInMemoryStore()
		animals  animal.Store   = animal.NewInMemoryStore()
		milkRecs milk.Store     = milk.NewInMemoryStore()
		diseases disease.Store  = disease.NewInMemoryStore()
		alerts   alert.Store    = alert.NewInMemoryStore()
	)

	var db *sql.DB
	if cfg.DatabaseURL != "" {
		var err error
		db, err = postgres.Open(ctx, cfg.DatabaseURL)
		if err != nil {
			return err
		}
		defer db.Close()
		users = auth.NewPostgresUserStore(db)
		farms = farm.NewPostgresStore(db)
		animals = animal.NewPostgresStore(db)
		milkRecs = milk.NewPostgresStore(db)
		diseases = disease.NewPostgresStore(db)
		alerts = alert.NewPostgresStore(db)
		log.Info("using postgres persistence")
	} else {
		log.Warn("DATABASE_URL not set, using in-memory stores")
	}

	var publisher audit.Publisher = audit.NopPublisher{}
	if len(cfg.KafkaBrokers) > 0 {
		kp, err := audit.NewKafkaPublisher(cfg.KafkaBrokers, cfg.AuditTopic, log)
		if err != nil {
			return err
		}
		defer func() {
			closeCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()
			_ = kp.Close(closeCtx)
		}()
		publisher = kp
		log.Info("audit publisher enabled", "topic", cfg.AuditTopic)
	}

	rdb, err := redis.New(ctx, cfg.RedisURL)
	if err != nil {
		return err
	}
	var cache *prediction.Cache
	if rdb != nil {
		defer rdb.Close()
		cache = prediction.NewCache(rdb.Client, cfg.PredictionCacheTTL)
		log.Info("prediction cache enabled", "ttl", cfg.PredictionCacheTTL.String())
	}

	tokens := jwttoken.NewService(cfg.JWTSigningKey, cfg.JWTIssuer, cfg.AccessTokenTTL)

	authSvc := auth.New(users, tokens, log, auth.WithAuditPublisher(publisher))
	farmSvc := farm.New(farms, log, farm.WithAuditPublisher(publisher))
	animalSvc := animal.New(animals, farms, log, animal.WithAuditPublisher(publisher))
	milkSvc := milk.New(milkRecs, animalSvc, log, milk.WithAuditPublisher(publisher))
	alertSvc := alert.New(alerts, farms, log, alert.WithAuditPublisher(publisher))
	diseaseSvc := disease.New(diseases, animalSvc, alertSvc, log, disease.WithAuditPublisher(publisher))
	reportSvc := report.New(farmSvc, animalSvc, milkSvc, diseaseSvc, alertSvc, log)

	models := prediction.LoadModels(cfg.ModelDir, log)
	predSvc := prediction.New(models, log,
		prediction.WithCache(cache),
		prediction.WithMetrics(prediction.NewMetrics(prometheus.DefaultRegisterer)),
		prediction.WithMockMode(cfg.MockMode),
	)

	handlers := httptransport.Handlers{
		Auth:       auth.NewHandler(authSvc, log),
		Farm:       farm.NewHandler(farmSvc, log),
		Animal:     animal.NewHandler(animalSvc, log),
		Milk:       milk.NewHandler(milkSvc, log),
		Disease:    disease.NewHandler(diseaseSvc, log),
		Alert:      alert.NewHandler(alertSvc, log),
		Report:     report.NewHandler(reportSvc, log),
		Prediction: prediction.NewHandler(predSvc, animalSvc, diseaseSvc, log, prediction.WithAuditPublisher(publisher)),
	}

	router := httptransport.NewRouter(handlers, tokens, metrics.New(), log)
	srv := httpserver.New(cfg.Addr, router)

	errCh := make(chan error, 1)
	go func() {
		log.Info("starting herdwatch", "addr", cfg.Addr, "mock_mode", cfg.MockMode)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	log.Info("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	return srv.Shutdown(shutdownCtx)
}
