package main

import (
	"context"
	"errors"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/rs/zerolog/log"
	"github.com/sangkips/customer-records-service/internal/config"
	"github.com/sangkips/customer-records-service/internal/db"
	"github.com/sangkips/customer-records-service/internal/domains/customers"
	"github.com/sangkips/customer-records-service/internal/domains/events"
	"github.com/sangkips/customer-records-service/internal/health"
	"github.com/sangkips/customer-records-service/internal/queue"
	"github.com/sangkips/customer-records-service/internal/worker"
	"golang.org/x/sync/errgroup"
)

func main() {
	cfg, err := config.LoadConfig()
	if err != nil {
		log.Fatal().Err(err).Msg("failed to load config")
	}

	db, err := db.ConnectAndMigrate(cfg.DBURL)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to connect to database")
	}
	defer db.Close()

	var rabbitMQ *queue.RabbitMQ
	var eventsRepo events.Repository
	if cfg.EventsEnabled {
		rabbitMQ, err = queue.NewRabbitMQ(cfg.RabbitMQURL)
		if err != nil {
			log.Fatal().Err(err).Msg("failed to connect to RabbitMQ")
		}
		defer rabbitMQ.Close()
		eventsRepo = events.NewRepository(db)
	}

	r := chi.NewRouter()
	r.Use(middleware.Logger)
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins: cfg.AllowedOrigins,
		AllowedMethods: []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowedHeaders: []string{"Accept", "Content-Type"},
	}))

	customerHandler := customers.NewHandler(db, eventsRepo)
	r.Route("/api/customers", func(r chi.Router) {
		customerHandler.RegisterCustomerRoutes(r)
	})

	healthHandler := health.NewHandler(db, rabbitMQ)
	r.Get("/health", healthHandler.Health)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	srv := &http.Server{
		Addr:    ":" + cfg.Port,
		Handler: r,
	}

	g, ctx := errgroup.WithContext(ctx)

	if cfg.EventsEnabled {
		relay := worker.NewRelay(eventsRepo, rabbitMQ, cfg.RelayInterval)
		g.Go(func() error {
			relay.Start(ctx)
			return nil
		})
	}

	g.Go(func() error {
		log.Info().Msg("server starting on :" + cfg.Port)
		if err := srv.ListenAndServe(); !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})

	g.Go(func() error {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	})

	if err := g.Wait(); err != nil {
		log.Fatal().Err(err).Msg("server exited with error")
	}
	log.Info().Msg("server stopped")
}
