// Command backoffice runs the back-office change log HTTP service.
package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/sirupsen/logrus"
	"golang.org/x/sync/errgroup"

	"github.com/orderdesk/backoffice/internal/api"
	"github.com/orderdesk/backoffice/internal/config"
	"github.com/orderdesk/backoffice/internal/db"
	"github.com/orderdesk/backoffice/internal/db/migrations"
	"github.com/orderdesk/backoffice/internal/dbpool"
	"github.com/orderdesk/backoffice/internal/service"
	"github.com/orderdesk/backoffice/internal/snapshot"
	"github.com/orderdesk/backoffice/internal/store"
	"github.com/orderdesk/backoffice/internal/ws"
)

const shutdownTimeout = 10 * time.Second

func main() {
	log := logrus.New()
	log.SetFormatter(&logrus.JSONFormatter{})
	log.SetOutput(os.Stdout)

	if err := run(log); err != nil {
		log.WithError(err).Fatal("service exited")
	}
}

func run(log *logrus.Logger) error {
	cfg, err := config.Load()
	if err != nil {
		return err
	}

	level, err := logrus.ParseLevel(cfg.LogLevel)
	if err != nil {
		return err
	}
	log.SetLevel(level)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	pool, err := dbpool.NewPool(ctx, cfg.DatabaseURL.Value())
	if err != nil {
		return err
	}
	defer pool.Close()

	if err := db.RunMigrations(ctx, pool, log, migrations.FS); err != nil {
		return err
	}

	log.WithFields(logrus.Fields{
		"version":        config.Version,
		"schema_version": db.SchemaVersion(),
		"addr":           cfg.Addr(),
	}).Info("starting back-office change log service")

	base := store.Base{Pool: pool, Log: log}
	entities := store.NewEntityStore(base)
	ledger := store.NewChangeLogStore(base)

	collector := snapshot.NewCollector(entities, log)
	recorder := service.NewRecorder(ledger, entities, collector, log)
	propagator := service.NewPropagator(recorder, entities, collector, log)
	query := service.NewQueryService(ledger, entities, log)
	admin := service.NewAdminService(ledger, log)

	hub := ws.NewHub(log)
	bridge := db.NewNotifyBridge(log, pool, hub)
	if err := bridge.Start(ctx); err != nil {
		return err
	}

	router := api.NewRouter(ctx, &api.RouterDeps{
		Log:           log,
		Pool:          pool,
		Hub:           hub,
		Recorder:      recorder,
		Propagator:    propagator,
		Query:         query,
		Admin:         admin,
		CORSOrigins:   cfg.CORSOrigins,
		Version:       config.Version,
		RetentionDays: cfg.RetentionDays,
	})

	srv := &http.Server{
		Addr:              cfg.Addr(),
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		hub.Run(gctx)

		return nil
	})

	g.Go(func() error {
		log.WithField("addr", srv.Addr).Info("http server listening")

		if err := srv.ListenAndServe(); !errors.Is(err, http.ErrServerClosed) {
			return err
		}

		return nil
	})

	g.Go(func() error {
		<-gctx.Done()
		log.Info("shutting down")

		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()

		return srv.Shutdown(shutdownCtx)
	})

	err = g.Wait()
	if err != nil && !errors.Is(err, context.Canceled) {
		return err
	}

	log.Info("shutdown complete")

	return nil
}
