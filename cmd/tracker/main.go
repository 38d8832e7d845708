// Copyright 2024 New Vector Ltd.
//
// SPDX-License-Identifier: AGPL-3.0-only OR LicenseRef-Element-Commercial
// Please see LICENSE files in the repository root for full details.

// Command tracker is the room-server process: it loads rando data, opens
// the configured connection adapters and persistence backend, and serves
// the HTTP/WebSocket surface. Startup proceeds config load, logging setup,
// storage, HTTP server, then signal-driven graceful shutdown.
package main

import (
	"context"
	"flag"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/MFAshby/stdemuxerhook"
	"github.com/getsentry/sentry-go"
	"github.com/opentracing/opentracing-go"
	"github.com/sirupsen/logrus"
	jaegercfg "github.com/uber/jaeger-client-go/config"

	"github.com/fenhl/oottracker-go/internal/cells"
	"github.com/fenhl/oottracker-go/internal/config"
	"github.com/fenhl/oottracker-go/internal/connection"
	"github.com/fenhl/oottracker-go/internal/knowledge"
	"github.com/fenhl/oottracker-go/internal/model"
	"github.com/fenhl/oottracker-go/internal/ram"
	"github.com/fenhl/oottracker-go/internal/randodata"
	"github.com/fenhl/oottracker-go/internal/roomserver"
	"github.com/fenhl/oottracker-go/internal/save"
)

func main() {
	configPath := flag.String("config", "tracker.yaml", "path to the tracker's YAML config document")
	flag.Parse()

	cfg, err := config.Load(*configPath)
	if err != nil {
		logrus.WithError(err).Fatal("tracker: failed to load configuration")
	}

	log := setupLogging(cfg.Logging)
	closeSentry := setupSentry(cfg.Sentry)
	defer closeSentry()
	closeTracing := setupTracing(cfg.Tracing)
	defer closeTracing()

	roomserver.RegisterMetrics()

	data, err := randodata.Load(cfg.RandoData.SourceDir)
	if err != nil {
		log.WithError(err).Fatal("tracker: failed to load rando data")
	}
	log.WithField("regions", len(data.Regions)).Info("tracker: rando data loaded")

	registry := roomserver.NewCellRegistry(cells.Default)

	storage, err := openStorage(cfg.Database)
	if err != nil {
		log.WithError(err).Fatal("tracker: failed to open room storage")
	}
	defer func() {
		if err := storage.Close(); err != nil {
			log.WithError(err).Warn("tracker: error closing storage")
		}
	}()

	var bus *roomserver.Bus
	if cfg.NATS.Enabled {
		bus, err = roomserver.NewBus(cfg.NATS.URL, cfg.NATS.Subject, log)
		if err != nil {
			log.WithError(err).Fatal("tracker: failed to connect to nats")
		}
		defer bus.Close()
	}

	hub := roomserver.NewHub(registry, storage, bus, log)

	tcpConn := connection.NewTCP(cfg.Listener.TCPBindAddress)
	defaultRoom, err := hub.RoomOrCreate("local", cfg.Database.SaveInterval, blankModelState)
	if err != nil {
		log.WithError(err).Fatal("tracker: failed to open default local room")
	}
	go roomserver.PumpConnection(tcpConn, defaultRoom)

	router := roomserver.NewRouter(hub, cfg.Database.SaveInterval)
	httpServer := &http.Server{
		Addr:              cfg.Listener.BindAddress,
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		log.WithField("addr", cfg.Listener.BindAddress).Info("tracker: serving HTTP/WebSocket")
		if err := httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.WithError(err).Error("tracker: http server stopped")
		}
	}()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, os.Interrupt, syscall.SIGTERM)
	<-sigCh
	log.Info("tracker: received shutdown signal, flushing dirty rooms")

	hub.ForceSaveAll()

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := httpServer.Shutdown(shutdownCtx); err != nil {
		log.WithError(err).Warn("tracker: error during http shutdown")
	}
}

// blankModelState builds a fresh vanilla ModelState, the same way the HTTP
// "create room" handler does (roomserver.Hub.handleCreateRoom), duplicated
// here because the default local room is opened before any HTTP request
// arrives.
func blankModelState() *model.ModelState {
	return &model.ModelState{
		Knowledge:  knowledge.New(),
		Ram:        &ram.Ram{Save: save.NewFresh()},
		TrackerCtx: model.NewTrackerCtx(),
	}
}

func setupLogging(cfg config.Logging) *logrus.Entry {
	level, err := logrus.ParseLevel(cfg.Level)
	if err != nil {
		level = logrus.InfoLevel
	}
	logrus.SetLevel(level)
	if cfg.JSON {
		logrus.SetFormatter(&logrus.JSONFormatter{})
	}
	// Route Info-and-below to stdout, Warn-and-above to stderr, matching
	// dendrite's internal.SetupStdLogging/SetupHookLogging split.
	logrus.SetOutput(os.Stdout)
	logrus.AddHook(stdemuxerhook.New(logrus.StandardLogger()))
	return logrus.WithField("component", "tracker")
}

func setupSentry(cfg config.Sentry) func() {
	if !cfg.Enabled {
		return func() {}
	}
	if err := sentry.Init(sentry.ClientOptions{Dsn: cfg.DSN}); err != nil {
		logrus.WithError(err).Warn("tracker: failed to initialize sentry, continuing without crash reporting")
		return func() {}
	}
	return func() { sentry.Flush(2 * time.Second) }
}

func setupTracing(cfg config.Tracing) func() {
	if !cfg.Enabled {
		return func() {}
	}
	jcfg := jaegercfg.Configuration{
		ServiceName: cfg.ServiceName,
		Sampler:     &jaegercfg.SamplerConfig{Type: "const", Param: 1},
		Reporter:    &jaegercfg.ReporterConfig{LogSpans: false, LocalAgentHostPort: cfg.AgentAddr},
	}
	tracer, closer, err := jcfg.NewTracer()
	if err != nil {
		logrus.WithError(err).Warn("tracker: failed to initialize jaeger tracer, continuing without tracing")
		return func() {}
	}
	opentracing.SetGlobalTracer(tracer)
	return func() { _ = closer.Close() }
}

func openStorage(cfg config.Database) (roomserver.Storage, error) {
	ctx := context.Background()
	if isPostgresDSN(cfg.ConnectionString) {
		return roomserver.NewPostgresStorage(ctx, cfg.ConnectionString, cfg.MaxOpenConns, cfg.MaxIdleConns)
	}
	return roomserver.NewSQLiteStorage(ctx, roomserver.SQLiteDriverName, sqliteDSN(cfg.ConnectionString))
}

func isPostgresDSN(s string) bool {
	return strings.HasPrefix(s, "postgres://") || strings.HasPrefix(s, "postgresql://")
}

func sqliteDSN(s string) string {
	return strings.TrimPrefix(s, "file:")
}
