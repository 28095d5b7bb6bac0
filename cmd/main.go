package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log"
	"os"
	"os/signal"
	"sync"
	"syscall"
	"time"

	httpctx "github.com/dtroode/leads-server/internal/api/http/context"
	"github.com/dtroode/leads-server/internal/api/http/router"
	httpserver "github.com/dtroode/leads-server/internal/api/http/server"
	"github.com/dtroode/leads-server/internal/config"
	"github.com/dtroode/leads-server/internal/logger"
	"github.com/dtroode/leads-server/internal/metrics"
	"github.com/dtroode/leads-server/internal/model"
	"github.com/dtroode/leads-server/internal/server"
	"github.com/dtroode/leads-server/internal/service"
	"github.com/dtroode/leads-server/internal/storage/blob"
	"github.com/dtroode/leads-server/internal/storage/file"
	"github.com/dtroode/leads-server/internal/storage/selector"
	"github.com/dtroode/leads-server/internal/validation"
)

var (
	buildVersion = "N/A" // set by ldflags
	buildDate    = "N/A" // set by ldflags
	buildCommit  = "N/A" // set by ldflags
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM, syscall.SIGQUIT, os.Interrupt)
	defer stop()

	cfg, err := config.NewConfig()
	if err != nil {
		log.Fatalf("failed to parse config: %v", err)
	}
	logger := logger.New(cfg.LogLevel)

	var m *metrics.Metrics
	if cfg.MetricsEnabled {
		m = metrics.New()
	}

	var closers closerSet
	defer func() {
		if err := closers.Close(); err != nil {
			logger.Error("failed to close remote store", "error", err)
		}
	}()

	fileBackend := metrics.Instrument(file.NewBackend(cfg.Leads.SeedFile, cfg.Leads.StorageFile, logger), m)
	seed := file.NewSeed(cfg.Leads.SeedFile)

	remoteFactory := func(ctx context.Context) (model.Backend, error) {
		store, closer, err := selector.OpenStore(ctx, cfg)
		if err != nil {
			return nil, fmt.Errorf("failed to open %s store: %w", cfg.Blob.Driver, err)
		}
		closers.Add(closer)
		return metrics.Instrument(blob.NewBackend(store, seed, logger.With("driver", cfg.Blob.Driver)), m), nil
	}

	backendSelector := selector.New(cfg.Blob.Enabled, remoteFactory, fileBackend, logger)
	logger.Info("storage ready", "backend", backendSelector.Resolve(ctx).Name())

	leadService := service.NewLead(backendSelector, logger)

	r := router.New(
		router.Config{
			PathPrefix:    cfg.HTTP.PathPrefix,
			StaticDir:     cfg.HTTP.StaticDir,
			AdminUser:     cfg.Admin.User,
			AdminPassword: cfg.Admin.Password,
		},
		leadService,
		backendSelector,
		validation.New(),
		httpctx.NewManager(),
		m,
		logger,
	)

	httpServer := httpserver.NewHTTPServer(
		r.Register(),
		fmt.Sprintf(":%s", cfg.HTTP.Port),
		cfg.HTTP.ReadTimeout,
		cfg.HTTP.WriteTimeout,
	)

	var sl model.SecurityLayer

	if cfg.HTTP.EnableHTTPS {
		sl = server.NewTLSListener(cfg.HTTP.CertFileName, cfg.HTTP.PrivateKeyFileName)
	} else {
		sl = server.NewPlainListener()
	}

	var wg sync.WaitGroup
	wg.Add(1)
	go func(s model.Server) {
		defer wg.Done()
		logger.Info("Starting server on", "address", s.Address())
		err := s.Start(sl)
		if err != nil {
			logger.Error("failed to start server", "error", err)
			stop()
		}
	}(httpServer)

	logAppVersion()

	<-ctx.Done()
	logger.Info("received interruption signal, shutting down")

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()

	if err := httpServer.Stop(shutdownCtx); err != nil {
		logger.Error("error during server shutdown", "error", err, "address", httpServer.Address())
	}

	wg.Wait()
	logger.Info("shutdown complete")
}

func logAppVersion() {
	tmpl := `
Build version: %s
Build date: %s
Build commit: %s
`

	fmt.Printf(tmpl, buildVersion, buildDate, buildCommit)
}

// closerSet collects remote store connections opened during the process.
type closerSet struct {
	mu      sync.Mutex
	closers []io.Closer
}

func (c *closerSet) Add(closer io.Closer) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.closers = append(c.closers, closer)
}

func (c *closerSet) Close() error {
	c.mu.Lock()
	defer c.mu.Unlock()

	var errs []error
	for _, closer := range c.closers {
		if err := closer.Close(); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}
