package main

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/sergiofbsilva/fenixedu-spaces-migration/modules/spaces/infrastructure/persistence"
	"github.com/sergiofbsilva/fenixedu-spaces-migration/modules/spaces/services"
	"github.com/sergiofbsilva/fenixedu-spaces-migration/pkg/blob"
	"github.com/sergiofbsilva/fenixedu-spaces-migration/pkg/configuration"
	"github.com/sergiofbsilva/fenixedu-spaces-migration/pkg/eventbus"
	"github.com/sergiofbsilva/fenixedu-spaces-migration/pkg/logging"
	"github.com/sergiofbsilva/fenixedu-spaces-migration/pkg/metrics"
)

// app holds what every subcommand needs: configuration, logger, store and bus.
type app struct {
	cfg   *configuration.Configuration
	log   *logrus.Entry
	store *persistence.Store
	bus   *eventbus.Bus
}

func openApp(ctx context.Context, opts *rootOptions) (*app, context.Context, error) {
	cfg, err := configuration.Load(opts.envFiles)
	if err != nil {
		return nil, ctx, withCode(exitUsage, err)
	}
	entry := logrus.NewEntry(cfg.Logger())
	store, err := persistence.OpenStore(ctx, persistence.Config{
		Driver:      cfg.Storage.Driver,
		SQLitePath:  cfg.Storage.SQLitePath,
		PostgresDSN: cfg.Database.Opts,
	})
	if err != nil {
		cfg.Unload()
		return nil, ctx, withCode(exitStore, fmt.Errorf("open store: %w", err))
	}
	entry = entry.WithField("storage", store.Driver())
	a := &app{cfg: cfg, log: entry, store: store, bus: eventbus.New(entry)}
	return a, logging.WithLogger(ctx, entry), nil
}

func (a *app) Close() {
	if err := a.store.Close(); err != nil {
		a.log.WithError(err).Warn("close store")
	}
	a.cfg.Unload()
}

// blobStore opens location with the configured blob driver.
func (a *app) blobStore(ctx context.Context, location string) (blob.Store, error) {
	if strings.TrimSpace(location) == "" {
		return nil, withCode(exitUsage, fmt.Errorf("empty location"))
	}
	b := a.cfg.Blob
	store, err := blob.Open(ctx, blob.Options{
		Driver:    b.Driver,
		Bucket:    b.Bucket,
		Prefix:    b.Prefix,
		Region:    b.Region,
		Endpoint:  b.Endpoint,
		PathStyle: b.PathStyle,
	}, location)
	if err != nil {
		return nil, withCode(exitStore, fmt.Errorf("open %s: %w", location, err))
	}
	return store, nil
}

func (a *app) metadataSpecs() (services.MetadataSpecCatalog, error) {
	specs, err := services.LoadMetadataSpecs(a.cfg.Spaces.MetadataSpecsPath)
	if err != nil {
		return nil, withCode(exitUsage, err)
	}
	return specs, nil
}

// startMetrics serves the metrics endpoint when configured. The returned func
// stops it and dumps the textfile, if any.
func (a *app) startMetrics(ctx context.Context) (func(), error) {
	m := a.cfg.Metrics
	var srv *metrics.Server
	if m.Addr != "" {
		s, err := metrics.Serve(ctx, m.Addr, m.Path)
		if err != nil {
			return nil, withCode(exitUsage, fmt.Errorf("metrics: %w", err))
		}
		a.log.WithField("addr", s.Addr()).Info("serving metrics")
		srv = s
	}
	return func() {
		if srv != nil {
			shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()
			if err := srv.Shutdown(shutdownCtx); err != nil {
				a.log.WithError(err).Warn("metrics shutdown")
			}
		}
		if m.Textfile != "" {
			if err := metrics.WriteTextfile(m.Textfile); err != nil {
				a.log.WithError(err).Warn("metrics textfile")
			}
		}
	}, nil
}

// migrationExitCode maps a pipeline error to the exit code of its kind.
func migrationExitCode(err error) int {
	if _, ok := services.KindOf(err); ok {
		return exitValidation
	}
	return exitStoreWrite
}
