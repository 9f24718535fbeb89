// Package app wires the record and tag stores over one kv backend and
// loads them at process start.
package app

import (
	"context"
	"fmt"

	"golang.org/x/sync/errgroup"

	"moneytracker/internal/backend"
	"moneytracker/internal/backup"
	"moneytracker/internal/core"
	"moneytracker/internal/kv"
	"moneytracker/internal/log"
	"moneytracker/internal/metrics"
	"moneytracker/internal/store"
)

// App owns the stores shared by every request handler.
type App struct {
	Records *store.RecordStore
	Tags    *store.TagStore

	backend *backend.BackendResult
	logger  *log.Logger
}

var _ backup.Ledger = (*App)(nil)

// New builds both stores on the backend's records, tags and settings
// namespaces. Extra options are passed to both stores.
func New(res *backend.BackendResult, logger *log.Logger, m *metrics.Metrics, opts ...store.Option) *App {
	if logger == nil {
		logger = log.Default(log.ComponentApp)
	}
	storeOpts := append([]store.Option{store.WithLogger(logger), store.WithMetrics(m)}, opts...)
	return &App{
		Records: store.NewRecordStore(res.Namespace(kv.NamespaceRecords), storeOpts...),
		Tags: store.NewTagStore(
			res.Namespace(kv.NamespaceTags),
			res.Namespace(kv.NamespaceSettings),
			storeOpts...),
		backend: res,
		logger:  logger.WithComponent(log.ComponentApp),
	}
}

// Init loads both stores concurrently. Load failures are logged by the
// stores themselves; only a cancelled context is reported.
func (a *App) Init(ctx context.Context) error {
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		a.Records.Init(gctx)
		return nil
	})
	g.Go(func() error {
		a.Tags.Init(gctx)
		return nil
	})
	if err := g.Wait(); err != nil {
		return err
	}
	if err := ctx.Err(); err != nil {
		return fmt.Errorf("init stores: %w", err)
	}
	a.logger.InfoContext(ctx, "Stores initialized",
		"records", a.Records.Len(),
		"tags", len(a.Tags.All()))
	return nil
}

// Load reads both stores without seeding default tags, so it never writes
// to the backend. Read-only commands use it instead of Init.
func (a *App) Load(ctx context.Context) error {
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error { return a.Records.Load(gctx) })
	g.Go(func() error { return a.Tags.Load(gctx) })
	if err := g.Wait(); err != nil {
		return err
	}
	a.logger.InfoContext(ctx, "Stores loaded",
		"records", a.Records.Len(),
		"tags", len(a.Tags.All()))
	return nil
}

// Ready checks the backend connection.
func (a *App) Ready(ctx context.Context) error {
	return a.backend.Ping(ctx)
}

func (a *App) Close() error {
	return a.backend.Close()
}

func (a *App) ExportRecords() []core.Record { return a.Records.ExportAll() }

func (a *App) ExportTags() []core.Tag { return a.Tags.ExportAll() }

func (a *App) ImportRecords(ctx context.Context, records []core.Record) {
	a.Records.ImportAll(ctx, records)
}

func (a *App) ImportTags(ctx context.Context, tags []core.Tag) {
	a.Tags.ImportAll(ctx, tags)
}
