// Package worker keeps the Sheets mirror in step with the kv backend.
package worker

import (
	"context"
	"fmt"
	"sync"
	"time"

	"moneytracker/internal/amqp"
	"moneytracker/internal/core"
	"moneytracker/internal/kv"
	"moneytracker/internal/log"
	"moneytracker/internal/sheets"
	"moneytracker/internal/store"
)

// SyncWorker reads the persisted records and tags and pushes full snapshots
// to a sheets.Mirror. Syncs never overlap.
type SyncWorker struct {
	records kv.Store
	tags    kv.Store
	mirror  sheets.Mirror
	logger  *log.Logger

	mu       sync.Mutex
	lastSync time.Time
}

func NewSyncWorker(records, tags kv.Store, mirror sheets.Mirror, logger *log.Logger) *SyncWorker {
	if logger == nil {
		logger = log.Default(log.ComponentWorker)
	}
	return &SyncWorker{
		records: records,
		tags:    tags,
		mirror:  mirror,
		logger:  logger.WithComponent(log.ComponentWorker),
	}
}

// HandleChangeMessage processes a single change notification from AMQP.
// Changes outside the records and tags namespaces are acknowledged without
// touching the mirror.
func (w *SyncWorker) HandleChangeMessage(ctx context.Context, msg *amqp.ChangeMessage) error {
	w.logger.InfoContext(ctx, "Processing change message",
		log.FieldNamespace, msg.Namespace,
		log.FieldKey, msg.Key,
		"op", msg.Op)

	switch msg.Namespace {
	case kv.NamespaceRecords, kv.NamespaceTags:
	default:
		return nil
	}

	if !w.lastSyncBefore(msg.Timestamp) {
		w.logger.DebugContext(ctx, "Change already covered by a later sync",
			log.FieldNamespace, msg.Namespace)
		return nil
	}

	if err := w.Sync(ctx); err != nil {
		return fmt.Errorf("sync after change: %w", err)
	}
	return nil
}

// Sync mirrors the current contents of the backend. A missing collection
// is mirrored as empty; an undecodable one aborts the sync.
func (w *SyncWorker) Sync(ctx context.Context) error {
	w.mu.Lock()
	defer w.mu.Unlock()

	started := time.Now()

	var records []core.Record
	if _, err := w.records.GetItem(ctx, store.RecordsKey, &records); err != nil {
		return fmt.Errorf("load records: %w", err)
	}
	var tags []core.Tag
	if _, err := w.tags.GetItem(ctx, store.TagsKey, &tags); err != nil {
		return fmt.Errorf("load tags: %w", err)
	}

	if err := w.mirror.Mirror(ctx, records, tags); err != nil {
		return fmt.Errorf("mirror ledger: %w", err)
	}

	w.lastSync = started
	w.logger.InfoContext(ctx, "Ledger synced",
		"records", len(records),
		"tags", len(tags),
		"duration_ms", time.Since(started).Milliseconds())
	return nil
}

// StartupSyncCheck mirrors once at worker startup, to recover from changes
// made while the worker was down.
func (w *SyncWorker) StartupSyncCheck(ctx context.Context) error {
	w.logger.InfoContext(ctx, "Performing startup sync")
	if err := w.Sync(ctx); err != nil {
		return fmt.Errorf("startup sync: %w", err)
	}
	return nil
}

// RunPeriodic syncs every interval until ctx is done. This is a backup
// mechanism in case AMQP messages are lost.
func (w *SyncWorker) RunPeriodic(ctx context.Context, interval time.Duration) {
	if interval <= 0 {
		return
	}
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if err := w.Sync(ctx); err != nil {
				w.logger.ErrorContext(ctx, "Periodic sync failed", log.FieldError, err)
			}
		}
	}
}

// LastSync reports when the last successful sync started.
func (w *SyncWorker) LastSync() time.Time {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.lastSync
}

func (w *SyncWorker) lastSyncBefore(t time.Time) bool {
	w.mu.Lock()
	defer w.mu.Unlock()
	return t.IsZero() || w.lastSync.IsZero() || !w.lastSync.After(t)
}
