package store

import (
	"context"
	"fmt"
	"slices"
	"sync"

	"moneytracker/internal/core"
	"moneytracker/internal/kv"
	"moneytracker/internal/log"
)

// RecordsKey is the adapter key holding the whole record collection.
const RecordsKey = "records"

// RecordStore keeps all records in memory, newest date first. Every mutation
// writes the whole collection back to the adapter; write failures are logged
// and memory stays authoritative.
type RecordStore struct {
	adapter kv.Store
	opts    options
	slog    *log.StructuredLogger

	mu       sync.RWMutex
	records  []core.Record
	loading  bool
	revision uint64
}

func NewRecordStore(adapter kv.Store, opts ...Option) *RecordStore {
	o := defaultOptions(log.ComponentRecords)
	for _, opt := range opts {
		opt(&o)
	}
	o.logger = o.logger.WithComponent(log.ComponentRecords)
	return &RecordStore{
		adapter: adapter,
		opts:    o,
		slog:    log.NewStructuredLogger(o.logger),
		records: []core.Record{},
	}
}

// Init loads the persisted collection. Absent or undecodable data leaves the
// current collection in place. It always reloads, even when already populated.
func (s *RecordStore) Init(ctx context.Context) {
	s.setLoading(true)
	defer s.setLoading(false)

	var loaded []core.Record
	found, err := s.adapter.GetItem(ctx, RecordsKey, &loaded)
	if err != nil {
		s.slog.LogError(ctx, "Failed to load records", err, log.ComponentRecords, log.OpInit,
			log.NewFields().WithStorageKey(s.adapter.Namespace(), RecordsKey))
	}

	s.mu.Lock()
	if err == nil && found && loaded != nil {
		s.records = loaded
	}
	sortRecords(s.records)
	s.revision++
	n := len(s.records)
	s.mu.Unlock()

	s.opts.metrics.SetCollectionSize(s.adapter.Namespace(), n)
	s.opts.logger.InfoContext(ctx, "Records loaded", log.FieldCount, n)
}

// Load replaces the in-memory records with what is persisted. Unlike Init it
// reports load errors and leaves memory untouched on failure.
func (s *RecordStore) Load(ctx context.Context) error {
	var loaded []core.Record
	if _, err := s.adapter.GetItem(ctx, RecordsKey, &loaded); err != nil {
		return fmt.Errorf("load records: %w", err)
	}
	if loaded == nil {
		loaded = []core.Record{}
	}

	s.mu.Lock()
	s.records = loaded
	sortRecords(s.records)
	s.revision++
	n := len(s.records)
	s.mu.Unlock()

	s.opts.metrics.SetCollectionSize(s.adapter.Namespace(), n)
	s.opts.logger.InfoContext(ctx, "Records loaded", log.FieldCount, n)
	return nil
}

func (s *RecordStore) setLoading(v bool) {
	s.mu.Lock()
	s.loading = v
	s.mu.Unlock()
}

// Loading reports whether Init is in progress.
func (s *RecordStore) Loading() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.loading
}

// Revision changes every time the collection changes.
func (s *RecordStore) Revision() uint64 {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.revision
}

func (s *RecordStore) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.records)
}

// Add creates a record. A zero date means today and nil tag ids mean none.
func (s *RecordStore) Add(ctx context.Context, in core.RecordInput) core.Record {
	now := s.opts.now()
	rec := core.Record{
		ID:        s.opts.newID(),
		Amount:    in.Amount,
		Kind:      in.Kind,
		Date:      in.Date,
		TagIDs:    slices.Clone(in.TagIDs),
		Note:      in.Note,
		CreatedAt: now,
	}
	if rec.Date.IsZero() {
		rec.Date = core.DateOf(now)
	}
	if rec.TagIDs == nil {
		rec.TagIDs = []string{}
	}

	s.mu.Lock()
	s.records = append([]core.Record{rec}, s.records...)
	snapshot := s.commitLocked()
	s.mu.Unlock()

	s.persist(ctx, snapshot)
	s.opts.logger.DebugContext(ctx, "Record created",
		log.NewFields().WithRecord(rec.ID, core.FormatAmount(rec.Amount), string(rec.Kind)).ToSlice()...)
	return rec.Clone()
}

// Update merges patch into the record with the given id. Unknown ids leave
// the collection untouched and report false.
func (s *RecordStore) Update(ctx context.Context, id string, patch core.RecordPatch) (core.Record, bool) {
	s.mu.Lock()
	i := s.indexLocked(id)
	if i < 0 {
		s.mu.Unlock()
		return core.Record{}, false
	}
	merged := patch.Apply(s.records[i])
	merged.UpdatedAt = s.opts.now()
	s.records[i] = merged
	snapshot := s.commitLocked()
	s.mu.Unlock()

	s.persist(ctx, snapshot)
	return merged.Clone(), true
}

// Remove deletes the record with the given id. Tags are not touched.
func (s *RecordStore) Remove(ctx context.Context, id string) bool {
	s.mu.Lock()
	i := s.indexLocked(id)
	if i < 0 {
		s.mu.Unlock()
		return false
	}
	s.records = slices.Delete(s.records, i, i+1)
	snapshot := s.commitLocked()
	s.mu.Unlock()

	s.persist(ctx, snapshot)
	return true
}

func (s *RecordStore) Get(id string) (core.Record, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if i := s.indexLocked(id); i >= 0 {
		return s.records[i].Clone(), true
	}
	return core.Record{}, false
}

// All returns a copy of the collection in store order.
func (s *RecordStore) All() []core.Record {
	return s.filter(func(core.Record) bool { return true })
}

// QueryByMonth returns the records dated in the given month (1-12).
func (s *RecordStore) QueryByMonth(year, month int) []core.Record {
	return s.filter(func(r core.Record) bool { return r.Date.InMonth(year, month) })
}

// QueryByDateRange returns records dated between start and end inclusive.
func (s *RecordStore) QueryByDateRange(start, end core.Date) []core.Record {
	return s.filter(func(r core.Record) bool { return r.Date.Between(start, end) })
}

// AvailableMonths lists the distinct YYYY-MM keys, newest first.
func (s *RecordStore) AvailableMonths() []string {
	s.mu.RLock()
	seen := make(map[string]struct{}, len(s.records))
	months := make([]string, 0)
	for _, r := range s.records {
		k := r.Date.MonthKey()
		if _, ok := seen[k]; ok {
			continue
		}
		seen[k] = struct{}{}
		months = append(months, k)
	}
	s.mu.RUnlock()

	slices.SortFunc(months, func(a, b string) int {
		switch {
		case a > b:
			return -1
		case a < b:
			return 1
		}
		return 0
	})
	return months
}

// Statistics summarises the whole collection.
func (s *RecordStore) Statistics() core.Statistics {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return core.Summarize(s.records)
}

// StatisticsOf summarises an arbitrary subset, such as a month query result.
func (s *RecordStore) StatisticsOf(subset []core.Record) core.Statistics {
	return core.Summarize(subset)
}

func (s *RecordStore) Clear(ctx context.Context) {
	s.mu.Lock()
	s.records = []core.Record{}
	snapshot := s.commitLocked()
	s.mu.Unlock()

	s.persist(ctx, snapshot)
}

// ImportAll replaces the collection with data. A nil slice is ignored; an
// empty one empties the store.
func (s *RecordStore) ImportAll(ctx context.Context, data []core.Record) {
	if data == nil {
		s.opts.logger.WarnContext(ctx, "Ignoring record import without data")
		return
	}
	imported := cloneRecords(data)

	s.mu.Lock()
	s.records = imported
	snapshot := s.commitLocked()
	s.mu.Unlock()

	s.persist(ctx, snapshot)
	s.opts.logger.InfoContext(ctx, "Records imported", log.FieldCount, len(imported))
}

// ExportAll returns a snapshot of the collection.
func (s *RecordStore) ExportAll() []core.Record {
	return s.All()
}

func (s *RecordStore) filter(keep func(core.Record) bool) []core.Record {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]core.Record, 0)
	for _, r := range s.records {
		if keep(r) {
			out = append(out, r.Clone())
		}
	}
	return out
}

func (s *RecordStore) indexLocked(id string) int {
	return slices.IndexFunc(s.records, func(r core.Record) bool { return r.ID == id })
}

// commitLocked re-sorts, bumps the revision and returns the collection to
// persist. Callers hold s.mu.
func (s *RecordStore) commitLocked() []core.Record {
	sortRecords(s.records)
	s.revision++
	return cloneRecords(s.records)
}

func (s *RecordStore) persist(ctx context.Context, snapshot []core.Record) {
	err := s.adapter.SetItem(ctx, RecordsKey, snapshot)
	s.opts.metrics.ObservePersist(s.adapter.Namespace(), err)
	s.opts.metrics.SetCollectionSize(s.adapter.Namespace(), len(snapshot))
	if err != nil {
		s.slog.LogPersistFailure(ctx, log.ComponentRecords, s.adapter.Namespace(), RecordsKey, err)
	}
}

// sortRecords orders by date descending; equal dates keep their order.
func sortRecords(rs []core.Record) {
	slices.SortStableFunc(rs, func(a, b core.Record) int {
		return b.Date.Compare(a.Date)
	})
}

func cloneRecords(rs []core.Record) []core.Record {
	out := make([]core.Record, len(rs))
	for i, r := range rs {
		out[i] = r.Clone()
	}
	return out
}
