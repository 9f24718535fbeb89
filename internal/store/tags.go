package store

import (
	"context"
	"fmt"
	"slices"
	"strings"
	"sync"

	"moneytracker/internal/core"
	"moneytracker/internal/kv"
	"moneytracker/internal/log"
)

// Adapter keys in the tags and settings namespaces.
const (
	TagsKey       = "tags"
	seedMarkerKey = "tags_seeded"
)

var presetColors = []string{
	"#1989fa", "#07c160", "#ff976a", "#ff5b5b", "#9a66e4", "#5c7dfa",
	"#ee0a24", "#ffcd42", "#01d0c4", "#7232dd", "#e8b878", "#6d8a9c",
}

var defaultTags = []core.TagInput{
	{Name: "restaurant", Color: "#ff976a", Kind: core.KindExpense},
	{Name: "transport", Color: "#1989fa", Kind: core.KindExpense},
	{Name: "shopping", Color: "#ff5b5b", Kind: core.KindExpense},
	{Name: "entertainment", Color: "#9a66e4", Kind: core.KindExpense},
	{Name: "medical", Color: "#01d0c4", Kind: core.KindExpense},
	{Name: "salary", Color: "#07c160", Kind: core.KindIncome},
	{Name: "investment", Color: "#5c7dfa", Kind: core.KindIncome},
	{Name: "other", Color: "#6d8a9c", Kind: core.KindBoth},
}

// PresetColors returns the fixed palette offered for new tags.
func PresetColors() []string {
	return slices.Clone(presetColors)
}

// TagStore keeps all tags in memory in insertion order. Records reference
// tags by id only; removing a tag never touches records.
type TagStore struct {
	adapter  kv.Store
	settings kv.Store
	opts     options
	slog     *log.StructuredLogger

	mu       sync.RWMutex
	tags     []core.Tag
	loading  bool
	revision uint64
}

// NewTagStore builds a store over the tags namespace. settings holds the
// seed marker and may be nil, in which case an empty store is seeded on
// every Init.
func NewTagStore(adapter, settings kv.Store, opts ...Option) *TagStore {
	o := defaultOptions(log.ComponentTags)
	for _, opt := range opts {
		opt(&o)
	}
	o.logger = o.logger.WithComponent(log.ComponentTags)
	return &TagStore{
		adapter:  adapter,
		settings: settings,
		opts:     o,
		slog:     log.NewStructuredLogger(o.logger),
		tags:     []core.Tag{},
	}
}

// Init loads the persisted tags. It does nothing when a load is running or
// tags are already present. The default tags are seeded once, and only when
// the load succeeded and found nothing. A failed load leaves both memory and
// storage untouched.
func (s *TagStore) Init(ctx context.Context) {
	s.mu.Lock()
	if s.loading || len(s.tags) > 0 {
		s.mu.Unlock()
		return
	}
	s.loading = true
	s.mu.Unlock()

	defer func() {
		s.mu.Lock()
		s.loading = false
		s.mu.Unlock()
	}()

	loaded, err := s.load(ctx)
	if err != nil {
		s.slog.LogError(ctx, "Failed to load tags", err, log.ComponentTags, log.OpInit,
			log.NewFields().WithStorageKey(s.adapter.Namespace(), TagsKey))
		return
	}
	if len(loaded) > 0 {
		s.install(ctx, loaded)
		return
	}

	if s.alreadySeeded(ctx) {
		s.opts.logger.InfoContext(ctx, "Tag collection empty, defaults already seeded once")
		return
	}
	s.seed(ctx)
}

// Load replaces the in-memory tags with what is persisted, without seeding
// defaults or writing anything. Unlike Init it reports load errors.
func (s *TagStore) Load(ctx context.Context) error {
	loaded, err := s.load(ctx)
	if err != nil {
		return err
	}
	s.install(ctx, loaded)
	return nil
}

func (s *TagStore) load(ctx context.Context) ([]core.Tag, error) {
	var loaded []core.Tag
	if _, err := s.adapter.GetItem(ctx, TagsKey, &loaded); err != nil {
		return nil, fmt.Errorf("load tags: %w", err)
	}
	return loaded, nil
}

func (s *TagStore) install(ctx context.Context, loaded []core.Tag) {
	if loaded == nil {
		loaded = []core.Tag{}
	}
	s.mu.Lock()
	s.tags = loaded
	s.revision++
	s.mu.Unlock()
	s.opts.metrics.SetCollectionSize(s.adapter.Namespace(), len(loaded))
	s.opts.logger.InfoContext(ctx, "Tags loaded", log.FieldCount, len(loaded))
}

func (s *TagStore) alreadySeeded(ctx context.Context) bool {
	if s.settings == nil {
		return false
	}
	var seeded bool
	found, err := s.settings.GetItem(ctx, seedMarkerKey, &seeded)
	if err != nil {
		s.slog.LogError(ctx, "Failed to read seed marker", err, log.ComponentTags, log.OpSeed,
			log.NewFields().WithStorageKey(s.settings.Namespace(), seedMarkerKey))
		return false
	}
	return found && seeded
}

func (s *TagStore) seed(ctx context.Context) {
	now := s.opts.now()
	seeded := make([]core.Tag, 0, len(defaultTags))
	for _, d := range defaultTags {
		seeded = append(seeded, core.Tag{
			ID:        s.opts.newID(),
			Name:      d.Name,
			Color:     d.Color,
			Kind:      d.Kind,
			CreatedAt: now,
		})
	}

	s.mu.Lock()
	s.tags = seeded
	snapshot := s.commitLocked()
	s.mu.Unlock()

	s.persist(ctx, snapshot)
	if s.settings != nil {
		if err := s.settings.SetItem(ctx, seedMarkerKey, true); err != nil {
			s.slog.LogPersistFailure(ctx, log.ComponentTags, s.settings.Namespace(), seedMarkerKey, err)
		}
	}
	s.opts.logger.InfoContext(ctx, "Default tags seeded", log.FieldCount, len(seeded))
}

func (s *TagStore) Loading() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.loading
}

func (s *TagStore) Revision() uint64 {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.revision
}

// Add creates a tag. The name is trimmed and must be non-empty and not
// already taken (exact, case-sensitive match). An empty kind means both;
// other kinds are stored as given.
func (s *TagStore) Add(ctx context.Context, in core.TagInput) (core.Tag, error) {
	name := strings.TrimSpace(in.Name)
	if name == "" {
		return core.Tag{}, core.NewValidationError("name", core.ErrEmptyName)
	}
	kind := in.Kind
	if kind == "" {
		kind = core.KindBoth
	}
	color := in.Color
	if color == "" {
		color = presetColors[0]
	}

	s.mu.Lock()
	if slices.ContainsFunc(s.tags, func(t core.Tag) bool { return t.Name == name }) {
		s.mu.Unlock()
		return core.Tag{}, core.NewValidationError("name", core.ErrDuplicateName)
	}
	tag := core.Tag{
		ID:        s.opts.newID(),
		Name:      name,
		Color:     color,
		Kind:      kind,
		CreatedAt: s.opts.now(),
	}
	s.tags = append(s.tags, tag)
	snapshot := s.commitLocked()
	s.mu.Unlock()

	s.persist(ctx, snapshot)
	s.opts.logger.DebugContext(ctx, "Tag created", log.NewFields().WithTag(tag.ID, tag.Name).ToSlice()...)
	return tag, nil
}

// Update merges patch into the tag with the given id. Name uniqueness is not
// re-checked.
func (s *TagStore) Update(ctx context.Context, id string, patch core.TagPatch) (core.Tag, bool) {
	s.mu.Lock()
	i := s.indexLocked(id)
	if i < 0 {
		s.mu.Unlock()
		return core.Tag{}, false
	}
	merged := patch.Apply(s.tags[i])
	merged.UpdatedAt = s.opts.now()
	s.tags[i] = merged
	snapshot := s.commitLocked()
	s.mu.Unlock()

	s.persist(ctx, snapshot)
	return merged, true
}

// Remove deletes the tag. Records that reference it keep the dangling id.
func (s *TagStore) Remove(ctx context.Context, id string) bool {
	s.mu.Lock()
	i := s.indexLocked(id)
	if i < 0 {
		s.mu.Unlock()
		return false
	}
	s.tags = slices.Delete(s.tags, i, i+1)
	snapshot := s.commitLocked()
	s.mu.Unlock()

	s.persist(ctx, snapshot)
	return true
}

func (s *TagStore) Get(id string) (core.Tag, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if i := s.indexLocked(id); i >= 0 {
		return s.tags[i], true
	}
	return core.Tag{}, false
}

// GetByIDs returns the known tags among ids in store order. Unknown ids are
// skipped.
func (s *TagStore) GetByIDs(ids []string) []core.Tag {
	if len(ids) == 0 {
		return []core.Tag{}
	}
	want := make(map[string]struct{}, len(ids))
	for _, id := range ids {
		want[id] = struct{}{}
	}
	return s.filter(func(t core.Tag) bool {
		_, ok := want[t.ID]
		return ok
	})
}

func (s *TagStore) All() []core.Tag {
	return s.filter(func(core.Tag) bool { return true })
}

// FilterByKind returns the tags usable for kind. An empty kind or both
// returns every tag.
func (s *TagStore) FilterByKind(kind core.Kind) []core.Tag {
	if kind == "" || kind == core.KindBoth {
		return s.All()
	}
	return s.filter(func(t core.Tag) bool { return t.Kind.Accepts(kind) })
}

func (s *TagStore) ExpenseTags() []core.Tag { return s.FilterByKind(core.KindExpense) }

func (s *TagStore) IncomeTags() []core.Tag { return s.FilterByKind(core.KindIncome) }

// UsageRanked pairs every tag with the number of records referencing it,
// most used first. A record listing an id twice counts once. Ties keep
// store order.
func (s *TagStore) UsageRanked(records []core.Record) []core.TagUsage {
	counts := make(map[string]int)
	for _, r := range records {
		seen := make(map[string]struct{}, len(r.TagIDs))
		for _, id := range r.TagIDs {
			if _, dup := seen[id]; dup {
				continue
			}
			seen[id] = struct{}{}
			counts[id]++
		}
	}
	tags := s.All()
	out := make([]core.TagUsage, 0, len(tags))
	for _, t := range tags {
		out = append(out, core.TagUsage{Tag: t, UsageCount: counts[t.ID]})
	}
	slices.SortStableFunc(out, func(a, b core.TagUsage) int {
		return b.UsageCount - a.UsageCount
	})
	return out
}

func (s *TagStore) Clear(ctx context.Context) {
	s.mu.Lock()
	s.tags = []core.Tag{}
	snapshot := s.commitLocked()
	s.mu.Unlock()

	s.persist(ctx, snapshot)
}

// ImportAll replaces the collection with data. A nil slice is ignored.
func (s *TagStore) ImportAll(ctx context.Context, data []core.Tag) {
	if data == nil {
		s.opts.logger.WarnContext(ctx, "Ignoring tag import without data")
		return
	}

	s.mu.Lock()
	s.tags = slices.Clone(data)
	snapshot := s.commitLocked()
	s.mu.Unlock()

	s.persist(ctx, snapshot)
	s.opts.logger.InfoContext(ctx, "Tags imported", log.FieldCount, len(data))
}

func (s *TagStore) ExportAll() []core.Tag {
	return s.All()
}

// PresetColors returns the fixed palette.
func (s *TagStore) PresetColors() []string {
	return PresetColors()
}

func (s *TagStore) filter(keep func(core.Tag) bool) []core.Tag {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]core.Tag, 0)
	for _, t := range s.tags {
		if keep(t) {
			out = append(out, t)
		}
	}
	return out
}

func (s *TagStore) indexLocked(id string) int {
	return slices.IndexFunc(s.tags, func(t core.Tag) bool { return t.ID == id })
}

func (s *TagStore) commitLocked() []core.Tag {
	s.revision++
	return slices.Clone(s.tags)
}

func (s *TagStore) persist(ctx context.Context, snapshot []core.Tag) {
	err := s.adapter.SetItem(ctx, TagsKey, snapshot)
	s.opts.metrics.ObservePersist(s.adapter.Namespace(), err)
	s.opts.metrics.SetCollectionSize(s.adapter.Namespace(), len(snapshot))
	if err != nil {
		s.slog.LogPersistFailure(ctx, log.ComponentTags, s.adapter.Namespace(), TagsKey, err)
	}
}
