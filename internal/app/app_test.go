package app

import (
	"bytes"
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"moneytracker/internal/backend"
	"moneytracker/internal/backup"
	"moneytracker/internal/core"
	"moneytracker/internal/kv"
	"moneytracker/internal/log"
)

func quietLogger() *log.Logger {
	return log.New(log.Config{Output: &bytes.Buffer{}})
}

func newApp(t *testing.T, cfg backend.Config) *App {
	t.Helper()
	res, err := backend.NewFactory(quietLogger(), nil).CreateBackend(context.Background(), cfg)
	require.NoError(t, err)
	return New(res, quietLogger(), nil)
}

func TestInitSeedsTagsOnEmptyBackend(t *testing.T) {
	a := newApp(t, backend.Config{Type: backend.MemoryBackend})
	defer a.Close()

	require.NoError(t, a.Init(context.Background()))
	assert.Len(t, a.Tags.All(), 8)
	assert.Zero(t, a.Records.Len())
	require.NoError(t, a.Ready(context.Background()))
}

func TestLoadWritesNothing(t *testing.T) {
	ctx := context.Background()
	res, err := backend.NewFactory(quietLogger(), nil).CreateBackend(ctx, backend.Config{Type: backend.MemoryBackend})
	require.NoError(t, err)
	a := New(res, quietLogger(), nil)
	defer a.Close()

	require.NoError(t, a.Load(ctx))
	assert.Empty(t, a.Tags.All())
	assert.Zero(t, a.Records.Len())

	for _, ns := range []string{kv.NamespaceRecords, kv.NamespaceTags, kv.NamespaceSettings} {
		keys, err := res.Namespace(ns).Keys(ctx)
		require.NoError(t, err)
		assert.Empty(t, keys, "namespace %s", ns)
	}
}

func TestInitCancelledContext(t *testing.T) {
	a := newApp(t, backend.Config{Type: backend.MemoryBackend})
	defer a.Close()

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	require.Error(t, a.Init(ctx))
}

func TestStoresSurviveRestartOnSQLite(t *testing.T) {
	ctx := context.Background()
	cfg := backend.Config{Type: backend.SQLiteBackend, SQLiteDBPath: filepath.Join(t.TempDir(), "ledger.db")}

	first := newApp(t, cfg)
	require.NoError(t, first.Init(ctx))
	tag, err := first.Tags.Add(ctx, core.TagInput{Name: "groceries"})
	require.NoError(t, err)
	first.Records.Add(ctx, core.RecordInput{
		Amount: decimal.RequireFromString("23.40"),
		Kind:   core.KindExpense,
		Date:   core.NewDate(2024, 2, 10),
		TagIDs: []string{tag.ID},
	})
	require.NoError(t, first.Close())

	second := newApp(t, cfg)
	defer second.Close()
	require.NoError(t, second.Init(ctx))
	require.Equal(t, 1, second.Records.Len())
	assert.Len(t, second.Tags.All(), 9, "defaults are not seeded twice")
	got := second.Tags.GetByIDs(second.Records.All()[0].TagIDs)
	require.Len(t, got, 1)
	assert.Equal(t, "groceries", got[0].Name)
}

func TestBackupRoundTripThroughApp(t *testing.T) {
	ctx := context.Background()
	src := newApp(t, backend.Config{Type: backend.MemoryBackend})
	defer src.Close()
	require.NoError(t, src.Init(ctx))
	src.Records.Add(ctx, core.RecordInput{Amount: decimal.NewFromInt(7), Kind: core.KindIncome})

	var buf bytes.Buffer
	require.NoError(t, backup.WriteJSON(&buf, backup.Snapshot(src, time.Now())))

	dst := newApp(t, backend.Config{Type: backend.MemoryBackend})
	defer dst.Close()
	doc, err := backup.ReadJSON(&buf)
	require.NoError(t, err)
	backup.Restore(ctx, dst, doc)

	assert.Equal(t, src.Records.ExportAll()[0].ID, dst.Records.ExportAll()[0].ID)
	assert.Len(t, dst.Tags.All(), len(src.Tags.All()))
}
