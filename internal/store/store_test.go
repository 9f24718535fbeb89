package store

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync/atomic"
	"testing"
	"time"

	"github.com/shopspring/decimal"

	"moneytracker/internal/core"
	"moneytracker/internal/kv"
	"moneytracker/internal/kv/memory"
	"moneytracker/internal/log"
)

// failingStore wraps a kv.Store and rejects every write.
type failingStore struct {
	kv.Store
	writes atomic.Int32
}

func (f *failingStore) SetItem(context.Context, string, any) error {
	f.writes.Add(1)
	return errors.New("quota exceeded")
}

// unreadableStore wraps a kv.Store and fails every read.
type unreadableStore struct {
	kv.Store
}

func (unreadableStore) GetItem(context.Context, string, any) (bool, error) {
	return false, errors.New("io: disk busy")
}

func newBackend() *memory.Store { return memory.New() }

func quietLogger(buf *bytes.Buffer) *log.Logger {
	if buf == nil {
		buf = &bytes.Buffer{}
	}
	return log.New(log.Config{Level: slog.LevelDebug, Component: log.ComponentApp, Output: buf})
}

// fixedClock returns a clock starting at start that advances one second per call.
func fixedClock(start time.Time) func() time.Time {
	var n atomic.Int64
	return func() time.Time {
		return start.Add(time.Duration(n.Add(1)-1) * time.Second)
	}
}

func sequentialIDs(prefix string) func() string {
	var n atomic.Int64
	return func() string { return fmt.Sprintf("%s%d", prefix, n.Add(1)) }
}

func amount(s string) decimal.Decimal { return decimal.RequireFromString(s) }

func date(y, m, d int) core.Date { return core.NewDate(y, m, d) }

func newRecordStore(t *testing.T, backend kv.Backend, opts ...Option) *RecordStore {
	t.Helper()
	opts = append([]Option{WithLogger(quietLogger(nil))}, opts...)
	s := NewRecordStore(kv.Open(backend, kv.NamespaceRecords, kv.JSONCodec()), opts...)
	s.Init(context.Background())
	return s
}

func newTagStore(t *testing.T, backend kv.Backend, opts ...Option) *TagStore {
	t.Helper()
	opts = append([]Option{WithLogger(quietLogger(nil))}, opts...)
	s := NewTagStore(
		kv.Open(backend, kv.NamespaceTags, kv.JSONCodec()),
		kv.Open(backend, kv.NamespaceSettings, kv.JSONCodec()),
		opts...,
	)
	s.Init(context.Background())
	return s
}
