package kv

import (
	"context"
	"log/slog"
	"time"
)

// Change operations carried by a Change.
const (
	OpPut    = "put"
	OpDelete = "delete"
	OpClear  = "clear"
)

// Change describes a write that reached a backend.
type Change struct {
	Namespace string    `json:"namespace"`
	Key       string    `json:"key,omitempty"`
	Op        string    `json:"op"`
	Timestamp time.Time `json:"timestamp"`
}

// Publisher announces changes to interested consumers.
type Publisher interface {
	PublishChange(ctx context.Context, c Change) error
}

type notifyingBackend struct {
	Backend
	pub Publisher
}

// Notifying wraps backend so that every successful write is announced on
// pub. Publish failures are logged and never fail the write.
func Notifying(backend Backend, pub Publisher) Backend {
	if pub == nil {
		return backend
	}
	return &notifyingBackend{Backend: backend, pub: pub}
}

// Unwrap returns the wrapped backend.
func (n *notifyingBackend) Unwrap() Backend { return n.Backend }

func (n *notifyingBackend) Bucket(namespace string) Bucket {
	return &notifyingBucket{Bucket: n.Backend.Bucket(namespace), namespace: namespace, pub: n.pub}
}

type notifyingBucket struct {
	Bucket
	namespace string
	pub       Publisher
}

func (b *notifyingBucket) Put(ctx context.Context, key string, value []byte) error {
	if err := b.Bucket.Put(ctx, key, value); err != nil {
		return err
	}
	b.publish(ctx, key, OpPut)
	return nil
}

func (b *notifyingBucket) Delete(ctx context.Context, key string) error {
	if err := b.Bucket.Delete(ctx, key); err != nil {
		return err
	}
	b.publish(ctx, key, OpDelete)
	return nil
}

func (b *notifyingBucket) Clear(ctx context.Context) error {
	if err := b.Bucket.Clear(ctx); err != nil {
		return err
	}
	b.publish(ctx, "", OpClear)
	return nil
}

func (b *notifyingBucket) publish(ctx context.Context, key, op string) {
	c := Change{Namespace: b.namespace, Key: key, Op: op, Timestamp: time.Now()}
	if err := b.pub.PublishChange(ctx, c); err != nil {
		// Don't fail the write - the data is already stored
		slog.ErrorContext(ctx, "Failed to publish change",
			"namespace", b.namespace, "key", key, "op", op, "error", err)
	}
}
