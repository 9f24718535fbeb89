// Package kv defines the namespaced key-value persistence used by the
// record and tag stores, plus the codecs that turn collections into bytes.
package kv

import (
	"context"
)

// Namespaces, one per persisted collection.
const (
	NamespaceRecords  = "records"
	NamespaceTags     = "tags"
	NamespaceSettings = "settings"
)

// Ports for outbound adapters.
type (
	// Bucket is a raw byte key space scoped to one namespace. Backends
	// implement it; Get reports found=false for a missing key.
	Bucket interface {
		Get(ctx context.Context, key string) (value []byte, found bool, err error)
		Put(ctx context.Context, key string, value []byte) error
		Delete(ctx context.Context, key string) error
		Clear(ctx context.Context) error
		Keys(ctx context.Context) ([]string, error)
	}

	// Backend hands out one Bucket per namespace.
	Backend interface {
		Bucket(namespace string) Bucket
		Close() error
	}

	// Store is the persistence adapter seen by the domain stores. Values
	// are encoded with the adapter's codec.
	Store interface {
		GetItem(ctx context.Context, key string, dst any) (found bool, err error)
		SetItem(ctx context.Context, key string, value any) error
		RemoveItem(ctx context.Context, key string) error
		Clear(ctx context.Context) error
		Keys(ctx context.Context) ([]string, error)
		Length(ctx context.Context) (int, error)
		Namespace() string
	}
)
