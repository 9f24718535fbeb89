package kv

import (
	"context"
	"fmt"
)

// Namespace adapts a Bucket into a Store by running values through a Codec.
type Namespace struct {
	name   string
	bucket Bucket
	codec  Codec
}

var _ Store = (*Namespace)(nil)

// NewNamespace wraps bucket. A nil codec falls back to JSON.
func NewNamespace(name string, bucket Bucket, c Codec) *Namespace {
	if c == nil {
		c = JSONCodec()
	}
	return &Namespace{name: name, bucket: bucket, codec: c}
}

// Open is shorthand for NewNamespace(name, backend.Bucket(name), c).
func Open(backend Backend, name string, c Codec) *Namespace {
	return NewNamespace(name, backend.Bucket(name), c)
}

func (n *Namespace) Namespace() string { return n.name }

// GetItem decodes the value stored under key into dst. A missing key is
// not an error; a value that does not decode into dst is.
func (n *Namespace) GetItem(ctx context.Context, key string, dst any) (bool, error) {
	raw, found, err := n.bucket.Get(ctx, key)
	if err != nil {
		return false, fmt.Errorf("get %s/%s: %w", n.name, key, err)
	}
	if !found || len(raw) == 0 {
		return false, nil
	}
	if err := n.codec.Decode(raw, dst); err != nil {
		return false, fmt.Errorf("get %s/%s: %w", n.name, key, err)
	}
	return true, nil
}

func (n *Namespace) SetItem(ctx context.Context, key string, value any) error {
	raw, err := n.codec.Encode(value)
	if err != nil {
		return fmt.Errorf("set %s/%s: %w", n.name, key, err)
	}
	if err := n.bucket.Put(ctx, key, raw); err != nil {
		return fmt.Errorf("set %s/%s: %w", n.name, key, err)
	}
	return nil
}

func (n *Namespace) RemoveItem(ctx context.Context, key string) error {
	if err := n.bucket.Delete(ctx, key); err != nil {
		return fmt.Errorf("remove %s/%s: %w", n.name, key, err)
	}
	return nil
}

func (n *Namespace) Clear(ctx context.Context) error {
	if err := n.bucket.Clear(ctx); err != nil {
		return fmt.Errorf("clear %s: %w", n.name, err)
	}
	return nil
}

func (n *Namespace) Keys(ctx context.Context) ([]string, error) {
	keys, err := n.bucket.Keys(ctx)
	if err != nil {
		return nil, fmt.Errorf("keys %s: %w", n.name, err)
	}
	return keys, nil
}

func (n *Namespace) Length(ctx context.Context) (int, error) {
	keys, err := n.Keys(ctx)
	if err != nil {
		return 0, err
	}
	return len(keys), nil
}
