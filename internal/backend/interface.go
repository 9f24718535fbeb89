package backend

import (
	"context"

	"moneytracker/internal/amqp"
	"moneytracker/internal/kv"
	s3store "moneytracker/internal/kv/s3"
)

// Pinger is implemented by backends that can check their connection.
type Pinger interface {
	Ping(ctx context.Context) error
}

// CleanupFunc represents a cleanup function for resources
type CleanupFunc func() error

// BackendResult contains the backend instance, the codec its namespaces use,
// and the change publisher when one is wired.
type BackendResult struct {
	Backend   kv.Backend
	Codec     kv.Codec
	Publisher *amqp.Client
	Cleanup   CleanupFunc
}

// Namespace opens one namespace of the backend with the configured codec.
func (r *BackendResult) Namespace(name string) kv.Store {
	return kv.Open(r.Backend, name, r.Codec)
}

// Ping checks the underlying backend. Backends without a connection to
// check are always ready.
func (r *BackendResult) Ping(ctx context.Context) error {
	if p, ok := r.raw().(Pinger); ok {
		return p.Ping(ctx)
	}
	return nil
}

func (r *BackendResult) raw() kv.Backend {
	if u, ok := r.Backend.(interface{ Unwrap() kv.Backend }); ok {
		return u.Unwrap()
	}
	return r.Backend
}

// Close runs the cleanup function, if any.
func (r *BackendResult) Close() error {
	if r.Cleanup == nil {
		return nil
	}
	return r.Cleanup()
}

// Factory creates backends based on configuration
type Factory interface {
	// CreateBackend creates a backend instance based on the provided config
	CreateBackend(ctx context.Context, config Config) (*BackendResult, error)
}

// Config holds configuration for backend creation
type Config struct {
	Type  BackendType
	Codec string

	SQLiteDBPath string
	PostgresDSN  string
	S3           s3store.Config

	// Change feed; empty URL disables it
	AMQPURL      string
	AMQPExchange string
	AMQPQueue    string
}

// BackendType represents the type of backend
type BackendType string

const (
	MemoryBackend   BackendType = "memory"
	SQLiteBackend   BackendType = "sqlite"
	PostgresBackend BackendType = "postgres"
	S3Backend       BackendType = "s3"
)

// String implements fmt.Stringer
func (bt BackendType) String() string {
	return string(bt)
}

// IsValid returns true if the backend type is valid
func (bt BackendType) IsValid() bool {
	switch bt {
	case MemoryBackend, SQLiteBackend, PostgresBackend, S3Backend:
		return true
	default:
		return false
	}
}
