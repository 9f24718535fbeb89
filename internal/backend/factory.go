package backend

import (
	"context"
	"errors"
	"fmt"

	"moneytracker/internal/amqp"
	"moneytracker/internal/kv"
	"moneytracker/internal/kv/memory"
	"moneytracker/internal/kv/postgres"
	s3store "moneytracker/internal/kv/s3"
	"moneytracker/internal/log"
	"moneytracker/internal/metrics"
	"moneytracker/internal/storage"
)

// DefaultFactory implements the Factory interface
type DefaultFactory struct {
	logger  *log.Logger
	metrics *metrics.Metrics
}

// NewFactory creates a new backend factory
func NewFactory(logger *log.Logger, m *metrics.Metrics) Factory {
	if logger == nil {
		logger = log.Default(log.ComponentBackend)
	}
	return &DefaultFactory{
		logger:  logger.WithComponent(log.ComponentBackend),
		metrics: m,
	}
}

// CreateBackend implements Factory.CreateBackend
func (f *DefaultFactory) CreateBackend(ctx context.Context, config Config) (*BackendResult, error) {
	if err := config.Validate(); err != nil {
		return nil, err
	}

	codecName := config.Codec
	if codecName == "" {
		codecName = "json"
	}
	codec, err := kv.CodecByName(codecName)
	if err != nil {
		return nil, err
	}

	raw, err := f.open(ctx, config)
	if err != nil {
		return nil, err
	}

	result := &BackendResult{Backend: raw, Codec: codec}

	// The change feed is optional
	if config.AMQPURL != "" {
		client, err := amqp.NewClient(config.AMQPURL, config.AMQPExchange, config.AMQPQueue, f.metrics)
		if err != nil {
			f.logger.WarnContext(ctx, "Failed to initialize AMQP client, continuing without change feed", log.FieldError, err)
		} else {
			f.logger.InfoContext(ctx, "Initialized AMQP client",
				"exchange", config.AMQPExchange,
				"queue", config.AMQPQueue)
			result.Publisher = client
			result.Backend = kv.Notifying(raw, client)
		}
	}

	result.Cleanup = func() error {
		var errs []error
		if result.Publisher != nil {
			errs = append(errs, result.Publisher.Close())
		}
		errs = append(errs, raw.Close())
		return errors.Join(errs...)
	}

	f.logger.InfoContext(ctx, "Initialized kv backend",
		log.FieldBackend, config.Type.String(),
		"codec", codec.Name(),
		"change_feed", result.Publisher != nil)
	return result, nil
}

func (f *DefaultFactory) open(ctx context.Context, config Config) (kv.Backend, error) {
	switch config.Type {
	case MemoryBackend:
		return memory.New(), nil
	case SQLiteBackend:
		s, err := storage.NewSQLiteStore(config.SQLiteDBPath)
		if err != nil {
			return nil, fmt.Errorf("failed to initialize SQLite store: %w", err)
		}
		return s, nil
	case PostgresBackend:
		s, err := postgres.NewStore(ctx, config.PostgresDSN)
		if err != nil {
			return nil, fmt.Errorf("failed to initialize Postgres store: %w", err)
		}
		return s, nil
	case S3Backend:
		s, err := s3store.New(ctx, config.S3)
		if err != nil {
			return nil, fmt.Errorf("failed to initialize S3 store: %w", err)
		}
		return s, nil
	default:
		return nil, fmt.Errorf("unsupported backend type: %s", config.Type)
	}
}
