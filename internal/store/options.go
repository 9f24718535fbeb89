// Package store holds the in-memory record and tag collections and mirrors
// every mutation to a kv namespace.
package store

import (
	"time"

	"github.com/google/uuid"

	"moneytracker/internal/log"
	"moneytracker/internal/metrics"
)

type Option func(*options)

type options struct {
	logger  *log.Logger
	metrics *metrics.Metrics
	now     func() time.Time
	newID   func() string
}

func defaultOptions(component string) options {
	return options{
		logger: log.Default(component),
		now:    time.Now,
		newID:  uuid.NewString,
	}
}

func WithLogger(l *log.Logger) Option {
	return func(o *options) {
		if l != nil {
			o.logger = l
		}
	}
}

func WithMetrics(m *metrics.Metrics) Option {
	return func(o *options) { o.metrics = m }
}

// WithClock overrides the time source used for timestamps and default dates.
func WithClock(now func() time.Time) Option {
	return func(o *options) {
		if now != nil {
			o.now = now
		}
	}
}

// WithIDGenerator overrides uuid.NewString.
func WithIDGenerator(gen func() string) Option {
	return func(o *options) {
		if gen != nil {
			o.newID = gen
		}
	}
}
