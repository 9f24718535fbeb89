// Package postgres keeps kv namespaces in a Postgres table.
package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"sync"
	"time"

	sq "github.com/Masterminds/squirrel"
	_ "github.com/jackc/pgx/v5/stdlib" // register pgx as a database/sql driver

	"moneytracker/internal/kv"
)

const (
	defaultDriver = "pgx"
	defaultDSN    = "postgres://localhost/moneytracker?sslmode=disable"
	tableName     = "kv_items"
)

var (
	sqlOpen = sql.Open
	openMu  sync.Mutex

	psql = sq.StatementBuilder.PlaceholderFormat(sq.Dollar)
)

var _ kv.Backend = (*Store)(nil)

type Store struct {
	db *sql.DB
}

// NewStore opens dsn (falls back to defaultDSN) and ensures the table exists.
func NewStore(ctx context.Context, dsn string) (*Store, error) {
	if dsn == "" {
		dsn = defaultDSN
	}
	openMu.Lock()
	db, err := sqlOpen(defaultDriver, dsn)
	openMu.Unlock()
	if err != nil {
		return nil, fmt.Errorf("open postgres: %w", err)
	}
	if err := db.PingContext(ctx); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("ping postgres: %w", err)
	}
	if err := ensureTable(ctx, db); err != nil {
		_ = db.Close()
		return nil, err
	}
	return &Store{db: db}, nil
}

func ensureTable(ctx context.Context, db *sql.DB) error {
	ddl := `CREATE TABLE IF NOT EXISTS ` + tableName + ` (
		namespace  TEXT NOT NULL,
		key        TEXT NOT NULL,
		value      BYTEA NOT NULL,
		updated_at TIMESTAMPTZ NOT NULL,
		PRIMARY KEY (namespace, key)
	)`
	if _, err := db.ExecContext(ctx, ddl); err != nil {
		return fmt.Errorf("ensure kv table: %w", err)
	}
	return nil
}

func (s *Store) Close() error { return s.db.Close() }

func (s *Store) Ping(ctx context.Context) error { return s.db.PingContext(ctx) }

func (s *Store) Bucket(namespace string) kv.Bucket {
	return &bucket{db: s.db, namespace: namespace}
}

type bucket struct {
	db        *sql.DB
	namespace string
}

func selectValue(namespace, key string) (string, []any, error) {
	return psql.Select("value").From(tableName).
		Where(sq.Eq{"namespace": namespace, "key": key}).
		ToSql()
}

func upsertValue(namespace, key string, value []byte, now time.Time) (string, []any, error) {
	return psql.Insert(tableName).
		Columns("namespace", "key", "value", "updated_at").
		Values(namespace, key, value, now).
		Suffix("ON CONFLICT (namespace, key) DO UPDATE SET value = EXCLUDED.value, updated_at = EXCLUDED.updated_at").
		ToSql()
}

func (b *bucket) Get(ctx context.Context, key string) ([]byte, bool, error) {
	query, args, err := selectValue(b.namespace, key)
	if err != nil {
		return nil, false, fmt.Errorf("build select: %w", err)
	}
	var value []byte
	err = b.db.QueryRowContext(ctx, query, args...).Scan(&value)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, fmt.Errorf("select value: %w", err)
	}
	return value, true, nil
}

func (b *bucket) Put(ctx context.Context, key string, value []byte) error {
	query, args, err := upsertValue(b.namespace, key, value, time.Now().UTC())
	if err != nil {
		return fmt.Errorf("build upsert: %w", err)
	}
	if _, err := b.db.ExecContext(ctx, query, args...); err != nil {
		return fmt.Errorf("upsert value: %w", err)
	}
	return nil
}

func (b *bucket) Delete(ctx context.Context, key string) error {
	query, args, err := psql.Delete(tableName).
		Where(sq.Eq{"namespace": b.namespace, "key": key}).
		ToSql()
	if err != nil {
		return fmt.Errorf("build delete: %w", err)
	}
	if _, err := b.db.ExecContext(ctx, query, args...); err != nil {
		return fmt.Errorf("delete value: %w", err)
	}
	return nil
}

func (b *bucket) Clear(ctx context.Context) error {
	query, args, err := psql.Delete(tableName).Where(sq.Eq{"namespace": b.namespace}).ToSql()
	if err != nil {
		return fmt.Errorf("build clear: %w", err)
	}
	if _, err := b.db.ExecContext(ctx, query, args...); err != nil {
		return fmt.Errorf("clear namespace: %w", err)
	}
	return nil
}

func (b *bucket) Keys(ctx context.Context) ([]string, error) {
	query, args, err := psql.Select("key").From(tableName).
		Where(sq.Eq{"namespace": b.namespace}).
		OrderBy("key").
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("build keys: %w", err)
	}
	rows, err := b.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("list keys: %w", err)
	}
	defer func() { _ = rows.Close() }()

	var keys []string
	for rows.Next() {
		var k string
		if err := rows.Scan(&k); err != nil {
			return nil, fmt.Errorf("scan key: %w", err)
		}
		keys = append(keys, k)
	}
	return keys, rows.Err()
}
