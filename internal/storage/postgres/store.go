package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	_ "github.com/jackc/pgx/v5/stdlib"
)

const opTimeout = 5 * time.Second

// PoolOptions — параметры пула соединений database/sql.
type PoolOptions struct {
	MaxOpenConns    int
	MaxIdleConns    int
	ConnMaxLifetime time.Duration
	ConnMaxIdleTime time.Duration
	ConnectTimeout  time.Duration
}

// DefaultPoolOptions подходит для одного экземпляра Web API.
func DefaultPoolOptions() PoolOptions {
	return PoolOptions{
		MaxOpenConns:    25,
		MaxIdleConns:    25,
		ConnMaxLifetime: 30 * time.Minute,
		ConnMaxIdleTime: 5 * time.Minute,
		ConnectTimeout:  5 * time.Second,
	}
}

// Store — подключение к PostgreSQL, общее для всех репозиториев WebStore.
type Store struct {
	db      *sql.DB
	timeout time.Duration
}

// NewStore оборачивает уже открытое подключение (sqlmock в тестах).
func NewStore(db *sql.DB) *Store {
	return &Store{db: db, timeout: DefaultPoolOptions().ConnectTimeout}
}

// Open открывает пул через драйвер pgx и проверяет доступность базы.
// Нулевые поля pool берутся из DefaultPoolOptions.
func Open(ctx context.Context, dsn string, pool ...PoolOptions) (*Store, error) {
	opts := DefaultPoolOptions()
	if len(pool) > 0 {
		opts = mergePoolOptions(opts, pool[0])
	}

	db, err := sql.Open("pgx", dsn)
	if err != nil {
		return nil, fmt.Errorf("open postgres connection: %w", err)
	}
	db.SetMaxOpenConns(opts.MaxOpenConns)
	db.SetMaxIdleConns(min(opts.MaxIdleConns, opts.MaxOpenConns))
	db.SetConnMaxLifetime(opts.ConnMaxLifetime)
	db.SetConnMaxIdleTime(opts.ConnMaxIdleTime)

	store := &Store{db: db, timeout: opts.ConnectTimeout}
	if err := store.PingContext(ctx); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("ping postgres: %w", err)
	}
	return store, nil
}

func mergePoolOptions(base, override PoolOptions) PoolOptions {
	if override.MaxOpenConns > 0 {
		base.MaxOpenConns = override.MaxOpenConns
	}
	if override.MaxIdleConns > 0 {
		base.MaxIdleConns = override.MaxIdleConns
	}
	if override.ConnMaxLifetime > 0 {
		base.ConnMaxLifetime = override.ConnMaxLifetime
	}
	if override.ConnMaxIdleTime > 0 {
		base.ConnMaxIdleTime = override.ConnMaxIdleTime
	}
	if override.ConnectTimeout > 0 {
		base.ConnectTimeout = override.ConnectTimeout
	}
	return base
}

// DB возвращает пул для низкоуровневого доступа.
func (s *Store) DB() *sql.DB {
	return s.db
}

// PingContext проверяет подключение; Store подходит как health.Pinger.
func (s *Store) PingContext(ctx context.Context) error {
	if s == nil || s.db == nil {
		return errors.New("postgres store is not initialized")
	}

	pingCtx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()
	return s.db.PingContext(pingCtx)
}

// EnsureSchema применяет все up-миграции, включая начальные данные каталога.
func (s *Store) EnsureSchema(ctx context.Context) error {
	return s.MigrateUp(ctx, 0)
}

// Close закрывает пул.
func (s *Store) Close() error {
	if s == nil || s.db == nil {
		return nil
	}
	return s.db.Close()
}

// txBeginner — *sql.DB или *sql.Conn.
type txBeginner interface {
	BeginTx(ctx context.Context, opts *sql.TxOptions) (*sql.Tx, error)
}

// withTx выполняет fn в транзакции: commit при nil, иначе rollback.
func withTx(ctx context.Context, db txBeginner, fn func(tx *sql.Tx) error) error {
	tx, err := db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}
	if err := fn(tx); err != nil {
		_ = tx.Rollback()
		return err
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit tx: %w", err)
	}
	return nil
}
