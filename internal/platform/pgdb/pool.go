package pgdb

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/jackc/pgx/v5/stdlib"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	gormLogger "gorm.io/gorm/logger"

	"github.com/yungbote/learnpath-backend/internal/platform/logger"
)

type Config struct {
	DSN      string
	MaxConns int32
	Timeout  time.Duration
}

// DB is a pgx pool with a gorm handle on top of it. Queries go through Gorm;
// Pool is kept for connection statistics.
type DB struct {
	Pool *pgxpool.Pool
	Gorm *gorm.DB
	sql  *sql.DB
}

// Open creates a pgx pool, pings it once and opens gorm over it. The caller
// owns the returned DB and must Close it.
func Open(ctx context.Context, log *logger.Logger, cfg Config) (*DB, error) {
	if log == nil {
		log = logger.Nop()
	}
	dsn := strings.TrimSpace(cfg.DSN)
	if dsn == "" {
		return nil, fmt.Errorf("pgdb: missing dsn")
	}
	pcfg, err := pgxpool.ParseConfig(dsn)
	if err != nil {
		return nil, fmt.Errorf("pgdb: parse dsn: %w", err)
	}
	if cfg.MaxConns > 0 {
		pcfg.MaxConns = cfg.MaxConns
	}
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = 10 * time.Second
	}

	pool, err := pgxpool.NewWithConfig(ctx, pcfg)
	if err != nil {
		return nil, fmt.Errorf("pgdb: open pool: %w", err)
	}
	pingCtx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()
	if err := pool.Ping(pingCtx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("pgdb: ping: %w", err)
	}

	sqlDB := stdlib.OpenDBFromPool(pool)
	gdb, err := gorm.Open(postgres.New(postgres.Config{Conn: sqlDB}), &gorm.Config{
		DisableForeignKeyConstraintWhenMigrating: true,
		Logger:                                   newGormLogger(log),
	})
	if err != nil {
		_ = sqlDB.Close()
		pool.Close()
		return nil, fmt.Errorf("pgdb: open gorm: %w", err)
	}

	log.Info("postgres connected",
		"host", pcfg.ConnConfig.Host,
		"port", pcfg.ConnConfig.Port,
		"database", pcfg.ConnConfig.Database,
		"max_conns", pcfg.MaxConns,
	)
	return &DB{Pool: pool, Gorm: gdb, sql: sqlDB}, nil
}

// PgxPool returns the underlying pool, or nil for a nil DB.
func (d *DB) PgxPool() *pgxpool.Pool {
	if d == nil {
		return nil
	}
	return d.Pool
}

func (d *DB) Close() {
	if d == nil {
		return
	}
	if d.sql != nil {
		_ = d.sql.Close()
	}
	if d.Pool != nil {
		d.Pool.Close()
	}
}

// gormWriter routes gorm's slow-query and error lines into the service log.
type gormWriter struct{ log *logger.Logger }

func (w gormWriter) Printf(format string, args ...interface{}) {
	w.log.Warn("gorm", "msg", fmt.Sprintf(format, args...))
}

func newGormLogger(log *logger.Logger) gormLogger.Interface {
	return gormLogger.New(gormWriter{log: log.With("component", "gorm")}, gormLogger.Config{
		SlowThreshold:             1 * time.Second,
		LogLevel:                  gormLogger.Warn,
		IgnoreRecordNotFoundError: true,
		Colorful:                  false,
	})
}
