package postgres

import (
	"context"
	"errors"
	"time"

	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"github.com/footprint-shop/api/internal/repositories"
)

// Options tune the connection pool.
type Options struct {
	MaxOpenConns    int
	MaxIdleConns    int
	ConnMaxLifetime time.Duration
}

// Open connects to Postgres, runs schema migration, and returns a
// repositories.Registry backed by the connection.
func Open(dsn string, opts Options) (repositories.Registry, error) {
	if dsn == "" {
		return nil, errors.New("postgres: dsn is required")
	}
	db, err := gorm.Open(postgres.Open(dsn), &gorm.Config{
		TranslateError: true,
		Logger:         logger.Default.LogMode(logger.Silent),
	})
	if err != nil {
		return nil, wrapError("postgres.open", err)
	}

	sqlDB, err := db.DB()
	if err != nil {
		return nil, wrapError("postgres.open", err)
	}
	if opts.MaxOpenConns > 0 {
		sqlDB.SetMaxOpenConns(opts.MaxOpenConns)
	}
	if opts.MaxIdleConns > 0 {
		sqlDB.SetMaxIdleConns(opts.MaxIdleConns)
	}
	if opts.ConnMaxLifetime > 0 {
		sqlDB.SetConnMaxLifetime(opts.ConnMaxLifetime)
	}
	if err := Migrate(db); err != nil {
		_ = sqlDB.Close()
		return nil, err
	}
	return NewRegistry(db), nil
}

// Migrate creates the schema. The partial unique index keeps at most one
// shipment in status "created" per order at the database level.
func Migrate(db *gorm.DB) error {
	if err := db.AutoMigrate(&orderRow{}, &orderItemRow{}, &shipmentRow{}, &auditLogRow{}); err != nil {
		return wrapError("postgres.migrate", err)
	}
	err := db.Exec(
		`CREATE UNIQUE INDEX IF NOT EXISTS idx_shipments_active_order
		 ON shipments (order_id) WHERE status = 'created'`,
	).Error
	if err != nil {
		return wrapError("postgres.migrate", err)
	}
	return nil
}

// registry implements repositories.Registry on one gorm handle.
type registry struct {
	db *gorm.DB
}

// NewRegistry wraps an existing gorm handle. Mainly for tests that open
// the database themselves.
func NewRegistry(db *gorm.DB) repositories.Registry {
	return &registry{db: db}
}

func (r *registry) Close() error {
	sqlDB, err := r.db.DB()
	if err != nil {
		return wrapError("postgres.close", err)
	}
	return sqlDB.Close()
}

func (r *registry) Orders() repositories.OrderRepository {
	return &orderRepository{db: r.db}
}

func (r *registry) Shipments() repositories.ShipmentRepository {
	return &shipmentRepository{db: r.db}
}

func (r *registry) AuditLogs() repositories.AuditLogRepository {
	return &auditLogRepository{db: r.db}
}

func (r *registry) Health() repositories.HealthRepository {
	return &healthRepository{db: r.db}
}

type txKey struct{}

// RunInTx executes fn inside one database transaction. Repositories pick
// the transaction handle out of the context.
func (r *registry) RunInTx(ctx context.Context, fn func(ctx context.Context) error) error {
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		return fn(context.WithValue(ctx, txKey{}, tx))
	})
	return wrapError("postgres.tx", err)
}

// handle returns the transaction bound to ctx when present, else the root
// connection.
func handle(ctx context.Context, db *gorm.DB) *gorm.DB {
	if tx, ok := ctx.Value(txKey{}).(*gorm.DB); ok {
		return tx.WithContext(ctx)
	}
	return db.WithContext(ctx)
}

type healthRepository struct {
	db *gorm.DB
}

func (h *healthRepository) Ping(ctx context.Context) error {
	sqlDB, err := h.db.DB()
	if err != nil {
		return wrapError("health.ping", err)
	}
	if err := sqlDB.PingContext(ctx); err != nil {
		return wrapError("health.ping", err)
	}
	return nil
}
