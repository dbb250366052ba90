package db

import (
	"context"
	"fmt"
	"time"

	"github.com/sirupsen/logrus"
	"gorm.io/driver/mysql"
	"gorm.io/driver/postgres"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	applog "fanders-backend/internal/infrastructure/logger"
)

const (
	DriverMySQL    = "mysql"
	DriverPostgres = "postgres"
	// DriverSQLite is for local runs without a database server.
	DriverSQLite = "sqlite"
)

// Pool sizes the database/sql pool. Zero fields take the defaults of DefaultPool.
type Pool struct {
	MaxOpen     int
	MaxIdle     int
	MaxLifetime time.Duration
	MaxIdleTime time.Duration
	PingTimeout time.Duration
}

func DefaultPool() Pool {
	return Pool{
		MaxOpen:     30,
		MaxIdle:     10,
		MaxLifetime: 30 * time.Minute,
		MaxIdleTime: 10 * time.Minute,
		PingTimeout: 5 * time.Second,
	}
}

func (p Pool) withDefaults() Pool {
	d := DefaultPool()
	if p.MaxOpen <= 0 {
		p.MaxOpen = d.MaxOpen
	}
	if p.MaxIdle <= 0 {
		p.MaxIdle = d.MaxIdle
	}
	if p.MaxIdle > p.MaxOpen {
		p.MaxIdle = p.MaxOpen
	}
	if p.MaxLifetime <= 0 {
		p.MaxLifetime = d.MaxLifetime
	}
	if p.MaxIdleTime <= 0 {
		p.MaxIdleTime = d.MaxIdleTime
	}
	if p.PingTimeout <= 0 {
		p.PingTimeout = d.PingTimeout
	}
	return p
}

type Options struct {
	Driver string
	DSN    string
	Pool   Pool
}

// Dialector picks the gorm dialector for driver.
func Dialector(driver, dsn string) (gorm.Dialector, error) {
	switch driver {
	case DriverMySQL:
		return mysql.Open(dsn), nil
	case DriverPostgres:
		return postgres.Open(dsn), nil
	case DriverSQLite:
		return sqlite.Open(dsn), nil
	default:
		return nil, fmt.Errorf("unsupported DB_DRIVER %q", driver)
	}
}

// OpenGorm connects, sizes the pool and pings once within the ping timeout.
func OpenGorm(ctx context.Context, o Options, log *logrus.Logger) (*gorm.DB, error) {
	dial, err := Dialector(o.Driver, o.DSN)
	if err != nil {
		return nil, err
	}
	pool := o.Pool
	if o.Driver == DriverSQLite {
		// sqlite allows a single writer
		pool.MaxOpen, pool.MaxIdle = 1, 1
	}
	gdb, err := open(ctx, dial, &gorm.Config{Logger: applog.Gorm(log), DisableAutomaticPing: true}, pool)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", o.Driver, err)
	}
	log.WithFields(logrus.Fields{"driver": o.Driver, "max_open": pool.withDefaults().MaxOpen}).Info("gorm: connected")
	return gdb, nil
}

// OpenGormWithDialector opens over an existing dialector with a silent logger.
func OpenGormWithDialector(ctx context.Context, dial gorm.Dialector, pool Pool) (*gorm.DB, error) {
	return open(ctx, dial, &gorm.Config{Logger: logger.Discard, DisableAutomaticPing: true}, pool)
}

func open(ctx context.Context, dial gorm.Dialector, cfg *gorm.Config, pool Pool) (*gorm.DB, error) {
	gdb, err := gorm.Open(dial, cfg)
	if err != nil {
		return nil, err
	}
	sqlDB, err := gdb.DB()
	if err != nil {
		return nil, err
	}
	pool = pool.withDefaults()
	sqlDB.SetMaxOpenConns(pool.MaxOpen)
	sqlDB.SetMaxIdleConns(pool.MaxIdle)
	sqlDB.SetConnMaxLifetime(pool.MaxLifetime)
	sqlDB.SetConnMaxIdleTime(pool.MaxIdleTime)

	pingCtx, cancel := context.WithTimeout(ctx, pool.PingTimeout)
	defer cancel()
	if err := sqlDB.PingContext(pingCtx); err != nil {
		_ = sqlDB.Close()
		return nil, err
	}
	return gdb, nil
}
