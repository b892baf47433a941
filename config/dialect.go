package config

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"
	"gorm.io/driver/mysql"
	"gorm.io/driver/postgres"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"
)

const (
	DriverPostgres = "postgres"
	DriverMySQL    = "mysql"
	DriverSQLite   = "sqlite"
)

// Dialector returns the gorm dialector for a configured driver name.
func Dialector(driver, dsn string) (gorm.Dialector, error) {
	switch driver {
	case DriverPostgres:
		return postgres.Open(dsn), nil
	case DriverMySQL:
		return mysql.Open(dsn), nil
	case DriverSQLite:
		return sqlite.Open(dsn), nil
	}
	return nil, fmt.Errorf("unsupported database driver %q", driver)
}

// NewDialer returns a Dialer that opens and pings a fresh gorm handle.
func NewDialer(driver, dsn string, maxOpenConns int, logger *zap.Logger) Dialer {
	return func(ctx context.Context) (*gorm.DB, error) {
		dialector, err := Dialector(driver, dsn)
		if err != nil {
			return nil, err
		}
		// The ping below is bound to ctx; gorm's own ping is not.
		db, err := gorm.Open(dialector, &gorm.Config{
			Logger:               GormLogger(logger),
			DisableAutomaticPing: true,
		})
		if err != nil {
			if db != nil {
				closeHandle(db)
			}
			return nil, err
		}

		sqlDB, err := db.DB()
		if err != nil {
			return nil, err
		}
		if maxOpenConns > 0 {
			sqlDB.SetMaxOpenConns(maxOpenConns)
		}
		if err := sqlDB.PingContext(ctx); err != nil {
			sqlDB.Close()
			return nil, err
		}
		return db, nil
	}
}

type gormWriter struct {
	sugar *zap.SugaredLogger
}

func (w gormWriter) Printf(format string, args ...interface{}) {
	w.sugar.Warnf(format, args...)
}

// GormLogger routes gorm's slow-query and error output to zap.
func GormLogger(logger *zap.Logger) gormlogger.Interface {
	return gormlogger.New(gormWriter{sugar: logger.Named("gorm").Sugar()}, gormlogger.Config{
		SlowThreshold:             200 * time.Millisecond,
		LogLevel:                  gormlogger.Warn,
		IgnoreRecordNotFoundError: true,
	})
}
