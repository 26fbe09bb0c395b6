package db

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/sirupsen/logrus"
	"gorm.io/driver/postgres"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"

	"github.com/personnel_accounting/configs"
	"github.com/personnel_accounting/internal/models"
)

var gormDB *gorm.DB

// Open connects to the database selected by opts.Type. SQLite connections are
// limited to a single open connection so writes are serialized.
func Open(opts configs.DatabaseOptions, log gormlogger.Interface) (*gorm.DB, error) {
	var dialector gorm.Dialector
	maxOpen, maxIdle := opts.MaxOpenConns, opts.MaxIdleConns

	switch opts.Type {
	case "postgres":
		dialector = postgres.Open(opts.PostgresDSN())
	case "sqlite", "":
		if opts.SQLitePath != ":memory:" {
			dir := filepath.Dir(opts.SQLitePath)
			if err := os.MkdirAll(dir, 0o755); err != nil {
				return nil, fmt.Errorf("create database directory %s: %w", dir, err)
			}
		}
		dialector = sqlite.Open(opts.SQLitePath + "?_busy_timeout=5000")
		maxOpen, maxIdle = 1, 1
	default:
		return nil, fmt.Errorf("unsupported DB_TYPE %q", opts.Type)
	}

	if log == nil {
		log = gormlogger.Default.LogMode(gormlogger.Silent)
	}
	conn, err := gorm.Open(dialector, &gorm.Config{Logger: log})
	if err != nil {
		return nil, err
	}

	sqlDB, err := conn.DB()
	if err != nil {
		return nil, fmt.Errorf("get underlying sql.DB: %w", err)
	}
	sqlDB.SetMaxOpenConns(maxOpen)
	sqlDB.SetMaxIdleConns(maxIdle)
	// a recycled connection would drop an in-memory database
	if opts.ConnMaxLifetime > 0 && opts.SQLitePath != ":memory:" {
		sqlDB.SetConnMaxLifetime(opts.ConnMaxLifetime)
	}
	return conn, nil
}

// Migrate creates or updates every table of the schema.
func Migrate(conn *gorm.DB) error {
	return conn.AutoMigrate(
		&models.User{},
		&models.Rank{},
		&models.Unit{},
		&models.MilitarySpecialty{},
		&models.Position{},
		&models.ServiceMember{},
		&models.Contract{},
		&models.PositionHistory{},
		&models.ServiceHistoryEvent{},
		&models.Order{},
		&models.OrderAction{},
		&models.ServicemanReport{},
		&models.AuditLog{},
	)
}

// InitDB opens the application database, migrates it and keeps it for GetDB.
func InitDB(opts configs.DatabaseOptions, log gormlogger.Interface) error {
	conn, err := Open(opts, log)
	if err != nil {
		return fmt.Errorf("connect to %s database: %w", opts.Type, err)
	}
	if err := Migrate(conn); err != nil {
		return fmt.Errorf("auto migrate: %w", err)
	}
	gormDB = conn
	logrus.WithField("type", opts.Type).Info("database connected and migrated")
	return nil
}

// GetDB returns the database opened by InitDB.
func GetDB() *gorm.DB {
	if gormDB == nil {
		logrus.Fatal("database not initialized, call InitDB first")
	}
	return gormDB
}

// CloseDB closes the database opened by InitDB.
func CloseDB() error {
	if gormDB == nil {
		return errors.New("database not initialized")
	}
	sqlDB, err := gormDB.DB()
	if err != nil {
		return err
	}
	if err := sqlDB.Close(); err != nil {
		return err
	}
	logrus.Info("database connection closed")
	return nil
}
