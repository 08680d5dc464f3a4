package db

import (
	"fmt"
	"sync/atomic"

	"github.com/glebarez/sqlite"
	"go.uber.org/zap"
	"gorm.io/driver/mysql"
	"gorm.io/gorm"

	"swiftpolicy/internal/logger"
	"swiftpolicy/internal/model"
)

// NewMySQL returns a connected GORM DB instance.
func NewMySQL(dsn string, log *zap.Logger) (*gorm.DB, error) {
	db, err := gorm.Open(mysql.Open(dsn), &gorm.Config{Logger: logger.NewGormLogger(log)})
	if err != nil {
		return nil, fmt.Errorf("connect mysql: %w", err)
	}
	return db, nil
}

// NewSQLite opens a file-backed sqlite database for local runs.
func NewSQLite(path string, log *zap.Logger) (*gorm.DB, error) {
	db, err := gorm.Open(sqlite.Open(path), &gorm.Config{Logger: logger.NewGormLogger(log)})
	if err != nil {
		return nil, fmt.Errorf("open sqlite: %w", err)
	}
	return singleConn(db)
}

var memorySeq atomic.Int64

// NewMemory opens a private in-memory sqlite database, migrated and ready.
func NewMemory() (*gorm.DB, error) {
	dsn := fmt.Sprintf("file:memdb_%d?mode=memory&cache=shared", memorySeq.Add(1))
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{Logger: logger.NewGormLogger(nil)})
	if err != nil {
		return nil, fmt.Errorf("open sqlite memory: %w", err)
	}
	if db, err = singleConn(db); err != nil {
		return nil, err
	}
	if err := Migrate(db); err != nil {
		return nil, err
	}
	return db, nil
}

// Open selects the driver named by DB_DRIVER.
func Open(driver, mysqlDSN, sqlitePath string, log *zap.Logger) (*gorm.DB, error) {
	switch driver {
	case "sqlite":
		return NewSQLite(sqlitePath, log)
	case "mysql", "":
		return NewMySQL(mysqlDSN, log)
	default:
		return nil, fmt.Errorf("unsupported db driver %q", driver)
	}
}

// Migrate creates the registry table.
func Migrate(db *gorm.DB) error {
	if err := db.AutoMigrate(&model.CollectionRecord{}); err != nil {
		return fmt.Errorf("migrate registry: %w", err)
	}
	return nil
}

// sqlite allows one writer; a single connection keeps transactions from deadlocking.
func singleConn(db *gorm.DB) (*gorm.DB, error) {
	sqlDB, err := db.DB()
	if err != nil {
		return nil, fmt.Errorf("sqlite handle: %w", err)
	}
	sqlDB.SetMaxOpenConns(1)
	return db, nil
}
