package db

import (
	"errors"
	"fmt"
	"os"
	"time"

	"gorm.io/driver/mysql"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"github.com/sirupsen/logrus"

	"github.com/dcurrey/dupReport/internal/models"
)

var (
	// ErrNotInitialized is returned when the store has no version record.
	ErrNotInitialized = errors.New("database is not initialized")
	// ErrVersionMismatch is returned when the store layout differs from the program's.
	ErrVersionMismatch = errors.New("database version mismatch, run with --initdb to rebuild it")
)

// CurrentVersion is the store layout this build reads and writes.
var CurrentVersion = models.SchemaVersion{Component: "database", Major: 1, Minor: 0, Subminor: 0}

// Options selects the storage engine.
type Options struct {
	Driver string // sqlite or mysql
	DSN    string // mysql only
	File   string // sqlite only
}

// Exists reports whether the store has been created before. Server
// databases are assumed to exist and are checked through CheckVersion.
func Exists(opts Options) bool {
	if opts.Driver == "mysql" {
		return true
	}
	_, err := os.Stat(opts.File)
	return err == nil
}

// Open connects to the store
func Open(opts Options) (*gorm.DB, error) {
	gormLogger := logger.New(
		logrus.StandardLogger(),
		logger.Config{
			SlowThreshold:             time.Second,
			LogLevel:                  logger.Warn,
			IgnoreRecordNotFoundError: true,
			Colorful:                  false,
		},
	)

	var dialector gorm.Dialector
	switch opts.Driver {
	case "mysql":
		dialector = mysql.Open(opts.DSN)
	case "sqlite", "":
		dialector = sqlite.Open(opts.File)
	default:
		return nil, fmt.Errorf("unsupported database driver %q", opts.Driver)
	}

	db, err := gorm.Open(dialector, &gorm.Config{Logger: gormLogger})
	if err != nil {
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}

	sqlDB, err := db.DB()
	if err != nil {
		return nil, fmt.Errorf("failed to get underlying SQL DB: %w", err)
	}

	if opts.Driver == "mysql" {
		sqlDB.SetMaxIdleConns(2)
		sqlDB.SetMaxOpenConns(10)
		sqlDB.SetConnMaxLifetime(time.Hour)
	} else {
		sqlDB.SetMaxOpenConns(1)
	}

	logrus.WithField("driver", dialector.Name()).Debug("Database opened")
	return db, nil
}

// Close releases the underlying connection pool.
func Close(db *gorm.DB) error {
	sqlDB, err := db.DB()
	if err != nil {
		return fmt.Errorf("failed to get underlying SQL DB: %w", err)
	}
	return sqlDB.Close()
}

// Initialize drops every table and recreates an empty store.
func Initialize(db *gorm.DB) error {
	logrus.Info("Initializing database")

	tables := []interface{}{&models.Email{}, &models.BackupSet{}, &models.SchemaVersion{}}
	if err := db.Migrator().DropTable(tables...); err != nil {
		return fmt.Errorf("failed to drop tables: %w", err)
	}
	if err := db.AutoMigrate(tables...); err != nil {
		return fmt.Errorf("failed to auto migrate: %w", err)
	}

	version := CurrentVersion
	if err := db.Create(&version).Error; err != nil {
		return fmt.Errorf("failed to write database version: %w", err)
	}

	logrus.Infof("Database initialized at version %s", version)
	return nil
}

// Version reads the stored layout version.
func Version(db *gorm.DB) (models.SchemaVersion, error) {
	var v models.SchemaVersion
	if !db.Migrator().HasTable(&models.SchemaVersion{}) {
		return v, ErrNotInitialized
	}
	err := db.Where("component = ?", CurrentVersion.Component).First(&v).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return v, ErrNotInitialized
	}
	if err != nil {
		return v, fmt.Errorf("failed to read database version: %w", err)
	}
	return v, nil
}

// CheckVersion fails unless the store matches CurrentVersion.
func CheckVersion(db *gorm.DB) error {
	v, err := Version(db)
	if err != nil {
		return err
	}
	if !v.Matches(CurrentVersion) {
		return fmt.Errorf("%w: found %s, expected %s", ErrVersionMismatch, v, CurrentVersion)
	}
	logrus.Debugf("Database version %s", v)
	return nil
}
