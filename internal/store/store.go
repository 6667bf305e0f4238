package store

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
	"gorm.io/driver/postgres"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"

	"yatube/internal/config"
	"yatube/internal/models"
)

// MemoryDatabase as Database.Path opens a private in-memory SQLite database.
const MemoryDatabase = ":memory:"

var (
	ErrNotFound  = errors.New("record not found")
	ErrDuplicate = errors.New("record already exists")
)

// Store owns the gorm handle. All queries go through it.
type Store struct {
	db  *gorm.DB
	log logrus.FieldLogger
}

// Open connects to Postgres when cfg.Host is set and to SQLite otherwise.
func Open(cfg config.Database, log logrus.FieldLogger) (*Store, error) {
	gcfg := &gorm.Config{
		TranslateError: true,
		Logger:         gormlogger.Default.LogMode(gormlogger.Silent),
	}

	var (
		db  *gorm.DB
		err error
	)
	if cfg.Host == "" {
		dsn := sqliteDSN(cfg.Path)
		log.WithField("path", cfg.Path).Info("Connecting to SQLite database")
		db, err = gorm.Open(sqlite.Open(dsn), gcfg)
	} else {
		dsn := fmt.Sprintf("host=%s port=%s user=%s password=%s dbname=%s sslmode=%s",
			cfg.Host, cfg.Port, cfg.User, cfg.Password, cfg.Name, cfg.SSLMode)
		log.WithField("host", cfg.Host).Info("Connecting to PostgreSQL database")
		db, err = gorm.Open(postgres.Open(dsn), gcfg)
	}
	if err != nil {
		log.WithError(err).Error("Failed to connect to the database")
		return nil, fmt.Errorf("open database: %w", err)
	}

	if cfg.Host == "" {
		sqlDB, err := db.DB()
		if err != nil {
			return nil, err
		}
		// One connection: SQLite serialises writers anyway, and an in-memory
		// database lives only as long as its connection.
		sqlDB.SetMaxOpenConns(1)
		sqlDB.SetConnMaxLifetime(0)
		if err := db.Exec("PRAGMA foreign_keys = ON").Error; err != nil {
			return nil, fmt.Errorf("enable sqlite foreign keys: %w", err)
		}
	}

	log.Info("Database connection successful")
	return &Store{db: db, log: log}, nil
}

func sqliteDSN(path string) string {
	if path == MemoryDatabase {
		return fmt.Sprintf("file:%s?mode=memory&cache=shared&_foreign_keys=on", uuid.NewString())
	}
	return path + "?_foreign_keys=on&_busy_timeout=5000"
}

// Migrate creates or updates the schema.
func (s *Store) Migrate(ctx context.Context) error {
	start := time.Now()
	if err := s.db.WithContext(ctx).AutoMigrate(models.All()...); err != nil {
		return fmt.Errorf("migrate: %w", err)
	}
	s.log.WithField("duration", time.Since(start)).Info("Schema migrated")
	return nil
}

// Ping checks the underlying connection.
func (s *Store) Ping(ctx context.Context) error {
	sqlDB, err := s.db.DB()
	if err != nil {
		return err
	}
	return sqlDB.PingContext(ctx)
}

func (s *Store) Close() error {
	sqlDB, err := s.db.DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}

// translate maps gorm errors onto the package sentinels.
func translate(err error) error {
	switch {
	case err == nil:
		return nil
	case errors.Is(err, gorm.ErrRecordNotFound):
		return ErrNotFound
	case errors.Is(err, gorm.ErrDuplicatedKey):
		return fmt.Errorf("%w: %v", ErrDuplicate, err)
	default:
		return err
	}
}
