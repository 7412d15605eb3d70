package migration

import (
	"errors"
	"fmt"
	"path/filepath"

	"github.com/golang-migrate/migrate/v4"
	"go.uber.org/zap"

	_ "github.com/golang-migrate/migrate/v4/database/postgres" // register postgres DB and SQL
	_ "github.com/golang-migrate/migrate/v4/source/file"       // register file source
)

// SourceURL turns a migrations directory into a file:// source URL.
func SourceURL(dir string) (string, error) {
	absPath, err := filepath.Abs(dir)
	if err != nil {
		return "", fmt.Errorf("failed to resolve migrations dir: %w", err)
	}
	return "file://" + filepath.ToSlash(absPath), nil
}

func newMigrate(dbURL, dir string, verbose bool, log *zap.Logger) (*migrate.Migrate, error) {
	source, err := SourceURL(dir)
	if err != nil {
		return nil, err
	}

	m, err := migrate.New(source, dbURL)
	if err != nil {
		return nil, fmt.Errorf("failed to open migrations: %w", err)
	}
	m.Log = NewLogger(log, verbose)
	return m, nil
}

// Up applies all pending migrations. Being up to date is not an error.
func Up(dbURL, dir string, verbose bool, log *zap.Logger) error {
	log.Info("Running database migration", zap.String("dir", dir))

	m, err := newMigrate(dbURL, dir, verbose, log)
	if err != nil {
		return err
	}
	defer m.Close()

	if err := m.Up(); err != nil {
		if errors.Is(err, migrate.ErrNoChange) {
			log.Info("Database migration: no change needed")
			return nil
		}
		log.Error("Database migration failed", zap.Error(err))
		return err
	}

	log.Info("Database migration finished")
	return nil
}

// Down rolls back the given number of migrations.
func Down(dbURL, dir string, steps int, verbose bool, log *zap.Logger) error {
	if steps <= 0 {
		return fmt.Errorf("steps must be positive, got %d", steps)
	}

	m, err := newMigrate(dbURL, dir, verbose, log)
	if err != nil {
		return err
	}
	defer m.Close()

	if err := m.Steps(-steps); err != nil && !errors.Is(err, migrate.ErrNoChange) {
		log.Error("Database rollback failed", zap.Error(err))
		return err
	}

	log.Info("Database rollback finished", zap.Int("steps", steps))
	return nil
}

// Version reports the applied schema version.
func Version(dbURL, dir string, log *zap.Logger) (uint, bool, error) {
	m, err := newMigrate(dbURL, dir, false, log)
	if err != nil {
		return 0, false, err
	}
	defer m.Close()

	version, dirty, err := m.Version()
	if errors.Is(err, migrate.ErrNilVersion) {
		return 0, false, nil
	}
	return version, dirty, err
}

type Logger struct {
	logger  *zap.Logger
	verbose bool
}

func (l *Logger) Printf(format string, v ...any) {
	l.logger.Sugar().Infof("DB Migration: "+format, v...)
}

func (l *Logger) Verbose() bool {
	return l.verbose
}

func NewLogger(logger *zap.Logger, verbose bool) *Logger {
	return &Logger{
		logger:  logger,
		verbose: verbose,
	}
}
