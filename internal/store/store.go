// Package store keeps the serve-mode run history in an embedded SQLite
// database. One row per scan, written when the scan starts and finalized
// when it ends.
package store

import (
	"errors"
	"fmt"
	"time"

	"github.com/glebarez/sqlite"
	"go.uber.org/zap"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

// Run statuses.
const (
	StatusRunning   = "running"
	StatusCompleted = "completed"
	StatusFailed    = "failed"
)

// Run is one recorded scan.
type Run struct {
	ID         string `gorm:"primaryKey"`
	URL        string `gorm:"not null"`
	Scope      string
	Status     string `gorm:"index;not null"`
	BugCount   int
	ReportPath string
	StartedAt  time.Time
	FinishedAt *time.Time
	CreatedAt  time.Time
	UpdatedAt  time.Time
}

// Store wraps the run history database.
type Store struct {
	db     *gorm.DB
	logger *zap.Logger
}

// Open opens (or creates) the SQLite database at path and migrates the
// schema. Use ":memory:" for an ephemeral store.
func Open(path string, log *zap.Logger) (*Store, error) {
	if log == nil {
		log = zap.NewNop()
	}
	db, err := gorm.Open(sqlite.Open(path), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	if err != nil {
		return nil, fmt.Errorf("open run store: %w", err)
	}

	sqlDB, err := db.DB()
	if err != nil {
		return nil, fmt.Errorf("access run store pool: %w", err)
	}
	// single writer is plenty for a run ledger
	sqlDB.SetMaxOpenConns(1)
	sqlDB.SetConnMaxIdleTime(5 * time.Minute)

	if err := db.AutoMigrate(&Run{}); err != nil {
		return nil, fmt.Errorf("migrate run store: %w", err)
	}

	return &Store{db: db, logger: log.With(zap.String("component", "store"))}, nil
}

// Create records a newly started run.
func (s *Store) Create(run *Run) error {
	run.Status = StatusRunning
	if run.StartedAt.IsZero() {
		run.StartedAt = time.Now()
	}
	if err := s.db.Create(run).Error; err != nil {
		return fmt.Errorf("record run %s: %w", run.ID, err)
	}
	s.logger.Info("run recorded", zap.String("run_id", run.ID), zap.String("url", run.URL))
	return nil
}

// Finish marks a run terminal and stores its outcome.
func (s *Store) Finish(id, status string, bugCount int, reportPath string) error {
	now := time.Now()
	res := s.db.Model(&Run{}).Where("id = ?", id).Updates(map[string]any{
		"status":      status,
		"bug_count":   bugCount,
		"report_path": reportPath,
		"finished_at": &now,
	})
	if res.Error != nil {
		return fmt.Errorf("finish run %s: %w", id, res.Error)
	}
	if res.RowsAffected == 0 {
		return fmt.Errorf("finish run %s: not found", id)
	}
	return nil
}

// Get returns one run by id.
func (s *Store) Get(id string) (*Run, error) {
	var run Run
	if err := s.db.First(&run, "id = ?", id).Error; err != nil {
		return nil, fmt.Errorf("load run %s: %w", id, err)
	}
	return &run, nil
}

// List returns runs newest-first, bounded by limit.
func (s *Store) List(limit int) ([]Run, error) {
	if limit <= 0 {
		limit = 50
	}
	var runs []Run
	if err := s.db.Order("started_at DESC").Limit(limit).Find(&runs).Error; err != nil {
		return nil, fmt.Errorf("list runs: %w", err)
	}
	return runs, nil
}

// Active returns the currently running scan, or nil when idle.
func (s *Store) Active() (*Run, error) {
	var run Run
	err := s.db.First(&run, "status = ?", StatusRunning).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("query active run: %w", err)
	}
	return &run, nil
}

// Close releases the underlying connection pool.
func (s *Store) Close() error {
	sqlDB, err := s.db.DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}
