// Package sqlite provides a ports.CheckpointStore backed by SQLite, for
// single-node deployments that need durability without a Redis.
package sqlite

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/glebarez/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
	"gorm.io/gorm/logger"

	"github.com/remedyhq/remedy/pkg/domain"
)

// checkpointRow is the persistence model. The checkpoint itself is an
// opaque JSON document; only the lookup columns are relational.
type checkpointRow struct {
	SessionID string `gorm:"primaryKey;column:session_id"`
	Token     string `gorm:"column:token;index"`
	Data      []byte `gorm:"column:data"`
	CreatedAt time.Time
	UpdatedAt time.Time
}

func (checkpointRow) TableName() string { return "checkpoints" }

// Store implements ports.CheckpointStore on a SQLite database.
type Store struct {
	db *gorm.DB
}

// New opens (or creates) the database at path and migrates the schema.
// Use ":memory:" for an ephemeral store.
func New(path string) (*Store, error) {
	db, err := gorm.Open(sqlite.Open(path), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	if err != nil {
		return nil, fmt.Errorf("failed to open sqlite database: %w", err)
	}
	if err := db.AutoMigrate(&checkpointRow{}); err != nil {
		return nil, fmt.Errorf("failed to migrate schema: %w", err)
	}
	return &Store{db: db}, nil
}

// Save persists the checkpoint, replacing any previous row for the session.
func (s *Store) Save(ctx context.Context, sessionID string, cp *domain.Checkpoint) error {
	data, err := json.Marshal(cp)
	if err != nil {
		return fmt.Errorf("failed to marshal checkpoint: %w", err)
	}

	row := checkpointRow{
		SessionID: sessionID,
		Token:     cp.Token,
		Data:      data,
	}
	err = s.db.WithContext(ctx).
		Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "session_id"}},
			DoUpdates: clause.AssignmentColumns([]string{"token", "data", "updated_at"}),
		}).
		Create(&row).Error
	if err != nil {
		return fmt.Errorf("failed to save checkpoint: %w", err)
	}
	return nil
}

// Load retrieves the checkpoint for a session.
func (s *Store) Load(ctx context.Context, sessionID string) (*domain.Checkpoint, error) {
	var row checkpointRow
	err := s.db.WithContext(ctx).First(&row, "session_id = ?", sessionID).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, domain.ErrSessionNotFound
		}
		return nil, fmt.Errorf("failed to load checkpoint: %w", err)
	}
	return decode(row.Data)
}

// FindToken resolves a resumption token to its checkpoint.
func (s *Store) FindToken(ctx context.Context, token string) (*domain.Checkpoint, error) {
	if token == "" {
		return nil, domain.ErrTokenNotFound
	}
	var row checkpointRow
	err := s.db.WithContext(ctx).First(&row, "token = ?", token).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, domain.ErrTokenNotFound
		}
		return nil, fmt.Errorf("failed to resolve token: %w", err)
	}
	return decode(row.Data)
}

// Delete removes the checkpoint for a session.
func (s *Store) Delete(ctx context.Context, sessionID string) error {
	err := s.db.WithContext(ctx).Delete(&checkpointRow{}, "session_id = ?", sessionID).Error
	if err != nil {
		return fmt.Errorf("failed to delete checkpoint: %w", err)
	}
	return nil
}

// List returns the IDs of stored sessions.
func (s *Store) List(ctx context.Context) ([]string, error) {
	var ids []string
	err := s.db.WithContext(ctx).
		Model(&checkpointRow{}).
		Order("session_id").
		Pluck("session_id", &ids).Error
	if err != nil {
		return nil, fmt.Errorf("failed to list sessions: %w", err)
	}
	return ids, nil
}

// Close closes the underlying database handle.
func (s *Store) Close() error {
	sqlDB, err := s.db.DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}

func decode(data []byte) (*domain.Checkpoint, error) {
	var cp domain.Checkpoint
	if err := json.Unmarshal(data, &cp); err != nil {
		return nil, fmt.Errorf("failed to unmarshal checkpoint: %w", err)
	}
	return &cp, nil
}
