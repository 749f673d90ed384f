// Package sessions provides database operations for import session tracking.
package sessions

import (
	"encoding/json"
	"fmt"
	"time"

	"gorm.io/gorm"

	"github.com/akarpovich/deckport/internal/entities"
)

// Repository handles import session database operations.
type Repository struct {
	db *gorm.DB
}

// NewRepository creates a new sessions repository.
func NewRepository(db *gorm.DB) *Repository {
	return &Repository{db: db}
}

// Create opens a new pending session for the named archive.
func (r *Repository) Create(fileName string) (*entities.ImportSession, error) {
	session := &entities.ImportSession{
		FileName:  fileName,
		Status:    entities.ImportStatusPending,
		StartedAt: time.Now(),
	}
	if err := r.db.Create(session).Error; err != nil {
		return nil, fmt.Errorf("failed to create import session: %w", err)
	}
	return session, nil
}

// MarkRunning transitions a session to running.
func (r *Repository) MarkRunning(id uint) error {
	return r.db.Model(&entities.ImportSession{}).Where("id = ?", id).
		Update("status", entities.ImportStatusRunning).Error
}

// Complete records the outcome of a finished run. Failures are stored as
// JSON for later inspection through the API.
func (r *Repository) Complete(id uint, total, imported, failed int, failures any) error {
	failureJSON := ""
	if failures != nil {
		data, err := json.Marshal(failures)
		if err != nil {
			return fmt.Errorf("failed to serialize failures: %w", err)
		}
		failureJSON = string(data)
	}

	now := time.Now()
	updates := map[string]any{
		"status":       entities.ImportStatusCompleted,
		"total":        total,
		"imported":     imported,
		"failed":       failed,
		"failure_json": failureJSON,
		"completed_at": &now,
	}
	return r.db.Model(&entities.ImportSession{}).Where("id = ?", id).Updates(updates).Error
}

// Fail marks a session as failed with the fatal error message.
func (r *Repository) Fail(id uint, reason string) error {
	now := time.Now()
	updates := map[string]any{
		"status":       entities.ImportStatusFailed,
		"error":        reason,
		"completed_at": &now,
	}
	return r.db.Model(&entities.ImportSession{}).Where("id = ?", id).Updates(updates).Error
}

// GetByID retrieves a single session.
func (r *Repository) GetByID(id uint) (*entities.ImportSession, error) {
	var session entities.ImportSession
	if err := r.db.First(&session, id).Error; err != nil {
		return nil, err
	}
	return &session, nil
}

// List retrieves recent sessions, newest first.
func (r *Repository) List(limit int) ([]entities.ImportSession, error) {
	if limit <= 0 {
		limit = 50
	}
	var sessions []entities.ImportSession
	err := r.db.Order("started_at DESC").Limit(limit).Find(&sessions).Error
	return sessions, err
}
