// Package importedfiles tracks archives the watch folder has already
// imported, so re-scans skip files whose content has not changed.
package importedfiles

import (
	"errors"
	"fmt"
	"time"

	"gorm.io/gorm"

	"github.com/akarpovich/deckport/internal/entities"
)

// Repository handles the imported-file ledger.
type Repository struct {
	db *gorm.DB
}

// NewRepository creates a new imported-files repository.
func NewRepository(db *gorm.DB) *Repository {
	return &Repository{db: db}
}

// IsImported reports whether a file with this content hash was imported.
func (r *Repository) IsImported(hash string) (bool, error) {
	var record entities.ImportedFile
	err := r.db.Where("hash = ?", hash).First(&record).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	return true, nil
}

// MarkImported records a processed archive.
func (r *Repository) MarkImported(path, hash string) error {
	record := &entities.ImportedFile{
		Path:       path,
		Hash:       hash,
		ImportedAt: time.Now(),
	}
	if err := r.db.Create(record).Error; err != nil {
		return fmt.Errorf("failed to record imported file %s: %w", path, err)
	}
	return nil
}
