// Package cards provides database operations for imported cards.
package cards

import (
	"errors"
	"fmt"

	"gorm.io/gorm"

	"github.com/akarpovich/deckport/internal/entities"
)

// Repository handles all card database operations.
type Repository struct {
	db *gorm.DB
}

// NewRepository creates a new cards repository.
func NewRepository(db *gorm.DB) *Repository {
	return &Repository{db: db}
}

// SaveCard persists a card. Re-importing the same source card updates the
// existing row in place instead of duplicating it.
func (r *Repository) SaveCard(card *entities.Card) error {
	var existing entities.Card
	err := r.db.Where("source_card_id = ?", card.SourceCardID).First(&existing).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		if err := r.db.Create(card).Error; err != nil {
			return fmt.Errorf("failed to create card %d: %w", card.SourceCardID, err)
		}
		return nil
	}
	if err != nil {
		return fmt.Errorf("failed to look up card %d: %w", card.SourceCardID, err)
	}

	card.ID = existing.ID
	card.CreatedAt = existing.CreatedAt
	if err := r.db.Save(card).Error; err != nil {
		return fmt.Errorf("failed to update card %d: %w", card.SourceCardID, err)
	}
	return nil
}

// GetCardByID retrieves a single card.
func (r *Repository) GetCardByID(id uint) (*entities.Card, error) {
	var card entities.Card
	if err := r.db.First(&card, id).Error; err != nil {
		return nil, err
	}
	return &card, nil
}

// ListCardsByDeck retrieves all cards of a deck in source order.
func (r *Repository) ListCardsByDeck(deckID uint) ([]entities.Card, error) {
	var cards []entities.Card
	err := r.db.Where("deck_id = ?", deckID).Order("source_card_id ASC").Find(&cards).Error
	return cards, err
}

// CountCards returns the total number of cards.
func (r *Repository) CountCards() (int64, error) {
	var count int64
	err := r.db.Model(&entities.Card{}).Count(&count).Error
	return count, err
}

// SaveMediaAssets upserts media asset records keyed by content hash.
// A re-imported blob keeps its row and accumulates the reference count.
func (r *Repository) SaveMediaAssets(assets []*entities.MediaAsset) error {
	for _, asset := range assets {
		var existing entities.MediaAsset
		err := r.db.Where("hash = ?", asset.Hash).First(&existing).Error
		if errors.Is(err, gorm.ErrRecordNotFound) {
			if err := r.db.Create(asset).Error; err != nil {
				return fmt.Errorf("failed to create media asset %s: %w", asset.Hash, err)
			}
			continue
		}
		if err != nil {
			return fmt.Errorf("failed to look up media asset %s: %w", asset.Hash, err)
		}

		existing.RefCount += asset.RefCount
		existing.StoredRef = asset.StoredRef
		if err := r.db.Save(&existing).Error; err != nil {
			return fmt.Errorf("failed to update media asset %s: %w", asset.Hash, err)
		}
	}
	return nil
}
