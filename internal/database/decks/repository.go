// Package decks provides database operations for deck management.
package decks

import (
	"errors"
	"fmt"

	"gorm.io/gorm"

	"github.com/akarpovich/deckport/internal/entities"
)

// Repository handles all deck database operations.
type Repository struct {
	db *gorm.DB
}

// NewRepository creates a new decks repository.
func NewRepository(db *gorm.DB) *Repository {
	return &Repository{db: db}
}

// ListDecks retrieves all decks ordered by path.
func (r *Repository) ListDecks() ([]entities.Deck, error) {
	var decks []entities.Deck
	err := r.db.Order("path ASC").Find(&decks).Error
	return decks, err
}

// GetDeckByID retrieves a deck with its cards.
func (r *Repository) GetDeckByID(id uint) (*entities.Deck, error) {
	var deck entities.Deck
	err := r.db.Preload("Cards", func(db *gorm.DB) *gorm.DB {
		return db.Order("source_card_id ASC")
	}).First(&deck, id).Error
	if err != nil {
		return nil, err
	}
	return &deck, nil
}

// GetDeckByPath retrieves a deck by its full path, or nil when absent.
func (r *Repository) GetDeckByPath(path string) (*entities.Deck, error) {
	var deck entities.Deck
	err := r.db.Where("path = ?", path).First(&deck).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &deck, nil
}

// CreateDeck persists a new deck.
func (r *Repository) CreateDeck(deck *entities.Deck) error {
	if err := r.db.Create(deck).Error; err != nil {
		return fmt.Errorf("failed to create deck %s: %w", deck.Path, err)
	}
	return nil
}

// CountCards returns the number of cards filed in the deck.
func (r *Repository) CountCards(deckID uint) (int64, error) {
	var count int64
	err := r.db.Model(&entities.Card{}).Where("deck_id = ?", deckID).Count(&count).Error
	return count, err
}

// DeleteDeck removes a deck together with its cards.
func (r *Repository) DeleteDeck(id uint) error {
	return r.db.Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("deck_id = ?", id).Delete(&entities.Card{}).Error; err != nil {
			return fmt.Errorf("failed to delete cards of deck %d: %w", id, err)
		}
		if err := tx.Delete(&entities.Deck{}, id).Error; err != nil {
			return fmt.Errorf("failed to delete deck %d: %w", id, err)
		}
		return nil
	})
}
